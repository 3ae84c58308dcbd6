package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"storyforge/internal/config"
)

func initCmd() *cobra.Command {
	var projectName string
	var dir string
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Scaffold a new storyforge project with sample scenes",
		RunE: func(cmd *cobra.Command, args []string) error {
			if strings.TrimSpace(projectName) == "" {
				return fmt.Errorf("--name is required")
			}
			return runInit(projectName, dir)
		},
	}
	cmd.Flags().StringVar(&projectName, "name", "", "Project name")
	cmd.Flags().StringVar(&dir, "dir", ".", "Directory to scaffold into")
	return cmd
}

func runInit(projectName, dir string) error {
	configPath := filepath.Join(dir, "storyforge.yaml")
	rulesPath := filepath.Join(dir, "rules.yaml")
	for _, path := range []string{configPath, rulesPath} {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("%s already exists", path)
		}
	}

	rules, err := yaml.Marshal(config.DefaultRuleset())
	if err != nil {
		return fmt.Errorf("encoding default rules: %w", err)
	}

	configContents := fmt.Sprintf("project: %s\nversion: 1\n\ncontent:\n  paths:\n    - ./story/\n  exclude:\n    - ./story/drafts/\n  start_scene: crossroads\n\nrules: rules.yaml\n\nstorage:\n  dsn: %s\n\nneo4j:\n  uri: bolt://localhost:7687\n  username: neo4j\n  database: neo4j\n\nlog:\n  level: info\n", projectName, config.DefaultStorageDSN)
	files := map[string][]byte{
		configPath: []byte(configContents),
		rulesPath:  rules,
	}
	for name, body := range sampleStory {
		files[filepath.Join(dir, "story", name)] = []byte(body)
	}

	for path, body := range files {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return fmt.Errorf("creating %s: %w", filepath.Dir(path), err)
		}
		if err := os.WriteFile(path, body, 0o600); err != nil {
			return fmt.Errorf("writing %s: %w", path, err)
		}
	}

	fmt.Fprintf(os.Stdout, "Created %s with %d sample scenes.\n", configPath, len(sampleStory)-1)
	return nil
}

var sampleStory = map[string]string{
	"crossroads.md": `---
id: crossroads
type: scene
title: The Crossroads
tags: [opening]
choices:
  - id: search
    text: Search the abandoned cart
    target: crossroads
    once: true
    effects: {items: [rope], flags: {has_rope: true}, experience: 10}
  - id: cliff
    text: Climb the cliff path
    target: summit
    check: {die: d20, target: 14, skill: dexterity}
    failure: {target: crossroads, effects: {health: -3}}
  - id: cave
    text: Enter the wolf cave
    target: cave
---
A weathered signpost leans at the meeting of three roads.
`,
	"cave.md": `---
id: cave
type: scene
title: Wolf Cave
combat: true
enemies:
  - {id: wolf, name: Grey Wolf, level: 1, hp: 8, attack: 2}
outcomes: {victory: summit, flee: crossroads}
---
Yellow eyes shine from the back of the cave.
`,
	"summit.md": `---
id: summit
type: scene
title: The Summit
ending: true
---
The whole valley lies below you. Your journey ends here.
`,
	"variants/rope.md": `---
id: crossroads-rope
type: variant
scene: crossroads
when: {all: [has_rope]}
patch:
  add_choices:
    - id: rope
      text: Tie the rope and climb safely
      target: summit
---
The coil of rope on your shoulder makes the cliff look less daunting.
`,
}
