package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// DefaultStorageDSN is where snapshots go when the project names no store.
const DefaultStorageDSN = "sqlite://.storyforge/saves.db"

type ProjectConfig struct {
	Project string        `yaml:"project"`
	Version int           `yaml:"version"`
	Content ContentConfig `yaml:"content"`
	Rules   string        `yaml:"rules"`
	Storage StorageConfig `yaml:"storage"`
	Neo4j   Neo4jConfig   `yaml:"neo4j"`
	Log     LogConfig     `yaml:"log"`

	root string
}

type ContentConfig struct {
	Paths      []string `yaml:"paths"`
	Exclude    []string `yaml:"exclude"`
	StartScene string   `yaml:"start_scene"`
}

type StorageConfig struct {
	DSN string `yaml:"dsn"`
}

type Neo4jConfig struct {
	URI      string `yaml:"uri"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	Database string `yaml:"database"`
}

type LogConfig struct {
	Level       string `yaml:"level"`
	Development bool   `yaml:"development"`
}

func LoadProjectConfig(path string) (*ProjectConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("loading project config: %w", err)
	}

	var cfg ProjectConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("loading project config: %w", err)
	}
	if err := cfg.ApplyEnv(); err != nil {
		return nil, fmt.Errorf("loading project config: %w", err)
	}
	if err := validateProjectConfig(&cfg); err != nil {
		return nil, fmt.Errorf("loading project config: %w", err)
	}

	if cfg.Storage.DSN == "" {
		cfg.Storage.DSN = DefaultStorageDSN
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	cfg.root = filepath.Dir(path)

	return &cfg, nil
}

func validateProjectConfig(cfg *ProjectConfig) error {
	if strings.TrimSpace(cfg.Project) == "" {
		return fmt.Errorf("project name is required")
	}
	if cfg.Version != 1 {
		return fmt.Errorf("unsupported version: %d", cfg.Version)
	}
	if len(cfg.Content.Paths) == 0 {
		return fmt.Errorf("at least one content path is required")
	}
	for i, p := range cfg.Content.Paths {
		if strings.TrimSpace(p) == "" {
			return fmt.Errorf("content path %d is empty", i)
		}
	}
	if strings.TrimSpace(cfg.Content.StartScene) == "" {
		return fmt.Errorf("content start_scene is required")
	}
	switch strings.ToLower(cfg.Log.Level) {
	case "", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("unknown log level: %s", cfg.Log.Level)
	}
	return nil
}

// Resolve makes a project-relative path absolute against the directory the
// config file was loaded from.
func (c *ProjectConfig) Resolve(path string) string {
	if path == "" || filepath.IsAbs(path) || c.root == "" {
		return path
	}
	return filepath.Join(c.root, path)
}

// ContentPaths returns the content roots resolved against the project
// directory.
func (c *ProjectConfig) ContentPaths() []string {
	out := make([]string, 0, len(c.Content.Paths))
	for _, p := range c.Content.Paths {
		out = append(out, c.Resolve(p))
	}
	return out
}
