package config

import (
	"os"
	"path/filepath"
	"testing"

	"storyforge/internal/combat"
)

func TestLoadRuleset(t *testing.T) {
	t.Run("valid ruleset loads", func(t *testing.T) {
		rules, err := LoadRuleset(filepath.Join("testdata", "valid_rules.yaml"))
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if rules.Start.Health != 40 {
			t.Fatalf("expected start health 40, got %d", rules.Start.Health)
		}
		if rules.Combat.ExperiencePerEnemyLevel != 40 {
			t.Fatalf("expected combat constants from file, got %+v", rules.Combat)
		}
		if len(rules.Skills) != 2 {
			t.Fatalf("expected file skills to replace the defaults, got %d", len(rules.Skills))
		}
	})

	t.Run("omitted sections keep defaults", func(t *testing.T) {
		path := writeTempRules(t, "version: 1\nstart:\n  health: 20\n")
		rules, err := LoadRuleset(path)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if rules.Progression.ExperiencePerLevel != 100 {
			t.Fatalf("expected default progression, got %+v", rules.Progression)
		}
		if rules.Start.Mana != 10 {
			t.Fatalf("expected default mana, got %d", rules.Start.Mana)
		}
		if !rules.IsValidSkill("fireball") {
			t.Fatalf("expected default skill registry")
		}
	})

	cases := map[string]string{
		"unsupported version":   "version: 3\n",
		"non-positive health":   "version: 1\nstart:\n  health: 0\n",
		"unknown attribute":     "version: 1\nstart:\n  health: 5\n  attributes:\n    luck: 12\n",
		"zero experience curve": "version: 1\nprogression:\n  experience_per_level: 0\n",
		"inverted damage range": "version: 1\ncombat:\n  enemy_damage_min: 5\n  enemy_damage_max: 1\n",
		"duplicate skills":      "version: 1\nskills:\n  - { name: Zap, kind: damage }\n  - { name: zap, kind: damage }\n",
		"buff without status":   "version: 1\nskills:\n  - { name: Ward, kind: buff }\n",
		"skill attribute":       "version: 1\nskills:\n  - { name: Zap, kind: damage, attribute: luck }\n",
		"start skill unknown":   "version: 1\nstart:\n  health: 5\n  skills: [Teleport]\n",
		"broken narration":      "version: 1\nnarration:\n  attack: \"{{.Actor\"\n",
		"invalid yaml":          "version: [\n",
	}
	for name, contents := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := LoadRuleset(writeTempRules(t, contents)); err == nil {
				t.Fatalf("expected error")
			}
		})
	}
}

func TestRulesetHelpers(t *testing.T) {
	rules, err := LoadRuleset(filepath.Join("testdata", "valid_rules.yaml"))
	if err != nil {
		t.Fatalf("loading ruleset: %v", err)
	}

	t.Run("SkillByName case-insensitive", func(t *testing.T) {
		skill, ok := rules.SkillByName("FROST NOVA")
		if !ok {
			t.Fatalf("expected to find Frost Nova")
		}
		if skill.Kind != combat.KindDebuff {
			t.Fatalf("expected debuff, got %s", skill.Kind)
		}
	})

	t.Run("nil ruleset", func(t *testing.T) {
		var r *Ruleset
		if r.IsValidSkill("heal") {
			t.Fatalf("expected nil ruleset to know no skills")
		}
	})

	t.Run("EngineRules carries narration", func(t *testing.T) {
		er, err := rules.EngineRules()
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		got := er.Narrator.Narrate(combat.Event{Action: combat.ActionAttack, Actor: "Player", Target: "Wolf", Amount: 3})
		if got != "Player lunges at Wolf, dealing 3." {
			t.Fatalf("unexpected narration %q", got)
		}
		if _, ok := er.Skills.Lookup("heal"); !ok {
			t.Fatalf("expected heal in engine registry")
		}
	})
}

func TestDefaultRuleset(t *testing.T) {
	rules := DefaultRuleset()
	if err := validateRuleset(rules); err != nil {
		t.Fatalf("default ruleset invalid: %v", err)
	}
}

func writeTempRules(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "rules.yaml")
	if err := os.WriteFile(path, []byte(contents), 0o600); err != nil {
		t.Fatalf("writing temp rules: %v", err)
	}
	return path
}
