package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"storyforge/internal/combat"
	"storyforge/internal/engine"
	"storyforge/internal/player"
	"storyforge/internal/progression"
)

// Ruleset holds the game constants and registries loaded from rules.yaml.
type Ruleset struct {
	Version     int               `yaml:"version"`
	Start       player.Defaults   `yaml:"start"`
	Progression progression.Rules `yaml:"progression"`
	Combat      combat.Rules      `yaml:"combat"`
	Skills      []combat.Skill    `yaml:"skills"`
	Narration   map[string]string `yaml:"narration"`

	skillIndex combat.Skills
}

// DefaultRuleset returns the canonical rules used when a project has no
// rules file.
func DefaultRuleset() *Ruleset {
	r := &Ruleset{
		Version:     1,
		Start:       player.Defaults{Health: 30, Mana: 10},
		Progression: progression.DefaultRules(),
		Combat:      combat.DefaultRules(),
		Skills: []combat.Skill{
			{Name: "Power Strike", Description: "A heavy two-handed blow.", Kind: combat.KindDamage, Base: 7, ManaCost: 3, Attribute: player.Strength, Cost: 2},
			{Name: "Fireball", Description: "Hurls a ball of flame.", Kind: combat.KindDamage, Base: 10, ManaCost: 6, Attribute: player.Intelligence, Cost: 3},
			{Name: "Heal", Description: "Closes wounds.", Kind: combat.KindHeal, Base: 8, ManaCost: 4, Attribute: player.Wisdom, Cost: 2},
			{Name: "Battle Cry", Description: "Steels the nerves.", Kind: combat.KindBuff, ManaCost: 2, Cost: 2,
				Status: &combat.StatusDef{Name: "emboldened", Polarity: combat.Buff, Duration: 3, AttackDelta: 2}},
			{Name: "Shield Wall", Description: "Raises a guard.", Kind: combat.KindBuff, ManaCost: 2, Cost: 1,
				Status: &combat.StatusDef{Name: "guarded", Polarity: combat.Buff, Duration: 2, DefenseDelta: 3}},
			{Name: "Poison Blade", Description: "A coated edge.", Kind: combat.KindDamage, Base: 2, ManaCost: 3, Attribute: player.Dexterity, Cost: 3,
				Status: &combat.StatusDef{Name: "poisoned", Polarity: combat.Debuff, Duration: 3, HealthPerTurn: -2}},
			{Name: "Hex", Description: "Saps the will to fight.", Kind: combat.KindDebuff, ManaCost: 3, Cost: 2,
				Status: &combat.StatusDef{Name: "hexed", Polarity: combat.Debuff, Duration: 2, AttackDelta: -2, DefenseDelta: -1}},
		},
	}
	if err := r.index(); err != nil {
		panic(err)
	}
	return r
}

// LoadRuleset reads a rules file. Sections the file leaves out keep their
// default values.
func LoadRuleset(path string) (*Ruleset, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("loading ruleset: %w", err)
	}

	rules := DefaultRuleset()
	if err := yaml.Unmarshal(data, rules); err != nil {
		return nil, fmt.Errorf("loading ruleset: %w", err)
	}

	if err := validateRuleset(rules); err != nil {
		return nil, fmt.Errorf("loading ruleset: %w", err)
	}
	if err := rules.index(); err != nil {
		return nil, fmt.Errorf("loading ruleset: %w", err)
	}

	return rules, nil
}

func (r *Ruleset) index() error {
	skills, err := combat.NewSkills(r.Skills)
	if err != nil {
		return err
	}
	r.skillIndex = skills
	return nil
}

func validateRuleset(r *Ruleset) error {
	if r.Version != 1 {
		return fmt.Errorf("unsupported version: %d", r.Version)
	}
	if r.Start.Health <= 0 {
		return fmt.Errorf("start health must be positive")
	}
	if r.Start.Mana < 0 {
		return fmt.Errorf("start mana must be non-negative")
	}
	for name, score := range r.Start.Attributes {
		if !player.IsAttribute(name) {
			return fmt.Errorf("unknown start attribute: %s", name)
		}
		if score < 1 {
			return fmt.Errorf("start attribute %s must be at least 1", name)
		}
	}

	p := r.Progression
	if p.ExperiencePerLevel <= 0 {
		return fmt.Errorf("experience per level must be positive")
	}
	if p.SkillPointsPerLevel < 0 || p.AttributePointsPerLevel < 0 || p.HealthPerLevel < 0 || p.ManaPerLevel < 0 {
		return fmt.Errorf("per-level bonuses must be non-negative")
	}

	if err := r.Combat.Validate(); err != nil {
		return err
	}
	if r.Combat.BasicAttribute != "" && !player.IsAttribute(r.Combat.BasicAttribute) {
		return fmt.Errorf("unknown basic attack attribute: %s", r.Combat.BasicAttribute)
	}

	names := make(map[string]struct{})
	for i, skill := range r.Skills {
		if err := skill.Validate(); err != nil {
			return fmt.Errorf("skill %d: %w", i, err)
		}
		if skill.Attribute != "" && !player.IsAttribute(skill.Attribute) {
			return fmt.Errorf("skill %s uses unknown attribute: %s", skill.Name, skill.Attribute)
		}
		key := strings.ToLower(skill.Name)
		if _, exists := names[key]; exists {
			return fmt.Errorf("duplicate skill name: %s", skill.Name)
		}
		names[key] = struct{}{}
	}
	for _, skill := range r.Start.Skills {
		if _, ok := names[strings.ToLower(skill)]; !ok {
			return fmt.Errorf("start skill %s is not in the skill registry", skill)
		}
	}

	if _, err := combat.NewNarrator(r.Narration); err != nil {
		return err
	}
	return nil
}

func (r *Ruleset) SkillByName(name string) (combat.Skill, bool) {
	if r == nil {
		return combat.Skill{}, false
	}
	return r.skillIndex.Lookup(name)
}

func (r *Ruleset) IsValidSkill(name string) bool {
	_, ok := r.SkillByName(name)
	return ok
}

// EngineRules builds the registries a world runs with.
func (r *Ruleset) EngineRules() (engine.Rules, error) {
	narrator, err := combat.NewNarrator(r.Narration)
	if err != nil {
		return engine.Rules{}, fmt.Errorf("building narration: %w", err)
	}
	return engine.Rules{
		Start:       r.Start,
		Progression: r.Progression,
		Combat:      r.Combat,
		Skills:      r.skillIndex,
		Narrator:    narrator,
	}, nil
}
