// Package player holds the mutable state of one playthrough.
package player

import (
	"fmt"
	"maps"
	"slices"
	"strings"
)

// Attribute names.
const (
	Strength     = "strength"
	Dexterity    = "dexterity"
	Constitution = "constitution"
	Intelligence = "intelligence"
	Wisdom       = "wisdom"
	Charisma     = "charisma"
)

// Attributes lists the six attribute names in display order.
var Attributes = []string{Strength, Dexterity, Constitution, Intelligence, Wisdom, Charisma}

// IsAttribute reports whether name is one of the six attributes.
func IsAttribute(name string) bool {
	return slices.Contains(Attributes, strings.ToLower(name))
}

type Vitals struct {
	Health    int `yaml:"health" json:"health"`
	MaxHealth int `yaml:"max_health" json:"max_health"`
	Mana      int `yaml:"mana" json:"mana"`
	MaxMana   int `yaml:"max_mana" json:"max_mana"`
}

type Progression struct {
	Level           int `yaml:"level" json:"level"`
	Experience      int `yaml:"experience" json:"experience"`
	SkillPoints     int `yaml:"skill_points" json:"skill_points"`
	AttributePoints int `yaml:"attribute_points" json:"attribute_points"`
}

// Relationship describes how an NPC regards the player.
type Relationship struct {
	Trust  int    `yaml:"trust" json:"trust"`
	Status string `yaml:"status,omitempty" json:"status,omitempty"`
}

// State is the full state of one playthrough.
type State struct {
	Vitals        Vitals
	Progression   Progression
	Attributes    map[string]int
	Karma         int
	Flags         map[string]any
	Inventory     []string
	Relationships map[string]Relationship
	Skills        []string
	Location      string

	// Consumed records one-shot choices already taken, keyed by ChoiceKey.
	Consumed map[string]bool
}

// Defaults are the values a fresh playthrough starts with.
type Defaults struct {
	Health     int            `yaml:"health"`
	Mana       int            `yaml:"mana"`
	Attributes map[string]int `yaml:"attributes"`
	Skills     []string       `yaml:"skills"`
}

// New creates the state for a playthrough starting at scene start.
func New(d Defaults, start string) *State {
	attrs := make(map[string]int, len(Attributes))
	for _, name := range Attributes {
		attrs[name] = 10
	}
	for name, value := range d.Attributes {
		attrs[strings.ToLower(name)] = value
	}
	return &State{
		Vitals: Vitals{
			Health:    d.Health,
			MaxHealth: d.Health,
			Mana:      d.Mana,
			MaxMana:   d.Mana,
		},
		Progression:   Progression{Level: 1},
		Attributes:    attrs,
		Flags:         make(map[string]any),
		Inventory:     []string{},
		Relationships: make(map[string]Relationship),
		Skills:        slices.Clone(d.Skills),
		Location:      start,
		Consumed:      make(map[string]bool),
	}
}

// Clone returns a deep copy of s.
func (s *State) Clone() *State {
	if s == nil {
		return nil
	}
	c := *s
	c.Attributes = maps.Clone(s.Attributes)
	c.Flags = maps.Clone(s.Flags)
	c.Inventory = slices.Clone(s.Inventory)
	c.Relationships = maps.Clone(s.Relationships)
	c.Skills = slices.Clone(s.Skills)
	c.Consumed = maps.Clone(s.Consumed)
	if c.Attributes == nil {
		c.Attributes = make(map[string]int)
	}
	if c.Flags == nil {
		c.Flags = make(map[string]any)
	}
	if c.Relationships == nil {
		c.Relationships = make(map[string]Relationship)
	}
	if c.Consumed == nil {
		c.Consumed = make(map[string]bool)
	}
	return &c
}

// Attribute returns the score for name, or 0 if the attribute is unknown.
func (s *State) Attribute(name string) int {
	return s.Attributes[strings.ToLower(name)]
}

// Modifier returns the check modifier derived from an attribute score.
func (s *State) Modifier(name string) int {
	return AttributeModifier(s.Attribute(name))
}

// AttributeModifier converts a score to a modifier: 10-11 is +0, 12-13 +1,
// 8-9 -1 and so on.
func AttributeModifier(score int) int {
	diff := score - 10
	if diff < 0 {
		return (diff - 1) / 2
	}
	return diff / 2
}

// HasFlag reports whether the flag is set to a truthy value.
func (s *State) HasFlag(name string) bool {
	value, ok := s.Flags[name]
	if !ok {
		return false
	}
	return Truthy(value)
}

// Truthy reports whether a flag value counts as set.
func Truthy(value any) bool {
	switch v := value.(type) {
	case nil:
		return false
	case bool:
		return v
	case string:
		return v != "" && !strings.EqualFold(v, "false")
	case int:
		return v != 0
	case int64:
		return v != 0
	case float64:
		return v != 0
	default:
		return true
	}
}

// HasItem reports whether the inventory holds at least one of item.
func (s *State) HasItem(item string) bool {
	return slices.Contains(s.Inventory, item)
}

// KnowsSkill reports whether the player has learned skill.
func (s *State) KnowsSkill(skill string) bool {
	for _, known := range s.Skills {
		if strings.EqualFold(known, skill) {
			return true
		}
	}
	return false
}

// Dead reports whether the player has no health left.
func (s *State) Dead() bool {
	return s.Vitals.Health <= 0
}

// ChoiceKey identifies a choice for the Consumed set.
func ChoiceKey(sceneID, choiceID string) string {
	return sceneID + "/" + choiceID
}

// Validate checks the structural invariants of s.
func (s *State) Validate() error {
	v := s.Vitals
	if v.MaxHealth < 0 || v.MaxMana < 0 {
		return fmt.Errorf("max health and max mana must be non-negative")
	}
	if v.Health < 0 || v.Health > v.MaxHealth {
		return fmt.Errorf("health %d outside [0, %d]", v.Health, v.MaxHealth)
	}
	if v.Mana < 0 || v.Mana > v.MaxMana {
		return fmt.Errorf("mana %d outside [0, %d]", v.Mana, v.MaxMana)
	}
	p := s.Progression
	if p.Level < 1 {
		return fmt.Errorf("level must be at least 1")
	}
	if p.Experience < 0 || p.SkillPoints < 0 || p.AttributePoints < 0 {
		return fmt.Errorf("experience and points must be non-negative")
	}
	for _, name := range Attributes {
		score, ok := s.Attributes[name]
		if !ok {
			return fmt.Errorf("missing attribute %s", name)
		}
		if score < 1 {
			return fmt.Errorf("attribute %s must be at least 1", name)
		}
	}
	for name := range s.Attributes {
		if !IsAttribute(name) {
			return fmt.Errorf("unknown attribute %s", name)
		}
	}
	return nil
}
