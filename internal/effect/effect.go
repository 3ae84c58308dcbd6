// Package effect applies declarative effect descriptors to player state.
package effect

import (
	"fmt"
	"strings"

	"storyforge/internal/gameerr"
	"storyforge/internal/player"
	"storyforge/internal/progression"
)

// Effects is the declarative bundle of state deltas carried by a choice or a
// combat outcome. Every field is optional.
type Effects struct {
	Karma        int                 `yaml:"karma,omitempty" json:"karma,omitempty"`
	Experience   int                 `yaml:"experience,omitempty" json:"experience,omitempty"`
	Health       int                 `yaml:"health,omitempty" json:"health,omitempty"`
	Mana         int                 `yaml:"mana,omitempty" json:"mana,omitempty"`
	Flags        map[string]any      `yaml:"flags,omitempty" json:"flags,omitempty"`
	Relationship *RelationshipChange `yaml:"relationship,omitempty" json:"relationship,omitempty"`
	Items        []string            `yaml:"items,omitempty" json:"items,omitempty"`
}

// RelationshipChange upserts the relationship with one NPC. Trust is a delta;
// a non-empty Status replaces the current one.
type RelationshipChange struct {
	NPC    string `yaml:"npc" json:"npc"`
	Trust  int    `yaml:"trust,omitempty" json:"trust,omitempty"`
	Status string `yaml:"status,omitempty" json:"status,omitempty"`
}

// IsZero reports whether the descriptor changes nothing.
func (e Effects) IsZero() bool {
	return e.Karma == 0 && e.Experience == 0 && e.Health == 0 && e.Mana == 0 &&
		len(e.Flags) == 0 && e.Relationship == nil && len(e.Items) == 0
}

// Validate checks every field of the descriptor.
func (e Effects) Validate() error {
	if e.Experience < 0 {
		return fmt.Errorf("experience delta %d is negative", e.Experience)
	}
	for name, value := range e.Flags {
		if strings.TrimSpace(name) == "" {
			return fmt.Errorf("flag with empty name")
		}
		if !isScalar(value) {
			return fmt.Errorf("flag %s has non-scalar value %T", name, value)
		}
	}
	for i, item := range e.Items {
		if strings.TrimSpace(item) == "" {
			return fmt.Errorf("item %d is empty", i)
		}
	}
	if e.Relationship != nil && strings.TrimSpace(e.Relationship.NPC) == "" {
		return fmt.Errorf("relationship change without npc")
	}
	return nil
}

func isScalar(value any) bool {
	switch value.(type) {
	case nil, bool, string, int, int64, float64:
		return true
	default:
		return false
	}
}

// Apply returns the state that results from applying e to s.
//
// The descriptor is validated as a whole before anything changes. A
// malformed descriptor is reported as a content integrity error and s is
// returned untouched. Otherwise the deltas are applied to a copy of s:
// health and mana are clamped to [0, max], karma is unbounded, flags are
// merged without a truthy flag ever turning falsy, items appended, the relationship upserted, and experience is added
// before the progression rules are run.
func Apply(s *player.State, e Effects, rules progression.Rules) (*player.State, error) {
	if err := e.Validate(); err != nil {
		return s, gameerr.Wrap(gameerr.KindContentIntegrity, "malformed effect descriptor", err)
	}

	next := s.Clone()
	next.Karma += e.Karma
	next.Vitals.Health = clamp(next.Vitals.Health+e.Health, 0, next.Vitals.MaxHealth)
	next.Vitals.Mana = clamp(next.Vitals.Mana+e.Mana, 0, next.Vitals.MaxMana)

	for name, value := range e.Flags {
		// a set flag may change value but never goes back to unset
		if player.Truthy(next.Flags[name]) && !player.Truthy(value) {
			continue
		}
		next.Flags[name] = value
	}
	next.Inventory = append(next.Inventory, e.Items...)

	if rc := e.Relationship; rc != nil {
		rel := next.Relationships[rc.NPC]
		rel.Trust += rc.Trust
		if rc.Status != "" {
			rel.Status = rc.Status
		}
		next.Relationships[rc.NPC] = rel
	}

	if e.Experience > 0 {
		next.Progression.Experience += e.Experience
		progression.CheckLevelUp(next, rules)
	}
	return next, nil
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
