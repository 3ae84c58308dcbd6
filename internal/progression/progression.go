// Package progression converts experience into levels and manages the
// points a level-up grants.
package progression

import (
	"strings"

	"storyforge/internal/gameerr"
	"storyforge/internal/player"
)

// Rules are the per-level constants of the linear progression curve.
type Rules struct {
	ExperiencePerLevel      int `yaml:"experience_per_level"`
	SkillPointsPerLevel     int `yaml:"skill_points_per_level"`
	AttributePointsPerLevel int `yaml:"attribute_points_per_level"`
	HealthPerLevel          int `yaml:"health_per_level"`
	ManaPerLevel            int `yaml:"mana_per_level"`
}

// DefaultRules returns the canonical curve: level*100 experience per level,
// +2 skill points and +3 attribute points per level.
func DefaultRules() Rules {
	return Rules{
		ExperiencePerLevel:      100,
		SkillPointsPerLevel:     2,
		AttributePointsPerLevel: 3,
		HealthPerLevel:          10,
		ManaPerLevel:            5,
	}
}

// Needed returns the experience required to leave level.
func (r Rules) Needed(level int) int {
	return level * r.ExperiencePerLevel
}

// CheckLevelUp consumes experience for as many levels as it covers and
// reports whether at least one level was gained. s is mutated in place.
func CheckLevelUp(s *player.State, rules Rules) bool {
	if rules.ExperiencePerLevel <= 0 {
		return false
	}
	leveled := false
	for {
		needed := rules.Needed(s.Progression.Level)
		if s.Progression.Experience < needed {
			return leveled
		}
		s.Progression.Experience -= needed
		s.Progression.Level++
		s.Progression.SkillPoints += rules.SkillPointsPerLevel
		s.Progression.AttributePoints += rules.AttributePointsPerLevel
		s.Vitals.MaxHealth += rules.HealthPerLevel
		s.Vitals.Health += rules.HealthPerLevel
		s.Vitals.MaxMana += rules.ManaPerLevel
		s.Vitals.Mana += rules.ManaPerLevel
		leveled = true
	}
}

// SpendAttributePoints raises attribute by points, paying one attribute
// point each.
func SpendAttributePoints(s *player.State, attribute string, points int) error {
	name := strings.ToLower(strings.TrimSpace(attribute))
	if !player.IsAttribute(name) {
		return gameerr.InvalidAction("unknown attribute %q", attribute)
	}
	if points <= 0 {
		return gameerr.InvalidAction("points to spend must be positive")
	}
	if s.Progression.AttributePoints < points {
		return gameerr.ResourceExhaustion("need %d attribute points, have %d", points, s.Progression.AttributePoints)
	}
	s.Progression.AttributePoints -= points
	s.Attributes[name] += points
	return nil
}

// LearnSkill adds skill to the player's known skills for cost skill points.
func LearnSkill(s *player.State, skill string, cost int) error {
	if strings.TrimSpace(skill) == "" {
		return gameerr.InvalidAction("skill name is required")
	}
	if s.KnowsSkill(skill) {
		return gameerr.InvalidAction("skill %q already known", skill)
	}
	if cost < 0 {
		return gameerr.ContentIntegrity("skill %q has negative cost", skill)
	}
	if s.Progression.SkillPoints < cost {
		return gameerr.ResourceExhaustion("need %d skill points, have %d", cost, s.Progression.SkillPoints)
	}
	s.Progression.SkillPoints -= cost
	s.Skills = append(s.Skills, skill)
	return nil
}
