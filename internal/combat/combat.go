// Package combat resolves turn-based fights entered from combat scenes.
//
// A Session runs the state machine NotStarted -> InProgress -> {Victory,
// Defeat, Fled}. Initiative is fixed: the player acts first, then each enemy
// in roster order. The round counter advances whenever the turn cursor wraps
// back to the player. Every action is checked for legality before anything
// changes, so a rejected action never mutates the session or advances the
// turn.
package combat

import (
	"fmt"
	"strings"
)

// State is the phase of a combat session.
type State string

const (
	StateNotStarted State = "not_started"
	StateInProgress State = "in_progress"
	StateVictory    State = "victory"
	StateDefeat     State = "defeat"
	StateFled       State = "fled"
)

// Terminal reports whether the state ends the session.
func (s State) Terminal() bool {
	return s == StateVictory || s == StateDefeat || s == StateFled
}

// Side separates the player from enemies.
type Side string

const (
	SidePlayer Side = "player"
	SideEnemy  Side = "enemy"
)

// Polarity classifies a status effect.
type Polarity string

const (
	Buff    Polarity = "buff"
	Debuff  Polarity = "debuff"
	Neutral Polarity = "neutral"
)

// StatusDef describes a status effect a skill can apply.
type StatusDef struct {
	Name          string   `yaml:"name" json:"name"`
	Polarity      Polarity `yaml:"polarity" json:"polarity"`
	Duration      int      `yaml:"duration" json:"duration"`
	AttackDelta   int      `yaml:"attack_delta,omitempty" json:"attack_delta,omitempty"`
	DefenseDelta  int      `yaml:"defense_delta,omitempty" json:"defense_delta,omitempty"`
	HealthPerTurn int      `yaml:"health_per_turn,omitempty" json:"health_per_turn,omitempty"`
}

// Status is an active status effect with its remaining turn count.
type Status struct {
	StatusDef `yaml:",inline"`
	Remaining int `yaml:"remaining" json:"remaining"`
}

// SkillKind is what a skill does to its target.
type SkillKind string

const (
	KindDamage SkillKind = "damage"
	KindHeal   SkillKind = "heal"
	KindBuff   SkillKind = "buff"
	KindDebuff SkillKind = "debuff"
)

// TargetsEnemy reports whether the skill is aimed at an enemy.
func (k SkillKind) TargetsEnemy() bool {
	return k == KindDamage || k == KindDebuff
}

// Skill is one entry of the skill registry. A damage skill's Status lands
// only when the target survives the hit; buff and debuff skills always
// apply theirs.
type Skill struct {
	Name        string     `yaml:"name" json:"name"`
	Description string     `yaml:"description,omitempty" json:"description,omitempty"`
	Kind        SkillKind  `yaml:"kind" json:"kind"`
	Base        int        `yaml:"base,omitempty" json:"base,omitempty"`
	ManaCost    int        `yaml:"mana_cost,omitempty" json:"mana_cost,omitempty"`
	Attribute   string     `yaml:"attribute,omitempty" json:"attribute,omitempty"`
	Cost        int        `yaml:"cost,omitempty" json:"cost,omitempty"`
	Status      *StatusDef `yaml:"status,omitempty" json:"status,omitempty"`
}

// Validate checks a registry entry.
func (s Skill) Validate() error {
	if strings.TrimSpace(s.Name) == "" {
		return fmt.Errorf("skill name is required")
	}
	switch s.Kind {
	case KindDamage, KindHeal:
	case KindBuff, KindDebuff:
		if s.Status == nil {
			return fmt.Errorf("skill %s: %s skills need a status", s.Name, s.Kind)
		}
	default:
		return fmt.Errorf("skill %s: unknown kind %q", s.Name, s.Kind)
	}
	if s.Base < 0 || s.ManaCost < 0 || s.Cost < 0 {
		return fmt.Errorf("skill %s: base, mana cost and cost must be non-negative", s.Name)
	}
	if st := s.Status; st != nil {
		if strings.TrimSpace(st.Name) == "" {
			return fmt.Errorf("skill %s: status name is required", s.Name)
		}
		if st.Duration < 1 {
			return fmt.Errorf("skill %s: status duration must be at least 1", s.Name)
		}
		switch st.Polarity {
		case Buff, Debuff, Neutral:
		default:
			return fmt.Errorf("skill %s: unknown status polarity %q", s.Name, st.Polarity)
		}
	}
	return nil
}

// Skills is the skill registry, keyed by lower-cased name.
type Skills map[string]Skill

// NewSkills validates and indexes skills.
func NewSkills(list []Skill) (Skills, error) {
	out := make(Skills, len(list))
	for _, s := range list {
		if err := s.Validate(); err != nil {
			return nil, err
		}
		key := strings.ToLower(s.Name)
		if _, exists := out[key]; exists {
			return nil, fmt.Errorf("duplicate skill: %s", s.Name)
		}
		out[key] = s
	}
	return out, nil
}

// Lookup finds a skill by case-insensitive name.
func (s Skills) Lookup(name string) (Skill, bool) {
	skill, ok := s[strings.ToLower(strings.TrimSpace(name))]
	return skill, ok
}

// Rules are the combat constants.
type Rules struct {
	BasicAttack             int    `yaml:"basic_attack"`
	BasicAttribute          string `yaml:"basic_attribute"`
	EnemyDamageMin          int    `yaml:"enemy_damage_min"`
	EnemyDamageMax          int    `yaml:"enemy_damage_max"`
	ExperiencePerEnemyLevel int    `yaml:"experience_per_enemy_level"`
}

// DefaultRules returns the canonical combat constants.
func DefaultRules() Rules {
	return Rules{
		BasicAttack:             4,
		BasicAttribute:          "strength",
		EnemyDamageMin:          2,
		EnemyDamageMax:          6,
		ExperiencePerEnemyLevel: 50,
	}
}

// Validate checks the combat constants.
func (r Rules) Validate() error {
	if r.BasicAttack < 0 {
		return fmt.Errorf("basic attack must be non-negative")
	}
	if r.EnemyDamageMin < 0 || r.EnemyDamageMax < r.EnemyDamageMin {
		return fmt.Errorf("enemy damage range [%d, %d] is invalid", r.EnemyDamageMin, r.EnemyDamageMax)
	}
	if r.ExperiencePerEnemyLevel < 0 {
		return fmt.Errorf("experience per enemy level must be non-negative")
	}
	return nil
}

// Combatant is one participant of a session.
type Combatant struct {
	ID        string   `json:"id"`
	Name      string   `json:"name"`
	Side      Side     `json:"side"`
	Level     int      `json:"level"`
	HP        int      `json:"hp"`
	MaxHP     int      `json:"max_hp"`
	Mana      int      `json:"mana"`
	MaxMana   int      `json:"max_mana"`
	Attack    int      `json:"attack"`
	Defense   int      `json:"defense"`
	Statuses  []Status `json:"statuses,omitempty"`
	DamageMin int      `json:"-"`
	DamageMax int      `json:"-"`
	XP        int      `json:"-"`
}

// Alive reports whether the combatant still has hp.
func (c *Combatant) Alive() bool {
	return c.HP > 0
}

// EffectiveAttack adds status attack deltas to the base attack.
func (c *Combatant) EffectiveAttack() int {
	total := c.Attack
	for _, s := range c.Statuses {
		total += s.AttackDelta
	}
	return total
}

// EffectiveDefense adds status defense deltas to the base defense, never
// going below zero.
func (c *Combatant) EffectiveDefense() int {
	total := c.Defense
	for _, s := range c.Statuses {
		total += s.DefenseDelta
	}
	return max(total, 0)
}

func (c *Combatant) applyDamage(amount int) {
	c.HP = max(c.HP-amount, 0)
}

func (c *Combatant) applyHeal(amount int) {
	c.HP = min(c.HP+amount, c.MaxHP)
}

// addStatus applies def, refreshing the duration when the status is already
// active.
func (c *Combatant) addStatus(def StatusDef) {
	for i := range c.Statuses {
		if strings.EqualFold(c.Statuses[i].Name, def.Name) {
			c.Statuses[i] = Status{StatusDef: def, Remaining: def.Duration}
			return
		}
	}
	c.Statuses = append(c.Statuses, Status{StatusDef: def, Remaining: def.Duration})
}

// Event is one line of the combat log.
type Event struct {
	Round     int    `json:"round"`
	Actor     string `json:"actor"`
	Action    string `json:"action"`
	Skill     string `json:"skill,omitempty"`
	Target    string `json:"target,omitempty"`
	Amount    int    `json:"amount,omitempty"`
	TargetHP  int    `json:"target_hp"`
	ActorMana int    `json:"actor_mana"`
	Status    string `json:"status,omitempty"`
	Text      string `json:"text"`
}
