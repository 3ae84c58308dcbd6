package mcp

import (
	"sort"
	"time"

	"storyforge/internal/combat"
	"storyforge/internal/dice"
	"storyforge/internal/engine"
	"storyforge/internal/player"
	"storyforge/internal/scene"
)

type SceneOutput struct {
	ID          string         `json:"id"`
	Title       string         `json:"title"`
	Description string         `json:"description"`
	Background  string         `json:"background,omitempty"`
	Choices     []ChoiceOutput `json:"choices"`
	Combat      bool           `json:"combat,omitempty"`
	Boss        bool           `json:"boss,omitempty"`
	Ending      bool           `json:"ending,omitempty"`
	InCombat    bool           `json:"in_combat,omitempty"`
	Over        bool           `json:"over"`
}

type ChoiceOutput struct {
	ID     string       `json:"id"`
	Text   string       `json:"text"`
	Action string       `json:"action,omitempty"`
	Check  *CheckOutput `json:"check,omitempty"`
	Once   bool         `json:"once,omitempty"`
}

// CheckOutput describes either a pending check (die, target, skill) or a
// rolled one (every field).
type CheckOutput struct {
	Die             string `json:"die"`
	Target          int    `json:"target"`
	Skill           string `json:"skill,omitempty"`
	Rolls           []int  `json:"rolls,omitempty"`
	Modifier        int    `json:"modifier,omitempty"`
	Total           int    `json:"total,omitempty"`
	Success         *bool  `json:"success,omitempty"`
	CriticalSuccess bool   `json:"critical_success,omitempty"`
	CriticalFailure bool   `json:"critical_failure,omitempty"`
}

type OutcomeOutput struct {
	Scene     SceneOutput   `json:"scene"`
	Check     *CheckOutput  `json:"check,omitempty"`
	LeveledUp bool          `json:"leveled_up,omitempty"`
	Combat    *CombatOutput `json:"combat,omitempty"`
	Events    []EventOutput `json:"events,omitempty"`
	Over      bool          `json:"over"`
}

type CombatStatusOutput struct {
	Active bool          `json:"active"`
	Combat *CombatOutput `json:"combat,omitempty"`
	Log    []EventOutput `json:"log,omitempty"`
}

type CombatOutput struct {
	ID         string            `json:"id"`
	State      string            `json:"state"`
	Round      int               `json:"round"`
	Turn       string            `json:"turn,omitempty"`
	Player     CombatantOutput   `json:"player"`
	Enemies    []CombatantOutput `json:"enemies"`
	Experience int               `json:"experience,omitempty"`
}

type CombatantOutput struct {
	ID       string         `json:"id"`
	Name     string         `json:"name"`
	Level    int            `json:"level"`
	HP       int            `json:"hp"`
	MaxHP    int            `json:"max_hp"`
	Mana     int            `json:"mana"`
	MaxMana  int            `json:"max_mana"`
	Statuses []StatusOutput `json:"statuses,omitempty"`
}

type StatusOutput struct {
	Name      string `json:"name"`
	Polarity  string `json:"polarity"`
	Remaining int    `json:"remaining"`
}

type EventOutput struct {
	Round  int    `json:"round"`
	Actor  string `json:"actor"`
	Action string `json:"action"`
	Skill  string `json:"skill,omitempty"`
	Target string `json:"target,omitempty"`
	Amount int    `json:"amount,omitempty"`
	Text   string `json:"text"`
}

type PlayerOutput struct {
	Location        string                  `json:"location"`
	Level           int                     `json:"level"`
	Experience      int                     `json:"experience"`
	Health          int                     `json:"health"`
	MaxHealth       int                     `json:"max_health"`
	Mana            int                     `json:"mana"`
	MaxMana         int                     `json:"max_mana"`
	Karma           int                     `json:"karma"`
	SkillPoints     int                     `json:"skill_points"`
	AttributePoints int                     `json:"attribute_points"`
	Attributes      []AttributeOutput       `json:"attributes"`
	Skills          []string                `json:"skills"`
	Inventory       []string                `json:"inventory"`
	Flags           []string                `json:"flags"`
	Relationships   map[string]Relationship `json:"relationships,omitempty"`
}

type AttributeOutput struct {
	Name     string `json:"name"`
	Score    int    `json:"score"`
	Modifier int    `json:"modifier"`
}

type Relationship struct {
	Trust  int    `json:"trust"`
	Status string `json:"status,omitempty"`
}

type SaveSummaryOutput struct {
	Slot     string    `json:"slot"`
	Location string    `json:"location"`
	Level    int       `json:"level"`
	SavedAt  time.Time `json:"saved_at"`
}

func sceneOutput(s scene.Scene, pt *engine.Playthrough) SceneOutput {
	out := SceneOutput{
		ID:          s.ID,
		Title:       s.Title,
		Description: s.Description,
		Background:  s.Background,
		Choices:     make([]ChoiceOutput, 0, len(s.Choices)),
		Combat:      s.Combat,
		Boss:        s.Boss,
		Ending:      s.Ending,
		InCombat:    pt.InCombat(),
		Over:        pt.Over(),
	}
	for _, c := range s.Choices {
		choice := ChoiceOutput{ID: c.ID, Text: c.Text, Action: c.Action, Once: c.Once}
		if c.Check != nil {
			choice.Check = &CheckOutput{Die: c.Check.Die, Target: c.Check.Target, Skill: c.Check.Skill}
		}
		out.Choices = append(out.Choices, choice)
	}
	return out
}

func checkOutput(r dice.Result) CheckOutput {
	out := CheckOutput{
		Die:             r.Die,
		Rolls:           append([]int{}, r.Rolls...),
		Modifier:        r.Modifier,
		Total:           r.Total,
		Success:         r.Success,
		CriticalSuccess: r.CriticalSuccess,
		CriticalFailure: r.CriticalFailure,
	}
	if r.Target != nil {
		out.Target = *r.Target
	}
	return out
}

func outcomeOutput(o engine.Outcome, pt *engine.Playthrough) OutcomeOutput {
	out := OutcomeOutput{
		Scene:     sceneOutput(o.Scene, pt),
		LeveledUp: o.LeveledUp,
		Events:    eventOutputs(o.Events),
		Over:      o.Over,
	}
	if o.Check != nil {
		check := checkOutput(*o.Check)
		out.Check = &check
	}
	if o.Combat != nil {
		out.Combat = combatOutput(*o.Combat)
	}
	return out
}

func combatOutput(v combat.View) *CombatOutput {
	out := &CombatOutput{
		ID:         v.ID,
		State:      string(v.State),
		Round:      v.Round,
		Turn:       v.Turn,
		Player:     combatantOutput(v.Player),
		Enemies:    make([]CombatantOutput, 0, len(v.Enemies)),
		Experience: v.Experience,
	}
	for _, e := range v.Enemies {
		out.Enemies = append(out.Enemies, combatantOutput(e))
	}
	return out
}

func combatantOutput(c combat.Combatant) CombatantOutput {
	out := CombatantOutput{
		ID:      c.ID,
		Name:    c.Name,
		Level:   c.Level,
		HP:      c.HP,
		MaxHP:   c.MaxHP,
		Mana:    c.Mana,
		MaxMana: c.MaxMana,
	}
	for _, st := range c.Statuses {
		out.Statuses = append(out.Statuses, StatusOutput{Name: st.Name, Polarity: string(st.Polarity), Remaining: st.Remaining})
	}
	return out
}

func eventOutputs(events []combat.Event) []EventOutput {
	if len(events) == 0 {
		return nil
	}
	out := make([]EventOutput, 0, len(events))
	for _, e := range events {
		out = append(out, EventOutput{
			Round:  e.Round,
			Actor:  e.Actor,
			Action: e.Action,
			Skill:  e.Skill,
			Target: e.Target,
			Amount: e.Amount,
			Text:   e.Text,
		})
	}
	return out
}

func playerOutput(st *player.State) PlayerOutput {
	out := PlayerOutput{
		Location:        st.Location,
		Level:           st.Progression.Level,
		Experience:      st.Progression.Experience,
		Health:          st.Vitals.Health,
		MaxHealth:       st.Vitals.MaxHealth,
		Mana:            st.Vitals.Mana,
		MaxMana:         st.Vitals.MaxMana,
		Karma:           st.Karma,
		SkillPoints:     st.Progression.SkillPoints,
		AttributePoints: st.Progression.AttributePoints,
		Attributes:      make([]AttributeOutput, 0, len(player.Attributes)),
		Skills:          append([]string{}, st.Skills...),
		Inventory:       append([]string{}, st.Inventory...),
		Flags:           make([]string, 0, len(st.Flags)),
	}
	for _, name := range player.Attributes {
		out.Attributes = append(out.Attributes, AttributeOutput{Name: name, Score: st.Attribute(name), Modifier: st.Modifier(name)})
	}
	for name := range st.Flags {
		if st.HasFlag(name) {
			out.Flags = append(out.Flags, name)
		}
	}
	sort.Strings(out.Flags)
	if len(st.Relationships) > 0 {
		out.Relationships = make(map[string]Relationship, len(st.Relationships))
		for npc, rel := range st.Relationships {
			out.Relationships[npc] = Relationship{Trust: rel.Trust, Status: rel.Status}
		}
	}
	return out
}
