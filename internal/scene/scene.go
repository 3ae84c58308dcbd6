// Package scene holds the immutable scene graph and resolves the scene a
// player is shown, applying content-defined variant rules.
package scene

import (
	"slices"

	"storyforge/internal/effect"
)

// Check gates a choice behind a skill check. Skill names the attribute that
// supplies the modifier.
type Check struct {
	Die    string `yaml:"die" json:"die"`
	Target int    `yaml:"target" json:"target"`
	Skill  string `yaml:"skill,omitempty" json:"skill,omitempty"`
}

// Failure is where a failed check leads. An empty Target keeps the player in
// the current scene.
type Failure struct {
	Target  string         `yaml:"target,omitempty" json:"target,omitempty"`
	Effects effect.Effects `yaml:"effects,omitempty" json:"effects,omitempty"`
}

// Choice is an edge of the scene graph.
type Choice struct {
	ID      string         `yaml:"id" json:"id"`
	Text    string         `yaml:"text" json:"text"`
	Action  string         `yaml:"action,omitempty" json:"action,omitempty"`
	Target  string         `yaml:"target" json:"target"`
	Effects effect.Effects `yaml:"effects,omitempty" json:"effects,omitempty"`
	Check   *Check         `yaml:"check,omitempty" json:"check,omitempty"`
	Failure *Failure       `yaml:"failure,omitempty" json:"failure,omitempty"`
	Once    bool           `yaml:"once,omitempty" json:"once,omitempty"`
}

// Enemy is one entry of a combat scene's roster.
type Enemy struct {
	ID         string `yaml:"id" json:"id"`
	Name       string `yaml:"name" json:"name"`
	Level      int    `yaml:"level" json:"level"`
	HP         int    `yaml:"hp" json:"hp"`
	Attack     int    `yaml:"attack,omitempty" json:"attack,omitempty"`
	Defense    int    `yaml:"defense,omitempty" json:"defense,omitempty"`
	DamageMin  int    `yaml:"damage_min,omitempty" json:"damage_min,omitempty"`
	DamageMax  int    `yaml:"damage_max,omitempty" json:"damage_max,omitempty"`
	Experience int    `yaml:"experience,omitempty" json:"experience,omitempty"`
}

// Outcomes routes the end of a combat scene.
type Outcomes struct {
	Victory string `yaml:"victory,omitempty" json:"victory,omitempty"`
	Defeat  string `yaml:"defeat,omitempty" json:"defeat,omitempty"`
	Flee    string `yaml:"flee,omitempty" json:"flee,omitempty"`
}

// Scene is a node of the narrative graph.
type Scene struct {
	ID          string   `yaml:"id" json:"id"`
	Title       string   `yaml:"title" json:"title"`
	Description string   `yaml:"-" json:"description"`
	Background  string   `yaml:"background,omitempty" json:"background,omitempty"`
	Choices     []Choice `yaml:"choices,omitempty" json:"choices"`
	Combat      bool     `yaml:"combat,omitempty" json:"combat,omitempty"`
	Boss        bool     `yaml:"boss,omitempty" json:"boss,omitempty"`
	Ending      bool     `yaml:"ending,omitempty" json:"ending,omitempty"`
	Enemies     []Enemy  `yaml:"enemies,omitempty" json:"enemies,omitempty"`
	Outcomes    Outcomes `yaml:"outcomes,omitempty" json:"outcomes,omitempty"`

	SourceFile string `yaml:"-" json:"-"`
}

// Choice returns the choice with the given id.
func (s *Scene) Choice(id string) (*Choice, bool) {
	for i := range s.Choices {
		if s.Choices[i].ID == id {
			return &s.Choices[i], true
		}
	}
	return nil, false
}

// Targets lists every scene id this scene can lead to, in declaration order.
func (s *Scene) Targets() []string {
	var out []string
	add := func(id string) {
		if id != "" && !slices.Contains(out, id) {
			out = append(out, id)
		}
	}
	for _, c := range s.Choices {
		add(c.Target)
		if c.Failure != nil {
			add(c.Failure.Target)
		}
	}
	add(s.Outcomes.Victory)
	add(s.Outcomes.Defeat)
	add(s.Outcomes.Flee)
	return out
}

// Clone returns a copy that shares nothing mutable with s.
func (s Scene) Clone() Scene {
	out := s
	out.Choices = make([]Choice, len(s.Choices))
	for i, c := range s.Choices {
		out.Choices[i] = c.clone()
	}
	out.Enemies = slices.Clone(s.Enemies)
	return out
}

func (c Choice) clone() Choice {
	out := c
	out.Effects = cloneEffects(c.Effects)
	if c.Check != nil {
		check := *c.Check
		out.Check = &check
	}
	if c.Failure != nil {
		failure := *c.Failure
		failure.Effects = cloneEffects(c.Failure.Effects)
		out.Failure = &failure
	}
	return out
}

func cloneEffects(e effect.Effects) effect.Effects {
	out := e
	if e.Flags != nil {
		out.Flags = make(map[string]any, len(e.Flags))
		for k, v := range e.Flags {
			out.Flags[k] = v
		}
	}
	out.Items = slices.Clone(e.Items)
	if e.Relationship != nil {
		rc := *e.Relationship
		out.Relationship = &rc
	}
	return out
}
