package scene

import (
	"fmt"
	"strings"

	"storyforge/internal/gameerr"
	"storyforge/internal/player"
)

// Condition is a predicate over player flags. Every populated clause must
// hold; an empty condition always holds.
type Condition struct {
	All    []string       `yaml:"all,omitempty" json:"all,omitempty"`
	Any    []string       `yaml:"any,omitempty" json:"any,omitempty"`
	None   []string       `yaml:"none,omitempty" json:"none,omitempty"`
	Equals map[string]any `yaml:"equals,omitempty" json:"equals,omitempty"`
}

// Holds evaluates the condition against flags.
func (c Condition) Holds(flags map[string]any) bool {
	for _, name := range c.All {
		if !player.Truthy(flags[name]) {
			return false
		}
	}
	if len(c.Any) > 0 {
		matched := false
		for _, name := range c.Any {
			if player.Truthy(flags[name]) {
				matched = true
				break
			}
		}
		if !matched {
			return false
		}
	}
	for _, name := range c.None {
		if player.Truthy(flags[name]) {
			return false
		}
	}
	for name, want := range c.Equals {
		got, ok := flags[name]
		if !ok || fmt.Sprint(got) != fmt.Sprint(want) {
			return false
		}
	}
	return true
}

// Flags lists every flag name the condition reads.
func (c Condition) Flags() []string {
	out := append([]string(nil), c.All...)
	out = append(out, c.Any...)
	out = append(out, c.None...)
	for name := range c.Equals {
		out = append(out, name)
	}
	return out
}

// Patch rewrites a scene. Empty fields leave the scene alone.
type Patch struct {
	Title             string   `yaml:"title,omitempty" json:"title,omitempty"`
	Background        string   `yaml:"background,omitempty" json:"background,omitempty"`
	Description       string   `yaml:"description,omitempty" json:"description,omitempty"`
	AppendDescription string   `yaml:"append_description,omitempty" json:"append_description,omitempty"`
	AddChoices        []Choice `yaml:"add_choices,omitempty" json:"add_choices,omitempty"`
	ReplaceChoices    []Choice `yaml:"replace_choices,omitempty" json:"replace_choices,omitempty"`
	RemoveChoices     []string `yaml:"remove_choices,omitempty" json:"remove_choices,omitempty"`
}

// Choices returns every choice the patch can introduce.
func (p Patch) Choices() []Choice {
	return append(append([]Choice(nil), p.AddChoices...), p.ReplaceChoices...)
}

func (p Patch) apply(s *Scene) {
	if p.Title != "" {
		s.Title = p.Title
	}
	if p.Background != "" {
		s.Background = p.Background
	}
	if p.Description != "" {
		s.Description = p.Description
	}
	if p.AppendDescription != "" {
		s.Description = strings.TrimRight(s.Description, "\n") + "\n\n" + p.AppendDescription
	}
	for _, id := range p.RemoveChoices {
		for i := range s.Choices {
			if s.Choices[i].ID == id {
				s.Choices = append(s.Choices[:i], s.Choices[i+1:]...)
				break
			}
		}
	}
	for _, c := range p.ReplaceChoices {
		if existing, ok := s.Choice(c.ID); ok {
			*existing = c.clone()
		}
	}
	for _, c := range p.AddChoices {
		if existing, ok := s.Choice(c.ID); ok {
			*existing = c.clone()
			continue
		}
		s.Choices = append(s.Choices, c.clone())
	}
}

// VariantRule patches a scene when its condition holds for the player's
// flags.
type VariantRule struct {
	ID    string    `yaml:"id" json:"id"`
	Scene string    `yaml:"scene" json:"scene"`
	When  Condition `yaml:"when" json:"when"`
	Patch Patch     `yaml:"patch" json:"patch"`

	SourceFile string `yaml:"-" json:"-"`
}

// Selector resolves the scene a player sees. It holds no per-player state.
type Selector struct {
	graph *Graph
	rules map[string][]VariantRule
}

// NewSelector indexes variant rules by scene id, preserving declaration
// order. A rule for an unknown scene is a content integrity error.
func NewSelector(g *Graph, rules []VariantRule) (*Selector, error) {
	s := &Selector{graph: g, rules: make(map[string][]VariantRule)}
	for _, rule := range rules {
		if !g.Has(rule.Scene) {
			return nil, gameerr.ContentIntegrity("variant rule %q targets unknown scene %q", rule.ID, rule.Scene)
		}
		s.rules[rule.Scene] = append(s.rules[rule.Scene], rule)
	}
	return s, nil
}

// Graph returns the underlying scene graph.
func (s *Selector) Graph() *Graph {
	return s.graph
}

// Rules returns the variant rules registered for a scene.
func (s *Selector) Rules(sceneID string) []VariantRule {
	return append([]VariantRule(nil), s.rules[sceneID]...)
}

// Resolve returns the scene id as the player should see it: the base scene
// with every matching variant rule applied in declaration order. The result
// depends only on the player's flags.
func (s *Selector) Resolve(id string, st *player.State) (Scene, error) {
	base, err := s.graph.Scene(id)
	if err != nil {
		return Scene{}, err
	}
	var flags map[string]any
	if st != nil {
		flags = st.Flags
	}
	for _, rule := range s.rules[id] {
		if rule.When.Holds(flags) {
			rule.Patch.apply(&base)
		}
	}
	return base, nil
}
