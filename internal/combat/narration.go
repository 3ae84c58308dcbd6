package combat

import (
	"bytes"
	"fmt"
	"text/template"
)

// Action names used in events and as narration registry keys.
const (
	ActionStart         = "start"
	ActionAttack        = "attack"
	ActionSkill         = "skill"
	ActionHeal          = "heal"
	ActionBuff          = "buff"
	ActionDebuff        = "debuff"
	ActionEnemyAttack   = "enemy_attack"
	ActionStatusTick    = "status_tick"
	ActionStatusExpired = "status_expired"
	ActionDefeated      = "defeated"
	ActionVictory       = "victory"
	ActionDefeat        = "defeat"
	ActionFlee          = "flee"
)

// DefaultNarration returns the built-in narration templates. Each template is
// executed against the Event it describes.
func DefaultNarration() map[string]string {
	return map[string]string{
		ActionStart:         "Combat begins. {{.Actor}} faces {{.Target}}.",
		ActionAttack:        "{{.Actor}} strikes {{.Target}} for {{.Amount}} damage.",
		ActionSkill:         "{{.Actor}} uses {{.Skill}} on {{.Target}} for {{.Amount}} damage.",
		ActionHeal:          "{{.Actor}} uses {{.Skill}} and recovers {{.Amount}} health.",
		ActionBuff:          "{{.Actor}} is empowered by {{.Status}}.",
		ActionDebuff:        "{{.Target}} suffers {{.Status}}.",
		ActionEnemyAttack:   "{{.Actor}} hits {{.Target}} for {{.Amount}} damage.",
		ActionStatusTick:    "{{.Status}} changes {{.Actor}}'s health by {{.Amount}}.",
		ActionStatusExpired: "{{.Status}} wears off {{.Actor}}.",
		ActionDefeated:      "{{.Target}} falls.",
		ActionVictory:       "Victory!",
		ActionDefeat:        "{{.Actor}} has been defeated.",
		ActionFlee:          "{{.Actor}} flees the fight.",
	}
}

// Narrator renders events with the narration registry.
type Narrator struct {
	templates map[string]*template.Template
}

// NewNarrator parses templates, filling gaps from DefaultNarration.
func NewNarrator(templates map[string]string) (*Narrator, error) {
	merged := DefaultNarration()
	for action, text := range templates {
		merged[action] = text
	}
	n := &Narrator{templates: make(map[string]*template.Template, len(merged))}
	for action, text := range merged {
		tmpl, err := template.New(action).Option("missingkey=zero").Parse(text)
		if err != nil {
			return nil, fmt.Errorf("parsing narration for %s: %w", action, err)
		}
		n.templates[action] = tmpl
	}
	return n, nil
}

// Narrate renders ev. Unknown actions fall back to a plain description.
func (n *Narrator) Narrate(ev Event) string {
	if n != nil {
		if tmpl, ok := n.templates[ev.Action]; ok {
			var buf bytes.Buffer
			if err := tmpl.Execute(&buf, ev); err == nil {
				return buf.String()
			}
		}
	}
	if ev.Target != "" {
		return fmt.Sprintf("%s: %s -> %s (%d)", ev.Actor, ev.Action, ev.Target, ev.Amount)
	}
	return fmt.Sprintf("%s: %s (%d)", ev.Actor, ev.Action, ev.Amount)
}
