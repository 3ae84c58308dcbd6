package engine

import (
	"go.uber.org/zap"

	"storyforge/internal/combat"
	"storyforge/internal/dice"
	"storyforge/internal/effect"
	"storyforge/internal/gameerr"
	"storyforge/internal/player"
	"storyforge/internal/scene"
)

// Submission is a host's choice. Check carries the already-rolled dice when
// the choice is gated by a skill check.
type Submission struct {
	SceneID  string       `json:"scene_id"`
	ChoiceID string       `json:"choice_id"`
	Check    *dice.Result `json:"check,omitempty"`
}

// Current resolves the scene at the player's location. One-shot choices
// already taken are hidden.
func (p *Playthrough) Current() (scene.Scene, error) {
	return p.present(p.state, p.state.Location)
}

func (p *Playthrough) present(st *player.State, id string) (scene.Scene, error) {
	s, err := p.world.selector.Resolve(id, st)
	if err != nil {
		return scene.Scene{}, err
	}
	visible := s.Choices[:0]
	for _, c := range s.Choices {
		if c.Once && st.Consumed[player.ChoiceKey(s.ID, c.ID)] {
			continue
		}
		visible = append(visible, c)
	}
	s.Choices = visible
	return s, nil
}

// RollCheck rolls the skill check gating a choice with the playthrough's
// dice. The modifier comes from the attribute the check names.
func (p *Playthrough) RollCheck(sceneID, choiceID string) (dice.Result, error) {
	_, choice, err := p.lookup(sceneID, choiceID)
	if err != nil {
		return dice.Result{}, err
	}
	if choice.Check == nil {
		return dice.Result{}, gameerr.InvalidAction("choice %q has no skill check", choiceID)
	}
	result, err := p.roller.Roll(choice.Check.Die, p.modifier(choice.Check), dice.Target(choice.Check.Target))
	if err != nil {
		return dice.Result{}, gameerr.Wrap(gameerr.KindContentIntegrity, "bad check on "+choiceID, err)
	}
	return result, nil
}

// Advance takes a choice, rolling its check first when it has one.
func (p *Playthrough) Advance(sceneID, choiceID string) (Outcome, error) {
	sub := Submission{SceneID: sceneID, ChoiceID: choiceID}
	_, choice, err := p.lookup(sceneID, choiceID)
	if err != nil {
		return Outcome{}, err
	}
	if choice.Check != nil {
		result, err := p.RollCheck(sceneID, choiceID)
		if err != nil {
			return Outcome{}, err
		}
		sub.Check = &result
	}
	return p.Choose(sub)
}

// Choose applies a submitted choice: it scores any required check, applies
// the effects of the branch taken, moves the player and enters combat when
// the next scene calls for it. A rejected submission leaves the playthrough
// unchanged.
func (p *Playthrough) Choose(sub Submission) (Outcome, error) {
	current, choice, err := p.lookup(sub.SceneID, sub.ChoiceID)
	if err != nil {
		return Outcome{}, err
	}

	effects, target := choice.Effects, choice.Target
	var check *dice.Result
	passed := true
	if choice.Check != nil {
		if sub.Check == nil {
			return Outcome{}, gameerr.InvalidAction("choice %q requires a %s check", choice.ID, choice.Check.Die)
		}
		scored, err := dice.Evaluate(choice.Check.Die, sub.Check.Rolls, p.modifier(choice.Check), dice.Target(choice.Check.Target))
		if err != nil {
			return Outcome{}, gameerr.Wrap(gameerr.KindInvalidAction, "check result does not match "+choice.Check.Die, err)
		}
		check = &scored
		passed = scored.Passed()
		if !passed {
			effects, target = effect.Effects{}, current.ID
			if f := choice.Failure; f != nil {
				effects = f.Effects
				if f.Target != "" {
					target = f.Target
				}
			}
		}
	}
	if !p.world.Graph().Has(target) {
		return Outcome{}, gameerr.ContentIntegrity("choice %q in %q leads to missing scene %q", choice.ID, current.ID, target)
	}

	next, err := effect.Apply(p.state, effects, p.world.rules.Progression)
	if err != nil {
		return Outcome{}, err
	}
	leveled := next.Progression.Level > p.state.Progression.Level
	if choice.Once && passed {
		next.Consumed[player.ChoiceKey(current.ID, choice.ID)] = true
	}
	next.Location = target

	out, f, err := p.enter(next, target, target != current.ID)
	if err != nil {
		return Outcome{}, err
	}
	p.commit(next, f, out)

	p.log.Info("choice taken",
		zap.String("scene", current.ID),
		zap.String("choice", choice.ID),
		zap.Bool("passed", passed),
		zap.String("next", target),
	)
	if leveled {
		p.log.Info("level up", zap.Int("level", next.Progression.Level))
	}

	out.Check = check
	out.LeveledUp = leveled
	return out, nil
}

// enter presents the scene st has just moved to and builds the combat that
// starts there when the player has just arrived. Nothing on p changes until
// the caller commits the result.
func (p *Playthrough) enter(st *player.State, id string, arrived bool) (Outcome, *fight, error) {
	s, err := p.present(st, id)
	if err != nil {
		return Outcome{}, nil, err
	}
	out := Outcome{Scene: s}
	var f *fight
	switch {
	case st.Dead(), s.Ending:
		out.Over = true
	case s.Combat && arrived:
		var events []combat.Event
		f, events, err = p.startCombat(st, s)
		if err != nil {
			return Outcome{}, nil, err
		}
		view := f.session.View()
		out.Combat = &view
		out.Events = events
	}
	return out, f, nil
}

func (p *Playthrough) commit(st *player.State, f *fight, out Outcome) {
	p.state = st
	p.fight = f
	p.over = out.Over
	if f != nil {
		p.log.Info("combat started",
			zap.String("scene", f.scene.ID),
			zap.String("combat", f.session.ID()),
			zap.Int("enemies", len(f.scene.Enemies)),
			zap.Bool("boss", f.scene.Boss),
		)
	}
}

// lookup validates that the playthrough can take a choice at all and finds
// it in the resolved scene.
func (p *Playthrough) lookup(sceneID, choiceID string) (scene.Scene, scene.Choice, error) {
	if p.over {
		return scene.Scene{}, scene.Choice{}, gameerr.InvalidAction("playthrough is over")
	}
	if p.fight != nil {
		return scene.Scene{}, scene.Choice{}, gameerr.InvalidAction("combat in progress")
	}
	if sceneID != p.state.Location {
		return scene.Scene{}, scene.Choice{}, gameerr.InvalidAction("player is at %q, not %q", p.state.Location, sceneID)
	}
	s, err := p.world.selector.Resolve(sceneID, p.state)
	if err != nil {
		return scene.Scene{}, scene.Choice{}, err
	}
	c, ok := s.Choice(choiceID)
	if !ok {
		return scene.Scene{}, scene.Choice{}, gameerr.InvalidAction("scene %q has no choice %q", sceneID, choiceID)
	}
	if c.Once && p.state.Consumed[player.ChoiceKey(sceneID, choiceID)] {
		return scene.Scene{}, scene.Choice{}, gameerr.InvalidAction("choice %q already consumed", choiceID)
	}
	return s, *c, nil
}

func (p *Playthrough) modifier(c *scene.Check) int {
	if c.Skill == "" || !player.IsAttribute(c.Skill) {
		return 0
	}
	return p.state.Modifier(c.Skill)
}
