package engine

import (
	"go.uber.org/zap"

	"storyforge/internal/combat"
	"storyforge/internal/gameerr"
	"storyforge/internal/player"
	"storyforge/internal/scene"
)

func (p *Playthrough) startCombat(st *player.State, s scene.Scene) (*fight, []combat.Event, error) {
	rules := p.world.rules
	session, err := combat.New(st, s.Enemies, rules.Combat, rules.Skills, p.roller, rules.Narrator)
	if err != nil {
		return nil, nil, err
	}
	events, err := session.Start()
	if err != nil {
		return nil, nil, err
	}
	return &fight{session: session, scene: s}, events, nil
}

// Combat returns a summary of the running combat.
func (p *Playthrough) Combat() (combat.View, bool) {
	if p.fight == nil {
		return combat.View{}, false
	}
	return p.fight.session.View(), true
}

// CombatLog returns the running combat's event log.
func (p *Playthrough) CombatLog() []combat.Event {
	if p.fight == nil {
		return nil
	}
	return p.fight.session.Events()
}

// CombatAction plays the player's turn and then every enemy turn up to the
// player's next turn. When the fight ends the result is folded into the
// player state and the player moves to the scene the outcome routes to.
func (p *Playthrough) CombatAction(a combat.Action) (Outcome, error) {
	if p.fight == nil {
		return Outcome{}, gameerr.InvalidAction("no combat in progress")
	}
	session := p.fight.session
	events, err := session.Act(a)
	if err != nil {
		return Outcome{}, err
	}
	more, err := session.RunEnemyTurns()
	events = append(events, more...)
	if err != nil {
		return Outcome{}, err
	}
	return p.afterCombatTurn(events)
}

// Flee abandons the running combat.
func (p *Playthrough) Flee() (Outcome, error) {
	if p.fight == nil {
		return Outcome{}, gameerr.InvalidAction("no combat in progress")
	}
	events, err := p.fight.session.Flee()
	if err != nil {
		return Outcome{}, err
	}
	return p.afterCombatTurn(events)
}

func (p *Playthrough) afterCombatTurn(events []combat.Event) (Outcome, error) {
	session := p.fight.session
	view := session.View()
	if !view.State.Terminal() {
		s, err := p.present(p.state, p.state.Location)
		if err != nil {
			return Outcome{}, err
		}
		return Outcome{Scene: s, Combat: &view, Events: events}, nil
	}

	from := p.fight.scene
	var target string
	switch view.State {
	case combat.StateVictory:
		target = from.Outcomes.Victory
	case combat.StateDefeat:
		target = from.Outcomes.Defeat
	case combat.StateFled:
		target = from.Outcomes.Flee
	}
	routed := target != ""
	if !routed {
		target = from.ID
	}
	if !p.world.Graph().Has(target) {
		return Outcome{}, gameerr.ContentIntegrity("combat in %q routes to missing scene %q", from.ID, target)
	}

	level := p.state.Progression.Level
	next, err := session.Settle(p.state, p.world.rules.Progression)
	if err != nil {
		return Outcome{}, err
	}
	if view.State == combat.StateDefeat && routed && next.Dead() {
		// a routed defeat is a narrative branch: the player comes to on 1 hp
		next.Vitals.Health = 1
	}
	next.Location = target

	out, f, err := p.enter(next, target, target != from.ID)
	if err != nil {
		return Outcome{}, err
	}
	p.log.Info("combat ended",
		zap.String("scene", from.ID),
		zap.String("result", string(view.State)),
		zap.Int("rounds", view.Round),
		zap.Int("experience", view.Experience),
		zap.String("next", target),
	)
	p.commit(next, f, out)

	if f == nil {
		out.Combat = &view
		out.Events = events
	} else {
		out.Events = append(events, out.Events...)
	}
	out.LeveledUp = next.Progression.Level > level
	return out, nil
}
