// Package engine composes the scene selector, effect pipeline, skill checks
// and combat into a single playthrough.
//
// A World is loaded once and shared read-only. Each Playthrough owns one
// player state and at most one combat session; it is not safe for
// concurrent use, so hosts serialize calls per playthrough.
package engine

import (
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"storyforge/internal/combat"
	"storyforge/internal/dice"
	"storyforge/internal/player"
	"storyforge/internal/progression"
	"storyforge/internal/scene"
)

// Rules bundles the tunables every playthrough in a world runs with.
type Rules struct {
	Start       player.Defaults
	Progression progression.Rules
	Combat      combat.Rules
	Skills      combat.Skills
	Narrator    *combat.Narrator
}

// World is the shared, read-only half of the engine.
type World struct {
	selector *scene.Selector
	rules    Rules
	digest   string
}

// NewWorld pairs loaded content with the ruleset. digest identifies the
// content revision and is stamped into snapshots.
func NewWorld(sel *scene.Selector, rules Rules, digest string) (*World, error) {
	if sel == nil {
		return nil, fmt.Errorf("world needs a scene selector")
	}
	if !sel.Graph().Has(sel.Graph().Start()) {
		return nil, fmt.Errorf("start scene %q does not exist", sel.Graph().Start())
	}
	if rules.Narrator == nil {
		n, err := combat.NewNarrator(nil)
		if err != nil {
			return nil, err
		}
		rules.Narrator = n
	}
	if rules.Skills == nil {
		rules.Skills = combat.Skills{}
	}
	return &World{selector: sel, rules: rules, digest: digest}, nil
}

// Graph returns the scene graph.
func (w *World) Graph() *scene.Graph { return w.selector.Graph() }

// Rules returns the ruleset.
func (w *World) Rules() Rules { return w.rules }

// Digest returns the content digest.
func (w *World) Digest() string { return w.digest }

// Playthrough is one player's run through a world.
type Playthrough struct {
	id     string
	world  *World
	state  *player.State
	roller *dice.Roller
	fight  *fight
	over   bool
	log    *zap.Logger
}

// fight is the active combat and the scene that started it.
type fight struct {
	session *combat.Session
	scene   scene.Scene
}

// New starts a playthrough at the world's start scene. The seed drives every
// check and enemy roll, so equal seeds replay identically.
func New(w *World, seed uint64, log *zap.Logger) *Playthrough {
	if log == nil {
		log = zap.NewNop()
	}
	id := uuid.NewString()
	return &Playthrough{
		id:     id,
		world:  w,
		state:  player.New(w.rules.Start, w.Graph().Start()),
		roller: dice.NewRoller(seed),
		log:    log.With(zap.String("playthrough", id)),
	}
}

// ID returns the playthrough id.
func (p *Playthrough) ID() string { return p.id }

// World returns the world the playthrough runs in.
func (p *Playthrough) World() *World { return p.world }

// State returns a copy of the player state.
func (p *Playthrough) State() *player.State { return p.state.Clone() }

// Over reports whether the playthrough has ended: an ending scene was
// reached, or the player was defeated with nowhere to go.
func (p *Playthrough) Over() bool { return p.over }

// Reseed restarts the dice stream.
func (p *Playthrough) Reseed(seed uint64) { p.roller.Reseed(seed) }

// InCombat reports whether a combat session is running.
func (p *Playthrough) InCombat() bool { return p.fight != nil }

// Outcome is what a submission produced.
type Outcome struct {
	Scene     scene.Scene    `json:"scene"`
	Check     *dice.Result   `json:"check,omitempty"`
	LeveledUp bool           `json:"leveled_up,omitempty"`
	Combat    *combat.View   `json:"combat,omitempty"`
	Events    []combat.Event `json:"events,omitempty"`
	Over      bool           `json:"over"`
}
