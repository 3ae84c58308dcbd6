package engine

import (
	"time"

	"go.uber.org/zap"

	"storyforge/internal/gameerr"
	"storyforge/internal/player"
	"storyforge/internal/progression"
)

// SpendAttribute moves unspent attribute points into an attribute.
func (p *Playthrough) SpendAttribute(attribute string, points int) (*player.State, error) {
	next := p.state.Clone()
	if err := progression.SpendAttributePoints(next, attribute, points); err != nil {
		return nil, err
	}
	p.state = next
	p.log.Info("attribute raised", zap.String("attribute", attribute), zap.Int("points", points))
	return next.Clone(), nil
}

// LearnSkill spends skill points on a skill from the registry.
func (p *Playthrough) LearnSkill(name string) (*player.State, error) {
	skill, ok := p.world.rules.Skills.Lookup(name)
	if !ok {
		return nil, gameerr.InvalidAction("unknown skill %q", name)
	}
	next := p.state.Clone()
	if err := progression.LearnSkill(next, skill.Name, skill.Cost); err != nil {
		return nil, err
	}
	p.state = next
	p.log.Info("skill learned", zap.String("skill", skill.Name), zap.Int("cost", skill.Cost))
	return next.Clone(), nil
}

// Snapshot exports the player state. Saving mid-combat is refused because
// combat sessions are not persisted.
func (p *Playthrough) Snapshot(now time.Time) (player.Snapshot, error) {
	if p.fight != nil {
		return player.Snapshot{}, gameerr.InvalidAction("cannot save during combat")
	}
	return player.Export(p.state, p.world.digest, now), nil
}

// Restore replaces the player state with a snapshot. A snapshot taken
// against other content is loaded anyway with a warning; a location that no
// longer exists is a content integrity error.
func (p *Playthrough) Restore(snap player.Snapshot) error {
	st, err := player.Import(snap)
	if err != nil {
		return gameerr.Wrap(gameerr.KindContentIntegrity, "invalid snapshot", err)
	}
	if !p.world.Graph().Has(st.Location) {
		return gameerr.ContentIntegrity("snapshot location %q does not exist", st.Location)
	}
	if snap.ContentDigest != "" && p.world.digest != "" && snap.ContentDigest != p.world.digest {
		p.log.Warn("snapshot was saved against different content",
			zap.String("saved", snap.ContentDigest),
			zap.String("current", p.world.digest),
		)
	}

	p.state = st
	p.fight = nil
	p.over = st.Dead()
	if s, err := p.world.Graph().Scene(st.Location); err == nil && s.Ending {
		p.over = true
	}
	p.log.Info("snapshot restored", zap.String("location", st.Location), zap.Time("saved_at", snap.SavedAt))
	return nil
}
