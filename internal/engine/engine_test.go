package engine

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"storyforge/internal/combat"
	"storyforge/internal/dice"
	"storyforge/internal/effect"
	"storyforge/internal/gameerr"
	"storyforge/internal/player"
	"storyforge/internal/progression"
	"storyforge/internal/scene"
)

func testWorld(t *testing.T) *World {
	t.Helper()
	g, err := scene.NewGraph("camp", []scene.Scene{
		{
			ID:    "camp",
			Title: "Camp",
			Choices: []scene.Choice{
				{ID: "search", Text: "Search the packs", Target: "camp", Once: true,
					Effects: effect.Effects{Items: []string{"rope"}, Flags: map[string]any{"searched": true}}},
				{ID: "climb", Text: "Climb the cliff", Target: "ledge",
					Check:   &scene.Check{Die: "d20", Target: 15, Skill: player.Dexterity},
					Failure: &scene.Failure{Effects: effect.Effects{Health: -3}}},
				{ID: "fight", Text: "Enter the den", Target: "den"},
				{ID: "jump", Text: "Jump into the pit", Target: "pit"},
				{ID: "train", Text: "Train", Target: "camp", Effects: effect.Effects{Experience: 100}},
			},
		},
		{ID: "ledge", Title: "Ledge", Ending: true},
		{
			ID: "den", Title: "Den", Combat: true,
			Enemies:  []scene.Enemy{{ID: "wolf", Name: "Wolf", Level: 1, HP: 4, DamageMin: 1, DamageMax: 1}},
			Outcomes: scene.Outcomes{Victory: "clearing", Flee: "camp"},
			Choices:  []scene.Choice{{ID: "leave", Text: "Leave", Target: "camp"}},
		},
		{ID: "clearing", Title: "Clearing", Ending: true},
		{
			ID: "pit", Title: "Pit", Combat: true,
			Enemies:  []scene.Enemy{{ID: "ogre", Name: "Ogre", Level: 3, HP: 100, DamageMin: 15, DamageMax: 15}},
			Outcomes: scene.Outcomes{Victory: "clearing"},
		},
	})
	require.NoError(t, err)

	sel, err := scene.NewSelector(g, []scene.VariantRule{{
		ID:    "rope-route",
		Scene: "camp",
		When:  scene.Condition{All: []string{"searched"}},
		Patch: scene.Patch{AddChoices: []scene.Choice{{ID: "tie-rope", Text: "Tie the rope", Target: "ledge"}}},
	}})
	require.NoError(t, err)

	skills, err := combat.NewSkills([]combat.Skill{{Name: "Smite", Kind: combat.KindDamage, Base: 8, ManaCost: 2, Cost: 2}})
	require.NoError(t, err)

	w, err := NewWorld(sel, Rules{
		Start:       player.Defaults{Health: 10, Mana: 5},
		Progression: progression.DefaultRules(),
		Combat:      combat.DefaultRules(),
		Skills:      skills,
	}, "digest-a")
	require.NoError(t, err)
	return w
}

func choiceIDs(s scene.Scene) []string {
	ids := []string{}
	for _, c := range s.Choices {
		ids = append(ids, c.ID)
	}
	return ids
}

func TestNewPlaythroughStartsAtStart(t *testing.T) {
	p := New(testWorld(t), 1, zap.NewNop())
	s, err := p.Current()
	require.NoError(t, err)
	assert.Equal(t, "camp", s.ID)
	assert.Equal(t, "camp", p.State().Location)
	assert.Equal(t, 1, p.State().Progression.Level)
	assert.False(t, p.Over())
}

func TestChooseAppliesEffects(t *testing.T) {
	p := New(testWorld(t), 1, nil)

	out, err := p.Choose(Submission{SceneID: "camp", ChoiceID: "search"})
	require.NoError(t, err)
	assert.Equal(t, []string{"rope"}, p.State().Inventory)
	assert.True(t, p.State().HasFlag("searched"))

	assert.NotContains(t, choiceIDs(out.Scene), "search", "once choices are hidden after use")
	assert.Contains(t, choiceIDs(out.Scene), "tie-rope", "the flag unlocks the variant choice")

	_, err = p.Choose(Submission{SceneID: "camp", ChoiceID: "search"})
	assert.ErrorIs(t, err, gameerr.ErrInvalidAction)
	assert.Equal(t, []string{"rope"}, p.State().Inventory)
}

func TestChooseRejectsBadSubmissions(t *testing.T) {
	p := New(testWorld(t), 1, nil)
	before := p.State()

	_, err := p.Choose(Submission{SceneID: "ledge", ChoiceID: "search"})
	assert.ErrorIs(t, err, gameerr.ErrInvalidAction)

	_, err = p.Choose(Submission{SceneID: "camp", ChoiceID: "fly"})
	assert.ErrorIs(t, err, gameerr.ErrInvalidAction)

	_, err = p.Choose(Submission{SceneID: "camp", ChoiceID: "climb"})
	assert.ErrorIs(t, err, gameerr.ErrInvalidAction, "a gated choice needs a check result")

	_, err = p.Choose(Submission{SceneID: "camp", ChoiceID: "climb", Check: &dice.Result{Rolls: []int{21}}})
	assert.ErrorIs(t, err, gameerr.ErrInvalidAction)

	assert.Equal(t, before, p.State())
}

func TestSkillCheckBranches(t *testing.T) {
	p := New(testWorld(t), 1, nil)

	out, err := p.Choose(Submission{SceneID: "camp", ChoiceID: "climb", Check: &dice.Result{Rolls: []int{1}}})
	require.NoError(t, err)
	require.NotNil(t, out.Check)
	assert.False(t, out.Check.Passed())
	assert.True(t, out.Check.CriticalFailure)
	assert.Equal(t, "camp", out.Scene.ID)
	assert.Equal(t, 7, p.State().Vitals.Health)

	out, err = p.Choose(Submission{SceneID: "camp", ChoiceID: "climb", Check: &dice.Result{Rolls: []int{20}}})
	require.NoError(t, err)
	assert.True(t, out.Check.Passed())
	assert.True(t, out.Check.CriticalSuccess)
	assert.Equal(t, "ledge", out.Scene.ID)
	assert.True(t, out.Over)
	assert.True(t, p.Over())

	_, err = p.Choose(Submission{SceneID: "ledge", ChoiceID: "anything"})
	assert.ErrorIs(t, err, gameerr.ErrInvalidAction)
}

func TestAdvanceRollsChecks(t *testing.T) {
	p := New(testWorld(t), 7, nil)
	out, err := p.Advance("camp", "climb")
	require.NoError(t, err)
	require.NotNil(t, out.Check)
	assert.Equal(t, "d20", out.Check.Die)
	require.NotNil(t, out.Check.Target)
	assert.Equal(t, 15, *out.Check.Target)
}

func TestRollCheckIsDeterministicPerSeed(t *testing.T) {
	a := New(testWorld(t), 42, nil)
	b := New(testWorld(t), 42, nil)
	for range 5 {
		ra, err := a.RollCheck("camp", "climb")
		require.NoError(t, err)
		rb, err := b.RollCheck("camp", "climb")
		require.NoError(t, err)
		assert.Equal(t, ra, rb)
	}

	_, err := a.RollCheck("camp", "search")
	assert.ErrorIs(t, err, gameerr.ErrInvalidAction)
}

func TestLevelUpReported(t *testing.T) {
	p := New(testWorld(t), 1, nil)
	out, err := p.Choose(Submission{SceneID: "camp", ChoiceID: "train"})
	require.NoError(t, err)
	assert.True(t, out.LeveledUp)
	assert.Equal(t, 2, p.State().Progression.Level)
}

func TestCombatVictoryRoutes(t *testing.T) {
	p := New(testWorld(t), 1, nil)

	out, err := p.Choose(Submission{SceneID: "camp", ChoiceID: "fight"})
	require.NoError(t, err)
	require.NotNil(t, out.Combat)
	assert.Equal(t, combat.StateInProgress, out.Combat.State)
	assert.True(t, p.InCombat())

	_, err = p.Choose(Submission{SceneID: "den", ChoiceID: "leave"})
	assert.ErrorIs(t, err, gameerr.ErrInvalidAction, "choices wait until the fight is over")
	_, err = p.Snapshot(time.Now())
	assert.ErrorIs(t, err, gameerr.ErrInvalidAction)

	out, err = p.CombatAction(combat.Action{})
	require.NoError(t, err)
	require.NotNil(t, out.Combat)
	assert.Equal(t, combat.StateVictory, out.Combat.State)
	assert.Equal(t, "clearing", out.Scene.ID)
	assert.False(t, p.InCombat())
	assert.Equal(t, 50, p.State().Progression.Experience)
	assert.True(t, p.Over())
}

func TestCombatDefeatEndsPlaythrough(t *testing.T) {
	p := New(testWorld(t), 1, nil)
	_, err := p.Choose(Submission{SceneID: "camp", ChoiceID: "jump"})
	require.NoError(t, err)

	out, err := p.CombatAction(combat.Action{})
	require.NoError(t, err)
	assert.Equal(t, combat.StateDefeat, out.Combat.State)
	assert.Equal(t, 0, p.State().Vitals.Health)
	assert.True(t, out.Over)
	assert.True(t, p.Over())

	_, err = p.CombatAction(combat.Action{})
	assert.ErrorIs(t, err, gameerr.ErrInvalidAction)
}

func TestFleeRoutes(t *testing.T) {
	p := New(testWorld(t), 1, nil)
	_, err := p.Choose(Submission{SceneID: "camp", ChoiceID: "fight"})
	require.NoError(t, err)

	out, err := p.Flee()
	require.NoError(t, err)
	assert.Equal(t, combat.StateFled, out.Combat.State)
	assert.Equal(t, "camp", out.Scene.ID)
	assert.Equal(t, 0, p.State().Progression.Experience)

	_, err = p.Flee()
	assert.ErrorIs(t, err, gameerr.ErrInvalidAction)
}

func TestCombatManaGate(t *testing.T) {
	p := New(testWorld(t), 1, nil)
	st := p.state
	st.Skills = append(st.Skills, "Smite")
	st.Vitals.Mana = 1

	_, err := p.Choose(Submission{SceneID: "camp", ChoiceID: "fight"})
	require.NoError(t, err)
	_, err = p.CombatAction(combat.Action{Skill: "smite"})
	assert.ErrorIs(t, err, gameerr.ErrResourceExhaustion)
	view, ok := p.Combat()
	require.True(t, ok)
	assert.Equal(t, 1, view.Player.Mana)
}

func TestLearnSkillAndSpendAttribute(t *testing.T) {
	p := New(testWorld(t), 1, nil)

	_, err := p.LearnSkill("meteor")
	assert.ErrorIs(t, err, gameerr.ErrInvalidAction)
	_, err = p.LearnSkill("smite")
	assert.ErrorIs(t, err, gameerr.ErrResourceExhaustion)
	_, err = p.SpendAttribute(player.Strength, 1)
	assert.ErrorIs(t, err, gameerr.ErrResourceExhaustion)

	_, err = p.Choose(Submission{SceneID: "camp", ChoiceID: "train"})
	require.NoError(t, err)

	st, err := p.LearnSkill("smite")
	require.NoError(t, err)
	assert.True(t, st.KnowsSkill("Smite"))
	assert.Equal(t, 0, st.Progression.SkillPoints)

	st, err = p.SpendAttribute(player.Strength, 3)
	require.NoError(t, err)
	assert.Equal(t, 13, st.Attribute(player.Strength))
	assert.Equal(t, 0, st.Progression.AttributePoints)
}

func TestSnapshotRestore(t *testing.T) {
	w := testWorld(t)
	p := New(w, 1, nil)
	_, err := p.Choose(Submission{SceneID: "camp", ChoiceID: "search"})
	require.NoError(t, err)

	snap, err := p.Snapshot(time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, "digest-a", snap.ContentDigest)

	q := New(w, 2, nil)
	require.NoError(t, q.Restore(snap))
	assert.Equal(t, p.State(), q.State())

	want, err := p.Current()
	require.NoError(t, err)
	got, err := q.Current()
	require.NoError(t, err)
	assert.Equal(t, want, got)

	_, err = q.Choose(Submission{SceneID: "camp", ChoiceID: "search"})
	assert.ErrorIs(t, err, gameerr.ErrInvalidAction, "consumed choices survive a restore")
}

func TestRestoreWarnsOnDigestMismatch(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	p := New(testWorld(t), 1, zap.New(core))

	snap, err := p.Snapshot(time.Now())
	require.NoError(t, err)
	snap.ContentDigest = "digest-b"
	require.NoError(t, p.Restore(snap))
	assert.Equal(t, 1, logs.FilterMessage("snapshot was saved against different content").Len())

	snap.Location = "atlantis"
	assert.ErrorIs(t, p.Restore(snap), gameerr.ErrContentIntegrity)

	snap.Location = "camp"
	snap.Version = 99
	assert.ErrorIs(t, p.Restore(snap), gameerr.ErrContentIntegrity)
}

func TestNewWorldRejectsMissingStart(t *testing.T) {
	g, err := scene.NewGraph("nowhere", []scene.Scene{{ID: "a", Ending: true}})
	require.NoError(t, err)
	sel, err := scene.NewSelector(g, nil)
	require.NoError(t, err)
	_, err = NewWorld(sel, Rules{}, "")
	assert.Error(t, err)
}

// brokenArenaWorld leads into a combat scene that has no enemies, both from
// a choice and from a won fight.
func brokenArenaWorld(t *testing.T) *World {
	t.Helper()
	g, err := scene.NewGraph("gate", []scene.Scene{
		{
			ID:    "gate",
			Title: "Gate",
			Choices: []scene.Choice{
				{ID: "enter", Text: "Enter the arena", Target: "arena",
					Effects: effect.Effects{Karma: 5, Items: []string{"gem"}, Flags: map[string]any{"entered": true}}},
				{ID: "fight", Text: "Fight the rat", Target: "cellar"},
			},
		},
		{ID: "arena", Title: "Arena", Combat: true},
		{
			ID: "cellar", Title: "Cellar", Combat: true,
			Enemies:  []scene.Enemy{{ID: "rat", Name: "Rat", Level: 1, HP: 1, DamageMin: 1, DamageMax: 1}},
			Outcomes: scene.Outcomes{Victory: "arena", Flee: "gate"},
		},
	})
	require.NoError(t, err)
	sel, err := scene.NewSelector(g, nil)
	require.NoError(t, err)
	w, err := NewWorld(sel, Rules{
		Start:       player.Defaults{Health: 10, Mana: 5},
		Progression: progression.DefaultRules(),
		Combat:      combat.DefaultRules(),
	}, "")
	require.NoError(t, err)
	return w
}

func TestRejectedChooseLeavesStateUnchanged(t *testing.T) {
	p := New(brokenArenaWorld(t), 1, nil)
	before := p.State()

	_, err := p.Choose(Submission{SceneID: "gate", ChoiceID: "enter"})
	require.ErrorIs(t, err, gameerr.ErrContentIntegrity)

	assert.Equal(t, before, p.State())
	assert.False(t, p.InCombat())
	assert.False(t, p.Over())

	// the player is still at the gate and can pick another way
	out, err := p.Choose(Submission{SceneID: "gate", ChoiceID: "fight"})
	require.NoError(t, err)
	assert.Equal(t, "cellar", out.Scene.ID)
}

func TestFailedCombatRouteKeepsFightAndState(t *testing.T) {
	p := New(brokenArenaWorld(t), 1, nil)
	_, err := p.Choose(Submission{SceneID: "gate", ChoiceID: "fight"})
	require.NoError(t, err)
	before := p.State()

	_, err = p.CombatAction(combat.Action{})
	require.ErrorIs(t, err, gameerr.ErrContentIntegrity)

	assert.Equal(t, before, p.State())
	assert.Equal(t, "cellar", p.State().Location)
	assert.Equal(t, 0, p.State().Progression.Experience)
	view, ok := p.Combat()
	require.True(t, ok, "the finished fight stays attached")
	assert.Equal(t, combat.StateVictory, view.State)
}
