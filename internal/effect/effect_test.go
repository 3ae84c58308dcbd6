package effect

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storyforge/internal/gameerr"
	"storyforge/internal/player"
	"storyforge/internal/progression"
)

func newState() *player.State {
	return player.New(player.Defaults{Health: 30, Mana: 20}, "start")
}

func TestApplyClampsVitals(t *testing.T) {
	rules := progression.DefaultRules()
	for _, tc := range []struct {
		health, healthDelta, mana, manaDelta int
	}{
		{30, 5, 20, 5},
		{10, -15, 3, -10},
		{10, 7, 3, 4},
		{0, 0, 0, 0},
		{1, -1, 20, -20},
		{15, 100, 5, 100},
	} {
		s := newState()
		s.Vitals.Health = tc.health
		s.Vitals.Mana = tc.mana

		next, err := Apply(s, Effects{Health: tc.healthDelta, Mana: tc.manaDelta}, rules)
		require.NoError(t, err)
		assert.Equal(t, clamp(tc.health+tc.healthDelta, 0, s.Vitals.MaxHealth), next.Vitals.Health)
		assert.Equal(t, clamp(tc.mana+tc.manaDelta, 0, s.Vitals.MaxMana), next.Vitals.Mana)
		assert.GreaterOrEqual(t, next.Vitals.Health, 0)
		assert.LessOrEqual(t, next.Vitals.Health, next.Vitals.MaxHealth)
	}
}

func TestApplyExperienceLevelsUpTwice(t *testing.T) {
	s := newState()

	next, err := Apply(s, Effects{Experience: 250}, progression.DefaultRules())
	require.NoError(t, err)

	assert.Equal(t, 3, next.Progression.Level)
	assert.Equal(t, 50, next.Progression.Experience)
	assert.Equal(t, 4, next.Progression.SkillPoints)
	assert.Equal(t, 6, next.Progression.AttributePoints)
	assert.Equal(t, 1, s.Progression.Level, "input state is not mutated")
}

func TestApplyMergesFlagsWithoutRemoving(t *testing.T) {
	s := newState()
	s.Flags["met_elder"] = true
	s.Flags["door"] = "locked"

	next, err := Apply(s, Effects{Flags: map[string]any{"door": "open", "saw_wolf": true}}, progression.DefaultRules())
	require.NoError(t, err)

	assert.Equal(t, true, next.Flags["met_elder"])
	assert.Equal(t, "open", next.Flags["door"])
	assert.Equal(t, true, next.Flags["saw_wolf"])

	// Later descriptors without flags never clear earlier ones.
	next, err = Apply(next, Effects{Karma: -2, Items: []string{"rope"}}, progression.DefaultRules())
	require.NoError(t, err)
	assert.True(t, next.HasFlag("met_elder"))
	assert.True(t, next.HasFlag("saw_wolf"))

	next, err = Apply(next, Effects{Flags: map[string]any{"met_elder": false, "saw_wolf": nil, "door": "", "fresh": false}}, progression.DefaultRules())
	require.NoError(t, err)
	assert.True(t, next.HasFlag("met_elder"))
	assert.True(t, next.HasFlag("saw_wolf"))
	assert.Equal(t, "open", next.Flags["door"])
	assert.Equal(t, false, next.Flags["fresh"], "an unset flag may still be recorded as false")
}

func TestApplyAppendsItemsAndKarma(t *testing.T) {
	s := newState()
	s.Inventory = []string{"torch"}
	s.Karma = 5

	next, err := Apply(s, Effects{Karma: -12, Items: []string{"torch", "map"}}, progression.DefaultRules())
	require.NoError(t, err)

	assert.Equal(t, []string{"torch", "torch", "map"}, next.Inventory)
	assert.Equal(t, -7, next.Karma)
}

func TestApplyUpsertsRelationship(t *testing.T) {
	s := newState()
	rules := progression.DefaultRules()

	next, err := Apply(s, Effects{Relationship: &RelationshipChange{NPC: "elder", Trust: 2, Status: "wary"}}, rules)
	require.NoError(t, err)
	assert.Equal(t, player.Relationship{Trust: 2, Status: "wary"}, next.Relationships["elder"])

	next, err = Apply(next, Effects{Relationship: &RelationshipChange{NPC: "elder", Trust: 3}}, rules)
	require.NoError(t, err)
	assert.Equal(t, player.Relationship{Trust: 5, Status: "wary"}, next.Relationships["elder"])
}

func TestApplyRejectsMalformedDescriptorWholesale(t *testing.T) {
	tests := map[string]Effects{
		"negative experience": {Karma: 3, Experience: -10},
		"empty flag name":     {Health: -5, Flags: map[string]any{"": true}},
		"nested flag value":   {Items: []string{"key"}, Flags: map[string]any{"x": map[string]any{"y": 1}}},
		"empty item":          {Karma: 1, Items: []string{"key", " "}},
		"relationship no npc": {Mana: -3, Relationship: &RelationshipChange{Trust: 1}},
	}
	for name, fx := range tests {
		t.Run(name, func(t *testing.T) {
			s := newState()
			before := s.Clone()

			next, err := Apply(s, fx, progression.DefaultRules())
			require.Error(t, err)
			assert.ErrorIs(t, err, gameerr.ErrContentIntegrity)
			assert.Same(t, s, next)
			assert.Equal(t, before, s)
		})
	}
}

func TestIsZero(t *testing.T) {
	assert.True(t, Effects{}.IsZero())
	assert.False(t, Effects{Items: []string{"x"}}.IsZero())
}
