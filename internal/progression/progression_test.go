package progression

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storyforge/internal/gameerr"
	"storyforge/internal/player"
)

func freshState() *player.State {
	return player.New(player.Defaults{Health: 30, Mana: 20}, "start")
}

func TestCheckLevelUpCrossesMultipleThresholds(t *testing.T) {
	s := freshState()
	s.Progression.Experience = 250

	leveled := CheckLevelUp(s, DefaultRules())

	assert.True(t, leveled)
	assert.Equal(t, 3, s.Progression.Level)
	assert.Equal(t, 50, s.Progression.Experience)
	assert.Equal(t, 4, s.Progression.SkillPoints)
	assert.Equal(t, 6, s.Progression.AttributePoints)
	assert.Equal(t, 50, s.Vitals.MaxHealth)
	assert.Equal(t, 30, s.Vitals.MaxMana)
}

func TestCheckLevelUpSingleBoundary(t *testing.T) {
	rules := DefaultRules()
	for _, start := range []struct{ level, exp, delta int }{
		{1, 0, 100},
		{1, 40, 90},
		{2, 150, 60},
		{4, 0, 450},
	} {
		s := freshState()
		s.Progression.Level = start.level
		s.Progression.Experience = start.exp + start.delta

		require.True(t, CheckLevelUp(s, rules))
		assert.Equal(t, start.level+1, s.Progression.Level)
		assert.Equal(t, start.exp+start.delta-rules.Needed(start.level), s.Progression.Experience)
	}
}

func TestCheckLevelUpBelowThreshold(t *testing.T) {
	s := freshState()
	s.Progression.Experience = 99
	assert.False(t, CheckLevelUp(s, DefaultRules()))
	assert.Equal(t, 1, s.Progression.Level)
	assert.Equal(t, 99, s.Progression.Experience)
}

func TestSpendAttributePoints(t *testing.T) {
	s := freshState()
	s.Progression.AttributePoints = 3

	require.NoError(t, SpendAttributePoints(s, "Dexterity", 2))
	assert.Equal(t, 12, s.Attribute(player.Dexterity))
	assert.Equal(t, 1, s.Progression.AttributePoints)

	err := SpendAttributePoints(s, "dexterity", 2)
	assert.ErrorIs(t, err, gameerr.ErrResourceExhaustion)
	assert.Equal(t, 12, s.Attribute(player.Dexterity))

	assert.ErrorIs(t, SpendAttributePoints(s, "luck", 1), gameerr.ErrInvalidAction)
	assert.ErrorIs(t, SpendAttributePoints(s, "wisdom", 0), gameerr.ErrInvalidAction)
}

func TestLearnSkill(t *testing.T) {
	s := freshState()
	s.Progression.SkillPoints = 2

	require.NoError(t, LearnSkill(s, "firebolt", 2))
	assert.True(t, s.KnowsSkill("firebolt"))
	assert.Equal(t, 0, s.Progression.SkillPoints)

	assert.ErrorIs(t, LearnSkill(s, "firebolt", 0), gameerr.ErrInvalidAction)
	assert.ErrorIs(t, LearnSkill(s, "mend", 1), gameerr.ErrResourceExhaustion)
	assert.False(t, s.KnowsSkill("mend"))
}
