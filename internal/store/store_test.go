package store

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storyforge/internal/player"
)

func TestValidateSlot(t *testing.T) {
	for _, slot := range []string{"a", "slot-1", "auto.save_2", strings.Repeat("x", 64)} {
		assert.NoError(t, ValidateSlot(slot), slot)
	}
	for _, slot := range []string{"", "-lead", "../up", "with space", "semi;colon", strings.Repeat("x", 65)} {
		assert.ErrorIs(t, ValidateSlot(slot), ErrInvalidSlot, slot)
	}
}

func TestNewRecord(t *testing.T) {
	st := player.New(player.Defaults{Health: 12}, "camp")
	saved := time.Date(2026, 5, 4, 3, 2, 1, 0, time.FixedZone("east", 3600))
	rec, err := NewRecord("quick", "pt-1", player.Export(st, "abc", saved))
	require.NoError(t, err)

	assert.Equal(t, "quick", rec.Slot)
	assert.Equal(t, "camp", rec.Location)
	assert.Equal(t, 1, rec.Level)
	assert.Equal(t, "abc", rec.ContentDigest)
	assert.Equal(t, time.UTC, rec.SavedAt.Location())

	snap, err := rec.Snapshot()
	require.NoError(t, err)
	assert.Equal(t, "camp", snap.Location)
	assert.Equal(t, 12, snap.Vitals.Health)

	sum := rec.Summary()
	assert.Equal(t, "pt-1", sum.Playthrough)
}

func TestNewRecord_InvalidSlot(t *testing.T) {
	st := player.New(player.Defaults{Health: 12}, "camp")
	_, err := NewRecord("bad slot", "pt-1", player.Export(st, "", time.Now()))
	require.ErrorIs(t, err, ErrInvalidSlot)
}

func TestRecord_CorruptData(t *testing.T) {
	rec := Record{Slot: "broken", Data: []byte("version: [")}
	_, err := rec.Snapshot()
	require.Error(t, err)
}
