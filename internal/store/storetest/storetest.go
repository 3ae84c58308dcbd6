// Package storetest holds the behaviour every store backend must share.
package storetest

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storyforge/internal/player"
	"storyforge/internal/store"
)

// Run exercises s. The store must start empty.
func Run(t *testing.T, s store.Store) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, s.EnsureSchema(ctx))
	require.NoError(t, s.EnsureSchema(ctx), "EnsureSchema must be idempotent")

	t.Run("missing slot", func(t *testing.T) {
		_, err := s.LoadSnapshot(ctx, "nothing-here")
		require.ErrorIs(t, err, store.ErrNotFound)
		require.ErrorIs(t, s.DeleteSave(ctx, "nothing-here"), store.ErrNotFound)
	})

	t.Run("invalid slot", func(t *testing.T) {
		rec := Record(t, "ok", "camp", time.Now())
		require.ErrorIs(t, s.SaveSnapshot(ctx, "../escape", rec), store.ErrInvalidSlot)
		require.ErrorIs(t, s.SaveSnapshot(ctx, "", rec), store.ErrInvalidSlot)
	})

	t.Run("round trip", func(t *testing.T) {
		saved := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
		rec := Record(t, "slot-1", "camp", saved)
		require.NoError(t, s.SaveSnapshot(ctx, "slot-1", rec))

		got, err := s.LoadSnapshot(ctx, "slot-1")
		require.NoError(t, err)
		assert.Equal(t, "slot-1", got.Slot)
		assert.Equal(t, rec.Playthrough, got.Playthrough)
		assert.Equal(t, "camp", got.Location)
		assert.Equal(t, 2, got.Level)
		assert.Equal(t, "digest-1", got.ContentDigest)
		assert.True(t, saved.Equal(got.SavedAt), "saved at %s, got %s", saved, got.SavedAt)

		snap, err := got.Snapshot()
		require.NoError(t, err)
		st, err := player.Import(snap)
		require.NoError(t, err)
		assert.Equal(t, 7, st.Karma)
		assert.True(t, st.HasFlag("met_hermit"))
	})

	t.Run("overwrite", func(t *testing.T) {
		first := Record(t, "slot-2", "camp", time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC))
		require.NoError(t, s.SaveSnapshot(ctx, "slot-2", first))
		second := Record(t, "slot-2", "ledge", time.Date(2026, 3, 3, 0, 0, 0, 0, time.UTC))
		require.NoError(t, s.SaveSnapshot(ctx, "slot-2", second))

		got, err := s.LoadSnapshot(ctx, "slot-2")
		require.NoError(t, err)
		assert.Equal(t, "ledge", got.Location)
	})

	t.Run("list newest first", func(t *testing.T) {
		saves, err := s.ListSaves(ctx)
		require.NoError(t, err)
		require.Len(t, saves, 2)
		assert.Equal(t, "slot-2", saves[0].Slot)
		assert.Equal(t, "slot-1", saves[1].Slot)
	})

	t.Run("delete", func(t *testing.T) {
		require.NoError(t, s.DeleteSave(ctx, "slot-1"))
		_, err := s.LoadSnapshot(ctx, "slot-1")
		require.ErrorIs(t, err, store.ErrNotFound)

		saves, err := s.ListSaves(ctx)
		require.NoError(t, err)
		require.Len(t, saves, 1)
	})
}

// Record builds a save of a level 2 player standing in location.
func Record(t *testing.T, slot, location string, savedAt time.Time) store.Record {
	t.Helper()
	st := player.New(player.Defaults{Health: 20, Mana: 5}, location)
	st.Progression.Level = 2
	st.Karma = 7
	st.Flags["met_hermit"] = true
	rec, err := store.NewRecord(slot, "pt-"+slot, player.Export(st, "digest-1", savedAt))
	require.NoError(t, err)
	return rec
}
