package store

import (
	"fmt"
	"time"

	"storyforge/internal/player"
)

// Record is one stored save. Data holds the encoded snapshot; the other
// fields are copied out of it so saves can be listed without decoding.
type Record struct {
	Slot          string
	Playthrough   string
	ContentDigest string
	Location      string
	Level         int
	SavedAt       time.Time
	Data          []byte
}

type SaveSummary struct {
	Slot        string
	Playthrough string
	Location    string
	Level       int
	SavedAt     time.Time
}

// NewRecord encodes snap for storage.
func NewRecord(slot, playthrough string, snap player.Snapshot) (Record, error) {
	if err := ValidateSlot(slot); err != nil {
		return Record{}, err
	}
	data, err := player.Encode(snap)
	if err != nil {
		return Record{}, err
	}
	return Record{
		Slot:          slot,
		Playthrough:   playthrough,
		ContentDigest: snap.ContentDigest,
		Location:      snap.Location,
		Level:         snap.Progression.Level,
		SavedAt:       snap.SavedAt.UTC(),
		Data:          data,
	}, nil
}

// Snapshot decodes the stored snapshot.
func (r *Record) Snapshot() (player.Snapshot, error) {
	snap, err := player.Decode(r.Data)
	if err != nil {
		return player.Snapshot{}, fmt.Errorf("save %s: %w", r.Slot, err)
	}
	return snap, nil
}

// Summary drops the payload.
func (r *Record) Summary() SaveSummary {
	return SaveSummary{
		Slot:        r.Slot,
		Playthrough: r.Playthrough,
		Location:    r.Location,
		Level:       r.Level,
		SavedAt:     r.SavedAt,
	}
}
