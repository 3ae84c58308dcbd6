// Package store persists player snapshots in named save slots.
package store

import (
	"context"
	"errors"
	"fmt"
	"regexp"
)

var (
	ErrNotFound    = errors.New("save not found")
	ErrInvalidSlot = errors.New("invalid save slot")
)

type Store interface {
	Close(ctx context.Context) error
	EnsureSchema(ctx context.Context) error

	// SaveSnapshot writes rec under slot, replacing any earlier save.
	SaveSnapshot(ctx context.Context, slot string, rec Record) error
	LoadSnapshot(ctx context.Context, slot string) (*Record, error)
	ListSaves(ctx context.Context) ([]SaveSummary, error)
	DeleteSave(ctx context.Context, slot string) error
}

var slotPattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9_.-]{0,63}$`)

// ValidateSlot rejects slot names that are empty, too long or carry
// characters outside [A-Za-z0-9_.-].
func ValidateSlot(slot string) error {
	if !slotPattern.MatchString(slot) {
		return fmt.Errorf("%w: %q", ErrInvalidSlot, slot)
	}
	return nil
}
