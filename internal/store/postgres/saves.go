package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"storyforge/internal/store"
)

func (c *Client) SaveSnapshot(ctx context.Context, slot string, rec store.Record) error {
	if err := store.ValidateSlot(slot); err != nil {
		return err
	}

	query := `
INSERT INTO saves (slot, playthrough, content_digest, location, level, saved_at, data)
VALUES ($1, $2, $3, $4, $5, $6, $7)
ON CONFLICT (slot) DO UPDATE SET
    playthrough = EXCLUDED.playthrough,
    content_digest = EXCLUDED.content_digest,
    location = EXCLUDED.location,
    level = EXCLUDED.level,
    saved_at = EXCLUDED.saved_at,
    data = EXCLUDED.data
`

	_, err := c.pool.Exec(ctx, query,
		slot,
		rec.Playthrough,
		rec.ContentDigest,
		rec.Location,
		rec.Level,
		rec.SavedAt.UTC(),
		rec.Data,
	)
	if err != nil {
		return fmt.Errorf("saving snapshot: %w", err)
	}
	return nil
}

func (c *Client) LoadSnapshot(ctx context.Context, slot string) (*store.Record, error) {
	query := `
SELECT slot, playthrough, content_digest, location, level, saved_at, data
FROM saves
WHERE slot = $1
`

	var rec store.Record
	err := c.pool.QueryRow(ctx, query, slot).Scan(
		&rec.Slot,
		&rec.Playthrough,
		&rec.ContentDigest,
		&rec.Location,
		&rec.Level,
		&rec.SavedAt,
		&rec.Data,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("loading snapshot: %w", err)
	}
	rec.SavedAt = rec.SavedAt.UTC()
	return &rec, nil
}

func (c *Client) ListSaves(ctx context.Context) ([]store.SaveSummary, error) {
	query := `
SELECT slot, playthrough, location, level, saved_at
FROM saves
ORDER BY saved_at DESC, slot ASC
`

	rows, err := c.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("listing saves: %w", err)
	}
	defer rows.Close()

	var saves []store.SaveSummary
	for rows.Next() {
		var s store.SaveSummary
		if err := rows.Scan(&s.Slot, &s.Playthrough, &s.Location, &s.Level, &s.SavedAt); err != nil {
			return nil, fmt.Errorf("scanning save: %w", err)
		}
		s.SavedAt = s.SavedAt.UTC()
		saves = append(saves, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating saves: %w", err)
	}
	return saves, nil
}

func (c *Client) DeleteSave(ctx context.Context, slot string) error {
	tag, err := c.pool.Exec(ctx, `DELETE FROM saves WHERE slot = $1`, slot)
	if err != nil {
		return fmt.Errorf("deleting save: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return store.ErrNotFound
	}
	return nil
}
