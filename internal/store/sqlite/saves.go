package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"storyforge/internal/store"
)

// Timestamps are stored as fixed-width RFC 3339 so they sort as text.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

func (c *Client) SaveSnapshot(ctx context.Context, slot string, rec store.Record) error {
	if err := store.ValidateSlot(slot); err != nil {
		return err
	}

	query := `
	INSERT INTO saves (slot, playthrough, content_digest, location, level, saved_at, data)
	VALUES (?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT (slot) DO UPDATE SET
		playthrough = excluded.playthrough,
		content_digest = excluded.content_digest,
		location = excluded.location,
		level = excluded.level,
		saved_at = excluded.saved_at,
		data = excluded.data
	`

	_, err := c.db.ExecContext(ctx, query,
		slot,
		rec.Playthrough,
		rec.ContentDigest,
		rec.Location,
		rec.Level,
		rec.SavedAt.UTC().Format(timeLayout),
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
	WHERE slot = ?
	`

	var rec store.Record
	var savedAt string
	err := c.db.QueryRowContext(ctx, query, slot).Scan(
		&rec.Slot,
		&rec.Playthrough,
		&rec.ContentDigest,
		&rec.Location,
		&rec.Level,
		&savedAt,
		&rec.Data,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("loading snapshot: %w", err)
	}
	if rec.SavedAt, err = time.Parse(timeLayout, savedAt); err != nil {
		return nil, fmt.Errorf("parsing saved_at: %w", err)
	}
	return &rec, nil
}

func (c *Client) ListSaves(ctx context.Context) ([]store.SaveSummary, error) {
	query := `
	SELECT slot, playthrough, location, level, saved_at
	FROM saves
	ORDER BY saved_at DESC, slot ASC
	`

	rows, err := c.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("listing saves: %w", err)
	}
	defer rows.Close()

	var saves []store.SaveSummary
	for rows.Next() {
		var s store.SaveSummary
		var savedAt string
		if err := rows.Scan(&s.Slot, &s.Playthrough, &s.Location, &s.Level, &savedAt); err != nil {
			return nil, fmt.Errorf("scanning save: %w", err)
		}
		if s.SavedAt, err = time.Parse(timeLayout, savedAt); err != nil {
			return nil, fmt.Errorf("parsing saved_at: %w", err)
		}
		saves = append(saves, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating saves: %w", err)
	}
	return saves, nil
}

func (c *Client) DeleteSave(ctx context.Context, slot string) error {
	res, err := c.db.ExecContext(ctx, `DELETE FROM saves WHERE slot = ?`, slot)
	if err != nil {
		return fmt.Errorf("deleting save: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("deleting save: %w", err)
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}
