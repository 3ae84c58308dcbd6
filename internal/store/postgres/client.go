package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"storyforge/internal/store"
)

var _ store.Store = (*Client)(nil)

type Client struct {
	pool *pgxpool.Pool
}

func New(ctx context.Context, dsn string) (*Client, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("creating postgres pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pinging postgres: %w", err)
	}
	return &Client{pool: pool}, nil
}

func (c *Client) Close(ctx context.Context) error {
	c.pool.Close()
	return nil
}

func (c *Client) EnsureSchema(ctx context.Context) error {
	ddl := `
CREATE TABLE IF NOT EXISTS saves (
    slot           TEXT PRIMARY KEY,
    playthrough    TEXT NOT NULL DEFAULT '',
    content_digest TEXT NOT NULL DEFAULT '',
    location       TEXT NOT NULL,
    level          INTEGER NOT NULL DEFAULT 1,
    saved_at       TIMESTAMPTZ NOT NULL,
    data           BYTEA NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_saves_saved_at ON saves (saved_at DESC);
`
	if _, err := c.pool.Exec(ctx, ddl); err != nil {
		return fmt.Errorf("ensuring schema: %w", err)
	}
	return nil
}
