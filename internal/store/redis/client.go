// Package redis keeps saves in Redis: one hash per slot plus a sorted set
// indexing slots by save time.
package redis

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"storyforge/internal/store"
)

var _ store.Store = (*Client)(nil)

const defaultPrefix = "storyforge"

type Client struct {
	rdb    *redis.Client
	prefix string
}

// New connects using a redis:// or rediss:// URL. An optional prefix query
// parameter namespaces every key.
func New(ctx context.Context, dsn string) (*Client, error) {
	u, err := url.Parse(dsn)
	if err != nil {
		return nil, fmt.Errorf("parsing redis DSN: %w", err)
	}
	q := u.Query()
	prefix := q.Get("prefix")
	if prefix == "" {
		prefix = defaultPrefix
	}
	q.Del("prefix")
	u.RawQuery = q.Encode()

	opts, err := redis.ParseURL(u.String())
	if err != nil {
		return nil, fmt.Errorf("parsing redis DSN: %w", err)
	}
	rdb := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("pinging redis: %w", err)
	}

	return NewFromClient(rdb, prefix), nil
}

// NewFromClient wraps an existing connection.
func NewFromClient(rdb *redis.Client, prefix string) *Client {
	if prefix == "" {
		prefix = defaultPrefix
	}
	return &Client{rdb: rdb, prefix: prefix}
}

func (c *Client) Close(ctx context.Context) error {
	return c.rdb.Close()
}

// EnsureSchema is a no-op; keys are created on first save.
func (c *Client) EnsureSchema(ctx context.Context) error {
	return nil
}

func (c *Client) saveKey(slot string) string {
	return fmt.Sprintf("%s:save:%s", c.prefix, slot)
}

func (c *Client) indexKey() string {
	return c.prefix + ":saves"
}

func (c *Client) SaveSnapshot(ctx context.Context, slot string, rec store.Record) error {
	if err := store.ValidateSlot(slot); err != nil {
		return err
	}

	savedAt := rec.SavedAt.UTC()
	_, err := c.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, c.saveKey(slot), map[string]any{
			"slot":           slot,
			"playthrough":    rec.Playthrough,
			"content_digest": rec.ContentDigest,
			"location":       rec.Location,
			"level":          rec.Level,
			"saved_at":       savedAt.Format(time.RFC3339Nano),
			"data":           rec.Data,
		})
		pipe.ZAdd(ctx, c.indexKey(), redis.Z{Score: float64(savedAt.UnixMilli()), Member: slot})
		return nil
	})
	if err != nil {
		return fmt.Errorf("saving snapshot: %w", err)
	}
	return nil
}

func (c *Client) LoadSnapshot(ctx context.Context, slot string) (*store.Record, error) {
	fields, err := c.rdb.HGetAll(ctx, c.saveKey(slot)).Result()
	if err != nil {
		return nil, fmt.Errorf("loading snapshot: %w", err)
	}
	if len(fields) == 0 {
		return nil, store.ErrNotFound
	}
	rec, err := decodeRecord(fields)
	if err != nil {
		return nil, fmt.Errorf("loading snapshot %s: %w", slot, err)
	}
	return rec, nil
}

func (c *Client) ListSaves(ctx context.Context) ([]store.SaveSummary, error) {
	slots, err := c.rdb.ZRange(ctx, c.indexKey(), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("listing saves: %w", err)
	}
	if len(slots) == 0 {
		return nil, nil
	}

	cmds := make([]*redis.MapStringStringCmd, len(slots))
	if _, err := c.rdb.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		for i, slot := range slots {
			cmds[i] = pipe.HGetAll(ctx, c.saveKey(slot))
		}
		return nil
	}); err != nil {
		return nil, fmt.Errorf("listing saves: %w", err)
	}

	saves := make([]store.SaveSummary, 0, len(slots))
	for _, cmd := range cmds {
		fields := cmd.Val()
		if len(fields) == 0 {
			continue
		}
		rec, err := decodeRecord(fields)
		if err != nil {
			return nil, fmt.Errorf("listing saves: %w", err)
		}
		saves = append(saves, rec.Summary())
	}
	sort.Slice(saves, func(i, j int) bool {
		if !saves[i].SavedAt.Equal(saves[j].SavedAt) {
			return saves[i].SavedAt.After(saves[j].SavedAt)
		}
		return saves[i].Slot < saves[j].Slot
	})
	return saves, nil
}

func (c *Client) DeleteSave(ctx context.Context, slot string) error {
	var del *redis.IntCmd
	_, err := c.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		del = pipe.Del(ctx, c.saveKey(slot))
		pipe.ZRem(ctx, c.indexKey(), slot)
		return nil
	})
	if err != nil {
		return fmt.Errorf("deleting save: %w", err)
	}
	if del.Val() == 0 {
		return store.ErrNotFound
	}
	return nil
}

func decodeRecord(fields map[string]string) (*store.Record, error) {
	level, err := strconv.Atoi(fields["level"])
	if err != nil {
		return nil, fmt.Errorf("parsing level: %w", err)
	}
	savedAt, err := time.Parse(time.RFC3339Nano, fields["saved_at"])
	if err != nil {
		return nil, fmt.Errorf("parsing saved_at: %w", err)
	}
	data, ok := fields["data"]
	if !ok {
		return nil, errors.New("save has no data")
	}
	return &store.Record{
		Slot:          fields["slot"],
		Playthrough:   fields["playthrough"],
		ContentDigest: fields["content_digest"],
		Location:      fields["location"],
		Level:         level,
		SavedAt:       savedAt,
		Data:          []byte(data),
	}, nil
}
