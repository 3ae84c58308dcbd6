// Package memory is a process-local snapshot store for tests and throwaway
// sessions.
package memory

import (
	"context"
	"slices"
	"sort"
	"sync"

	"storyforge/internal/store"
)

var _ store.Store = (*Client)(nil)

type Client struct {
	mu    sync.RWMutex
	saves map[string]store.Record
}

func New() *Client {
	return &Client{saves: make(map[string]store.Record)}
}

func (c *Client) Close(ctx context.Context) error { return nil }

func (c *Client) EnsureSchema(ctx context.Context) error { return nil }

func (c *Client) SaveSnapshot(ctx context.Context, slot string, rec store.Record) error {
	if err := store.ValidateSlot(slot); err != nil {
		return err
	}
	rec.Slot = slot
	rec.Data = slices.Clone(rec.Data)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.saves[slot] = rec
	return nil
}

func (c *Client) LoadSnapshot(ctx context.Context, slot string) (*store.Record, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	rec, ok := c.saves[slot]
	if !ok {
		return nil, store.ErrNotFound
	}
	rec.Data = slices.Clone(rec.Data)
	return &rec, nil
}

func (c *Client) ListSaves(ctx context.Context) ([]store.SaveSummary, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]store.SaveSummary, 0, len(c.saves))
	for _, rec := range c.saves {
		out = append(out, rec.Summary())
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].SavedAt.Equal(out[j].SavedAt) {
			return out[i].SavedAt.After(out[j].SavedAt)
		}
		return out[i].Slot < out[j].Slot
	})
	return out, nil
}

func (c *Client) DeleteSave(ctx context.Context, slot string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.saves[slot]; !ok {
		return store.ErrNotFound
	}
	delete(c.saves, slot)
	return nil
}
