package main

import (
	"context"
	"fmt"
	"strings"

	"storyforge/internal/config"
	"storyforge/internal/store"
	"storyforge/internal/store/memory"
	"storyforge/internal/store/postgres"
	"storyforge/internal/store/redis"
	"storyforge/internal/store/sqlite"
)

// openStore picks the snapshot backend by DSN scheme and makes sure its
// schema exists.
func openStore(ctx context.Context, dsn string) (store.Store, error) {
	var (
		db  store.Store
		err error
	)
	switch {
	case strings.HasPrefix(dsn, "sqlite://"):
		db, err = sqlite.New(ctx, dsn)
	case strings.HasPrefix(dsn, "postgres://"), strings.HasPrefix(dsn, "postgresql://"):
		db, err = postgres.New(ctx, dsn)
	case strings.HasPrefix(dsn, "redis://"), strings.HasPrefix(dsn, "rediss://"):
		db, err = redis.New(ctx, dsn)
	case dsn == "memory://":
		db = memory.New()
	default:
		scheme, _, _ := strings.Cut(dsn, "://")
		return nil, fmt.Errorf("unsupported storage scheme %q", scheme)
	}
	if err != nil {
		return nil, err
	}

	if err := db.EnsureSchema(ctx); err != nil {
		db.Close(ctx)
		return nil, err
	}
	return db, nil
}

// storageDSN resolves a relative sqlite path against the project directory
// so saves land next to storyforge.yaml wherever the binary is started.
func storageDSN(cfg *config.ProjectConfig) string {
	dsn := cfg.Storage.DSN
	rest, ok := strings.CutPrefix(dsn, "sqlite://")
	if !ok || rest == ":memory:" {
		return dsn
	}
	path, query, hasQuery := strings.Cut(rest, "?")
	path = cfg.Resolve(path)
	if hasQuery {
		return "sqlite://" + path + "?" + query
	}
	return "sqlite://" + path
}
