// Package mcp exposes playthroughs to MCP hosts. Each new_game opens a
// session that later tool calls address by id.
package mcp

import (
	"context"
	"sync"
	"time"

	sdk "github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"

	"storyforge/internal/dice"
	"storyforge/internal/engine"
	"storyforge/internal/store"
)

type Server struct {
	world *engine.World
	db    store.Store
	mcp   *sdk.Server
	log   *zap.Logger

	mu       sync.Mutex
	sessions map[string]*session

	now  func() time.Time
	seed func() (uint64, error)
}

// session serializes calls against one playthrough.
type session struct {
	mu sync.Mutex
	pt *engine.Playthrough
}

func NewServer(world *engine.World, db store.Store, version string, log *zap.Logger) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	s := &Server{
		world:    world,
		db:       db,
		log:      log,
		sessions: make(map[string]*session),
		now:      time.Now,
		seed:     dice.NewSeed,
		mcp: sdk.NewServer(&sdk.Implementation{
			Name:    "storyforge",
			Version: version,
		}, nil),
	}
	s.registerTools()
	return s
}

func (s *Server) Run(ctx context.Context, transport sdk.Transport) error {
	return s.mcp.Run(ctx, transport)
}
