package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"storyforge/internal/mcp"

	sdk "github.com/modelcontextprotocol/go-sdk/mcp"
)

func serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the MCP server over stdio",
		RunE:  runServe,
	}
	return cmd
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	p, err := loadProject()
	if err != nil {
		return err
	}
	defer p.log.Sync()

	world, err := p.world()
	if err != nil {
		return err
	}

	db, err := openStore(ctx, storageDSN(p.cfg))
	if err != nil {
		return err
	}
	defer db.Close(context.Background())

	p.log.Info("serving",
		zap.String("start", world.Graph().Start()),
		zap.Int("scenes", world.Graph().Len()),
		zap.String("version", version),
	)
	server := mcp.NewServer(world, db, version, p.log)
	return server.Run(ctx, &sdk.StdioTransport{})
}
