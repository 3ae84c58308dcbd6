package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"storyforge/internal/content"
	"storyforge/internal/graph"
)

func exportGraphCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export-graph",
		Short: "Mirror the scene graph into Neo4j",
		RunE:  runExportGraph,
	}
	return cmd
}

func runExportGraph(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	p, err := loadProject()
	if err != nil {
		return err
	}
	defer p.log.Sync()

	n := p.cfg.Neo4j
	if n.URI == "" {
		return fmt.Errorf("neo4j uri is not configured")
	}
	client, err := graph.NewClient(ctx, n.URI, n.Username, n.Password, n.Database)
	if err != nil {
		return err
	}
	defer client.Close(ctx)

	result, err := content.Export(ctx, p.content, client)
	if err != nil {
		return err
	}

	fmt.Fprintln(os.Stdout, "Export complete.")
	fmt.Fprintf(os.Stdout, "  Scenes upserted: %d\n", result.ScenesUpserted)
	fmt.Fprintf(os.Stdout, "  Edges upserted:  %d\n", result.EdgesUpserted)
	fmt.Fprintf(os.Stdout, "  Scenes removed:  %d\n", result.ScenesRemoved)
	fmt.Fprintf(os.Stdout, "  Files skipped:   %d\n", p.content.FilesSkipped)

	errs := append(append([]error(nil), p.content.Errors...), result.Errors...)
	if len(errs) > 0 {
		fmt.Fprintf(os.Stdout, "\nErrors (%d):\n", len(errs))
		for _, item := range errs {
			fmt.Fprintf(os.Stdout, "  - %v\n", item)
		}
		return fmt.Errorf("export completed with errors")
	}

	return nil
}
