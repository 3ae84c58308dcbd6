package content

import (
	"context"
	"fmt"
	"strings"

	"storyforge/internal/graph"
	"storyforge/internal/scene"
)

type GraphClient interface {
	EnsureIndexes(ctx context.Context) error
	UpsertScene(ctx context.Context, s graph.SceneInput) error
	UpsertEdge(ctx context.Context, e graph.EdgeInput) error
	RemoveStaleScenes(ctx context.Context, currentSourceFiles []string) (int64, error)
}

type ExportResult struct {
	ScenesUpserted int
	EdgesUpserted  int
	ScenesRemoved  int
	Errors         []error
}

// Export mirrors the loaded scene graph into a graph database. Scenes are
// written first so every edge finds its source node; variant rules contribute
// the choices they can add.
func Export(ctx context.Context, res *Result, db GraphClient) (*ExportResult, error) {
	if err := db.EnsureIndexes(ctx); err != nil {
		return nil, fmt.Errorf("ensure indexes: %w", err)
	}

	out := &ExportResult{}
	var exported []scene.Scene
	for _, id := range res.Graph.IDs() {
		s, err := res.Graph.Scene(id)
		if err != nil {
			out.Errors = append(out.Errors, err)
			continue
		}
		input := graph.SceneInput{
			ID:         s.ID,
			Title:      s.Title,
			SourceFile: s.SourceFile,
			SourceHash: res.Hashes[s.SourceFile],
			Tags:       res.Tags[s.ID],
			Combat:     s.Combat,
			Boss:       s.Boss,
			Ending:     s.Ending,
			Enemies:    len(s.Enemies),
		}
		if err := db.UpsertScene(ctx, input); err != nil {
			out.Errors = append(out.Errors, fmt.Errorf("upserting %s: %w", s.SourceFile, err))
			continue
		}
		out.ScenesUpserted++
		exported = append(exported, s)
	}

	for _, s := range exported {
		for _, e := range sceneEdges(s) {
			if err := db.UpsertEdge(ctx, e); err != nil {
				out.Errors = append(out.Errors, fmt.Errorf("upserting edge for %s: %w", s.ID, err))
				continue
			}
			out.EdgesUpserted++
		}
	}
	for _, rule := range res.Variants {
		for _, c := range rule.Patch.Choices() {
			e := graph.EdgeInput{From: rule.Scene, To: c.Target, Kind: graph.EdgeVariant, Choice: c.ID, Text: c.Text, Check: describeCheck(c.Check)}
			if err := db.UpsertEdge(ctx, e); err != nil {
				out.Errors = append(out.Errors, fmt.Errorf("upserting variant edge for %s: %w", rule.ID, err))
				continue
			}
			out.EdgesUpserted++
		}
	}

	deleted, err := db.RemoveStaleScenes(ctx, res.SourceFiles())
	if err != nil {
		out.Errors = append(out.Errors, fmt.Errorf("removing stale scenes: %w", err))
	} else {
		out.ScenesRemoved = int(deleted)
	}

	return out, nil
}

func sceneEdges(s scene.Scene) []graph.EdgeInput {
	var edges []graph.EdgeInput
	for _, c := range s.Choices {
		edges = append(edges, graph.EdgeInput{From: s.ID, To: c.Target, Kind: graph.EdgeChoice, Choice: c.ID, Text: c.Text, Check: describeCheck(c.Check)})
		if c.Failure != nil && c.Failure.Target != "" {
			edges = append(edges, graph.EdgeInput{From: s.ID, To: c.Failure.Target, Kind: graph.EdgeFailure, Choice: c.ID, Text: c.Text})
		}
	}
	outcomes := []struct{ kind, target string }{
		{graph.EdgeVictory, s.Outcomes.Victory},
		{graph.EdgeDefeat, s.Outcomes.Defeat},
		{graph.EdgeFlee, s.Outcomes.Flee},
	}
	for _, o := range outcomes {
		if o.target != "" {
			edges = append(edges, graph.EdgeInput{From: s.ID, To: o.target, Kind: o.kind})
		}
	}
	return edges
}

func describeCheck(c *scene.Check) string {
	if c == nil {
		return ""
	}
	return strings.TrimSpace(fmt.Sprintf("%s>=%d %s", c.Die, c.Target, c.Skill))
}
