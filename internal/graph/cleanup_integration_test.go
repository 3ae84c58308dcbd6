//go:build integration

package graph

import (
	"context"
	"testing"
)

func TestRemoveStaleScenes(t *testing.T) {
	ctx := context.Background()
	client := testClient(t)
	clearDatabase(t, client)

	inputs := []SceneInput{
		{ID: "a", Title: "A", SourceFile: "story/a.md"},
		{ID: "b", Title: "B", SourceFile: "story/b.md"},
		{ID: "c", Title: "C", SourceFile: "story/c.md"},
	}
	for _, input := range inputs {
		if err := client.UpsertScene(ctx, input); err != nil {
			t.Fatalf("upsert scene: %v", err)
		}
	}

	deleted, err := client.RemoveStaleScenes(ctx, []string{"story/a.md", "story/c.md"})
	if err != nil {
		t.Fatalf("remove stale scenes: %v", err)
	}
	if deleted != 1 {
		t.Fatalf("expected 1 deleted, got %d", deleted)
	}
}

func TestRemoveStaleScenes_PreservesPlaceholders(t *testing.T) {
	ctx := context.Background()
	client := testClient(t)
	clearDatabase(t, client)

	if err := client.UpsertScene(ctx, SceneInput{ID: "a", Title: "A", SourceFile: "story/a.md"}); err != nil {
		t.Fatalf("upsert scene: %v", err)
	}
	if err := client.UpsertEdge(ctx, EdgeInput{From: "a", To: "missing", Kind: EdgeChoice, Choice: "go"}); err != nil {
		t.Fatalf("upsert edge: %v", err)
	}

	deleted, err := client.RemoveStaleScenes(ctx, []string{"story/a.md"})
	if err != nil {
		t.Fatalf("remove stale scenes: %v", err)
	}
	if deleted != 0 {
		t.Fatalf("expected 0 deleted, got %d", deleted)
	}
}
