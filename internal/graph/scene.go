package graph

import (
	"context"
	"fmt"
	"strings"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
)

// Edge kinds recorded on LEADS_TO relationships.
const (
	EdgeChoice  = "choice"
	EdgeFailure = "failure"
	EdgeVictory = "victory"
	EdgeDefeat  = "defeat"
	EdgeFlee    = "flee"
	EdgeVariant = "variant"
)

type SceneInput struct {
	ID         string
	Title      string
	SourceFile string
	SourceHash string
	Tags       []string
	Combat     bool
	Boss       bool
	Ending     bool
	Enemies    int
}

// EdgeInput is one LEADS_TO relationship. Choice is empty for combat
// outcomes; Check is the rendered check, such as "d20>=15 dexterity".
type EdgeInput struct {
	From   string
	To     string
	Kind   string
	Choice string
	Text   string
	Check  string
}

func (c *Client) UpsertScene(ctx context.Context, s SceneInput) error {
	if strings.TrimSpace(s.ID) == "" {
		return fmt.Errorf("scene id is required")
	}

	session := c.driver.NewSession(ctx, neo4j.SessionConfig{DatabaseName: c.database})
	defer session.Close(ctx)

	// Outgoing edges are rebuilt on every export so removed choices vanish.
	query := `
MERGE (s:Scene {id: $id})
SET s.title = $title,
    s.source_file = $source_file,
    s.source_hash = $source_hash,
    s.tags = $tags,
    s.tags_text = $tags_text,
    s.combat = $combat,
    s.boss = $boss,
    s.ending = $ending,
    s.enemies = $enemies,
    s.last_exported = datetime()
REMOVE s._placeholder
WITH s
OPTIONAL MATCH (s)-[r:LEADS_TO]->()
DELETE r
`

	tags := s.Tags
	if tags == nil {
		tags = []string{}
	}
	params := map[string]any{
		"id":          s.ID,
		"title":       s.Title,
		"source_file": s.SourceFile,
		"source_hash": s.SourceHash,
		"tags":        tags,
		"tags_text":   strings.Join(tags, " "),
		"combat":      s.Combat,
		"boss":        s.Boss,
		"ending":      s.Ending,
		"enemies":     int64(s.Enemies),
	}

	if _, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		_, err := tx.Run(ctx, query, params)
		return nil, err
	}); err != nil {
		return fmt.Errorf("upserting scene %s: %w", s.ID, err)
	}

	return nil
}

// UpsertEdge links two scenes. A target that has not been exported yet is
// created as a placeholder so dangling references stay visible in the graph.
func (c *Client) UpsertEdge(ctx context.Context, e EdgeInput) error {
	if e.From == "" || e.To == "" {
		return fmt.Errorf("edge needs both ends")
	}

	session := c.driver.NewSession(ctx, neo4j.SessionConfig{DatabaseName: c.database})
	defer session.Close(ctx)

	query := `
MATCH (a:Scene {id: $from})
MERGE (b:Scene {id: $to})
ON CREATE SET b._placeholder = true
MERGE (a)-[r:LEADS_TO {kind: $kind, choice_id: $choice}]->(b)
SET r.text = $text, r.check = $check
`

	params := map[string]any{
		"from":   e.From,
		"to":     e.To,
		"kind":   e.Kind,
		"choice": e.Choice,
		"text":   e.Text,
		"check":  e.Check,
	}

	if _, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		_, err := tx.Run(ctx, query, params)
		return nil, err
	}); err != nil {
		return fmt.Errorf("upserting edge %s -> %s: %w", e.From, e.To, err)
	}

	return nil
}

// Neighbors returns the ids of scenes reachable in one step from id.
func (c *Client) Neighbors(ctx context.Context, id string) ([]string, error) {
	if c == nil {
		return nil, fmt.Errorf("graph client is nil")
	}

	session := c.driver.NewSession(ctx, neo4j.SessionConfig{DatabaseName: c.database})
	defer session.Close(ctx)

	result, err := session.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, `MATCH (:Scene {id: $id})-[:LEADS_TO]->(b:Scene)
RETURN DISTINCT b.id AS id
ORDER BY id`, map[string]any{"id": id})
		if err != nil {
			return nil, err
		}
		var ids []string
		for res.Next(ctx) {
			value, _ := res.Record().Get("id")
			if s, ok := value.(string); ok {
				ids = append(ids, s)
			}
		}
		if err := res.Err(); err != nil {
			return nil, err
		}
		return ids, nil
	})
	if err != nil {
		return nil, fmt.Errorf("query neighbors: %w", err)
	}

	ids, _ := result.([]string)
	return ids, nil
}
