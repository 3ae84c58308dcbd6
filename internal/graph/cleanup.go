package graph

import (
	"context"
	"fmt"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
)

// RemoveStaleScenes deletes scenes whose source file is no longer part of
// the content. Placeholders are kept.
func (c *Client) RemoveStaleScenes(ctx context.Context, currentSourceFiles []string) (int64, error) {
	session := c.driver.NewSession(ctx, neo4j.SessionConfig{DatabaseName: c.database})
	defer session.Close(ctx)

	query := `
MATCH (s:Scene)
WHERE s.source_file IS NOT NULL
  AND NOT s.source_file IN $current_files
  AND s._placeholder IS NULL
DETACH DELETE s
RETURN count(s) AS deleted
`

	if currentSourceFiles == nil {
		currentSourceFiles = []string{}
	}
	params := map[string]any{
		"current_files": currentSourceFiles,
	}

	result, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, query, params)
		if err != nil {
			return nil, err
		}
		if res.Next(ctx) {
			value, _ := res.Record().Get("deleted")
			if count, ok := value.(int64); ok {
				return count, nil
			}
		}
		if err := res.Err(); err != nil {
			return nil, err
		}
		return int64(0), nil
	})
	if err != nil {
		return 0, fmt.Errorf("removing stale scenes: %w", err)
	}

	return result.(int64), nil
}
