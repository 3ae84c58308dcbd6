package scene

import (
	"fmt"
	"strings"

	"storyforge/internal/gameerr"
)

// Graph is the read-only store of scenes. It is built once from content and
// is safe to share between playthroughs.
type Graph struct {
	start  string
	scenes map[string]Scene
	order  []string
}

// NewGraph indexes scenes by id. Duplicate or empty ids are rejected.
func NewGraph(start string, scenes []Scene) (*Graph, error) {
	g := &Graph{
		start:  start,
		scenes: make(map[string]Scene, len(scenes)),
		order:  make([]string, 0, len(scenes)),
	}
	for i, s := range scenes {
		if strings.TrimSpace(s.ID) == "" {
			return nil, fmt.Errorf("scene %d has no id", i)
		}
		if prev, exists := g.scenes[s.ID]; exists {
			return nil, fmt.Errorf("duplicate scene id %s (%s, %s)", s.ID, prev.SourceFile, s.SourceFile)
		}
		g.scenes[s.ID] = s.Clone()
		g.order = append(g.order, s.ID)
	}
	return g, nil
}

// Start returns the id of the opening scene.
func (g *Graph) Start() string {
	return g.start
}

// Scene returns a copy of the scene with the given id. A missing id is a
// content integrity error; a scene without choices is an ending, not an
// error.
func (g *Graph) Scene(id string) (Scene, error) {
	s, ok := g.scenes[id]
	if !ok {
		return Scene{}, gameerr.ContentIntegrity("scene %q not found", id)
	}
	return s.Clone(), nil
}

// Has reports whether id names a scene.
func (g *Graph) Has(id string) bool {
	_, ok := g.scenes[id]
	return ok
}

// IDs lists scene ids in load order.
func (g *Graph) IDs() []string {
	return append([]string(nil), g.order...)
}

// Len returns the number of scenes.
func (g *Graph) Len() int {
	return len(g.order)
}

// Reachable returns the set of scene ids reachable from the start scene,
// following choices, failure branches and combat outcomes. extra adds edges
// that only exist under variant rules.
func (g *Graph) Reachable(extra map[string][]string) map[string]bool {
	seen := make(map[string]bool)
	queue := []string{g.start}
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		if seen[id] {
			continue
		}
		s, ok := g.scenes[id]
		if !ok {
			continue
		}
		seen[id] = true
		for _, next := range append(s.Targets(), extra[id]...) {
			if !seen[next] {
				queue = append(queue, next)
			}
		}
	}
	return seen
}
