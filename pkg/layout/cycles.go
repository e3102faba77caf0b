package layout

import (
	"maps"
	"slices"

	"github.com/matzehuels/vertexflow/pkg/graph"
)

// BackEdges returns the edges that close a cycle, found by depth-first
// search with white/gray/black coloring. Traversal starts from vertices in
// id order so the answer is deterministic. An empty result means [Compute]
// places every vertex.
func BackEdges(vertices map[string]graph.Vertex, edges []graph.Edge) []graph.Edge {
	const (
		white = iota
		gray
		black
	)

	outgoing := make(map[string][]graph.Edge, len(vertices))
	for _, e := range edges {
		if _, ok := vertices[e.To]; !ok {
			continue
		}
		outgoing[e.From] = append(outgoing[e.From], e)
	}

	color := make(map[string]int, len(vertices))
	var back []graph.Edge

	var dfs func(id string)
	dfs = func(id string) {
		color[id] = gray
		for _, e := range outgoing[id] {
			switch color[e.To] {
			case white:
				dfs(e.To)
			case gray:
				back = append(back, e)
			}
		}
		color[id] = black
	}

	for _, id := range slices.Sorted(maps.Keys(vertices)) {
		if color[id] == white {
			dfs(id)
		}
	}
	return back
}
