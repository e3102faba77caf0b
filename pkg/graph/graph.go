package graph

import (
	"maps"
	"slices"
)

// Graph is the editor's view of the dataflow: vertices keyed by id and
// edges in the order the backend confirmed them.
type Graph struct {
	Vertices map[string]Vertex
	Edges    []Edge
}

// New returns an empty graph with an initialized vertex map.
func New() Graph {
	return Graph{Vertices: make(map[string]Vertex)}
}

// Clone returns a deep copy of g.
func (g Graph) Clone() Graph {
	return Graph{
		Vertices: maps.Clone(g.Vertices),
		Edges:    slices.Clone(g.Edges),
	}
}

// SortedVertices returns the vertices ordered by id.
func (g Graph) SortedVertices() []Vertex {
	out := make([]Vertex, 0, len(g.Vertices))
	for _, id := range slices.Sorted(maps.Keys(g.Vertices)) {
		out = append(out, g.Vertices[id])
	}
	return out
}

// DropDangling removes edges whose endpoints are not in the vertex map and
// returns the removed edges.
func (g *Graph) DropDangling() []Edge {
	var dropped []Edge
	g.Edges = slices.DeleteFunc(g.Edges, func(e Edge) bool {
		_, from := g.Vertices[e.From]
		_, to := g.Vertices[e.To]
		if from && to {
			return false
		}
		dropped = append(dropped, e)
		return true
	})
	return dropped
}

// RemoveVertex deletes id and every edge touching it.
// It returns the number of removed edges.
func (g *Graph) RemoveVertex(id string) int {
	delete(g.Vertices, id)
	before := len(g.Edges)
	g.Edges = slices.DeleteFunc(g.Edges, func(e Edge) bool { return e.Touches(id) })
	return before - len(g.Edges)
}
