package layout

import (
	"cmp"
	"maps"
	"slices"

	"github.com/matzehuels/vertexflow/pkg/graph"
)

// Placement constants in editor units.
const (
	OriginX      = 100.0
	OriginY      = 100.0
	ColumnStride = 250.0
	RowStride    = 100.0
)

// Result is the outcome of a layout pass.
type Result struct {
	// Vertices holds every input vertex; placed ones carry new coordinates.
	Vertices map[string]graph.Vertex
	// Columns lists vertex ids per column, each sorted by name then id.
	Columns [][]string
	// Unplaced lists, sorted by id, the vertices that kept their prior
	// coordinates because a cycle blocks them.
	Unplaced []string
	// Cycles holds the edges that close a cycle, as found by [BackEdges].
	// It is empty when Unplaced is.
	Cycles []graph.Edge
}

// Format recomputes the x/y of every placeable vertex and returns the new
// vertex map. It is shorthand for Compute(vertices, edges).Vertices.
func Format(vertices map[string]graph.Vertex, edges []graph.Edge) map[string]graph.Vertex {
	return Compute(vertices, edges).Vertices
}

// Compute assigns columns and rows to vertices from the edge set.
//
// # Algorithm
//
// Compute performs a column-at-a-time topological traversal:
//  1. Count, per vertex, the edges that target it; vertices with zero form column 0
//  2. For every edge leaving the current column, decrement its target's count
//  3. Targets whose count reaches zero form the next column
//  4. Repeat until a column is empty
//
// Multi-edges count once per edge. Edges naming unknown vertices are ignored.
//
// # Performance
//
// Time complexity is O(V log V + E); the log factor comes from sorting each
// column by name.
func Compute(vertices map[string]graph.Vertex, edges []graph.Edge) Result {
	inDegree := make(map[string]int, len(vertices))
	outgoing := make(map[string][]string, len(vertices))
	for _, e := range edges {
		if _, ok := vertices[e.From]; !ok {
			continue
		}
		if _, ok := vertices[e.To]; !ok {
			continue
		}
		inDegree[e.To]++
		outgoing[e.From] = append(outgoing[e.From], e.To)
	}

	var column []string
	for id := range vertices {
		if inDegree[id] == 0 {
			column = append(column, id)
		}
	}

	out := maps.Clone(vertices)
	if out == nil {
		out = make(map[string]graph.Vertex)
	}
	placed := make(map[string]bool, len(vertices))
	var columns [][]string

	for len(column) > 0 {
		sortColumn(column, vertices)
		x := OriginX + ColumnStride*float64(len(columns))
		for row, id := range column {
			out[id] = out[id].WithPosition(x, OriginY+RowStride*float64(row))
			placed[id] = true
		}
		columns = append(columns, column)

		var next []string
		for _, id := range column {
			for _, child := range outgoing[id] {
				inDegree[child]--
				if inDegree[child] == 0 {
					next = append(next, child)
				}
			}
		}
		column = next
	}

	var unplaced []string
	for id := range vertices {
		if !placed[id] {
			unplaced = append(unplaced, id)
		}
	}
	slices.Sort(unplaced)

	res := Result{Vertices: out, Columns: columns, Unplaced: unplaced}
	if len(unplaced) > 0 {
		res.Cycles = BackEdges(vertices, edges)
	}
	return res
}

// sortColumn orders ids by vertex name (byte-wise, case-sensitive), breaking
// ties by id so the result does not depend on map iteration order.
func sortColumn(ids []string, vertices map[string]graph.Vertex) {
	slices.SortFunc(ids, func(a, b string) int {
		if c := cmp.Compare(vertices[a].Name, vertices[b].Name); c != 0 {
			return c
		}
		return cmp.Compare(a, b)
	})
}
