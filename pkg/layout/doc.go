// Package layout arranges editor vertices into left-to-right columns by
// dependency depth.
//
// # Overview
//
// [Compute] is a layered topological placement (a Kahn's algorithm
// variant). Vertices nobody points at form column 0. Removing the edges
// that leave a column may release further vertices, which form the next
// column, and so on until a column comes out empty.
//
// Each column sits at x = 100 + 250*column. Inside a column vertices are
// sorted by name and stacked at y = 100 + 100*row:
//
//	source ──▶ parse ──▶ sink
//	  (100,100)  (350,100)  (600,100)
//
// # Cycles
//
// A vertex on a cycle never reaches zero remaining in-degree, so it is never
// placed; neither is anything reachable only through it. Such vertices keep
// the coordinates they had and are reported in [Result.Unplaced]. This is a
// known limitation of the placement, not an error. [BackEdges] names the
// edges that close cycles so callers can explain the gap.
//
// # Purity
//
// Inputs are never mutated; [Compute] returns a fresh vertex map.
package layout
