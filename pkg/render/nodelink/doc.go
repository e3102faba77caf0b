// Package nodelink renders a snapshot of the editor canvas with Graphviz.
//
// Vertices are pinned at their editor coordinates and drawn as boxes of
// the editor's size; edges leave the out side of their source and enter
// the in side of their target. Edge pen width grows with the message rate
// of the source vertex.
//
//	dot := nodelink.ToDOT(g, nodelink.Options{Selected: id})
//	svg, err := nodelink.RenderSVG(ctx, dot)
//
// The DOT source is laid out with neato so the pinned positions survive.
// It can also be saved and rendered with `neato -n2`.
package nodelink
