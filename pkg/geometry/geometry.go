// Package geometry computes the hit-testable regions of a vertex.
//
// A vertex is drawn as a Width x Height box whose top-left corner is the
// vertex position. Two endpoint anchors sit on the vertical midline of the
// box: the in anchor on the left edge and the out anchor on the right edge.
// All functions are pure and total.
package geometry

import "github.com/matzehuels/vertexflow/pkg/graph"

// Vertex box dimensions in editor units.
const (
	Width  = 160.0
	Height = 50.0

	// AnchorRadius is the radius of both endpoint anchors.
	AnchorRadius = Height / 4
)

// Side names an endpoint anchor of a vertex.
type Side int

const (
	// SideIn is the left-center anchor; edges arrive here.
	SideIn Side = iota
	// SideOut is the right-center anchor; edges leave from here.
	SideOut
)

// Opposite returns the other side.
func (s Side) Opposite() Side {
	if s == SideIn {
		return SideOut
	}
	return SideIn
}

func (s Side) String() string {
	if s == SideIn {
		return "in"
	}
	return "out"
}

// Point is a position in editor units.
type Point struct{ X, Y float64 }

// Sub returns p - q.
func (p Point) Sub(q Point) Point { return Point{p.X - q.X, p.Y - q.Y} }

// Circle is a hit region centered on (CX, CY).
type Circle struct{ CX, CY, R float64 }

// Center returns the circle's center as a point.
func (c Circle) Center() Point { return Point{c.CX, c.CY} }

// EndpointAnchor returns the anchor circle on the given side of v.
func EndpointAnchor(v graph.Vertex, side Side) Circle {
	cx := v.X
	if side == SideOut {
		cx += Width
	}
	return Circle{CX: cx, CY: v.Y + Height/2, R: AnchorRadius}
}

// WithinCircle reports whether p lies inside c or on its boundary.
// No tolerance is applied.
func WithinCircle(c Circle, p Point) bool {
	dx, dy := c.CX-p.X, c.CY-p.Y
	return dx*dx+dy*dy <= c.R*c.R
}

// WithinBody reports whether p lies inside the box of v, edges included.
func WithinBody(v graph.Vertex, p Point) bool {
	return p.X >= v.X && p.X <= v.X+Width && p.Y >= v.Y && p.Y <= v.Y+Height
}

// Position returns the vertex position as a point.
func Position(v graph.Vertex) Point { return Point{v.X, v.Y} }
