package interaction

import (
	"fmt"

	"github.com/matzehuels/vertexflow/pkg/geometry"
	"github.com/matzehuels/vertexflow/pkg/graph"
)

// EventKind enumerates pointer events.
type EventKind int

const (
	PointerDown EventKind = iota
	PointerMove
	PointerUp
	PointerLeave
)

func (k EventKind) String() string {
	switch k {
	case PointerDown:
		return "down"
	case PointerMove:
		return "move"
	case PointerUp:
		return "up"
	case PointerLeave:
		return "leave"
	default:
		return fmt.Sprintf("EventKind(%d)", int(k))
	}
}

// TargetKind tells what a pointer-down landed on.
type TargetKind int

const (
	TargetNone TargetKind = iota
	TargetBody
	TargetAnchor
)

// Target is the canvas element under the pointer. Side is meaningful only
// for TargetAnchor.
type Target struct {
	Kind     TargetKind
	VertexID string
	Side     geometry.Side
}

// Event is one pointer event. Target is only consulted for PointerDown.
type Event struct {
	Kind   EventKind
	Pos    geometry.Point
	Target Target
}

// Down builds a PointerDown event.
func Down(p geometry.Point, target Target) Event {
	return Event{Kind: PointerDown, Pos: p, Target: target}
}

// Move builds a PointerMove event.
func Move(p geometry.Point) Event { return Event{Kind: PointerMove, Pos: p} }

// Up builds a PointerUp event.
func Up() Event { return Event{Kind: PointerUp} }

// Leave builds a PointerLeave event.
func Leave() Event { return Event{Kind: PointerLeave} }

// Body targets the box of vertex id.
func Body(id string) Target { return Target{Kind: TargetBody, VertexID: id} }

// Anchor targets an endpoint anchor of vertex id.
func Anchor(id string, side geometry.Side) Target {
	return Target{Kind: TargetAnchor, VertexID: id, Side: side}
}

// Resolve finds the element under p. Anchors win over bodies because they
// are drawn on top; among overlapping candidates the vertex later in
// vertices wins, matching paint order.
func Resolve(vertices []graph.Vertex, p geometry.Point) Target {
	for i := len(vertices) - 1; i >= 0; i-- {
		v := vertices[i]
		for _, side := range []geometry.Side{geometry.SideIn, geometry.SideOut} {
			if geometry.WithinCircle(geometry.EndpointAnchor(v, side), p) {
				return Anchor(v.ID, side)
			}
		}
	}
	for i := len(vertices) - 1; i >= 0; i-- {
		if geometry.WithinBody(vertices[i], p) {
			return Body(vertices[i].ID)
		}
	}
	return Target{}
}
