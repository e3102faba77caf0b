package interaction

import "github.com/matzehuels/vertexflow/pkg/geometry"

// State is the tagged variant of interaction states: [Idle], [Dragging] or
// [Linking].
type State interface {
	// References reports whether the state holds on to vertex id.
	References(id string) bool
	isState()
}

// Idle means no gesture is in progress.
type Idle struct{}

// Dragging means a vertex follows the pointer. Offset is pointer position
// minus vertex position at pointer-down, so the vertex does not jump.
type Dragging struct {
	VertexID         string
	OffsetX, OffsetY float64
}

// Linking means an edge is being pulled out of an anchor.
type Linking struct {
	VertexID string
	Side     geometry.Side
}

// References is always false: an idle machine holds no vertex.
func (Idle) References(string) bool { return false }

// References reports whether id is the vertex being dragged.
func (s Dragging) References(id string) bool { return s.VertexID == id }

// References reports whether id owns the anchor the link starts from.
func (s Linking) References(id string) bool { return s.VertexID == id }

func (Idle) isState()     {}
func (Dragging) isState() {}
func (Linking) isState()  {}
