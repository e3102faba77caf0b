package interaction

import (
	"github.com/charmbracelet/log"

	"github.com/matzehuels/vertexflow/pkg/errors"
	"github.com/matzehuels/vertexflow/pkg/geometry"
	"github.com/matzehuels/vertexflow/pkg/graph"
)

// Graph is the view of the store the machine needs.
type Graph interface {
	// Vertex looks up a vertex by id.
	Vertex(id string) (graph.Vertex, bool)
	// Vertices returns every vertex in a stable order.
	Vertices() []graph.Vertex
	// MoveVertex sets a vertex position locally.
	MoveVertex(id string, x, y float64) error
}

// Linker receives edge-creation requests when a link gesture completes.
// Link must not block; confirmation arrives asynchronously through the store.
type Linker interface {
	Link(from, to string)
}

// LinkerFunc adapts a function to [Linker].
type LinkerFunc func(from, to string)

// Link calls f(from, to).
func (f LinkerFunc) Link(from, to string) { f(from, to) }

// Machine is the pointer interaction state machine.
// The zero value is not usable; create instances with [New].
type Machine struct {
	graph  Graph
	linker Linker
	logger *log.Logger

	state      State
	pointer    geometry.Point
	hasPointer bool
}

// Option configures a Machine.
type Option func(*Machine)

// WithLogger sets the logger used for gesture diagnostics.
func WithLogger(l *log.Logger) Option {
	return func(m *Machine) {
		if l != nil {
			m.logger = l
		}
	}
}

// New creates a Machine in the Idle state.
func New(g Graph, linker Linker, opts ...Option) *Machine {
	m := &Machine{
		graph:  g,
		linker: linker,
		logger: log.Default(),
		state:  Idle{},
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// State returns the current state.
func (m *Machine) State() State { return m.state }

// Pointer returns the last known pointer position, if any.
func (m *Machine) Pointer() (geometry.Point, bool) { return m.pointer, m.hasPointer }

// Reset returns to Idle and forgets the pointer position.
func (m *Machine) Reset() {
	m.state = Idle{}
	m.hasPointer = false
}

// Forget resets to Idle if the current state references vertex id.
// It reports whether a gesture was cancelled.
func (m *Machine) Forget(id string) bool {
	if !m.state.References(id) {
		return false
	}
	m.logger.Debug("gesture cancelled", "vertex", id)
	m.state = Idle{}
	return true
}

// Handle dispatches one event. It returns an UNKNOWN_VERTEX error when a
// drag references a vertex that no longer exists; the gesture is aborted
// and the machine is back in Idle.
func (m *Machine) Handle(ev Event) error {
	switch ev.Kind {
	case PointerDown:
		m.setPointer(ev.Pos)
		return m.down(ev)
	case PointerMove:
		m.setPointer(ev.Pos)
		return m.move()
	case PointerUp, PointerLeave:
		m.release()
		return nil
	default:
		return errors.New(errors.ErrCodeInvalidInput, "unknown pointer event %v", ev.Kind)
	}
}

func (m *Machine) setPointer(p geometry.Point) {
	m.pointer = p
	m.hasPointer = true
}

func (m *Machine) down(ev Event) error {
	if _, idle := m.state.(Idle); !idle {
		return nil
	}

	switch ev.Target.Kind {
	case TargetBody:
		v, ok := m.graph.Vertex(ev.Target.VertexID)
		if !ok {
			return errors.New(errors.ErrCodeUnknownVertex, "drag start on unknown vertex %q", ev.Target.VertexID)
		}
		off := ev.Pos.Sub(geometry.Position(v))
		m.state = Dragging{VertexID: v.ID, OffsetX: off.X, OffsetY: off.Y}
	case TargetAnchor:
		if _, ok := m.graph.Vertex(ev.Target.VertexID); !ok {
			return errors.New(errors.ErrCodeUnknownVertex, "link start on unknown vertex %q", ev.Target.VertexID)
		}
		m.state = Linking{VertexID: ev.Target.VertexID, Side: ev.Target.Side}
	}
	return nil
}

func (m *Machine) move() error {
	drag, ok := m.state.(Dragging)
	if !ok {
		return nil
	}
	x, y := m.pointer.X-drag.OffsetX, m.pointer.Y-drag.OffsetY
	if err := m.graph.MoveVertex(drag.VertexID, x, y); err != nil {
		m.state = Idle{}
		return errors.Wrap(errors.ErrCodeUnknownVertex, err, "drag aborted for vertex %q", drag.VertexID)
	}
	return nil
}

func (m *Machine) release() {
	link, ok := m.state.(Linking)
	m.state = Idle{}
	if !ok || !m.hasPointer {
		return
	}

	target := link.Side.Opposite()
	for _, v := range m.graph.Vertices() {
		if v.ID == link.VertexID {
			continue
		}
		if !geometry.WithinCircle(geometry.EndpointAnchor(v, target), m.pointer) {
			continue
		}
		from, to := link.VertexID, v.ID
		if link.Side == geometry.SideIn {
			from, to = v.ID, link.VertexID
		}
		m.logger.Debug("link gesture hit", "from", from, "to", to)
		m.linker.Link(from, to)
	}
}

// Preview returns the segment of an in-progress link, oriented from the
// out side to the in side, for hosts that draw a rubber-band edge. ok is
// false when no link gesture is active.
func (m *Machine) Preview() (from, to geometry.Point, ok bool) {
	link, linking := m.state.(Linking)
	if !linking || !m.hasPointer {
		return geometry.Point{}, geometry.Point{}, false
	}
	v, found := m.graph.Vertex(link.VertexID)
	if !found {
		return geometry.Point{}, geometry.Point{}, false
	}
	anchor := geometry.EndpointAnchor(v, link.Side).Center()
	if link.Side == geometry.SideOut {
		return anchor, m.pointer, true
	}
	return m.pointer, anchor, true
}
