package graph

import "math"

// Vertex is a dataflow node: server-executed code with a name, plus the
// client-only screen position and the last observed message rate.
type Vertex struct {
	ID   string // Assigned by the backend on creation
	Name string // Display name (server-owned)
	Code string // Source text executed by the backend (server-owned)

	X, Y float64 // Editor-local position, never sent to the backend
	MPS  float64 // Last observed messages per second, >= 0
}

// MergeRemote overlays the server-owned fields of remote onto local.
// ID, Name and Code come from remote; X, Y and MPS are kept from local.
// Applying the same remote twice yields the same vertex as applying it once.
func MergeRemote(local, remote Vertex) Vertex {
	local.ID = remote.ID
	local.Name = remote.Name
	local.Code = remote.Code
	return local
}

// WithPosition returns a copy of v moved to (x, y).
func (v Vertex) WithPosition(x, y float64) Vertex {
	v.X, v.Y = x, y
	return v
}

// WithMPS returns a copy of v with its observed message rate replaced.
// Negative and non-finite rates are clamped to zero.
func (v Vertex) WithMPS(mps float64) Vertex {
	if math.IsNaN(mps) || math.IsInf(mps, 0) || mps < 0 {
		mps = 0
	}
	v.MPS = mps
	return v
}

// Edge is a directed link from one vertex's output to another's input.
// Several edges may connect the same ordered pair.
type Edge struct {
	ID   string // Assigned by the backend when the link is confirmed
	From string // Source vertex id (out side)
	To   string // Target vertex id (in side)
}

// Touches reports whether the edge has id as either endpoint.
func (e Edge) Touches(id string) bool { return e.From == id || e.To == id }

// LogMessage is one line emitted by the selected vertex's code.
type LogMessage struct {
	Timestamp float64 // Seconds since the Unix epoch
	Message   string
}
