// Package interaction implements the pointer-driven editing gestures of the
// graph canvas as an explicit state machine.
//
// # States
//
// The machine is always in exactly one [State]:
//
//	Idle ──down on body──▶ Dragging ──up/leave──▶ Idle
//	Idle ──down on anchor──▶ Linking ──up/leave──▶ Idle (+ edge requests)
//
// While Dragging, every pointer move writes the vertex position through the
// [Graph] collaborator so renderers see the drag live. While Linking, the
// release point is tested against the opposite-side anchor of every other
// vertex and one edge request is issued per hit, oriented out → in.
//
// # Hosts
//
// The machine does not know about any rendering technology. A host feeds it
// [Event] values; hosts that only know coordinates use [Resolve] to turn a
// point into a [Target].
//
// # Failures
//
// A drag whose vertex disappeared aborts the gesture: the machine resets to
// Idle and returns an UNKNOWN_VERTEX error. Nothing else is affected.
//
// # Concurrency
//
// A Machine is not safe for concurrent use; the editor session serializes
// access to it.
package interaction
