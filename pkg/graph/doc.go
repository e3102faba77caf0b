// Package graph defines the editor's data model: vertices, edges, log
// messages, and the explicit merge rules that decide which side owns each
// field.
//
// # Ownership
//
// A [Vertex] mixes two kinds of fields. ID, Name and Code belong to the
// backend: it assigns ids, and every rename or code change is echoed back
// as the authoritative value. X, Y and MPS belong to the client: positions
// never leave the editor, and MPS is the latest throughput observation from
// the push channel. The merge helpers encode this split so it never depends
// on struct copy order:
//
//	v = graph.MergeRemote(local, remote) // ID/Name/Code from remote
//	v = v.WithPosition(x, y)             // X/Y only
//	v = v.WithMPS(rate)                  // MPS only
//
// # Graph
//
// [Graph] is a vertex mapping plus an ordered edge sequence. The invariant
// that every edge endpoint names an existing vertex is checked by
// [Graph.Validate] and restored by [Graph.DropDangling].
//
// # Concurrency
//
// Values are plain data; [Graph] maps are not safe for concurrent writes.
package graph
