// Package store holds the editor's single local copy of the graph and keeps
// it in sync with the backend.
//
// # Ownership
//
// Server-owned fields (id, name, code, edges) only change after the backend
// confirms a request. Client-owned fields (position, observed message rate)
// change locally and are never sent. The field-level merge rules live in
// [graph.MergeRemote].
//
// # Failures
//
// Every mutating operation calls the [Backend] first and touches local state
// only on success. A failed call returns a coded error from pkg/errors and
// leaves the store exactly as it was. Mutations are never retried.
//
// # Concurrency
//
// A Store is safe for concurrent use. Backend calls run without holding the
// lock, so a slow response never blocks readers; when two responses for the
// same vertex race, the one applied last wins.
//
// # Push events
//
// [Store.ApplyPushEvent] never fails: log lines for a vertex other than the
// selected one and metrics for unknown vertices are dropped.
package store
