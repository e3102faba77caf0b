// Package devserver is an in-memory graph backend that speaks the same
// HTTP and WebSocket contract as the production service.
//
// It backs `vertexflow serve` for local development and the transport
// tests of the client packages. Vertex code is never executed; with
// simulation enabled the server invents message rates and log lines so
// the editor has something to show.
package devserver
