// Package observability provides hooks for metrics, tracing, and logging.
//
// Libraries in vertexflow call hooks at interesting points (HTTP requests to
// the backend, store mutations, push traffic, position persistence) without
// depending on any metrics backend. Applications register implementations
// at startup; until then every hook is a no-op.
//
// # Usage
//
// Register hooks at application startup:
//
//	func main() {
//	    observability.SetEditorHooks(&myEditorHooks{})
//	    observability.SetHTTPHooks(&myHTTPHooks{})
//	    // ... run application
//	}
//
// Libraries call hooks to emit events:
//
//	observability.Editor().OnMutation(ctx, "create_vertex", duration, err)
package observability

import (
	"context"
	"sync"
	"time"
)

// =============================================================================
// HTTP Hooks
// =============================================================================

// HTTPHooks receives events from the backend HTTP client.
type HTTPHooks interface {
	// OnRequest records an outgoing HTTP request.
	OnRequest(ctx context.Context, method, host, path string)

	// OnResponse records an HTTP response.
	OnResponse(ctx context.Context, method, host, path string, statusCode int, duration time.Duration)

	// OnError records an HTTP error (network failure, timeout).
	OnError(ctx context.Context, method, host, path string, err error)
}

// =============================================================================
// Editor Hooks
// =============================================================================

// EditorHooks receives events from the graph store and editor session.
type EditorHooks interface {
	// OnMutation records a backend-confirmed store operation
	// (create_vertex, delete_vertex, create_edge, rename, set_code, load, replace).
	OnMutation(ctx context.Context, op string, duration time.Duration, err error)

	// OnPushEvent records an incoming push event and whether it was applied.
	OnPushEvent(kind string, applied bool)

	// OnLayout records a layout recomputation.
	OnLayout(vertices, unplaced int, duration time.Duration)
}

// =============================================================================
// Position Hooks
// =============================================================================

// PositionHooks receives events from the vertex position stores.
type PositionHooks interface {
	// OnLoad records a position lookup; found counts the ids with a stored position.
	OnLoad(ctx context.Context, backend string, requested, found int, err error)

	// OnSave records a position write.
	OnSave(ctx context.Context, backend string, count int, err error)
}

// =============================================================================
// No-op Implementations
// =============================================================================

// NoopHTTPHooks is a no-op implementation of HTTPHooks.
type NoopHTTPHooks struct{}

func (NoopHTTPHooks) OnRequest(context.Context, string, string, string)                      {}
func (NoopHTTPHooks) OnResponse(context.Context, string, string, string, int, time.Duration) {}
func (NoopHTTPHooks) OnError(context.Context, string, string, string, error)                 {}

// NoopEditorHooks is a no-op implementation of EditorHooks.
type NoopEditorHooks struct{}

func (NoopEditorHooks) OnMutation(context.Context, string, time.Duration, error) {}
func (NoopEditorHooks) OnPushEvent(string, bool)                                 {}
func (NoopEditorHooks) OnLayout(int, int, time.Duration)                         {}

// NoopPositionHooks is a no-op implementation of PositionHooks.
type NoopPositionHooks struct{}

func (NoopPositionHooks) OnLoad(context.Context, string, int, int, error) {}
func (NoopPositionHooks) OnSave(context.Context, string, int, error)      {}

// =============================================================================
// Global Hook Registry
// =============================================================================

var (
	httpHooks     HTTPHooks     = NoopHTTPHooks{}
	editorHooks   EditorHooks   = NoopEditorHooks{}
	positionHooks PositionHooks = NoopPositionHooks{}
	hooksMu       sync.RWMutex
)

// SetHTTPHooks registers custom HTTP hooks. Nil is ignored.
func SetHTTPHooks(h HTTPHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		httpHooks = h
	}
}

// SetEditorHooks registers custom editor hooks. Nil is ignored.
func SetEditorHooks(h EditorHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		editorHooks = h
	}
}

// SetPositionHooks registers custom position store hooks. Nil is ignored.
func SetPositionHooks(h PositionHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		positionHooks = h
	}
}

// HTTP returns the registered HTTP hooks.
func HTTP() HTTPHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return httpHooks
}

// Editor returns the registered editor hooks.
func Editor() EditorHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return editorHooks
}

// Positions returns the registered position store hooks.
func Positions() PositionHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return positionHooks
}

// Reset restores all hooks to their no-op defaults.
// This is primarily useful for testing.
func Reset() {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	httpHooks = NoopHTTPHooks{}
	editorHooks = NoopEditorHooks{}
	positionHooks = NoopPositionHooks{}
}
