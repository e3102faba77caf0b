package editor

import (
	"context"
	"io"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/vertexflow/pkg/api"
	"github.com/matzehuels/vertexflow/pkg/errors"
	"github.com/matzehuels/vertexflow/pkg/geometry"
	"github.com/matzehuels/vertexflow/pkg/interaction"
	vfio "github.com/matzehuels/vertexflow/pkg/io"
	"github.com/matzehuels/vertexflow/pkg/layout"
	"github.com/matzehuels/vertexflow/pkg/observability"
	"github.com/matzehuels/vertexflow/pkg/positions"
	"github.com/matzehuels/vertexflow/pkg/store"
)

// Defaults for a Session.
const (
	DefaultRequestTimeout = 10 * time.Second
	DefaultErrorBuffer    = 16
)

// Session is one editing session. Create instances with [New].
type Session struct {
	store   *store.Store
	logger  *log.Logger
	timeout time.Duration

	mu      sync.Mutex
	machine *interaction.Machine

	errs     chan error
	inflight sync.WaitGroup
}

type settings struct {
	storeOpts []store.Option
	logger    *log.Logger
	timeout   time.Duration
	errBuffer int
}

// Option configures a Session.
type Option func(*settings)

// WithSubscriber sets the push channel subscription slot.
func WithSubscriber(sub store.Subscriber) Option {
	return func(s *settings) { s.storeOpts = append(s.storeOpts, store.WithSubscriber(sub)) }
}

// WithPositions sets the position store used on load and save.
func WithPositions(p positions.Store) Option {
	return func(s *settings) { s.storeOpts = append(s.storeOpts, store.WithPositions(p)) }
}

// WithSeed sets where new vertices are placed.
func WithSeed(x, y float64) Option {
	return func(s *settings) { s.storeOpts = append(s.storeOpts, store.WithSeed(x, y)) }
}

// WithLogLimit bounds the log buffer of the selected vertex.
func WithLogLimit(n int) Option {
	return func(s *settings) { s.storeOpts = append(s.storeOpts, store.WithLogLimit(n)) }
}

// WithLogger sets the logger for the session and its components.
func WithLogger(l *log.Logger) Option {
	return func(s *settings) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithRequestTimeout bounds background requests started by the session.
func WithRequestTimeout(d time.Duration) Option {
	return func(s *settings) {
		if d > 0 {
			s.timeout = d
		}
	}
}

// WithErrorBuffer sets the capacity of the Errors channel. Errors that do
// not fit are logged and dropped.
func WithErrorBuffer(n int) Option {
	return func(s *settings) {
		if n > 0 {
			s.errBuffer = n
		}
	}
}

// New creates a session backed by backend.
func New(backend store.Backend, opts ...Option) *Session {
	cfg := settings{
		logger:    log.Default(),
		timeout:   DefaultRequestTimeout,
		errBuffer: DefaultErrorBuffer,
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	s := &Session{
		logger:  cfg.logger,
		timeout: cfg.timeout,
		errs:    make(chan error, cfg.errBuffer),
	}
	storeOpts := append(cfg.storeOpts,
		store.WithLogger(cfg.logger),
		store.WithDeleteHook(s.forget),
	)
	s.store = store.New(backend, storeOpts...)
	s.machine = interaction.New(s.store, interaction.LinkerFunc(s.link), interaction.WithLogger(cfg.logger))
	return s
}

// Store returns the session's graph store.
func (s *Session) Store() *store.Store { return s.store }

// Errors reports failures of background requests.
func (s *Session) Errors() <-chan error { return s.errs }

// Load fetches the graph from the backend.
func (s *Session) Load(ctx context.Context) error {
	return s.store.LoadInitial(ctx)
}

// =============================================================================
// Pointer input
// =============================================================================

// HandlePointer forwards ev to the state machine. A pointer-down on a
// vertex body also selects that vertex; a pointer-down on empty canvas
// clears the selection. Gesture failures abort only the gesture.
func (s *Session) HandlePointer(ev interaction.Event) error {
	s.mu.Lock()
	err := s.machine.Handle(ev)
	s.mu.Unlock()

	if err != nil {
		s.logger.Warn("gesture aborted", "error", err)
		return err
	}
	if ev.Kind != interaction.PointerDown {
		return nil
	}
	switch ev.Target.Kind {
	case interaction.TargetBody:
		return s.store.SelectVertex(ev.Target.VertexID)
	case interaction.TargetNone:
		s.store.ClearSelection()
	}
	return nil
}

// PointerAt resolves p against the current vertices and forwards a
// pointer-down there.
func (s *Session) PointerAt(p geometry.Point) error {
	return s.HandlePointer(interaction.Down(p, interaction.Resolve(s.store.Vertices(), p)))
}

// State returns the current interaction state.
func (s *Session) State() interaction.State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.machine.State()
}

// Preview returns the in-progress link segment, if any.
func (s *Session) Preview() (from, to geometry.Point, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.machine.Preview()
}

// ResetGesture abandons any gesture in progress.
func (s *Session) ResetGesture() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.machine.Reset()
}

func (s *Session) forget(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.machine.Forget(id)
}

func (s *Session) link(from, to string) {
	s.Dispatch("create_edge", func(ctx context.Context) error {
		_, err := s.store.CreateEdge(ctx, from, to)
		return err
	})
}

// =============================================================================
// Background requests
// =============================================================================

// Dispatch runs fn in the background with the session's request timeout.
// Its error, if any, is delivered on Errors.
func (s *Session) Dispatch(op string, fn func(ctx context.Context) error) {
	s.inflight.Add(1)
	go func() {
		defer s.inflight.Done()
		ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
		defer cancel()
		if err := fn(ctx); err != nil {
			code := errors.GetCode(err)
			if code == "" {
				code = errors.ErrCodeInternal
			}
			s.report(errors.Wrap(code, err, "%s", op))
		}
	}()
}

// Wait blocks until every dispatched request has finished.
func (s *Session) Wait() { s.inflight.Wait() }

func (s *Session) report(err error) {
	select {
	case s.errs <- err:
	default:
		s.logger.Error("dropping request error", "error", err)
	}
}

// =============================================================================
// Push channel
// =============================================================================

// Run applies events until ctx is done or events is closed.
func (s *Session) Run(ctx context.Context, events <-chan api.PushEvent) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			s.store.ApplyPushEvent(ev)
		}
	}
}

// =============================================================================
// Layout, import and export
// =============================================================================

// Format recomputes the layered layout and moves every placeable vertex.
// Vertices on or downstream of a cycle keep their position and are listed
// in the result's Unplaced.
func (s *Session) Format() layout.Result {
	start := time.Now()
	snap := s.store.Snapshot()
	res := layout.Compute(snap.Vertices, snap.Edges)
	moved := s.store.ApplyLayout(res)

	observability.Editor().OnLayout(len(snap.Vertices), len(res.Unplaced), time.Since(start))
	if len(res.Unplaced) > 0 {
		s.logger.Warn("layout skipped vertices on a cycle", "unplaced", len(res.Unplaced))
	}
	s.logger.Debug("layout applied", "columns", len(res.Columns), "moved", moved)
	return res
}

// Import posts doc as the replacement graph, then lays it out.
func (s *Session) Import(ctx context.Context, doc api.GraphDocument) (layout.Result, error) {
	if err := s.store.ReplaceGraph(ctx, doc); err != nil {
		return layout.Result{}, err
	}
	return s.Format(), nil
}

// ImportFile reads a saved document from path and imports it.
func (s *Session) ImportFile(ctx context.Context, path string) (layout.Result, error) {
	doc, err := vfio.ImportJSON(path)
	if err != nil {
		return layout.Result{}, err
	}
	return s.Import(ctx, doc)
}

// Export writes the current graph document to w.
func (s *Session) Export(w io.Writer) error {
	return vfio.WriteJSON(s.store.Document(), w)
}

// ExportFile writes the current graph document to path.
func (s *Session) ExportFile(path string) error {
	return vfio.ExportJSON(s.store.Document(), path)
}

// Close waits for background requests and saves vertex positions.
func (s *Session) Close(ctx context.Context) error {
	s.Wait()
	return s.store.SavePositions(ctx)
}
