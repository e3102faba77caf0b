package store

import (
	"context"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/vertexflow/pkg/api"
	"github.com/matzehuels/vertexflow/pkg/errors"
	"github.com/matzehuels/vertexflow/pkg/graph"
	"github.com/matzehuels/vertexflow/pkg/layout"
	"github.com/matzehuels/vertexflow/pkg/observability"
	"github.com/matzehuels/vertexflow/pkg/positions"
)

// DefaultLogLimit bounds the log buffer of the selected vertex.
const DefaultLogLimit = 1000

// Backend is the request/response transport to the graph service.
// [api.Client] implements it.
type Backend interface {
	FetchGraph(ctx context.Context) (api.GraphDocument, error)
	ReplaceGraph(ctx context.Context, doc api.GraphDocument) (api.GraphDocument, error)
	CreateVertex(ctx context.Context, name *string, code string) (api.VertexDescription, error)
	DeleteVertex(ctx context.Context, id string) error
	RenameVertex(ctx context.Context, id, name string) (api.VertexDescription, error)
	SetVertexCode(ctx context.Context, id, code string) (api.VertexDescription, error)
	CreateEdge(ctx context.Context, from, to string) (api.EdgeDescription, error)
}

// Subscriber is the push channel's subscription slot.
// [push.Client] implements it.
type Subscriber interface {
	Subscribe(vertexID string) error
}

// Store is the local graph state. Create instances with [New].
type Store struct {
	backend    Backend
	subscriber Subscriber
	positions  positions.Store
	logger     *log.Logger
	logLimit   int
	seedX      float64
	seedY      float64
	onDelete   []func(id string)

	mu       sync.RWMutex
	vertices map[string]graph.Vertex
	edges    []graph.Edge
	selected string
	logBuf   []graph.LogMessage
}

// Option configures a Store.
type Option func(*Store)

// WithSubscriber sets the push channel used by SelectVertex.
func WithSubscriber(s Subscriber) Option {
	return func(st *Store) { st.subscriber = s }
}

// WithPositions sets the store consulted for positions of vertices that
// are new to this session.
func WithPositions(p positions.Store) Option {
	return func(st *Store) {
		if p != nil {
			st.positions = p
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *log.Logger) Option {
	return func(st *Store) {
		if l != nil {
			st.logger = l
		}
	}
}

// WithLogLimit bounds the log buffer; older lines are discarded first.
func WithLogLimit(n int) Option {
	return func(st *Store) {
		if n > 0 {
			st.logLimit = n
		}
	}
}

// WithSeed sets where vertices without a known position are placed.
func WithSeed(x, y float64) Option {
	return func(st *Store) { st.seedX, st.seedY = x, y }
}

// WithDeleteHook registers fn to run once the backend has confirmed that a
// vertex is gone, before the store drops it. Hooks run outside the store
// lock.
func WithDeleteHook(fn func(id string)) Option {
	return func(st *Store) {
		if fn != nil {
			st.onDelete = append(st.onDelete, fn)
		}
	}
}

// New creates an empty store talking to backend.
func New(backend Backend, opts ...Option) *Store {
	s := &Store{
		backend:   backend,
		positions: positions.NullStore{},
		logger:    log.Default(),
		logLimit:  DefaultLogLimit,
		seedX:     layout.OriginX,
		seedY:     layout.OriginY,
		vertices:  make(map[string]graph.Vertex),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// =============================================================================
// Readers
// =============================================================================

// Vertex returns the vertex with the given id.
func (s *Store) Vertex(id string) (graph.Vertex, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.vertices[id]
	return v, ok
}

// Vertices returns all vertices ordered by id.
func (s *Store) Vertices() []graph.Vertex {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return graph.Graph{Vertices: s.vertices}.SortedVertices()
}

// Edges returns a copy of the edge sequence in confirmation order.
func (s *Store) Edges() []graph.Edge {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.edges)
}

// Selected returns the selected vertex id, or "" when nothing is selected.
func (s *Store) Selected() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.selected
}

// Log returns a copy of the selected vertex's log buffer.
func (s *Store) Log() []graph.LogMessage {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.logBuf)
}

// Snapshot returns a deep copy of the graph.
func (s *Store) Snapshot() graph.Graph {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return graph.Graph{Vertices: s.vertices, Edges: s.edges}.Clone()
}

// Document returns the graph as a wire document, the export format.
func (s *Store) Document() api.GraphDocument {
	return api.NewGraphDocument(s.Snapshot())
}

// =============================================================================
// Backend-confirmed mutations
// =============================================================================

// LoadInitial fetches the whole graph and replaces local vertices and edges.
func (s *Store) LoadInitial(ctx context.Context) (err error) {
	defer observe(ctx, "load", time.Now(), &err)

	doc, err := s.backend.FetchGraph(ctx)
	if err != nil {
		return err
	}
	return s.applyDocument(ctx, doc)
}

// ReplaceGraph posts doc as the new graph and applies the accepted result
// the same way LoadInitial does.
func (s *Store) ReplaceGraph(ctx context.Context, doc api.GraphDocument) (err error) {
	defer observe(ctx, "replace", time.Now(), &err)

	accepted, err := s.backend.ReplaceGraph(ctx, doc)
	if err != nil {
		return err
	}
	return s.applyDocument(ctx, accepted)
}

func (s *Store) applyDocument(ctx context.Context, doc api.GraphDocument) error {
	if err := doc.Validate(); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidResponse, err, "graph document")
	}

	incoming := make(map[string]bool, len(doc.Vertices))
	for _, d := range doc.Vertices {
		incoming[d.ID] = true
	}

	s.mu.RLock()
	var fresh, removed []string
	for _, d := range doc.Vertices {
		if _, ok := s.vertices[d.ID]; !ok {
			fresh = append(fresh, d.ID)
		}
	}
	for id := range s.vertices {
		if !incoming[id] {
			removed = append(removed, id)
		}
	}
	s.mu.RUnlock()

	slices.Sort(removed)
	s.fireDelete(removed...)
	stored := s.loadPositions(ctx, fresh)

	next := doc.Graph()
	s.mu.Lock()
	for id, remote := range next.Vertices {
		if local, ok := s.vertices[id]; ok {
			next.Vertices[id] = graph.MergeRemote(local, remote)
		} else if p, ok := stored[id]; ok {
			next.Vertices[id] = remote.WithPosition(p.X, p.Y)
		} else {
			next.Vertices[id] = remote.WithPosition(s.seedX, s.seedY)
		}
	}
	dropped := next.DropDangling()

	s.vertices = next.Vertices
	s.edges = next.Edges
	if _, ok := s.vertices[s.selected]; s.selected != "" && !ok {
		s.selected = ""
		s.logBuf = nil
	}
	s.mu.Unlock()

	if len(dropped) > 0 {
		s.logger.Warn("dropped edges with unknown endpoints", "edges", len(dropped))
	}
	s.logger.Debug("graph loaded", "vertices", len(next.Vertices), "edges", len(next.Edges))
	return nil
}

func (s *Store) loadPositions(ctx context.Context, ids []string) map[string]positions.Position {
	if len(ids) == 0 {
		return nil
	}
	stored, err := s.positions.Load(ctx, ids)
	if err != nil {
		s.logger.Warn("could not load stored positions", "error", err)
		return nil
	}
	return stored
}

// CreateVertex asks the backend for a new vertex and inserts it at the seed
// position. A nil name lets the backend choose one.
func (s *Store) CreateVertex(ctx context.Context, name *string, code string) (v graph.Vertex, err error) {
	defer observe(ctx, "create_vertex", time.Now(), &err)

	desc, err := s.backend.CreateVertex(ctx, name, code)
	if err != nil {
		return graph.Vertex{}, err
	}
	if err := desc.Validate(); err != nil {
		return graph.Vertex{}, errors.Wrap(errors.ErrCodeInvalidResponse, err, "created vertex")
	}

	s.mu.Lock()
	v, ok := s.vertices[desc.ID]
	if ok {
		v = graph.MergeRemote(v, desc.Vertex())
	} else {
		v = desc.Vertex().WithPosition(s.seedX, s.seedY)
	}
	s.vertices[desc.ID] = v
	s.mu.Unlock()

	s.logger.Debug("vertex created", "vertex", v.ID, "name", v.Name)
	return v, nil
}

// DeleteVertex deletes id on the backend, then removes it and every edge
// touching it. A selection of id is cleared together with the log buffer.
func (s *Store) DeleteVertex(ctx context.Context, id string) (err error) {
	defer observe(ctx, "delete_vertex", time.Now(), &err)

	if err := s.backend.DeleteVertex(ctx, id); err != nil {
		return err
	}
	s.fireDelete(id)

	s.mu.Lock()
	g := graph.Graph{Vertices: s.vertices, Edges: s.edges}
	n := g.RemoveVertex(id)
	s.edges = g.Edges
	if s.selected == id {
		s.selected = ""
		s.logBuf = nil
	}
	s.mu.Unlock()

	s.logger.Debug("vertex deleted", "vertex", id, "edges", n)
	return nil
}

// CreateEdge links from → to on the backend and appends the confirmed edge.
// Nothing is inserted before confirmation.
func (s *Store) CreateEdge(ctx context.Context, from, to string) (e graph.Edge, err error) {
	defer observe(ctx, "create_edge", time.Now(), &err)

	desc, err := s.backend.CreateEdge(ctx, from, to)
	if err != nil {
		return graph.Edge{}, err
	}
	if err := desc.Validate(); err != nil {
		return graph.Edge{}, errors.Wrap(errors.ErrCodeInvalidResponse, err, "created edge")
	}
	e = desc.Edge()

	s.mu.Lock()
	defer s.mu.Unlock()
	_, okFrom := s.vertices[e.From]
	_, okTo := s.vertices[e.To]
	if !okFrom || !okTo {
		// An endpoint was deleted while the request was in flight.
		s.logger.Debug("discarding edge to deleted vertex", "edge", e.ID, "from", e.From, "to", e.To)
		return e, nil
	}
	s.edges = append(s.edges, e)
	return e, nil
}

// RenameVertex sets the name of id and merges the confirmed vertex.
func (s *Store) RenameVertex(ctx context.Context, id, name string) (v graph.Vertex, err error) {
	defer observe(ctx, "rename", time.Now(), &err)

	desc, err := s.backend.RenameVertex(ctx, id, name)
	if err != nil {
		return graph.Vertex{}, err
	}
	return s.mergeVertex(desc, false)
}

// SetVertexCode replaces the code of id and merges the confirmed vertex.
// The log buffer is cleared when id is selected.
func (s *Store) SetVertexCode(ctx context.Context, id, code string) (v graph.Vertex, err error) {
	defer observe(ctx, "set_code", time.Now(), &err)

	desc, err := s.backend.SetVertexCode(ctx, id, code)
	if err != nil {
		return graph.Vertex{}, err
	}
	return s.mergeVertex(desc, true)
}

func (s *Store) mergeVertex(desc api.VertexDescription, codeChanged bool) (graph.Vertex, error) {
	if err := desc.Validate(); err != nil {
		return graph.Vertex{}, errors.Wrap(errors.ErrCodeInvalidResponse, err, "updated vertex")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	local, ok := s.vertices[desc.ID]
	if !ok {
		return graph.Vertex{}, errors.New(errors.ErrCodeUnknownVertex, "vertex %q was deleted", desc.ID)
	}
	v := graph.MergeRemote(local, desc.Vertex())
	s.vertices[desc.ID] = v
	if codeChanged && s.selected == desc.ID {
		s.logBuf = nil
	}
	return v, nil
}

// =============================================================================
// Local mutations
// =============================================================================

// MoveVertex sets the position of id. It is never sent to the backend.
func (s *Store) MoveVertex(id string, x, y float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.vertices[id]
	if !ok {
		return errors.New(errors.ErrCodeUnknownVertex, "move unknown vertex %q", id)
	}
	s.vertices[id] = v.WithPosition(x, y)
	return nil
}

// ApplyLayout writes computed positions of vertices that still exist.
// It returns the number of vertices moved.
func (s *Store) ApplyLayout(res layout.Result) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for id, placed := range res.Vertices {
		v, ok := s.vertices[id]
		if !ok || (v.X == placed.X && v.Y == placed.Y) {
			continue
		}
		s.vertices[id] = v.WithPosition(placed.X, placed.Y)
		n++
	}
	return n
}

// SelectVertex subscribes the push channel to id, selects it and clears
// the log buffer. Selecting the already-selected vertex is a no-op. When
// the subscription fails nothing changes.
func (s *Store) SelectVertex(id string) error {
	s.mu.RLock()
	_, known := s.vertices[id]
	same := s.selected == id
	s.mu.RUnlock()

	if !known {
		return errors.New(errors.ErrCodeUnknownVertex, "select unknown vertex %q", id)
	}
	if same {
		return nil
	}
	if s.subscriber != nil {
		if err := s.subscriber.Subscribe(id); err != nil {
			return err
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.vertices[id]; !ok {
		return errors.New(errors.ErrCodeUnknownVertex, "vertex %q was deleted", id)
	}
	s.selected = id
	s.logBuf = nil
	return nil
}

// ClearSelection deselects the current vertex. The push subscription is
// left in place; log lines arriving without a selection are dropped.
func (s *Store) ClearSelection() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.selected = ""
	s.logBuf = nil
}

// ApplyPushEvent merges a push event and reports whether it changed
// anything. It never fails.
func (s *Store) ApplyPushEvent(ev api.PushEvent) bool {
	applied := s.applyPushEvent(ev)
	observability.Editor().OnPushEvent(string(ev.Type), applied)
	return applied
}

func (s *Store) applyPushEvent(ev api.PushEvent) bool {
	if err := ev.Validate(); err != nil {
		s.logger.Debug("dropping push event", "error", err)
		return false
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	switch ev.Type {
	case api.EventLog:
		if s.selected == "" {
			return false
		}
		if ev.Log.VertexID != "" && ev.Log.VertexID != s.selected {
			s.logger.Debug("dropping log line for unselected vertex", "vertex", ev.Log.VertexID)
			return false
		}
		s.logBuf = append(s.logBuf, ev.Log.LogMessage())
		if over := len(s.logBuf) - s.logLimit; over > 0 {
			s.logBuf = slices.Delete(s.logBuf, 0, over)
		}
		return true

	case api.EventMetrics:
		applied := false
		for id, m := range ev.Metrics.MetricsByVertexID {
			v, ok := s.vertices[id]
			if !ok {
				continue
			}
			s.vertices[id] = v.WithMPS(m.MsgFreqPerSec)
			applied = true
		}
		return applied
	}
	return false
}

// =============================================================================
// Positions
// =============================================================================

// SavePositions writes the position of every vertex to the position store.
func (s *Store) SavePositions(ctx context.Context) error {
	s.mu.RLock()
	out := make(map[string]positions.Position, len(s.vertices))
	for id, v := range s.vertices {
		out[id] = positions.Position{X: v.X, Y: v.Y}
	}
	s.mu.RUnlock()

	return s.positions.Save(ctx, out)
}

func (s *Store) fireDelete(ids ...string) {
	for _, id := range ids {
		for _, fn := range s.onDelete {
			fn(id)
		}
	}
}

func observe(ctx context.Context, op string, start time.Time, err *error) {
	observability.Editor().OnMutation(ctx, op, time.Since(start), *err)
}

// FindVertex returns the vertex whose id equals ref, or else whose name
// matches ref case-insensitively. Among vertices sharing a name the
// smallest id wins.
func (s *Store) FindVertex(ref string) (graph.Vertex, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if v, ok := s.vertices[ref]; ok {
		return v, true
	}
	var best graph.Vertex
	found := false
	for _, v := range s.vertices {
		if strings.EqualFold(v.Name, ref) && (!found || v.ID < best.ID) {
			best, found = v, true
		}
	}
	return best, found
}
