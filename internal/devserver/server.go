package devserver

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"net/http"
	"net/url"
	"slices"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"github.com/matzehuels/vertexflow/pkg/api"
	"github.com/matzehuels/vertexflow/pkg/errors"
)

// DefaultVertexName is used when a create request carries a null name.
const DefaultVertexName = "New Vertex"

// Server holds the graph and serves the backend API.
type Server struct {
	logger   *log.Logger
	simulate bool
	interval time.Duration
	now      func() time.Time

	mu       sync.RWMutex
	vertices map[string]api.VertexDescription
	order    []string
	edges    []api.EdgeDescription
	rates    map[string]float64
	ticks    int

	hub *hub
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the request logger.
func WithLogger(l *log.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithSimulation makes every tick of [Server.Run] invent message rates and
// log lines.
func WithSimulation(enabled bool) Option {
	return func(s *Server) { s.simulate = enabled }
}

// WithInterval sets the tick interval of [Server.Run].
func WithInterval(d time.Duration) Option {
	return func(s *Server) {
		if d > 0 {
			s.interval = d
		}
	}
}

// New creates an empty server.
func New(opts ...Option) *Server {
	s := &Server{
		logger:   log.Default(),
		interval: time.Second,
		now:      time.Now,
		vertices: make(map[string]api.VertexDescription),
		rates:    make(map[string]float64),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.hub = newHub(s.logger)
	return s
}

// Handler returns the HTTP handler serving the API and the push channel.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(s.logRequests)

	r.Get("/graph", s.handleGetGraph)
	r.Post("/graph", s.handleReplaceGraph)
	r.Post("/vertex", s.handleCreateVertex)
	r.Delete("/vertex/{id}", s.handleDeleteVertex)
	r.Put("/vertex/{id}/name", s.handleRename)
	r.Put("/vertex/{id}/code", s.handleSetCode)
	r.Post("/edge", s.handleCreateEdge)
	r.Get("/ws", s.hub.serveWS)
	return r
}

// ListenAndServe serves on addr until ctx is done, running the tick loop
// alongside.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{Addr: addr, Handler: s.Handler(), ReadHeaderTimeout: 10 * time.Second}

	go s.Run(ctx)
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		s.hub.closeAll()
		_ = srv.Shutdown(shutdownCtx)
	}()

	s.logger.Info("devserver listening", "addr", addr)
	if err := srv.ListenAndServe(); err != nil && !stderrors.Is(err, http.ErrServerClosed) {
		return errors.Wrap(errors.ErrCodeNetwork, err, "listen on %s", addr)
	}
	return nil
}

// Run ticks until ctx is done. Each tick pushes the current rates to all
// clients; with simulation enabled it first invents new rates and a log
// line for every vertex.
func (s *Server) Run(ctx context.Context) {
	t := time.NewTicker(s.interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			s.Tick()
		}
	}
}

// Tick performs one round of the tick loop.
func (s *Server) Tick() {
	s.mu.Lock()
	s.ticks++
	var lines []api.PushEvent
	if s.simulate {
		indeg := make(map[string]int, len(s.vertices))
		for _, e := range s.edges {
			indeg[e.To]++
		}
		ts := float64(s.now().UnixMilli()) / 1e3
		for _, id := range s.order {
			v := s.vertices[id]
			s.rates[id] = float64(indeg[id] + 1)
			lines = append(lines, api.NewLogEvent(id, ts, fmt.Sprintf("%s: tick %d", v.Name, s.ticks)))
		}
	}
	rates := make(map[string]float64, len(s.rates))
	for id, r := range s.rates {
		if _, ok := s.vertices[id]; ok {
			rates[id] = r
		}
	}
	s.mu.Unlock()

	for _, ev := range lines {
		s.hub.publishLog(ev)
	}
	s.hub.broadcast(api.NewMetricsEvent(rates))
}

// SetRate sets the message rate reported for vertex id on the next tick.
func (s *Server) SetRate(id string, rate float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rates[id] = rate
}

// EmitLog pushes a log line to clients subscribed to vertexID.
func (s *Server) EmitLog(vertexID, message string) {
	ts := float64(s.now().UnixMilli()) / 1e3
	s.hub.publishLog(api.NewLogEvent(vertexID, ts, message))
}

// EmitMetrics pushes rates to every client.
func (s *Server) EmitMetrics(rates map[string]float64) {
	s.hub.broadcast(api.NewMetricsEvent(rates))
}

// Clients returns the number of connected push clients.
func (s *Server) Clients() int { return s.hub.count() }

// Subscriptions returns the current subscription of every push client,
// sorted.
func (s *Server) Subscriptions() []string { return s.hub.subscriptions() }

// Document returns the current graph.
func (s *Server) Document() api.GraphDocument {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.document()
}

func (s *Server) document() api.GraphDocument {
	doc := api.GraphDocument{
		Vertices: make([]api.VertexDescription, 0, len(s.order)),
		Edges:    slices.Clone(s.edges),
	}
	if doc.Edges == nil {
		doc.Edges = []api.EdgeDescription{}
	}
	for _, id := range s.order {
		doc.Vertices = append(doc.Vertices, s.vertices[id])
	}
	return doc
}

// =============================================================================
// Handlers
// =============================================================================

func (s *Server) handleGetGraph(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.Document())
}

func (s *Server) handleReplaceGraph(w http.ResponseWriter, r *http.Request) {
	var doc api.GraphDocument
	if !decode(w, r, &doc) {
		return
	}
	writeJSON(w, http.StatusOK, s.Replace(doc))
}

// Replace swaps in doc as the whole graph and returns what was accepted.
// Edges with an unknown endpoint are dropped.
func (s *Server) Replace(doc api.GraphDocument) api.GraphDocument {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.vertices = make(map[string]api.VertexDescription, len(doc.Vertices))
	s.order = make([]string, 0, len(doc.Vertices))
	for _, v := range doc.Vertices {
		s.vertices[v.ID] = v
		s.order = append(s.order, v.ID)
	}
	s.edges = make([]api.EdgeDescription, 0, len(doc.Edges))
	for _, e := range doc.Edges {
		_, from := s.vertices[e.From]
		_, to := s.vertices[e.To]
		if from && to {
			s.edges = append(s.edges, e)
		}
	}
	s.rates = make(map[string]float64)
	return s.document()
}

func (s *Server) handleCreateVertex(w http.ResponseWriter, r *http.Request) {
	var req api.CreateVertexRequest
	if !decode(w, r, &req) {
		return
	}
	name := DefaultVertexName
	if req.Name != nil && *req.Name != "" {
		name = *req.Name
	}
	v := api.VertexDescription{ID: uuid.NewString(), Name: name, Code: req.Code}

	s.mu.Lock()
	s.vertices[v.ID] = v
	s.order = append(s.order, v.ID)
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, api.CreateVertexResponse{Description: v})
}

func (s *Server) handleDeleteVertex(w http.ResponseWriter, r *http.Request) {
	id := vertexID(r)

	s.mu.Lock()
	if _, ok := s.vertices[id]; !ok {
		s.mu.Unlock()
		writeError(w, http.StatusNotFound, "vertex %q not found", id)
		return
	}
	delete(s.vertices, id)
	delete(s.rates, id)
	s.order = slices.DeleteFunc(s.order, func(v string) bool { return v == id })
	s.edges = slices.DeleteFunc(s.edges, func(e api.EdgeDescription) bool { return e.From == id || e.To == id })
	s.mu.Unlock()

	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleRename(w http.ResponseWriter, r *http.Request) {
	var req api.RenameRequest
	if !decode(w, r, &req) {
		return
	}
	s.update(w, vertexID(r), func(v *api.VertexDescription) { v.Name = req.Name })
}

func (s *Server) handleSetCode(w http.ResponseWriter, r *http.Request) {
	var req api.SetCodeRequest
	if !decode(w, r, &req) {
		return
	}
	s.update(w, vertexID(r), func(v *api.VertexDescription) { v.Code = req.Code })
}

func (s *Server) update(w http.ResponseWriter, id string, fn func(*api.VertexDescription)) {
	s.mu.Lock()
	v, ok := s.vertices[id]
	if ok {
		fn(&v)
		s.vertices[id] = v
	}
	s.mu.Unlock()

	if !ok {
		writeError(w, http.StatusNotFound, "vertex %q not found", id)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

func (s *Server) handleCreateEdge(w http.ResponseWriter, r *http.Request) {
	var req api.CreateEdgeRequest
	if !decode(w, r, &req) {
		return
	}

	s.mu.Lock()
	_, from := s.vertices[req.Source]
	_, to := s.vertices[req.Target]
	if !from || !to {
		s.mu.Unlock()
		writeError(w, http.StatusNotFound, "edge endpoint not found")
		return
	}
	e := api.EdgeDescription{ID: uuid.NewString(), From: req.Source, To: req.Target}
	s.edges = append(s.edges, e)
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, api.CreateEdgeResponse{ID: e.ID})
}

// =============================================================================
// Helpers
// =============================================================================

type validator interface{ Validate() error }

// vertexID returns the unescaped {id} path parameter. Ids may contain
// slashes, which clients send as %2F.
func vertexID(r *http.Request) string {
	raw := chi.URLParam(r, "id")
	if id, err := url.PathUnescape(raw); err == nil {
		return id
	}
	return raw
}

func decode(w http.ResponseWriter, r *http.Request, v validator) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON: %v", err)
		return false
	}
	if err := v.Validate(); err != nil {
		writeError(w, http.StatusUnprocessableEntity, "%s", errors.UserMessage(err))
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, format string, args ...any) {
	writeJSON(w, status, api.ErrorResponse{Error: fmt.Sprintf(format, args...)})
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.logger.Debug("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"elapsed", time.Since(start),
			"request_id", r.Header.Get(api.RequestIDHeader))
	})
}
