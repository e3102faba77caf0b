package store

import (
	"context"
	"fmt"
	"sync"

	"github.com/matzehuels/vertexflow/pkg/api"
	"github.com/matzehuels/vertexflow/pkg/errors"
)

// fakeBackend is an in-memory Backend. Setting fail makes every call
// return a NETWORK_ERROR without touching its state.
type fakeBackend struct {
	mu       sync.Mutex
	vertices map[string]api.VertexDescription
	order    []string
	edges    []api.EdgeDescription
	nextID   int
	fail     bool
	calls    map[string]int
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{vertices: make(map[string]api.VertexDescription), calls: make(map[string]int)}
}

func (f *fakeBackend) id(prefix string) string {
	f.nextID++
	return fmt.Sprintf("%s%d", prefix, f.nextID)
}

func (f *fakeBackend) begin(op string) error {
	f.calls[op]++
	if f.fail {
		return errors.New(errors.ErrCodeNetwork, "%s: connection refused", op)
	}
	return nil
}

func (f *fakeBackend) add(name, code string) api.VertexDescription {
	f.mu.Lock()
	defer f.mu.Unlock()
	d := api.VertexDescription{ID: f.id("v"), Name: name, Code: code}
	f.vertices[d.ID] = d
	f.order = append(f.order, d.ID)
	return d
}

func (f *fakeBackend) link(from, to string) api.EdgeDescription {
	f.mu.Lock()
	defer f.mu.Unlock()
	e := api.EdgeDescription{ID: f.id("e"), From: from, To: to}
	f.edges = append(f.edges, e)
	return e
}

func (f *fakeBackend) doc() api.GraphDocument {
	doc := api.GraphDocument{Edges: append([]api.EdgeDescription(nil), f.edges...)}
	for _, id := range f.order {
		if d, ok := f.vertices[id]; ok {
			doc.Vertices = append(doc.Vertices, d)
		}
	}
	return doc
}

func (f *fakeBackend) FetchGraph(ctx context.Context) (api.GraphDocument, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.begin("fetch"); err != nil {
		return api.GraphDocument{}, err
	}
	return f.doc(), nil
}

func (f *fakeBackend) ReplaceGraph(ctx context.Context, doc api.GraphDocument) (api.GraphDocument, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.begin("replace"); err != nil {
		return api.GraphDocument{}, err
	}
	f.vertices = make(map[string]api.VertexDescription)
	f.order = nil
	for _, d := range doc.Vertices {
		f.vertices[d.ID] = d
		f.order = append(f.order, d.ID)
	}
	f.edges = append([]api.EdgeDescription(nil), doc.Edges...)
	return f.doc(), nil
}

func (f *fakeBackend) CreateVertex(ctx context.Context, name *string, code string) (api.VertexDescription, error) {
	f.mu.Lock()
	if err := f.begin("create_vertex"); err != nil {
		f.mu.Unlock()
		return api.VertexDescription{}, err
	}
	f.mu.Unlock()
	n := "New Vertex"
	if name != nil {
		n = *name
	}
	return f.add(n, code), nil
}

func (f *fakeBackend) DeleteVertex(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.begin("delete_vertex"); err != nil {
		return err
	}
	if _, ok := f.vertices[id]; !ok {
		return errors.New(errors.ErrCodeNotFound, "vertex %q", id)
	}
	delete(f.vertices, id)
	kept := f.edges[:0]
	for _, e := range f.edges {
		if e.From != id && e.To != id {
			kept = append(kept, e)
		}
	}
	f.edges = kept
	return nil
}

func (f *fakeBackend) update(op, id string, fn func(*api.VertexDescription)) (api.VertexDescription, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.begin(op); err != nil {
		return api.VertexDescription{}, err
	}
	d, ok := f.vertices[id]
	if !ok {
		return api.VertexDescription{}, errors.New(errors.ErrCodeNotFound, "vertex %q", id)
	}
	fn(&d)
	f.vertices[id] = d
	return d, nil
}

func (f *fakeBackend) RenameVertex(ctx context.Context, id, name string) (api.VertexDescription, error) {
	return f.update("rename", id, func(d *api.VertexDescription) { d.Name = name })
}

func (f *fakeBackend) SetVertexCode(ctx context.Context, id, code string) (api.VertexDescription, error) {
	return f.update("set_code", id, func(d *api.VertexDescription) { d.Code = code })
}

func (f *fakeBackend) CreateEdge(ctx context.Context, from, to string) (api.EdgeDescription, error) {
	f.mu.Lock()
	if err := f.begin("create_edge"); err != nil {
		f.mu.Unlock()
		return api.EdgeDescription{}, err
	}
	f.mu.Unlock()
	return f.link(from, to), nil
}

// fakeSubscriber records subscription frames.
type fakeSubscriber struct {
	ids  []string
	fail bool
}

func (s *fakeSubscriber) Subscribe(id string) error {
	if s.fail {
		return errors.New(errors.ErrCodeClosed, "push channel closed")
	}
	s.ids = append(s.ids, id)
	return nil
}
