package devserver

import (
	"context"
	"net/http"
	"net/http/httptest"
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/vertexflow/pkg/api"
	"github.com/matzehuels/vertexflow/pkg/errors"
	"github.com/matzehuels/vertexflow/pkg/push"
)

func quietLogger() *log.Logger {
	l := log.New(&strings.Builder{})
	l.SetLevel(log.FatalLevel)
	return l
}

func startServer(t *testing.T, opts ...Option) (*Server, *httptest.Server, *api.Client) {
	t.Helper()
	s := New(append([]Option{WithLogger(quietLogger())}, opts...)...)
	srv := httptest.NewServer(s.Handler())
	t.Cleanup(srv.Close)

	c, err := api.NewClient(srv.URL, api.WithHTTPClient(srv.Client()))
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	return s, srv, c
}

func strPtr(s string) *string { return &s }

func TestVertexLifecycle(t *testing.T) {
	_, _, c := startServer(t)
	ctx := context.Background()

	v, err := c.CreateVertex(ctx, nil, "")
	if err != nil {
		t.Fatalf("CreateVertex: %v", err)
	}
	if v.Name != DefaultVertexName {
		t.Errorf("name = %q, want %q", v.Name, DefaultVertexName)
	}

	renamed, err := c.RenameVertex(ctx, v.ID, "source")
	if err != nil {
		t.Fatalf("RenameVertex: %v", err)
	}
	if renamed.Name != "source" {
		t.Errorf("renamed = %+v", renamed)
	}

	coded, err := c.SetVertexCode(ctx, v.ID, "emit(1)")
	if err != nil {
		t.Fatalf("SetVertexCode: %v", err)
	}
	if coded.Code != "emit(1)" || coded.Name != "source" {
		t.Errorf("coded = %+v", coded)
	}

	doc, err := c.FetchGraph(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(doc.Vertices) != 1 || doc.Vertices[0] != coded {
		t.Errorf("graph = %+v", doc)
	}

	if err := c.DeleteVertex(ctx, v.ID); err != nil {
		t.Fatalf("DeleteVertex: %v", err)
	}
	if err := c.DeleteVertex(ctx, v.ID); !errors.Is(err, errors.ErrCodeNotFound) {
		t.Errorf("second delete = %v, want NOT_FOUND", err)
	}
	if _, err := c.RenameVertex(ctx, v.ID, "x"); !errors.Is(err, errors.ErrCodeNotFound) {
		t.Errorf("rename deleted = %v, want NOT_FOUND", err)
	}
}

func TestVertexIDWithSlash(t *testing.T) {
	s, _, c := startServer(t)
	ctx := context.Background()
	s.Replace(api.GraphDocument{Vertices: []api.VertexDescription{{ID: "ns/v1", Name: "scoped"}}})

	v, err := c.RenameVertex(ctx, "ns/v1", "renamed")
	if err != nil {
		t.Fatalf("RenameVertex: %v", err)
	}
	if v.ID != "ns/v1" || v.Name != "renamed" {
		t.Errorf("renamed = %+v", v)
	}
	if err := c.DeleteVertex(ctx, "ns/v1"); err != nil {
		t.Fatalf("DeleteVertex: %v", err)
	}
	if doc := s.Document(); len(doc.Vertices) != 0 {
		t.Errorf("graph = %+v, want empty", doc)
	}
}

func TestCreateVertexKeepsGivenName(t *testing.T) {
	_, _, c := startServer(t)
	v, err := c.CreateVertex(context.Background(), strPtr("sink"), "print(msg)")
	if err != nil {
		t.Fatal(err)
	}
	if v.Name != "sink" || v.Code != "print(msg)" || v.ID == "" {
		t.Errorf("vertex = %+v", v)
	}
}

func TestDeleteCascadesEdges(t *testing.T) {
	s, _, c := startServer(t)
	ctx := context.Background()

	a, _ := c.CreateVertex(ctx, strPtr("a"), "")
	b, _ := c.CreateVertex(ctx, strPtr("b"), "")
	d, _ := c.CreateVertex(ctx, strPtr("d"), "")
	for _, pair := range [][2]string{{a.ID, b.ID}, {b.ID, d.ID}, {a.ID, d.ID}} {
		if _, err := c.CreateEdge(ctx, pair[0], pair[1]); err != nil {
			t.Fatalf("CreateEdge: %v", err)
		}
	}

	if err := c.DeleteVertex(ctx, b.ID); err != nil {
		t.Fatal(err)
	}
	doc := s.Document()
	if len(doc.Edges) != 1 || doc.Edges[0].From != a.ID || doc.Edges[0].To != d.ID {
		t.Errorf("edges = %+v, want only a->d", doc.Edges)
	}
}

func TestCreateEdgeUnknownEndpoint(t *testing.T) {
	_, _, c := startServer(t)
	ctx := context.Background()
	a, _ := c.CreateVertex(ctx, nil, "")

	if _, err := c.CreateEdge(ctx, a.ID, "missing"); !errors.Is(err, errors.ErrCodeNotFound) {
		t.Errorf("CreateEdge = %v, want NOT_FOUND", err)
	}
}

func TestReplaceGraphDropsDanglingEdges(t *testing.T) {
	_, _, c := startServer(t)
	doc := api.GraphDocument{
		Vertices: []api.VertexDescription{{ID: "a", Name: "a"}, {ID: "b", Name: "b"}},
		Edges: []api.EdgeDescription{
			{ID: "e1", From: "a", To: "b"},
			{ID: "e2", From: "a", To: "gone"},
		},
	}

	out, err := c.ReplaceGraph(context.Background(), doc)
	if err != nil {
		t.Fatalf("ReplaceGraph: %v", err)
	}
	if len(out.Vertices) != 2 || len(out.Edges) != 1 || out.Edges[0].ID != "e1" {
		t.Errorf("accepted = %+v", out)
	}
}

func TestBadRequests(t *testing.T) {
	_, srv, _ := startServer(t)

	tests := []struct {
		name   string
		method string
		path   string
		body   string
		want   int
	}{
		{"malformed json", http.MethodPost, "/vertex", "{", http.StatusBadRequest},
		{"empty rename", http.MethodPut, "/vertex/x/name", `{"name":""}`, http.StatusUnprocessableEntity},
		{"empty edge source", http.MethodPost, "/edge", `{"source":"","target":"b"}`, http.StatusUnprocessableEntity},
		{"duplicate ids", http.MethodPost, "/graph", `{"vertices":[{"id":"a"},{"id":"a"}],"edges":[]}`, http.StatusUnprocessableEntity},
		{"unknown route", http.MethodGet, "/nope", "", http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, err := http.NewRequest(tt.method, srv.URL+tt.path, strings.NewReader(tt.body))
			if err != nil {
				t.Fatal(err)
			}
			resp, err := srv.Client().Do(req)
			if err != nil {
				t.Fatal(err)
			}
			resp.Body.Close()
			if resp.StatusCode != tt.want {
				t.Errorf("status = %d, want %d", resp.StatusCode, tt.want)
			}
		})
	}
}

// =============================================================================
// Push channel
// =============================================================================

func dialPush(t *testing.T, srv *httptest.Server) *push.Client {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	c, err := push.Dial(context.Background(), url, push.WithLogger(quietLogger()))
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatal("condition not met in time")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func nextEvent(t *testing.T, c *push.Client) api.PushEvent {
	t.Helper()
	select {
	case ev, ok := <-c.Events():
		if !ok {
			t.Fatalf("events closed: %v", c.Err())
		}
		return ev
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for event")
		return api.PushEvent{}
	}
}

func TestLogsReachOnlySubscribers(t *testing.T) {
	s, srv, _ := startServer(t)
	watcher := dialPush(t, srv)
	other := dialPush(t, srv)

	waitFor(t, func() bool { return s.Clients() == 2 })
	if err := watcher.Subscribe("v1"); err != nil {
		t.Fatal(err)
	}
	if err := other.Subscribe("v2"); err != nil {
		t.Fatal(err)
	}
	waitFor(t, func() bool { return slices.Equal(s.Subscriptions(), []string{"v1", "v2"}) })

	s.EmitLog("v1", "hello")
	ev := nextEvent(t, watcher)
	if ev.Type != api.EventLog || ev.Log.Message != "hello" || ev.Log.VertexID != "v1" {
		t.Errorf("event = %+v", ev)
	}

	s.EmitMetrics(map[string]float64{"v1": 2})
	if ev := nextEvent(t, other); ev.Type != api.EventMetrics {
		t.Errorf("other received %+v before metrics, want metrics only", ev)
	}
}

func TestTickSimulation(t *testing.T) {
	s, srv, c := startServer(t, WithSimulation(true))
	ctx := context.Background()
	a, _ := c.CreateVertex(ctx, strPtr("a"), "")
	b, _ := c.CreateVertex(ctx, strPtr("b"), "")
	if _, err := c.CreateEdge(ctx, a.ID, b.ID); err != nil {
		t.Fatal(err)
	}

	pc := dialPush(t, srv)
	if err := pc.Subscribe(b.ID); err != nil {
		t.Fatal(err)
	}
	waitFor(t, func() bool { return len(s.Subscriptions()) == 1 })

	s.Tick()

	logEv := nextEvent(t, pc)
	if logEv.Type != api.EventLog || logEv.Log.VertexID != b.ID || !strings.Contains(logEv.Log.Message, "tick 1") {
		t.Errorf("log event = %+v", logEv)
	}
	metricsEv := nextEvent(t, pc)
	if metricsEv.Type != api.EventMetrics {
		t.Fatalf("event = %+v, want metrics", metricsEv)
	}
	rates := metricsEv.Metrics.MetricsByVertexID
	if rates[a.ID].MsgFreqPerSec != 1 || rates[b.ID].MsgFreqPerSec != 2 {
		t.Errorf("rates = %+v", rates)
	}
}

func TestSetRateIgnoresDeletedVertices(t *testing.T) {
	s, srv, c := startServer(t)
	ctx := context.Background()
	a, _ := c.CreateVertex(ctx, nil, "")
	s.SetRate(a.ID, 7)
	s.SetRate("ghost", 3)

	pc := dialPush(t, srv)
	waitFor(t, func() bool { return s.Clients() == 1 })
	s.Tick()

	ev := nextEvent(t, pc)
	rates := ev.Metrics.MetricsByVertexID
	if len(rates) != 1 || rates[a.ID].MsgFreqPerSec != 7 {
		t.Errorf("rates = %+v", rates)
	}
}
