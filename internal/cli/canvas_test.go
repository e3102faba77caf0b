package cli

import (
	"context"
	"io"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"

	"github.com/matzehuels/vertexflow/internal/devserver"
	"github.com/matzehuels/vertexflow/pkg/api"
	"github.com/matzehuels/vertexflow/pkg/editor"
	"github.com/matzehuels/vertexflow/pkg/errors"
	"github.com/matzehuels/vertexflow/pkg/geometry"
	"github.com/matzehuels/vertexflow/pkg/interaction"
	vfio "github.com/matzehuels/vertexflow/pkg/io"
)

// newTestCanvas loads a session with vertex a at (100,100) and b at
// (400,100). With the default view, a's body covers columns 12-31 and
// terminal rows 9-12; both anchors sit on terminal row 11.
func newTestCanvas(t *testing.T) (*canvasModel, *devserver.Server) {
	t.Helper()
	l := log.New(io.Discard)
	srv := devserver.New(devserver.WithLogger(l))
	srv.Replace(api.GraphDocument{
		Vertices: []api.VertexDescription{{ID: "a", Name: "alpha"}, {ID: "b", Name: "beta"}},
		Edges:    []api.EdgeDescription{},
	})
	hs := httptest.NewServer(srv.Handler())
	t.Cleanup(hs.Close)

	client, err := api.NewClient(hs.URL, api.WithHTTPClient(hs.Client()))
	if err != nil {
		t.Fatal(err)
	}
	s := editor.New(client, editor.WithLogger(l))
	if err := s.Load(context.Background()); err != nil {
		t.Fatal(err)
	}
	_ = s.Store().MoveVertex("a", 100, 100)
	_ = s.Store().MoveVertex("b", 400, 100)

	m := newCanvasModel(s, filepath.Join(t.TempDir(), "out.json"))
	m.Update(tea.WindowSizeMsg{Width: 100, Height: 30})
	return m, srv
}

func mouse(action tea.MouseAction, x, y int) tea.MouseMsg {
	return tea.MouseMsg{X: x, Y: y, Action: action, Button: tea.MouseButtonLeft}
}

func key(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestCanvasCoordinates(t *testing.T) {
	m, _ := newTestCanvas(t)
	p := m.toEditor(14, 10)
	if p != (geometry.Point{X: 116, Y: 118.75}) {
		t.Errorf("toEditor = %+v", p)
	}
	c, r := m.toCell(p)
	if c != 14 || r != 9 {
		t.Errorf("toCell = %d,%d, want 14,9", c, r)
	}
}

func TestCanvasClickSelectsAndDrags(t *testing.T) {
	m, _ := newTestCanvas(t)
	st := m.session.Store()

	m.Update(mouse(tea.MouseActionPress, 14, 10))
	if st.Selected() != "a" {
		t.Fatalf("selected = %q, want a", st.Selected())
	}
	if _, ok := m.session.State().(interaction.Dragging); !ok {
		t.Fatalf("state = %#v, want Dragging", m.session.State())
	}

	m.Update(mouse(tea.MouseActionMotion, 24, 14))
	m.Update(mouse(tea.MouseActionRelease, 24, 14))

	v, _ := st.Vertex("a")
	if v.X != 180 || v.Y != 150 {
		t.Errorf("vertex at (%v,%v), want (180,150)", v.X, v.Y)
	}

	m.Update(mouse(tea.MouseActionPress, 90, 20))
	m.Update(mouse(tea.MouseActionRelease, 90, 20))
	if st.Selected() != "" {
		t.Errorf("click on empty canvas kept selection %q", st.Selected())
	}
}

func TestCanvasLinkGesture(t *testing.T) {
	m, srv := newTestCanvas(t)

	m.Update(mouse(tea.MouseActionPress, 32, 11))
	if _, ok := m.session.State().(interaction.Linking); !ok {
		t.Fatalf("state = %#v, want Linking", m.session.State())
	}
	if !strings.Contains(m.View(), "linking") {
		t.Error("header does not show the linking state")
	}
	m.Update(mouse(tea.MouseActionMotion, 50, 11))
	m.Update(mouse(tea.MouseActionRelease, 50, 11))
	m.session.Wait()

	doc := srv.Document()
	if len(doc.Edges) != 1 || doc.Edges[0].From != "a" || doc.Edges[0].To != "b" {
		t.Errorf("backend edges = %+v, want a->b", doc.Edges)
	}
}

func TestCanvasKeys(t *testing.T) {
	m, srv := newTestCanvas(t)

	m.Update(key("n"))
	m.session.Wait()
	if n := len(srv.Document().Vertices); n != 3 {
		t.Fatalf("vertices after n = %d, want 3", n)
	}

	m.Update(key("f"))
	if !strings.HasPrefix(m.status, "formatted") {
		t.Errorf("status = %q", m.status)
	}

	m.Update(key("s"))
	doc, err := vfio.ImportJSON(m.savePath)
	if err != nil {
		t.Fatalf("saved file: %v", err)
	}
	if len(doc.Vertices) != 3 {
		t.Errorf("saved %d vertices", len(doc.Vertices))
	}

	m.Update(key("x"))
	if m.status != "nothing selected" {
		t.Errorf("status = %q", m.status)
	}

	_, cmd := m.Update(key("q"))
	if cmd == nil {
		t.Fatal("q returned no command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("q did not quit")
	}
}

func TestCanvasFormatNamesCycle(t *testing.T) {
	m, _ := newTestCanvas(t)
	st := m.session.Store()
	ctx := context.Background()
	if _, err := st.CreateEdge(ctx, "a", "b"); err != nil {
		t.Fatal(err)
	}
	if _, err := st.CreateEdge(ctx, "b", "a"); err != nil {
		t.Fatal(err)
	}

	m.Update(key("f"))
	if !strings.Contains(m.status, "2 on a cycle") || !strings.Contains(m.status, "closed by beta → alpha") {
		t.Errorf("status = %q", m.status)
	}
}

func TestCanvasErrorStatus(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"transport", errors.New(errors.ErrCodeNetwork, "connection refused"), "backend unreachable: "},
		{"rejected", errors.New(errors.ErrCodeNotFound, "vertex gone"), "request rejected: "},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, _ := newTestCanvas(t)
			m.session.Dispatch("op", func(context.Context) error { return tt.err })
			m.session.Wait()
			m.drainErrors()
			if !strings.HasPrefix(m.status, tt.want) {
				t.Errorf("status = %q, want prefix %q", m.status, tt.want)
			}
		})
	}
}

func TestCanvasDeleteSelected(t *testing.T) {
	m, srv := newTestCanvas(t)
	m.Update(mouse(tea.MouseActionPress, 14, 10))
	m.Update(mouse(tea.MouseActionRelease, 14, 10))

	m.Update(key("x"))
	m.session.Wait()
	if _, ok := m.session.Store().Vertex("a"); ok {
		t.Error("vertex a still in store")
	}
	if n := len(srv.Document().Vertices); n != 1 {
		t.Errorf("backend has %d vertices, want 1", n)
	}
}

func TestCanvasView(t *testing.T) {
	m, _ := newTestCanvas(t)
	_ = m.session.Store().SelectVertex("a")
	m.session.Store().ApplyPushEvent(api.NewLogEvent("a", 1700000000, "processed 12"))
	m.session.Store().ApplyPushEvent(api.NewMetricsEvent(map[string]float64{"a": 4}))

	view := m.View()
	for _, want := range []string{"alpha", "beta", "4.0/s", "processed 12", "2 vertices · 0 edges · idle"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q", want)
		}
	}
	if lines := strings.Count(view, "\n") + 1; lines != m.height {
		t.Errorf("view has %d lines, want %d", lines, m.height)
	}
}

func TestGridLine(t *testing.T) {
	g := newGrid(5, 3)
	g.line(0, 0, 4, 2, '*', cellEdge)
	count := 0
	for _, row := range g.cells {
		for _, c := range row {
			if c.r == '*' {
				count++
			}
		}
	}
	if count != 5 {
		t.Errorf("line drew %d cells, want 5", count)
	}
	if g.cells[0][0].r != '*' || g.cells[2][4].r != '*' {
		t.Error("line does not touch both endpoints")
	}
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		in   string
		n    int
		want string
	}{
		{"alpha", 10, "alpha"},
		{"alpha", 3, "al…"},
		{"alpha", 1, "…"},
		{"alpha", 0, ""},
	}
	for _, tt := range tests {
		if got := truncate(tt.in, tt.n); got != tt.want {
			t.Errorf("truncate(%q, %d) = %q, want %q", tt.in, tt.n, got, tt.want)
		}
	}
}
