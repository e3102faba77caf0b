package cli

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/matzehuels/vertexflow/pkg/editor"
	"github.com/matzehuels/vertexflow/pkg/errors"
	"github.com/matzehuels/vertexflow/pkg/geometry"
	"github.com/matzehuels/vertexflow/pkg/graph"
	"github.com/matzehuels/vertexflow/pkg/interaction"
)

// One terminal cell covers cellW x cellH editor units, so a vertex box is
// 20 columns by 4 rows and its anchors sit on the third row.
const (
	cellW = 8.0
	cellH = 12.5

	headerRows = 1
	footerRows = 7
	panCells   = 4

	canvasTick = 100 * time.Millisecond
)

type cellStyle uint8

const (
	cellPlain cellStyle = iota
	cellEdge
	cellPulse
	cellSelected
	cellPreview
	cellAnchor
)

var cellStyles = map[cellStyle]lipgloss.Style{
	cellPlain:    lipgloss.NewStyle(),
	cellEdge:     lipgloss.NewStyle().Foreground(colorDim),
	cellPulse:    styleActive,
	cellSelected: lipgloss.NewStyle().Foreground(colorCyan).Bold(true),
	cellPreview:  lipgloss.NewStyle().Foreground(colorBlue),
	cellAnchor:   lipgloss.NewStyle().Foreground(colorGray),
}

type cell struct {
	r     rune
	style cellStyle
}

type tickMsg time.Time

// canvasModel is the bubbletea model of `vertexflow edit`. Mouse input is
// translated to editor coordinates and fed to the session's state machine.
type canvasModel struct {
	session  *editor.Session
	savePath string

	width, height int
	viewX, viewY  float64
	status        string
	now           time.Time
}

func newCanvasModel(s *editor.Session, savePath string) *canvasModel {
	return &canvasModel{
		session:  s,
		savePath: savePath,
		width:    100,
		height:   30,
		status:   "n new · x delete · f format · s save · arrows pan · q quit",
		now:      time.Now(),
	}
}

func (m *canvasModel) Init() tea.Cmd { return tickCmd() }

func tickCmd() tea.Cmd {
	return tea.Tick(canvasTick, func(t time.Time) tea.Msg { return tickMsg(t) })
}

func (m *canvasModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
	case tickMsg:
		m.now = time.Time(msg)
		m.drainErrors()
		return m, tickCmd()
	case tea.KeyMsg:
		return m, m.handleKey(msg.String())
	case tea.MouseMsg:
		m.handleMouse(msg)
	}
	return m, nil
}

func (m *canvasModel) handleKey(key string) tea.Cmd {
	st := m.session.Store()
	switch key {
	case "q", "ctrl+c":
		return tea.Quit
	case "n":
		m.session.Dispatch("create_vertex", func(ctx context.Context) error {
			_, err := st.CreateVertex(ctx, nil, "")
			return err
		})
		m.status = "creating vertex"
	case "x", "delete":
		id := st.Selected()
		if id == "" {
			m.status = "nothing selected"
			return nil
		}
		m.session.Dispatch("delete_vertex", func(ctx context.Context) error {
			return st.DeleteVertex(ctx, id)
		})
		m.status = "deleting vertex"
	case "f":
		res := m.session.Format()
		m.status = fmt.Sprintf("formatted %d columns", len(res.Columns))
		if len(res.Unplaced) > 0 {
			m.status += fmt.Sprintf(", %d on a cycle left in place", len(res.Unplaced))
			closing := make([]string, 0, len(res.Cycles))
			for _, e := range res.Cycles {
				closing = append(closing, res.Vertices[e.From].Name+" → "+res.Vertices[e.To].Name)
			}
			if len(closing) > 0 {
				m.status += " (closed by " + strings.Join(closing, ", ") + ")"
			}
		}
	case "s":
		if err := m.session.ExportFile(m.savePath); err != nil {
			m.status = "save failed: " + err.Error()
		} else {
			m.status = "saved " + m.savePath
		}
	case "r":
		m.session.Dispatch("reload", m.session.Load)
		m.status = "reloading"
	case "esc":
		m.session.ResetGesture()
		st.ClearSelection()
	case "left", "h":
		m.viewX -= panCells * cellW
	case "right", "l":
		m.viewX += panCells * cellW
	case "up", "k":
		m.viewY -= panCells * cellH
	case "down", "j":
		m.viewY += panCells * cellH
	}
	return nil
}

func (m *canvasModel) handleMouse(msg tea.MouseMsg) {
	p := m.toEditor(msg.X, msg.Y)
	var err error
	switch msg.Action {
	case tea.MouseActionPress:
		switch msg.Button {
		case tea.MouseButtonLeft:
			if !m.onCanvas(msg.Y) {
				return
			}
			err = m.session.PointerAt(p)
		case tea.MouseButtonWheelUp:
			m.viewY -= cellH
		case tea.MouseButtonWheelDown:
			m.viewY += cellH
		}
	case tea.MouseActionMotion:
		err = m.session.HandlePointer(interaction.Move(p))
	case tea.MouseActionRelease:
		err = m.session.HandlePointer(interaction.Up())
	}
	if err != nil {
		m.status = err.Error()
	}
}

func (m *canvasModel) drainErrors() {
	for {
		select {
		case err := <-m.session.Errors():
			if errors.IsTransport(err) {
				m.status = "backend unreachable: " + err.Error()
			} else {
				m.status = "request rejected: " + err.Error()
			}
		default:
			return
		}
	}
}

// =============================================================================
// Coordinates
// =============================================================================

func (m *canvasModel) canvasRows() int { return max(m.height-headerRows-footerRows, 1) }

func (m *canvasModel) onCanvas(y int) bool {
	return y >= headerRows && y < headerRows+m.canvasRows()
}

// toEditor maps the center of terminal cell (x, y) to editor units.
func (m *canvasModel) toEditor(x, y int) geometry.Point {
	return geometry.Point{
		X: m.viewX + (float64(x)+0.5)*cellW,
		Y: m.viewY + (float64(y-headerRows)+0.5)*cellH,
	}
}

// toCell maps an editor point to a canvas grid cell.
func (m *canvasModel) toCell(p geometry.Point) (col, row int) {
	return int(math.Floor((p.X - m.viewX) / cellW)), int(math.Floor((p.Y - m.viewY) / cellH))
}

// =============================================================================
// Rendering
// =============================================================================

func (m *canvasModel) View() string {
	st := m.session.Store()
	vertices := st.Vertices()
	edges := st.Edges()
	selected := st.Selected()

	var b strings.Builder
	b.WriteString(StyleTitle.Render("vertexflow") + " " +
		StyleDim.Render(fmt.Sprintf("%d vertices · %d edges · %s", len(vertices), len(edges), stateName(m.session.State()))))
	b.WriteString("\n")

	grid := newGrid(m.width, m.canvasRows())
	byID := make(map[string]graph.Vertex, len(vertices))
	for _, v := range vertices {
		byID[v.ID] = v
	}
	for _, e := range edges {
		src, dst := byID[e.From], byID[e.To]
		m.drawEdge(grid, src, dst)
	}
	if from, to, ok := m.session.Preview(); ok {
		fc, fr := m.toCell(from)
		tc, tr := m.toCell(to)
		grid.line(fc, fr, tc, tr, '•', cellPreview)
	}
	for _, v := range vertices {
		m.drawVertex(grid, v, v.ID == selected)
	}
	b.WriteString(grid.render())

	b.WriteString(m.footer(byID[selected], selected != "", st.Log()))
	return b.String()
}

func (m *canvasModel) drawEdge(g *grid, src, dst graph.Vertex) {
	from := geometry.EndpointAnchor(src, geometry.SideOut).Center()
	to := geometry.EndpointAnchor(dst, geometry.SideIn).Center()
	fc, fr := m.toCell(from)
	tc, tr := m.toCell(to)
	g.line(fc, fr, tc, tr, '·', cellEdge)

	act := graph.EdgeActivity(src.MPS)
	if act.Idle() {
		return
	}
	elapsed := float64(m.now.UnixMilli()) / 1e3
	for k := range act.Pulses {
		frac := math.Mod(elapsed/act.Period+float64(k)/float64(act.Pulses), 1)
		p := geometry.Point{X: from.X + (to.X-from.X)*frac, Y: from.Y + (to.Y-from.Y)*frac}
		c, r := m.toCell(p)
		g.set(c, r, '●', cellPulse)
	}
}

func (m *canvasModel) drawVertex(g *grid, v graph.Vertex, selected bool) {
	c0, r0 := m.toCell(geometry.Position(v))
	w := int(geometry.Width / cellW)
	h := int(geometry.Height / cellH)
	border := cellPlain
	if selected {
		border = cellSelected
	}

	for c := c0; c < c0+w; c++ {
		for r := r0; r < r0+h; r++ {
			g.set(c, r, ' ', cellPlain)
		}
		g.set(c, r0, '─', border)
		g.set(c, r0+h-1, '─', border)
	}
	for r := r0; r < r0+h; r++ {
		g.set(c0, r, '│', border)
		g.set(c0+w-1, r, '│', border)
	}
	g.set(c0, r0, '╭', border)
	g.set(c0+w-1, r0, '╮', border)
	g.set(c0, r0+h-1, '╰', border)
	g.set(c0+w-1, r0+h-1, '╯', border)

	g.text(c0+2, r0+1, truncate(v.Name, w-4), border)
	if v.MPS > 0 {
		g.text(c0+2, r0+2, truncate(fmt.Sprintf("%.1f/s", v.MPS), w-4), cellPulse)
	}

	anchorRow := int(math.Floor((v.Y + geometry.Height/2 - m.viewY) / cellH))
	g.set(c0, anchorRow, '◆', cellAnchor)
	g.set(c0+w-1, anchorRow, '◆', cellAnchor)
}

func (m *canvasModel) footer(sel graph.Vertex, hasSel bool, lines []graph.LogMessage) string {
	var b strings.Builder
	rule := StyleDim.Render(strings.Repeat("─", max(m.width, 1)))
	b.WriteString(rule + "\n")

	logRows := footerRows - 3
	if hasSel {
		head := StyleHighlight.Render(sel.Name)
		if line, _, _ := strings.Cut(strings.TrimSpace(sel.Code), "\n"); line != "" {
			head += " " + StyleDim.Render(truncate(line, m.width-len(sel.Name)-2))
		}
		b.WriteString(head + "\n")
		start := max(len(lines)-logRows, 0)
		for _, l := range lines[start:] {
			t := time.UnixMilli(int64(l.Timestamp * 1e3)).Format("15:04:05")
			b.WriteString(StyleDim.Render(t) + " " + truncate(l.Message, m.width-9) + "\n")
		}
		logRows -= len(lines) - start
	} else {
		b.WriteString(StyleDim.Render("no vertex selected") + "\n")
	}
	b.WriteString(strings.Repeat("\n", max(logRows, 0)))
	b.WriteString(StyleDim.Render(truncate(m.status, m.width)))
	return b.String()
}

func stateName(s interaction.State) string {
	switch s.(type) {
	case interaction.Dragging:
		return "dragging"
	case interaction.Linking:
		return "linking"
	default:
		return "idle"
	}
}

func truncate(s string, n int) string {
	if n <= 0 {
		return ""
	}
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	if n == 1 {
		return "…"
	}
	return string(r[:n-1]) + "…"
}

// =============================================================================
// Grid
// =============================================================================

type grid struct {
	w, h  int
	cells [][]cell
}

func newGrid(w, h int) *grid {
	g := &grid{w: w, h: h, cells: make([][]cell, h)}
	for r := range g.cells {
		g.cells[r] = make([]cell, w)
		for c := range g.cells[r] {
			g.cells[r][c] = cell{r: ' '}
		}
	}
	return g
}

func (g *grid) set(c, r int, ch rune, style cellStyle) {
	if c < 0 || r < 0 || c >= g.w || r >= g.h {
		return
	}
	g.cells[r][c] = cell{r: ch, style: style}
}

func (g *grid) text(c, r int, s string, style cellStyle) {
	for i, ch := range []rune(s) {
		g.set(c+i, r, ch, style)
	}
}

// line draws a Bresenham line from (c0,r0) to (c1,r1).
func (g *grid) line(c0, r0, c1, r1 int, ch rune, style cellStyle) {
	dc, dr := abs(c1-c0), -abs(r1-r0)
	sc, sr := sign(c1-c0), sign(r1-r0)
	e := dc + dr
	for {
		g.set(c0, r0, ch, style)
		if c0 == c1 && r0 == r1 {
			return
		}
		e2 := 2 * e
		if e2 >= dr {
			e += dr
			c0 += sc
		}
		if e2 <= dc {
			e += dc
			r0 += sr
		}
	}
}

func (g *grid) render() string {
	var b strings.Builder
	for _, row := range g.cells {
		var run strings.Builder
		cur := cellPlain
		flush := func() {
			if run.Len() > 0 {
				b.WriteString(cellStyles[cur].Render(run.String()))
				run.Reset()
			}
		}
		for _, c := range row {
			if c.style != cur {
				flush()
				cur = c.style
			}
			run.WriteRune(c.r)
		}
		flush()
		b.WriteString("\n")
	}
	return b.String()
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}

func sign(n int) int {
	switch {
	case n > 0:
		return 1
	case n < 0:
		return -1
	}
	return 0
}
