package nodelink

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/goccy/go-graphviz"

	"github.com/matzehuels/vertexflow/pkg/errors"
	"github.com/matzehuels/vertexflow/pkg/geometry"
	"github.com/matzehuels/vertexflow/pkg/graph"
)

// Options configures the snapshot.
type Options struct {
	// Detailed adds the first line of code and the message rate to labels.
	Detailed bool

	// Selected is highlighted when set.
	Selected string
}

// pointsPerInch converts editor units, treated as points, to Graphviz
// inches.
const pointsPerInch = 72.0

// ToDOT converts g to Graphviz DOT with every vertex pinned at its position.
// Editor y grows downward, Graphviz y grows upward, so y is negated.
func ToDOT(g graph.Graph, opts Options) string {
	var buf bytes.Buffer
	buf.WriteString("digraph vertexflow {\n")
	buf.WriteString("  layout=neato;\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  splines=true;\n")
	buf.WriteString("  overlap=true;\n")
	fmt.Fprintf(&buf, "  node [shape=box, style=\"rounded,filled\", fillcolor=white, fixedsize=true, width=%s, height=%s, fontsize=14];\n",
		ftoa(geometry.Width/pointsPerInch), ftoa(geometry.Height/pointsPerInch))
	buf.WriteString("  edge [arrowsize=0.7];\n\n")

	for _, v := range g.SortedVertices() {
		attrs := []string{
			fmt.Sprintf("label=%q", label(v, opts.Detailed)),
			fmt.Sprintf("pos=\"%s,%s!\"", ftoa(v.X+geometry.Width/2), ftoa(-(v.Y + geometry.Height/2))),
		}
		if v.ID == opts.Selected {
			attrs = append(attrs, "color=\"#1f6feb\"", "penwidth=3")
		}
		fmt.Fprintf(&buf, "  %q [%s];\n", v.ID, strings.Join(attrs, ", "))
	}

	buf.WriteString("\n")
	for _, e := range g.Edges {
		src := g.Vertices[e.From]
		act := graph.EdgeActivity(src.MPS)
		attrs := []string{"tailport=e", "headport=w"}
		if !act.Idle() {
			attrs = append(attrs, "penwidth="+ftoa(1+5/act.Period), "color=\"#2da44e\"")
		}
		fmt.Fprintf(&buf, "  %q -> %q [%s];\n", e.From, e.To, strings.Join(attrs, ", "))
	}

	buf.WriteString("}\n")
	return buf.String()
}

func label(v graph.Vertex, detailed bool) string {
	name := v.Name
	if name == "" {
		name = v.ID
	}
	if !detailed {
		return name
	}
	parts := []string{name}
	if line, _, _ := strings.Cut(strings.TrimSpace(v.Code), "\n"); line != "" {
		parts = append(parts, line)
	}
	parts = append(parts, fmt.Sprintf("%.1f msg/s", v.MPS))
	return strings.Join(parts, "\n")
}

func ftoa(f float64) string { return strconv.FormatFloat(f, 'f', -1, 64) }

// RenderSVG lays out dot with neato and returns SVG bytes.
func RenderSVG(ctx context.Context, dot string) ([]byte, error) {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "init graphviz")
	}
	defer gv.Close()
	gv.SetLayout(graphviz.NEATO)

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "parse DOT")
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, graphviz.SVG, &buf); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "render SVG")
	}
	return normalizeViewBox(buf.Bytes()), nil
}

var (
	svgTagRe  = regexp.MustCompile(`<svg[^>]*>`)
	viewBoxRe = regexp.MustCompile(`viewBox="([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)"`)
)

// normalizeViewBox replaces the root tag so the SVG scales with its
// container instead of carrying Graphviz's fixed point size.
func normalizeViewBox(svg []byte) []byte {
	m := viewBoxRe.FindSubmatch(svg)
	if m == nil {
		return svg
	}
	w, _ := strconv.ParseFloat(string(m[3]), 64)
	h, _ := strconv.ParseFloat(string(m[4]), 64)
	if w == 0 || h == 0 {
		return svg
	}
	tag := fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.2f %.2f" width="%.0f" height="%.0f">`, w, h, w, h)
	return svgTagRe.ReplaceAll(svg, []byte(tag))
}
