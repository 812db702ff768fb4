package tree

import (
	"bytes"
	"context"
	"fmt"
	"maps"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"github.com/goccy/go-graphviz"

	qio "github.com/matzehuels/qtikit/pkg/io"
)

// maxText is the number of runes of text shown in a detailed label.
const maxText = 24

// Options configures diagram generation.
type Options struct {
	// Detailed adds attributes and text content to node labels.
	Detailed bool
}

// ToDOT converts g to Graphviz DOT source.
func ToDOT(g *qio.Graph, opts Options) string {
	var b strings.Builder
	b.WriteString("digraph G {\n")
	b.WriteString("  rankdir=TB;\n")
	b.WriteString("  bgcolor=\"transparent\";\n")
	b.WriteString("  node [shape=box, style=\"rounded,filled\", fillcolor=white, fontname=\"Helvetica\", fontsize=14];\n")
	b.WriteString("  edge [arrowsize=0.6];\n")
	b.WriteString("\n")

	in := g.InDegree()
	for _, n := range g.Nodes {
		attrs := []string{"label=" + strconv.Quote(label(n, opts.Detailed))}
		switch {
		case in[n.ID] > 1:
			attrs = append(attrs, "fillcolor=lightyellow", "penwidth=2")
		case n.Kind == "textRun":
			attrs = append(attrs, "style=\"rounded,dashed\"", "fontcolor=dimgray")
		}
		fmt.Fprintf(&b, "  %q [%s];\n", n.ID, strings.Join(attrs, ", "))
	}

	b.WriteString("\n")
	for _, e := range g.Edges {
		fmt.Fprintf(&b, "  %q -> %q;\n", e.From, e.To)
	}
	b.WriteString("}\n")
	return b.String()
}

func label(n qio.Node, detailed bool) string {
	if !detailed {
		return n.Kind
	}
	lines := []string{n.Kind}
	for _, k := range slices.Sorted(maps.Keys(n.Attrs)) {
		lines = append(lines, k+"="+n.Attrs[k])
	}
	if n.Text != "" {
		lines = append(lines, strconv.Quote(truncate(n.Text, maxText)))
	}
	return strings.Join(lines, "\n")
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return strings.TrimRight(string(r[:n]), " ") + "…"
}

// RenderSVG lays out DOT source and renders it as SVG.
func RenderSVG(ctx context.Context, dot string) ([]byte, error) {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, graphviz.SVG, &buf); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return scalable(buf.Bytes()), nil
}

var (
	svgOpenRe = regexp.MustCompile(`<svg[^>]*>`)
	viewBoxRe = regexp.MustCompile(`viewBox="([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)"`)
)

// scalable replaces the point-sized svg element Graphviz writes with one
// sized in pixels from its viewBox, so browsers scale the drawing.
func scalable(svg []byte) []byte {
	m := viewBoxRe.FindSubmatch(svg)
	if m == nil {
		return svg
	}
	w, _ := strconv.ParseFloat(string(m[3]), 64)
	h, _ := strconv.ParseFloat(string(m[4]), 64)
	if w == 0 || h == 0 {
		return svg
	}
	open := fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.2f %.2f" width="%.0f" height="%.0f">`, w, h, w, h)
	return svgOpenRe.ReplaceAll(svg, []byte(open))
}
