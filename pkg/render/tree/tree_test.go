package tree

import (
	"bytes"
	"context"
	"strings"
	"testing"

	qio "github.com/matzehuels/qtikit/pkg/io"
)

func sample() *qio.Graph {
	return &qio.Graph{
		Nodes: []qio.Node{
			{ID: "n0", Kind: "p", Attrs: map[string]string{"id": "intro", "class": "lead"}},
			{ID: "n1", Kind: "textRun", Text: "a rather long paragraph of text"},
			{ID: "n2", Kind: "br"},
		},
		Edges: []qio.Edge{
			{From: "n0", To: "n1"},
			{From: "n0", To: "n2"},
			{From: "n0", To: "n1"},
		},
	}
}

func TestToDOT(t *testing.T) {
	dot := ToDOT(sample(), Options{})

	for _, want := range []string{
		"digraph G {",
		`"n0" [label="p"];`,
		`"n1" [label="textRun", fillcolor=lightyellow, penwidth=2];`,
		`"n2" [label="br"];`,
		`"n0" -> "n1";`,
	} {
		if !strings.Contains(dot, want) {
			t.Errorf("ToDOT output missing %q:\n%s", want, dot)
		}
	}
	if got := strings.Count(dot, `"n0" -> "n1";`); got != 2 {
		t.Errorf("shared child has %d edges, want 2", got)
	}
}

func TestToDOTDetailed(t *testing.T) {
	dot := ToDOT(sample(), Options{Detailed: true})
	if !strings.Contains(dot, `label="p\nclass=lead\nid=intro"`) {
		t.Errorf("attributes not listed in sorted order:\n%s", dot)
	}
	if !strings.Contains(dot, `\"a rather long paragraph…\"`) {
		t.Errorf("text not truncated:\n%s", dot)
	}
}

func TestTextRunStyle(t *testing.T) {
	g := &qio.Graph{Nodes: []qio.Node{{ID: "n0", Kind: "textRun", Text: "x"}}}
	dot := ToDOT(g, Options{})
	if !strings.Contains(dot, `style="rounded,dashed"`) {
		t.Errorf("text runs not dashed:\n%s", dot)
	}
}

func TestRenderSVG(t *testing.T) {
	svg, err := RenderSVG(context.Background(), ToDOT(sample(), Options{}))
	if err != nil {
		t.Fatalf("RenderSVG: %v", err)
	}
	if !bytes.Contains(svg, []byte(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 `)) {
		t.Errorf("svg element not rewritten:\n%s", svg[:min(len(svg), 400)])
	}
	if !bytes.Contains(svg, []byte("textRun")) {
		t.Error("svg does not contain node labels")
	}
}
