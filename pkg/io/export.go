package io

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/matzehuels/qtikit/pkg/marshal"
	"github.com/matzehuels/qtikit/pkg/qti"
	"github.com/matzehuels/qtikit/pkg/qti/datatype"
)

// Graph is a flattened component graph.
type Graph struct {
	Nodes []Node `json:"nodes"`
	Edges []Edge `json:"edges"`
}

// Node is one component.
type Node struct {
	ID    string            `json:"id"`
	Kind  string            `json:"kind"`
	Attrs map[string]string `json:"attrs,omitempty"`
	Text  string            `json:"text,omitempty"`
}

// Edge links a parent to a child.
type Edge struct {
	From string `json:"from"`
	To   string `json:"to"`
}

// Root returns the root node, or false for an empty graph.
func (g *Graph) Root() (Node, bool) {
	if len(g.Nodes) == 0 {
		return Node{}, false
	}
	return g.Nodes[0], true
}

// InDegree returns the number of edges entering each node.
func (g *Graph) InDegree() map[string]int {
	in := make(map[string]int, len(g.Nodes))
	for _, e := range g.Edges {
		in[e.To]++
	}
	return in
}

// FromComponent flattens the graph below root. Each component becomes one
// node, however many parents reference it.
func FromComponent(root qti.Component) (*Graph, error) {
	g := &Graph{}
	ids := make(map[qti.Component]string)

	var visit func(c qti.Component) (string, error)
	visit = func(c qti.Component) (string, error) {
		if id, ok := ids[c]; ok {
			return id, nil
		}
		id := "n" + strconv.Itoa(len(g.Nodes))
		ids[c] = id
		n, err := node(id, c)
		if err != nil {
			return "", err
		}
		g.Nodes = append(g.Nodes, n)

		ct, ok := c.(qti.Container)
		if !ok {
			return id, nil
		}
		for _, child := range ct.Components() {
			if child == nil {
				continue
			}
			to, err := visit(child)
			if err != nil {
				return "", err
			}
			g.Edges = append(g.Edges, Edge{From: id, To: to})
		}
		return id, nil
	}

	if root == nil {
		return g, nil
	}
	if _, err := visit(root); err != nil {
		return nil, err
	}
	return g, nil
}

func node(id string, c qti.Component) (Node, error) {
	n := Node{ID: id, Kind: c.ClassName()}
	for _, a := range marshal.Attributes(c) {
		if a.Field.IsZero() {
			continue
		}
		text, err := marshal.FormatAttribute(a.Field)
		if err != nil {
			return Node{}, fmt.Errorf("%s: attribute %s: %w", n.Kind, a.Name, err)
		}
		if n.Attrs == nil {
			n.Attrs = make(map[string]string)
		}
		n.Attrs[a.Name] = text
	}

	switch c := c.(type) {
	case *qti.TextRun:
		n.Text = c.Content
	case *qti.Value:
		if c.Datum != nil {
			n.Text = datatype.Format(c.Datum)
		}
	case *qti.BaseValue:
		if c.Datum != nil {
			n.Text = datatype.Format(c.Datum)
		}
	}
	return n, nil
}

// WriteJSON encodes g as indented JSON.
func WriteJSON(g *Graph, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(g); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	return nil
}

// ExportJSON writes g to a JSON file at path.
func ExportJSON(g *Graph, path string) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer func() {
		if cerr := f.Close(); err == nil && cerr != nil {
			err = fmt.Errorf("close %s: %w", path, cerr)
		}
	}()
	return WriteJSON(g, f)
}
