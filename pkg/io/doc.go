// Package io provides JSON import and export for component graphs.
//
// # Overview
//
// A component graph is the tree built by unmarshalling a QTI document, with
// the difference that a component shared by several parents appears once.
// This package flattens it into nodes and edges so that external tools and
// the tree renderer can consume it without knowing the QTI object model.
//
// # JSON Format
//
//	{
//	  "nodes": [
//	    {"id": "n0", "kind": "assessmentItem", "attrs": {"identifier": "capital"}},
//	    {"id": "n1", "kind": "itemBody"},
//	    {"id": "n2", "kind": "textRun", "text": "The capital of "}
//	  ],
//	  "edges": [
//	    {"from": "n0", "to": "n1"},
//	    {"from": "n1", "to": "n2"}
//	  ]
//	}
//
// Node ids are assigned in depth-first order starting at the root, which is
// always "n0". Edges leaving a node are listed in child order.
//
// # Node Fields
//
//   - id: unique node identifier
//   - kind: the QTI class name
//   - attrs: attributes that are set, in their XML text form
//   - text: the content of a text run, or the value of a value or baseValue
//
// # Usage
//
//	g, err := io.FromComponent(root)
//	if err != nil {
//	    return err
//	}
//	err = io.ExportJSON(g, "item.json")
//
// The graph can be read back with [ReadJSON] or [ImportJSON]; reading checks
// that ids are unique and edges reference known nodes. Components are not
// rebuilt from JSON: the compact stream in package codec is the reload
// format.
package io
