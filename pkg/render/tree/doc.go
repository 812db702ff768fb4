// Package tree renders component graphs as node-link diagrams.
//
// # Overview
//
// Each component becomes a box and each parent-child link an arrow, top to
// bottom in document order. A component shared by several parents is drawn
// once, highlighted, with one incoming arrow per reference. This makes
// sharing created by the compact codec, or by code assembling graphs by
// hand, visible at a glance.
//
// # Usage
//
//	g, err := io.FromComponent(root)
//	if err != nil {
//	    return err
//	}
//	dot := tree.ToDOT(g, tree.Options{Detailed: true})
//	svg, err := tree.RenderSVG(ctx, dot)
//
// # DOT Format
//
// [ToDOT] produces Graphviz DOT source that can also be rendered by the
// dot command line tool:
//
//	dot -Tsvg item.dot -o item.svg
//
// [RenderSVG] runs Graphviz in process through its WebAssembly build, so
// no system installation is needed.
package tree
