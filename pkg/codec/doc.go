// Package codec persists component graphs and datatype values as a compact
// instruction stream that reloads without parsing XML.
//
// A stream is a sequence of assignments to numbered variables:
//
//	$v0 = array(0, 0, 10, 10);
//	$v1 = new coords("rect", $v0);
//	$v2 = new hotspotChoice(identifier: "A", shape: "rect", coords: $v1);
//	$v3 = new hotspotChoice(identifier: "B", shape: "rect", coords: $v1);
//
// Datatype values take positional arguments. Components take named
// arguments: their attributes, followed by "children" for containers,
// "datum" for values, "content" for text runs and "source" for raw markup.
// The value of the last instruction is the root.
//
// Pointers are encoded once. A component or coordinate list reached a
// second time is referenced by its variable, so decoding restores shared
// sub-graphs instead of copies. An unformatted stream drops the layout
// whitespace:
//
//	$v0=array(0,0,10,10);$v1=new coords("rect",$v0);
//
// Decoding replays the instructions into an arena of values indexed by
// variable number; a reference may only name an earlier variable.
package codec
