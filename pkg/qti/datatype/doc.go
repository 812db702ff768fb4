// Package datatype provides the QTI value types and attribute enumerations.
//
// Every enumeration implements [encoding.TextMarshaler] and
// [encoding.TextUnmarshaler] so that it can be bound directly to XML
// attributes. The zero value of each enumeration means "not set" and
// marshals to the empty string.
//
// Runtime values (the content of <value> and <baseValue> elements) implement
// [Value]. [Parse] and [Format] convert them to and from their XML text form
// for a given [BaseType]:
//
//	v, err := datatype.Parse(datatype.BaseTypePair, "A B")
//	// v == datatype.Pair{First: "A", Second: "B"}
//
// # Coordinates
//
// [Coords] holds the coordinates of a shape, validated against the number of
// values each shape requires:
//
//	c, err := datatype.ParseCoords(datatype.ShapeRect, "0,0,10,10")
package datatype
