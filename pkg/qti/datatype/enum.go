package datatype

import (
	"errors"
	"fmt"
)

// ErrInvalidValue is returned when text cannot be converted to a datatype
// or an enumeration.
var ErrInvalidValue = errors.New("invalid value")

// invalid builds an error wrapping ErrInvalidValue.
func invalid(kind, text string) error {
	return fmt.Errorf("%w: %q is not a valid %s", ErrInvalidValue, text, kind)
}

// enumName returns the name at index v, or "" for an out-of-range value.
// Index 0 is reserved for "unset" in every table.
func enumName(names []string, v int) string {
	if v <= 0 || v >= len(names) {
		return ""
	}
	return names[v]
}

func marshalEnum(kind string, names []string, v int) ([]byte, error) {
	if v == 0 {
		return nil, nil
	}
	if v < 0 || v >= len(names) {
		return nil, fmt.Errorf("%w: %d is not a valid %s", ErrInvalidValue, v, kind)
	}
	return []byte(names[v]), nil
}

func unmarshalEnum(kind string, names []string, text []byte) (int, error) {
	s := string(text)
	if s == "" {
		return 0, nil
	}
	for i := 1; i < len(names); i++ {
		if names[i] == s {
			return i, nil
		}
	}
	return 0, invalid(kind, s)
}

// =============================================================================
// BaseType
// =============================================================================

// BaseType is the type of a single QTI value.
type BaseType int

const (
	BaseTypeIdentifier BaseType = iota + 1
	BaseTypeBoolean
	BaseTypeInteger
	BaseTypeFloat
	BaseTypeString
	BaseTypePoint
	BaseTypePair
	BaseTypeDirectedPair
	BaseTypeDuration
	BaseTypeFile
	BaseTypeURI
	BaseTypeIntOrIdentifier
)

var baseTypeNames = []string{"", "identifier", "boolean", "integer", "float", "string",
	"point", "pair", "directedPair", "duration", "file", "uri", "intOrIdentifier"}

func (b BaseType) String() string { return enumName(baseTypeNames, int(b)) }

func (b BaseType) MarshalText() ([]byte, error) {
	return marshalEnum("baseType", baseTypeNames, int(b))
}

func (b *BaseType) UnmarshalText(text []byte) error {
	v, err := unmarshalEnum("baseType", baseTypeNames, text)
	*b = BaseType(v)
	return err
}

// =============================================================================
// Cardinality
// =============================================================================

// Cardinality is the number of values a variable holds and how they relate.
type Cardinality int

const (
	CardinalitySingle Cardinality = iota + 1
	CardinalityMultiple
	CardinalityOrdered
	CardinalityRecord
)

var cardinalityNames = []string{"", "single", "multiple", "ordered", "record"}

func (c Cardinality) String() string { return enumName(cardinalityNames, int(c)) }

func (c Cardinality) MarshalText() ([]byte, error) {
	return marshalEnum("cardinality", cardinalityNames, int(c))
}

func (c *Cardinality) UnmarshalText(text []byte) error {
	v, err := unmarshalEnum("cardinality", cardinalityNames, text)
	*c = Cardinality(v)
	return err
}

// =============================================================================
// Shape
// =============================================================================

// Shape is the geometric shape of a hotspot or area mapping.
type Shape int

const (
	ShapeDefault Shape = iota + 1
	ShapeRect
	ShapeCircle
	ShapePoly
	ShapeEllipse
)

var shapeNames = []string{"", "default", "rect", "circle", "poly", "ellipse"}

func (s Shape) String() string { return enumName(shapeNames, int(s)) }

func (s Shape) MarshalText() ([]byte, error) { return marshalEnum("shape", shapeNames, int(s)) }

func (s *Shape) UnmarshalText(text []byte) error {
	v, err := unmarshalEnum("shape", shapeNames, text)
	*s = Shape(v)
	return err
}

// =============================================================================
// Attribute enumerations
// =============================================================================

// ShowHide controls the visibility of feedback and choices.
type ShowHide int

const (
	ShowHideShow ShowHide = iota + 1
	ShowHideHide
)

var showHideNames = []string{"", "show", "hide"}

func (s ShowHide) String() string { return enumName(showHideNames, int(s)) }

func (s ShowHide) MarshalText() ([]byte, error) {
	return marshalEnum("showHide", showHideNames, int(s))
}

func (s *ShowHide) UnmarshalText(text []byte) error {
	v, err := unmarshalEnum("showHide", showHideNames, text)
	*s = ShowHide(v)
	return err
}

// Orientation is the layout hint of choice, order and slider interactions.
type Orientation int

const (
	OrientationVertical Orientation = iota + 1
	OrientationHorizontal
)

var orientationNames = []string{"", "vertical", "horizontal"}

func (o Orientation) String() string { return enumName(orientationNames, int(o)) }

func (o Orientation) MarshalText() ([]byte, error) {
	return marshalEnum("orientation", orientationNames, int(o))
}

func (o *Orientation) UnmarshalText(text []byte) error {
	v, err := unmarshalEnum("orientation", orientationNames, text)
	*o = Orientation(v)
	return err
}

// View is an intended audience of rubric blocks and outcome declarations.
type View int

const (
	ViewAuthor View = iota + 1
	ViewCandidate
	ViewProctor
	ViewScorer
	ViewTestConstructor
	ViewTutor
)

var viewNames = []string{"", "author", "candidate", "proctor", "scorer", "testConstructor", "tutor"}

func (v View) String() string { return enumName(viewNames, int(v)) }

func (v View) MarshalText() ([]byte, error) { return marshalEnum("view", viewNames, int(v)) }

func (v *View) UnmarshalText(text []byte) error {
	n, err := unmarshalEnum("view", viewNames, text)
	*v = View(n)
	return err
}

// TextFormat is the format of an extended text response.
type TextFormat int

const (
	TextFormatPlain TextFormat = iota + 1
	TextFormatPreFormatted
	TextFormatXHTML
)

var textFormatNames = []string{"", "plain", "preFormatted", "xhtml"}

func (f TextFormat) String() string { return enumName(textFormatNames, int(f)) }

func (f TextFormat) MarshalText() ([]byte, error) {
	return marshalEnum("textFormat", textFormatNames, int(f))
}

func (f *TextFormat) UnmarshalText(text []byte) error {
	v, err := unmarshalEnum("textFormat", textFormatNames, text)
	*f = TextFormat(v)
	return err
}

// ParamType is the valuetype of an object parameter.
type ParamType int

const (
	ParamTypeData ParamType = iota + 1
	ParamTypeRef
)

var paramTypeNames = []string{"", "DATA", "REF"}

func (p ParamType) String() string { return enumName(paramTypeNames, int(p)) }

func (p ParamType) MarshalText() ([]byte, error) {
	return marshalEnum("paramType", paramTypeNames, int(p))
}

func (p *ParamType) UnmarshalText(text []byte) error {
	v, err := unmarshalEnum("paramType", paramTypeNames, text)
	*p = ParamType(v)
	return err
}

// TableCellScope is the scope of a table header cell.
type TableCellScope int

const (
	TableCellScopeRow TableCellScope = iota + 1
	TableCellScopeCol
	TableCellScopeRowgroup
	TableCellScopeColgroup
)

var tableCellScopeNames = []string{"", "row", "col", "rowgroup", "colgroup"}

func (s TableCellScope) String() string { return enumName(tableCellScopeNames, int(s)) }

func (s TableCellScope) MarshalText() ([]byte, error) {
	return marshalEnum("tableCellScope", tableCellScopeNames, int(s))
}

func (s *TableCellScope) UnmarshalText(text []byte) error {
	v, err := unmarshalEnum("tableCellScope", tableCellScopeNames, text)
	*s = TableCellScope(v)
	return err
}
