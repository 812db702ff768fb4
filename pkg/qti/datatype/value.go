package datatype

import (
	"fmt"
	"strconv"
	"strings"

	qerrors "github.com/matzehuels/qtikit/pkg/errors"
)

// Value is a single QTI runtime value.
type Value interface {
	BaseType() BaseType
	String() string
}

// Identifier is a QTI identifier. Text unmarshalling validates the syntax.
type Identifier string

// NewIdentifier validates s and returns it as an Identifier.
func NewIdentifier(s string) (Identifier, error) {
	if err := qerrors.ValidateIdentifier(s); err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidValue, err)
	}
	return Identifier(s), nil
}

func (i Identifier) BaseType() BaseType { return BaseTypeIdentifier }
func (i Identifier) String() string     { return string(i) }

func (i Identifier) MarshalText() ([]byte, error) { return []byte(i), nil }

func (i *Identifier) UnmarshalText(text []byte) error {
	if len(text) == 0 {
		*i = ""
		return nil
	}
	id, err := NewIdentifier(string(text))
	if err != nil {
		return err
	}
	*i = id
	return nil
}

// URI is a URI reference. Text unmarshalling validates it.
type URI string

func (u URI) BaseType() BaseType { return BaseTypeURI }
func (u URI) String() string     { return string(u) }

func (u URI) MarshalText() ([]byte, error) { return []byte(u), nil }

func (u *URI) UnmarshalText(text []byte) error {
	if err := qerrors.ValidateURI(string(text)); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidValue, err)
	}
	*u = URI(text)
	return nil
}

// Integer is a QTI integer value.
type Integer int

func (i Integer) BaseType() BaseType { return BaseTypeInteger }
func (i Integer) String() string     { return strconv.Itoa(int(i)) }

// Float is a QTI float value.
type Float float64

func (f Float) BaseType() BaseType { return BaseTypeFloat }
func (f Float) String() string     { return strconv.FormatFloat(float64(f), 'g', -1, 64) }

// Boolean is a QTI boolean value.
type Boolean bool

func (b Boolean) BaseType() BaseType { return BaseTypeBoolean }
func (b Boolean) String() string     { return strconv.FormatBool(bool(b)) }

// String is a QTI string value.
type String string

func (s String) BaseType() BaseType { return BaseTypeString }
func (s String) String() string     { return string(s) }

// Point is a point on an image, in pixels.
type Point struct {
	X, Y int
}

func (p Point) BaseType() BaseType { return BaseTypePoint }
func (p Point) String() string     { return fmt.Sprintf("%d %d", p.X, p.Y) }

// Pair is an unordered pair of identifiers.
type Pair struct {
	First, Second Identifier
}

func (p Pair) BaseType() BaseType { return BaseTypePair }
func (p Pair) String() string     { return string(p.First) + " " + string(p.Second) }

// Equal reports whether both pairs hold the same identifiers in any order.
func (p Pair) Equal(o Pair) bool {
	return (p.First == o.First && p.Second == o.Second) ||
		(p.First == o.Second && p.Second == o.First)
}

// DirectedPair is an ordered pair of identifiers.
type DirectedPair struct {
	First, Second Identifier
}

func (p DirectedPair) BaseType() BaseType { return BaseTypeDirectedPair }
func (p DirectedPair) String() string     { return string(p.First) + " " + string(p.Second) }

// Parse converts the XML text of a value of the given base type.
func Parse(bt BaseType, text string) (Value, error) {
	s := strings.TrimSpace(text)
	switch bt {
	case BaseTypeIdentifier:
		return NewIdentifier(s)
	case BaseTypeBoolean:
		switch s {
		case "true", "1":
			return Boolean(true), nil
		case "false", "0":
			return Boolean(false), nil
		}
		return nil, invalid("boolean", s)
	case BaseTypeInteger:
		n, err := strconv.Atoi(s)
		if err != nil {
			return nil, invalid("integer", s)
		}
		return Integer(n), nil
	case BaseTypeFloat:
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return nil, invalid("float", s)
		}
		return Float(f), nil
	case BaseTypeString:
		return String(text), nil
	case BaseTypePoint:
		x, y, err := parseTwo(s, "point", strconv.Atoi)
		if err != nil {
			return nil, err
		}
		return Point{X: x, Y: y}, nil
	case BaseTypePair:
		a, b, err := parseTwo(s, "pair", NewIdentifier)
		if err != nil {
			return nil, err
		}
		return Pair{First: a, Second: b}, nil
	case BaseTypeDirectedPair:
		a, b, err := parseTwo(s, "directedPair", NewIdentifier)
		if err != nil {
			return nil, err
		}
		return DirectedPair{First: a, Second: b}, nil
	case BaseTypeDuration:
		return ParseDuration(s)
	case BaseTypeURI:
		var u URI
		if err := u.UnmarshalText([]byte(s)); err != nil {
			return nil, err
		}
		return u, nil
	case BaseTypeIntOrIdentifier:
		if n, err := strconv.Atoi(s); err == nil {
			return Integer(n), nil
		}
		return NewIdentifier(s)
	case BaseTypeFile:
		return nil, fmt.Errorf("%w: file values cannot be expressed in XML", ErrInvalidValue)
	}
	return nil, fmt.Errorf("%w: unknown base type %d", ErrInvalidValue, int(bt))
}

// Format returns the XML text of a value.
func Format(v Value) string {
	return v.String()
}

func parseTwo[T any](s, kind string, conv func(string) (T, error)) (T, T, error) {
	var zero T
	parts := strings.Fields(s)
	if len(parts) != 2 {
		return zero, zero, invalid(kind, s)
	}
	a, err := conv(parts[0])
	if err != nil {
		return zero, zero, invalid(kind, s)
	}
	b, err := conv(parts[1])
	if err != nil {
		return zero, zero, invalid(kind, s)
	}
	return a, b, nil
}
