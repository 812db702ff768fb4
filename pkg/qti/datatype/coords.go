package datatype

import (
	"fmt"
	"strconv"
	"strings"
)

// Coords is the coordinate list of a shape.
//
// Coordinates are shared by pointer between components, so a *Coords can
// appear in more than one hotspot.
type Coords struct {
	Shape  Shape
	Values []int
}

// NewCoords validates values against shape.
func NewCoords(shape Shape, values []int) (*Coords, error) {
	c := &Coords{Shape: shape, Values: values}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// ParseCoords parses a comma-separated coordinate list for shape.
func ParseCoords(shape Shape, s string) (*Coords, error) {
	c := &Coords{Shape: shape}
	if err := c.UnmarshalText([]byte(s)); err != nil {
		return nil, err
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// Validate checks the number of values required by the shape:
// rect and ellipse take 4, circle 3, poly an even number of at least 6,
// and default none.
func (c *Coords) Validate() error {
	n := len(c.Values)
	ok := false
	switch c.Shape {
	case ShapeRect, ShapeEllipse:
		ok = n == 4
	case ShapeCircle:
		ok = n == 3
	case ShapePoly:
		ok = n >= 6 && n%2 == 0
	case ShapeDefault:
		ok = n == 0
	default:
		return fmt.Errorf("%w: coords have no shape", ErrInvalidValue)
	}
	if !ok {
		return fmt.Errorf("%w: %d coordinates do not describe a %s", ErrInvalidValue, n, c.Shape)
	}
	return nil
}

// String returns the comma-separated coordinate list.
func (c *Coords) String() string {
	parts := make([]string, len(c.Values))
	for i, v := range c.Values {
		parts[i] = strconv.Itoa(v)
	}
	return strings.Join(parts, ",")
}

// MarshalText returns the comma-separated coordinate list.
func (c *Coords) MarshalText() ([]byte, error) { return []byte(c.String()), nil }

// UnmarshalText parses the coordinate values. The shape is left untouched,
// since the XML carries it in a separate attribute.
func (c *Coords) UnmarshalText(text []byte) error {
	s := strings.TrimSpace(string(text))
	c.Values = nil
	if s == "" {
		return nil
	}
	for _, p := range strings.Split(s, ",") {
		n, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return invalid("coords", s)
		}
		c.Values = append(c.Values, n)
	}
	return nil
}
