package marshal

import (
	"errors"

	"github.com/matzehuels/qtikit/pkg/qti"
	"github.com/matzehuels/qtikit/pkg/xmltree"
)

// Sentinel errors for errors.Is checks.
var (
	// ErrUnresolvedKind is returned when no marshaller is registered for a
	// tag name or component kind.
	ErrUnresolvedKind = errors.New("unresolved kind")

	// ErrMissingAttribute is returned when a mandatory attribute is absent.
	ErrMissingAttribute = errors.New("missing mandatory attribute")

	// ErrInvalidAttribute is returned when an attribute value cannot be
	// converted to the field type.
	ErrInvalidAttribute = errors.New("invalid attribute value")

	// ErrCyclicGraph is returned when a component is its own ancestor.
	ErrCyclicGraph = errors.New("cyclic component graph")
)

// UnmarshallingError reports an element that could not be converted to a
// component. Element locates the fault in the source.
type UnmarshallingError struct {
	Element *xmltree.Element
	Message string
	Cause   error
}

func (e *UnmarshallingError) Error() string {
	if e.Cause == nil {
		return e.Message
	}
	return e.Message + ": " + e.Cause.Error()
}

func (e *UnmarshallingError) Unwrap() error { return e.Cause }

// Line returns the source line of the offending element, or 0.
func (e *UnmarshallingError) Line() int {
	if e.Element == nil {
		return 0
	}
	return e.Element.Line
}

// Column returns the source column of the offending element, or 0.
func (e *UnmarshallingError) Column() int {
	if e.Element == nil {
		return 0
	}
	return e.Element.Column
}

// MarshallingError reports a component that could not be converted to an
// element.
type MarshallingError struct {
	Component qti.Component
	Message   string
	Cause     error
}

func (e *MarshallingError) Error() string {
	if e.Cause == nil {
		return e.Message
	}
	return e.Message + ": " + e.Cause.Error()
}

func (e *MarshallingError) Unwrap() error { return e.Cause }
