package codec

import (
	"fmt"

	"github.com/pkg/errors"
)

var (
	// ErrStream is returned when the underlying stream fails.
	ErrStream = errors.New("codec: stream failure")

	// ErrUnsupportedKind is returned for values and kinds the codec does not
	// know.
	ErrUnsupportedKind = errors.New("codec: unsupported kind")

	// ErrSyntax is returned for malformed streams.
	ErrSyntax = errors.New("codec: syntax error")

	// ErrCyclicGraph is returned when a component contains itself.
	ErrCyclicGraph = errors.New("codec: cyclic graph")
)

// StreamError is a failure of the underlying reader or writer while
// handling a value of the named kind.
type StreamError struct {
	Kind string
	Err  error
}

func (e *StreamError) Error() string {
	return fmt.Sprintf("codec: stream failure on %s: %v", e.Kind, e.Err)
}

// Unwrap exposes both ErrStream and the underlying failure.
func (e *StreamError) Unwrap() []error { return []error{ErrStream, e.Err} }

func syntaxErr(instr int, format string, args ...any) error {
	return errors.Wrapf(ErrSyntax, "instruction %d: %s", instr, fmt.Sprintf(format, args...))
}
