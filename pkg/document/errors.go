package document

import (
	"errors"
	"fmt"

	qerrors "github.com/matzehuels/qtikit/pkg/errors"
	"github.com/matzehuels/qtikit/pkg/marshal"
)

var (
	// ErrVersionInference is returned when the root namespace does not name
	// a supported QTI version.
	ErrVersionInference = errors.New("cannot infer QTI version")

	// ErrNoValidator is returned when validation is requested but no
	// Validator is configured.
	ErrNoValidator = errors.New("no schema validator configured")

	// ErrNoComponent is returned when saving a document that has no
	// document component.
	ErrNoComponent = errors.New("document has no component")

	// ErrWrite wraps failures of the destination of a save.
	ErrWrite = errors.New("cannot write document")
)

// Kind classifies an [Error].
type Kind int

const (
	KindIO Kind = iota + 1
	KindParse
	KindValidation
	KindUnmarshal
	KindMarshal
)

func (k Kind) String() string {
	switch k {
	case KindIO:
		return "io"
	case KindParse:
		return "parse"
	case KindValidation:
		return "validation"
	case KindUnmarshal:
		return "unmarshal"
	case KindMarshal:
		return "marshal"
	default:
		return "unknown"
	}
}

// Error is a load or save failure. Parse and validation failures carry the
// collected problems; the others carry the underlying error.
type Error struct {
	Kind     Kind
	Message  string
	Problems qerrors.ProblemList
	Err      error
}

func (e *Error) Error() string {
	switch {
	case e.Err != nil && e.Message != "":
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	case e.Err != nil:
		return e.Err.Error()
	case len(e.Problems) > 0 && e.Message != "":
		return fmt.Sprintf("%s: %v", e.Message, e.Problems)
	case len(e.Problems) > 0:
		return e.Problems.Error()
	}
	return e.Message
}

// Unwrap exposes the cause, or the problem list when there is none.
func (e *Error) Unwrap() error {
	if e.Err != nil {
		return e.Err
	}
	if len(e.Problems) > 0 {
		return e.Problems
	}
	return nil
}

// Code maps the error to a qtikit error code for CLI and API output.
func (e *Error) Code() qerrors.Code {
	switch e.Kind {
	case KindParse:
		return qerrors.ErrCodeInvalidXML
	case KindValidation:
		return qerrors.ErrCodeSchemaViolation
	case KindUnmarshal, KindMarshal:
		return qerrors.ErrCodeInvalidFormat
	case KindIO:
		if errors.Is(e.Err, ErrWrite) {
			return qerrors.ErrCodeInternal
		}
		return qerrors.ErrCodeFileNotFound
	}
	return qerrors.ErrCodeInternal
}

// unmarshalError wraps a marshaller failure with the position of the
// offending element.
func unmarshalError(err error) *Error {
	msg := err.Error()
	var ue *marshal.UnmarshallingError
	if errors.As(err, &ue) {
		msg = ue.Message
		if ue.Cause != nil {
			msg = fmt.Sprintf("%s: %v", ue.Message, ue.Cause)
		}
		if line := ue.Line(); line > 0 {
			msg = fmt.Sprintf("%s at line %d", msg, line)
		}
	}
	return &Error{
		Kind:    KindUnmarshal,
		Message: fmt.Sprintf("An error occurred while unmarshalling QTI-XML data: %s.", msg),
		Err:     err,
	}
}

// Problems returns the problem list carried by err, if any.
func Problems(err error) qerrors.ProblemList {
	var de *Error
	if errors.As(err, &de) {
		return de.Problems
	}
	l, _ := qerrors.AsProblemList(err)
	return l
}
