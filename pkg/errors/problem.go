package errors

import (
	"errors"
	"fmt"
	"strings"
)

// Severity classifies a [Problem].
type Severity int

const (
	SeverityWarning Severity = iota + 1
	SeverityError
	SeverityFatal
)

// String returns the label used when formatting problems.
func (s Severity) String() string {
	switch s {
	case SeverityWarning:
		return "Warning"
	case SeverityError:
		return "Error"
	case SeverityFatal:
		return "Fatal Error"
	default:
		return "Unknown"
	}
}

// Problem is a single positional diagnostic reported by the XML parser or
// by a schema validator. Line and Column are 1-based; zero means unknown.
type Problem struct {
	Severity Severity
	Message  string
	Line     int
	Column   int
}

// Error formats the problem as "Error: message at 3:14.".
func (p Problem) Error() string {
	var b strings.Builder
	b.WriteString(p.Severity.String())
	b.WriteString(": ")
	b.WriteString(p.Message)
	if p.Line > 0 {
		fmt.Fprintf(&b, " at %d:%d", p.Line, p.Column)
	}
	b.WriteByte('.')
	return b.String()
}

// ProblemList is an ordered list of problems that acts as one error.
type ProblemList []Problem

// Error returns the first problem and a count of the remaining ones.
func (l ProblemList) Error() string {
	switch len(l) {
	case 0:
		return "no problems"
	case 1:
		return l[0].Error()
	default:
		return fmt.Sprintf("%s (and %d more)", l[0].Error(), len(l)-1)
	}
}

// Failed reports whether the list contains an Error or Fatal problem.
func (l ProblemList) Failed() bool {
	for _, p := range l {
		if p.Severity >= SeverityError {
			return true
		}
	}
	return false
}

// Format renders every problem on its own line.
func (l ProblemList) Format() string {
	lines := make([]string, len(l))
	for i, p := range l {
		lines[i] = p.Error()
	}
	return strings.Join(lines, "\n")
}

// AsProblemList extracts a ProblemList from an error chain.
func AsProblemList(err error) (ProblemList, bool) {
	var l ProblemList
	if errors.As(err, &l) {
		return l, true
	}
	return nil, false
}
