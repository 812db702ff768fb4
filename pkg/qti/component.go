package qti

import (
	"errors"
	"fmt"
	"iter"

	"github.com/matzehuels/qtikit/pkg/qti/datatype"
)

// Component is a node of the QTI content tree. ClassName returns the kind
// tag, which never changes after construction.
type Component interface {
	ClassName() string
}

// Container is implemented by components with structured children.
//
// Components returns the children in document order. SetComponents installs
// children produced by unmarshalling and rejects kinds that do not fit any
// slot of the container.
type Container interface {
	Component
	Components() []Component
	SetComponents([]Component) error
}

// Validator is implemented by components that check constraints spanning
// several attributes. It runs after attributes are bound.
type Validator interface {
	Validate() error
}

// ErrUnexpectedChild is returned by SetComponents for misplaced children.
var ErrUnexpectedChild = errors.New("unexpected child component")

func unexpected(parent, child Component) error {
	return fmt.Errorf("%w: '%s' cannot contain '%s'", ErrUnexpectedChild, parent.ClassName(), child.ClassName())
}

// TextRun is a run of character data.
type TextRun struct {
	Content string
}

// NewTextRun creates a text run.
func NewTextRun(s string) *TextRun { return &TextRun{Content: s} }

// ClassName returns "textRun".
func (t *TextRun) ClassName() string { return "textRun" }

// BodyElement holds the attributes shared by every item body element.
type BodyElement struct {
	ID    datatype.Identifier `qti:"id"`
	Class []string            `qti:"class"`
	Lang  string              `qti:"xml:lang"`
	Label string              `qti:"label"`
}

// finals lists the kinds whose markup children are never walked by generic
// recursion. Their dedicated marshallers read what they need themselves.
var finals = []string{
	"textRun", "br", "param", "hr", "col", "img", "math", "table", "colgroup",
	"tbody", "thead", "tfoot", "rubricBlock", "printedVariable", "stylesheet",
	"gapMatchInteraction", "inlineChoiceInteraction", "textEntryInteraction",
	"extendedTextInteraction", "hottextInteraction", "hotspotInteraction",
	"selectPointInteraction", "graphicOrderInteraction", "graphicAssociateInteraction",
	"graphicGapMatchInteraction", "positionObjectInteraction", "positionObjectStage",
	"sliderInteraction", "mediaInteraction", "drawingInteraction", "uploadInteraction",
	"customInteraction",
}

var finalSet = func() map[string]bool {
	m := make(map[string]bool, len(finals))
	for _, k := range finals {
		m[k] = true
	}
	return m
}()

// FinalKinds returns a copy of the default finality set.
func FinalKinds() []string {
	return append([]string(nil), finals...)
}

// IsLeaf reports whether c is plain text or belongs to the default
// finality set.
func IsLeaf(c Component) bool {
	if _, ok := c.(*TextRun); ok {
		return true
	}
	return finalSet[c.ClassName()]
}

// Descendants yields every component below root in document order. A
// component reachable through several parents is yielded once; root itself
// is never yielded.
func Descendants(root Component) iter.Seq[Component] {
	return func(yield func(Component) bool) {
		seen := map[Component]bool{root: true}
		var walk func(c Component) bool
		walk = func(c Component) bool {
			ct, ok := c.(Container)
			if !ok {
				return true
			}
			for _, child := range ct.Components() {
				if child == nil || seen[child] {
					continue
				}
				seen[child] = true
				if !yield(child) || !walk(child) {
					return false
				}
			}
			return true
		}
		walk(root)
	}
}

// CountKinds counts the components below root by kind tag.
func CountKinds(root Component) map[string]int {
	counts := make(map[string]int)
	for c := range Descendants(root) {
		counts[c.ClassName()]++
	}
	return counts
}

// only converts cs to a slice of T or fails on the first foreign kind.
func only[T Component](parent Component, cs []Component) ([]T, error) {
	out := make([]T, 0, len(cs))
	for _, c := range cs {
		t, ok := c.(T)
		if !ok {
			return nil, unexpected(parent, c)
		}
		out = append(out, t)
	}
	return out, nil
}

func components[T Component](ts []T) []Component {
	out := make([]Component, len(ts))
	for i, t := range ts {
		out[i] = t
	}
	return out
}
