package marshal

import (
	"fmt"

	"github.com/matzehuels/qtikit/pkg/qti"
	"github.com/matzehuels/qtikit/pkg/xmltree"
)

// family supplies the per-kind hooks of the recursive base.
type family interface {
	// childNodes selects the source children that take part in recursion.
	childNodes(e *xmltree.Element) []xmltree.Node
	// childComponents selects the component children to marshal.
	childComponents(c qti.Component) []qti.Component
	// unmarshalChildrenKnown builds the component once its children exist.
	unmarshalChildrenKnown(e *xmltree.Element, children []qti.Component) (qti.Component, error)
	// marshalChildrenKnown builds the element once its children exist.
	marshalChildrenKnown(c qti.Component, children []xmltree.Node) (*xmltree.Element, error)
}

// recursive is the generic descent shared by tree-structured families.
// Text becomes text runs; every element child is resolved through the
// factory, so a final child reaches its dedicated marshaller and is never
// walked here.
type recursive struct {
	base
	fam family
}

func (r *recursive) Unmarshal(e *xmltree.Element) (qti.Component, error) {
	var children []qti.Component
	for _, n := range r.fam.childNodes(e) {
		switch n := n.(type) {
		case *xmltree.Text:
			children = append(children, qti.NewTextRun(n.Data))
		case *xmltree.Element:
			c, err := r.unmarshalChild(n)
			if err != nil {
				return nil, err
			}
			children = append(children, c)
		}
	}
	return r.fam.unmarshalChildrenKnown(e, children)
}

func (r *recursive) Marshal(c qti.Component) (*xmltree.Element, error) {
	leave, err := r.enter(c)
	if err != nil {
		return nil, err
	}
	defer leave()

	var children []xmltree.Node
	for _, child := range r.fam.childComponents(c) {
		if t, ok := child.(*qti.TextRun); ok && t != nil {
			children = append(children, xmltree.NewText(t.Content))
			continue
		}
		el, err := r.marshalChild(child)
		if err != nil {
			return nil, err
		}
		children = append(children, el)
	}
	return r.fam.marshalChildrenKnown(c, children)
}

// =============================================================================
// Content family
// =============================================================================

// contentFamily covers body content, interactions and item structure. Its
// children are selected by the kind's ChildRule.
type contentFamily struct {
	base
	rule ChildRule
}

func (f contentFamily) childNodes(e *xmltree.Element) []xmltree.Node {
	var out []xmltree.Node
	for _, n := range e.Children {
		switch n := n.(type) {
		case *xmltree.Text:
			if f.rule.acceptsText() {
				out = append(out, n)
			}
		case *xmltree.Element:
			if f.rule.accepts(n.Local()) {
				out = append(out, n)
			}
		}
	}
	return out
}

func (f contentFamily) childComponents(c qti.Component) []qti.Component {
	ct, ok := c.(qti.Container)
	if !ok {
		return nil
	}
	var out []qti.Component
	for _, child := range ct.Components() {
		if isNil(child) {
			out = append(out, child)
			continue
		}
		if _, text := child.(*qti.TextRun); text {
			if f.rule.acceptsText() {
				out = append(out, child)
			}
			continue
		}
		if f.rule.accepts(child.ClassName()) {
			out = append(out, child)
		}
	}
	return out
}

func (f contentFamily) unmarshalChildrenKnown(e *xmltree.Element, children []qti.Component) (qti.Component, error) {
	c, err := f.component(e)
	if err != nil {
		return nil, err
	}
	if err := bindAttrs(e, c); err != nil {
		return nil, err
	}
	return f.finish(e, c, children)
}

func (f contentFamily) marshalChildrenKnown(c qti.Component, children []xmltree.Node) (*xmltree.Element, error) {
	el, err := f.start(c)
	if err != nil {
		return nil, err
	}
	el.Children = children
	return el, nil
}

// =============================================================================
// Operator family
// =============================================================================

// operatorFamily covers expression operators: every element child is an
// operand and text is not allowed.
type operatorFamily struct {
	base
}

func (f operatorFamily) childNodes(e *xmltree.Element) []xmltree.Node {
	var out []xmltree.Node
	for _, el := range e.Elements() {
		out = append(out, el)
	}
	return out
}

func (f operatorFamily) childComponents(c qti.Component) []qti.Component {
	op, ok := c.(*qti.Operator)
	if !ok {
		return nil
	}
	return op.Components()
}

func (f operatorFamily) unmarshalChildrenKnown(e *xmltree.Element, children []qti.Component) (qti.Component, error) {
	operands := make([]qti.Expression, 0, len(children))
	for i, c := range children {
		expr, ok := c.(qti.Expression)
		if !ok {
			return nil, &UnmarshallingError{
				Element: e.Elements()[i],
				Message: fmt.Sprintf("'%s' is not an expression and cannot be an operand of '%s'", c.ClassName(), f.kind),
				Cause:   qti.ErrUnexpectedChild,
			}
		}
		operands = append(operands, expr)
	}
	return qti.NewOperator(f.kind, operands...), nil
}

func (f operatorFamily) marshalChildrenKnown(c qti.Component, children []xmltree.Node) (*xmltree.Element, error) {
	el, err := f.start(c)
	if err != nil {
		return nil, err
	}
	el.Children = children
	return el, nil
}
