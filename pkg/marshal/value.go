package marshal

import (
	"fmt"

	"github.com/matzehuels/qtikit/pkg/qti"
	"github.com/matzehuels/qtikit/pkg/qti/datatype"
	"github.com/matzehuels/qtikit/pkg/xmltree"
)

// typedValue handles <value> and <baseValue>, whose text is parsed by base
// type. A baseValue always names its type; a value names it only inside
// record containers and otherwise relies on the WithBaseType hint.
type typedValue struct {
	base
}

func newValue(b base) Marshaller { return &typedValue{b} }

func (m *typedValue) Unmarshal(e *xmltree.Element) (qti.Component, error) {
	c, err := m.component(e)
	if err != nil {
		return nil, err
	}
	if err := bindAttrs(e, c); err != nil {
		return nil, err
	}

	var bt datatype.BaseType
	switch c := c.(type) {
	case *qti.Value:
		bt = c.BaseType
	case *qti.BaseValue:
		bt = c.BaseType
	}
	if bt == 0 {
		bt = m.hints.baseType
	}
	if bt == 0 {
		return nil, &UnmarshallingError{
			Element: e,
			Message: fmt.Sprintf("no baseType could be determined for element '%s'", e.Name),
			Cause:   ErrMissingAttribute,
		}
	}

	datum, err := datatype.Parse(bt, e.Text())
	if err != nil {
		return nil, &UnmarshallingError{
			Element: e,
			Message: fmt.Sprintf("invalid %s value in element '%s'", bt, e.Name),
			Cause:   err,
		}
	}
	switch c := c.(type) {
	case *qti.Value:
		c.Datum = datum
	case *qti.BaseValue:
		c.Datum = datum
	}
	return c, nil
}

func (m *typedValue) Marshal(c qti.Component) (*xmltree.Element, error) {
	el, err := m.start(c)
	if err != nil {
		return nil, err
	}
	var datum datatype.Value
	switch c := c.(type) {
	case *qti.Value:
		datum = c.Datum
	case *qti.BaseValue:
		datum = c.Datum
	}
	if datum == nil {
		return nil, &MarshallingError{Component: c, Message: fmt.Sprintf("'%s' has no value", m.kind)}
	}
	el.AppendChild(xmltree.NewText(datatype.Format(datum)))
	return el, nil
}

// =============================================================================
// Typed containers
// =============================================================================

// typed handles containers whose descendants need a base type hint:
// declarations supply their own baseType, default values and correct
// responses forward the hint they received.
type typed struct {
	base
	own bool
}

func newDeclaration(b base) Marshaller { return &typed{base: b, own: true} }
func newValueList(b base) Marshaller   { return &typed{base: b} }

func (m *typed) hint(c qti.Component) Hint {
	if d, ok := c.(qti.Declaration); ok && m.own {
		return WithBaseType(d.VariableBaseType())
	}
	return WithBaseType(m.hints.baseType)
}

func (m *typed) Unmarshal(e *xmltree.Element) (qti.Component, error) {
	c, err := m.component(e)
	if err != nil {
		return nil, err
	}
	if err := bindAttrs(e, c); err != nil {
		return nil, err
	}
	h := m.hint(c)
	var children []qti.Component
	for _, el := range e.Elements() {
		child, err := m.unmarshalChild(el, h)
		if err != nil {
			return nil, err
		}
		children = append(children, child)
	}
	return m.finish(e, c, children)
}

func (m *typed) Marshal(c qti.Component) (*xmltree.Element, error) {
	leave, err := m.enter(c)
	if err != nil {
		return nil, err
	}
	defer leave()

	el, err := m.start(c)
	if err != nil {
		return nil, err
	}
	h := m.hint(c)
	for _, child := range c.(qti.Container).Components() {
		childEl, err := m.marshalChild(child, h)
		if err != nil {
			return nil, err
		}
		el.AppendChild(childEl)
	}
	return el, nil
}
