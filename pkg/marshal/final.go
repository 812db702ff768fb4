package marshal

import (
	"fmt"

	"github.com/matzehuels/qtikit/pkg/qti"
	"github.com/matzehuels/qtikit/pkg/xmltree"
)

// =============================================================================
// Leaf
// =============================================================================

// leaf handles kinds made of attributes only. Nested markup is ignored.
type leaf struct {
	base
}

func newLeaf(b base) Marshaller { return &leaf{b} }

func (m *leaf) Unmarshal(e *xmltree.Element) (qti.Component, error) {
	c, err := m.component(e)
	if err != nil {
		return nil, err
	}
	if err := bindAttrs(e, c); err != nil {
		return nil, err
	}
	return m.finish(e, c, nil)
}

func (m *leaf) Marshal(c qti.Component) (*xmltree.Element, error) {
	return m.start(c)
}

// =============================================================================
// Slot
// =============================================================================

// slotKinds lists the children read by each structured final kind. Other
// nested markup is ignored. A nil list reads every child, text included.
var slotKinds = map[string][]string{
	"table":                   {"caption", "col", "colgroup", "thead", "tfoot", "tbody"},
	"colgroup":                {"col"},
	"thead":                   {"tr"},
	"tbody":                   {"tr"},
	"tfoot":                   {"tr"},
	"rubricBlock":             nil,
	"inlineChoiceInteraction": {"inlineChoice"},
	"extendedTextInteraction": {"prompt"},
	"sliderInteraction":       {"prompt"},
	"uploadInteraction":       {"prompt"},
	"mediaInteraction":        {"prompt", "object"},
	"drawingInteraction":      {"prompt", "object"},
	"selectPointInteraction":  {"prompt", "object"},
	"hotspotInteraction":      {"prompt", "object", "hotspotChoice"},
	"graphicOrderInteraction": {"prompt", "object", "hotspotChoice"},
}

// slot handles final kinds with structured children: it reads its own slot
// children and leaves everything else alone.
type slot struct {
	base
	kinds map[string]bool
}

func newSlot(b base) Marshaller {
	m := &slot{base: b}
	if ks, ok := slotKinds[b.kind]; ok && ks != nil {
		m.kinds = make(map[string]bool, len(ks))
		for _, k := range ks {
			m.kinds[k] = true
		}
	}
	return m
}

func (m *slot) accepts(kind string) bool {
	return m.kinds == nil || m.kinds[kind]
}

func (m *slot) Unmarshal(e *xmltree.Element) (qti.Component, error) {
	c, err := m.component(e)
	if err != nil {
		return nil, err
	}
	if err := bindAttrs(e, c); err != nil {
		return nil, err
	}
	var children []qti.Component
	for _, n := range e.Children {
		el, ok := n.(*xmltree.Element)
		if !ok {
			if t, text := n.(*xmltree.Text); text && m.kinds == nil {
				children = append(children, qti.NewTextRun(t.Data))
			}
			continue
		}
		if !m.accepts(el.Local()) {
			continue
		}
		child, err := m.unmarshalChild(el)
		if err != nil {
			return nil, err
		}
		children = append(children, child)
	}
	return m.finish(e, c, children)
}

func (m *slot) Marshal(c qti.Component) (*xmltree.Element, error) {
	leave, err := m.enter(c)
	if err != nil {
		return nil, err
	}
	defer leave()

	el, err := m.start(c)
	if err != nil {
		return nil, err
	}
	ct, ok := c.(qti.Container)
	if !ok {
		return el, nil
	}
	for _, child := range ct.Components() {
		if t, ok := child.(*qti.TextRun); ok && t != nil {
			if m.kinds == nil {
				el.AppendChild(xmltree.NewText(t.Content))
			}
			continue
		}
		childEl, err := m.marshalChild(child)
		if err != nil {
			return nil, err
		}
		el.AppendChild(childEl)
	}
	return el, nil
}

// =============================================================================
// Raw
// =============================================================================

// raw keeps an element as its serialized markup.
type raw struct {
	base
}

func newRaw(b base) Marshaller { return &raw{b} }

func (m *raw) Unmarshal(e *xmltree.Element) (qti.Component, error) {
	return qti.NewRaw(m.kind, xmltree.MarshalElement(e)), nil
}

func (m *raw) Marshal(c qti.Component) (*xmltree.Element, error) {
	r, ok := c.(*qti.Raw)
	if !ok || r.ClassName() != m.kind {
		return nil, &MarshallingError{
			Component: c,
			Message:   fmt.Sprintf("marshaller for '%s' cannot marshal '%s'", m.kind, c.ClassName()),
			Cause:     ErrUnresolvedKind,
		}
	}
	if r.Source == "" {
		return xmltree.NewElement(m.kind), nil
	}
	el, err := xmltree.ParseElement(r.Source)
	if err != nil {
		return nil, &MarshallingError{Component: c, Message: fmt.Sprintf("invalid markup in '%s'", m.kind), Cause: err}
	}
	if el.Local() != m.kind {
		return nil, &MarshallingError{
			Component: c,
			Message:   fmt.Sprintf("markup of '%s' has root element '%s'", m.kind, el.Local()),
		}
	}
	return el, nil
}
