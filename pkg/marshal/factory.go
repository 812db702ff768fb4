// Package marshal converts between xmltree elements and qti components.
//
// A Factory resolves a tag name or a component kind to the marshaller of
// its family. Non-final kinds share a recursive base that walks children
// according to the child rules of the Config; final kinds are handed to a
// dedicated marshaller that reads only what it needs.
package marshal

import (
	"fmt"
	"reflect"

	"github.com/matzehuels/qtikit/pkg/qti"
	"github.com/matzehuels/qtikit/pkg/qti/datatype"
	"github.com/matzehuels/qtikit/pkg/xmltree"
)

// Marshaller converts one component kind in both directions.
type Marshaller interface {
	Marshal(c qti.Component) (*xmltree.Element, error)
	Unmarshal(e *xmltree.Element) (qti.Component, error)
}

// Hint passes typing context to a marshaller.
type Hint func(*hints)

type hints struct {
	baseType datatype.BaseType
}

// WithBaseType supplies the base type of values read by the marshaller,
// for <value> elements that carry no baseType attribute.
func WithBaseType(bt datatype.BaseType) Hint {
	return func(h *hints) { h.baseType = bt }
}

type constructor func(b base) Marshaller

// Factory creates marshallers. It is safe for concurrent use.
type Factory struct {
	cfg      *Config
	registry map[string]constructor
}

// NewFactory builds the registry for cfg, or for DefaultConfig when cfg is
// nil. Each kind of the configured vocabularies maps to exactly one family;
// when two vocabularies define a kind the first one wins.
func NewFactory(cfg *Config) *Factory {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	f := &Factory{cfg: cfg, registry: make(map[string]constructor)}
	for _, v := range cfg.vocabularies {
		for _, name := range v.TypeNames() {
			proto, _ := v.New(name)
			kind := proto.ClassName()
			if _, ok := f.registry[kind]; ok {
				continue
			}
			f.registry[kind] = f.family(kind, proto)
		}
	}
	return f
}

// Config returns the configuration of the factory.
func (f *Factory) Config() *Config { return f.cfg }

func (f *Factory) family(kind string, proto qti.Component) constructor {
	_, container := proto.(qti.Container)
	switch {
	case qti.IsRaw(kind):
		return newRaw
	case kind == "value" || kind == "baseValue":
		return newValue
	case kind == "defaultValue" || kind == "correctResponse":
		return newValueList
	}
	if _, ok := proto.(qti.Declaration); ok {
		return newDeclaration
	}
	if _, ok := proto.(*qti.Operator); ok {
		return func(b base) Marshaller { return &recursive{base: b, fam: operatorFamily{b}} }
	}
	switch {
	case f.cfg.IsFinal(kind) && container:
		return newSlot
	case f.cfg.IsFinal(kind) || !container:
		return newLeaf
	}
	rule := f.cfg.Rule(kind)
	return func(b base) Marshaller { return &recursive{base: b, fam: contentFamily{base: b, rule: rule}} }
}

// CreateMarshaller returns the marshaller for an *xmltree.Element (resolved
// by local name) or a qti.Component (resolved by kind).
func (f *Factory) CreateMarshaller(v any, hs ...Hint) (Marshaller, error) {
	return f.create(v, make(path), hs...)
}

func (f *Factory) create(v any, p path, hs ...Hint) (Marshaller, error) {
	var h hints
	for _, hint := range hs {
		hint(&h)
	}
	switch v := v.(type) {
	case *xmltree.Element:
		ctor, ok := f.registry[v.Local()]
		if !ok {
			return nil, &UnmarshallingError{Element: v, Message: unresolved(v.Local()), Cause: ErrUnresolvedKind}
		}
		return ctor(base{f: f, kind: v.Local(), hints: h, path: p}), nil
	case qti.Component:
		ctor, ok := f.registry[v.ClassName()]
		if !ok {
			return nil, &MarshallingError{Component: v, Message: unresolved(v.ClassName()), Cause: ErrUnresolvedKind}
		}
		return ctor(base{f: f, kind: v.ClassName(), hints: h, path: p}), nil
	}
	return nil, fmt.Errorf("%w: cannot marshal values of type %T", ErrUnresolvedKind, v)
}

func unresolved(name string) string {
	return fmt.Sprintf("no class could be found for tag with name '%s'", name)
}

// Unmarshal converts a tree to a component with f.
func (f *Factory) Unmarshal(e *xmltree.Element) (qti.Component, error) {
	m, err := f.CreateMarshaller(e)
	if err != nil {
		return nil, err
	}
	return m.Unmarshal(e)
}

// Marshal converts a component graph to a tree with f.
func (f *Factory) Marshal(c qti.Component) (*xmltree.Element, error) {
	if isNil(c) {
		return nil, &MarshallingError{Message: "cannot marshal a nil component"}
	}
	m, err := f.CreateMarshaller(c)
	if err != nil {
		return nil, err
	}
	return m.Marshal(c)
}

// =============================================================================
// Shared marshaller state
// =============================================================================

// path is the set of components on the current marshal path.
type path map[qti.Component]bool

type base struct {
	f     *Factory
	kind  string
	hints hints
	path  path
}

// enter pushes c on the marshal path. Revisiting an ancestor is a cycle.
func (b base) enter(c qti.Component) (leave func(), err error) {
	if b.path[c] {
		return nil, &MarshallingError{
			Component: c,
			Message:   fmt.Sprintf("component '%s' contains itself", c.ClassName()),
			Cause:     ErrCyclicGraph,
		}
	}
	b.path[c] = true
	return func() { delete(b.path, c) }, nil
}

// component creates an empty component of the marshaller's kind.
func (b base) component(e *xmltree.Element) (qti.Component, error) {
	c, ok := b.f.cfg.newComponent(b.kind)
	if !ok {
		return nil, &UnmarshallingError{Element: e, Message: unresolved(b.kind), Cause: ErrUnresolvedKind}
	}
	return c, nil
}

func (b base) unmarshalChild(e *xmltree.Element, hs ...Hint) (qti.Component, error) {
	m, err := b.f.create(e, b.path, hs...)
	if err != nil {
		return nil, err
	}
	return m.Unmarshal(e)
}

func (b base) marshalChild(c qti.Component, hs ...Hint) (*xmltree.Element, error) {
	if isNil(c) {
		return nil, &MarshallingError{Message: fmt.Sprintf("'%s' has a nil child", b.kind)}
	}
	m, err := b.f.create(c, b.path, hs...)
	if err != nil {
		return nil, err
	}
	return m.Marshal(c)
}

// isNil reports whether c is nil or holds a nil pointer.
func isNil(c qti.Component) bool {
	if c == nil {
		return true
	}
	v := reflect.ValueOf(c)
	switch v.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Interface, reflect.Func, reflect.Chan:
		return v.IsNil()
	}
	return false
}

// finish installs children and runs validation on a freshly bound component.
func (b base) finish(e *xmltree.Element, c qti.Component, children []qti.Component) (qti.Component, error) {
	if ct, ok := c.(qti.Container); ok {
		if err := ct.SetComponents(children); err != nil {
			return nil, &UnmarshallingError{
				Element: e,
				Message: fmt.Sprintf("invalid content for element '%s'", e.Name),
				Cause:   err,
			}
		}
	}
	if v, ok := c.(qti.Validator); ok {
		if err := v.Validate(); err != nil {
			return nil, &UnmarshallingError{
				Element: e,
				Message: fmt.Sprintf("invalid element '%s'", e.Name),
				Cause:   fmt.Errorf("%w: %w", ErrInvalidAttribute, err),
			}
		}
	}
	return c, nil
}

// start checks the kind of c and creates its element with attributes.
func (b base) start(c qti.Component) (*xmltree.Element, error) {
	if c.ClassName() != b.kind {
		return nil, &MarshallingError{
			Component: c,
			Message:   fmt.Sprintf("marshaller for '%s' cannot marshal '%s'", b.kind, c.ClassName()),
			Cause:     ErrUnresolvedKind,
		}
	}
	el := xmltree.NewElement(b.kind)
	if err := writeAttrs(c, el); err != nil {
		return nil, err
	}
	return el, nil
}
