// Package xmltree is a small DOM for QTI documents.
//
// The parser is permissive: it recovers from common well-formedness errors
// and collects every problem with its line and column instead of stopping at
// the first one. The writer produces the canonical layout used for saved
// documents.
package xmltree

import "strings"

// Common namespaces.
const (
	XMLNamespace   = "http://www.w3.org/XML/1998/namespace"
	XMLNSNamespace = "http://www.w3.org/2000/xmlns/"
	XSINamespace   = "http://www.w3.org/2001/XMLSchema-instance"
)

// Node is an element or a text node.
type Node interface {
	node()
}

// Attr is an attribute. Name is the qualified name as written; Space is the
// resolved namespace URI of a prefixed attribute.
type Attr struct {
	Name  string
	Space string
	Value string
}

// Element is an element node. Line and Column locate the opening '<' in
// the source and are zero for elements built in memory.
type Element struct {
	Name     string
	Space    string
	Attrs    []Attr
	Children []Node
	Line     int
	Column   int
}

// Text is character data.
type Text struct {
	Data   string
	Line   int
	Column int
}

func (*Element) node() {}
func (*Text) node()    {}

// NewElement creates an empty element.
func NewElement(name string) *Element {
	return &Element{Name: name}
}

// NewText creates a text node.
func NewText(data string) *Text {
	return &Text{Data: data}
}

// Local returns the name without prefix.
func (e *Element) Local() string {
	if i := strings.IndexByte(e.Name, ':'); i >= 0 {
		return e.Name[i+1:]
	}
	return e.Name
}

// Prefix returns the namespace prefix, or "".
func (e *Element) Prefix() string {
	if i := strings.IndexByte(e.Name, ':'); i >= 0 {
		return e.Name[:i]
	}
	return ""
}

// Attr returns the value of the attribute with the given qualified name.
func (e *Element) Attr(name string) (string, bool) {
	for _, a := range e.Attrs {
		if a.Name == name {
			return a.Value, true
		}
	}
	return "", false
}

// SetAttr sets an attribute, replacing an existing one in place.
func (e *Element) SetAttr(name, value string) {
	for i := range e.Attrs {
		if e.Attrs[i].Name == name {
			e.Attrs[i].Value = value
			return
		}
	}
	e.Attrs = append(e.Attrs, Attr{Name: name, Value: value})
}

// RemoveAttr deletes an attribute if present.
func (e *Element) RemoveAttr(name string) {
	for i := range e.Attrs {
		if e.Attrs[i].Name == name {
			e.Attrs = append(e.Attrs[:i], e.Attrs[i+1:]...)
			return
		}
	}
}

// AppendChild adds n as the last child.
func (e *Element) AppendChild(n Node) {
	e.Children = append(e.Children, n)
}

// Elements returns the element children.
func (e *Element) Elements() []*Element {
	var out []*Element
	for _, c := range e.Children {
		if el, ok := c.(*Element); ok {
			out = append(out, el)
		}
	}
	return out
}

// Find returns the first child element with the given local name.
func (e *Element) Find(local string) *Element {
	for _, c := range e.Children {
		if el, ok := c.(*Element); ok && el.Local() == local {
			return el
		}
	}
	return nil
}

// Text returns the concatenated character data of the element and its
// descendants.
func (e *Element) Text() string {
	var b strings.Builder
	var walk func(*Element)
	walk = func(el *Element) {
		for _, c := range el.Children {
			switch c := c.(type) {
			case *Text:
				b.WriteString(c.Data)
			case *Element:
				walk(c)
			}
		}
	}
	walk(e)
	return b.String()
}

// Document is a parsed or constructed XML document.
type Document struct {
	Root *Element
}

// NewDocument creates a document with the given root.
func NewDocument(root *Element) *Document {
	return &Document{Root: root}
}

// Count returns the number of elements in the document.
func (d *Document) Count() int {
	if d == nil || d.Root == nil {
		return 0
	}
	n := 0
	var walk func(*Element)
	walk = func(e *Element) {
		n++
		for _, c := range e.Elements() {
			walk(c)
		}
	}
	walk(d.Root)
	return n
}
