package xmltree

import (
	"bytes"
	"io"
	"strings"
)

// Header is the XML declaration written before every document.
const Header = `<?xml version="1.0" encoding="UTF-8"?>`

var (
	textEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;", "\r", "&#13;")
	attrEscaper = strings.NewReplacer(
		"&", "&amp;", "<", "&lt;", ">", "&gt;", `"`, "&quot;",
		"\n", "&#10;", "\r", "&#13;", "\t", "&#9;",
	)
)

// Marshal serializes d with the XML declaration. With indent, elements
// holding only element children are laid out one child per line, indented
// by two spaces per level; mixed content is written as is.
func Marshal(d *Document, indent bool) []byte {
	var buf bytes.Buffer
	buf.WriteString(Header)
	buf.WriteByte('\n')
	if d != nil && d.Root != nil {
		writeElement(&buf, d.Root, indent, 0)
		buf.WriteByte('\n')
	}
	return buf.Bytes()
}

// Write serializes d to w.
func Write(w io.Writer, d *Document, indent bool) error {
	_, err := w.Write(Marshal(d, indent))
	return err
}

// MarshalElement serializes e as a standalone fragment. Every prefix used
// in the subtree but bound on an ancestor is redeclared on e so the fragment
// parses on its own.
func MarshalElement(e *Element) string {
	out := *e
	var decls []Attr
	for _, b := range unboundPrefixes(e) {
		decls = append(decls, Attr{Name: "xmlns:" + b.prefix, Space: XMLNSNamespace, Value: b.space})
	}
	if len(decls) > 0 {
		out.Attrs = append(decls, e.Attrs...)
	}
	var buf bytes.Buffer
	writeElement(&buf, &out, false, 0)
	return buf.String()
}

type binding struct {
	prefix string
	space  string
}

// unboundPrefixes lists, in document order, the element and attribute
// prefixes of the subtree at e that no element inside it declares.
func unboundPrefixes(e *Element) []binding {
	var out []binding
	seen := make(map[string]bool)
	use := func(prefix, space string, declared []map[string]bool) {
		if prefix == "" || prefix == "xml" || prefix == "xmlns" || space == "" || seen[prefix] {
			return
		}
		for _, scope := range declared {
			if scope[prefix] {
				return
			}
		}
		seen[prefix] = true
		out = append(out, binding{prefix: prefix, space: space})
	}

	var walk func(el *Element, declared []map[string]bool)
	walk = func(el *Element, declared []map[string]bool) {
		scope := make(map[string]bool)
		for _, a := range el.Attrs {
			if p, ok := strings.CutPrefix(a.Name, "xmlns:"); ok {
				scope[p] = true
			}
		}
		declared = append(declared, scope)
		use(el.Prefix(), el.Space, declared)
		for _, a := range el.Attrs {
			if p, _, ok := strings.Cut(a.Name, ":"); ok {
				use(p, a.Space, declared)
			}
		}
		for _, c := range el.Elements() {
			walk(c, declared)
		}
	}
	walk(e, nil)
	return out
}

func writeElement(buf *bytes.Buffer, e *Element, indent bool, depth int) {
	buf.WriteByte('<')
	buf.WriteString(e.Name)
	for _, a := range e.Attrs {
		buf.WriteByte(' ')
		buf.WriteString(a.Name)
		buf.WriteString(`="`)
		attrEscaper.WriteString(buf, a.Value)
		buf.WriteByte('"')
	}
	if len(e.Children) == 0 {
		buf.WriteString("/>")
		return
	}
	buf.WriteByte('>')

	pretty := indent && elementOnly(e)
	for _, c := range e.Children {
		switch c := c.(type) {
		case *Element:
			if pretty {
				newline(buf, depth+1)
			}
			writeElement(buf, c, pretty, depth+1)
		case *Text:
			textEscaper.WriteString(buf, c.Data)
		}
	}
	if pretty {
		newline(buf, depth)
	}
	buf.WriteString("</")
	buf.WriteString(e.Name)
	buf.WriteByte('>')
}

func newline(buf *bytes.Buffer, depth int) {
	buf.WriteByte('\n')
	for range depth {
		buf.WriteString("  ")
	}
}

func elementOnly(e *Element) bool {
	for _, c := range e.Children {
		if _, ok := c.(*Text); ok {
			return false
		}
	}
	return true
}
