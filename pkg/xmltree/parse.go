package xmltree

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"

	qerrors "github.com/matzehuels/qtikit/pkg/errors"
)

var standardEntities = map[string]string{
	"lt":   "<",
	"gt":   ">",
	"amp":  "&",
	"apos": "'",
	"quot": "\"",
}

// Parse builds a document from data.
//
// Well-formedness problems are collected rather than returned one by one.
// Recoverable problems (undefined entities, unquoted or duplicate
// attributes, mismatched end tags) are reported with SeverityError and
// parsing continues; unrecoverable ones are SeverityFatal and stop it. The
// returned document is nil only when no root element was found.
//
// The parser never fetches external resources: DOCTYPE declarations are
// skipped and entities other than the five predefined ones are undefined.
// Whitespace-only text is dropped from elements with element-only content.
func Parse(data []byte) (*Document, qerrors.ProblemList) {
	p := &parser{data: data, line: 1, col: 1}
	if bytes.HasPrefix(data, []byte("\xEF\xBB\xBF")) {
		p.pos = 3
	}
	p.run()
	if p.root == nil {
		if !p.fatal {
			p.report(qerrors.SeverityFatal, p.line, p.col, "Document is empty")
		}
		return nil, p.problems
	}
	stripBlanks(p.root)
	return &Document{Root: p.root}, p.problems
}

// ParseString is Parse for strings.
func ParseString(s string) (*Document, qerrors.ProblemList) {
	return Parse([]byte(s))
}

// ParseElement parses a standalone fragment such as one produced by
// MarshalElement. Any Error or Fatal problem fails the call.
func ParseElement(s string) (*Element, error) {
	doc, problems := ParseString(s)
	if problems.Failed() {
		return nil, problems
	}
	return doc.Root, nil
}

type parser struct {
	data     []byte
	pos      int
	line     int
	col      int
	problems qerrors.ProblemList
	fatal    bool
	root     *Element
	stack    []*Element
	scopes   []map[string]string
}

func (p *parser) report(sev qerrors.Severity, line, col int, format string, args ...any) {
	p.problems = append(p.problems, qerrors.Problem{
		Severity: sev,
		Message:  fmt.Sprintf(format, args...),
		Line:     line,
		Column:   col,
	})
	if sev == qerrors.SeverityFatal {
		p.fatal = true
	}
}

func (p *parser) errorf(line, col int, format string, args ...any) {
	p.report(qerrors.SeverityError, line, col, format, args...)
}

func (p *parser) fatalf(line, col int, format string, args ...any) {
	p.report(qerrors.SeverityFatal, line, col, format, args...)
}

// =============================================================================
// Cursor
// =============================================================================

func (p *parser) eof() bool { return p.pos >= len(p.data) }

func (p *parser) peek(off int) byte {
	if p.pos+off >= len(p.data) {
		return 0
	}
	return p.data[p.pos+off]
}

func (p *parser) has(s string) bool {
	return bytes.HasPrefix(p.data[p.pos:], []byte(s))
}

// next consumes one byte. Columns count runes, not bytes.
func (p *parser) next() byte {
	c := p.data[p.pos]
	p.pos++
	switch {
	case c == '\n':
		p.line++
		p.col = 1
	case c&0xC0 != 0x80:
		p.col++
	}
	return c
}

func (p *parser) skip(n int) {
	for i := 0; i < n && !p.eof(); i++ {
		p.next()
	}
}

func (p *parser) skipSpace() {
	for !p.eof() && isSpace(p.data[p.pos]) {
		p.next()
	}
}

func (p *parser) name() string {
	start := p.pos
	if p.eof() || !isNameStart(p.data[p.pos]) {
		return ""
	}
	for !p.eof() && isNameByte(p.data[p.pos]) {
		p.next()
	}
	return string(p.data[start:p.pos])
}

// =============================================================================
// Markup
// =============================================================================

func (p *parser) run() {
	for !p.fatal && !p.eof() {
		if p.data[p.pos] != '<' {
			p.text()
			continue
		}
		switch {
		case p.has("<?"):
			p.skipPast("?>", "processing instruction")
		case p.has("<!--"):
			p.skipPast("-->", "Comment")
		case p.has("<![CDATA["):
			p.cdata()
		case p.has("<!"):
			p.doctype()
		case p.has("</"):
			p.endTag()
		default:
			p.startTag()
		}
	}
	if p.fatal || len(p.stack) == 0 {
		return
	}
	top := p.stack[len(p.stack)-1]
	p.fatalf(p.line, p.col, "Premature end of data in tag %s line %d", top.Name, top.Line)
}

func (p *parser) skipPast(term, what string) {
	line, col := p.line, p.col
	i := bytes.Index(p.data[p.pos:], []byte(term))
	if i < 0 {
		p.fatalf(line, col, "%s not terminated", what)
		p.skip(len(p.data))
		return
	}
	p.skip(i + len(term))
}

func (p *parser) doctype() {
	line, col := p.line, p.col
	depth := 0
	for !p.eof() {
		switch p.next() {
		case '[':
			depth++
		case ']':
			depth--
		case '>':
			if depth <= 0 {
				return
			}
		}
	}
	p.fatalf(line, col, "DOCTYPE not terminated")
}

func (p *parser) cdata() {
	line, col := p.line, p.col
	p.skip(len("<![CDATA["))
	i := bytes.Index(p.data[p.pos:], []byte("]]>"))
	if i < 0 {
		p.fatalf(line, col, "CData section not finished")
		return
	}
	s := string(p.data[p.pos : p.pos+i])
	p.skip(i + 3)
	p.addText(s, line, col)
}

func (p *parser) text() {
	line, col := p.line, p.col
	s := p.chars(func(c byte) bool { return c == '<' })
	p.addText(s, line, col)
}

func (p *parser) addText(s string, line, col int) {
	if len(p.stack) == 0 {
		if isBlank(s) {
			return
		}
		if p.root == nil {
			p.fatalf(line, col, "Start tag expected, '<' not found")
		} else {
			p.fatalf(line, col, "Extra content at the end of the document")
		}
		return
	}
	parent := p.stack[len(p.stack)-1]
	if n := len(parent.Children); n > 0 {
		if t, ok := parent.Children[n-1].(*Text); ok {
			t.Data += s
			return
		}
	}
	parent.Children = append(parent.Children, &Text{Data: s, Line: line, Column: col})
}

func (p *parser) startTag() {
	line, col := p.line, p.col
	p.next()
	name := p.name()
	if name == "" {
		p.fatalf(line, col, "StartTag: invalid element name")
		return
	}
	if p.root != nil && len(p.stack) == 0 {
		p.fatalf(line, col, "Extra content at the end of the document")
		return
	}

	el := &Element{Name: name, Line: line, Column: col}
	selfClose, ok := p.attributes(el)
	if !ok {
		return
	}
	p.bind(el)

	if len(p.stack) == 0 {
		p.root = el
	} else {
		parent := p.stack[len(p.stack)-1]
		parent.Children = append(parent.Children, el)
	}
	p.stack = append(p.stack, el)
	if selfClose {
		p.pop()
	}
}

func (p *parser) attributes(el *Element) (selfClose, ok bool) {
	for !p.fatal {
		p.skipSpace()
		if p.eof() {
			p.fatalf(p.line, p.col, "Couldn't find end of Start Tag %s line %d", el.Name, el.Line)
			return false, false
		}
		if p.has("/>") {
			p.skip(2)
			return true, true
		}
		if p.data[p.pos] == '>' {
			p.next()
			return false, true
		}

		line, col := p.line, p.col
		name := p.name()
		if name == "" {
			p.errorf(line, col, "attributes construct error")
			for !p.eof() && p.data[p.pos] != '>' && !p.has("/>") {
				p.next()
			}
			continue
		}
		p.skipSpace()
		var value string
		if p.peek(0) == '=' {
			p.next()
			p.skipSpace()
			value = p.attrValue()
		} else {
			p.errorf(line, col, "Attribute %s has no value", name)
		}
		if _, dup := el.Attr(name); dup {
			p.errorf(line, col, "Attribute %s redefined", name)
			continue
		}
		el.Attrs = append(el.Attrs, Attr{Name: name, Value: value})
	}
	return false, false
}

func (p *parser) attrValue() string {
	if p.eof() {
		return ""
	}
	q := p.data[p.pos]
	if q == '"' || q == '\'' {
		line, col := p.line, p.col
		p.next()
		v := p.chars(func(c byte) bool { return c == q })
		if p.eof() {
			p.fatalf(line, col, "AttValue: %c expected", q)
			return v
		}
		p.next()
		return v
	}
	p.errorf(p.line, p.col, "AttValue: \" or ' expected")
	return p.chars(func(c byte) bool {
		return isSpace(c) || c == '>' || (c == '/' && p.peek(1) == '>')
	})
}

func (p *parser) endTag() {
	line, col := p.line, p.col
	p.skip(2)
	name := p.name()
	p.skipSpace()
	if p.peek(0) == '>' {
		p.next()
	} else {
		p.errorf(p.line, p.col, "expected '>'")
		for !p.eof() && p.data[p.pos] != '>' && p.data[p.pos] != '<' {
			p.next()
		}
		if p.peek(0) == '>' {
			p.next()
		}
	}

	if len(p.stack) == 0 {
		p.fatalf(line, col, "Extra content at the end of the document")
		return
	}
	top := p.stack[len(p.stack)-1]
	if top.Name == name {
		p.pop()
		return
	}
	p.errorf(line, col, "Opening and ending tag mismatch: %s line %d and %s", top.Name, top.Line, name)
	for i := len(p.stack) - 2; i >= 0; i-- {
		if p.stack[i].Name == name {
			for len(p.stack) > i {
				p.pop()
			}
			return
		}
	}
}

func (p *parser) pop() {
	p.stack = p.stack[:len(p.stack)-1]
	p.scopes = p.scopes[:len(p.scopes)-1]
}

// =============================================================================
// Namespaces
// =============================================================================

func (p *parser) bind(el *Element) {
	scope := make(map[string]string)
	for _, a := range el.Attrs {
		var prefix string
		switch {
		case a.Name == "xmlns":
		case strings.HasPrefix(a.Name, "xmlns:"):
			prefix = a.Name[len("xmlns:"):]
		default:
			continue
		}
		scope[prefix] = a.Value
		if a.Value != "" && !strings.Contains(a.Value, ":") {
			p.report(qerrors.SeverityWarning, el.Line, el.Column, "xmlns: URI %s is not absolute", a.Value)
		}
	}
	p.scopes = append(p.scopes, scope)

	el.Space = p.resolve(el.Prefix(), el)
	for i := range el.Attrs {
		a := &el.Attrs[i]
		prefix, _, found := strings.Cut(a.Name, ":")
		switch {
		case a.Name == "xmlns" || prefix == "xmlns":
			a.Space = XMLNSNamespace
		case found:
			a.Space = p.resolve(prefix, el)
		}
	}
}

func (p *parser) resolve(prefix string, el *Element) string {
	if prefix == "xml" {
		return XMLNamespace
	}
	for i := len(p.scopes) - 1; i >= 0; i-- {
		if uri, ok := p.scopes[i][prefix]; ok {
			return uri
		}
	}
	if prefix != "" {
		p.errorf(el.Line, el.Column, "Namespace prefix %s on %s is not defined", prefix, el.Local())
	}
	return ""
}

// =============================================================================
// Character data
// =============================================================================

// chars consumes character data up to a byte accepted by stop, expanding
// references on the way.
func (p *parser) chars(stop func(byte) bool) string {
	var b []byte
	for !p.eof() {
		c := p.data[p.pos]
		if stop(c) {
			break
		}
		if c == '&' {
			b = p.reference(b)
			continue
		}
		b = append(b, c)
		p.next()
	}
	return string(b)
}

func (p *parser) reference(b []byte) []byte {
	line, col := p.line, p.col
	rest := p.data[p.pos+1:]
	end := bytes.IndexByte(rest, ';')
	if end <= 0 || !validRef(rest[:end]) {
		p.errorf(line, col, "EntityRef: expecting ';'")
		p.next()
		return append(b, '&')
	}
	ref := string(rest[:end])
	p.skip(end + 2)

	if ref[0] == '#' {
		r, ok := charRef(ref[1:])
		if !ok {
			p.errorf(line, col, "xmlParseCharRef: invalid xmlChar value")
			return b
		}
		return utf8.AppendRune(b, r)
	}
	if v, ok := standardEntities[ref]; ok {
		return append(b, v...)
	}
	p.errorf(line, col, "Entity '%s' not defined", ref)
	return append(b, "&"+ref+";"...)
}

func validRef(ref []byte) bool {
	if ref[0] == '#' {
		return len(ref) > 1
	}
	if !isNameStart(ref[0]) {
		return false
	}
	for _, c := range ref {
		if !isNameByte(c) {
			return false
		}
	}
	return true
}

func charRef(s string) (rune, bool) {
	base := 10
	if strings.HasPrefix(s, "x") {
		base, s = 16, s[1:]
	}
	n, err := strconv.ParseUint(s, base, 32)
	if err != nil {
		return 0, false
	}
	r := rune(n)
	valid := r == 0x9 || r == 0xA || r == 0xD ||
		(r >= 0x20 && r <= 0xD7FF) ||
		(r >= 0xE000 && r <= 0xFFFD) ||
		(r >= 0x10000 && r <= 0x10FFFF)
	return r, valid
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r'
}

func isBlank(s string) bool {
	for i := 0; i < len(s); i++ {
		if !isSpace(s[i]) {
			return false
		}
	}
	return true
}

func isNameStart(c byte) bool {
	return c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c == '_' || c == ':' || c >= 0x80
}

func isNameByte(c byte) bool {
	return isNameStart(c) || c >= '0' && c <= '9' || c == '-' || c == '.'
}

// stripBlanks removes whitespace-only text from elements whose other
// children are all elements.
func stripBlanks(e *Element) {
	hasElem, hasText := false, false
	for _, c := range e.Children {
		switch c := c.(type) {
		case *Element:
			hasElem = true
			stripBlanks(c)
		case *Text:
			if !isBlank(c.Data) {
				hasText = true
			}
		}
	}
	if !hasElem || hasText {
		return
	}
	kept := e.Children[:0]
	for _, c := range e.Children {
		if _, ok := c.(*Text); !ok {
			kept = append(kept, c)
		}
	}
	e.Children = kept
}
