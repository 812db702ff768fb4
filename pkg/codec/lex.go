package codec

import (
	"fmt"
	"strconv"
)

type tokenKind int

const (
	tokEOF tokenKind = iota
	tokVar
	tokName
	tokString
	tokNumber
	tokPunct
)

type token struct {
	kind tokenKind
	text string // unquoted for strings
	n    int    // variable index
	pos  int
}

func (t token) String() string {
	switch t.kind {
	case tokEOF:
		return "end of stream"
	case tokVar:
		return varRef(t.n)
	case tokString:
		return strconv.Quote(t.text)
	}
	return fmt.Sprintf("'%s'", t.text)
}

func (t token) is(punct string) bool { return t.kind == tokPunct && t.text == punct }

// lexer splits a stream into tokens on demand.
type lexer struct {
	data []byte
	pos  int
	buf  []token
}

func (l *lexer) peek(n int) (token, error) {
	for len(l.buf) <= n {
		t, err := l.scan()
		if err != nil {
			return token{}, err
		}
		l.buf = append(l.buf, t)
	}
	return l.buf[n], nil
}

func (l *lexer) next() (token, error) {
	t, err := l.peek(0)
	if err != nil {
		return t, err
	}
	l.buf = l.buf[1:]
	return t, nil
}

func (l *lexer) scan() (token, error) {
	for l.pos < len(l.data) && isSpace(l.data[l.pos]) {
		l.pos++
	}
	start := l.pos
	if l.pos >= len(l.data) {
		return token{kind: tokEOF, pos: start}, nil
	}

	c := l.data[l.pos]
	switch {
	case c == '$':
		l.pos++
		if l.pos >= len(l.data) || l.data[l.pos] != 'v' {
			return token{}, fmt.Errorf("offset %d: malformed variable", start)
		}
		l.pos++
		digits := l.pos
		for l.pos < len(l.data) && isDigit(rune(l.data[l.pos])) {
			l.pos++
		}
		n, err := strconv.Atoi(string(l.data[digits:l.pos]))
		if err != nil {
			return token{}, fmt.Errorf("offset %d: malformed variable", start)
		}
		return token{kind: tokVar, n: n, text: string(l.data[start:l.pos]), pos: start}, nil

	case isNameStart(rune(c)):
		for l.pos < len(l.data) && (isNameStart(rune(l.data[l.pos])) || isDigit(rune(l.data[l.pos]))) {
			l.pos++
		}
		return token{kind: tokName, text: string(l.data[start:l.pos]), pos: start}, nil

	case c == '"':
		l.pos++
		for l.pos < len(l.data) && l.data[l.pos] != '"' {
			if l.data[l.pos] == '\\' {
				l.pos++
			}
			l.pos++
		}
		if l.pos >= len(l.data) {
			return token{}, fmt.Errorf("offset %d: unterminated string", start)
		}
		l.pos++
		s, err := strconv.Unquote(string(l.data[start:l.pos]))
		if err != nil {
			return token{}, fmt.Errorf("offset %d: invalid string: %v", start, err)
		}
		return token{kind: tokString, text: s, pos: start}, nil

	case isDigit(rune(c)) || c == '-' || c == '+':
		l.pos++
		for l.pos < len(l.data) && isNumberByte(l.data[l.pos]) {
			l.pos++
		}
		return token{kind: tokNumber, text: string(l.data[start:l.pos]), pos: start}, nil

	case c == '=' || c == ';' || c == '(' || c == ')' || c == ',' || c == ':':
		l.pos++
		return token{kind: tokPunct, text: string(c), pos: start}, nil
	}
	return token{}, fmt.Errorf("offset %d: unexpected character %q", start, c)
}

func isSpace(c byte) bool { return c == ' ' || c == '\t' || c == '\n' || c == '\r' }

func isDigit(r rune) bool { return r >= '0' && r <= '9' }

func isNameStart(r rune) bool {
	return r == '_' || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
}

func isNumberByte(c byte) bool {
	return isDigit(rune(c)) || c == '.' || c == 'e' || c == 'E' || c == '+' || c == '-'
}
