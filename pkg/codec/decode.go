package codec

import (
	"bytes"
	"io"
	"reflect"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"github.com/matzehuels/qtikit/pkg/marshal"
	"github.com/matzehuels/qtikit/pkg/qti"
	"github.com/matzehuels/qtikit/pkg/qti/datatype"
)

// number is an unconverted numeric literal. The target of an assignment
// decides whether it is read as an integer or a float.
type number string

// arg is a positional or named call argument.
type arg struct {
	name string
	val  any
}

// Decoder reads values back from an instruction stream.
type Decoder struct {
	r      io.Reader
	vocabs []*qti.Vocabulary
	arena  []any
}

// DecoderOption configures a Decoder.
type DecoderOption func(*Decoder)

// WithVocabularies restricts the component kinds the decoder can build.
// All QTI vocabularies are used by default.
func WithVocabularies(vs ...*qti.Vocabulary) DecoderOption {
	return func(d *Decoder) { d.vocabs = vs }
}

// NewDecoder returns a decoder reading from r.
func NewDecoder(r io.Reader, opts ...DecoderOption) *Decoder {
	d := &Decoder{r: r, vocabs: qti.Vocabularies()}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Decode reads the whole stream and returns the value assigned by its last
// instruction.
func (d *Decoder) Decode() (any, error) {
	data, err := io.ReadAll(d.r)
	if err != nil {
		return nil, &StreamError{Kind: "stream", Err: err}
	}
	l := &lexer{data: data}
	d.arena = d.arena[:0]

	for instr := 0; ; instr++ {
		t, err := l.next()
		if err != nil {
			return nil, syntaxErr(instr, "%v", err)
		}
		if t.kind == tokEOF {
			break
		}
		if t.kind != tokVar {
			return nil, syntaxErr(instr, "expected variable, found %s", t)
		}
		if t.n != len(d.arena) {
			return nil, syntaxErr(instr, "variable %s out of sequence, expected %s", t, varRef(len(d.arena)))
		}
		if err := expect(l, instr, "="); err != nil {
			return nil, err
		}
		v, err := d.expr(l, instr)
		if err != nil {
			return nil, err
		}
		if err := expect(l, instr, ";"); err != nil {
			return nil, err
		}
		d.arena = append(d.arena, v)
	}

	if len(d.arena) == 0 {
		return nil, syntaxErr(0, "empty stream")
	}
	return d.arena[len(d.arena)-1], nil
}

func expect(l *lexer, instr int, punct string) error {
	t, err := l.next()
	if err != nil {
		return syntaxErr(instr, "%v", err)
	}
	if !t.is(punct) {
		return syntaxErr(instr, "expected '%s', found %s", punct, t)
	}
	return nil
}

func (d *Decoder) expr(l *lexer, instr int) (any, error) {
	t, err := l.next()
	if err != nil {
		return nil, syntaxErr(instr, "%v", err)
	}
	if t.kind != tokName {
		return nil, syntaxErr(instr, "expected expression, found %s", t)
	}

	switch t.text {
	case "array":
		args, err := d.args(l, instr)
		if err != nil {
			return nil, err
		}
		items := make([]any, len(args))
		for i, a := range args {
			if a.name != "" {
				return nil, syntaxErr(instr, "array takes no named arguments")
			}
			items[i] = a.val
		}
		return items, nil

	case "new":
		name, err := l.next()
		if err != nil {
			return nil, syntaxErr(instr, "%v", err)
		}
		if name.kind != tokName {
			return nil, syntaxErr(instr, "expected kind, found %s", name)
		}
		args, err := d.args(l, instr)
		if err != nil {
			return nil, err
		}
		return d.construct(instr, name.text, args)
	}
	return nil, syntaxErr(instr, "unknown expression %s", t)
}

func (d *Decoder) args(l *lexer, instr int) ([]arg, error) {
	if err := expect(l, instr, "("); err != nil {
		return nil, err
	}
	if t, err := l.peek(0); err != nil {
		return nil, syntaxErr(instr, "%v", err)
	} else if t.is(")") {
		l.next()
		return nil, nil
	}

	var args []arg
	for {
		a, err := d.arg(l, instr)
		if err != nil {
			return nil, err
		}
		args = append(args, a)

		t, err := l.next()
		if err != nil {
			return nil, syntaxErr(instr, "%v", err)
		}
		switch {
		case t.is(","):
			continue
		case t.is(")"):
			return args, nil
		}
		return nil, syntaxErr(instr, "expected ',' or ')', found %s", t)
	}
}

func (d *Decoder) arg(l *lexer, instr int) (arg, error) {
	t0, err := l.peek(0)
	if err != nil {
		return arg{}, syntaxErr(instr, "%v", err)
	}
	var a arg
	if t0.kind == tokName || t0.kind == tokString {
		t1, err := l.peek(1)
		if err != nil {
			return arg{}, syntaxErr(instr, "%v", err)
		}
		if t1.is(":") {
			l.next()
			l.next()
			a.name = t0.text
		}
	}
	a.val, err = d.atom(l, instr)
	return a, err
}

func (d *Decoder) atom(l *lexer, instr int) (any, error) {
	t, err := l.next()
	if err != nil {
		return nil, syntaxErr(instr, "%v", err)
	}
	switch t.kind {
	case tokVar:
		if t.n >= len(d.arena) {
			return nil, syntaxErr(instr, "reference to undefined variable %s", t)
		}
		return d.arena[t.n], nil
	case tokString:
		return t.text, nil
	case tokNumber:
		return number(t.text), nil
	case tokName:
		switch t.text {
		case "true":
			return true, nil
		case "false":
			return false, nil
		case "null":
			return nil, nil
		}
	}
	return nil, syntaxErr(instr, "unexpected %s", t)
}

func (d *Decoder) construct(instr int, kind string, args []arg) (any, error) {
	if ctor, ok := primitives[kind]; ok {
		pos := make([]any, len(args))
		for i, a := range args {
			if a.name != "" {
				return nil, syntaxErr(instr, "%s takes no named arguments", kind)
			}
			pos[i] = a.val
		}
		v, err := ctor(pos)
		if err != nil {
			return nil, errors.WithMessagef(err, "instruction %d: %s", instr, kind)
		}
		return v, nil
	}

	c, err := d.newComponent(kind)
	if err != nil {
		return nil, errors.WithMessagef(err, "instruction %d", instr)
	}
	if err := populate(c, args); err != nil {
		return nil, errors.WithMessagef(err, "instruction %d: %s", instr, kind)
	}
	return c, nil
}

func (d *Decoder) newComponent(kind string) (qti.Component, error) {
	if kind == "textRun" {
		return &qti.TextRun{}, nil
	}
	for _, v := range d.vocabs {
		if c, ok := v.New(kind); ok {
			return c, nil
		}
	}
	return nil, errors.Wrapf(ErrUnsupportedKind, "'%s'", kind)
}

func populate(c qti.Component, args []arg) error {
	attrs := make(map[string]marshal.Attribute)
	for _, a := range marshal.Attributes(c) {
		attrs[a.Name] = a
	}

	var children []qti.Component
	hasChildren := false
	for _, a := range args {
		if a.name == "" {
			return errors.Wrap(ErrSyntax, "component arguments must be named")
		}
		switch a.name {
		case "children":
			items, ok := a.val.([]any)
			if !ok {
				return errors.Wrapf(ErrSyntax, "children must be an array, not %T", a.val)
			}
			for _, item := range items {
				child, ok := item.(qti.Component)
				if !ok {
					return errors.Wrapf(ErrSyntax, "child of type %T is not a component", item)
				}
				children = append(children, child)
			}
			hasChildren = true

		case "datum":
			dv, ok := a.val.(datatype.Value)
			if !ok {
				return errors.Wrapf(ErrSyntax, "datum of type %T is not a value", a.val)
			}
			switch c := c.(type) {
			case *qti.Value:
				c.Datum = dv
			case *qti.BaseValue:
				c.Datum = dv
			default:
				return errors.Wrapf(ErrSyntax, "'%s' takes no datum", c.ClassName())
			}

		case "content", "source":
			s, ok := a.val.(string)
			if !ok {
				return errors.Wrapf(ErrSyntax, "%s must be a string", a.name)
			}
			switch c := c.(type) {
			case *qti.TextRun:
				if a.name != "content" {
					return errors.Wrap(ErrSyntax, "text runs take content")
				}
				c.Content = s
			case *qti.Raw:
				if a.name != "source" {
					return errors.Wrap(ErrSyntax, "raw markup takes source")
				}
				c.Source = s
			default:
				return errors.Wrapf(ErrSyntax, "'%s' takes no %s", c.ClassName(), a.name)
			}

		default:
			attr, ok := attrs[a.name]
			if !ok {
				return errors.Wrapf(ErrSyntax, "unknown attribute '%s'", a.name)
			}
			if err := assign(attr.Field, a.val); err != nil {
				return errors.WithMessagef(err, "attribute '%s'", a.name)
			}
		}
	}

	if !hasChildren {
		return nil
	}
	ct, ok := c.(qti.Container)
	if !ok {
		return errors.Wrapf(ErrSyntax, "'%s' has no children", c.ClassName())
	}
	return ct.SetComponents(children)
}

// assign sets an attribute field from a decoded atom. Literals go through
// the same text conversion as XML attributes.
func assign(fv reflect.Value, val any) error {
	switch v := val.(type) {
	case nil:
		fv.Set(reflect.Zero(fv.Type()))
		return nil
	case []any:
		parts := make([]string, len(v))
		for i, item := range v {
			s, err := atomText(item)
			if err != nil {
				return err
			}
			parts[i] = s
		}
		return marshal.ParseAttribute(fv, strings.Join(parts, " "))
	case string, number, bool:
		s, _ := atomText(v)
		return marshal.ParseAttribute(fv, s)
	}

	rv := reflect.ValueOf(val)
	if rv.Type().AssignableTo(fv.Type()) {
		fv.Set(rv)
		return nil
	}
	return errors.Wrapf(ErrSyntax, "cannot assign %T to %s", val, fv.Type())
}

func atomText(v any) (string, error) {
	switch v := v.(type) {
	case string:
		return v, nil
	case number:
		return string(v), nil
	case bool:
		return strconv.FormatBool(v), nil
	}
	return "", errors.Wrapf(ErrSyntax, "%T is not a literal", v)
}

// =============================================================================
// Datatype constructors
// =============================================================================

var primitives = map[string]func(args []any) (any, error){
	"identifier": func(args []any) (any, error) {
		s, err := stringArg(args, 0, 1)
		if err != nil {
			return nil, err
		}
		id, err := datatype.NewIdentifier(s)
		if err != nil {
			return nil, err
		}
		return id, nil
	},
	"integer": func(args []any) (any, error) {
		n, err := intArg(args, 0, 1)
		return datatype.Integer(n), err
	},
	"float": func(args []any) (any, error) {
		if err := arity(args, 1); err != nil {
			return nil, err
		}
		var s string
		switch v := args[0].(type) {
		case number:
			s = string(v)
		case string:
			s = v
		default:
			return nil, errors.Wrapf(ErrSyntax, "float from %T", v)
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return nil, errors.Wrapf(datatype.ErrInvalidValue, "%q is not a float", s)
		}
		return datatype.Float(f), nil
	},
	"boolean": func(args []any) (any, error) {
		if err := arity(args, 1); err != nil {
			return nil, err
		}
		b, ok := args[0].(bool)
		if !ok {
			return nil, errors.Wrapf(ErrSyntax, "boolean from %T", args[0])
		}
		return datatype.Boolean(b), nil
	},
	"string": func(args []any) (any, error) {
		s, err := stringArg(args, 0, 1)
		return datatype.String(s), err
	},
	"uri": func(args []any) (any, error) {
		s, err := stringArg(args, 0, 1)
		return datatype.URI(s), err
	},
	"point": func(args []any) (any, error) {
		x, err := intArg(args, 0, 2)
		if err != nil {
			return nil, err
		}
		y, err := intArg(args, 1, 2)
		return datatype.Point{X: x, Y: y}, err
	},
	"pair": func(args []any) (any, error) {
		a, b, err := identifierPair(args)
		return datatype.Pair{First: a, Second: b}, err
	},
	"directedPair": func(args []any) (any, error) {
		a, b, err := identifierPair(args)
		return datatype.DirectedPair{First: a, Second: b}, err
	},
	"duration": func(args []any) (any, error) {
		s, err := stringArg(args, 0, 1)
		if err != nil {
			return nil, err
		}
		dur, err := datatype.ParseDuration(s)
		if err != nil {
			return nil, err
		}
		return dur, nil
	},
	"coords": func(args []any) (any, error) {
		s, err := stringArg(args, 0, 2)
		if err != nil {
			return nil, err
		}
		c := &datatype.Coords{}
		if err := c.Shape.UnmarshalText([]byte(s)); err != nil {
			return nil, err
		}
		items, ok := args[1].([]any)
		if !ok {
			return nil, errors.Wrapf(ErrSyntax, "coordinate values must be an array, not %T", args[1])
		}
		for i := range items {
			n, err := intArg(items, i, len(items))
			if err != nil {
				return nil, err
			}
			c.Values = append(c.Values, n)
		}
		return c, nil
	},
}

func arity(args []any, n int) error {
	if len(args) != n {
		return errors.Wrapf(ErrSyntax, "expected %d arguments, found %d", n, len(args))
	}
	return nil
}

func stringArg(args []any, i, n int) (string, error) {
	if err := arity(args, n); err != nil {
		return "", err
	}
	s, ok := args[i].(string)
	if !ok {
		return "", errors.Wrapf(ErrSyntax, "argument %d must be a string, not %T", i, args[i])
	}
	return s, nil
}

func intArg(args []any, i, n int) (int, error) {
	if err := arity(args, n); err != nil {
		return 0, err
	}
	s, ok := args[i].(number)
	if !ok {
		return 0, errors.Wrapf(ErrSyntax, "argument %d must be a number, not %T", i, args[i])
	}
	v, err := strconv.Atoi(string(s))
	if err != nil {
		return 0, errors.Wrapf(datatype.ErrInvalidValue, "%q is not an integer", s)
	}
	return v, nil
}

func identifierPair(args []any) (datatype.Identifier, datatype.Identifier, error) {
	a, err := stringArg(args, 0, 2)
	if err != nil {
		return "", "", err
	}
	b, err := stringArg(args, 1, 2)
	if err != nil {
		return "", "", err
	}
	first, err := datatype.NewIdentifier(a)
	if err != nil {
		return "", "", err
	}
	second, err := datatype.NewIdentifier(b)
	if err != nil {
		return "", "", err
	}
	return first, second, nil
}

// Unmarshal decodes a stream produced by Marshal.
func Unmarshal(data []byte) (any, error) {
	return NewDecoder(bytes.NewReader(data)).Decode()
}

// UnmarshalComponent decodes a stream whose root is a component.
func UnmarshalComponent(data []byte) (qti.Component, error) {
	v, err := Unmarshal(data)
	if err != nil {
		return nil, err
	}
	c, ok := v.(qti.Component)
	if !ok {
		return nil, errors.Wrapf(ErrUnsupportedKind, "root is %T, not a component", v)
	}
	return c, nil
}
