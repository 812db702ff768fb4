package codec

import (
	"encoding"
	"io"
	"math"
	"reflect"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"github.com/matzehuels/qtikit/pkg/marshal"
	"github.com/matzehuels/qtikit/pkg/qti"
	"github.com/matzehuels/qtikit/pkg/qti/datatype"
)

// Encoder writes values to an instruction stream. Variable numbering and
// the identity registry persist across calls to Encode, so a value encoded
// earlier is referenced rather than written again.
type Encoder struct {
	w         io.Writer
	formatted bool
	next      int
	ids       map[any]int
	path      map[any]bool
}

// EncoderOption configures an Encoder.
type EncoderOption func(*Encoder)

// Formatted lays the stream out one instruction per line with spaces after
// separators.
func Formatted(on bool) EncoderOption {
	return func(e *Encoder) { e.formatted = on }
}

// NewEncoder returns an encoder writing to w.
func NewEncoder(w io.Writer, opts ...EncoderOption) *Encoder {
	e := &Encoder{w: w, ids: make(map[any]int), path: make(map[any]bool)}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Encode writes v and everything it references. v is a qti.Component, a
// datatype.Value or a *datatype.Coords.
func (e *Encoder) Encode(v any) error {
	_, err := e.value(v)
	return err
}

func (e *Encoder) value(v any) (int, error) {
	switch v := v.(type) {
	case *datatype.Coords:
		if v == nil {
			return 0, errors.Wrap(ErrUnsupportedKind, "nil coords")
		}
		return e.tracked(v, "coords", func() (string, error) { return e.coords(v) })
	case datatype.Value:
		return e.primitive(v)
	case qti.Component:
		if reflect.ValueOf(v).IsNil() {
			return 0, errors.Wrap(ErrUnsupportedKind, "nil component")
		}
		return e.tracked(v, v.ClassName(), func() (string, error) { return e.component(v) })
	}
	return 0, errors.Wrapf(ErrUnsupportedKind, "%T", v)
}

// tracked encodes a pointer value once and detects values that reach
// themselves.
func (e *Encoder) tracked(key any, kind string, build func() (string, error)) (int, error) {
	if i, ok := e.ids[key]; ok {
		return i, nil
	}
	if e.path[key] {
		return 0, errors.Wrapf(ErrCyclicGraph, "'%s' contains itself", kind)
	}
	e.path[key] = true
	defer delete(e.path, key)

	expr, err := build()
	if err != nil {
		return 0, err
	}
	i, err := e.emit(kind, expr)
	if err != nil {
		return 0, err
	}
	e.ids[key] = i
	return i, nil
}

func (e *Encoder) emit(kind, expr string) (int, error) {
	var b strings.Builder
	i := e.next
	b.WriteString(varRef(i))
	if e.formatted {
		b.WriteString(" = ")
	} else {
		b.WriteByte('=')
	}
	b.WriteString(expr)
	b.WriteByte(';')
	if e.formatted {
		b.WriteByte('\n')
	}
	if _, err := io.WriteString(e.w, b.String()); err != nil {
		return 0, &StreamError{Kind: kind, Err: err}
	}
	e.next++
	return i, nil
}

func varRef(i int) string { return "$v" + strconv.Itoa(i) }

func (e *Encoder) sep() string {
	if e.formatted {
		return ", "
	}
	return ","
}

func (e *Encoder) call(name string, args []string) string {
	return name + "(" + strings.Join(args, e.sep()) + ")"
}

func (e *Encoder) instantiate(name string, args []string) string {
	return "new " + e.call(name, args)
}

func (e *Encoder) named(name, atom string) string {
	if !plainName(name) {
		name = strconv.Quote(name)
	}
	if e.formatted {
		return name + ": " + atom
	}
	return name + ":" + atom
}

func plainName(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		if !isNameStart(r) && (i == 0 || !isDigit(r)) {
			return false
		}
	}
	return true
}

// =============================================================================
// Datatypes
// =============================================================================

func (e *Encoder) coords(c *datatype.Coords) (string, error) {
	items := make([]string, len(c.Values))
	for i, n := range c.Values {
		items[i] = strconv.Itoa(n)
	}
	arr, err := e.emit("coords", e.call("array", items))
	if err != nil {
		return "", err
	}
	return e.instantiate("coords", []string{strconv.Quote(c.Shape.String()), varRef(arr)}), nil
}

func (e *Encoder) primitive(v datatype.Value) (int, error) {
	var name string
	var args []string
	switch v := v.(type) {
	case datatype.Identifier:
		name, args = "identifier", []string{strconv.Quote(string(v))}
	case datatype.Integer:
		name, args = "integer", []string{strconv.Itoa(int(v))}
	case datatype.Float:
		name, args = "float", []string{formatFloat(float64(v))}
	case datatype.Boolean:
		name, args = "boolean", []string{strconv.FormatBool(bool(v))}
	case datatype.String:
		name, args = "string", []string{strconv.Quote(string(v))}
	case datatype.URI:
		name, args = "uri", []string{strconv.Quote(string(v))}
	case datatype.Point:
		name, args = "point", []string{strconv.Itoa(v.X), strconv.Itoa(v.Y)}
	case datatype.Pair:
		name, args = "pair", []string{strconv.Quote(string(v.First)), strconv.Quote(string(v.Second))}
	case datatype.DirectedPair:
		name, args = "directedPair", []string{strconv.Quote(string(v.First)), strconv.Quote(string(v.Second))}
	case datatype.Duration:
		name, args = "duration", []string{strconv.Quote(v.String())}
	default:
		return 0, errors.Wrapf(ErrUnsupportedKind, "datatype %T", v)
	}
	return e.emit(name, e.instantiate(name, args))
}

func formatFloat(f float64) string {
	s := strconv.FormatFloat(f, 'g', -1, 64)
	if math.IsInf(f, 0) || math.IsNaN(f) {
		return strconv.Quote(s)
	}
	return s
}

// =============================================================================
// Components
// =============================================================================

func (e *Encoder) component(c qti.Component) (string, error) {
	var args []string
	switch c := c.(type) {
	case *qti.TextRun:
		args = append(args, e.named("content", strconv.Quote(c.Content)))
	case *qti.Raw:
		if c.Source != "" {
			args = append(args, e.named("source", strconv.Quote(c.Source)))
		}
	}

	for _, a := range marshal.Attributes(c) {
		if a.Field.IsZero() {
			continue
		}
		atom, err := e.field(a.Field)
		if err != nil {
			return "", errors.WithMessagef(err, "attribute '%s' of '%s'", a.Name, c.ClassName())
		}
		args = append(args, e.named(a.Name, atom))
	}

	var datum datatype.Value
	switch c := c.(type) {
	case *qti.Value:
		datum = c.Datum
	case *qti.BaseValue:
		datum = c.Datum
	}
	if datum != nil {
		i, err := e.value(datum)
		if err != nil {
			return "", errors.WithMessagef(err, "value of '%s'", c.ClassName())
		}
		args = append(args, e.named("datum", varRef(i)))
	}

	if ct, ok := c.(qti.Container); ok {
		children := ct.Components()
		if len(children) > 0 {
			refs := make([]string, 0, len(children))
			for _, child := range children {
				i, err := e.value(child)
				if err != nil {
					return "", errors.WithMessagef(err, "child of '%s'", c.ClassName())
				}
				refs = append(refs, varRef(i))
			}
			arr, err := e.emit("array", e.call("array", refs))
			if err != nil {
				return "", err
			}
			args = append(args, e.named("children", varRef(arr)))
		}
	}
	return e.instantiate(c.ClassName(), args), nil
}

// field encodes an attribute field: pointers and slices become variables,
// everything else a literal.
func (e *Encoder) field(fv reflect.Value) (string, error) {
	switch fv.Kind() {
	case reflect.Pointer:
		i, err := e.value(fv.Interface())
		if err != nil {
			return "", err
		}
		return varRef(i), nil
	case reflect.Slice:
		items := make([]string, fv.Len())
		for i := range items {
			lit, err := literal(fv.Index(i))
			if err != nil {
				return "", err
			}
			items[i] = lit
		}
		arr, err := e.emit("array", e.call("array", items))
		if err != nil {
			return "", err
		}
		return varRef(arr), nil
	}
	return literal(fv)
}

func literal(fv reflect.Value) (string, error) {
	if m, ok := fv.Interface().(encoding.TextMarshaler); ok {
		b, err := m.MarshalText()
		if err != nil {
			return "", err
		}
		return strconv.Quote(string(b)), nil
	}
	switch fv.Kind() {
	case reflect.String:
		return strconv.Quote(fv.String()), nil
	case reflect.Int:
		return strconv.FormatInt(fv.Int(), 10), nil
	case reflect.Float64:
		return formatFloat(fv.Float()), nil
	case reflect.Bool:
		return strconv.FormatBool(fv.Bool()), nil
	}
	return "", errors.Wrapf(ErrUnsupportedKind, "field type %s", fv.Type())
}

// Marshal encodes v into a new stream.
func Marshal(v any, formatted bool) ([]byte, error) {
	var b strings.Builder
	if err := NewEncoder(&b, Formatted(formatted)).Encode(v); err != nil {
		return nil, err
	}
	return []byte(b.String()), nil
}
