package marshal

import (
	"encoding"
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"sync"

	"github.com/matzehuels/qtikit/pkg/qti"
	"github.com/matzehuels/qtikit/pkg/qti/datatype"
	"github.com/matzehuels/qtikit/pkg/xmltree"
)

// attrField describes one `qti:"name[,required][,default=v]"` field.
type attrField struct {
	name     string
	index    []int
	required bool
	def      string
	hasDef   bool
}

var attrCache sync.Map // reflect.Type -> []attrField

var (
	textUnmarshalerType = reflect.TypeFor[encoding.TextUnmarshaler]()
	textMarshalerType   = reflect.TypeFor[encoding.TextMarshaler]()
	uriType             = reflect.TypeFor[datatype.URI]()
)

func attrFields(t reflect.Type) []attrField {
	if cached, ok := attrCache.Load(t); ok {
		return cached.([]attrField)
	}
	var fields []attrField
	for _, sf := range reflect.VisibleFields(t) {
		tag, ok := sf.Tag.Lookup("qti")
		if !ok || sf.Anonymous || !sf.IsExported() {
			continue
		}
		parts := strings.Split(tag, ",")
		f := attrField{name: parts[0], index: sf.Index}
		for _, opt := range parts[1:] {
			switch {
			case opt == "required":
				f.required = true
			case strings.HasPrefix(opt, "default="):
				f.def, f.hasDef = strings.TrimPrefix(opt, "default="), true
			}
		}
		fields = append(fields, f)
	}
	attrCache.Store(t, fields)
	return fields
}

// Attribute is a tagged attribute field of a component.
type Attribute struct {
	Name     string
	Required bool
	Field    reflect.Value // settable
}

// Attributes returns the attribute fields of c in declaration order.
func Attributes(c qti.Component) []Attribute {
	v := reflect.ValueOf(c).Elem()
	fields := attrFields(v.Type())
	out := make([]Attribute, len(fields))
	for i, f := range fields {
		out[i] = Attribute{Name: f.name, Required: f.required, Field: v.FieldByIndex(f.index)}
	}
	return out
}

// ParseAttribute sets an attribute field from its XML text.
func ParseAttribute(fv reflect.Value, text string) error { return setField(fv, text) }

// FormatAttribute returns the XML text of an attribute field.
func FormatAttribute(fv reflect.Value) (string, error) { return formatField(fv) }

// bindAttrs copies the attributes of e into the tagged fields of c.
// Unknown attributes are ignored.
func bindAttrs(e *xmltree.Element, c qti.Component) error {
	v := reflect.ValueOf(c).Elem()
	for _, f := range attrFields(v.Type()) {
		raw, ok := e.Attr(f.name)
		if !ok {
			if f.required {
				return &UnmarshallingError{
					Element: e,
					Message: fmt.Sprintf("the mandatory attribute '%s' is missing from element '%s'", f.name, e.Name),
					Cause:   ErrMissingAttribute,
				}
			}
			if !f.hasDef {
				continue
			}
			raw = f.def
		}
		fv := v.FieldByIndex(f.index)
		if strings.TrimSpace(raw) == "" && typedText(fv.Type()) {
			return &UnmarshallingError{
				Element: e,
				Message: fmt.Sprintf("empty value for attribute '%s' of element '%s'", f.name, e.Name),
				Cause:   fmt.Errorf("%w: %w", ErrInvalidAttribute, datatype.ErrInvalidValue),
			}
		}
		if err := setField(fv, raw); err != nil {
			return &UnmarshallingError{
				Element: e,
				Message: fmt.Sprintf("invalid value '%s' for attribute '%s' of element '%s'", raw, f.name, e.Name),
				Cause:   fmt.Errorf("%w: %w", ErrInvalidAttribute, err),
			}
		}
	}
	return nil
}

// typedText reports whether t parses its text through encoding.TextUnmarshaler.
// Such values (identifiers, enumerations, coordinates) have no empty form.
// The empty URI is a valid same-document reference.
func typedText(t reflect.Type) bool {
	if t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	return t != uriType && reflect.PointerTo(t).Implements(textUnmarshalerType)
}

func setField(fv reflect.Value, raw string) error {
	if fv.Kind() == reflect.Pointer {
		if fv.IsNil() {
			fv.Set(reflect.New(fv.Type().Elem()))
		}
		if u, ok := fv.Interface().(encoding.TextUnmarshaler); ok {
			return u.UnmarshalText([]byte(raw))
		}
		fv = fv.Elem()
	}
	if reflect.PointerTo(fv.Type()).Implements(textUnmarshalerType) {
		return fv.Addr().Interface().(encoding.TextUnmarshaler).UnmarshalText([]byte(raw))
	}

	switch fv.Kind() {
	case reflect.String:
		fv.SetString(raw)
	case reflect.Int:
		n, err := strconv.Atoi(strings.TrimSpace(raw))
		if err != nil {
			return fmt.Errorf("%w: %q is not an integer", datatype.ErrInvalidValue, raw)
		}
		fv.SetInt(int64(n))
	case reflect.Float64:
		n, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
		if err != nil {
			return fmt.Errorf("%w: %q is not a float", datatype.ErrInvalidValue, raw)
		}
		fv.SetFloat(n)
	case reflect.Bool:
		switch strings.TrimSpace(raw) {
		case "true", "1":
			fv.SetBool(true)
		case "false", "0":
			fv.SetBool(false)
		default:
			return fmt.Errorf("%w: %q is not a boolean", datatype.ErrInvalidValue, raw)
		}
	case reflect.Slice:
		items := strings.Fields(raw)
		out := reflect.MakeSlice(fv.Type(), len(items), len(items))
		for i, item := range items {
			if err := setField(out.Index(i), item); err != nil {
				return err
			}
		}
		fv.Set(out)
	default:
		return fmt.Errorf("unsupported attribute field type %s", fv.Type())
	}
	return nil
}

// writeAttrs sets the attributes of el from the tagged fields of c, in
// field order. Mandatory attributes are always written; others are omitted
// when unset or equal to their default.
func writeAttrs(c qti.Component, el *xmltree.Element) error {
	v := reflect.ValueOf(c).Elem()
	for _, f := range attrFields(v.Type()) {
		fv := v.FieldByIndex(f.index)
		text, err := formatField(fv)
		if err != nil {
			return &MarshallingError{
				Component: c,
				Message:   fmt.Sprintf("cannot format attribute '%s' of '%s'", f.name, c.ClassName()),
				Cause:     err,
			}
		}
		if !f.required {
			if fv.IsZero() && (text == "" || !f.hasDef) {
				continue
			}
			if f.hasDef && text == f.def {
				continue
			}
		}
		el.Attrs = append(el.Attrs, xmltree.Attr{Name: f.name, Value: text})
	}
	return nil
}

func formatField(fv reflect.Value) (string, error) {
	if fv.Kind() == reflect.Pointer && fv.IsNil() {
		return "", nil
	}
	if fv.Type().Implements(textMarshalerType) {
		b, err := fv.Interface().(encoding.TextMarshaler).MarshalText()
		return string(b), err
	}
	switch fv.Kind() {
	case reflect.String:
		return fv.String(), nil
	case reflect.Int:
		return strconv.FormatInt(fv.Int(), 10), nil
	case reflect.Float64:
		return strconv.FormatFloat(fv.Float(), 'g', -1, 64), nil
	case reflect.Bool:
		return strconv.FormatBool(fv.Bool()), nil
	case reflect.Slice:
		items := make([]string, fv.Len())
		for i := range items {
			s, err := formatField(fv.Index(i))
			if err != nil {
				return "", err
			}
			items[i] = s
		}
		return strings.Join(items, " "), nil
	}
	return "", fmt.Errorf("unsupported attribute field type %s", fv.Type())
}
