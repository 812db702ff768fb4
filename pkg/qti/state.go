package qti

import (
	"fmt"

	"github.com/matzehuels/qtikit/pkg/qti/datatype"
)

// Declaration is implemented by response and outcome declarations.
type Declaration interface {
	Component
	VariableIdentifier() datatype.Identifier
	VariableBaseType() datatype.BaseType
}

// ResponseDeclaration declares a response variable.
type ResponseDeclaration struct {
	Identifier      datatype.Identifier  `qti:"identifier,required"`
	Cardinality     datatype.Cardinality `qti:"cardinality,required"`
	BaseType        datatype.BaseType    `qti:"baseType"`
	DefaultValue    *DefaultValue
	CorrectResponse *CorrectResponse
	Mapping         *Mapping
}

// ClassName returns "responseDeclaration".
func (e *ResponseDeclaration) ClassName() string { return "responseDeclaration" }

// VariableIdentifier returns the declared identifier.
func (e *ResponseDeclaration) VariableIdentifier() datatype.Identifier { return e.Identifier }

// VariableBaseType returns the declared base type.
func (e *ResponseDeclaration) VariableBaseType() datatype.BaseType { return e.BaseType }

// Components returns the children of the ResponseDeclaration in document order.
func (e *ResponseDeclaration) Components() []Component {
	var out []Component
	if e.DefaultValue != nil {
		out = append(out, e.DefaultValue)
	}
	if e.CorrectResponse != nil {
		out = append(out, e.CorrectResponse)
	}
	if e.Mapping != nil {
		out = append(out, e.Mapping)
	}
	return out
}

// SetComponents replaces the children of the ResponseDeclaration.
func (e *ResponseDeclaration) SetComponents(cs []Component) error {
	e.DefaultValue, e.CorrectResponse, e.Mapping = nil, nil, nil
	for _, c := range cs {
		switch c := c.(type) {
		case *DefaultValue:
			e.DefaultValue = c
		case *CorrectResponse:
			e.CorrectResponse = c
		case *Mapping:
			e.Mapping = c
		default:
			return unexpected(e, c)
		}
	}
	return nil
}

// OutcomeDeclaration declares an outcome variable.
type OutcomeDeclaration struct {
	Identifier         datatype.Identifier  `qti:"identifier,required"`
	Cardinality        datatype.Cardinality `qti:"cardinality,required"`
	BaseType           datatype.BaseType    `qti:"baseType"`
	Views              []datatype.View      `qti:"view"`
	Interpretation     string               `qti:"interpretation"`
	LongInterpretation datatype.URI         `qti:"longInterpretation"`
	NormalMaximum      float64              `qti:"normalMaximum"`
	NormalMinimum      float64              `qti:"normalMinimum"`
	MasteryValue       float64              `qti:"masteryValue"`
	DefaultValue       *DefaultValue
}

// ClassName returns "outcomeDeclaration".
func (e *OutcomeDeclaration) ClassName() string { return "outcomeDeclaration" }

// VariableIdentifier returns the declared identifier.
func (e *OutcomeDeclaration) VariableIdentifier() datatype.Identifier { return e.Identifier }

// VariableBaseType returns the declared base type.
func (e *OutcomeDeclaration) VariableBaseType() datatype.BaseType { return e.BaseType }

// Components returns the children of the OutcomeDeclaration in document order.
func (e *OutcomeDeclaration) Components() []Component {
	if e.DefaultValue == nil {
		return nil
	}
	return []Component{e.DefaultValue}
}

// SetComponents replaces the children of the OutcomeDeclaration.
func (e *OutcomeDeclaration) SetComponents(cs []Component) error {
	e.DefaultValue = nil
	for _, c := range cs {
		dv, ok := c.(*DefaultValue)
		if !ok || e.DefaultValue != nil {
			return unexpected(e, c)
		}
		e.DefaultValue = dv
	}
	return nil
}

// DefaultValue is the initial value of a variable.
type DefaultValue struct {
	Interpretation string `qti:"interpretation"`
	Values         []*Value
}

// ClassName returns "defaultValue".
func (e *DefaultValue) ClassName() string { return "defaultValue" }

// Components returns the children of the DefaultValue in document order.
func (e *DefaultValue) Components() []Component { return components(e.Values) }

// SetComponents replaces the children of the DefaultValue.
func (e *DefaultValue) SetComponents(cs []Component) (err error) {
	e.Values, err = only[*Value](e, cs)
	return err
}

// CorrectResponse is the correct value of a response variable.
type CorrectResponse struct {
	Interpretation string `qti:"interpretation"`
	Values         []*Value
}

// ClassName returns "correctResponse".
func (e *CorrectResponse) ClassName() string { return "correctResponse" }

// Components returns the children of the CorrectResponse in document order.
func (e *CorrectResponse) Components() []Component { return components(e.Values) }

// SetComponents replaces the children of the CorrectResponse.
func (e *CorrectResponse) SetComponents(cs []Component) (err error) {
	e.Values, err = only[*Value](e, cs)
	return err
}

// Value is a single value of a default or correct response. Its text is
// typed by the base type of the enclosing declaration, or by its own
// baseType attribute for record fields.
type Value struct {
	FieldIdentifier datatype.Identifier `qti:"fieldIdentifier"`
	BaseType        datatype.BaseType   `qti:"baseType"`
	Datum           datatype.Value
}

// ClassName returns "value".
func (e *Value) ClassName() string { return "value" }

// Mapping maps response values to scores.
type Mapping struct {
	LowerBound   float64 `qti:"lowerBound"`
	UpperBound   float64 `qti:"upperBound"`
	DefaultValue float64 `qti:"defaultValue"`
	Entries      []*MapEntry
}

// ClassName returns "mapping".
func (e *Mapping) ClassName() string { return "mapping" }

// Components returns the children of the Mapping in document order.
func (e *Mapping) Components() []Component { return components(e.Entries) }

// SetComponents replaces the children of the Mapping.
func (e *Mapping) SetComponents(cs []Component) (err error) {
	e.Entries, err = only[*MapEntry](e, cs)
	return err
}

// MapEntry maps one key to a score.
type MapEntry struct {
	MapKey        string  `qti:"mapKey,required"`
	MappedValue   float64 `qti:"mappedValue,required"`
	CaseSensitive bool    `qti:"caseSensitive"`
}

// ClassName returns "mapEntry".
func (e *MapEntry) ClassName() string { return "mapEntry" }

// ResponseValidityConstraint restricts how many values a response may hold.
type ResponseValidityConstraint struct {
	ResponseIdentifier datatype.Identifier `qti:"responseIdentifier,required"`
	MinConstraint      int                 `qti:"minConstraint,required"`
	MaxConstraint      int                 `qti:"maxConstraint,required"`
	PatternMask        string              `qti:"patternMask"`
}

// ClassName returns "responseValidityConstraint".
func (e *ResponseValidityConstraint) ClassName() string { return "responseValidityConstraint" }

// Validate checks that the constraints are consistent. A maxConstraint of 0
// means unbounded.
func (e *ResponseValidityConstraint) Validate() error {
	if e.MinConstraint < 0 {
		return fmt.Errorf("%w: minConstraint must be non-negative, got %d", datatype.ErrInvalidValue, e.MinConstraint)
	}
	if e.MaxConstraint != 0 && e.MaxConstraint < e.MinConstraint {
		return fmt.Errorf("%w: maxConstraint %d is lower than minConstraint %d", datatype.ErrInvalidValue, e.MaxConstraint, e.MinConstraint)
	}
	return nil
}
