package qti

import "github.com/matzehuels/qtikit/pkg/qti/datatype"

// Expression is implemented by every expression and operator kind.
type Expression interface {
	Component
	expression()
}

// BaseValue is a constant typed by its baseType attribute.
type BaseValue struct {
	BaseType datatype.BaseType `qti:"baseType,required"`
	Datum    datatype.Value
}

// ClassName returns "baseValue".
func (e *BaseValue) ClassName() string { return "baseValue" }
func (e *BaseValue) expression()       {}

// Variable looks up the value of an item variable.
type Variable struct {
	Identifier       datatype.Identifier `qti:"identifier,required"`
	WeightIdentifier datatype.Identifier `qti:"weightIdentifier"`
}

// ClassName returns "variable".
func (e *Variable) ClassName() string { return "variable" }
func (e *Variable) expression()       {}

// Correct looks up the correct response of a response variable.
type Correct struct {
	Identifier datatype.Identifier `qti:"identifier,required"`
}

// ClassName returns "correct".
func (e *Correct) ClassName() string { return "correct" }
func (e *Correct) expression()       {}

// Default looks up the default value of a variable.
type Default struct {
	Identifier datatype.Identifier `qti:"identifier,required"`
}

// ClassName returns "default".
func (e *Default) ClassName() string { return "default" }
func (e *Default) expression()       {}

// Null is the NULL value.
type Null struct{}

// ClassName returns "null".
func (e *Null) ClassName() string { return "null" }
func (e *Null) expression()       {}

// operatorKinds lists the operators modelled by Operator.
var operatorKinds = []string{
	"and", "or", "not", "match", "isNull", "sum", "product", "subtract", "divide",
	"gt", "lt", "gte", "lte", "multiple", "ordered", "member", "delete", "contains",
	"containerSize", "random",
}

// OperatorKinds returns the operator kind tags.
func OperatorKinds() []string {
	return append([]string(nil), operatorKinds...)
}

// Operator applies an operator to sub-expressions.
type Operator struct {
	kind     string
	Operands []Expression
}

// NewOperator creates an operator of the given kind.
func NewOperator(kind string, operands ...Expression) *Operator {
	return &Operator{kind: kind, Operands: operands}
}

// ClassName returns the tag name the Operator was created for.
func (e *Operator) ClassName() string { return e.kind }
func (e *Operator) expression()       {}

// Components returns the children of the Operator in document order.
func (e *Operator) Components() []Component { return components(e.Operands) }

// SetComponents replaces the children of the Operator.
func (e *Operator) SetComponents(cs []Component) (err error) {
	e.Operands, err = only[Expression](e, cs)
	return err
}
