package qti

import (
	"fmt"

	"github.com/matzehuels/qtikit/pkg/qti/datatype"
)

// ResponseRule is implemented by rules allowed in response processing.
type ResponseRule interface {
	Component
	responseRule()
}

// ResponseProcessing holds the response rules of an item, or refers to a
// standard template.
type ResponseProcessing struct {
	Template         datatype.URI `qti:"template"`
	TemplateLocation datatype.URI `qti:"templateLocation"`
	Rules            []ResponseRule
}

// ClassName returns "responseProcessing".
func (e *ResponseProcessing) ClassName() string { return "responseProcessing" }

// Components returns the children of the ResponseProcessing in document order.
func (e *ResponseProcessing) Components() []Component { return components(e.Rules) }

// SetComponents replaces the children of the ResponseProcessing.
func (e *ResponseProcessing) SetComponents(cs []Component) (err error) {
	e.Rules, err = only[ResponseRule](e, cs)
	return err
}

// ResponseCondition is an if/else-if/else chain.
type ResponseCondition struct {
	If      *ResponseIf
	ElseIfs []*ResponseElseIf
	Else    *ResponseElse
}

// ClassName returns "responseCondition".
func (e *ResponseCondition) ClassName() string { return "responseCondition" }
func (e *ResponseCondition) responseRule()     {}

// Components returns the children of the ResponseCondition in document order.
func (e *ResponseCondition) Components() []Component {
	var out []Component
	if e.If != nil {
		out = append(out, e.If)
	}
	out = append(out, components(e.ElseIfs)...)
	if e.Else != nil {
		out = append(out, e.Else)
	}
	return out
}

// SetComponents replaces the children of the ResponseCondition.
func (e *ResponseCondition) SetComponents(cs []Component) error {
	e.If, e.ElseIfs, e.Else = nil, nil, nil
	for i, c := range cs {
		switch c := c.(type) {
		case *ResponseIf:
			if i != 0 {
				return unexpected(e, c)
			}
			e.If = c
		case *ResponseElseIf:
			if e.If == nil || e.Else != nil {
				return unexpected(e, c)
			}
			e.ElseIfs = append(e.ElseIfs, c)
		case *ResponseElse:
			if e.If == nil || e.Else != nil {
				return unexpected(e, c)
			}
			e.Else = c
		default:
			return unexpected(e, c)
		}
	}
	if e.If == nil {
		return fmt.Errorf("%w: responseCondition needs a responseIf", ErrUnexpectedChild)
	}
	return nil
}

// ResponseIf is a guarded block of rules.
type ResponseIf struct {
	Condition Expression
	Rules     []ResponseRule
}

// ClassName returns "responseIf".
func (e *ResponseIf) ClassName() string { return "responseIf" }

// Components returns the children of the ResponseIf in document order.
func (e *ResponseIf) Components() []Component {
	if e.Condition == nil {
		return components(e.Rules)
	}
	return append([]Component{e.Condition}, components(e.Rules)...)
}

// SetComponents replaces the children of the ResponseIf.
func (e *ResponseIf) SetComponents(cs []Component) error {
	if len(cs) == 0 {
		return fmt.Errorf("%w: '%s' needs a condition", ErrUnexpectedChild, e.ClassName())
	}
	cond, ok := cs[0].(Expression)
	if !ok {
		return unexpected(e, cs[0])
	}
	rules, err := only[ResponseRule](e, cs[1:])
	if err != nil {
		return err
	}
	e.Condition, e.Rules = cond, rules
	return nil
}

// ResponseElseIf is an alternative guarded block.
type ResponseElseIf struct {
	ResponseIf
}

// ClassName returns "responseElseIf".
func (e *ResponseElseIf) ClassName() string { return "responseElseIf" }

// SetComponents replaces the children of the ResponseElseIf.
func (e *ResponseElseIf) SetComponents(cs []Component) error {
	if len(cs) == 0 {
		return fmt.Errorf("%w: '%s' needs a condition", ErrUnexpectedChild, e.ClassName())
	}
	cond, ok := cs[0].(Expression)
	if !ok {
		return unexpected(e, cs[0])
	}
	rules, err := only[ResponseRule](e, cs[1:])
	if err != nil {
		return err
	}
	e.Condition, e.Rules = cond, rules
	return nil
}

// ResponseElse is the fallback block of a condition.
type ResponseElse struct {
	Rules []ResponseRule
}

// ClassName returns "responseElse".
func (e *ResponseElse) ClassName() string { return "responseElse" }

// Components returns the children of the ResponseElse in document order.
func (e *ResponseElse) Components() []Component { return components(e.Rules) }

// SetComponents replaces the children of the ResponseElse.
func (e *ResponseElse) SetComponents(cs []Component) (err error) {
	e.Rules, err = only[ResponseRule](e, cs)
	return err
}

// SetOutcomeValue assigns the result of an expression to an outcome.
type SetOutcomeValue struct {
	Identifier datatype.Identifier `qti:"identifier,required"`
	Expression Expression
}

// ClassName returns "setOutcomeValue".
func (e *SetOutcomeValue) ClassName() string { return "setOutcomeValue" }
func (e *SetOutcomeValue) responseRule()     {}

// Components returns the children of the SetOutcomeValue in document order.
func (e *SetOutcomeValue) Components() []Component {
	if e.Expression == nil {
		return nil
	}
	return []Component{e.Expression}
}

// SetComponents replaces the children of the SetOutcomeValue.
func (e *SetOutcomeValue) SetComponents(cs []Component) error {
	if len(cs) != 1 {
		return fmt.Errorf("%w: setOutcomeValue needs exactly one expression, got %d", ErrUnexpectedChild, len(cs))
	}
	expr, ok := cs[0].(Expression)
	if !ok {
		return unexpected(e, cs[0])
	}
	e.Expression = expr
	return nil
}

// ExitResponse stops response processing.
type ExitResponse struct{}

// ClassName returns "exitResponse".
func (e *ExitResponse) ClassName() string { return "exitResponse" }
func (e *ExitResponse) responseRule()     {}
