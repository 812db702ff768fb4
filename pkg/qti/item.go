package qti

import (
	"strings"

	"github.com/matzehuels/qtikit/pkg/qti/datatype"
)

// AssessmentItem is the root of a QTI item document.
type AssessmentItem struct {
	Identifier    string `qti:"identifier,required"`
	Title         string `qti:"title,required"`
	Label         string `qti:"label"`
	Lang          string `qti:"xml:lang"`
	Adaptive      bool   `qti:"adaptive,required"`
	TimeDependent bool   `qti:"timeDependent,required"`
	ToolName      string `qti:"toolName"`
	ToolVersion   string `qti:"toolVersion"`

	ResponseDeclarations []*ResponseDeclaration
	OutcomeDeclarations  []*OutcomeDeclaration
	Stylesheets          []*Stylesheet
	ItemBody             *ItemBody
	ResponseProcessing   *ResponseProcessing
	ModalFeedbacks       []*ModalFeedback
}

// ClassName returns "assessmentItem".
func (e *AssessmentItem) ClassName() string { return "assessmentItem" }

// Components returns the children of the AssessmentItem in document order.
func (e *AssessmentItem) Components() []Component {
	var out []Component
	out = append(out, components(e.ResponseDeclarations)...)
	out = append(out, components(e.OutcomeDeclarations)...)
	out = append(out, components(e.Stylesheets)...)
	if e.ItemBody != nil {
		out = append(out, e.ItemBody)
	}
	if e.ResponseProcessing != nil {
		out = append(out, e.ResponseProcessing)
	}
	return append(out, components(e.ModalFeedbacks)...)
}

// SetComponents replaces the children of the AssessmentItem.
func (e *AssessmentItem) SetComponents(cs []Component) error {
	e.ResponseDeclarations, e.OutcomeDeclarations, e.Stylesheets = nil, nil, nil
	e.ItemBody, e.ResponseProcessing, e.ModalFeedbacks = nil, nil, nil
	for _, c := range cs {
		switch c := c.(type) {
		case *ResponseDeclaration:
			e.ResponseDeclarations = append(e.ResponseDeclarations, c)
		case *OutcomeDeclaration:
			e.OutcomeDeclarations = append(e.OutcomeDeclarations, c)
		case *Stylesheet:
			e.Stylesheets = append(e.Stylesheets, c)
		case *ItemBody:
			if e.ItemBody != nil {
				return unexpected(e, c)
			}
			e.ItemBody = c
		case *ResponseProcessing:
			if e.ResponseProcessing != nil {
				return unexpected(e, c)
			}
			e.ResponseProcessing = c
		case *ModalFeedback:
			e.ModalFeedbacks = append(e.ModalFeedbacks, c)
		default:
			return unexpected(e, c)
		}
	}
	return nil
}

// Interactions returns the interactions of the item body in document order.
func (e *AssessmentItem) Interactions() []Interaction {
	if e.ItemBody == nil {
		return nil
	}
	var out []Interaction
	for c := range Descendants(e.ItemBody) {
		if i, ok := c.(Interaction); ok {
			out = append(out, i)
		}
	}
	return out
}

// ResponseDeclaration returns the declaration with the given identifier.
func (e *AssessmentItem) ResponseDeclaration(id datatype.Identifier) *ResponseDeclaration {
	for _, d := range e.ResponseDeclarations {
		if d.Identifier == id {
			return d
		}
	}
	return nil
}

// ItemBody holds the block content presented to the candidate.
type ItemBody struct {
	BodyElement
	Content []Component
}

// ClassName returns "itemBody".
func (e *ItemBody) ClassName() string { return "itemBody" }

// Components returns the children of the ItemBody in document order.
func (e *ItemBody) Components() []Component { return e.Content }

// SetComponents replaces the children of the ItemBody.
func (e *ItemBody) SetComponents(cs []Component) error { e.Content = cs; return nil }

// ModalFeedback is feedback shown after response processing.
type ModalFeedback struct {
	OutcomeIdentifier datatype.Identifier `qti:"outcomeIdentifier,required"`
	Identifier        datatype.Identifier `qti:"identifier,required"`
	ShowHide          datatype.ShowHide   `qti:"showHide,required"`
	Title             string              `qti:"title"`
	Content           []Component
}

// ClassName returns "modalFeedback".
func (e *ModalFeedback) ClassName() string { return "modalFeedback" }

// Components returns the children of the ModalFeedback in document order.
func (e *ModalFeedback) Components() []Component { return e.Content }

// SetComponents replaces the children of the ModalFeedback.
func (e *ModalFeedback) SetComponents(cs []Component) error { e.Content = cs; return nil }

// RubricBlock is content visible only to the listed views.
type RubricBlock struct {
	BodyElement
	Views       []datatype.View `qti:"view,required"`
	Stylesheets []*Stylesheet
	Content     []Component
}

// ClassName returns "rubricBlock".
func (e *RubricBlock) ClassName() string { return "rubricBlock" }

// Components returns the children of the RubricBlock in document order.
func (e *RubricBlock) Components() []Component {
	return append(components(e.Stylesheets), e.Content...)
}

// SetComponents replaces the children of the RubricBlock.
func (e *RubricBlock) SetComponents(cs []Component) error {
	e.Stylesheets, e.Content = nil, nil
	body := false
	for _, c := range cs {
		if s, ok := c.(*Stylesheet); ok && !body {
			e.Stylesheets = append(e.Stylesheets, s)
			continue
		}
		if t, ok := c.(*TextRun); !ok || strings.TrimSpace(t.Content) != "" {
			body = true
		}
		e.Content = append(e.Content, c)
	}
	return nil
}

// Stylesheet links an external style sheet.
type Stylesheet struct {
	Href  datatype.URI `qti:"href,required"`
	Type  string       `qti:"type,required"`
	Media string       `qti:"media"`
	Title string       `qti:"title"`
}

// ClassName returns "stylesheet".
func (e *Stylesheet) ClassName() string { return "stylesheet" }
