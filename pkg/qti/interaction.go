package qti

import (
	"fmt"

	"github.com/matzehuels/qtikit/pkg/qti/datatype"
)

// Interaction is implemented by every interaction kind.
type Interaction interface {
	Component
	Response() datatype.Identifier
}

// =============================================================================
// Choices
// =============================================================================

// Prompt is the question text of a block interaction.
type Prompt struct {
	BodyElement
	Content []Component
}

// ClassName returns "prompt".
func (e *Prompt) ClassName() string { return "prompt" }

// Components returns the children of the Prompt in document order.
func (e *Prompt) Components() []Component { return e.Content }

// SetComponents replaces the children of the Prompt.
func (e *Prompt) SetComponents(cs []Component) error { e.Content = cs; return nil }

// SimpleChoice is a choice of a choice or order interaction.
type SimpleChoice struct {
	BodyElement
	Identifier         datatype.Identifier `qti:"identifier,required"`
	Fixed              bool                `qti:"fixed"`
	TemplateIdentifier datatype.Identifier `qti:"templateIdentifier"`
	ShowHide           datatype.ShowHide   `qti:"showHide,default=show"`
	Content            []Component
}

// ClassName returns "simpleChoice".
func (e *SimpleChoice) ClassName() string { return "simpleChoice" }

// Components returns the children of the SimpleChoice in document order.
func (e *SimpleChoice) Components() []Component { return e.Content }

// SetComponents replaces the children of the SimpleChoice.
func (e *SimpleChoice) SetComponents(cs []Component) error { e.Content = cs; return nil }

// SimpleAssociableChoice is a choice that can be associated with others.
type SimpleAssociableChoice struct {
	BodyElement
	Identifier         datatype.Identifier `qti:"identifier,required"`
	MatchMax           int                 `qti:"matchMax,required"`
	MatchMin           int                 `qti:"matchMin"`
	Fixed              bool                `qti:"fixed"`
	TemplateIdentifier datatype.Identifier `qti:"templateIdentifier"`
	ShowHide           datatype.ShowHide   `qti:"showHide,default=show"`
	Content            []Component
}

// ClassName returns "simpleAssociableChoice".
func (e *SimpleAssociableChoice) ClassName() string { return "simpleAssociableChoice" }

// Components returns the children of the SimpleAssociableChoice in document order.
func (e *SimpleAssociableChoice) Components() []Component { return e.Content }

// SetComponents replaces the children of the SimpleAssociableChoice.
func (e *SimpleAssociableChoice) SetComponents(cs []Component) error { e.Content = cs; return nil }

// SimpleMatchSet is one of the two sets of a match interaction.
type SimpleMatchSet struct {
	BodyElement
	Choices []*SimpleAssociableChoice
}

// ClassName returns "simpleMatchSet".
func (e *SimpleMatchSet) ClassName() string { return "simpleMatchSet" }

// Components returns the children of the SimpleMatchSet in document order.
func (e *SimpleMatchSet) Components() []Component { return components(e.Choices) }

// SetComponents replaces the children of the SimpleMatchSet.
func (e *SimpleMatchSet) SetComponents(cs []Component) (err error) {
	e.Choices, err = only[*SimpleAssociableChoice](e, cs)
	return err
}

// InlineChoice is an option of an inline choice interaction.
type InlineChoice struct {
	BodyElement
	Identifier         datatype.Identifier `qti:"identifier,required"`
	Fixed              bool                `qti:"fixed"`
	TemplateIdentifier datatype.Identifier `qti:"templateIdentifier"`
	ShowHide           datatype.ShowHide   `qti:"showHide,default=show"`
	Content            []Component
}

// ClassName returns "inlineChoice".
func (e *InlineChoice) ClassName() string { return "inlineChoice" }

// Components returns the children of the InlineChoice in document order.
func (e *InlineChoice) Components() []Component { return e.Content }

// SetComponents replaces the children of the InlineChoice.
func (e *InlineChoice) SetComponents(cs []Component) error { e.Content = cs; return nil }

// HotspotChoice is an area of a graphic interaction.
type HotspotChoice struct {
	BodyElement
	Identifier         datatype.Identifier `qti:"identifier,required"`
	Shape              datatype.Shape      `qti:"shape,required"`
	Coords             *datatype.Coords    `qti:"coords,required"`
	HotspotLabel       string              `qti:"hotspotLabel"`
	Fixed              bool                `qti:"fixed"`
	TemplateIdentifier datatype.Identifier `qti:"templateIdentifier"`
	ShowHide           datatype.ShowHide   `qti:"showHide,default=show"`
}

// ClassName returns "hotspotChoice".
func (e *HotspotChoice) ClassName() string { return "hotspotChoice" }

// Validate checks the coordinates against the shape attribute.
func (e *HotspotChoice) Validate() error {
	if e.Coords == nil {
		return fmt.Errorf("%w: hotspotChoice has no coords", datatype.ErrInvalidValue)
	}
	e.Coords.Shape = e.Shape
	return e.Coords.Validate()
}

// =============================================================================
// Block interactions
// =============================================================================

// promptSlots splits children into an optional leading prompt and the rest.
func promptSlots(parent Component, cs []Component) (*Prompt, []Component, error) {
	var prompt *Prompt
	rest := make([]Component, 0, len(cs))
	for _, c := range cs {
		if p, ok := c.(*Prompt); ok {
			if prompt != nil || len(rest) > 0 {
				return nil, nil, unexpected(parent, c)
			}
			prompt = p
			continue
		}
		rest = append(rest, c)
	}
	return prompt, rest, nil
}

func withPrompt(p *Prompt, rest ...Component) []Component {
	if p == nil {
		return rest
	}
	return append([]Component{p}, rest...)
}

// ChoiceInteraction presents a set of choices to select from.
type ChoiceInteraction struct {
	BodyElement
	ResponseIdentifier datatype.Identifier  `qti:"responseIdentifier,required"`
	Shuffle            bool                 `qti:"shuffle"`
	MaxChoices         int                  `qti:"maxChoices,default=1"`
	MinChoices         int                  `qti:"minChoices"`
	Orientation        datatype.Orientation `qti:"orientation"`
	Prompt             *Prompt
	Choices            []*SimpleChoice
}

// ClassName returns "choiceInteraction".
func (e *ChoiceInteraction) ClassName() string { return "choiceInteraction" }

// Response returns the identifier of the bound response variable.
func (e *ChoiceInteraction) Response() datatype.Identifier { return e.ResponseIdentifier }

// Components returns the children of the ChoiceInteraction in document order.
func (e *ChoiceInteraction) Components() []Component {
	return withPrompt(e.Prompt, components(e.Choices)...)
}

// SetComponents replaces the children of the ChoiceInteraction.
func (e *ChoiceInteraction) SetComponents(cs []Component) error {
	prompt, rest, err := promptSlots(e, cs)
	if err != nil {
		return err
	}
	choices, err := only[*SimpleChoice](e, rest)
	if err != nil {
		return err
	}
	e.Prompt, e.Choices = prompt, choices
	return nil
}

// OrderInteraction asks the candidate to order a set of choices.
type OrderInteraction struct {
	BodyElement
	ResponseIdentifier datatype.Identifier  `qti:"responseIdentifier,required"`
	Shuffle            bool                 `qti:"shuffle"`
	MinChoices         int                  `qti:"minChoices"`
	MaxChoices         int                  `qti:"maxChoices"`
	Orientation        datatype.Orientation `qti:"orientation"`
	Prompt             *Prompt
	Choices            []*SimpleChoice
}

// ClassName returns "orderInteraction".
func (e *OrderInteraction) ClassName() string { return "orderInteraction" }

// Response returns the identifier of the bound response variable.
func (e *OrderInteraction) Response() datatype.Identifier { return e.ResponseIdentifier }

// Components returns the children of the OrderInteraction in document order.
func (e *OrderInteraction) Components() []Component {
	return withPrompt(e.Prompt, components(e.Choices)...)
}

// SetComponents replaces the children of the OrderInteraction.
func (e *OrderInteraction) SetComponents(cs []Component) error {
	prompt, rest, err := promptSlots(e, cs)
	if err != nil {
		return err
	}
	choices, err := only[*SimpleChoice](e, rest)
	if err != nil {
		return err
	}
	e.Prompt, e.Choices = prompt, choices
	return nil
}

// AssociateInteraction asks the candidate to pair choices.
type AssociateInteraction struct {
	BodyElement
	ResponseIdentifier datatype.Identifier `qti:"responseIdentifier,required"`
	Shuffle            bool                `qti:"shuffle"`
	MaxAssociations    int                 `qti:"maxAssociations,default=1"`
	MinAssociations    int                 `qti:"minAssociations"`
	Prompt             *Prompt
	Choices            []*SimpleAssociableChoice
}

// ClassName returns "associateInteraction".
func (e *AssociateInteraction) ClassName() string { return "associateInteraction" }

// Response returns the identifier of the bound response variable.
func (e *AssociateInteraction) Response() datatype.Identifier { return e.ResponseIdentifier }

// Components returns the children of the AssociateInteraction in document order.
func (e *AssociateInteraction) Components() []Component {
	return withPrompt(e.Prompt, components(e.Choices)...)
}

// SetComponents replaces the children of the AssociateInteraction.
func (e *AssociateInteraction) SetComponents(cs []Component) error {
	prompt, rest, err := promptSlots(e, cs)
	if err != nil {
		return err
	}
	choices, err := only[*SimpleAssociableChoice](e, rest)
	if err != nil {
		return err
	}
	e.Prompt, e.Choices = prompt, choices
	return nil
}

// MatchInteraction asks the candidate to match the choices of two sets.
type MatchInteraction struct {
	BodyElement
	ResponseIdentifier datatype.Identifier `qti:"responseIdentifier,required"`
	Shuffle            bool                `qti:"shuffle"`
	MaxAssociations    int                 `qti:"maxAssociations,default=1"`
	MinAssociations    int                 `qti:"minAssociations"`
	Prompt             *Prompt
	Sets               []*SimpleMatchSet
}

// ClassName returns "matchInteraction".
func (e *MatchInteraction) ClassName() string { return "matchInteraction" }

// Response returns the identifier of the bound response variable.
func (e *MatchInteraction) Response() datatype.Identifier { return e.ResponseIdentifier }

// Components returns the children of the MatchInteraction in document order.
func (e *MatchInteraction) Components() []Component {
	return withPrompt(e.Prompt, components(e.Sets)...)
}

// SetComponents replaces the children of the MatchInteraction.
func (e *MatchInteraction) SetComponents(cs []Component) error {
	prompt, rest, err := promptSlots(e, cs)
	if err != nil {
		return err
	}
	sets, err := only[*SimpleMatchSet](e, rest)
	if err != nil {
		return err
	}
	if len(sets) != 2 {
		return fmt.Errorf("%w: matchInteraction needs exactly 2 simpleMatchSet, got %d", ErrUnexpectedChild, len(sets))
	}
	e.Prompt, e.Sets = prompt, sets
	return nil
}

// =============================================================================
// Text interactions
// =============================================================================

// TextEntryInteraction is an inline text field.
type TextEntryInteraction struct {
	BodyElement
	ResponseIdentifier datatype.Identifier `qti:"responseIdentifier,required"`
	Base               int                 `qti:"base,default=10"`
	StringIdentifier   datatype.Identifier `qti:"stringIdentifier"`
	ExpectedLength     int                 `qti:"expectedLength"`
	PatternMask        string              `qti:"patternMask"`
	PlaceholderText    string              `qti:"placeholderText"`
}

// ClassName returns "textEntryInteraction".
func (e *TextEntryInteraction) ClassName() string { return "textEntryInteraction" }

// Response returns the identifier of the bound response variable.
func (e *TextEntryInteraction) Response() datatype.Identifier { return e.ResponseIdentifier }

// ExtendedTextInteraction is a multi-line text field.
type ExtendedTextInteraction struct {
	BodyElement
	ResponseIdentifier datatype.Identifier `qti:"responseIdentifier,required"`
	Base               int                 `qti:"base,default=10"`
	StringIdentifier   datatype.Identifier `qti:"stringIdentifier"`
	ExpectedLength     int                 `qti:"expectedLength"`
	PatternMask        string              `qti:"patternMask"`
	PlaceholderText    string              `qti:"placeholderText"`
	MaxStrings         int                 `qti:"maxStrings"`
	MinStrings         int                 `qti:"minStrings"`
	ExpectedLines      int                 `qti:"expectedLines"`
	Format             datatype.TextFormat `qti:"format,default=plain"`
	Prompt             *Prompt
}

// ClassName returns "extendedTextInteraction".
func (e *ExtendedTextInteraction) ClassName() string { return "extendedTextInteraction" }

// Response returns the identifier of the bound response variable.
func (e *ExtendedTextInteraction) Response() datatype.Identifier { return e.ResponseIdentifier }

// Components returns the children of the ExtendedTextInteraction in document order.
func (e *ExtendedTextInteraction) Components() []Component { return withPrompt(e.Prompt) }

// SetComponents replaces the children of the ExtendedTextInteraction.
func (e *ExtendedTextInteraction) SetComponents(cs []Component) error {
	prompt, rest, err := promptSlots(e, cs)
	if err != nil {
		return err
	}
	if len(rest) > 0 {
		return unexpected(e, rest[0])
	}
	e.Prompt = prompt
	return nil
}

// InlineChoiceInteraction is an inline drop-down list.
type InlineChoiceInteraction struct {
	BodyElement
	ResponseIdentifier datatype.Identifier `qti:"responseIdentifier,required"`
	Shuffle            bool                `qti:"shuffle"`
	Required           bool                `qti:"required"`
	Choices            []*InlineChoice
}

// ClassName returns "inlineChoiceInteraction".
func (e *InlineChoiceInteraction) ClassName() string { return "inlineChoiceInteraction" }

// Response returns the identifier of the bound response variable.
func (e *InlineChoiceInteraction) Response() datatype.Identifier { return e.ResponseIdentifier }

// Components returns the children of the InlineChoiceInteraction in document order.
func (e *InlineChoiceInteraction) Components() []Component { return components(e.Choices) }

// SetComponents replaces the children of the InlineChoiceInteraction.
func (e *InlineChoiceInteraction) SetComponents(cs []Component) (err error) {
	e.Choices, err = only[*InlineChoice](e, cs)
	return err
}

// =============================================================================
// Miscellaneous interactions
// =============================================================================

// SliderInteraction selects a numeric value on a slider.
type SliderInteraction struct {
	BodyElement
	ResponseIdentifier datatype.Identifier  `qti:"responseIdentifier,required"`
	LowerBound         float64              `qti:"lowerBound,required"`
	UpperBound         float64              `qti:"upperBound,required"`
	Step               int                  `qti:"step"`
	StepLabel          bool                 `qti:"stepLabel"`
	Orientation        datatype.Orientation `qti:"orientation"`
	Reverse            bool                 `qti:"reverse"`
	Prompt             *Prompt
}

// ClassName returns "sliderInteraction".
func (e *SliderInteraction) ClassName() string { return "sliderInteraction" }

// Response returns the identifier of the bound response variable.
func (e *SliderInteraction) Response() datatype.Identifier { return e.ResponseIdentifier }

// Components returns the children of the SliderInteraction in document order.
func (e *SliderInteraction) Components() []Component { return withPrompt(e.Prompt) }

// SetComponents replaces the children of the SliderInteraction.
func (e *SliderInteraction) SetComponents(cs []Component) error {
	prompt, rest, err := promptSlots(e, cs)
	if err != nil {
		return err
	}
	if len(rest) > 0 {
		return unexpected(e, rest[0])
	}
	e.Prompt = prompt
	return nil
}

// Validate checks that the bounds are ordered.
func (e *SliderInteraction) Validate() error {
	if e.UpperBound < e.LowerBound {
		return fmt.Errorf("%w: upperBound %v is lower than lowerBound %v", datatype.ErrInvalidValue, e.UpperBound, e.LowerBound)
	}
	return nil
}

// UploadInteraction asks the candidate to upload a file.
type UploadInteraction struct {
	BodyElement
	ResponseIdentifier datatype.Identifier `qti:"responseIdentifier,required"`
	Type               string              `qti:"type"`
	Prompt             *Prompt
}

// ClassName returns "uploadInteraction".
func (e *UploadInteraction) ClassName() string { return "uploadInteraction" }

// Response returns the identifier of the bound response variable.
func (e *UploadInteraction) Response() datatype.Identifier { return e.ResponseIdentifier }

// Components returns the children of the UploadInteraction in document order.
func (e *UploadInteraction) Components() []Component { return withPrompt(e.Prompt) }

// SetComponents replaces the children of the UploadInteraction.
func (e *UploadInteraction) SetComponents(cs []Component) error {
	prompt, rest, err := promptSlots(e, cs)
	if err != nil {
		return err
	}
	if len(rest) > 0 {
		return unexpected(e, rest[0])
	}
	e.Prompt = prompt
	return nil
}

// objectSlots splits children into an optional prompt, exactly one object
// and the remaining components.
func objectSlots(parent Component, cs []Component) (*Prompt, *Object, []Component, error) {
	prompt, rest, err := promptSlots(parent, cs)
	if err != nil {
		return nil, nil, nil, err
	}
	if len(rest) == 0 {
		return nil, nil, nil, fmt.Errorf("%w: '%s' needs an object", ErrUnexpectedChild, parent.ClassName())
	}
	obj, ok := rest[0].(*Object)
	if !ok {
		return nil, nil, nil, unexpected(parent, rest[0])
	}
	return prompt, obj, rest[1:], nil
}

// MediaInteraction plays a media object and records how often it is played.
type MediaInteraction struct {
	BodyElement
	ResponseIdentifier datatype.Identifier `qti:"responseIdentifier,required"`
	Autostart          bool                `qti:"autostart,required"`
	MinPlays           int                 `qti:"minPlays"`
	MaxPlays           int                 `qti:"maxPlays"`
	Loop               bool                `qti:"loop"`
	Prompt             *Prompt
	Object             *Object
}

// ClassName returns "mediaInteraction".
func (e *MediaInteraction) ClassName() string { return "mediaInteraction" }

// Response returns the identifier of the bound response variable.
func (e *MediaInteraction) Response() datatype.Identifier { return e.ResponseIdentifier }

// Components returns the children of the MediaInteraction in document order.
func (e *MediaInteraction) Components() []Component { return withPrompt(e.Prompt, e.Object) }

// SetComponents replaces the children of the MediaInteraction.
func (e *MediaInteraction) SetComponents(cs []Component) error {
	prompt, obj, rest, err := objectSlots(e, cs)
	if err != nil {
		return err
	}
	if len(rest) > 0 {
		return unexpected(e, rest[0])
	}
	e.Prompt, e.Object = prompt, obj
	return nil
}

// DrawingInteraction asks the candidate to draw on an image.
type DrawingInteraction struct {
	BodyElement
	ResponseIdentifier datatype.Identifier `qti:"responseIdentifier,required"`
	Prompt             *Prompt
	Object             *Object
}

// ClassName returns "drawingInteraction".
func (e *DrawingInteraction) ClassName() string { return "drawingInteraction" }

// Response returns the identifier of the bound response variable.
func (e *DrawingInteraction) Response() datatype.Identifier { return e.ResponseIdentifier }

// Components returns the children of the DrawingInteraction in document order.
func (e *DrawingInteraction) Components() []Component { return withPrompt(e.Prompt, e.Object) }

// SetComponents replaces the children of the DrawingInteraction.
func (e *DrawingInteraction) SetComponents(cs []Component) error {
	prompt, obj, rest, err := objectSlots(e, cs)
	if err != nil {
		return err
	}
	if len(rest) > 0 {
		return unexpected(e, rest[0])
	}
	e.Prompt, e.Object = prompt, obj
	return nil
}

// =============================================================================
// Graphic interactions
// =============================================================================

// HotspotInteraction selects areas of an image.
type HotspotInteraction struct {
	BodyElement
	ResponseIdentifier datatype.Identifier `qti:"responseIdentifier,required"`
	MaxChoices         int                 `qti:"maxChoices,default=1"`
	MinChoices         int                 `qti:"minChoices"`
	Prompt             *Prompt
	Object             *Object
	Choices            []*HotspotChoice
}

// ClassName returns "hotspotInteraction".
func (e *HotspotInteraction) ClassName() string { return "hotspotInteraction" }

// Response returns the identifier of the bound response variable.
func (e *HotspotInteraction) Response() datatype.Identifier { return e.ResponseIdentifier }

// Components returns the children of the HotspotInteraction in document order.
func (e *HotspotInteraction) Components() []Component {
	return withPrompt(e.Prompt, append([]Component{e.Object}, components(e.Choices)...)...)
}

// SetComponents replaces the children of the HotspotInteraction.
func (e *HotspotInteraction) SetComponents(cs []Component) error {
	prompt, obj, rest, err := objectSlots(e, cs)
	if err != nil {
		return err
	}
	choices, err := only[*HotspotChoice](e, rest)
	if err != nil {
		return err
	}
	e.Prompt, e.Object, e.Choices = prompt, obj, choices
	return nil
}

// SelectPointInteraction selects points on an image.
type SelectPointInteraction struct {
	BodyElement
	ResponseIdentifier datatype.Identifier `qti:"responseIdentifier,required"`
	MaxChoices         int                 `qti:"maxChoices,default=1"`
	MinChoices         int                 `qti:"minChoices"`
	Prompt             *Prompt
	Object             *Object
}

// ClassName returns "selectPointInteraction".
func (e *SelectPointInteraction) ClassName() string { return "selectPointInteraction" }

// Response returns the identifier of the bound response variable.
func (e *SelectPointInteraction) Response() datatype.Identifier { return e.ResponseIdentifier }

// Components returns the children of the SelectPointInteraction in document order.
func (e *SelectPointInteraction) Components() []Component { return withPrompt(e.Prompt, e.Object) }

// SetComponents replaces the children of the SelectPointInteraction.
func (e *SelectPointInteraction) SetComponents(cs []Component) error {
	prompt, obj, rest, err := objectSlots(e, cs)
	if err != nil {
		return err
	}
	if len(rest) > 0 {
		return unexpected(e, rest[0])
	}
	e.Prompt, e.Object = prompt, obj
	return nil
}

// GraphicOrderInteraction orders hotspots of an image.
type GraphicOrderInteraction struct {
	BodyElement
	ResponseIdentifier datatype.Identifier `qti:"responseIdentifier,required"`
	MinChoices         int                 `qti:"minChoices"`
	MaxChoices         int                 `qti:"maxChoices"`
	Prompt             *Prompt
	Object             *Object
	Choices            []*HotspotChoice
}

// ClassName returns "graphicOrderInteraction".
func (e *GraphicOrderInteraction) ClassName() string { return "graphicOrderInteraction" }

// Response returns the identifier of the bound response variable.
func (e *GraphicOrderInteraction) Response() datatype.Identifier { return e.ResponseIdentifier }

// Components returns the children of the GraphicOrderInteraction in document order.
func (e *GraphicOrderInteraction) Components() []Component {
	return withPrompt(e.Prompt, append([]Component{e.Object}, components(e.Choices)...)...)
}

// SetComponents replaces the children of the GraphicOrderInteraction.
func (e *GraphicOrderInteraction) SetComponents(cs []Component) error {
	prompt, obj, rest, err := objectSlots(e, cs)
	if err != nil {
		return err
	}
	choices, err := only[*HotspotChoice](e, rest)
	if err != nil {
		return err
	}
	e.Prompt, e.Object, e.Choices = prompt, obj, choices
	return nil
}

// =============================================================================
// Opaque content
// =============================================================================

// Raw is a component kept as its original markup: MathML, custom
// interactions and interaction kinds without a dedicated model.
type Raw struct {
	kind   string
	Source string
}

// NewRaw creates an opaque component. source is the serialized element.
func NewRaw(kind, source string) *Raw { return &Raw{kind: kind, Source: source} }

// ClassName returns the tag name the Raw was created for.
func (e *Raw) ClassName() string { return e.kind }
