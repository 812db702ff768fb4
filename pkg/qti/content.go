package qti

import "github.com/matzehuels/qtikit/pkg/qti/datatype"

// =============================================================================
// Inline content
// =============================================================================

// Inline is a simple inline element: abbr, acronym, b, big, cite, code, dfn,
// em, i, kbd, samp, small, span, strong, sub, sup, tt or var.
type Inline struct {
	BodyElement
	kind    string
	Content []Component
}

// NewInline creates an inline element of the given kind.
func NewInline(kind string) *Inline { return &Inline{kind: kind} }

// ClassName returns the tag name the Inline was created for.
func (e *Inline) ClassName() string { return e.kind }

// Components returns the children of the Inline in document order.
func (e *Inline) Components() []Component { return e.Content }

// SetComponents replaces the children of the Inline.
func (e *Inline) SetComponents(cs []Component) error { e.Content = cs; return nil }

// A is a hyperlink.
type A struct {
	BodyElement
	Href    datatype.URI `qti:"href,required"`
	Type    string       `qti:"type"`
	Content []Component
}

// ClassName returns "a".
func (e *A) ClassName() string { return "a" }

// Components returns the children of the A in document order.
func (e *A) Components() []Component { return e.Content }

// SetComponents replaces the children of the A.
func (e *A) SetComponents(cs []Component) error { e.Content = cs; return nil }

// Q is an inline quotation.
type Q struct {
	BodyElement
	Cite    datatype.URI `qti:"cite"`
	Content []Component
}

// ClassName returns "q".
func (e *Q) ClassName() string { return "q" }

// Components returns the children of the Q in document order.
func (e *Q) Components() []Component { return e.Content }

// SetComponents replaces the children of the Q.
func (e *Q) SetComponents(cs []Component) error { e.Content = cs; return nil }

// FeedbackInline is feedback shown inline depending on an outcome value.
type FeedbackInline struct {
	BodyElement
	OutcomeIdentifier datatype.Identifier `qti:"outcomeIdentifier,required"`
	Identifier        datatype.Identifier `qti:"identifier,required"`
	ShowHide          datatype.ShowHide   `qti:"showHide,required"`
	Content           []Component
}

// ClassName returns "feedbackInline".
func (e *FeedbackInline) ClassName() string { return "feedbackInline" }

// Components returns the children of the FeedbackInline in document order.
func (e *FeedbackInline) Components() []Component { return e.Content }

// SetComponents replaces the children of the FeedbackInline.
func (e *FeedbackInline) SetComponents(cs []Component) error { e.Content = cs; return nil }

// Br is a line break.
type Br struct {
	BodyElement
}

// ClassName returns "br".
func (e *Br) ClassName() string { return "br" }

// Img is an image.
type Img struct {
	BodyElement
	Src      datatype.URI `qti:"src,required"`
	Alt      string       `qti:"alt,required"`
	Longdesc datatype.URI `qti:"longdesc"`
	Height   string       `qti:"height"`
	Width    string       `qti:"width"`
}

// ClassName returns "img".
func (e *Img) ClassName() string { return "img" }

// Object embeds external media. Its content is the fallback markup and any
// param children.
type Object struct {
	BodyElement
	Data    string `qti:"data,required"`
	Type    string `qti:"type,required"`
	Width   string `qti:"width"`
	Height  string `qti:"height"`
	Content []Component
}

// ClassName returns "object".
func (e *Object) ClassName() string { return "object" }

// Components returns the children of the Object in document order.
func (e *Object) Components() []Component { return e.Content }

// SetComponents replaces the children of the Object.
func (e *Object) SetComponents(cs []Component) error { e.Content = cs; return nil }

// Param is a parameter of an object.
type Param struct {
	Name      string             `qti:"name,required"`
	Value     string             `qti:"value,required"`
	ValueType datatype.ParamType `qti:"valuetype,default=DATA"`
	Type      string             `qti:"type"`
}

// ClassName returns "param".
func (e *Param) ClassName() string { return "param" }

// PrintedVariable prints the value of an outcome or template variable.
type PrintedVariable struct {
	BodyElement
	Identifier       datatype.Identifier `qti:"identifier,required"`
	Format           string              `qti:"format"`
	Base             int                 `qti:"base,default=10"`
	Index            string              `qti:"index"`
	PowerForm        bool                `qti:"powerForm"`
	Field            string              `qti:"field"`
	Delimiter        string              `qti:"delimiter,default=;"`
	MappingIndicator string              `qti:"mappingIndicator,default=="`
}

// ClassName returns "printedVariable".
func (e *PrintedVariable) ClassName() string { return "printedVariable" }

// =============================================================================
// Block content
// =============================================================================

// AtomicBlock is a block holding inline content: address, h1-h6, p or pre.
type AtomicBlock struct {
	BodyElement
	kind    string
	Content []Component
}

// NewAtomicBlock creates an atomic block of the given kind.
func NewAtomicBlock(kind string) *AtomicBlock { return &AtomicBlock{kind: kind} }

// ClassName returns the tag name the AtomicBlock was created for.
func (e *AtomicBlock) ClassName() string { return e.kind }

// Components returns the children of the AtomicBlock in document order.
func (e *AtomicBlock) Components() []Component { return e.Content }

// SetComponents replaces the children of the AtomicBlock.
func (e *AtomicBlock) SetComponents(cs []Component) error { e.Content = cs; return nil }

// Div is a generic flow container.
type Div struct {
	BodyElement
	Content []Component
}

// ClassName returns "div".
func (e *Div) ClassName() string { return "div" }

// Components returns the children of the Div in document order.
func (e *Div) Components() []Component { return e.Content }

// SetComponents replaces the children of the Div.
func (e *Div) SetComponents(cs []Component) error { e.Content = cs; return nil }

// Blockquote is a block quotation holding block content.
type Blockquote struct {
	BodyElement
	Cite    datatype.URI `qti:"cite"`
	Content []Component
}

// ClassName returns "blockquote".
func (e *Blockquote) ClassName() string { return "blockquote" }

// Components returns the children of the Blockquote in document order.
func (e *Blockquote) Components() []Component { return e.Content }

// SetComponents replaces the children of the Blockquote.
func (e *Blockquote) SetComponents(cs []Component) error { e.Content = cs; return nil }

// Hr is a horizontal rule.
type Hr struct {
	BodyElement
}

// ClassName returns "hr".
func (e *Hr) ClassName() string { return "hr" }

// =============================================================================
// Lists
// =============================================================================

// Ul is an unordered list.
type Ul struct {
	BodyElement
	Items []*Li
}

// ClassName returns "ul".
func (e *Ul) ClassName() string { return "ul" }

// Components returns the children of the Ul in document order.
func (e *Ul) Components() []Component { return components(e.Items) }

// SetComponents replaces the children of the Ul.
func (e *Ul) SetComponents(cs []Component) (err error) {
	e.Items, err = only[*Li](e, cs)
	return err
}

// Ol is an ordered list.
type Ol struct {
	BodyElement
	Items []*Li
}

// ClassName returns "ol".
func (e *Ol) ClassName() string { return "ol" }

// Components returns the children of the Ol in document order.
func (e *Ol) Components() []Component { return components(e.Items) }

// SetComponents replaces the children of the Ol.
func (e *Ol) SetComponents(cs []Component) (err error) {
	e.Items, err = only[*Li](e, cs)
	return err
}

// Li is a list item.
type Li struct {
	BodyElement
	Content []Component
}

// ClassName returns "li".
func (e *Li) ClassName() string { return "li" }

// Components returns the children of the Li in document order.
func (e *Li) Components() []Component { return e.Content }

// SetComponents replaces the children of the Li.
func (e *Li) SetComponents(cs []Component) error { e.Content = cs; return nil }

// Dl is a definition list.
type Dl struct {
	BodyElement
	Items []*DlElement
}

// ClassName returns "dl".
func (e *Dl) ClassName() string { return "dl" }

// Components returns the children of the Dl in document order.
func (e *Dl) Components() []Component { return components(e.Items) }

// SetComponents replaces the children of the Dl.
func (e *Dl) SetComponents(cs []Component) (err error) {
	e.Items, err = only[*DlElement](e, cs)
	return err
}

// DlElement is a dd or dt entry of a definition list.
type DlElement struct {
	BodyElement
	kind    string
	Content []Component
}

// NewDlElement creates a dd or dt element.
func NewDlElement(kind string) *DlElement { return &DlElement{kind: kind} }

// ClassName returns the tag name the DlElement was created for.
func (e *DlElement) ClassName() string { return e.kind }

// Components returns the children of the DlElement in document order.
func (e *DlElement) Components() []Component { return e.Content }

// SetComponents replaces the children of the DlElement.
func (e *DlElement) SetComponents(cs []Component) error { e.Content = cs; return nil }
