package qti

import (
	"slices"
	"unicode"
	"unicode/utf8"

	"github.com/GodYY/gutils/assert"
)

// Vocabulary maps capitalised type names to component constructors.
// Vocabularies are filled at package initialisation and read-only afterwards.
type Vocabulary struct {
	name  string
	ctors map[string]func() Component
}

// NewVocabulary creates an empty vocabulary.
func NewVocabulary(name string) *Vocabulary {
	return &Vocabulary{name: name, ctors: make(map[string]func() Component)}
}

// Name returns the vocabulary name.
func (v *Vocabulary) Name() string { return v.name }

// Register adds a constructor under typeName. It panics on an empty name,
// a nil constructor or a duplicate registration.
func (v *Vocabulary) Register(typeName string, ctor func() Component) {
	assert.NotEqual(typeName, "", "empty type name")
	assert.AssertF(ctor != nil, "type \"%s\" constructor nil", typeName)
	assert.AssertF(v.ctors[typeName] == nil, "type \"%s\" registered in vocabulary %s", typeName, v.name)
	v.ctors[typeName] = ctor
}

// New creates a component for the given tag name, or reports false when the
// vocabulary has no type for it.
func (v *Vocabulary) New(tag string) (Component, bool) {
	ctor, ok := v.ctors[TypeName(tag)]
	if !ok {
		return nil, false
	}
	return ctor(), true
}

// Has reports whether the vocabulary resolves tag.
func (v *Vocabulary) Has(tag string) bool {
	_, ok := v.ctors[TypeName(tag)]
	return ok
}

// TypeNames returns the registered type names in sorted order.
func (v *Vocabulary) TypeNames() []string {
	names := make([]string, 0, len(v.ctors))
	for n := range v.ctors {
		names = append(names, n)
	}
	slices.Sort(names)
	return names
}

// TypeName is the naming convention from tag to type: the first letter is
// upper-cased.
func TypeName(tag string) string {
	r, size := utf8.DecodeRuneInString(tag)
	if r == utf8.RuneError {
		return tag
	}
	return string(unicode.ToUpper(r)) + tag[size:]
}

// =============================================================================
// Shipped vocabularies
// =============================================================================

var (
	// Content holds body content, interactions, choices, tables, lists and
	// item structure.
	Content = NewVocabulary("content")
	// State holds variable declarations and values.
	State = NewVocabulary("state")
	// Expressions holds expressions and operators.
	Expressions = NewVocabulary("expressions")
	// Rules holds response processing rules.
	Rules = NewVocabulary("rules")
)

// Vocabularies returns the shipped vocabularies in lookup order.
func Vocabularies() []*Vocabulary {
	return []*Vocabulary{Content, State, Expressions, Rules}
}

// InlineKinds lists the kinds modelled by Inline.
var InlineKinds = []string{
	"abbr", "acronym", "b", "big", "cite", "code", "dfn", "em", "i", "kbd",
	"samp", "small", "span", "strong", "sub", "sup", "tt", "var",
}

// AtomicBlockKinds lists the kinds modelled by AtomicBlock.
var AtomicBlockKinds = []string{"address", "h1", "h2", "h3", "h4", "h5", "h6", "p", "pre"}

// RawKinds lists the kinds kept as their original markup.
var RawKinds = []string{
	"math", "customInteraction", "gapMatchInteraction", "hottextInteraction",
	"graphicAssociateInteraction", "graphicGapMatchInteraction",
	"positionObjectInteraction", "positionObjectStage",
}

func register[T any, PT interface {
	*T
	Component
}](v *Vocabulary) {
	var zero T
	name := PT(&zero).ClassName()
	v.Register(TypeName(name), func() Component { return PT(new(T)) })
}

func registerKind(v *Vocabulary, kind string, ctor func(string) Component) {
	v.Register(TypeName(kind), func() Component { return ctor(kind) })
}

func init() {
	for _, k := range InlineKinds {
		registerKind(Content, k, func(k string) Component { return NewInline(k) })
	}
	for _, k := range AtomicBlockKinds {
		registerKind(Content, k, func(k string) Component { return NewAtomicBlock(k) })
	}
	for _, k := range []string{"thead", "tbody", "tfoot"} {
		registerKind(Content, k, func(k string) Component { return NewTablePart(k) })
	}
	for _, k := range []string{"td", "th"} {
		registerKind(Content, k, func(k string) Component { return NewTableCell(k) })
	}
	for _, k := range []string{"dd", "dt"} {
		registerKind(Content, k, func(k string) Component { return NewDlElement(k) })
	}
	for _, k := range RawKinds {
		registerKind(Content, k, func(k string) Component { return NewRaw(k, "") })
	}

	register[A](Content)
	register[Q](Content)
	register[FeedbackInline](Content)
	register[Br](Content)
	register[Img](Content)
	register[Object](Content)
	register[Param](Content)
	register[PrintedVariable](Content)
	register[Div](Content)
	register[Blockquote](Content)
	register[Hr](Content)
	register[Ul](Content)
	register[Ol](Content)
	register[Li](Content)
	register[Dl](Content)
	register[Table](Content)
	register[Caption](Content)
	register[Col](Content)
	register[ColGroup](Content)
	register[Tr](Content)
	register[RubricBlock](Content)
	register[Prompt](Content)
	register[SimpleChoice](Content)
	register[SimpleAssociableChoice](Content)
	register[SimpleMatchSet](Content)
	register[InlineChoice](Content)
	register[HotspotChoice](Content)
	register[ChoiceInteraction](Content)
	register[OrderInteraction](Content)
	register[AssociateInteraction](Content)
	register[MatchInteraction](Content)
	register[TextEntryInteraction](Content)
	register[ExtendedTextInteraction](Content)
	register[InlineChoiceInteraction](Content)
	register[SliderInteraction](Content)
	register[UploadInteraction](Content)
	register[MediaInteraction](Content)
	register[DrawingInteraction](Content)
	register[HotspotInteraction](Content)
	register[SelectPointInteraction](Content)
	register[GraphicOrderInteraction](Content)
	register[AssessmentItem](Content)
	register[ItemBody](Content)
	register[ModalFeedback](Content)
	register[Stylesheet](Content)

	register[ResponseDeclaration](State)
	register[OutcomeDeclaration](State)
	register[DefaultValue](State)
	register[CorrectResponse](State)
	register[Value](State)
	register[Mapping](State)
	register[MapEntry](State)
	register[ResponseValidityConstraint](State)

	register[BaseValue](Expressions)
	register[Variable](Expressions)
	register[Correct](Expressions)
	register[Default](Expressions)
	register[Null](Expressions)
	for _, k := range operatorKinds {
		registerKind(Expressions, k, func(k string) Component { return NewOperator(k) })
	}

	register[ResponseProcessing](Rules)
	register[ResponseCondition](Rules)
	register[ResponseIf](Rules)
	register[ResponseElseIf](Rules)
	register[ResponseElse](Rules)
	register[SetOutcomeValue](Rules)
	register[ExitResponse](Rules)
}

// IsRaw reports whether kind is kept as original markup.
func IsRaw(kind string) bool {
	return slices.Contains(RawKinds, kind)
}

