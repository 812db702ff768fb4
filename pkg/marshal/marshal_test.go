package marshal

import (
	"bytes"
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/matzehuels/qtikit/pkg/qti"
	"github.com/matzehuels/qtikit/pkg/qti/datatype"
	"github.com/matzehuels/qtikit/pkg/xmltree"
)

var exportAll = cmp.Exporter(func(reflect.Type) bool { return true })

const itemXML = `<?xml version="1.0" encoding="UTF-8"?>
<assessmentItem xmlns="http://www.imsglobal.org/xsd/imsqti_v2p1" identifier="choice" title="Unattended Luggage" adaptive="false" timeDependent="false">
  <responseDeclaration identifier="RESPONSE" cardinality="single" baseType="identifier">
    <correctResponse>
      <value>ChoiceA</value>
    </correctResponse>
    <mapping defaultValue="0">
      <mapEntry mapKey="ChoiceA" mappedValue="1"/>
    </mapping>
  </responseDeclaration>
  <responseDeclaration identifier="HOT" cardinality="multiple" baseType="pair">
    <defaultValue>
      <value>A B</value>
      <value>C D</value>
    </defaultValue>
  </responseDeclaration>
  <outcomeDeclaration identifier="SCORE" cardinality="single" baseType="float">
    <defaultValue>
      <value>0</value>
    </defaultValue>
  </outcomeDeclaration>
  <outcomeDeclaration identifier="TIME" cardinality="single" baseType="duration" view="author scorer"/>
  <itemBody>
    <p>Look at the text in the <em>picture</em>.</p>
    <p><img src="images/sign.png" alt="NEVER LEAVE LUGGAGE UNATTENDED"/></p>
    <choiceInteraction responseIdentifier="RESPONSE" shuffle="false" maxChoices="1">
      <prompt>What does it say?</prompt>
      <simpleChoice identifier="ChoiceA">You must stay with your luggage at all times.</simpleChoice>
      <simpleChoice identifier="ChoiceB" fixed="true">Do not let someone else look after your luggage.</simpleChoice>
    </choiceInteraction>
    <table summary="prices">
      <caption>Prices</caption>
      <colgroup span="2"><col/></colgroup>
      <thead><tr><th scope="col">Item</th></tr></thead>
      <tbody><tr><td headers="a b" colspan="2">Tea <em>hot</em></td></tr></tbody>
    </table>
    <ul><li>One</li><li>Two</li></ul>
    <hotspotInteraction responseIdentifier="HOT" maxChoices="2">
      <object data="images/map.png" type="image/png" width="206" height="280"/>
      <hotspotChoice identifier="A" shape="circle" coords="77,115,8"/>
      <hotspotChoice identifier="B" shape="rect" coords="118,184,132,198"/>
    </hotspotInteraction>
    <div>
      <math xmlns="http://www.w3.org/1998/Math/MathML"><mi>x</mi></math>
      <textEntryInteraction responseIdentifier="RESPONSE" expectedLength="15"/>
    </div>
  </itemBody>
  <responseProcessing>
    <responseCondition>
      <responseIf>
        <match><variable identifier="RESPONSE"/><correct identifier="RESPONSE"/></match>
        <setOutcomeValue identifier="SCORE"><baseValue baseType="float">1</baseValue></setOutcomeValue>
      </responseIf>
      <responseElse>
        <setOutcomeValue identifier="SCORE"><baseValue baseType="float">0</baseValue></setOutcomeValue>
      </responseElse>
    </responseCondition>
  </responseProcessing>
</assessmentItem>`

func mustParse(t *testing.T, s string) *xmltree.Element {
	t.Helper()
	doc, problems := xmltree.ParseString(s)
	if problems.Failed() {
		t.Fatalf("parse: %v", problems)
	}
	return doc.Root
}

func TestRoundTrip(t *testing.T) {
	f := NewFactory(nil)
	first, err := f.Unmarshal(mustParse(t, itemXML))
	if err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}

	el, err := f.Marshal(first)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	out := xmltree.Marshal(xmltree.NewDocument(el), true)

	second, err := f.Unmarshal(mustParse(t, string(out)))
	if err != nil {
		t.Fatalf("Unmarshal(marshalled) error = %v\n%s", err, out)
	}
	if diff := cmp.Diff(first, second, exportAll); diff != "" {
		t.Errorf("round trip mismatch (-first +second):\n%s", diff)
	}

	el2, err := f.Marshal(second)
	if err != nil {
		t.Fatalf("Marshal(second) error = %v", err)
	}
	if out2 := xmltree.Marshal(xmltree.NewDocument(el2), true); !bytes.Equal(out, out2) {
		t.Errorf("marshalling is not stable:\n%s\n---\n%s", out, out2)
	}
}

func TestUnmarshalItem(t *testing.T) {
	c, err := NewFactory(nil).Unmarshal(mustParse(t, itemXML))
	if err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	item := c.(*qti.AssessmentItem)

	if got := len(item.Interactions()); got != 3 {
		t.Errorf("Interactions() = %d, want 3", got)
	}
	hot := item.ResponseDeclaration("HOT")
	if hot == nil || hot.DefaultValue == nil {
		t.Fatal("HOT declaration or default value missing")
	}
	if got := hot.DefaultValue.Values[1].Datum; got != (datatype.Pair{First: "C", Second: "D"}) {
		t.Errorf("pair value = %#v", got)
	}
	if got := item.OutcomeDeclarations[1].Views; len(got) != 2 || got[1] != datatype.ViewScorer {
		t.Errorf("views = %v", got)
	}

	choice := item.Interactions()[0].(*qti.ChoiceInteraction)
	if choice.MaxChoices != 1 || choice.Prompt == nil || len(choice.Choices) != 2 {
		t.Errorf("choiceInteraction = %+v", choice)
	}
	if choice.Choices[0].ShowHide != datatype.ShowHideShow {
		t.Errorf("default showHide not applied: %v", choice.Choices[0].ShowHide)
	}

	hs := item.Interactions()[1].(*qti.HotspotInteraction)
	if c := hs.Choices[1].Coords; c.Shape != datatype.ShapeRect || len(c.Values) != 4 {
		t.Errorf("coords = %+v", c)
	}

	var raw *qti.Raw
	for c := range qti.Descendants(item) {
		if r, ok := c.(*qti.Raw); ok {
			raw = r
		}
	}
	if raw == nil || !strings.Contains(raw.Source, "<mi>x</mi>") {
		t.Errorf("math not preserved: %+v", raw)
	}
}

func TestUnresolvedTag(t *testing.T) {
	tests := []struct {
		src  string
		want string
	}{
		{`<blink/>`, "blink"},
		{`<ChoiceInteraction responseIdentifier="R"/>`, "ChoiceInteraction"},
		{`<div><p>ok</p>` + "\n" + `<marquee>x</marquee></div>`, "marquee"},
		{`<sum><baseValue baseType="integer">1</baseValue><plus/></sum>`, "plus"},
	}

	f := NewFactory(nil)
	for _, tt := range tests {
		_, err := f.Unmarshal(mustParse(t, tt.src))
		if !errors.Is(err, ErrUnresolvedKind) {
			t.Errorf("Unmarshal(%q) error = %v, want ErrUnresolvedKind", tt.src, err)
			continue
		}
		var ue *UnmarshallingError
		if !errors.As(err, &ue) || ue.Element.Local() != tt.want {
			t.Errorf("Unmarshal(%q) element = %v, want %q", tt.src, ue, tt.want)
			continue
		}
		if want := "no class could be found for tag with name '" + tt.want + "'"; !strings.Contains(err.Error(), want) {
			t.Errorf("Unmarshal(%q) error = %q, want it to contain %q", tt.src, err, want)
		}
	}

	_, err := f.Marshal(&qti.TextRun{Content: "x"})
	if !errors.Is(err, ErrUnresolvedKind) {
		t.Errorf("Marshal(textRun) error = %v, want ErrUnresolvedKind", err)
	}
}

func TestUnresolvedTagLine(t *testing.T) {
	_, err := NewFactory(nil).Unmarshal(mustParse(t, "<div>\n  <p>x</p>\n  <blink/>\n</div>"))
	var ue *UnmarshallingError
	if !errors.As(err, &ue) {
		t.Fatalf("error = %v, want *UnmarshallingError", err)
	}
	if ue.Line() != 3 || ue.Column() != 3 {
		t.Errorf("position = %d:%d, want 3:3", ue.Line(), ue.Column())
	}
}

func TestMandatoryAttributes(t *testing.T) {
	valid := []string{
		`<a href="http://example.com">t</a>`,
		`<img src="a.png" alt="a"/>`,
		`<feedbackInline outcomeIdentifier="O" identifier="I" showHide="show">x</feedbackInline>`,
		`<object data="a.png" type="image/png"/>`,
		`<param name="n" value="v"/>`,
		`<printedVariable identifier="X"/>`,
		`<choiceInteraction responseIdentifier="R"><simpleChoice identifier="A">a</simpleChoice></choiceInteraction>`,
		`<simpleAssociableChoice identifier="A" matchMax="1">a</simpleAssociableChoice>`,
		`<sliderInteraction responseIdentifier="R" lowerBound="0" upperBound="10"/>`,
		`<mediaInteraction responseIdentifier="R" autostart="false"><object data="a.mp3" type="audio/mpeg"/></mediaInteraction>`,
		`<hotspotChoice identifier="A" shape="rect" coords="0,0,10,10"/>`,
		`<textEntryInteraction responseIdentifier="R"/>`,
		`<assessmentItem identifier="i" title="t" adaptive="false" timeDependent="false"/>`,
		`<modalFeedback outcomeIdentifier="O" identifier="I" showHide="hide">x</modalFeedback>`,
		`<rubricBlock view="candidate"><p>x</p></rubricBlock>`,
		`<stylesheet href="s.css" type="text/css"/>`,
		`<responseDeclaration identifier="R" cardinality="single" baseType="identifier"/>`,
		`<outcomeDeclaration identifier="S" cardinality="single"/>`,
		`<mapEntry mapKey="A" mappedValue="1"/>`,
		`<responseValidityConstraint responseIdentifier="R" minConstraint="0" maxConstraint="1"/>`,
		`<baseValue baseType="integer">1</baseValue>`,
		`<variable identifier="X"/>`,
		`<correct identifier="X"/>`,
		`<default identifier="X"/>`,
		`<setOutcomeValue identifier="S"><null/></setOutcomeValue>`,
	}

	f := NewFactory(nil)
	for _, src := range valid {
		c, err := f.Unmarshal(mustParse(t, src))
		if err != nil {
			t.Errorf("Unmarshal(%q) error = %v", src, err)
			continue
		}
		var required []string
		for _, a := range Attributes(c) {
			if a.Required {
				required = append(required, a.Name)
			}
		}
		if len(required) == 0 {
			t.Errorf("%s declares no mandatory attribute", c.ClassName())
		}
		for _, name := range required {
			el := mustParse(t, src)
			el.RemoveAttr(name)
			_, err := f.Unmarshal(el)
			if !errors.Is(err, ErrMissingAttribute) {
				t.Errorf("%s without %s: error = %v, want ErrMissingAttribute", c.ClassName(), name, err)
				continue
			}
			if !strings.Contains(err.Error(), "'"+name+"'") || !strings.Contains(err.Error(), "'"+el.Name+"'") {
				t.Errorf("%s without %s: error %q does not name the attribute and element", c.ClassName(), name, err)
			}
		}
	}
}

func TestInvalidAttribute(t *testing.T) {
	tests := []string{
		`<simpleChoice identifier="1bad">x</simpleChoice>`,
		`<choiceInteraction responseIdentifier="R" orientation="diagonal"/>`,
		`<choiceInteraction responseIdentifier="R" maxChoices="many"/>`,
		`<hotspotChoice identifier="A" shape="rect" coords="1,2,3"/>`,
		`<sliderInteraction responseIdentifier="R" lowerBound="10" upperBound="0"/>`,
		`<assessmentItem identifier="i" title="t" adaptive="maybe" timeDependent="false"/>`,
		`<responseValidityConstraint responseIdentifier="R" minConstraint="2" maxConstraint="1"/>`,
		`<simpleChoice identifier="">x</simpleChoice>`,
		`<responseDeclaration identifier="R" cardinality="" baseType="identifier"/>`,
		`<feedbackInline outcomeIdentifier="FEEDBACK" identifier="A" showHide="">x</feedbackInline>`,
		`<choiceInteraction responseIdentifier=""/>`,
		`<simpleChoice identifier="A" showHide=" ">x</simpleChoice>`,
	}

	f := NewFactory(nil)
	for _, src := range tests {
		_, err := f.Unmarshal(mustParse(t, src))
		if !errors.Is(err, ErrInvalidAttribute) {
			t.Errorf("Unmarshal(%q) error = %v, want ErrInvalidAttribute", src, err)
			continue
		}
		if !errors.Is(err, datatype.ErrInvalidValue) {
			t.Errorf("Unmarshal(%q) error = %v, want datatype.ErrInvalidValue in chain", src, err)
		}
	}
}

func TestInvalidContent(t *testing.T) {
	tests := []string{
		`<matchInteraction responseIdentifier="R"><simpleMatchSet/></matchInteraction>`,
		`<responseCondition><responseElse/></responseCondition>`,
		`<and><setOutcomeValue identifier="S"><null/></setOutcomeValue></and>`,
		`<mediaInteraction responseIdentifier="R" autostart="true"><prompt>p</prompt></mediaInteraction>`,
	}

	f := NewFactory(nil)
	for _, src := range tests {
		_, err := f.Unmarshal(mustParse(t, src))
		if !errors.Is(err, qti.ErrUnexpectedChild) {
			t.Errorf("Unmarshal(%q) error = %v, want qti.ErrUnexpectedChild", src, err)
		}
		var ue *UnmarshallingError
		if !errors.As(err, &ue) {
			t.Errorf("Unmarshal(%q) error is not an *UnmarshallingError", src)
		}
	}
}

func TestFinalityRespected(t *testing.T) {
	tests := []struct {
		src  string
		kind string
	}{
		{`<br><blink>nested</blink></br>`, "br"},
		{`<img src="a.png" alt="a"><blink/></img>`, "img"},
		{`<textEntryInteraction responseIdentifier="R"><blink/></textEntryInteraction>`, "textEntryInteraction"},
		{`<extendedTextInteraction responseIdentifier="R"><prompt>p</prompt><blink/></extendedTextInteraction>`, "extendedTextInteraction"},
		{`<table><blink/><tbody><tr><td>x</td></tr></tbody></table>`, "table"},
		{`<printedVariable identifier="X"><blink/></printedVariable>`, "printedVariable"},
		{`<gapMatchInteraction responseIdentifier="R"><gapText identifier="G" matchMax="1">x</gapText></gapMatchInteraction>`, "gapMatchInteraction"},
	}

	f := NewFactory(nil)
	for _, tt := range tests {
		c, err := f.Unmarshal(mustParse(t, tt.src))
		if err != nil {
			t.Errorf("Unmarshal(%q) error = %v", tt.src, err)
			continue
		}
		if c.ClassName() != tt.kind {
			t.Errorf("Unmarshal(%q) kind = %q, want %q", tt.src, c.ClassName(), tt.kind)
		}
		if qti.CountKinds(c)["blink"] != 0 {
			t.Errorf("Unmarshal(%q) traversed nested markup", tt.src)
		}
	}
}

func TestFinalIgnoresComponentChildren(t *testing.T) {
	el, err := NewFactory(nil).Marshal(&qti.Br{})
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	if len(el.Children) != 0 {
		t.Errorf("br has %d children", len(el.Children))
	}
}

func TestRubricBlockKeepsText(t *testing.T) {
	src := `<rubricBlock view="candidate"><stylesheet href="s.css" type="text/css"/>Read <b>carefully</b>.</rubricBlock>`
	f := NewFactory(nil)
	c, err := f.Unmarshal(mustParse(t, src))
	if err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	rb := c.(*qti.RubricBlock)
	if len(rb.Stylesheets) != 1 {
		t.Errorf("stylesheets = %d, want 1", len(rb.Stylesheets))
	}
	if len(rb.Content) != 3 {
		t.Fatalf("content = %d components, want 3", len(rb.Content))
	}
	if tr, ok := rb.Content[0].(*qti.TextRun); !ok || tr.Content != "Read " {
		t.Errorf("content[0] = %#v, want text run %q", rb.Content[0], "Read ")
	}

	el, err := f.Marshal(c)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	if got := xmltree.MarshalElement(el); got != src {
		t.Errorf("Marshal() = %q, want %q", got, src)
	}
}

func TestSlotSkipsTextBetweenParts(t *testing.T) {
	src := "<table>\n  <tbody>\n    <tr><td>x</td></tr>\n  </tbody>\n</table>"
	f := NewFactory(nil)
	c, err := f.Unmarshal(mustParse(t, src))
	if err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	el, err := f.Marshal(c)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	if got, want := xmltree.MarshalElement(el), "<table><tbody><tr><td>x</td></tr></tbody></table>"; got != want {
		t.Errorf("Marshal() = %q, want %q", got, want)
	}
}

func TestCycleDetected(t *testing.T) {
	div := &qti.Div{}
	inner := &qti.Div{Content: []qti.Component{div}}
	div.Content = []qti.Component{qti.NewTextRun("x"), inner}

	_, err := NewFactory(nil).Marshal(div)
	if !errors.Is(err, ErrCyclicGraph) {
		t.Fatalf("Marshal() error = %v, want ErrCyclicGraph", err)
	}
}

func TestNilChildRejected(t *testing.T) {
	tests := []struct {
		name string
		c    qti.Component
	}{
		{"typed nil choice", &qti.ChoiceInteraction{ResponseIdentifier: "R", Choices: []*qti.SimpleChoice{nil}}},
		{"nil content", &qti.Div{Content: []qti.Component{nil}}},
		{"typed nil text", &qti.Div{Content: []qti.Component{(*qti.TextRun)(nil)}}},
		{"typed nil image", &qti.Div{Content: []qti.Component{(*qti.Img)(nil)}}},
		{"typed nil root", (*qti.Div)(nil)},
	}

	f := NewFactory(nil)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.Marshal(tt.c)
			var me *MarshallingError
			if !errors.As(err, &me) {
				t.Fatalf("Marshal() error = %v, want *MarshallingError", err)
			}
		})
	}
}

func TestSharedComponentIsNotACycle(t *testing.T) {
	br := &qti.Br{}
	div := &qti.Div{Content: []qti.Component{br, qti.NewAtomicBlock("p"), br}}

	el, err := NewFactory(nil).Marshal(div)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	if got := len(el.Elements()); got != 3 {
		t.Errorf("children = %d, want 3", got)
	}
}

func TestValueBaseTypeHint(t *testing.T) {
	f := NewFactory(nil)

	el := mustParse(t, `<value>A B</value>`)
	m, err := f.CreateMarshaller(el, WithBaseType(datatype.BaseTypeDirectedPair))
	if err != nil {
		t.Fatalf("CreateMarshaller() error = %v", err)
	}
	c, err := m.Unmarshal(el)
	if err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if got := c.(*qti.Value).Datum; got != (datatype.DirectedPair{First: "A", Second: "B"}) {
		t.Errorf("Datum = %#v", got)
	}

	if _, err := f.Unmarshal(el); !errors.Is(err, ErrMissingAttribute) {
		t.Errorf("Unmarshal() without hint error = %v, want ErrMissingAttribute", err)
	}

	field := mustParse(t, `<value fieldIdentifier="count" baseType="integer">3</value>`)
	c, err = f.Unmarshal(field)
	if err != nil {
		t.Fatalf("Unmarshal(record field) error = %v", err)
	}
	if v := c.(*qti.Value); v.Datum != datatype.Integer(3) || v.FieldIdentifier != "count" {
		t.Errorf("record field = %+v", v)
	}

	bad := mustParse(t, `<responseDeclaration identifier="R" cardinality="single" baseType="integer"><defaultValue><value>x</value></defaultValue></responseDeclaration>`)
	if _, err := f.Unmarshal(bad); !errors.Is(err, datatype.ErrInvalidValue) {
		t.Errorf("Unmarshal(bad integer) error = %v, want ErrInvalidValue", err)
	}
}

func TestMarshalAttributes(t *testing.T) {
	f := NewFactory(nil)
	c, err := f.Unmarshal(mustParse(t, `<printedVariable identifier="X" base="10" delimiter=";" format="%.2f"/>`))
	if err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	el, err := f.Marshal(c)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	if got := xmltree.MarshalElement(el); got != `<printedVariable identifier="X" format="%.2f"/>` {
		t.Errorf("Marshal() = %s", got)
	}

	item := &qti.AssessmentItem{Identifier: "i", Title: "t"}
	el, err = f.Marshal(item)
	if err != nil {
		t.Fatalf("Marshal(item) error = %v", err)
	}
	if v, _ := el.Attr("adaptive"); v != "false" {
		t.Errorf("mandatory adaptive = %q, want false", v)
	}
}

func TestCustomConfig(t *testing.T) {
	cfg := NewConfig(WithRule("div", OnlyKinds("p")))
	c, err := NewFactory(cfg).Unmarshal(mustParse(t, `<div><p>a</p><ul><li>x</li></ul>text</div>`))
	if err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if got := len(c.(*qti.Div).Content); got != 1 {
		t.Errorf("div children = %d, want 1", got)
	}

	cfg = NewConfig(WithRule("div", ChildRule{}))
	c, err = NewFactory(cfg).Unmarshal(mustParse(t, `<div><p>a</p></div>`))
	if err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if got := len(c.(*qti.Div).Content); got != 0 {
		t.Errorf("div children without rule = %d, want 0", got)
	}

	cfg = NewConfig(WithVocabularies(qti.Content))
	if _, err := NewFactory(cfg).Unmarshal(mustParse(t, `<baseValue baseType="integer">1</baseValue>`)); !errors.Is(err, ErrUnresolvedKind) {
		t.Errorf("Unmarshal(baseValue) with content only error = %v, want ErrUnresolvedKind", err)
	}

	if !DefaultConfig().IsFinal("table") || NewConfig(WithoutFinals("table")).IsFinal("table") {
		t.Error("WithoutFinals did not apply to a copy")
	}
}

func TestCreateMarshallerRejectsOtherTypes(t *testing.T) {
	m, err := NewFactory(nil).CreateMarshaller("choiceInteraction")
	if m != nil || !errors.Is(err, ErrUnresolvedKind) {
		t.Errorf("CreateMarshaller(string) = %v, %v", m, err)
	}
}
