package qti

import (
	"errors"
	"testing"

	"github.com/matzehuels/qtikit/pkg/qti/datatype"
)

func TestDescendantsVisitsSharedOnce(t *testing.T) {
	shared := &BaseValue{BaseType: datatype.BaseTypeInteger, Datum: datatype.Integer(1)}
	root := NewOperator("sum", shared, NewOperator("product", shared, &Null{}))

	var kinds []string
	for c := range Descendants(root) {
		kinds = append(kinds, c.ClassName())
	}

	want := []string{"baseValue", "product", "null"}
	if len(kinds) != len(want) {
		t.Fatalf("Descendants() = %v, want %v", kinds, want)
	}
	for i := range want {
		if kinds[i] != want[i] {
			t.Errorf("Descendants()[%d] = %q, want %q", i, kinds[i], want[i])
		}
	}
}

func TestDescendantsStopsEarly(t *testing.T) {
	body := &ItemBody{Content: []Component{NewTextRun("a"), &Br{}, NewTextRun("b")}}
	n := 0
	for range Descendants(body) {
		n++
		if n == 2 {
			break
		}
	}
	if n != 2 {
		t.Errorf("iterations = %d, want 2", n)
	}
}

func TestCountKinds(t *testing.T) {
	item := &AssessmentItem{
		ItemBody: &ItemBody{Content: []Component{
			&ChoiceInteraction{
				ResponseIdentifier: "RESPONSE",
				Choices: []*SimpleChoice{
					{Identifier: "A", Content: []Component{NewTextRun("one")}},
					{Identifier: "B", Content: []Component{NewTextRun("two")}},
				},
			},
		}},
	}

	counts := CountKinds(item)
	if counts["simpleChoice"] != 2 || counts["textRun"] != 2 || counts["choiceInteraction"] != 1 {
		t.Errorf("CountKinds() = %v", counts)
	}
	if got := len(item.Interactions()); got != 1 {
		t.Errorf("Interactions() len = %d, want 1", got)
	}
}

func TestSetComponents(t *testing.T) {
	tests := []struct {
		name    string
		parent  Container
		cs      []Component
		wantErr bool
	}{
		{"ul with li", &Ul{}, []Component{&Li{}, &Li{}}, false},
		{"ul with p", &Ul{}, []Component{NewAtomicBlock("p")}, true},
		{"choice with prompt", &ChoiceInteraction{}, []Component{&Prompt{}, &SimpleChoice{}}, false},
		{"choice prompt after choice", &ChoiceInteraction{}, []Component{&SimpleChoice{}, &Prompt{}}, true},
		{"match with two sets", &MatchInteraction{}, []Component{&SimpleMatchSet{}, &SimpleMatchSet{}}, false},
		{"match with one set", &MatchInteraction{}, []Component{&SimpleMatchSet{}}, true},
		{"tr with td and th", &Tr{}, []Component{NewTableCell("th"), NewTableCell("td")}, false},
		{"media without object", &MediaInteraction{}, []Component{&Prompt{}}, true},
		{"condition without if", &ResponseCondition{}, []Component{&ResponseElse{}}, true},
		{"condition if elseif else", &ResponseCondition{}, []Component{&ResponseIf{}, &ResponseElseIf{}, &ResponseElse{}}, false},
		{"setOutcomeValue with rule", &SetOutcomeValue{}, []Component{&ExitResponse{}}, true},
		{"operator with expression", NewOperator("and"), []Component{&Null{}, &Variable{}}, false},
		{"operator with text", NewOperator("and"), []Component{NewTextRun("x")}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.parent.SetComponents(tt.cs)
			if (err != nil) != tt.wantErr {
				t.Fatalf("SetComponents() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err == nil && len(tt.parent.Components()) != len(tt.cs) {
				t.Errorf("Components() len = %d, want %d", len(tt.parent.Components()), len(tt.cs))
			}
		})
	}
}

func TestTableSlots(t *testing.T) {
	table := &Table{}
	err := table.SetComponents([]Component{
		&Caption{}, &Col{}, NewTablePart("thead"), NewTablePart("tbody"), NewTablePart("tbody"),
	})
	if err != nil {
		t.Fatalf("SetComponents() error = %v", err)
	}
	if table.THead == nil || len(table.TBodies) != 2 || table.TFoot != nil {
		t.Errorf("unexpected slots: thead=%v tbodies=%d tfoot=%v", table.THead, len(table.TBodies), table.TFoot)
	}
	if err := table.SetComponents([]Component{&Li{}}); !errors.Is(err, ErrUnexpectedChild) {
		t.Errorf("SetComponents(li) error = %v, want ErrUnexpectedChild", err)
	}
}

func TestVocabularyLookup(t *testing.T) {
	tests := []struct {
		vocab *Vocabulary
		tag   string
		want  string
		found bool
	}{
		{Content, "choiceInteraction", "choiceInteraction", true},
		{Content, "em", "em", true},
		{Content, "h3", "h3", true},
		{Content, "tbody", "tbody", true},
		{Content, "math", "math", true},
		{State, "responseDeclaration", "responseDeclaration", true},
		{Expressions, "containerSize", "containerSize", true},
		{Expressions, "default", "default", true},
		{Rules, "responseElseIf", "responseElseIf", true},
		{Content, "blink", "", false},
		{Content, "baseValue", "", false},
	}

	for _, tt := range tests {
		c, ok := tt.vocab.New(tt.tag)
		if ok != tt.found {
			t.Errorf("%s.New(%q) found = %v, want %v", tt.vocab.Name(), tt.tag, ok, tt.found)
			continue
		}
		if ok && c.ClassName() != tt.want {
			t.Errorf("%s.New(%q).ClassName() = %q, want %q", tt.vocab.Name(), tt.tag, c.ClassName(), tt.want)
		}
	}
}

func TestVocabularyDuplicatePanics(t *testing.T) {
	v := NewVocabulary("test")
	v.Register("Br", func() Component { return &Br{} })
	defer func() {
		if recover() == nil {
			t.Error("duplicate Register did not panic")
		}
	}()
	v.Register("Br", func() Component { return &Br{} })
}

func TestIsLeaf(t *testing.T) {
	tests := []struct {
		c    Component
		want bool
	}{
		{NewTextRun("x"), true},
		{&Br{}, true},
		{&Table{}, true},
		{&TextEntryInteraction{}, true},
		{NewRaw("math", "<math/>"), true},
		{&ChoiceInteraction{}, false},
		{&Div{}, false},
		{NewInline("em"), false},
	}

	for _, tt := range tests {
		if got := IsLeaf(tt.c); got != tt.want {
			t.Errorf("IsLeaf(%s) = %v, want %v", tt.c.ClassName(), got, tt.want)
		}
	}
}

func TestHotspotChoiceValidate(t *testing.T) {
	h := &HotspotChoice{Identifier: "A", Shape: datatype.ShapeCircle, Coords: &datatype.Coords{Values: []int{1, 2, 3}}}
	if err := h.Validate(); err != nil {
		t.Errorf("Validate() error = %v", err)
	}
	if h.Coords.Shape != datatype.ShapeCircle {
		t.Errorf("Coords.Shape = %v, want circle", h.Coords.Shape)
	}

	h.Shape = datatype.ShapeRect
	if err := h.Validate(); !errors.Is(err, datatype.ErrInvalidValue) {
		t.Errorf("Validate() error = %v, want ErrInvalidValue", err)
	}
}

func TestResponseValidityConstraintValidate(t *testing.T) {
	tests := []struct {
		min, max int
		wantErr  bool
	}{
		{0, 0, false},
		{1, 3, false},
		{2, 0, false},
		{-1, 0, true},
		{3, 1, true},
	}

	for _, tt := range tests {
		c := &ResponseValidityConstraint{ResponseIdentifier: "R", MinConstraint: tt.min, MaxConstraint: tt.max}
		if err := c.Validate(); (err != nil) != tt.wantErr {
			t.Errorf("Validate(%d, %d) error = %v, wantErr %v", tt.min, tt.max, err, tt.wantErr)
		}
	}
}
