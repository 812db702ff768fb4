package document

import (
	"bytes"
	"errors"
	"io/fs"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/google/go-cmp/cmp"

	qerrors "github.com/matzehuels/qtikit/pkg/errors"
	"github.com/matzehuels/qtikit/pkg/marshal"
	"github.com/matzehuels/qtikit/pkg/qti"
	"github.com/matzehuels/qtikit/pkg/xmltree"
)

const choiceItem = `<?xml version="1.0" encoding="UTF-8"?>
<assessmentItem xmlns="http://www.imsglobal.org/xsd/imsqti_v2p1"
    xmlns:xsi="http://www.w3.org/2001/XMLSchema-instance"
    xsi:schemaLocation="http://www.imsglobal.org/xsd/imsqti_v2p1 http://www.imsglobal.org/xsd/qti/qtiv2p1/imsqti_v2p1.xsd"
    identifier="choice" title="Unattended Luggage" adaptive="false" timeDependent="false">
  <responseDeclaration identifier="RESPONSE" cardinality="single" baseType="identifier">
    <correctResponse>
      <value>ChoiceA</value>
    </correctResponse>
  </responseDeclaration>
  <outcomeDeclaration identifier="SCORE" cardinality="single" baseType="float">
    <defaultValue>
      <value>0</value>
    </defaultValue>
  </outcomeDeclaration>
  <itemBody>
    <p>Look at the text in the picture.</p>
    <choiceInteraction responseIdentifier="RESPONSE" shuffle="false" maxChoices="1">
      <prompt>What does it say?</prompt>
      <simpleChoice identifier="ChoiceA">You must stay with your luggage at all times.</simpleChoice>
      <simpleChoice identifier="ChoiceB">Do not let someone else look after your luggage.</simpleChoice>
    </choiceInteraction>
  </itemBody>
  <responseProcessing template="http://www.imsglobal.org/question/qti_v2p1/rptemplates/match_correct"/>
</assessmentItem>
`

var exportAll = cmp.Exporter(func(reflect.Type) bool { return true })

func TestLoadCollectsProblems(t *testing.T) {
	src := strings.Join([]string{
		`<?xml version="1.0" encoding="UTF-8"?>`,
		`<assessmentItem xmlns="http://www.imsglobal.org/xsd/imsqti_v2p1" identifier="i" title="t" adaptive="false" timeDependent="false">`,
		`  <itemBody>`,
		`    <p>Fish &chips;</p>`,
		`    <img src=a.png alt="a"/>`,
		`    <img src="b.png" alt="b" src="c.png"/>`,
		`  </itemBody>`,
		`</assessmentItem>`,
	}, "\n")

	doc := New()
	err := doc.LoadFromString(src, false)

	var de *Error
	if !errors.As(err, &de) || de.Kind != KindParse {
		t.Fatalf("LoadFromString() error = %v, want parse error", err)
	}
	type pos struct{ Line, Column int }
	var got []pos
	for _, p := range Problems(err) {
		got = append(got, pos{p.Line, p.Column})
	}
	want := []pos{{4, 13}, {5, 14}, {6, 30}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("problem positions mismatch (-want +got):\n%s", diff)
	}
	if doc.DocumentComponent() != nil {
		t.Error("failed load left a document component")
	}
	if de.Code() != qerrors.ErrCodeInvalidXML {
		t.Errorf("Code() = %s", de.Code())
	}
}

func TestInferVersion(t *testing.T) {
	tests := []struct {
		ns      string
		want    Version
		wantErr bool
	}{
		{"http://www.imsglobal.org/xsd/imsqti_v2p0", V2p0, false},
		{"http://www.imsglobal.org/xsd/imsqti_v2p1", V2p1, false},
		{"http://www.imsglobal.org/xsd/imsqti_v2p2", V2p2, false},
		{"http://www.imsglobal.org/xsd/imsqti_v3p0", Version{}, true},
		{"http://example.com/ns", Version{}, true},
		{"", Version{}, true},
	}

	for _, tt := range tests {
		root := xmltree.NewElement("assessmentItem")
		root.Space = tt.ns
		got, err := InferVersion(xmltree.NewDocument(root))
		if (err != nil) != tt.wantErr {
			t.Errorf("InferVersion(%q) error = %v, wantErr %v", tt.ns, err, tt.wantErr)
			continue
		}
		if tt.wantErr && !errors.Is(err, ErrVersionInference) {
			t.Errorf("InferVersion(%q) error = %v, want ErrVersionInference", tt.ns, err)
		}
		if got != tt.want {
			t.Errorf("InferVersion(%q) = %v, want %v", tt.ns, got, tt.want)
		}
	}
}

func TestLoadInfersVersion(t *testing.T) {
	doc := New(WithVersion(V2p0))
	src := strings.Replace(choiceItem, "imsqti_v2p1\"", "imsqti_v2p2\"", 1)
	if err := doc.LoadFromString(src, false); err != nil {
		t.Fatalf("LoadFromString() error = %v", err)
	}
	if doc.Version() != V2p2 {
		t.Errorf("Version() = %v, want 2.2", doc.Version())
	}

	noNS := `<assessmentItem identifier="i" title="t" adaptive="false" timeDependent="false"/>`
	if err := New().LoadFromString(noNS, false); !errors.Is(err, ErrVersionInference) {
		t.Errorf("LoadFromString(no namespace) error = %v, want ErrVersionInference", err)
	}
}

func TestParseVersion(t *testing.T) {
	if v, err := ParseVersion("2.2"); err != nil || v != V2p2 {
		t.Errorf("ParseVersion(2.2) = %v, %v", v, err)
	}
	if _, err := ParseVersion("3.0"); !errors.Is(err, ErrVersionInference) {
		t.Errorf("ParseVersion(3.0) error = %v", err)
	}
	if _, err := ParseVersion("two"); err == nil {
		t.Error("ParseVersion(two) succeeded")
	}
}

func TestRoundTrip(t *testing.T) {
	first := New()
	if err := first.LoadFromString(choiceItem, false); err != nil {
		t.Fatalf("LoadFromString() error = %v", err)
	}
	out, err := first.SaveToString(true)
	if err != nil {
		t.Fatalf("SaveToString() error = %v", err)
	}

	for _, want := range []string{
		`xmlns="http://www.imsglobal.org/xsd/imsqti_v2p1"`,
		`xmlns:xsi="http://www.w3.org/2001/XMLSchema-instance"`,
		`xsi:schemaLocation="http://www.imsglobal.org/xsd/imsqti_v2p1 http://www.imsglobal.org/xsd/qti/qtiv2p1/imsqti_v2p1.xsd"`,
	} {
		if !strings.Contains(out, want) {
			t.Errorf("saved document lacks %s:\n%s", want, out)
		}
	}

	second := New()
	if err := second.LoadFromString(out, false); err != nil {
		t.Fatalf("LoadFromString(saved) error = %v\n%s", err, out)
	}
	if diff := cmp.Diff(first.DocumentComponent(), second.DocumentComponent(), exportAll); diff != "" {
		t.Errorf("round trip mismatch (-first +second):\n%s", diff)
	}
	if second.Tree() == nil || second.Tree().Root.Local() != "assessmentItem" {
		t.Error("Tree() not kept after load")
	}
}

func TestRoundTripRawWithInheritedPrefix(t *testing.T) {
	src := strings.Join([]string{
		`<?xml version="1.0" encoding="UTF-8"?>`,
		`<assessmentItem xmlns="http://www.imsglobal.org/xsd/imsqti_v2p1" xmlns:m="http://www.w3.org/1998/Math/MathML" identifier="i" title="t" adaptive="false" timeDependent="false">`,
		`  <itemBody>`,
		`    <gapMatchInteraction responseIdentifier="R"><gapText identifier="G" matchMax="1"><m:math><m:mi>x</m:mi></m:math></gapText></gapMatchInteraction>`,
		`  </itemBody>`,
		`</assessmentItem>`,
	}, "\n")

	first := New()
	if err := first.LoadFromString(src, false); err != nil {
		t.Fatalf("LoadFromString() error = %v", err)
	}
	out, err := first.SaveToString(false)
	if err != nil {
		t.Fatalf("SaveToString() error = %v", err)
	}
	if !strings.Contains(out, `<gapMatchInteraction xmlns:m="http://www.w3.org/1998/Math/MathML"`) {
		t.Errorf("saved document does not redeclare the m prefix:\n%s", out)
	}

	second := New()
	if err := second.LoadFromString(out, false); err != nil {
		t.Fatalf("LoadFromString(saved) error = %v\n%s", err, out)
	}
	if diff := cmp.Diff(first.DocumentComponent(), second.DocumentComponent(), exportAll); diff != "" {
		t.Errorf("round trip mismatch (-first +second):\n%s", diff)
	}
}

func TestSaveLoadFile(t *testing.T) {
	doc := New()
	if err := doc.LoadFromString(choiceItem, false); err != nil {
		t.Fatalf("LoadFromString() error = %v", err)
	}
	path := filepath.Join(t.TempDir(), "item.xml")
	if err := doc.Save(path, false); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	loaded := New()
	if err := loaded.Load(path, false); err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	item := loaded.DocumentComponent().(*qti.AssessmentItem)
	if item.Title != "Unattended Luggage" || len(item.Interactions()) != 1 {
		t.Errorf("loaded item = %+v", item)
	}

	err := New().Load(filepath.Join(t.TempDir(), "missing.xml"), false)
	var de *Error
	if !errors.As(err, &de) || de.Kind != KindIO || !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("Load(missing) error = %v", err)
	}
}

func TestWarningsDoNotFailLoad(t *testing.T) {
	var buf bytes.Buffer
	doc := New(WithLogger(log.New(&buf)))
	src := strings.Replace(choiceItem, `<itemBody>`, `<itemBody xmlns:m="urn-like">`, 1)
	if err := doc.LoadFromString(src, false); err != nil {
		t.Fatalf("LoadFromString() error = %v", err)
	}
	if !strings.Contains(buf.String(), "is not absolute") {
		t.Errorf("warning not logged: %q", buf.String())
	}
}

func TestUnmarshalErrorMessage(t *testing.T) {
	src := strings.Replace(choiceItem, `<p>Look`, `<blink/><p>Look`, 1)
	err := New().LoadFromString(src, false)

	var de *Error
	if !errors.As(err, &de) || de.Kind != KindUnmarshal {
		t.Fatalf("LoadFromString() error = %v, want unmarshal error", err)
	}
	if !errors.Is(err, marshal.ErrUnresolvedKind) {
		t.Errorf("error = %v, want marshal.ErrUnresolvedKind in chain", err)
	}
	msg := de.Message
	if !strings.HasPrefix(msg, "An error occurred while unmarshalling QTI-XML data: no class could be found for tag with name 'blink'") {
		t.Errorf("message = %q", msg)
	}
	if !strings.HasSuffix(msg, "at line 17.") {
		t.Errorf("message = %q, want line 17", msg)
	}
}

func TestValidation(t *testing.T) {
	if err := New().LoadFromString(choiceItem, true); !errors.Is(err, ErrNoValidator) {
		t.Errorf("LoadFromString(validate) without validator error = %v", err)
	}

	var gotSchema string
	pass := ValidatorFunc(func(_ *xmltree.Document, schema string) (bool, []qerrors.Problem) {
		gotSchema = schema
		return true, nil
	})
	doc := New(WithValidator(pass))
	if err := doc.LoadFromString(choiceItem, true); err != nil {
		t.Fatalf("LoadFromString() error = %v", err)
	}
	if gotSchema != SchemaLocation(V2p1) {
		t.Errorf("schema = %q", gotSchema)
	}

	fail := ValidatorFunc(func(*xmltree.Document, string) (bool, []qerrors.Problem) {
		return false, []qerrors.Problem{
			{Severity: qerrors.SeverityError, Message: "Element 'p': not expected", Line: 16, Column: 5},
			{Severity: qerrors.SeverityError, Message: "Element 'img': missing alt", Line: 17, Column: 5},
		}
	})
	doc = New(WithValidator(fail))
	err := doc.LoadFromString(choiceItem, true)
	var de *Error
	if !errors.As(err, &de) || de.Kind != KindValidation || len(de.Problems) != 2 {
		t.Fatalf("LoadFromString() error = %v, want validation error with 2 problems", err)
	}
	if !strings.Contains(err.Error(), "(and 1 more)") {
		t.Errorf("error = %q", err)
	}

	doc.SetDocumentComponent(&qti.AssessmentItem{Identifier: "i", Title: "t"})
	if err := doc.SchemaValidate(""); !errors.As(err, &de) || de.Kind != KindValidation {
		t.Errorf("SchemaValidate() error = %v", err)
	}
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) { return 0, errors.New("disk full") }

func TestSaveErrors(t *testing.T) {
	if _, err := New().SaveToString(false); !errors.Is(err, ErrNoComponent) {
		t.Errorf("SaveToString(empty) error = %v, want ErrNoComponent", err)
	}

	doc := New()
	doc.SetDocumentComponent(&qti.AssessmentItem{Identifier: "i", Title: "t"})
	if err := doc.SaveTo(failingWriter{}, false); !errors.Is(err, ErrWrite) {
		t.Errorf("SaveTo(failing) error = %v, want ErrWrite", err)
	}

	div := &qti.Div{}
	div.Content = []qti.Component{div}
	doc.SetDocumentComponent(&qti.AssessmentItem{Identifier: "i", Title: "t", ItemBody: &qti.ItemBody{Content: []qti.Component{div}}})
	err := doc.SaveTo(&bytes.Buffer{}, false)
	var de *Error
	if !errors.As(err, &de) || de.Kind != KindMarshal || !errors.Is(err, marshal.ErrCyclicGraph) {
		t.Errorf("SaveTo(cyclic) error = %v", err)
	}
	if errors.Is(err, ErrWrite) {
		t.Error("marshalling failure reported as a write failure")
	}
}

func TestSaveInMemoryDocument(t *testing.T) {
	doc := New(WithVersion(V2p2))
	doc.SetDocumentComponent(&qti.AssessmentItem{Identifier: "i", Title: "t"})
	out, err := doc.SaveToString(false)
	if err != nil {
		t.Fatalf("SaveToString() error = %v", err)
	}
	want := xmltree.Header + "\n" +
		`<assessmentItem identifier="i" title="t" adaptive="false" timeDependent="false"` +
		` xmlns="http://www.imsglobal.org/xsd/imsqti_v2p2"` +
		` xmlns:xsi="http://www.w3.org/2001/XMLSchema-instance"` +
		` xsi:schemaLocation="http://www.imsglobal.org/xsd/imsqti_v2p2 http://www.imsglobal.org/xsd/qti/qtiv2p2/imsqti_v2p2.xsd"/>` + "\n"
	if out != want {
		t.Errorf("SaveToString() =\n%s\nwant\n%s", out, want)
	}
}
