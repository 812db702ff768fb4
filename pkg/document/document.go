package document

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/charmbracelet/log"

	qerrors "github.com/matzehuels/qtikit/pkg/errors"
	"github.com/matzehuels/qtikit/pkg/marshal"
	"github.com/matzehuels/qtikit/pkg/qti"
	"github.com/matzehuels/qtikit/pkg/xmltree"
)

// XMLDocument is a QTI document backed by XML.
type XMLDocument struct {
	version   Version
	root      qti.Component
	tree      *xmltree.Document
	factory   *marshal.Factory
	validator Validator
	logger    *log.Logger
}

// Option configures an XMLDocument.
type Option func(*XMLDocument)

// WithVersion sets the version used when saving a document that was not
// loaded. Loading replaces it with the inferred version.
func WithVersion(v Version) Option {
	return func(d *XMLDocument) { d.version = v }
}

// WithValidator sets the schema validator used by Load and SchemaValidate.
func WithValidator(v Validator) Option {
	return func(d *XMLDocument) { d.validator = v }
}

// WithLogger sets the logger. Documents log nothing by default.
func WithLogger(l *log.Logger) Option {
	return func(d *XMLDocument) { d.logger = l }
}

// WithFactory sets the marshaller factory.
func WithFactory(f *marshal.Factory) Option {
	return func(d *XMLDocument) { d.factory = f }
}

// New creates an empty document.
func New(opts ...Option) *XMLDocument {
	d := &XMLDocument{version: DefaultVersion}
	for _, opt := range opts {
		opt(d)
	}
	if d.factory == nil {
		d.factory = marshal.NewFactory(nil)
	}
	if d.logger == nil {
		d.logger = log.New(io.Discard)
	}
	return d
}

// Version returns the document version.
func (d *XMLDocument) Version() Version { return d.version }

// DocumentComponent returns the root component, or nil before a load.
func (d *XMLDocument) DocumentComponent() qti.Component { return d.root }

// SetDocumentComponent replaces the root component.
func (d *XMLDocument) SetDocumentComponent(c qti.Component) { d.root = c }

// Tree returns the XML tree of the last load or save.
func (d *XMLDocument) Tree() *xmltree.Document { return d.tree }

// =============================================================================
// Load
// =============================================================================

// Load reads the document at path.
func (d *XMLDocument) Load(path string, validate bool) error {
	if err := qerrors.ValidatePath(path); err != nil {
		return &Error{Kind: KindIO, Message: err.Error(), Err: err}
	}
	f, err := os.Open(path)
	if err != nil {
		return &Error{Kind: KindIO, Message: fmt.Sprintf("open %s", path), Err: err}
	}
	defer f.Close()
	return d.LoadFrom(f, validate)
}

// LoadFromString reads the document from s.
func (d *XMLDocument) LoadFromString(s string, validate bool) error {
	return d.load([]byte(s), validate)
}

// LoadFrom reads the whole of r. It does not close r.
func (d *XMLDocument) LoadFrom(r io.Reader, validate bool) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return &Error{Kind: KindIO, Message: "read document", Err: err}
	}
	return d.load(data, validate)
}

func (d *XMLDocument) load(data []byte, validate bool) error {
	start := time.Now()

	tree, problems := xmltree.Parse(data)
	for _, p := range problems {
		if p.Severity == qerrors.SeverityWarning {
			d.logger.Warn(p.Message, "line", p.Line, "column", p.Column)
		}
	}
	if problems.Failed() {
		return &Error{Kind: KindParse, Message: "invalid XML", Problems: problems}
	}

	version, err := InferVersion(tree)
	if err != nil {
		return err
	}

	if validate {
		if err := d.validate(tree, SchemaLocation(version)); err != nil {
			return err
		}
	}

	root, err := d.factory.Unmarshal(tree.Root)
	if err != nil {
		return unmarshalError(err)
	}

	d.version, d.root, d.tree = version, root, tree
	d.logger.Debug("loaded document",
		"kind", root.ClassName(),
		"version", version,
		"elements", tree.Count(),
		"duration", time.Since(start))
	return nil
}

// =============================================================================
// Validation
// =============================================================================

// SchemaValidate validates the current tree against schema, or against the
// schema of the document version when schema is empty. A document that has
// not been loaded is marshalled first.
func (d *XMLDocument) SchemaValidate(schema string) error {
	tree := d.tree
	if tree == nil {
		root, err := d.marshalRoot()
		if err != nil {
			return err
		}
		tree = xmltree.NewDocument(root)
		d.tree = tree
	}
	if schema == "" {
		schema = SchemaLocation(d.version)
	}
	return d.validate(tree, schema)
}

func (d *XMLDocument) validate(tree *xmltree.Document, schema string) error {
	if d.validator == nil {
		return ErrNoValidator
	}
	ok, problems := d.validator.Validate(tree, schema)
	list := qerrors.ProblemList(problems)
	if !ok || list.Failed() {
		if len(list) == 0 {
			list = qerrors.ProblemList{{Severity: qerrors.SeverityError, Message: "document is not valid against " + schema}}
		}
		return &Error{Kind: KindValidation, Message: "schema validation failed", Problems: list}
	}
	d.logger.Debug("validated document", "schema", schema)
	return nil
}

// =============================================================================
// Save
// =============================================================================

// Save writes the document to path.
func (d *XMLDocument) Save(path string, formatOutput bool) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return &Error{Kind: KindIO, Message: fmt.Sprintf("create %s", path), Err: fmt.Errorf("%w: %w", ErrWrite, err)}
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = &Error{Kind: KindIO, Message: fmt.Sprintf("close %s", path), Err: fmt.Errorf("%w: %w", ErrWrite, cerr)}
		}
	}()
	return d.SaveTo(f, formatOutput)
}

// SaveToString returns the serialized document.
func (d *XMLDocument) SaveToString(formatOutput bool) (string, error) {
	var buf bytes.Buffer
	if err := d.SaveTo(&buf, formatOutput); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// SaveTo writes the document to w.
func (d *XMLDocument) SaveTo(w io.Writer, formatOutput bool) error {
	root, err := d.marshalRoot()
	if err != nil {
		return err
	}
	tree := xmltree.NewDocument(root)
	if err := xmltree.Write(w, tree, formatOutput); err != nil {
		return &Error{Kind: KindIO, Message: "write document", Err: fmt.Errorf("%w: %w", ErrWrite, err)}
	}
	d.tree = tree
	d.logger.Debug("saved document", "kind", d.root.ClassName(), "version", d.version)
	return nil
}

func (d *XMLDocument) marshalRoot() (*xmltree.Element, error) {
	if d.root == nil {
		return nil, ErrNoComponent
	}
	el, err := d.factory.Marshal(d.root)
	if err != nil {
		return nil, &Error{Kind: KindMarshal, Message: "An error occurred while marshalling QTI-XML data", Err: err}
	}
	decorate(el, d.version)
	return el, nil
}
