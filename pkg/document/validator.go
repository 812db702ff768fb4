package document

import (
	qerrors "github.com/matzehuels/qtikit/pkg/errors"
	"github.com/matzehuels/qtikit/pkg/xmltree"
)

// Validator checks a parsed tree against an XML schema. It reports whether
// the tree is valid and the problems found, with line and column where the
// backend knows them.
type Validator interface {
	Validate(tree *xmltree.Document, schema string) (bool, []qerrors.Problem)
}

// ValidatorFunc adapts a function to the Validator interface.
type ValidatorFunc func(tree *xmltree.Document, schema string) (bool, []qerrors.Problem)

// Validate calls f.
func (f ValidatorFunc) Validate(tree *xmltree.Document, schema string) (bool, []qerrors.Problem) {
	return f(tree, schema)
}
