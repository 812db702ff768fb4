package document

import (
	"fmt"
	"regexp"
	"strconv"

	"github.com/matzehuels/qtikit/pkg/xmltree"
)

// Version is a QTI version such as 2.1.
type Version struct {
	Major int
	Minor int
}

// Supported versions.
var (
	V2p0 = Version{2, 0}
	V2p1 = Version{2, 1}
	V2p2 = Version{2, 2}
)

// DefaultVersion is used by documents built in memory.
var DefaultVersion = V2p1

var (
	namespaceRe = regexp.MustCompile(`imsqti_v(\d+)p(\d+)`)
	versionRe   = regexp.MustCompile(`^(\d+)\.(\d+)(?:\.\d+)?$`)
)

var schemaLocations = map[Version]string{
	V2p0: "http://www.imsglobal.org/xsd/imsqti_v2p0.xsd",
	V2p1: "http://www.imsglobal.org/xsd/qti/qtiv2p1/imsqti_v2p1.xsd",
	V2p2: "http://www.imsglobal.org/xsd/qti/qtiv2p2/imsqti_v2p2.xsd",
}

func (v Version) String() string { return fmt.Sprintf("%d.%d", v.Major, v.Minor) }

// Supported reports whether v is 2.0, 2.1 or 2.2.
func (v Version) Supported() bool {
	_, ok := schemaLocations[v]
	return ok
}

// Namespace returns the QTI namespace URI of v.
func (v Version) Namespace() string {
	return fmt.Sprintf("http://www.imsglobal.org/xsd/imsqti_v%dp%d", v.Major, v.Minor)
}

// SchemaLocation returns the XSD location of v, or "" for unsupported
// versions.
func SchemaLocation(v Version) string { return schemaLocations[v] }

// ParseVersion parses "2.1" or "2.1.0".
func ParseVersion(s string) (Version, error) {
	m := versionRe.FindStringSubmatch(s)
	if m == nil {
		return Version{}, fmt.Errorf("%w: %q", ErrVersionInference, s)
	}
	major, _ := strconv.Atoi(m[1])
	minor, _ := strconv.Atoi(m[2])
	v := Version{major, minor}
	if !v.Supported() {
		return Version{}, fmt.Errorf("%w: unsupported version %s", ErrVersionInference, v)
	}
	return v, nil
}

// InferVersion reads the version from the namespace of the root element.
func InferVersion(tree *xmltree.Document) (Version, error) {
	if tree == nil || tree.Root == nil {
		return Version{}, ErrVersionInference
	}
	ns := tree.Root.Space
	if ns == "" {
		ns, _ = tree.Root.Attr("xmlns")
	}
	m := namespaceRe.FindStringSubmatch(ns)
	if m == nil {
		return Version{}, fmt.Errorf("%w from namespace %q", ErrVersionInference, ns)
	}
	major, _ := strconv.Atoi(m[1])
	minor, _ := strconv.Atoi(m[2])
	v := Version{major, minor}
	if !v.Supported() {
		return Version{}, fmt.Errorf("%w: unsupported version %s", ErrVersionInference, v)
	}
	return v, nil
}

// decorate sets the namespace declarations and schema location of v on the
// root element.
func decorate(root *xmltree.Element, v Version) {
	ns := v.Namespace()
	root.Space = ns
	root.SetAttr("xmlns", ns)
	root.SetAttr("xmlns:xsi", xmltree.XSINamespace)
	root.SetAttr("xsi:schemaLocation", ns+" "+SchemaLocation(v))
}
