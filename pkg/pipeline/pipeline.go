// Package pipeline provides the load → render pipeline shared by the CLI
// and the HTTP server.
//
// # Architecture
//
// The pipeline has two stages:
//
//  1. Load: parse QTI XML into a component graph. The graph is cached as a
//     compact stream under the hash of the XML, so loading the same bytes
//     again skips XML parsing and unmarshalling.
//  2. Render: produce artifacts from the graph: XML, the compact stream, the
//     JSON node/edge export, and DOT or SVG tree diagrams. Diagrams are
//     cached under the hash of the stream.
//
// # Usage
//
//	runner := pipeline.NewRunner(c, nil, logger)
//	defer runner.Close()
//
//	result, err := runner.Execute(ctx, data, pipeline.Options{
//	    Formats: []string{pipeline.FormatXML, pipeline.FormatSVG},
//	})
//	if err != nil {
//	    return err
//	}
//	svg := result.Artifacts[pipeline.FormatSVG]
//
// Stages can also run on their own:
//
//	doc, hit, err := runner.Load(ctx, data, opts)
//	artifacts, hit, err := runner.Render(ctx, doc, opts)
package pipeline

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/qtikit/pkg/cache"
	"github.com/matzehuels/qtikit/pkg/document"
	"github.com/matzehuels/qtikit/pkg/marshal"
	"github.com/matzehuels/qtikit/pkg/qti"
)

// DefaultTTL is how long cached streams and diagrams live.
const DefaultTTL = 7 * 24 * time.Hour

// Format constants for output formats.
const (
	FormatXML     = "xml"
	FormatCompact = "compact"
	FormatJSON    = "json"
	FormatDOT     = "dot"
	FormatSVG     = "svg"
)

// ValidFormats is the set of supported output formats.
var ValidFormats = map[string]bool{
	FormatXML:     true,
	FormatCompact: true,
	FormatJSON:    true,
	FormatDOT:     true,
	FormatSVG:     true,
}

// ValidateFormat checks that a format is valid.
func ValidateFormat(format string) error {
	if !ValidFormats[format] {
		return fmt.Errorf("invalid format: %q (must be one of: xml, compact, json, dot, svg)", format)
	}
	return nil
}

// ValidateFormats checks that all formats are valid.
func ValidateFormats(formats []string) error {
	for _, f := range formats {
		if err := ValidateFormat(f); err != nil {
			return err
		}
	}
	return nil
}

// Options configures a pipeline run.
type Options struct {
	// Source names the input in logs and hooks, e.g. a file path.
	Source string

	// Version overrides the QTI version written to XML output. Empty keeps
	// the version inferred from the input.
	Version string

	// Validate runs schema validation during load. It requires Validator.
	Validate bool

	// Formatted indents XML and lays compact streams out one instruction
	// per line.
	Formatted bool

	// Detailed adds attributes and text to diagram labels.
	Detailed bool

	// Refresh bypasses cache reads. Results are still written back.
	Refresh bool

	// Formats lists the artifacts to render. Empty means xml.
	Formats []string

	Logger    *log.Logger        `json:"-"`
	Validator document.Validator `json:"-"`
	Factory   *marshal.Factory   `json:"-"`
}

// Validate checks the options and applies defaults.
func (o *Options) Validate() error {
	if len(o.Formats) == 0 {
		o.Formats = []string{FormatXML}
	}
	if err := ValidateFormats(o.Formats); err != nil {
		return err
	}
	if o.Version != "" {
		if _, err := document.ParseVersion(o.Version); err != nil {
			return err
		}
	}
	if o.Validate && o.Validator == nil {
		return document.ErrNoValidator
	}
	return nil
}

func (o *Options) streamKeyOpts() cache.StreamKeyOpts {
	return cache.StreamKeyOpts{Version: o.Version, Validate: o.Validate}
}

// treeFormat is the cache key format of a diagram.
func (o *Options) treeFormat(format string) string {
	if o.Detailed {
		return format + "+detailed"
	}
	return format
}

// Document is a loaded component graph.
type Document struct {
	Root    qti.Component
	Version document.Version

	// Stream is the compact encoding of Root.
	Stream []byte
}

// Components counts the components of the graph, shared ones once.
func (d *Document) Components() int {
	n := 1
	for range qti.Descendants(d.Root) {
		n++
	}
	return n
}

// Result contains the outputs of a pipeline run.
type Result struct {
	Document *Document

	// ContentHash is the hash of the input XML.
	ContentHash string

	// Artifacts contains rendered outputs keyed by format.
	Artifacts map[string][]byte

	Stats     Stats
	CacheInfo CacheInfo
}

// Stats contains pipeline execution statistics.
type Stats struct {
	Components int
	Kinds      map[string]int
	LoadTime   time.Duration
	RenderTime time.Duration
}

// KindSummary lists the most frequent kinds as "kind×n", at most limit of
// them.
func (s Stats) KindSummary(limit int) string {
	type kc struct {
		kind  string
		count int
	}
	var all []kc
	for k, n := range s.Kinds {
		all = append(all, kc{k, n})
	}
	slices.SortFunc(all, func(a, b kc) int {
		if a.count != b.count {
			return b.count - a.count
		}
		return strings.Compare(a.kind, b.kind)
	})
	parts := make([]string, 0, limit)
	for i, e := range all {
		if i == limit {
			break
		}
		parts = append(parts, fmt.Sprintf("%s×%d", e.kind, e.count))
	}
	return strings.Join(parts, " ")
}

// CacheInfo tracks cache hits for each pipeline stage.
type CacheInfo struct {
	LoadHit   bool // Whether the graph came from a cached stream
	RenderHit bool // Whether every diagram came from cache
}
