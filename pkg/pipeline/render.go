package pipeline

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/matzehuels/qtikit/pkg/cache"
	"github.com/matzehuels/qtikit/pkg/codec"
	"github.com/matzehuels/qtikit/pkg/document"
	qio "github.com/matzehuels/qtikit/pkg/io"
	"github.com/matzehuels/qtikit/pkg/observability"
	"github.com/matzehuels/qtikit/pkg/render/tree"
)

// cached reports whether a format is stored in the cache. The other
// formats are cheaper to produce than to fetch.
func cached(format string) bool {
	return format == FormatDOT || format == FormatSVG
}

// Render generates the requested artifacts for doc. It reports true when
// every diagram came from the cache.
func (r *Runner) Render(ctx context.Context, doc *Document, opts Options) (artifacts map[string][]byte, hit bool, err error) {
	if err := opts.Validate(); err != nil {
		return nil, false, err
	}
	r.applyLogger(&opts)

	hooks := observability.Pipeline()
	hooks.OnRenderStart(ctx, opts.Formats)
	start := time.Now()
	defer func() { hooks.OnRenderComplete(ctx, opts.Formats, time.Since(start), err) }()

	streamHash := cache.Hash(doc.Stream)
	artifacts = make(map[string][]byte, len(opts.Formats))
	hit = true
	diagrams := 0
	for _, format := range opts.Formats {
		if !cached(format) {
			continue
		}
		diagrams++
		if opts.Refresh {
			hit = false
			continue
		}
		data, ok, err := r.Cache.Get(ctx, r.Keyer.TreeKey(streamHash, opts.treeFormat(format)))
		if err != nil || !ok {
			observability.Cache().OnCacheMiss(ctx, "tree")
			hit = false
			continue
		}
		observability.Cache().OnCacheHit(ctx, "tree")
		artifacts[format] = data
	}
	hit = hit && diagrams > 0

	rendered, err := render(ctx, doc, opts, artifacts)
	if err != nil {
		return nil, false, err
	}
	for format, data := range rendered {
		artifacts[format] = data
		if !cached(format) {
			continue
		}
		if err := r.Cache.Set(ctx, r.Keyer.TreeKey(streamHash, opts.treeFormat(format)), data, r.TTL); err != nil {
			opts.Logger.Warn("caching diagram failed", "format", format, "error", err)
			continue
		}
		observability.Cache().OnCacheSet(ctx, "tree", len(data))
	}
	return artifacts, hit, nil
}

// render produces every requested format missing from have.
func render(ctx context.Context, doc *Document, opts Options, have map[string][]byte) (map[string][]byte, error) {
	out := make(map[string][]byte)
	var (
		graph *qio.Graph
		dot   string
	)
	graphOf := func() (*qio.Graph, error) {
		if graph != nil {
			return graph, nil
		}
		g, err := qio.FromComponent(doc.Root)
		graph = g
		return g, err
	}
	dotOf := func() (string, error) {
		if dot != "" {
			return dot, nil
		}
		g, err := graphOf()
		if err != nil {
			return "", err
		}
		dot = tree.ToDOT(g, tree.Options{Detailed: opts.Detailed})
		return dot, nil
	}

	for _, format := range opts.Formats {
		if _, ok := have[format]; ok {
			continue
		}
		var (
			data []byte
			err  error
		)
		switch format {
		case FormatXML:
			data, err = renderXML(doc, opts)
		case FormatCompact:
			data, err = renderCompact(doc, opts)
		case FormatJSON:
			var g *qio.Graph
			if g, err = graphOf(); err == nil {
				var buf bytes.Buffer
				err = qio.WriteJSON(g, &buf)
				data = buf.Bytes()
			}
		case FormatDOT:
			var s string
			s, err = dotOf()
			data = []byte(s)
		case FormatSVG:
			var s string
			if s, err = dotOf(); err == nil {
				data, err = tree.RenderSVG(ctx, s)
			}
		default:
			err = fmt.Errorf("unsupported format: %s", format)
		}
		if err != nil {
			return nil, fmt.Errorf("render %s: %w", format, err)
		}
		out[format] = data
	}
	return out, nil
}

func renderXML(doc *Document, opts Options) ([]byte, error) {
	v := doc.Version
	if opts.Version != "" {
		// Checked by Options.Validate.
		v, _ = document.ParseVersion(opts.Version)
	}
	xd := document.New(
		document.WithVersion(v),
		document.WithFactory(opts.Factory),
		document.WithLogger(opts.Logger),
	)
	xd.SetDocumentComponent(doc.Root)
	var buf bytes.Buffer
	if err := xd.SaveTo(&buf, opts.Formatted); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func renderCompact(doc *Document, opts Options) ([]byte, error) {
	if !opts.Formatted {
		return doc.Stream, nil
	}
	return codec.Marshal(doc.Root, true)
}
