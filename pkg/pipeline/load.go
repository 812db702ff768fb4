package pipeline

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/matzehuels/qtikit/pkg/cache"
	"github.com/matzehuels/qtikit/pkg/codec"
	"github.com/matzehuels/qtikit/pkg/document"
	"github.com/matzehuels/qtikit/pkg/observability"
)

// envelope is the cached form of a Document.
type envelope struct {
	Version string `json:"version"`
	Stream  string `json:"stream"`
}

func marshalEnvelope(doc *Document) ([]byte, error) {
	return json.Marshal(envelope{Version: doc.Version.String(), Stream: string(doc.Stream)})
}

func unmarshalEnvelope(data []byte) (*Document, error) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("%w: %w", cache.ErrCorrupt, err)
	}
	v, err := document.ParseVersion(env.Version)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", cache.ErrCorrupt, err)
	}
	root, err := codec.UnmarshalComponent([]byte(env.Stream))
	if err != nil {
		return nil, err
	}
	return &Document{Root: root, Version: v, Stream: []byte(env.Stream)}, nil
}

// Load turns QTI XML into a Document, using the cached stream when the same
// bytes were loaded before with the same options. It reports whether the
// cache was hit.
func (r *Runner) Load(ctx context.Context, data []byte, opts Options) (doc *Document, hit bool, err error) {
	r.applyLogger(&opts)
	hooks := observability.Pipeline()
	hooks.OnLoadStart(ctx, opts.Source)
	start := time.Now()
	defer func() {
		n := 0
		if doc != nil {
			n = doc.Components()
		}
		hooks.OnLoadComplete(ctx, n, time.Since(start), err)
	}()

	key := r.Keyer.StreamKey(cache.Hash(data), opts.streamKeyOpts())

	if !opts.Refresh {
		if cached, ok := r.cachedDocument(ctx, key, opts); ok {
			return cached, true, nil
		}
	}

	doc, err = loadXML(data, opts)
	if err != nil {
		return nil, false, err
	}

	if env, err := marshalEnvelope(doc); err == nil {
		if err := r.Cache.Set(ctx, key, env, r.TTL); err != nil {
			opts.Logger.Warn("caching stream failed", "error", err)
		} else {
			observability.Cache().OnCacheSet(ctx, "stream", len(env))
		}
	}
	return doc, false, nil
}

func (r *Runner) cachedDocument(ctx context.Context, key string, opts Options) (*Document, bool) {
	data, ok, err := r.Cache.Get(ctx, key)
	if err != nil {
		opts.Logger.Warn("cache read failed", "error", err)
	}
	if !ok {
		observability.Cache().OnCacheMiss(ctx, "stream")
		return nil, false
	}
	doc, err := unmarshalEnvelope(data)
	if err != nil {
		// Fall through to a fresh load.
		opts.Logger.Debug("discarding cached stream", "error", err)
		observability.Cache().OnCacheMiss(ctx, "stream")
		return nil, false
	}
	observability.Cache().OnCacheHit(ctx, "stream")
	return doc, true
}

func loadXML(data []byte, opts Options) (*Document, error) {
	xd := document.New(
		document.WithLogger(opts.Logger),
		document.WithValidator(opts.Validator),
		document.WithFactory(opts.Factory),
	)
	if err := xd.LoadFrom(bytes.NewReader(data), opts.Validate); err != nil {
		return nil, err
	}
	root := xd.DocumentComponent()
	stream, err := codec.Marshal(root, false)
	if err != nil {
		return nil, fmt.Errorf("encode stream: %w", err)
	}
	return &Document{Root: root, Version: xd.Version(), Stream: stream}, nil
}
