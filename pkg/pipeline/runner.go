package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/qtikit/pkg/cache"
	"github.com/matzehuels/qtikit/pkg/observability"
	"github.com/matzehuels/qtikit/pkg/qti"
)

// Runner executes the pipeline with caching.
//
// The Runner is stateless except for the cache and logger. Multiple
// goroutines can use the same Runner with different options.
type Runner struct {
	Cache  cache.Cache
	Keyer  cache.Keyer
	Logger *log.Logger
	TTL    time.Duration
}

// NewRunner creates a runner with the given cache and keyer.
// If keyer is nil, a DefaultKeyer is used.
// If cache is nil, a NullCache is used (caching disabled).
func NewRunner(c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{
		Cache:  c,
		Keyer:  keyer,
		Logger: logger,
		TTL:    DefaultTTL,
	}
}

// Execute runs load and render.
func (r *Runner) Execute(ctx context.Context, data []byte, opts Options) (*Result, error) {
	if err := opts.Validate(); err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}
	r.applyLogger(&opts)

	result := &Result{ContentHash: cache.Hash(data)}

	loadStart := time.Now()
	doc, loadHit, err := r.Load(ctx, data, opts)
	if err != nil {
		return nil, fmt.Errorf("load: %w", err)
	}
	result.Document = doc
	result.Stats.LoadTime = time.Since(loadStart)
	result.Stats.Components = doc.Components()
	result.Stats.Kinds = qti.CountKinds(doc.Root)
	result.Stats.Kinds[doc.Root.ClassName()]++
	result.CacheInfo.LoadHit = loadHit

	r.Logger.Info("loaded document",
		"kind", doc.Root.ClassName(),
		"version", doc.Version,
		"components", result.Stats.Components,
		"cached", loadHit,
		"duration", result.Stats.LoadTime)

	renderStart := time.Now()
	artifacts, renderHit, err := r.Render(ctx, doc, opts)
	if err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	result.Artifacts = artifacts
	result.Stats.RenderTime = time.Since(renderStart)
	result.CacheInfo.RenderHit = renderHit

	r.Logger.Info("rendered outputs",
		"formats", opts.Formats,
		"duration", result.Stats.RenderTime)

	return result, nil
}

// Store saves doc under id.
func (r *Runner) Store(ctx context.Context, id string, doc *Document) error {
	data, err := marshalEnvelope(doc)
	if err != nil {
		return err
	}
	key := r.Keyer.DocumentKey(id)
	if err := r.Cache.Set(ctx, key, data, r.TTL); err != nil {
		return fmt.Errorf("store document %s: %w", id, err)
	}
	observability.Cache().OnCacheSet(ctx, "document", len(data))
	return nil
}

// Fetch returns the document stored under id. It reports false when there
// is none.
func (r *Runner) Fetch(ctx context.Context, id string) (*Document, bool, error) {
	data, ok, err := r.Cache.Get(ctx, r.Keyer.DocumentKey(id))
	if err != nil {
		return nil, false, fmt.Errorf("fetch document %s: %w", id, err)
	}
	if !ok {
		observability.Cache().OnCacheMiss(ctx, "document")
		return nil, false, nil
	}
	doc, err := unmarshalEnvelope(data)
	if err != nil {
		return nil, false, fmt.Errorf("fetch document %s: %w", id, err)
	}
	observability.Cache().OnCacheHit(ctx, "document")
	return doc, true, nil
}

// Remove deletes the document stored under id.
func (r *Runner) Remove(ctx context.Context, id string) error {
	return r.Cache.Delete(ctx, r.Keyer.DocumentKey(id))
}

// Close releases resources held by the runner (primarily the cache).
func (r *Runner) Close() error {
	if r.Cache != nil {
		return r.Cache.Close()
	}
	return nil
}

// applyLogger sets the runner's logger on options if not already set.
func (r *Runner) applyLogger(opts *Options) {
	if opts.Logger == nil {
		opts.Logger = r.Logger
	}
}
