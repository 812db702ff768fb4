// Package cache stores compact component streams and other derived
// artifacts under content-addressed keys.
//
// Every backend implements Cache. Keys are built by a Keyer so that the
// same document loaded with the same options always maps to the same entry:
//
//	keyer := cache.NewDefaultKeyer()
//	key := keyer.StreamKey(cache.Hash(xml), cache.StreamKeyOpts{Version: "2.1"})
//	data, hit, err := c.Get(ctx, key)
//
// Backends:
//   - NullCache never stores anything.
//   - FileCache keeps one file per entry under a directory (CLI default).
//   - MemoryCache is a bounded LRU held in process.
//   - RedisCache and MongoCache share entries between server instances.
//
// Compressed wraps any backend with snappy block compression.
package cache

import (
	"context"
	"time"
)

// Cache is a byte store with per-entry expiry. A zero ttl never expires.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Close() error
}

// Keyer derives cache keys.
type Keyer interface {
	// StreamKey is the key of the compact stream of a document, given the
	// hash of its XML.
	StreamKey(contentHash string, opts StreamKeyOpts) string

	// DocumentKey is the key of a document stored by id.
	DocumentKey(id string) string

	// TreeKey is the key of a rendered component tree.
	TreeKey(streamHash string, format string) string
}

// StreamKeyOpts are the load options that change the decoded graph.
type StreamKeyOpts struct {
	Version  string `json:"version,omitempty"`
	Validate bool   `json:"validate,omitempty"`
}

// DefaultKeyer builds keys of the form "kind:sha256".
type DefaultKeyer struct{}

// NewDefaultKeyer returns the default keyer.
func NewDefaultKeyer() Keyer { return DefaultKeyer{} }

func (DefaultKeyer) StreamKey(contentHash string, opts StreamKeyOpts) string {
	return hashKey("stream", contentHash, opts)
}

func (DefaultKeyer) DocumentKey(id string) string { return "doc:" + id }

func (DefaultKeyer) TreeKey(streamHash, format string) string {
	return hashKey("tree", streamHash, format)
}
