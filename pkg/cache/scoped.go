package cache

// ScopedKeyer prefixes every key of an inner Keyer, so that several
// deployments can share one Redis or Mongo backend.
//
//	keyer := NewScopedKeyer(NewDefaultKeyer(), "staging:")
type ScopedKeyer struct {
	inner  Keyer
	prefix string
}

// NewScopedKeyer wraps inner, or the default keyer when inner is nil.
func NewScopedKeyer(inner Keyer, prefix string) Keyer {
	if inner == nil {
		inner = NewDefaultKeyer()
	}
	return &ScopedKeyer{inner: inner, prefix: prefix}
}

func (k *ScopedKeyer) StreamKey(contentHash string, opts StreamKeyOpts) string {
	return k.prefix + k.inner.StreamKey(contentHash, opts)
}

func (k *ScopedKeyer) DocumentKey(id string) string {
	return k.prefix + k.inner.DocumentKey(id)
}

func (k *ScopedKeyer) TreeKey(streamHash, format string) string {
	return k.prefix + k.inner.TreeKey(streamHash, format)
}
