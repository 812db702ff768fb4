package cache

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errDropped = errors.New("connection dropped")

func TestNullCache(t *testing.T) {
	ctx := context.Background()
	c := NewNullCache()
	defer c.Close()

	require.NoError(t, c.Set(ctx, "key", []byte("value"), time.Hour))
	data, hit, err := c.Get(ctx, "key")
	require.NoError(t, err)
	assert.False(t, hit)
	assert.Nil(t, data)
	assert.NoError(t, c.Delete(ctx, "key"))
}

// backends returns every backend that runs without external services.
func backends(t *testing.T) map[string]Cache {
	t.Helper()
	file, err := NewFileCache(t.TempDir())
	require.NoError(t, err)
	mem, err := NewMemoryCache(8)
	require.NoError(t, err)
	zfile, err := NewFileCache(t.TempDir())
	require.NoError(t, err)
	return map[string]Cache{
		"file":       file,
		"memory":     mem,
		"compressed": NewCompressed(zfile),
	}
}

func TestBackends(t *testing.T) {
	ctx := context.Background()
	for name, c := range backends(t) {
		t.Run(name, func(t *testing.T) {
			defer c.Close()

			_, hit, err := c.Get(ctx, "missing")
			require.NoError(t, err)
			assert.False(t, hit)

			stream := []byte(`$v0=new textRun(content:"x");`)
			require.NoError(t, c.Set(ctx, "k", stream, 0))
			got, hit, err := c.Get(ctx, "k")
			require.NoError(t, err)
			require.True(t, hit)
			assert.Equal(t, stream, got)

			require.NoError(t, c.Delete(ctx, "k"))
			_, hit, err = c.Get(ctx, "k")
			require.NoError(t, err)
			assert.False(t, hit)

			assert.NoError(t, c.Delete(ctx, "k"), "deleting a missing key")
		})
	}
}

func TestFileCacheExpiry(t *testing.T) {
	ctx := context.Background()
	c, err := NewFileCache(t.TempDir())
	require.NoError(t, err)

	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }
	require.NoError(t, c.Set(ctx, "k", []byte("v"), time.Minute))

	_, hit, _ := c.Get(ctx, "k")
	assert.True(t, hit)

	now = now.Add(2 * time.Minute)
	_, hit, _ = c.Get(ctx, "k")
	assert.False(t, hit)
}

func TestFileCacheCorruptEntryIsMiss(t *testing.T) {
	ctx := context.Background()
	c, err := NewFileCache(t.TempDir())
	require.NoError(t, err)

	path := c.path("k")
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	_, hit, err := c.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, hit)
	assert.NoFileExists(t, path)
}

func TestFileCacheClear(t *testing.T) {
	ctx := context.Background()
	c, err := NewFileCache(t.TempDir())
	require.NoError(t, err)
	require.NoError(t, c.Set(ctx, "a", []byte("one"), 0))
	require.NoError(t, c.Set(ctx, "b", []byte("two"), 0))

	freed, err := c.Clear()
	require.NoError(t, err)
	assert.Positive(t, freed)

	entries, err := os.ReadDir(c.Dir())
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestMemoryCacheEvicts(t *testing.T) {
	ctx := context.Background()
	c, err := NewMemoryCache(2)
	require.NoError(t, err)

	require.NoError(t, c.Set(ctx, "a", []byte("1"), 0))
	require.NoError(t, c.Set(ctx, "b", []byte("2"), 0))
	_, _, _ = c.Get(ctx, "a")
	require.NoError(t, c.Set(ctx, "c", []byte("3"), 0))

	assert.Equal(t, 2, c.Len())
	_, hit, _ := c.Get(ctx, "b")
	assert.False(t, hit, "least recently used entry survived")
	_, hit, _ = c.Get(ctx, "a")
	assert.True(t, hit)
}

func TestMemoryCacheExpiry(t *testing.T) {
	ctx := context.Background()
	c, err := NewMemoryCache(0)
	require.NoError(t, err)
	now := time.Now()
	c.now = func() time.Time { return now }

	require.NoError(t, c.Set(ctx, "k", []byte("v"), time.Second))
	now = now.Add(time.Hour)
	_, hit, _ := c.Get(ctx, "k")
	assert.False(t, hit)
	assert.Zero(t, c.Len())
}

func TestCompressedStoresSmallerEntries(t *testing.T) {
	ctx := context.Background()
	mem, err := NewMemoryCache(0)
	require.NoError(t, err)
	c := NewCompressed(mem)

	data := []byte(strings.Repeat(`$v0=new br();`, 200))
	require.NoError(t, c.Set(ctx, "k", data, 0))

	raw, hit, _ := mem.Get(ctx, "k")
	require.True(t, hit)
	assert.Less(t, len(raw), len(data))

	require.NoError(t, mem.Set(ctx, "k", []byte("\x00x"), 0))
	_, _, err = c.Get(ctx, "k")
	assert.ErrorIs(t, err, ErrCorrupt)
}

func TestKeyer(t *testing.T) {
	k := NewDefaultKeyer()
	h := Hash([]byte("<assessmentItem/>"))

	a := k.StreamKey(h, StreamKeyOpts{Version: "2.1"})
	b := k.StreamKey(h, StreamKeyOpts{Version: "2.1", Validate: true})
	assert.NotEqual(t, a, b)
	assert.Equal(t, a, k.StreamKey(h, StreamKeyOpts{Version: "2.1"}))
	assert.True(t, strings.HasPrefix(a, "stream:"))

	assert.Equal(t, "doc:42", k.DocumentKey("42"))
	assert.NotEqual(t, k.TreeKey(h, "svg"), k.TreeKey(h, "dot"))
}

func TestScopedKeyer(t *testing.T) {
	scoped := NewScopedKeyer(nil, "staging:")
	assert.Equal(t, "staging:doc:42", scoped.DocumentKey("42"))
	assert.True(t, strings.HasPrefix(scoped.StreamKey("h", StreamKeyOpts{}), "staging:stream:"))
	assert.True(t, strings.HasPrefix(scoped.TreeKey("h", "svg"), "staging:tree:"))
}

func TestHash(t *testing.T) {
	h := Hash([]byte("hello"))
	assert.Len(t, h, 64)
	assert.Equal(t, h, Hash([]byte("hello")))
	assert.NotEqual(t, h, Hash([]byte("world")))
}

func TestRetryableError(t *testing.T) {
	assert.Nil(t, Retryable(nil))

	err := Retryable(errDropped)
	assert.True(t, IsRetryable(err))
	assert.ErrorIs(t, err, errDropped)
	assert.Equal(t, errDropped.Error(), err.Error())
	assert.False(t, IsRetryable(ErrCorrupt))
}

func TestRetryWithBackoff(t *testing.T) {
	ctx := context.Background()

	calls := 0
	err := RetryWithBackoff(ctx, func() error { calls++; return nil })
	require.NoError(t, err)
	assert.Equal(t, 1, calls)

	calls = 0
	err = RetryWithBackoff(ctx, func() error { calls++; return ErrCorrupt })
	assert.ErrorIs(t, err, ErrCorrupt)
	assert.Equal(t, 1, calls, "non-retryable errors are not retried")

	calls = 0
	err = RetryWithBackoff(ctx, func() error {
		calls++
		if calls < 2 {
			return Retryable(errDropped)
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
}

func TestRetryWithBackoffContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := RetryWithBackoff(ctx, func() error { return Retryable(errDropped) })
	assert.ErrorIs(t, err, context.Canceled)
}

func TestOpen(t *testing.T) {
	ctx := context.Background()

	c, err := Open(ctx, Options{Backend: BackendFile, Dir: t.TempDir(), Compress: true})
	require.NoError(t, err)
	assert.IsType(t, &Compressed{}, c)

	c, err = Open(ctx, Options{Backend: BackendMemory})
	require.NoError(t, err)
	assert.IsType(t, &MemoryCache{}, c)

	c, err = Open(ctx, Options{Backend: BackendNone})
	require.NoError(t, err)
	assert.IsType(t, NullCache{}, c)

	_, err = Open(ctx, Options{Backend: "memcached"})
	assert.ErrorIs(t, err, ErrUnknownBackend)

	_, err = Open(ctx, Options{Backend: BackendRedis})
	assert.ErrorContains(t, err, "address is required")

	_, err = Open(ctx, Options{Backend: BackendMongo})
	assert.ErrorContains(t, err, "uri is required")

	_, err = Open(ctx, Options{Backend: BackendFile})
	assert.ErrorContains(t, err, "directory is required")
}
