package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/matzehuels/qtikit/pkg/cache"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, `
[cache]
backend = "redis"
ttl = "1h30m"
compress = true
redis_addr = "localhost:6379"
redis_db = 2

[document]
version = "2.2"
validate = true

[server]
addr = "127.0.0.1:9000"
write_timeout = "1m"
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Cache.Backend != cache.BackendRedis {
		t.Errorf("Cache.Backend = %q, want redis", cfg.Cache.Backend)
	}
	if cfg.Cache.TTL.Duration != 90*time.Minute {
		t.Errorf("Cache.TTL = %v, want 1h30m", cfg.Cache.TTL)
	}
	if cfg.Document.Version != "2.2" || !cfg.Document.Validate {
		t.Errorf("Document = %+v", cfg.Document)
	}
	// Unset keys keep their defaults.
	if !cfg.Document.Formatted {
		t.Error("Document.Formatted should default to true")
	}
	if cfg.Server.ReadTimeout.Duration != 10*time.Second {
		t.Errorf("Server.ReadTimeout = %v, want 10s", cfg.Server.ReadTimeout)
	}
	if cfg.Server.WriteTimeout.Duration != time.Minute {
		t.Errorf("Server.WriteTimeout = %v, want 1m", cfg.Server.WriteTimeout)
	}

	opts, err := cfg.CacheOptions()
	if err != nil {
		t.Fatal(err)
	}
	if opts.Redis.Addr != "localhost:6379" || opts.Redis.DB != 2 || !opts.Compress {
		t.Errorf("CacheOptions() = %+v", opts)
	}
}

func TestLoadMissingDefaultFile(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load(\"\") error = %v", err)
	}
	if cfg.Server.Addr != ":8080" {
		t.Errorf("Server.Addr = %q, want default", cfg.Server.Addr)
	}
}

func TestLoadMissingExplicitFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.toml")); err == nil {
		t.Error("Load() of a missing explicit file should fail")
	}
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name string
		body string
		want error
	}{
		{"syntax", "[cache\n", nil},
		{"unknown key", "[cache]\ncolour = \"red\"\n", nil},
		{"bad duration", "[cache]\nttl = \"soon\"\n", nil},
		{"unknown backend", "[cache]\nbackend = \"memcached\"\n", cache.ErrUnknownBackend},
		{"bad version", "[document]\nversion = \"3.0\"\n", nil},
		{"negative size", "[cache]\nsize = -1\n", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.body))
			if err == nil {
				t.Fatal("Load() should fail")
			}
			if tt.want != nil && !errors.Is(err, tt.want) {
				t.Errorf("Load() error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestCacheOptionsDefaultDir(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_CACHE_HOME", dir)

	opts, err := Default().CacheOptions()
	if err != nil {
		t.Fatal(err)
	}
	if want := filepath.Join(dir, "qtikit"); opts.Dir != want {
		t.Errorf("Dir = %q, want %q", opts.Dir, want)
	}

	mem := Default()
	mem.Cache.Backend = cache.BackendMemory
	opts, err = mem.CacheOptions()
	if err != nil {
		t.Fatal(err)
	}
	if opts.Dir != "" {
		t.Errorf("memory backend Dir = %q, want empty", opts.Dir)
	}
}

func TestDefaultPath(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/tmp/xdg")
	got, err := DefaultPath()
	if err != nil {
		t.Fatal(err)
	}
	if want := "/tmp/xdg/qtikit/config.toml"; got != want {
		t.Errorf("DefaultPath() = %q, want %q", got, want)
	}
}

func TestExpandHome(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("no home directory")
	}
	if got := expandHome("~/cache"); got != filepath.Join(home, "cache") {
		t.Errorf("expandHome(~/cache) = %q", got)
	}
	if got := expandHome("/abs"); got != "/abs" {
		t.Errorf("expandHome(/abs) = %q", got)
	}
}
