package cache

import (
	"context"
	"fmt"
)

// Backend names accepted by Open.
const (
	BackendNone   = "none"
	BackendFile   = "file"
	BackendMemory = "memory"
	BackendRedis  = "redis"
	BackendMongo  = "mongo"
)

// Backends lists the names accepted by Open.
var Backends = []string{BackendFile, BackendMemory, BackendRedis, BackendMongo, BackendNone}

// Options selects and configures a backend.
type Options struct {
	Backend  string
	Compress bool

	Dir  string // file
	Size int    // memory

	Redis RedisOptions
	Mongo MongoOptions
}

// Open builds the configured backend. An empty backend name means file.
func Open(ctx context.Context, o Options) (Cache, error) {
	var (
		c   Cache
		err error
	)
	switch o.Backend {
	case "", BackendFile:
		if o.Dir == "" {
			return nil, fmt.Errorf("file cache: directory is required")
		}
		c, err = NewFileCache(o.Dir)
	case BackendMemory:
		c, err = NewMemoryCache(o.Size)
	case BackendRedis:
		c, err = NewRedisCache(ctx, o.Redis)
	case BackendMongo:
		c, err = NewMongoCache(ctx, o.Mongo)
	case BackendNone:
		return NewNullCache(), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, o.Backend)
	}
	if err != nil {
		return nil, err
	}
	if o.Compress {
		c = NewCompressed(c)
	}
	return c, nil
}
