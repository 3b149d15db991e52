package cache

import (
	"context"

	"github.com/matzehuels/ctabridge/pkg/errors"
)

// Backend names accepted by Open.
const (
	BackendSQLite   = "sqlite"
	BackendPostgres = "postgres"
	BackendRedis    = "redis"
	BackendMongo    = "mongo"
	BackendFile     = "file"
	BackendMemory   = "memory"
	BackendNone     = "none"
)

// Backends lists every backend name.
var Backends = []string{BackendSQLite, BackendPostgres, BackendRedis, BackendMongo, BackendFile, BackendMemory, BackendNone}

// Options selects and configures a Store.
type Options struct {
	Backend string

	// Path is the SQLite database file or the file store directory.
	Path string

	// DSN is the PostgreSQL connection string.
	DSN string

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	MongoURI      string
	MongoDatabase string
}

// Open creates the store described by opts.
func Open(ctx context.Context, opts Options) (Store, error) {
	switch opts.Backend {
	case BackendSQLite, "":
		if opts.Path == "" {
			return nil, errors.New(errors.ErrCodeInvalidConfig, "sqlite cache needs a path")
		}
		return OpenSQLite(ctx, opts.Path)
	case BackendPostgres:
		if opts.DSN == "" {
			return nil, errors.New(errors.ErrCodeInvalidConfig, "postgres cache needs a dsn")
		}
		return OpenPostgres(ctx, opts.DSN)
	case BackendRedis:
		return OpenRedis(ctx, opts.RedisAddr, opts.RedisPassword, opts.RedisDB)
	case BackendMongo:
		if opts.MongoURI == "" {
			return nil, errors.New(errors.ErrCodeInvalidConfig, "mongo cache needs a uri")
		}
		return OpenMongo(ctx, opts.MongoURI, opts.MongoDatabase)
	case BackendFile:
		if opts.Path == "" {
			return nil, errors.New(errors.ErrCodeInvalidConfig, "file cache needs a directory")
		}
		s, err := NewFileStore(opts.Path)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeInternal, err, "create file cache %s", opts.Path)
		}
		return s, nil
	case BackendMemory:
		return NewMemoryStore(), nil
	case BackendNone:
		return NewNullStore(), nil
	default:
		return nil, errors.New(errors.ErrCodeInvalidConfig, "unknown cache backend %q", opts.Backend)
	}
}
