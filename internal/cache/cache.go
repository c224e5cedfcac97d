package cache

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/ppiankov/vibecheck/internal/model"
)

// Store is a key-value blob store for generated view documents.
// Get reports a miss with ok=false and a nil error; errors are reserved for I/O failures.
type Store interface {
	Get(ctx context.Context, key string) (value []byte, ok bool, err error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	Clear(ctx context.Context) error
}

// Open builds the store selected by cfg.Backend
func Open(cfg model.CacheConfig) (Store, error) {
	switch strings.ToLower(cfg.Backend) {
	case "", "disk":
		return NewDiskCache(cfg.Dir, cfg.TTL), nil
	case "memory":
		return NewMemoryCache(cfg.TTL, 10*time.Minute), nil
	case "layered":
		return NewLayeredCache(cfg.MemoryTTL, cfg.Dir, cfg.TTL), nil
	case "sqlite":
		dsn := cfg.DSN
		if dsn == "" {
			dsn = cfg.Dir + "/vibecheck.db"
		}
		return OpenSQLStore(DriverSQLite, dsn, cfg.TTL)
	case "postgres":
		if cfg.DSN == "" {
			return nil, fmt.Errorf("cache backend postgres requires cache.dsn")
		}
		return OpenSQLStore(DriverPostgres, cfg.DSN, cfg.TTL)
	default:
		return nil, fmt.Errorf("unsupported cache backend: %s (supported: disk, memory, layered, sqlite, postgres)", cfg.Backend)
	}
}

// Close releases the store's resources when it holds any
func Close(s Store) error {
	if c, ok := s.(interface{ Close() error }); ok {
		return c.Close()
	}
	return nil
}

func ioError(op, key string, err error) error {
	return fmt.Errorf("%w: %s %s: %v", model.ErrCacheIO, op, key, err)
}
