package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/hammamikhairi/ottointake/internal/domain"
	"github.com/hammamikhairi/ottointake/internal/logger"
)

// Backend names accepted by Open.
const (
	BackendMemory   = "memory"
	BackendSQLite   = "sqlite"
	BackendPostgres = "postgres"
	BackendRedis    = "redis"
)

// Config selects and configures a backend.
type Config struct {
	Backend       string
	DSN           string // sqlite path or postgres DSN
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	TTL           time.Duration // redis only
}

// Store is a KV store that holds resources.
type Store interface {
	domain.KVStore
	Close() error
}

// Open creates the configured backend. An empty backend means memory.
func Open(ctx context.Context, cfg Config, log *logger.Logger) (Store, error) {
	log = log.Named(cfgName(cfg.Backend))
	switch cfg.Backend {
	case "", BackendMemory:
		return NewMemoryStore(log), nil
	case BackendSQLite:
		path := cfg.DSN
		if path == "" {
			path = "ottointake.db"
		}
		return OpenSQLite(ctx, path, log)
	case BackendPostgres:
		if cfg.DSN == "" {
			return nil, fmt.Errorf("storage: postgres needs a DSN")
		}
		return OpenPostgres(ctx, cfg.DSN, log)
	case BackendRedis:
		addr := cfg.RedisAddr
		if addr == "" {
			addr = "localhost:6379"
		}
		s := NewRedisStore(addr, cfg.RedisPassword, cfg.RedisDB, cfg.TTL, log)
		if err := s.Ping(ctx); err != nil {
			_ = s.Close()
			return nil, err
		}
		return s, nil
	default:
		return nil, fmt.Errorf("storage: unknown backend %q", cfg.Backend)
	}
}

func cfgName(backend string) string {
	if backend == "" {
		return BackendMemory
	}
	return backend
}
