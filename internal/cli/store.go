package cli

import (
	"fmt"
	"log/slog"

	"github.com/aretw0/courselet/internal/config"
	"github.com/aretw0/courselet/pkg/adapters/file"
	"github.com/aretw0/courselet/pkg/adapters/memory"
	redisstore "github.com/aretw0/courselet/pkg/adapters/redis"
	"github.com/aretw0/courselet/pkg/persistence/middleware"
	"github.com/aretw0/courselet/pkg/ports"
)

// Persistence is the session store chosen by configuration.
type Persistence struct {
	Store ports.SessionStore
	// Locker is set when redis-backed distributed locking is enabled.
	Locker ports.DistributedLocker
	Close  func() error
}

// OpenStore builds the configured session store, wrapped with encryption when
// a key is set.
func OpenStore(cfg *config.Config, logger *slog.Logger) (*Persistence, error) {
	p := &Persistence{Close: func() error { return nil }}

	var base ports.SessionStore
	switch cfg.Store.Backend {
	case config.StoreMemory:
		base = memory.NewStore()
	case config.StoreFile:
		base = file.New(cfg.Store.Dir)
	case config.StoreRedis:
		rs := redisstore.New(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB,
			redisstore.WithPrefix(cfg.Redis.Prefix),
			redisstore.WithTTL(cfg.Redis.TTL),
		)
		base = rs
		p.Close = rs.Close
		if cfg.Redis.DistributedLock {
			p.Locker = redisstore.NewLocker(rs.Client(), rs.Prefix())
		}
	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.Store.Backend)
	}
	logger.Debug("session store selected", "backend", cfg.Store.Backend)

	if cfg.Store.EncryptionKey == "" {
		p.Store = base
		return p, nil
	}
	mw, err := encryption(cfg.Store.EncryptionKey, cfg.Store.FallbackKeys)
	if err != nil {
		_ = p.Close()
		return nil, err
	}
	p.Store = middleware.Chain(base, mw)
	logger.Debug("session encryption enabled", "fallback_keys", len(cfg.Store.FallbackKeys))
	return p, nil
}

func encryption(active string, fallback []string) (middleware.Middleware, error) {
	key, err := middleware.ParseKey(active)
	if err != nil {
		return nil, fmt.Errorf("store.encryption_key: %w", err)
	}
	conf := middleware.EncryptionConfig{ActiveKey: key}
	for i, f := range fallback {
		k, err := middleware.ParseKey(f)
		if err != nil {
			return nil, fmt.Errorf("store.fallback_keys[%d]: %w", i, err)
		}
		conf.FallbackKeys = append(conf.FallbackKeys, k)
	}
	return middleware.NewEncryptionMiddleware(conf)
}
