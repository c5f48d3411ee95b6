package draft

import (
	"context"
	"fmt"

	"github.com/debemdeboas/inkwell/internal/config"
	"github.com/debemdeboas/inkwell/internal/db"
	"github.com/debemdeboas/inkwell/internal/util/compression"
	"github.com/redis/go-redis/v9"
)

// OpenStore builds the local store named by cfg.Backend. d is used by the sqlite backend and may
// be nil otherwise. The returned func releases the store's connections.
func OpenStore(ctx context.Context, cfg config.DraftsConfig, d db.Db, codec compression.Compressor) (LocalStore, func() error, error) {
	noop := func() error { return nil }

	switch cfg.Backend {
	case "memory":
		return NewMemoryStore(), noop, nil
	case "sqlite":
		if d == nil {
			return nil, nil, fmt.Errorf("sqlite draft store needs a database")
		}
		return NewSQLiteStore(d, codec), noop, nil
	case "redis":
		client := redis.NewClient(&redis.Options{Addr: cfg.Redis.Addr})
		if err := client.Ping(ctx).Err(); err != nil {
			client.Close()
			return nil, nil, fmt.Errorf("failed to reach redis at %s: %w", cfg.Redis.Addr, err)
		}
		draftLogger.Debug().Str("addr", cfg.Redis.Addr).Str("namespace", cfg.Redis.Namespace).Msg("Using redis draft store")
		return NewRedisStore(client, cfg.Redis.Namespace, cfg.Redis.TTL), client.Close, nil
	}
	return nil, nil, fmt.Errorf("unknown drafts backend %q", cfg.Backend)
}
