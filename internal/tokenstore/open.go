package tokenstore

import (
	"context"
	"fmt"

	"shopifyauth/pkg/config"
	"shopifyauth/pkg/db"
)

// Open returns the backend selected by cfg.TokenStore and a close func.
func Open(ctx context.Context, cfg config.Config) (Store, func(), error) {
	switch cfg.TokenStore {
	case "", "file":
		return NewFileStore(cfg.TokensPath), func() {}, nil
	case "postgres":
		if cfg.MigrationsPath != "" {
			if err := db.Migrate(cfg.MigrationsPath, cfg); err != nil {
				return nil, nil, fmt.Errorf("migrate: %w", err)
			}
		}
		pool, err := db.Open(ctx, cfg)
		if err != nil {
			return nil, nil, fmt.Errorf("db open: %w", err)
		}
		return NewPostgresStore(pool), pool.Close, nil
	default:
		return nil, nil, fmt.Errorf("unknown TOKEN_STORE %q (want file or postgres)", cfg.TokenStore)
	}
}
