package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/redis/go-redis/v9"
	"github.com/rpggio/internpm/internal/config"
	"github.com/rpggio/internpm/internal/medium"
	"github.com/rpggio/internpm/internal/redisstore"
	"github.com/rpggio/internpm/internal/sqlite"
)

// openMedium opens the configured storage medium. The returned func releases it.
func openMedium(ctx context.Context, cfg config.MediumConfig) (medium.Medium, func(), error) {
	switch cfg.Driver {
	case config.DriverMemory:
		return medium.NewMemory(cfg.QuotaBytes), func() {}, nil

	case config.DriverRedis:
		client := redis.NewClient(&redis.Options{
			Addr: cfg.Redis.Addr,
			DB:   cfg.Redis.DB,
		})
		if err := client.Ping(ctx).Err(); err != nil {
			_ = client.Close()
			return nil, nil, fmt.Errorf("connecting to redis at %s: %w", cfg.Redis.Addr, err)
		}
		return redisstore.NewMedium(client, cfg.Redis.Prefix, cfg.QuotaBytes), func() { _ = client.Close() }, nil

	case config.DriverSQLite:
		if err := ensureDBDir(cfg.SQLite.Path); err != nil {
			return nil, nil, fmt.Errorf("preparing database path: %w", err)
		}
		db, err := sqlite.New(cfg.SQLite.Path)
		if err != nil {
			return nil, nil, err
		}
		if err := db.RunMigrations(); err != nil {
			_ = db.Close()
			return nil, nil, err
		}
		return sqlite.NewMedium(db, cfg.QuotaBytes), func() { _ = db.Close() }, nil

	default:
		return nil, nil, fmt.Errorf("unknown medium driver %q", cfg.Driver)
	}
}

func ensureDBDir(path string) error {
	if path == ":memory:" || path == "" {
		return nil
	}
	dir := filepath.Dir(path)
	if dir == "." {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}
