package store

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/me/schedsim/internal/config"
)

// Open builds the backend selected by cfg and runs its migrations.
func Open(ctx context.Context, cfg config.StoreConfig, logger *slog.Logger) (Store, error) {
	var st Store
	switch cfg.Backend {
	case config.StoreMemory, "":
		st = NewMemoryStore()
	case config.StoreSQLite:
		dbPath, err := resolveDBPath(cfg.DBPath)
		if err != nil {
			return nil, err
		}
		sq, err := NewSQLiteStore(dbPath, logger)
		if err != nil {
			return nil, err
		}
		st = sq
	case config.StoreRedis:
		rcfg := DefaultRedisConfig()
		rcfg.Address = cfg.RedisAddr
		rcfg.Password = cfg.RedisPassword
		rcfg.Database = cfg.RedisDB
		if cfg.RedisPrefix != "" {
			rcfg.Prefix = cfg.RedisPrefix
		}
		rs, err := NewRedisStore(rcfg, logger)
		if err != nil {
			return nil, err
		}
		st = rs
	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.Backend)
	}

	if err := st.Migrate(ctx); err != nil {
		st.Close()
		return nil, fmt.Errorf("migrate %s store: %w", cfg.Backend, err)
	}
	return st, nil
}

// resolveDBPath defaults to ~/.schedsim/schedsim.db.
func resolveDBPath(dbPath string) (string, error) {
	if dbPath != "" {
		return dbPath, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	dir := filepath.Join(home, ".schedsim")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("cannot create %s: %w", dir, err)
	}
	return filepath.Join(dir, "schedsim.db"), nil
}
