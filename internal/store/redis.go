package store

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/me/schedsim/pkg/model"
	"github.com/redis/go-redis/v9"
)

// RedisConfig configures the Redis backend.
type RedisConfig struct {
	Address  string
	Password string
	Database int
	Prefix   string // key prefix (default "schedsim:")
	Timeout  time.Duration
}

// DefaultRedisConfig returns sensible defaults.
func DefaultRedisConfig() RedisConfig {
	return RedisConfig{
		Address: "localhost:6379",
		Prefix:  "schedsim:",
		Timeout: 5 * time.Second,
	}
}

// RedisStore keeps the process list in a Redis list so several service
// instances can share one registry.
type RedisStore struct {
	cfg    RedisConfig
	client *redis.Client
	logger *slog.Logger
}

// NewRedisStore connects to Redis and verifies the connection.
func NewRedisStore(cfg RedisConfig, logger *slog.Logger) (*RedisStore, error) {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 5 * time.Second
	}
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Address,
		Password:     cfg.Password,
		DB:           cfg.Database,
		ReadTimeout:  cfg.Timeout,
		WriteTimeout: cfg.Timeout,
	})

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Timeout)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("connect to redis %s: %w", cfg.Address, err)
	}

	return &RedisStore{
		cfg:    cfg,
		client: client,
		logger: logger.With("component", "store", "backend", "redis"),
	}, nil
}

func (s *RedisStore) key() string {
	return s.cfg.Prefix + "processes"
}

// Close closes the Redis client.
func (s *RedisStore) Close() error {
	return s.client.Close()
}

// Migrate is a no-op: Redis lists need no schema.
func (s *RedisStore) Migrate(_ context.Context) error {
	return nil
}

func (s *RedisStore) AppendProcess(ctx context.Context, p model.Process) error {
	s.logger.Debug("redis", "op", "rpush", "key", s.key(), "name", p.Name)

	data, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("marshal process: %w", err)
	}
	if err := s.client.RPush(ctx, s.key(), data).Err(); err != nil {
		return fmt.Errorf("append process: %w", err)
	}
	return nil
}

func (s *RedisStore) ListProcesses(ctx context.Context) ([]model.Process, error) {
	s.logger.Debug("redis", "op", "lrange", "key", s.key())

	items, err := s.client.LRange(ctx, s.key(), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("list processes: %w", err)
	}
	processes := make([]model.Process, 0, len(items))
	for _, item := range items {
		var p model.Process
		if err := json.Unmarshal([]byte(item), &p); err != nil {
			return nil, fmt.Errorf("unmarshal process: %w", err)
		}
		processes = append(processes, p)
	}
	return processes, nil
}

func (s *RedisStore) ClearProcesses(ctx context.Context) error {
	s.logger.Debug("redis", "op", "del", "key", s.key())

	if err := s.client.Del(ctx, s.key()).Err(); err != nil {
		return fmt.Errorf("clear processes: %w", err)
	}
	return nil
}
