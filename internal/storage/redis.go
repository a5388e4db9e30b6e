package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/jwebster45206/crawl-engine/pkg/catalog"
)

// RedisStorage implements the Storage interface using Redis for crawl state
// and the filesystem for static resources (the room catalog).
type RedisStorage struct {
	client  *redis.Client
	logger  *slog.Logger
	dataDir string
}

// Ensure RedisStorage implements Storage interface
var _ Storage = (*RedisStorage)(nil)

// NewRedisStorage creates a new Redis storage instance
func NewRedisStorage(redisURL string, dataDir string, logger *slog.Logger) *RedisStorage {
	rdb := redis.NewClient(&redis.Options{
		Addr: redisURL,
	})

	if dataDir == "" {
		dataDir = "./data"
	}

	return &RedisStorage{
		client:  rdb,
		logger:  logger,
		dataDir: dataDir,
	}
}

// Health and lifecycle methods

func (r *RedisStorage) Ping(ctx context.Context) error {
	cmd := r.client.Ping(ctx)
	if err := cmd.Err(); err != nil {
		return fmt.Errorf("redis ping failed: %w", err)
	}
	return nil
}

func (r *RedisStorage) Close() error {
	if err := r.client.Close(); err != nil {
		r.logger.Error("Failed to close Redis connection", "error", err)
		return err
	}
	r.logger.Info("Redis connection closed")
	return nil
}

// WaitForConnection waits for Redis to become available (used during startup)
func (r *RedisStorage) WaitForConnection(ctx context.Context) error {
	maxRetries := 30
	retryDelay := 2 * time.Second

	for i := 0; i < maxRetries; i++ {
		if err := r.Ping(ctx); err != nil {
			r.logger.Debug("Redis not ready yet", "error", err, "attempt", i+1)

			select {
			case <-ctx.Done():
				return fmt.Errorf("context cancelled while waiting for redis: %w", ctx.Err())
			case <-time.After(retryDelay):
				continue
			}
		}

		r.logger.Info("Redis connection established")
		return nil
	}

	return fmt.Errorf("redis did not become available after %d attempts", maxRetries)
}

// Crawl operations (Redis-backed)

func (r *RedisStorage) SaveCrawl(ctx context.Context, id uuid.UUID, sc *SavedCrawl) error {
	sc.UpdatedAt = time.Now()

	data, err := json.Marshal(sc)
	if err != nil {
		r.logger.Error("Failed to marshal crawl", "uuid", id, "error", err)
		return fmt.Errorf("failed to marshal crawl: %w", err)
	}

	key := "crawl:" + id.String()
	cmd := r.client.Set(ctx, key, string(data), 24*time.Hour)
	if err := cmd.Err(); err != nil {
		r.logger.Error("Failed to save crawl", "uuid", id, "error", err)
		return fmt.Errorf("failed to save crawl: %w", err)
	}

	return nil
}

func (r *RedisStorage) LoadCrawl(ctx context.Context, id uuid.UUID) (*SavedCrawl, error) {
	key := "crawl:" + id.String()
	cmd := r.client.Get(ctx, key)
	if err := cmd.Err(); err != nil {
		if err == redis.Nil {
			r.logger.Warn("Crawl not found", "uuid", id)
			return nil, nil // Return nil for not found
		}
		r.logger.Error("Failed to load crawl", "uuid", id, "error", err)
		return nil, fmt.Errorf("failed to load crawl: %w", err)
	}

	data := cmd.Val()
	if data == "" {
		r.logger.Warn("Crawl not found", "uuid", id)
		return nil, nil
	}

	var sc SavedCrawl
	if err := json.Unmarshal([]byte(data), &sc); err != nil {
		r.logger.Error("Failed to unmarshal crawl", "uuid", id, "error", err)
		return nil, fmt.Errorf("failed to unmarshal crawl: %w", err)
	}

	return &sc, nil
}

func (r *RedisStorage) DeleteCrawl(ctx context.Context, id uuid.UUID) error {
	key := "crawl:" + id.String()
	cmd := r.client.Del(ctx, key)
	if err := cmd.Err(); err != nil {
		r.logger.Error("Failed to delete crawl", "uuid", id, "error", err)
		return fmt.Errorf("failed to delete crawl: %w", err)
	}
	return nil
}

// Catalog operations (filesystem-backed)

func (r *RedisStorage) GetCatalog(ctx context.Context) (catalog.Catalog, error) {
	path := filepath.Join(r.dataDir, "rooms.json")

	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("catalog not found: %s", path)
		}
		return nil, fmt.Errorf("failed to stat catalog file: %w", err)
	}

	cat, err := catalog.LoadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load catalog: %w", err)
	}

	return cat, nil
}
