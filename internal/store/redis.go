// Package store persists the staging collection in Redis so it survives a restart.
//
// The snapshot is a Redis list of JSON records, oldest first, replaced atomically on every save.
package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/benvon/focus-board/internal/models"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// DefaultKey is the Redis key holding the staging snapshot
const DefaultKey = "focus-board:staging:snapshot"

// NewRedisClient parses redisURL and verifies the server is reachable
func NewRedisClient(ctx context.Context, redisURL string) (*redis.Client, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return client, nil
}

// RedisStore saves and loads staging snapshots
type RedisStore struct {
	client *redis.Client
	key    string
	ttl    time.Duration
	logger *zap.Logger
}

// NewRedisStore creates a snapshot store under key. A zero ttl keeps the snapshot until the next save.
func NewRedisStore(client *redis.Client, key string, ttl time.Duration, log *zap.Logger) *RedisStore {
	if key == "" {
		key = DefaultKey
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &RedisStore{client: client, key: key, ttl: ttl, logger: log}
}

// Save replaces the stored snapshot with tasks
func (s *RedisStore) Save(ctx context.Context, tasks []*models.StagedTask) error {
	records, err := encodeSnapshot(tasks)
	if err != nil {
		return err
	}

	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, s.key)
		if len(records) > 0 {
			pipe.RPush(ctx, s.key, records...)
			if s.ttl > 0 {
				pipe.Expire(ctx, s.key, s.ttl)
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to save staging snapshot: %w", err)
	}
	return nil
}

// Load returns the stored snapshot, oldest first. A missing snapshot yields an empty slice.
func (s *RedisStore) Load(ctx context.Context) ([]*models.StagedTask, error) {
	// A missing key reads as an empty list
	records, err := s.client.LRange(ctx, s.key, 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to load staging snapshot: %w", err)
	}

	tasks, skipped := decodeSnapshot(records)
	if skipped > 0 {
		s.logger.Warn("staging_snapshot_records_skipped", zap.Int("count", skipped))
	}
	return tasks, nil
}

func encodeSnapshot(tasks []*models.StagedTask) ([]any, error) {
	records := make([]any, 0, len(tasks))
	for _, task := range tasks {
		if task == nil {
			continue
		}
		data, err := json.Marshal(task)
		if err != nil {
			return nil, fmt.Errorf("failed to encode staged task %s: %w", task.ID, err)
		}
		records = append(records, string(data))
	}
	return records, nil
}

// decodeSnapshot keeps every record that decodes and reports how many did not
func decodeSnapshot(records []string) ([]*models.StagedTask, int) {
	tasks := make([]*models.StagedTask, 0, len(records))
	skipped := 0
	for _, record := range records {
		var task models.StagedTask
		if err := json.Unmarshal([]byte(record), &task); err != nil {
			skipped++
			continue
		}
		tasks = append(tasks, &task)
	}
	return tasks, skipped
}
