package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/zll123456354/edge-privacy-gateway/internal/config"
	"github.com/zll123456354/edge-privacy-gateway/internal/logger"
	"go.uber.org/zap"
)

// RedisRecorder stores entries in a capped Redis list, newest at the head
type RedisRecorder struct {
	client     *redis.Client
	key        string
	maxEntries int64
	logger     *logger.Logger
}

// NewRedisRecorder connects to Redis and verifies the connection
func NewRedisRecorder(cfg config.AuditConfig, log *logger.Logger) (*RedisRecorder, error) {
	opts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	r := newRedisRecorder(redis.NewClient(opts), cfg, log)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := r.client.Ping(ctx).Err(); err != nil {
		r.client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	log.Info("Audit recorder initialized",
		zap.String("redis_url", maskRedisURL(cfg.RedisURL)),
		zap.String("key", r.key),
		zap.Int64("max_entries", r.maxEntries),
	)

	return r, nil
}

func newRedisRecorder(client *redis.Client, cfg config.AuditConfig, log *logger.Logger) *RedisRecorder {
	maxEntries := cfg.MaxEntries
	if maxEntries <= 0 {
		maxEntries = 1000
	}
	return &RedisRecorder{
		client:     client,
		key:        cfg.Key,
		maxEntries: maxEntries,
		logger:     log,
	}
}

// Record pushes an entry and trims the list to maxEntries
func (r *RedisRecorder) Record(ctx context.Context, entry Entry) error {
	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("encode audit entry: %w", err)
	}

	_, err = r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.LPush(ctx, r.key, data)
		pipe.LTrim(ctx, r.key, 0, r.maxEntries-1)
		return nil
	})
	if err != nil {
		return fmt.Errorf("record audit entry: %w", err)
	}
	return nil
}

// Recent returns up to limit entries, newest first. Entries that fail to decode are skipped.
func (r *RedisRecorder) Recent(ctx context.Context, limit int64) ([]Entry, error) {
	if limit <= 0 || limit > r.maxEntries {
		limit = r.maxEntries
	}

	raw, err := r.client.LRange(ctx, r.key, 0, limit-1).Result()
	if err != nil {
		return nil, fmt.Errorf("read audit entries: %w", err)
	}

	entries := make([]Entry, 0, len(raw))
	for _, item := range raw {
		var e Entry
		if err := json.Unmarshal([]byte(item), &e); err != nil {
			r.logger.Warn("Skipping corrupted audit entry", zap.Error(err))
			continue
		}
		entries = append(entries, e)
	}
	return entries, nil
}

// Close closes the Redis client
func (r *RedisRecorder) Close() error {
	return r.client.Close()
}

// maskRedisURL hides the password of a Redis URL for logging
func maskRedisURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return "[invalid]"
	}
	if _, ok := u.User.Password(); ok {
		u.User = url.UserPassword(u.User.Username(), "****")
	}
	return u.String()
}
