package cache

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	opTimeout        = 2 * time.Second
	invalidateBudget = 3 * time.Second
	scanBatch        = 1000
)

// RedisOptions configures NewRedis.
type RedisOptions struct {
	Addr     string
	Password string
	DB       int
}

// Redis is a Cache backed by a Redis server.
type Redis struct {
	client    *redis.Client
	logger    *slog.Logger
	scanCount int64
}

// NewRedis connects to the Redis server at opts.Addr. The connection is
// established lazily; call Ping to check it.
func NewRedis(opts RedisOptions, logger *slog.Logger) *Redis {
	client := redis.NewClient(&redis.Options{
		Addr:         opts.Addr,
		Password:     opts.Password,
		DB:           opts.DB,
		DialTimeout:  3 * time.Second,
		ReadTimeout:  opTimeout,
		WriteTimeout: opTimeout,
	})
	return &Redis{client: client, logger: logger, scanCount: scanBatch}
}

// Ping checks that the server is reachable.
func (r *Redis) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()
	if err := r.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("cache: ping redis: %w", err)
	}
	return nil
}

// Close releases the client's connections.
func (r *Redis) Close() error {
	return r.client.Close()
}

func (r *Redis) Get(ctx context.Context, key string) ([]byte, bool) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	b, err := r.client.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			r.logger.Warn("cache get failed", slog.String("key", key), slog.String("error", err.Error()))
		}
		return nil, false
	}
	return b, true
}

func (r *Redis) Set(ctx context.Context, key string, value []byte, ttl time.Duration) {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	if err := r.client.Set(ctx, key, value, ttl).Err(); err != nil {
		r.logger.Warn("cache set failed", slog.String("key", key), slog.String("error", err.Error()))
	}
}

// InvalidatePrefix deletes every key starting with prefix, walking the
// whole keyspace with SCAN and deleting each batch in one pipeline. The walk
// stops early only when the time budget runs out, which is logged: entries
// left behind stay stale until their TTL.
func (r *Redis) InvalidatePrefix(ctx context.Context, prefix string) {
	ctx, cancel := context.WithTimeout(ctx, invalidateBudget)
	defer cancel()

	var (
		cursor  uint64
		deleted int
	)
	for {
		keys, next, err := r.client.Scan(ctx, cursor, prefix+"*", r.scanCount).Result()
		if err != nil {
			if ctx.Err() != nil {
				r.logger.Warn("cache invalidate ran out of time; stale entries expire with their TTL",
					slog.String("prefix", prefix),
					slog.Int("deleted", deleted),
					slog.Duration("budget", invalidateBudget),
				)
				return
			}
			r.logger.Warn("cache invalidate failed", slog.String("prefix", prefix), slog.String("error", err.Error()))
			return
		}
		if len(keys) > 0 {
			pipe := r.client.Pipeline()
			for _, k := range keys {
				pipe.Del(ctx, k)
			}
			if _, err := pipe.Exec(ctx); err != nil {
				r.logger.Warn("cache delete failed", slog.String("prefix", prefix), slog.String("error", err.Error()))
			} else {
				deleted += len(keys)
			}
		}
		cursor = next
		if cursor == 0 {
			return
		}
	}
}
