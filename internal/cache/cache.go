// Package cache stores rendered reports in Redis.
//
// Keys embed a generation counter. Invalidate bumps the counter, so every
// report written under an older generation becomes unreachable at once and
// expires on its own TTL.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/JonMunkholm/timesheet/internal/logging"
)

// DefaultTTL bounds how long a report stays cached.
const DefaultTTL = 10 * time.Minute

const defaultPrefix = "timesheet:"

// ReportCache implements core.ReportCache on Redis.
type ReportCache struct {
	client redis.Cmdable
	ttl    time.Duration
	prefix string
	logger *slog.Logger
}

// Open connects to the Redis server at url and checks it with PING.
func Open(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return client, nil
}

// New returns a ReportCache on client. A non-positive ttl takes DefaultTTL.
func New(client redis.Cmdable, ttl time.Duration, logger *slog.Logger) *ReportCache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &ReportCache{
		client: client,
		ttl:    ttl,
		prefix: defaultPrefix,
		logger: logging.OrDiscard(logger),
	}
}

func (c *ReportCache) generationKey() string { return c.prefix + "reports:generation" }

func (c *ReportCache) reportKey(gen int64, key string) string {
	return fmt.Sprintf("%sreports:%d:%s", c.prefix, gen, key)
}

func (c *ReportCache) generation(ctx context.Context) (int64, error) {
	gen, err := c.client.Get(ctx, c.generationKey()).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("read report generation: %w", err)
	}
	return gen, nil
}

// Get decodes the cached report for key into dst. It reports false on a
// miss. The returned generation is the one the lookup ran under; pass it to
// Set so a report computed before an Invalidate is never stored as current.
func (c *ReportCache) Get(ctx context.Context, key string, dst any) (int64, bool, error) {
	gen, err := c.generation(ctx)
	if err != nil {
		return 0, false, err
	}
	data, err := c.client.Get(ctx, c.reportKey(gen, key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return gen, false, nil
	}
	if err != nil {
		return gen, false, fmt.Errorf("read report %s: %w", key, err)
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return gen, false, fmt.Errorf("decode report %s: %w", key, err)
	}
	return gen, true, nil
}

// Set stores v under key for generation gen. A gen older than the current
// generation is dropped.
func (c *ReportCache) Set(ctx context.Context, gen int64, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode report %s: %w", key, err)
	}
	current, err := c.generation(ctx)
	if err != nil {
		return err
	}
	if gen != current {
		c.logger.Debug("report cache write skipped", "key", key, "generation", gen, "current", current)
		return nil
	}
	if err := c.client.Set(ctx, c.reportKey(gen, key), data, c.ttl).Err(); err != nil {
		return fmt.Errorf("write report %s: %w", key, err)
	}
	return nil
}

// Invalidate makes every cached report unreachable.
func (c *ReportCache) Invalidate(ctx context.Context) error {
	gen, err := c.client.Incr(ctx, c.generationKey()).Result()
	if err != nil {
		return fmt.Errorf("bump report generation: %w", err)
	}
	c.logger.Debug("report cache invalidated", "generation", gen)
	return nil
}
