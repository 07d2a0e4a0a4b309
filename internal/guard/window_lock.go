// Package guard holds the cross-instance lock that keeps two generators
// from scoring the same platform hour at once.
package guard

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"

	"aviatorpro/internal/config"
)

const defaultLockTTL = 2 * time.Minute

// NewClient dials Redis and verifies it with a ping.
func NewClient(ctx context.Context, cfg config.RedisConfig) (goredis.UniversalClient, error) {
	if strings.TrimSpace(cfg.Addr) == "" {
		return nil, fmt.Errorf("redis addr is required")
	}
	client := goredis.NewUniversalClient(&goredis.UniversalOptions{
		Addrs:        []string{cfg.Addr},
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  3 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return client, nil
}

var releaseScript = goredis.NewScript(`
if redis.call('get', KEYS[1]) == ARGV[1] then
  return redis.call('del', KEYS[1])
else
  return 0
end
`)

// WindowLock is a SET NX lease keyed by platform and window start. The
// value is a per-process owner id so Release never frees a peer's lease.
type WindowLock struct {
	client goredis.UniversalClient
	prefix string
	ttl    time.Duration
	owner  string
}

func NewWindowLock(client goredis.UniversalClient, prefix string, ttl time.Duration) *WindowLock {
	if ttl <= 0 {
		ttl = defaultLockTTL
	}
	return &WindowLock{
		client: client,
		prefix: prefix,
		ttl:    ttl,
		owner:  uuid.NewString(),
	}
}

func (l *WindowLock) key(platform string, windowStart time.Time) string {
	return fmt.Sprintf("%ssignal:window:%s:%d", l.prefix, platform, windowStart.Unix())
}

// Acquire reports whether this process now holds the lease. Holding it
// already counts as acquired.
func (l *WindowLock) Acquire(ctx context.Context, platform string, windowStart time.Time) (bool, error) {
	if l == nil || l.client == nil {
		return true, nil
	}
	key := l.key(platform, windowStart)
	ok, err := l.client.SetNX(ctx, key, l.owner, l.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("acquire %s: %w", key, err)
	}
	if ok {
		return true, nil
	}
	val, err := l.client.Get(ctx, key).Result()
	if err != nil && err != goredis.Nil {
		return false, fmt.Errorf("inspect %s: %w", key, err)
	}
	return val == l.owner, nil
}

// Release frees the lease if this process holds it.
func (l *WindowLock) Release(ctx context.Context, platform string, windowStart time.Time) error {
	if l == nil || l.client == nil {
		return nil
	}
	key := l.key(platform, windowStart)
	if err := releaseScript.Run(ctx, l.client, []string{key}, l.owner).Err(); err != nil {
		return fmt.Errorf("release %s: %w", key, err)
	}
	return nil
}
