package session

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	revokedKeyPrefix = "outbreak:revoked:"
	// minRevokedTTL keeps an entry alive when the token is already expired
	// or the clocks disagree.
	minRevokedTTL = time.Minute
)

// Connect initializes a Redis client from a redis:// URL or host:port and
// verifies it answers.
func Connect(ctx context.Context, redisURL string) (*redis.Client, error) {
	var client *redis.Client
	if strings.HasPrefix(redisURL, "redis://") || strings.HasPrefix(redisURL, "rediss://") {
		opt, err := redis.ParseURL(redisURL)
		if err != nil {
			return nil, fmt.Errorf("parse redis url: %w", err)
		}
		client = redis.NewClient(opt)
	} else {
		client = redis.NewClient(&redis.Options{Addr: redisURL})
	}
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return client, nil
}

// RedisRevoker stores revoked session flags in Redis with a TTL so that
// several dashboard instances share logouts.
type RedisRevoker struct {
	client redis.Cmdable
	now    func() time.Time
}

// NewRedisRevoker wraps client.
func NewRedisRevoker(client redis.Cmdable) *RedisRevoker {
	return &RedisRevoker{client: client, now: time.Now}
}

// Revoke implements Revoker.
func (r *RedisRevoker) Revoke(ctx context.Context, sid string, until time.Time) error {
	ttl := until.Sub(r.now())
	if ttl < minRevokedTTL {
		ttl = minRevokedTTL
	}
	if err := r.client.Set(ctx, revokedKeyPrefix+sid, "1", ttl).Err(); err != nil {
		return fmt.Errorf("revoke session: %w", err)
	}
	return nil
}

// Revoked implements Revoker.
func (r *RedisRevoker) Revoked(ctx context.Context, sid string) (bool, error) {
	n, err := r.client.Exists(ctx, revokedKeyPrefix+sid).Result()
	if err != nil {
		return false, fmt.Errorf("check revocation: %w", err)
	}
	return n > 0, nil
}
