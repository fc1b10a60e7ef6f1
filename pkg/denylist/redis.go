package denylist

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const redisPrefix = "denylist:"

// Redis shares the deny-list across instances; keys carry the token's remaining lifetime as TTL.
type Redis struct {
	client *redis.Client
	now    func() time.Time
}

func NewRedis(client *redis.Client) *Redis {
	return &Redis{client: client, now: time.Now}
}

func (r *Redis) Deny(ctx context.Context, raw string, expiresAt time.Time) error {
	ttl := expiresAt.Sub(r.now())
	if ttl <= 0 {
		return nil
	}
	if err := r.client.Set(ctx, redisPrefix+key(raw), 1, ttl).Err(); err != nil {
		return fmt.Errorf("deny token: %w", err)
	}
	return nil
}

func (r *Redis) IsDenied(ctx context.Context, raw string) (bool, error) {
	n, err := r.client.Exists(ctx, redisPrefix+key(raw)).Result()
	if err != nil {
		return false, fmt.Errorf("check deny-list: %w", err)
	}
	return n > 0, nil
}
