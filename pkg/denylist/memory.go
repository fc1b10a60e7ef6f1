package denylist

import (
	"context"
	"time"

	"github.com/jellydator/ttlcache/v3"
)

// Memory is a process-local deny-list. Each entry is evicted at the token's own expiry.
type Memory struct {
	cache *ttlcache.Cache[string, struct{}]
	now   func() time.Time
}

func NewMemory() *Memory {
	cache := ttlcache.New[string, struct{}](
		ttlcache.WithDisableTouchOnHit[string, struct{}](),
	)
	go cache.Start()

	return &Memory{cache: cache, now: time.Now}
}

func (m *Memory) Deny(_ context.Context, raw string, expiresAt time.Time) error {
	ttl := expiresAt.Sub(m.now())
	if ttl <= 0 {
		return nil
	}
	m.cache.Set(key(raw), struct{}{}, ttl)
	return nil
}

func (m *Memory) IsDenied(_ context.Context, raw string) (bool, error) {
	return m.cache.Get(key(raw)) != nil, nil
}

func (m *Memory) Len() int {
	return m.cache.Len()
}

// Stop halts the background eviction loop.
func (m *Memory) Stop() {
	m.cache.Stop()
}
