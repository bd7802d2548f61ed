package service

import (
	"context"
	"sync"
	"time"

	"github.com/AlibekovAA/dining-quiz/backend/internal/common/clock"
)

// RevokedTokenCache remembers the jti of logged-out sessions until the
// token would have expired on its own. Entries past that point are useless
// and are dropped by DeleteExpired.
type RevokedTokenCache struct {
	cache sync.Map
	clock clock.Clock
}

func NewRevokedTokenCache(clock clock.Clock) *RevokedTokenCache {
	return &RevokedTokenCache{clock: clock}
}

func (c *RevokedTokenCache) Revoke(jti string, expiresAt time.Time) {
	c.cache.Store(jti, expiresAt)
}

func (c *RevokedTokenCache) IsRevoked(jti string) bool {
	v, ok := c.cache.Load(jti)
	if !ok {
		return false
	}
	if c.clock.Now().After(v.(time.Time)) {
		c.cache.Delete(jti)
		return false
	}
	return true
}

func (c *RevokedTokenCache) DeleteExpired(ctx context.Context) (int64, error) {
	now := c.clock.Now()
	var removed int64
	c.cache.Range(func(key, value interface{}) bool {
		if ctx.Err() != nil {
			return false
		}
		if now.After(value.(time.Time)) {
			c.cache.Delete(key)
			removed++
		}
		return true
	})
	return removed, ctx.Err()
}

func (c *RevokedTokenCache) Len() int {
	n := 0
	c.cache.Range(func(_, _ interface{}) bool {
		n++
		return true
	})
	return n
}
