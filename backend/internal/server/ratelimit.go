package server

import (
	"sync"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	apperrors "contactgraph/backend/pkg/errors"
)

// KeyedLimiter hands out one token bucket per caller key. Sync and search
// carry separate limiters because bulk sync is far more expensive than a
// path query.
type KeyedLimiter struct {
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	limit    rate.Limit
	burst    int
}

// NewKeyedLimiter allows perMinute calls per key, refilled continuously
func NewKeyedLimiter(perMinute int) *KeyedLimiter {
	return &KeyedLimiter{
		limiters: make(map[string]*rate.Limiter),
		limit:    rate.Limit(float64(perMinute) / 60.0),
		burst:    perMinute,
	}
}

// Allow reports whether the caller identified by key may proceed
func (k *KeyedLimiter) Allow(key string) bool {
	k.mu.Lock()
	limiter, ok := k.limiters[key]
	if !ok {
		limiter = rate.NewLimiter(k.limit, k.burst)
		k.limiters[key] = limiter
	}
	k.mu.Unlock()
	return limiter.Allow()
}

// RateLimit rejects callers over their quota with 429. Keyed by the
// authenticated phone when available, client IP otherwise, so the limit
// follows the identity rather than the connection.
func RateLimit(limiter *KeyedLimiter, scope string) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := c.ClientIP()
		if ident := currentIdentity(c); ident != nil && ident.Phone != "" {
			key = ident.Phone
		}
		if !limiter.Allow(key) {
			abortWithError(c, apperrors.NewRateLimited(scope))
			return
		}
		c.Next()
	}
}
