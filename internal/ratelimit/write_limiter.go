package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/JunelAmelon/Saas-aximotravo-sub000/internal/config"
)

const keyWrite = "devis:ratelimit:write:%s"

// WriteLimiter throttles quote mutations per client key with budgets read
// from the devis config on every call.
type WriteLimiter struct {
	bucket *TokenBucket
	config *config.DevisConfigHolder
}

func NewWriteLimiter(bucket *TokenBucket, holder *config.DevisConfigHolder) *WriteLimiter {
	return &WriteLimiter{bucket: bucket, config: holder}
}

// Allow reports whether key may perform one more write, and how long to wait
// when it may not.
func (l *WriteLimiter) Allow(ctx context.Context, key string) (bool, time.Duration, error) {
	if l == nil {
		return true, 0, nil
	}
	cfg := l.config.Get().RateLimit
	res, err := l.bucket.Allow(ctx, writeKey(key), cfg.PerSecond, cfg.Burst)
	if err != nil {
		return false, 0, err
	}
	return res.Allowed, res.RetryAfter, nil
}

func writeKey(key string) string {
	return fmt.Sprintf(keyWrite, key)
}
