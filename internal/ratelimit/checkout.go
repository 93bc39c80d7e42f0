package ratelimit

import (
	"context"
	"fmt"
	"strings"

	redis "github.com/redis/go-redis/v9"
	"github.com/smallbiznis/kasir/internal/config"
)

const keyCheckoutOperator = "checkout:ratelimit:operator:%s"

// CheckoutLimiter caps how fast one operator can submit checkouts. A nil
// limiter allows everything.
type CheckoutLimiter struct {
	bucket *TokenBucket
	rate   float64
	burst  int
}

func NewCheckoutLimiter(cfg config.Config, client *redis.Client) *CheckoutLimiter {
	if client == nil || cfg.CheckoutRateLimitPerSecond <= 0 || cfg.CheckoutRateLimitBurst <= 0 {
		return nil
	}
	return &CheckoutLimiter{
		bucket: NewTokenBucket(client),
		rate:   cfg.CheckoutRateLimitPerSecond,
		burst:  cfg.CheckoutRateLimitBurst,
	}
}

func (l *CheckoutLimiter) Enabled() bool {
	return l != nil && l.bucket != nil
}

func (l *CheckoutLimiter) AllowOperator(ctx context.Context, operatorID string) (Decision, error) {
	if !l.Enabled() {
		return Decision{Allowed: true}, nil
	}
	return l.bucket.Allow(ctx, operatorKey(operatorID), l.rate, l.burst)
}

func operatorKey(operatorID string) string {
	return fmt.Sprintf(keyCheckoutOperator, strings.TrimSpace(operatorID))
}
