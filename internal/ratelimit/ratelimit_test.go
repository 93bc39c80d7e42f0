package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/smallbiznis/kasir/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNilLimiterAllows(t *testing.T) {
	limiter := NewCheckoutLimiter(config.Config{CheckoutRateLimitPerSecond: 2, CheckoutRateLimitBurst: 5}, nil)
	assert.Nil(t, limiter)
	assert.False(t, limiter.Enabled())

	decision, err := limiter.AllowOperator(context.Background(), "kasir-01")
	require.NoError(t, err)
	assert.True(t, decision.Allowed)
}

func TestUnconfiguredBucketErrors(t *testing.T) {
	var bucket *TokenBucket
	_, err := bucket.Allow(context.Background(), "k", 1, 1)
	assert.Error(t, err)
}

func TestRetryAfter(t *testing.T) {
	assert.Equal(t, time.Duration(0), retryAfter(0, 2, true))
	assert.Equal(t, 500*time.Millisecond, retryAfter(0, 2, false))
	assert.Equal(t, 250*time.Millisecond, retryAfter(0.5, 2, false))
}

func TestOperatorKey(t *testing.T) {
	assert.Equal(t, "checkout:ratelimit:operator:kasir-01", operatorKey(" kasir-01 "))
}

func TestParseTokens(t *testing.T) {
	assert.Equal(t, 1.5, parseTokens("1.5"))
	assert.Equal(t, 3.0, parseTokens(int64(3)))
	assert.Equal(t, 0.0, parseTokens(nil))
}
