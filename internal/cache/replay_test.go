package cache

import (
	"context"
	"testing"

	"github.com/smallbiznis/kasir/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReplayCacheDisabledWithoutClient(t *testing.T) {
	c := NewReplayCache(nil, config.NewStaticCheckoutConfigHolder(config.DefaultCheckoutConfig()))
	assert.Nil(t, c)
	assert.False(t, c.Enabled())

	var dst map[string]any
	hit, err := c.Get(context.Background(), "sess-1", &dst)
	require.NoError(t, err)
	assert.False(t, hit)
	assert.NoError(t, c.Set(context.Background(), "sess-1", map[string]any{"id": "1"}))
}

func TestReplayKeyTrimsSession(t *testing.T) {
	assert.Equal(t, "checkout:replay:abc", replayKey("  abc "))
}
