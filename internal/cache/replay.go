package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	redis "github.com/redis/go-redis/v9"
	"github.com/smallbiznis/kasir/internal/config"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const keyCheckoutReplay = "checkout:replay:%s"

// NewRedisClient returns nil when REDIS_ADDR is unset; every consumer treats
// a nil client as "cache disabled".
func NewRedisClient(lc fx.Lifecycle, cfg config.Config, log *zap.Logger) *redis.Client {
	addr := strings.TrimSpace(cfg.RedisAddr)
	if addr == "" {
		return nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: strings.TrimSpace(cfg.RedisPassword),
		DB:       cfg.RedisDB,
	})

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			if err := client.Ping(ctx).Err(); err != nil {
				log.Warn("redis unreachable, replay cache degraded", zap.String("addr", addr), zap.Error(err))
			}
			return nil
		},
		OnStop: func(context.Context) error {
			return client.Close()
		},
	})
	return client
}

// ReplayCache keeps committed checkout projections keyed by checkout session
// id so retries skip the database. The database stays the source of truth.
type ReplayCache struct {
	client *redis.Client
	ttl    func() time.Duration
}

func NewReplayCache(client *redis.Client, holder *config.CheckoutConfigHolder) *ReplayCache {
	if client == nil {
		return nil
	}
	return &ReplayCache{
		client: client,
		ttl: func() time.Duration {
			if holder == nil {
				return config.DefaultCheckoutConfig().ReplayCacheTTL
			}
			return holder.Get().ReplayCacheTTL
		},
	}
}

func (c *ReplayCache) Enabled() bool {
	return c != nil && c.client != nil
}

// Get decodes the cached projection for sessionID into dst. A miss returns
// false with a nil error.
func (c *ReplayCache) Get(ctx context.Context, sessionID string, dst any) (bool, error) {
	if !c.Enabled() {
		return false, nil
	}
	raw, err := c.client.Get(ctx, replayKey(sessionID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return false, fmt.Errorf("decode replay entry: %w", err)
	}
	return true, nil
}

func (c *ReplayCache) Set(ctx context.Context, sessionID string, value any) error {
	if !c.Enabled() {
		return nil
	}
	ttl := c.ttl()
	if ttl <= 0 {
		return nil
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode replay entry: %w", err)
	}
	return c.client.Set(ctx, replayKey(sessionID), raw, ttl).Err()
}

func replayKey(sessionID string) string {
	return fmt.Sprintf(keyCheckoutReplay, strings.TrimSpace(sessionID))
}
