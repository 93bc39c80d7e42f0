package cache

import "go.uber.org/fx"

var Module = fx.Module("replay.cache",
	fx.Provide(NewRedisClient),
	fx.Provide(NewReplayCache),
)
