package ratelimit

import "go.uber.org/fx"

// Module backs write throttling with redis. It needs a redis.UniversalClient
// in the graph, so it is only assembled with the redis docstore.
var Module = fx.Module("rate.limit",
	fx.Provide(NewTokenBucket),
	fx.Provide(NewWriteLimiter),
)
