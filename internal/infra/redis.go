// README: Redis client initialization for the bus type cache.
package infra

import (
	"context"

	"github.com/redis/go-redis/v9"
)

func NewRedis(addr string) *redis.Client {
	return redis.NewClient(&redis.Options{Addr: addr})
}

// PingRedis reports whether the cache is reachable. Callers treat a failure
// as "run without cache", not as fatal.
func PingRedis(ctx context.Context, client *redis.Client) error {
	return client.Ping(ctx).Err()
}
