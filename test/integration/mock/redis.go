package mock

import (
	"context"
	"sync"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

var redisOnce sync.Once
var redisClient *redis.Client

// NewRedis returns a client backed by a process-wide miniredis instance, used
// as the processing-tracker store during scenarios. Tracker keys carry the
// batch id, so scenarios do not collide and the instance is never restarted.
func NewRedis() *redis.Client {
	redisOnce.Do(func() {
		server, err := miniredis.Run()
		if err != nil {
			panic(err)
		}
		redisClient = redis.NewClient(&redis.Options{Addr: server.Addr()})
	})
	return redisClient
}

// FlushRedis wipes all keys, for scenarios that need a tracker reset.
func FlushRedis(client *redis.Client) error {
	return client.FlushAll(context.TODO()).Err()
}
