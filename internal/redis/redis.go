package redis

import (
	"context"

	"github.com/redis/go-redis/v9"
)

// Connect opens the Redis client backing turn timers, session caching
// and the session event channel.
func Connect(redisURL string) (*redis.Client, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, err
	}

	client := redis.NewClient(opt)

	ctx := context.Background()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, err
	}

	return client, nil
}
