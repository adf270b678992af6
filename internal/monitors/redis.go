package monitors

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

type RedisPinger interface {
	Ping(ctx context.Context) *redis.StatusCmd
}

func CheckRedis(ctx context.Context, client RedisPinger) error {
	if err := client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("failed to ping redis: %v", err)
	}

	return nil
}
