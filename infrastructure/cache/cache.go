package cache

import (
	"context"

	"crosspost/infrastructure/logger"

	"github.com/redis/go-redis/v9"
)

// NewCache connects a redis client. A failed ping returns the error so main
// can decide to continue without distributed locking.
func NewCache(ctx context.Context, addr, username, password string) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Username: username,
		Password: password,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		logger.GetLogger().WithField("error", err).Warn("Redis ping failed")
		return nil, err
	}
	return client, nil
}
