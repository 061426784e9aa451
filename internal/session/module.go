package session

import (
	"context"

	"github.com/redis/go-redis/v9"
	"go.uber.org/fx"

	"github.com/avdeyev/reviewflow/internal/config"
)

// Module wires the Redis client and session store.
var Module = fx.Options(
	fx.Provide(newClient, newStore),
	fx.Invoke(registerLifecycle),
)

func newClient(cfg *config.Config) *redis.Client {
	return redis.NewClient(&redis.Options{Addr: cfg.RedisAddress})
}

func newStore(client *redis.Client, cfg *config.Config) *Store {
	return NewStore(client, cfg.SessionTTL)
}

func registerLifecycle(lc fx.Lifecycle, client *redis.Client) {
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			return client.Close()
		},
	})
}
