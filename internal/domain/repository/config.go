package repository

import "context"

// ConfigRepository reads runtime-tunable settings from the system_config
// table. Getters fall back to the supplied default when the key is absent.
type ConfigRepository interface {
	GetInt(ctx context.Context, key string, def int) (int, error)
	GetString(ctx context.Context, key string, def string) (string, error)
	GetJSON(ctx context.Context, key string, dest any) error
	Set(ctx context.Context, key string, value any) error
}
