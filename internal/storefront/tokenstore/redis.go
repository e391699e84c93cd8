package tokenstore

import (
	"context"
	"errors"

	"github.com/redis/go-redis/v9"
)

// Redis keeps the token in a Redis string, for kiosk-style deployments where
// several storefront processes share one device session.
type Redis struct {
	client redis.Cmdable
	key    string
}

// NewRedis returns a Store using key "storefront:<key>".
func NewRedis(client redis.Cmdable, key string) *Redis {
	return &Redis{client: client, key: "storefront:" + key}
}

func (r *Redis) Load(ctx context.Context) (string, error) {
	token, err := r.client.Get(ctx, r.key).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	return token, err
}

func (r *Redis) Save(ctx context.Context, token string) error {
	return r.client.Set(ctx, r.key, token, 0).Err()
}

func (r *Redis) Delete(ctx context.Context) error {
	return r.client.Del(ctx, r.key).Err()
}
