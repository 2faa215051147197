package slot

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// Redis stores the document under one redis key.
type Redis struct {
	client *redis.Client
	key    string
}

// NewRedis connects to redis with short timeouts and binds the slot to key.
func NewRedis(addr, key string) *Redis {
	if key == "" {
		key = "registro:attendance"
	}
	client := redis.NewClient(&redis.Options{
		Addr:         addr,
		DialTimeout:  2 * time.Second,
		ReadTimeout:  1 * time.Second,
		WriteTimeout: 1 * time.Second,
	})
	return &Redis{client: client, key: key}
}

// Read fetches the document stored at the slot key.
func (r *Redis) Read(ctx context.Context) ([]byte, error) {
	data, err := r.client.Get(ctx, r.key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrEmpty
	}
	if err != nil {
		return nil, err
	}
	return data, nil
}

// Write overwrites the slot key with the document.
func (r *Redis) Write(ctx context.Context, data []byte) error {
	return r.client.Set(ctx, r.key, data, 0).Err()
}

// Healthy verifies redis connectivity.
func (r *Redis) Healthy(ctx context.Context) bool {
	if r == nil || r.client == nil {
		return false
	}
	return r.client.Ping(ctx).Err() == nil
}

// Client exposes the underlying connection for components sharing it.
func (r *Redis) Client() *redis.Client { return r.client }
