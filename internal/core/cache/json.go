package cache

import (
	"context"
	"encoding/json"
	"time"
)

func PutJSON[T any](c *Cache, ctx context.Context, key string, v *T, ttl time.Duration) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return c.Put(ctx, key, b, ttl)
}

func TakeJSON[T any](c *Cache, ctx context.Context, key string) (*T, error) {
	b, err := c.Take(ctx, key)
	if err != nil {
		return nil, err
	}
	var out T
	if e := json.Unmarshal(b, &out); e != nil {
		return nil, e
	}
	return &out, nil
}
