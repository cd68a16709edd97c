package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

var (
	// ErrCacheMiss is returned by Get when the key does not exist.
	ErrCacheMiss = errors.New("key not found in cache")
	// ErrStaleWrite is returned by SetIfVersions when a version key moved.
	ErrStaleWrite = errors.New("cache write skipped: value changed while it was being read")
)

// RedisClient stores JSON encoded values in redis.
type RedisClient struct {
	Client *redis.Client
}

// NewRedisClient parses a redis:// URL and verifies the connection.
func NewRedisClient(ctx context.Context, url string) (*RedisClient, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis connection failed: %w", err)
	}
	return &RedisClient{Client: client}, nil
}

func (r *RedisClient) Get(ctx context.Context, key string, dest any) error {
	data, err := r.Client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return ErrCacheMiss
		}
		return err
	}
	return json.Unmarshal(data, dest)
}

func (r *RedisClient) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	return r.Client.Del(ctx, keys...).Err()
}

// DeletePattern removes every key matching pattern, scanning instead of KEYS.
func (r *RedisClient) DeletePattern(ctx context.Context, pattern string) error {
	iter := r.Client.Scan(ctx, 0, pattern, 100).Iterator()
	batch := make([]string, 0, 100)
	for iter.Next(ctx) {
		batch = append(batch, iter.Val())
		if len(batch) == cap(batch) {
			if err := r.Delete(ctx, batch...); err != nil {
				return err
			}
			batch = batch[:0]
		}
	}
	if err := iter.Err(); err != nil {
		return err
	}
	return r.Delete(ctx, batch...)
}

// Versions reads the counters stored under keys. A missing key reads as "".
func (r *RedisClient) Versions(ctx context.Context, keys ...string) ([]string, error) {
	values, err := r.Client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, err
	}
	return versionStrings(values), nil
}

// SetIfVersions stores value under key only while every version key still holds
// the counter in want. The check and the write run in one WATCH/MULTI transaction.
func (r *RedisClient) SetIfVersions(ctx context.Context, key string, value any, expiration time.Duration, versionKeys, want []string) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}

	err = r.Client.Watch(ctx, func(tx *redis.Tx) error {
		values, err := tx.MGet(ctx, versionKeys...).Result()
		if err != nil {
			return err
		}
		current := versionStrings(values)
		for i := range current {
			if current[i] != want[i] {
				return ErrStaleWrite
			}
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, data, expiration)
			return nil
		})
		return err
	}, versionKeys...)
	if errors.Is(err, redis.TxFailedErr) {
		return ErrStaleWrite
	}
	return err
}

// BumpVersions increments each version key and then deletes keys. Version keys
// live for versionTTL so idle ones expire.
func (r *RedisClient) BumpVersions(ctx context.Context, versionTTL time.Duration, versionKeys []string, keys ...string) error {
	_, err := r.Client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		for _, vk := range versionKeys {
			pipe.Incr(ctx, vk)
			pipe.Expire(ctx, vk, versionTTL)
		}
		if len(keys) > 0 {
			pipe.Del(ctx, keys...)
		}
		return nil
	})
	return err
}

func versionStrings(values []any) []string {
	out := make([]string, len(values))
	for i, v := range values {
		if s, ok := v.(string); ok {
			out[i] = s
		}
	}
	return out
}

func (r *RedisClient) Ping(ctx context.Context) error {
	return r.Client.Ping(ctx).Err()
}

func (r *RedisClient) Close() error {
	return r.Client.Close()
}
