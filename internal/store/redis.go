package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/redis/go-redis/v9"
)

// Redis stores each document as a JSON string under <prefix>:doc:<key>.
type Redis struct {
	rdb    *redis.Client
	prefix string
	owned  bool
}

type RedisConfig struct {
	Client *redis.Client
	Prefix string
}

func NewRedis(ctx context.Context, cfg RedisConfig) (*Redis, error) {
	if cfg.Client == nil {
		return nil, errors.New("redis client cannot be nil")
	}
	if err := cfg.Client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	prefix := strings.TrimSpace(cfg.Prefix)
	if prefix == "" {
		prefix = "goldenbells"
	}
	return &Redis{rdb: cfg.Client, prefix: prefix}, nil
}

// NewRedisFromURL dials redis://[:password@]host:port/db and owns the client.
func NewRedisFromURL(ctx context.Context, rawURL, prefix string) (*Redis, error) {
	if strings.TrimSpace(rawURL) == "" {
		return nil, errors.New("REDIS_URL required for redis store")
	}
	opts, err := redis.ParseURL(rawURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	rdb := redis.NewClient(opts)
	r, err := NewRedis(ctx, RedisConfig{Client: rdb, Prefix: prefix})
	if err != nil {
		_ = rdb.Close()
		return nil, err
	}
	r.owned = true
	return r, nil
}

func (r *Redis) docKey(key string) string { return r.prefix + ":doc:" + strings.TrimSpace(key) }

func (r *Redis) Load(ctx context.Context, key string, dst any) (bool, error) {
	if err := checkKey(key); err != nil {
		return false, err
	}
	raw, err := r.rdb.Get(ctx, r.docKey(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("get %s: %w", key, err)
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return false, fmt.Errorf("decode %s: %w", key, err)
	}
	return true, nil
}

func (r *Redis) Save(ctx context.Context, key string, v any) error {
	if err := checkKey(key); err != nil {
		return err
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	if err := r.rdb.Set(ctx, r.docKey(key), raw, 0).Err(); err != nil {
		return fmt.Errorf("set %s: %w", key, err)
	}
	return nil
}

func (r *Redis) Close() error {
	if r == nil || r.rdb == nil || !r.owned {
		return nil
	}
	return r.rdb.Close()
}
