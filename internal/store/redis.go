package store

import (
	"context"
	"errors"
	"sort"
	"strings"

	"github.com/redis/go-redis/v9"
)

// Redis stores the KV under a namespace prefix in a Redis server.
type Redis struct {
	client    redis.UniversalClient
	namespace string
}

// NewRedis connects to a single Redis node.
func NewRedis(addr, password, namespace string) *Redis {
	return NewRedisFromClient(redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       0,
	}), namespace)
}

// NewRedisFromClient wraps an existing client.
func NewRedisFromClient(client redis.UniversalClient, namespace string) *Redis {
	if namespace == "" {
		namespace = "seedvault"
	}
	return &Redis{client: client, namespace: namespace}
}

func (r *Redis) key(k string) string {
	return r.namespace + ":" + k
}

func (r *Redis) Get(ctx context.Context, key string) ([]byte, error) {
	v, err := r.client.Get(ctx, r.key(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	return v, err
}

func (r *Redis) Put(ctx context.Context, key string, value []byte) error {
	return r.client.Set(ctx, r.key(key), value, 0).Err()
}

func (r *Redis) Delete(ctx context.Context, key string) error {
	return r.client.Del(ctx, r.key(key)).Err()
}

func (r *Redis) Keys(ctx context.Context, prefix string) ([]string, error) {
	var (
		keys   []string
		cursor uint64
	)
	seen := make(map[string]struct{})
	full := r.key(prefix)
	for {
		batch, next, err := r.client.Scan(ctx, cursor, full+"*", 100).Result()
		if err != nil {
			return nil, err
		}
		for _, k := range batch {
			// SCAN patterns treat glob characters in prefix specially.
			if _, dup := seen[k]; dup || !strings.HasPrefix(k, full) {
				continue
			}
			seen[k] = struct{}{}
			keys = append(keys, strings.TrimPrefix(k, r.namespace+":"))
		}
		cursor = next
		if cursor == 0 {
			break
		}
	}
	sort.Strings(keys)
	return keys, nil
}

func (r *Redis) Close() error { return r.client.Close() }
