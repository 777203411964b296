package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// KVStore is a namespaced string store used to persist client credentials.
// Every key is stored as "<prefix>:<namespace>:<key>", so one Redis database
// can hold the credentials of many browsers side by side.
type KVStore struct {
	client    *redis.Client
	prefix    string
	namespace string
	ttl       time.Duration
}

// NewKVStore returns a store rooted at prefix. A ttl of zero keeps keys forever.
func NewKVStore(client *redis.Client, prefix string, ttl time.Duration) *KVStore {
	return &KVStore{client: client, prefix: prefix, ttl: ttl}
}

// Scoped returns a view of the store restricted to namespace.
func (s *KVStore) Scoped(namespace string) *KVStore {
	clone := *s
	clone.namespace = namespace
	return &clone
}

func (s *KVStore) Get(ctx context.Context, key string) (string, bool, error) {
	v, err := s.client.Get(ctx, s.key(key)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("kv get %s: %w", key, err)
	}
	return v, true, nil
}

func (s *KVStore) Set(ctx context.Context, key, value string) error {
	if err := s.client.Set(ctx, s.key(key), value, s.ttl).Err(); err != nil {
		return fmt.Errorf("kv set %s: %w", key, err)
	}
	return nil
}

func (s *KVStore) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	full := make([]string, len(keys))
	for i, k := range keys {
		full[i] = s.key(k)
	}
	if err := s.client.Del(ctx, full...).Err(); err != nil {
		return fmt.Errorf("kv delete: %w", err)
	}
	return nil
}

func (s *KVStore) key(k string) string {
	return s.prefix + ":" + s.namespace + ":" + k
}
