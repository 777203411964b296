package memory

import (
	"context"
	"sync"
)

// KVStore is an in-process ports.KeyValueStore. Scoped views share the
// underlying map, so one KVStore can hold the credentials of many browsers.
type KVStore struct {
	mu        *sync.RWMutex
	data      map[string]string
	namespace string
}

func NewKVStore() *KVStore {
	return &KVStore{mu: &sync.RWMutex{}, data: make(map[string]string)}
}

// Scoped returns a view of the store restricted to namespace.
func (s *KVStore) Scoped(namespace string) *KVStore {
	return &KVStore{mu: s.mu, data: s.data, namespace: namespace}
}

func (s *KVStore) Get(_ context.Context, key string) (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.data[s.key(key)]
	return v, ok, nil
}

func (s *KVStore) Set(_ context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[s.key(key)] = value
	return nil
}

func (s *KVStore) Delete(_ context.Context, keys ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, k := range keys {
		delete(s.data, s.key(k))
	}
	return nil
}

func (s *KVStore) key(k string) string {
	if s.namespace == "" {
		return k
	}
	return s.namespace + ":" + k
}
