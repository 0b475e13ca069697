package memory

import (
	"context"
	"sync"
)

type KeyValueStore struct {
	mu     sync.RWMutex
	values map[string]string
}

func NewKeyValueStore() *KeyValueStore {
	return &KeyValueStore{values: make(map[string]string)}
}

func (s *KeyValueStore) Get(_ context.Context, key string) (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.values[key]
	return v, ok, nil
}

func (s *KeyValueStore) Set(_ context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[key] = value
	return nil
}

func (s *KeyValueStore) Remove(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.values, key)
	return nil
}
