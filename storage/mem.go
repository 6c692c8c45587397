package storage

import "sync"

// MemStore is an in-memory KeyValueStore. State does not survive a
// restart; it backs tests and running with -db "".
type MemStore struct {
	mu     sync.Mutex
	values map[string]string
}

func NewMemStore() *MemStore {
	return &MemStore{values: make(map[string]string)}
}

func (s *MemStore) Get(key string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.values[key]
	if !ok {
		return "", ErrNotFound
	}
	return v, nil
}

func (s *MemStore) Set(key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[key] = value
	return nil
}

func (s *MemStore) Close() error { return nil }
