package profiles

import (
	"context"
	"sync"
)

type memStore struct {
	mu    sync.RWMutex
	users map[string]map[string]string
}

// NewMemoryStore returns a store holding the given users (id -> email).
func NewMemoryStore(emails map[string]string) Store {
	s := &memStore{users: map[string]map[string]string{}}
	for id, email := range emails {
		s.users[id] = map[string]string{EmailField: email}
	}
	return s
}

func (s *memStore) Get(ctx context.Context, userID string) (map[string]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.users[userID]
	if !ok {
		return nil, ErrNotFound
	}
	out := make(map[string]string, len(p))
	for k, v := range p {
		out[k] = v
	}
	return out, nil
}

func (s *memStore) Set(ctx context.Context, userID string, fields map[string]string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.users[userID]
	if !ok {
		return ErrNotFound
	}
	for k, v := range fields {
		p[k] = v
	}
	return nil
}
