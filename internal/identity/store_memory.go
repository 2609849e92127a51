package identity

import (
	"context"
	"sync"

	"credentia/pkg/domain"
	"credentia/pkg/platform/sentinel"
)

// InMemoryStore keeps user records in a mutex-guarded map. It intentionally
// favors clarity over performance.
type InMemoryStore struct {
	mu    sync.RWMutex
	users map[domain.Address]User
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{users: make(map[domain.Address]User)}
}

func (s *InMemoryStore) Create(_ context.Context, user User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[user.Address]; ok {
		return sentinel.ErrConflict
	}
	s.users[user.Address] = user
	return nil
}

func (s *InMemoryStore) Update(_ context.Context, user User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[user.Address]; !ok {
		return sentinel.ErrNotFound
	}
	s.users[user.Address] = user
	return nil
}

func (s *InMemoryStore) FindByAddress(_ context.Context, addr domain.Address) (User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if user, ok := s.users[addr]; ok {
		return user, nil
	}
	return User{}, sentinel.ErrNotFound
}

func (s *InMemoryStore) Counts(_ context.Context) (Counts, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	counts := Counts{
		Total:   uint64(len(s.users)),
		PerRole: make(map[domain.Role]uint64),
	}
	for _, user := range s.users {
		counts.PerRole[user.Role]++
	}
	return counts, nil
}
