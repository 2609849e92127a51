package credential

import (
	"context"
	"sync"

	"credentia/pkg/domain"
	"credentia/pkg/platform/sentinel"
)

// InMemoryStore keeps credentials in mutex-guarded maps. It intentionally
// favors clarity over performance.
type InMemoryStore struct {
	mu          sync.RWMutex
	nextID      uint64
	credentials map[uint64]Credential
	byStudent   map[domain.Address][]uint64
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		credentials: make(map[uint64]Credential),
		byStudent:   make(map[domain.Address][]uint64),
	}
}

func (s *InMemoryStore) Create(_ context.Context, credential Credential) (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	credential.TokenID = s.nextID
	s.credentials[credential.TokenID] = credential
	s.byStudent[credential.Student] = append(s.byStudent[credential.Student], credential.TokenID)
	return credential.TokenID, nil
}

func (s *InMemoryStore) Update(_ context.Context, credential Credential) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.credentials[credential.TokenID]; !ok {
		return sentinel.ErrNotFound
	}
	s.credentials[credential.TokenID] = credential
	return nil
}

func (s *InMemoryStore) FindByTokenID(_ context.Context, tokenID uint64) (Credential, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if credential, ok := s.credentials[tokenID]; ok {
		return credential, nil
	}
	return Credential{}, sentinel.ErrNotFound
}

func (s *InMemoryStore) ListByStudent(_ context.Context, student domain.Address) ([]Credential, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := s.byStudent[student]
	out := make([]Credential, 0, len(ids))
	for _, id := range ids {
		out = append(out, s.credentials[id])
	}
	return out, nil
}

func (s *InMemoryStore) Count(_ context.Context) (uint64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.nextID, nil
}

// InMemoryRevocationList is the single-instance revocation mirror.
type InMemoryRevocationList struct {
	mu      sync.RWMutex
	revoked map[uint64]bool
}

func NewInMemoryRevocationList() *InMemoryRevocationList {
	return &InMemoryRevocationList{revoked: make(map[uint64]bool)}
}

func (l *InMemoryRevocationList) MarkRevoked(_ context.Context, tokenID uint64) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.revoked[tokenID] = true
	return nil
}

func (l *InMemoryRevocationList) IsRevoked(_ context.Context, tokenID uint64) (bool, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.revoked[tokenID], nil
}
