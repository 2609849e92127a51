package assessment

import (
	"context"
	"sync"

	"credentia/pkg/domain"
	"credentia/pkg/platform/sentinel"
)

// InMemoryStore keeps the ledger in mutex-guarded maps. It intentionally
// favors clarity over performance.
type InMemoryStore struct {
	mu           sync.RWMutex
	nextID       uint64
	assessments  map[uint64]Assessment
	byStudent    map[domain.Address][]uint64
	interactions []Interaction
	analytics    map[domain.Address]StudentAnalytics
	competencies map[CompetencyKey]uint64
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		assessments:  make(map[uint64]Assessment),
		byStudent:    make(map[domain.Address][]uint64),
		analytics:    make(map[domain.Address]StudentAnalytics),
		competencies: make(map[CompetencyKey]uint64),
	}
}

func (s *InMemoryStore) AppendAssessment(_ context.Context, assessment Assessment) (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	assessment.ID = s.nextID
	s.assessments[assessment.ID] = assessment
	s.byStudent[assessment.Student] = append(s.byStudent[assessment.Student], assessment.ID)
	return assessment.ID, nil
}

func (s *InMemoryStore) FindAssessment(_ context.Context, id uint64) (Assessment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if assessment, ok := s.assessments[id]; ok {
		return assessment, nil
	}
	return Assessment{}, sentinel.ErrNotFound
}

func (s *InMemoryStore) ListAssessmentsByStudent(_ context.Context, student domain.Address) ([]Assessment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := s.byStudent[student]
	out := make([]Assessment, 0, len(ids))
	for _, id := range ids {
		out = append(out, s.assessments[id])
	}
	return out, nil
}

func (s *InMemoryStore) AssessmentCount(_ context.Context) (uint64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.nextID, nil
}

func (s *InMemoryStore) AppendInteraction(_ context.Context, interaction Interaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.interactions = append(s.interactions, interaction)
	return nil
}

func (s *InMemoryStore) SaveAnalytics(_ context.Context, analytics StudentAnalytics) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.analytics[analytics.Student] = analytics
	return nil
}

func (s *InMemoryStore) FindAnalytics(_ context.Context, student domain.Address) (StudentAnalytics, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	analytics := s.analytics[student]
	analytics.Student = student
	return analytics, nil
}

func (s *InMemoryStore) SaveCompetency(_ context.Context, key CompetencyKey, value uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.competencies[key] = value
	return nil
}

func (s *InMemoryStore) FindCompetency(_ context.Context, key CompetencyKey) (uint64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.competencies[key], nil
}
