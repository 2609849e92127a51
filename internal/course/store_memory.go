package course

import (
	"context"
	"sort"
	"sync"

	"credentia/pkg/domain"
	"credentia/pkg/platform/sentinel"
)

type enrollmentKey struct {
	student  domain.Address
	courseID uint64
}

// InMemoryStore keeps courses and enrollments in mutex-guarded maps. It
// intentionally favors clarity over performance.
type InMemoryStore struct {
	mu          sync.RWMutex
	nextID      uint64
	courses     map[uint64]Course
	enrollments map[enrollmentKey]Enrollment
	byStudent   map[domain.Address][]enrollmentKey
	byCourse    map[uint64][]enrollmentKey
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		courses:     make(map[uint64]Course),
		enrollments: make(map[enrollmentKey]Enrollment),
		byStudent:   make(map[domain.Address][]enrollmentKey),
		byCourse:    make(map[uint64][]enrollmentKey),
	}
}

func (s *InMemoryStore) CreateCourse(_ context.Context, course Course) (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	course.ID = s.nextID
	s.courses[course.ID] = course
	return course.ID, nil
}

func (s *InMemoryStore) UpdateCourse(_ context.Context, course Course) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.courses[course.ID]; !ok {
		return sentinel.ErrNotFound
	}
	s.courses[course.ID] = course
	return nil
}

func (s *InMemoryStore) FindCourse(_ context.Context, id uint64) (Course, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if course, ok := s.courses[id]; ok {
		return course, nil
	}
	return Course{}, sentinel.ErrNotFound
}

func (s *InMemoryStore) CourseCount(_ context.Context) (uint64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.nextID, nil
}

func (s *InMemoryStore) CreateEnrollment(_ context.Context, enrollment Enrollment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := enrollmentKey{student: enrollment.Student, courseID: enrollment.CourseID}
	if _, ok := s.enrollments[key]; ok {
		return sentinel.ErrConflict
	}
	s.enrollments[key] = enrollment
	s.byStudent[key.student] = append(s.byStudent[key.student], key)
	s.byCourse[key.courseID] = append(s.byCourse[key.courseID], key)
	return nil
}

func (s *InMemoryStore) UpdateEnrollment(_ context.Context, enrollment Enrollment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := enrollmentKey{student: enrollment.Student, courseID: enrollment.CourseID}
	if _, ok := s.enrollments[key]; !ok {
		return sentinel.ErrNotFound
	}
	s.enrollments[key] = enrollment
	return nil
}

func (s *InMemoryStore) FindEnrollment(_ context.Context, student domain.Address, courseID uint64) (Enrollment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if enrollment, ok := s.enrollments[enrollmentKey{student: student, courseID: courseID}]; ok {
		return enrollment, nil
	}
	return Enrollment{}, sentinel.ErrNotFound
}

func (s *InMemoryStore) ListEnrollmentsByStudent(_ context.Context, student domain.Address) ([]Enrollment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	keys := s.byStudent[student]
	out := make([]Enrollment, 0, len(keys))
	for _, key := range keys {
		out = append(out, s.enrollments[key])
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CourseID < out[j].CourseID })
	return out, nil
}

func (s *InMemoryStore) ListEnrollmentsByCourse(_ context.Context, courseID uint64) ([]Enrollment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	keys := s.byCourse[courseID]
	out := make([]Enrollment, 0, len(keys))
	for _, key := range keys {
		out = append(out, s.enrollments[key])
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Student < out[j].Student })
	return out, nil
}
