package course

import (
	"context"

	"credentia/pkg/domain"
)

// Store persists courses and enrollments. Course IDs are dense, 1-based, and
// allocated by the store at creation, so IDs stay gap-free even when service
// level validation rejects attempts before they reach the store.
type Store interface {
	// CreateCourse assigns and returns the next course ID.
	CreateCourse(ctx context.Context, course Course) (uint64, error)
	// UpdateCourse fails with sentinel.ErrNotFound for unknown IDs.
	UpdateCourse(ctx context.Context, course Course) error
	FindCourse(ctx context.Context, id uint64) (Course, error)
	CourseCount(ctx context.Context) (uint64, error)

	// CreateEnrollment fails with sentinel.ErrConflict when the
	// (student, course) pair is already enrolled.
	CreateEnrollment(ctx context.Context, enrollment Enrollment) error
	UpdateEnrollment(ctx context.Context, enrollment Enrollment) error
	FindEnrollment(ctx context.Context, student domain.Address, courseID uint64) (Enrollment, error)
	ListEnrollmentsByStudent(ctx context.Context, student domain.Address) ([]Enrollment, error)
	ListEnrollmentsByCourse(ctx context.Context, courseID uint64) ([]Enrollment, error)
}
