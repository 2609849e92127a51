// Package ports defines the capabilities the assessment ledger needs from
// upstream modules, keeping the dependency order one-directional.
package ports

import (
	"context"

	"credentia/pkg/domain"
)

// CoursePort exposes the enrollment facts and the one progress side effect
// the assessment ledger relies on.
type CoursePort interface {
	// IsEnrolled reports whether the student holds an enrollment for the
	// course. Total: unknown pairs are simply false.
	IsEnrolled(ctx context.Context, student domain.Address, courseID uint64) bool

	// Staff returns the course's tutor and current endorsing university.
	Staff(ctx context.Context, courseID uint64) (tutor, university domain.Address, err error)

	// BumpProgress raises the student's progress by delta without crossing
	// ceiling; it is a no-op for completed enrollments.
	BumpProgress(ctx context.Context, student domain.Address, courseID uint64, delta, ceiling uint32) error
}
