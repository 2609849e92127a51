// Package ports defines the capabilities the credential issuer needs from
// upstream modules, keeping the dependency order one-directional.
package ports

import (
	"context"

	"credentia/pkg/domain"
)

// CoursePort exposes the completion precondition and staff resolution used
// when issuing and revoking credentials.
type CoursePort interface {
	// CompletedEnrollment reports whether the student's enrollment for the
	// course exists and has completed, along with its final score.
	CompletedEnrollment(ctx context.Context, student domain.Address, courseID uint64) (completed bool, finalScore uint64, err error)

	// Staff returns the course's tutor and current endorsing university.
	Staff(ctx context.Context, courseID uint64) (tutor, university domain.Address, err error)
}

// IdentityPort lets issuance reward the student's reputation.
type IdentityPort interface {
	AddReputation(ctx context.Context, student domain.Address, delta int64) error
}
