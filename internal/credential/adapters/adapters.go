// Package adapters wires the credential issuer's ports to the course and
// identity services in-process.
package adapters

import (
	"context"

	"credentia/internal/course"
	"credentia/internal/credential/ports"
	"credentia/internal/identity"
	"credentia/pkg/domain"
	dErrors "credentia/pkg/domain-errors"
)

// CourseAdapter implements ports.CoursePort over the course service.
type CourseAdapter struct {
	course *course.Service
}

func NewCourseAdapter(svc *course.Service) ports.CoursePort {
	return &CourseAdapter{course: svc}
}

func (a *CourseAdapter) CompletedEnrollment(ctx context.Context, student domain.Address, courseID uint64) (bool, uint64, error) {
	enrollment, err := a.course.EnrollmentOf(ctx, student, courseID)
	if dErrors.HasCode(err, dErrors.CodeNotFound) {
		// A student who never enrolled has not completed the course. The
		// course itself must still exist.
		if _, err := a.course.Course(ctx, courseID); err != nil {
			return false, 0, err
		}
		return false, 0, nil
	}
	if err != nil {
		return false, 0, err
	}
	return enrollment.IsCompleted, enrollment.FinalScore, nil
}

func (a *CourseAdapter) Staff(ctx context.Context, courseID uint64) (domain.Address, domain.Address, error) {
	c, err := a.course.Course(ctx, courseID)
	if err != nil {
		return domain.ZeroAddress, domain.ZeroAddress, err
	}
	return c.Tutor, c.University, nil
}

// IdentityAdapter implements ports.IdentityPort over the identity service.
// Reputation rewards are applied as the issuer address, which must be on the
// identity registry's authorized-caller list.
type IdentityAdapter struct {
	identity *identity.Service
	issuer   domain.Address
}

func NewIdentityAdapter(svc *identity.Service, issuer domain.Address) ports.IdentityPort {
	return &IdentityAdapter{identity: svc, issuer: issuer}
}

func (a *IdentityAdapter) AddReputation(ctx context.Context, student domain.Address, delta int64) error {
	_, err := a.identity.AdjustReputation(ctx, a.issuer, student, delta)
	return err
}
