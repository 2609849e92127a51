// Package adapters wires the assessment ledger's ports to the course service
// in-process.
package adapters

import (
	"context"

	"credentia/internal/assessment/ports"
	"credentia/internal/course"
	"credentia/pkg/domain"
)

// CourseAdapter implements ports.CoursePort over the course service.
type CourseAdapter struct {
	course *course.Service
}

func NewCourseAdapter(svc *course.Service) ports.CoursePort {
	return &CourseAdapter{course: svc}
}

func (a *CourseAdapter) IsEnrolled(ctx context.Context, student domain.Address, courseID uint64) bool {
	return a.course.IsEnrolled(ctx, student, courseID)
}

func (a *CourseAdapter) Staff(ctx context.Context, courseID uint64) (domain.Address, domain.Address, error) {
	c, err := a.course.Course(ctx, courseID)
	if err != nil {
		return domain.ZeroAddress, domain.ZeroAddress, err
	}
	return c.Tutor, c.University, nil
}

func (a *CourseAdapter) BumpProgress(ctx context.Context, student domain.Address, courseID uint64, delta, ceiling uint32) error {
	return a.course.BumpProgress(ctx, student, courseID, delta, ceiling)
}
