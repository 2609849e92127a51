package assessment

import (
	"context"

	"credentia/pkg/domain"
)

// CompetencyKey addresses a derived competency value.
type CompetencyKey struct {
	Student domain.Address
	Skill   string
}

// Store persists assessments, interactions, analytics aggregates, and derived
// competency scores. Assessment IDs are dense, 1-based, and allocated at
// append time.
type Store interface {
	// AppendAssessment assigns and returns the next assessment ID.
	AppendAssessment(ctx context.Context, assessment Assessment) (uint64, error)
	FindAssessment(ctx context.Context, id uint64) (Assessment, error)
	ListAssessmentsByStudent(ctx context.Context, student domain.Address) ([]Assessment, error)
	AssessmentCount(ctx context.Context) (uint64, error)

	AppendInteraction(ctx context.Context, interaction Interaction) error

	// SaveAnalytics upserts the running aggregate for a student.
	SaveAnalytics(ctx context.Context, analytics StudentAnalytics) error
	// FindAnalytics is total: students with no activity yield a zero record.
	FindAnalytics(ctx context.Context, student domain.Address) (StudentAnalytics, error)

	SaveCompetency(ctx context.Context, key CompetencyKey, value uint64) error
	// FindCompetency is total: unknown keys yield zero.
	FindCompetency(ctx context.Context, key CompetencyKey) (uint64, error)
}
