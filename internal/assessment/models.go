package assessment

import (
	"time"

	"credentia/pkg/domain"
)

// Assessment is an append-only record of one graded evaluation for an
// enrolled student.
type Assessment struct {
	ID          uint64
	Student     domain.Address
	CourseID    uint64
	Type        string
	Score       uint64
	MaxScore    uint64
	TimeTaken   uint64
	CompletedAt time.Time
}

// Interaction is an append-only learning activity log entry.
type Interaction struct {
	Student  domain.Address
	CourseID uint64
	Type     string
	Data     string
	At       time.Time
}

// StudentAnalytics is a running aggregate over everything a student has done.
// It is never reset.
type StudentAnalytics struct {
	Student          domain.Address
	TotalAssessments uint64
	TotalScore       uint64
	TotalTime        uint64
	LastActivity     time.Time
}

// AnalyticsSummary is the derived read model for a student.
type AnalyticsSummary struct {
	AssessmentCount uint64
	AverageScore    uint64
	TotalTime       uint64
}

// progressNudge is the fixed progress increment applied per recorded
// assessment; the ceiling keeps completion an explicit act of the tutor.
const (
	progressNudge   uint32 = 10
	progressCeiling uint32 = 90
)

// MaxCompetency bounds derived competency scores.
const MaxCompetency uint64 = 100
