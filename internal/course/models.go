package course

import (
	"time"

	"credentia/pkg/domain"
)

// Course is an offering created by a verified tutor. university is the
// current endorser; endorsement overwrites, a course has exactly one endorser
// at a time. Deactivation is one-way.
type Course struct {
	ID                  uint64
	Tutor               domain.Address
	University          domain.Address
	MetadataFingerprint string
	// SkillTags keeps the tutor-supplied order and does not deduplicate.
	SkillTags         []string
	DifficultyLevel   uint32
	EstimatedDuration uint64
	IsActive          bool
	CreatedAt         time.Time
	EnrollmentCount   uint64
}

// Enrollment ties a student to a course, at most one per pair. Completion is
// a terminal transition that pins progress to 100.
type Enrollment struct {
	Student            domain.Address
	CourseID           uint64
	EnrolledAt         time.Time
	ProgressPercentage uint32
	// CompletionDate stays zero until the enrollment completes.
	CompletionDate time.Time
	FinalScore     uint64
	IsCompleted    bool
}

const (
	MinDifficulty uint32 = 1
	MaxDifficulty uint32 = 10
	MaxProgress   uint32 = 100
)
