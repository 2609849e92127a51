package credential

import (
	"time"

	"credentia/pkg/domain"
)

// Credential is the tamper-evident proof of competency minted for a completed
// course. Revocation is one-way; a zero ExpiryDate means the credential never
// expires.
type Credential struct {
	TokenID                 uint64
	Student                 domain.Address
	CourseID                uint64
	SkillAchieved           string
	CompetencyLevel         uint32
	IssueDate               time.Time
	ExpiryDate              time.Time
	VerificationFingerprint string
	AssessmentScore         uint64
	IsRevoked               bool
}

// IsExpired reports whether the credential's validity window has passed.
func (c Credential) IsExpired(now time.Time) bool {
	return !c.ExpiryDate.IsZero() && now.After(c.ExpiryDate)
}

const (
	MinCompetencyLevel uint32 = 1
	MaxCompetencyLevel uint32 = 100

	// reputationPerCompetency scales the reputation reward granted to the
	// student on issuance.
	reputationPerCompetency int64 = 10
)
