package audit

import (
	"time"

	"github.com/google/uuid"

	"credentia/pkg/domain"
)

// Action names the state change (or audited query) an event records.
type Action string

const (
	ActionUserRegistered     Action = "user_registered"
	ActionUserVerified       Action = "user_verified"
	ActionReputationAdjusted Action = "reputation_adjusted"
	ActionCallerAuthorized   Action = "caller_authorized"

	ActionCourseCreated     Action = "course_created"
	ActionCourseEndorsed    Action = "course_endorsed"
	ActionCourseDeactivated Action = "course_deactivated"
	ActionStudentEnrolled   Action = "student_enrolled"
	ActionProgressUpdated   Action = "progress_updated"
	ActionCourseCompleted   Action = "course_completed"

	ActionAssessmentRecorded Action = "assessment_recorded"
	ActionInteractionTracked Action = "interaction_tracked"
	ActionCompetencyComputed Action = "competency_computed"
	ActionCredentialIssued   Action = "credential_issued"
	ActionCredentialVerified Action = "credential_verified"
	ActionCredentialRevoked  Action = "credential_revoked"
	ActionCredentialExtended Action = "credential_extended"
)

// Event is emitted from domain logic to capture key actions. Keep it
// transport-agnostic so stores and sinks can fan out.
type Event struct {
	ID        uuid.UUID      `json:"id"`
	Timestamp time.Time      `json:"timestamp"`
	Actor     domain.Address `json:"actor"`
	Action    Action         `json:"action"`
	// Subject identifies the entity acted on: an address, a course ID, a
	// token ID. Kept as a string so the event schema stays stable across
	// entity families.
	Subject string `json:"subject"`
	Outcome string `json:"outcome,omitempty"`
	Detail  string `json:"detail,omitempty"`
}
