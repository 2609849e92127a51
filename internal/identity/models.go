package identity

import (
	"time"

	"credentia/pkg/domain"
)

// User is the primary identity tracked by the ledger. One record per address;
// the role is fixed at registration, verification and reputation evolve.
type User struct {
	Address            domain.Address
	Role               domain.Role
	ReputationScore    uint64
	IsVerified         bool
	ProfileFingerprint string
	CreatedAt          time.Time
}

// Counts is a snapshot of registration totals.
type Counts struct {
	Total   uint64
	PerRole map[domain.Role]uint64
}

// StartingReputation returns the role-dependent reputation assigned at
// registration.
func StartingReputation(role domain.Role) uint64 {
	switch role {
	case domain.RoleStudent:
		return 100
	case domain.RoleTutor:
		return 500
	case domain.RoleUniversity:
		return 1000
	case domain.RoleVerifier:
		return 750
	}
	return 0
}
