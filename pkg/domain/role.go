package domain

import dErrors "credentia/pkg/domain-errors"

// Role is the immutable role a user picks at registration. It never changes
// afterwards; verification and reputation evolve, the role does not.
type Role string

const (
	RoleStudent    Role = "student"
	RoleTutor      Role = "tutor"
	RoleUniversity Role = "university"
	RoleVerifier   Role = "verifier"
)

// ParseRole validates a role string at trust boundaries.
func ParseRole(s string) (Role, error) {
	switch Role(s) {
	case RoleStudent, RoleTutor, RoleUniversity, RoleVerifier:
		return Role(s), nil
	}
	return "", dErrors.New(dErrors.CodeInvalidInput, "unknown role: "+s)
}

func (r Role) String() string { return string(r) }
