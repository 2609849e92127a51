// Package ports defines the narrow capabilities the course module needs from
// its upstream modules. Defining them here keeps the dependency order
// one-directional: the course registry never imports identity internals.
package ports

import (
	"context"

	"credentia/pkg/domain"
)

// IdentityPort answers the role and verification questions that gate course
// operations. Implementations must be total: unknown addresses yield a
// zero-value profile, not an error.
type IdentityPort interface {
	Profile(ctx context.Context, addr domain.Address) Profile
}

// Profile is the minimal identity view the course registry consumes.
type Profile struct {
	Role     domain.Role
	Verified bool
}
