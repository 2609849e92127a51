// Package adapters wires the course registry's ports to the sibling services
// in-process. The domain layer sees only the port interfaces, so these can be
// swapped for remote adapters without touching course logic.
package adapters

import (
	"context"

	"credentia/internal/course/ports"
	"credentia/internal/identity"
	"credentia/pkg/domain"
)

// IdentityAdapter implements ports.IdentityPort over the identity service.
type IdentityAdapter struct {
	identity *identity.Service
}

func NewIdentityAdapter(svc *identity.Service) ports.IdentityPort {
	return &IdentityAdapter{identity: svc}
}

func (a *IdentityAdapter) Profile(ctx context.Context, addr domain.Address) ports.Profile {
	user := a.identity.Lookup(ctx, addr)
	return ports.Profile{Role: user.Role, Verified: user.IsVerified}
}
