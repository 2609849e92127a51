package identity

import (
	"context"

	"credentia/pkg/domain"
)

// Store persists user records. Stores are interface-driven to keep the domain
// logic testable and to allow swapping in-memory or external persistence
// without rewiring business code.
type Store interface {
	// Create fails with sentinel.ErrConflict when the address is taken.
	Create(ctx context.Context, user User) error
	// Update fails with sentinel.ErrNotFound when the address is unknown.
	Update(ctx context.Context, user User) error
	FindByAddress(ctx context.Context, addr domain.Address) (User, error)
	Counts(ctx context.Context) (Counts, error)
}
