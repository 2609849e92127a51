package credential

import (
	"context"

	"credentia/pkg/domain"
)

// Store persists credentials. Token IDs are dense, 1-based, and allocated by
// the store at creation.
type Store interface {
	// Create assigns and returns the next token ID.
	Create(ctx context.Context, credential Credential) (uint64, error)
	// Update fails with sentinel.ErrNotFound for unknown token IDs.
	Update(ctx context.Context, credential Credential) error
	FindByTokenID(ctx context.Context, tokenID uint64) (Credential, error)
	ListByStudent(ctx context.Context, student domain.Address) ([]Credential, error)
	Count(ctx context.Context) (uint64, error)
}

// RevocationList mirrors revocation flags to a shared fast path so external
// verifiers and sibling instances observe revocations without reading the
// primary store.
type RevocationList interface {
	MarkRevoked(ctx context.Context, tokenID uint64) error
	IsRevoked(ctx context.Context, tokenID uint64) (bool, error)
}
