// Package authz holds the admin and authorized-caller capability registry.
// It is constructed once in main and passed into each service, so elevated
// access is an explicit dependency rather than ambient global state.
package authz

import (
	"sync"

	"credentia/pkg/domain"
	dErrors "credentia/pkg/domain-errors"
)

// Registry tracks which principals hold elevated write access. The admin is
// fixed at construction; authorized callers are granted and revoked by the
// admin at runtime (cross-service issuers, assessors, reputation adjusters).
type Registry struct {
	admin domain.Address

	mu         sync.RWMutex
	authorized map[domain.Address]bool
}

func NewRegistry(admin domain.Address) *Registry {
	return &Registry{
		admin:      admin,
		authorized: make(map[domain.Address]bool),
	}
}

// Admin returns the fixed admin principal.
func (r *Registry) Admin() domain.Address { return r.admin }

// IsAdmin reports whether addr is the admin.
func (r *Registry) IsAdmin(addr domain.Address) bool {
	return !addr.IsZero() && addr == r.admin
}

// IsAuthorized reports whether addr is on the authorized-caller list. The
// admin is implicitly authorized.
func (r *Registry) IsAuthorized(addr domain.Address) bool {
	if r.IsAdmin(addr) {
		return true
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.authorized[addr]
}

// Authorize grants elevated access to addr. Admin only.
func (r *Registry) Authorize(caller, addr domain.Address) error {
	if !r.IsAdmin(caller) {
		return dErrors.New(dErrors.CodeNotAuthorized, "only admin may authorize callers")
	}
	if addr.IsZero() {
		return dErrors.New(dErrors.CodeInvalidInput, "cannot authorize the zero address")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.authorized[addr] = true
	return nil
}

// Revoke removes addr from the authorized-caller list. Admin only. Revoking
// an address that was never authorized is a no-op.
func (r *Registry) Revoke(caller, addr domain.Address) error {
	if !r.IsAdmin(caller) {
		return dErrors.New(dErrors.CodeNotAuthorized, "only admin may revoke callers")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.authorized, addr)
	return nil
}
