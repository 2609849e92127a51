package identity

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"credentia/internal/audit"
	"credentia/internal/authz"
	"credentia/pkg/domain"
	dErrors "credentia/pkg/domain-errors"
	"credentia/pkg/platform/sentinel"
)

// Service owns user registration, verification, and reputation. Every other
// module gates its operations on answers from this one, so accessors are
// total: unknown addresses read as zero-value records, never as errors.
//
// The mutex serializes state transitions: each operation validates and writes
// under one critical section, so a failed call leaves no partial mutation
// visible to concurrent callers.
type Service struct {
	mu    sync.Mutex
	store Store
	authz *authz.Registry
	audit *audit.Publisher
}

func NewService(store Store, registry *authz.Registry, publisher *audit.Publisher) *Service {
	return &Service{store: store, authz: registry, audit: publisher}
}

// Register creates the caller's user record with the role-dependent starting
// reputation. A second registration from the same address is rejected.
func (s *Service) Register(ctx context.Context, caller domain.Address, role domain.Role, profileFingerprint string) (User, error) {
	if caller.IsZero() {
		return User{}, dErrors.New(dErrors.CodeInvalidInput, "caller address required")
	}
	if _, err := domain.ParseRole(role.String()); err != nil {
		return User{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	user := User{
		Address:            caller,
		Role:               role,
		ReputationScore:    StartingReputation(role),
		ProfileFingerprint: profileFingerprint,
		CreatedAt:          time.Now(),
	}
	if err := s.store.Create(ctx, user); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return User{}, dErrors.New(dErrors.CodeAlreadyExists, "address already registered")
		}
		return User{}, dErrors.Wrap(err, dErrors.CodeInternal, "create user")
	}

	_ = s.audit.Emit(ctx, audit.Event{
		Actor:   caller,
		Action:  audit.ActionUserRegistered,
		Subject: caller.String(),
		Detail:  role.String(),
	})
	return user, nil
}

// Verify marks the target as verified. Only the admin or a registered
// university may verify; re-verifying is an explicit rejection, not a silent
// no-op.
func (s *Service) Verify(ctx context.Context, caller, target domain.Address) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.authz.IsAdmin(caller) {
		verifier, err := s.store.FindByAddress(ctx, caller)
		if err != nil || verifier.Role != domain.RoleUniversity {
			return dErrors.New(dErrors.CodeNotAuthorized, "only admin or a university may verify users")
		}
	}

	user, err := s.store.FindByAddress(ctx, target)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.New(dErrors.CodeNotFound, "target is not registered")
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "find user")
	}
	if user.IsVerified {
		return dErrors.New(dErrors.CodeInvalidState, "user is already verified")
	}

	user.IsVerified = true
	if err := s.store.Update(ctx, user); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "update user")
	}

	_ = s.audit.Emit(ctx, audit.Event{
		Actor:   caller,
		Action:  audit.ActionUserVerified,
		Subject: target.String(),
	})
	return nil
}

// AdjustReputation applies a signed delta to the target's reputation. The
// score saturates at zero on underflow; it never wraps or goes negative.
// Returns the new score.
func (s *Service) AdjustReputation(ctx context.Context, caller, target domain.Address, delta int64) (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.adjustReputationLocked(ctx, caller, target, delta)
}

func (s *Service) adjustReputationLocked(ctx context.Context, caller, target domain.Address, delta int64) (uint64, error) {
	if !s.authz.IsAuthorized(caller) {
		return 0, dErrors.New(dErrors.CodeNotAuthorized, "caller may not adjust reputation")
	}

	user, err := s.store.FindByAddress(ctx, target)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return 0, dErrors.New(dErrors.CodeNotFound, "target is not registered")
		}
		return 0, dErrors.Wrap(err, dErrors.CodeInternal, "find user")
	}

	if delta >= 0 {
		user.ReputationScore += uint64(delta)
	} else if loss := uint64(-delta); loss >= user.ReputationScore {
		user.ReputationScore = 0
	} else {
		user.ReputationScore -= loss
	}

	if err := s.store.Update(ctx, user); err != nil {
		return 0, dErrors.Wrap(err, dErrors.CodeInternal, "update user")
	}

	_ = s.audit.Emit(ctx, audit.Event{
		Actor:   caller,
		Action:  audit.ActionReputationAdjusted,
		Subject: target.String(),
		Detail:  fmt.Sprintf("delta=%d score=%d", delta, user.ReputationScore),
	})
	return user.ReputationScore, nil
}

// AuthorizeCaller grants cross-service privileged access to addr. Admin only.
func (s *Service) AuthorizeCaller(ctx context.Context, caller, addr domain.Address) error {
	if err := s.authz.Authorize(caller, addr); err != nil {
		return err
	}
	_ = s.audit.Emit(ctx, audit.Event{
		Actor:   caller,
		Action:  audit.ActionCallerAuthorized,
		Subject: addr.String(),
	})
	return nil
}

// Lookup is a total accessor: unknown addresses yield a zero-value record.
func (s *Service) Lookup(ctx context.Context, addr domain.Address) User {
	user, err := s.store.FindByAddress(ctx, addr)
	if err != nil {
		return User{}
	}
	return user
}

// RoleOf returns the role for addr, empty for unknown addresses.
func (s *Service) RoleOf(ctx context.Context, addr domain.Address) domain.Role {
	return s.Lookup(ctx, addr).Role
}

// IsVerified reports the verification flag, false for unknown addresses.
func (s *Service) IsVerified(ctx context.Context, addr domain.Address) bool {
	return s.Lookup(ctx, addr).IsVerified
}

// Reputation returns the reputation score, zero for unknown addresses.
func (s *Service) Reputation(ctx context.Context, addr domain.Address) uint64 {
	return s.Lookup(ctx, addr).ReputationScore
}

// UserCounts returns registration totals.
func (s *Service) UserCounts(ctx context.Context) (Counts, error) {
	counts, err := s.store.Counts(ctx)
	if err != nil {
		return Counts{}, dErrors.Wrap(err, dErrors.CodeInternal, "count users")
	}
	return counts, nil
}
