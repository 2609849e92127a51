package credential

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"credentia/internal/audit"
	"credentia/internal/authz"
	"credentia/internal/credential/metrics"
	"credentia/internal/credential/ports"
	"credentia/internal/credential/token"
	"credentia/pkg/domain"
	dErrors "credentia/pkg/domain-errors"
	"credentia/pkg/platform/sentinel"
)

// Verification outcomes reported on the audit event and the verify metric.
const (
	outcomeValid   = "valid"
	outcomeRevoked = "revoked"
	outcomeExpired = "expired"
)

// Service owns issued credentials and the soulbound token ledger. Issuance
// depends on the course registry (completion precondition) and the identity
// registry (reputation reward); both are reached through narrow ports so the
// dependency order stays one-directional.
type Service struct {
	mu          sync.Mutex
	store       Store
	revocations RevocationList
	tokens      *token.Ledger
	course      ports.CoursePort
	identity    ports.IdentityPort
	authz       *authz.Registry
	audit       *audit.Publisher
	metrics     *metrics.Metrics
	now         func() time.Time
}

func NewService(store Store, revocations RevocationList, tokens *token.Ledger, course ports.CoursePort, identity ports.IdentityPort, registry *authz.Registry, publisher *audit.Publisher, m *metrics.Metrics) *Service {
	return &Service{
		store:       store,
		revocations: revocations,
		tokens:      tokens,
		course:      course,
		identity:    identity,
		authz:       registry,
		audit:       publisher,
		metrics:     m,
		now:         time.Now,
	}
}

// Issue mints a credential for a completed course. The caller must be the
// admin or an authorized issuer. Returns the dense token ID.
func (s *Service) Issue(ctx context.Context, caller, student domain.Address, courseID uint64, skill string, competency uint32, assessmentScore uint64, expiry time.Time) (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.authz.IsAuthorized(caller) {
		return 0, dErrors.New(dErrors.CodeNotAuthorized, "caller may not issue credentials")
	}
	if competency < MinCompetencyLevel || competency > MaxCompetencyLevel {
		return 0, dErrors.New(dErrors.CodeInvalidInput, "competency level out of range")
	}
	completed, _, err := s.course.CompletedEnrollment(ctx, student, courseID)
	if err != nil {
		return 0, err
	}
	if !completed {
		return 0, dErrors.New(dErrors.CodeInvalidState, "course is not completed")
	}

	issuedAt := s.now()
	credential := Credential{
		Student:                 student,
		CourseID:                courseID,
		SkillAchieved:           skill,
		CompetencyLevel:         competency,
		IssueDate:               issuedAt,
		ExpiryDate:              expiry,
		VerificationFingerprint: fingerprint(student, courseID, skill, competency, assessmentScore, issuedAt),
		AssessmentScore:         assessmentScore,
	}
	tokenID, err := s.store.Create(ctx, credential)
	if err != nil {
		return 0, dErrors.Wrap(err, dErrors.CodeInternal, "store credential")
	}
	if err := s.tokens.Mint(student, tokenID, tokenURI(courseID, skill)); err != nil {
		return 0, dErrors.Wrap(err, dErrors.CodeInternal, "mint credential token")
	}
	if err := s.identity.AddReputation(ctx, student, int64(competency)*reputationPerCompetency); err != nil {
		return 0, err
	}

	s.metrics.IncrementIssued(skill)
	_ = s.audit.Emit(ctx, audit.Event{
		Actor:   caller,
		Action:  audit.ActionCredentialIssued,
		Subject: fmt.Sprintf("token:%d", tokenID),
		Outcome: "issued",
		Detail:  fmt.Sprintf("student:%s course:%d skill:%s", student, courseID, skill),
	})
	return tokenID, nil
}

// Verify reports whether a credential is currently valid. It fails with
// NotFound for an unused token ID and returns false once the credential is
// revoked or past a non-zero expiry. Verification is an audited query: an
// event is emitted even when the answer is false.
func (s *Service) Verify(ctx context.Context, caller domain.Address, tokenID uint64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	credential, err := s.store.FindByTokenID(ctx, tokenID)
	if errors.Is(err, sentinel.ErrNotFound) {
		return false, dErrors.New(dErrors.CodeNotFound, "credential not found")
	}
	if err != nil {
		return false, dErrors.Wrap(err, dErrors.CodeInternal, "find credential")
	}

	outcome := outcomeValid
	switch {
	case credential.IsRevoked:
		outcome = outcomeRevoked
	case credential.IsExpired(s.now()):
		outcome = outcomeExpired
	default:
		// The shared mirror may have observed a revocation another
		// instance performed.
		mirrored, err := s.revocations.IsRevoked(ctx, tokenID)
		if err != nil {
			return false, dErrors.Wrap(err, dErrors.CodeInternal, "check revocation list")
		}
		if mirrored {
			outcome = outcomeRevoked
		}
	}

	s.metrics.IncrementVerify(outcome)
	_ = s.audit.Emit(ctx, audit.Event{
		Actor:   caller,
		Action:  audit.ActionCredentialVerified,
		Subject: fmt.Sprintf("token:%d", tokenID),
		Outcome: outcome,
	})
	return outcome == outcomeValid, nil
}

// Revoke permanently invalidates a credential. The caller must be the admin
// or the credential's course tutor or endorsing university.
func (s *Service) Revoke(ctx context.Context, caller domain.Address, tokenID uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	credential, err := s.store.FindByTokenID(ctx, tokenID)
	if errors.Is(err, sentinel.ErrNotFound) {
		return dErrors.New(dErrors.CodeNotFound, "credential not found")
	}
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "find credential")
	}
	if err := s.authorizeRevoker(ctx, caller, credential.CourseID); err != nil {
		return err
	}
	if credential.IsRevoked {
		return dErrors.New(dErrors.CodeInvalidState, "credential is already revoked")
	}

	credential.IsRevoked = true
	if err := s.store.Update(ctx, credential); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "update credential")
	}
	if err := s.revocations.MarkRevoked(ctx, tokenID); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "mark credential revoked")
	}

	s.metrics.IncrementRevoked()
	_ = s.audit.Emit(ctx, audit.Event{
		Actor:   caller,
		Action:  audit.ActionCredentialRevoked,
		Subject: fmt.Sprintf("token:%d", tokenID),
		Outcome: "revoked",
	})
	return nil
}

// Extend pushes a credential's expiry further into the future. Admin only;
// revoked credentials stay invalid and cannot be extended.
func (s *Service) Extend(ctx context.Context, caller domain.Address, tokenID uint64, newExpiry time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.authz.IsAdmin(caller) {
		return dErrors.New(dErrors.CodeNotAuthorized, "caller may not extend credentials")
	}
	credential, err := s.store.FindByTokenID(ctx, tokenID)
	if errors.Is(err, sentinel.ErrNotFound) {
		return dErrors.New(dErrors.CodeNotFound, "credential not found")
	}
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "find credential")
	}
	if credential.IsRevoked {
		return dErrors.New(dErrors.CodeInvalidState, "credential is revoked")
	}
	if credential.ExpiryDate.IsZero() {
		return dErrors.New(dErrors.CodeInvalidInput, "credential does not expire")
	}
	if !newExpiry.After(credential.ExpiryDate) {
		return dErrors.New(dErrors.CodeInvalidInput, "new expiry must be later than the current one")
	}

	credential.ExpiryDate = newExpiry
	if err := s.store.Update(ctx, credential); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "update credential")
	}

	_ = s.audit.Emit(ctx, audit.Event{
		Actor:   caller,
		Action:  audit.ActionCredentialExtended,
		Subject: fmt.Sprintf("token:%d", tokenID),
		Outcome: "extended",
		Detail:  newExpiry.UTC().Format(time.RFC3339),
	})
	return nil
}

// Credential returns a stored credential by token ID.
func (s *Service) Credential(ctx context.Context, tokenID uint64) (Credential, error) {
	credential, err := s.store.FindByTokenID(ctx, tokenID)
	if errors.Is(err, sentinel.ErrNotFound) {
		return Credential{}, dErrors.New(dErrors.CodeNotFound, "credential not found")
	}
	if err != nil {
		return Credential{}, dErrors.Wrap(err, dErrors.CodeInternal, "find credential")
	}
	return credential, nil
}

// CredentialsOfStudent lists a student's credentials in issuance order.
func (s *Service) CredentialsOfStudent(ctx context.Context, student domain.Address) ([]Credential, error) {
	credentials, err := s.store.ListByStudent(ctx, student)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "list credentials")
	}
	return credentials, nil
}

// Count returns the number of credentials ever issued.
func (s *Service) Count(ctx context.Context) (uint64, error) {
	count, err := s.store.Count(ctx)
	if err != nil {
		return 0, dErrors.Wrap(err, dErrors.CodeInternal, "count credentials")
	}
	return count, nil
}

// OwnerOf resolves a token's owner on the ledger.
func (s *Service) OwnerOf(tokenID uint64) (domain.Address, error) {
	owner, err := s.tokens.OwnerOf(tokenID)
	if errors.Is(err, sentinel.ErrNotFound) {
		return domain.ZeroAddress, dErrors.New(dErrors.CodeNotFound, "token not found")
	}
	return owner, err
}

// BalanceOf returns how many credential tokens the owner holds.
func (s *Service) BalanceOf(owner domain.Address) uint64 {
	return s.tokens.BalanceOf(owner)
}

// TokenURI returns the token's metadata URI.
func (s *Service) TokenURI(tokenID uint64) (string, error) {
	uri, err := s.tokens.TokenURI(tokenID)
	if errors.Is(err, sentinel.ErrNotFound) {
		return "", dErrors.New(dErrors.CodeNotFound, "token not found")
	}
	return uri, err
}

func (s *Service) authorizeRevoker(ctx context.Context, caller domain.Address, courseID uint64) error {
	if s.authz.IsAdmin(caller) {
		return nil
	}
	tutor, university, err := s.course.Staff(ctx, courseID)
	if err != nil {
		return err
	}
	if caller == tutor || (!university.IsZero() && caller == university) {
		return nil
	}
	return dErrors.New(dErrors.CodeNotAuthorized, "caller may not revoke this credential")
}

func tokenURI(courseID uint64, skill string) string {
	return fmt.Sprintf("credential://course/%d/skill/%s", courseID, skill)
}
