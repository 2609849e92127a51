package identity

import (
	"context"
	"testing"

	"github.com/stretchr/testify/suite"

	"credentia/internal/audit"
	"credentia/internal/authz"
	"credentia/pkg/domain"
	dErrors "credentia/pkg/domain-errors"
)

const (
	adminAddr      = domain.Address("addr-admin")
	studentAddr    = domain.Address("addr-student")
	tutorAddr      = domain.Address("addr-tutor")
	universityAddr = domain.Address("addr-university")
	verifierAddr   = domain.Address("addr-verifier")
)

type IdentityServiceSuite struct {
	suite.Suite
	ctx     context.Context
	service *Service
	reg     *authz.Registry
	events  *audit.InMemoryStore
}

func (s *IdentityServiceSuite) SetupTest() {
	s.ctx = context.Background()
	s.reg = authz.NewRegistry(adminAddr)
	s.events = audit.NewInMemoryStore()
	s.service = NewService(NewInMemoryStore(), s.reg, audit.NewPublisher(s.events, nil))
}

// SetupSubTest resets the fixture so each s.Run case starts from a clean
// ledger.
func (s *IdentityServiceSuite) SetupSubTest() {
	s.SetupTest()
}

func TestIdentityServiceSuite(t *testing.T) {
	suite.Run(t, new(IdentityServiceSuite))
}

func (s *IdentityServiceSuite) register(addr domain.Address, role domain.Role) User {
	user, err := s.service.Register(s.ctx, addr, role, "fp-"+string(addr))
	s.Require().NoError(err)
	return user
}

func (s *IdentityServiceSuite) TestRegister() {
	s.Run("assigns role-dependent starting reputation", func() {
		table := map[domain.Address]struct {
			role domain.Role
			want uint64
		}{
			studentAddr:    {domain.RoleStudent, 100},
			tutorAddr:      {domain.RoleTutor, 500},
			universityAddr: {domain.RoleUniversity, 1000},
			verifierAddr:   {domain.RoleVerifier, 750},
		}
		for addr, tc := range table {
			user := s.register(addr, tc.role)
			s.Equal(tc.want, user.ReputationScore, string(tc.role))
			s.False(user.IsVerified)
		}

		counts, err := s.service.UserCounts(s.ctx)
		s.Require().NoError(err)
		s.Equal(uint64(4), counts.Total)
		s.Equal(uint64(1), counts.PerRole[domain.RoleTutor])
	})

	s.Run("second registration from the same address fails", func() {
		s.register(studentAddr, domain.RoleStudent)
		_, err := s.service.Register(s.ctx, studentAddr, domain.RoleTutor, "fp2")
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeAlreadyExists))

		// The original record is untouched.
		s.Equal(domain.RoleStudent, s.service.RoleOf(s.ctx, studentAddr))
	})

	s.Run("rejects unknown role", func() {
		_, err := s.service.Register(s.ctx, studentAddr, domain.Role("dean"), "fp")
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	s.Run("emits a registration event", func() {
		s.register(studentAddr, domain.RoleStudent)
		events, err := s.events.ListByActor(s.ctx, studentAddr)
		s.Require().NoError(err)
		s.Require().Len(events, 1)
		s.Equal(audit.ActionUserRegistered, events[0].Action)
		s.False(events[0].Timestamp.IsZero())
	})
}

func (s *IdentityServiceSuite) TestVerify() {
	s.Run("admin verifies a registered user", func() {
		s.register(studentAddr, domain.RoleStudent)
		s.Require().NoError(s.service.Verify(s.ctx, adminAddr, studentAddr))
		s.True(s.service.IsVerified(s.ctx, studentAddr))
	})

	s.Run("university verifies a registered user", func() {
		s.register(universityAddr, domain.RoleUniversity)
		s.register(tutorAddr, domain.RoleTutor)
		s.Require().NoError(s.service.Verify(s.ctx, universityAddr, tutorAddr))
		s.True(s.service.IsVerified(s.ctx, tutorAddr))
	})

	s.Run("students and tutors may not verify", func() {
		s.register(studentAddr, domain.RoleStudent)
		s.register(tutorAddr, domain.RoleTutor)
		err := s.service.Verify(s.ctx, tutorAddr, studentAddr)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeNotAuthorized))
	})

	s.Run("unknown target fails with not found", func() {
		err := s.service.Verify(s.ctx, adminAddr, domain.Address("addr-ghost"))
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})

	s.Run("double verification is rejected explicitly", func() {
		s.register(studentAddr, domain.RoleStudent)
		s.Require().NoError(s.service.Verify(s.ctx, adminAddr, studentAddr))
		err := s.service.Verify(s.ctx, adminAddr, studentAddr)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidState))
	})
}

func (s *IdentityServiceSuite) TestAdjustReputation() {
	s.Run("admin applies positive delta", func() {
		s.register(studentAddr, domain.RoleStudent)
		score, err := s.service.AdjustReputation(s.ctx, adminAddr, studentAddr, 250)
		s.Require().NoError(err)
		s.Equal(uint64(350), score)
	})

	s.Run("underflow saturates at zero", func() {
		s.register(studentAddr, domain.RoleStudent)
		_, err := s.service.AdjustReputation(s.ctx, adminAddr, studentAddr, -50)
		s.Require().NoError(err)
		score, err := s.service.AdjustReputation(s.ctx, adminAddr, studentAddr, -200)
		s.Require().NoError(err)
		s.Equal(uint64(0), score)
		s.Equal(uint64(0), s.service.Reputation(s.ctx, studentAddr))
	})

	s.Run("authorized caller may adjust", func() {
		s.register(studentAddr, domain.RoleStudent)
		issuer := domain.Address("addr-issuer")
		s.Require().NoError(s.service.AuthorizeCaller(s.ctx, adminAddr, issuer))
		score, err := s.service.AdjustReputation(s.ctx, issuer, studentAddr, 10)
		s.Require().NoError(err)
		s.Equal(uint64(110), score)
	})

	s.Run("unauthorized caller is rejected", func() {
		s.register(studentAddr, domain.RoleStudent)
		_, err := s.service.AdjustReputation(s.ctx, tutorAddr, studentAddr, 10)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeNotAuthorized))
	})

	s.Run("unknown target fails with not found", func() {
		_, err := s.service.AdjustReputation(s.ctx, adminAddr, domain.Address("addr-ghost"), 10)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})
}

func (s *IdentityServiceSuite) TestTotalAccessors() {
	s.Run("unknown address reads as zero-value record", func() {
		s.Equal(domain.Role(""), s.service.RoleOf(s.ctx, domain.Address("addr-ghost")))
		s.False(s.service.IsVerified(s.ctx, domain.Address("addr-ghost")))
		s.Equal(uint64(0), s.service.Reputation(s.ctx, domain.Address("addr-ghost")))
	})
}
