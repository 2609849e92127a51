package course

import (
	"context"
	"testing"

	"github.com/stretchr/testify/suite"

	"credentia/internal/audit"
	"credentia/internal/authz"
	"credentia/internal/course/ports"
	"credentia/pkg/domain"
	dErrors "credentia/pkg/domain-errors"
)

const (
	adminAddr      = domain.Address("addr-admin")
	tutorAddr      = domain.Address("addr-tutor")
	studentAddr    = domain.Address("addr-student")
	universityAddr = domain.Address("addr-university")
)

// stubIdentity satisfies ports.IdentityPort with a fixed profile table.
type stubIdentity struct {
	profiles map[domain.Address]ports.Profile
}

func (s *stubIdentity) Profile(_ context.Context, addr domain.Address) ports.Profile {
	return s.profiles[addr]
}

type CourseServiceSuite struct {
	suite.Suite
	ctx      context.Context
	service  *Service
	identity *stubIdentity
	events   *audit.InMemoryStore
}

func (s *CourseServiceSuite) SetupTest() {
	s.ctx = context.Background()
	s.identity = &stubIdentity{profiles: map[domain.Address]ports.Profile{
		tutorAddr:      {Role: domain.RoleTutor, Verified: true},
		studentAddr:    {Role: domain.RoleStudent, Verified: true},
		universityAddr: {Role: domain.RoleUniversity, Verified: true},
	}}
	s.events = audit.NewInMemoryStore()
	s.service = NewService(NewInMemoryStore(), s.identity, authz.NewRegistry(adminAddr), audit.NewPublisher(s.events, nil))
}

// SetupSubTest resets the fixture so each s.Run case starts from a clean
// ledger.
func (s *CourseServiceSuite) SetupSubTest() {
	s.SetupTest()
}

func TestCourseServiceSuite(t *testing.T) {
	suite.Run(t, new(CourseServiceSuite))
}

func (s *CourseServiceSuite) createCourse() uint64 {
	id, err := s.service.CreateCourse(s.ctx, tutorAddr, "meta-fp", []string{"go", "testing"}, 5, 40, domain.ZeroAddress)
	s.Require().NoError(err)
	return id
}

func (s *CourseServiceSuite) TestCreateCourse() {
	s.Run("verified tutor creates an active course", func() {
		id := s.createCourse()
		s.Equal(uint64(1), id)

		course, err := s.service.Course(s.ctx, id)
		s.Require().NoError(err)
		s.True(course.IsActive)
		s.Equal(tutorAddr, course.Tutor)
		s.Equal(uint64(0), course.EnrollmentCount)
		s.Equal([]string{"go", "testing"}, course.SkillTags)
	})

	s.Run("course IDs are dense even across rejected attempts", func() {
		first := s.createCourse()
		_, err := s.service.CreateCourse(s.ctx, tutorAddr, "fp", nil, 99, 40, domain.ZeroAddress)
		s.Require().Error(err)
		second := s.createCourse()
		s.Equal(first+1, second)

		count, err := s.service.CourseCount(s.ctx)
		s.Require().NoError(err)
		s.Equal(uint64(2), count)
	})

	s.Run("rejects out-of-range difficulty", func() {
		for _, difficulty := range []uint32{0, 11} {
			_, err := s.service.CreateCourse(s.ctx, tutorAddr, "fp", nil, difficulty, 40, domain.ZeroAddress)
			s.Require().Error(err)
			s.True(dErrors.HasCode(err, dErrors.CodeInvalidInput))
		}
	})

	s.Run("rejects zero duration", func() {
		_, err := s.service.CreateCourse(s.ctx, tutorAddr, "fp", nil, 5, 0, domain.ZeroAddress)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	s.Run("unverified tutor is rejected", func() {
		s.identity.profiles[tutorAddr] = ports.Profile{Role: domain.RoleTutor, Verified: false}
		_, err := s.service.CreateCourse(s.ctx, tutorAddr, "fp", nil, 5, 40, domain.ZeroAddress)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeNotAuthorized))
	})

	s.Run("non-tutor roles are rejected", func() {
		_, err := s.service.CreateCourse(s.ctx, studentAddr, "fp", nil, 5, 40, domain.ZeroAddress)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeNotAuthorized))
	})
}

func (s *CourseServiceSuite) TestEndorse() {
	s.Run("verified university becomes the sole endorser", func() {
		id := s.createCourse()
		s.Require().NoError(s.service.Endorse(s.ctx, universityAddr, id))

		other := domain.Address("addr-university-2")
		s.identity.profiles[other] = ports.Profile{Role: domain.RoleUniversity, Verified: true}
		s.Require().NoError(s.service.Endorse(s.ctx, other, id))

		course, err := s.service.Course(s.ctx, id)
		s.Require().NoError(err)
		s.Equal(other, course.University)
	})

	s.Run("non-university is rejected", func() {
		id := s.createCourse()
		err := s.service.Endorse(s.ctx, tutorAddr, id)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeNotAuthorized))
	})

	s.Run("unknown course fails with not found", func() {
		err := s.service.Endorse(s.ctx, universityAddr, 404)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})

	s.Run("inactive course cannot be endorsed", func() {
		id := s.createCourse()
		s.Require().NoError(s.service.Deactivate(s.ctx, tutorAddr, id))
		err := s.service.Endorse(s.ctx, universityAddr, id)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidState))
	})
}

func (s *CourseServiceSuite) TestDeactivate() {
	s.Run("tutor deactivates one-way", func() {
		id := s.createCourse()
		s.Require().NoError(s.service.Deactivate(s.ctx, tutorAddr, id))
		course, err := s.service.Course(s.ctx, id)
		s.Require().NoError(err)
		s.False(course.IsActive)
	})

	s.Run("repeat deactivation succeeds silently", func() {
		id := s.createCourse()
		s.Require().NoError(s.service.Deactivate(s.ctx, adminAddr, id))
		s.Require().NoError(s.service.Deactivate(s.ctx, adminAddr, id))
	})

	s.Run("unrelated caller is rejected", func() {
		id := s.createCourse()
		err := s.service.Deactivate(s.ctx, studentAddr, id)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeNotAuthorized))
	})

	s.Run("unknown course fails with not found", func() {
		err := s.service.Deactivate(s.ctx, adminAddr, 404)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})
}

func (s *CourseServiceSuite) TestEnroll() {
	s.Run("verified student enrolls at progress zero", func() {
		id := s.createCourse()
		s.Require().NoError(s.service.Enroll(s.ctx, studentAddr, id))

		enrollment, err := s.service.EnrollmentOf(s.ctx, studentAddr, id)
		s.Require().NoError(err)
		s.Equal(uint32(0), enrollment.ProgressPercentage)
		s.False(enrollment.IsCompleted)

		course, err := s.service.Course(s.ctx, id)
		s.Require().NoError(err)
		s.Equal(uint64(1), course.EnrollmentCount)
		s.True(s.service.IsEnrolled(s.ctx, studentAddr, id))
	})

	s.Run("double enrollment fails", func() {
		id := s.createCourse()
		s.Require().NoError(s.service.Enroll(s.ctx, studentAddr, id))
		err := s.service.Enroll(s.ctx, studentAddr, id)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeAlreadyExists))

		// The rejected attempt must not inflate the count.
		course, err := s.service.Course(s.ctx, id)
		s.Require().NoError(err)
		s.Equal(uint64(1), course.EnrollmentCount)
	})

	s.Run("unverified student is rejected", func() {
		id := s.createCourse()
		s.identity.profiles[studentAddr] = ports.Profile{Role: domain.RoleStudent, Verified: false}
		err := s.service.Enroll(s.ctx, studentAddr, id)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeNotAuthorized))
	})

	s.Run("missing course fails with not found", func() {
		err := s.service.Enroll(s.ctx, studentAddr, 404)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})

	s.Run("inactive course fails with not found", func() {
		id := s.createCourse()
		s.Require().NoError(s.service.Deactivate(s.ctx, tutorAddr, id))
		err := s.service.Enroll(s.ctx, studentAddr, id)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})
}

func (s *CourseServiceSuite) TestProgressAndCompletion() {
	s.Run("tutor drives progress until completion", func() {
		id := s.createCourse()
		s.Require().NoError(s.service.Enroll(s.ctx, studentAddr, id))
		s.Require().NoError(s.service.UpdateProgress(s.ctx, tutorAddr, studentAddr, id, 40))

		enrollment, err := s.service.EnrollmentOf(s.ctx, studentAddr, id)
		s.Require().NoError(err)
		s.Equal(uint32(40), enrollment.ProgressPercentage)

		s.Require().NoError(s.service.CompleteCourse(s.ctx, tutorAddr, studentAddr, id, 92))
		enrollment, err = s.service.EnrollmentOf(s.ctx, studentAddr, id)
		s.Require().NoError(err)
		s.True(enrollment.IsCompleted)
		s.Equal(uint32(100), enrollment.ProgressPercentage)
		s.Equal(uint64(92), enrollment.FinalScore)
		s.False(enrollment.CompletionDate.IsZero())
	})

	s.Run("progress above 100 is rejected", func() {
		id := s.createCourse()
		s.Require().NoError(s.service.Enroll(s.ctx, studentAddr, id))
		err := s.service.UpdateProgress(s.ctx, tutorAddr, studentAddr, id, 101)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	s.Run("progress on a completed enrollment is rejected", func() {
		id := s.createCourse()
		s.Require().NoError(s.service.Enroll(s.ctx, studentAddr, id))
		s.Require().NoError(s.service.CompleteCourse(s.ctx, tutorAddr, studentAddr, id, 80))
		err := s.service.UpdateProgress(s.ctx, tutorAddr, studentAddr, id, 50)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidState))
	})

	s.Run("completion is terminal", func() {
		id := s.createCourse()
		s.Require().NoError(s.service.Enroll(s.ctx, studentAddr, id))
		s.Require().NoError(s.service.CompleteCourse(s.ctx, adminAddr, studentAddr, id, 80))
		err := s.service.CompleteCourse(s.ctx, adminAddr, studentAddr, id, 95)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidState))
	})

	s.Run("only tutor or admin may mutate enrollments", func() {
		id := s.createCourse()
		s.Require().NoError(s.service.Enroll(s.ctx, studentAddr, id))
		err := s.service.UpdateProgress(s.ctx, universityAddr, studentAddr, id, 10)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeNotAuthorized))
	})

	s.Run("progress for a non-enrolled student fails", func() {
		id := s.createCourse()
		err := s.service.UpdateProgress(s.ctx, tutorAddr, studentAddr, id, 10)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})
}

func (s *CourseServiceSuite) TestBumpProgress() {
	s.Run("bumps below the ceiling only", func() {
		id := s.createCourse()
		s.Require().NoError(s.service.Enroll(s.ctx, studentAddr, id))

		for i := 0; i < 12; i++ {
			s.Require().NoError(s.service.BumpProgress(s.ctx, studentAddr, id, 10, 90))
		}
		enrollment, err := s.service.EnrollmentOf(s.ctx, studentAddr, id)
		s.Require().NoError(err)
		s.Equal(uint32(80), enrollment.ProgressPercentage)
	})

	s.Run("no-op on completed enrollments", func() {
		id := s.createCourse()
		s.Require().NoError(s.service.Enroll(s.ctx, studentAddr, id))
		s.Require().NoError(s.service.CompleteCourse(s.ctx, tutorAddr, studentAddr, id, 90))
		s.Require().NoError(s.service.BumpProgress(s.ctx, studentAddr, id, 10, 90))

		enrollment, err := s.service.EnrollmentOf(s.ctx, studentAddr, id)
		s.Require().NoError(err)
		s.Equal(uint32(100), enrollment.ProgressPercentage)
	})
}

func (s *CourseServiceSuite) TestEnrollmentListings() {
	s.Run("indexes enrollments by student and course", func() {
		first := s.createCourse()
		second := s.createCourse()
		s.Require().NoError(s.service.Enroll(s.ctx, studentAddr, first))
		s.Require().NoError(s.service.Enroll(s.ctx, studentAddr, second))

		byStudent, err := s.service.EnrollmentsOfStudent(s.ctx, studentAddr)
		s.Require().NoError(err)
		s.Require().Len(byStudent, 2)
		s.Equal(first, byStudent[0].CourseID)
		s.Equal(second, byStudent[1].CourseID)

		byCourse, err := s.service.EnrollmentsOfCourse(s.ctx, first)
		s.Require().NoError(err)
		s.Require().Len(byCourse, 1)
		s.Equal(studentAddr, byCourse[0].Student)
	})
}
