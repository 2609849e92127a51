package assessment

import (
	"context"
	"testing"

	"github.com/stretchr/testify/suite"

	"credentia/internal/assessment/ports"
	"credentia/internal/audit"
	"credentia/internal/authz"
	"credentia/pkg/domain"
	dErrors "credentia/pkg/domain-errors"
)

const (
	adminAddr      = domain.Address("addr-admin")
	tutorAddr      = domain.Address("addr-tutor")
	universityAddr = domain.Address("addr-university")
	studentAddr    = domain.Address("addr-student")
	strangerAddr   = domain.Address("addr-stranger")

	courseID = uint64(1)
)

// stubCourse satisfies ports.CoursePort and records progress bumps so tests
// can assert on the side effect.
type stubCourse struct {
	enrolled  map[uint64]map[domain.Address]bool
	completed map[domain.Address]bool
	progress  map[domain.Address]uint32
}

var _ ports.CoursePort = (*stubCourse)(nil)

func newStubCourse() *stubCourse {
	return &stubCourse{
		enrolled:  map[uint64]map[domain.Address]bool{courseID: {studentAddr: true}},
		completed: make(map[domain.Address]bool),
		progress:  make(map[domain.Address]uint32),
	}
}

func (c *stubCourse) IsEnrolled(_ context.Context, student domain.Address, id uint64) bool {
	return c.enrolled[id][student]
}

func (c *stubCourse) Staff(_ context.Context, id uint64) (domain.Address, domain.Address, error) {
	if c.enrolled[id] == nil {
		return domain.ZeroAddress, domain.ZeroAddress, dErrors.New(dErrors.CodeNotFound, "course does not exist")
	}
	return tutorAddr, universityAddr, nil
}

func (c *stubCourse) BumpProgress(_ context.Context, student domain.Address, _ uint64, delta, ceiling uint32) error {
	if c.completed[student] {
		return nil
	}
	if c.progress[student]+delta < ceiling {
		c.progress[student] += delta
	}
	return nil
}

type AssessmentServiceSuite struct {
	suite.Suite
	ctx     context.Context
	service *Service
	course  *stubCourse
	reg     *authz.Registry
	events  *audit.InMemoryStore
}

func (s *AssessmentServiceSuite) SetupTest() {
	s.ctx = context.Background()
	s.course = newStubCourse()
	s.reg = authz.NewRegistry(adminAddr)
	s.events = audit.NewInMemoryStore()
	s.service = NewService(NewInMemoryStore(), s.course, s.reg, audit.NewPublisher(s.events, nil))
}

// SetupSubTest resets the fixture so each s.Run case starts from a clean
// ledger.
func (s *AssessmentServiceSuite) SetupSubTest() {
	s.SetupTest()
}

func TestAssessmentServiceSuite(t *testing.T) {
	suite.Run(t, new(AssessmentServiceSuite))
}

func (s *AssessmentServiceSuite) record(caller domain.Address, score, maxScore uint64) (uint64, error) {
	return s.service.RecordAssessment(s.ctx, caller, studentAddr, courseID, "quiz", score, maxScore, 300)
}

func (s *AssessmentServiceSuite) TestRecordAssessment() {
	s.Run("tutor records and progress nudges up", func() {
		id, err := s.record(tutorAddr, 85, 100)
		s.Require().NoError(err)
		s.Equal(uint64(1), id)
		s.Equal(uint32(10), s.course.progress[studentAddr])

		assessment, err := s.service.Assessment(s.ctx, id)
		s.Require().NoError(err)
		s.Equal(uint64(85), assessment.Score)
		s.Equal(studentAddr, assessment.Student)
	})

	s.Run("assessment IDs stay dense across rejected attempts", func() {
		first, err := s.record(tutorAddr, 70, 100)
		s.Require().NoError(err)
		_, err = s.record(tutorAddr, 120, 100)
		s.Require().Error(err)
		second, err := s.record(tutorAddr, 90, 100)
		s.Require().NoError(err)
		s.Equal(first+1, second)
	})

	s.Run("endorsing university and admin may record", func() {
		_, err := s.record(universityAddr, 50, 100)
		s.Require().NoError(err)
		_, err = s.record(adminAddr, 60, 100)
		s.Require().NoError(err)
	})

	s.Run("authorized assessor may record", func() {
		s.Require().NoError(s.reg.Authorize(adminAddr, strangerAddr))
		_, err := s.record(strangerAddr, 55, 100)
		s.Require().NoError(err)
	})

	s.Run("unrelated caller is rejected", func() {
		_, err := s.record(strangerAddr, 55, 100)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeNotAuthorized))
	})

	s.Run("score above max is rejected", func() {
		_, err := s.record(tutorAddr, 101, 100)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	s.Run("zero max score is rejected", func() {
		_, err := s.record(tutorAddr, 0, 0)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	s.Run("non-enrolled student is rejected with no ledger write", func() {
		other := domain.Address("addr-other-student")
		_, err := s.service.RecordAssessment(s.ctx, tutorAddr, other, courseID, "quiz", 50, 100, 60)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))

		count, err := s.service.AssessmentCount(s.ctx)
		s.Require().NoError(err)
		s.Equal(uint64(0), count)
	})

	s.Run("analytics accumulate across assessments", func() {
		_, err := s.record(tutorAddr, 80, 100)
		s.Require().NoError(err)
		_, err = s.record(tutorAddr, 60, 100)
		s.Require().NoError(err)

		summary, err := s.service.AnalyticsOf(s.ctx, studentAddr)
		s.Require().NoError(err)
		s.Equal(uint64(2), summary.AssessmentCount)
		s.Equal(uint64(70), summary.AverageScore)
		s.Equal(uint64(600), summary.TotalTime)
	})

	s.Run("progress stops nudging below the ceiling", func() {
		for i := 0; i < 12; i++ {
			_, err := s.record(tutorAddr, 75, 100)
			s.Require().NoError(err)
		}
		s.Equal(uint32(80), s.course.progress[studentAddr])
	})
}

func (s *AssessmentServiceSuite) TestTrackInteraction() {
	s.Run("records activity for an enrolled student", func() {
		err := s.service.TrackInteraction(s.ctx, studentAddr, studentAddr, courseID, "video_watched", "lesson-3")
		s.Require().NoError(err)

		analytics, err := s.service.AnalyticsOf(s.ctx, studentAddr)
		s.Require().NoError(err)
		s.Equal(uint64(0), analytics.AssessmentCount)
	})

	s.Run("rejects non-enrolled student", func() {
		err := s.service.TrackInteraction(s.ctx, studentAddr, strangerAddr, courseID, "video_watched", "lesson-3")
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})
}

func (s *AssessmentServiceSuite) TestCalculateCompetency() {
	s.Run("no assessments yields zero", func() {
		value, err := s.service.CalculateCompetency(s.ctx, studentAddr, "go")
		s.Require().NoError(err)
		s.Equal(uint64(0), value)
	})

	s.Run("derives the running average and stores on change", func() {
		_, err := s.record(tutorAddr, 80, 100)
		s.Require().NoError(err)
		_, err = s.record(tutorAddr, 90, 100)
		s.Require().NoError(err)

		value, err := s.service.CalculateCompetency(s.ctx, studentAddr, "go")
		s.Require().NoError(err)
		s.Equal(uint64(85), value)

		stored, err := s.service.Competency(s.ctx, studentAddr, "go")
		s.Require().NoError(err)
		s.Equal(uint64(85), stored)
	})

	s.Run("unchanged value skips the redundant write and event", func() {
		_, err := s.record(tutorAddr, 80, 100)
		s.Require().NoError(err)

		_, err = s.service.CalculateCompetency(s.ctx, studentAddr, "go")
		s.Require().NoError(err)
		before, err := s.events.ListByActor(s.ctx, studentAddr)
		s.Require().NoError(err)

		_, err = s.service.CalculateCompetency(s.ctx, studentAddr, "go")
		s.Require().NoError(err)
		after, err := s.events.ListByActor(s.ctx, studentAddr)
		s.Require().NoError(err)
		s.Equal(len(before), len(after))
	})

	s.Run("clamps to the competency ceiling", func() {
		// Raw scores may exceed 100; the derived value must not.
		_, err := s.record(tutorAddr, 400, 500)
		s.Require().NoError(err)
		value, err := s.service.CalculateCompetency(s.ctx, studentAddr, "go")
		s.Require().NoError(err)
		s.Equal(MaxCompetency, value)
	})
}
