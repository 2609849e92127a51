package assessment

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"credentia/internal/assessment/ports"
	"credentia/internal/audit"
	"credentia/internal/authz"
	"credentia/pkg/domain"
	dErrors "credentia/pkg/domain-errors"
	"credentia/pkg/platform/sentinel"
)

// Service owns the assessment ledger, per-student analytics, and derived
// competency scores. Enrollment facts come from the course port; the mutex
// gives each operation whole-call atomicity, so the cross-module progress
// nudge happens before any of this module's own writes and a downstream
// rejection aborts the whole call cleanly.
type Service struct {
	mu     sync.Mutex
	store  Store
	course ports.CoursePort
	authz  *authz.Registry
	audit  *audit.Publisher
}

func NewService(store Store, course ports.CoursePort, registry *authz.Registry, publisher *audit.Publisher) *Service {
	return &Service{store: store, course: course, authz: registry, audit: publisher}
}

// RecordAssessment appends a graded evaluation, folds it into the student's
// running analytics, and nudges course progress as a side effect. Returns the
// dense assessment ID.
func (s *Service) RecordAssessment(ctx context.Context, caller, student domain.Address, courseID uint64, assessmentType string, score, maxScore, timeTaken uint64) (uint64, error) {
	if maxScore == 0 || score > maxScore {
		return 0, dErrors.New(dErrors.CodeInvalidInput, "score must not exceed a positive max score")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.authorizeAssessor(ctx, caller, courseID); err != nil {
		return 0, err
	}
	if !s.course.IsEnrolled(ctx, student, courseID) {
		return 0, dErrors.New(dErrors.CodeNotFound, "student is not enrolled in the course")
	}

	// Downstream write first: if the course registry rejects it, none of
	// this module's state has moved yet.
	if err := s.course.BumpProgress(ctx, student, courseID, progressNudge, progressCeiling); err != nil {
		return 0, err
	}

	now := time.Now()
	id, err := s.store.AppendAssessment(ctx, Assessment{
		Student:     student,
		CourseID:    courseID,
		Type:        assessmentType,
		Score:       score,
		MaxScore:    maxScore,
		TimeTaken:   timeTaken,
		CompletedAt: now,
	})
	if err != nil {
		return 0, dErrors.Wrap(err, dErrors.CodeInternal, "append assessment")
	}

	analytics, err := s.store.FindAnalytics(ctx, student)
	if err != nil {
		return 0, dErrors.Wrap(err, dErrors.CodeInternal, "find analytics")
	}
	analytics.TotalAssessments++
	analytics.TotalScore += score
	analytics.TotalTime += timeTaken
	analytics.LastActivity = now
	if err := s.store.SaveAnalytics(ctx, analytics); err != nil {
		return 0, dErrors.Wrap(err, dErrors.CodeInternal, "save analytics")
	}

	_ = s.audit.Emit(ctx, audit.Event{
		Actor:   caller,
		Action:  audit.ActionAssessmentRecorded,
		Subject: fmt.Sprintf("assessment:%d", id),
		Detail:  fmt.Sprintf("student=%s course=%d score=%d/%d", student, courseID, score, maxScore),
	})
	return id, nil
}

// TrackInteraction appends a learning activity entry and refreshes the
// student's last-activity timestamp.
func (s *Service) TrackInteraction(ctx context.Context, caller, student domain.Address, courseID uint64, interactionType, data string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.course.IsEnrolled(ctx, student, courseID) {
		return dErrors.New(dErrors.CodeNotFound, "student is not enrolled in the course")
	}

	now := time.Now()
	err := s.store.AppendInteraction(ctx, Interaction{
		Student:  student,
		CourseID: courseID,
		Type:     interactionType,
		Data:     data,
		At:       now,
	})
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "append interaction")
	}

	analytics, err := s.store.FindAnalytics(ctx, student)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "find analytics")
	}
	analytics.LastActivity = now
	if err := s.store.SaveAnalytics(ctx, analytics); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "save analytics")
	}

	_ = s.audit.Emit(ctx, audit.Event{
		Actor:   caller,
		Action:  audit.ActionInteractionTracked,
		Subject: fmt.Sprintf("course:%d student:%s", courseID, student),
		Detail:  interactionType,
	})
	return nil
}

// CalculateCompetency recomputes the student's competency for a skill from
// the running analytics. The derived value is a pure function of analytics;
// the stored copy exists only for change detection, so the write (and its
// event) fire only when the value actually moves.
func (s *Service) CalculateCompetency(ctx context.Context, student domain.Address, skill string) (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	analytics, err := s.store.FindAnalytics(ctx, student)
	if err != nil {
		return 0, dErrors.Wrap(err, dErrors.CodeInternal, "find analytics")
	}

	value := deriveCompetency(analytics)
	key := CompetencyKey{Student: student, Skill: skill}
	stored, err := s.store.FindCompetency(ctx, key)
	if err != nil {
		return 0, dErrors.Wrap(err, dErrors.CodeInternal, "find competency")
	}
	if value == stored {
		return value, nil
	}

	if err := s.store.SaveCompetency(ctx, key, value); err != nil {
		return 0, dErrors.Wrap(err, dErrors.CodeInternal, "save competency")
	}
	_ = s.audit.Emit(ctx, audit.Event{
		Actor:   student,
		Action:  audit.ActionCompetencyComputed,
		Subject: fmt.Sprintf("student:%s skill:%s", student, skill),
		Detail:  fmt.Sprintf("competency=%d", value),
	})
	return value, nil
}

// deriveCompetency maps the running average score onto [0,100]. No
// assessments yet means zero, not a division failure.
func deriveCompetency(analytics StudentAnalytics) uint64 {
	if analytics.TotalAssessments == 0 {
		return 0
	}
	value := analytics.TotalScore / analytics.TotalAssessments
	if value > MaxCompetency {
		value = MaxCompetency
	}
	return value
}

// Assessment returns a recorded assessment by ID.
func (s *Service) Assessment(ctx context.Context, id uint64) (Assessment, error) {
	assessment, err := s.store.FindAssessment(ctx, id)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return Assessment{}, dErrors.New(dErrors.CodeNotFound, "assessment does not exist")
		}
		return Assessment{}, dErrors.Wrap(err, dErrors.CodeInternal, "find assessment")
	}
	return assessment, nil
}

// AssessmentsOfStudent lists a student's assessments in recording order.
func (s *Service) AssessmentsOfStudent(ctx context.Context, student domain.Address) ([]Assessment, error) {
	assessments, err := s.store.ListAssessmentsByStudent(ctx, student)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "list assessments")
	}
	return assessments, nil
}

// AssessmentCount returns the number of assessments ever recorded.
func (s *Service) AssessmentCount(ctx context.Context) (uint64, error) {
	count, err := s.store.AssessmentCount(ctx)
	if err != nil {
		return 0, dErrors.Wrap(err, dErrors.CodeInternal, "count assessments")
	}
	return count, nil
}

// Competency returns the last stored competency value for (student, skill).
func (s *Service) Competency(ctx context.Context, student domain.Address, skill string) (uint64, error) {
	value, err := s.store.FindCompetency(ctx, CompetencyKey{Student: student, Skill: skill})
	if err != nil {
		return 0, dErrors.Wrap(err, dErrors.CodeInternal, "find competency")
	}
	return value, nil
}

// AnalyticsOf summarizes a student's running aggregates.
func (s *Service) AnalyticsOf(ctx context.Context, student domain.Address) (AnalyticsSummary, error) {
	analytics, err := s.store.FindAnalytics(ctx, student)
	if err != nil {
		return AnalyticsSummary{}, dErrors.Wrap(err, dErrors.CodeInternal, "find analytics")
	}
	summary := AnalyticsSummary{
		AssessmentCount: analytics.TotalAssessments,
		TotalTime:       analytics.TotalTime,
	}
	if analytics.TotalAssessments > 0 {
		summary.AverageScore = analytics.TotalScore / analytics.TotalAssessments
	}
	return summary, nil
}

// authorizeAssessor admits the admin, explicitly authorized assessors, and
// the course's own tutor or endorsing university.
func (s *Service) authorizeAssessor(ctx context.Context, caller domain.Address, courseID uint64) error {
	if s.authz.IsAuthorized(caller) {
		return nil
	}
	tutor, university, err := s.course.Staff(ctx, courseID)
	if err != nil {
		return err
	}
	if caller == tutor || (!university.IsZero() && caller == university) {
		return nil
	}
	return dErrors.New(dErrors.CodeNotAuthorized, "caller may not record assessments for this course")
}
