package course

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"credentia/internal/audit"
	"credentia/internal/authz"
	"credentia/internal/course/ports"
	"credentia/pkg/domain"
	dErrors "credentia/pkg/domain-errors"
	"credentia/pkg/platform/sentinel"
)

// Service owns courses and enrollments. Role and verification gates are
// answered by the identity port; the mutex gives each operation whole-call
// atomicity so a rejected call leaves no partial write behind.
type Service struct {
	mu       sync.Mutex
	store    Store
	identity ports.IdentityPort
	authz    *authz.Registry
	audit    *audit.Publisher
}

func NewService(store Store, identity ports.IdentityPort, registry *authz.Registry, publisher *audit.Publisher) *Service {
	return &Service{store: store, identity: identity, authz: registry, audit: publisher}
}

// CreateCourse stores a new active course for a verified tutor and returns
// its dense 1-based ID.
func (s *Service) CreateCourse(ctx context.Context, caller domain.Address, metadataFingerprint string, skillTags []string, difficulty uint32, duration uint64, university domain.Address) (uint64, error) {
	if difficulty < MinDifficulty || difficulty > MaxDifficulty {
		return 0, dErrors.New(dErrors.CodeInvalidInput, "difficulty must be between 1 and 10")
	}
	if duration == 0 {
		return 0, dErrors.New(dErrors.CodeInvalidInput, "estimated duration must be positive")
	}

	profile := s.identity.Profile(ctx, caller)
	if profile.Role != domain.RoleTutor {
		return 0, dErrors.New(dErrors.CodeNotAuthorized, "only tutors may create courses")
	}
	if !profile.Verified {
		return 0, dErrors.New(dErrors.CodeNotAuthorized, "tutor is not verified")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	id, err := s.store.CreateCourse(ctx, Course{
		Tutor:               caller,
		University:          university,
		MetadataFingerprint: metadataFingerprint,
		SkillTags:           append([]string(nil), skillTags...),
		DifficultyLevel:     difficulty,
		EstimatedDuration:   duration,
		IsActive:            true,
		CreatedAt:           time.Now(),
	})
	if err != nil {
		return 0, dErrors.Wrap(err, dErrors.CodeInternal, "create course")
	}

	_ = s.audit.Emit(ctx, audit.Event{
		Actor:   caller,
		Action:  audit.ActionCourseCreated,
		Subject: fmt.Sprintf("course:%d", id),
	})
	return id, nil
}

// Endorse rebinds the course's endorsing university to the caller. The
// previous endorser is overwritten; a course has exactly one at a time.
func (s *Service) Endorse(ctx context.Context, caller domain.Address, courseID uint64) error {
	profile := s.identity.Profile(ctx, caller)
	if profile.Role != domain.RoleUniversity || !profile.Verified {
		return dErrors.New(dErrors.CodeNotAuthorized, "only verified universities may endorse courses")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	course, err := s.findCourse(ctx, courseID)
	if err != nil {
		return err
	}
	if !course.IsActive {
		return dErrors.New(dErrors.CodeInvalidState, "course is not active")
	}

	course.University = caller
	if err := s.store.UpdateCourse(ctx, course); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "update course")
	}

	_ = s.audit.Emit(ctx, audit.Event{
		Actor:   caller,
		Action:  audit.ActionCourseEndorsed,
		Subject: fmt.Sprintf("course:%d", courseID),
	})
	return nil
}

// Deactivate retires a course. One-way: a deactivated course is never
// reactivated. Deactivating an already-inactive course succeeds silently.
func (s *Service) Deactivate(ctx context.Context, caller domain.Address, courseID uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	course, err := s.findCourse(ctx, courseID)
	if err != nil {
		return err
	}
	if caller != course.Tutor && caller != course.University && !s.authz.IsAdmin(caller) {
		return dErrors.New(dErrors.CodeNotAuthorized, "only the course tutor, its university, or admin may deactivate")
	}
	if !course.IsActive {
		return nil
	}

	course.IsActive = false
	if err := s.store.UpdateCourse(ctx, course); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "update course")
	}

	_ = s.audit.Emit(ctx, audit.Event{
		Actor:   caller,
		Action:  audit.ActionCourseDeactivated,
		Subject: fmt.Sprintf("course:%d", courseID),
	})
	return nil
}

// Enroll creates an enrollment at progress zero for a verified student and
// bumps the course's enrollment count.
func (s *Service) Enroll(ctx context.Context, caller domain.Address, courseID uint64) error {
	profile := s.identity.Profile(ctx, caller)
	if profile.Role != domain.RoleStudent || !profile.Verified {
		return dErrors.New(dErrors.CodeNotAuthorized, "only verified students may enroll")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	course, err := s.findCourse(ctx, courseID)
	if err != nil {
		return err
	}
	if !course.IsActive {
		// An inactive course is not open for enrollment; callers see it the
		// same way as a missing one.
		return dErrors.New(dErrors.CodeNotFound, "course is not open for enrollment")
	}

	err = s.store.CreateEnrollment(ctx, Enrollment{
		Student:    caller,
		CourseID:   courseID,
		EnrolledAt: time.Now(),
	})
	if err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return dErrors.New(dErrors.CodeAlreadyExists, "student is already enrolled")
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "create enrollment")
	}

	course.EnrollmentCount++
	if err := s.store.UpdateCourse(ctx, course); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "update course")
	}

	_ = s.audit.Emit(ctx, audit.Event{
		Actor:   caller,
		Action:  audit.ActionStudentEnrolled,
		Subject: fmt.Sprintf("course:%d", courseID),
	})
	return nil
}

// UpdateProgress sets the student's progress percentage. Only the course's
// tutor or admin may drive progress; completed enrollments are frozen.
func (s *Service) UpdateProgress(ctx context.Context, caller, student domain.Address, courseID uint64, pct uint32) error {
	if pct > MaxProgress {
		return dErrors.New(dErrors.CodeInvalidInput, "progress must not exceed 100")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	enrollment, err := s.authorizedEnrollment(ctx, caller, student, courseID)
	if err != nil {
		return err
	}
	if enrollment.IsCompleted {
		return dErrors.New(dErrors.CodeInvalidState, "enrollment is already completed")
	}

	enrollment.ProgressPercentage = pct
	if err := s.store.UpdateEnrollment(ctx, enrollment); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "update enrollment")
	}

	_ = s.audit.Emit(ctx, audit.Event{
		Actor:   caller,
		Action:  audit.ActionProgressUpdated,
		Subject: fmt.Sprintf("course:%d student:%s", courseID, student),
		Detail:  fmt.Sprintf("progress=%d", pct),
	})
	return nil
}

// CompleteCourse is the one-way terminal transition for an enrollment: it
// pins progress to 100 and records the caller-supplied final score as-is.
func (s *Service) CompleteCourse(ctx context.Context, caller, student domain.Address, courseID uint64, finalScore uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	enrollment, err := s.authorizedEnrollment(ctx, caller, student, courseID)
	if err != nil {
		return err
	}
	if enrollment.IsCompleted {
		return dErrors.New(dErrors.CodeInvalidState, "enrollment is already completed")
	}

	enrollment.IsCompleted = true
	enrollment.ProgressPercentage = MaxProgress
	enrollment.CompletionDate = time.Now()
	enrollment.FinalScore = finalScore
	if err := s.store.UpdateEnrollment(ctx, enrollment); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "update enrollment")
	}

	_ = s.audit.Emit(ctx, audit.Event{
		Actor:   caller,
		Action:  audit.ActionCourseCompleted,
		Subject: fmt.Sprintf("course:%d student:%s", courseID, student),
		Detail:  fmt.Sprintf("final_score=%d", finalScore),
	})
	return nil
}

// BumpProgress raises the student's progress by delta without crossing the
// ceiling, and is a no-op on completed enrollments. Used by downstream
// modules recording activity; external callers drive progress through
// UpdateProgress.
func (s *Service) BumpProgress(ctx context.Context, student domain.Address, courseID uint64, delta, ceiling uint32) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	enrollment, err := s.findEnrollment(ctx, student, courseID)
	if err != nil {
		return err
	}
	if enrollment.IsCompleted {
		return nil
	}
	if enrollment.ProgressPercentage+delta >= ceiling {
		return nil
	}

	enrollment.ProgressPercentage += delta
	if err := s.store.UpdateEnrollment(ctx, enrollment); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "update enrollment")
	}
	return nil
}

// Course returns the stored course record.
func (s *Service) Course(ctx context.Context, courseID uint64) (Course, error) {
	return s.findCourse(ctx, courseID)
}

// EnrollmentOf returns the enrollment for (student, course).
func (s *Service) EnrollmentOf(ctx context.Context, student domain.Address, courseID uint64) (Enrollment, error) {
	return s.findEnrollment(ctx, student, courseID)
}

// IsEnrolled reports enrollment existence without distinguishing why it is
// absent. Downstream modules use it as a precondition check.
func (s *Service) IsEnrolled(ctx context.Context, student domain.Address, courseID uint64) bool {
	_, err := s.findEnrollment(ctx, student, courseID)
	return err == nil
}

// CourseCount returns the number of courses ever created.
func (s *Service) CourseCount(ctx context.Context) (uint64, error) {
	count, err := s.store.CourseCount(ctx)
	if err != nil {
		return 0, dErrors.Wrap(err, dErrors.CodeInternal, "count courses")
	}
	return count, nil
}

// EnrollmentsOfStudent lists a student's enrollments ordered by course ID.
func (s *Service) EnrollmentsOfStudent(ctx context.Context, student domain.Address) ([]Enrollment, error) {
	enrollments, err := s.store.ListEnrollmentsByStudent(ctx, student)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "list enrollments")
	}
	return enrollments, nil
}

// EnrollmentsOfCourse lists a course's enrollments ordered by student.
func (s *Service) EnrollmentsOfCourse(ctx context.Context, courseID uint64) ([]Enrollment, error) {
	enrollments, err := s.store.ListEnrollmentsByCourse(ctx, courseID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "list enrollments")
	}
	return enrollments, nil
}

func (s *Service) findCourse(ctx context.Context, courseID uint64) (Course, error) {
	course, err := s.store.FindCourse(ctx, courseID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return Course{}, dErrors.New(dErrors.CodeNotFound, "course does not exist")
		}
		return Course{}, dErrors.Wrap(err, dErrors.CodeInternal, "find course")
	}
	return course, nil
}

func (s *Service) findEnrollment(ctx context.Context, student domain.Address, courseID uint64) (Enrollment, error) {
	enrollment, err := s.store.FindEnrollment(ctx, student, courseID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return Enrollment{}, dErrors.New(dErrors.CodeNotFound, "student is not enrolled")
		}
		return Enrollment{}, dErrors.Wrap(err, dErrors.CodeInternal, "find enrollment")
	}
	return enrollment, nil
}

// authorizedEnrollment loads the enrollment after checking that the caller is
// the course's tutor or admin.
func (s *Service) authorizedEnrollment(ctx context.Context, caller, student domain.Address, courseID uint64) (Enrollment, error) {
	course, err := s.findCourse(ctx, courseID)
	if err != nil {
		return Enrollment{}, err
	}
	if caller != course.Tutor && !s.authz.IsAdmin(caller) {
		return Enrollment{}, dErrors.New(dErrors.CodeNotAuthorized, "only the course tutor or admin may mutate enrollments")
	}
	return s.findEnrollment(ctx, student, courseID)
}
