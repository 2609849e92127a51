// Package handler exposes the course registry over HTTP.
package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"credentia/internal/course"
	"credentia/pkg/domain"
	dErrors "credentia/pkg/domain-errors"
	"credentia/pkg/platform/httputil"
	"credentia/pkg/requestcontext"
)

// Service defines the course operations the transport layer consumes.
type Service interface {
	CreateCourse(ctx context.Context, caller domain.Address, metadataFingerprint string, skillTags []string, difficulty uint32, duration uint64, university domain.Address) (uint64, error)
	Endorse(ctx context.Context, caller domain.Address, courseID uint64) error
	Deactivate(ctx context.Context, caller domain.Address, courseID uint64) error
	Enroll(ctx context.Context, caller domain.Address, courseID uint64) error
	UpdateProgress(ctx context.Context, caller, student domain.Address, courseID uint64, pct uint32) error
	CompleteCourse(ctx context.Context, caller, student domain.Address, courseID uint64, finalScore uint64) error
	Course(ctx context.Context, courseID uint64) (course.Course, error)
	EnrollmentsOfCourse(ctx context.Context, courseID uint64) ([]course.Enrollment, error)
	EnrollmentsOfStudent(ctx context.Context, student domain.Address) ([]course.Enrollment, error)
}

// Handler wires course endpoints to the course service.
type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts course endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/courses", h.handleCreate)
	r.Post("/courses/{courseID}/endorse", h.handleEndorse)
	r.Post("/courses/{courseID}/deactivate", h.handleDeactivate)
	r.Post("/courses/{courseID}/enroll", h.handleEnroll)
	r.Post("/courses/{courseID}/progress", h.handleUpdateProgress)
	r.Post("/courses/{courseID}/complete", h.handleComplete)
	r.Get("/courses/{courseID}", h.handleGet)
	r.Get("/courses/{courseID}/enrollments", h.handleEnrollmentsOfCourse)
	r.Get("/students/{address}/enrollments", h.handleEnrollmentsOfStudent)
}

type createRequest struct {
	MetadataFingerprint string   `json:"metadata_fingerprint"`
	SkillTags           []string `json:"skill_tags"`
	Difficulty          uint32   `json:"difficulty_level"`
	Duration            uint64   `json:"estimated_duration"`
	University          string   `json:"university,omitempty"`
}

type courseResponse struct {
	ID                  uint64    `json:"course_id"`
	Tutor               string    `json:"tutor"`
	University          string    `json:"university,omitempty"`
	MetadataFingerprint string    `json:"metadata_fingerprint"`
	SkillTags           []string  `json:"skill_tags"`
	DifficultyLevel     uint32    `json:"difficulty_level"`
	EstimatedDuration   uint64    `json:"estimated_duration"`
	IsActive            bool      `json:"is_active"`
	CreatedAt           time.Time `json:"created_at"`
	EnrollmentCount     uint64    `json:"enrollment_count"`
}

type enrollmentResponse struct {
	Student            string    `json:"student"`
	CourseID           uint64    `json:"course_id"`
	EnrolledAt         time.Time `json:"enrolled_at"`
	ProgressPercentage uint32    `json:"progress_percentage"`
	CompletionDate     time.Time `json:"completion_date,omitzero"`
	FinalScore         uint64    `json:"final_score"`
	IsCompleted        bool      `json:"is_completed"`
}

func toCourseResponse(c course.Course) courseResponse {
	return courseResponse{
		ID:                  c.ID,
		Tutor:               c.Tutor.String(),
		University:          c.University.String(),
		MetadataFingerprint: c.MetadataFingerprint,
		SkillTags:           c.SkillTags,
		DifficultyLevel:     c.DifficultyLevel,
		EstimatedDuration:   c.EstimatedDuration,
		IsActive:            c.IsActive,
		CreatedAt:           c.CreatedAt,
		EnrollmentCount:     c.EnrollmentCount,
	}
}

func toEnrollmentResponses(enrollments []course.Enrollment) []enrollmentResponse {
	out := make([]enrollmentResponse, 0, len(enrollments))
	for _, e := range enrollments {
		out = append(out, enrollmentResponse{
			Student:            e.Student.String(),
			CourseID:           e.CourseID,
			EnrolledAt:         e.EnrolledAt,
			ProgressPercentage: e.ProgressPercentage,
			CompletionDate:     e.CompletionDate,
			FinalScore:         e.FinalScore,
			IsCompleted:        e.IsCompleted,
		})
	}
	return out
}

func courseIDParam(r *http.Request) (uint64, error) {
	id, err := strconv.ParseUint(chi.URLParam(r, "courseID"), 10, 64)
	if err != nil {
		return 0, dErrors.New(dErrors.CodeBadRequest, "course id must be a positive integer")
	}
	return id, nil
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	caller := requestcontext.Caller(ctx)

	req, ok := httputil.Decode[createRequest](w, r)
	if !ok {
		return
	}
	university := domain.ZeroAddress
	if req.University != "" {
		parsed, err := domain.ParseAddress(req.University)
		if err != nil {
			httputil.WriteError(w, err)
			return
		}
		university = parsed
	}

	id, err := h.service.CreateCourse(ctx, caller, req.MetadataFingerprint, req.SkillTags, req.Difficulty, req.Duration, university)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "course created",
		"request_id", requestcontext.RequestID(ctx),
		"course_id", id,
		"tutor", caller,
	)
	httputil.WriteJSON(w, http.StatusCreated, map[string]uint64{"course_id": id})
}

func (h *Handler) handleEndorse(w http.ResponseWriter, r *http.Request) {
	h.courseAction(w, r, h.service.Endorse)
}

func (h *Handler) handleDeactivate(w http.ResponseWriter, r *http.Request) {
	h.courseAction(w, r, h.service.Deactivate)
}

func (h *Handler) handleEnroll(w http.ResponseWriter, r *http.Request) {
	h.courseAction(w, r, h.service.Enroll)
}

func (h *Handler) courseAction(w http.ResponseWriter, r *http.Request, action func(context.Context, domain.Address, uint64) error) {
	ctx := r.Context()
	id, err := courseIDParam(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	if err := action(ctx, requestcontext.Caller(ctx), id); err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

type progressRequest struct {
	Student  string `json:"student"`
	Progress uint32 `json:"progress_percentage"`
}

func (h *Handler) handleUpdateProgress(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, err := courseIDParam(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	req, ok := httputil.Decode[progressRequest](w, r)
	if !ok {
		return
	}
	student, err := domain.ParseAddress(req.Student)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	if err := h.service.UpdateProgress(ctx, requestcontext.Caller(ctx), student, id, req.Progress); err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

type completeRequest struct {
	Student    string `json:"student"`
	FinalScore uint64 `json:"final_score"`
}

func (h *Handler) handleComplete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, err := courseIDParam(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	req, ok := httputil.Decode[completeRequest](w, r)
	if !ok {
		return
	}
	student, err := domain.ParseAddress(req.Student)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	caller := requestcontext.Caller(ctx)
	if err := h.service.CompleteCourse(ctx, caller, student, id, req.FinalScore); err != nil {
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "course completed",
		"request_id", requestcontext.RequestID(ctx),
		"course_id", id,
		"student", student,
		"final_score", req.FinalScore,
	)
	httputil.WriteJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	id, err := courseIDParam(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	c, err := h.service.Course(r.Context(), id)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toCourseResponse(c))
}

func (h *Handler) handleEnrollmentsOfCourse(w http.ResponseWriter, r *http.Request) {
	id, err := courseIDParam(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	enrollments, err := h.service.EnrollmentsOfCourse(r.Context(), id)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toEnrollmentResponses(enrollments))
}

func (h *Handler) handleEnrollmentsOfStudent(w http.ResponseWriter, r *http.Request) {
	student, err := domain.ParseAddress(chi.URLParam(r, "address"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	enrollments, err := h.service.EnrollmentsOfStudent(r.Context(), student)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toEnrollmentResponses(enrollments))
}
