// Package handler exposes the assessment ledger over HTTP.
package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"credentia/internal/assessment"
	"credentia/pkg/domain"
	dErrors "credentia/pkg/domain-errors"
	"credentia/pkg/platform/httputil"
	"credentia/pkg/requestcontext"
)

// Service defines the assessment operations the transport layer consumes.
type Service interface {
	RecordAssessment(ctx context.Context, caller, student domain.Address, courseID uint64, assessmentType string, score, maxScore, timeTaken uint64) (uint64, error)
	TrackInteraction(ctx context.Context, caller, student domain.Address, courseID uint64, interactionType, data string) error
	CalculateCompetency(ctx context.Context, student domain.Address, skill string) (uint64, error)
	Assessment(ctx context.Context, id uint64) (assessment.Assessment, error)
	AssessmentsOfStudent(ctx context.Context, student domain.Address) ([]assessment.Assessment, error)
	Competency(ctx context.Context, student domain.Address, skill string) (uint64, error)
	AnalyticsOf(ctx context.Context, student domain.Address) (assessment.AnalyticsSummary, error)
}

// Handler wires assessment endpoints to the assessment service.
type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts assessment endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/assessments", h.handleRecord)
	r.Post("/interactions", h.handleTrackInteraction)
	r.Post("/students/{address}/competency/{skill}", h.handleCalculateCompetency)
	r.Get("/assessments/{assessmentID}", h.handleGet)
	r.Get("/students/{address}/assessments", h.handleAssessmentsOfStudent)
	r.Get("/students/{address}/competency/{skill}", h.handleCompetency)
	r.Get("/students/{address}/analytics", h.handleAnalytics)
}

type recordRequest struct {
	Student   string `json:"student"`
	CourseID  uint64 `json:"course_id"`
	Type      string `json:"assessment_type"`
	Score     uint64 `json:"score"`
	MaxScore  uint64 `json:"max_score"`
	TimeTaken uint64 `json:"time_taken"`
}

type assessmentResponse struct {
	ID          uint64    `json:"assessment_id"`
	Student     string    `json:"student"`
	CourseID    uint64    `json:"course_id"`
	Type        string    `json:"assessment_type"`
	Score       uint64    `json:"score"`
	MaxScore    uint64    `json:"max_score"`
	TimeTaken   uint64    `json:"time_taken"`
	CompletedAt time.Time `json:"completed_at"`
}

func toAssessmentResponse(a assessment.Assessment) assessmentResponse {
	return assessmentResponse{
		ID:          a.ID,
		Student:     a.Student.String(),
		CourseID:    a.CourseID,
		Type:        a.Type,
		Score:       a.Score,
		MaxScore:    a.MaxScore,
		TimeTaken:   a.TimeTaken,
		CompletedAt: a.CompletedAt,
	}
}

func (h *Handler) handleRecord(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	caller := requestcontext.Caller(ctx)

	req, ok := httputil.Decode[recordRequest](w, r)
	if !ok {
		return
	}
	student, err := domain.ParseAddress(req.Student)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	id, err := h.service.RecordAssessment(ctx, caller, student, req.CourseID, req.Type, req.Score, req.MaxScore, req.TimeTaken)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "assessment recorded",
		"request_id", requestcontext.RequestID(ctx),
		"assessment_id", id,
		"student", student,
		"course_id", req.CourseID,
	)
	httputil.WriteJSON(w, http.StatusCreated, map[string]uint64{"assessment_id": id})
}

type interactionRequest struct {
	Student  string `json:"student"`
	CourseID uint64 `json:"course_id"`
	Type     string `json:"interaction_type"`
	Data     string `json:"data,omitempty"`
}

func (h *Handler) handleTrackInteraction(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	caller := requestcontext.Caller(ctx)

	req, ok := httputil.Decode[interactionRequest](w, r)
	if !ok {
		return
	}
	student, err := domain.ParseAddress(req.Student)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	if err := h.service.TrackInteraction(ctx, caller, student, req.CourseID, req.Type, req.Data); err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

func (h *Handler) handleCalculateCompetency(w http.ResponseWriter, r *http.Request) {
	student, err := domain.ParseAddress(chi.URLParam(r, "address"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	value, err := h.service.CalculateCompetency(r.Context(), student, chi.URLParam(r, "skill"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]uint64{"competency": value})
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseUint(chi.URLParam(r, "assessmentID"), 10, 64)
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "assessment id must be a positive integer"))
		return
	}
	a, err := h.service.Assessment(r.Context(), id)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toAssessmentResponse(a))
}

func (h *Handler) handleAssessmentsOfStudent(w http.ResponseWriter, r *http.Request) {
	student, err := domain.ParseAddress(chi.URLParam(r, "address"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	assessments, err := h.service.AssessmentsOfStudent(r.Context(), student)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	out := make([]assessmentResponse, 0, len(assessments))
	for _, a := range assessments {
		out = append(out, toAssessmentResponse(a))
	}
	httputil.WriteJSON(w, http.StatusOK, out)
}

func (h *Handler) handleCompetency(w http.ResponseWriter, r *http.Request) {
	student, err := domain.ParseAddress(chi.URLParam(r, "address"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	value, err := h.service.Competency(r.Context(), student, chi.URLParam(r, "skill"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]uint64{"competency": value})
}

func (h *Handler) handleAnalytics(w http.ResponseWriter, r *http.Request) {
	student, err := domain.ParseAddress(chi.URLParam(r, "address"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	summary, err := h.service.AnalyticsOf(r.Context(), student)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, analyticsResponse{
		AssessmentCount: summary.AssessmentCount,
		AverageScore:    summary.AverageScore,
		TotalTime:       summary.TotalTime,
	})
}

type analyticsResponse struct {
	AssessmentCount uint64 `json:"assessment_count"`
	AverageScore    uint64 `json:"average_score"`
	TotalTime       uint64 `json:"total_time"`
}
