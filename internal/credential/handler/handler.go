// Package handler exposes the credential issuer over HTTP.
package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"credentia/internal/credential"
	"credentia/pkg/domain"
	dErrors "credentia/pkg/domain-errors"
	"credentia/pkg/platform/httputil"
	"credentia/pkg/requestcontext"
)

// Service defines the credential operations the transport layer consumes.
type Service interface {
	Issue(ctx context.Context, caller, student domain.Address, courseID uint64, skill string, competency uint32, assessmentScore uint64, expiry time.Time) (uint64, error)
	Verify(ctx context.Context, caller domain.Address, tokenID uint64) (bool, error)
	Revoke(ctx context.Context, caller domain.Address, tokenID uint64) error
	Extend(ctx context.Context, caller domain.Address, tokenID uint64, newExpiry time.Time) error
	Credential(ctx context.Context, tokenID uint64) (credential.Credential, error)
	CredentialsOfStudent(ctx context.Context, student domain.Address) ([]credential.Credential, error)
	OwnerOf(tokenID uint64) (domain.Address, error)
	BalanceOf(owner domain.Address) uint64
	TokenURI(tokenID uint64) (string, error)
}

// Handler wires credential endpoints to the credential service.
type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts credential endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/credentials", h.handleIssue)
	r.Post("/credentials/{tokenID}/verify", h.handleVerify)
	r.Post("/credentials/{tokenID}/revoke", h.handleRevoke)
	r.Post("/credentials/{tokenID}/extend", h.handleExtend)
	r.Get("/credentials/{tokenID}", h.handleGet)
	r.Get("/students/{address}/credentials", h.handleCredentialsOfStudent)
	r.Get("/tokens/{tokenID}", h.handleToken)
}

type issueRequest struct {
	Student         string     `json:"student"`
	CourseID        uint64     `json:"course_id"`
	Skill           string     `json:"skill_achieved"`
	CompetencyLevel uint32     `json:"competency_level"`
	AssessmentScore uint64     `json:"assessment_score"`
	ExpiryDate      *time.Time `json:"expiry_date,omitempty"`
}

type credentialResponse struct {
	TokenID                 uint64    `json:"token_id"`
	Student                 string    `json:"student"`
	CourseID                uint64    `json:"course_id"`
	SkillAchieved           string    `json:"skill_achieved"`
	CompetencyLevel         uint32    `json:"competency_level"`
	IssueDate               time.Time `json:"issue_date"`
	ExpiryDate              time.Time `json:"expiry_date,omitzero"`
	VerificationFingerprint string    `json:"verification_fingerprint"`
	AssessmentScore         uint64    `json:"assessment_score"`
	IsRevoked               bool      `json:"is_revoked"`
}

func toCredentialResponse(c credential.Credential) credentialResponse {
	return credentialResponse{
		TokenID:                 c.TokenID,
		Student:                 c.Student.String(),
		CourseID:                c.CourseID,
		SkillAchieved:           c.SkillAchieved,
		CompetencyLevel:         c.CompetencyLevel,
		IssueDate:               c.IssueDate,
		ExpiryDate:              c.ExpiryDate,
		VerificationFingerprint: c.VerificationFingerprint,
		AssessmentScore:         c.AssessmentScore,
		IsRevoked:               c.IsRevoked,
	}
}

func tokenIDParam(r *http.Request) (uint64, error) {
	id, err := strconv.ParseUint(chi.URLParam(r, "tokenID"), 10, 64)
	if err != nil {
		return 0, dErrors.New(dErrors.CodeBadRequest, "token id must be a positive integer")
	}
	return id, nil
}

func (h *Handler) handleIssue(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	caller := requestcontext.Caller(ctx)

	req, ok := httputil.Decode[issueRequest](w, r)
	if !ok {
		return
	}
	student, err := domain.ParseAddress(req.Student)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	expiry := time.Time{}
	if req.ExpiryDate != nil {
		expiry = *req.ExpiryDate
	}

	tokenID, err := h.service.Issue(ctx, caller, student, req.CourseID, req.Skill, req.CompetencyLevel, req.AssessmentScore, expiry)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "credential issued",
		"request_id", requestcontext.RequestID(ctx),
		"token_id", tokenID,
		"student", student,
		"course_id", req.CourseID,
	)
	httputil.WriteJSON(w, http.StatusCreated, map[string]uint64{"token_id": tokenID})
}

func (h *Handler) handleVerify(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, err := tokenIDParam(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	valid, err := h.service.Verify(ctx, requestcontext.Caller(ctx), id)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]bool{"valid": valid})
}

func (h *Handler) handleRevoke(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, err := tokenIDParam(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	caller := requestcontext.Caller(ctx)
	if err := h.service.Revoke(ctx, caller, id); err != nil {
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "credential revoked",
		"request_id", requestcontext.RequestID(ctx),
		"token_id", id,
		"caller", caller,
	)
	httputil.WriteJSON(w, http.StatusOK, map[string]bool{"revoked": true})
}

type extendRequest struct {
	NewExpiry time.Time `json:"new_expiry"`
}

func (h *Handler) handleExtend(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, err := tokenIDParam(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	req, ok := httputil.Decode[extendRequest](w, r)
	if !ok {
		return
	}

	if err := h.service.Extend(ctx, requestcontext.Caller(ctx), id, req.NewExpiry); err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]bool{"extended": true})
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	id, err := tokenIDParam(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	c, err := h.service.Credential(r.Context(), id)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toCredentialResponse(c))
}

func (h *Handler) handleCredentialsOfStudent(w http.ResponseWriter, r *http.Request) {
	student, err := domain.ParseAddress(chi.URLParam(r, "address"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	credentials, err := h.service.CredentialsOfStudent(r.Context(), student)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	out := make([]credentialResponse, 0, len(credentials))
	for _, c := range credentials {
		out = append(out, toCredentialResponse(c))
	}
	httputil.WriteJSON(w, http.StatusOK, out)
}

type tokenResponse struct {
	TokenID uint64 `json:"token_id"`
	Owner   string `json:"owner"`
	URI     string `json:"uri"`
	Balance uint64 `json:"owner_balance"`
}

func (h *Handler) handleToken(w http.ResponseWriter, r *http.Request) {
	id, err := tokenIDParam(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	owner, err := h.service.OwnerOf(id)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	uri, err := h.service.TokenURI(id)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, tokenResponse{
		TokenID: id,
		Owner:   owner.String(),
		URI:     uri,
		Balance: h.service.BalanceOf(owner),
	})
}
