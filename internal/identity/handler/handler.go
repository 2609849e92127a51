// Package handler exposes the identity registry over HTTP. It stays thin:
// decode, resolve the caller, delegate, encode.
package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"credentia/internal/identity"
	"credentia/pkg/domain"
	dErrors "credentia/pkg/domain-errors"
	"credentia/pkg/platform/httputil"
	"credentia/pkg/requestcontext"
)

// Service defines the identity operations the transport layer consumes.
type Service interface {
	Register(ctx context.Context, caller domain.Address, role domain.Role, profileFingerprint string) (identity.User, error)
	Verify(ctx context.Context, caller, target domain.Address) error
	AdjustReputation(ctx context.Context, caller, target domain.Address, delta int64) (uint64, error)
	AuthorizeCaller(ctx context.Context, caller, addr domain.Address) error
	Lookup(ctx context.Context, addr domain.Address) identity.User
	UserCounts(ctx context.Context) (identity.Counts, error)
}

// Handler wires identity endpoints to the identity service.
type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts identity endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/identity/register", h.handleRegister)
	r.Post("/identity/verify", h.handleVerify)
	r.Post("/identity/reputation", h.handleAdjustReputation)
	r.Post("/identity/authorize", h.handleAuthorizeCaller)
	r.Get("/identity/users/{address}", h.handleLookup)
	r.Get("/identity/counts", h.handleCounts)
}

type registerRequest struct {
	Role               string `json:"role"`
	ProfileFingerprint string `json:"profile_fingerprint"`
}

type userResponse struct {
	Address            string    `json:"address"`
	Role               string    `json:"role"`
	ReputationScore    uint64    `json:"reputation_score"`
	IsVerified         bool      `json:"is_verified"`
	ProfileFingerprint string    `json:"profile_fingerprint,omitempty"`
	CreatedAt          time.Time `json:"created_at"`
}

func toUserResponse(user identity.User) userResponse {
	return userResponse{
		Address:            user.Address.String(),
		Role:               string(user.Role),
		ReputationScore:    user.ReputationScore,
		IsVerified:         user.IsVerified,
		ProfileFingerprint: user.ProfileFingerprint,
		CreatedAt:          user.CreatedAt,
	}
}

func (h *Handler) handleRegister(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	caller := requestcontext.Caller(ctx)

	req, ok := httputil.Decode[registerRequest](w, r)
	if !ok {
		return
	}
	role, err := domain.ParseRole(req.Role)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	user, err := h.service.Register(ctx, caller, role, req.ProfileFingerprint)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "user registered",
		"request_id", requestcontext.RequestID(ctx),
		"address", caller,
		"role", role,
	)
	httputil.WriteJSON(w, http.StatusCreated, toUserResponse(user))
}

type verifyRequest struct {
	Target string `json:"target"`
}

func (h *Handler) handleVerify(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	caller := requestcontext.Caller(ctx)

	req, ok := httputil.Decode[verifyRequest](w, r)
	if !ok {
		return
	}
	target, err := domain.ParseAddress(req.Target)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	if err := h.service.Verify(ctx, caller, target); err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]bool{"verified": true})
}

type adjustReputationRequest struct {
	Target string `json:"target"`
	Delta  int64  `json:"delta"`
}

func (h *Handler) handleAdjustReputation(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	caller := requestcontext.Caller(ctx)

	req, ok := httputil.Decode[adjustReputationRequest](w, r)
	if !ok {
		return
	}
	target, err := domain.ParseAddress(req.Target)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	reputation, err := h.service.AdjustReputation(ctx, caller, target, req.Delta)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]uint64{"reputation_score": reputation})
}

type authorizeRequest struct {
	Address string `json:"address"`
}

func (h *Handler) handleAuthorizeCaller(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	caller := requestcontext.Caller(ctx)

	req, ok := httputil.Decode[authorizeRequest](w, r)
	if !ok {
		return
	}
	addr, err := domain.ParseAddress(req.Address)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	if err := h.service.AuthorizeCaller(ctx, caller, addr); err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]bool{"authorized": true})
}

func (h *Handler) handleLookup(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	addr, err := domain.ParseAddress(chi.URLParam(r, "address"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	user := h.service.Lookup(ctx, addr)
	if user.Address.IsZero() {
		httputil.WriteError(w, dErrors.New(dErrors.CodeNotFound, "user not found"))
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toUserResponse(user))
}

func (h *Handler) handleCounts(w http.ResponseWriter, r *http.Request) {
	counts, err := h.service.UserCounts(r.Context())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	perRole := make(map[string]uint64, len(counts.PerRole))
	for role, n := range counts.PerRole {
		perRole[string(role)] = n
	}
	httputil.WriteJSON(w, http.StatusOK, countsResponse{Total: counts.Total, PerRole: perRole})
}

type countsResponse struct {
	Total   uint64            `json:"total"`
	PerRole map[string]uint64 `json:"per_role"`
}
