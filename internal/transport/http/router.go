// Package httptransport assembles the public HTTP surface: middleware chain,
// module routes, health, and metrics.
package httptransport

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"credentia/internal/audit"
	"credentia/internal/jwttoken"
	"credentia/internal/platform/metrics"
	"credentia/internal/platform/middleware"
	"credentia/pkg/domain"
	"credentia/pkg/platform/httputil"
)

const accessTokenTTL = time.Hour

// Registrar is implemented by every module handler.
type Registrar interface {
	Register(chi.Router)
}

// NewRouter wires all endpoints. Domain routes sit behind bearer auth; health,
// metrics, and token minting stay public.
func NewRouter(logger *slog.Logger, jwt *jwttoken.JWTService, m *metrics.Metrics, auditlog *audit.Publisher, modules ...Registrar) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(m.Middleware)

	r.Get("/healthz", handleHealth)
	r.Handle("/metrics", promhttp.Handler())
	r.Post("/auth/token", handleToken(jwt, logger))

	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireAuth(jwt, logger))
		for _, module := range modules {
			module.Register(r)
		}
		r.Get("/audit/{address}", handleAuditList(auditlog))
	})

	return r
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type tokenRequest struct {
	Address string `json:"address"`
}

// handleToken mints an access token for a caller-supplied address. The ledger
// treats the address as the sole identity; production deployments put a real
// identity provider in front of this.
func handleToken(jwt *jwttoken.JWTService, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		req, ok := httputil.Decode[tokenRequest](w, r)
		if !ok {
			return
		}
		addr, err := domain.ParseAddress(req.Address)
		if err != nil {
			httputil.WriteError(w, err)
			return
		}

		token, err := jwt.GenerateAccessToken(addr, accessTokenTTL)
		if err != nil {
			logger.ErrorContext(r.Context(), "token generation failed", "error", err)
			httputil.WriteError(w, err)
			return
		}
		httputil.WriteJSON(w, http.StatusOK, map[string]string{
			"access_token": token,
			"token_type":   "Bearer",
		})
	}
}

func handleAuditList(auditlog *audit.Publisher) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, err := domain.ParseAddress(chi.URLParam(r, "address"))
		if err != nil {
			httputil.WriteError(w, err)
			return
		}
		events, err := auditlog.List(r.Context(), actor)
		if err != nil {
			httputil.WriteError(w, err)
			return
		}
		httputil.WriteJSON(w, http.StatusOK, events)
	}
}
