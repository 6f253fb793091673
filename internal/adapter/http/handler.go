package httpadapter

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"dirlaunch/internal/core/port"
)

// Handler is the inbound HTTP adapter. It holds the campaign and
// entitlement use cases and a structured logger; routes are registered on
// a chi.Router.
type Handler struct {
	campaigns    port.CampaignUseCase
	entitlements port.EntitlementUseCase
	logger       *slog.Logger
	router       chi.Router
}

// NewHandler creates a handler with all routes configured.
func NewHandler(campaigns port.CampaignUseCase, entitlements port.EntitlementUseCase, logger *slog.Logger) *Handler {
	h := &Handler{campaigns: campaigns, entitlements: entitlements, logger: logger}
	r := chi.NewRouter()

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/campaigns", h.handleStartCampaign)
		r.Get("/campaigns/active", h.handleActiveCampaign)
		r.Post("/campaigns/{id}/refresh", h.handleRefreshCounters)
		r.Get("/entitlement", h.handleEntitlement)
	})
	h.router = r
	return h
}

// Router returns the underlying http.Handler.
func (h *Handler) Router() http.Handler {
	return h.router
}

// userID extracts the caller identity. Authentication lives in front of
// this service; an empty header is a bad request.
func userID(r *http.Request) string {
	return r.Header.Get("X-User-ID")
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logger.Error("encode response error", slog.Any("error", err))
	}
}

// failureStatus maps precondition codes to HTTP statuses.
func failureStatus(code string) int {
	switch code {
	case port.CodeUserNotFound:
		return http.StatusNotFound
	case port.CodeDirectoriesNotSeeded:
		return http.StatusServiceUnavailable
	case port.CodeActiveCampaignExists:
		return http.StatusConflict
	case port.CodeNoEntitlement:
		return http.StatusPaymentRequired
	default:
		return http.StatusUnprocessableEntity
	}
}
