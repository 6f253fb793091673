package httpadapter

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"dirlaunch/internal/core/domain"
	"dirlaunch/internal/core/port"
)

// failureBody is the JSON shape of a precondition failure.
type failureBody struct {
	Code        string              `json:"code"`
	Detail      string              `json:"detail,omitempty"`
	Entitlement *domain.Entitlement `json:"entitlement,omitempty"`
}

// handleStartCampaign starts or expands a submission campaign. The body
// is the selection filter; the Idempotency-Key header makes retries safe.
// Precondition failures return their symbolic code for caller-side
// branching; anything else is a 500.
func (h *Handler) handleStartCampaign(w http.ResponseWriter, r *http.Request) {
	uid := userID(r)
	if uid == "" {
		http.Error(w, "missing X-User-ID", http.StatusBadRequest)
		return
	}

	var filters domain.SelectionFilter
	if err := json.NewDecoder(r.Body).Decode(&filters); err != nil {
		http.Error(w, "invalid JSON", http.StatusBadRequest)
		return
	}

	res, err := h.campaigns.Start(r.Context(), port.StartRequest{
		UserID:         uid,
		Filters:        filters,
		IdempotencyKey: r.Header.Get("Idempotency-Key"),
	})
	if err != nil {
		var pre *port.PreconditionError
		if errors.As(err, &pre) {
			h.writeJSON(w, failureStatus(pre.Code), failureBody{
				Code:        pre.Code,
				Detail:      pre.Detail,
				Entitlement: pre.Entitlement,
			})
			return
		}
		h.logger.Error("start campaign error", slog.String("user_id", uid), slog.Any("error", err))
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	h.writeJSON(w, http.StatusOK, res)
}

// handleActiveCampaign probes for the caller's non-terminal campaign
// without blocking behind a running start/expand. 204 when none is
// visible.
func (h *Handler) handleActiveCampaign(w http.ResponseWriter, r *http.Request) {
	uid := userID(r)
	if uid == "" {
		http.Error(w, "missing X-User-ID", http.StatusBadRequest)
		return
	}
	run, err := h.campaigns.ActiveCampaign(r.Context(), uid)
	if err != nil {
		h.logger.Error("active campaign error", slog.String("user_id", uid), slog.Any("error", err))
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	if run == nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	h.writeJSON(w, http.StatusOK, campaignView(run))
}

// handleRefreshCounters re-derives a campaign's aggregate counters from
// its submission rows. Execution workers call this after advancing
// submissions.
func (h *Handler) handleRefreshCounters(w http.ResponseWriter, r *http.Request) {
	uid := userID(r)
	if uid == "" {
		http.Error(w, "missing X-User-ID", http.StatusBadRequest)
		return
	}
	campaignID := chi.URLParam(r, "id")
	if campaignID == "" {
		http.Error(w, "missing campaign id", http.StatusBadRequest)
		return
	}
	run, err := h.campaigns.RefreshCounters(r.Context(), uid, campaignID)
	if err != nil {
		if errors.Is(err, port.ErrCampaignNotFound) {
			http.NotFound(w, r)
			return
		}
		var pre *port.PreconditionError
		if errors.As(err, &pre) {
			h.writeJSON(w, failureStatus(pre.Code), failureBody{Code: pre.Code, Detail: pre.Detail})
			return
		}
		h.logger.Error("refresh counters error",
			slog.String("user_id", uid), slog.String("campaign_id", campaignID), slog.Any("error", err))
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	h.writeJSON(w, http.StatusOK, campaignView(run))
}

// campaignView is the read shape of a campaign run.
func campaignView(run *domain.CampaignRun) map[string]any {
	return map[string]any{
		"id":         run.ID,
		"status":     run.Status,
		"counters":   run.Counters,
		"filters":    run.FiltersSnapshot,
		"created_at": run.CreatedAt,
		"updated_at": run.UpdatedAt,
	}
}
