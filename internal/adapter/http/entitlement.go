package httpadapter

import (
	"errors"
	"log/slog"
	"net/http"

	"dirlaunch/internal/core/port"
)

// handleEntitlement returns the caller's entitlement breakdown across
// subscription allocation and purchased packs.
func (h *Handler) handleEntitlement(w http.ResponseWriter, r *http.Request) {
	uid := userID(r)
	if uid == "" {
		http.Error(w, "missing X-User-ID", http.StatusBadRequest)
		return
	}
	ent, err := h.entitlements.Calculate(r.Context(), uid)
	if err != nil {
		var pre *port.PreconditionError
		if errors.As(err, &pre) && pre.Code == port.CodeUserNotFound {
			http.NotFound(w, r)
			return
		}
		h.logger.Error("entitlement error", slog.String("user_id", uid), slog.Any("error", err))
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	h.writeJSON(w, http.StatusOK, ent)
}
