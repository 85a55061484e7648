package order

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/noah-isme/backend-trek/internal/common"
)

// AdminHandlers exposes back-office order management. Routes must be mounted
// behind RequireRole("admin").
type AdminHandlers struct {
	Svc *Service
	Log zerolog.Logger
}

// Routes mounts admin order endpoints.
func (h *AdminHandlers) Routes() chi.Router {
	r := chi.NewRouter()
	r.Patch("/{orderID}/status", h.PatchStatus)
	return r
}

type patchStatusRequest struct {
	Status string `json:"status"`
}

// PatchStatus sets an order's status.
func (h *AdminHandlers) PatchStatus(w http.ResponseWriter, r *http.Request) {
	var req patchStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_JSON", "invalid request body", nil)
		return
	}
	status := strings.ToUpper(strings.TrimSpace(req.Status))
	summary, err := h.Svc.SetStatus(r.Context(), chi.URLParam(r, "orderID"), status)
	switch {
	case errors.Is(err, ErrBadStatus):
		common.JSONError(w, http.StatusBadRequest, "BAD_STATUS", "unknown order status", nil)
		return
	case errors.Is(err, ErrNotFound):
		common.JSONError(w, http.StatusNotFound, "ORDER_NOT_FOUND", "order not found", nil)
		return
	case err != nil:
		h.Log.Error().Err(err).Msg("order status patch failed")
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "something went wrong", nil)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": summary})
}
