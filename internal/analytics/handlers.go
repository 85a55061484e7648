package analytics

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/noah-isme/backend-trek/internal/common"
)

// Handlers exposes back-office reports. Mount behind RequireRole("admin").
type Handlers struct {
	Svc *Service
	Log zerolog.Logger
}

// Routes mounts analytics endpoints.
func (h *Handlers) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/overview", h.Overview)
	r.Get("/sales", h.Sales)
	r.Get("/top-gear", h.TopGear)
	return r
}

// Overview returns the storefront summary.
func (h *Handlers) Overview(w http.ResponseWriter, r *http.Request) {
	out, err := h.Svc.Overview(r.Context())
	if err != nil {
		h.fail(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": out})
}

// Sales returns the daily sales rollup.
func (h *Handlers) Sales(w http.ResponseWriter, r *http.Request) {
	days := common.AtoiDefault(r.URL.Query().Get("days"), 0)
	out, err := h.Svc.SalesDaily(r.Context(), days)
	if err != nil {
		h.fail(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": out})
}

// TopGear returns gear ranked by ordered units.
func (h *Handlers) TopGear(w http.ResponseWriter, r *http.Request) {
	limit := common.AtoiDefault(r.URL.Query().Get("limit"), 0)
	out, err := h.Svc.TopGear(r.Context(), limit)
	if err != nil {
		h.fail(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": out})
}

func (h *Handlers) fail(w http.ResponseWriter, err error) {
	h.Log.Error().Err(err).Msg("analytics query failed")
	common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "something went wrong", nil)
}
