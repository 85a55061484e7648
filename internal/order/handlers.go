package order

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/noah-isme/backend-trek/internal/common"
)

// Handlers exposes the shopper-facing order history endpoints.
type Handlers struct {
	Svc *Service
	Log zerolog.Logger
}

// Routes mounts shopper order endpoints; callers must be authenticated.
func (h *Handlers) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.List)
	r.Get("/{orderID}", h.Get)
	r.Post("/{orderID}/cancel", h.Cancel)
	return r
}

// List pages the shopper's orders.
func (h *Handlers) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := common.UserID(r.Context())
	if !ok {
		common.JSONError(w, http.StatusUnauthorized, "UNAUTHENTICATED", "login required", nil)
		return
	}
	q := r.URL.Query()
	page, err := h.Svc.ListForUser(r.Context(), userID,
		common.AtoiDefault(q.Get("limit"), 20),
		common.AtoiDefault(q.Get("offset"), 0),
	)
	if err != nil {
		h.fail(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": page})
}

// Get returns a full order owned by the shopper.
func (h *Handlers) Get(w http.ResponseWriter, r *http.Request) {
	userID, ok := common.UserID(r.Context())
	if !ok {
		common.JSONError(w, http.StatusUnauthorized, "UNAUTHENTICATED", "login required", nil)
		return
	}
	detail, err := h.Svc.GetForUser(r.Context(), userID, chi.URLParam(r, "orderID"))
	if err != nil {
		h.fail(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": detail})
}

// Cancel cancels a PLACED order.
func (h *Handlers) Cancel(w http.ResponseWriter, r *http.Request) {
	userID, ok := common.UserID(r.Context())
	if !ok {
		common.JSONError(w, http.StatusUnauthorized, "UNAUTHENTICATED", "login required", nil)
		return
	}
	if err := h.Svc.Cancel(r.Context(), userID, chi.URLParam(r, "orderID")); err != nil {
		h.fail(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handlers) fail(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		common.JSONError(w, http.StatusNotFound, "ORDER_NOT_FOUND", "order not found", nil)
	case errors.Is(err, ErrNotCancellable):
		common.JSONError(w, http.StatusConflict, "ORDER_NOT_CANCELLABLE", "order can no longer be cancelled", nil)
	default:
		h.Log.Error().Err(err).Msg("order operation failed")
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "something went wrong", nil)
	}
}
