package checkout

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/noah-isme/backend-trek/internal/common"
	"github.com/noah-isme/backend-trek/internal/pricing"
)

// Handlers exposes the checkout flow over HTTP. All routes require an
// authenticated shopper; the cart is keyed by the shopper id.
type Handlers struct {
	Svc *Service
	Log zerolog.Logger
}

// Routes mounts checkout endpoints on a chi router.
func (h *Handlers) Routes() chi.Router {
	r := chi.NewRouter()
	r.Post("/", h.Begin)
	r.Get("/{sessionID}", h.GetSession)
	r.Post("/{sessionID}/advance", h.Advance)
	r.Post("/{sessionID}/back", h.Back)
	r.Delete("/{sessionID}", h.Abandon)
	return r
}

type beginRequest struct {
	Filter string `json:"filter"`
}

type sessionView struct {
	Session
	Summary pricing.CheckoutSummary `json:"summary"`
}

// Begin opens a new checkout session for the shopper's cart.
func (h *Handlers) Begin(w http.ResponseWriter, r *http.Request) {
	userID, ok := common.UserID(r.Context())
	if !ok || userID == "" {
		common.JSONError(w, http.StatusUnauthorized, "UNAUTHENTICATED", "login required for checkout", nil)
		return
	}
	var req beginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_JSON", "invalid request body", nil)
		return
	}
	f, err := pricing.ParseFilter(strings.TrimSpace(req.Filter))
	if err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_FILTER", "filter must be all, rent or buy", nil)
		return
	}
	sess, err := h.Svc.Begin(r.Context(), userID, userID, f)
	if err != nil {
		h.fail(w, err)
		return
	}
	h.respond(w, r, http.StatusCreated, sess)
}

// GetSession returns the session with its freshly computed summary.
func (h *Handlers) GetSession(w http.ResponseWriter, r *http.Request) {
	sess, err := h.Svc.Get(r.Context(), chi.URLParam(r, "sessionID"))
	if err != nil {
		h.fail(w, err)
		return
	}
	h.respond(w, r, http.StatusOK, sess)
}

// Advance moves the session one step forward.
func (h *Handlers) Advance(w http.ResponseWriter, r *http.Request) {
	var in AdvanceInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_JSON", "invalid request body", nil)
		return
	}
	sess, err := h.Svc.Advance(r.Context(), chi.URLParam(r, "sessionID"), in)
	if err != nil {
		h.fail(w, err)
		return
	}
	h.respond(w, r, http.StatusOK, sess)
}

// Back returns to the previous step.
func (h *Handlers) Back(w http.ResponseWriter, r *http.Request) {
	sess, err := h.Svc.Back(r.Context(), chi.URLParam(r, "sessionID"))
	if err != nil {
		h.fail(w, err)
		return
	}
	h.respond(w, r, http.StatusOK, sess)
}

// Abandon discards the session, leaving the cart untouched.
func (h *Handlers) Abandon(w http.ResponseWriter, r *http.Request) {
	if err := h.Svc.Abandon(r.Context(), chi.URLParam(r, "sessionID")); err != nil {
		h.fail(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handlers) respond(w http.ResponseWriter, r *http.Request, status int, sess Session) {
	summary, err := h.Svc.Summary(r.Context(), sess)
	if err != nil {
		h.fail(w, err)
		return
	}
	common.JSON(w, status, map[string]any{"data": sessionView{Session: sess, Summary: summary}})
}

func (h *Handlers) fail(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrSessionNotFound):
		common.JSONError(w, http.StatusNotFound, "SESSION_NOT_FOUND", "checkout session not found or expired", nil)
	case errors.Is(err, ErrEmptySelection):
		common.JSONError(w, http.StatusUnprocessableEntity, "EMPTY_SELECTION", "no items selected for checkout", nil)
	case errors.Is(err, ErrIncompleteDelivery):
		common.JSONError(w, http.StatusUnprocessableEntity, "INCOMPLETE_DELIVERY_DETAILS", "contact or address details missing", nil)
	case errors.Is(err, ErrIncompletePayment):
		common.JSONError(w, http.StatusUnprocessableEntity, "INCOMPLETE_PAYMENT_DETAILS", "payment details missing or invalid", nil)
	case errors.Is(err, ErrSessionComplete):
		common.JSONError(w, http.StatusConflict, "SESSION_COMPLETE", "this checkout already confirmed; start a new one", nil)
	case errors.Is(err, ErrInvalidTransition):
		common.JSONError(w, http.StatusConflict, "INVALID_TRANSITION", "the requested step change is not allowed", nil)
	default:
		h.Log.Error().Err(err).Msg("checkout operation failed")
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "something went wrong", nil)
	}
}
