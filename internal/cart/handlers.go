package cart

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/noah-isme/backend-trek/internal/common"
	"github.com/noah-isme/backend-trek/internal/obs"
	"github.com/noah-isme/backend-trek/internal/pricing"
)

// Handlers exposes the cart over HTTP. The cart is keyed by the authenticated
// shopper id; guests may supply an X-Cart-Id header instead.
type Handlers struct {
	Svc     *Service
	Metrics *obs.DomainMetrics
	Log     zerolog.Logger
}

// Routes mounts cart endpoints on a chi router.
func (h *Handlers) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.GetCart)
	r.Delete("/", h.ClearCart)
	r.Post("/items", h.AddItem)
	r.Patch("/items/{itemID}", h.UpdateQty)
	r.Delete("/items/{itemID}", h.RemoveItem)
	r.Get("/totals", h.Totals)
	r.Get("/count", h.Count)
	return r
}

type addItemRequest struct {
	GearID    string `json:"gearId"`
	Mode      string `json:"mode"`
	Qty       int    `json:"qty"`
	Size      string `json:"size"`
	StartDate string `json:"startDate"`
	EndDate   string `json:"endDate"`
}

type lineItemView struct {
	LineItem
	LineTotal pricing.Money `json:"lineTotal"`
	Deposit   pricing.Money `json:"deposit"`
}

type cartView struct {
	ID        string         `json:"id"`
	Items     []lineItemView `json:"items"`
	Count     int            `json:"count"`
	Totals    pricing.Totals `json:"totals"`
	UpdatedAt time.Time      `json:"updatedAt"`
}

func (h *Handlers) view(doc Document) cartView {
	items := make([]lineItemView, 0, len(doc.Items))
	for _, it := range doc.Items {
		lp := pricing.PriceLineWithRate(pricing.Line{
			Mode:         it.Mode,
			UnitPrice:    it.UnitPrice,
			Qty:          it.Qty,
			DurationDays: it.DurationDays,
		}, h.Svc.DepositBps)
		items = append(items, lineItemView{LineItem: it, LineTotal: lp.Total, Deposit: lp.Deposit})
	}
	return cartView{
		ID:        doc.ID,
		Items:     items,
		Count:     doc.Count(),
		Totals:    pricing.ComputeTotals(doc.Lines(pricing.FilterAll), pricing.FilterAll, h.Svc.DepositBps),
		UpdatedAt: doc.UpdatedAt,
	}
}

// GetCart returns the full cart with per-line and aggregate pricing.
func (h *Handlers) GetCart(w http.ResponseWriter, r *http.Request) {
	cartID, ok := cartIDFromRequest(r)
	if !ok {
		common.JSONError(w, http.StatusBadRequest, "CART_ID_REQUIRED", "no cart identity on request", nil)
		return
	}
	doc, err := h.Svc.Get(r.Context(), cartID)
	if err != nil {
		h.fail(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": h.view(doc)})
}

// AddItem validates and appends a line item.
func (h *Handlers) AddItem(w http.ResponseWriter, r *http.Request) {
	cartID, ok := cartIDFromRequest(r)
	if !ok {
		common.JSONError(w, http.StatusBadRequest, "CART_ID_REQUIRED", "no cart identity on request", nil)
		return
	}
	var req addItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_JSON", "invalid request body", nil)
		return
	}
	in := AddItemInput{
		GearID: strings.TrimSpace(req.GearID),
		Mode:   strings.ToLower(strings.TrimSpace(req.Mode)),
		Qty:    req.Qty,
		Size:   strings.TrimSpace(req.Size),
	}
	if req.StartDate != "" {
		t, err := time.Parse("2006-01-02", req.StartDate)
		if err != nil {
			common.JSONError(w, http.StatusBadRequest, "BAD_DATE", "startDate must be YYYY-MM-DD", nil)
			return
		}
		in.StartDate = t
	}
	if req.EndDate != "" {
		t, err := time.Parse("2006-01-02", req.EndDate)
		if err != nil {
			common.JSONError(w, http.StatusBadRequest, "BAD_DATE", "endDate must be YYYY-MM-DD", nil)
			return
		}
		in.EndDate = t
	}

	doc, item, err := h.Svc.AddItem(r.Context(), cartID, in)
	if err != nil {
		h.fail(w, err)
		return
	}
	if h.Metrics != nil {
		h.Metrics.CartMutations.WithLabelValues("add").Inc()
	}
	common.JSON(w, http.StatusCreated, map[string]any{"data": map[string]any{
		"item": item,
		"cart": h.view(doc),
	}})
}

type updateQtyRequest struct {
	Qty int `json:"qty"`
}

// UpdateQty sets the quantity of one entry; below-minimum values no-op.
func (h *Handlers) UpdateQty(w http.ResponseWriter, r *http.Request) {
	cartID, ok := cartIDFromRequest(r)
	if !ok {
		common.JSONError(w, http.StatusBadRequest, "CART_ID_REQUIRED", "no cart identity on request", nil)
		return
	}
	var req updateQtyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_JSON", "invalid request body", nil)
		return
	}
	doc, err := h.Svc.UpdateQty(r.Context(), cartID, chi.URLParam(r, "itemID"), req.Qty)
	if err != nil {
		h.fail(w, err)
		return
	}
	if h.Metrics != nil {
		h.Metrics.CartMutations.WithLabelValues("update_qty").Inc()
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": h.view(doc)})
}

// RemoveItem drops one entry; an absent id still returns the current cart.
func (h *Handlers) RemoveItem(w http.ResponseWriter, r *http.Request) {
	cartID, ok := cartIDFromRequest(r)
	if !ok {
		common.JSONError(w, http.StatusBadRequest, "CART_ID_REQUIRED", "no cart identity on request", nil)
		return
	}
	doc, err := h.Svc.RemoveItem(r.Context(), cartID, chi.URLParam(r, "itemID"))
	if err != nil {
		h.fail(w, err)
		return
	}
	if h.Metrics != nil {
		h.Metrics.CartMutations.WithLabelValues("remove").Inc()
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": h.view(doc)})
}

// ClearCart discards the whole cart.
func (h *Handlers) ClearCart(w http.ResponseWriter, r *http.Request) {
	cartID, ok := cartIDFromRequest(r)
	if !ok {
		common.JSONError(w, http.StatusBadRequest, "CART_ID_REQUIRED", "no cart identity on request", nil)
		return
	}
	if err := h.Svc.Clear(r.Context(), cartID); err != nil {
		h.fail(w, err)
		return
	}
	if h.Metrics != nil {
		h.Metrics.CartMutations.WithLabelValues("clear").Inc()
	}
	w.WriteHeader(http.StatusNoContent)
}

// Totals recomputes aggregate pricing for the requested filter.
func (h *Handlers) Totals(w http.ResponseWriter, r *http.Request) {
	cartID, ok := cartIDFromRequest(r)
	if !ok {
		common.JSONError(w, http.StatusBadRequest, "CART_ID_REQUIRED", "no cart identity on request", nil)
		return
	}
	f, err := pricing.ParseFilter(r.URL.Query().Get("filter"))
	if err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_FILTER", "filter must be all, rent or buy", nil)
		return
	}
	totals, err := h.Svc.Totals(r.Context(), cartID, f)
	if err != nil {
		h.fail(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": totals})
}

// Count returns the badge count: sum of quantities.
func (h *Handlers) Count(w http.ResponseWriter, r *http.Request) {
	cartID, ok := cartIDFromRequest(r)
	if !ok {
		common.JSONError(w, http.StatusBadRequest, "CART_ID_REQUIRED", "no cart identity on request", nil)
		return
	}
	doc, err := h.Svc.Get(r.Context(), cartID)
	if err != nil {
		h.fail(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": map[string]int{"count": doc.Count()}})
}

func (h *Handlers) fail(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrGearNotFound):
		common.JSONError(w, http.StatusNotFound, "GEAR_NOT_FOUND", "catalog item not found", nil)
	case errors.Is(err, ErrModeUnavailable):
		common.JSONError(w, http.StatusUnprocessableEntity, "INVALID_MODE_FOR_ITEM", "item is not offered in the requested mode", nil)
	case errors.Is(err, ErrSizeRequired):
		common.JSONError(w, http.StatusUnprocessableEntity, "MISSING_SIZE_SELECTION", "this item requires a size selection", nil)
	case errors.Is(err, ErrInvalidInput):
		common.JSONError(w, http.StatusBadRequest, "INVALID_INPUT", "invalid cart input", nil)
	default:
		h.Log.Error().Err(err).Msg("cart operation failed")
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "something went wrong", nil)
	}
}

func cartIDFromRequest(r *http.Request) (string, bool) {
	if id, ok := common.UserID(r.Context()); ok && id != "" {
		return id, true
	}
	if id := strings.TrimSpace(r.Header.Get("X-Cart-Id")); id != "" {
		return id, true
	}
	return "", false
}
