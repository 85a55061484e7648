package catalog

import (
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/noah-isme/backend-trek/internal/common"
)

// Handlers exposes catalog browsing endpoints. All routes are public.
type Handlers struct {
	Svc *Service
	Log zerolog.Logger
}

// Routes mounts catalog endpoints on a chi router.
func (h *Handlers) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.List)
	r.Get("/categories", h.Categories)
	r.Get("/{slug}", h.GetBySlug)
	return r
}

// List returns a filtered, sorted, paginated catalog page.
func (h *Handlers) List(w http.ResponseWriter, r *http.Request) {
	in, err := parseListInput(r.URL.Query())
	if err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_QUERY", err.Error(), nil)
		return
	}
	result, err := h.Svc.List(r.Context(), in)
	if err != nil {
		h.Log.Error().Err(err).Msg("catalog list failed")
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "something went wrong", nil)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": result})
}

// GetBySlug returns a gear detail page.
func (h *Handlers) GetBySlug(w http.ResponseWriter, r *http.Request) {
	detail, err := h.Svc.GetBySlug(r.Context(), chi.URLParam(r, "slug"))
	if errors.Is(err, ErrNotFound) {
		common.JSONError(w, http.StatusNotFound, "GEAR_NOT_FOUND", "no gear with that slug", nil)
		return
	}
	if err != nil {
		h.Log.Error().Err(err).Msg("catalog detail failed")
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "something went wrong", nil)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": detail})
}

// Categories lists the distinct gear categories.
func (h *Handlers) Categories(w http.ResponseWriter, r *http.Request) {
	cats, err := h.Svc.Categories(r.Context())
	if err != nil {
		h.Log.Error().Err(err).Msg("catalog categories failed")
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "something went wrong", nil)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": cats})
}

func parseListInput(q url.Values) (ListInput, error) {
	in := ListInput{
		Query:    strings.TrimSpace(q.Get("q")),
		Category: strings.TrimSpace(q.Get("category")),
		Sort:     strings.TrimSpace(q.Get("sort")),
	}

	switch availability := strings.TrimSpace(q.Get("availability")); availability {
	case "", "rent", "buy", "both":
		in.Availability = availability
	default:
		return ListInput{}, errors.New("availability must be rent, buy or both")
	}

	switch in.Sort {
	case "", "price_asc", "price_desc", "newest", "title":
	default:
		return ListInput{}, errors.New("sort must be price_asc, price_desc, newest or title")
	}

	if raw := strings.TrimSpace(q.Get("minPrice")); raw != "" {
		v, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || v < 0 {
			return ListInput{}, errors.New("minPrice must be a non-negative integer")
		}
		in.MinPrice = &v
	}
	if raw := strings.TrimSpace(q.Get("maxPrice")); raw != "" {
		v, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || v < 0 {
			return ListInput{}, errors.New("maxPrice must be a non-negative integer")
		}
		in.MaxPrice = &v
	}
	if in.MinPrice != nil && in.MaxPrice != nil && *in.MinPrice > *in.MaxPrice {
		return ListInput{}, errors.New("minPrice cannot exceed maxPrice")
	}

	in.InStockOnly = q.Get("inStock") == "true"
	in.Limit = common.AtoiDefault(q.Get("limit"), 0)
	in.Offset = common.AtoiDefault(q.Get("offset"), 0)
	return in, nil
}
