package wishlist

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/rs/zerolog"

	"github.com/noah-isme/backend-trek/internal/catalog"
	"github.com/noah-isme/backend-trek/internal/common"
	"github.com/noah-isme/backend-trek/internal/db"
)

// ErrBadGearID rejects identifiers that are not UUIDs.
var ErrBadGearID = errors.New("invalid gear id")

type querier interface {
	AddWishlistItem(ctx context.Context, p db.WishlistParams) error
	RemoveWishlistItem(ctx context.Context, p db.WishlistParams) error
	ListWishlistGear(ctx context.Context, userID pgtype.UUID) ([]db.Gear, error)
	CheckWishlistItem(ctx context.Context, p db.WishlistParams) (bool, error)
}

// Service manages per-shopper favourites.
type Service struct {
	Q querier
}

func pair(userID, gearID string) (db.WishlistParams, error) {
	uid, err := db.ToUUID(userID)
	if err != nil {
		return db.WishlistParams{}, ErrBadGearID
	}
	gid, err := db.ToUUID(gearID)
	if err != nil {
		return db.WishlistParams{}, ErrBadGearID
	}
	return db.WishlistParams{UserID: uid, GearID: gid}, nil
}

// Add saves the gear to the shopper's wishlist; duplicates are a no-op.
func (s *Service) Add(ctx context.Context, userID, gearID string) error {
	p, err := pair(userID, gearID)
	if err != nil {
		return err
	}
	return s.Q.AddWishlistItem(ctx, p)
}

// Remove deletes the entry if present.
func (s *Service) Remove(ctx context.Context, userID, gearID string) error {
	p, err := pair(userID, gearID)
	if err != nil {
		return err
	}
	return s.Q.RemoveWishlistItem(ctx, p)
}

// List returns the shopper's saved gear, most recent first.
func (s *Service) List(ctx context.Context, userID string) ([]catalog.GearListItem, error) {
	uid, err := db.ToUUID(userID)
	if err != nil {
		return nil, ErrBadGearID
	}
	rows, err := s.Q.ListWishlistGear(ctx, uid)
	if err != nil {
		return nil, err
	}
	out := make([]catalog.GearListItem, 0, len(rows))
	for _, g := range rows {
		out = append(out, catalog.ToListItem(g))
	}
	return out, nil
}

// Check reports whether the gear is saved.
func (s *Service) Check(ctx context.Context, userID, gearID string) (bool, error) {
	p, err := pair(userID, gearID)
	if err != nil {
		return false, err
	}
	return s.Q.CheckWishlistItem(ctx, p)
}

// Handlers exposes the wishlist over HTTP; all routes require auth.
type Handlers struct {
	Svc *Service
	Log zerolog.Logger
}

// Routes mounts wishlist endpoints.
func (h *Handlers) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.List)
	r.Put("/{gearID}", h.Add)
	r.Delete("/{gearID}", h.Remove)
	r.Get("/{gearID}", h.Check)
	return r
}

// List returns the shopper's wishlist.
func (h *Handlers) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := common.UserID(r.Context())
	if !ok {
		common.JSONError(w, http.StatusUnauthorized, "UNAUTHENTICATED", "login required", nil)
		return
	}
	items, err := h.Svc.List(r.Context(), userID)
	if err != nil {
		h.fail(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": items})
}

// Add saves a gear id.
func (h *Handlers) Add(w http.ResponseWriter, r *http.Request) {
	userID, ok := common.UserID(r.Context())
	if !ok {
		common.JSONError(w, http.StatusUnauthorized, "UNAUTHENTICATED", "login required", nil)
		return
	}
	if err := h.Svc.Add(r.Context(), userID, chi.URLParam(r, "gearID")); err != nil {
		h.fail(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Remove deletes a saved gear id.
func (h *Handlers) Remove(w http.ResponseWriter, r *http.Request) {
	userID, ok := common.UserID(r.Context())
	if !ok {
		common.JSONError(w, http.StatusUnauthorized, "UNAUTHENTICATED", "login required", nil)
		return
	}
	if err := h.Svc.Remove(r.Context(), userID, chi.URLParam(r, "gearID")); err != nil {
		h.fail(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Check reports whether a gear id is saved.
func (h *Handlers) Check(w http.ResponseWriter, r *http.Request) {
	userID, ok := common.UserID(r.Context())
	if !ok {
		common.JSONError(w, http.StatusUnauthorized, "UNAUTHENTICATED", "login required", nil)
		return
	}
	saved, err := h.Svc.Check(r.Context(), userID, chi.URLParam(r, "gearID"))
	if err != nil {
		h.fail(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": map[string]bool{"saved": saved}})
}

func (h *Handlers) fail(w http.ResponseWriter, err error) {
	if errors.Is(err, ErrBadGearID) {
		common.JSONError(w, http.StatusBadRequest, "BAD_GEAR_ID", "gear id must be a UUID", nil)
		return
	}
	h.Log.Error().Err(err).Msg("wishlist operation failed")
	common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "something went wrong", nil)
}
