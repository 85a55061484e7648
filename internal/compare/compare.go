package compare

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/noah-isme/backend-trek/internal/cart"
	"github.com/noah-isme/backend-trek/internal/common"
)

var (
	// ErrTrayFull means the compare tray reached its size cap.
	ErrTrayFull = errors.New("compare tray is full")
	// ErrGearNotFound means the gear id does not resolve in the catalog.
	ErrGearNotFound = errors.New("gear not found")
)

// Service keeps a small per-shopper set of gear ids to compare side by side.
type Service struct {
	R        *redis.Client
	Catalog  cart.CatalogReader
	MaxItems int
}

func (s *Service) key(userID string) string {
	return "compare:" + userID
}

// Add puts a gear id in the tray. Duplicates are a no-op; exceeding the cap
// is rejected so the tray stays readable side by side.
func (s *Service) Add(ctx context.Context, userID, gearID string) error {
	if _, err := s.Catalog.Lookup(ctx, gearID); err != nil {
		if errors.Is(err, cart.ErrGearNotFound) {
			return ErrGearNotFound
		}
		return err
	}
	key := s.key(userID)
	member, err := s.R.SIsMember(ctx, key, gearID).Result()
	if err != nil {
		return fmt.Errorf("compare check: %w", err)
	}
	if member {
		return nil
	}
	size, err := s.R.SCard(ctx, key).Result()
	if err != nil {
		return fmt.Errorf("compare size: %w", err)
	}
	if s.MaxItems > 0 && size >= int64(s.MaxItems) {
		return ErrTrayFull
	}
	return s.R.SAdd(ctx, key, gearID).Err()
}

// Remove drops a gear id from the tray; absent ids are a no-op.
func (s *Service) Remove(ctx context.Context, userID, gearID string) error {
	return s.R.SRem(ctx, s.key(userID), gearID).Err()
}

// Clear empties the tray.
func (s *Service) Clear(ctx context.Context, userID string) error {
	return s.R.Del(ctx, s.key(userID)).Err()
}

// List resolves the tray's gear ids against the catalog. Ids that stopped
// resolving are dropped from the tray as a side effect.
func (s *Service) List(ctx context.Context, userID string) ([]cart.GearInfo, error) {
	ids, err := s.R.SMembers(ctx, s.key(userID)).Result()
	if err != nil {
		return nil, fmt.Errorf("compare members: %w", err)
	}
	out := make([]cart.GearInfo, 0, len(ids))
	for _, id := range ids {
		info, err := s.Catalog.Lookup(ctx, id)
		if errors.Is(err, cart.ErrGearNotFound) {
			_ = s.R.SRem(ctx, s.key(userID), id)
			continue
		}
		if err != nil {
			return nil, err
		}
		out = append(out, info)
	}
	return out, nil
}

// Handlers exposes the compare tray over HTTP; all routes require auth.
type Handlers struct {
	Svc *Service
	Log zerolog.Logger
}

// Routes mounts compare endpoints.
func (h *Handlers) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.List)
	r.Delete("/", h.Clear)
	r.Put("/{gearID}", h.Add)
	r.Delete("/{gearID}", h.Remove)
	return r
}

// List returns the resolved compare tray.
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

// Add puts a gear id in the tray.
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

// Remove drops a gear id from the tray.
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

// Clear empties the tray.
func (h *Handlers) Clear(w http.ResponseWriter, r *http.Request) {
	userID, ok := common.UserID(r.Context())
	if !ok {
		common.JSONError(w, http.StatusUnauthorized, "UNAUTHENTICATED", "login required", nil)
		return
	}
	if err := h.Svc.Clear(r.Context(), userID); err != nil {
		h.fail(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handlers) fail(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrTrayFull):
		common.JSONError(w, http.StatusConflict, "COMPARE_TRAY_FULL", "remove an item before adding another", nil)
	case errors.Is(err, ErrGearNotFound):
		common.JSONError(w, http.StatusNotFound, "GEAR_NOT_FOUND", "catalog item not found", nil)
	default:
		h.Log.Error().Err(err).Msg("compare operation failed")
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "something went wrong", nil)
	}
}
