package catalog

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/backend-trek/internal/cache"
	"github.com/noah-isme/backend-trek/internal/cart"
	"github.com/noah-isme/backend-trek/internal/db"
)

type fakeQuerier struct {
	gear      []db.Gear
	listCalls int
}

func (f *fakeQuerier) ListGear(_ context.Context, p db.ListGearParams) ([]db.Gear, error) {
	f.listCalls++
	var out []db.Gear
	for _, g := range f.gear {
		if p.Category != "" && g.Category != p.Category {
			continue
		}
		out = append(out, g)
	}
	return out, nil
}

func (f *fakeQuerier) CountGear(ctx context.Context, p db.ListGearParams) (int64, error) {
	rows, _ := f.ListGear(ctx, p)
	f.listCalls--
	return int64(len(rows)), nil
}

func (f *fakeQuerier) GetGearBySlug(_ context.Context, slug string) (db.Gear, error) {
	for _, g := range f.gear {
		if g.Slug == slug {
			return g, nil
		}
	}
	return db.Gear{}, pgx.ErrNoRows
}

func (f *fakeQuerier) GetGearByID(_ context.Context, id pgtype.UUID) (db.Gear, error) {
	for _, g := range f.gear {
		if db.UUIDEqual(g.ID, id) {
			return g, nil
		}
	}
	return db.Gear{}, pgx.ErrNoRows
}

func (f *fakeQuerier) ListRelatedGear(_ context.Context, category string, exclude pgtype.UUID, limit int32) ([]db.Gear, error) {
	var out []db.Gear
	for _, g := range f.gear {
		if g.Category == category && !db.UUIDEqual(g.ID, exclude) {
			out = append(out, g)
		}
		if len(out) == int(limit) {
			break
		}
	}
	return out, nil
}

func (f *fakeQuerier) ListGearCategories(context.Context) ([]string, error) {
	seen := map[string]bool{}
	var out []string
	for _, g := range f.gear {
		if !seen[g.Category] {
			seen[g.Category] = true
			out = append(out, g.Category)
		}
	}
	return out, nil
}

func mustUUID(t *testing.T, s string) pgtype.UUID {
	t.Helper()
	id, err := db.ToUUID(s)
	require.NoError(t, err)
	return id
}

func testGear(t *testing.T) []db.Gear {
	return []db.Gear{
		{
			ID: mustUUID(t, "aa0e8400-e29b-41d4-a716-446655440001"), Title: "Alpine Tent", Slug: "alpine-tent",
			Category: "tents", Availability: "both", InStock: true,
			RentPricePerDay: pgtype.Int8{Int64: 299, Valid: true},
			BuyPrice:        pgtype.Int8{Int64: 8999, Valid: true},
		},
		{
			ID: mustUUID(t, "aa0e8400-e29b-41d4-a716-446655440002"), Title: "Trekking Boots", Slug: "trekking-boots",
			Category: "footwear", Availability: "buy", InStock: true,
			BuyPrice: pgtype.Int8{Int64: 1899, Valid: true},
			Sizes:    []string{"8", "9", "10"},
		},
	}
}

func newTestHandlers(t *testing.T) (*Handlers, *fakeQuerier) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	q := &fakeQuerier{gear: testGear(t)}
	svc := &Service{
		Q:            q,
		Cache:        &cache.Cache{R: client},
		CacheTTL:     time.Minute,
		DefaultLimit: 20,
		MaxLimit:     100,
	}
	return &Handlers{Svc: svc, Log: zerolog.Nop()}, q
}

func TestListReturnsCatalogPage(t *testing.T) {
	h, _ := newTestHandlers(t)

	req := httptest.NewRequest(http.MethodGet, "/?category=tents", nil)
	rec := httptest.NewRecorder()
	h.Routes().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		Data ListResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Data.Items, 1)
	require.Equal(t, "alpine-tent", body.Data.Items[0].Slug)
	require.EqualValues(t, 1, body.Data.Total)
}

func TestListRejectsBadFilters(t *testing.T) {
	h, _ := newTestHandlers(t)

	for _, target := range []string{
		"/?availability=lease",
		"/?sort=cheapest",
		"/?minPrice=-5",
		"/?minPrice=100&maxPrice=50",
	} {
		req := httptest.NewRequest(http.MethodGet, target, nil)
		rec := httptest.NewRecorder()
		h.Routes().ServeHTTP(rec, req)
		require.Equal(t, http.StatusBadRequest, rec.Code, target)
	}
}

func TestListUsesCacheOnRepeat(t *testing.T) {
	h, q := newTestHandlers(t)

	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodGet, "/?category=tents", nil)
		rec := httptest.NewRecorder()
		h.Routes().ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code)
	}
	require.Equal(t, 1, q.listCalls)
}

func TestGetBySlug(t *testing.T) {
	h, _ := newTestHandlers(t)

	req := httptest.NewRequest(http.MethodGet, "/trekking-boots", nil)
	rec := httptest.NewRecorder()
	h.Routes().ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Data GearDetail `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, "Trekking Boots", body.Data.Title)
	require.Equal(t, []string{"8", "9", "10"}, body.Data.Sizes)

	req = httptest.NewRequest(http.MethodGet, "/no-such-gear", nil)
	rec = httptest.NewRecorder()
	h.Routes().ServeHTTP(rec, req)
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestLookupMapsGearForCart(t *testing.T) {
	h, _ := newTestHandlers(t)

	info, err := h.Svc.Lookup(context.Background(), "aa0e8400-e29b-41d4-a716-446655440002")
	require.NoError(t, err)
	require.Equal(t, "trekking-boots", info.Slug)
	require.EqualValues(t, 1899, info.BuyPrice)
	require.EqualValues(t, 0, info.RentPricePerDay)
	require.Equal(t, []string{"8", "9", "10"}, info.Sizes)

	_, err = h.Svc.Lookup(context.Background(), "not-a-uuid")
	require.ErrorIs(t, err, cart.ErrGearNotFound)

	_, err = h.Svc.Lookup(context.Background(), "aa0e8400-e29b-41d4-a716-446655449999")
	require.ErrorIs(t, err, cart.ErrGearNotFound)
}
