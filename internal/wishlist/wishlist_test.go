package wishlist

import (
	"context"
	"testing"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/backend-trek/internal/db"
)

const (
	testUser = "bb0e8400-e29b-41d4-a716-446655440001"
	testGear = "aa0e8400-e29b-41d4-a716-446655440001"
)

type memQuerier struct {
	saved map[string]db.Gear
}

func (m *memQuerier) keyOf(p db.WishlistParams) string {
	return db.UUIDString(p.UserID) + "/" + db.UUIDString(p.GearID)
}

func (m *memQuerier) AddWishlistItem(_ context.Context, p db.WishlistParams) error {
	if m.saved == nil {
		m.saved = map[string]db.Gear{}
	}
	m.saved[m.keyOf(p)] = db.Gear{ID: p.GearID, Title: "Alpine 2P Tent", Slug: "alpine-2p-tent"}
	return nil
}

func (m *memQuerier) RemoveWishlistItem(_ context.Context, p db.WishlistParams) error {
	delete(m.saved, m.keyOf(p))
	return nil
}

func (m *memQuerier) ListWishlistGear(_ context.Context, userID pgtype.UUID) ([]db.Gear, error) {
	prefix := db.UUIDString(userID) + "/"
	var out []db.Gear
	for k, g := range m.saved {
		if len(k) > len(prefix) && k[:len(prefix)] == prefix {
			out = append(out, g)
		}
	}
	return out, nil
}

func (m *memQuerier) CheckWishlistItem(_ context.Context, p db.WishlistParams) (bool, error) {
	_, ok := m.saved[m.keyOf(p)]
	return ok, nil
}

func TestAddListRemove(t *testing.T) {
	svc := &Service{Q: &memQuerier{}}
	ctx := context.Background()

	require.NoError(t, svc.Add(ctx, testUser, testGear))

	items, err := svc.List(ctx, testUser)
	require.NoError(t, err)
	require.Len(t, items, 1)
	require.Equal(t, "alpine-2p-tent", items[0].Slug)

	saved, err := svc.Check(ctx, testUser, testGear)
	require.NoError(t, err)
	require.True(t, saved)

	require.NoError(t, svc.Remove(ctx, testUser, testGear))
	saved, err = svc.Check(ctx, testUser, testGear)
	require.NoError(t, err)
	require.False(t, saved)
}

func TestRejectsMalformedIDs(t *testing.T) {
	svc := &Service{Q: &memQuerier{}}
	ctx := context.Background()

	require.ErrorIs(t, svc.Add(ctx, testUser, "not-a-uuid"), ErrBadGearID)
	require.ErrorIs(t, svc.Remove(ctx, "nope", testGear), ErrBadGearID)
	_, err := svc.Check(ctx, testUser, "nope")
	require.ErrorIs(t, err, ErrBadGearID)
	_, err = svc.List(ctx, "nope")
	require.ErrorIs(t, err, ErrBadGearID)
}
