package analytics

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/backend-trek/internal/cache"
	"github.com/noah-isme/backend-trek/internal/db"
)

type countingQuerier struct {
	salesCalls    int
	overviewCalls int
}

func (c *countingQuerier) GetSalesDaily(_ context.Context, p db.SalesDailyParams) ([]db.SalesDay, error) {
	c.salesCalls++
	return []db.SalesDay{
		{Day: pgtype.Timestamptz{Time: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), Valid: true}, Orders: 2, Revenue: 4200},
	}, nil
}

func (c *countingQuerier) GetTopGear(context.Context, int32) ([]db.TopGearRow, error) {
	return []db.TopGearRow{{Title: "Alpine Tent", Slug: "alpine-tent", UnitsRent: 7, Revenue: 6279}}, nil
}

func (c *countingQuerier) GetOverview(context.Context) (db.OverviewRow, error) {
	c.overviewCalls++
	return db.OverviewRow{Orders: 9, Revenue: 21000, RentalRevenue: 12000, PurchaseRevenue: 9000, DepositsHeld: 3600}, nil
}

func newTestAnalytics(t *testing.T) (*Service, *countingQuerier) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	q := &countingQuerier{}
	svc := &Service{
		Q:           q,
		Cache:       &cache.Cache{R: client},
		CacheTTL:    time.Minute,
		DefaultDays: 30,
		Now:         func() time.Time { return time.Date(2024, 1, 15, 12, 0, 0, 0, time.UTC) },
	}
	return svc, q
}

func TestSalesDailyCaches(t *testing.T) {
	svc, q := newTestAnalytics(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		points, err := svc.SalesDaily(ctx, 7)
		require.NoError(t, err)
		require.Len(t, points, 1)
		require.Equal(t, "2024-01-01", points[0].Day)
		require.EqualValues(t, 4200, points[0].Revenue)
	}
	require.Equal(t, 1, q.salesCalls)

	// a different window is a different cache entry
	_, err := svc.SalesDaily(ctx, 14)
	require.NoError(t, err)
	require.Equal(t, 2, q.salesCalls)
}

func TestOverviewCaches(t *testing.T) {
	svc, q := newTestAnalytics(t)
	ctx := context.Background()

	first, err := svc.Overview(ctx)
	require.NoError(t, err)
	second, err := svc.Overview(ctx)
	require.NoError(t, err)
	require.Equal(t, first, second)
	require.EqualValues(t, 9, first.Orders)
	require.Equal(t, 1, q.overviewCalls)
}

func TestTopGearClampsLimit(t *testing.T) {
	svc, _ := newTestAnalytics(t)
	rows, err := svc.TopGear(context.Background(), -3)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	require.Equal(t, "alpine-tent", rows[0].Slug)
}
