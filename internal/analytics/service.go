package analytics

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgtype"

	"github.com/noah-isme/backend-trek/internal/cache"
	"github.com/noah-isme/backend-trek/internal/db"
)

type querier interface {
	GetSalesDaily(ctx context.Context, p db.SalesDailyParams) ([]db.SalesDay, error)
	GetTopGear(ctx context.Context, limit int32) ([]db.TopGearRow, error)
	GetOverview(ctx context.Context) (db.OverviewRow, error)
}

// SalesPoint is one day of the sales rollup.
type SalesPoint struct {
	Day     string `json:"day"`
	Orders  int64  `json:"orders"`
	Revenue int64  `json:"revenue"`
}

// TopGear ranks one catalog item by ordered units.
type TopGear struct {
	GearID    string `json:"gearId"`
	Title     string `json:"title"`
	Slug      string `json:"slug"`
	UnitsRent int64  `json:"unitsRent"`
	UnitsBuy  int64  `json:"unitsBuy"`
	Revenue   int64  `json:"revenue"`
}

// Overview summarises storefront performance for the dashboard header.
type Overview struct {
	Orders          int64 `json:"orders"`
	Revenue         int64 `json:"revenue"`
	RentalRevenue   int64 `json:"rentalRevenue"`
	PurchaseRevenue int64 `json:"purchaseRevenue"`
	DepositsHeld    int64 `json:"depositsHeld"`
}

// Service serves back-office reports with a short Redis cache in front of the
// aggregate queries.
type Service struct {
	Q           querier
	Cache       *cache.Cache
	CacheTTL    time.Duration
	DefaultDays int
	Now         func() time.Time
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// SalesDaily returns per-day order counts and revenue for the last `days`
// days, cancelled orders excluded.
func (s *Service) SalesDaily(ctx context.Context, days int) ([]SalesPoint, error) {
	if days <= 0 {
		days = s.DefaultDays
	}
	if days <= 0 {
		days = 30
	}
	key := fmt.Sprintf("analytics:sales:%d", days)
	if s.Cache != nil {
		var cached []SalesPoint
		if hit, err := s.Cache.GetJSON(ctx, key, &cached); err == nil && hit {
			return cached, nil
		}
	}

	to := s.now().UTC().Truncate(24 * time.Hour).Add(24 * time.Hour)
	from := to.AddDate(0, 0, -days)
	rows, err := s.Q.GetSalesDaily(ctx, db.SalesDailyParams{
		From: pgtype.Timestamptz{Time: from, Valid: true},
		To:   pgtype.Timestamptz{Time: to, Valid: true},
	})
	if err != nil {
		return nil, err
	}
	out := make([]SalesPoint, 0, len(rows))
	for _, r := range rows {
		out = append(out, SalesPoint{
			Day:     r.Day.Time.Format("2006-01-02"),
			Orders:  r.Orders,
			Revenue: r.Revenue,
		})
	}
	if s.Cache != nil {
		_ = s.Cache.SetJSON(ctx, key, out, s.CacheTTL)
	}
	return out, nil
}

// TopGear ranks gear by units across all non-cancelled orders.
func (s *Service) TopGear(ctx context.Context, limit int) ([]TopGear, error) {
	if limit <= 0 || limit > 50 {
		limit = 10
	}
	key := fmt.Sprintf("analytics:topgear:%d", limit)
	if s.Cache != nil {
		var cached []TopGear
		if hit, err := s.Cache.GetJSON(ctx, key, &cached); err == nil && hit {
			return cached, nil
		}
	}
	rows, err := s.Q.GetTopGear(ctx, int32(limit))
	if err != nil {
		return nil, err
	}
	out := make([]TopGear, 0, len(rows))
	for _, r := range rows {
		out = append(out, TopGear{
			GearID:    db.UUIDString(r.GearID),
			Title:     r.Title,
			Slug:      r.Slug,
			UnitsRent: r.UnitsRent,
			UnitsBuy:  r.UnitsBuy,
			Revenue:   r.Revenue,
		})
	}
	if s.Cache != nil {
		_ = s.Cache.SetJSON(ctx, key, out, s.CacheTTL)
	}
	return out, nil
}

// Overview returns the all-time storefront summary.
func (s *Service) Overview(ctx context.Context) (Overview, error) {
	key := "analytics:overview"
	if s.Cache != nil {
		var cached Overview
		if hit, err := s.Cache.GetJSON(ctx, key, &cached); err == nil && hit {
			return cached, nil
		}
	}
	row, err := s.Q.GetOverview(ctx)
	if err != nil {
		return Overview{}, err
	}
	out := Overview{
		Orders:          row.Orders,
		Revenue:         row.Revenue,
		RentalRevenue:   row.RentalRevenue,
		PurchaseRevenue: row.PurchaseRevenue,
		DepositsHeld:    row.DepositsHeld,
	}
	if s.Cache != nil {
		_ = s.Cache.SetJSON(ctx, key, out, s.CacheTTL)
	}
	return out, nil
}
