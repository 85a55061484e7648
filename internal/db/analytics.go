package db

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"
)

// SalesDailyParams bounds the rollup: from inclusive, to exclusive.
type SalesDailyParams struct {
	From pgtype.Timestamptz
	To   pgtype.Timestamptz
}

// GetSalesDaily returns per-day order counts and revenue for non-cancelled
// orders in the window.
func (q *Queries) GetSalesDaily(ctx context.Context, p SalesDailyParams) ([]SalesDay, error) {
	rows, err := q.db.Query(ctx, `
		SELECT date_trunc('day', created_at) AS day,
		       COUNT(*) AS orders,
		       COALESCE(SUM(total), 0) AS revenue
		FROM orders
		WHERE created_at >= $1 AND created_at < $2 AND status <> 'CANCELLED'
		GROUP BY 1
		ORDER BY 1`,
		p.From, p.To,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []SalesDay
	for rows.Next() {
		var d SalesDay
		if err := rows.Scan(&d.Day, &d.Orders, &d.Revenue); err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

// GetTopGear ranks gear by units across rental and purchase lines.
func (q *Queries) GetTopGear(ctx context.Context, limit int32) ([]TopGearRow, error) {
	rows, err := q.db.Query(ctx, `
		SELECT i.gear_id, i.title, i.slug,
		       COALESCE(SUM(i.qty) FILTER (WHERE i.mode = 'rent'), 0) AS units_rent,
		       COALESCE(SUM(i.qty) FILTER (WHERE i.mode = 'buy'), 0) AS units_buy,
		       COALESCE(SUM(i.line_total), 0) AS revenue
		FROM order_items i
		JOIN orders o ON o.id = i.order_id
		WHERE o.status <> 'CANCELLED'
		GROUP BY i.gear_id, i.title, i.slug
		ORDER BY SUM(i.qty) DESC
		LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []TopGearRow
	for rows.Next() {
		var r TopGearRow
		if err := rows.Scan(&r.GearID, &r.Title, &r.Slug, &r.UnitsRent, &r.UnitsBuy, &r.Revenue); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// GetOverview summarises storefront totals for the admin dashboard.
func (q *Queries) GetOverview(ctx context.Context) (OverviewRow, error) {
	var o OverviewRow
	err := q.db.QueryRow(ctx, `
		SELECT COUNT(*),
		       COALESCE(SUM(total), 0),
		       COALESCE(SUM(rental_subtotal), 0),
		       COALESCE(SUM(purchase_subtotal), 0),
		       COALESCE(SUM(deposit), 0)
		FROM orders
		WHERE status <> 'CANCELLED'`,
	).Scan(&o.Orders, &o.Revenue, &o.RentalRevenue, &o.PurchaseRevenue, &o.DepositsHeld)
	return o, err
}
