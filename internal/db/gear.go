package db

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
)

const gearColumns = `id, title, slug, category, brand, description, rent_price_per_day, buy_price, availability, sizes, thumbnail, in_stock, created_at`

// ListGearParams captures catalog filters. Zero values mean "no filter".
type ListGearParams struct {
	Query        string
	Category     string
	Availability string
	MinPrice     pgtype.Int8
	MaxPrice     pgtype.Int8
	InStockOnly  bool
	Sort         string
	Limit        int32
	Offset       int32
}

func gearFilterClauses(p ListGearParams, args *[]any) []string {
	clauses := []string{"1=1"}
	add := func(clause string, value any) {
		*args = append(*args, value)
		clauses = append(clauses, fmt.Sprintf(clause, len(*args)))
	}
	if strings.TrimSpace(p.Query) != "" {
		add("title ILIKE '%%' || $%d || '%%'", strings.TrimSpace(p.Query))
	}
	if p.Category != "" {
		add("category = $%d", p.Category)
	}
	if p.Availability != "" {
		add("(availability = $%d OR availability = 'both')", p.Availability)
	}
	if p.MinPrice.Valid {
		add("COALESCE(buy_price, rent_price_per_day, 0) >= $%d", p.MinPrice.Int64)
	}
	if p.MaxPrice.Valid {
		add("COALESCE(buy_price, rent_price_per_day, 0) <= $%d", p.MaxPrice.Int64)
	}
	if p.InStockOnly {
		clauses = append(clauses, "in_stock = TRUE")
	}
	return clauses
}

func gearOrderBy(sort string) string {
	switch sort {
	case "price_asc":
		return "COALESCE(buy_price, rent_price_per_day, 0) ASC, title ASC"
	case "price_desc":
		return "COALESCE(buy_price, rent_price_per_day, 0) DESC, title ASC"
	case "newest":
		return "created_at DESC"
	case "title":
		return "title ASC"
	default:
		return "created_at DESC"
	}
}

// ListGear returns a filtered, sorted catalog page.
func (q *Queries) ListGear(ctx context.Context, p ListGearParams) ([]Gear, error) {
	var args []any
	clauses := gearFilterClauses(p, &args)
	args = append(args, p.Limit, p.Offset)
	sql := fmt.Sprintf(
		"SELECT %s FROM gear WHERE %s ORDER BY %s LIMIT $%d OFFSET $%d",
		gearColumns, strings.Join(clauses, " AND "), gearOrderBy(p.Sort), len(args)-1, len(args),
	)
	rows, err := q.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanGearRows(rows)
}

// CountGear returns the number of catalog rows matching the filters.
func (q *Queries) CountGear(ctx context.Context, p ListGearParams) (int64, error) {
	var args []any
	clauses := gearFilterClauses(p, &args)
	sql := fmt.Sprintf("SELECT COUNT(*) FROM gear WHERE %s", strings.Join(clauses, " AND "))
	var total int64
	if err := q.db.QueryRow(ctx, sql, args...).Scan(&total); err != nil {
		return 0, err
	}
	return total, nil
}

// GetGearBySlug loads a single catalog row by its slug.
func (q *Queries) GetGearBySlug(ctx context.Context, slug string) (Gear, error) {
	sql := fmt.Sprintf("SELECT %s FROM gear WHERE slug = $1", gearColumns)
	return scanGear(q.db.QueryRow(ctx, sql, slug))
}

// GetGearByID loads a single catalog row by id.
func (q *Queries) GetGearByID(ctx context.Context, id pgtype.UUID) (Gear, error) {
	sql := fmt.Sprintf("SELECT %s FROM gear WHERE id = $1", gearColumns)
	return scanGear(q.db.QueryRow(ctx, sql, id))
}

// ListRelatedGear returns other gear in the same category.
func (q *Queries) ListRelatedGear(ctx context.Context, category string, exclude pgtype.UUID, limit int32) ([]Gear, error) {
	sql := fmt.Sprintf(
		"SELECT %s FROM gear WHERE category = $1 AND id <> $2 AND in_stock = TRUE ORDER BY created_at DESC LIMIT $3",
		gearColumns,
	)
	rows, err := q.db.Query(ctx, sql, category, exclude, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanGearRows(rows)
}

// ListGearCategories returns the distinct categories present in the catalog.
func (q *Queries) ListGearCategories(ctx context.Context) ([]string, error) {
	rows, err := q.db.Query(ctx, "SELECT DISTINCT category FROM gear ORDER BY category")
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []string
	for rows.Next() {
		var c string
		if err := rows.Scan(&c); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func scanGear(row pgx.Row) (Gear, error) {
	var g Gear
	err := row.Scan(
		&g.ID, &g.Title, &g.Slug, &g.Category, &g.Brand, &g.Description,
		&g.RentPricePerDay, &g.BuyPrice, &g.Availability, &g.Sizes,
		&g.Thumbnail, &g.InStock, &g.CreatedAt,
	)
	return g, err
}

func scanGearRows(rows pgx.Rows) ([]Gear, error) {
	var out []Gear
	for rows.Next() {
		var g Gear
		if err := rows.Scan(
			&g.ID, &g.Title, &g.Slug, &g.Category, &g.Brand, &g.Description,
			&g.RentPricePerDay, &g.BuyPrice, &g.Availability, &g.Sizes,
			&g.Thumbnail, &g.InStock, &g.CreatedAt,
		); err != nil {
			return nil, err
		}
		out = append(out, g)
	}
	return out, rows.Err()
}
