package db

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
)

// WishlistParams identifies a shopper/gear pair.
type WishlistParams struct {
	UserID pgtype.UUID
	GearID pgtype.UUID
}

// AddWishlistItem records the gear on the shopper's wishlist. Adding an
// already-listed item is a no-op.
func (q *Queries) AddWishlistItem(ctx context.Context, p WishlistParams) error {
	_, err := q.db.Exec(ctx, `
		INSERT INTO wishlist_items (user_id, gear_id)
		VALUES ($1, $2)
		ON CONFLICT (user_id, gear_id) DO NOTHING`,
		p.UserID, p.GearID,
	)
	return err
}

// RemoveWishlistItem deletes the entry if present.
func (q *Queries) RemoveWishlistItem(ctx context.Context, p WishlistParams) error {
	_, err := q.db.Exec(ctx,
		"DELETE FROM wishlist_items WHERE user_id = $1 AND gear_id = $2",
		p.UserID, p.GearID,
	)
	return err
}

// ListWishlistGear returns the gear rows on the shopper's wishlist,
// most recently saved first.
func (q *Queries) ListWishlistGear(ctx context.Context, userID pgtype.UUID) ([]Gear, error) {
	rows, err := q.db.Query(ctx, `
		SELECT g.id, g.title, g.slug, g.category, g.brand, g.description,
		       g.rent_price_per_day, g.buy_price, g.availability, g.sizes,
		       g.thumbnail, g.in_stock, g.created_at
		FROM wishlist_items w
		JOIN gear g ON g.id = w.gear_id
		WHERE w.user_id = $1
		ORDER BY w.created_at DESC`,
		userID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanGearRows(rows)
}

// CheckWishlistItem reports whether the gear is on the shopper's wishlist.
func (q *Queries) CheckWishlistItem(ctx context.Context, p WishlistParams) (bool, error) {
	var one int
	err := q.db.QueryRow(ctx,
		"SELECT 1 FROM wishlist_items WHERE user_id = $1 AND gear_id = $2",
		p.UserID, p.GearID,
	).Scan(&one)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}
