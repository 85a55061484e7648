package db

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"
)

const orderColumns = `id, user_id, cart_id, status, currency, rental_subtotal, purchase_subtotal, deposit, delivery_charge, protection_charge, total, delivery_method, contact, address, created_at`

// CreateOrderParams carries the snapshot produced by the checkout totalizer.
type CreateOrderParams struct {
	UserID           pgtype.UUID
	CartID           string
	Status           string
	Currency         string
	RentalSubtotal   int64
	PurchaseSubtotal int64
	Deposit          int64
	DeliveryCharge   int64
	ProtectionCharge int64
	Total            int64
	DeliveryMethod   string
	Contact          []byte
	Address          []byte
}

// CreateOrder inserts an order and returns the stored row.
func (q *Queries) CreateOrder(ctx context.Context, p CreateOrderParams) (Order, error) {
	row := q.db.QueryRow(ctx, `
		INSERT INTO orders (
			user_id, cart_id, status, currency,
			rental_subtotal, purchase_subtotal, deposit,
			delivery_charge, protection_charge, total,
			delivery_method, contact, address
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)
		RETURNING `+orderColumns,
		p.UserID, p.CartID, p.Status, p.Currency,
		p.RentalSubtotal, p.PurchaseSubtotal, p.Deposit,
		p.DeliveryCharge, p.ProtectionCharge, p.Total,
		p.DeliveryMethod, p.Contact, p.Address,
	)
	return scanOrder(row)
}

// CreateOrderItemParams is one checkout line flattened for persistence.
type CreateOrderItemParams struct {
	OrderID      pgtype.UUID
	GearID       pgtype.UUID
	Title        string
	Slug         string
	Mode         string
	Qty          int32
	UnitPrice    int64
	DurationDays int32
	Size         pgtype.Text
	StartDate    pgtype.Timestamptz
	EndDate      pgtype.Timestamptz
	LineTotal    int64
	Deposit      int64
}

// CreateOrderItem inserts a single order line.
func (q *Queries) CreateOrderItem(ctx context.Context, p CreateOrderItemParams) error {
	_, err := q.db.Exec(ctx, `
		INSERT INTO order_items (
			order_id, gear_id, title, slug, mode, qty, unit_price,
			duration_days, size, start_date, end_date, line_total, deposit
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)`,
		p.OrderID, p.GearID, p.Title, p.Slug, p.Mode, p.Qty, p.UnitPrice,
		p.DurationDays, p.Size, p.StartDate, p.EndDate, p.LineTotal, p.Deposit,
	)
	return err
}

// ListOrdersForUserParams pages a shopper's order history.
type ListOrdersForUserParams struct {
	UserID pgtype.UUID
	Limit  int32
	Offset int32
}

// ListOrdersForUser returns a shopper's orders newest first.
func (q *Queries) ListOrdersForUser(ctx context.Context, p ListOrdersForUserParams) ([]Order, error) {
	rows, err := q.db.Query(ctx,
		"SELECT "+orderColumns+" FROM orders WHERE user_id = $1 ORDER BY created_at DESC LIMIT $2 OFFSET $3",
		p.UserID, p.Limit, p.Offset,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Order
	for rows.Next() {
		o, err := scanOrderValues(rows.Scan)
		if err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

// CountOrdersForUser returns the shopper's total order count.
func (q *Queries) CountOrdersForUser(ctx context.Context, userID pgtype.UUID) (int64, error) {
	var total int64
	err := q.db.QueryRow(ctx, "SELECT COUNT(*) FROM orders WHERE user_id = $1", userID).Scan(&total)
	return total, err
}

// GetOrderForUserParams scopes a lookup to the owning shopper.
type GetOrderForUserParams struct {
	ID     pgtype.UUID
	UserID pgtype.UUID
}

// GetOrderForUser loads one order owned by the shopper.
func (q *Queries) GetOrderForUser(ctx context.Context, p GetOrderForUserParams) (Order, error) {
	row := q.db.QueryRow(ctx,
		"SELECT "+orderColumns+" FROM orders WHERE id = $1 AND user_id = $2",
		p.ID, p.UserID,
	)
	return scanOrder(row)
}

// ListOrderItems returns the lines of one order.
func (q *Queries) ListOrderItems(ctx context.Context, orderID pgtype.UUID) ([]OrderItem, error) {
	rows, err := q.db.Query(ctx, `
		SELECT id, order_id, gear_id, title, slug, mode, qty, unit_price,
		       duration_days, size, start_date, end_date, line_total, deposit
		FROM order_items WHERE order_id = $1 ORDER BY id`,
		orderID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []OrderItem
	for rows.Next() {
		var it OrderItem
		if err := rows.Scan(
			&it.ID, &it.OrderID, &it.GearID, &it.Title, &it.Slug, &it.Mode,
			&it.Qty, &it.UnitPrice, &it.DurationDays, &it.Size,
			&it.StartDate, &it.EndDate, &it.LineTotal, &it.Deposit,
		); err != nil {
			return nil, err
		}
		out = append(out, it)
	}
	return out, rows.Err()
}

// UpdateOrderStatusParams patches an order status from the back office.
type UpdateOrderStatusParams struct {
	ID     pgtype.UUID
	Status string
}

// UpdateOrderStatus sets the order status unconditionally (admin operation).
func (q *Queries) UpdateOrderStatus(ctx context.Context, p UpdateOrderStatusParams) (Order, error) {
	row := q.db.QueryRow(ctx,
		"UPDATE orders SET status = $2 WHERE id = $1 RETURNING "+orderColumns,
		p.ID, p.Status,
	)
	return scanOrder(row)
}

// CancelOrderParams scopes a cancellation to the owning shopper.
type CancelOrderParams struct {
	ID     pgtype.UUID
	UserID pgtype.UUID
}

// CancelOrder marks a still-cancellable order as cancelled and reports
// whether a row was affected.
func (q *Queries) CancelOrder(ctx context.Context, p CancelOrderParams) (bool, error) {
	tag, err := q.db.Exec(ctx,
		"UPDATE orders SET status = 'CANCELLED' WHERE id = $1 AND user_id = $2 AND status = 'PLACED'",
		p.ID, p.UserID,
	)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func scanOrder(row interface{ Scan(...any) error }) (Order, error) {
	return scanOrderValues(row.Scan)
}

func scanOrderValues(scan func(...any) error) (Order, error) {
	var o Order
	err := scan(
		&o.ID, &o.UserID, &o.CartID, &o.Status, &o.Currency,
		&o.RentalSubtotal, &o.PurchaseSubtotal, &o.Deposit,
		&o.DeliveryCharge, &o.ProtectionCharge, &o.Total,
		&o.DeliveryMethod, &o.Contact, &o.Address, &o.CreatedAt,
	)
	return o, err
}
