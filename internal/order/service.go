package order

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/noah-isme/backend-trek/internal/db"
	"github.com/noah-isme/backend-trek/internal/events"
)

var (
	// ErrNotFound means the order does not exist or belongs to someone else.
	ErrNotFound = errors.New("order not found")
	// ErrNotCancellable means the order left the PLACED state already.
	ErrNotCancellable = errors.New("order can no longer be cancelled")
	// ErrBadStatus rejects unknown admin status values.
	ErrBadStatus = errors.New("unknown order status")
)

// Statuses an order moves through. PLACED is the only cancellable state.
var validStatuses = map[string]bool{
	"PLACED":    true,
	"CONFIRMED": true,
	"SHIPPED":   true,
	"COMPLETED": true,
	"CANCELLED": true,
}

type querier interface {
	ListOrdersForUser(ctx context.Context, p db.ListOrdersForUserParams) ([]db.Order, error)
	CountOrdersForUser(ctx context.Context, userID pgtype.UUID) (int64, error)
	GetOrderForUser(ctx context.Context, p db.GetOrderForUserParams) (db.Order, error)
	ListOrderItems(ctx context.Context, orderID pgtype.UUID) ([]db.OrderItem, error)
	UpdateOrderStatus(ctx context.Context, p db.UpdateOrderStatusParams) (db.Order, error)
	CancelOrder(ctx context.Context, p db.CancelOrderParams) (bool, error)
}

// Item is one order line as returned to clients.
type Item struct {
	GearID       string     `json:"gearId"`
	Title        string     `json:"title"`
	Slug         string     `json:"slug"`
	Mode         string     `json:"mode"`
	Qty          int32      `json:"qty"`
	UnitPrice    int64      `json:"unitPrice"`
	DurationDays int32      `json:"durationDays,omitempty"`
	Size         string     `json:"size,omitempty"`
	StartDate    *time.Time `json:"startDate,omitempty"`
	EndDate      *time.Time `json:"endDate,omitempty"`
	LineTotal    int64      `json:"lineTotal"`
	Deposit      int64      `json:"deposit"`
}

// Summary is the order header shape for list endpoints.
type Summary struct {
	ID               string    `json:"id"`
	Status           string    `json:"status"`
	Currency         string    `json:"currency"`
	RentalSubtotal   int64     `json:"rentalSubtotal"`
	PurchaseSubtotal int64     `json:"purchaseSubtotal"`
	Deposit          int64     `json:"deposit"`
	DeliveryCharge   int64     `json:"deliveryCharge"`
	ProtectionCharge int64     `json:"protectionCharge"`
	Total            int64     `json:"totalToPay"`
	DeliveryMethod   string    `json:"deliveryMethod"`
	CreatedAt        time.Time `json:"createdAt"`
}

// Detail is a full order with its lines and delivery snapshot.
type Detail struct {
	Summary
	Items   []Item          `json:"items"`
	Contact json.RawMessage `json:"contact,omitempty"`
	Address json.RawMessage `json:"address,omitempty"`
}

// Page is one page of a shopper's order history.
type Page struct {
	Orders []Summary `json:"orders"`
	Total  int64     `json:"total"`
	Limit  int       `json:"limit"`
	Offset int       `json:"offset"`
}

// Service reads and mutates placed orders.
type Service struct {
	Q   querier
	Bus *events.Bus
}

// ListForUser pages the shopper's order history, newest first.
func (s *Service) ListForUser(ctx context.Context, userID string, limit, offset int) (Page, error) {
	uid, err := db.ToUUID(userID)
	if err != nil {
		return Page{}, ErrNotFound
	}
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	rows, err := s.Q.ListOrdersForUser(ctx, db.ListOrdersForUserParams{
		UserID: uid, Limit: int32(limit), Offset: int32(offset),
	})
	if err != nil {
		return Page{}, err
	}
	total, err := s.Q.CountOrdersForUser(ctx, uid)
	if err != nil {
		return Page{}, err
	}
	page := Page{Orders: make([]Summary, 0, len(rows)), Total: total, Limit: limit, Offset: offset}
	for _, o := range rows {
		page.Orders = append(page.Orders, toSummary(o))
	}
	return page, nil
}

// GetForUser loads one order with its lines, scoped to the owner.
func (s *Service) GetForUser(ctx context.Context, userID, orderID string) (Detail, error) {
	uid, err := db.ToUUID(userID)
	if err != nil {
		return Detail{}, ErrNotFound
	}
	oid, err := db.ToUUID(orderID)
	if err != nil {
		return Detail{}, ErrNotFound
	}
	o, err := s.Q.GetOrderForUser(ctx, db.GetOrderForUserParams{ID: oid, UserID: uid})
	if errors.Is(err, pgx.ErrNoRows) {
		return Detail{}, ErrNotFound
	}
	if err != nil {
		return Detail{}, err
	}
	items, err := s.Q.ListOrderItems(ctx, o.ID)
	if err != nil {
		return Detail{}, err
	}
	detail := Detail{
		Summary: toSummary(o),
		Items:   make([]Item, 0, len(items)),
		Contact: o.Contact,
		Address: o.Address,
	}
	for _, it := range items {
		detail.Items = append(detail.Items, toItem(it))
	}
	return detail, nil
}

// Cancel marks a still-PLACED order as cancelled and emits the event.
func (s *Service) Cancel(ctx context.Context, userID, orderID string) error {
	uid, err := db.ToUUID(userID)
	if err != nil {
		return ErrNotFound
	}
	oid, err := db.ToUUID(orderID)
	if err != nil {
		return ErrNotFound
	}
	// Row must exist and belong to the shopper before we judge cancellability.
	if _, err := s.Q.GetOrderForUser(ctx, db.GetOrderForUserParams{ID: oid, UserID: uid}); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrNotFound
		}
		return err
	}
	ok, err := s.Q.CancelOrder(ctx, db.CancelOrderParams{ID: oid, UserID: uid})
	if err != nil {
		return err
	}
	if !ok {
		return ErrNotCancellable
	}
	if s.Bus != nil {
		_ = s.Bus.Publish(ctx, events.Event{
			Topic:       events.TopicOrderCancelled,
			AggregateID: orderID,
			Payload:     map[string]string{"orderId": orderID, "userId": userID},
		})
	}
	return nil
}

// SetStatus patches an order status from the back office.
func (s *Service) SetStatus(ctx context.Context, orderID, status string) (Summary, error) {
	if !validStatuses[status] {
		return Summary{}, ErrBadStatus
	}
	oid, err := db.ToUUID(orderID)
	if err != nil {
		return Summary{}, ErrNotFound
	}
	o, err := s.Q.UpdateOrderStatus(ctx, db.UpdateOrderStatusParams{ID: oid, Status: status})
	if errors.Is(err, pgx.ErrNoRows) {
		return Summary{}, ErrNotFound
	}
	if err != nil {
		return Summary{}, err
	}
	if s.Bus != nil {
		_ = s.Bus.Publish(ctx, events.Event{
			Topic:       events.TopicOrderStatusChanged,
			AggregateID: orderID,
			Payload:     map[string]string{"orderId": orderID, "status": status},
		})
	}
	return toSummary(o), nil
}

func toSummary(o db.Order) Summary {
	return Summary{
		ID:               db.UUIDString(o.ID),
		Status:           o.Status,
		Currency:         o.Currency,
		RentalSubtotal:   o.RentalSubtotal,
		PurchaseSubtotal: o.PurchaseSubtotal,
		Deposit:          o.Deposit,
		DeliveryCharge:   o.DeliveryCharge,
		ProtectionCharge: o.ProtectionCharge,
		Total:            o.Total,
		DeliveryMethod:   o.DeliveryMethod,
		CreatedAt:        o.CreatedAt.Time,
	}
}

func toItem(it db.OrderItem) Item {
	item := Item{
		GearID:       db.UUIDString(it.GearID),
		Title:        it.Title,
		Slug:         it.Slug,
		Mode:         it.Mode,
		Qty:          it.Qty,
		UnitPrice:    it.UnitPrice,
		DurationDays: it.DurationDays,
		Size:         it.Size.String,
		LineTotal:    it.LineTotal,
		Deposit:      it.Deposit,
	}
	if it.StartDate.Valid {
		start := it.StartDate.Time
		item.StartDate = &start
	}
	if it.EndDate.Valid {
		end := it.EndDate.Time
		item.EndDate = &end
	}
	return item
}
