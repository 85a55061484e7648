package db

import (
	"github.com/jackc/pgx/v5/pgtype"
)

// Gear is a catalog row. Rental and purchase prices are nullable because a
// piece of gear may be offered for rent only, purchase only, or both.
type Gear struct {
	ID             pgtype.UUID
	Title          string
	Slug           string
	Category       string
	Brand          pgtype.Text
	Description    pgtype.Text
	RentPricePerDay pgtype.Int8
	BuyPrice       pgtype.Int8
	Availability   string
	Sizes          []string
	Thumbnail      pgtype.Text
	InStock        bool
	CreatedAt      pgtype.Timestamptz
}

// Order is a placed order with its pricing breakdown snapshotted at checkout.
type Order struct {
	ID               pgtype.UUID
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
	CreatedAt        pgtype.Timestamptz
}

// OrderItem is one line of a placed order. For rentals the unit price is the
// per-day rate and the rental window is recorded for handover planning.
type OrderItem struct {
	ID           pgtype.UUID
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

// DomainEvent is a persisted event emitted by the platform.
type DomainEvent struct {
	ID          pgtype.UUID
	Topic       string
	AggregateID pgtype.UUID
	Payload     []byte
	OccurredAt  pgtype.Timestamptz
}

// SalesDay is one bucket of the daily sales rollup.
type SalesDay struct {
	Day     pgtype.Timestamptz
	Orders  int64
	Revenue int64
}

// TopGearRow ranks gear by ordered units.
type TopGearRow struct {
	GearID    pgtype.UUID
	Title     string
	Slug      string
	UnitsRent int64
	UnitsBuy  int64
	Revenue   int64
}

// OverviewRow summarises storefront performance.
type OverviewRow struct {
	Orders          int64
	Revenue         int64
	RentalRevenue   int64
	PurchaseRevenue int64
	DepositsHeld    int64
}
