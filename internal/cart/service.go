package cart

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/noah-isme/backend-trek/internal/pricing"
)

var (
	// ErrGearNotFound means the referenced catalog item does not exist.
	ErrGearNotFound = errors.New("gear not found")
	// ErrModeUnavailable means the requested mode conflicts with the item's availability.
	ErrModeUnavailable = errors.New("mode not available for item")
	// ErrSizeRequired means the item defines sizes and none was chosen.
	ErrSizeRequired = errors.New("size selection required")
	// ErrInvalidInput covers malformed mode, quantity or rental window on add.
	ErrInvalidInput = errors.New("invalid cart input")
)

// GearInfo is the catalog snapshot the cart needs to validate and price an add.
type GearInfo struct {
	ID              string
	Title           string
	Slug            string
	RentPricePerDay pricing.Money
	BuyPrice        pricing.Money
	Availability    string // "rent", "buy", "both" or "" (treated as both)
	Sizes           []string
	InStock         bool
}

// CatalogReader resolves catalog items for add-to-cart validation.
type CatalogReader interface {
	Lookup(ctx context.Context, gearID string) (GearInfo, error)
}

// LineItem is one cart entry. Adding the same gear twice creates two entries;
// the unit price is snapshotted at add time and never re-read from the catalog.
type LineItem struct {
	ID           string        `json:"id"`
	GearID       string        `json:"gearId"`
	Title        string        `json:"title"`
	Slug         string        `json:"slug"`
	Mode         pricing.Mode  `json:"mode"`
	UnitPrice    pricing.Money `json:"unitPrice"`
	Qty          int           `json:"qty"`
	DurationDays int           `json:"durationDays,omitempty"`
	Size         string        `json:"size,omitempty"`
	StartDate    *time.Time    `json:"startDate,omitempty"`
	EndDate      *time.Time    `json:"endDate,omitempty"`
	AddedAt      time.Time     `json:"addedAt"`
}

// Document is the durable cart state, insertion order preserved.
type Document struct {
	ID        string     `json:"id"`
	Items     []LineItem `json:"items"`
	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt time.Time  `json:"updatedAt"`
}

// Count sums quantity across all entries, matching a cart-badge display.
func (d Document) Count() int {
	total := 0
	for _, it := range d.Items {
		total += it.Qty
	}
	return total
}

// Lines converts entries matching the filter into pricing lines.
func (d Document) Lines(f pricing.Filter) []pricing.Line {
	out := make([]pricing.Line, 0, len(d.Items))
	for _, it := range d.Items {
		if !f.Matches(it.Mode) {
			continue
		}
		out = append(out, pricing.Line{
			Mode:         it.Mode,
			UnitPrice:    it.UnitPrice,
			Qty:          it.Qty,
			DurationDays: it.DurationDays,
		})
	}
	return out
}

// Find returns a pointer into Items for the given entry id, or nil.
func (d *Document) Find(itemID string) *LineItem {
	for i := range d.Items {
		if d.Items[i].ID == itemID {
			return &d.Items[i]
		}
	}
	return nil
}

// AddItemInput carries a confirmed add-to-cart action.
type AddItemInput struct {
	GearID    string
	Mode      string
	Qty       int
	Size      string
	StartDate time.Time
	EndDate   time.Time
}

// Service owns cart mutation and aggregation. Every mutation writes through
// the store before returning.
type Service struct {
	Store      *RedisStore
	Catalog    CatalogReader
	DepositBps int
	Now        func() time.Time
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// Get loads the cart, returning an empty document for a cart that was never
// written.
func (s *Service) Get(ctx context.Context, cartID string) (Document, error) {
	doc, found, err := s.Store.Load(ctx, cartID)
	if err != nil {
		return Document{}, err
	}
	if !found {
		now := s.now()
		return Document{ID: cartID, Items: []LineItem{}, CreatedAt: now, UpdatedAt: now}, nil
	}
	return doc, nil
}

// AddItem validates the candidate against the catalog, appends a new entry
// and persists the cart. A rejection leaves the stored cart untouched.
func (s *Service) AddItem(ctx context.Context, cartID string, in AddItemInput) (Document, LineItem, error) {
	mode := pricing.Mode(in.Mode)
	if mode != pricing.ModeRent && mode != pricing.ModeBuy {
		return Document{}, LineItem{}, ErrInvalidInput
	}
	if in.Qty < 1 {
		return Document{}, LineItem{}, ErrInvalidInput
	}

	gear, err := s.Catalog.Lookup(ctx, in.GearID)
	if err != nil {
		return Document{}, LineItem{}, err
	}

	var unitPrice pricing.Money
	switch mode {
	case pricing.ModeRent:
		if !availabilityAllows(gear.Availability, pricing.ModeRent) || gear.RentPricePerDay <= 0 {
			return Document{}, LineItem{}, ErrModeUnavailable
		}
		unitPrice = gear.RentPricePerDay
	case pricing.ModeBuy:
		if !availabilityAllows(gear.Availability, pricing.ModeBuy) || gear.BuyPrice <= 0 {
			return Document{}, LineItem{}, ErrModeUnavailable
		}
		unitPrice = gear.BuyPrice
	}

	if len(gear.Sizes) > 0 {
		if in.Size == "" {
			return Document{}, LineItem{}, ErrSizeRequired
		}
		if !containsSize(gear.Sizes, in.Size) {
			return Document{}, LineItem{}, ErrInvalidInput
		}
	}

	item := LineItem{
		ID:        uuid.NewString(),
		GearID:    gear.ID,
		Title:     gear.Title,
		Slug:      gear.Slug,
		Mode:      mode,
		UnitPrice: unitPrice,
		Qty:       in.Qty,
		Size:      in.Size,
		AddedAt:   s.now(),
	}
	if mode == pricing.ModeRent {
		if in.StartDate.IsZero() || in.EndDate.IsZero() {
			return Document{}, LineItem{}, ErrInvalidInput
		}
		start, end := in.StartDate, in.EndDate
		item.DurationDays = pricing.RentalDays(start, end)
		item.StartDate = &start
		item.EndDate = &end
	}

	doc, err := s.Get(ctx, cartID)
	if err != nil {
		return Document{}, LineItem{}, err
	}
	doc.Items = append(doc.Items, item)
	doc.UpdatedAt = s.now()
	if err := s.Store.Save(ctx, doc); err != nil {
		return Document{}, LineItem{}, err
	}
	return doc, item, nil
}

// UpdateQty sets the quantity of an entry. A target below 1 is a deliberate
// no-op rather than an error, matching decrement buttons that stop at 1.
// An absent entry id is also a no-op.
func (s *Service) UpdateQty(ctx context.Context, cartID, itemID string, qty int) (Document, error) {
	doc, err := s.Get(ctx, cartID)
	if err != nil {
		return Document{}, err
	}
	if qty < 1 {
		return doc, nil
	}
	item := doc.Find(itemID)
	if item == nil {
		return doc, nil
	}
	item.Qty = qty
	doc.UpdatedAt = s.now()
	if err := s.Store.Save(ctx, doc); err != nil {
		return Document{}, err
	}
	return doc, nil
}

// RemoveItem drops the entry with the given id; absent ids are a no-op.
func (s *Service) RemoveItem(ctx context.Context, cartID, itemID string) (Document, error) {
	doc, err := s.Get(ctx, cartID)
	if err != nil {
		return Document{}, err
	}
	kept := doc.Items[:0]
	removed := false
	for _, it := range doc.Items {
		if it.ID == itemID {
			removed = true
			continue
		}
		kept = append(kept, it)
	}
	if !removed {
		return doc, nil
	}
	doc.Items = kept
	doc.UpdatedAt = s.now()
	if err := s.Store.Save(ctx, doc); err != nil {
		return Document{}, err
	}
	return doc, nil
}

// RemoveItems drops every entry whose id appears in ids. Used by checkout
// confirmation to consume the purchased selection.
func (s *Service) RemoveItems(ctx context.Context, cartID string, ids []string) (Document, error) {
	doc, err := s.Get(ctx, cartID)
	if err != nil {
		return Document{}, err
	}
	drop := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		drop[id] = struct{}{}
	}
	kept := doc.Items[:0]
	removed := false
	for _, it := range doc.Items {
		if _, ok := drop[it.ID]; ok {
			removed = true
			continue
		}
		kept = append(kept, it)
	}
	if !removed {
		return doc, nil
	}
	doc.Items = kept
	doc.UpdatedAt = s.now()
	if err := s.Store.Save(ctx, doc); err != nil {
		return Document{}, err
	}
	return doc, nil
}

// Clear discards all entries and the stored document.
func (s *Service) Clear(ctx context.Context, cartID string) error {
	return s.Store.Delete(ctx, cartID)
}

// Totals recomputes aggregate pricing from the current cart state for the
// given filter. Nothing is maintained incrementally.
func (s *Service) Totals(ctx context.Context, cartID string, f pricing.Filter) (pricing.Totals, error) {
	doc, err := s.Get(ctx, cartID)
	if err != nil {
		return pricing.Totals{}, err
	}
	return pricing.ComputeTotals(doc.Lines(pricing.FilterAll), f, s.DepositBps), nil
}

func availabilityAllows(availability string, mode pricing.Mode) bool {
	switch availability {
	case "", "both":
		return true
	case "rent":
		return mode == pricing.ModeRent
	case "buy":
		return mode == pricing.ModeBuy
	default:
		return false
	}
}

func containsSize(values []string, want string) bool {
	for _, v := range values {
		if v == want {
			return true
		}
	}
	return false
}
