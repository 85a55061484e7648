package checkout

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/noah-isme/backend-trek/internal/cart"
	"github.com/noah-isme/backend-trek/internal/db"
	"github.com/noah-isme/backend-trek/internal/events"
	"github.com/noah-isme/backend-trek/internal/obs"
	"github.com/noah-isme/backend-trek/internal/pricing"
)

var (
	// ErrEmptySelection blocks advancing past summary with nothing selected.
	ErrEmptySelection = errors.New("checkout selection is empty")
	// ErrIncompleteDelivery means required contact or address fields are missing.
	ErrIncompleteDelivery = errors.New("incomplete delivery details")
	// ErrIncompletePayment means no valid payment method was supplied.
	ErrIncompletePayment = errors.New("incomplete payment details")
	// ErrSessionComplete is returned for any transition on a confirmed session.
	ErrSessionComplete = errors.New("checkout session already confirmed")
	// ErrInvalidTransition covers navigation the state machine does not allow.
	ErrInvalidTransition = errors.New("invalid checkout transition")
)

// DeliveryInput is the payload for the summary -> delivery -> payment leg.
type DeliveryInput struct {
	Method           string `json:"method" validate:"omitempty,oneof=home pickup"`
	Name             string `json:"name"`
	Phone            string `json:"phone"`
	AddressLine      string `json:"addressLine"`
	City             string `json:"city"`
	PostalCode       string `json:"postalCode"`
	DamageProtection bool   `json:"damageProtection"`
}

// PaymentInput selects a payment method. Card fields are validated only when
// the method is card and are never persisted beyond the last four digits.
type PaymentInput struct {
	Method     string `json:"method" validate:"required,oneof=card upi cod"`
	CardNumber string `json:"cardNumber" validate:"omitempty,credit_card"`
	CardExpiry string `json:"cardExpiry"`
	CardCVV    string `json:"cardCvv"`
}

// AdvanceInput carries the step payload for one advance call. Which field is
// read depends on the session's current step.
type AdvanceInput struct {
	Delivery *DeliveryInput `json:"delivery,omitempty"`
	Payment  *PaymentInput  `json:"payment,omitempty"`
}

// orderTx is the write surface available inside one order transaction.
type orderTx interface {
	CreateOrder(ctx context.Context, p db.CreateOrderParams) (db.Order, error)
	CreateOrderItem(ctx context.Context, p db.CreateOrderItemParams) error
	InsertDomainEvent(ctx context.Context, p db.InsertDomainEventParams) (db.DomainEvent, error)
}

// orderStore runs one transactional order write. Everything fn writes
// commits together or not at all.
type orderStore interface {
	RunOrderTx(ctx context.Context, fn func(orderTx) error) error
}

// PgOrderStore is the production orderStore over a pgx pool.
type PgOrderStore struct {
	Pool *pgxpool.Pool
	Q    *db.Queries
}

// RunOrderTx runs fn inside a database transaction.
func (s *PgOrderStore) RunOrderTx(ctx context.Context, fn func(orderTx) error) error {
	tx, err := s.Pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()
	if err := fn(s.Q.WithTx(tx)); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit order: %w", err)
	}
	return nil
}

// Service drives the checkout state machine over a transient session. The
// underlying cart is only mutated at the final confirmation, which removes
// the purchased selection after the order row committed.
type Service struct {
	Sessions *SessionStore
	Cart     *cart.Service
	Orders   orderStore
	Bus      *events.Bus
	Validate *validator.Validate

	DepositBps      int
	HomeDeliveryFee pricing.Money
	ProtectionFee   pricing.Money
	Currency        string

	Metrics *obs.DomainMetrics
	Log     zerolog.Logger
	Now     func() time.Time
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// Begin opens a new checkout session over the current cart filtered by f.
// Re-entering checkout always starts a fresh session at the summary step.
func (s *Service) Begin(ctx context.Context, cartID, userID string, f pricing.Filter) (Session, error) {
	doc, err := s.Cart.Get(ctx, cartID)
	if err != nil {
		return Session{}, err
	}
	var ids []string
	for _, it := range doc.Items {
		if f.Matches(it.Mode) {
			ids = append(ids, it.ID)
		}
	}
	if len(ids) == 0 {
		return Session{}, ErrEmptySelection
	}
	now := s.now()
	sess := Session{
		ID:        uuid.NewString(),
		CartID:    cartID,
		UserID:    userID,
		Filter:    f,
		ItemIDs:   ids,
		Step:      StepSummary,
		Delivery:  DeliveryDetails{Method: pricing.DeliveryPickup},
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.Sessions.Save(ctx, sess); err != nil {
		return Session{}, err
	}
	if s.Metrics != nil {
		s.Metrics.CheckoutTransitions.WithLabelValues(string(StepSummary)).Inc()
	}
	return sess, nil
}

// Get loads a session by id.
func (s *Service) Get(ctx context.Context, sessionID string) (Session, error) {
	return s.Sessions.Load(ctx, sessionID)
}

// Summary recomputes the payable breakdown for the session's selection under
// its current delivery choices. It is derived state, never stored.
func (s *Service) Summary(ctx context.Context, sess Session) (pricing.CheckoutSummary, error) {
	selected, err := s.selection(ctx, sess)
	if err != nil {
		return pricing.CheckoutSummary{}, err
	}
	return s.summarize(sess, selected), nil
}

func (s *Service) summarize(sess Session, selected []cart.LineItem) pricing.CheckoutSummary {
	lines := make([]pricing.Line, 0, len(selected))
	for _, it := range selected {
		lines = append(lines, pricing.Line{
			Mode:         it.Mode,
			UnitPrice:    it.UnitPrice,
			Qty:          it.Qty,
			DurationDays: it.DurationDays,
		})
	}
	return pricing.ComputeCheckout(pricing.CheckoutInput{
		Lines:            lines,
		Delivery:         sess.Delivery.Method,
		DamageProtection: sess.Delivery.DamageProtection,
		DepositRateBps:   s.DepositBps,
		HomeDeliveryFee:  s.HomeDeliveryFee,
		ProtectionFee:    s.ProtectionFee,
	})
}

// selection resolves the session's item ids against the live cart. Entries
// removed from the cart since the session began silently drop out.
func (s *Service) selection(ctx context.Context, sess Session) ([]cart.LineItem, error) {
	doc, err := s.Cart.Get(ctx, sess.CartID)
	if err != nil {
		return nil, err
	}
	want := make(map[string]struct{}, len(sess.ItemIDs))
	for _, id := range sess.ItemIDs {
		want[id] = struct{}{}
	}
	var out []cart.LineItem
	for _, it := range doc.Items {
		if _, ok := want[it.ID]; ok {
			out = append(out, it)
		}
	}
	return out, nil
}

// Advance moves the session one step forward, applying the guard for the leg
// being crossed. A guarded failure leaves the session on its current step.
func (s *Service) Advance(ctx context.Context, sessionID string, in AdvanceInput) (Session, error) {
	sess, err := s.Sessions.Load(ctx, sessionID)
	if err != nil {
		return Session{}, err
	}
	if sess.Step == StepConfirmation {
		return Session{}, ErrSessionComplete
	}

	selected, err := s.selection(ctx, sess)
	if err != nil {
		return Session{}, err
	}

	switch sess.Step {
	case StepSummary:
		if len(selected) == 0 {
			return Session{}, ErrEmptySelection
		}
	case StepDelivery:
		if err := s.applyDelivery(&sess, selected, in.Delivery); err != nil {
			return Session{}, err
		}
	case StepPayment:
		if len(selected) == 0 {
			return Session{}, ErrEmptySelection
		}
		if err := s.applyPayment(&sess, in.Payment); err != nil {
			return Session{}, err
		}
		order, err := s.confirm(ctx, sess, selected)
		if err != nil {
			return Session{}, err
		}
		sess.OrderID = db.UUIDString(order.ID)
	}

	next, ok := sess.Step.next()
	if !ok {
		return Session{}, ErrInvalidTransition
	}
	sess.Step = next
	sess.UpdatedAt = s.now()
	if err := s.Sessions.Save(ctx, sess); err != nil {
		return Session{}, err
	}
	if s.Metrics != nil {
		s.Metrics.CheckoutTransitions.WithLabelValues(string(next)).Inc()
	}
	return sess, nil
}

// Back returns to the previous step for re-editing. A confirmed session is
// terminal and cannot navigate anywhere.
func (s *Service) Back(ctx context.Context, sessionID string) (Session, error) {
	sess, err := s.Sessions.Load(ctx, sessionID)
	if err != nil {
		return Session{}, err
	}
	if sess.Step == StepConfirmation {
		return Session{}, ErrSessionComplete
	}
	prev, ok := sess.Step.prev()
	if !ok {
		return Session{}, ErrInvalidTransition
	}
	sess.Step = prev
	sess.UpdatedAt = s.now()
	if err := s.Sessions.Save(ctx, sess); err != nil {
		return Session{}, err
	}
	return sess, nil
}

// Abandon discards the session. The cart is untouched: the session was only
// ever a working copy over it.
func (s *Service) Abandon(ctx context.Context, sessionID string) error {
	return s.Sessions.Delete(ctx, sessionID)
}

func (s *Service) applyDelivery(sess *Session, selected []cart.LineItem, in *DeliveryInput) error {
	if in == nil {
		return ErrIncompleteDelivery
	}
	if s.Validate != nil {
		if err := s.Validate.Struct(in); err != nil {
			return fmt.Errorf("%w: %s", ErrIncompleteDelivery, err)
		}
	}
	method := pricing.DeliveryMethod(strings.ToLower(strings.TrimSpace(in.Method)))
	if method == "" {
		method = pricing.DeliveryPickup
	}
	// Selections holding rental gear hand over at pickup regardless of the
	// requested method.
	if hasRental(selected) {
		method = pricing.DeliveryPickup
	}
	if strings.TrimSpace(in.Name) == "" || strings.TrimSpace(in.Phone) == "" {
		return ErrIncompleteDelivery
	}
	if method == pricing.DeliveryHome {
		if strings.TrimSpace(in.AddressLine) == "" || strings.TrimSpace(in.City) == "" || strings.TrimSpace(in.PostalCode) == "" {
			return ErrIncompleteDelivery
		}
	}
	sess.Delivery = DeliveryDetails{
		Method:           method,
		Name:             strings.TrimSpace(in.Name),
		Phone:            strings.TrimSpace(in.Phone),
		AddressLine:      strings.TrimSpace(in.AddressLine),
		City:             strings.TrimSpace(in.City),
		PostalCode:       strings.TrimSpace(in.PostalCode),
		DamageProtection: in.DamageProtection,
	}
	return nil
}

func (s *Service) applyPayment(sess *Session, in *PaymentInput) error {
	if in == nil {
		return ErrIncompletePayment
	}
	if s.Validate != nil {
		if err := s.Validate.Struct(in); err != nil {
			return fmt.Errorf("%w: %s", ErrIncompletePayment, err)
		}
	}
	method := strings.ToLower(strings.TrimSpace(in.Method))
	switch method {
	case "card":
		number := strings.ReplaceAll(strings.TrimSpace(in.CardNumber), " ", "")
		if len(number) < 12 || strings.TrimSpace(in.CardExpiry) == "" || strings.TrimSpace(in.CardCVV) == "" {
			return ErrIncompletePayment
		}
		sess.Payment = PaymentDetails{Method: method, CardLast: number[len(number)-4:]}
	case "upi", "cod":
		sess.Payment = PaymentDetails{Method: method}
	default:
		return ErrIncompletePayment
	}
	return nil
}

// confirm snapshots the selection into an order inside one transaction,
// appends the order.created event to the same transaction, and consumes the
// purchased cart entries after the commit.
func (s *Service) confirm(ctx context.Context, sess Session, selected []cart.LineItem) (db.Order, error) {
	summary := s.summarize(sess, selected)

	userID, err := db.ToUUID(sess.UserID)
	if err != nil {
		return db.Order{}, fmt.Errorf("user id: %w", err)
	}
	contact, err := json.Marshal(map[string]string{
		"name":  sess.Delivery.Name,
		"phone": sess.Delivery.Phone,
	})
	if err != nil {
		return db.Order{}, err
	}
	address, err := json.Marshal(map[string]string{
		"line":       sess.Delivery.AddressLine,
		"city":       sess.Delivery.City,
		"postalCode": sess.Delivery.PostalCode,
	})
	if err != nil {
		return db.Order{}, err
	}

	var order db.Order
	err = s.Orders.RunOrderTx(ctx, func(tx orderTx) error {
		order, err = tx.CreateOrder(ctx, db.CreateOrderParams{
			UserID:           userID,
			CartID:           sess.CartID,
			Status:           "PLACED",
			Currency:         s.Currency,
			RentalSubtotal:   summary.RentalSubtotal,
			PurchaseSubtotal: summary.PurchaseSubtotal,
			Deposit:          summary.Deposit,
			DeliveryCharge:   summary.DeliveryCharge,
			ProtectionCharge: summary.ProtectionCharge,
			Total:            summary.Total,
			DeliveryMethod:   string(summary.Delivery),
			Contact:          contact,
			Address:          address,
		})
		if err != nil {
			return fmt.Errorf("create order: %w", err)
		}

		for _, it := range selected {
			gearID, err := db.ToUUID(it.GearID)
			if err != nil {
				return fmt.Errorf("gear id: %w", err)
			}
			lp := pricing.PriceLineWithRate(pricing.Line{
				Mode:         it.Mode,
				UnitPrice:    it.UnitPrice,
				Qty:          it.Qty,
				DurationDays: it.DurationDays,
			}, s.DepositBps)
			p := db.CreateOrderItemParams{
				OrderID:      order.ID,
				GearID:       gearID,
				Title:        it.Title,
				Slug:         it.Slug,
				Mode:         string(it.Mode),
				Qty:          int32(it.Qty),
				UnitPrice:    it.UnitPrice,
				DurationDays: int32(it.DurationDays),
				LineTotal:    lp.Total,
				Deposit:      lp.Deposit,
			}
			if it.Size != "" {
				p.Size = pgtype.Text{String: it.Size, Valid: true}
			}
			if it.StartDate != nil {
				p.StartDate = pgtype.Timestamptz{Time: *it.StartDate, Valid: true}
			}
			if it.EndDate != nil {
				p.EndDate = pgtype.Timestamptz{Time: *it.EndDate, Valid: true}
			}
			if err := tx.CreateOrderItem(ctx, p); err != nil {
				return fmt.Errorf("create order item: %w", err)
			}
		}

		if s.Bus != nil {
			return s.Bus.PublishWith(ctx, tx, events.Event{
				Topic:       events.TopicOrderCreated,
				AggregateID: db.UUIDString(order.ID),
				Payload: map[string]any{
					"orderId": db.UUIDString(order.ID),
					"userId":  sess.UserID,
					"total":   summary.Total,
				},
			})
		}
		return nil
	})
	if err != nil {
		return db.Order{}, err
	}

	if _, err := s.Cart.RemoveItems(ctx, sess.CartID, sess.ItemIDs); err != nil {
		// The order row exists; the stale cart entries expire with the cart.
		s.Log.Warn().Err(err).Str("order_id", db.UUIDString(order.ID)).Msg("cart cleanup after order failed")
	}
	if s.Metrics != nil {
		s.Metrics.OrdersPlaced.Inc()
		s.Metrics.OrderValue.Observe(float64(summary.Total))
	}
	return order, nil
}

func hasRental(items []cart.LineItem) bool {
	for _, it := range items {
		if it.Mode == pricing.ModeRent {
			return true
		}
	}
	return false
}
