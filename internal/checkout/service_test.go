package checkout

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/backend-trek/internal/cart"
	"github.com/noah-isme/backend-trek/internal/db"
	"github.com/noah-isme/backend-trek/internal/events"
	"github.com/noah-isme/backend-trek/internal/pricing"
)

const shopperID = "bb0e8400-e29b-41d4-a716-446655440001"

type stubCatalog struct {
	items map[string]cart.GearInfo
}

func (s *stubCatalog) Lookup(_ context.Context, id string) (cart.GearInfo, error) {
	g, ok := s.items[id]
	if !ok {
		return cart.GearInfo{}, cart.ErrGearNotFound
	}
	return g, nil
}

// memOrderStore buffers every write in a scratch transaction and keeps it
// only when the whole transaction function succeeds.
type memOrderStore struct {
	failWith error
	orders   []db.Order
	items    []db.CreateOrderItemParams
	events   []db.InsertDomainEventParams
}

func (s *memOrderStore) RunOrderTx(_ context.Context, fn func(orderTx) error) error {
	if s.failWith != nil {
		return s.failWith
	}
	tx := &memOrderTx{}
	if err := fn(tx); err != nil {
		return err
	}
	s.orders = append(s.orders, tx.orders...)
	s.items = append(s.items, tx.items...)
	s.events = append(s.events, tx.events...)
	return nil
}

type memOrderTx struct {
	orders []db.Order
	items  []db.CreateOrderItemParams
	events []db.InsertDomainEventParams
}

func (t *memOrderTx) CreateOrder(_ context.Context, p db.CreateOrderParams) (db.Order, error) {
	id, err := db.ToUUID(uuid.NewString())
	if err != nil {
		return db.Order{}, err
	}
	o := db.Order{
		ID:               id,
		UserID:           p.UserID,
		CartID:           p.CartID,
		Status:           p.Status,
		Currency:         p.Currency,
		RentalSubtotal:   p.RentalSubtotal,
		PurchaseSubtotal: p.PurchaseSubtotal,
		Deposit:          p.Deposit,
		DeliveryCharge:   p.DeliveryCharge,
		ProtectionCharge: p.ProtectionCharge,
		Total:            p.Total,
		DeliveryMethod:   p.DeliveryMethod,
		Contact:          p.Contact,
		Address:          p.Address,
	}
	t.orders = append(t.orders, o)
	return o, nil
}

func (t *memOrderTx) CreateOrderItem(_ context.Context, p db.CreateOrderItemParams) error {
	t.items = append(t.items, p)
	return nil
}

func (t *memOrderTx) InsertDomainEvent(_ context.Context, p db.InsertDomainEventParams) (db.DomainEvent, error) {
	t.events = append(t.events, p)
	return db.DomainEvent{Topic: p.Topic, AggregateID: p.AggregateID, Payload: p.Payload}, nil
}

func newTestCheckout(t *testing.T) (*Service, *cart.Service) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	catalog := &stubCatalog{items: map[string]cart.GearInfo{
		"tent-1": {
			ID: "aa0e8400-e29b-41d4-a716-446655440001", Title: "Alpine Tent", Slug: "alpine-tent",
			RentPricePerDay: 299, BuyPrice: 8999, Availability: "both", InStock: true,
		},
		"boots-1": {
			ID: "aa0e8400-e29b-41d4-a716-446655440002", Title: "Trekking Boots", Slug: "trekking-boots",
			BuyPrice: 1899, Availability: "buy", InStock: true,
		},
	}}
	cartSvc := &cart.Service{
		Store:      &cart.RedisStore{R: client, TTL: time.Hour},
		Catalog:    catalog,
		DepositBps: pricing.DefaultDepositRateBps,
	}
	svc := &Service{
		Sessions:        &SessionStore{R: client, TTL: 30 * time.Minute},
		Cart:            cartSvc,
		Orders:          &memOrderStore{},
		Bus:             &events.Bus{},
		Validate:        validator.New(),
		DepositBps:      pricing.DefaultDepositRateBps,
		HomeDeliveryFee: 99,
		ProtectionFee:   149,
		Currency:        "INR",
	}
	return svc, cartSvc
}

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func addRental(t *testing.T, cartSvc *cart.Service, cartID string) cart.LineItem {
	t.Helper()
	_, item, err := cartSvc.AddItem(context.Background(), cartID, cart.AddItemInput{
		GearID: "tent-1", Mode: "rent", Qty: 1,
		StartDate: date(2024, 1, 1), EndDate: date(2024, 1, 4),
	})
	require.NoError(t, err)
	return item
}

func addPurchase(t *testing.T, cartSvc *cart.Service, cartID string) cart.LineItem {
	t.Helper()
	_, item, err := cartSvc.AddItem(context.Background(), cartID, cart.AddItemInput{
		GearID: "boots-1", Mode: "buy", Qty: 1,
	})
	require.NoError(t, err)
	return item
}

func TestBeginRequiresNonEmptySelection(t *testing.T) {
	svc, cartSvc := newTestCheckout(t)
	ctx := context.Background()

	_, err := svc.Begin(ctx, "cart-a", "user-1", pricing.FilterAll)
	require.ErrorIs(t, err, ErrEmptySelection)

	addPurchase(t, cartSvc, "cart-a")

	// filter excluding every entry is also empty
	_, err = svc.Begin(ctx, "cart-a", "user-1", pricing.FilterRent)
	require.ErrorIs(t, err, ErrEmptySelection)

	sess, err := svc.Begin(ctx, "cart-a", "user-1", pricing.FilterAll)
	require.NoError(t, err)
	require.Equal(t, StepSummary, sess.Step)
	require.Len(t, sess.ItemIDs, 1)
}

func TestDeliveryGuardRequiresContact(t *testing.T) {
	svc, cartSvc := newTestCheckout(t)
	ctx := context.Background()
	addPurchase(t, cartSvc, "cart-a")

	sess, err := svc.Begin(ctx, "cart-a", "user-1", pricing.FilterAll)
	require.NoError(t, err)

	sess, err = svc.Advance(ctx, sess.ID, AdvanceInput{})
	require.NoError(t, err)
	require.Equal(t, StepDelivery, sess.Step)

	// missing contact blocks the transition and the step does not move
	_, err = svc.Advance(ctx, sess.ID, AdvanceInput{Delivery: &DeliveryInput{Method: "pickup"}})
	require.ErrorIs(t, err, ErrIncompleteDelivery)

	stuck, err := svc.Get(ctx, sess.ID)
	require.NoError(t, err)
	require.Equal(t, StepDelivery, stuck.Step)

	// home delivery additionally needs an address
	_, err = svc.Advance(ctx, sess.ID, AdvanceInput{Delivery: &DeliveryInput{
		Method: "home", Name: "Asha", Phone: "9999999999",
	}})
	require.ErrorIs(t, err, ErrIncompleteDelivery)

	sess, err = svc.Advance(ctx, sess.ID, AdvanceInput{Delivery: &DeliveryInput{
		Method: "home", Name: "Asha", Phone: "9999999999",
		AddressLine: "12 Ridge Road", City: "Manali", PostalCode: "175131",
	}})
	require.NoError(t, err)
	require.Equal(t, StepPayment, sess.Step)
	require.Equal(t, pricing.DeliveryHome, sess.Delivery.Method)
}

func TestRentalSelectionForcesPickup(t *testing.T) {
	svc, cartSvc := newTestCheckout(t)
	ctx := context.Background()
	addRental(t, cartSvc, "cart-a")

	sess, err := svc.Begin(ctx, "cart-a", "user-1", pricing.FilterAll)
	require.NoError(t, err)
	sess, err = svc.Advance(ctx, sess.ID, AdvanceInput{})
	require.NoError(t, err)

	// asking for home delivery is overridden, not rejected
	sess, err = svc.Advance(ctx, sess.ID, AdvanceInput{Delivery: &DeliveryInput{
		Method: "home", Name: "Asha", Phone: "9999999999",
		AddressLine: "12 Ridge Road", City: "Manali", PostalCode: "175131",
	}})
	require.NoError(t, err)
	require.Equal(t, pricing.DeliveryPickup, sess.Delivery.Method)

	summary, err := svc.Summary(ctx, sess)
	require.NoError(t, err)
	require.Equal(t, pricing.DeliveryPickup, summary.Delivery)
	require.EqualValues(t, 0, summary.DeliveryCharge)
	// 299 x 3 = 897 rental, deposit 269
	require.EqualValues(t, 897, summary.RentalSubtotal)
	require.EqualValues(t, 269, summary.Deposit)
	require.EqualValues(t, 1166, summary.Total)
}

func TestDamageProtectionOnlyBillsRentals(t *testing.T) {
	svc, cartSvc := newTestCheckout(t)
	ctx := context.Background()
	addPurchase(t, cartSvc, "cart-a")

	sess, err := svc.Begin(ctx, "cart-a", "user-1", pricing.FilterAll)
	require.NoError(t, err)
	sess, err = svc.Advance(ctx, sess.ID, AdvanceInput{})
	require.NoError(t, err)
	sess, err = svc.Advance(ctx, sess.ID, AdvanceInput{Delivery: &DeliveryInput{
		Method: "pickup", Name: "Asha", Phone: "9999999999", DamageProtection: true,
	}})
	require.NoError(t, err)

	summary, err := svc.Summary(ctx, sess)
	require.NoError(t, err)
	require.EqualValues(t, 0, summary.ProtectionCharge)
	require.EqualValues(t, 1899, summary.Total)
}

func TestPaymentGuard(t *testing.T) {
	svc, cartSvc := newTestCheckout(t)
	ctx := context.Background()
	addPurchase(t, cartSvc, "cart-a")

	sess, err := svc.Begin(ctx, "cart-a", "user-1", pricing.FilterAll)
	require.NoError(t, err)
	sess, err = svc.Advance(ctx, sess.ID, AdvanceInput{})
	require.NoError(t, err)
	sess, err = svc.Advance(ctx, sess.ID, AdvanceInput{Delivery: &DeliveryInput{
		Method: "pickup", Name: "Asha", Phone: "9999999999",
	}})
	require.NoError(t, err)
	require.Equal(t, StepPayment, sess.Step)

	_, err = svc.Advance(ctx, sess.ID, AdvanceInput{})
	require.ErrorIs(t, err, ErrIncompletePayment)

	_, err = svc.Advance(ctx, sess.ID, AdvanceInput{Payment: &PaymentInput{Method: "card"}})
	require.ErrorIs(t, err, ErrIncompletePayment)

	_, err = svc.Advance(ctx, sess.ID, AdvanceInput{Payment: &PaymentInput{Method: "cheque"}})
	require.ErrorIs(t, err, ErrIncompletePayment)
}

func TestBackNavigation(t *testing.T) {
	svc, cartSvc := newTestCheckout(t)
	ctx := context.Background()
	addPurchase(t, cartSvc, "cart-a")

	sess, err := svc.Begin(ctx, "cart-a", "user-1", pricing.FilterAll)
	require.NoError(t, err)

	// cannot go back from the first step
	_, err = svc.Back(ctx, sess.ID)
	require.ErrorIs(t, err, ErrInvalidTransition)

	sess, err = svc.Advance(ctx, sess.ID, AdvanceInput{})
	require.NoError(t, err)
	require.Equal(t, StepDelivery, sess.Step)

	sess, err = svc.Back(ctx, sess.ID)
	require.NoError(t, err)
	require.Equal(t, StepSummary, sess.Step)
}

func TestAbandonLeavesCartUntouched(t *testing.T) {
	svc, cartSvc := newTestCheckout(t)
	ctx := context.Background()
	addPurchase(t, cartSvc, "cart-a")
	addRental(t, cartSvc, "cart-a")

	sess, err := svc.Begin(ctx, "cart-a", "user-1", pricing.FilterAll)
	require.NoError(t, err)

	require.NoError(t, svc.Abandon(ctx, sess.ID))

	_, err = svc.Get(ctx, sess.ID)
	require.ErrorIs(t, err, ErrSessionNotFound)

	doc, err := cartSvc.Get(ctx, "cart-a")
	require.NoError(t, err)
	require.Len(t, doc.Items, 2)
}

func TestSelectionDropsRemovedEntries(t *testing.T) {
	svc, cartSvc := newTestCheckout(t)
	ctx := context.Background()
	buyItem := addPurchase(t, cartSvc, "cart-a")
	addRental(t, cartSvc, "cart-a")

	sess, err := svc.Begin(ctx, "cart-a", "user-1", pricing.FilterAll)
	require.NoError(t, err)
	require.Len(t, sess.ItemIDs, 2)

	_, err = cartSvc.RemoveItem(ctx, "cart-a", buyItem.ID)
	require.NoError(t, err)

	summary, err := svc.Summary(ctx, sess)
	require.NoError(t, err)
	require.EqualValues(t, 0, summary.PurchaseSubtotal)
	require.EqualValues(t, 897, summary.RentalSubtotal)
}

func TestConfirmedSessionIsTerminal(t *testing.T) {
	svc, _ := newTestCheckout(t)
	ctx := context.Background()

	sess := Session{ID: "sess-done", CartID: "cart-a", UserID: shopperID, Step: StepConfirmation}
	require.NoError(t, svc.Sessions.Save(ctx, sess))

	_, err := svc.Advance(ctx, sess.ID, AdvanceInput{Payment: &PaymentInput{Method: "cod"}})
	require.ErrorIs(t, err, ErrSessionComplete)

	_, err = svc.Back(ctx, sess.ID)
	require.ErrorIs(t, err, ErrSessionComplete)
}

func TestPaymentAdvanceConfirmsOrder(t *testing.T) {
	svc, cartSvc := newTestCheckout(t)
	ctx := context.Background()
	addRental(t, cartSvc, "cart-a")
	addPurchase(t, cartSvc, "cart-a")

	sess, err := svc.Begin(ctx, "cart-a", shopperID, pricing.FilterAll)
	require.NoError(t, err)
	sess, err = svc.Advance(ctx, sess.ID, AdvanceInput{})
	require.NoError(t, err)
	sess, err = svc.Advance(ctx, sess.ID, AdvanceInput{Delivery: &DeliveryInput{
		Method: "pickup", Name: "Asha", Phone: "9999999999",
	}})
	require.NoError(t, err)
	require.Equal(t, StepPayment, sess.Step)

	sess, err = svc.Advance(ctx, sess.ID, AdvanceInput{Payment: &PaymentInput{Method: "upi"}})
	require.NoError(t, err)
	require.Equal(t, StepConfirmation, sess.Step)
	require.NotEmpty(t, sess.OrderID)

	store := svc.Orders.(*memOrderStore)
	require.Len(t, store.orders, 1)
	placed := store.orders[0]
	require.Equal(t, sess.OrderID, db.UUIDString(placed.ID))
	require.Equal(t, "PLACED", placed.Status)
	// 299 x 3 rental + 269 deposit + 1899 purchase, pickup so no delivery fee
	require.EqualValues(t, 897, placed.RentalSubtotal)
	require.EqualValues(t, 1899, placed.PurchaseSubtotal)
	require.EqualValues(t, 269, placed.Deposit)
	require.EqualValues(t, 0, placed.DeliveryCharge)
	require.EqualValues(t, 3065, placed.Total)
	require.Len(t, store.items, 2)

	require.Len(t, store.events, 1)
	require.Equal(t, events.TopicOrderCreated, store.events[0].Topic)
	require.True(t, db.UUIDEqual(placed.ID, store.events[0].AggregateID))

	// the selection is consumed from the cart after the commit
	doc, err := cartSvc.Get(ctx, "cart-a")
	require.NoError(t, err)
	require.Empty(t, doc.Items)

	// and the confirmed session accepts no further transitions
	_, err = svc.Advance(ctx, sess.ID, AdvanceInput{})
	require.ErrorIs(t, err, ErrSessionComplete)
}

func TestFailedOrderWriteKeepsSessionOnPayment(t *testing.T) {
	svc, cartSvc := newTestCheckout(t)
	ctx := context.Background()
	addRental(t, cartSvc, "cart-a")
	addPurchase(t, cartSvc, "cart-a")

	store := svc.Orders.(*memOrderStore)
	store.failWith = errors.New("connection reset")

	sess, err := svc.Begin(ctx, "cart-a", shopperID, pricing.FilterAll)
	require.NoError(t, err)
	sess, err = svc.Advance(ctx, sess.ID, AdvanceInput{})
	require.NoError(t, err)
	sess, err = svc.Advance(ctx, sess.ID, AdvanceInput{Delivery: &DeliveryInput{
		Method: "pickup", Name: "Asha", Phone: "9999999999",
	}})
	require.NoError(t, err)

	_, err = svc.Advance(ctx, sess.ID, AdvanceInput{Payment: &PaymentInput{Method: "cod"}})
	require.Error(t, err)

	stuck, err := svc.Get(ctx, sess.ID)
	require.NoError(t, err)
	require.Equal(t, StepPayment, stuck.Step)
	require.Empty(t, stuck.OrderID)
	require.Empty(t, store.orders)

	doc, err := cartSvc.Get(ctx, "cart-a")
	require.NoError(t, err)
	require.Len(t, doc.Items, 2)
}
