package checkout

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/noah-isme/backend-trek/internal/pricing"
)

// Step is one stage of the linear checkout flow.
type Step string

const (
	StepSummary      Step = "summary"
	StepDelivery     Step = "delivery"
	StepPayment      Step = "payment"
	StepConfirmation Step = "confirmation"
)

var stepOrder = map[Step]int{
	StepSummary:      0,
	StepDelivery:     1,
	StepPayment:      2,
	StepConfirmation: 3,
}

func (s Step) next() (Step, bool) {
	switch s {
	case StepSummary:
		return StepDelivery, true
	case StepDelivery:
		return StepPayment, true
	case StepPayment:
		return StepConfirmation, true
	default:
		return s, false
	}
}

func (s Step) prev() (Step, bool) {
	switch s {
	case StepDelivery:
		return StepSummary, true
	case StepPayment:
		return StepDelivery, true
	default:
		return s, false
	}
}

// DeliveryDetails is the contact and address payload collected at the
// delivery step.
type DeliveryDetails struct {
	Method           pricing.DeliveryMethod `json:"method"`
	Name             string                 `json:"name"`
	Phone            string                 `json:"phone"`
	AddressLine      string                 `json:"addressLine,omitempty"`
	City             string                 `json:"city,omitempty"`
	PostalCode       string                 `json:"postalCode,omitempty"`
	DamageProtection bool                   `json:"damageProtection"`
}

// PaymentDetails records the chosen payment method. Card numbers are never
// stored; only the last four digits survive validation.
type PaymentDetails struct {
	Method   string `json:"method"`
	CardLast string `json:"cardLast,omitempty"`
}

// Session is the transient working copy a checkout pass operates on. It
// references cart entries by id and never mutates the cart until the final
// confirmation commits.
type Session struct {
	ID        string          `json:"id"`
	CartID    string          `json:"cartId"`
	UserID    string          `json:"userId"`
	Filter    pricing.Filter  `json:"filter"`
	ItemIDs   []string        `json:"itemIds"`
	Step      Step            `json:"step"`
	Delivery  DeliveryDetails `json:"delivery"`
	Payment   PaymentDetails  `json:"payment"`
	OrderID   string          `json:"orderId,omitempty"`
	CreatedAt time.Time       `json:"createdAt"`
	UpdatedAt time.Time       `json:"updatedAt"`
}

// ErrSessionNotFound is returned for expired or unknown checkout sessions.
var ErrSessionNotFound = errors.New("checkout session not found")

// SessionStore keeps checkout sessions in redis under a short TTL; an
// abandoned flow simply expires and the cart is left untouched.
type SessionStore struct {
	R   *redis.Client
	TTL time.Duration
}

func (s *SessionStore) key(id string) string {
	return "checkout:session:" + id
}

// Load fetches a session by id.
func (s *SessionStore) Load(ctx context.Context, id string) (Session, error) {
	raw, err := s.R.Get(ctx, s.key(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return Session{}, ErrSessionNotFound
	}
	if err != nil {
		return Session{}, fmt.Errorf("load session: %w", err)
	}
	var sess Session
	if err := json.Unmarshal(raw, &sess); err != nil {
		return Session{}, fmt.Errorf("decode session: %w", err)
	}
	return sess, nil
}

// Save writes the session, refreshing its TTL.
func (s *SessionStore) Save(ctx context.Context, sess Session) error {
	raw, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	if err := s.R.Set(ctx, s.key(sess.ID), raw, s.TTL).Err(); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

// Delete discards the session.
func (s *SessionStore) Delete(ctx context.Context, id string) error {
	if err := s.R.Del(ctx, s.key(id)).Err(); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}
