package events

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/noah-isme/backend-trek/internal/db"
)

// Event is a domain fact published after a state change committed.
type Event struct {
	Topic       string
	AggregateID string
	Payload     any
}

// EventStore persists events to the durable log. *db.Queries satisfies it,
// both pool-bound and transaction-bound.
type EventStore interface {
	InsertDomainEvent(ctx context.Context, p db.InsertDomainEventParams) (db.DomainEvent, error)
}

// Notifier reacts to a published event, e.g. by enqueueing an email task.
// Notifier failures are logged and never fail the publish.
type Notifier interface {
	Notify(ctx context.Context, ev Event) error
}

// Bus appends events to the durable log and fans them out to notifiers.
type Bus struct {
	Store     EventStore
	Log       zerolog.Logger
	Notifiers []Notifier
}

// Publish persists the event via the bus's default store and notifies.
func (b *Bus) Publish(ctx context.Context, ev Event) error {
	return b.PublishWith(ctx, b.Store, ev)
}

// PublishWith persists the event through the given store, letting callers
// bind the append to their own transaction, then fans out to notifiers.
func (b *Bus) PublishWith(ctx context.Context, store EventStore, ev Event) error {
	payload, err := json.Marshal(ev.Payload)
	if err != nil {
		return fmt.Errorf("encode event payload: %w", err)
	}
	if store != nil {
		aggregate, err := db.ToUUID(ev.AggregateID)
		if err != nil {
			return fmt.Errorf("event aggregate id: %w", err)
		}
		if _, err := store.InsertDomainEvent(ctx, db.InsertDomainEventParams{
			Topic:       ev.Topic,
			AggregateID: aggregate,
			Payload:     payload,
		}); err != nil {
			return fmt.Errorf("append event: %w", err)
		}
	}
	for _, n := range b.Notifiers {
		if err := n.Notify(ctx, ev); err != nil {
			b.Log.Warn().Err(err).Str("topic", ev.Topic).Msg("event notifier failed")
		}
	}
	return nil
}
