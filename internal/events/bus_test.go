package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/backend-trek/internal/db"
)

type memStore struct {
	inserted []db.InsertDomainEventParams
	fail     error
}

func (m *memStore) InsertDomainEvent(_ context.Context, p db.InsertDomainEventParams) (db.DomainEvent, error) {
	if m.fail != nil {
		return db.DomainEvent{}, m.fail
	}
	m.inserted = append(m.inserted, p)
	return db.DomainEvent{Topic: p.Topic, Payload: p.Payload}, nil
}

type recordingNotifier struct {
	seen []Event
	fail error
}

func (r *recordingNotifier) Notify(_ context.Context, ev Event) error {
	if r.fail != nil {
		return r.fail
	}
	r.seen = append(r.seen, ev)
	return nil
}

func TestPublishPersistsAndNotifies(t *testing.T) {
	store := &memStore{}
	notifier := &recordingNotifier{}
	bus := &Bus{Store: store, Log: zerolog.Nop(), Notifiers: []Notifier{notifier}}

	err := bus.Publish(context.Background(), Event{
		Topic:       TopicOrderCreated,
		AggregateID: "0b7f9c52-94d4-4ee8-a4cb-7d19b9a8a111",
		Payload:     map[string]any{"total": 1166},
	})
	require.NoError(t, err)
	require.Len(t, store.inserted, 1)
	require.Equal(t, TopicOrderCreated, store.inserted[0].Topic)

	var payload map[string]any
	require.NoError(t, json.Unmarshal(store.inserted[0].Payload, &payload))
	require.EqualValues(t, 1166, payload["total"])

	require.Len(t, notifier.seen, 1)
}

func TestPublishFailsOnStoreError(t *testing.T) {
	store := &memStore{fail: errors.New("db down")}
	bus := &Bus{Store: store, Log: zerolog.Nop()}

	err := bus.Publish(context.Background(), Event{
		Topic:       TopicOrderCancelled,
		AggregateID: "0b7f9c52-94d4-4ee8-a4cb-7d19b9a8a111",
	})
	require.Error(t, err)
}

func TestNotifierFailureDoesNotFailPublish(t *testing.T) {
	store := &memStore{}
	bad := &recordingNotifier{fail: errors.New("smtp down")}
	good := &recordingNotifier{}
	bus := &Bus{Store: store, Log: zerolog.Nop(), Notifiers: []Notifier{bad, good}}

	err := bus.Publish(context.Background(), Event{
		Topic:       TopicOrderStatusChanged,
		AggregateID: "0b7f9c52-94d4-4ee8-a4cb-7d19b9a8a111",
	})
	require.NoError(t, err)
	require.Len(t, good.seen, 1)
}

func TestPublishRejectsBadAggregateID(t *testing.T) {
	bus := &Bus{Store: &memStore{}, Log: zerolog.Nop()}
	err := bus.Publish(context.Background(), Event{Topic: TopicOrderCreated, AggregateID: "not-a-uuid"})
	require.Error(t, err)
}
