package notify

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/backend-trek/internal/events"
	"github.com/noah-isme/backend-trek/internal/queue"
)

type captureQueue struct {
	tasks []queue.EmailTask
}

func (c *captureQueue) EnqueueEmail(_ context.Context, t queue.EmailTask) error {
	c.tasks = append(c.tasks, t)
	return nil
}

func TestNotifyEnqueuesPerTopic(t *testing.T) {
	q := &captureQueue{}
	n := &EmailNotifier{Queue: q, From: "ops@trek.example", Enabled: true, Log: zerolog.Nop()}
	ctx := context.Background()

	require.NoError(t, n.Notify(ctx, events.Event{
		Topic:       events.TopicOrderCreated,
		AggregateID: "cc0e8400-e29b-41d4-a716-446655440001",
		Payload:     map[string]any{"orderId": "cc0e8400-e29b-41d4-a716-446655440001", "total": 1166},
	}))
	require.NoError(t, n.Notify(ctx, events.Event{
		Topic:       events.TopicOrderStatusChanged,
		AggregateID: "cc0e8400-e29b-41d4-a716-446655440001",
		Payload:     map[string]string{"orderId": "cc0e8400-e29b-41d4-a716-446655440001", "status": "SHIPPED"},
	}))

	require.Len(t, q.tasks, 2)
	require.Contains(t, q.tasks[0].Subject, "placed")
	require.Contains(t, q.tasks[1].Subject, "SHIPPED")
}

func TestNotifyIgnoresUnknownTopicsAndDisabled(t *testing.T) {
	q := &captureQueue{}
	n := &EmailNotifier{Queue: q, From: "ops@trek.example", Enabled: true, Log: zerolog.Nop()}

	require.NoError(t, n.Notify(context.Background(), events.Event{Topic: "gear.restocked"}))
	require.Empty(t, q.tasks)

	n.Enabled = false
	require.NoError(t, n.Notify(context.Background(), events.Event{Topic: events.TopicOrderCreated}))
	require.Empty(t, q.tasks)
}
