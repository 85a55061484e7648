package notify

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/noah-isme/backend-trek/internal/events"
	"github.com/noah-isme/backend-trek/internal/queue"
)

// Enqueuer is the slice of the queue the notifier needs.
type Enqueuer interface {
	EnqueueEmail(ctx context.Context, task queue.EmailTask) error
}

// EmailNotifier turns order events into queued notification emails. It is
// registered on the event bus and must never block a publish: enqueue
// failures are logged by the bus and the event itself is already durable.
type EmailNotifier struct {
	Queue   Enqueuer
	From    string
	Enabled bool
	Log     zerolog.Logger
}

// Notify implements events.Notifier.
func (n *EmailNotifier) Notify(ctx context.Context, ev events.Event) error {
	if !n.Enabled || n.Queue == nil {
		return nil
	}
	task, ok := n.compose(ev)
	if !ok {
		return nil
	}
	return n.Queue.EnqueueEmail(ctx, task)
}

func (n *EmailNotifier) compose(ev events.Event) (queue.EmailTask, bool) {
	payload := map[string]any{}
	if raw, err := json.Marshal(ev.Payload); err == nil {
		_ = json.Unmarshal(raw, &payload)
	}
	orderID, _ := payload["orderId"].(string)
	if orderID == "" {
		orderID = ev.AggregateID
	}

	switch ev.Topic {
	case events.TopicOrderCreated:
		return queue.EmailTask{
			To:      n.From,
			Subject: fmt.Sprintf("Order %s placed", shortID(orderID)),
			Body:    fmt.Sprintf("<p>Order <strong>%s</strong> was placed. Gear handover details follow at the pickup counter.</p>", orderID),
		}, true
	case events.TopicOrderCancelled:
		return queue.EmailTask{
			To:      n.From,
			Subject: fmt.Sprintf("Order %s cancelled", shortID(orderID)),
			Body:    fmt.Sprintf("<p>Order <strong>%s</strong> was cancelled by the shopper.</p>", orderID),
		}, true
	case events.TopicOrderStatusChanged:
		status, _ := payload["status"].(string)
		return queue.EmailTask{
			To:      n.From,
			Subject: fmt.Sprintf("Order %s is now %s", shortID(orderID), status),
			Body:    fmt.Sprintf("<p>Order <strong>%s</strong> moved to status <strong>%s</strong>.</p>", orderID, status),
		}, true
	default:
		return queue.EmailTask{}, false
	}
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
