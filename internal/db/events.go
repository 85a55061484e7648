package db

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"
)

// InsertDomainEventParams describes one event to persist.
type InsertDomainEventParams struct {
	Topic       string
	AggregateID pgtype.UUID
	Payload     []byte
}

// InsertDomainEvent appends the event to the domain event log.
func (q *Queries) InsertDomainEvent(ctx context.Context, p InsertDomainEventParams) (DomainEvent, error) {
	row := q.db.QueryRow(ctx, `
		INSERT INTO domain_events (topic, aggregate_id, payload)
		VALUES ($1, $2, $3)
		RETURNING id, topic, aggregate_id, payload, occurred_at`,
		p.Topic, p.AggregateID, p.Payload,
	)
	var ev DomainEvent
	err := row.Scan(&ev.ID, &ev.Topic, &ev.AggregateID, &ev.Payload, &ev.OccurredAt)
	return ev, err
}
