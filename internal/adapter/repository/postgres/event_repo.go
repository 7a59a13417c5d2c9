package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/iho/gowallet/internal/domain"
	"github.com/iho/gowallet/internal/infrastructure/postgres/generated"
	"github.com/iho/gowallet/internal/usecase"
)

// EventRepository implements usecase.EventRepository on transaction_events.
type EventRepository struct {
	queries *generated.Queries
}

// NewEventRepository creates a new EventRepository.
func NewEventRepository(db generated.DBTX) *EventRepository {
	return &EventRepository{queries: generated.New(db)}
}

// Create appends an event inside the unit of work.
func (r *EventRepository) Create(ctx context.Context, tx usecase.Transaction, event *domain.TransactionEvent) error {
	queries, err := txQueries(tx)
	if err != nil {
		return err
	}

	payload := []byte("{}")
	if event.Payload != nil {
		payload, err = json.Marshal(event.Payload)
		if err != nil {
			return fmt.Errorf("marshal %s payload: %w", event.EventType, err)
		}
	}

	id, err := queries.CreateTransactionEvent(ctx, generated.CreateTransactionEventParams{
		TransactionID: event.TransactionID,
		EventType:     string(event.EventType),
		Payload:       payload,
		CreatedAt:     timeToPgTimestamptz(event.CreatedAt),
	})
	if err != nil {
		return fmt.Errorf("create %s event: %w", event.EventType, err)
	}

	event.ID = id
	return nil
}

// ListByTransaction returns events ordered by created_at, then id.
func (r *EventRepository) ListByTransaction(ctx context.Context, transactionID int64) ([]*domain.TransactionEvent, error) {
	rows, err := r.queries.ListTransactionEvents(ctx, transactionID)
	if err != nil {
		return nil, err
	}

	events := make([]*domain.TransactionEvent, 0, len(rows))
	for _, row := range rows {
		var payload domain.JSON
		if len(row.Payload) > 0 {
			if err := json.Unmarshal(row.Payload, &payload); err != nil {
				return nil, fmt.Errorf("event %d payload: %w", row.ID, err)
			}
		}

		events = append(events, &domain.TransactionEvent{
			ID:            row.ID,
			TransactionID: row.TransactionID,
			EventType:     domain.EventType(row.EventType),
			Payload:       payload,
			CreatedAt:     row.CreatedAt.Time,
		})
	}

	return events, nil
}
