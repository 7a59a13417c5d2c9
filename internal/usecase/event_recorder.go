package usecase

import (
	"context"
	"fmt"
	"iter"
	"time"

	"github.com/iho/gowallet/internal/domain"
)

// EventRecorder appends state transitions of a transfer to its event log.
type EventRecorder struct {
	events EventRepository
	now    func() time.Time
}

// NewEventRecorder creates a new EventRecorder.
func NewEventRecorder(events EventRepository) *EventRecorder {
	return &EventRecorder{
		events: events,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// Record appends one event inside tx, timestamped now.
func (r *EventRecorder) Record(
	ctx context.Context,
	tx Transaction,
	transaction *domain.Transaction,
	eventType domain.EventType,
	payload any,
) (*domain.TransactionEvent, error) {
	if !eventType.IsValid() {
		return nil, fmt.Errorf("record event: unknown event type %q", eventType)
	}

	data, err := domain.ToPayload(payload)
	if err != nil {
		return nil, err
	}

	event := &domain.TransactionEvent{
		TransactionID: transaction.ID,
		EventType:     eventType,
		Payload:       data,
		CreatedAt:     r.now(),
	}

	if err := r.events.Create(ctx, tx, event); err != nil {
		return nil, fmt.Errorf("record %s event for transaction %d: %w", eventType, transaction.ID, err)
	}

	return event, nil
}

// History returns all events for a transaction in insertion order.
func (r *EventRecorder) History(ctx context.Context, transactionID int64) ([]domain.EventRecord, error) {
	events, err := r.events.ListByTransaction(ctx, transactionID)
	if err != nil {
		return nil, err
	}

	records := make([]domain.EventRecord, 0, len(events))
	for _, e := range events {
		records = append(records, e.Record())
	}

	return records, nil
}

// Replay lazily yields the event history. Nothing is read until the sequence is
// ranged over, and every range re-reads the store. A read failure is yielded once
// as the final element.
func (r *EventRecorder) Replay(ctx context.Context, transactionID int64) iter.Seq2[domain.EventRecord, error] {
	return func(yield func(domain.EventRecord, error) bool) {
		events, err := r.events.ListByTransaction(ctx, transactionID)
		if err != nil {
			yield(domain.EventRecord{}, err)
			return
		}

		for _, e := range events {
			if !yield(e.Record(), nil) {
				return
			}
		}
	}
}
