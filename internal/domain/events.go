package domain

import (
	"encoding/json"
	"fmt"
	"time"
)

// EventType tags one state transition of a transfer.
type EventType string

const (
	EventTypeInitiated EventType = "initiated"
	EventTypeValidated EventType = "validated"
	EventTypeDebited   EventType = "debited"
	EventTypeCredited  EventType = "credited"
	EventTypeCompleted EventType = "completed"
	EventTypeFailed    EventType = "failed"
)

// TransferEventSequence is the exact event order of every completed transfer.
var TransferEventSequence = []EventType{
	EventTypeInitiated,
	EventTypeValidated,
	EventTypeDebited,
	EventTypeCredited,
	EventTypeCompleted,
}

// IsValid reports whether t is a known event type.
func (t EventType) IsValid() bool {
	switch t {
	case EventTypeInitiated, EventTypeValidated, EventTypeDebited,
		EventTypeCredited, EventTypeCompleted, EventTypeFailed:
		return true
	}
	return false
}

// JSON is a structured event snapshot.
type JSON map[string]any

// ToPayload converts a payload struct into its JSON snapshot form.
func ToPayload(v any) (JSON, error) {
	if v == nil {
		return JSON{}, nil
	}

	if j, ok := v.(JSON); ok {
		return j, nil
	}

	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("marshal event payload: %w", err)
	}

	var result JSON
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, fmt.Errorf("event payload must be a JSON object: %w", err)
	}

	return result, nil
}

// TransactionEvent is one immutable row of a transaction's event log.
type TransactionEvent struct {
	ID            int64
	TransactionID int64
	EventType     EventType
	Payload       JSON
	CreatedAt     time.Time
}

// Record strips storage identity from the event.
func (e *TransactionEvent) Record() EventRecord {
	return EventRecord{
		EventType: e.EventType,
		Payload:   e.Payload,
		Timestamp: e.CreatedAt,
	}
}

// EventRecord is the read model of an event as returned by history queries.
type EventRecord struct {
	EventType EventType `json:"event_type"`
	Payload   JSON      `json:"payload"`
	Timestamp time.Time `json:"timestamp"`
}

// InitiatedPayload snapshots the computed amounts and pre-transfer balances.
type InitiatedPayload struct {
	SenderID              int64 `json:"sender_id"`
	ReceiverID            int64 `json:"receiver_id"`
	Amount                Money `json:"amount"`
	Commission            Money `json:"commission"`
	TotalDebit            Money `json:"total_debit"`
	SenderBalanceBefore   Money `json:"sender_balance_before"`
	ReceiverBalanceBefore Money `json:"receiver_balance_before"`
}

type ValidationChecks struct {
	SufficientBalance bool `json:"sufficient_balance"`
	NotSelfTransfer   bool `json:"not_self_transfer"`
	ReceiverExists    bool `json:"receiver_exists"`
}

type ValidatedPayload struct {
	ValidationChecks ValidationChecks `json:"validation_checks"`
}

// BalanceChangePayload is used by both debited and credited events.
type BalanceChangePayload struct {
	AccountID     int64 `json:"user_id"`
	Amount        Money `json:"amount"`
	BalanceBefore Money `json:"balance_before"`
}

type CompletedPayload struct {
	SenderBalanceAfter   Money     `json:"sender_balance_after"`
	ReceiverBalanceAfter Money     `json:"receiver_balance_after"`
	CommissionCollected  Money     `json:"commission_collected"`
	CompletedAt          time.Time `json:"completed_at"`
}

// TransferCompleted is the post-commit notification addressed to both participants.
type TransferCompleted struct {
	ID            string            `json:"id"`
	TransactionID int64             `json:"transaction_id"`
	Amount        Money             `json:"amount"`
	Commission    Money             `json:"commission"`
	Status        TransactionStatus `json:"status"`
	SenderID      int64             `json:"sender_id"`
	ReceiverID    int64             `json:"receiver_id"`
	OccurredAt    time.Time         `json:"occurred_at"`
}

// NewTransferCompleted builds the notification for a committed transaction.
func NewTransferCompleted(id string, t *Transaction, now time.Time) TransferCompleted {
	var sender int64
	if t.SenderID != nil {
		sender = *t.SenderID
	}

	return TransferCompleted{
		ID:            id,
		TransactionID: t.ID,
		Amount:        t.Amount,
		Commission:    t.CommissionFee,
		Status:        t.Status,
		SenderID:      sender,
		ReceiverID:    t.ReceiverID,
		OccurredAt:    now,
	}
}

// Channels returns one audience channel per participant.
func (n TransferCompleted) Channels() []string {
	channels := make([]string, 0, 2)
	if n.SenderID != 0 {
		channels = append(channels, UserChannel(n.SenderID))
	}

	return append(channels, UserChannel(n.ReceiverID))
}

// UserChannel names the private broadcast channel of an account.
func UserChannel(accountID int64) string {
	return fmt.Sprintf("user.%d", accountID)
}
