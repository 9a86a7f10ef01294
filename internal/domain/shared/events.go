package shared

import (
	"time"

	"github.com/google/uuid"
)

// AccountEvent is the Kafka message emitted after an account state transition
type AccountEvent struct {
	EventID       uuid.UUID         `json:"event_id"`
	Type          AccountEventType  `json:"type"`
	AccountID     string            `json:"account_id,omitempty"`
	CustomerID    string            `json:"customer_id,omitempty"`
	AccountNumber string            `json:"account_number,omitempty"`
	ProductType   string            `json:"product_type,omitempty"`
	CorrelationID string            `json:"correlation_id,omitempty"`
	Attributes    map[string]string `json:"attributes,omitempty"`
	OccurredAt    time.Time         `json:"occurred_at"`
}

// NewAccountEvent stamps a fresh event id and timestamp
func NewAccountEvent(eventType AccountEventType) *AccountEvent {
	return &AccountEvent{
		EventID:    uuid.New(),
		Type:       eventType,
		OccurredAt: time.Now().UTC(),
	}
}

// Key returns the partition key; events of one account stay ordered
func (e *AccountEvent) Key() string {
	if e.AccountID != "" {
		return e.AccountID
	}
	return e.EventID.String()
}

// MovementEvent is consumed from the transaction service each time a deposit
// account registers a movement that counts against its monthly free limit.
type MovementEvent struct {
	TransactionID string    `json:"transaction_id"`
	AccountID     string    `json:"account_id"`
	CorrelationID string    `json:"correlation_id,omitempty"`
	OccurredAt    time.Time `json:"occurred_at"`
}
