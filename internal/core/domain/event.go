package domain

import (
	"encoding/json"
	"time"
)

// Event types recorded by the idempotency guard.
const (
	EventTypePaymentConfirmed = "payment.confirmed"
	EventTypeRelayCompletion  = "relay.completion"
)

// ProcessedEvent records that an inbound event was finalized. Write-once.
type ProcessedEvent struct {
	EventID     string    `json:"eventID"`
	EventType   string    `json:"eventType"`
	ProcessedAt time.Time `json:"processedAt"`
}

// PaymentStatusPaid is the only payment status that grants credits.
const PaymentStatusPaid = "paid"

// PaymentEvent is a payment processor confirmation.
type PaymentEvent struct {
	EventID   string
	AccountID string
	PackID    string
	Credits   int64
	Status    string
}

// RelayEvent is a completion callback for an asynchronous job.
type RelayEvent struct {
	EventID string
	JobID   string
	Success bool
	Result  json.RawMessage
	Error   string
	Usage   Usage
}
