package domain

import (
	"encoding/json"
	"fmt"
	"time"
)

// ChargeKey identifies one settled charge. At most one ChargeRecord exists per key.
type ChargeKey struct {
	AccountID      string
	Reason         LedgerReason
	IdempotencyKey string
}

func (k ChargeKey) String() string {
	return fmt.Sprintf("%s/%s/%s", k.AccountID, k.Reason, k.IdempotencyKey)
}

// ChargeRecord marks a charge as settled. Write-once.
// RequestHash fingerprints the request the key was first used for; Response is the result
// returned to that request, replayed on retries.
type ChargeRecord struct {
	ChargeKey
	Spend       int64
	Metadata    Metadata
	RequestHash string
	Response    json.RawMessage
	CreatedAt   time.Time
}

// Matches reports whether a request with the given fingerprint may reuse this record.
func (r ChargeRecord) Matches(requestHash string) bool {
	return r.RequestHash == requestHash
}

// ChargeRequest is the input to a deduction. IdempotencyKey is optional.
type ChargeRequest struct {
	AccountID      string
	Amount         int64
	Reason         LedgerReason
	Metadata       Metadata
	IdempotencyKey string
	RequestHash    string
	Response       json.RawMessage
}

// Key returns the idempotency key triple for the request.
func (r ChargeRequest) Key() ChargeKey {
	return ChargeKey{AccountID: r.AccountID, Reason: r.Reason, IdempotencyKey: r.IdempotencyKey}
}

// ChargeOutcome is what the store did with a debit attempt.
type ChargeOutcome string

const (
	ChargeApplied        ChargeOutcome = "applied"
	ChargeAlreadySettled ChargeOutcome = "already_settled"
	ChargeSkipped        ChargeOutcome = "skipped"
	ChargeDeclined       ChargeOutcome = "declined"
)

// Succeeded reports whether the outcome counts as a paid charge.
func (o ChargeOutcome) Succeeded() bool {
	return o == ChargeApplied || o == ChargeAlreadySettled || o == ChargeSkipped
}
