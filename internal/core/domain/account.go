package domain

import "time"

// Account is a prepaid credit balance keyed by an opaque device token.
// Balance is never negative; only grants and charges mutate it.
type Account struct {
	AccountID string    `json:"accountID"` // Device token (UUID)
	Balance   int64     `json:"balance"`   // Credits
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Reconciliation compares the live balance with the sum of the ledger.
type Reconciliation struct {
	AccountID  string `json:"accountID"`
	Balance    int64  `json:"balance"`
	LedgerSum  int64  `json:"ledgerSum"`
	EntryCount int64  `json:"entryCount"`
	Consistent bool   `json:"consistent"`
}
