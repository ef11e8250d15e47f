package dto

import (
	"time"

	"github.com/SscSPs/usage_billing_app/internal/core/domain"
)

// BalanceResponse is the credit balance of the calling account.
type BalanceResponse struct {
	AccountID string `json:"accountID"`
	Balance   int64  `json:"balance"`
}

// LedgerEntryResponse mirrors domain.LedgerEntry.
type LedgerEntryResponse struct {
	EntryID   string              `json:"entryID"`
	Delta     int64               `json:"delta"`
	Reason    domain.LedgerReason `json:"reason"`
	Metadata  domain.Metadata     `json:"metadata,omitempty"`
	CreatedAt time.Time           `json:"createdAt"`
}

// ListLedgerParams defines query parameters for listing ledger entries.
type ListLedgerParams struct {
	Limit  int `form:"limit,default=50"`
	Offset int `form:"offset,default=0"`
}

// ToLedgerEntryResponse converts a domain.LedgerEntry to its DTO
func ToLedgerEntryResponse(e domain.LedgerEntry) LedgerEntryResponse {
	return LedgerEntryResponse{
		EntryID:   e.EntryID,
		Delta:     e.Delta,
		Reason:    e.Reason,
		Metadata:  e.Metadata,
		CreatedAt: e.CreatedAt,
	}
}

// ToListLedgerEntryResponse converts a slice of entries.
func ToListLedgerEntryResponse(entries []domain.LedgerEntry) []LedgerEntryResponse {
	res := make([]LedgerEntryResponse, len(entries))
	for i, e := range entries {
		res[i] = ToLedgerEntryResponse(e)
	}
	return res
}

// GrantCreditsRequest is an admin credit grant.
type GrantCreditsRequest struct {
	Amount int64  `json:"amount" binding:"required,gt=0"`
	Note   string `json:"note"`
}

// ResetBalanceRequest sets an account to an exact balance.
type ResetBalanceRequest struct {
	Balance *int64 `json:"balance" binding:"required,gte=0"`
	Note    string `json:"note"`
}

// AccountResponse is returned after a grant.
type AccountResponse struct {
	AccountID string    `json:"accountID"`
	Balance   int64     `json:"balance"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func ToAccountResponse(acc *domain.Account) AccountResponse {
	return AccountResponse{AccountID: acc.AccountID, Balance: acc.Balance, UpdatedAt: acc.UpdatedAt}
}
