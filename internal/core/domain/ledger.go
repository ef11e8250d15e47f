package domain

import "time"

// LedgerReason enumerates why a balance changed.
type LedgerReason string

const (
	ReasonGrantPack        LedgerReason = "grant_pack"
	ReasonAdminGrant       LedgerReason = "admin_grant"
	ReasonAdminReset       LedgerReason = "admin_reset"
	ReasonChargeTranslate  LedgerReason = "charge_translate"
	ReasonChargeTranscribe LedgerReason = "charge_transcribe"
	ReasonChargeSpeech     LedgerReason = "charge_speech"
)

// IsValid reports whether r is one of the known reasons.
func (r LedgerReason) IsValid() bool {
	switch r {
	case ReasonGrantPack, ReasonAdminGrant, ReasonAdminReset,
		ReasonChargeTranslate, ReasonChargeTranscribe, ReasonChargeSpeech:
		return true
	}
	return false
}

// IsCharge reports whether r debits the account.
func (r LedgerReason) IsCharge() bool {
	switch r {
	case ReasonChargeTranslate, ReasonChargeTranscribe, ReasonChargeSpeech:
		return true
	}
	return false
}

// IsGrant reports whether r credits the account.
func (r LedgerReason) IsGrant() bool {
	return r == ReasonGrantPack || r == ReasonAdminGrant
}

// LedgerEntry is an immutable balance delta. For every account the sum of Delta equals Balance.
type LedgerEntry struct {
	EntryID   string       `json:"entryID"`
	AccountID string       `json:"accountID"`
	Delta     int64        `json:"delta"`
	Reason    LedgerReason `json:"reason"`
	Metadata  Metadata     `json:"metadata,omitempty"`
	CreatedAt time.Time    `json:"createdAt"`
}
