package domain

import "github.com/shopspring/decimal"

// ToCredits rounds a fractional cost up to whole credits. The ledger never sees fractions.
func ToCredits(cost decimal.Decimal) int64 {
	if !cost.IsPositive() {
		return 0
	}
	return cost.Ceil().IntPart()
}
