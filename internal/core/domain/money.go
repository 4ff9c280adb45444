package domain

import "github.com/shopspring/decimal"

// MoneyScale is the number of fractional digits carried by every amount and balance.
const MoneyScale = 2

// IsValidAmount reports whether amount is strictly positive and has no more
// than MoneyScale fractional digits.
func IsValidAmount(amount decimal.Decimal) bool {
	if !amount.IsPositive() {
		return false
	}
	return amount.Equal(amount.Round(MoneyScale))
}

// NormalizeAmount rounds to MoneyScale so that stored values compare and
// render consistently ("50" and "50.00" are the same amount).
func NormalizeAmount(amount decimal.Decimal) decimal.Decimal {
	return amount.Round(MoneyScale)
}

// FormatAmount renders an amount with exactly MoneyScale fractional digits.
func FormatAmount(amount decimal.Decimal) string {
	return amount.StringFixed(MoneyScale)
}
