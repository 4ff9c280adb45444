package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Wallet holds a balance guarded by an optimistic version counter.
// Balance is never negative; every mutation increments Version by one.
type Wallet struct {
	ID        uuid.UUID       `json:"id"`
	Balance   decimal.Decimal `json:"balance"`
	Version   int64           `json:"version"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// NewWallet returns an empty wallet at version 0.
func NewWallet(now time.Time) *Wallet {
	return &Wallet{
		ID:        uuid.New(),
		Balance:   decimal.Zero,
		Version:   0,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Credit adds amount to the balance and bumps the version.
func (w *Wallet) Credit(amount decimal.Decimal, now time.Time) error {
	if !IsValidAmount(amount) {
		return ErrInvalidAmount
	}
	w.Balance = w.Balance.Add(NormalizeAmount(amount))
	w.Version++
	w.UpdatedAt = now
	return nil
}

// Debit subtracts amount from the balance and bumps the version.
// The wallet is left untouched when the balance does not cover amount.
func (w *Wallet) Debit(amount decimal.Decimal, now time.Time) error {
	if !IsValidAmount(amount) {
		return ErrInvalidAmount
	}
	if !w.CanCover(amount) {
		return ErrInsufficientBalance
	}
	w.Balance = w.Balance.Sub(NormalizeAmount(amount))
	w.Version++
	w.UpdatedAt = now
	return nil
}

// CanCover reports whether the current balance is at least amount.
func (w *Wallet) CanCover(amount decimal.Decimal) bool {
	return w.Balance.GreaterThanOrEqual(amount)
}
