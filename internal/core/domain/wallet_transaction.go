package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// WalletTransactionType is the direction of a balance mutation.
type WalletTransactionType string

const (
	WalletTransactionCredit WalletTransactionType = "CREDIT"
	WalletTransactionDebit  WalletTransactionType = "DEBIT"
)

// WalletTransaction is an immutable entry in a wallet's transaction log.
// BalanceAfter is the wallet balance right after this mutation.
type WalletTransaction struct {
	ID           uuid.UUID             `json:"id"`
	WalletID     uuid.UUID             `json:"wallet_id"`
	Type         WalletTransactionType `json:"type"`
	Amount       decimal.Decimal       `json:"amount"`
	BalanceAfter decimal.Decimal       `json:"balance_after"`
	CreatedAt    time.Time             `json:"created_at"`
}

// NewWalletTransaction builds a log entry. IDs are UUIDv7 so that entries
// created within the same instant still sort in append order.
func NewWalletTransaction(walletID uuid.UUID, typ WalletTransactionType, amount, balanceAfter decimal.Decimal, now time.Time) *WalletTransaction {
	id, err := uuid.NewV7()
	if err != nil {
		id = uuid.New()
	}
	return &WalletTransaction{
		ID:           id,
		WalletID:     walletID,
		Type:         typ,
		Amount:       NormalizeAmount(amount),
		BalanceAfter: balanceAfter,
		CreatedAt:    now,
	}
}

// SignedAmount returns the amount as a balance delta (negative for debits).
func (t *WalletTransaction) SignedAmount() decimal.Decimal {
	if t.Type == WalletTransactionDebit {
		return t.Amount.Neg()
	}
	return t.Amount
}
