package dto

import (
	"time"

	"pix-wallet/internal/core/domain"

	"github.com/shopspring/decimal"
)

// AmountRequest is the request body for wallet credit and debit.
// Amount accepts a JSON number or string; validation happens in the ledger.
type AmountRequest struct {
	Amount decimal.Decimal `json:"amount"`
}

// RegisterPixKeyRequest is the request body for alias registration.
// Value is ignored for EVP keys.
type RegisterPixKeyRequest struct {
	Type  string `json:"type" binding:"required,pix_key_type"`
	Value string `json:"value" binding:"max=77"`
}

// InitiateTransferRequest is the request body for a pix transfer.
type InitiateTransferRequest struct {
	FromWalletID string          `json:"from_wallet_id" binding:"required,uuid"`
	PixKeyType   string          `json:"pix_key_type" binding:"required,pix_key_type"`
	PixKeyValue  string          `json:"pix_key_value" binding:"required,max=77"`
	Amount       decimal.Decimal `json:"amount"`
}

// WalletTransferRequest is the request body for a direct wallet transfer.
type WalletTransferRequest struct {
	FromWalletID string          `json:"from_wallet_id" binding:"required,uuid"`
	ToWalletID   string          `json:"to_wallet_id" binding:"required,uuid"`
	Amount       decimal.Decimal `json:"amount"`
}

// SettlementEventRequest is the body posted by the settlement provider.
type SettlementEventRequest struct {
	EndToEndID string    `json:"end_to_end_id" binding:"required,max=64,safe_id"`
	Status     string    `json:"status" binding:"required,settlement_status"`
	Timestamp  time.Time `json:"timestamp"`
}

// WalletResponse is the response body for wallet queries.
type WalletResponse struct {
	ID        string `json:"id"`
	Balance   string `json:"balance"`
	Version   int64  `json:"version"`
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
}

// BalanceResponse is the response for current and historical balance queries.
type BalanceResponse struct {
	WalletID string  `json:"wallet_id"`
	Balance  string  `json:"balance"`
	At       *string `json:"at,omitempty"`
}

// WalletTransferResponse reports both balances after a direct transfer.
type WalletTransferResponse struct {
	FromWalletID string `json:"from_wallet_id"`
	ToWalletID   string `json:"to_wallet_id"`
	Amount       string `json:"amount"`
	FromBalance  string `json:"from_balance"`
	ToBalance    string `json:"to_balance"`
}

// WalletTransactionResponse is one transaction log entry.
type WalletTransactionResponse struct {
	ID           string `json:"id"`
	Type         string `json:"type"`
	Amount       string `json:"amount"`
	BalanceAfter string `json:"balance_after"`
	CreatedAt    string `json:"created_at"`
}

// PixKeyResponse is the response body for alias registration and lookup.
type PixKeyResponse struct {
	ID        string `json:"id"`
	Type      string `json:"type"`
	Value     string `json:"value"`
	WalletID  string `json:"wallet_id"`
	CreatedAt string `json:"created_at"`
}

// TransferResponse is the outbound representation of a transfer.
type TransferResponse struct {
	EndToEndID      string `json:"end_to_end_id"`
	Amount          string `json:"amount"`
	FromWalletID    string `json:"from_wallet_id"`
	ToWalletID      string `json:"to_wallet_id"`
	Status          string `json:"status"`
	CreatedAt       string `json:"created_at"`
	StatusUpdatedAt string `json:"status_updated_at"`
}

// SettlementResponse is returned when a settlement event is applied.
type SettlementResponse struct {
	Outcome  string           `json:"outcome"`
	Transfer TransferResponse `json:"transfer"`
}

// FormatTime renders timestamps the same way in every response.
func FormatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

// NewWalletResponse converts a domain wallet.
func NewWalletResponse(w *domain.Wallet) WalletResponse {
	return WalletResponse{
		ID:        w.ID.String(),
		Balance:   domain.FormatAmount(w.Balance),
		Version:   w.Version,
		CreatedAt: FormatTime(w.CreatedAt),
		UpdatedAt: FormatTime(w.UpdatedAt),
	}
}

// NewWalletTransactionResponses converts a page of log entries.
func NewWalletTransactionResponses(txns []domain.WalletTransaction) []WalletTransactionResponse {
	items := make([]WalletTransactionResponse, 0, len(txns))
	for _, t := range txns {
		items = append(items, WalletTransactionResponse{
			ID:           t.ID.String(),
			Type:         string(t.Type),
			Amount:       domain.FormatAmount(t.Amount),
			BalanceAfter: domain.FormatAmount(t.BalanceAfter),
			CreatedAt:    FormatTime(t.CreatedAt),
		})
	}
	return items
}

// NewPixKeyResponse converts a domain pix key.
func NewPixKeyResponse(k *domain.PixKey) PixKeyResponse {
	return PixKeyResponse{
		ID:        k.ID.String(),
		Type:      string(k.Type),
		Value:     k.Value,
		WalletID:  k.WalletID.String(),
		CreatedAt: FormatTime(k.CreatedAt),
	}
}

// NewTransferResponse converts a domain transfer.
func NewTransferResponse(t *domain.Transfer) TransferResponse {
	return TransferResponse{
		EndToEndID:      t.CorrelationID,
		Amount:          domain.FormatAmount(t.Amount),
		FromWalletID:    t.SourceWalletID.String(),
		ToWalletID:      t.DestinationWalletID.String(),
		Status:          string(t.Status),
		CreatedAt:       FormatTime(t.CreatedAt),
		StatusUpdatedAt: FormatTime(t.StatusUpdatedAt),
	}
}
