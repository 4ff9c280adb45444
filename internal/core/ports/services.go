package ports

import (
	"context"
	"time"

	"pix-wallet/internal/core/domain"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// --- Service Ports (Business Logic) ---

// LedgerService is the wallet ledger: balances plus their transaction log.
type LedgerService interface {
	CreateWallet(ctx context.Context) (*domain.Wallet, error)
	GetWallet(ctx context.Context, walletID uuid.UUID) (*domain.Wallet, error)
	Credit(ctx context.Context, walletID uuid.UUID, amount decimal.Decimal) (decimal.Decimal, error)
	Debit(ctx context.Context, walletID uuid.UUID, amount decimal.Decimal) (decimal.Decimal, error)
	// BalanceAt reconstructs the balance at a point in time from the transaction log.
	BalanceAt(ctx context.Context, walletID uuid.UUID, at time.Time) (decimal.Decimal, error)
	Transactions(ctx context.Context, walletID uuid.UUID, limit int) ([]domain.WalletTransaction, error)
	// ApplyTransfer debits source and credits destination inside the caller's
	// unit of work. It makes a single attempt and returns domain sentinel errors
	// (ErrWalletNotFound, ErrInsufficientBalance, ErrVersionConflict) so the
	// caller can decide whether to retry its whole unit.
	ApplyTransfer(ctx context.Context, sourceID, destinationID uuid.UUID, amount decimal.Decimal) error
	// Transfer moves funds between two wallets immediately as its own unit
	// of work, retried on version conflict.
	Transfer(ctx context.Context, fromID, toID uuid.UUID, amount decimal.Decimal) (*WalletTransferResult, error)
}

// WalletTransferResult holds both balances after a direct wallet transfer.
type WalletTransferResult struct {
	FromBalance decimal.Decimal
	ToBalance   decimal.Decimal
}

// PixKeyService is the alias directory.
type PixKeyService interface {
	Register(ctx context.Context, keyType domain.PixKeyType, value string, walletID uuid.UUID) (*domain.PixKey, error)
	Resolve(ctx context.Context, keyType domain.PixKeyType, value string) (*domain.PixKey, error)
}

// PixKeyValidator checks the format of externally supplied key values.
type PixKeyValidator interface {
	Valid(keyType domain.PixKeyType, value string) bool
}

// TransferService initiates pix transfers without moving funds.
type TransferService interface {
	Initiate(ctx context.Context, req InitiateTransferRequest) (*domain.Transfer, error)
	GetByCorrelationID(ctx context.Context, correlationID string) (*domain.Transfer, error)
}

// InitiateTransferRequest holds validated input for transfer initiation.
type InitiateTransferRequest struct {
	SourceWalletID uuid.UUID
	PixKeyType     domain.PixKeyType
	PixKeyValue    string
	Amount         decimal.Decimal
}

// SettlementService applies external settlement events to transfers.
type SettlementService interface {
	HandleEvent(ctx context.Context, event SettlementEvent) (SettlementResult, error)
}

// SettlementEvent is an inbound confirmation or rejection for a transfer.
type SettlementEvent struct {
	CorrelationID  string
	ProposedStatus domain.TransferStatus
	Timestamp      time.Time
}

// SettlementResult is the outcome of an event that changed a transfer.
// TransferNotFound and EventIgnored are reported as errors.
type SettlementResult struct {
	Outcome  string
	Transfer *domain.Transfer
}

// SettlementOutcomeApplied is the only successful settlement outcome.
const SettlementOutcomeApplied = "APPLIED"

// TransferEventPublisher announces committed transfer lifecycle changes.
type TransferEventPublisher interface {
	Publish(ctx context.Context, eventType string, transfer *domain.Transfer) error
}

// WebhookTokenService validates bearer tokens presented by the settlement provider.
type WebhookTokenService interface {
	Validate(tokenString string) (*WebhookClaims, error)
}

// WebhookClaims holds the parsed webhook token claims.
type WebhookClaims struct {
	Provider string
}

// AuditService records audited actions.
type AuditService interface {
	Log(ctx context.Context, entry *domain.AuditLog)
}

// RateLimiter counts requests per key in fixed windows.
type RateLimiter interface {
	Allow(ctx context.Context, key string, limit int64, window time.Duration) (*RateLimitResult, error)
}

// RateLimitResult holds the outcome of a rate limit check.
type RateLimitResult struct {
	Allowed   bool
	Limit     int64
	Remaining int64
	ResetAt   int64 // Unix timestamp
}
