package ports

import (
	"context"
	"time"

	"pix-wallet/internal/core/domain"

	"github.com/google/uuid"
)

// Stores return (nil, nil) when a lookup finds nothing. Every method joins the
// unit of work carried by ctx when one was opened through Transactor.

// WalletRepository defines persistence operations for wallets.
type WalletRepository interface {
	Create(ctx context.Context, wallet *domain.Wallet) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Wallet, error)
	// UpdateBalance writes wallet.Balance and wallet.Version only if the stored
	// version still equals expectedVersion; otherwise it returns domain.ErrVersionConflict.
	UpdateBalance(ctx context.Context, wallet *domain.Wallet, expectedVersion int64) error
}

// WalletTransactionRepository is the append-only transaction log.
type WalletTransactionRepository interface {
	Append(ctx context.Context, txn *domain.WalletTransaction) error
	// LatestAtOrBefore returns the newest entry for walletID created at or before at.
	LatestAtOrBefore(ctx context.Context, walletID uuid.UUID, at time.Time) (*domain.WalletTransaction, error)
	// ListByWallet returns up to limit entries, newest first.
	ListByWallet(ctx context.Context, walletID uuid.UUID, limit int) ([]domain.WalletTransaction, error)
}

// PixKeyRepository defines persistence operations for the alias directory.
type PixKeyRepository interface {
	// Create returns domain.ErrDuplicatePixKey when (type, value) is taken.
	Create(ctx context.Context, key *domain.PixKey) error
	Exists(ctx context.Context, keyType domain.PixKeyType, value string) (bool, error)
	GetByTypeAndValue(ctx context.Context, keyType domain.PixKeyType, value string) (*domain.PixKey, error)
}

// TransferRepository defines persistence operations for pix transfers.
type TransferRepository interface {
	Create(ctx context.Context, transfer *domain.Transfer) error
	GetByCorrelationID(ctx context.Context, correlationID string) (*domain.Transfer, error)
	// GetByCorrelationIDForUpdate takes an exclusive lock on the transfer that is
	// held until the enclosing unit of work ends. It MUST be called within Transactor.WithinTx.
	GetByCorrelationIDForUpdate(ctx context.Context, correlationID string) (*domain.Transfer, error)
	UpdateStatus(ctx context.Context, transfer *domain.Transfer) error
}

// AuditRepository persists audit entries.
type AuditRepository interface {
	Create(ctx context.Context, log *domain.AuditLog) error
}

// Transactor runs fn as one all-or-nothing unit of work. The context passed to
// fn carries the unit; stores called with it take part in it. A nested call
// joins the outer unit instead of opening a new one. Any error returned by fn
// (or a panic) discards every write made inside the unit.
type Transactor interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error
}
