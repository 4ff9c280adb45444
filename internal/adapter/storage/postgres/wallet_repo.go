package postgres

import (
	"context"
	"errors"
	"fmt"

	"pix-wallet/internal/core/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

const walletColumns = `id, balance, version, created_at, updated_at`

// WalletRepo implements ports.WalletRepository.
type WalletRepo struct {
	pool Pool
}

// NewWalletRepo creates a new WalletRepo.
func NewWalletRepo(pool Pool) *WalletRepo {
	return &WalletRepo{pool: pool}
}

// Create inserts a new wallet into the database.
func (r *WalletRepo) Create(ctx context.Context, w *domain.Wallet) error {
	query := `INSERT INTO wallets (` + walletColumns + `) VALUES ($1, $2, $3, $4, $5)`

	_, err := conn(ctx, r.pool).Exec(ctx, query,
		w.ID, w.Balance, w.Version, w.CreatedAt, w.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert wallet: %w", err)
	}
	return nil
}

// GetByID fetches a wallet by its UUID (without locking).
func (r *WalletRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Wallet, error) {
	query := `SELECT ` + walletColumns + ` FROM wallets WHERE id = $1`

	w := &domain.Wallet{}
	err := conn(ctx, r.pool).QueryRow(ctx, query, id).Scan(
		&w.ID, &w.Balance, &w.Version, &w.CreatedAt, &w.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get wallet by id: %w", err)
	}
	return w, nil
}

// UpdateBalance performs a compare-and-swap on the wallet version. The row is
// written only while its stored version still equals expectedVersion.
func (r *WalletRepo) UpdateBalance(ctx context.Context, w *domain.Wallet, expectedVersion int64) error {
	query := `UPDATE wallets SET balance = $1, version = $2, updated_at = $3
		WHERE id = $4 AND version = $5`

	tag, err := conn(ctx, r.pool).Exec(ctx, query,
		w.Balance, w.Version, w.UpdatedAt, w.ID, expectedVersion,
	)
	if err != nil {
		if isConcurrencyFailure(err) {
			return fmt.Errorf("update wallet balance: %w: %w", domain.ErrVersionConflict, err)
		}
		return fmt.Errorf("update wallet balance: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrVersionConflict
	}
	return nil
}

// isConcurrencyFailure reports deadlocks and serialization failures. The whole
// unit of work can be retried after either one.
func isConcurrencyFailure(err error) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	return pgErr.Code == "40001" || pgErr.Code == "40P01"
}
