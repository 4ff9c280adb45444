package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"pix-wallet/internal/core/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const walletTransactionColumns = `id, wallet_id, type, amount, balance_after, created_at`

// WalletTransactionRepo implements ports.WalletTransactionRepository.
// Rows are insert-only; nothing in this package updates or deletes them.
type WalletTransactionRepo struct {
	pool Pool
}

// NewWalletTransactionRepo creates a new WalletTransactionRepo.
func NewWalletTransactionRepo(pool Pool) *WalletTransactionRepo {
	return &WalletTransactionRepo{pool: pool}
}

// Append inserts a ledger entry.
func (r *WalletTransactionRepo) Append(ctx context.Context, t *domain.WalletTransaction) error {
	query := `INSERT INTO wallet_transactions (` + walletTransactionColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6)`

	_, err := conn(ctx, r.pool).Exec(ctx, query,
		t.ID, t.WalletID, t.Type, t.Amount, t.BalanceAfter, t.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert wallet transaction: %w", err)
	}
	return nil
}

// LatestAtOrBefore returns the newest entry with created_at <= at, or nil.
func (r *WalletTransactionRepo) LatestAtOrBefore(ctx context.Context, walletID uuid.UUID, at time.Time) (*domain.WalletTransaction, error) {
	query := `SELECT ` + walletTransactionColumns + `
		FROM wallet_transactions
		WHERE wallet_id = $1 AND created_at <= $2
		ORDER BY created_at DESC, id DESC
		LIMIT 1`

	t := &domain.WalletTransaction{}
	err := conn(ctx, r.pool).QueryRow(ctx, query, walletID, at).Scan(
		&t.ID, &t.WalletID, &t.Type, &t.Amount, &t.BalanceAfter, &t.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get latest wallet transaction: %w", err)
	}
	return t, nil
}

// ListByWallet returns up to limit entries for the wallet, newest first.
func (r *WalletTransactionRepo) ListByWallet(ctx context.Context, walletID uuid.UUID, limit int) ([]domain.WalletTransaction, error) {
	query := `SELECT ` + walletTransactionColumns + `
		FROM wallet_transactions
		WHERE wallet_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2`

	rows, err := conn(ctx, r.pool).Query(ctx, query, walletID, limit)
	if err != nil {
		return nil, fmt.Errorf("list wallet transactions: %w", err)
	}
	defer rows.Close()

	var out []domain.WalletTransaction
	for rows.Next() {
		var t domain.WalletTransaction
		if err := rows.Scan(&t.ID, &t.WalletID, &t.Type, &t.Amount, &t.BalanceAfter, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan wallet transaction: %w", err)
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate wallet transactions: %w", err)
	}
	return out, nil
}
