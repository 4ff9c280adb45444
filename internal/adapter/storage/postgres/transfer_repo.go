package postgres

import (
	"context"
	"errors"
	"fmt"

	"pix-wallet/internal/core/domain"

	"github.com/jackc/pgx/v5"
)

const transferColumns = `id, source_wallet_id, destination_wallet_id, pix_key_id, amount,
	end_to_end_id, status, created_at, status_updated_at`

// TransferRepo implements ports.TransferRepository.
type TransferRepo struct {
	pool Pool
}

// NewTransferRepo creates a new TransferRepo.
func NewTransferRepo(pool Pool) *TransferRepo {
	return &TransferRepo{pool: pool}
}

// Create inserts a new transfer.
func (r *TransferRepo) Create(ctx context.Context, t *domain.Transfer) error {
	query := `INSERT INTO pix_transfers (` + transferColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	_, err := conn(ctx, r.pool).Exec(ctx, query,
		t.ID, t.SourceWalletID, t.DestinationWalletID, t.PixKeyID, t.Amount,
		t.CorrelationID, t.Status, t.CreatedAt, t.StatusUpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert transfer: %w", err)
	}
	return nil
}

// GetByCorrelationID fetches a transfer by its end-to-end id (non-locking read).
func (r *TransferRepo) GetByCorrelationID(ctx context.Context, correlationID string) (*domain.Transfer, error) {
	query := `SELECT ` + transferColumns + ` FROM pix_transfers WHERE end_to_end_id = $1`

	return scanTransfer(conn(ctx, r.pool).QueryRow(ctx, query, correlationID))
}

// GetByCorrelationIDForUpdate fetches a transfer with a row lock held until the
// surrounding transaction ends. This MUST be called within a transaction.
func (r *TransferRepo) GetByCorrelationIDForUpdate(ctx context.Context, correlationID string) (*domain.Transfer, error) {
	tx, ok := txFromContext(ctx)
	if !ok {
		return nil, fmt.Errorf("lock transfer %s: %w", correlationID, errNoTx)
	}

	query := `SELECT ` + transferColumns + ` FROM pix_transfers WHERE end_to_end_id = $1 FOR UPDATE`

	return scanTransfer(tx.QueryRow(ctx, query, correlationID))
}

// UpdateStatus persists the transfer status and its last status update time.
func (r *TransferRepo) UpdateStatus(ctx context.Context, t *domain.Transfer) error {
	query := `UPDATE pix_transfers SET status = $1, status_updated_at = $2 WHERE id = $3`

	tag, err := conn(ctx, r.pool).Exec(ctx, query, t.Status, t.StatusUpdatedAt, t.ID)
	if err != nil {
		return fmt.Errorf("update transfer status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("transfer not found: %s", t.ID)
	}
	return nil
}

func scanTransfer(row pgx.Row) (*domain.Transfer, error) {
	t := &domain.Transfer{}
	err := row.Scan(
		&t.ID, &t.SourceWalletID, &t.DestinationWalletID, &t.PixKeyID, &t.Amount,
		&t.CorrelationID, &t.Status, &t.CreatedAt, &t.StatusUpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("scan transfer: %w", err)
	}
	return t, nil
}
