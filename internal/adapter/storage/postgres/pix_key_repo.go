package postgres

import (
	"context"
	"errors"
	"fmt"

	"pix-wallet/internal/core/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

const uniqueViolation = "23505"

// PixKeyRepo implements ports.PixKeyRepository.
// Uniqueness of (type, value) is enforced by the pix_keys_type_value_key constraint.
type PixKeyRepo struct {
	pool Pool
}

// NewPixKeyRepo creates a new PixKeyRepo.
func NewPixKeyRepo(pool Pool) *PixKeyRepo {
	return &PixKeyRepo{pool: pool}
}

// Create inserts a pix key, translating unique violations to domain.ErrDuplicatePixKey.
func (r *PixKeyRepo) Create(ctx context.Context, k *domain.PixKey) error {
	query := `INSERT INTO pix_keys (id, type, value, wallet_id, created_at)
		VALUES ($1, $2, $3, $4, $5)`

	_, err := conn(ctx, r.pool).Exec(ctx, query, k.ID, k.Type, k.Value, k.WalletID, k.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicatePixKey
		}
		return fmt.Errorf("insert pix key: %w", err)
	}
	return nil
}

// Exists reports whether (type, value) is already registered.
func (r *PixKeyRepo) Exists(ctx context.Context, keyType domain.PixKeyType, value string) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM pix_keys WHERE type = $1 AND value = $2)`

	var exists bool
	if err := conn(ctx, r.pool).QueryRow(ctx, query, keyType, value).Scan(&exists); err != nil {
		return false, fmt.Errorf("check pix key exists: %w", err)
	}
	return exists, nil
}

// GetByTypeAndValue fetches a pix key by its (type, value) pair.
func (r *PixKeyRepo) GetByTypeAndValue(ctx context.Context, keyType domain.PixKeyType, value string) (*domain.PixKey, error) {
	query := `SELECT id, type, value, wallet_id, created_at
		FROM pix_keys WHERE type = $1 AND value = $2`

	k := &domain.PixKey{}
	err := conn(ctx, r.pool).QueryRow(ctx, query, keyType, value).Scan(
		&k.ID, &k.Type, &k.Value, &k.WalletID, &k.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get pix key: %w", err)
	}
	return k, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}
