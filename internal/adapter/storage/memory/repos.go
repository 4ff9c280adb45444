package memory

import (
	"bytes"
	"context"
	"fmt"
	"slices"
	"time"

	"pix-wallet/internal/core/domain"

	"github.com/google/uuid"
)

// --- Wallets ---

// WalletRepo implements ports.WalletRepository.
type WalletRepo struct{ s *Store }

func (r *WalletRepo) Create(ctx context.Context, w *domain.Wallet) error {
	return r.s.run(ctx, func(st *state) error {
		if _, ok := st.wallets[w.ID]; ok {
			return fmt.Errorf("wallet %s already exists", w.ID)
		}
		st.wallets[w.ID] = *w
		return nil
	})
}

func (r *WalletRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Wallet, error) {
	var out *domain.Wallet
	err := r.s.run(ctx, func(st *state) error {
		if w, ok := st.wallets[id]; ok {
			out = &w
		}
		return nil
	})
	return out, err
}

func (r *WalletRepo) UpdateBalance(ctx context.Context, w *domain.Wallet, expectedVersion int64) error {
	return r.s.run(ctx, func(st *state) error {
		stored, ok := st.wallets[w.ID]
		if !ok || stored.Version != expectedVersion {
			return domain.ErrVersionConflict
		}
		stored.Balance = w.Balance
		stored.Version = w.Version
		stored.UpdatedAt = w.UpdatedAt
		st.wallets[w.ID] = stored
		return nil
	})
}

// --- Transaction log ---

// WalletTransactionRepo implements ports.WalletTransactionRepository.
type WalletTransactionRepo struct{ s *Store }

func (r *WalletTransactionRepo) Append(ctx context.Context, t *domain.WalletTransaction) error {
	return r.s.run(ctx, func(st *state) error {
		st.walletTxns[t.WalletID] = append(st.walletTxns[t.WalletID], *t)
		return nil
	})
}

func (r *WalletTransactionRepo) LatestAtOrBefore(ctx context.Context, walletID uuid.UUID, at time.Time) (*domain.WalletTransaction, error) {
	var out *domain.WalletTransaction
	err := r.s.run(ctx, func(st *state) error {
		for _, t := range st.walletTxns[walletID] {
			if t.CreatedAt.After(at) {
				continue
			}
			if out == nil || newerThan(t, *out) {
				out = &t
			}
		}
		return nil
	})
	return out, err
}

func (r *WalletTransactionRepo) ListByWallet(ctx context.Context, walletID uuid.UUID, limit int) ([]domain.WalletTransaction, error) {
	var out []domain.WalletTransaction
	err := r.s.run(ctx, func(st *state) error {
		out = slices.Clone(st.walletTxns[walletID])
		return nil
	})
	if err != nil {
		return nil, err
	}

	slices.SortFunc(out, func(a, b domain.WalletTransaction) int {
		switch {
		case newerThan(a, b):
			return -1
		case newerThan(b, a):
			return 1
		}
		return 0
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// newerThan orders by created_at, then id, matching the SQL adapter.
func newerThan(a, b domain.WalletTransaction) bool {
	if !a.CreatedAt.Equal(b.CreatedAt) {
		return a.CreatedAt.After(b.CreatedAt)
	}
	return bytes.Compare(a.ID[:], b.ID[:]) > 0
}

// --- Pix keys ---

// PixKeyRepo implements ports.PixKeyRepository.
type PixKeyRepo struct{ s *Store }

func (r *PixKeyRepo) Create(ctx context.Context, k *domain.PixKey) error {
	return r.s.run(ctx, func(st *state) error {
		idx := pixKeyIndex{keyType: k.Type, value: k.Value}
		if _, ok := st.pixKeys[idx]; ok {
			return domain.ErrDuplicatePixKey
		}
		st.pixKeys[idx] = *k
		return nil
	})
}

func (r *PixKeyRepo) Exists(ctx context.Context, keyType domain.PixKeyType, value string) (bool, error) {
	var exists bool
	err := r.s.run(ctx, func(st *state) error {
		_, exists = st.pixKeys[pixKeyIndex{keyType: keyType, value: value}]
		return nil
	})
	return exists, err
}

func (r *PixKeyRepo) GetByTypeAndValue(ctx context.Context, keyType domain.PixKeyType, value string) (*domain.PixKey, error) {
	var out *domain.PixKey
	err := r.s.run(ctx, func(st *state) error {
		if k, ok := st.pixKeys[pixKeyIndex{keyType: keyType, value: value}]; ok {
			out = &k
		}
		return nil
	})
	return out, err
}

// --- Transfers ---

// TransferRepo implements ports.TransferRepository.
type TransferRepo struct{ s *Store }

func (r *TransferRepo) Create(ctx context.Context, t *domain.Transfer) error {
	return r.s.run(ctx, func(st *state) error {
		if _, ok := st.transfers[t.CorrelationID]; ok {
			return fmt.Errorf("transfer %s already exists", t.CorrelationID)
		}
		st.transfers[t.CorrelationID] = *t
		return nil
	})
}

func (r *TransferRepo) GetByCorrelationID(ctx context.Context, correlationID string) (*domain.Transfer, error) {
	var out *domain.Transfer
	err := r.s.run(ctx, func(st *state) error {
		if t, ok := st.transfers[correlationID]; ok {
			out = &t
		}
		return nil
	})
	return out, err
}

// GetByCorrelationIDForUpdate relies on the unit-of-work lock already held by the caller.
func (r *TransferRepo) GetByCorrelationIDForUpdate(ctx context.Context, correlationID string) (*domain.Transfer, error) {
	if !r.s.inTx(ctx) {
		return nil, fmt.Errorf("lock transfer %s: %w", correlationID, errNoTx)
	}
	return r.GetByCorrelationID(ctx, correlationID)
}

func (r *TransferRepo) UpdateStatus(ctx context.Context, t *domain.Transfer) error {
	return r.s.run(ctx, func(st *state) error {
		stored, ok := st.transfers[t.CorrelationID]
		if !ok || stored.ID != t.ID {
			return fmt.Errorf("transfer not found: %s", t.ID)
		}
		stored.Status = t.Status
		stored.StatusUpdatedAt = t.StatusUpdatedAt
		st.transfers[t.CorrelationID] = stored
		return nil
	})
}

// --- Audit ---

// AuditRepo implements ports.AuditRepository.
type AuditRepo struct{ s *Store }

func (r *AuditRepo) Create(ctx context.Context, log *domain.AuditLog) error {
	return r.s.run(ctx, func(st *state) error {
		st.auditLogs = append(st.auditLogs, *log)
		return nil
	})
}

// List returns a copy of every recorded audit entry, oldest first.
func (r *AuditRepo) List(ctx context.Context) ([]domain.AuditLog, error) {
	var out []domain.AuditLog
	err := r.s.run(ctx, func(st *state) error {
		out = slices.Clone(st.auditLogs)
		return nil
	})
	return out, err
}
