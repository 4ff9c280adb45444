// Package memory provides process-local implementations of the store ports.
// Units of work are serialized by a single store-wide lock and rolled back by
// restoring a snapshot, so they give the same all-or-nothing guarantees as the
// PostgreSQL adapter. State is lost on restart.
package memory

import (
	"context"
	"errors"
	"maps"
	"slices"
	"sync"

	"pix-wallet/internal/core/domain"

	"github.com/google/uuid"
)

var errNoTx = errors.New("operation requires an open unit of work")

type txKey struct{}

type pixKeyIndex struct {
	keyType domain.PixKeyType
	value   string
}

type state struct {
	wallets    map[uuid.UUID]domain.Wallet
	walletTxns map[uuid.UUID][]domain.WalletTransaction
	pixKeys    map[pixKeyIndex]domain.PixKey
	transfers  map[string]domain.Transfer
	auditLogs  []domain.AuditLog
}

func newState() state {
	return state{
		wallets:    make(map[uuid.UUID]domain.Wallet),
		walletTxns: make(map[uuid.UUID][]domain.WalletTransaction),
		pixKeys:    make(map[pixKeyIndex]domain.PixKey),
		transfers:  make(map[string]domain.Transfer),
	}
}

func (s state) clone() state {
	c := state{
		wallets:    maps.Clone(s.wallets),
		walletTxns: make(map[uuid.UUID][]domain.WalletTransaction, len(s.walletTxns)),
		pixKeys:    maps.Clone(s.pixKeys),
		transfers:  maps.Clone(s.transfers),
		auditLogs:  slices.Clone(s.auditLogs),
	}
	for id, txns := range s.walletTxns {
		c.walletTxns[id] = slices.Clone(txns)
	}
	return c
}

// Store holds all in-memory state. The zero value is not usable; call NewStore.
type Store struct {
	mu    sync.Mutex
	state state
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{state: newState()}
}

func (s *Store) inTx(ctx context.Context) bool {
	owner, ok := ctx.Value(txKey{}).(*Store)
	return ok && owner == s
}

// run executes fn with exclusive access to the state. Calls made inside a
// unit of work already hold the lock.
func (s *Store) run(ctx context.Context, fn func(st *state) error) error {
	if s.inTx(ctx) {
		return fn(&s.state)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(&s.state)
}

// WithinTx implements ports.Transactor. The store lock is held for the whole
// unit, which also makes every lookup inside it an exclusive one.
func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context) error) (err error) {
	if s.inTx(ctx) {
		return fn(ctx)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot := s.state.clone()
	committed := false
	defer func() {
		if !committed {
			s.state = snapshot
		}
	}()

	if err := fn(context.WithValue(ctx, txKey{}, s)); err != nil {
		return err
	}
	committed = true
	return nil
}

// Wallets returns the wallet store view.
func (s *Store) Wallets() *WalletRepo { return &WalletRepo{s: s} }

// WalletTransactions returns the transaction log view.
func (s *Store) WalletTransactions() *WalletTransactionRepo { return &WalletTransactionRepo{s: s} }

// PixKeys returns the alias directory view.
func (s *Store) PixKeys() *PixKeyRepo { return &PixKeyRepo{s: s} }

// Transfers returns the transfer store view.
func (s *Store) Transfers() *TransferRepo { return &TransferRepo{s: s} }

// Audit returns the audit log view.
func (s *Store) Audit() *AuditRepo { return &AuditRepo{s: s} }
