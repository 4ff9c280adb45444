package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"pix-wallet/internal/core/domain"
	"pix-wallet/internal/core/ports"
	"pix-wallet/pkg/apperror"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

const (
	// DefaultMaxRetries bounds re-runs of a unit of work after a version conflict.
	DefaultMaxRetries = 3

	defaultTransactionsLimit = 50
	maxTransactionsLimit     = 200
)

// LedgerServiceImpl implements ports.LedgerService.
type LedgerServiceImpl struct {
	walletRepo ports.WalletRepository
	txnRepo    ports.WalletTransactionRepository
	transactor ports.Transactor
	maxRetries int
	now        func() time.Time
	log        zerolog.Logger
}

// NewLedgerService creates a new LedgerServiceImpl.
func NewLedgerService(
	walletRepo ports.WalletRepository,
	txnRepo ports.WalletTransactionRepository,
	transactor ports.Transactor,
	maxRetries int,
	log zerolog.Logger,
) *LedgerServiceImpl {
	if maxRetries < 1 {
		maxRetries = DefaultMaxRetries
	}
	return &LedgerServiceImpl{
		walletRepo: walletRepo,
		txnRepo:    txnRepo,
		transactor: transactor,
		maxRetries: maxRetries,
		now:        utcNow,
		log:        log,
	}
}

// CreateWallet opens a wallet with zero balance and version 0.
func (s *LedgerServiceImpl) CreateWallet(ctx context.Context) (*domain.Wallet, error) {
	w := domain.NewWallet(s.now())
	if err := s.walletRepo.Create(ctx, w); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("create wallet: %w", err))
	}

	s.log.Info().Str("wallet_id", w.ID.String()).Msg("wallet created")
	return w, nil
}

// GetWallet returns the current wallet state.
func (s *LedgerServiceImpl) GetWallet(ctx context.Context, walletID uuid.UUID) (*domain.Wallet, error) {
	w, err := s.walletRepo.GetByID(ctx, walletID)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("get wallet: %w", err))
	}
	if w == nil {
		return nil, apperror.ErrNotFound("wallet")
	}
	return w, nil
}

// Credit adds amount to the wallet and returns the new balance.
func (s *LedgerServiceImpl) Credit(ctx context.Context, walletID uuid.UUID, amount decimal.Decimal) (decimal.Decimal, error) {
	return s.mutate(ctx, walletID, domain.WalletTransactionCredit, amount)
}

// Debit subtracts amount from the wallet and returns the new balance.
func (s *LedgerServiceImpl) Debit(ctx context.Context, walletID uuid.UUID, amount decimal.Decimal) (decimal.Decimal, error) {
	return s.mutate(ctx, walletID, domain.WalletTransactionDebit, amount)
}

// mutate runs one balance change as its own unit of work, re-running the
// whole read-modify-write when another writer bumped the version first.
func (s *LedgerServiceImpl) mutate(ctx context.Context, walletID uuid.UUID, typ domain.WalletTransactionType, amount decimal.Decimal) (decimal.Decimal, error) {
	if !domain.IsValidAmount(amount) {
		return decimal.Zero, apperror.ErrInvalidAmount()
	}

	var balance decimal.Decimal
	err := retryOnConflict(ctx, s.maxRetries, func() error {
		return s.transactor.WithinTx(ctx, func(ctx context.Context) error {
			w, err := s.apply(ctx, walletID, typ, amount)
			if err != nil {
				return err
			}
			balance = w.Balance
			return nil
		})
	})
	if err != nil {
		if errors.Is(err, domain.ErrVersionConflict) {
			s.log.Warn().
				Str("wallet_id", walletID.String()).
				Int("attempts", s.maxRetries).
				Msg("wallet update gave up after repeated version conflicts")
		}
		return decimal.Zero, toLedgerError(err)
	}

	s.log.Info().
		Str("wallet_id", walletID.String()).
		Str("type", string(typ)).
		Str("amount", domain.FormatAmount(amount)).
		Str("balance", domain.FormatAmount(balance)).
		Msg("wallet balance updated")

	return balance, nil
}

// ApplyTransfer moves amount from source to destination within the caller's
// unit of work. Nothing is retried here.
func (s *LedgerServiceImpl) ApplyTransfer(ctx context.Context, sourceID, destinationID uuid.UUID, amount decimal.Decimal) error {
	if !domain.IsValidAmount(amount) {
		return domain.ErrInvalidAmount
	}

	return s.transactor.WithinTx(ctx, func(ctx context.Context) error {
		_, _, err := s.move(ctx, sourceID, destinationID, amount)
		return err
	})
}

// Transfer moves amount between two wallets right away, outside the Pix
// lifecycle. Both log entries land in one unit of work, which is re-run on
// version conflict.
func (s *LedgerServiceImpl) Transfer(ctx context.Context, fromID, toID uuid.UUID, amount decimal.Decimal) (*ports.WalletTransferResult, error) {
	if !domain.IsValidAmount(amount) {
		return nil, apperror.ErrInvalidAmount()
	}
	if fromID == toID {
		return nil, apperror.ErrInvalidTransfer("cannot transfer to the same wallet")
	}

	var result ports.WalletTransferResult
	err := retryOnConflict(ctx, s.maxRetries, func() error {
		return s.transactor.WithinTx(ctx, func(ctx context.Context) error {
			to, err := s.walletRepo.GetByID(ctx, toID)
			if err != nil {
				return fmt.Errorf("load destination: %w", err)
			}
			if to == nil {
				return domain.ErrWalletNotFound
			}

			from, to, err := s.move(ctx, fromID, toID, amount)
			if err != nil {
				return err
			}
			result = ports.WalletTransferResult{FromBalance: from.Balance, ToBalance: to.Balance}
			return nil
		})
	})
	if err != nil {
		if errors.Is(err, domain.ErrVersionConflict) {
			s.log.Warn().
				Str("from_wallet_id", fromID.String()).
				Str("to_wallet_id", toID.String()).
				Int("attempts", s.maxRetries).
				Msg("wallet transfer gave up after repeated version conflicts")
		}
		return nil, toLedgerError(err)
	}

	s.log.Info().
		Str("from_wallet_id", fromID.String()).
		Str("to_wallet_id", toID.String()).
		Str("amount", domain.FormatAmount(amount)).
		Msg("wallet transfer completed")

	return &result, nil
}

// move debits source and credits destination. Callers provide the unit of work.
func (s *LedgerServiceImpl) move(ctx context.Context, sourceID, destinationID uuid.UUID, amount decimal.Decimal) (*domain.Wallet, *domain.Wallet, error) {
	from, err := s.apply(ctx, sourceID, domain.WalletTransactionDebit, amount)
	if err != nil {
		return nil, nil, fmt.Errorf("debit source %s: %w", sourceID, err)
	}
	to, err := s.apply(ctx, destinationID, domain.WalletTransactionCredit, amount)
	if err != nil {
		return nil, nil, fmt.Errorf("credit destination %s: %w", destinationID, err)
	}
	return from, to, nil
}

// apply performs a single version-gated mutation and appends its log entry.
// It must run inside a unit of work so both writes land together.
func (s *LedgerServiceImpl) apply(ctx context.Context, walletID uuid.UUID, typ domain.WalletTransactionType, amount decimal.Decimal) (*domain.Wallet, error) {
	w, err := s.walletRepo.GetByID(ctx, walletID)
	if err != nil {
		return nil, fmt.Errorf("load wallet: %w", err)
	}
	if w == nil {
		return nil, domain.ErrWalletNotFound
	}

	expectedVersion := w.Version
	now := s.now()
	if typ == domain.WalletTransactionDebit {
		err = w.Debit(amount, now)
	} else {
		err = w.Credit(amount, now)
	}
	if err != nil {
		return nil, err
	}

	if err := s.walletRepo.UpdateBalance(ctx, w, expectedVersion); err != nil {
		return nil, fmt.Errorf("update balance: %w", err)
	}

	entry := domain.NewWalletTransaction(w.ID, typ, amount, w.Balance, now)
	if err := s.txnRepo.Append(ctx, entry); err != nil {
		return nil, fmt.Errorf("append wallet transaction: %w", err)
	}
	return w, nil
}

// BalanceAt returns the balance recorded by the latest log entry at or before
// at, or zero when the wallet had no movements by then.
func (s *LedgerServiceImpl) BalanceAt(ctx context.Context, walletID uuid.UUID, at time.Time) (decimal.Decimal, error) {
	if _, err := s.GetWallet(ctx, walletID); err != nil {
		return decimal.Zero, err
	}

	entry, err := s.txnRepo.LatestAtOrBefore(ctx, walletID, at)
	if err != nil {
		return decimal.Zero, apperror.InternalError(fmt.Errorf("historical balance: %w", err))
	}
	if entry == nil {
		return decimal.Zero, nil
	}
	return entry.BalanceAfter, nil
}

// Transactions lists the wallet's log entries, newest first.
func (s *LedgerServiceImpl) Transactions(ctx context.Context, walletID uuid.UUID, limit int) ([]domain.WalletTransaction, error) {
	if _, err := s.GetWallet(ctx, walletID); err != nil {
		return nil, err
	}

	switch {
	case limit <= 0:
		limit = defaultTransactionsLimit
	case limit > maxTransactionsLimit:
		limit = maxTransactionsLimit
	}

	txns, err := s.txnRepo.ListByWallet(ctx, walletID, limit)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("list wallet transactions: %w", err))
	}
	if txns == nil {
		txns = []domain.WalletTransaction{}
	}
	return txns, nil
}

// toLedgerError maps domain failures onto the public error taxonomy.
func toLedgerError(err error) error {
	var appErr *apperror.AppError
	switch {
	case errors.As(err, &appErr):
		return err
	case errors.Is(err, domain.ErrWalletNotFound):
		return apperror.ErrNotFound("wallet")
	case errors.Is(err, domain.ErrInsufficientBalance):
		return apperror.ErrInsufficientBalance()
	case errors.Is(err, domain.ErrInvalidAmount):
		return apperror.ErrInvalidAmount()
	case errors.Is(err, domain.ErrVersionConflict):
		return apperror.ErrConcurrencyConflict(err)
	default:
		return apperror.InternalError(err)
	}
}
