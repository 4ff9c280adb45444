package service

import (
	"context"
	"errors"
	"fmt"

	"pix-wallet/internal/core/domain"
	"pix-wallet/internal/core/ports"
	"pix-wallet/pkg/apperror"

	"github.com/rs/zerolog"
)

// SettlementServiceImpl implements ports.SettlementService.
//
// Every event is evaluated while holding the transfer's row lock, so
// concurrent deliveries of the same end-to-end id are applied one after the
// other and at most one of them moves funds.
type SettlementServiceImpl struct {
	transferRepo ports.TransferRepository
	ledger       ports.LedgerService
	transactor   ports.Transactor
	publisher    ports.TransferEventPublisher
	maxRetries   int
	log          zerolog.Logger
}

// NewSettlementService creates a new SettlementServiceImpl.
func NewSettlementService(
	transferRepo ports.TransferRepository,
	ledger ports.LedgerService,
	transactor ports.Transactor,
	publisher ports.TransferEventPublisher,
	maxRetries int,
	log zerolog.Logger,
) *SettlementServiceImpl {
	if maxRetries < 1 {
		maxRetries = DefaultMaxRetries
	}
	return &SettlementServiceImpl{
		transferRepo: transferRepo,
		ledger:       ledger,
		transactor:   transactor,
		publisher:    publisher,
		maxRetries:   maxRetries,
		log:          log,
	}
}

// HandleEvent applies a settlement event to its transfer. On CONFIRMED the
// status change, the debit, the credit and both log entries commit together
// or not at all.
func (s *SettlementServiceImpl) HandleEvent(ctx context.Context, event ports.SettlementEvent) (ports.SettlementResult, error) {
	if event.CorrelationID == "" {
		return ports.SettlementResult{}, apperror.Validation("end_to_end_id is required")
	}
	if event.ProposedStatus != domain.TransferStatusConfirmed && event.ProposedStatus != domain.TransferStatusRejected {
		return ports.SettlementResult{}, apperror.Validation("status must be CONFIRMED or REJECTED")
	}
	if event.Timestamp.IsZero() {
		return ports.SettlementResult{}, apperror.Validation("timestamp is required")
	}

	logger := s.log.With().
		Str("end_to_end_id", event.CorrelationID).
		Str("proposed_status", string(event.ProposedStatus)).
		Logger()
	logger.Info().Time("event_timestamp", event.Timestamp).Msg("settlement event received")

	var settled *domain.Transfer
	err := retryOnConflict(ctx, s.maxRetries, func() error {
		return s.transactor.WithinTx(ctx, func(ctx context.Context) error {
			transfer, err := s.settle(ctx, event)
			if err != nil {
				return err
			}
			settled = transfer
			return nil
		})
	})
	if err != nil {
		return ports.SettlementResult{}, s.toSettlementError(logger, err)
	}

	logger.Info().
		Str("amount", domain.FormatAmount(settled.Amount)).
		Msg("settlement event applied")

	publish(ctx, s.publisher, s.log, settled.Status.EventType(), settled)

	return ports.SettlementResult{
		Outcome:  ports.SettlementOutcomeApplied,
		Transfer: settled,
	}, nil
}

// settle runs inside the unit of work. The lock taken by the lookup is held
// until the unit commits or rolls back.
func (s *SettlementServiceImpl) settle(ctx context.Context, event ports.SettlementEvent) (*domain.Transfer, error) {
	transfer, err := s.transferRepo.GetByCorrelationIDForUpdate(ctx, event.CorrelationID)
	if err != nil {
		return nil, fmt.Errorf("lock transfer: %w", err)
	}
	if transfer == nil {
		return nil, apperror.ErrTransferNotFound()
	}

	if err := transfer.Transition(event.ProposedStatus, event.Timestamp); err != nil {
		return nil, err
	}

	if transfer.Status == domain.TransferStatusConfirmed {
		err := s.ledger.ApplyTransfer(ctx, transfer.SourceWalletID, transfer.DestinationWalletID, transfer.Amount)
		if err != nil {
			return nil, fmt.Errorf("move funds: %w", err)
		}
	}

	if err := s.transferRepo.UpdateStatus(ctx, transfer); err != nil {
		return nil, fmt.Errorf("update transfer status: %w", err)
	}
	return transfer, nil
}

func (s *SettlementServiceImpl) toSettlementError(logger zerolog.Logger, err error) error {
	var appErr *apperror.AppError
	switch {
	case errors.As(err, &appErr):
		if appErr.Code == "SET_001" {
			logger.Info().Msg("settlement event for unknown transfer")
		}
		return err
	case errors.Is(err, domain.ErrEventOutdated):
		logger.Info().Str("reason", "outdated").Msg("settlement event ignored")
		return apperror.ErrEventIgnored("event is older than the last status update")
	case errors.Is(err, domain.ErrEventDuplicate):
		logger.Info().Str("reason", "duplicate").Msg("settlement event ignored")
		return apperror.ErrEventIgnored("transfer already has this status")
	case errors.Is(err, domain.ErrTransferFinalized):
		logger.Info().Str("reason", "finalized").Msg("settlement event ignored")
		return apperror.ErrEventIgnored("transfer is already finalized")
	case errors.Is(err, domain.ErrInsufficientBalance),
		errors.Is(err, domain.ErrWalletNotFound),
		errors.Is(err, domain.ErrInvalidAmount):
		logger.Error().Err(err).Msg("settlement fund movement failed, transfer left PENDING for reconciliation")
		return apperror.ErrSettlementFailed(err)
	case errors.Is(err, domain.ErrVersionConflict):
		logger.Warn().Err(err).Int("attempts", s.maxRetries).Msg("settlement gave up after repeated version conflicts")
		return apperror.ErrConcurrencyConflict(err)
	default:
		logger.Error().Err(err).Msg("settlement failed")
		return apperror.InternalError(err)
	}
}
