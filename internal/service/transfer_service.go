package service

import (
	"context"
	"fmt"
	"time"

	"pix-wallet/internal/core/domain"
	"pix-wallet/internal/core/ports"
	"pix-wallet/pkg/apperror"

	"github.com/rs/zerolog"
)

// TransferServiceImpl implements ports.TransferService.
type TransferServiceImpl struct {
	transferRepo ports.TransferRepository
	walletRepo   ports.WalletRepository
	keyRepo      ports.PixKeyRepository
	publisher    ports.TransferEventPublisher
	now          func() time.Time
	log          zerolog.Logger
}

// NewTransferService creates a new TransferServiceImpl.
func NewTransferService(
	transferRepo ports.TransferRepository,
	walletRepo ports.WalletRepository,
	keyRepo ports.PixKeyRepository,
	publisher ports.TransferEventPublisher,
	log zerolog.Logger,
) *TransferServiceImpl {
	return &TransferServiceImpl{
		transferRepo: transferRepo,
		walletRepo:   walletRepo,
		keyRepo:      keyRepo,
		publisher:    publisher,
		now:          utcNow,
		log:          log,
	}
}

// Initiate records a PENDING transfer. The balance check is advisory: no
// funds move until a CONFIRMED settlement event arrives.
func (s *TransferServiceImpl) Initiate(ctx context.Context, req ports.InitiateTransferRequest) (*domain.Transfer, error) {
	if !domain.IsValidAmount(req.Amount) {
		return nil, apperror.ErrInvalidAmount()
	}
	if !req.PixKeyType.IsValid() {
		return nil, apperror.ErrInvalidPixKey()
	}

	source, err := s.walletRepo.GetByID(ctx, req.SourceWalletID)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("get source wallet: %w", err))
	}
	if source == nil {
		return nil, apperror.ErrNotFound("wallet")
	}

	key, err := s.keyRepo.GetByTypeAndValue(ctx, req.PixKeyType, req.PixKeyValue)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("resolve pix key: %w", err))
	}
	if key == nil {
		return nil, apperror.ErrNotFound("pix key")
	}

	if key.WalletID == source.ID {
		return nil, apperror.ErrInvalidTransfer("source and destination wallets must differ")
	}
	if !source.CanCover(req.Amount) {
		return nil, apperror.ErrInsufficientBalance()
	}

	transfer := domain.NewTransfer(source.ID, key, req.Amount, s.now())
	if err := s.transferRepo.Create(ctx, transfer); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("create transfer: %w", err))
	}

	s.log.Info().
		Str("end_to_end_id", transfer.CorrelationID).
		Str("source_wallet_id", transfer.SourceWalletID.String()).
		Str("destination_wallet_id", transfer.DestinationWalletID.String()).
		Str("amount", domain.FormatAmount(transfer.Amount)).
		Msg("transfer initiated")

	publish(ctx, s.publisher, s.log, domain.EventTransferCreated, transfer)
	return transfer, nil
}

// GetByCorrelationID returns the transfer with the given end-to-end id.
func (s *TransferServiceImpl) GetByCorrelationID(ctx context.Context, correlationID string) (*domain.Transfer, error) {
	transfer, err := s.transferRepo.GetByCorrelationID(ctx, correlationID)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("get transfer: %w", err))
	}
	if transfer == nil {
		return nil, apperror.ErrTransferNotFound()
	}
	return transfer, nil
}

// publish is best effort: the state change is already committed.
func publish(ctx context.Context, p ports.TransferEventPublisher, log zerolog.Logger, eventType string, transfer *domain.Transfer) {
	if p == nil {
		return
	}
	if err := p.Publish(ctx, eventType, transfer); err != nil {
		log.Warn().Err(err).
			Str("event_type", eventType).
			Str("end_to_end_id", transfer.CorrelationID).
			Msg("failed to publish transfer event")
	}
}
