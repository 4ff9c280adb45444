package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"pix-wallet/internal/core/domain"
	"pix-wallet/internal/core/ports"
	"pix-wallet/internal/core/ports/mocks"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

type settlementTestDeps struct {
	svc          *SettlementServiceImpl
	transferRepo *mocks.MockTransferRepository
	ledger       *mocks.MockLedgerService
	transactor   *mocks.MockTransactor
	publisher    *mocks.MockTransferEventPublisher
}

func setupSettlementService(t *testing.T) *settlementTestDeps {
	ctrl := gomock.NewController(t)
	d := &settlementTestDeps{
		transferRepo: mocks.NewMockTransferRepository(ctrl),
		ledger:       mocks.NewMockLedgerService(ctrl),
		transactor:   mocks.NewMockTransactor(ctrl),
		publisher:    mocks.NewMockTransferEventPublisher(ctrl),
	}
	d.svc = NewSettlementService(d.transferRepo, d.ledger, d.transactor, d.publisher, 3, zerolog.Nop())
	return d
}

var settlementBase = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func pendingTransfer() *domain.Transfer {
	return &domain.Transfer{
		ID:                  uuid.New(),
		SourceWalletID:      uuid.New(),
		DestinationWalletID: uuid.New(),
		Amount:              dec("50.00"),
		CorrelationID:       "E2E-" + uuid.NewString(),
		Status:              domain.TransferStatusPending,
		CreatedAt:           settlementBase,
		StatusUpdatedAt:     settlementBase,
	}
}

func eventFor(t *domain.Transfer, status domain.TransferStatus, at time.Time) ports.SettlementEvent {
	return ports.SettlementEvent{CorrelationID: t.CorrelationID, ProposedStatus: status, Timestamp: at}
}

func TestSettlementService_Confirm(t *testing.T) {
	d := setupSettlementService(t)
	ctx := context.Background()
	transfer := pendingTransfer()
	at := settlementBase.Add(time.Minute)

	runInline(d.transactor)
	d.transferRepo.EXPECT().GetByCorrelationIDForUpdate(gomock.Any(), transfer.CorrelationID).Return(transfer, nil)
	d.ledger.EXPECT().ApplyTransfer(gomock.Any(), transfer.SourceWalletID, transfer.DestinationWalletID, transfer.Amount).Return(nil)
	d.transferRepo.EXPECT().UpdateStatus(gomock.Any(), transfer).Return(nil)
	d.publisher.EXPECT().Publish(ctx, domain.EventTransferConfirmed, transfer).Return(nil)

	result, err := d.svc.HandleEvent(ctx, eventFor(transfer, domain.TransferStatusConfirmed, at))
	require.NoError(t, err)
	assert.Equal(t, ports.SettlementOutcomeApplied, result.Outcome)
	assert.Equal(t, domain.TransferStatusConfirmed, result.Transfer.Status)
	assert.Equal(t, at, result.Transfer.StatusUpdatedAt)
}

func TestSettlementService_Reject_MovesNoFunds(t *testing.T) {
	d := setupSettlementService(t)
	ctx := context.Background()
	transfer := pendingTransfer()

	runInline(d.transactor)
	d.transferRepo.EXPECT().GetByCorrelationIDForUpdate(gomock.Any(), transfer.CorrelationID).Return(transfer, nil)
	d.transferRepo.EXPECT().UpdateStatus(gomock.Any(), transfer).Return(nil)
	d.publisher.EXPECT().Publish(ctx, domain.EventTransferRejected, transfer).Return(nil)
	// ledger.ApplyTransfer must not be called.

	result, err := d.svc.HandleEvent(ctx, eventFor(transfer, domain.TransferStatusRejected, settlementBase.Add(time.Second)))
	require.NoError(t, err)
	assert.Equal(t, domain.TransferStatusRejected, result.Transfer.Status)
}

func TestSettlementService_EventAtLastUpdateIsAccepted(t *testing.T) {
	d := setupSettlementService(t)
	ctx := context.Background()
	transfer := pendingTransfer()

	runInline(d.transactor)
	d.transferRepo.EXPECT().GetByCorrelationIDForUpdate(gomock.Any(), gomock.Any()).Return(transfer, nil)
	d.transferRepo.EXPECT().UpdateStatus(gomock.Any(), gomock.Any()).Return(nil)
	d.publisher.EXPECT().Publish(ctx, gomock.Any(), gomock.Any()).Return(nil)

	_, err := d.svc.HandleEvent(ctx, eventFor(transfer, domain.TransferStatusRejected, settlementBase))
	require.NoError(t, err)
}

func TestSettlementService_TransferNotFound(t *testing.T) {
	d := setupSettlementService(t)
	ctx := context.Background()

	runInline(d.transactor)
	d.transferRepo.EXPECT().GetByCorrelationIDForUpdate(gomock.Any(), "E2E-missing").Return(nil, nil)

	_, err := d.svc.HandleEvent(ctx, ports.SettlementEvent{
		CorrelationID:  "E2E-missing",
		ProposedStatus: domain.TransferStatusConfirmed,
		Timestamp:      settlementBase,
	})
	assertAppError(t, err, "SET_001")
}

func TestSettlementService_IgnoredEvents(t *testing.T) {
	tests := []struct {
		name     string
		current  domain.TransferStatus
		proposed domain.TransferStatus
		offset   time.Duration
	}{
		{"outdated", domain.TransferStatusPending, domain.TransferStatusConfirmed, -time.Second},
		{"duplicate confirmed", domain.TransferStatusConfirmed, domain.TransferStatusConfirmed, time.Minute},
		{"rejected after confirmed", domain.TransferStatusConfirmed, domain.TransferStatusRejected, time.Minute},
		{"confirmed after rejected", domain.TransferStatusRejected, domain.TransferStatusConfirmed, time.Minute},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := setupSettlementService(t)
			transfer := pendingTransfer()
			transfer.Status = tt.current

			runInline(d.transactor)
			d.transferRepo.EXPECT().GetByCorrelationIDForUpdate(gomock.Any(), gomock.Any()).Return(transfer, nil)
			// No ledger movement, no status write, no event.

			_, err := d.svc.HandleEvent(context.Background(), eventFor(transfer, tt.proposed, settlementBase.Add(tt.offset)))
			assertAppError(t, err, "SET_002")
			assert.Equal(t, tt.current, transfer.Status)
			assert.Equal(t, settlementBase, transfer.StatusUpdatedAt)
		})
	}
}

func TestSettlementService_FundMovementFailure(t *testing.T) {
	d := setupSettlementService(t)
	ctx := context.Background()
	transfer := pendingTransfer()

	runInline(d.transactor)
	d.transferRepo.EXPECT().GetByCorrelationIDForUpdate(gomock.Any(), gomock.Any()).Return(transfer, nil)
	d.ledger.EXPECT().ApplyTransfer(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		Return(fmt.Errorf("debit source: %w", domain.ErrInsufficientBalance))

	_, err := d.svc.HandleEvent(ctx, eventFor(transfer, domain.TransferStatusConfirmed, settlementBase.Add(time.Second)))
	assertAppError(t, err, "SET_003")
}

func TestSettlementService_RetriesWholeUnitOnVersionConflict(t *testing.T) {
	d := setupSettlementService(t)
	ctx := context.Background()
	at := settlementBase.Add(time.Second)
	first := pendingTransfer()
	second := *first

	runInline(d.transactor).Times(2)
	gomock.InOrder(
		d.transferRepo.EXPECT().GetByCorrelationIDForUpdate(gomock.Any(), first.CorrelationID).Return(first, nil),
		d.ledger.EXPECT().ApplyTransfer(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
			Return(fmt.Errorf("credit destination: %w", domain.ErrVersionConflict)),
		d.transferRepo.EXPECT().GetByCorrelationIDForUpdate(gomock.Any(), first.CorrelationID).Return(&second, nil),
		d.ledger.EXPECT().ApplyTransfer(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(nil),
		d.transferRepo.EXPECT().UpdateStatus(gomock.Any(), &second).Return(nil),
	)
	d.publisher.EXPECT().Publish(ctx, domain.EventTransferConfirmed, gomock.Any()).Return(nil)

	result, err := d.svc.HandleEvent(ctx, eventFor(first, domain.TransferStatusConfirmed, at))
	require.NoError(t, err)
	assert.Equal(t, domain.TransferStatusConfirmed, result.Transfer.Status)
}

func TestSettlementService_ConflictRetriesExhausted(t *testing.T) {
	d := setupSettlementService(t)
	ctx := context.Background()
	transfer := pendingTransfer()

	runInline(d.transactor).Times(3)
	d.transferRepo.EXPECT().GetByCorrelationIDForUpdate(gomock.Any(), gomock.Any()).
		DoAndReturn(func(context.Context, string) (*domain.Transfer, error) {
			fresh := *transfer
			return &fresh, nil
		}).Times(3)
	d.ledger.EXPECT().ApplyTransfer(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		Return(domain.ErrVersionConflict).Times(3)

	_, err := d.svc.HandleEvent(ctx, eventFor(transfer, domain.TransferStatusConfirmed, settlementBase.Add(time.Second)))
	assertAppError(t, err, "LED_002")
}

func TestSettlementService_InvalidEvents(t *testing.T) {
	d := setupSettlementService(t)
	ctx := context.Background()

	_, err := d.svc.HandleEvent(ctx, ports.SettlementEvent{ProposedStatus: domain.TransferStatusConfirmed, Timestamp: settlementBase})
	assertAppError(t, err, "VAL_002")

	_, err = d.svc.HandleEvent(ctx, ports.SettlementEvent{CorrelationID: "E2E-1", ProposedStatus: domain.TransferStatusPending, Timestamp: settlementBase})
	assertAppError(t, err, "VAL_002")

	_, err = d.svc.HandleEvent(ctx, ports.SettlementEvent{CorrelationID: "E2E-1", ProposedStatus: domain.TransferStatusConfirmed})
	assertAppError(t, err, "VAL_002")
}
