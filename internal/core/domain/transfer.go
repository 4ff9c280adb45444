package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TransferStatus represents the settlement state of a pix transfer.
type TransferStatus string

const (
	TransferStatusPending   TransferStatus = "PENDING"
	TransferStatusConfirmed TransferStatus = "CONFIRMED"
	TransferStatusRejected  TransferStatus = "REJECTED"
)

// IsValid reports whether s is a known status.
func (s TransferStatus) IsValid() bool {
	switch s {
	case TransferStatusPending, TransferStatusConfirmed, TransferStatusRejected:
		return true
	}
	return false
}

// IsTerminal returns true for statuses no event can leave.
func (s TransferStatus) IsTerminal() bool {
	return s == TransferStatusConfirmed || s == TransferStatusRejected
}

// Transfer is a pix transfer awaiting or past settlement. Funds move only
// when the transfer transitions to CONFIRMED.
type Transfer struct {
	ID                  uuid.UUID       `json:"id"`
	SourceWalletID      uuid.UUID       `json:"source_wallet_id"`
	DestinationWalletID uuid.UUID       `json:"destination_wallet_id"`
	PixKeyID            uuid.UUID       `json:"pix_key_id"`
	Amount              decimal.Decimal `json:"amount"`
	CorrelationID       string          `json:"end_to_end_id"`
	Status              TransferStatus  `json:"status"`
	CreatedAt           time.Time       `json:"created_at"`
	StatusUpdatedAt     time.Time       `json:"status_updated_at"`
}

// NewTransfer creates a PENDING transfer with a fresh correlation id.
func NewTransfer(sourceWalletID uuid.UUID, key *PixKey, amount decimal.Decimal, now time.Time) *Transfer {
	return &Transfer{
		ID:                  uuid.New(),
		SourceWalletID:      sourceWalletID,
		DestinationWalletID: key.WalletID,
		PixKeyID:            key.ID,
		Amount:              NormalizeAmount(amount),
		CorrelationID:       NewCorrelationID(),
		Status:              TransferStatusPending,
		CreatedAt:           now,
		StatusUpdatedAt:     now,
	}
}

// NewCorrelationID returns an end-to-end identifier in the E2E-<uuid> format.
func NewCorrelationID() string {
	return "E2E-" + uuid.NewString()
}

// IsTerminal returns true if the transfer is in a final state.
func (t *Transfer) IsTerminal() bool {
	return t.Status.IsTerminal()
}

// Transition applies a settlement event to the transfer. It returns one of
// ErrEventOutdated, ErrEventDuplicate or ErrTransferFinalized, in that order
// of precedence, and leaves the transfer untouched when the event is ignored.
func (t *Transfer) Transition(next TransferStatus, at time.Time) error {
	if at.Before(t.StatusUpdatedAt) {
		return ErrEventOutdated
	}
	if next == t.Status {
		return ErrEventDuplicate
	}
	if t.IsTerminal() {
		return ErrTransferFinalized
	}
	t.Status = next
	t.StatusUpdatedAt = at
	return nil
}

// Transfer lifecycle event types announced after commit.
const (
	EventTransferCreated   = "TRANSFER_CREATED"
	EventTransferConfirmed = "TRANSFER_CONFIRMED"
	EventTransferRejected  = "TRANSFER_REJECTED"
)

// EventType maps a status to the lifecycle event announcing it.
func (s TransferStatus) EventType() string {
	switch s {
	case TransferStatusConfirmed:
		return EventTransferConfirmed
	case TransferStatusRejected:
		return EventTransferRejected
	default:
		return EventTransferCreated
	}
}
