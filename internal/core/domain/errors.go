package domain

import "errors"

// Sentinel errors shared between stores and services. Stores return them
// wrapped or bare; services translate them into apperror values.
var (
	// ErrVersionConflict is returned by a version-gated update when the stored
	// version no longer matches the one the writer read.
	ErrVersionConflict = errors.New("optimistic lock conflict")

	// ErrDuplicatePixKey is returned when a (type, value) pair is already registered.
	ErrDuplicatePixKey = errors.New("pix key already registered")

	// ErrEventOutdated means the event timestamp precedes the transfer's last status update.
	ErrEventOutdated = errors.New("event is older than the last status update")

	// ErrEventDuplicate means the event proposes the status the transfer already has.
	ErrEventDuplicate = errors.New("transfer already has the proposed status")

	// ErrTransferFinalized means the transfer reached a terminal status earlier.
	ErrTransferFinalized = errors.New("transfer is already in a terminal status")

	ErrWalletNotFound      = errors.New("wallet not found")
	ErrInsufficientBalance = errors.New("insufficient balance")
	ErrInvalidAmount       = errors.New("amount must be positive with at most 2 decimal places")
)
