package apperror

import (
	"fmt"
	"net/http"
)

// AppError is a structured error that maps to HTTP responses.
type AppError struct {
	Code       string `json:"error_code"`
	Message    string `json:"message"`
	HTTPStatus int    `json:"-"`
	Err        error  `json:"-"` // Wrapped internal error (not exposed to client)
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// New creates a new AppError.
func New(code string, message string, httpStatus int) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: httpStatus,
	}
}

// Wrap wraps an internal error with an AppError.
func Wrap(code string, message string, httpStatus int, err error) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: httpStatus,
		Err:        err,
	}
}

// ---- Validation (VAL) ----

func ErrInvalidAmount() *AppError {
	return New("VAL_001", "Amount must be positive with at most 2 decimal places", http.StatusBadRequest)
}

// Validation returns a VAL_002 validation error.
func Validation(message string) *AppError {
	return New("VAL_002", message, http.StatusBadRequest)
}

// ErrPayloadTooLarge is returned when the request body exceeds the configured limit.
func ErrPayloadTooLarge() *AppError {
	return New("VAL_004", "Request body too large", http.StatusRequestEntityTooLarge)
}

func ErrInvalidPixKey() *AppError {
	return New("VAL_003", "Invalid pix key format", http.StatusBadRequest)
}

// ---- Lookup (NF) ----

func ErrNotFound(entity string) *AppError {
	return New("NF_001", fmt.Sprintf("%s not found", entity), http.StatusNotFound)
}

// ---- Ledger (LED) ----

func ErrInsufficientBalance() *AppError {
	return New("LED_001", "Insufficient balance in wallet", http.StatusUnprocessableEntity)
}

// ErrConcurrencyConflict is transient: the caller may retry with fresh state.
func ErrConcurrencyConflict(err error) *AppError {
	return Wrap("LED_002", "Wallet was modified concurrently, retry the operation", http.StatusConflict, err)
}

// ---- Pix Keys (KEY) ----

func ErrPixKeyExists() *AppError {
	return New("KEY_001", "Pix key already registered", http.StatusConflict)
}

// ---- Transfers (TRF) ----

func ErrInvalidTransfer(message string) *AppError {
	return New("TRF_001", message, http.StatusUnprocessableEntity)
}

// ---- Settlement (SET) ----

func ErrTransferNotFound() *AppError {
	return New("SET_001", "Transfer not found", http.StatusNotFound)
}

func ErrEventIgnored(reason string) *AppError {
	return New("SET_002", fmt.Sprintf("Event ignored: %s", reason), http.StatusConflict)
}

// ErrSettlementFailed reports a confirmation whose fund movement could not be
// applied. Nothing was persisted; the transfer needs external reconciliation.
func ErrSettlementFailed(err error) *AppError {
	return Wrap("SET_003", "Settlement failed, reconciliation required", http.StatusUnprocessableEntity, err)
}

// ---- Security (SEC) ----

func ErrInvalidToken() *AppError {
	return New("SEC_001", "Invalid or expired token", http.StatusUnauthorized)
}

// ---- Rate Limiting (RATE) ----

func ErrRateLimitExceeded() *AppError {
	return New("RATE_001", "Rate limit exceeded", http.StatusTooManyRequests)
}

// ---- System & Infrastructure (SYS) ----

func ErrDatabaseError(err error) *AppError {
	return Wrap("SYS_001", "Internal database error", http.StatusInternalServerError, err)
}

// InternalError wraps an internal error as a SYS_001 error.
func InternalError(err error) *AppError {
	return Wrap("SYS_001", "Internal server error", http.StatusInternalServerError, err)
}
