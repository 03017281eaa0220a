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
// Caller-supplied input violates a precondition. Recoverable by correcting
// the input; no event is emitted.

func ErrInvalidArgument(message string) *AppError {
	return New("VAL_001", message, http.StatusBadRequest)
}

func ErrInvalidAmount() *AppError {
	return New("VAL_002", "Amount must be greater than zero", http.StatusBadRequest)
}

// ---- Wallet business rules (WAL) ----
// Domain-state-dependent rejections; no event is emitted.

func ErrNotInitialized() *AppError {
	return New("WAL_001", "Wallet is not initialized", http.StatusUnprocessableEntity)
}

func ErrInsufficientFunds() *AppError {
	return New("WAL_002", "Insufficient balance in wallet", http.StatusPaymentRequired)
}

func ErrWalletNotFound() *AppError {
	return New("WAL_003", "Wallet not found", http.StatusNotFound)
}

// ---- Concurrency (CON) ----

// ErrConcurrencyConflict signals an expected-version mismatch at append time.
// Nothing was written; the caller owns the re-read-and-retry decision.
func ErrConcurrencyConflict(expected, actual int64, err error) *AppError {
	return Wrap(
		"CON_001",
		fmt.Sprintf("Version conflict: expected %d, actual %d", expected, actual),
		http.StatusConflict,
		err,
	)
}

// ---- Data integrity (EVT) ----
// Corruption, schema drift or lost/out-of-order events. Not retried and never
// masked as a business failure.

func ErrUnknownEventType(eventType string) *AppError {
	return New("EVT_001", fmt.Sprintf("Unknown event type %q", eventType), http.StatusInternalServerError)
}

func ErrInvalidPayload(eventType string, err error) *AppError {
	return Wrap("EVT_002", fmt.Sprintf("Invalid payload for event type %q", eventType), http.StatusInternalServerError, err)
}

func ErrProjectionGap(err error) *AppError {
	return Wrap("EVT_003", "Read-model document missing for projected event", http.StatusInternalServerError, err)
}

// ---- System & Infrastructure (SYS) ----

func ErrDatabaseError(err error) *AppError {
	return Wrap("SYS_001", "Internal database error", http.StatusInternalServerError, err)
}

// InternalError wraps an internal error as a SYS_001 error.
func InternalError(err error) *AppError {
	return Wrap("SYS_001", "Internal server error", http.StatusInternalServerError, err)
}

// Validation returns a VAL_001-style validation error.
func Validation(message string) *AppError {
	return New("VAL_001", message, http.StatusBadRequest)
}
