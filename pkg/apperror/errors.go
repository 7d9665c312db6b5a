package apperror

import (
	"fmt"
	"net/http"
)

// AppError is a structured error with a machine-readable reason code that
// callers render to users, and an HTTP status for the transport layer.
type AppError struct {
	Code       string `json:"reason_code"`
	Message    string `json:"message"`
	HTTPStatus int    `json:"-"`
	Retryable  bool   `json:"-"` // caller may retry the same request verbatim
	Err        error  `json:"-"` // wrapped internal error, never exposed
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
	return &AppError{Code: code, Message: message, HTTPStatus: httpStatus}
}

// Wrap wraps an internal error with an AppError.
func Wrap(code string, message string, httpStatus int, err error) *AppError {
	return &AppError{Code: code, Message: message, HTTPStatus: httpStatus, Err: err}
}

// ---- Business-rule rejections (ledger engine) ----

func ErrInvalidAmount() *AppError {
	return New("invalid-amount", "Amount must be a positive whole number of naira", http.StatusBadRequest)
}

func ErrBelowMinimum(min int64) *AppError {
	return New("below-minimum", fmt.Sprintf("Amount is below the minimum of ₦%d", min), http.StatusBadRequest)
}

func ErrAboveMaximum(max int64) *AppError {
	return New("above-maximum", fmt.Sprintf("Amount is above the maximum of ₦%d", max), http.StatusBadRequest)
}

func ErrInsufficientBalance() *AppError {
	return New("insufficient-balance", "Insufficient balance (including fee)", http.StatusBadRequest)
}

func ErrDailyLimitExceeded() *AppError {
	return New("daily-limit-exceeded", "Daily spending limit would be exceeded", http.StatusBadRequest)
}

func ErrReceiverNotFound() *AppError {
	return New("receiver-not-found", "Receiver not found", http.StatusNotFound)
}

func ErrReceiverInactive() *AppError {
	return New("receiver-inactive", "Receiver account is not active", http.StatusBadRequest)
}

func ErrSelfTransfer() *AppError {
	return New("self-transfer", "Cannot send money to yourself", http.StatusBadRequest)
}

func ErrWalletFrozen() *AppError {
	return New("wallet-frozen", "Wallet is frozen", http.StatusForbidden)
}

func ErrWalletNotFound() *AppError {
	return New("wallet-not-found", "Wallet not found", http.StatusNotFound)
}

func ErrUserNotFound() *AppError {
	return New("user-not-found", "User not found", http.StatusNotFound)
}

func ErrTransactionNotFound() *AppError {
	return New("transaction-not-found", "Transaction not found", http.StatusNotFound)
}

func ErrNotReversible() *AppError {
	return New("not-reversible", "Transaction cannot be reversed", http.StatusBadRequest)
}

// ---- Authentication / authorization ----

func ErrInvalidCredentials() *AppError {
	return New("invalid-credentials", "Invalid student ID or PIN", http.StatusUnauthorized)
}

func ErrStudentIDExists() *AppError {
	return New("student-id-exists", "Student ID is already registered", http.StatusConflict)
}

func ErrInvalidToken() *AppError {
	return New("invalid-token", "Invalid or expired token", http.StatusUnauthorized)
}

func ErrForbidden() *AppError {
	return New("forbidden", "You do not have access to this resource", http.StatusForbidden)
}

func ErrAccountSuspended() *AppError {
	return New("account-suspended", "Account is suspended", http.StatusForbidden)
}

// ---- Rate limiting ----

func ErrRateLimitExceeded() *AppError {
	return New("rate-limit-exceeded", "Too many requests, slow down", http.StatusTooManyRequests)
}

// ---- System & infrastructure ----

// InternalError wraps an unexpected error; the operation was rolled back.
func InternalError(err error) *AppError {
	return Wrap("internal", "Internal server error", http.StatusInternalServerError, err)
}

// RetryableError wraps a transient conflict (lock timeout, duplicate
// reference). The operation left no trace and may be retried by the caller.
func RetryableError(err error) *AppError {
	e := Wrap("internal", "Temporary conflict, please retry", http.StatusConflict, err)
	e.Retryable = true
	return e
}

// UnavailableError signals that storage is unreachable.
func UnavailableError(err error) *AppError {
	return Wrap("unavailable", "Service temporarily unavailable", http.StatusServiceUnavailable, err)
}

// Validation returns a malformed-input rejection with a custom message.
func Validation(message string) *AppError {
	return New("validation", message, http.StatusBadRequest)
}
