// Package errors provides custom error types for the Sanse Capital API.
// All service-layer errors should use AppError to ensure consistent,
// secure error responses that never leak internal details to clients.
package errors

import "net/http"

// AppError represents a structured application error with an error code,
// human-readable message, HTTP status code, and optional internal error.
type AppError struct {
	Code       string `json:"code"`
	Message    string `json:"message"`
	StatusCode int    `json:"-"`
	Internal   error  `json:"-"`
}

// Error implements the error interface.
func (e *AppError) Error() string { return e.Message }

// Unwrap returns the internal error for use with errors.Is/As.
func (e *AppError) Unwrap() error { return e.Internal }

// Wrap creates a new AppError with the same code/message/status but wraps an internal error.
func Wrap(sentinel *AppError, internal error) *AppError {
	return &AppError{
		Code:       sentinel.Code,
		Message:    sentinel.Message,
		StatusCode: sentinel.StatusCode,
		Internal:   internal,
	}
}

// WithMessage creates a new AppError with a custom message.
func WithMessage(sentinel *AppError, message string) *AppError {
	return &AppError{
		Code:       sentinel.Code,
		Message:    message,
		StatusCode: sentinel.StatusCode,
		Internal:   sentinel.Internal,
	}
}

// Authentication & authorization errors.
var (
	ErrUnauthorized       = &AppError{Code: "UNAUTHORIZED", Message: "Authentication required", StatusCode: http.StatusUnauthorized}
	ErrInvalidCredentials = &AppError{Code: "INVALID_CREDENTIALS", Message: "Invalid email or password", StatusCode: http.StatusUnauthorized}
	ErrForbidden          = &AppError{Code: "FORBIDDEN", Message: "Access denied", StatusCode: http.StatusForbidden}
	ErrAccountBlocked     = &AppError{Code: "ACCOUNT_BLOCKED", Message: "Account is blocked", StatusCode: http.StatusForbidden}
)

// General errors.
var (
	ErrInvalidInput   = &AppError{Code: "INVALID_INPUT", Message: "Invalid input", StatusCode: http.StatusBadRequest}
	ErrNotFound       = &AppError{Code: "NOT_FOUND", Message: "Resource not found", StatusCode: http.StatusNotFound}
	ErrInternalServer = &AppError{Code: "INTERNAL_ERROR", Message: "An internal error occurred", StatusCode: http.StatusInternalServerError}
)

// User errors.
var (
	ErrUserNotFound        = &AppError{Code: "USER_NOT_FOUND", Message: "User not found", StatusCode: http.StatusNotFound}
	ErrDuplicateEmail      = &AppError{Code: "DUPLICATE_EMAIL", Message: "A user with this email already exists", StatusCode: http.StatusConflict}
	ErrInvalidReferralCode = &AppError{Code: "INVALID_REFERRAL_CODE", Message: "Referral code is not valid", StatusCode: http.StatusBadRequest}
)

// Ledger errors.
var (
	ErrInsufficientBalance = &AppError{Code: "INSUFFICIENT_BALANCE", Message: "Insufficient available balance", StatusCode: http.StatusBadRequest}
	ErrTransactionNotFound = &AppError{Code: "TRANSACTION_NOT_FOUND", Message: "Transaction not found", StatusCode: http.StatusNotFound}
	ErrInvalidTransaction  = &AppError{Code: "INVALID_TRANSACTION_TYPE", Message: "Unsupported transaction type", StatusCode: http.StatusBadRequest}
)

// Investment errors.
var (
	ErrInvestmentNotFound    = &AppError{Code: "INVESTMENT_NOT_FOUND", Message: "Investment not found", StatusCode: http.StatusNotFound}
	ErrProductNotAvailable   = &AppError{Code: "PRODUCT_NOT_AVAILABLE", Message: "Investment product is not available", StatusCode: http.StatusBadRequest}
	ErrBelowMinimumAmount    = &AppError{Code: "BELOW_MINIMUM_AMOUNT", Message: "Amount is below the allowed minimum", StatusCode: http.StatusBadRequest}
	ErrInvestmentLimit       = &AppError{Code: "INVESTMENT_LIMIT_REACHED", Message: "Maximum number of open investments reached", StatusCode: http.StatusBadRequest}
	ErrInvestmentStale       = &AppError{Code: "INVESTMENT_STALE_STATE", Message: "The grace window has elapsed; the investment is already active", StatusCode: http.StatusConflict}
	ErrInvestmentNotActive   = &AppError{Code: "INVESTMENT_NOT_ACTIVE", Message: "Investment is not active", StatusCode: http.StatusBadRequest}
	ErrInvestmentLocked      = &AppError{Code: "INVESTMENT_LOCKED", Message: "Investment capital is still locked", StatusCode: http.StatusBadRequest}
	ErrDuplicateReturnPeriod = &AppError{Code: "DUPLICATE_RETURN_PERIOD", Message: "A return for this period has already been posted", StatusCode: http.StatusConflict}
	ErrInvalidRate           = &AppError{Code: "INVALID_RATE", Message: "Rate must be between 0 and 100", StatusCode: http.StatusBadRequest}
)

// Payment method errors.
var (
	ErrPaymentMethodNotFound = &AppError{Code: "PAYMENT_METHOD_NOT_FOUND", Message: "Payment method not found", StatusCode: http.StatusNotFound}
	ErrPaymentMethodLimit    = &AppError{Code: "PAYMENT_METHOD_LIMIT", Message: "Maximum number of payment methods reached", StatusCode: http.StatusBadRequest}
	ErrPaymentMethodInUse    = &AppError{Code: "PAYMENT_METHOD_IN_USE", Message: "Payment method has pending withdrawals", StatusCode: http.StatusConflict}
)

// Withdrawal and deposit errors.
var (
	ErrWithdrawalNotFound = &AppError{Code: "WITHDRAWAL_NOT_FOUND", Message: "Withdrawal request not found", StatusCode: http.StatusNotFound}
	ErrMonthlyLimit       = &AppError{Code: "MONTHLY_LIMIT_EXCEEDED", Message: "Monthly withdrawal limit exceeded", StatusCode: http.StatusBadRequest}
	ErrInvalidTransition  = &AppError{Code: "INVALID_STATUS_TRANSITION", Message: "Action not allowed in the current status", StatusCode: http.StatusConflict}
	ErrDepositNotFound    = &AppError{Code: "DEPOSIT_NOT_FOUND", Message: "Deposit request not found", StatusCode: http.StatusNotFound}
	ErrPendingDeposits    = &AppError{Code: "PENDING_DEPOSIT_LIMIT", Message: "Too many pending deposit requests", StatusCode: http.StatusBadRequest}
	ErrProofRequired      = &AppError{Code: "PROOF_REQUIRED", Message: "A payment proof image is required", StatusCode: http.StatusBadRequest}
	ErrAlreadyProcessed   = &AppError{Code: "ALREADY_PROCESSED", Message: "This request has already been processed", StatusCode: http.StatusConflict}
)

// Loan errors.
var (
	ErrLoanNotFound        = &AppError{Code: "LOAN_NOT_FOUND", Message: "Loan not found", StatusCode: http.StatusNotFound}
	ErrLoanOpen            = &AppError{Code: "LOAN_ALREADY_OPEN", Message: "A pending or active loan already exists", StatusCode: http.StatusConflict}
	ErrLoanAmount          = &AppError{Code: "LOAN_AMOUNT_OUT_OF_RANGE", Message: "Loan amount must be between $100.000 and $10.000.000 COP", StatusCode: http.StatusBadRequest}
	ErrInvalidTerm         = &AppError{Code: "INVALID_LOAN_TERM", Message: "Loan term must be 1, 2, 3 or 6 months", StatusCode: http.StatusBadRequest}
	ErrScoreTooLow         = &AppError{Code: "SCORE_TOO_LOW", Message: "Credit score is below the minimum of 200 points", StatusCode: http.StatusBadRequest}
	ErrLoanNotActive       = &AppError{Code: "LOAN_NOT_ACTIVE", Message: "Loan is not active", StatusCode: http.StatusBadRequest}
	ErrBelowMinimumPayment = &AppError{Code: "BELOW_MINIMUM_PAYMENT", Message: "Minimum loan payment is $1.000 COP", StatusCode: http.StatusBadRequest}
)

// Registration errors.
var (
	ErrRegistrationNotFound = &AppError{Code: "REGISTRATION_NOT_FOUND", Message: "Registration request not found", StatusCode: http.StatusNotFound}
)
