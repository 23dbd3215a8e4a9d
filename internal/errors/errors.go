// Package errors provides custom error types for the pocketbook API.
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

// Is reports whether target is an AppError with the same code, so that
// errors.Is(err, ErrBudgetNotFound) matches copies made by Wrap and WithMessage.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

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
	ErrInvalidRefresh     = &AppError{Code: "INVALID_REFRESH_TOKEN", Message: "Invalid or expired refresh token", StatusCode: http.StatusUnauthorized}
	ErrForbidden          = &AppError{Code: "FORBIDDEN", Message: "You do not have permission to access this resource", StatusCode: http.StatusForbidden}
	ErrInvalidToken       = &AppError{Code: "INVALID_TOKEN", Message: "Invalid or expired token", StatusCode: http.StatusBadRequest}
)

// General errors.
var (
	ErrInvalidInput   = &AppError{Code: "INVALID_INPUT", Message: "Invalid input", StatusCode: http.StatusBadRequest}
	ErrNotFound       = &AppError{Code: "NOT_FOUND", Message: "Resource not found", StatusCode: http.StatusNotFound}
	ErrConflict       = &AppError{Code: "CONFLICT", Message: "Resource already exists", StatusCode: http.StatusConflict}
	ErrInternalServer = &AppError{Code: "INTERNAL_ERROR", Message: "An internal error occurred", StatusCode: http.StatusInternalServerError}
)

// User errors.
var (
	ErrUserNotFound   = &AppError{Code: "USER_NOT_FOUND", Message: "User not found", StatusCode: http.StatusNotFound}
	ErrDuplicateEmail = &AppError{Code: "DUPLICATE_EMAIL", Message: "A user with this email already exists", StatusCode: http.StatusConflict}
)

// Category errors.
var (
	ErrCategoryNotFound       = &AppError{Code: "CATEGORY_NOT_FOUND", Message: "Category not found", StatusCode: http.StatusNotFound}
	ErrParentCategoryNotFound = &AppError{Code: "PARENT_CATEGORY_NOT_FOUND", Message: "Parent category not found", StatusCode: http.StatusBadRequest}
	ErrCategoryDepthExceeded  = &AppError{Code: "CATEGORY_DEPTH_EXCEEDED", Message: "Categories can only be nested one level deep", StatusCode: http.StatusBadRequest}
	ErrSelfParentCategory     = &AppError{Code: "SELF_PARENT_CATEGORY", Message: "A category cannot be its own parent", StatusCode: http.StatusBadRequest}
	ErrCategoryCycle          = &AppError{Code: "CATEGORY_CYCLE", Message: "A category cannot be moved under one of its own children", StatusCode: http.StatusBadRequest}
	ErrCategoryHasChildren    = &AppError{Code: "CATEGORY_HAS_CHILDREN", Message: "A category with children cannot become a child category", StatusCode: http.StatusBadRequest}
	ErrDuplicateCategory      = &AppError{Code: "DUPLICATE_CATEGORY", Message: "A category with this name already exists at this level", StatusCode: http.StatusConflict}
)

// Transaction errors.
var (
	ErrTransactionNotFound       = &AppError{Code: "TRANSACTION_NOT_FOUND", Message: "Transaction not found", StatusCode: http.StatusNotFound}
	ErrRecurrenceFrequencyNeeded = &AppError{Code: "RECURRENCE_FREQUENCY_REQUIRED", Message: "Recurrence frequency is required for recurrent transactions", StatusCode: http.StatusBadRequest}
	ErrInvalidRecurrence         = &AppError{Code: "INVALID_RECURRENCE_FREQUENCY", Message: "Recurrence frequency must be monthly or yearly", StatusCode: http.StatusBadRequest}
	ErrInstallmentsExceeded      = &AppError{Code: "INSTALLMENTS_EXCEEDED", Message: "Installments paid cannot exceed total installments", StatusCode: http.StatusBadRequest}
	ErrInvalidCategoryReference  = &AppError{Code: "INVALID_CATEGORY", Message: "Category does not exist", StatusCode: http.StatusBadRequest}
)

// Budget errors.
var (
	ErrBudgetNotFound       = &AppError{Code: "BUDGET_NOT_FOUND", Message: "Budget not found", StatusCode: http.StatusNotFound}
	ErrNoActiveBudget       = &AppError{Code: "NO_ACTIVE_BUDGET", Message: "No active budget found", StatusCode: http.StatusNotFound}
	ErrActiveBudgetConflict = &AppError{Code: "ACTIVE_BUDGET_CONFLICT", Message: "Another budget was activated concurrently", StatusCode: http.StatusConflict}
)

// Report errors.
var (
	ErrReportNotFound          = &AppError{Code: "REPORT_NOT_FOUND", Message: "Report not found", StatusCode: http.StatusNotFound}
	ErrReportExists            = &AppError{Code: "REPORT_ALREADY_EXISTS", Message: "A report for this period already exists", StatusCode: http.StatusConflict}
	ErrNoActiveBudgetForPeriod = &AppError{Code: "NO_ACTIVE_BUDGET_FOR_PERIOD", Message: "No active budget exists for this period", StatusCode: http.StatusBadRequest}
)

// Saving goal errors.
var (
	ErrSavingGoalNotFound = &AppError{Code: "SAVING_GOAL_NOT_FOUND", Message: "Saving goal not found", StatusCode: http.StatusNotFound}
	ErrInvalidSavingGoal  = &AppError{Code: "INVALID_SAVING_GOAL", Message: "Invalid saving goal", StatusCode: http.StatusBadRequest}
)
