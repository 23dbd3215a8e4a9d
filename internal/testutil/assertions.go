package testutil

import (
	"errors"
	"net/http"
	"testing"

	apperrors "pocketbook/internal/errors"
)

// statusByCode is the HTTP status each error code must surface with.
var statusByCode = map[string]int{
	"INVALID_INPUT":                 http.StatusBadRequest,
	"INVALID_TOKEN":                 http.StatusBadRequest,
	"PARENT_CATEGORY_NOT_FOUND":     http.StatusBadRequest,
	"CATEGORY_DEPTH_EXCEEDED":       http.StatusBadRequest,
	"SELF_PARENT_CATEGORY":          http.StatusBadRequest,
	"CATEGORY_CYCLE":                http.StatusBadRequest,
	"CATEGORY_HAS_CHILDREN":         http.StatusBadRequest,
	"RECURRENCE_FREQUENCY_REQUIRED": http.StatusBadRequest,
	"INVALID_RECURRENCE_FREQUENCY":  http.StatusBadRequest,
	"INSTALLMENTS_EXCEEDED":         http.StatusBadRequest,
	"INVALID_CATEGORY":              http.StatusBadRequest,
	"NO_ACTIVE_BUDGET_FOR_PERIOD":   http.StatusBadRequest,
	"INVALID_SAVING_GOAL":           http.StatusBadRequest,

	"UNAUTHORIZED":          http.StatusUnauthorized,
	"INVALID_CREDENTIALS":   http.StatusUnauthorized,
	"INVALID_REFRESH_TOKEN": http.StatusUnauthorized,

	"FORBIDDEN": http.StatusForbidden,

	"NOT_FOUND":             http.StatusNotFound,
	"USER_NOT_FOUND":        http.StatusNotFound,
	"CATEGORY_NOT_FOUND":    http.StatusNotFound,
	"TRANSACTION_NOT_FOUND": http.StatusNotFound,
	"BUDGET_NOT_FOUND":      http.StatusNotFound,
	"NO_ACTIVE_BUDGET":      http.StatusNotFound,
	"REPORT_NOT_FOUND":      http.StatusNotFound,
	"SAVING_GOAL_NOT_FOUND": http.StatusNotFound,

	"CONFLICT":               http.StatusConflict,
	"DUPLICATE_EMAIL":        http.StatusConflict,
	"DUPLICATE_CATEGORY":     http.StatusConflict,
	"ACTIVE_BUDGET_CONFLICT": http.StatusConflict,
	"REPORT_ALREADY_EXISTS":  http.StatusConflict,

	"INTERNAL_ERROR": http.StatusInternalServerError,
}

// AssertAppError checks that err is an *AppError with the expected error code
// and with the HTTP status that code maps to.
func AssertAppError(t testing.TB, err error, expectedCode string) {
	t.Helper()

	if err == nil {
		t.Fatalf("expected AppError with code %q, got nil", expectedCode)
	}

	var appErr *apperrors.AppError
	if !errors.As(err, &appErr) {
		t.Fatalf("expected *AppError, got %T: %v", err, err)
	}

	if appErr.Code != expectedCode {
		t.Errorf("expected error code %q, got %q (message: %s)", expectedCode, appErr.Code, appErr.Message)
		return
	}

	want, ok := statusByCode[expectedCode]
	if !ok {
		t.Errorf("no HTTP status registered for error code %q", expectedCode)
		return
	}
	if appErr.StatusCode != want {
		t.Errorf("error code %q carries status %d, want %d", expectedCode, appErr.StatusCode, want)
	}
}

// AssertNoError fails the test if err is not nil.
func AssertNoError(t testing.TB, err error) {
	t.Helper()

	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
