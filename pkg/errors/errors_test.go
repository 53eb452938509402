package errors

import (
	"errors"
	"net/http"
	"testing"
)

func TestAppErrorUnwrap(t *testing.T) {
	cause := errors.New("write failed")
	err := Internal("Failed to persist reservation", cause)

	if !errors.Is(err, cause) {
		t.Error("expected wrapped cause to be reachable through errors.Is")
	}
	if err.StatusCode() != http.StatusInternalServerError {
		t.Errorf("expected 500, got %d", err.StatusCode())
	}
}

func TestConstructorsMapStatusCodes(t *testing.T) {
	cases := []struct {
		name   string
		err    *AppError
		code   string
		status int
	}{
		{"not found", NotFoundWithID("Reservation", "abc"), CodeNotFound, http.StatusNotFound},
		{"validation", Validation("bad party size", nil), CodeValidation, http.StatusUnprocessableEntity},
		{"invalid input", InvalidInput("malformed date"), CodeInvalidInput, http.StatusBadRequest},
		{"conflict", Conflict("table already booked"), CodeConflict, http.StatusConflict},
		{"invalid transition", InvalidTransition("table is not occupied"), CodeInvalidTransition, http.StatusConflict},
		{"unavailable", Unavailable("reservation store"), CodeUnavailable, http.StatusServiceUnavailable},
	}

	for _, tc := range cases {
		if tc.err.Code != tc.code {
			t.Errorf("%s: expected code %s, got %s", tc.name, tc.code, tc.err.Code)
		}
		if tc.err.StatusCode() != tc.status {
			t.Errorf("%s: expected status %d, got %d", tc.name, tc.status, tc.err.StatusCode())
		}
	}
}

func TestAsAppErrorWrapsUnknown(t *testing.T) {
	plain := errors.New("boom")
	appErr := AsAppError(plain)

	if appErr.Code != CodeInternal {
		t.Errorf("expected %s, got %s", CodeInternal, appErr.Code)
	}
	if !errors.Is(appErr, plain) {
		t.Error("expected original error to be preserved as cause")
	}
}
