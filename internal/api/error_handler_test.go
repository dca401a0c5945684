package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/99minutos/accounts-api/internal/core/domain"
)

func TestHTTPErrorHandler(t *testing.T) {
	cases := []struct {
		name     string
		err      error
		wantCode int
		wantMsg  any
	}{
		{"anonymous", domain.ErrNotAuthenticated, http.StatusNotFound, "Not Found"},
		{"throttled", fmt.Errorf("login: %w", domain.ErrTooManyAttempts), http.StatusTooManyRequests, "Too many attempts, try again later"},
		{"credentials", domain.ErrInvalidCredentials, http.StatusOK, "Unable to authenticate"},
		{"confirm", domain.ErrEmailMismatch, http.StatusOK, "Invalid token or email"},
		{"echo error", echo.NewHTTPError(http.StatusMethodNotAllowed, "Method Not Allowed"), http.StatusMethodNotAllowed, "Method Not Allowed"},
		{"validation", domain.NewValidationError("email", "email is required"), http.StatusOK, map[string]any{"email": "email is required"}},
		{"unexpected", errors.New("mongo: connection reset"), http.StatusInternalServerError, "internal server error"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			e := echo.New()
			rec := httptest.NewRecorder()
			c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)

			NewHTTPErrorHandler(zerolog.Nop())(tc.err, c)

			if rec.Code != tc.wantCode {
				t.Fatalf("expected %d, got %d", tc.wantCode, rec.Code)
			}

			var resp map[string]any
			if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
				t.Fatalf("invalid json: %v", err)
			}
			if resp["Status"] != false {
				t.Fatalf("expected Status false, got %v", resp["Status"])
			}
			if fmt.Sprint(resp["Errors"]) != fmt.Sprint(tc.wantMsg) {
				t.Fatalf("expected Errors %v, got %v", tc.wantMsg, resp["Errors"])
			}
		})
	}
}

func TestHTTPErrorHandler_CommittedResponse(t *testing.T) {
	e := echo.New()
	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)
	if err := c.NoContent(http.StatusAccepted); err != nil {
		t.Fatalf("write: %v", err)
	}

	NewHTTPErrorHandler(zerolog.Nop())(errors.New("late"), c)

	if rec.Code != http.StatusAccepted || rec.Body.Len() != 0 {
		t.Fatalf("committed response must not be rewritten")
	}
}
