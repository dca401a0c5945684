package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/99minutos/accounts-api/internal/core/domain"
)

func signToken(t *testing.T, secret string, claims jwt.MapClaims) string {
	t.Helper()
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return signed
}

// runAuthenticate passes a request with the given Authorization header through
// the middleware and returns the principal seen by the next handler.
func runAuthenticate(t *testing.T, header string) domain.Principal {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if header != "" {
		req.Header.Set(echo.HeaderAuthorization, header)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	var (
		seen   domain.Principal
		called bool
	)
	handler := Authenticate("secret", zerolog.Nop())(func(c echo.Context) error {
		called = true
		seen, _ = c.Get(PrincipalKey).(domain.Principal)
		return c.NoContent(http.StatusOK)
	})

	if err := handler(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if !called {
		t.Fatalf("next not called")
	}
	return seen
}

func TestAuthenticate_ValidToken(t *testing.T) {
	signed := signToken(t, "secret", jwt.MapClaims{
		"sub":   "acc-1",
		"email": "alice@example.com",
		"exp":   time.Now().Add(time.Hour).Unix(),
	})

	p := runAuthenticate(t, "Bearer "+signed)
	if !p.IsAuthenticated() || p.AccountID != "acc-1" || p.Email != "alice@example.com" {
		t.Fatalf("unexpected principal: %+v", p)
	}
}

func TestAuthenticate_AnonymousCases(t *testing.T) {
	expired := signToken(t, "secret", jwt.MapClaims{
		"sub": "acc-1",
		"exp": time.Now().Add(-time.Minute).Unix(),
	})
	wrongSecret := signToken(t, "other", jwt.MapClaims{
		"sub": "acc-1",
		"exp": time.Now().Add(time.Hour).Unix(),
	})
	noSubject := signToken(t, "secret", jwt.MapClaims{
		"exp": time.Now().Add(time.Hour).Unix(),
	})
	noExpiry := signToken(t, "secret", jwt.MapClaims{"sub": "acc-1"})
	none, err := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{
		"sub": "acc-1",
		"exp": time.Now().Add(time.Hour).Unix(),
	}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	if err != nil {
		t.Fatalf("sign none token: %v", err)
	}

	cases := map[string]string{
		"missing header":  "",
		"wrong scheme":    "Token abc",
		"empty bearer":    "Bearer ",
		"garbage token":   "Bearer not-a-token",
		"expired token":   "Bearer " + expired,
		"wrong secret":    "Bearer " + wrongSecret,
		"missing subject": "Bearer " + noSubject,
		"missing expiry":  "Bearer " + noExpiry,
		"unsigned (none)": "Bearer " + none,
	}
	for name, header := range cases {
		t.Run(name, func(t *testing.T) {
			if p := runAuthenticate(t, header); p != domain.Anonymous {
				t.Fatalf("expected anonymous principal, got %+v", p)
			}
		})
	}
}

func TestRequireAuthenticated(t *testing.T) {
	e := echo.New()

	t.Run("anonymous", func(t *testing.T) {
		c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), httptest.NewRecorder())
		c.Set(PrincipalKey, domain.Anonymous)

		err := RequireAuthenticated()(func(c echo.Context) error {
			t.Fatalf("should not reach next")
			return nil
		})(c)
		if !errors.Is(err, domain.ErrNotAuthenticated) {
			t.Fatalf("expected ErrNotAuthenticated, got %v", err)
		}
	})

	t.Run("no principal set", func(t *testing.T) {
		c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), httptest.NewRecorder())

		err := RequireAuthenticated()(func(c echo.Context) error { return nil })(c)
		if !errors.Is(err, domain.ErrNotAuthenticated) {
			t.Fatalf("expected ErrNotAuthenticated, got %v", err)
		}
	})

	t.Run("authenticated", func(t *testing.T) {
		rec := httptest.NewRecorder()
		c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)
		c.Set(PrincipalKey, domain.Authenticated("acc-1", "a@example.com"))

		err := RequireAuthenticated()(func(c echo.Context) error {
			return c.NoContent(http.StatusOK)
		})(c)
		if err != nil {
			t.Fatalf("handler error: %v", err)
		}
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
	})
}
