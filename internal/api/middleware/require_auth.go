package middleware

import (
	"github.com/labstack/echo/v4"

	"github.com/99minutos/accounts-api/internal/core/domain"
)

// RequireAuthenticated rejects anonymous requests with domain.ErrNotAuthenticated.
// It must run after Authenticate.
func RequireAuthenticated() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			p, _ := c.Get(PrincipalKey).(domain.Principal)
			if !p.IsAuthenticated() {
				return domain.ErrNotAuthenticated
			}
			return next(c)
		}
	}
}
