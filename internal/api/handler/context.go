package handler

import (
	"context"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/99minutos/accounts-api/internal/api/middleware"
	"github.com/99minutos/accounts-api/internal/core/domain"
)

const requestTimeout = 5 * time.Second

// principal returns the identity set by the Authenticate middleware. Requests
// that did not pass through it, or carried no valid token, are anonymous.
func principal(c echo.Context) domain.Principal {
	p, _ := c.Get(middleware.PrincipalKey).(domain.Principal)
	return p
}

// requestContext bounds a use case call by requestTimeout and tags it with the
// client address used for attempt throttling.
func requestContext(c echo.Context) (context.Context, context.CancelFunc) {
	ctx := domain.WithClientIP(c.Request().Context(), c.RealIP())
	return context.WithTimeout(ctx, requestTimeout)
}
