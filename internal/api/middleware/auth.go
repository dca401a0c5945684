package middleware

import (
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/99minutos/accounts-api/internal/core/domain"
)

// PrincipalKey is the echo.Context key holding the request's domain.Principal.
const PrincipalKey = "principal"

// Authenticate resolves the bearer token into a domain.Principal. A request
// without a valid token is not rejected; it continues as domain.Anonymous and
// the use case decides what an anonymous caller may do.
func Authenticate(jwtSecret string, log zerolog.Logger) echo.MiddlewareFunc {
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
	)

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			c.Set(PrincipalKey, domain.Anonymous)

			raw, ok := bearerToken(c.Request().Header.Get(echo.HeaderAuthorization))
			if !ok {
				return next(c)
			}

			claims := jwt.MapClaims{}
			tkn, err := parser.ParseWithClaims(raw, claims, func(*jwt.Token) (any, error) {
				return []byte(jwtSecret), nil
			})
			if err != nil || !tkn.Valid {
				log.Debug().Err(err).Msg("bearer token rejected")
				return next(c)
			}

			sub, err := claims.GetSubject()
			if err != nil || sub == "" {
				return next(c)
			}
			email, _ := claims["email"].(string)

			c.Set(PrincipalKey, domain.Authenticated(sub, email))
			return next(c)
		}
	}
}

func bearerToken(header string) (string, bool) {
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return "", false
	}
	token := strings.TrimSpace(parts[1])
	return token, token != ""
}
