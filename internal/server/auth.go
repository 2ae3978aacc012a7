package server

import (
	"crypto/subtle"
	"strings"

	"github.com/labstack/echo/v4"

	"sp1assist/internal/core"
)

const bearerPrefix = "Bearer "

// AuthMiddleware guards cache administration with the admin key. An empty
// adminKey leaves the routes open.
func AuthMiddleware(adminKey string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if adminKey == "" {
				return next(c)
			}
			if err := checkAdminKey(c.Request().Header.Get("Authorization"), adminKey); err != nil {
				return handleError(c, err)
			}
			return next(c)
		}
	}
}

func checkAdminKey(header, adminKey string) *core.Error {
	switch {
	case header == "":
		return core.NewAuthenticationError("", "missing authorization header")
	case !strings.HasPrefix(header, bearerPrefix):
		return core.NewAuthenticationError("", "invalid authorization header format, expected 'Bearer <token>'")
	}
	token := strings.TrimPrefix(header, bearerPrefix)
	if subtle.ConstantTimeCompare([]byte(token), []byte(adminKey)) != 1 {
		return core.NewAuthenticationError("", "invalid admin key")
	}
	return nil
}
