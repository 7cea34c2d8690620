package controller

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/robel-d/subgate/service"
)

const (
	//ContextMsisdn is the echo context key holding the authenticated msisdn
	ContextMsisdn = "msisdn"

	bearerPrefix     = "Bearer "
	accessCodeHeader = "x-access-code"
)

// GetBearerAuthMiddleware verifies the Authorization bearer token and stores
// the asserted msisdn in the request context. Every rejection is a generic
// 401, the caller learns nothing about why.
func GetBearerAuthMiddleware(tokens service.TokenIssuer) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			header := c.Request().Header.Get(echo.HeaderAuthorization)
			if !strings.HasPrefix(header, bearerPrefix) {
				return c.String(http.StatusUnauthorized, "Unauthorized")
			}

			msisdn, err := tokens.Verify(strings.TrimPrefix(header, bearerPrefix))
			if err != nil {
				return c.String(http.StatusUnauthorized, "Unauthorized")
			}

			c.Set(ContextMsisdn, msisdn)
			return next(c)
		}
	}
}

// GetAccessCodeMiddleware guards operator endpoints with a shared access
// code. An empty configured code denies everything.
func GetAccessCodeMiddleware(accessCode string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			provided := c.Request().Header.Get(accessCodeHeader)
			if accessCode == "" ||
				subtle.ConstantTimeCompare([]byte(provided), []byte(accessCode)) != 1 {
				return c.String(http.StatusUnauthorized, "Unauthorized")
			}
			return next(c)
		}
	}
}
