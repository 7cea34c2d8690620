package controller

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/robel-d/subgate/service"
	"github.com/stretchr/testify/require"
)

const ACCESS_CODE = "operator-code"

func newAuthContext(headers map[string]string) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func okHandler(c echo.Context) error {
	return c.String(http.StatusOK, "OK")
}

func TestBearerAuthMiddleware(t *testing.T) {
	tokens := service.NewTokenIssuer("test-secret", time.Minute)
	token, err := tokens.Issue(MSISDN)
	require.NoError(t, err)

	var gotMsisdn string
	next := func(c echo.Context) error {
		gotMsisdn, _ = c.Get(ContextMsisdn).(string)
		return c.String(http.StatusOK, "OK")
	}

	c, rec := newAuthContext(map[string]string{echo.HeaderAuthorization: bearerPrefix + token})

	err = GetBearerAuthMiddleware(tokens)(next)(c)

	require.NoError(t, err)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, MSISDN, gotMsisdn)
}

func TestBearerAuthMiddlewareMissingHeader(t *testing.T) {
	tokens := service.NewTokenIssuer("test-secret", time.Minute)

	c, rec := newAuthContext(nil)

	err := GetBearerAuthMiddleware(tokens)(okHandler)(c)

	require.NoError(t, err)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestBearerAuthMiddlewareBadToken(t *testing.T) {
	tokens := service.NewTokenIssuer("test-secret", time.Minute)

	c, rec := newAuthContext(map[string]string{echo.HeaderAuthorization: bearerPrefix + "blablabla"})

	err := GetBearerAuthMiddleware(tokens)(okHandler)(c)

	require.NoError(t, err)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestBearerAuthMiddlewareForeignSignature(t *testing.T) {
	tokens := service.NewTokenIssuer("test-secret", time.Minute)
	foreign := service.NewTokenIssuer("another-secret", time.Minute)
	token, err := foreign.Issue(MSISDN)
	require.NoError(t, err)

	c, rec := newAuthContext(map[string]string{echo.HeaderAuthorization: bearerPrefix + token})

	err = GetBearerAuthMiddleware(tokens)(okHandler)(c)

	require.NoError(t, err)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAccessCodeMiddleware(t *testing.T) {
	c, rec := newAuthContext(map[string]string{accessCodeHeader: ACCESS_CODE})

	err := GetAccessCodeMiddleware(ACCESS_CODE)(okHandler)(c)

	require.NoError(t, err)
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestAccessCodeMiddlewareWrongCode(t *testing.T) {
	c, rec := newAuthContext(map[string]string{accessCodeHeader: "blablabla"})

	err := GetAccessCodeMiddleware(ACCESS_CODE)(okHandler)(c)

	require.NoError(t, err)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAccessCodeMiddlewareUnconfiguredDeniesAll(t *testing.T) {
	c, rec := newAuthContext(map[string]string{accessCodeHeader: ""})

	err := GetAccessCodeMiddleware("")(okHandler)(c)

	require.NoError(t, err)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}
