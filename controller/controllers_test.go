package controller

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/robel-d/subgate/service"
	"github.com/robel-d/subgate/service/dto"
	"github.com/stretchr/testify/require"
)

const (
	MSISDN = "251911223344"
	PIN    = "123456"
	TOKEN  = "token"
)

func newContext(body string) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func TestIncomingSms(t *testing.T) {
	srv := &mockService{moResult: dto.MoResult{Success: true, Action: dto.SUBSCRIBED_NEW}}
	c, rec := newContext(`{"msisdn":"` + MSISDN + `","message":"OK"}`)

	err := GetIncomingSmsFunc(srv)(c)

	require.NoError(t, err)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), dto.SUBSCRIBED_NEW)
	require.Equal(t, MSISDN, srv.gotMsisdn)
	require.Equal(t, "OK", srv.gotText)
}

func TestSimulateMo(t *testing.T) {
	srv := &mockService{moResult: dto.MoResult{Success: true, Action: dto.UNSUBSCRIBED}}
	c, rec := newContext(`{"msisdn":"` + MSISDN + `","text":"STOP"}`)

	err := GetSimulateMoFunc(srv)(c)

	require.NoError(t, err)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "STOP", srv.gotText)
}

func TestLogin(t *testing.T) {
	srv := &mockService{loginResult: dto.LoginResult{Success: true, Token: TOKEN}}
	c, rec := newContext(`{"msisdn":"` + MSISDN + `","pin":"` + PIN + `"}`)

	err := GetLoginFunc(srv)(c)

	require.NoError(t, err)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), TOKEN)
	require.Equal(t, MSISDN, srv.gotMsisdn)
	require.Equal(t, PIN, srv.gotPin)
}

func TestLoginRejected(t *testing.T) {
	srv := &mockService{err: service.NewAuthError("Invalid credentials")}
	c, rec := newContext(`{"msisdn":"` + MSISDN + `","pin":"` + PIN + `"}`)

	err := GetLoginFunc(srv)(c)

	require.NoError(t, err)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.Equal(t, "Invalid credentials", rec.Body.String())
}

func TestLoginLocked(t *testing.T) {
	srv := &mockService{err: service.NewLockedError("Too many failed attempts")}
	c, rec := newContext(`{"msisdn":"` + MSISDN + `","pin":"` + PIN + `"}`)

	err := GetLoginFunc(srv)(c)

	require.NoError(t, err)
	require.Equal(t, http.StatusTooManyRequests, rec.Code)
}

func TestLoginInvalidPayload(t *testing.T) {
	srv := &mockService{err: service.NewInvalidPayloadError("Invalid msisdn")}
	c, rec := newContext(`{"msisdn":"blablabla","pin":"` + PIN + `"}`)

	err := GetLoginFunc(srv)(c)

	require.NoError(t, err)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestLoginInternalError(t *testing.T) {
	srv := &mockService{err: errors.New("blablabla")}
	c, rec := newContext(`{"msisdn":"` + MSISDN + `","pin":"` + PIN + `"}`)

	err := GetLoginFunc(srv)(c)

	require.NoError(t, err)
	require.Equal(t, http.StatusInternalServerError, rec.Code)
	//internal details never leak to the caller
	require.NotContains(t, rec.Body.String(), "blablabla")
}

func TestDashboard(t *testing.T) {
	srv := &mockService{dashboard: dto.Dashboard{Success: true, Msisdn: MSISDN}}
	c, rec := newContext("")
	c.Set(ContextMsisdn, MSISDN)

	err := GetDashboardFunc(srv)(c)

	require.NoError(t, err)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, MSISDN, srv.gotMsisdn)
}

func TestProvisionCredentials(t *testing.T) {
	srv := &mockService{credentials: dto.CredentialsResult{
		Success:     true,
		Credentials: dto.Credentials{Msisdn: MSISDN, Pin: PIN},
	}}
	c, rec := newContext(`{"msisdn":"` + MSISDN + `"}`)

	err := GetProvisionCredentialsFunc(srv)(c)

	require.NoError(t, err)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), PIN)
}

func TestUnsubscribe(t *testing.T) {
	srv := &mockService{unsubscribe: dto.UnsubscribeResult{Success: true, Outcome: dto.UNSUBSCRIBED}}
	c, rec := newContext(`{"msisdn":"` + MSISDN + `"}`)

	err := GetUnsubscribeFunc(srv)(c)

	require.NoError(t, err)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), dto.UNSUBSCRIBED)
}

func TestSubscriberStatus(t *testing.T) {
	srv := &mockService{status: dto.SubscriberStatus{Success: true, Msisdn: MSISDN}}
	c, rec := newContext("")
	c.SetParamNames("msisdn")
	c.SetParamValues(MSISDN)

	err := GetSubscriberStatusFunc(srv)(c)

	require.NoError(t, err)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, MSISDN, srv.gotMsisdn)
}

func TestSubscriberStatusNotFound(t *testing.T) {
	srv := &mockService{err: service.NewNotFoundError("Subscriber not found")}
	c, rec := newContext("")
	c.SetParamNames("msisdn")
	c.SetParamValues(MSISDN)

	err := GetSubscriberStatusFunc(srv)(c)

	require.NoError(t, err)
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestEraseSubscriber(t *testing.T) {
	srv := &mockService{}
	c, rec := newContext("")
	c.SetParamNames("msisdn")
	c.SetParamValues(MSISDN)

	err := GetEraseSubscriberFunc(srv)(c)

	require.NoError(t, err)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "true")
	require.Equal(t, MSISDN, srv.gotMsisdn)
}

func TestEraseSubscriberNotFound(t *testing.T) {
	srv := &mockService{err: service.NewNotFoundError("Subscriber not found")}
	c, rec := newContext("")
	c.SetParamNames("msisdn")
	c.SetParamValues(MSISDN)

	err := GetEraseSubscriberFunc(srv)(c)

	require.NoError(t, err)
	require.Equal(t, http.StatusNotFound, rec.Code)
}

//----------------------mocks------------

type mockService struct {
	err error

	moResult    dto.MoResult
	loginResult dto.LoginResult
	credentials dto.CredentialsResult
	unsubscribe dto.UnsubscribeResult
	status      dto.SubscriberStatus
	dashboard   dto.Dashboard

	gotMsisdn string
	gotText   string
	gotPin    string
}

func (m *mockService) HandleIncomingMo(msisdn, text, shortCode, source string) (dto.MoResult, error) {
	m.gotMsisdn = msisdn
	m.gotText = text
	return m.moResult, m.err
}

func (m *mockService) Login(msisdn, pin, clientIp string) (dto.LoginResult, error) {
	m.gotMsisdn = msisdn
	m.gotPin = pin
	return m.loginResult, m.err
}

func (m *mockService) ProvisionCredentials(msisdn string) (dto.CredentialsResult, error) {
	m.gotMsisdn = msisdn
	return m.credentials, m.err
}

func (m *mockService) ApiUnsubscribe(msisdn string) (dto.UnsubscribeResult, error) {
	m.gotMsisdn = msisdn
	return m.unsubscribe, m.err
}

func (m *mockService) GetSubscriberStatus(msisdn string) (dto.SubscriberStatus, error) {
	m.gotMsisdn = msisdn
	return m.status, m.err
}

func (m *mockService) Dashboard(msisdn string) (dto.Dashboard, error) {
	m.gotMsisdn = msisdn
	return m.dashboard, m.err
}

func (m *mockService) EraseSubscriber(msisdn string) error {
	m.gotMsisdn = msisdn
	return m.err
}

func (m *mockService) HandleDeliveryReceipt(smscId, stat, errCode, raw string) {
}
