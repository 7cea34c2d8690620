package controller

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/robel-d/subgate/log"
	"github.com/robel-d/subgate/model"
	"github.com/robel-d/subgate/service"
	"github.com/robel-d/subgate/service/dto"
)

// IncomingSms godoc
// @Summary Inbound SMS webhook
// @Description Delivers one mobile-originated message into the subscription state machine
// @Accept json
// @Produce json
// @Param sms body dto.IncomingMo true "Inbound message"
// @Success 200 {object} dto.MoResult
// @Failure 400 "error description"
// @Router /sms [post]
func GetIncomingSmsFunc(srv service.Service) echo.HandlerFunc {
	return func(c echo.Context) error {
		mo := new(dto.IncomingMo)
		if err := c.Bind(mo); err != nil {
			return err
		}

		res, err := srv.HandleIncomingMo(mo.Msisdn, mo.Message, "", model.SRC_SMS)
		if err != nil {
			return writeError(c, err)
		}

		return c.JSON(http.StatusOK, res)
	}
}

// SimulateMo godoc
// @Summary Simulate an inbound MO
// @Description Test harness for the keyword flow without a live telecom link
// @Accept json
// @Produce json
// @Param mo body dto.SimulateMo true "Simulated message"
// @Success 200 {object} dto.MoResult
// @Router /simulate-mo [post]
func GetSimulateMoFunc(srv service.Service) echo.HandlerFunc {
	return func(c echo.Context) error {
		mo := new(dto.SimulateMo)
		if err := c.Bind(mo); err != nil {
			return err
		}

		res, err := srv.HandleIncomingMo(mo.Msisdn, mo.Text, "", model.SRC_API)
		if err != nil {
			return writeError(c, err)
		}

		return c.JSON(http.StatusOK, res)
	}
}

// Login godoc
// @Summary PIN login
// @Description Verifies msisdn and PIN, returns a bearer token
// @Accept json
// @Produce json
// @Param credentials body dto.LoginRequest true "Credentials"
// @Success 200 {object} dto.LoginResult
// @Failure 400 "error description"
// @Failure 401 "invalid credentials"
// @Router /login [post]
func GetLoginFunc(srv service.Service) echo.HandlerFunc {
	return func(c echo.Context) error {
		req := new(dto.LoginRequest)
		if err := c.Bind(req); err != nil {
			return err
		}

		res, err := srv.Login(req.Msisdn, req.Pin, c.RealIP())
		if err != nil {
			return writeError(c, err)
		}

		return c.JSON(http.StatusOK, res)
	}
}

// Dashboard godoc
// @Summary Post-login menu
// @Produce json
// @Security ApiKeyAuth
// @Success 200 {object} dto.Dashboard
// @Failure 401 "unauthorized"
// @Router /dashboard [get]
func GetDashboardFunc(srv service.Service) echo.HandlerFunc {
	return func(c echo.Context) error {
		msisdn, _ := c.Get(ContextMsisdn).(string)

		res, err := srv.Dashboard(msisdn)
		if err != nil {
			return writeError(c, err)
		}

		return c.JSON(http.StatusOK, res)
	}
}

// ProvisionCredentials godoc
// @Summary Operator PIN provisioning
// @Description Creates or resets a subscriber PIN, returns it in plaintext for operator display
// @Accept json
// @Produce json
// @Param request body dto.MsisdnRequest true "Subscriber msisdn"
// @Success 200 {object} dto.CredentialsResult
// @Router /credentials [post]
func GetProvisionCredentialsFunc(srv service.Service) echo.HandlerFunc {
	return func(c echo.Context) error {
		req := new(dto.MsisdnRequest)
		if err := c.Bind(req); err != nil {
			return err
		}

		res, err := srv.ProvisionCredentials(req.Msisdn)
		if err != nil {
			return writeError(c, err)
		}

		return c.JSON(http.StatusOK, res)
	}
}

// Unsubscribe godoc
// @Summary Force unsubscribe
// @Accept json
// @Produce json
// @Param request body dto.MsisdnRequest true "Subscriber msisdn"
// @Success 200 {object} dto.UnsubscribeResult
// @Router /unsubscribe [post]
func GetUnsubscribeFunc(srv service.Service) echo.HandlerFunc {
	return func(c echo.Context) error {
		req := new(dto.MsisdnRequest)
		if err := c.Bind(req); err != nil {
			return err
		}

		res, err := srv.ApiUnsubscribe(req.Msisdn)
		if err != nil {
			return writeError(c, err)
		}

		return c.JSON(http.StatusOK, res)
	}
}

// SubscriberStatus godoc
// @Summary Read-only status probe
// @Produce json
// @Param msisdn path string true "Subscriber msisdn"
// @Success 200 {object} dto.SubscriberStatus
// @Failure 404 "subscriber not found"
// @Router /subscribers/{msisdn} [get]
func GetSubscriberStatusFunc(srv service.Service) echo.HandlerFunc {
	return func(c echo.Context) error {
		res, err := srv.GetSubscriberStatus(c.Param("msisdn"))
		if err != nil {
			return writeError(c, err)
		}

		return c.JSON(http.StatusOK, res)
	}
}

// EraseSubscriber godoc
// @Summary Permanently erase a subscriber
// @Produce json
// @Param msisdn path string true "Subscriber msisdn"
// @Success 200 "erased"
// @Failure 404 "subscriber not found"
// @Router /subscribers/{msisdn} [delete]
func GetEraseSubscriberFunc(srv service.Service) echo.HandlerFunc {
	return func(c echo.Context) error {
		err := srv.EraseSubscriber(c.Param("msisdn"))
		if err != nil {
			return writeError(c, err)
		}

		return c.JSON(http.StatusOK, map[string]interface{}{"success": true})
	}
}

func writeError(c echo.Context, err error) error {
	switch err.(type) {
	case *service.InvalidPayloadErr:
		return c.String(http.StatusBadRequest, err.Error())
	case *service.AuthErr:
		return c.String(http.StatusUnauthorized, err.Error())
	case *service.LockedErr:
		return c.String(http.StatusTooManyRequests, err.Error())
	case *service.NotFoundErr:
		return c.String(http.StatusNotFound, err.Error())
	default:
		log.Error.Println(err)
		return c.String(http.StatusInternalServerError, "System malfunction. Please, try later")
	}
}
