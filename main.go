package main

import (
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/robel-d/subgate/controller"
	"github.com/robel-d/subgate/dao"
	_ "github.com/robel-d/subgate/docs"
	"github.com/robel-d/subgate/log"
	"github.com/robel-d/subgate/service"
	"github.com/robel-d/subgate/sms"
	"github.com/robel-d/subgate/util"
	echoSwagger "github.com/swaggo/echo-swagger"
	"go.uber.org/zap"
)

// @title Sms subscription gateway HTTP API
// @description Subscribe/unsubscribe/login state machine over an SMPP link

func init() {
	err := godotenv.Load()
	if err != nil {
		log.Error.Println(err)
	}
}

func main() {
	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatal(err)
	}
	defer logger.Sync()
	zap.ReplaceGlobals(logger)

	//create db client
	dbClient, err := dao.GetClient(util.GetEnv("DB_PATH", "subgate.db"))
	if err != nil {
		log.Fatal(err)
	}

	//create smpp client
	smscIp := util.GetEnv("SMS_IP", "")
	smscId := util.GetEnv("SMS_ID", "")
	smppClient := sms.NewClient(smscIp,
		util.GetEnvAsInt("SMS_PORT", 2775),
		smscId,
		util.GetEnv("SMS_PWD", ""),
		util.GetEnv("SMS_SYSTEM_TYPE", ""),
		util.GetEnvAsInt("ENQ_LNK_SEC", 30),
		util.GetEnvAsInt("TRX_PER_SEC", 100))

	txDao := dao.NewTransactionDao(dbClient)

	//the session stays in no-op mode without credentials or when disabled
	enabled := util.GetEnvAsBool("GATEWAY_ENABLED", true) &&
		!util.IsBlank(smscIp) && !util.IsBlank(smscId)

	session := sms.NewSession(smppClient, txDao, sms.SessionConfig{
		Enabled:        enabled,
		SendTimeout:    time.Duration(util.GetEnvAsInt("SEND_TIMEOUT_SEC", 30)) * time.Second,
		ReconnectDelay: 5 * time.Second,
	})

	jwtSecret := util.GetEnv("JWT_SECRET", "")
	if util.IsBlank(jwtSecret) {
		log.Warn.Println("JWT_SECRET is not set, issued tokens are not secure")
	}
	tokens := service.NewTokenIssuer(jwtSecret,
		time.Duration(util.GetEnvAsInt("TOKEN_TTL_MIN", 30))*time.Minute)

	subService := service.NewService(
		session,
		dao.NewSubscriberDao(dbClient),
		dao.NewEventDao(dbClient),
		txDao,
		tokens,
		service.Config{
			ShortCode:        util.GetEnv("SHORT_CODE", "9295"),
			SubKeyword:       util.GetEnv("SUB_KEYWORD", "OK"),
			UnsubKeyword:     util.GetEnv("UNSUB_KEYWORD", "STOP"),
			BcryptCost:       util.GetEnvAsInt("BCRYPT_COST", 10),
			MaxLoginAttempts: util.GetEnvAsInt("LOGIN_MAX_ATTEMPTS", 5),
			LockoutDuration:  time.Duration(util.GetEnvAsInt("LOCKOUT_MINUTES", 15)) * time.Minute,
			TxStoreDays:      util.GetEnvAsInt("TX_STORE_DAYS", 30),
		})

	//start gateway session
	err = session.Start()
	if err != nil {
		log.Fatal(err)
	}

	//attach http handlers
	e := echo.New()
	e.GET("/swagger/*", echoSwagger.WrapHandler)
	e.HideBanner = true
	e.Use(middleware.BodyLimit("2K"))

	bindRoutes(e, subService, tokens, util.GetEnv("ACCESS_CODE", ""))

	//start http server
	log.Fatal(e.Start(":" + util.GetEnv("HTTP_PORT", "8080")))
}

func bindRoutes(e *echo.Echo, srv service.Service, tokens service.TokenIssuer, accessCode string) {

	operator := controller.GetAccessCodeMiddleware(accessCode)
	bearer := controller.GetBearerAuthMiddleware(tokens)

	e.POST("/sms", controller.GetIncomingSmsFunc(srv))
	e.POST("/login", controller.GetLoginFunc(srv))
	e.GET("/dashboard", controller.GetDashboardFunc(srv), bearer)

	e.POST("/credentials", controller.GetProvisionCredentialsFunc(srv), operator)
	e.POST("/unsubscribe", controller.GetUnsubscribeFunc(srv), operator)
	e.POST("/simulate-mo", controller.GetSimulateMoFunc(srv), operator)
	e.GET("/subscribers/:msisdn", controller.GetSubscriberStatusFunc(srv), operator)
	e.DELETE("/subscribers/:msisdn", controller.GetEraseSubscriberFunc(srv), operator)
}
