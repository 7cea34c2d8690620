package service

import (
	"fmt"
	"hash/fnv"
	"strings"
	"sync"
	"time"

	"github.com/robel-d/subgate/dao"
	"github.com/robel-d/subgate/model"
	"github.com/robel-d/subgate/service/dto"
	"github.com/robel-d/subgate/sms"
	"github.com/robel-d/subgate/util"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

const (
	msgInvalidCredentials = "Invalid credentials"
	msgNotActive          = "Subscription is not active"
	msgLocked             = "Too many failed attempts. Please try again later"

	//lock stripes cap mutex memory no matter how many distinct msisdns
	//inbound traffic presents
	lockStripes = 256
)

// Service is the subscriber lifecycle state machine. Every mutation for one
// msisdn is serialized behind a per-number mutex so SMS-driven and
// HTTP-driven operations cannot interleave on the same record.
type Service interface {
	//HandleIncomingMo processes one inbound mobile-originated message
	HandleIncomingMo(msisdn, text, shortCode, source string) (dto.MoResult, error)
	//Login verifies msisdn+PIN and issues an access token
	Login(msisdn, pin, clientIp string) (dto.LoginResult, error)
	//ProvisionCredentials creates or resets a subscriber PIN for operator display
	ProvisionCredentials(msisdn string) (dto.CredentialsResult, error)
	//ApiUnsubscribe force-unsubscribes outside the SMS keyword flow
	ApiUnsubscribe(msisdn string) (dto.UnsubscribeResult, error)
	//GetSubscriberStatus is a read-only probe
	GetSubscriberStatus(msisdn string) (dto.SubscriberStatus, error)
	//Dashboard returns the post-login menu for an authenticated msisdn
	Dashboard(msisdn string) (dto.Dashboard, error)
	//EraseSubscriber permanently removes a subscriber record
	EraseSubscriber(msisdn string) error
	//HandleDeliveryReceipt correlates a DLR with its MT transaction
	HandleDeliveryReceipt(smscId, stat, errCode, raw string)
}

type Config struct {
	ShortCode        string
	SubKeyword       string
	UnsubKeyword     string
	BcryptCost       int
	MaxLoginAttempts int
	LockoutDuration  time.Duration
	TxStoreDays      int
}

type service struct {
	session  sms.Session
	subDao   dao.SubscriberDao
	eventDao dao.EventDao
	txDao    dao.TransactionDao
	tokens   TokenIssuer

	shortCode        string
	subKeyword       string
	unsubKeyword     string
	bcryptCost       int
	maxLoginAttempts int
	lockoutDuration  time.Duration
	txStoreDays      int

	msisdnLocks [lockStripes]sync.Mutex
}

func NewService(session sms.Session, subDao dao.SubscriberDao, eventDao dao.EventDao, txDao dao.TransactionDao, tokens TokenIssuer, cfg Config) Service {
	if cfg.SubKeyword == "" {
		cfg.SubKeyword = "OK"
	}
	if cfg.UnsubKeyword == "" {
		cfg.UnsubKeyword = "STOP"
	}
	if cfg.BcryptCost < bcrypt.MinCost || cfg.BcryptCost > bcrypt.MaxCost {
		cfg.BcryptCost = bcrypt.DefaultCost
	}
	if cfg.MaxLoginAttempts <= 0 {
		cfg.MaxLoginAttempts = 5
	}
	if cfg.LockoutDuration <= 0 {
		cfg.LockoutDuration = 15 * time.Minute
	}

	service := &service{
		session:          session,
		subDao:           subDao,
		eventDao:         eventDao,
		txDao:            txDao,
		tokens:           tokens,
		shortCode:        cfg.ShortCode,
		subKeyword:       strings.ToUpper(cfg.SubKeyword),
		unsubKeyword:     strings.ToUpper(cfg.UnsubKeyword),
		bcryptCost:       cfg.BcryptCost,
		maxLoginAttempts: cfg.MaxLoginAttempts,
		lockoutDuration:  cfg.LockoutDuration,
		txStoreDays:      cfg.TxStoreDays,
	}

	session.BindIncomingMessageHandler(service.handleGatewayMo)
	session.BindDeliveryReceiptHandler(service.HandleDeliveryReceipt)

	go service.cleanupDb()

	return service
}

// lock serializes mutations per msisdn. Numbers hashing to the same stripe
// share a mutex, which only costs some parallelism, never correctness.
func (s *service) lock(msisdn string) func() {
	h := fnv.New32a()
	h.Write([]byte(msisdn))
	mu := &s.msisdnLocks[h.Sum32()%lockStripes]
	mu.Lock()
	return mu.Unlock
}

func (s *service) cleanupDb() {
	if s.txStoreDays <= 0 {
		return
	}
	for {
		err := s.txDao.RemoveOlderThanDays(s.txStoreDays)
		if err != nil {
			zap.L().Warn("Error cleaning up transactions", zap.Error(err))
		}
		time.Sleep(time.Hour)
	}
}

// handleGatewayMo adapts the gateway MO sink to HandleIncomingMo
func (s *service) handleGatewayMo(msisdn, shortCode, text string) {
	_, err := s.HandleIncomingMo(msisdn, text, shortCode, model.SRC_SMS)
	if err != nil {
		zap.L().Error("Error handling incoming MO", zap.String("msisdn", msisdn), zap.Error(err))
	}
}

func (s *service) HandleIncomingMo(msisdn, text, shortCode, source string) (dto.MoResult, error) {
	if shortCode == "" {
		shortCode = s.shortCode
	}

	normalized := util.NormalizeMsisdn(msisdn)

	//capture everything, even messages from malformed numbers
	recordMsisdn := normalized
	if recordMsisdn == "" {
		recordMsisdn = msisdn
	}
	_, err := s.txDao.Create(model.MO, recordMsisdn, shortCode, text, model.RECEIVED, "raw_msisdn="+msisdn)
	if err != nil {
		return dto.MoResult{}, err
	}

	if normalized == "" {
		//no valid number to reply to
		zap.L().Warn("Dropping MO with malformed msisdn", zap.String("msisdn", msisdn))
		return dto.MoResult{Action: dto.INVALID_MSISDN, Message: "Invalid msisdn"}, nil
	}

	unlock := s.lock(normalized)
	defer unlock()

	keyword := strings.ToUpper(strings.TrimSpace(text))
	switch keyword {
	case s.subKeyword:
		return s.subscribeOrHandleDuplicate(normalized, source)
	case s.unsubKeyword:
		return s.unsubscribe(normalized, source)
	default:
		_, err := s.eventDao.Create(normalized, model.INVALID_KEYWORD, source, "keyword="+keyword)
		if err != nil {
			return dto.MoResult{}, err
		}
		s.session.SendSms(normalized, s.helpText(), shortCode)
		return dto.MoResult{Action: dto.INVALID_KEYWORD, Message: s.helpText()}, nil
	}
}

func (s *service) subscribeOrHandleDuplicate(msisdn, source string) (dto.MoResult, error) {
	subscriber, err := s.subDao.GetOneByMsisdn(msisdn)
	if err != nil && !dao.IsNotFound(err) {
		return dto.MoResult{}, err
	}

	if dao.IsNotFound(err) {
		pin := util.GeneratePin()
		pinHash, err := bcrypt.GenerateFromPassword([]byte(pin), s.bcryptCost)
		if err != nil {
			return dto.MoResult{}, err
		}
		if _, err = s.subDao.Create(msisdn, string(pinHash)); err != nil {
			return dto.MoResult{}, err
		}
		if _, err = s.eventDao.Create(msisdn, model.SUBSCRIBE, source, ""); err != nil {
			return dto.MoResult{}, err
		}
		//the only moment the plaintext PIN ever leaves the system
		s.session.SendSms(msisdn, fmt.Sprintf("Welcome! Your login PIN is %s. Keep it secret.", pin), s.shortCode)
		return dto.MoResult{Success: true, Action: dto.SUBSCRIBED_NEW, Message: "Subscribed"}, nil
	}

	if subscriber.Status == model.ACTIVE {
		s.session.SendSms(msisdn, fmt.Sprintf("You are already subscribed. Send %s to unsubscribe.", s.unsubKeyword), s.shortCode)
		return dto.MoResult{Success: true, Action: dto.ALREADY_ACTIVE, Message: "Already subscribed"}, nil
	}

	//inactive record, reactivate with fresh credentials
	pin := util.GeneratePin()
	pinHash, err := bcrypt.GenerateFromPassword([]byte(pin), s.bcryptCost)
	if err != nil {
		return dto.MoResult{}, err
	}
	subscriber.PinHash = string(pinHash)
	subscriber.Status = model.ACTIVE
	subscriber.FailedLoginCount = 0
	subscriber.LockedUntil = time.Time{}
	subscriber.LastSubscribedAt = time.Now()
	if err = s.subDao.Update(&subscriber); err != nil {
		return dto.MoResult{}, err
	}
	if _, err = s.eventDao.Create(msisdn, model.RESUBSCRIBE, source, ""); err != nil {
		return dto.MoResult{}, err
	}
	if _, err = s.eventDao.Create(msisdn, model.PIN_ROTATE, source, ""); err != nil {
		return dto.MoResult{}, err
	}
	s.session.SendSms(msisdn, fmt.Sprintf("Welcome back! Your new login PIN is %s.", pin), s.shortCode)
	return dto.MoResult{Success: true, Action: dto.RESUBSCRIBED, Message: "Resubscribed"}, nil
}

func (s *service) unsubscribe(msisdn, source string) (dto.MoResult, error) {
	subscriber, err := s.subDao.GetOneByMsisdn(msisdn)
	if dao.IsNotFound(err) {
		s.session.SendSms(msisdn, fmt.Sprintf("You are not subscribed. Send %s to subscribe.", s.subKeyword), s.shortCode)
		return dto.MoResult{Action: dto.NOT_FOUND, Message: "Not subscribed"}, nil
	}
	if err != nil {
		return dto.MoResult{}, err
	}

	if _, err = s.eventDao.Create(msisdn, model.UNSUBSCRIBE, source, ""); err != nil {
		return dto.MoResult{}, err
	}
	//status flip, never a hard delete: history and audit trail stay intact
	subscriber.Status = model.INACTIVE
	subscriber.LastUnsubscribedAt = time.Now()
	if err = s.subDao.Update(&subscriber); err != nil {
		return dto.MoResult{}, err
	}
	s.session.SendSms(msisdn, fmt.Sprintf("You have been unsubscribed. Send %s to subscribe again.", s.subKeyword), s.shortCode)
	return dto.MoResult{Success: true, Action: dto.UNSUBSCRIBED, Message: "Unsubscribed"}, nil
}

func (s *service) Login(msisdn, pin, clientIp string) (dto.LoginResult, error) {
	normalized := util.NormalizeMsisdn(msisdn)
	if !util.IsValidMsisdn(normalized) {
		return dto.LoginResult{}, NewInvalidPayloadError("Invalid msisdn")
	}
	if !util.IsValidPin(pin) {
		return dto.LoginResult{}, NewInvalidPayloadError("Invalid pin")
	}

	unlock := s.lock(normalized)
	defer unlock()

	subscriber, err := s.subDao.GetOneByMsisdn(normalized)
	if dao.IsNotFound(err) {
		//indistinguishable from a wrong PIN to prevent enumeration
		s.logLoginFail(normalized, "NOT_FOUND", clientIp)
		return dto.LoginResult{}, NewAuthError(msgInvalidCredentials)
	}
	if err != nil {
		return dto.LoginResult{}, err
	}

	if subscriber.Status != model.ACTIVE {
		s.logLoginFail(normalized, "INACTIVE", clientIp)
		return dto.LoginResult{}, NewAuthError(msgNotActive)
	}

	if !subscriber.LockedUntil.IsZero() && subscriber.LockedUntil.After(time.Now()) {
		//short-circuit, no counter increment and no event while locked
		return dto.LoginResult{}, NewLockedError(msgLocked)
	}

	//bcrypt compare is not vulnerable to timing on the PIN value
	if bcrypt.CompareHashAndPassword([]byte(subscriber.PinHash), []byte(pin)) != nil {
		subscriber.FailedLoginCount++
		if subscriber.FailedLoginCount >= s.maxLoginAttempts {
			subscriber.LockedUntil = time.Now().Add(s.lockoutDuration)
			subscriber.FailedLoginCount = 0
		}
		if err = s.subDao.Update(&subscriber); err != nil {
			return dto.LoginResult{}, err
		}
		s.logLoginFail(normalized, "PIN_MISMATCH", clientIp)
		return dto.LoginResult{}, NewAuthError(msgInvalidCredentials)
	}

	subscriber.FailedLoginCount = 0
	subscriber.LockedUntil = time.Time{}
	if err = s.subDao.Update(&subscriber); err != nil {
		return dto.LoginResult{}, err
	}
	if _, err = s.eventDao.Create(normalized, model.LOGIN_SUCCESS, model.SRC_WEB, "ip="+clientIp); err != nil {
		return dto.LoginResult{}, err
	}

	token, err := s.tokens.Issue(normalized)
	if err != nil {
		return dto.LoginResult{}, err
	}

	return dto.LoginResult{
		Success: true,
		Message: "OK",
		Token:   token,
		User:    dto.User{Msisdn: normalized, Status: subscriber.Status},
	}, nil
}

func (s *service) logLoginFail(msisdn, reason, clientIp string) {
	_, err := s.eventDao.Create(msisdn, model.LOGIN_FAIL, model.SRC_WEB, "reason="+reason+" ip="+clientIp)
	if err != nil {
		zap.L().Error("Error logging login failure", zap.String("msisdn", msisdn), zap.Error(err))
	}
}

func (s *service) ProvisionCredentials(msisdn string) (dto.CredentialsResult, error) {
	normalized := util.NormalizeMsisdn(msisdn)
	if !util.IsValidMsisdn(normalized) {
		return dto.CredentialsResult{}, NewInvalidPayloadError("Invalid msisdn")
	}

	unlock := s.lock(normalized)
	defer unlock()

	pin := util.GeneratePin()
	pinHash, err := bcrypt.GenerateFromPassword([]byte(pin), s.bcryptCost)
	if err != nil {
		return dto.CredentialsResult{}, err
	}

	subscriber, err := s.subDao.GetOneByMsisdn(normalized)
	if dao.IsNotFound(err) {
		if _, err = s.subDao.Create(normalized, string(pinHash)); err != nil {
			return dto.CredentialsResult{}, err
		}
		if _, err = s.eventDao.Create(normalized, model.SUBSCRIBE, model.SRC_API, "provisioned=true"); err != nil {
			return dto.CredentialsResult{}, err
		}
	} else if err != nil {
		return dto.CredentialsResult{}, err
	} else {
		subscriber.PinHash = string(pinHash)
		subscriber.FailedLoginCount = 0
		subscriber.LockedUntil = time.Time{}
		//credentials imply an active subscription, otherwise the issued
		//PIN could never log in
		if subscriber.Status != model.ACTIVE {
			subscriber.Status = model.ACTIVE
			subscriber.LastSubscribedAt = time.Now()
			if _, err = s.eventDao.Create(normalized, model.RESUBSCRIBE, model.SRC_API, "provisioned=true"); err != nil {
				return dto.CredentialsResult{}, err
			}
		}
		if err = s.subDao.Update(&subscriber); err != nil {
			return dto.CredentialsResult{}, err
		}
		if _, err = s.eventDao.Create(normalized, model.PIN_ROTATE, model.SRC_API, "provisioned=true"); err != nil {
			return dto.CredentialsResult{}, err
		}
	}

	//plaintext PIN goes back to the operator, not over SMS
	return dto.CredentialsResult{
		Success:     true,
		Message:     "Credentials provisioned",
		Credentials: dto.Credentials{Msisdn: normalized, Pin: pin},
	}, nil
}

func (s *service) ApiUnsubscribe(msisdn string) (dto.UnsubscribeResult, error) {
	normalized := util.NormalizeMsisdn(msisdn)
	if !util.IsValidMsisdn(normalized) {
		return dto.UnsubscribeResult{}, NewInvalidPayloadError("Invalid msisdn")
	}

	unlock := s.lock(normalized)
	defer unlock()

	res, err := s.unsubscribe(normalized, model.SRC_API)
	if err != nil {
		return dto.UnsubscribeResult{}, err
	}
	return dto.UnsubscribeResult{Success: res.Success, Outcome: res.Action, Message: res.Message}, nil
}

func (s *service) GetSubscriberStatus(msisdn string) (dto.SubscriberStatus, error) {
	normalized := util.NormalizeMsisdn(msisdn)
	if !util.IsValidMsisdn(normalized) {
		return dto.SubscriberStatus{}, NewInvalidPayloadError("Invalid msisdn")
	}

	subscriber, err := s.subDao.GetOneByMsisdn(normalized)
	if dao.IsNotFound(err) {
		return dto.SubscriberStatus{}, NewNotFoundError("Subscriber not found " + normalized)
	}
	if err != nil {
		return dto.SubscriberStatus{}, err
	}

	events, err := s.eventDao.GetAllByMsisdn(normalized)
	if err != nil {
		return dto.SubscriberStatus{}, err
	}
	eventInfos := []dto.EventInfo{}
	for _, e := range events {
		eventInfos = append(eventInfos, dto.EventInfo{Type: e.EventType, Source: e.Source, CreatedAt: e.CreatedAt})
	}

	return dto.SubscriberStatus{
		Success:        true,
		Msisdn:         subscriber.Msisdn,
		Status:         subscriber.Status,
		SubscribedAt:   subscriber.LastSubscribedAt,
		UnsubscribedAt: subscriber.LastUnsubscribedAt,
		Events:         eventInfos,
	}, nil
}

func (s *service) Dashboard(msisdn string) (dto.Dashboard, error) {
	subscriber, err := s.subDao.GetOneByMsisdn(msisdn)
	if dao.IsNotFound(err) {
		return dto.Dashboard{}, NewAuthError(msgInvalidCredentials)
	}
	if err != nil {
		return dto.Dashboard{}, err
	}
	if subscriber.Status != model.ACTIVE {
		return dto.Dashboard{}, NewAuthError(msgNotActive)
	}

	return dto.Dashboard{
		Success: true,
		Msisdn:  subscriber.Msisdn,
		Actions: []string{"status", "rotate-pin", "unsubscribe"},
	}, nil
}

func (s *service) EraseSubscriber(msisdn string) error {
	normalized := util.NormalizeMsisdn(msisdn)
	if !util.IsValidMsisdn(normalized) {
		return NewInvalidPayloadError("Invalid msisdn")
	}

	unlock := s.lock(normalized)
	defer unlock()

	subscriber, err := s.subDao.GetOneByMsisdn(normalized)
	if dao.IsNotFound(err) {
		return NewNotFoundError("Subscriber not found " + normalized)
	}
	if err != nil {
		return err
	}

	if _, err = s.eventDao.Create(normalized, model.UNSUBSCRIBE, model.SRC_API, "erased=true"); err != nil {
		return err
	}
	return s.subDao.Delete(&subscriber)
}

func (s *service) HandleDeliveryReceipt(smscId, stat, errCode, raw string) {
	mt, err := s.txDao.GetLatestMtByMessageId(smscId)
	if dao.IsNotFound(err) {
		//receipt for a message this process never sent
		zap.L().Warn("No MT transaction for receipt", zap.String("smscId", smscId))
		return
	}
	if err != nil {
		zap.L().Error("Error looking up MT transaction", zap.String("smscId", smscId), zap.Error(err))
		return
	}

	if _, err = s.txDao.CreateDlr(smscId, mt.Msisdn, raw); err != nil {
		zap.L().Error("Error persisting DLR transaction", zap.String("smscId", smscId), zap.Error(err))
	}

	if stat == model.DELIVRD {
		mt.Status = model.DELIVERED
	} else {
		mt.Status = model.FAILED
	}
	mt.ErrorCode = errCode
	mt.Metadata = raw
	mt.DeliveredAt = time.Now()
	if err = s.txDao.Update(&mt); err != nil {
		zap.L().Error("Error updating MT delivery status", zap.String("smscId", smscId), zap.Error(err))
	}
}

func (s *service) helpText() string {
	return fmt.Sprintf("Send %s to subscribe or %s to unsubscribe.", s.subKeyword, s.unsubKeyword)
}
