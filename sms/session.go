package sms

import (
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cskr/pubsub"
	"github.com/robel-d/subgate/dao"
	"github.com/robel-d/subgate/log"
	"github.com/robel-d/subgate/model"
)

const (
	OUT = "out"

	//local error codes for MT transactions that never reached the SMSC
	ERR_NOT_BOUND     = "NOT_BOUND"
	ERR_TIMEOUT       = "TIMEOUT"
	ERR_SUBMIT_FAILED = "SUBMIT_FAILED"
	ERR_STORAGE       = "STORAGE"
)

type outboundSms struct {
	Seq   uint32
	From  string
	Phone string
	Text  string
}

type submitOutcome struct {
	smscId  string
	errCode string
}

// SendResult mirrors the final state of the MT transaction row
type SendResult struct {
	Success   bool
	MessageId string
	Error     string
}

// Session owns the single logical SMPP session of the process. It supervises
// the connection, reconnecting forever on drop, and correlates each
// submitted message with its submit_sm_resp.
type Session interface {
	Start() error
	Stop()
	IsBound() bool
	//SendSms persists an MT transaction and resolves it to SENT or FAILED
	SendSms(msisdn, text, shortCode string) SendResult
	BindIncomingMessageHandler(handler func(msisdn, shortCode, text string))
	BindDeliveryReceiptHandler(handler func(smscId, stat, errCode, raw string))
}

type SessionConfig struct {
	//Enabled false puts the session into permanent no-op mode
	Enabled        bool
	SendTimeout    time.Duration
	ReconnectDelay time.Duration
}

type session struct {
	smppClient SmppClient
	txDao      dao.TransactionDao

	enabled        bool
	sendTimeout    time.Duration
	reconnectDelay time.Duration

	ps  *pubsub.PubSub
	out chan interface{}

	seq     uint32
	pending sync.Map //seq -> chan submitOutcome

	stop     chan struct{}
	stopOnce sync.Once
}

func NewSession(smppClient SmppClient, txDao dao.TransactionDao, cfg SessionConfig) Session {
	if cfg.SendTimeout <= 0 {
		cfg.SendTimeout = 30 * time.Second
	}
	if cfg.ReconnectDelay <= 0 {
		cfg.ReconnectDelay = 5 * time.Second
	}
	ps := pubsub.New(100)
	s := &session{
		smppClient:     smppClient,
		txDao:          txDao,
		enabled:        cfg.Enabled,
		sendTimeout:    cfg.SendTimeout,
		reconnectDelay: cfg.ReconnectDelay,
		ps:             ps,
		out:            ps.Sub(OUT),
		stop:           make(chan struct{}),
	}
	smppClient.BindSubmitSmRespHandler(s.handleSubmitSmResp)
	return s
}

func (s *session) BindIncomingMessageHandler(handler func(msisdn, shortCode, text string)) {
	s.smppClient.BindIncomingMessageHandler(handler)
}

func (s *session) BindDeliveryReceiptHandler(handler func(smscId, stat, errCode, raw string)) {
	s.smppClient.BindDeliveryReceiptHandler(handler)
}

func (s *session) Start() error {
	if !s.enabled {
		log.Warn.Println("Sms gateway disabled or not configured, running in no-op mode")
		return nil
	}

	err := s.smppClient.Connect()
	log.WarnIfErr("Initial connection to SMSC failed, will keep retrying", err)

	go s.readPackets()
	go s.superviseConnection()
	go s.processOutgoing()

	return nil
}

func (s *session) Stop() {
	s.stopOnce.Do(func() {
		close(s.stop)
		if s.enabled {
			s.smppClient.Disconnect()
		}
	})
}

func (s *session) IsBound() bool {
	return s.enabled && s.smppClient.IsConnected()
}

func (s *session) SendSms(msisdn, text, shortCode string) SendResult {
	txId, err := s.txDao.Create(model.MT, msisdn, shortCode, text, model.UNKNOWN, "")
	if err != nil {
		log.Error.Println("Error persisting MT transaction", err)
		return SendResult{Error: ERR_STORAGE}
	}

	if !s.IsBound() {
		s.resolveTx(txId, "", ERR_NOT_BOUND)
		return SendResult{Error: ERR_NOT_BOUND}
	}

	seq := atomic.AddUint32(&s.seq, 1)
	ch := make(chan submitOutcome, 1)
	s.pending.Store(seq, ch)
	defer s.pending.Delete(seq)

	s.ps.Pub(outboundSms{Seq: seq, From: shortCode, Phone: msisdn, Text: text}, OUT)

	select {
	case outcome := <-ch:
		s.resolveTx(txId, outcome.smscId, outcome.errCode)
		if outcome.errCode != "" {
			return SendResult{Error: outcome.errCode}
		}
		return SendResult{Success: true, MessageId: outcome.smscId}

	case <-time.After(s.sendTimeout):
		s.resolveTx(txId, "", ERR_TIMEOUT)
		return SendResult{Error: ERR_TIMEOUT}
	}
}

func (s *session) resolveTx(txId uint32, smscId, errCode string) {
	status := model.SENT
	if errCode != "" {
		status = model.FAILED
	}
	log.ErrIfErr("Error updating MT transaction", s.txDao.UpdateSubmitOutcome(txId, smscId, status, errCode))
}

func (s *session) handleSubmitSmResp(seq, status uint32, smscId string) {
	val, ok := s.pending.Load(seq)
	if !ok {
		log.Warn.Println("No pending submit for seq", seq)
		return
	}

	outcome := submitOutcome{smscId: smscId}
	if status != 0 {
		outcome.errCode = strconv.FormatUint(uint64(status), 10)
	}

	select {
	case val.(chan submitOutcome) <- outcome:
	default:
	}
}

func (s *session) readPackets() {
	for {
		select {
		case <-s.stop:
			return
		default:
		}

		if s.smppClient.IsConnected() {
			err := s.smppClient.ReadPacket()
			log.ErrIfErr("", err)
		} else {
			time.Sleep(time.Second)
		}
	}
}

// superviseConnection is the only goroutine that reconnects, so at most one
// connect attempt is ever in flight. Retries forever with a fixed delay.
func (s *session) superviseConnection() {
	for {
		select {
		case <-s.stop:
			return
		default:
		}

		if !s.smppClient.IsConnected() {
			err := s.smppClient.Reconnect()
			if err != nil {
				log.ErrIfErr("", err)
				time.Sleep(s.reconnectDelay)
				continue
			}
		}
		time.Sleep(time.Second)
	}
}

func (s *session) processOutgoing() {
	for {
		select {
		case <-s.stop:
			return
		case val, ok := <-s.out:
			if !ok {
				//channel closed, should not arrive here
				return
			}
			out := val.(outboundSms)
			err := s.smppClient.SendMessage(out.Seq, out.From, out.Phone, out.Text)
			if err != nil {
				log.ErrIfErr("Error submitting sms", err)
				s.handleLocalFailure(out.Seq)
			}
		}
	}
}

func (s *session) handleLocalFailure(seq uint32) {
	val, ok := s.pending.Load(seq)
	if !ok {
		return
	}
	select {
	case val.(chan submitOutcome) <- submitOutcome{errCode: ERR_SUBMIT_FAILED}:
	default:
	}
}
