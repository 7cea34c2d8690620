package sms

import (
	"context"
	"crypto/rand"
	"math"
	"regexp"
	"strconv"
	"strings"
	"sync/atomic"

	smpp "github.com/Dilshat/smpp34"
	"github.com/Dilshat/smpp34/gsmutil"
	"github.com/robel-d/subgate/log"
	"github.com/robel-d/subgate/util"
	"golang.org/x/time/rate"
)

// esm_class bit marking a deliver_sm as an SMSC delivery receipt
const esmClassReceipt = 0x04

var (
	dlvRctRx = *regexp.MustCompile(`(?s)id:(.+?) .* stat:([A-Z]+)`)
	dlvErrRx = *regexp.MustCompile(`err:([0-9]+)`)
)

type RateLimiter interface {
	// Wait blocks until the limiter permits an event to happen.
	Wait(ctx context.Context) error
}

type TransceiverWrapper interface {
	Unbind() error
	Close()
	SetNextId(id uint32)
	Read() (smpp.Pdu, error)
	SubmitSmEncoded(sourceAddr, destinationAddr string, shortMessage []byte, params *smpp.Params) (seq uint32, err error)
	DeliverSmResp(seq uint32, status smpp.CMDStatus) error
}

type TransceiverWrapperFactory interface {
	GetTransceiver(host string, port int, eli int, bindParams smpp.Params) (TransceiverWrapper, error)
}

type transceiverWrapperFactory struct {
}

type transceiverWrapper struct {
	tr *smpp.Transceiver
}

func (t *transceiverWrapper) Unbind() error {
	return t.tr.Unbind()
}

func (t *transceiverWrapper) Close() {
	t.tr.Close()
}

func (t *transceiverWrapper) SetNextId(id uint32) {
	t.tr.NewSeqNumFunc = func() uint32 {
		return id
	}
}

func (t *transceiverWrapper) Read() (smpp.Pdu, error) {
	return t.tr.Read()
}

func (t *transceiverWrapper) SubmitSmEncoded(sourceAddr, destinationAddr string, shortMessage []byte, params *smpp.Params) (seq uint32, err error) {
	return t.tr.SubmitSmEncoded(sourceAddr, destinationAddr, shortMessage, params)
}

func (t *transceiverWrapper) DeliverSmResp(seq uint32, status smpp.CMDStatus) error {
	return t.tr.DeliverSmResp(seq, status)
}

func (t *transceiverWrapperFactory) GetTransceiver(host string, port int, eli int, bindParams smpp.Params) (TransceiverWrapper, error) {
	tr, err := smpp.NewTransceiver(host, port, eli, bindParams)
	if err != nil {
		return nil, err
	}
	return &transceiverWrapper{tr: tr}, nil
}

type SmppClient interface {
	Connect() error
	Disconnect()
	Reconnect() error
	IsConnected() bool
	SendMessage(seq uint32, from, phone, text string) error
	BindSubmitSmRespHandler(handler func(seq, status uint32, smscId string))
	BindDeliveryReceiptHandler(handler func(smscId, stat, errCode, raw string))
	BindIncomingMessageHandler(handler func(msisdn, shortCode, text string))
	ReadPacket() error
}

type smppClient struct {
	smscIp           string
	smscPort         int
	smscAccount      string
	smscPassword     string
	smscSystemType   string
	smscEnqLnkIntrvl int

	connected int32

	transceiver        TransceiverWrapper
	transceiverFactory TransceiverWrapperFactory
	rateLimiter        RateLimiter
	submitSmHandler    func(seq, status uint32, smscId string)
	receiptHandler     func(smscId, stat, errCode, raw string)
	moHandler          func(msisdn, shortCode, text string)
}

func NewClient(smscIp string, smscPort int, smscAccount, smscPassword, smscSystemType string, smscEnqLnkIntrvl, tps int) SmppClient {
	return &smppClient{
		smscIp:             smscIp,
		smscPort:           smscPort,
		smscAccount:        smscAccount,
		smscPassword:       smscPassword,
		smscSystemType:     smscSystemType,
		smscEnqLnkIntrvl:   smscEnqLnkIntrvl,
		rateLimiter:        rate.NewLimiter(rate.Limit(tps), 1),
		transceiverFactory: &transceiverWrapperFactory{},
	}
}

func (c *smppClient) BindSubmitSmRespHandler(handler func(seq, status uint32, smscId string)) {
	c.submitSmHandler = handler
}

func (c *smppClient) BindDeliveryReceiptHandler(handler func(smscId, stat, errCode, raw string)) {
	c.receiptHandler = handler
}

func (c *smppClient) BindIncomingMessageHandler(handler func(msisdn, shortCode, text string)) {
	c.moHandler = handler
}

func (c *smppClient) Disconnect() {
	defer func() {
		r := recover()
		if r != nil {
			log.Error.Println("Recovered in Disconnect", r)
		}
		atomic.StoreInt32(&c.connected, 0)
	}()

	log.Info.Println("Disconnecting from SMSC")

	if c.transceiver != nil {
		_ = c.transceiver.Unbind()
		c.transceiver.Close()
	}
}

func (c *smppClient) Connect() error {
	defer func() {
		r := recover()
		if r != nil {
			log.Error.Println("Recovered in Connect", r)
			atomic.StoreInt32(&c.connected, 0)
		}
	}()

	log.Info.Println("Connecting to SMSC")

	bindParams := smpp.Params{
		"system_id": c.smscAccount,
		"password":  c.smscPassword,
	}
	if !util.IsBlank(c.smscSystemType) {
		bindParams["system_type"] = c.smscSystemType
	}

	var err error
	c.transceiver, err = c.transceiverFactory.GetTransceiver(
		c.smscIp,
		c.smscPort,
		c.smscEnqLnkIntrvl,
		bindParams,
	)

	if err == nil {
		atomic.StoreInt32(&c.connected, 1)
		log.Info.Println("Connection succeeded")
	} else {
		atomic.StoreInt32(&c.connected, 0)
		log.Error.Println("Connection failed")
	}

	return err
}

func (c *smppClient) Reconnect() error {
	c.Disconnect()
	return c.Connect()
}

func (c *smppClient) IsConnected() bool {
	return atomic.LoadInt32(&c.connected) == 1
}

func (c *smppClient) SendMessage(seq uint32, from, phone, text string) error {
	//impose tps limit
	c.rateLimiter.Wait(context.Background())

	defer func() {
		r := recover()
		if r != nil {
			log.Error.Println("Recovered in SendMessage", r)
			atomic.StoreInt32(&c.connected, 0)
		}
	}()

	//determine encoding
	msgEncoding := smpp.ENCODING_DEFAULT
	textBytes := []byte(text)
	partLength := 153
	maxLength := 160
	if !util.IsASCII(text) {
		msgEncoding = smpp.ENCODING_ISO10646
		textBytes = gsmutil.EncodeUcs2(text)
		partLength = 134
		maxLength = 140
	}

	textBytesLen := len(textBytes)

	if textBytesLen > maxLength {
		partsCount := int(math.Ceil(float64(textBytesLen) / float64(partLength)))

		commonId := make([]byte, 1)
		_, err := rand.Read(commonId)
		log.WarnIfErr("Error generating common id", err)

		for i := 1; i <= partsCount; i++ {
			partNo := i
			finalPart := i == partsCount
			part := []byte{0x05, 0x00, 0x03, commonId[0], byte(partsCount), byte(partNo)}
			var registeredDelivery int
			if finalPart {
				part = append(part, textBytes[(i-1)*partLength:]...)
				//correlate only the final part with the caller's sequence number
				c.transceiver.SetNextId(seq)
				registeredDelivery = 1
			} else {
				part = append(part, textBytes[(i-1)*partLength:i*partLength]...)
				c.transceiver.SetNextId(0)
				registeredDelivery = 0
			}

			_, err := c.transceiver.SubmitSmEncoded(from, phone, part, &smpp.Params{
				smpp.SOURCE_ADDR_TON:     5,
				smpp.SOURCE_ADDR_NPI:     1,
				smpp.DEST_ADDR_TON:       1,
				smpp.DEST_ADDR_NPI:       1,
				smpp.ESM_CLASS:           smpp.ESM_CLASS_GSMFEAT_UDHI,
				smpp.REGISTERED_DELIVERY: registeredDelivery,
				smpp.DATA_CODING:         msgEncoding,
			})

			if finalPart {
				return err
			} else {
				log.ErrIfErr("Error sending submit_sm", err)
			}
		}

	} else {
		c.transceiver.SetNextId(seq)
		_, err := c.transceiver.SubmitSmEncoded(from, phone, textBytes, &smpp.Params{
			smpp.SOURCE_ADDR_TON:     5,
			smpp.SOURCE_ADDR_NPI:     1,
			smpp.DEST_ADDR_TON:       1,
			smpp.DEST_ADDR_NPI:       1,
			smpp.REGISTERED_DELIVERY: 1,
			smpp.DATA_CODING:         msgEncoding,
		})

		return err
	}

	return nil
}

func (c *smppClient) ReadPacket() error {

	defer func() {
		r := recover()
		if r != nil {
			atomic.StoreInt32(&c.connected, 0)
			log.Error.Println("Recovered in ReadPacket", r)
		}
	}()

	pdu, err := c.transceiver.Read() // This is blocking
	if err != nil {
		if _, ok := err.(smpp.SmppErr); ok {
			log.Warn.Println("Error reading packet", err)
		} else {
			//set connected to false
			atomic.StoreInt32(&c.connected, 0)
			log.Error.Println("Error reading packet", err)
		}
		return err
	}

	// Transceiver auto handles EnquireLinks
	switch pdu.GetHeader().Id {
	case smpp.SUBMIT_SM_RESP:
		//received submit_sm_resp
		c.processSubmitSmResp(pdu)

	case smpp.DELIVER_SM:
		// received deliver_sm

		//send deliverSmResp
		err = c.transceiver.DeliverSmResp(pdu.GetHeader().Sequence, smpp.ESME_ROK)
		log.ErrIfErr("DeliverSmResp err:", err)

		c.processDeliverSm(pdu)

	default:
		log.Trace.Println("PDU ID:", pdu.GetHeader().Id)
	}

	return nil
}

func (c *smppClient) processSubmitSmResp(pdu smpp.Pdu) {
	seq := pdu.GetHeader().Sequence
	if seq == 0 {
		return
	}
	submitStatus := uint32(pdu.GetHeader().Status)
	smscId, ok := normalizeSmscId(pdu.GetField("message_id").String())
	if !ok && submitStatus == 0 {
		log.Error.Println("Failed to parse submit_sm_resp", pdu.GetField("message_id").String())
		return
	}

	if c.submitSmHandler == nil {
		log.Warn.Println("No submit_sm_resp handler bound, dropping", seq)
		return
	}
	//dispatch off the read loop, the sink must never block packet reading
	go c.submitSmHandler(seq, submitStatus, smscId)

	log.Info.Printf("SubmitSmResp: seq=%d, smscId=%s, status=%d\n", seq, smscId, submitStatus)
}

func (c *smppClient) processDeliverSm(pdu smpp.Pdu) {
	text := pdu.GetField("short_message").String()
	esmClass := fieldAsInt(pdu.GetField("esm_class"))

	if IsDeliveryReceipt(byte(esmClass), text) {
		c.processDeliveryReceipt(text)
		return
	}

	//mobile originated message
	msisdn := pdu.GetField("source_addr").String()
	shortCode := pdu.GetField("destination_addr").String()

	if c.moHandler == nil {
		log.Warn.Println("No MO handler bound, dropping message from", msisdn)
		return
	}
	//the MO sink may send a reply and wait for its own submit_sm_resp,
	//which only this read loop can deliver
	go c.moHandler(msisdn, shortCode, text)

	log.Info.Printf("DeliverSm MO: msisdn=%s, shortCode=%s\n", msisdn, shortCode)
}

func (c *smppClient) processDeliveryReceipt(raw string) {
	res := dlvRctRx.FindAllStringSubmatch(raw, -1)
	if len(res) != 1 || len(res[0]) != 3 {
		log.Error.Println("Failed to parse deliver_sm receipt", raw)
		return
	}
	smscId, ok := normalizeSmscId(res[0][1])
	if !ok {
		log.Error.Println("Failed to parse deliver_sm receipt", raw)
		return
	}
	stat := res[0][2]

	errCode := ""
	if errRes := dlvErrRx.FindStringSubmatch(raw); len(errRes) == 2 {
		errCode = errRes[1]
	}

	if c.receiptHandler == nil {
		log.Warn.Println("No receipt handler bound, dropping receipt", smscId)
		return
	}
	go c.receiptHandler(smscId, stat, errCode, raw)

	log.Info.Printf("DeliverSm DLR: smscId=%s, stat=%s\n", smscId, stat)
}

// IsDeliveryReceipt classifies a deliver_sm payload. The receipt bit in
// esm_class is authoritative but some SMSCs send receipts with a plain
// esm_class, so a text match on the receipt format is accepted too.
func IsDeliveryReceipt(esmClass byte, text string) bool {
	if esmClass&esmClassReceipt != 0 {
		return true
	}
	return dlvRctRx.MatchString(text)
}

// normalizeSmscId folds the SMSC message id, which arrives decimal in
// some PDUs and hex in others, into a canonical decimal string
func normalizeSmscId(raw string) (string, bool) {
	raw = strings.TrimSpace(raw)
	if n, err := strconv.ParseUint(raw, 10, 64); err == nil {
		return strconv.FormatUint(n, 10), true
	}
	if n, err := strconv.ParseUint(raw, 16, 64); err == nil {
		return strconv.FormatUint(n, 10), true
	}
	return "", false
}

func fieldAsInt(f smpp.Field) int {
	if f == nil {
		return 0
	}
	switch v := f.Value().(type) {
	case uint8:
		return int(v)
	case int:
		return v
	case uint32:
		return int(v)
	case string:
		n, _ := strconv.Atoi(v)
		return n
	}
	return 0
}
