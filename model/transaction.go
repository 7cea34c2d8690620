package model

import "time"

const (
	//transaction directions
	MO  string = "MO"
	MT         = "MT"
	DLR        = "DLR"

	//transaction statuses
	RECEIVED  = "RECEIVED"
	SENT      = "SENT"
	DELIVERED = "DELIVERED"
	FAILED    = "FAILED"
	UNKNOWN   = "UNKNOWN"

	//delivery receipt statuses
	DELIVRD = "DELIVRD"
	EXPIRED = "EXPIRED"
	DELETED = "DELETED"
	ACCEPTD = "ACCEPTD"
	UNDELIV = "UNDELIV"
	REJECTD = "REJECTD"
	ENROUTE = "ENROUTE"
)

// SmsTransaction records every inbound MO, outbound MT and delivery receipt.
// MT rows transition UNKNOWN -> SENT/FAILED on submit_sm_resp and may later
// be finalized to DELIVERED/FAILED by a correlated DLR.
type SmsTransaction struct {
	Id               uint32 `storm:"id,increment"`
	Direction        string `storm:"index"`
	MessageId        string `storm:"index"`
	RelatedMessageId string `storm:"index"`
	Msisdn           string `storm:"index"`
	ShortCode        string
	Text             string
	Status           string
	ErrorCode        string
	Metadata         string
	DeliveredAt      time.Time
	CreatedAt        time.Time `storm:"index"`
}
