package model

import "time"

const (
	//subscription lifecycle events
	SUBSCRIBE       string = "SUBSCRIBE"
	RESUBSCRIBE            = "RESUBSCRIBE"
	UNSUBSCRIBE            = "UNSUBSCRIBE"
	INVALID_KEYWORD        = "INVALID_KEYWORD"
	LOGIN_SUCCESS          = "LOGIN_SUCCESS"
	LOGIN_FAIL             = "LOGIN_FAIL"
	PIN_ROTATE             = "PIN_ROTATE"

	//event sources
	SRC_SMS    = "SMS"
	SRC_WEB    = "WEB"
	SRC_API    = "API"
	SRC_SYSTEM = "SYSTEM"
)

// SubscriptionEvent is an append-only audit record, never updated or deleted
type SubscriptionEvent struct {
	Id        uint32 `storm:"id,increment"`
	Msisdn    string `storm:"index"`
	EventType string `storm:"index"`
	Source    string
	Metadata  string
	CreatedAt time.Time `storm:"index"`
}
