package dto

import "time"

const (
	SUBSCRIBED_NEW  = "SUBSCRIBED_NEW"
	ALREADY_ACTIVE  = "ALREADY_ACTIVE"
	RESUBSCRIBED    = "RESUBSCRIBED"
	UNSUBSCRIBED    = "UNSUBSCRIBED"
	NOT_FOUND       = "NOT_FOUND"
	INVALID_KEYWORD = "INVALID_KEYWORD"
	INVALID_MSISDN  = "INVALID_MSISDN"
)

type IncomingMo struct {
	Msisdn  string `json:"msisdn"`
	Message string `json:"message"`
}

type SimulateMo struct {
	Msisdn string `json:"msisdn"`
	Text   string `json:"text"`
}

type MoResult struct {
	Success bool   `json:"success"`
	Action  string `json:"action"`
	Message string `json:"message"`
}

type LoginRequest struct {
	Msisdn string `json:"msisdn"`
	Pin    string `json:"pin"`
}

type User struct {
	Msisdn string `json:"msisdn"`
	Status string `json:"status"`
}

type LoginResult struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Token   string `json:"token"`
	User    User   `json:"user"`
}

type MsisdnRequest struct {
	Msisdn string `json:"msisdn"`
}

type Credentials struct {
	Msisdn string `json:"msisdn"`
	Pin    string `json:"pin"`
}

type CredentialsResult struct {
	Success     bool        `json:"success"`
	Message     string      `json:"message"`
	Credentials Credentials `json:"credentials"`
}

type UnsubscribeResult struct {
	Success bool   `json:"success"`
	Outcome string `json:"outcome"`
	Message string `json:"message"`
}

type Dashboard struct {
	Success bool     `json:"success"`
	Msisdn  string   `json:"msisdn"`
	Actions []string `json:"actions"`
}

type EventInfo struct {
	Type      string    `json:"type"`
	Source    string    `json:"source"`
	CreatedAt time.Time `json:"createdAt"`
}

type SubscriberStatus struct {
	Success        bool        `json:"success"`
	Msisdn         string      `json:"msisdn"`
	Status         string      `json:"status"`
	SubscribedAt   time.Time   `json:"subscribedAt"`
	UnsubscribedAt time.Time   `json:"unsubscribedAt"`
	Events         []EventInfo `json:"events"`
}
