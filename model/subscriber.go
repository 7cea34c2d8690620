package model

import "time"

const (
	//subscriber statuses
	ACTIVE    string = "ACTIVE"
	INACTIVE         = "INACTIVE"
	SUSPENDED        = "SUSPENDED"
)

type Subscriber struct {
	Id                 uint32 `storm:"id,increment"`
	Msisdn             string `storm:"unique"`
	PinHash            string
	Status             string
	FailedLoginCount   int
	LockedUntil        time.Time
	LastSubscribedAt   time.Time
	LastUnsubscribedAt time.Time
	CreatedAt          time.Time `storm:"index"`
}
