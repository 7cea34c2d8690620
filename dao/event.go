package dao

import (
	"time"

	"github.com/robel-d/subgate/model"
)

type EventDao interface {
	//Create appends a subscription lifecycle event and returns its id
	Create(msisdn, eventType, source, metadata string) (uint32, error)
	//GetAllByMsisdn returns all events recorded for the given msisdn
	GetAllByMsisdn(msisdn string) ([]model.SubscriptionEvent, error)
	//GetAll returns all events
	GetAll() ([]model.SubscriptionEvent, error)
}

func NewEventDao(db Db) EventDao {
	return &eventDao{db: db}
}

type eventDao struct {
	db Db
}

func (d eventDao) Create(msisdn, eventType, source, metadata string) (uint32, error) {
	event := &model.SubscriptionEvent{
		Msisdn:    msisdn,
		EventType: eventType,
		Source:    source,
		Metadata:  metadata,
		CreatedAt: time.Now(),
	}
	err := d.db.Save(event)
	return event.Id, err
}

func (d eventDao) GetAllByMsisdn(msisdn string) (events []model.SubscriptionEvent, err error) {
	err = d.db.Find("Msisdn", msisdn, &events)
	if err != nil && IsNotFound(err) {
		return nil, nil
	}
	return
}

func (d eventDao) GetAll() (events []model.SubscriptionEvent, err error) {
	err = d.db.All(&events)
	return
}
