package dao

import (
	"time"

	"github.com/robel-d/subgate/model"
)

type SubscriberDao interface {
	//Create creates an ACTIVE subscriber record and returns it
	Create(msisdn, pinHash string) (model.Subscriber, error)
	//GetOneByMsisdn returns the subscriber with the given msisdn
	GetOneByMsisdn(msisdn string) (model.Subscriber, error)
	//Update persists changes of an existing subscriber record
	Update(subscriber *model.Subscriber) error
	//Delete removes the subscriber record permanently
	Delete(subscriber *model.Subscriber) error
	//GetAll returns all subscribers
	GetAll() ([]model.Subscriber, error)
}

func NewSubscriberDao(db Db) SubscriberDao {
	return &subscriberDao{db: db}
}

type subscriberDao struct {
	db Db
}

func (d subscriberDao) Create(msisdn, pinHash string) (model.Subscriber, error) {
	now := time.Now()
	subscriber := &model.Subscriber{
		Msisdn:           msisdn,
		PinHash:          pinHash,
		Status:           model.ACTIVE,
		LastSubscribedAt: now,
		CreatedAt:        now,
	}
	err := d.db.Save(subscriber)
	return *subscriber, err
}

func (d subscriberDao) GetOneByMsisdn(msisdn string) (subscriber model.Subscriber, err error) {
	err = d.db.One("Msisdn", msisdn, &subscriber)
	return
}

func (d subscriberDao) Update(subscriber *model.Subscriber) error {
	//Save replaces the whole record so counters reset to zero stick,
	//storm's Update skips zero-value fields
	return d.db.Save(subscriber)
}

func (d subscriberDao) Delete(subscriber *model.Subscriber) error {
	return d.db.DeleteStruct(subscriber)
}

func (d subscriberDao) GetAll() (subscribers []model.Subscriber, err error) {
	err = d.db.All(&subscribers)
	return
}
