package dao

import (
	"time"

	"github.com/asdine/storm/v3/q"
	"github.com/robel-d/subgate/model"
)

type TransactionDao interface {
	//Create appends a transaction record and returns its id
	Create(direction, msisdn, shortCode, text, status, metadata string) (uint32, error)
	//CreateDlr appends a delivery receipt row linked to the MT it confirms
	CreateDlr(relatedMessageId, msisdn, raw string) (uint32, error)
	//UpdateSubmitOutcome resolves an MT row after submit_sm_resp (or a local failure)
	UpdateSubmitOutcome(id uint32, messageId, status, errorCode string) error
	//GetOneById returns a transaction by id
	GetOneById(id uint32) (model.SmsTransaction, error)
	//GetLatestMtByMessageId returns the most recent MT row carrying the given gateway message id
	GetLatestMtByMessageId(messageId string) (model.SmsTransaction, error)
	//Update persists changes of an existing transaction record
	Update(tx *model.SmsTransaction) error
	//GetAllByMsisdn returns all transactions recorded for the given msisdn
	GetAllByMsisdn(msisdn string) ([]model.SmsTransaction, error)
	//RemoveOlderThanDays removes all transactions older than {days}
	RemoveOlderThanDays(days int) error
}

func NewTransactionDao(db Db) TransactionDao {
	return &transactionDao{db: db}
}

type transactionDao struct {
	db Db
}

func (d transactionDao) Create(direction, msisdn, shortCode, text, status, metadata string) (uint32, error) {
	tx := &model.SmsTransaction{
		Direction: direction,
		Msisdn:    msisdn,
		ShortCode: shortCode,
		Text:      text,
		Status:    status,
		Metadata:  metadata,
		CreatedAt: time.Now(),
	}
	err := d.db.Save(tx)
	return tx.Id, err
}

func (d transactionDao) CreateDlr(relatedMessageId, msisdn, raw string) (uint32, error) {
	tx := &model.SmsTransaction{
		Direction:        model.DLR,
		RelatedMessageId: relatedMessageId,
		Msisdn:           msisdn,
		Text:             raw,
		Status:           model.RECEIVED,
		CreatedAt:        time.Now(),
	}
	err := d.db.Save(tx)
	return tx.Id, err
}

func (d transactionDao) UpdateSubmitOutcome(id uint32, messageId, status, errorCode string) error {
	var tx model.SmsTransaction
	err := d.db.One("Id", id, &tx)
	if err != nil {
		return err
	}
	tx.MessageId = messageId
	tx.Status = status
	tx.ErrorCode = errorCode
	return d.db.Save(&tx)
}

func (d transactionDao) GetOneById(id uint32) (tx model.SmsTransaction, err error) {
	err = d.db.One("Id", id, &tx)
	return
}

func (d transactionDao) GetLatestMtByMessageId(messageId string) (model.SmsTransaction, error) {
	var txs []model.SmsTransaction
	//ids are monotonic, the highest one is the newest row
	err := d.db.Select(q.Eq("Direction", model.MT), q.Eq("MessageId", messageId)).
		OrderBy("Id").Reverse().Limit(1).Find(&txs)
	var tx model.SmsTransaction
	if err != nil {
		return tx, err
	}
	if len(txs) > 0 {
		tx = txs[0]
	}
	return tx, nil
}

func (d transactionDao) Update(tx *model.SmsTransaction) error {
	return d.db.Save(tx)
}

func (d transactionDao) GetAllByMsisdn(msisdn string) (txs []model.SmsTransaction, err error) {
	err = d.db.Find("Msisdn", msisdn, &txs)
	if err != nil && IsNotFound(err) {
		return nil, nil
	}
	return
}

func (d transactionDao) RemoveOlderThanDays(days int) error {
	err := d.db.Select(q.Lt("CreatedAt", time.Now().Add(-24*time.Duration(days)*time.Hour))).Delete(&model.SmsTransaction{})
	if err != nil && !IsNotFound(err) {
		return err
	}
	return nil
}
