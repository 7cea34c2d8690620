package dao

import (
	"testing"
	"time"

	"github.com/robel-d/subgate/model"
	"github.com/stretchr/testify/require"
)

const (
	SHORT_CODE = "9295"
	SMSC_ID    = "1203837180"
	SMS_TEXT   = "Welcome! Your login PIN is 123456."
)

func TestTransactionDao_Create(t *testing.T) {
	db, cleanup := createDB(t)
	defer cleanup()
	txDao := NewTransactionDao(db)

	id, err := txDao.Create(model.MO, MSISDN, SHORT_CODE, "OK", model.RECEIVED, "")

	require.NoError(t, err)
	require.True(t, id > 0)

	tx, err := txDao.GetOneById(id)
	require.NoError(t, err)
	require.Equal(t, model.MO, tx.Direction)
	require.Equal(t, model.RECEIVED, tx.Status)
}

func TestTransactionDao_UpdateSubmitOutcome(t *testing.T) {
	db, cleanup := createDB(t)
	defer cleanup()
	txDao := NewTransactionDao(db)

	id, err := txDao.Create(model.MT, MSISDN, SHORT_CODE, SMS_TEXT, model.UNKNOWN, "")
	require.NoError(t, err)

	err = txDao.UpdateSubmitOutcome(id, SMSC_ID, model.SENT, "")

	require.NoError(t, err)

	tx, err := txDao.GetOneById(id)
	require.NoError(t, err)
	require.Equal(t, model.SENT, tx.Status)
	require.Equal(t, SMSC_ID, tx.MessageId)
}

func TestTransactionDao_UpdateSubmitOutcomeFailure(t *testing.T) {
	db, cleanup := createDB(t)
	defer cleanup()
	txDao := NewTransactionDao(db)

	id, err := txDao.Create(model.MT, MSISDN, SHORT_CODE, SMS_TEXT, model.UNKNOWN, "")
	require.NoError(t, err)

	err = txDao.UpdateSubmitOutcome(id, "", model.FAILED, "NOT_BOUND")

	require.NoError(t, err)

	tx, err := txDao.GetOneById(id)
	require.NoError(t, err)
	require.Equal(t, model.FAILED, tx.Status)
	require.Equal(t, "NOT_BOUND", tx.ErrorCode)
}

func TestTransactionDao_GetLatestMtByMessageId(t *testing.T) {
	db, cleanup := createDB(t)
	defer cleanup()
	txDao := NewTransactionDao(db)

	oldId, err := txDao.Create(model.MT, MSISDN, SHORT_CODE, "old", model.UNKNOWN, "")
	require.NoError(t, err)
	require.NoError(t, txDao.UpdateSubmitOutcome(oldId, SMSC_ID, model.SENT, ""))

	newId, err := txDao.Create(model.MT, MSISDN, SHORT_CODE, "new", model.UNKNOWN, "")
	require.NoError(t, err)
	require.NoError(t, txDao.UpdateSubmitOutcome(newId, SMSC_ID, model.SENT, ""))

	tx, err := txDao.GetLatestMtByMessageId(SMSC_ID)

	require.NoError(t, err)
	require.Equal(t, newId, tx.Id)
	require.Equal(t, "new", tx.Text)
}

func TestTransactionDao_GetLatestMtByMessageIdNotFound(t *testing.T) {
	db, cleanup := createDB(t)
	defer cleanup()
	txDao := NewTransactionDao(db)

	_, err := txDao.GetLatestMtByMessageId("555")

	require.True(t, IsNotFound(err))
}

func TestTransactionDao_CreateDlr(t *testing.T) {
	db, cleanup := createDB(t)
	defer cleanup()
	txDao := NewTransactionDao(db)

	id, err := txDao.CreateDlr(SMSC_ID, MSISDN, "id:1203837180 stat:DELIVRD err:000")

	require.NoError(t, err)

	tx, err := txDao.GetOneById(id)
	require.NoError(t, err)
	require.Equal(t, model.DLR, tx.Direction)
	require.Equal(t, SMSC_ID, tx.RelatedMessageId)
}

func TestTransactionDao_GetAllByMsisdn(t *testing.T) {
	db, cleanup := createDB(t)
	defer cleanup()
	txDao := NewTransactionDao(db)

	_, err := txDao.Create(model.MO, MSISDN, SHORT_CODE, "OK", model.RECEIVED, "")
	require.NoError(t, err)
	_, err = txDao.Create(model.MT, MSISDN, SHORT_CODE, SMS_TEXT, model.UNKNOWN, "")
	require.NoError(t, err)
	_, err = txDao.Create(model.MO, MSISDN2, SHORT_CODE, "STOP", model.RECEIVED, "")
	require.NoError(t, err)

	txs, err := txDao.GetAllByMsisdn(MSISDN)

	require.NoError(t, err)
	require.Equal(t, 2, len(txs))
}

func TestTransactionDao_RemoveOlderThanDays(t *testing.T) {
	db, cleanup := createDB(t)
	defer cleanup()
	txDao := NewTransactionDao(db)

	oldId, err := txDao.Create(model.MO, MSISDN, SHORT_CODE, "OK", model.RECEIVED, "")
	require.NoError(t, err)
	oldTx, err := txDao.GetOneById(oldId)
	require.NoError(t, err)
	oldTx.CreatedAt = time.Now().Add(-25 * time.Hour)
	require.NoError(t, txDao.Update(&oldTx))

	_, err = txDao.Create(model.MO, MSISDN, SHORT_CODE, "STOP", model.RECEIVED, "")
	require.NoError(t, err)

	err = txDao.RemoveOlderThanDays(1)

	require.NoError(t, err)

	txs, err := txDao.GetAllByMsisdn(MSISDN)
	require.NoError(t, err)
	require.Equal(t, 1, len(txs))
}
