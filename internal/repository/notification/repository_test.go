package notification

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/aniladanir/imonnit-sms-connector/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"
)

const testMessageID = "SM0123456789abcdefghijklmnopqrstuv"

func setupMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock, Repository) {
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)

	db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{
		SkipDefaultTransaction: true,
		Logger:                 gormLogger.Default.LogMode(gormLogger.Silent),
	})
	require.NoError(t, err)

	return sqlDB, mock, NewNotificationRepository(db, nil, zap.NewNop())
}

func strPtr(s string) *string { return &s }

func int64Ptr(i int64) *int64 { return &i }

func testEvent(t *testing.T) *domain.Event {
	e, err := domain.ParseEvent(map[string]any{
		"rule":           "Battery below 50%",
		"date":           "2022-4-28",
		"time":           "14:21",
		"deviceID":       "56789",
		"name":           "IOT Gateway - 56789",
		"reading":        "Battery: 10%",
		"acknowledgeURL": "https://x/Ack/1234",
	})
	require.NoError(t, err)

	e.Messages = []*domain.Message{
		{Recipient: "+11234567890", MessageID: strPtr(testMessageID), Status: strPtr("queued")},
		{Recipient: "+11234567891", Status: strPtr("failed"), ErrorCode: int64Ptr(429), ErrorMessage: strPtr("Error sending SMS...")},
	}
	return e
}

func TestAddEventWithMessages_Success(t *testing.T) {
	db, mock, repo := setupMockDB(t)
	defer db.Close()

	event := testEvent(t)

	mock.ExpectBegin()
	mock.ExpectQuery(`INSERT INTO events`).
		WithArgs(event.InsertArgs()...).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(7))
	mock.ExpectQuery(`INSERT INTO messages`).
		WithArgs(int64(7), testMessageID, "+11234567890", "queued", nil, nil, nil, nil).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(70))
	mock.ExpectQuery(`INSERT INTO messages`).
		WithArgs(int64(7), nil, "+11234567891", "failed", nil, nil, int64(429), "Error sending SMS...").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(71))
	mock.ExpectCommit()

	ok := repo.AddEventWithMessages(context.Background(), event)

	require.True(t, ok)
	assert.Equal(t, int64(7), event.ID)
	for _, m := range event.Messages {
		require.NotNil(t, m.EventID)
		assert.Equal(t, int64(7), *m.EventID)
	}
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAddEventWithMessages_NoMessages(t *testing.T) {
	db, mock, repo := setupMockDB(t)
	defer db.Close()

	event := testEvent(t)
	event.Messages = nil

	mock.ExpectBegin()
	mock.ExpectQuery(`INSERT INTO events`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(8))
	mock.ExpectCommit()

	assert.True(t, repo.AddEventWithMessages(context.Background(), event))
	assert.Equal(t, int64(8), event.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAddEventWithMessages_MessageInsertFailsRollsBack(t *testing.T) {
	db, mock, repo := setupMockDB(t)
	defer db.Close()

	event := testEvent(t)

	mock.ExpectBegin()
	mock.ExpectQuery(`INSERT INTO events`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(7))
	mock.ExpectQuery(`INSERT INTO messages`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(70))
	mock.ExpectQuery(`INSERT INTO messages`).
		WillReturnError(errors.New("connection reset"))
	mock.ExpectRollback()

	err := repo.AddEvent(context.Background(), event)

	assert.ErrorIs(t, err, domain.ErrPersistence)
	assert.Zero(t, event.ID)
	for _, m := range event.Messages {
		assert.Nil(t, m.EventID)
	}
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAddEventWithMessages_MissingEventIDRollsBack(t *testing.T) {
	db, mock, repo := setupMockDB(t)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectQuery(`INSERT INTO events`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))
	mock.ExpectRollback()

	assert.False(t, repo.AddEventWithMessages(context.Background(), testEvent(t)))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAddEventWithMessages_EventInsertFails(t *testing.T) {
	db, mock, repo := setupMockDB(t)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectQuery(`INSERT INTO events`).
		WillReturnError(errors.New("duplicate key"))
	mock.ExpectRollback()

	assert.False(t, repo.AddEventWithMessages(context.Background(), testEvent(t)))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func callbackMessage(messageID *string) *domain.Message {
	updated := time.Date(2022, 4, 28, 14, 21, 0, 0, time.UTC)
	return &domain.Message{
		Recipient: "+11234567890",
		MessageID: messageID,
		Status:    strPtr("sent"),
		SentDT:    &updated,
		Updated:   &updated,
	}
}

func TestUpdateMessage_Success(t *testing.T) {
	db, mock, repo := setupMockDB(t)
	defer db.Close()

	msg := callbackMessage(strPtr(testMessageID))

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT id FROM messages WHERE message_id`).
		WithArgs(testMessageID).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(70))
	mock.ExpectExec(`UPDATE messages SET status`).
		WithArgs("sent", *msg.SentDT, nil, nil, nil, *msg.Updated, testMessageID).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	assert.True(t, repo.UpdateMessage(context.Background(), msg))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateMessage_UnknownMessageID(t *testing.T) {
	db, mock, repo := setupMockDB(t)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT id FROM messages WHERE message_id`).
		WithArgs("SM0123456789abcdefghijklm-nonexist").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))
	mock.ExpectRollback()

	err := repo.ApplyCallback(context.Background(), callbackMessage(strPtr("SM0123456789abcdefghijklm-nonexist")))

	assert.ErrorIs(t, err, domain.ErrCorrelationNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateMessage_NilMessageIDTouchesNothing(t *testing.T) {
	db, mock, repo := setupMockDB(t)
	defer db.Close()

	assert.False(t, repo.UpdateMessage(context.Background(), callbackMessage(nil)))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateMessage_ExecFailsRollsBack(t *testing.T) {
	db, mock, repo := setupMockDB(t)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT id FROM messages WHERE message_id`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(70))
	mock.ExpectExec(`UPDATE messages SET status`).
		WillReturnError(errors.New("lock timeout"))
	mock.ExpectRollback()

	err := repo.ApplyCallback(context.Background(), callbackMessage(strPtr(testMessageID)))

	assert.ErrorIs(t, err, domain.ErrPersistence)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestResolveMessage(t *testing.T) {
	db, mock, _ := setupMockDB(t)
	defer db.Close()

	gdb, err := gorm.Open(postgres.New(postgres.Config{Conn: db}), &gorm.Config{Logger: gormLogger.Default.LogMode(gormLogger.Silent)})
	require.NoError(t, err)

	mock.ExpectQuery(`SELECT id FROM messages WHERE message_id`).
		WithArgs(testMessageID).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(70))

	id, found, err := ResolveMessage(gdb, testMessageID)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, int64(70), id)

	mock.ExpectQuery(`SELECT id FROM messages WHERE message_id`).
		WillReturnError(errors.New("bad connection"))

	_, found, err = ResolveMessage(gdb, testMessageID)
	assert.Error(t, err)
	assert.False(t, found)
	assert.NoError(t, mock.ExpectationsWereMet())
}
