package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fixtrack/fixtrack-api/internal/models"
)

func TestCreateNotification(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewNotificationRepository(db)

	mock.ExpectExec("INSERT INTO notifications").WillReturnResult(sqlmock.NewResult(1, 1))

	notification := &models.Notification{
		RecipientUserID: "owner-1",
		Title:           "Maintenance request needs a contractor",
		Message:         "Request awaits contractor selection",
	}
	err := repo.Create(context.Background(), notification)
	require.NoError(t, err)
	assert.NotEmpty(t, notification.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListByRecipientCapsLimit(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewNotificationRepository(db)

	rows := sqlmock.NewRows([]string{"id", "recipient_user_id", "title", "message", "related_request_id", "is_read", "created_at"}).
		AddRow("n-1", "owner-1", "Title", "Message", nil, false, time.Now())
	mock.ExpectQuery(regexp.QuoteMeta("ORDER BY created_at DESC LIMIT 100")).
		WithArgs("owner-1").
		WillReturnRows(rows)

	notifications, err := repo.ListByRecipient(context.Background(), "owner-1", 5000)
	require.NoError(t, err)
	assert.Len(t, notifications, 1)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMarkReadScopedToRecipient(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewNotificationRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE notifications SET is_read = TRUE WHERE id = $1 AND recipient_user_id = $2")).
		WithArgs("n-1", "intruder").
		WillReturnResult(sqlmock.NewResult(0, 0))

	updated, err := repo.MarkRead(context.Background(), "n-1", "intruder")
	require.NoError(t, err)
	assert.False(t, updated)
	assert.NoError(t, mock.ExpectationsWereMet())
}
