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

func TestFindByValue(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewTokenRepository(db)

	now := time.Now()
	rows := sqlmock.NewRows([]string{"id", "token", "request_id", "action_kind", "issued_at", "expires_at", "consumed_at"}).
		AddRow("tok-1", "opaque-value", "req-1", string(models.ActionSelectContractor), now, now.Add(336*time.Hour), nil)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, token, request_id, action_kind, issued_at, expires_at, consumed_at FROM capability_tokens WHERE token = $1")).
		WithArgs("opaque-value").
		WillReturnRows(rows)

	token, err := repo.FindByValue(context.Background(), "opaque-value")
	require.NoError(t, err)
	assert.Equal(t, "req-1", token.RequestID)
	assert.False(t, token.Consumed())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestIssueInvalidatesPriorToken(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewTokenRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("UPDATE capability_tokens SET consumed_at = $1 WHERE request_id = $2 AND action_kind = $3 AND consumed_at IS NULL")).
		WithArgs(sqlmock.AnyArg(), "req-1", string(models.ActionSelectContractor)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO capability_tokens").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	token := &models.CapabilityToken{
		Token:      "fresh-value",
		RequestID:  "req-1",
		ActionKind: models.ActionSelectContractor,
		ExpiresAt:  time.Now().Add(336 * time.Hour),
	}
	err := repo.Issue(context.Background(), token)
	require.NoError(t, err)
	assert.NotEmpty(t, token.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRedeemTwiceFails(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewTokenRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE capability_tokens SET consumed_at = $1 WHERE id = $2 AND consumed_at IS NULL")).
		WithArgs(sqlmock.AnyArg(), "tok-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE capability_tokens SET consumed_at = $1 WHERE id = $2 AND consumed_at IS NULL")).
		WithArgs(sqlmock.AnyArg(), "tok-1").
		WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, repo.Redeem(context.Background(), "tok-1"))
	assert.ErrorIs(t, repo.Redeem(context.Background(), "tok-1"), ErrTokenSpent)
	assert.NoError(t, mock.ExpectationsWereMet())
}
