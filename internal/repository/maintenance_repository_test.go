package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fixtrack/fixtrack-api/internal/models"
)

func newMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	sqlxdb := sqlx.NewDb(db, "sqlmock")
	return sqlxdb, mock, func() {
		db.Close()
	}
}

func requestRows(id string) *sqlmock.Rows {
	now := time.Now()
	return sqlmock.NewRows([]string{"id", "property_id", "renter_id", "title", "description", "category", "priority", "status", "contractor_id", "available_times", "created_at", "updated_at"}).
		AddRow(id, "prop-1", "renter-1", "Leaky faucet", "Kitchen sink drips", "plumbing", "medium", string(models.StatusPending), nil, []byte(`[]`), now, now)
}

func TestCreateRequest(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewMaintenanceRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO maintenance_requests").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("INSERT INTO workflow_logs").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	request := &models.MaintenanceRequest{
		PropertyID:  "prop-1",
		RenterID:    "renter-1",
		Title:       "Leaky faucet",
		Description: "Kitchen sink drips",
		Category:    models.CategoryPlumbing,
		Priority:    models.PriorityMedium,
	}
	err := repo.Create(context.Background(), request, "Request created by renter")
	require.NoError(t, err)
	assert.NotEmpty(t, request.ID)
	assert.Equal(t, models.StatusPending, request.Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetByIDWithoutSchedule(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewMaintenanceRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, property_id, renter_id, title, description, category, priority, status, contractor_id, available_times, created_at, updated_at FROM maintenance_requests WHERE id = $1")).
		WithArgs("req-1").
		WillReturnRows(requestRows("req-1"))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, request_id, scheduled_date, notes, created_at FROM schedules WHERE request_id = $1")).
		WithArgs("req-1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "request_id", "scheduled_date", "notes", "created_at"}))
	logRows := sqlmock.NewRows([]string{"id", "request_id", "step", "details", "created_at"}).
		AddRow("log-1", "req-1", "create", "Request created by renter", time.Now())
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, request_id, step, details, created_at FROM workflow_logs WHERE request_id = $1 ORDER BY created_at ASC")).
		WithArgs("req-1").
		WillReturnRows(logRows)

	request, err := repo.GetByID(context.Background(), "req-1")
	require.NoError(t, err)
	assert.Nil(t, request.Schedule)
	assert.Len(t, request.WorkflowLogs, 1)
	assert.Equal(t, "create", request.WorkflowLogs[0].Step)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListBrokerScope(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewMaintenanceRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("mr.property_id IN (SELECT id FROM properties WHERE broker_id = $1)")).
		WithArgs("broker-1").
		WillReturnRows(requestRows("req-1"))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM maintenance_requests mr WHERE 1=1 AND mr.property_id IN (SELECT id FROM properties WHERE broker_id = $1)")).
		WithArgs("broker-1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	requests, total, err := repo.List(context.Background(), models.RequestFilter{BrokerID: "broker-1"})
	require.NoError(t, err)
	assert.Len(t, requests, 1)
	assert.Equal(t, 1, total)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCountByStatus(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewMaintenanceRepository(db)

	rows := sqlmock.NewRows([]string{"status", "count"}).
		AddRow(string(models.StatusPending), 2).
		AddRow(string(models.StatusCompleted), 5)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT status, COUNT(*) AS count FROM maintenance_requests WHERE 1=1 AND renter_id = $1 GROUP BY status")).
		WithArgs("renter-1").
		WillReturnRows(rows)

	counts, err := repo.CountByStatus(context.Background(), models.RequestFilter{RenterID: "renter-1"})
	require.NoError(t, err)
	assert.Equal(t, 2, counts[models.StatusPending])
	assert.Equal(t, 5, counts[models.StatusCompleted])
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestExecuteTransitionGuardMiss(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewMaintenanceRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("UPDATE maintenance_requests SET status = $1, updated_at = $2 WHERE id = $3 AND status = $4")).
		WithArgs(string(models.StatusNotifiedOwner), sqlmock.AnyArg(), "req-1", string(models.StatusPending)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	err := repo.ExecuteTransition(context.Background(), TransitionParams{
		RequestID: "req-1",
		From:      models.StatusPending,
		To:        models.StatusNotifiedOwner,
		LogStep:   "notify_owner",
	})
	assert.ErrorIs(t, err, ErrStatusConflict)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestExecuteTransitionTokenSpent(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewMaintenanceRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("UPDATE maintenance_requests SET status = $1, updated_at = $2, contractor_id = $5 WHERE id = $3 AND status = $4")).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE capability_tokens SET consumed_at = $1 WHERE id = $2 AND consumed_at IS NULL")).
		WithArgs(sqlmock.AnyArg(), "tok-1").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	contractorID := "contractor-1"
	err := repo.ExecuteTransition(context.Background(), TransitionParams{
		RequestID:       "req-1",
		From:            models.StatusNotifiedOwner,
		To:              models.StatusContractorSelected,
		SetContractorID: &contractorID,
		LogStep:         "select_contractor",
		ConsumeTokenID:  "tok-1",
	})
	assert.ErrorIs(t, err, ErrTokenSpent)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestExecuteTransitionFull(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewMaintenanceRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("UPDATE maintenance_requests SET status = $1, updated_at = $2, contractor_id = $5 WHERE id = $3 AND status = $4")).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE capability_tokens SET consumed_at = $1 WHERE id = $2 AND consumed_at IS NULL")).
		WillReturnResult(sqlmock.NewResult(0, 1))
	// issuing invalidates any stale token for the same action first
	mock.ExpectExec(regexp.QuoteMeta("UPDATE capability_tokens SET consumed_at = $1 WHERE request_id = $2 AND action_kind = $3 AND consumed_at IS NULL")).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("INSERT INTO capability_tokens").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("INSERT INTO workflow_logs").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	contractorID := "contractor-1"
	issue := &models.CapabilityToken{
		Token:      "opaque-value",
		RequestID:  "req-1",
		ActionKind: models.ActionScheduleAppointment,
		ExpiresAt:  time.Now().Add(14 * 24 * time.Hour),
	}
	err := repo.ExecuteTransition(context.Background(), TransitionParams{
		RequestID:       "req-1",
		From:            models.StatusNotifiedOwner,
		To:              models.StatusContractorSelected,
		SetContractorID: &contractorID,
		LogStep:         "select_contractor",
		LogDetails:      "Contractor selected",
		ConsumeTokenID:  "tok-1",
		IssueToken:      issue,
	})
	require.NoError(t, err)
	assert.NotEmpty(t, issue.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestExecuteTransitionWithSchedule(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewMaintenanceRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("UPDATE maintenance_requests SET status = $1, updated_at = $2 WHERE id = $3 AND status = $4")).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO schedules").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("INSERT INTO workflow_logs").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	schedule := &models.Schedule{
		RequestID:     "req-1",
		ScheduledDate: time.Now().Add(48 * time.Hour),
		Notes:         "Morning visit",
	}
	err := repo.ExecuteTransition(context.Background(), TransitionParams{
		RequestID: "req-1",
		From:      models.StatusContractorSelected,
		To:        models.StatusScheduled,
		Schedule:  schedule,
		LogStep:   "schedule_appointment",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, schedule.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}
