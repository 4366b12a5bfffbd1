package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/fixtrack/fixtrack-api/internal/models"
)

// Sentinel errors surfaced by guarded updates. The service layer maps them
// onto the user-facing taxonomy.
var (
	// ErrStatusConflict reports that the status precondition of a transition
	// no longer held when the update ran. This is how concurrent
	// double-submission resolves to exactly one winner.
	ErrStatusConflict = errors.New("request status precondition failed")
	// ErrTokenSpent reports that a capability token was already consumed.
	ErrTokenSpent = errors.New("capability token already consumed")
)

// MaintenanceRepository persists maintenance requests, their schedules, the
// workflow audit trail, and the token mutations that must commit atomically
// with a transition.
type MaintenanceRepository struct {
	db *sqlx.DB
}

// NewMaintenanceRepository constructs the repository.
func NewMaintenanceRepository(db *sqlx.DB) *MaintenanceRepository {
	return &MaintenanceRepository{db: db}
}

const requestColumns = `id, property_id, renter_id, title, description, category, priority, status, contractor_id, available_times, created_at, updated_at`

// Create inserts a new request together with its first workflow log entry.
func (r *MaintenanceRepository) Create(ctx context.Context, request *models.MaintenanceRequest, logDetails string) error {
	if request.ID == "" {
		request.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if request.CreatedAt.IsZero() {
		request.CreatedAt = now
	}
	request.UpdatedAt = request.CreatedAt
	if request.Status == "" {
		request.Status = models.StatusPending
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin create request: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	const insertRequest = `INSERT INTO maintenance_requests
	(id, property_id, renter_id, title, description, category, priority, status, contractor_id, available_times, created_at, updated_at)
	VALUES (:id, :property_id, :renter_id, :title, :description, :category, :priority, :status, :contractor_id, :available_times, :created_at, :updated_at)`
	if _, err := tx.NamedExecContext(ctx, insertRequest, request); err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	if err := insertWorkflowLog(ctx, tx, request.ID, "create", logDetails, now); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit create request: %w", err)
	}
	return nil
}

// GetByID returns a request with its schedule and workflow history.
func (r *MaintenanceRepository) GetByID(ctx context.Context, id string) (*models.MaintenanceRequest, error) {
	query := fmt.Sprintf(`SELECT %s FROM maintenance_requests WHERE id = $1`, requestColumns)
	var request models.MaintenanceRequest
	if err := r.db.GetContext(ctx, &request, query, id); err != nil {
		return nil, err
	}

	var schedule models.Schedule
	err := r.db.GetContext(ctx, &schedule,
		`SELECT id, request_id, scheduled_date, notes, created_at FROM schedules WHERE request_id = $1`, id)
	switch {
	case err == nil:
		request.Schedule = &schedule
	case errors.Is(err, sql.ErrNoRows):
		// no appointment yet
	default:
		return nil, fmt.Errorf("load schedule: %w", err)
	}

	if err := r.db.SelectContext(ctx, &request.WorkflowLogs,
		`SELECT id, request_id, step, details, created_at FROM workflow_logs WHERE request_id = $1 ORDER BY created_at ASC`, id); err != nil {
		return nil, fmt.Errorf("load workflow logs: %w", err)
	}
	return &request, nil
}

// List returns requests matching the role-derived filter, newest first.
func (r *MaintenanceRepository) List(ctx context.Context, filter models.RequestFilter) ([]models.MaintenanceRequest, int, error) {
	base := "FROM maintenance_requests mr"
	conditions := []string{"1=1"}
	args := []interface{}{}

	if filter.RenterID != "" {
		args = append(args, filter.RenterID)
		conditions = append(conditions, fmt.Sprintf("mr.renter_id = $%d", len(args)))
	}
	if filter.ContractorID != "" {
		args = append(args, filter.ContractorID)
		conditions = append(conditions, fmt.Sprintf("mr.contractor_id = $%d", len(args)))
	}
	if filter.BrokerID != "" {
		args = append(args, filter.BrokerID)
		conditions = append(conditions, fmt.Sprintf("mr.property_id IN (SELECT id FROM properties WHERE broker_id = $%d)", len(args)))
	}
	if filter.OwnerID != "" {
		args = append(args, filter.OwnerID)
		conditions = append(conditions, fmt.Sprintf("mr.property_id IN (SELECT id FROM properties WHERE owner_id = $%d)", len(args)))
	}
	if filter.Status != "" {
		args = append(args, filter.Status)
		conditions = append(conditions, fmt.Sprintf("mr.status = $%d", len(args)))
	}
	whereClause := strings.Join(conditions, " AND ")

	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 50
	}
	offset := (page - 1) * size

	query := fmt.Sprintf(`SELECT mr.id, mr.property_id, mr.renter_id, mr.title, mr.description, mr.category, mr.priority, mr.status, mr.contractor_id, mr.available_times, mr.created_at, mr.updated_at
%s WHERE %s
ORDER BY mr.created_at DESC
LIMIT %d OFFSET %d`, base, whereClause, size, offset)
	var requests []models.MaintenanceRequest
	if err := r.db.SelectContext(ctx, &requests, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list requests: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s WHERE %s", base, whereClause)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count requests: %w", err)
	}
	return requests, total, nil
}

// CountByStatus aggregates request counts per status for the caller's scope.
func (r *MaintenanceRepository) CountByStatus(ctx context.Context, filter models.RequestFilter) (map[models.RequestStatus]int, error) {
	conditions := []string{"1=1"}
	args := []interface{}{}
	if filter.RenterID != "" {
		args = append(args, filter.RenterID)
		conditions = append(conditions, fmt.Sprintf("renter_id = $%d", len(args)))
	}
	if filter.ContractorID != "" {
		args = append(args, filter.ContractorID)
		conditions = append(conditions, fmt.Sprintf("contractor_id = $%d", len(args)))
	}
	if filter.BrokerID != "" {
		args = append(args, filter.BrokerID)
		conditions = append(conditions, fmt.Sprintf("property_id IN (SELECT id FROM properties WHERE broker_id = $%d)", len(args)))
	}
	if filter.OwnerID != "" {
		args = append(args, filter.OwnerID)
		conditions = append(conditions, fmt.Sprintf("property_id IN (SELECT id FROM properties WHERE owner_id = $%d)", len(args)))
	}
	query := fmt.Sprintf(`SELECT status, COUNT(*) AS count FROM maintenance_requests WHERE %s GROUP BY status`,
		strings.Join(conditions, " AND "))

	rows := []struct {
		Status models.RequestStatus `db:"status"`
		Count  int                  `db:"count"`
	}{}
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("count by status: %w", err)
	}
	counts := make(map[models.RequestStatus]int, len(rows))
	for _, row := range rows {
		counts[row.Status] = row.Count
	}
	return counts, nil
}

// TransitionParams describes one atomic workflow transition. Everything in
// here either commits together or not at all.
type TransitionParams struct {
	RequestID string
	From      models.RequestStatus
	To        models.RequestStatus

	// SetContractorID assigns the contractor as part of the transition.
	SetContractorID *string
	// Schedule, when non-nil, is inserted alongside the status change.
	Schedule *models.Schedule
	// LogStep and LogDetails describe the single workflow log entry appended.
	LogStep    string
	LogDetails string
	// ConsumeTokenID redeems the capability token guarding this transition.
	ConsumeTokenID string
	// IssueToken persists a freshly minted token, invalidating any prior
	// unconsumed token for the same (request, action_kind).
	IssueToken *models.CapabilityToken
}

// ExecuteTransition applies a status transition under the optimistic guard
// `WHERE status = from`. When the guard misses, ErrStatusConflict is returned
// and nothing is written: this serializes concurrent transitions on the same
// request without any engine-side locking.
func (r *MaintenanceRepository) ExecuteTransition(ctx context.Context, p TransitionParams) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transition: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	now := time.Now().UTC()

	args := []interface{}{p.To, now, p.RequestID, p.From}
	set := "status = $1, updated_at = $2"
	if p.SetContractorID != nil {
		args = append(args, *p.SetContractorID)
		set += fmt.Sprintf(", contractor_id = $%d", len(args))
	}
	query := fmt.Sprintf(`UPDATE maintenance_requests SET %s WHERE id = $3 AND status = $4`, set)
	res, err := tx.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("transition %s -> %s: %w", p.From, p.To, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("transition rows affected: %w", err)
	}
	if affected == 0 {
		return ErrStatusConflict
	}

	if p.Schedule != nil {
		if p.Schedule.ID == "" {
			p.Schedule.ID = uuid.NewString()
		}
		if p.Schedule.CreatedAt.IsZero() {
			p.Schedule.CreatedAt = now
		}
		const insertSchedule = `INSERT INTO schedules (id, request_id, scheduled_date, notes, created_at)
		VALUES (:id, :request_id, :scheduled_date, :notes, :created_at)`
		if _, err := tx.NamedExecContext(ctx, insertSchedule, p.Schedule); err != nil {
			return fmt.Errorf("create schedule: %w", err)
		}
	}

	if p.ConsumeTokenID != "" {
		res, err := tx.ExecContext(ctx,
			`UPDATE capability_tokens SET consumed_at = $1 WHERE id = $2 AND consumed_at IS NULL`, now, p.ConsumeTokenID)
		if err != nil {
			return fmt.Errorf("consume token: %w", err)
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("consume token rows affected: %w", err)
		}
		if affected == 0 {
			return ErrTokenSpent
		}
	}

	if p.IssueToken != nil {
		if err := insertToken(ctx, tx, p.IssueToken, now); err != nil {
			return err
		}
	}

	if err := insertWorkflowLog(ctx, tx, p.RequestID, p.LogStep, p.LogDetails, now); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transition: %w", err)
	}
	return nil
}

func insertWorkflowLog(ctx context.Context, tx *sqlx.Tx, requestID, step, details string, now time.Time) error {
	const query = `INSERT INTO workflow_logs (id, request_id, step, details, created_at) VALUES ($1, $2, $3, $4, $5)`
	if _, err := tx.ExecContext(ctx, query, uuid.NewString(), requestID, step, details, now); err != nil {
		return fmt.Errorf("append workflow log: %w", err)
	}
	return nil
}

func insertToken(ctx context.Context, tx *sqlx.Tx, token *models.CapabilityToken, now time.Time) error {
	// Last writer wins: any prior unconsumed token for the same action is
	// invalidated before the new one lands.
	if _, err := tx.ExecContext(ctx,
		`UPDATE capability_tokens SET consumed_at = $1 WHERE request_id = $2 AND action_kind = $3 AND consumed_at IS NULL`,
		now, token.RequestID, token.ActionKind); err != nil {
		return fmt.Errorf("invalidate stale tokens: %w", err)
	}
	if token.ID == "" {
		token.ID = uuid.NewString()
	}
	if token.IssuedAt.IsZero() {
		token.IssuedAt = now
	}
	const query = `INSERT INTO capability_tokens (id, token, request_id, action_kind, issued_at, expires_at, consumed_at)
	VALUES (:id, :token, :request_id, :action_kind, :issued_at, :expires_at, :consumed_at)`
	if _, err := tx.NamedExecContext(ctx, query, token); err != nil {
		return fmt.Errorf("issue token: %w", err)
	}
	return nil
}
