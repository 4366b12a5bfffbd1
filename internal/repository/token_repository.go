package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/fixtrack/fixtrack-api/internal/models"
)

// TokenRepository persists capability tokens outside of workflow
// transactions. Issuance and consumption that must be atomic with a
// transition go through MaintenanceRepository.ExecuteTransition instead.
type TokenRepository struct {
	db *sqlx.DB
}

// NewTokenRepository constructs the repository.
func NewTokenRepository(db *sqlx.DB) *TokenRepository {
	return &TokenRepository{db: db}
}

const tokenColumns = `id, token, request_id, action_kind, issued_at, expires_at, consumed_at`

// FindByValue looks up a token by its opaque value.
func (r *TokenRepository) FindByValue(ctx context.Context, value string) (*models.CapabilityToken, error) {
	query := fmt.Sprintf(`SELECT %s FROM capability_tokens WHERE token = $1`, tokenColumns)
	var token models.CapabilityToken
	if err := r.db.GetContext(ctx, &token, query, value); err != nil {
		return nil, err
	}
	return &token, nil
}

// FindActive returns the current unconsumed token for a (request, action)
// pair, if any.
func (r *TokenRepository) FindActive(ctx context.Context, requestID string, action models.TokenAction) (*models.CapabilityToken, error) {
	query := fmt.Sprintf(`SELECT %s FROM capability_tokens
WHERE request_id = $1 AND action_kind = $2 AND consumed_at IS NULL
ORDER BY issued_at DESC LIMIT 1`, tokenColumns)
	var token models.CapabilityToken
	if err := r.db.GetContext(ctx, &token, query, requestID, action); err != nil {
		return nil, err
	}
	return &token, nil
}

// Issue persists a new token, invalidating any prior unconsumed token for
// the same (request, action_kind) in the same transaction.
func (r *TokenRepository) Issue(ctx context.Context, token *models.CapabilityToken) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin issue token: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if err := insertToken(ctx, tx, token, time.Now().UTC()); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit issue token: %w", err)
	}
	return nil
}

// Redeem marks a token consumed. ErrTokenSpent is returned when the token
// was already redeemed, so a double redemption never succeeds twice.
func (r *TokenRepository) Redeem(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE capability_tokens SET consumed_at = $1 WHERE id = $2 AND consumed_at IS NULL`,
		time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("redeem token: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("redeem token rows affected: %w", err)
	}
	if affected == 0 {
		return ErrTokenSpent
	}
	return nil
}
