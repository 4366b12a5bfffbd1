package service

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/base64"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/fixtrack/fixtrack-api/internal/models"
	"github.com/fixtrack/fixtrack-api/internal/repository"
	appErrors "github.com/fixtrack/fixtrack-api/pkg/errors"
)

type tokenStore interface {
	FindByValue(ctx context.Context, value string) (*models.CapabilityToken, error)
	FindActive(ctx context.Context, requestID string, action models.TokenAction) (*models.CapabilityToken, error)
	Issue(ctx context.Context, token *models.CapabilityToken) error
	Redeem(ctx context.Context, id string) error
}

// TokenService issues and validates single-use capability tokens. A token
// substitutes for a session for exactly one action on exactly one request.
type TokenService struct {
	repo   tokenStore
	ttl    time.Duration
	logger *zap.Logger
	now    func() time.Time
}

// NewTokenService constructs the service.
func NewTokenService(repo tokenStore, ttl time.Duration, logger *zap.Logger) *TokenService {
	if ttl <= 0 {
		ttl = 14 * 24 * time.Hour
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TokenService{repo: repo, ttl: ttl, logger: logger, now: func() time.Time { return time.Now().UTC() }}
}

// Mint builds a new unpersisted token value for the given request and
// action. The workflow engine persists it inside the transition transaction
// so that issuance is atomic with the status change.
func (s *TokenService) Mint(requestID string, action models.TokenAction) (*models.CapabilityToken, error) {
	value, err := generateTokenValue()
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrUnavailable.Code, appErrors.ErrUnavailable.Status, "failed to mint token")
	}
	now := s.now()
	return &models.CapabilityToken{
		Token:      value,
		RequestID:  requestID,
		ActionKind: action,
		IssuedAt:   now,
		ExpiresAt:  now.Add(s.ttl),
	}, nil
}

// Issue mints and persists a token outside of a workflow transition,
// invalidating any prior unconsumed token for the same (request, action).
func (s *TokenService) Issue(ctx context.Context, requestID string, action models.TokenAction) (*models.CapabilityToken, error) {
	token, err := s.Mint(requestID, action)
	if err != nil {
		return nil, err
	}
	if err := s.repo.Issue(ctx, token); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrUnavailable.Code, appErrors.ErrUnavailable.Status, "failed to issue token")
	}
	return token, nil
}

// Validate resolves a token value and checks it is redeemable for the given
// action kind. Unknown, consumed, expired, and wrong-action tokens all fail
// with the same taxonomy kind so callers cannot probe token state.
func (s *TokenService) Validate(ctx context.Context, value string, action models.TokenAction) (*models.CapabilityToken, error) {
	if value == "" {
		return nil, appErrors.ErrInvalidToken
	}
	token, err := s.repo.FindByValue(ctx, value)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrInvalidToken
		}
		return nil, appErrors.Wrap(err, appErrors.ErrUnavailable.Code, appErrors.ErrUnavailable.Status, "failed to look up token")
	}
	if token.ActionKind != action {
		return nil, appErrors.Clone(appErrors.ErrInvalidToken, "token does not authorize this action")
	}
	if token.Consumed() {
		return nil, appErrors.Clone(appErrors.ErrInvalidToken, "token already used")
	}
	if token.Expired(s.now()) {
		return nil, appErrors.Clone(appErrors.ErrInvalidToken, "token expired")
	}
	return token, nil
}

// Redeem consumes a token outside of a workflow transition.
func (s *TokenService) Redeem(ctx context.Context, id string) error {
	if err := s.repo.Redeem(ctx, id); err != nil {
		if errors.Is(err, repository.ErrTokenSpent) {
			return appErrors.Clone(appErrors.ErrInvalidToken, "token already used")
		}
		return appErrors.Wrap(err, appErrors.ErrUnavailable.Code, appErrors.ErrUnavailable.Status, "failed to redeem token")
	}
	return nil
}

// ActiveToken returns the current unconsumed token for a (request, action),
// or nil when none exists.
func (s *TokenService) ActiveToken(ctx context.Context, requestID string, action models.TokenAction) (*models.CapabilityToken, error) {
	token, err := s.repo.FindActive(ctx, requestID, action)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, appErrors.Wrap(err, appErrors.ErrUnavailable.Code, appErrors.ErrUnavailable.Status, "failed to look up active token")
	}
	return token, nil
}

func generateTokenValue() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("read random: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
