package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/fixtrack/fixtrack-api/internal/dto"
	"github.com/fixtrack/fixtrack-api/internal/models"
	appErrors "github.com/fixtrack/fixtrack-api/pkg/errors"
)

type statusCounter interface {
	CountByStatus(ctx context.Context, filter models.RequestFilter) (map[models.RequestStatus]int, error)
}

// DashboardService serves the per-role status count projection, cached in
// Redis keyed by the actor so one user's scope never leaks into another's.
type DashboardService struct {
	repo     statusCounter
	cache    *CacheService
	cacheTTL time.Duration
	logger   *zap.Logger
}

// NewDashboardService constructs a DashboardService. cache may be nil when
// Redis is disabled; counts then always hit the database.
func NewDashboardService(repo statusCounter, cache *CacheService, cacheTTL time.Duration, logger *zap.Logger) *DashboardService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cacheTTL <= 0 {
		cacheTTL = time.Minute
	}
	return &DashboardService{repo: repo, cache: cache, cacheTTL: cacheTTL, logger: logger}
}

// Summary returns the actor's dashboard counts. The boolean reports whether
// the projection came from cache.
func (s *DashboardService) Summary(ctx context.Context, actor *models.JWTClaims) (*dto.DashboardSummary, bool, error) {
	if actor == nil {
		return nil, false, appErrors.ErrUnauthorized
	}

	key := fmt.Sprintf("dashboard:%s:%s", actor.Role, actor.UserID)
	if s.cache != nil && s.cache.Enabled() {
		var cached dto.DashboardSummary
		if hit, err := s.cache.Get(ctx, key, &cached); err == nil && hit {
			return &cached, true, nil
		}
	}

	filter := models.RequestFilter{}
	switch actor.Role {
	case models.RoleRenter:
		filter.RenterID = actor.UserID
	case models.RoleContractor:
		filter.ContractorID = actor.UserID
	case models.RoleBroker:
		filter.BrokerID = actor.UserID
	case models.RoleOwner:
		filter.OwnerID = actor.UserID
	default:
		return nil, false, appErrors.Clone(appErrors.ErrPermissionDenied, "unknown role")
	}

	counts, err := s.repo.CountByStatus(ctx, filter)
	if err != nil {
		return nil, false, appErrors.Wrap(err, appErrors.ErrUnavailable.Code, appErrors.ErrUnavailable.Status, "failed to aggregate dashboard counts")
	}

	summary := &dto.DashboardSummary{
		Counts:      bucketCounts(counts),
		GeneratedAt: time.Now().UTC(),
	}
	if s.cache != nil && s.cache.Enabled() {
		if err := s.cache.Set(ctx, key, summary, s.cacheTTL); err != nil {
			s.logger.Warn("dashboard cache write failed", zap.Error(err))
		}
	}
	return summary, false, nil
}

// bucketCounts folds per-status counts into the dashboard buckets. The two
// waiting-for-assignment states both read as pending to the user.
func bucketCounts(counts map[models.RequestStatus]int) models.StatusCounts {
	var out models.StatusCounts
	for status, n := range counts {
		out.Total += n
		switch status {
		case models.StatusPending, models.StatusNotifiedOwner, models.StatusContractorSelected:
			out.Pending += n
		case models.StatusScheduled:
			out.Scheduled += n
		case models.StatusInProgress:
			out.InProgress += n
		case models.StatusCompleted:
			out.Completed += n
		}
	}
	return out
}
