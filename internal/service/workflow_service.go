package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/fixtrack/fixtrack-api/internal/dto"
	"github.com/fixtrack/fixtrack-api/internal/models"
	"github.com/fixtrack/fixtrack-api/internal/repository"
	appErrors "github.com/fixtrack/fixtrack-api/pkg/errors"
)

type workflowStore interface {
	Create(ctx context.Context, request *models.MaintenanceRequest, logDetails string) error
	GetByID(ctx context.Context, id string) (*models.MaintenanceRequest, error)
	ExecuteTransition(ctx context.Context, params repository.TransitionParams) error
}

type workflowDirectory interface {
	PropertyActors(ctx context.Context, propertyID string) (*models.PropertyActors, error)
	FindContractor(ctx context.Context, userID string) (*models.ContractorProfile, error)
}

type workflowNotifier interface {
	Notify(ctx context.Context, recipients []string, title, message, relatedRequestID string)
}

type workflowTokens interface {
	Mint(requestID string, action models.TokenAction) (*models.CapabilityToken, error)
	Validate(ctx context.Context, value string, action models.TokenAction) (*models.CapabilityToken, error)
}

// WorkflowService owns the maintenance request state machine. Every command
// validates the actor, applies the transition under the status guard, appends
// exactly one workflow log entry, and only then fires notification side
// effects. A failed precondition mutates nothing.
type WorkflowService struct {
	repo      workflowStore
	directory workflowDirectory
	notifier  workflowNotifier
	tokens    workflowTokens
	cache     *CacheService
	metrics   *MetricsService
	validator *validator.Validate
	logger    *zap.Logger
	publicURL string
}

// WorkflowServiceParams groups constructor dependencies.
type WorkflowServiceParams struct {
	Repo      workflowStore
	Directory workflowDirectory
	Notifier  workflowNotifier
	Tokens    workflowTokens
	Cache     *CacheService
	Metrics   *MetricsService
	Validator *validator.Validate
	Logger    *zap.Logger
	PublicURL string
}

// NewWorkflowService constructs the engine.
func NewWorkflowService(params WorkflowServiceParams) *WorkflowService {
	if params.Validator == nil {
		params.Validator = validator.New()
	}
	if params.Logger == nil {
		params.Logger = zap.NewNop()
	}
	return &WorkflowService{
		repo:      params.Repo,
		directory: params.Directory,
		notifier:  params.Notifier,
		tokens:    params.Tokens,
		cache:     params.Cache,
		metrics:   params.Metrics,
		validator: params.Validator,
		logger:    params.Logger,
		publicURL: params.PublicURL,
	}
}

// Action names shared by the engine and any presentation layer.
const (
	ActionCreate       = "create"
	ActionNotifyOwner  = "notify_owner"
	ActionSelect       = "select_contractor"
	ActionSchedule     = "schedule_appointment"
	ActionStartWork    = "start_work"
	ActionCompleteWork = "complete_work"
)

// AllowedActions is the single source of truth for which command each role
// may issue in a given status. isAssignedContractor matters only for the
// contractor role.
func AllowedActions(role models.UserRole, status models.RequestStatus, isAssignedContractor bool) []string {
	switch role {
	case models.RoleRenter:
		// Renters only create; everything after that is read-only for them.
		return nil
	case models.RoleBroker:
		if status == models.StatusPending {
			return []string{ActionNotifyOwner}
		}
	case models.RoleOwner:
		if status == models.StatusNotifiedOwner {
			return []string{ActionSelect}
		}
	case models.RoleContractor:
		if !isAssignedContractor {
			return nil
		}
		switch status {
		case models.StatusContractorSelected:
			return []string{ActionSchedule}
		case models.StatusScheduled:
			return []string{ActionStartWork}
		case models.StatusInProgress:
			return []string{ActionCompleteWork}
		}
	}
	return nil
}

// CreateRequest starts a new workflow in pending and notifies the broker.
func (s *WorkflowService) CreateRequest(ctx context.Context, actor *models.JWTClaims, input dto.CreateRequestInput) (*models.MaintenanceRequest, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}
	if actor.Role != models.RoleRenter {
		return nil, appErrors.Clone(appErrors.ErrPermissionDenied, "only renters create maintenance requests")
	}
	if err := s.validator.Struct(input); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid request payload")
	}
	if !models.ValidCategory(input.Category) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "unknown category")
	}
	if !models.ValidPriority(input.Priority) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "unknown priority")
	}

	slots, err := NormalizeSlots(input.AvailableTimes)
	if err != nil {
		return nil, err
	}
	if len(slots) == 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "at least one availability slot is required")
	}

	actors, err := s.propertyActors(ctx, input.PropertyID)
	if err != nil {
		return nil, err
	}
	if actors.RenterID == nil || *actors.RenterID != actor.UserID {
		return nil, appErrors.Clone(appErrors.ErrPermissionDenied, "you are not the renter of this property")
	}

	request := &models.MaintenanceRequest{
		PropertyID:     input.PropertyID,
		RenterID:       actor.UserID,
		Title:          input.Title,
		Description:    input.Description,
		Category:       input.Category,
		Priority:       input.Priority,
		Status:         models.StatusPending,
		AvailableTimes: slots,
	}
	details := fmt.Sprintf("Request created by renter (%s priority %s)", input.Category, input.Priority)
	if err := s.repo.Create(ctx, request, details); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrUnavailable.Code, appErrors.ErrUnavailable.Status, "failed to create request")
	}

	s.afterTransition(ctx, ActionCreate)
	s.notifier.Notify(ctx, []string{actors.BrokerID},
		"New maintenance request",
		fmt.Sprintf("A new %s request %q was submitted for %s.", request.Category, request.Title, actors.Address),
		request.ID)
	return request, nil
}

// NotifyOwner advances pending to notified_owner, minting the owner's
// select_contractor token as part of the same transaction.
func (s *WorkflowService) NotifyOwner(ctx context.Context, actor *models.JWTClaims, requestID string) (*models.MaintenanceRequest, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}
	if actor.Role != models.RoleBroker {
		return nil, appErrors.Clone(appErrors.ErrPermissionDenied, "only brokers notify owners")
	}
	request, actors, err := s.loadRequest(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if actors.BrokerID != actor.UserID {
		return nil, appErrors.Clone(appErrors.ErrPermissionDenied, "you do not manage this property")
	}

	token, err := s.tokens.Mint(request.ID, models.ActionSelectContractor)
	if err != nil {
		return nil, err
	}
	err = s.repo.ExecuteTransition(ctx, repository.TransitionParams{
		RequestID:  request.ID,
		From:       models.StatusPending,
		To:         models.StatusNotifiedOwner,
		LogStep:    ActionNotifyOwner,
		LogDetails: "Broker notified the owner",
		IssueToken: token,
	})
	if err != nil {
		return nil, s.mapTransitionError(err, request.Status, models.StatusPending)
	}

	s.afterTransition(ctx, ActionNotifyOwner)
	s.notifier.Notify(ctx, []string{actors.OwnerID},
		"Maintenance request needs a contractor",
		fmt.Sprintf("Request %q for %s awaits contractor selection: %s", request.Title, actors.Address, s.actionLink("select-contractor", token.Token)),
		request.ID)
	return s.reload(ctx, request.ID)
}

// SelectContractor is the authenticated owner variant.
func (s *WorkflowService) SelectContractor(ctx context.Context, actor *models.JWTClaims, requestID string, input dto.SelectContractorInput) (*models.MaintenanceRequest, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}
	if actor.Role != models.RoleOwner {
		return nil, appErrors.Clone(appErrors.ErrPermissionDenied, "only owners select contractors")
	}
	request, actors, err := s.loadRequest(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if actors.OwnerID != actor.UserID {
		return nil, appErrors.Clone(appErrors.ErrPermissionDenied, "you do not own this property")
	}
	return s.selectContractor(ctx, request, actors, input, "")
}

// SelectContractorByToken is the token-gated variant; the token is consumed
// atomically with the transition.
func (s *WorkflowService) SelectContractorByToken(ctx context.Context, tokenValue string, input dto.SelectContractorInput) (*models.MaintenanceRequest, error) {
	token, err := s.tokens.Validate(ctx, tokenValue, models.ActionSelectContractor)
	if err != nil {
		return nil, err
	}
	request, actors, err := s.loadRequest(ctx, token.RequestID)
	if err != nil {
		return nil, err
	}
	return s.selectContractor(ctx, request, actors, input, token.ID)
}

func (s *WorkflowService) selectContractor(ctx context.Context, request *models.MaintenanceRequest, actors *models.PropertyActors, input dto.SelectContractorInput, consumeTokenID string) (*models.MaintenanceRequest, error) {
	if err := s.validator.Struct(input); err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "contractor_id is required")
	}
	contractor, err := s.directory.FindContractor(ctx, input.ContractorID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrValidation, "unknown contractor")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrUnavailable.Code, appErrors.ErrUnavailable.Status, "failed to resolve contractor")
	}

	scheduleToken, err := s.tokens.Mint(request.ID, models.ActionScheduleAppointment)
	if err != nil {
		return nil, err
	}
	contractorID := contractor.UserID
	err = s.repo.ExecuteTransition(ctx, repository.TransitionParams{
		RequestID:       request.ID,
		From:            models.StatusNotifiedOwner,
		To:              models.StatusContractorSelected,
		SetContractorID: &contractorID,
		LogStep:         ActionSelect,
		LogDetails:      fmt.Sprintf("Contractor %s selected", displayName(contractor)),
		ConsumeTokenID:  consumeTokenID,
		IssueToken:      scheduleToken,
	})
	if err != nil {
		return nil, s.mapTransitionError(err, request.Status, models.StatusNotifiedOwner)
	}

	s.afterTransition(ctx, ActionSelect)
	s.notifier.Notify(ctx, []string{contractor.UserID},
		"You have been selected for a maintenance job",
		fmt.Sprintf("Request %q at %s. Schedule the appointment: %s", request.Title, actors.Address, s.actionLink("schedule-appointment", scheduleToken.Token)),
		request.ID)
	s.notifier.Notify(ctx, []string{actors.BrokerID},
		"Contractor selected",
		fmt.Sprintf("%s was selected for request %q.", displayName(contractor), request.Title),
		request.ID)
	return s.reload(ctx, request.ID)
}

// ScheduleAppointment is the authenticated contractor variant.
func (s *WorkflowService) ScheduleAppointment(ctx context.Context, actor *models.JWTClaims, requestID string, input dto.ScheduleInput) (*models.MaintenanceRequest, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}
	if actor.Role != models.RoleContractor {
		return nil, appErrors.Clone(appErrors.ErrPermissionDenied, "only the selected contractor schedules appointments")
	}
	request, actors, err := s.loadRequest(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if request.ContractorID == nil || *request.ContractorID != actor.UserID {
		return nil, appErrors.Clone(appErrors.ErrPermissionDenied, "you are not assigned to this request")
	}
	return s.schedule(ctx, request, actors, input, "")
}

// ScheduleAppointmentByToken is the token-gated variant.
func (s *WorkflowService) ScheduleAppointmentByToken(ctx context.Context, tokenValue string, input dto.ScheduleInput) (*models.MaintenanceRequest, error) {
	token, err := s.tokens.Validate(ctx, tokenValue, models.ActionScheduleAppointment)
	if err != nil {
		return nil, err
	}
	request, actors, err := s.loadRequest(ctx, token.RequestID)
	if err != nil {
		return nil, err
	}
	return s.schedule(ctx, request, actors, input, token.ID)
}

func (s *WorkflowService) schedule(ctx context.Context, request *models.MaintenanceRequest, actors *models.PropertyActors, input dto.ScheduleInput, consumeTokenID string) (*models.MaintenanceRequest, error) {
	if input.ScheduledDate.IsZero() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "scheduled_date is required")
	}

	schedule := &models.Schedule{
		RequestID:     request.ID,
		ScheduledDate: input.ScheduledDate.UTC(),
		Notes:         input.Notes,
	}
	err := s.repo.ExecuteTransition(ctx, repository.TransitionParams{
		RequestID:      request.ID,
		From:           models.StatusContractorSelected,
		To:             models.StatusScheduled,
		Schedule:       schedule,
		LogStep:        ActionSchedule,
		LogDetails:     fmt.Sprintf("Appointment scheduled for %s", schedule.ScheduledDate.Format("2006-01-02 15:04")),
		ConsumeTokenID: consumeTokenID,
	})
	if err != nil {
		return nil, s.mapTransitionError(err, request.Status, models.StatusContractorSelected)
	}

	s.afterTransition(ctx, ActionSchedule)
	when := schedule.ScheduledDate.Format("2006-01-02 15:04")
	message := fmt.Sprintf("Request %q is scheduled for %s.", request.Title, when)
	recipients := []string{request.RenterID, actors.BrokerID}
	if request.ContractorID != nil {
		recipients = append(recipients, *request.ContractorID)
	}
	s.notifier.Notify(ctx, recipients, "Appointment scheduled", message, request.ID)
	return s.reload(ctx, request.ID)
}

// StartWork advances scheduled to in_progress.
func (s *WorkflowService) StartWork(ctx context.Context, actor *models.JWTClaims, requestID string) (*models.MaintenanceRequest, error) {
	return s.advance(ctx, actor, requestID, models.StatusScheduled, models.StatusInProgress, ActionStartWork, "Work started on site")
}

// CompleteWork advances in_progress to the terminal completed state.
func (s *WorkflowService) CompleteWork(ctx context.Context, actor *models.JWTClaims, requestID string) (*models.MaintenanceRequest, error) {
	return s.advance(ctx, actor, requestID, models.StatusInProgress, models.StatusCompleted, ActionCompleteWork, "Work completed")
}

func (s *WorkflowService) advance(ctx context.Context, actor *models.JWTClaims, requestID string, from, to models.RequestStatus, step, details string) (*models.MaintenanceRequest, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}
	request, actors, err := s.loadRequest(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if actor.Role != models.RoleContractor || request.ContractorID == nil || *request.ContractorID != actor.UserID {
		return nil, appErrors.Clone(appErrors.ErrPermissionDenied, "only the assigned contractor reports progress")
	}

	err = s.repo.ExecuteTransition(ctx, repository.TransitionParams{
		RequestID:  request.ID,
		From:       from,
		To:         to,
		LogStep:    step,
		LogDetails: details,
	})
	if err != nil {
		return nil, s.mapTransitionError(err, request.Status, from)
	}

	s.afterTransition(ctx, step)
	recipients := []string{request.RenterID, actors.BrokerID, actors.OwnerID}
	s.notifier.Notify(ctx, recipients,
		fmt.Sprintf("Request %s", to),
		fmt.Sprintf("Request %q is now %s.", request.Title, to),
		request.ID)
	return s.reload(ctx, request.ID)
}

func (s *WorkflowService) loadRequest(ctx context.Context, id string) (*models.MaintenanceRequest, *models.PropertyActors, error) {
	request, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil, appErrors.Clone(appErrors.ErrNotFound, "maintenance request not found")
		}
		return nil, nil, appErrors.Wrap(err, appErrors.ErrUnavailable.Code, appErrors.ErrUnavailable.Status, "failed to load request")
	}
	actors, err := s.propertyActors(ctx, request.PropertyID)
	if err != nil {
		return nil, nil, err
	}
	return request, actors, nil
}

func (s *WorkflowService) propertyActors(ctx context.Context, propertyID string) (*models.PropertyActors, error) {
	actors, err := s.directory.PropertyActors(ctx, propertyID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "property not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrUnavailable.Code, appErrors.ErrUnavailable.Status, "failed to resolve property")
	}
	return actors, nil
}

func (s *WorkflowService) reload(ctx context.Context, id string) (*models.MaintenanceRequest, error) {
	request, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrUnavailable.Code, appErrors.ErrUnavailable.Status, "failed to reload request")
	}
	return request, nil
}

func (s *WorkflowService) mapTransitionError(err error, current, expected models.RequestStatus) error {
	switch {
	case errors.Is(err, repository.ErrStatusConflict):
		return appErrors.Clone(appErrors.ErrInvalidTransition,
			fmt.Sprintf("request is not in %s state", expected))
	case errors.Is(err, repository.ErrTokenSpent):
		return appErrors.Clone(appErrors.ErrInvalidToken, "token already used")
	default:
		s.logger.Error("transition failed",
			zap.String("expected_status", string(expected)), zap.String("seen_status", string(current)), zap.Error(err))
		return appErrors.Wrap(err, appErrors.ErrUnavailable.Code, appErrors.ErrUnavailable.Status, "failed to apply transition")
	}
}

func (s *WorkflowService) afterTransition(ctx context.Context, step string) {
	s.metrics.RecordTransition(step)
	if s.cache != nil {
		if err := s.cache.Invalidate(ctx, "dashboard:*"); err != nil {
			s.logger.Warn("dashboard cache invalidation failed", zap.Error(err))
		}
	}
}

func (s *WorkflowService) actionLink(path, token string) string {
	return fmt.Sprintf("%s/%s/%s", s.publicURL, path, token)
}

func displayName(contractor *models.ContractorProfile) string {
	if contractor.CompanyName != "" {
		return contractor.CompanyName
	}
	return contractor.Name
}
