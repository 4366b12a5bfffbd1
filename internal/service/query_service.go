package service

import (
	"context"
	"database/sql"
	"errors"

	"go.uber.org/zap"

	"github.com/fixtrack/fixtrack-api/internal/dto"
	"github.com/fixtrack/fixtrack-api/internal/models"
	appErrors "github.com/fixtrack/fixtrack-api/pkg/errors"
)

type requestReader interface {
	GetByID(ctx context.Context, id string) (*models.MaintenanceRequest, error)
	List(ctx context.Context, filter models.RequestFilter) ([]models.MaintenanceRequest, int, error)
}

type queryDirectory interface {
	FindUserByID(ctx context.Context, id string) (*models.User, error)
	PropertyActors(ctx context.Context, propertyID string) (*models.PropertyActors, error)
	PropertiesForRenter(ctx context.Context, renterID string) ([]models.Property, error)
	ListContractors(ctx context.Context) ([]models.ContractorProfile, error)
	FindContractor(ctx context.Context, userID string) (*models.ContractorProfile, error)
}

type queryTokens interface {
	Validate(ctx context.Context, value string, action models.TokenAction) (*models.CapabilityToken, error)
}

// QueryService serves the read side: role-scoped listings, single request
// views, the token-gated views, and the contractor directory.
type QueryService struct {
	requests  requestReader
	directory queryDirectory
	tokens    queryTokens
	logger    *zap.Logger
}

// NewQueryService constructs a QueryService.
func NewQueryService(requests requestReader, directory queryDirectory, tokens queryTokens, logger *zap.Logger) *QueryService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &QueryService{requests: requests, directory: directory, tokens: tokens, logger: logger}
}

// ListRequests returns the requests visible to the actor. Scoping is derived
// from the role: renters see what they filed, contractors what they were
// assigned, brokers and owners the requests on their properties.
func (s *QueryService) ListRequests(ctx context.Context, actor *models.JWTClaims, status models.RequestStatus, page, pageSize int) ([]models.MaintenanceRequest, *models.Pagination, error) {
	if actor == nil {
		return nil, nil, appErrors.ErrUnauthorized
	}
	if status != "" && !models.ValidStatus(status) {
		return nil, nil, appErrors.Clone(appErrors.ErrValidation, "unknown status filter")
	}

	filter := models.RequestFilter{Status: status, Page: page, PageSize: pageSize}
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
		return nil, nil, appErrors.Clone(appErrors.ErrPermissionDenied, "unknown role")
	}

	requests, total, err := s.requests.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrUnavailable.Code, appErrors.ErrUnavailable.Status, "failed to list requests")
	}
	pagination := models.NewPagination(filter.Page, filter.PageSize, total)
	return requests, pagination, nil
}

// GetRequest returns a single request if the actor is one of its stakeholders.
func (s *QueryService) GetRequest(ctx context.Context, actor *models.JWTClaims, id string) (*models.MaintenanceRequest, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}
	request, err := s.requests.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "maintenance request not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrUnavailable.Code, appErrors.ErrUnavailable.Status, "failed to load request")
	}
	actors, err := s.directory.PropertyActors(ctx, request.PropertyID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrUnavailable.Code, appErrors.ErrUnavailable.Status, "failed to resolve property")
	}
	if !canView(actor, request, actors) {
		return nil, appErrors.Clone(appErrors.ErrPermissionDenied, "you are not a stakeholder of this request")
	}
	return request, nil
}

// Actions lists the commands the actor may issue against the request right
// now. Empty when the actor is a pure observer of the current status.
func (s *QueryService) Actions(actor *models.JWTClaims, request *models.MaintenanceRequest) []string {
	if actor == nil || request == nil {
		return nil
	}
	assigned := request.ContractorID != nil && *request.ContractorID == actor.UserID
	return AllowedActions(actor.Role, request.Status, assigned)
}

// TokenRequestView resolves the state a capability token holder may see
// without authenticating. Selection tokens additionally carry the contractor
// directory so the owner can choose. The token is NOT consumed here.
func (s *QueryService) TokenRequestView(ctx context.Context, tokenValue string, action models.TokenAction) (*dto.TokenRequestView, error) {
	token, err := s.tokens.Validate(ctx, tokenValue, action)
	if err != nil {
		return nil, err
	}
	request, err := s.requests.GetByID(ctx, token.RequestID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrUnavailable.Code, appErrors.ErrUnavailable.Status, "failed to load request")
	}
	view := &dto.TokenRequestView{Request: request}
	if action == models.ActionSelectContractor {
		contractors, err := s.directory.ListContractors(ctx)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrUnavailable.Code, appErrors.ErrUnavailable.Status, "failed to list contractors")
		}
		view.Contractors = contractors
	}
	return view, nil
}

// ListContractors returns the contractor directory, best rated first.
func (s *QueryService) ListContractors(ctx context.Context, actor *models.JWTClaims) ([]models.ContractorProfile, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}
	contractors, err := s.directory.ListContractors(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrUnavailable.Code, appErrors.ErrUnavailable.Status, "failed to list contractors")
	}
	return contractors, nil
}

// ListProperties returns the properties a renter may file requests against.
func (s *QueryService) ListProperties(ctx context.Context, actor *models.JWTClaims) ([]models.Property, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}
	if actor.Role != models.RoleRenter {
		return nil, appErrors.Clone(appErrors.ErrPermissionDenied, "only renters list their properties")
	}
	properties, err := s.directory.PropertiesForRenter(ctx, actor.UserID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrUnavailable.Code, appErrors.ErrUnavailable.Status, "failed to list properties")
	}
	return properties, nil
}

// WorkOrderData assembles everything the PDF export needs for one request.
func (s *QueryService) WorkOrderData(ctx context.Context, actor *models.JWTClaims, id string) (*models.MaintenanceRequest, *models.PropertyActors, *models.User, *models.ContractorProfile, error) {
	request, err := s.GetRequest(ctx, actor, id)
	if err != nil {
		return nil, nil, nil, nil, err
	}
	actors, err := s.directory.PropertyActors(ctx, request.PropertyID)
	if err != nil {
		return nil, nil, nil, nil, appErrors.Wrap(err, appErrors.ErrUnavailable.Code, appErrors.ErrUnavailable.Status, "failed to resolve property")
	}
	renter, err := s.directory.FindUserByID(ctx, request.RenterID)
	if err != nil {
		return nil, nil, nil, nil, appErrors.Wrap(err, appErrors.ErrUnavailable.Code, appErrors.ErrUnavailable.Status, "failed to resolve renter")
	}
	var contractor *models.ContractorProfile
	if request.ContractorID != nil {
		contractor, err = s.directory.FindContractor(ctx, *request.ContractorID)
		if err != nil && !errors.Is(err, sql.ErrNoRows) {
			return nil, nil, nil, nil, appErrors.Wrap(err, appErrors.ErrUnavailable.Code, appErrors.ErrUnavailable.Status, "failed to resolve contractor")
		}
	}
	return request, actors, renter, contractor, nil
}

func canView(actor *models.JWTClaims, request *models.MaintenanceRequest, actors *models.PropertyActors) bool {
	switch actor.Role {
	case models.RoleRenter:
		return request.RenterID == actor.UserID
	case models.RoleContractor:
		return request.ContractorID != nil && *request.ContractorID == actor.UserID
	case models.RoleBroker:
		return actors.BrokerID == actor.UserID
	case models.RoleOwner:
		return actors.OwnerID == actor.UserID
	}
	return false
}
