package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fixtrack/fixtrack-api/internal/dto"
	"github.com/fixtrack/fixtrack-api/internal/middleware"
	"github.com/fixtrack/fixtrack-api/internal/models"
	appErrors "github.com/fixtrack/fixtrack-api/pkg/errors"
)

type responseEnvelope struct {
	Data  json.RawMessage        `json:"data"`
	Error map[string]interface{} `json:"error"`
	Meta  map[string]interface{} `json:"meta"`
}

type fakeWorkflow struct {
	request *models.MaintenanceRequest
	err     error

	lastRequestID string
	lastSelect    dto.SelectContractorInput
	lastSchedule  dto.ScheduleInput
	lastToken     string
}

func (f *fakeWorkflow) CreateRequest(_ context.Context, _ *models.JWTClaims, _ dto.CreateRequestInput) (*models.MaintenanceRequest, error) {
	return f.request, f.err
}

func (f *fakeWorkflow) NotifyOwner(_ context.Context, _ *models.JWTClaims, requestID string) (*models.MaintenanceRequest, error) {
	f.lastRequestID = requestID
	return f.request, f.err
}

func (f *fakeWorkflow) SelectContractor(_ context.Context, _ *models.JWTClaims, requestID string, input dto.SelectContractorInput) (*models.MaintenanceRequest, error) {
	f.lastRequestID = requestID
	f.lastSelect = input
	return f.request, f.err
}

func (f *fakeWorkflow) ScheduleAppointment(_ context.Context, _ *models.JWTClaims, requestID string, input dto.ScheduleInput) (*models.MaintenanceRequest, error) {
	f.lastRequestID = requestID
	f.lastSchedule = input
	return f.request, f.err
}

func (f *fakeWorkflow) StartWork(_ context.Context, _ *models.JWTClaims, requestID string) (*models.MaintenanceRequest, error) {
	f.lastRequestID = requestID
	return f.request, f.err
}

func (f *fakeWorkflow) CompleteWork(_ context.Context, _ *models.JWTClaims, requestID string) (*models.MaintenanceRequest, error) {
	f.lastRequestID = requestID
	return f.request, f.err
}

func (f *fakeWorkflow) SelectContractorByToken(_ context.Context, token string, input dto.SelectContractorInput) (*models.MaintenanceRequest, error) {
	f.lastToken = token
	f.lastSelect = input
	return f.request, f.err
}

func (f *fakeWorkflow) ScheduleAppointmentByToken(_ context.Context, token string, input dto.ScheduleInput) (*models.MaintenanceRequest, error) {
	f.lastToken = token
	f.lastSchedule = input
	return f.request, f.err
}

type fakeQueries struct {
	requests []models.MaintenanceRequest
	request  *models.MaintenanceRequest
	view     *dto.TokenRequestView
	err      error
	actions  []string
}

func (f *fakeQueries) ListRequests(_ context.Context, _ *models.JWTClaims, _ models.RequestStatus, _, _ int) ([]models.MaintenanceRequest, *models.Pagination, error) {
	return f.requests, models.NewPagination(1, 50, len(f.requests)), f.err
}

func (f *fakeQueries) GetRequest(_ context.Context, _ *models.JWTClaims, _ string) (*models.MaintenanceRequest, error) {
	return f.request, f.err
}

func (f *fakeQueries) Actions(_ *models.JWTClaims, _ *models.MaintenanceRequest) []string {
	return f.actions
}

func (f *fakeQueries) ListProperties(_ context.Context, _ *models.JWTClaims) ([]models.Property, error) {
	return nil, f.err
}

func (f *fakeQueries) WorkOrderData(_ context.Context, _ *models.JWTClaims, _ string) (*models.MaintenanceRequest, *models.PropertyActors, *models.User, *models.ContractorProfile, error) {
	if f.err != nil {
		return nil, nil, nil, nil, f.err
	}
	return f.request, &models.PropertyActors{Address: "12 Canal Street"}, &models.User{FullName: "Rae Renter"}, nil, nil
}

func (f *fakeQueries) TokenRequestView(_ context.Context, _ string, _ models.TokenAction) (*dto.TokenRequestView, error) {
	return f.view, f.err
}

func testContext(t *testing.T, method, target string, body interface{}, claims *models.JWTClaims) (*gin.Context, *httptest.ResponseRecorder) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	c.Request = httptest.NewRequest(method, target, &buf)
	c.Request.Header.Set("Content-Type", "application/json")
	if claims != nil {
		c.Set(middleware.ContextUserKey, claims)
	}
	return c, rec
}

func TestCreateHandlerRejectsMalformedBody(t *testing.T) {
	handler := NewMaintenanceHandler(&fakeWorkflow{}, &fakeQueries{})

	gin.SetMode(gin.TestMode)
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodPost, "/requests", bytes.NewBufferString("{not json"))

	handler.Create(c)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCreateHandlerSuccess(t *testing.T) {
	workflow := &fakeWorkflow{request: &models.MaintenanceRequest{ID: "req-1", Status: models.StatusPending}}
	handler := NewMaintenanceHandler(workflow, &fakeQueries{})

	body := dto.CreateRequestInput{
		PropertyID:  "prop-1",
		Title:       "Leaky faucet",
		Description: "Kitchen sink drips",
		Category:    models.CategoryPlumbing,
		Priority:    models.PriorityMedium,
		AvailableTimes: []dto.AvailabilitySlotInput{
			{Type: models.SlotWeekend, TimeFrom: "09:00"},
		},
	}
	c, rec := testContext(t, http.MethodPost, "/requests", body, &models.JWTClaims{UserID: "renter-1", Role: models.RoleRenter})
	handler.Create(c)

	assert.Equal(t, http.StatusCreated, rec.Code)
	var envelope responseEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	assert.Contains(t, string(envelope.Data), `"req-1"`)
}

func TestGetHandlerIncludesAllowedActions(t *testing.T) {
	queries := &fakeQueries{
		request: &models.MaintenanceRequest{ID: "req-1", Status: models.StatusPending},
		actions: []string{"notify_owner"},
	}
	handler := NewMaintenanceHandler(&fakeWorkflow{}, queries)

	c, rec := testContext(t, http.MethodGet, "/requests/req-1", nil, &models.JWTClaims{UserID: "broker-1", Role: models.RoleBroker})
	c.Params = gin.Params{{Key: "id", Value: "req-1"}}
	handler.Get(c)

	assert.Equal(t, http.StatusOK, rec.Code)
	var envelope responseEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	assert.Equal(t, []interface{}{"notify_owner"}, envelope.Meta["allowed_actions"])
}

func TestNotifyOwnerHandlerMapsConflict(t *testing.T) {
	workflow := &fakeWorkflow{err: appErrors.Clone(appErrors.ErrInvalidTransition, "request is not in pending state")}
	handler := NewMaintenanceHandler(workflow, &fakeQueries{})

	c, rec := testContext(t, http.MethodPost, "/requests/req-1/notify-owner", nil, &models.JWTClaims{UserID: "broker-1", Role: models.RoleBroker})
	c.Params = gin.Params{{Key: "id", Value: "req-1"}}
	handler.NotifyOwner(c)

	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "req-1", workflow.lastRequestID)
	var envelope responseEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	assert.Equal(t, "INVALID_STATE_TRANSITION", envelope.Error["code"])
}

func TestWorkOrderPDFHandler(t *testing.T) {
	queries := &fakeQueries{request: &models.MaintenanceRequest{
		ID:       "req-1",
		Title:    "Leaky faucet",
		Status:   models.StatusScheduled,
		Category: models.CategoryPlumbing,
		Priority: models.PriorityMedium,
	}}
	handler := NewMaintenanceHandler(&fakeWorkflow{}, queries)

	c, rec := testContext(t, http.MethodGet, "/requests/req-1/work-order", nil, &models.JWTClaims{UserID: "broker-1", Role: models.RoleBroker})
	c.Params = gin.Params{{Key: "id", Value: "req-1"}}
	handler.WorkOrderPDF(c)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/pdf", rec.Header().Get("Content-Type"))
	assert.True(t, bytes.HasPrefix(rec.Body.Bytes(), []byte("%PDF")))
}

func TestExportCSVHandler(t *testing.T) {
	queries := &fakeQueries{requests: []models.MaintenanceRequest{{
		ID:       "req-1",
		Title:    "Leaky faucet",
		Status:   models.StatusPending,
		Category: models.CategoryPlumbing,
		Priority: models.PriorityMedium,
	}}}
	handler := NewMaintenanceHandler(&fakeWorkflow{}, queries)

	c, rec := testContext(t, http.MethodGet, "/requests/export", nil, &models.JWTClaims{UserID: "broker-1", Role: models.RoleBroker})
	handler.ExportCSV(c)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "req-1")
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/csv")
}
