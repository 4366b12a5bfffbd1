package handler

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/fixtrack/fixtrack-api/internal/dto"
	"github.com/fixtrack/fixtrack-api/internal/models"
	appErrors "github.com/fixtrack/fixtrack-api/pkg/errors"
	"github.com/fixtrack/fixtrack-api/pkg/export"
	"github.com/fixtrack/fixtrack-api/pkg/response"
)

type workflowCommands interface {
	CreateRequest(ctx context.Context, actor *models.JWTClaims, input dto.CreateRequestInput) (*models.MaintenanceRequest, error)
	NotifyOwner(ctx context.Context, actor *models.JWTClaims, requestID string) (*models.MaintenanceRequest, error)
	SelectContractor(ctx context.Context, actor *models.JWTClaims, requestID string, input dto.SelectContractorInput) (*models.MaintenanceRequest, error)
	ScheduleAppointment(ctx context.Context, actor *models.JWTClaims, requestID string, input dto.ScheduleInput) (*models.MaintenanceRequest, error)
	StartWork(ctx context.Context, actor *models.JWTClaims, requestID string) (*models.MaintenanceRequest, error)
	CompleteWork(ctx context.Context, actor *models.JWTClaims, requestID string) (*models.MaintenanceRequest, error)
}

type workflowQueries interface {
	ListRequests(ctx context.Context, actor *models.JWTClaims, status models.RequestStatus, page, pageSize int) ([]models.MaintenanceRequest, *models.Pagination, error)
	GetRequest(ctx context.Context, actor *models.JWTClaims, id string) (*models.MaintenanceRequest, error)
	Actions(actor *models.JWTClaims, request *models.MaintenanceRequest) []string
	ListProperties(ctx context.Context, actor *models.JWTClaims) ([]models.Property, error)
	WorkOrderData(ctx context.Context, actor *models.JWTClaims, id string) (*models.MaintenanceRequest, *models.PropertyActors, *models.User, *models.ContractorProfile, error)
}

// MaintenanceHandler exposes the request lifecycle over HTTP.
type MaintenanceHandler struct {
	workflow workflowCommands
	queries  workflowQueries
	pdf      *export.WorkOrderPDF
}

// NewMaintenanceHandler constructs the handler.
func NewMaintenanceHandler(workflow workflowCommands, queries workflowQueries) *MaintenanceHandler {
	return &MaintenanceHandler{workflow: workflow, queries: queries, pdf: export.NewWorkOrderPDF()}
}

// Create godoc
// @Summary Create a maintenance request
// @Tags Requests
// @Accept json
// @Produce json
// @Param payload body dto.CreateRequestInput true "Request payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /requests [post]
func (h *MaintenanceHandler) Create(c *gin.Context) {
	var input dto.CreateRequestInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid request payload"))
		return
	}
	request, err := h.workflow.CreateRequest(c.Request.Context(), claimsFromContext(c), input)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, request)
}

// List godoc
// @Summary List maintenance requests visible to the caller
// @Tags Requests
// @Produce json
// @Param status query string false "Status filter"
// @Param page query int false "Page"
// @Param page_size query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /requests [get]
func (h *MaintenanceHandler) List(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "50"))
	status := models.RequestStatus(c.Query("status"))

	requests, pagination, err := h.queries.ListRequests(c.Request.Context(), claimsFromContext(c), status, page, pageSize)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, requests, pagination)
}

// Get godoc
// @Summary Fetch one maintenance request with its workflow history
// @Tags Requests
// @Produce json
// @Param id path string true "Request ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /requests/{id} [get]
func (h *MaintenanceHandler) Get(c *gin.Context) {
	claims := claimsFromContext(c)
	request, err := h.queries.GetRequest(c.Request.Context(), claims, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	meta := map[string]interface{}{"allowed_actions": h.queries.Actions(claims, request)}
	response.JSON(c, http.StatusOK, request, nil, meta)
}

// NotifyOwner godoc
// @Summary Forward a pending request to the property owner
// @Tags Requests
// @Produce json
// @Param id path string true "Request ID"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /requests/{id}/notify-owner [post]
func (h *MaintenanceHandler) NotifyOwner(c *gin.Context) {
	request, err := h.workflow.NotifyOwner(c.Request.Context(), claimsFromContext(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, request, nil)
}

// SelectContractor godoc
// @Summary Select a contractor for a request (authenticated owner)
// @Tags Requests
// @Accept json
// @Produce json
// @Param id path string true "Request ID"
// @Param payload body dto.SelectContractorInput true "Contractor choice"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /requests/{id}/select-contractor [post]
func (h *MaintenanceHandler) SelectContractor(c *gin.Context) {
	var input dto.SelectContractorInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	request, err := h.workflow.SelectContractor(c.Request.Context(), claimsFromContext(c), c.Param("id"), input)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, request, nil)
}

// Schedule godoc
// @Summary Schedule the appointment (authenticated contractor)
// @Tags Requests
// @Accept json
// @Produce json
// @Param id path string true "Request ID"
// @Param payload body dto.ScheduleInput true "Appointment details"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /requests/{id}/schedule [post]
func (h *MaintenanceHandler) Schedule(c *gin.Context) {
	var input dto.ScheduleInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	request, err := h.workflow.ScheduleAppointment(c.Request.Context(), claimsFromContext(c), c.Param("id"), input)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, request, nil)
}

// Start godoc
// @Summary Mark work as started
// @Tags Requests
// @Produce json
// @Param id path string true "Request ID"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /requests/{id}/start [post]
func (h *MaintenanceHandler) Start(c *gin.Context) {
	request, err := h.workflow.StartWork(c.Request.Context(), claimsFromContext(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, request, nil)
}

// Complete godoc
// @Summary Mark work as completed
// @Tags Requests
// @Produce json
// @Param id path string true "Request ID"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /requests/{id}/complete [post]
func (h *MaintenanceHandler) Complete(c *gin.Context) {
	request, err := h.workflow.CompleteWork(c.Request.Context(), claimsFromContext(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, request, nil)
}

// Properties godoc
// @Summary List the caller's rentable properties
// @Tags Requests
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /properties [get]
func (h *MaintenanceHandler) Properties(c *gin.Context) {
	properties, err := h.queries.ListProperties(c.Request.Context(), claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, properties, nil)
}

// WorkOrderPDF godoc
// @Summary Download the work order PDF for a request
// @Tags Requests
// @Produce application/pdf
// @Param id path string true "Request ID"
// @Success 200 {file} binary
// @Failure 404 {object} response.Envelope
// @Router /requests/{id}/work-order [get]
func (h *MaintenanceHandler) WorkOrderPDF(c *gin.Context) {
	request, actors, renter, contractor, err := h.queries.WorkOrderData(c.Request.Context(), claimsFromContext(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	payload, err := h.pdf.Render(export.WorkOrder{
		Request:    request,
		Property:   actors,
		Renter:     renter,
		Contractor: contractor,
	})
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrUnavailable.Code, appErrors.ErrUnavailable.Status, "failed to render work order"))
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=work-order-%s.pdf", request.ID))
	c.Data(http.StatusOK, "application/pdf", payload)
}

// ExportCSV godoc
// @Summary Export the caller's visible requests as CSV
// @Tags Requests
// @Produce text/csv
// @Param status query string false "Status filter"
// @Success 200 {file} binary
// @Router /requests/export [get]
func (h *MaintenanceHandler) ExportCSV(c *gin.Context) {
	status := models.RequestStatus(c.Query("status"))
	requests, _, err := h.queries.ListRequests(c.Request.Context(), claimsFromContext(c), status, 1, 100)
	if err != nil {
		response.Error(c, err)
		return
	}
	payload, err := export.RequestsCSV(requests)
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrUnavailable.Code, appErrors.ErrUnavailable.Status, "failed to render export"))
		return
	}
	c.Header("Content-Disposition", "attachment; filename=maintenance-requests.csv")
	c.Data(http.StatusOK, "text/csv", payload)
}
