package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/fixtrack/fixtrack-api/internal/dto"
	"github.com/fixtrack/fixtrack-api/internal/models"
	appErrors "github.com/fixtrack/fixtrack-api/pkg/errors"
	"github.com/fixtrack/fixtrack-api/pkg/response"
)

type tokenWorkflow interface {
	SelectContractorByToken(ctx context.Context, tokenValue string, input dto.SelectContractorInput) (*models.MaintenanceRequest, error)
	ScheduleAppointmentByToken(ctx context.Context, tokenValue string, input dto.ScheduleInput) (*models.MaintenanceRequest, error)
}

type tokenViews interface {
	TokenRequestView(ctx context.Context, tokenValue string, action models.TokenAction) (*dto.TokenRequestView, error)
}

// ActionHandler serves the unauthenticated, capability-token-gated routes
// that owners and contractors reach through emailed links.
type ActionHandler struct {
	workflow tokenWorkflow
	views    tokenViews
}

// NewActionHandler constructs the handler.
func NewActionHandler(workflow tokenWorkflow, views tokenViews) *ActionHandler {
	return &ActionHandler{workflow: workflow, views: views}
}

// ViewSelection godoc
// @Summary View a request pending contractor selection
// @Tags Actions
// @Produce json
// @Param token path string true "Capability token"
// @Success 200 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Router /actions/select-contractor/{token} [get]
func (h *ActionHandler) ViewSelection(c *gin.Context) {
	view, err := h.views.TokenRequestView(c.Request.Context(), c.Param("token"), models.ActionSelectContractor)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, view, nil)
}

// SubmitSelection godoc
// @Summary Select a contractor using a capability token
// @Tags Actions
// @Accept json
// @Produce json
// @Param token path string true "Capability token"
// @Param payload body dto.SelectContractorInput true "Contractor choice"
// @Success 200 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /actions/select-contractor/{token} [post]
func (h *ActionHandler) SubmitSelection(c *gin.Context) {
	var input dto.SelectContractorInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	request, err := h.workflow.SelectContractorByToken(c.Request.Context(), c.Param("token"), input)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, request, nil)
}

// ViewSchedule godoc
// @Summary View a request pending appointment scheduling
// @Tags Actions
// @Produce json
// @Param token path string true "Capability token"
// @Success 200 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Router /actions/schedule-appointment/{token} [get]
func (h *ActionHandler) ViewSchedule(c *gin.Context) {
	view, err := h.views.TokenRequestView(c.Request.Context(), c.Param("token"), models.ActionScheduleAppointment)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, view, nil)
}

// SubmitSchedule godoc
// @Summary Schedule the appointment using a capability token
// @Tags Actions
// @Accept json
// @Produce json
// @Param token path string true "Capability token"
// @Param payload body dto.ScheduleInput true "Appointment details"
// @Success 200 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /actions/schedule-appointment/{token} [post]
func (h *ActionHandler) SubmitSchedule(c *gin.Context) {
	var input dto.ScheduleInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	request, err := h.workflow.ScheduleAppointmentByToken(c.Request.Context(), c.Param("token"), input)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, request, nil)
}
