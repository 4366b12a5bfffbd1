package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/fixtrack/fixtrack-api/internal/dto"
	"github.com/fixtrack/fixtrack-api/internal/middleware"
	"github.com/fixtrack/fixtrack-api/internal/models"
	"github.com/fixtrack/fixtrack-api/pkg/response"
)

type dashboardService interface {
	Summary(ctx context.Context, actor *models.JWTClaims) (*dto.DashboardSummary, bool, error)
}

// DashboardHandler wires the dashboard projection to HTTP.
type DashboardHandler struct {
	service dashboardService
}

// NewDashboardHandler constructs the handler.
func NewDashboardHandler(service dashboardService) *DashboardHandler {
	return &DashboardHandler{service: service}
}

// Summary godoc
// @Summary Status counts for the caller's scope
// @Tags Dashboard
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /dashboard [get]
func (h *DashboardHandler) Summary(c *gin.Context) {
	summary, cacheHit, err := h.service.Summary(c.Request.Context(), claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetCacheHit(c, cacheHit)
	response.JSON(c, http.StatusOK, summary, nil, middleware.ExtractMeta(c))
}
