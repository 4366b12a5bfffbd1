package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/fixtrack/fixtrack-api/internal/models"
	"github.com/fixtrack/fixtrack-api/pkg/response"
)

type contractorDirectory interface {
	ListContractors(ctx context.Context, actor *models.JWTClaims) ([]models.ContractorProfile, error)
}

// ContractorHandler serves the contractor directory.
type ContractorHandler struct {
	service contractorDirectory
}

// NewContractorHandler constructs the handler.
func NewContractorHandler(service contractorDirectory) *ContractorHandler {
	return &ContractorHandler{service: service}
}

// List godoc
// @Summary List contractors, best rated first
// @Tags Contractors
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /contractors [get]
func (h *ContractorHandler) List(c *gin.Context) {
	contractors, err := h.service.ListContractors(c.Request.Context(), claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, contractors, nil)
}
