package handler

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fixtrack/fixtrack-api/internal/dto"
	"github.com/fixtrack/fixtrack-api/internal/models"
	appErrors "github.com/fixtrack/fixtrack-api/pkg/errors"
)

func TestViewSelectionReturnsDirectory(t *testing.T) {
	queries := &fakeQueries{view: &dto.TokenRequestView{
		Request:     &models.MaintenanceRequest{ID: "req-1", Status: models.StatusNotifiedOwner},
		Contractors: []models.ContractorProfile{{UserID: "contractor-1", Name: "Pat"}},
	}}
	handler := NewActionHandler(&fakeWorkflow{}, queries)

	c, rec := testContext(t, http.MethodGet, "/actions/select-contractor/value", nil, nil)
	c.Params = gin.Params{{Key: "token", Value: "value"}}
	handler.ViewSelection(c)

	assert.Equal(t, http.StatusOK, rec.Code)
	var envelope responseEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	assert.Contains(t, string(envelope.Data), "contractor-1")
}

func TestSubmitSelectionPassesToken(t *testing.T) {
	workflow := &fakeWorkflow{request: &models.MaintenanceRequest{ID: "req-1", Status: models.StatusContractorSelected}}
	handler := NewActionHandler(workflow, &fakeQueries{})

	c, rec := testContext(t, http.MethodPost, "/actions/select-contractor/value", dto.SelectContractorInput{ContractorID: "contractor-1"}, nil)
	c.Params = gin.Params{{Key: "token", Value: "value"}}
	handler.SubmitSelection(c)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "value", workflow.lastToken)
	assert.Equal(t, "contractor-1", workflow.lastSelect.ContractorID)
}

func TestSubmitScheduleInvalidToken(t *testing.T) {
	workflow := &fakeWorkflow{err: appErrors.Clone(appErrors.ErrInvalidToken, "token already used")}
	handler := NewActionHandler(workflow, &fakeQueries{})

	c, rec := testContext(t, http.MethodPost, "/actions/schedule-appointment/stale", dto.ScheduleInput{}, nil)
	c.Params = gin.Params{{Key: "token", Value: "stale"}}
	handler.SubmitSchedule(c)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	var envelope responseEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	assert.Equal(t, "INVALID_TOKEN", envelope.Error["code"])
}
