package dto

import (
	"time"

	"github.com/fixtrack/fixtrack-api/internal/models"
)

// AvailabilitySlotInput is one raw availability entry from the renter.
// Either the structured fields are set, or Legacy carries the historic
// plain datetime-string form.
type AvailabilitySlotInput struct {
	Type     models.SlotType `json:"type"`
	Date     string          `json:"date"`
	TimeFrom string          `json:"time_from"`
	TimeTo   string          `json:"time_to"`
	Legacy   string          `json:"legacy,omitempty"`
}

// CreateRequestInput is the renter's create payload.
type CreateRequestInput struct {
	PropertyID     string                  `json:"property_id" validate:"required"`
	Title          string                  `json:"title" validate:"required"`
	Description    string                  `json:"description" validate:"required"`
	Category       models.RequestCategory  `json:"category" validate:"required"`
	Priority       models.RequestPriority  `json:"priority" validate:"required"`
	AvailableTimes []AvailabilitySlotInput `json:"renter_available_times" validate:"required,min=1"`
}

// SelectContractorInput carries the owner's (or token holder's) choice.
type SelectContractorInput struct {
	ContractorID string `json:"contractor_id" validate:"required"`
}

// ScheduleInput carries the contractor's appointment details.
type ScheduleInput struct {
	ScheduledDate time.Time `json:"scheduled_date" validate:"required"`
	Notes         string    `json:"notes"`
}

// TokenRequestView is what an unauthenticated token holder may see: the
// request plus, for contractor selection, the directory to choose from.
type TokenRequestView struct {
	Request     *models.MaintenanceRequest `json:"request"`
	Contractors []models.ContractorProfile `json:"contractors,omitempty"`
}

// DashboardSummary is the aggregate count projection.
type DashboardSummary struct {
	Counts      models.StatusCounts `json:"counts"`
	GeneratedAt time.Time           `json:"generated_at"`
}
