package models

import "time"

// RequestStatus enumerates the linear lifecycle of a maintenance request.
// Transitions only ever advance; there are no back-transitions and no
// cancellation state.
type RequestStatus string

const (
	StatusPending            RequestStatus = "pending"
	StatusNotifiedOwner      RequestStatus = "notified_owner"
	StatusContractorSelected RequestStatus = "contractor_selected"
	StatusScheduled          RequestStatus = "scheduled"
	StatusInProgress         RequestStatus = "in_progress"
	StatusCompleted          RequestStatus = "completed"
)

// statusOrder fixes the only admissible sequence of statuses.
var statusOrder = []RequestStatus{
	StatusPending,
	StatusNotifiedOwner,
	StatusContractorSelected,
	StatusScheduled,
	StatusInProgress,
	StatusCompleted,
}

// NextStatus returns the successor of the given status, or "" for the
// terminal state and unknown values.
func NextStatus(status RequestStatus) RequestStatus {
	for i, s := range statusOrder[:len(statusOrder)-1] {
		if s == status {
			return statusOrder[i+1]
		}
	}
	return ""
}

// ValidStatus reports whether the value is a known request status.
func ValidStatus(status RequestStatus) bool {
	for _, s := range statusOrder {
		if s == status {
			return true
		}
	}
	return false
}

// ContractorAssigned reports whether a request in this status must carry a
// contractor id. The invariant holds in both directions: contractor_id is
// set exactly when the status is contractor_selected or later.
func ContractorAssigned(status RequestStatus) bool {
	switch status {
	case StatusContractorSelected, StatusScheduled, StatusInProgress, StatusCompleted:
		return true
	default:
		return false
	}
}

// RequestCategory enumerates maintenance request categories.
type RequestCategory string

const (
	CategoryPlumbing   RequestCategory = "plumbing"
	CategoryElectrical RequestCategory = "electrical"
	CategoryHeating    RequestCategory = "heating"
	CategoryAppliances RequestCategory = "appliances"
	CategoryStructural RequestCategory = "structural"
	CategoryOther      RequestCategory = "other"
)

// ValidCategory reports whether the value is a known category.
func ValidCategory(category RequestCategory) bool {
	switch category {
	case CategoryPlumbing, CategoryElectrical, CategoryHeating, CategoryAppliances, CategoryStructural, CategoryOther:
		return true
	default:
		return false
	}
}

// RequestPriority enumerates priorities.
type RequestPriority string

const (
	PriorityLow    RequestPriority = "low"
	PriorityMedium RequestPriority = "medium"
	PriorityHigh   RequestPriority = "high"
	PriorityUrgent RequestPriority = "urgent"
)

// ValidPriority reports whether the value is a known priority.
func ValidPriority(priority RequestPriority) bool {
	switch priority {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent:
		return true
	default:
		return false
	}
}

// MaintenanceRequest represents a persisted maintenance request row.
// AvailableTimes is stored as a JSONB column.
type MaintenanceRequest struct {
	ID             string             `db:"id" json:"id"`
	PropertyID     string             `db:"property_id" json:"property_id"`
	RenterID       string             `db:"renter_id" json:"renter_id"`
	Title          string             `db:"title" json:"title"`
	Description    string             `db:"description" json:"description"`
	Category       RequestCategory    `db:"category" json:"category"`
	Priority       RequestPriority    `db:"priority" json:"priority"`
	Status         RequestStatus      `db:"status" json:"status"`
	ContractorID   *string            `db:"contractor_id" json:"contractor_id,omitempty"`
	AvailableTimes AvailabilitySlots  `db:"available_times" json:"renter_available_times"`
	CreatedAt      time.Time          `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time          `db:"updated_at" json:"updated_at"`
	Schedule       *Schedule          `db:"-" json:"schedule,omitempty"`
	WorkflowLogs   []WorkflowLogEntry `db:"-" json:"workflow_logs,omitempty"`
}

// Schedule is the appointment created when the contractor picks a date.
// Immutable once created; rescheduling is not part of this engine.
type Schedule struct {
	ID            string    `db:"id" json:"id"`
	RequestID     string    `db:"request_id" json:"request_id"`
	ScheduledDate time.Time `db:"scheduled_date" json:"scheduled_date"`
	Notes         string    `db:"notes" json:"notes,omitempty"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
}

// WorkflowLogEntry is the append-only audit trail of record. Rows are never
// updated or deleted.
type WorkflowLogEntry struct {
	ID        string    `db:"id" json:"id"`
	RequestID string    `db:"request_id" json:"request_id"`
	Step      string    `db:"step" json:"step"`
	Details   string    `db:"details" json:"details"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// RequestFilter narrows request listings per caller role.
type RequestFilter struct {
	RenterID     string
	ContractorID string
	BrokerID     string
	OwnerID      string
	Status       RequestStatus
	Page         int
	PageSize     int
}
