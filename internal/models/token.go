package models

import "time"

// TokenAction discriminates what a capability token authorizes.
type TokenAction string

const (
	ActionSelectContractor    TokenAction = "select_contractor"
	ActionScheduleAppointment TokenAction = "schedule_appointment"
)

// ValidTokenAction reports whether the value is a known action kind.
func ValidTokenAction(action TokenAction) bool {
	return action == ActionSelectContractor || action == ActionScheduleAppointment
}

// CapabilityToken is a single-use, action-scoped credential substituting for
// a session. At most one unconsumed token exists per (request, action_kind);
// issuing a new one invalidates any prior unconsumed token for that action.
type CapabilityToken struct {
	ID         string      `db:"id" json:"id"`
	Token      string      `db:"token" json:"token"`
	RequestID  string      `db:"request_id" json:"request_id"`
	ActionKind TokenAction `db:"action_kind" json:"action_kind"`
	IssuedAt   time.Time   `db:"issued_at" json:"issued_at"`
	ExpiresAt  time.Time   `db:"expires_at" json:"expires_at"`
	ConsumedAt *time.Time  `db:"consumed_at" json:"consumed_at,omitempty"`
}

// Consumed reports whether the token has already been redeemed.
func (t *CapabilityToken) Consumed() bool {
	return t.ConsumedAt != nil
}

// Expired reports whether the token has passed its expiry at the given time.
func (t *CapabilityToken) Expired(now time.Time) bool {
	return !t.ExpiresAt.IsZero() && now.After(t.ExpiresAt)
}
