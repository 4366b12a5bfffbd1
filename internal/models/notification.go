package models

import "time"

// Notification is an in-app message created as a workflow transition side
// effect. Only the recipient mutates it, by marking it read.
type Notification struct {
	ID               string    `db:"id" json:"id"`
	RecipientUserID  string    `db:"recipient_user_id" json:"recipient_user_id"`
	Title            string    `db:"title" json:"title"`
	Message          string    `db:"message" json:"message"`
	RelatedRequestID *string   `db:"related_request_id" json:"related_request_id,omitempty"`
	IsRead           bool      `db:"is_read" json:"is_read"`
	CreatedAt        time.Time `db:"created_at" json:"created_at"`
}
