package models

import "time"

// Property links the actors of a maintenance request: the renter who lives
// there, the broker who manages it, and the owner.
type Property struct {
	ID        string    `db:"id" json:"id"`
	Address   string    `db:"address" json:"address"`
	OwnerID   string    `db:"owner_id" json:"owner_id"`
	BrokerID  string    `db:"broker_id" json:"broker_id"`
	RenterID  *string   `db:"renter_id" json:"renter_id,omitempty"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// PropertyActors resolves who should be notified for a property.
type PropertyActors struct {
	PropertyID string  `db:"property_id"`
	Address    string  `db:"address"`
	OwnerID    string  `db:"owner_id"`
	BrokerID   string  `db:"broker_id"`
	RenterID   *string `db:"renter_id"`
}
