package models

import "time"

// UserRole enumerates the actor roles of the maintenance workflow.
type UserRole string

const (
	RoleRenter     UserRole = "renter"
	RoleBroker     UserRole = "broker"
	RoleOwner      UserRole = "owner"
	RoleContractor UserRole = "contractor"
)

// ValidRole reports whether the role is one of the known actor roles.
func ValidRole(role UserRole) bool {
	switch role {
	case RoleRenter, RoleBroker, RoleOwner, RoleContractor:
		return true
	default:
		return false
	}
}

// User represents a persisted account row.
type User struct {
	ID           string    `db:"id" json:"id"`
	Email        string    `db:"email" json:"email"`
	PasswordHash string    `db:"password_hash" json:"-"`
	FullName     string    `db:"full_name" json:"full_name"`
	Phone        string    `db:"phone" json:"phone,omitempty"`
	Role         UserRole  `db:"role" json:"role"`
	Active       bool      `db:"active" json:"active"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}

// ContractorProfile is read-only directory data consumed during contractor
// selection. A zero rating means the contractor has not been rated yet.
type ContractorProfile struct {
	UserID      string   `db:"user_id" json:"user_id"`
	Name        string   `db:"name" json:"name"`
	CompanyName string   `db:"company_name" json:"company_name"`
	Specialties []string `db:"-" json:"specialties"`
	Rating      float64  `db:"rating" json:"rating,omitempty"`
}
