package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/fixtrack/fixtrack-api/internal/models"
)

// DirectoryRepository resolves users, properties, and the contractor
// directory. The workflow engine consumes it to find who to notify and who
// may act.
type DirectoryRepository struct {
	db *sqlx.DB
}

// NewDirectoryRepository constructs the repository.
func NewDirectoryRepository(db *sqlx.DB) *DirectoryRepository {
	return &DirectoryRepository{db: db}
}

// FindUserByID returns a user by identifier.
func (r *DirectoryRepository) FindUserByID(ctx context.Context, id string) (*models.User, error) {
	const query = `SELECT id, email, password_hash, full_name, phone, role, active, created_at, updated_at
FROM users WHERE id = $1 LIMIT 1`
	var user models.User
	if err := r.db.GetContext(ctx, &user, query, id); err != nil {
		return nil, err
	}
	return &user, nil
}

// FindUserByEmail returns a user by email address.
func (r *DirectoryRepository) FindUserByEmail(ctx context.Context, email string) (*models.User, error) {
	const query = `SELECT id, email, password_hash, full_name, phone, role, active, created_at, updated_at
FROM users WHERE email = $1 LIMIT 1`
	var user models.User
	if err := r.db.GetContext(ctx, &user, query, email); err != nil {
		return nil, err
	}
	return &user, nil
}

// PropertyActors resolves the renter, owner, and broker bound to a property.
func (r *DirectoryRepository) PropertyActors(ctx context.Context, propertyID string) (*models.PropertyActors, error) {
	const query = `SELECT id AS property_id, address, owner_id, broker_id, renter_id
FROM properties WHERE id = $1 LIMIT 1`
	var actors models.PropertyActors
	if err := r.db.GetContext(ctx, &actors, query, propertyID); err != nil {
		return nil, err
	}
	return &actors, nil
}

// PropertiesForRenter returns property ids assigned to the renter.
func (r *DirectoryRepository) PropertiesForRenter(ctx context.Context, renterID string) ([]models.Property, error) {
	const query = `SELECT id, address, owner_id, broker_id, renter_id, created_at
FROM properties WHERE renter_id = $1 ORDER BY address ASC`
	var properties []models.Property
	if err := r.db.SelectContext(ctx, &properties, query, renterID); err != nil {
		return nil, fmt.Errorf("properties for renter: %w", err)
	}
	return properties, nil
}

// ListContractors returns the contractor directory ordered by rating.
// Specialties are stored as a Postgres text array.
func (r *DirectoryRepository) ListContractors(ctx context.Context) ([]models.ContractorProfile, error) {
	const query = `SELECT c.user_id, u.full_name AS name, c.company_name, c.rating, c.specialties
FROM contractor_profiles c
JOIN users u ON u.id = c.user_id
WHERE u.active = TRUE
ORDER BY c.rating DESC, c.company_name ASC`

	rows, err := r.db.QueryxContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list contractors: %w", err)
	}
	defer rows.Close()

	var contractors []models.ContractorProfile
	for rows.Next() {
		var profile models.ContractorProfile
		var specialties pq.StringArray
		if err := rows.Scan(&profile.UserID, &profile.Name, &profile.CompanyName, &profile.Rating, &specialties); err != nil {
			return nil, fmt.Errorf("scan contractor: %w", err)
		}
		profile.Specialties = []string(specialties)
		contractors = append(contractors, profile)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate contractors: %w", err)
	}
	return contractors, nil
}

// FindContractor returns one directory entry.
func (r *DirectoryRepository) FindContractor(ctx context.Context, userID string) (*models.ContractorProfile, error) {
	const query = `SELECT c.user_id, u.full_name AS name, c.company_name, c.rating, c.specialties
FROM contractor_profiles c
JOIN users u ON u.id = c.user_id
WHERE c.user_id = $1 LIMIT 1`

	row := r.db.QueryRowxContext(ctx, query, userID)
	var profile models.ContractorProfile
	var specialties pq.StringArray
	if err := row.Scan(&profile.UserID, &profile.Name, &profile.CompanyName, &profile.Rating, &specialties); err != nil {
		return nil, err
	}
	profile.Specialties = []string(specialties)
	return &profile, nil
}
