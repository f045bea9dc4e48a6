package repository

import (
	"context"
	"database/sql"
	"fmt"

	"osld-portal/internal/models"
)

// OrganizationRepository handles organization database operations
type OrganizationRepository struct {
	db *sql.DB
}

// NewOrganizationRepository creates a new organization repository
func NewOrganizationRepository(db *sql.DB) *OrganizationRepository {
	return &OrganizationRepository{db: db}
}

const organizationColumns = `code, name, kind, parent_code, contact_email, created_at`

func scanOrganization(row interface{ Scan(...any) error }, org *models.Organization) error {
	return row.Scan(
		&org.Code,
		&org.Name,
		&org.Kind,
		&org.ParentCode,
		&org.ContactEmail,
		&org.CreatedAt,
	)
}

// GetByCode retrieves an organization by code, nil if it does not exist
func (r *OrganizationRepository) GetByCode(ctx context.Context, code string) (*models.Organization, error) {
	query := `SELECT ` + organizationColumns + ` FROM organizations WHERE code = $1`

	var org models.Organization
	err := scanOrganization(r.db.QueryRowContext(ctx, query, code), &org)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get organization: %w", err)
	}

	return &org, nil
}

// List retrieves all organizations ordered by code
func (r *OrganizationRepository) List(ctx context.Context) ([]models.Organization, error) {
	query := `SELECT ` + organizationColumns + ` FROM organizations ORDER BY code`
	return r.query(ctx, query)
}

// ListChildren retrieves the organizations overseen by parent
func (r *OrganizationRepository) ListChildren(ctx context.Context, parent string) ([]models.Organization, error) {
	query := `SELECT ` + organizationColumns + ` FROM organizations WHERE parent_code = $1 ORDER BY code`
	return r.query(ctx, query, parent)
}

// Create inserts an organization
func (r *OrganizationRepository) Create(ctx context.Context, org *models.Organization) error {
	query := `
		INSERT INTO organizations (code, name, kind, parent_code, contact_email)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at
	`
	err := r.db.QueryRowContext(ctx, query, org.Code, org.Name, org.Kind, org.ParentCode, org.ContactEmail).
		Scan(&org.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create organization: %w", err)
	}
	return nil
}

func (r *OrganizationRepository) query(ctx context.Context, query string, args ...any) ([]models.Organization, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list organizations: %w", err)
	}
	defer rows.Close()

	orgs := []models.Organization{}
	for rows.Next() {
		var org models.Organization
		if err := scanOrganization(rows, &org); err != nil {
			return nil, fmt.Errorf("failed to scan organization: %w", err)
		}
		orgs = append(orgs, org)
	}

	return orgs, rows.Err()
}
