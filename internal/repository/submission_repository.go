package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"osld-portal/internal/models"
)

// SubmissionRepository handles submission database operations
type SubmissionRepository struct {
	db *sql.DB
}

// NewSubmissionRepository creates a new submission repository
func NewSubmissionRepository(db *sql.DB) *SubmissionRepository {
	return &SubmissionRepository{db: db}
}

const submissionColumns = `
	id, organization, type, activity_title, activity_date, activity_venue,
	file_url, file_object_id, status, submitted_to, event_id, report_kind,
	revision_reason, submitted_at, updated_at`

func scanSubmission(row interface{ Scan(...any) error }, s *models.Submission) error {
	return row.Scan(
		&s.ID,
		&s.Organization,
		&s.Type,
		&s.ActivityTitle,
		&s.ActivityDate,
		&s.ActivityVenue,
		&s.FileURL,
		&s.FileObjectID,
		&s.Status,
		&s.SubmittedTo,
		&s.EventID,
		&s.ReportKind,
		&s.RevisionReason,
		&s.SubmittedAt,
		&s.UpdatedAt,
	)
}

// Create inserts a submission
func (r *SubmissionRepository) Create(ctx context.Context, s *models.Submission) error {
	query := `
		INSERT INTO submissions (
			organization, type, activity_title, activity_date, activity_venue,
			file_url, file_object_id, status, submitted_to, event_id, report_kind
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING id, submitted_at, updated_at
	`

	err := r.db.QueryRowContext(ctx, query,
		s.Organization,
		s.Type,
		s.ActivityTitle,
		s.ActivityDate,
		s.ActivityVenue,
		s.FileURL,
		s.FileObjectID,
		s.Status,
		s.SubmittedTo,
		s.EventID,
		s.ReportKind,
	).Scan(&s.ID, &s.SubmittedAt, &s.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create submission: %w", err)
	}

	return nil
}

// GetByID retrieves a submission, nil if it does not exist
func (r *SubmissionRepository) GetByID(ctx context.Context, id uint) (*models.Submission, error) {
	query := `SELECT ` + submissionColumns + ` FROM submissions WHERE id = $1`

	var s models.Submission
	err := scanSubmission(r.db.QueryRowContext(ctx, query, id), &s)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get submission: %w", err)
	}

	return &s, nil
}

// List retrieves submissions matching the filter, oldest first
func (r *SubmissionRepository) List(ctx context.Context, filter models.SubmissionFilter) ([]models.Submission, error) {
	var conditions []string
	var args []any

	add := func(cond string, arg any) {
		args = append(args, arg)
		conditions = append(conditions, fmt.Sprintf(cond, len(args)))
	}

	if filter.Organization != "" {
		add("organization = $%d", filter.Organization)
	}
	if filter.SubmittedTo != "" {
		add("submitted_to = $%d", filter.SubmittedTo)
	}
	if filter.Type != "" {
		add("type = $%d", filter.Type)
	}
	if filter.EventID != nil {
		add("event_id = $%d", *filter.EventID)
	}

	query := `SELECT ` + submissionColumns + ` FROM submissions`
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY submitted_at, id"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list submissions: %w", err)
	}
	defer rows.Close()

	subs := []models.Submission{}
	for rows.Next() {
		var s models.Submission
		if err := scanSubmission(rows, &s); err != nil {
			return nil, fmt.Errorf("failed to scan submission: %w", err)
		}
		subs = append(subs, s)
	}

	return subs, rows.Err()
}

// UpdateStatus changes the review status of a submission
func (r *SubmissionRepository) UpdateStatus(ctx context.Context, id uint, status models.SubmissionStatus, reason *string) error {
	query := `
		UPDATE submissions
		SET status = $1, revision_reason = $2, updated_at = NOW()
		WHERE id = $3
	`

	result, err := r.db.ExecContext(ctx, query, status, reason, id)
	if err != nil {
		return fmt.Errorf("failed to update submission status: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return sql.ErrNoRows
	}

	return nil
}
