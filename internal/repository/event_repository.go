package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/lib/pq"

	"osld-portal/internal/models"
)

// EventRepository handles event database operations
type EventRepository struct {
	db *sql.DB
}

// NewEventRepository creates a new event repository
func NewEventRepository(db *sql.DB) *EventRepository {
	return &EventRepository{db: db}
}

const eventColumns = `
	id, title, description, start_date, end_date, all_day, start_time, end_time,
	target_organization, requires_accomplishment, requires_liquidation,
	accomplishment_deadline_override, liquidation_deadline_override,
	created_by, created_at, updated_at`

func scanEvent(row interface{ Scan(...any) error }, e *models.Event) error {
	return row.Scan(
		&e.ID,
		&e.Title,
		&e.Description,
		&e.StartDate,
		&e.EndDate,
		&e.AllDay,
		&e.StartTime,
		&e.EndTime,
		&e.TargetOrganization,
		&e.RequiresAccomplishment,
		&e.RequiresLiquidation,
		&e.AccomplishmentDeadlineOverride,
		&e.LiquidationDeadlineOverride,
		&e.CreatedBy,
		&e.CreatedAt,
		&e.UpdatedAt,
	)
}

// Create inserts an event
func (r *EventRepository) Create(ctx context.Context, e *models.Event) error {
	query := `
		INSERT INTO events (
			title, description, start_date, end_date, all_day, start_time, end_time,
			target_organization, requires_accomplishment, requires_liquidation,
			accomplishment_deadline_override, liquidation_deadline_override, created_by
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING id, created_at, updated_at
	`

	err := r.db.QueryRowContext(ctx, query,
		e.Title,
		e.Description,
		e.StartDate,
		e.EndDate,
		e.AllDay,
		e.StartTime,
		e.EndTime,
		e.TargetOrganization,
		e.RequiresAccomplishment,
		e.RequiresLiquidation,
		e.AccomplishmentDeadlineOverride,
		e.LiquidationDeadlineOverride,
		e.CreatedBy,
	).Scan(&e.ID, &e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create event: %w", err)
	}

	return nil
}

// GetByID retrieves an event, nil if it does not exist
func (r *EventRepository) GetByID(ctx context.Context, id uint) (*models.Event, error) {
	query := `SELECT ` + eventColumns + ` FROM events WHERE id = $1`

	var e models.Event
	err := scanEvent(r.db.QueryRowContext(ctx, query, id), &e)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get event: %w", err)
	}

	return &e, nil
}

// List retrieves events matching the filter ordered by start date
func (r *EventRepository) List(ctx context.Context, filter models.EventFilter) ([]models.Event, error) {
	var conditions []string
	var args []any
	argPos := 1

	if len(filter.TargetOrganizations) > 0 {
		conditions = append(conditions, fmt.Sprintf("target_organization = ANY($%d)", argPos))
		args = append(args, pq.Array(filter.TargetOrganizations))
		argPos++
	}
	if filter.From != nil {
		conditions = append(conditions, fmt.Sprintf("COALESCE(end_date, start_date) >= $%d", argPos))
		args = append(args, *filter.From)
		argPos++
	}
	if filter.To != nil {
		conditions = append(conditions, fmt.Sprintf("start_date <= $%d", argPos))
		args = append(args, *filter.To)
	}

	query := `SELECT ` + eventColumns + ` FROM events`
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY start_date, id"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list events: %w", err)
	}
	defer rows.Close()

	events := []models.Event{}
	for rows.Next() {
		var e models.Event
		if err := scanEvent(rows, &e); err != nil {
			return nil, fmt.Errorf("failed to scan event: %w", err)
		}
		events = append(events, e)
	}

	return events, rows.Err()
}

// Update writes all editable fields of an event. Overrides are left alone.
func (r *EventRepository) Update(ctx context.Context, e *models.Event) error {
	query := `
		UPDATE events SET
			title = $1, description = $2, start_date = $3, end_date = $4, all_day = $5,
			start_time = $6, end_time = $7, target_organization = $8,
			requires_accomplishment = $9, requires_liquidation = $10, updated_at = NOW()
		WHERE id = $11
		RETURNING updated_at
	`

	err := r.db.QueryRowContext(ctx, query,
		e.Title,
		e.Description,
		e.StartDate,
		e.EndDate,
		e.AllDay,
		e.StartTime,
		e.EndTime,
		e.TargetOrganization,
		e.RequiresAccomplishment,
		e.RequiresLiquidation,
		e.ID,
	).Scan(&e.UpdatedAt)
	if err == sql.ErrNoRows {
		return sql.ErrNoRows
	}
	if err != nil {
		return fmt.Errorf("failed to update event: %w", err)
	}

	return nil
}

// SetDeadlineOverride writes the override column for one report kind.
// Last writer wins.
func (r *EventRepository) SetDeadlineOverride(ctx context.Context, id uint, kind models.ReportKind, date time.Time) error {
	var column string
	switch kind {
	case models.ReportAccomplishment:
		column = "accomplishment_deadline_override"
	case models.ReportLiquidation:
		column = "liquidation_deadline_override"
	default:
		return fmt.Errorf("unknown report kind %q", kind)
	}

	query := `UPDATE events SET ` + column + ` = $1, updated_at = NOW() WHERE id = $2`
	result, err := r.db.ExecContext(ctx, query, date, id)
	if err != nil {
		return fmt.Errorf("failed to set deadline override: %w", err)
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

// Delete deletes an event by ID
func (r *EventRepository) Delete(ctx context.Context, id uint) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM events WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete event: %w", err)
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
