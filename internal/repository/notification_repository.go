package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/lib/pq"

	"osld-portal/internal/models"
)

// NotificationRepository handles notifications and their per-organization read receipts
type NotificationRepository struct {
	db *sql.DB
}

// NewNotificationRepository creates a new notification repository
func NewNotificationRepository(db *sql.DB) *NotificationRepository {
	return &NotificationRepository{db: db}
}

// Create inserts a notification
func (r *NotificationRepository) Create(ctx context.Context, n *models.Notification) error {
	query := `
		INSERT INTO notifications (event_id, report_kind, title, description, created_by, target_org)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at
	`

	err := r.db.QueryRowContext(ctx, query,
		n.EventID,
		n.ReportKind,
		n.Title,
		n.Description,
		n.CreatedBy,
		n.TargetOrg,
	).Scan(&n.ID, &n.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create notification: %w", err)
	}

	return nil
}

// ListForOrganization returns notifications addressed to any of targets,
// newest first, with the read status of reader
func (r *NotificationRepository) ListForOrganization(ctx context.Context, reader string, targets []string) ([]models.NotificationWithReadStatus, error) {
	query := `
		SELECT n.id, n.event_id, n.report_kind, n.title, n.description, n.created_by,
		       n.target_org, n.created_at, nr.read_at
		FROM notifications n
		LEFT JOIN notification_reads nr
		       ON nr.notification_id = n.id AND nr.organization_code = $1
		WHERE n.target_org = ANY($2)
		ORDER BY n.created_at DESC, n.id DESC
	`

	rows, err := r.db.QueryContext(ctx, query, reader, pq.Array(targets))
	if err != nil {
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}
	defer rows.Close()

	notifications := []models.NotificationWithReadStatus{}
	for rows.Next() {
		var n models.NotificationWithReadStatus
		if err := rows.Scan(
			&n.ID,
			&n.EventID,
			&n.ReportKind,
			&n.Title,
			&n.Description,
			&n.CreatedBy,
			&n.TargetOrg,
			&n.CreatedAt,
			&n.ReadAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan notification: %w", err)
		}
		n.Read = n.ReadAt != nil
		notifications = append(notifications, n)
	}

	return notifications, rows.Err()
}

// GetByID retrieves a notification, nil if it does not exist
func (r *NotificationRepository) GetByID(ctx context.Context, id uint) (*models.Notification, error) {
	query := `
		SELECT id, event_id, report_kind, title, description, created_by, target_org, created_at
		FROM notifications
		WHERE id = $1
	`

	var n models.Notification
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&n.ID,
		&n.EventID,
		&n.ReportKind,
		&n.Title,
		&n.Description,
		&n.CreatedBy,
		&n.TargetOrg,
		&n.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get notification: %w", err)
	}

	return &n, nil
}

// MarkRead records a read receipt. Marking twice keeps the first receipt.
func (r *NotificationRepository) MarkRead(ctx context.Context, notificationID uint, reader string) error {
	query := `
		INSERT INTO notification_reads (notification_id, organization_code)
		VALUES ($1, $2)
		ON CONFLICT (notification_id, organization_code) DO NOTHING
	`
	if _, err := r.db.ExecContext(ctx, query, notificationID, reader); err != nil {
		return fmt.Errorf("failed to mark notification as read: %w", err)
	}
	return nil
}

// ExistsSince reports whether a notification for (event, kind, target) was
// created at or after since
func (r *NotificationRepository) ExistsSince(ctx context.Context, eventID uint, kind models.ReportKind, targetOrg string, since time.Time) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM notifications
			WHERE event_id = $1 AND report_kind = $2 AND target_org = $3 AND created_at >= $4
		)
	`

	var exists bool
	if err := r.db.QueryRowContext(ctx, query, eventID, kind, targetOrg, since).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check notifications: %w", err)
	}
	return exists, nil
}

// CountForEvent counts notifications for (event, kind, target)
func (r *NotificationRepository) CountForEvent(ctx context.Context, eventID uint, kind models.ReportKind, targetOrg string) (int, error) {
	query := `
		SELECT COUNT(*) FROM notifications
		WHERE event_id = $1 AND report_kind = $2 AND target_org = $3
	`

	var count int
	if err := r.db.QueryRowContext(ctx, query, eventID, kind, targetOrg).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count notifications: %w", err)
	}
	return count, nil
}
