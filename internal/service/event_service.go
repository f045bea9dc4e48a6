package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"osld-portal/internal/deadline"
	"osld-portal/internal/models"
)

// EventService manages governance events
type EventService struct {
	eventRepo EventStore
	orgRepo   OrganizationStore
	auditSvc  *AuditService
}

// NewEventService creates a new event service
func NewEventService(eventRepo EventStore, orgRepo OrganizationStore, auditSvc *AuditService) *EventService {
	return &EventService{
		eventRepo: eventRepo,
		orgRepo:   orgRepo,
		auditSvc:  auditSvc,
	}
}

// EventInput carries the fields of a new event. Dates are YYYY-MM-DD and
// times HH:MM.
type EventInput struct {
	Title                  string  `json:"title" validate:"notblank,max=255"`
	Description            string  `json:"description" validate:"max=5000"`
	StartDate              string  `json:"start_date" validate:"required,date"`
	EndDate                string  `json:"end_date" validate:"omitempty,date"`
	AllDay                 bool    `json:"all_day"`
	StartTime              *string `json:"start_time" validate:"omitempty,clock"`
	EndTime                *string `json:"end_time" validate:"omitempty,clock"`
	TargetOrganization     string  `json:"target_organization" validate:"notblank"`
	RequiresAccomplishment bool    `json:"requires_accomplishment"`
	RequiresLiquidation    bool    `json:"requires_liquidation"`
}

// EventPatch carries the fields to change; nil fields are left untouched
type EventPatch struct {
	Title                  *string `json:"title" validate:"omitempty,notblank,max=255"`
	Description            *string `json:"description" validate:"omitempty,max=5000"`
	StartDate              *string `json:"start_date" validate:"omitempty,date"`
	EndDate                *string `json:"end_date" validate:"omitempty,date"`
	AllDay                 *bool   `json:"all_day"`
	StartTime              *string `json:"start_time" validate:"omitempty,clock"`
	EndTime                *string `json:"end_time" validate:"omitempty,clock"`
	TargetOrganization     *string `json:"target_organization" validate:"omitempty,notblank"`
	RequiresAccomplishment *bool   `json:"requires_accomplishment"`
	RequiresLiquidation    *bool   `json:"requires_liquidation"`
}

// List returns the events the viewer may relate to
func (s *EventService) List(ctx context.Context, viewer deadline.Viewer) ([]models.Event, error) {
	events, err := s.eventRepo.List(ctx, eventFilterFor(viewer))
	if err != nil {
		return nil, fmt.Errorf("failed to list events: %w", err)
	}
	return events, nil
}

// Create adds an event. Only the reviewing office manages events.
func (s *EventService) Create(ctx context.Context, actor deadline.Viewer, input EventInput, meta RequestMeta) (*models.Event, error) {
	if actor.Role != deadline.RoleReviewingOffice {
		return nil, ErrPermissionDenied
	}
	if err := validate(input); err != nil {
		return nil, err
	}

	event := &models.Event{
		Title:                  strings.TrimSpace(input.Title),
		Description:            input.Description,
		AllDay:                 input.AllDay,
		StartTime:              input.StartTime,
		EndTime:                input.EndTime,
		TargetOrganization:     strings.ToUpper(strings.TrimSpace(input.TargetOrganization)),
		RequiresAccomplishment: input.RequiresAccomplishment,
		RequiresLiquidation:    input.RequiresLiquidation,
		CreatedBy:              actor.Code(),
	}
	event.StartDate, _ = time.Parse(time.DateOnly, input.StartDate)
	if input.EndDate != "" {
		end, _ := time.Parse(time.DateOnly, input.EndDate)
		event.EndDate = &end
	}

	if err := s.check(ctx, event); err != nil {
		return nil, err
	}

	if err := s.eventRepo.Create(ctx, event); err != nil {
		return nil, fmt.Errorf("failed to create event: %w", err)
	}

	slog.Info("Event created", "event_id", event.ID, "target", event.TargetOrganization)
	s.audit(ctx, actor, meta, "event.create", event.ID, event.Title)
	return event, nil
}

// Update applies a partial change to an event. Deadline overrides are only
// written through appeal approval.
func (s *EventService) Update(ctx context.Context, actor deadline.Viewer, id uint, patch EventPatch, meta RequestMeta) (*models.Event, error) {
	if actor.Role != deadline.RoleReviewingOffice {
		return nil, ErrPermissionDenied
	}
	if err := validate(patch); err != nil {
		return nil, err
	}

	event, err := s.eventRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get event: %w", err)
	}
	if event == nil {
		return nil, ErrNotFound
	}

	if patch.Title != nil {
		event.Title = strings.TrimSpace(*patch.Title)
	}
	if patch.Description != nil {
		event.Description = *patch.Description
	}
	if patch.StartDate != nil {
		event.StartDate, _ = time.Parse(time.DateOnly, *patch.StartDate)
	}
	if patch.EndDate != nil {
		if *patch.EndDate == "" {
			event.EndDate = nil
		} else {
			end, _ := time.Parse(time.DateOnly, *patch.EndDate)
			event.EndDate = &end
		}
	}
	if patch.AllDay != nil {
		event.AllDay = *patch.AllDay
	}
	if patch.StartTime != nil {
		event.StartTime = emptyToNil(*patch.StartTime)
	}
	if patch.EndTime != nil {
		event.EndTime = emptyToNil(*patch.EndTime)
	}
	if patch.TargetOrganization != nil {
		event.TargetOrganization = strings.ToUpper(strings.TrimSpace(*patch.TargetOrganization))
	}
	if patch.RequiresAccomplishment != nil {
		event.RequiresAccomplishment = *patch.RequiresAccomplishment
	}
	if patch.RequiresLiquidation != nil {
		event.RequiresLiquidation = *patch.RequiresLiquidation
	}

	if err := s.check(ctx, event); err != nil {
		return nil, err
	}

	if err := s.eventRepo.Update(ctx, event); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to update event: %w", err)
	}

	s.audit(ctx, actor, meta, "event.update", event.ID, event.Title)
	return event, nil
}

// Delete removes an event. Appeals filed for it stay on record; their
// deadlines disappear with the event.
func (s *EventService) Delete(ctx context.Context, actor deadline.Viewer, id uint, meta RequestMeta) error {
	if actor.Role != deadline.RoleReviewingOffice {
		return ErrPermissionDenied
	}

	if err := s.eventRepo.Delete(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		return fmt.Errorf("failed to delete event: %w", err)
	}

	s.audit(ctx, actor, meta, "event.delete", id, "")
	return nil
}

// check enforces the rules that span fields or need a lookup
func (s *EventService) check(ctx context.Context, event *models.Event) error {
	var fields []FieldError

	if event.Title == "" {
		fields = append(fields, FieldError{Field: "title", Message: "title cannot be blank"})
	}
	if event.EndDate != nil && event.EndDate.Before(event.StartDate) {
		fields = append(fields, FieldError{Field: "end_date", Message: "end_date must not be before start_date"})
	}

	switch event.TargetOrganization {
	case models.TargetAll, models.TargetAccreditedOrganizations:
	default:
		org, err := s.orgRepo.GetByCode(ctx, event.TargetOrganization)
		if err != nil {
			return fmt.Errorf("failed to get organization: %w", err)
		}
		if org == nil {
			fields = append(fields, FieldError{Field: "target_organization", Message: "target_organization is not a registered organization"})
		}
	}

	if len(fields) > 0 {
		return &ValidationError{Fields: fields}
	}
	return nil
}

func (s *EventService) audit(ctx context.Context, actor deadline.Viewer, meta RequestMeta, action string, eventID uint, details string) {
	orgCode := actor.Code()
	s.auditSvc.Log(ctx, &models.AuditLog{
		AccountID:        &meta.AccountID,
		OrganizationCode: &orgCode,
		Action:           action,
		Resource:         fmt.Sprintf("event:%d", eventID),
		Details:          details,
		IPAddress:        meta.IPAddress,
		UserAgent:        meta.UserAgent,
	})
}

func emptyToNil(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
