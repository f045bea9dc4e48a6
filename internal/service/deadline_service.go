package service

import (
	"context"
	"fmt"
	"time"

	"osld-portal/internal/appeal"
	"osld-portal/internal/deadline"
	"osld-portal/internal/models"
)

// DeadlineService projects report deadlines and resolves their appeal state
type DeadlineService struct {
	eventRepo       EventStore
	orgRepo         OrganizationStore
	projector       *deadline.Projector
	resolver        *appeal.Resolver
	reviewingOffice string
}

// NewDeadlineService creates a new deadline service
func NewDeadlineService(
	eventRepo EventStore,
	orgRepo OrganizationStore,
	projector *deadline.Projector,
	resolver *appeal.Resolver,
	reviewingOffice string,
) *DeadlineService {
	return &DeadlineService{
		eventRepo:       eventRepo,
		orgRepo:         orgRepo,
		projector:       projector,
		resolver:        resolver,
		reviewingOffice: reviewingOffice,
	}
}

// ReviewingOffice is the code of the office that approves appeals
func (s *DeadlineService) ReviewingOffice() string {
	return s.reviewingOffice
}

// Viewer builds the viewer for an organization code
func (s *DeadlineService) Viewer(ctx context.Context, orgCode string) (deadline.Viewer, error) {
	org, err := s.orgRepo.GetByCode(ctx, orgCode)
	if err != nil {
		return deadline.Viewer{}, fmt.Errorf("failed to get organization: %w", err)
	}
	if org == nil {
		return deadline.Viewer{}, ErrNotFound
	}
	return s.viewerFor(ctx, *org)
}

func (s *DeadlineService) viewerFor(ctx context.Context, org models.Organization) (deadline.Viewer, error) {
	children, err := s.orgRepo.ListChildren(ctx, org.Code)
	if err != nil {
		return deadline.Viewer{}, fmt.Errorf("failed to list overseen organizations: %w", err)
	}

	overseen := make([]string, 0, len(children))
	for _, c := range children {
		overseen = append(overseen, c.Code)
	}
	return deadline.NewViewer(org, s.reviewingOffice, overseen), nil
}

// Viewers builds a viewer for every registered organization
func (s *DeadlineService) Viewers(ctx context.Context) ([]deadline.Viewer, error) {
	orgs, err := s.orgRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list organizations: %w", err)
	}

	viewers := make([]deadline.Viewer, 0, len(orgs))
	for _, org := range orgs {
		v, err := s.viewerFor(ctx, org)
		if err != nil {
			return nil, err
		}
		viewers = append(viewers, v)
	}
	return viewers, nil
}

// eventFilterFor limits events to those the viewer may relate to. The
// reviewing office sees every event.
func eventFilterFor(viewer deadline.Viewer) models.EventFilter {
	filter := models.EventFilter{}
	if viewer.Role != deadline.RoleReviewingOffice {
		filter.TargetOrganizations = append(deadline.NotificationTargets(viewer.Organization), viewer.Overseen...)
	}
	return filter
}

func (s *DeadlineService) eventsFor(ctx context.Context, viewer deadline.Viewer) ([]models.Event, error) {
	events, err := s.eventRepo.List(ctx, eventFilterFor(viewer))
	if err != nil {
		return nil, fmt.Errorf("failed to list events: %w", err)
	}
	return events, nil
}

// Occurrences projects every deadline the viewer can see, optionally limited
// to due dates within [from, to]
func (s *DeadlineService) Occurrences(ctx context.Context, viewer deadline.Viewer, from, to *time.Time) ([]deadline.Occurrence, []models.Event, error) {
	events, err := s.eventsFor(ctx, viewer)
	if err != nil {
		return nil, nil, err
	}

	all := s.projector.Project(events, viewer)
	occurrences := make([]deadline.Occurrence, 0, len(all))
	for _, occ := range all {
		if from != nil && occ.DueDate.Before(*from) {
			continue
		}
		if to != nil && occ.DueDate.After(*to) {
			continue
		}
		occurrences = append(occurrences, occ)
	}
	return occurrences, events, nil
}

// ListDeadlines resolves the state of every deadline the viewer can see
func (s *DeadlineService) ListDeadlines(ctx context.Context, viewer deadline.Viewer, from, to *time.Time) ([]appeal.Resolution, error) {
	occurrences, events, err := s.Occurrences(ctx, viewer, from, to)
	if err != nil {
		return nil, err
	}

	byID := make(map[uint]*models.Event, len(events))
	for i := range events {
		byID[events[i].ID] = &events[i]
	}

	resolutions := make([]appeal.Resolution, 0, len(occurrences))
	for _, occ := range occurrences {
		res, err := s.resolver.Resolve(ctx, byID[occ.EventID], occ, viewer)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve deadline state: %w", err)
		}
		resolutions = append(resolutions, *res)
	}
	return resolutions, nil
}

// State resolves a single occurrence. A deleted event or a report kind the
// event does not require yields ErrNotFound.
func (s *DeadlineService) State(ctx context.Context, viewer deadline.Viewer, eventID uint, kind models.ReportKind) (*appeal.Resolution, error) {
	event, occ, err := s.find(ctx, viewer, eventID, kind)
	if err != nil {
		return nil, err
	}

	res, err := s.resolver.Resolve(ctx, event, occ, viewer)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve deadline state: %w", err)
	}
	return res, nil
}

// find loads an event and projects the occurrence of kind for viewer
func (s *DeadlineService) find(ctx context.Context, viewer deadline.Viewer, eventID uint, kind models.ReportKind) (*models.Event, deadline.Occurrence, error) {
	if !kind.Valid() {
		return nil, deadline.Occurrence{}, invalid("report_kind", "report_kind must be accomplishment or liquidation")
	}

	event, err := s.eventRepo.GetByID(ctx, eventID)
	if err != nil {
		return nil, deadline.Occurrence{}, fmt.Errorf("failed to get event: %w", err)
	}
	if event == nil {
		return nil, deadline.Occurrence{}, ErrNotFound
	}

	occ, ok := s.projector.Find(event, kind, viewer)
	if !ok {
		return nil, deadline.Occurrence{}, ErrNotFound
	}
	return event, occ, nil
}
