// Package deadline derives report due-dates from governance events.
package deadline

import (
	"sort"
	"time"

	"osld-portal/internal/calendar"
	"osld-portal/internal/models"
)

// ComputeDeadline returns override verbatim when present, otherwise the date
// workingDays working days after eventEnd. Overrides are never checked for
// plausibility.
func ComputeDeadline(eventEnd time.Time, workingDays int, override *time.Time) time.Time {
	if override != nil {
		return *override
	}
	return calendar.AddWorkingDays(calendar.DateOf(eventEnd), workingDays)
}

// Occurrence is a derived due-date for one report kind of one event.
// It is never stored; (EventID, Kind) identifies it.
type Occurrence struct {
	EventID    uint              `json:"event_id"`
	EventTitle string            `json:"event_title"`
	EventEnd   time.Time         `json:"event_end"`
	Kind       models.ReportKind `json:"report_kind"`
	DueDate    time.Time         `json:"due_date"`
	Target     string            `json:"target_organization"`
	Overridden bool              `json:"overridden"`
	Relation   Relation          `json:"relation"`
	MarkerOnly bool              `json:"marker_only"` // calendar colour marker, no reminder text
}

// Key identifies an occurrence
type Key struct {
	EventID uint
	Kind    models.ReportKind
}

// Key returns the identifying pair of the occurrence
func (o Occurrence) Key() Key {
	return Key{EventID: o.EventID, Kind: o.Kind}
}

// IsDueOn reports whether the due date is the calendar day of t, taken in
// t's own location
func (o Occurrence) IsDueOn(t time.Time) bool {
	y1, m1, d1 := o.DueDate.Date()
	y2, m2, d2 := t.Date()
	return y1 == y2 && m1 == m2 && d1 == d2
}

// Projector expands events into deadline occurrences for a viewer
type Projector struct {
	policy Policy
}

// NewProjector creates a projector using the given policy
func NewProjector(policy Policy) *Projector {
	return &Projector{policy: policy}
}

// Policy returns the projector's policy table
func (p *Projector) Policy() Policy {
	return p.policy
}

// Project emits one occurrence per required report kind of every event the
// viewer may see. Results are recomputed on every call and sorted by due date.
func (p *Projector) Project(events []models.Event, viewer Viewer) []Occurrence {
	occurrences := make([]Occurrence, 0, len(events))
	for i := range events {
		occurrences = append(occurrences, p.ProjectEvent(&events[i], viewer)...)
	}

	sort.SliceStable(occurrences, func(i, j int) bool {
		a, b := occurrences[i], occurrences[j]
		if !a.DueDate.Equal(b.DueDate) {
			return a.DueDate.Before(b.DueDate)
		}
		if a.EventID != b.EventID {
			return a.EventID < b.EventID
		}
		return a.Kind < b.Kind
	})
	return occurrences
}

// ProjectEvent returns the occurrences of a single event for the viewer.
// An event without an end date, or one the viewer is unrelated to, yields none.
func (p *Projector) ProjectEvent(event *models.Event, viewer Viewer) []Occurrence {
	if event == nil || event.EndDate == nil {
		return nil
	}

	rel := viewer.RelationTo(event.TargetOrganization)
	if rel == RelationNone {
		return nil
	}

	var out []Occurrence
	for _, kind := range models.ReportKinds {
		if !event.Requires(kind) {
			continue
		}
		override := event.Override(kind)
		out = append(out, Occurrence{
			EventID:    event.ID,
			EventTitle: event.Title,
			EventEnd:   *event.EndDate,
			Kind:       kind,
			DueDate:    ComputeDeadline(*event.EndDate, p.policy.WorkingDays(kind, viewer.Role), override),
			Target:     event.TargetOrganization,
			Overridden: override != nil,
			Relation:   rel,
			MarkerOnly: rel == RelationReviewingOffice,
		})
	}
	return out
}

// Find returns the occurrence of the given kind for a single event
func (p *Projector) Find(event *models.Event, kind models.ReportKind, viewer Viewer) (Occurrence, bool) {
	for _, occ := range p.ProjectEvent(event, viewer) {
		if occ.Kind == kind {
			return occ, true
		}
	}
	return Occurrence{}, false
}
