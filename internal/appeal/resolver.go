// Package appeal decides which appeal or reminder state applies to a deadline
// occurrence for a given viewer.
package appeal

import (
	"context"
	"fmt"
	"time"

	"osld-portal/internal/deadline"
	"osld-portal/internal/models"
)

// State is the display state of one deadline occurrence for one viewer
type State string

// States in precedence order, first match wins
const (
	StateDeadlineMet             State = "deadline_met"
	StateTargetOrgAppealApproved State = "target_org_appeal_approved"
	StateOwnAppealApproved       State = "own_appeal_approved"
	StateOwnAppealPending        State = "own_appeal_pending"
	StateNotifyOthersOnBehalf    State = "notify_others_on_behalf"
	StateCanFileAppeal           State = "can_file_appeal"
	StateNoAction                State = "no_action"
)

// Action is something the viewer may do from a state
type Action string

const (
	ActionNotify            Action = "notify_organization"
	ActionFileAppeal        Action = "file_appeal"
	ActionDismiss           Action = "dismiss"
	ActionReviewSubmissions Action = "review_submissions"
	ActionSubmitReport      Action = "submit_report"
)

// SubmissionLister reads submission records
type SubmissionLister interface {
	List(ctx context.Context, filter models.SubmissionFilter) ([]models.Submission, error)
}

// ReminderLookup answers whether a reminder of a given shape already exists
type ReminderLookup interface {
	ExistsSince(ctx context.Context, eventID uint, kind models.ReportKind, targetOrg string, since time.Time) (bool, error)
}

// OrganizationLookup resolves organization codes
type OrganizationLookup interface {
	GetByCode(ctx context.Context, code string) (*models.Organization, error)
}

// Resolution is the outcome of resolving one occurrence
type Resolution struct {
	Occurrence      deadline.Occurrence `json:"occurrence"`
	State           State               `json:"state"`
	Recipient       string              `json:"recipient,omitempty"`
	Appeal          *models.Submission  `json:"appeal,omitempty"`
	AlreadyNotified bool                `json:"already_notified"`
	Message         string              `json:"message"`
	Actions         []Action            `json:"actions"`
}

// Resolver is read-only; it never writes submissions or notifications
type Resolver struct {
	submissions   SubmissionLister
	reminders     ReminderLookup
	organizations OrganizationLookup
	now           func() time.Time
}

// NewResolver creates a new resolver
func NewResolver(submissions SubmissionLister, reminders ReminderLookup, organizations OrganizationLookup) *Resolver {
	return &Resolver{
		submissions:   submissions,
		reminders:     reminders,
		organizations: organizations,
		now:           time.Now,
	}
}

// WithClock replaces the resolver's time source. "Today" is taken in the
// location of the returned times.
func (r *Resolver) WithClock(now func() time.Time) *Resolver {
	r.now = now
	return r
}

// Resolve determines the state of occ for viewer. event must be the
// occurrence's parent event.
func (r *Resolver) Resolve(ctx context.Context, event *models.Event, occ deadline.Occurrence, viewer deadline.Viewer) (*Resolution, error) {
	res := &Resolution{Occurrence: occ, State: StateNoAction}

	switch occ.Relation {
	case deadline.RelationTarget:
		if err := r.resolveTarget(ctx, event, occ, viewer, res); err != nil {
			return nil, err
		}
	case deadline.RelationReviewingOffice:
		if err := r.resolveReviewingOffice(ctx, occ, res); err != nil {
			return nil, err
		}
	case deadline.RelationIntermediary:
		if err := r.resolveIntermediary(ctx, occ, res); err != nil {
			return nil, err
		}
	}

	if res.State == StateNotifyOthersOnBehalf {
		notified, err := r.reminders.ExistsSince(ctx, occ.EventID, occ.Kind, res.Recipient, r.startOfToday())
		if err != nil {
			return nil, fmt.Errorf("failed to check reminders: %w", err)
		}
		res.AlreadyNotified = notified
	}

	res.Message = message(res)
	res.Actions = actions(res)
	return res, nil
}

func (r *Resolver) resolveTarget(ctx context.Context, event *models.Event, occ deadline.Occurrence, viewer deadline.Viewer, res *Resolution) error {
	filed, err := r.reportFiled(ctx, viewer.Code(), occ)
	if err != nil {
		return err
	}
	if filed {
		res.State = StateDeadlineMet
		return nil
	}

	appeal, err := r.findAppeal(ctx, occ, func(org string) (bool, error) {
		return org == viewer.Code(), nil
	})
	if err != nil {
		return err
	}
	if appeal == nil {
		res.State = StateCanFileAppeal
		return nil
	}

	res.Appeal = appeal
	// Override presence wins over the appeal row's own status
	if (event != nil && event.Override(occ.Kind) != nil) || appeal.Status == models.StatusApproved {
		res.State = StateOwnAppealApproved
		return nil
	}
	res.State = StateOwnAppealPending
	return nil
}

func (r *Resolver) resolveReviewingOffice(ctx context.Context, occ deadline.Occurrence, res *Resolution) error {
	appeal, err := r.findAppeal(ctx, occ, r.coveredBy(ctx, occ.Target))
	if err != nil {
		return err
	}
	if appeal != nil {
		res.State = StateTargetOrgAppealApproved
		res.Appeal = appeal
		return nil
	}

	res.State = StateNotifyOthersOnBehalf
	res.Recipient = occ.Target
	return nil
}

func (r *Resolver) resolveIntermediary(ctx context.Context, occ deadline.Occurrence, res *Resolution) error {
	appeal, err := r.findAppeal(ctx, occ, func(org string) (bool, error) {
		return org == occ.Target, nil
	})
	if err != nil {
		return err
	}
	if appeal != nil {
		res.Appeal = appeal
		return nil
	}

	res.State = StateNotifyOthersOnBehalf
	res.Recipient = occ.Target
	return nil
}

// coveredBy returns a predicate matching organizations included in target
func (r *Resolver) coveredBy(ctx context.Context, target string) func(string) (bool, error) {
	return func(code string) (bool, error) {
		switch target {
		case code, models.TargetAll:
			return true, nil
		case models.TargetAccreditedOrganizations:
			org, err := r.organizations.GetByCode(ctx, code)
			if err != nil {
				return false, fmt.Errorf("failed to get organization: %w", err)
			}
			return org != nil && deadline.TargetIncludes(target, *org), nil
		}
		return false, nil
	}
}

// findAppeal returns the earliest appeal for the occurrence filed by an
// organization accepted by match. Appeals sent back for revision are skipped.
func (r *Resolver) findAppeal(ctx context.Context, occ deadline.Occurrence, match func(org string) (bool, error)) (*models.Submission, error) {
	eventID := occ.EventID
	subs, err := r.submissions.List(ctx, models.SubmissionFilter{
		Type:    models.SubmissionLetterOfAppeal,
		EventID: &eventID,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list appeals: %w", err)
	}

	for i := range subs {
		if !subs[i].IsFor(occ.EventID, occ.Kind) || subs[i].Returned() {
			continue
		}
		ok, err := match(subs[i].Organization)
		if err != nil {
			return nil, err
		}
		if ok {
			return &subs[i], nil
		}
	}
	return nil, nil
}

// reportFiled reports whether org has filed the report itself. A report sent
// back for revision does not count.
func (r *Resolver) reportFiled(ctx context.Context, org string, occ deadline.Occurrence) (bool, error) {
	eventID := occ.EventID
	subs, err := r.submissions.List(ctx, models.SubmissionFilter{
		Organization: org,
		Type:         occ.Kind.SubmissionType(),
		EventID:      &eventID,
	})
	if err != nil {
		return false, fmt.Errorf("failed to list reports: %w", err)
	}
	for _, s := range subs {
		if !s.Returned() {
			return true, nil
		}
	}
	return false, nil
}

// startOfToday is midnight in the clock's own location
func (r *Resolver) startOfToday() time.Time {
	now := r.now()
	y, m, d := now.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, now.Location())
}

func message(res *Resolution) string {
	occ := res.Occurrence
	label := occ.Kind.Label()
	due := occ.DueDate.Format("January 2, 2006")

	switch res.State {
	case StateDeadlineMet:
		return fmt.Sprintf("Your %s for %s has been submitted.", label, occ.EventTitle)
	case StateTargetOrgAppealApproved:
		return fmt.Sprintf("%s filed an appeal for the %s of %s. Review it in Submissions.", res.Appeal.Organization, label, occ.EventTitle)
	case StateOwnAppealApproved:
		return fmt.Sprintf("Your appeal for the %s of %s was approved. Submit the report by %s or your organization will be placed on hold.", label, occ.EventTitle, due)
	case StateOwnAppealPending:
		return fmt.Sprintf("Your appeal for the %s of %s is awaiting review.", label, occ.EventTitle)
	case StateNotifyOthersOnBehalf:
		if res.AlreadyNotified {
			return fmt.Sprintf("%s has already been reminded today about the %s of %s.", res.Recipient, label, occ.EventTitle)
		}
		return fmt.Sprintf("The %s of %s for %s is due on %s.", label, occ.EventTitle, res.Recipient, due)
	case StateCanFileAppeal:
		return fmt.Sprintf("The %s of %s is due on %s. If you cannot meet it, you may file a letter of appeal.", label, occ.EventTitle, due)
	}
	return fmt.Sprintf("The %s of %s is due on %s.", label, occ.EventTitle, due)
}

func actions(res *Resolution) []Action {
	switch res.State {
	case StateTargetOrgAppealApproved:
		return []Action{ActionReviewSubmissions}
	case StateOwnAppealApproved:
		return []Action{ActionSubmitReport}
	case StateNotifyOthersOnBehalf:
		if res.AlreadyNotified {
			return []Action{}
		}
		return []Action{ActionNotify}
	case StateCanFileAppeal:
		return []Action{ActionFileAppeal, ActionDismiss}
	}
	return []Action{}
}
