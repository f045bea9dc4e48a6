package models

import (
	"strings"
	"time"
)

// Target sentinels for an event's target organization
const (
	TargetAll                     = "ALL"
	TargetAccreditedOrganizations = "AO"
)

// OrganizationKind classifies an organization in the governance hierarchy
type OrganizationKind string

const (
	KindOffice            OrganizationKind = "office"
	KindStudentGovernment OrganizationKind = "student_government"
	KindCouncil           OrganizationKind = "council"
	KindAccredited        OrganizationKind = "accredited"
)

// Organization represents an office, council or accredited organization
type Organization struct {
	Code         string           `json:"code" db:"code"`
	Name         string           `json:"name" db:"name"`
	Kind         OrganizationKind `json:"kind" db:"kind"`
	ParentCode   *string          `json:"parent_code,omitempty" db:"parent_code"` // Overseeing organization, e.g. USG for LSG
	ContactEmail string           `json:"contact_email,omitempty" db:"contact_email"`
	CreatedAt    time.Time        `json:"created_at" db:"created_at"`
}

// Account is a login bound to exactly one organization
type Account struct {
	ID               uint       `json:"id" db:"id"`
	OrganizationCode string     `json:"organization_code" db:"organization_code"`
	Email            string     `json:"email" db:"email"`
	PasswordHash     string     `json:"-" db:"password_hash"`
	IsActive         bool       `json:"is_active" db:"is_active"`
	LastLoginAt      *time.Time `json:"last_login_at,omitempty" db:"last_login_at"`
	CreatedAt        time.Time  `json:"created_at" db:"created_at"`
}

// ReportKind identifies which post-activity report a deadline is for
type ReportKind string

const (
	ReportAccomplishment ReportKind = "accomplishment"
	ReportLiquidation    ReportKind = "liquidation"
)

// ReportKinds lists the report kinds in display order
var ReportKinds = []ReportKind{ReportAccomplishment, ReportLiquidation}

// Valid reports whether k is a known report kind
func (k ReportKind) Valid() bool {
	return k == ReportAccomplishment || k == ReportLiquidation
}

// Keyword is the lowercase word used to recognise the kind inside free-text titles
func (k ReportKind) Keyword() string {
	return string(k)
}

// Label returns the human readable report name
func (k ReportKind) Label() string {
	switch k {
	case ReportAccomplishment:
		return "Accomplishment Report"
	case ReportLiquidation:
		return "Liquidation Report"
	}
	return string(k)
}

// SubmissionType returns the submission type that satisfies this report kind
func (k ReportKind) SubmissionType() SubmissionType {
	switch k {
	case ReportAccomplishment:
		return SubmissionAccomplishmentReport
	case ReportLiquidation:
		return SubmissionLiquidationReport
	}
	return ""
}

// SubmissionType is the document type of a submission
type SubmissionType string

const (
	SubmissionRequestToConduct     SubmissionType = "Request to Conduct Activity"
	SubmissionAccomplishmentReport SubmissionType = "Accomplishment Report"
	SubmissionLiquidationReport    SubmissionType = "Liquidation Report"
	SubmissionLetterOfAppeal       SubmissionType = "Letter of Appeal"
)

// SubmissionStatus is the review status of a submission
type SubmissionStatus string

const (
	StatusPending     SubmissionStatus = "Pending"
	StatusSubmitted   SubmissionStatus = "Submitted"
	StatusForRevision SubmissionStatus = "For Revision"
	StatusApproved    SubmissionStatus = "Approved"
)

// Valid reports whether s is a known submission status
func (s SubmissionStatus) Valid() bool {
	switch s {
	case StatusPending, StatusSubmitted, StatusForRevision, StatusApproved:
		return true
	}
	return false
}

// Event is a scheduled activity owned by the reviewing office
type Event struct {
	ID                             uint       `json:"id" db:"id"`
	Title                          string     `json:"title" db:"title"`
	Description                    string     `json:"description" db:"description"`
	StartDate                      time.Time  `json:"start_date" db:"start_date"`
	EndDate                        *time.Time `json:"end_date,omitempty" db:"end_date"`
	AllDay                         bool       `json:"all_day" db:"all_day"`
	StartTime                      *string    `json:"start_time,omitempty" db:"start_time"` // HH:MM
	EndTime                        *string    `json:"end_time,omitempty" db:"end_time"`     // HH:MM
	TargetOrganization             string     `json:"target_organization" db:"target_organization"`
	RequiresAccomplishment         bool       `json:"requires_accomplishment" db:"requires_accomplishment"`
	RequiresLiquidation            bool       `json:"requires_liquidation" db:"requires_liquidation"`
	AccomplishmentDeadlineOverride *time.Time `json:"accomplishment_deadline_override,omitempty" db:"accomplishment_deadline_override"`
	LiquidationDeadlineOverride    *time.Time `json:"liquidation_deadline_override,omitempty" db:"liquidation_deadline_override"`
	CreatedBy                      string     `json:"created_by" db:"created_by"`
	CreatedAt                      time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt                      time.Time  `json:"updated_at" db:"updated_at"`
}

// Requires reports whether the event obliges its target to file the given report
func (e *Event) Requires(kind ReportKind) bool {
	switch kind {
	case ReportAccomplishment:
		return e.RequiresAccomplishment
	case ReportLiquidation:
		return e.RequiresLiquidation
	}
	return false
}

// Override returns the deadline override for the given report kind, if any
func (e *Event) Override(kind ReportKind) *time.Time {
	switch kind {
	case ReportAccomplishment:
		return e.AccomplishmentDeadlineOverride
	case ReportLiquidation:
		return e.LiquidationDeadlineOverride
	}
	return nil
}

// Submission is a document filed by an organization
type Submission struct {
	ID             uint             `json:"id" db:"id"`
	Organization   string           `json:"organization" db:"organization"`
	Type           SubmissionType   `json:"type" db:"type"`
	ActivityTitle  string           `json:"activity_title" db:"activity_title"`
	ActivityDate   *time.Time       `json:"activity_date,omitempty" db:"activity_date"`
	ActivityVenue  string           `json:"activity_venue,omitempty" db:"activity_venue"`
	FileURL        string           `json:"file_url" db:"file_url"`
	FileObjectID   string           `json:"-" db:"file_object_id"`
	Status         SubmissionStatus `json:"status" db:"status"`
	SubmittedTo    string           `json:"submitted_to" db:"submitted_to"`
	EventID        *uint            `json:"event_id,omitempty" db:"event_id"`
	ReportKind     *ReportKind      `json:"report_kind,omitempty" db:"report_kind"`
	RevisionReason *string          `json:"revision_reason,omitempty" db:"revision_reason"`
	SubmittedAt    time.Time        `json:"submitted_at" db:"submitted_at"`
	UpdatedAt      time.Time        `json:"updated_at" db:"updated_at"`
}

// IsFor reports whether the submission concerns the given event and report kind.
// Rows written before report_kind existed are matched by a case-insensitive
// keyword inside the activity title.
func (s *Submission) IsFor(eventID uint, kind ReportKind) bool {
	if s.EventID == nil || *s.EventID != eventID {
		return false
	}
	if s.ReportKind != nil {
		return *s.ReportKind == kind
	}
	return strings.Contains(strings.ToLower(s.ActivityTitle), kind.Keyword())
}

// Returned reports whether the reviewing office sent the submission back for
// revision. A returned submission no longer counts as filed.
func (s *Submission) Returned() bool {
	return s.Status == StatusForRevision
}

// Notification is a one-way message addressed to an organization or to ALL
type Notification struct {
	ID          uint        `json:"id" db:"id"`
	EventID     *uint       `json:"event_id,omitempty" db:"event_id"`
	ReportKind  *ReportKind `json:"report_kind,omitempty" db:"report_kind"`
	Title       string      `json:"title" db:"title"`
	Description string      `json:"description" db:"description"`
	CreatedBy   string      `json:"created_by" db:"created_by"`
	TargetOrg   string      `json:"target_org" db:"target_org"`
	CreatedAt   time.Time   `json:"created_at" db:"created_at"`
}

// NotificationWithReadStatus is a notification as seen by one organization
type NotificationWithReadStatus struct {
	Notification
	Read   bool       `json:"read"`
	ReadAt *time.Time `json:"read_at,omitempty"`
}

// AuditLog represents an audit log entry
type AuditLog struct {
	ID               uint      `json:"id" db:"id"`
	AccountID        *uint     `json:"account_id,omitempty" db:"account_id"`
	OrganizationCode *string   `json:"organization_code,omitempty" db:"organization_code"`
	Action           string    `json:"action" db:"action"`
	Resource         string    `json:"resource" db:"resource"`
	Details          string    `json:"details,omitempty" db:"details"`
	IPAddress        string    `json:"ip_address,omitempty" db:"ip_address"`
	UserAgent        string    `json:"user_agent,omitempty" db:"user_agent"`
	CreatedAt        time.Time `json:"created_at" db:"created_at"`
}

// AuditLogFilter narrows the audit log listing
type AuditLogFilter struct {
	OrganizationCode string
	Action           string
	Limit            int
	Offset           int
}

// EventFilter narrows the event listing
type EventFilter struct {
	TargetOrganizations []string
	From                *time.Time
	To                  *time.Time
}

// SubmissionFilter narrows the submission listing
type SubmissionFilter struct {
	Organization string
	SubmittedTo  string
	Type         SubmissionType
	EventID      *uint
}
