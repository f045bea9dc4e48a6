package deadline

import (
	"slices"

	"osld-portal/internal/models"
)

// Role is the closed set of viewer roles
type Role string

const (
	// RoleReviewingOffice approves appeals and sets overrides
	RoleReviewingOffice Role = "reviewing_office"
	// RoleIntermediary oversees subordinate councils and may notify on their behalf
	RoleIntermediary Role = "intermediary"
	// RoleOrganization is an end organization that files reports and appeals
	RoleOrganization Role = "organization"
)

// Valid reports whether r is one of the known roles
func (r Role) Valid() bool {
	switch r {
	case RoleReviewingOffice, RoleIntermediary, RoleOrganization:
		return true
	}
	return false
}

// Relation is how a viewer relates to one deadline occurrence
type Relation string

const (
	RelationNone            Relation = "none"
	RelationReviewingOffice Relation = "reviewing_office"
	RelationTarget          Relation = "target"
	RelationIntermediary    Relation = "intermediary"
)

// Viewer is the organization looking at deadlines
type Viewer struct {
	Organization models.Organization
	Role         Role
	Overseen     []string // codes of organizations this viewer oversees
}

// NewViewer derives the viewer role from the organization kind.
// reviewingOffice is the code of the office with approval authority.
func NewViewer(org models.Organization, reviewingOffice string, overseen []string) Viewer {
	role := RoleOrganization
	switch {
	case org.Code == reviewingOffice:
		role = RoleReviewingOffice
	case org.Kind == models.KindStudentGovernment || len(overseen) > 0:
		role = RoleIntermediary
	}
	return Viewer{Organization: org, Role: role, Overseen: overseen}
}

// Code is the viewer's organization code
func (v Viewer) Code() string {
	return v.Organization.Code
}

// Oversees reports whether the viewer is the intermediary for org
func (v Viewer) Oversees(org string) bool {
	return slices.Contains(v.Overseen, org)
}

// RelationTo classifies the viewer against an event target
func (v Viewer) RelationTo(target string) Relation {
	if v.Role == RoleReviewingOffice {
		return RelationReviewingOffice
	}
	if TargetIncludes(target, v.Organization) {
		return RelationTarget
	}
	if v.Role == RoleIntermediary && v.Oversees(target) {
		return RelationIntermediary
	}
	return RelationNone
}

// CanNotify reports whether the viewer may send a reminder for an occurrence
func (v Viewer) CanNotify(rel Relation) bool {
	return rel == RelationReviewingOffice || rel == RelationIntermediary
}

// TargetIncludes reports whether org is covered by an event target, either
// directly or through the ALL and Accredited Organizations sentinels
func TargetIncludes(target string, org models.Organization) bool {
	switch target {
	case org.Code:
		return true
	case models.TargetAll:
		return true
	case models.TargetAccreditedOrganizations:
		return org.Kind == models.KindAccredited
	}
	return false
}

// NotificationTargets lists the target_org values whose notifications reach org
func NotificationTargets(org models.Organization) []string {
	targets := []string{org.Code, models.TargetAll}
	if org.Kind == models.KindAccredited {
		targets = append(targets, models.TargetAccreditedOrganizations)
	}
	return targets
}
