package deadline

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"osld-portal/internal/models"
)

// RolePolicy overrides working-day counts for one viewer role
type RolePolicy struct {
	AccomplishmentDays *int `yaml:"accomplishment_days,omitempty" json:"accomplishment_days,omitempty"`
	LiquidationDays    *int `yaml:"liquidation_days,omitempty" json:"liquidation_days,omitempty"`
}

// Policy is the table of working days allowed after an event ends before
// each report is due.
//
// The reviewing office and the organizations have historically computed the
// liquidation deadline with different counts (7 and 5). Both are kept here,
// keyed by role, until a single rule is agreed on.
type Policy struct {
	AccomplishmentDays int                 `yaml:"accomplishment_days" json:"accomplishment_days"`
	LiquidationDays    int                 `yaml:"liquidation_days" json:"liquidation_days"`
	Roles              map[Role]RolePolicy `yaml:"roles,omitempty" json:"roles,omitempty"`
}

// DefaultPolicy returns the observed policy
func DefaultPolicy() Policy {
	officeLiquidation := 7
	return Policy{
		AccomplishmentDays: 3,
		LiquidationDays:    5,
		Roles: map[Role]RolePolicy{
			RoleReviewingOffice: {LiquidationDays: &officeLiquidation},
		},
	}
}

// LoadPolicy reads a YAML policy file. Missing values fall back to DefaultPolicy.
func LoadPolicy(path string) (Policy, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Policy{}, fmt.Errorf("failed to read deadline policy: %w", err)
	}
	return ParsePolicy(data)
}

// ParsePolicy decodes a YAML policy document
func ParsePolicy(data []byte) (Policy, error) {
	p := DefaultPolicy()
	var parsed Policy
	if err := yaml.Unmarshal(data, &parsed); err != nil {
		return Policy{}, fmt.Errorf("failed to parse deadline policy: %w", err)
	}

	if parsed.AccomplishmentDays != 0 {
		p.AccomplishmentDays = parsed.AccomplishmentDays
	}
	if parsed.LiquidationDays != 0 {
		p.LiquidationDays = parsed.LiquidationDays
	}
	if parsed.Roles != nil {
		p.Roles = parsed.Roles
	}

	if err := p.Validate(); err != nil {
		return Policy{}, err
	}
	return p, nil
}

// Validate rejects negative day counts and unknown roles
func (p Policy) Validate() error {
	if p.AccomplishmentDays < 0 || p.LiquidationDays < 0 {
		return fmt.Errorf("deadline policy: working days must not be negative")
	}
	for role, rp := range p.Roles {
		if !role.Valid() {
			return fmt.Errorf("deadline policy: unknown role %q", role)
		}
		if (rp.AccomplishmentDays != nil && *rp.AccomplishmentDays < 0) ||
			(rp.LiquidationDays != nil && *rp.LiquidationDays < 0) {
			return fmt.Errorf("deadline policy: working days for %s must not be negative", role)
		}
	}
	return nil
}

// WorkingDays returns the working-day allowance for a report kind as
// computed on behalf of the given viewer role
func (p Policy) WorkingDays(kind models.ReportKind, role Role) int {
	rp, hasRole := p.Roles[role]
	switch kind {
	case models.ReportAccomplishment:
		if hasRole && rp.AccomplishmentDays != nil {
			return *rp.AccomplishmentDays
		}
		return p.AccomplishmentDays
	case models.ReportLiquidation:
		if hasRole && rp.LiquidationDays != nil {
			return *rp.LiquidationDays
		}
		return p.LiquidationDays
	}
	return 0
}
