// Package domain defines the closed enumerations and transition rules for
// the lead lifecycle. Statuses were historically free-form strings; they are
// modeled here as a closed set so illegal states cannot be constructed.
package domain

import "fmt"

// Status is the lead's position in the sales pipeline.
type Status string

const (
	StatusNew       Status = "new"
	StatusRinging   Status = "ringing"
	StatusContacted Status = "contacted"
	StatusHold      Status = "hold"
	StatusTransit   Status = "transit"
	StatusDeclined  Status = "declined"
	StatusCompleted Status = "completed"
)

// AllStatuses lists every valid lead status.
var AllStatuses = []Status{
	StatusNew, StatusRinging, StatusContacted, StatusHold,
	StatusTransit, StatusDeclined, StatusCompleted,
}

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	for _, known := range AllStatuses {
		if s == known {
			return true
		}
	}
	return false
}

// ParseStatus converts a raw string into a Status.
func ParseStatus(raw string) (Status, error) {
	s := Status(raw)
	if !s.Valid() {
		return "", fmt.Errorf("unknown lead status %q", raw)
	}
	return s, nil
}

// PropertyType classifies the lead's property.
type PropertyType string

const (
	PropertyResidential PropertyType = "residential"
	PropertyCommercial  PropertyType = "commercial"
	PropertyIndustrial  PropertyType = "industrial"
)

// CustomerIDPrefix returns the business-key prefix used when a lead of this
// property type converts to a customer.
func (p PropertyType) CustomerIDPrefix() string {
	switch p {
	case PropertyResidential:
		return "RE"
	case PropertyCommercial:
		return "CO"
	case PropertyIndustrial:
		return "IN"
	default:
		return "CU"
	}
}

// Likelihood grades how promising a lead is.
type Likelihood string

const (
	LikelihoodHot  Likelihood = "hot"
	LikelihoodWarm Likelihood = "warm"
	LikelihoodCold Likelihood = "cold"
)

// Role identifies a user's position in the sales organization.
type Role string

const (
	RoleSalesman     Role = "salesman"
	RoleCallOperator Role = "call_operator"
	RoleTechnician   Role = "technician"
	RoleTeamLead     Role = "team_lead"
	RoleSuperAdmin   Role = "super_admin"
)

// Assignable reports whether leads can be assigned to this role's slot.
func (r Role) Assignable() bool {
	return r == RoleCallOperator || r == RoleTechnician
}

// StatusOnAssign returns the status a lead takes when assigned to this role:
// handing a lead to an operator restarts the call cycle, handing it to a
// technician puts it in transit for a site visit.
func (r Role) StatusOnAssign() Status {
	if r == RoleTechnician {
		return StatusTransit
	}
	return StatusNew
}

// TransitionEffect describes the derived side effects a transition into a
// given status carries. The pipeline deliberately allows any status to be set
// from any other; effects, not an adjacency table, are what differ per target.
type TransitionEffect struct {
	// NotesToCallNotes routes supplied notes into the lead's call_notes.
	NotesToCallNotes bool
	// NotesToVisitNotes routes supplied notes into the lead's visit_notes.
	NotesToVisitNotes bool
	// StampsCallOperator records the acting user as the lead's call operator.
	StampsCallOperator bool
	// AcceptsCallLater means a call-later date/reason may accompany the
	// transition and must produce a call-later log entry.
	AcceptsCallLater bool
}

// EffectFor returns the side effects of transitioning into target.
func EffectFor(target Status) TransitionEffect {
	switch target {
	case StatusContacted:
		return TransitionEffect{NotesToCallNotes: true, StampsCallOperator: true}
	case StatusTransit, StatusCompleted:
		return TransitionEffect{NotesToVisitNotes: true}
	case StatusHold:
		return TransitionEffect{AcceptsCallLater: true}
	default:
		return TransitionEffect{}
	}
}

// CheckTransition enforces the completed/customer invariant: a lead may only
// become completed through conversion (which links a customer), and a
// converted lead never leaves completed.
func CheckTransition(current, target Status, hasCustomer bool) error {
	if target == StatusCompleted && !hasCustomer {
		return fmt.Errorf("lead must be converted to a customer before it can be completed")
	}
	if current == StatusCompleted && hasCustomer && target != StatusCompleted {
		return fmt.Errorf("a completed lead with a customer record cannot change status")
	}
	return nil
}
