// Package events provides domain event definitions for decoupled,
// event-driven communication between modules.
// Infrastructure (Bus, Handler) is in platform/events.
package events

import (
	"fieldcrm_backend/platform/events"

	"github.com/google/uuid"
)

// Re-export platform types for convenience
type (
	Event       = events.Event
	Bus         = events.Bus
	Handler     = events.Handler
	HandlerFunc = events.HandlerFunc
	BaseEvent   = events.BaseEvent
	InMemoryBus = events.InMemoryBus
)

// Re-export platform functions
var (
	NewBaseEvent   = events.NewBaseEvent
	NewInMemoryBus = events.NewInMemoryBus
)

// =============================================================================
// Lead Lifecycle Events
// =============================================================================

// LeadCreated is published when a new lead passes duplicate detection and is stored.
type LeadCreated struct {
	BaseEvent
	LeadID       uuid.UUID  `json:"lead_id"`
	CustomerName string     `json:"customer_name"`
	PhoneNumber  string     `json:"phone_number"`
	SalesmanID   *uuid.UUID `json:"salesman_id,omitempty"`
	CreatedByID  uuid.UUID  `json:"created_by"`
}

func (e LeadCreated) EventName() string { return "leads.created" }

// DuplicateLeadBlocked is published when the duplicate detector refuses a creation.
type DuplicateLeadBlocked struct {
	BaseEvent
	ExistingLeadID uuid.UUID `json:"existing_lead_id"`
	PhoneNumber    string    `json:"phone_number"`
	AttemptedByID  uuid.UUID `json:"attempted_by"`
}

func (e DuplicateLeadBlocked) EventName() string { return "leads.duplicate_blocked" }

// LeadAssigned is published once per lead on every successful individual or
// bulk assignment, targeted at the new owner.
type LeadAssigned struct {
	BaseEvent
	LeadID       uuid.UUID `json:"lead_id"`
	CustomerName string    `json:"customer_name"`
	TargetUserID uuid.UUID `json:"target_user_id"`
	TargetRole   string    `json:"target_role"`
	AssignedByID uuid.UUID `json:"assigned_by"`
}

func (e LeadAssigned) EventName() string { return "leads.assigned" }

// LeadStatusChanged is published after a status transition is applied.
type LeadStatusChanged struct {
	BaseEvent
	LeadID    uuid.UUID `json:"lead_id"`
	OldStatus string    `json:"old_status"`
	NewStatus string    `json:"new_status"`
	ActorID   uuid.UUID `json:"actor_id"`
}

func (e LeadStatusChanged) EventName() string { return "leads.status_changed" }

// CallLaterScheduled is published when a lead is put on hold with a follow-up date.
type CallLaterScheduled struct {
	BaseEvent
	LeadID        uuid.UUID `json:"lead_id"`
	CallLaterDate string    `json:"call_later_date"`
	Reason        string    `json:"reason"`
	OperatorID    uuid.UUID `json:"call_operator_id"`
}

func (e CallLaterScheduled) EventName() string { return "leads.call_later_scheduled" }

// CallLaterDue is published by the scheduler worker when a lead's scheduled
// call date has arrived; it becomes an in-app reminder for the owner.
type CallLaterDue struct {
	BaseEvent
	LeadID        uuid.UUID `json:"lead_id"`
	CustomerName  string    `json:"customer_name"`
	OperatorID    uuid.UUID `json:"call_operator_id"`
	ScheduledDate string    `json:"scheduled_call_date"`
}

func (e CallLaterDue) EventName() string { return "leads.call_later_due" }

// LeadConverted is published when a transit lead becomes a customer record.
type LeadConverted struct {
	BaseEvent
	LeadID       uuid.UUID  `json:"lead_id"`
	CustomerID   string     `json:"customer_id"`
	CustomerName string     `json:"customer_name"`
	SalesmanID   *uuid.UUID `json:"salesman_id,omitempty"`
	ConvertedBy  uuid.UUID  `json:"converted_by"`
}

func (e LeadConverted) EventName() string { return "leads.converted" }
