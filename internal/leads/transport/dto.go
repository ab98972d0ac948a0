// Package transport defines the wire DTOs for the leads API. JSON field
// names are snake_case and part of the external contract.
package transport

import (
	"time"

	"fieldcrm_backend/internal/leads/repository"

	"github.com/google/uuid"
)

type CreateLeadRequest struct {
	CustomerName    string  `json:"customer_name" validate:"required,min=2,max=200"`
	PhoneNumber     string  `json:"phone_number" validate:"required,min=7,max=20"`
	AdditionalPhone *string `json:"additional_phone,omitempty" validate:"omitempty,min=7,max=20"`
	Email           *string `json:"email,omitempty" validate:"omitempty,email"`
	Address         string  `json:"address" validate:"required,min=3,max=500"`
	PropertyType    string  `json:"property_type" validate:"required,oneof=residential commercial industrial"`
	Likelihood      string  `json:"likelihood" validate:"required,oneof=hot warm cold"`
	FollowUpDate    *string `json:"follow_up_date,omitempty" validate:"omitempty,datetime=2006-01-02"`
}

type UpdateStatusRequest struct {
	Status          string  `json:"status" validate:"required"`
	Notes           *string `json:"notes,omitempty" validate:"omitempty,max=2000"`
	CallLaterDate   *string `json:"call_later_date,omitempty" validate:"omitempty,datetime=2006-01-02"`
	CallLaterTime   *string `json:"call_later_time,omitempty" validate:"omitempty,max=20"`
	CallLaterReason *string `json:"call_later_reason,omitempty" validate:"omitempty,max=500"`
}

type AssignLeadRequest struct {
	UserID uuid.UUID `json:"user_id" validate:"required"`
	Role   string    `json:"role" validate:"required,oneof=call_operator technician"`
}

type ReassignLeadRequest struct {
	FromUserID uuid.UUID `json:"from_user_id" validate:"required"`
	ToUserID   uuid.UUID `json:"to_user_id" validate:"required"`
}

type BulkAssignRequest struct {
	LeadIDs []uuid.UUID `json:"lead_ids" validate:"dive,required"`
	UserID  uuid.UUID   `json:"user_id" validate:"required"`
	Role    string      `json:"role" validate:"required,oneof=call_operator technician"`
}

type ScheduleCallLaterRequest struct {
	ScheduledDate string  `json:"scheduled_date" validate:"required,datetime=2006-01-02"`
	ScheduledTime *string `json:"scheduled_time,omitempty" validate:"omitempty,max=20"`
	Reason        string  `json:"reason" validate:"required,max=500"`
	Notes         *string `json:"notes,omitempty" validate:"omitempty,max=2000"`
}

type ListLeadsQuery struct {
	Status       string `form:"status"`
	Likelihood   string `form:"likelihood"`
	PropertyType string `form:"property_type"`
	SalesmanID   string `form:"salesman_id"`
	OperatorID   string `form:"call_operator_id"`
	TechnicianID string `form:"technician_id"`
	Search       string `form:"search"`
	Page         int    `form:"page"`
	PageSize     int    `form:"page_size"`
}

type LeadResponse struct {
	ID                  uuid.UUID  `json:"id"`
	CustomerName        string     `json:"customer_name"`
	PhoneNumber         string     `json:"phone_number"`
	AdditionalPhone     *string    `json:"additional_phone,omitempty"`
	Email               *string    `json:"email,omitempty"`
	Address             string     `json:"address"`
	PropertyType        string     `json:"property_type"`
	Likelihood          string     `json:"likelihood"`
	Status              string     `json:"status"`
	SalesmanID          *uuid.UUID `json:"salesman_id,omitempty"`
	SalesmanName        *string    `json:"salesman_name,omitempty"`
	CallOperatorID      *uuid.UUID `json:"call_operator_id,omitempty"`
	CallOperatorName    *string    `json:"call_operator_name,omitempty"`
	TechnicianID        *uuid.UUID `json:"technician_id,omitempty"`
	TechnicianName      *string    `json:"technician_name,omitempty"`
	TeamLeadID          *uuid.UUID `json:"team_lead_id,omitempty"`
	TeamLeadName        *string    `json:"team_lead_name,omitempty"`
	SuperAdminID        *uuid.UUID `json:"super_admin_id,omitempty"`
	SuperAdminName      *string    `json:"super_admin_name,omitempty"`
	CreatedBy           uuid.UUID  `json:"created_by"`
	CreatedByName       string     `json:"created_by_name"`
	CallNotes           *string    `json:"call_notes,omitempty"`
	VisitNotes          *string    `json:"visit_notes,omitempty"`
	FollowUpDate        *string    `json:"follow_up_date,omitempty"`
	ScheduledCallDate   *string    `json:"scheduled_call_date,omitempty"`
	ScheduledCallTime   *string    `json:"scheduled_call_time,omitempty"`
	ScheduledCallReason *string    `json:"scheduled_call_reason,omitempty"`
	CallLaterCount      int        `json:"call_later_count"`
	LastCallLaterDate   *string    `json:"last_call_later_date,omitempty"`
	LastCallLaterReason *string    `json:"last_call_later_reason,omitempty"`
	CustomerID          *string    `json:"customer_id,omitempty"`
	CreatedAt           time.Time  `json:"created_at"`
	UpdatedAt           time.Time  `json:"updated_at"`
}

type LeadListResponse struct {
	Leads    []LeadResponse `json:"leads"`
	Total    int            `json:"total"`
	Page     int            `json:"page"`
	PageSize int            `json:"page_size"`
}

type BulkAssignResponse struct {
	AssignedCount int `json:"assigned_count"`
}

type CallLogResponse struct {
	ID           uuid.UUID `json:"id"`
	LeadID       uuid.UUID `json:"lead_id"`
	OperatorID   uuid.UUID `json:"operator_id"`
	OperatorName string    `json:"operator_name"`
	Outcome      string    `json:"outcome"`
	Notes        *string   `json:"notes,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

type CallLaterLogResponse struct {
	ID               uuid.UUID `json:"id"`
	LeadID           uuid.UUID `json:"lead_id"`
	CallLaterDate    string    `json:"call_later_date"`
	CallLaterTime    *string   `json:"call_later_time,omitempty"`
	Reason           *string   `json:"reason,omitempty"`
	Notes            *string   `json:"notes,omitempty"`
	CallOperatorID   uuid.UUID `json:"call_operator_id"`
	CallOperatorName string    `json:"call_operator_name"`
	CreatedAt        time.Time `json:"created_at"`
}

type StatusCountsResponse struct {
	Counts map[string]int `json:"counts"`
	Total  int            `json:"total"`
}

func dateString(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.Format("2006-01-02")
	return &s
}

func ToLeadResponse(l repository.Lead) LeadResponse {
	return LeadResponse{
		ID:                  l.ID,
		CustomerName:        l.CustomerName,
		PhoneNumber:         l.PhoneNumber,
		AdditionalPhone:     l.AdditionalPhone,
		Email:               l.Email,
		Address:             l.Address,
		PropertyType:        string(l.PropertyType),
		Likelihood:          string(l.Likelihood),
		Status:              string(l.Status),
		SalesmanID:          l.SalesmanID,
		SalesmanName:        l.SalesmanName,
		CallOperatorID:      l.CallOperatorID,
		CallOperatorName:    l.CallOperatorName,
		TechnicianID:        l.TechnicianID,
		TechnicianName:      l.TechnicianName,
		TeamLeadID:          l.TeamLeadID,
		TeamLeadName:        l.TeamLeadName,
		SuperAdminID:        l.SuperAdminID,
		SuperAdminName:      l.SuperAdminName,
		CreatedBy:           l.CreatedBy,
		CreatedByName:       l.CreatedByName,
		CallNotes:           l.CallNotes,
		VisitNotes:          l.VisitNotes,
		FollowUpDate:        dateString(l.FollowUpDate),
		ScheduledCallDate:   dateString(l.ScheduledCallDate),
		ScheduledCallTime:   l.ScheduledCallTime,
		ScheduledCallReason: l.ScheduledCallReason,
		CallLaterCount:      l.CallLaterCount,
		LastCallLaterDate:   dateString(l.LastCallLaterDate),
		LastCallLaterReason: l.LastCallLaterReason,
		CustomerID:          l.CustomerID,
		CreatedAt:           l.CreatedAt,
		UpdatedAt:           l.UpdatedAt,
	}
}

func ToLeadResponses(leads []repository.Lead) []LeadResponse {
	out := make([]LeadResponse, 0, len(leads))
	for _, l := range leads {
		out = append(out, ToLeadResponse(l))
	}
	return out
}

func ToCallLogResponses(logs []repository.CallLog) []CallLogResponse {
	out := make([]CallLogResponse, 0, len(logs))
	for _, l := range logs {
		out = append(out, CallLogResponse{
			ID:           l.ID,
			LeadID:       l.LeadID,
			OperatorID:   l.OperatorID,
			OperatorName: l.OperatorName,
			Outcome:      string(l.Outcome),
			Notes:        l.Notes,
			CreatedAt:    l.CreatedAt,
		})
	}
	return out
}

func ToCallLaterLogResponses(logs []repository.CallLaterLog) []CallLaterLogResponse {
	out := make([]CallLaterLogResponse, 0, len(logs))
	for _, l := range logs {
		out = append(out, CallLaterLogResponse{
			ID:               l.ID,
			LeadID:           l.LeadID,
			CallLaterDate:    l.CallLaterDate.Format("2006-01-02"),
			CallLaterTime:    l.CallLaterTime,
			Reason:           l.Reason,
			Notes:            l.Notes,
			CallOperatorID:   l.CallOperatorID,
			CallOperatorName: l.CallOperatorName,
			CreatedAt:        l.CreatedAt,
		})
	}
	return out
}
