// Package transport defines the wire DTOs for the customers API.
package transport

import (
	"time"

	"fieldcrm_backend/internal/customers/repository"

	"github.com/google/uuid"
)

type ConvertLeadRequest struct {
	Email                   string   `json:"email" validate:"required,email"`
	ElectricityBillNumber   string   `json:"electricity_bill_number" validate:"required,min=3,max=50"`
	AverageUsage            float64  `json:"average_usage" validate:"required,gt=0"`
	CustomerNeeds           string   `json:"customer_needs" validate:"required,min=3,max=1000"`
	HasPaidFirstInstallment bool     `json:"has_paid_first_installment"`
	PaymentMethod           *string  `json:"payment_method,omitempty" validate:"omitempty,oneof=cash upi card loan"`
	LoanProvider            *string  `json:"loan_provider,omitempty" validate:"omitempty,min=2,max=100"`
	LoanAmount              *float64 `json:"loan_amount,omitempty" validate:"omitempty,gt=0"`
	LoanAccountNumber       *string  `json:"loan_account_number,omitempty" validate:"omitempty,min=3,max=50"`
}

type CustomerResponse struct {
	ID                      uuid.UUID `json:"id"`
	CustomerID              string    `json:"customer_id"`
	LeadID                  uuid.UUID `json:"lead_id"`
	Name                    string    `json:"name"`
	PhoneNumber             string    `json:"phone_number"`
	AdditionalPhone         *string   `json:"additional_phone,omitempty"`
	Email                   string    `json:"email"`
	Address                 string    `json:"address"`
	PropertyType            string    `json:"property_type"`
	Status                  string    `json:"status"`
	ProjectStatus           *string   `json:"project_status,omitempty"`
	ElectricityBillNumber   string    `json:"electricity_bill_number"`
	AverageUsage            float64   `json:"average_usage"`
	CustomerNeeds           string    `json:"customer_needs"`
	HasPaidFirstInstallment bool      `json:"has_paid_first_installment"`
	PaymentMethod           *string   `json:"payment_method,omitempty"`
	LoanProvider            *string   `json:"loan_provider,omitempty"`
	LoanAmount              *float64  `json:"loan_amount,omitempty"`
	LoanAccountNumber       *string   `json:"loan_account_number,omitempty"`
	ConvertedAt             time.Time `json:"converted_at"`
	CreatedAt               time.Time `json:"created_at"`
}

type CustomerListResponse struct {
	Customers []CustomerResponse `json:"customers"`
	Total     int                `json:"total"`
	Page      int                `json:"page"`
	PageSize  int                `json:"page_size"`
}

func ToCustomerResponse(c repository.Customer) CustomerResponse {
	return CustomerResponse{
		ID:                      c.ID,
		CustomerID:              c.CustomerID,
		LeadID:                  c.LeadID,
		Name:                    c.Name,
		PhoneNumber:             c.PhoneNumber,
		AdditionalPhone:         c.AdditionalPhone,
		Email:                   c.Email,
		Address:                 c.Address,
		PropertyType:            string(c.PropertyType),
		Status:                  c.Status,
		ProjectStatus:           c.ProjectStatus,
		ElectricityBillNumber:   c.ElectricityBillNumber,
		AverageUsage:            c.AverageUsage,
		CustomerNeeds:           c.CustomerNeeds,
		HasPaidFirstInstallment: c.HasPaidFirstInstallment,
		PaymentMethod:           c.PaymentMethod,
		LoanProvider:            c.LoanProvider,
		LoanAmount:              c.LoanAmount,
		LoanAccountNumber:       c.LoanAccountNumber,
		ConvertedAt:             c.ConvertedAt,
		CreatedAt:               c.CreatedAt,
	}
}

func ToCustomerResponses(customers []repository.Customer) []CustomerResponse {
	out := make([]CustomerResponse, 0, len(customers))
	for _, c := range customers {
		out = append(out, ToCustomerResponse(c))
	}
	return out
}
