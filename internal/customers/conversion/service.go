// Package conversion turns a lead into a customer record: the only path by
// which a lead reaches the completed status.
package conversion

import (
	"context"
	"errors"

	"fieldcrm_backend/internal/customers/repository"
	"fieldcrm_backend/internal/customers/transport"
	"fieldcrm_backend/internal/events"
	"fieldcrm_backend/internal/leads/domain"
	leadsrepo "fieldcrm_backend/internal/leads/repository"
	"fieldcrm_backend/platform/apperr"
	"fieldcrm_backend/platform/logger"
	"fieldcrm_backend/platform/validator"

	"github.com/google/uuid"
)

const paymentMethodLoan = "loan"

type CustomerStore interface {
	ConvertLead(ctx context.Context, params repository.ConvertLeadParams) (repository.Customer, error)
	GetByCustomerID(ctx context.Context, customerID string) (repository.Customer, error)
	List(ctx context.Context, limit, offset int) ([]repository.Customer, int, error)
}

type LeadReader interface {
	GetByID(ctx context.Context, id uuid.UUID) (leadsrepo.Lead, error)
}

type Service struct {
	customers CustomerStore
	leads     LeadReader
	bus       events.Bus
	validate  *validator.Validator
	log       *logger.Logger
}

func NewService(customers CustomerStore, leads LeadReader, bus events.Bus, validate *validator.Validator, log *logger.Logger) *Service {
	return &Service{customers: customers, leads: leads, bus: bus, validate: validate, log: log}
}

// Convert validates the conversion request, checks the lead is convertible
// and runs the transactional conversion. All validation happens before any
// write; a store failure applies nothing.
func (s *Service) Convert(ctx context.Context, actor domain.Actor, leadID uuid.UUID, req transport.ConvertLeadRequest) (repository.Customer, error) {
	if err := s.validate.Struct(req); err != nil {
		return repository.Customer{}, apperr.Validation("invalid conversion data").WithDetails(err.Error())
	}
	if err := checkPaymentRules(req); err != nil {
		return repository.Customer{}, err
	}

	lead, err := s.leads.GetByID(ctx, leadID)
	if errors.Is(err, leadsrepo.ErrNotFound) {
		return repository.Customer{}, apperr.NotFound("lead not found")
	}
	if err != nil {
		return repository.Customer{}, apperr.Persistence("could not load lead", err)
	}
	if lead.CustomerID != nil {
		return repository.Customer{}, apperr.Conflict("lead is already converted")
	}

	customer, err := s.customers.ConvertLead(ctx, repository.ConvertLeadParams{
		LeadID:                  lead.ID,
		Name:                    lead.CustomerName,
		PhoneNumber:             lead.PhoneNumber,
		AdditionalPhone:         lead.AdditionalPhone,
		Email:                   req.Email,
		Address:                 lead.Address,
		PropertyType:            lead.PropertyType,
		ElectricityBillNumber:   req.ElectricityBillNumber,
		AverageUsage:            req.AverageUsage,
		CustomerNeeds:           req.CustomerNeeds,
		HasPaidFirstInstallment: req.HasPaidFirstInstallment,
		PaymentMethod:           req.PaymentMethod,
		LoanProvider:            req.LoanProvider,
		LoanAmount:              req.LoanAmount,
		LoanAccountNumber:       req.LoanAccountNumber,
		CreatedBy:               actor.ID,
		CreatedByName:           actor.Name,
	})
	if errors.Is(err, repository.ErrLeadAlreadyConverted) {
		return repository.Customer{}, apperr.Conflict("lead is already converted")
	}
	if err != nil {
		s.log.DatabaseError("customers.convert", err)
		return repository.Customer{}, apperr.ConversionFailed("could not convert lead to customer", err)
	}

	s.log.LeadEvent("converted", lead.ID.String(), actor.ID.String())
	s.bus.Publish(ctx, events.LeadConverted{
		BaseEvent:    events.NewBaseEvent(),
		LeadID:       lead.ID,
		CustomerID:   customer.CustomerID,
		CustomerName: customer.Name,
		SalesmanID:   lead.SalesmanID,
		ConvertedBy:  actor.ID,
	})
	return customer, nil
}

// checkPaymentRules enforces the installment and loan field dependencies
// that struct tags cannot express.
func checkPaymentRules(req transport.ConvertLeadRequest) error {
	if req.HasPaidFirstInstallment && req.PaymentMethod == nil {
		return apperr.Validation("payment_method is required once the first installment is paid")
	}
	if req.PaymentMethod != nil && *req.PaymentMethod == paymentMethodLoan {
		if req.LoanProvider == nil || req.LoanAmount == nil || req.LoanAccountNumber == nil {
			return apperr.Validation("loan_provider, loan_amount and loan_account_number are required for loan payments")
		}
	}
	return nil
}

func (s *Service) Get(ctx context.Context, customerID string) (repository.Customer, error) {
	customer, err := s.customers.GetByCustomerID(ctx, customerID)
	if errors.Is(err, repository.ErrNotFound) {
		return repository.Customer{}, apperr.NotFound("customer not found")
	}
	if err != nil {
		return repository.Customer{}, apperr.Persistence("could not load customer", err)
	}
	return customer, nil
}

func (s *Service) List(ctx context.Context, page, pageSize int) ([]repository.Customer, int, error) {
	if pageSize <= 0 || pageSize > 100 {
		pageSize = 20
	}
	offset := 0
	if page > 1 {
		offset = (page - 1) * pageSize
	}

	customers, total, err := s.customers.List(ctx, pageSize, offset)
	if err != nil {
		return nil, 0, apperr.Persistence("could not list customers", err)
	}
	return customers, total, nil
}
