package conversion

import (
	"context"
	"fmt"
	"testing"
	"time"

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

type fakeCustomerStore struct {
	converted []repository.ConvertLeadParams
	calls     int
	seq       int
	convErr   error
}

func (f *fakeCustomerStore) ConvertLead(_ context.Context, params repository.ConvertLeadParams) (repository.Customer, error) {
	f.calls++
	if f.convErr != nil {
		return repository.Customer{}, f.convErr
	}
	f.converted = append(f.converted, params)
	f.seq++
	return repository.Customer{
		ID:           uuid.New(),
		CustomerID:   fmt.Sprintf("%s%03d", params.PropertyType.CustomerIDPrefix(), f.seq),
		LeadID:       params.LeadID,
		Name:         params.Name,
		PhoneNumber:  params.PhoneNumber,
		Email:        params.Email,
		PropertyType: params.PropertyType,
		Status:       repository.StatusActive,
		ConvertedAt:  time.Now(),
	}, nil
}

func (f *fakeCustomerStore) GetByCustomerID(_ context.Context, _ string) (repository.Customer, error) {
	f.calls++
	return repository.Customer{}, repository.ErrNotFound
}

func (f *fakeCustomerStore) List(_ context.Context, _, _ int) ([]repository.Customer, int, error) {
	f.calls++
	return nil, 0, nil
}

type fakeLeadReader struct {
	leads map[uuid.UUID]leadsrepo.Lead
}

func (f *fakeLeadReader) GetByID(_ context.Context, id uuid.UUID) (leadsrepo.Lead, error) {
	lead, ok := f.leads[id]
	if !ok {
		return leadsrepo.Lead{}, leadsrepo.ErrNotFound
	}
	return lead, nil
}

func newTestService(customers *fakeCustomerStore, leads *fakeLeadReader) *Service {
	log := logger.New("development")
	return NewService(customers, leads, events.NewInMemoryBus(log), validator.New(), log)
}

func transitLead() leadsrepo.Lead {
	return leadsrepo.Lead{
		ID:           uuid.New(),
		CustomerName: "Asha Verma",
		PhoneNumber:  "+919876543210",
		Address:      "12 MG Road, Pune",
		PropertyType: domain.PropertyResidential,
		Status:       domain.StatusTransit,
	}
}

func validRequest() transport.ConvertLeadRequest {
	return transport.ConvertLeadRequest{
		Email:                 "asha@example.com",
		ElectricityBillNumber: "MH-4451-2209",
		AverageUsage:          320,
		CustomerNeeds:         "5kW rooftop system",
	}
}

func testActor() domain.Actor {
	return domain.Actor{ID: uuid.New(), Name: "Tech One", Role: domain.RoleTechnician}
}

func strPtr(s string) *string   { return &s }
func f64Ptr(f float64) *float64 { return &f }

func TestConvertSequentialIDs(t *testing.T) {
	store := &fakeCustomerStore{}
	first, second := transitLead(), transitLead()
	reader := &fakeLeadReader{leads: map[uuid.UUID]leadsrepo.Lead{first.ID: first, second.ID: second}}
	svc := newTestService(store, reader)
	actor := testActor()

	a, err := svc.Convert(context.Background(), actor, first.ID, validRequest())
	if err != nil {
		t.Fatalf("first Convert: %v", err)
	}
	b, err := svc.Convert(context.Background(), actor, second.ID, validRequest())
	if err != nil {
		t.Fatalf("second Convert: %v", err)
	}

	if a.CustomerID != "RE001" {
		t.Errorf("first customer id = %q, want RE001", a.CustomerID)
	}
	if b.CustomerID != "RE002" {
		t.Errorf("second customer id = %q, want RE002", b.CustomerID)
	}
}

func TestConvertCarriesContactFromLead(t *testing.T) {
	store := &fakeCustomerStore{}
	lead := transitLead()
	reader := &fakeLeadReader{leads: map[uuid.UUID]leadsrepo.Lead{lead.ID: lead}}
	svc := newTestService(store, reader)

	customer, err := svc.Convert(context.Background(), testActor(), lead.ID, validRequest())
	if err != nil {
		t.Fatalf("Convert: %v", err)
	}
	if customer.Name != lead.CustomerName || customer.PhoneNumber != lead.PhoneNumber {
		t.Errorf("contact fields not carried from lead")
	}
	if store.converted[0].Address != lead.Address {
		t.Errorf("address not carried from lead")
	}
	if customer.Status != repository.StatusActive {
		t.Errorf("new customer status = %q, want active", customer.Status)
	}
	if customer.ConvertedAt.IsZero() {
		t.Errorf("converted_at not stamped")
	}
}

func TestConvertValidationFailureSkipsStore(t *testing.T) {
	store := &fakeCustomerStore{}
	lead := transitLead()
	reader := &fakeLeadReader{leads: map[uuid.UUID]leadsrepo.Lead{lead.ID: lead}}
	svc := newTestService(store, reader)

	req := validRequest()
	req.Email = ""

	_, err := svc.Convert(context.Background(), testActor(), lead.ID, req)
	if !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("err = %v, want validation error", err)
	}
	if store.calls != 0 {
		t.Errorf("store was called %d times on validation failure, want 0", store.calls)
	}
}

func TestConvertInstallmentRequiresPaymentMethod(t *testing.T) {
	store := &fakeCustomerStore{}
	lead := transitLead()
	reader := &fakeLeadReader{leads: map[uuid.UUID]leadsrepo.Lead{lead.ID: lead}}
	svc := newTestService(store, reader)

	req := validRequest()
	req.HasPaidFirstInstallment = true

	_, err := svc.Convert(context.Background(), testActor(), lead.ID, req)
	if !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("err = %v, want validation error for missing payment method", err)
	}
}

func TestConvertLoanRequiresLoanFields(t *testing.T) {
	store := &fakeCustomerStore{}
	lead := transitLead()
	reader := &fakeLeadReader{leads: map[uuid.UUID]leadsrepo.Lead{lead.ID: lead}}
	svc := newTestService(store, reader)

	req := validRequest()
	req.HasPaidFirstInstallment = true
	req.PaymentMethod = strPtr("loan")
	req.LoanProvider = strPtr("SunFin")
	// amount and account number missing

	_, err := svc.Convert(context.Background(), testActor(), lead.ID, req)
	if !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("err = %v, want validation error for incomplete loan details", err)
	}

	req.LoanAmount = f64Ptr(250000)
	req.LoanAccountNumber = strPtr("LN-9912")
	if _, err := svc.Convert(context.Background(), testActor(), lead.ID, req); err != nil {
		t.Fatalf("Convert with complete loan details: %v", err)
	}
}

func TestConvertAlreadyConvertedLeadRejected(t *testing.T) {
	store := &fakeCustomerStore{}
	lead := transitLead()
	existing := "RE007"
	lead.CustomerID = &existing
	reader := &fakeLeadReader{leads: map[uuid.UUID]leadsrepo.Lead{lead.ID: lead}}
	svc := newTestService(store, reader)

	_, err := svc.Convert(context.Background(), testActor(), lead.ID, validRequest())
	if !apperr.Is(err, apperr.KindConflict) {
		t.Fatalf("err = %v, want conflict for already converted lead", err)
	}
	if len(store.converted) != 0 {
		t.Errorf("conversion ran for an already converted lead")
	}
}

func TestConvertLeadNotFound(t *testing.T) {
	svc := newTestService(&fakeCustomerStore{}, &fakeLeadReader{leads: map[uuid.UUID]leadsrepo.Lead{}})

	_, err := svc.Convert(context.Background(), testActor(), uuid.New(), validRequest())
	if !apperr.Is(err, apperr.KindNotFound) {
		t.Fatalf("err = %v, want not found", err)
	}
}

func TestConvertStoreFailureIsConversionFailed(t *testing.T) {
	store := &fakeCustomerStore{convErr: fmt.Errorf("serialization failure")}
	lead := transitLead()
	reader := &fakeLeadReader{leads: map[uuid.UUID]leadsrepo.Lead{lead.ID: lead}}
	svc := newTestService(store, reader)

	_, err := svc.Convert(context.Background(), testActor(), lead.ID, validRequest())
	if !apperr.Is(err, apperr.KindConversionFailed) {
		t.Fatalf("err = %v, want conversion failed", err)
	}
}
