package management

import (
	"context"
	"errors"
	"testing"

	"fieldcrm_backend/internal/events"
	"fieldcrm_backend/internal/leads/domain"
	"fieldcrm_backend/internal/leads/repository"
	"fieldcrm_backend/internal/leads/transport"
	"fieldcrm_backend/platform/apperr"
	"fieldcrm_backend/platform/logger"
	"fieldcrm_backend/platform/validator"

	"github.com/google/uuid"
)

type fakeStore struct {
	leads      map[string]repository.Lead
	byPhone    map[string]repository.Lead
	created    []repository.CreateLeadParams
	activities []repository.AddActivityParams
	findErr    error
	createErr  error
	calls      int
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		leads:   map[string]repository.Lead{},
		byPhone: map[string]repository.Lead{},
	}
}

func (f *fakeStore) Create(_ context.Context, params repository.CreateLeadParams) (repository.Lead, error) {
	f.calls++
	if f.createErr != nil {
		return repository.Lead{}, f.createErr
	}
	f.created = append(f.created, params)
	lead := repository.Lead{
		ID:              uuid.New(),
		CustomerName:    params.CustomerName,
		PhoneNumber:     params.PhoneNumber,
		AdditionalPhone: params.AdditionalPhone,
		Status:          domain.StatusNew,
		SalesmanID:      params.SalesmanID,
		SalesmanName:    params.SalesmanName,
		CreatedBy:       params.CreatedBy,
		CreatedByName:   params.CreatedByName,
	}
	f.leads[lead.ID.String()] = lead
	f.byPhone[lead.PhoneNumber] = lead
	return lead, nil
}

func (f *fakeStore) GetByID(_ context.Context, id uuid.UUID) (repository.Lead, error) {
	f.calls++
	lead, ok := f.leads[id.String()]
	if !ok {
		return repository.Lead{}, repository.ErrNotFound
	}
	return lead, nil
}

func (f *fakeStore) FindByPhone(_ context.Context, phone string) (repository.Lead, error) {
	f.calls++
	if f.findErr != nil {
		return repository.Lead{}, f.findErr
	}
	lead, ok := f.byPhone[phone]
	if !ok {
		return repository.Lead{}, repository.ErrNotFound
	}
	return lead, nil
}

func (f *fakeStore) List(_ context.Context, _ repository.ListParams) ([]repository.Lead, int, error) {
	f.calls++
	return nil, 0, nil
}

func (f *fakeStore) ListUnassigned(_ context.Context, _ repository.UnassignedFilter, _, _ int) ([]repository.Lead, int, error) {
	f.calls++
	return nil, 0, nil
}

func (f *fakeStore) CountUnassigned(_ context.Context, _ repository.UnassignedFilter) (int, error) {
	f.calls++
	return 0, nil
}

func (f *fakeStore) CountByStatus(_ context.Context) (map[domain.Status]int, error) {
	f.calls++
	return map[domain.Status]int{domain.StatusNew: 2, domain.StatusHold: 1}, nil
}

func (f *fakeStore) AddActivity(_ context.Context, params repository.AddActivityParams) error {
	f.activities = append(f.activities, params)
	return nil
}

func (f *fakeStore) ListActivity(_ context.Context, _ uuid.UUID) ([]repository.Activity, error) {
	return nil, nil
}

func (f *fakeStore) Delete(_ context.Context, id uuid.UUID) error {
	f.calls++
	if _, ok := f.leads[id.String()]; !ok {
		return repository.ErrNotFound
	}
	delete(f.leads, id.String())
	return nil
}

func newTestService(store *fakeStore) (*Service, *events.InMemoryBus) {
	log := logger.New("development")
	bus := events.NewInMemoryBus(log)
	return NewService(store, bus, validator.New(), log), bus
}

func validCreateRequest() transport.CreateLeadRequest {
	return transport.CreateLeadRequest{
		CustomerName: "Asha Verma",
		PhoneNumber:  "+919876543210",
		Address:      "12 MG Road, Pune",
		PropertyType: "residential",
		Likelihood:   "hot",
	}
}

func testActor(role domain.Role) domain.Actor {
	return domain.Actor{ID: uuid.New(), Name: "Test User", Role: role}
}

func TestCreateLead(t *testing.T) {
	store := newFakeStore()
	svc, _ := newTestService(store)
	actor := testActor(domain.RoleSalesman)

	lead, err := svc.Create(context.Background(), actor, validCreateRequest())
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if lead.Status != domain.StatusNew {
		t.Errorf("status = %q, want %q", lead.Status, domain.StatusNew)
	}
	if lead.SalesmanID == nil || *lead.SalesmanID != actor.ID {
		t.Errorf("salesman slot not stamped with creating salesman")
	}
	if lead.CreatedBy != actor.ID {
		t.Errorf("created_by = %v, want %v", lead.CreatedBy, actor.ID)
	}
}

func TestCreateLeadOperatorDoesNotClaimSalesmanSlot(t *testing.T) {
	store := newFakeStore()
	svc, _ := newTestService(store)

	lead, err := svc.Create(context.Background(), testActor(domain.RoleCallOperator), validCreateRequest())
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if lead.SalesmanID != nil {
		t.Errorf("operator-created lead should have empty salesman slot, got %v", *lead.SalesmanID)
	}
}

func TestCreateLeadValidationFailureSkipsStore(t *testing.T) {
	store := newFakeStore()
	svc, _ := newTestService(store)

	req := validCreateRequest()
	req.CustomerName = ""

	_, err := svc.Create(context.Background(), testActor(domain.RoleSalesman), req)
	if !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("err = %v, want validation error", err)
	}
	if store.calls != 0 {
		t.Errorf("store was called %d times on validation failure, want 0", store.calls)
	}
}

func TestCreateLeadDuplicateBlocked(t *testing.T) {
	store := newFakeStore()
	svc, _ := newTestService(store)
	actor := testActor(domain.RoleSalesman)

	first, err := svc.Create(context.Background(), actor, validCreateRequest())
	if err != nil {
		t.Fatalf("first Create: %v", err)
	}

	req := validCreateRequest()
	req.CustomerName = "Someone Else"
	_, err = svc.Create(context.Background(), actor, req)
	if !apperr.Is(err, apperr.KindDuplicate) {
		t.Fatalf("err = %v, want duplicate error", err)
	}

	var appErr *apperr.Error
	if !errors.As(err, &appErr) {
		t.Fatalf("err is not *apperr.Error")
	}
	details, ok := appErr.Details.(map[string]string)
	if !ok || details["existing_lead_id"] != first.ID.String() {
		t.Errorf("details = %v, want existing_lead_id %s", appErr.Details, first.ID)
	}

	if len(store.activities) != 1 || store.activities[0].Action != "duplicate_attempt" {
		t.Fatalf("blocked attempt not audited: %+v", store.activities)
	}
	audit := store.activities[0]
	if audit.ActorID != actor.ID {
		t.Errorf("audit actor = %v, want %v", audit.ActorID, actor.ID)
	}
	if audit.Meta["customer_name"] != "Someone Else" {
		t.Errorf("audit meta missing attempted customer_name: %v", audit.Meta)
	}
	if audit.Meta["address"] != req.Address || audit.Meta["property_type"] != req.PropertyType {
		t.Errorf("audit meta missing attempted payload fields: %v", audit.Meta)
	}
	if len(store.created) != 1 {
		t.Errorf("duplicate attempt created a lead row")
	}
}

func TestCreateLeadMatchesAdditionalPhone(t *testing.T) {
	store := newFakeStore()
	svc, _ := newTestService(store)
	actor := testActor(domain.RoleSalesman)

	extra := "+919811112222"
	req := validCreateRequest()
	req.AdditionalPhone = &extra
	first, err := svc.Create(context.Background(), actor, req)
	if err != nil {
		t.Fatalf("first Create: %v", err)
	}
	// fakeStore only indexes the primary phone, so point it at the extra
	// number the way the SQL OR-predicate would match it.
	store.byPhone[extra] = first

	second := validCreateRequest()
	second.PhoneNumber = extra
	_, err = svc.Create(context.Background(), actor, second)
	if !apperr.Is(err, apperr.KindDuplicate) {
		t.Fatalf("err = %v, want duplicate via additional phone", err)
	}
}

func TestCreateLeadFailsClosedOnStoreError(t *testing.T) {
	store := newFakeStore()
	store.findErr = errors.New("connection refused")
	svc, _ := newTestService(store)

	_, err := svc.Create(context.Background(), testActor(domain.RoleSalesman), validCreateRequest())
	if !apperr.Is(err, apperr.KindPersistence) {
		t.Fatalf("err = %v, want persistence error when duplicate check cannot run", err)
	}
	if len(store.created) != 0 {
		t.Errorf("lead was created despite failed duplicate check")
	}
}

func TestGetNotFound(t *testing.T) {
	svc, _ := newTestService(newFakeStore())

	_, err := svc.Get(context.Background(), uuid.New())
	if !apperr.Is(err, apperr.KindNotFound) {
		t.Fatalf("err = %v, want not found", err)
	}
}

func TestStatusCounts(t *testing.T) {
	svc, _ := newTestService(newFakeStore())

	counts, total, err := svc.StatusCounts(context.Background())
	if err != nil {
		t.Fatalf("StatusCounts: %v", err)
	}
	if total != 3 {
		t.Errorf("total = %d, want 3", total)
	}
	if counts[domain.StatusNew] != 2 {
		t.Errorf("new count = %d, want 2", counts[domain.StatusNew])
	}
}
