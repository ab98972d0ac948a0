package status

import (
	"context"
	"testing"
	"time"

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
	lead          repository.Lead
	leadMissing   bool
	callLogs      []repository.AddCallLogParams
	callLaterLogs []repository.ScheduleCallLaterParams
	lastUpdate    *repository.StatusUpdateParams
}

func (f *fakeStore) GetByID(_ context.Context, _ uuid.UUID) (repository.Lead, error) {
	if f.leadMissing {
		return repository.Lead{}, repository.ErrNotFound
	}
	return f.lead, nil
}

func (f *fakeStore) UpdateStatus(_ context.Context, _ uuid.UUID, params repository.StatusUpdateParams) (repository.Lead, error) {
	f.lastUpdate = &params
	f.lead.Status = params.Status
	if params.CallNotes != nil {
		f.lead.CallNotes = params.CallNotes
	}
	if params.VisitNotes != nil {
		f.lead.VisitNotes = params.VisitNotes
	}
	if params.CallOperatorID != nil {
		f.lead.CallOperatorID = params.CallOperatorID
		f.lead.CallOperatorName = params.CallOperatorName
	}
	return f.lead, nil
}

func (f *fakeStore) ScheduleCallLater(_ context.Context, params repository.ScheduleCallLaterParams) (repository.Lead, error) {
	f.callLaterLogs = append(f.callLaterLogs, params)
	f.lead.Status = domain.StatusHold
	f.lead.ScheduledCallDate = &params.CallLaterDate
	f.lead.ScheduledCallReason = params.Reason
	f.lead.CallLaterCount++
	return f.lead, nil
}

func (f *fakeStore) AddCallLog(_ context.Context, params repository.AddCallLogParams) (repository.CallLog, error) {
	f.callLogs = append(f.callLogs, params)
	return repository.CallLog{ID: uuid.New(), LeadID: params.LeadID, Outcome: params.Outcome}, nil
}

func (f *fakeStore) ListCallLogs(_ context.Context, _ uuid.UUID) ([]repository.CallLog, error) {
	return nil, nil
}

func newTestService(store *fakeStore) *Service {
	log := logger.New("development")
	return NewService(store, events.NewInMemoryBus(log), validator.New(), log)
}

func operatorActor() domain.Actor {
	return domain.Actor{ID: uuid.New(), Name: "Op One", Role: domain.RoleCallOperator}
}

func leadInStatus(s domain.Status) repository.Lead {
	return repository.Lead{ID: uuid.New(), CustomerName: "Asha Verma", Status: s}
}

func strPtr(s string) *string { return &s }

func TestTransitionContactedRoutesNotesAndStampsOperator(t *testing.T) {
	store := &fakeStore{lead: leadInStatus(domain.StatusRinging)}
	svc := newTestService(store)
	actor := operatorActor()

	updated, err := svc.Transition(context.Background(), actor, store.lead.ID, transport.UpdateStatusRequest{
		Status: "contacted",
		Notes:  strPtr("interested, send quote"),
	})
	if err != nil {
		t.Fatalf("Transition: %v", err)
	}
	if updated.Status != domain.StatusContacted {
		t.Errorf("status = %q, want contacted", updated.Status)
	}
	if updated.CallNotes == nil || *updated.CallNotes != "interested, send quote" {
		t.Errorf("notes not routed to call_notes: %v", updated.CallNotes)
	}
	if updated.CallOperatorID == nil || *updated.CallOperatorID != actor.ID {
		t.Errorf("operator not stamped on contacted transition")
	}
	if len(store.callLogs) != 1 || store.callLogs[0].Outcome != domain.StatusContacted {
		t.Errorf("call log not appended: %+v", store.callLogs)
	}
}

func TestTransitionContactedStampsAnyActingUser(t *testing.T) {
	store := &fakeStore{lead: leadInStatus(domain.StatusRinging)}
	svc := newTestService(store)
	teamLead := domain.Actor{ID: uuid.New(), Name: "Lead One", Role: domain.RoleTeamLead}

	updated, err := svc.Transition(context.Background(), teamLead, store.lead.ID, transport.UpdateStatusRequest{
		Status: "contacted",
	})
	if err != nil {
		t.Fatalf("Transition: %v", err)
	}
	if updated.CallOperatorID == nil || *updated.CallOperatorID != teamLead.ID {
		t.Errorf("acting user not stamped as call operator on contacted transition")
	}
	if updated.CallOperatorName == nil || *updated.CallOperatorName != teamLead.Name {
		t.Errorf("acting user name not stamped: %v", updated.CallOperatorName)
	}
}

func TestTransitionTransitRoutesNotesToVisitNotes(t *testing.T) {
	store := &fakeStore{lead: leadInStatus(domain.StatusContacted)}
	svc := newTestService(store)

	technician := domain.Actor{ID: uuid.New(), Name: "Tech", Role: domain.RoleTechnician}
	updated, err := svc.Transition(context.Background(), technician, store.lead.ID, transport.UpdateStatusRequest{
		Status: "transit",
		Notes:  strPtr("site visit booked"),
	})
	if err != nil {
		t.Fatalf("Transition: %v", err)
	}
	if updated.VisitNotes == nil || *updated.VisitNotes != "site visit booked" {
		t.Errorf("notes not routed to visit_notes: %v", updated.VisitNotes)
	}
	if updated.CallNotes != nil {
		t.Errorf("transit transition wrote call_notes: %v", *updated.CallNotes)
	}
	if len(store.callLogs) != 1 || store.callLogs[0].Outcome != domain.StatusTransit {
		t.Errorf("transition not recorded in call log: %+v", store.callLogs)
	}
}

func TestTransitionHoldSchedulesCallLater(t *testing.T) {
	store := &fakeStore{lead: leadInStatus(domain.StatusRinging)}
	svc := newTestService(store)

	updated, err := svc.Transition(context.Background(), operatorActor(), store.lead.ID, transport.UpdateStatusRequest{
		Status:          "hold",
		CallLaterDate:   strPtr("2026-09-15"),
		CallLaterReason: strPtr("asked to call after payday"),
	})
	if err != nil {
		t.Fatalf("Transition: %v", err)
	}
	if updated.Status != domain.StatusHold {
		t.Errorf("status = %q, want hold", updated.Status)
	}
	if updated.CallLaterCount != 1 {
		t.Errorf("call_later_count = %d, want 1", updated.CallLaterCount)
	}
	if len(store.callLaterLogs) != 1 {
		t.Fatalf("call later log entries = %d, want 1", len(store.callLaterLogs))
	}
	want := time.Date(2026, 9, 15, 0, 0, 0, 0, time.UTC)
	if !store.callLaterLogs[0].CallLaterDate.Equal(want) {
		t.Errorf("call later date = %v, want %v", store.callLaterLogs[0].CallLaterDate, want)
	}
	if store.callLaterLogs[0].CallOperatorID == uuid.Nil || store.callLaterLogs[0].CallOperatorName == "" {
		t.Errorf("acting operator not recorded on the log entry: %+v", store.callLaterLogs[0])
	}
}

func TestTransitionHoldWithoutDateIsPlainHold(t *testing.T) {
	store := &fakeStore{lead: leadInStatus(domain.StatusRinging)}
	svc := newTestService(store)

	updated, err := svc.Transition(context.Background(), operatorActor(), store.lead.ID, transport.UpdateStatusRequest{
		Status: "hold",
	})
	if err != nil {
		t.Fatalf("Transition: %v", err)
	}
	if updated.Status != domain.StatusHold {
		t.Errorf("status = %q, want hold", updated.Status)
	}
	if len(store.callLaterLogs) != 0 {
		t.Errorf("hold without a date scheduled a call later")
	}
	if updated.CallLaterCount != 0 {
		t.Errorf("call_later_count = %d, want 0", updated.CallLaterCount)
	}
}

func TestTransitionHoldDateWithoutReasonRejected(t *testing.T) {
	store := &fakeStore{lead: leadInStatus(domain.StatusRinging)}
	svc := newTestService(store)

	_, err := svc.Transition(context.Background(), operatorActor(), store.lead.ID, transport.UpdateStatusRequest{
		Status:        "hold",
		CallLaterDate: strPtr("2026-09-15"),
	})
	if !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("err = %v, want validation error for missing reason", err)
	}
	if len(store.callLaterLogs) != 0 {
		t.Errorf("schedule reached the store without a reason")
	}
}

func TestTransitionCompletedWithoutCustomerRejected(t *testing.T) {
	store := &fakeStore{lead: leadInStatus(domain.StatusTransit)}
	svc := newTestService(store)

	_, err := svc.Transition(context.Background(), operatorActor(), store.lead.ID, transport.UpdateStatusRequest{
		Status: "completed",
	})
	if !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("err = %v, want validation error for completed without customer", err)
	}
	if store.lastUpdate != nil {
		t.Errorf("store update ran despite rejected transition")
	}
}

func TestTransitionConvertedLeadIsPinned(t *testing.T) {
	lead := leadInStatus(domain.StatusCompleted)
	customerID := "RE001"
	lead.CustomerID = &customerID
	store := &fakeStore{lead: lead}
	svc := newTestService(store)

	_, err := svc.Transition(context.Background(), operatorActor(), lead.ID, transport.UpdateStatusRequest{
		Status: "new",
	})
	if !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("err = %v, want validation error for converted lead leaving completed", err)
	}
}

func TestTransitionUnknownStatus(t *testing.T) {
	store := &fakeStore{lead: leadInStatus(domain.StatusNew)}
	svc := newTestService(store)

	_, err := svc.Transition(context.Background(), operatorActor(), store.lead.ID, transport.UpdateStatusRequest{
		Status: "vaporized",
	})
	if !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("err = %v, want validation error for unknown status", err)
	}
}

func TestTransitionLeadNotFound(t *testing.T) {
	store := &fakeStore{leadMissing: true}
	svc := newTestService(store)

	_, err := svc.Transition(context.Background(), operatorActor(), uuid.New(), transport.UpdateStatusRequest{
		Status: "ringing",
	})
	if !apperr.Is(err, apperr.KindNotFound) {
		t.Fatalf("err = %v, want not found", err)
	}
}
