package scheduling

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
	lead        repository.Lead
	leadMissing bool
	scheduled   []repository.ScheduleCallLaterParams
	history     []repository.CallLaterLog
	dueLeads    []repository.Lead
	dueQueries  []time.Time
}

func (f *fakeStore) GetByID(_ context.Context, _ uuid.UUID) (repository.Lead, error) {
	if f.leadMissing {
		return repository.Lead{}, repository.ErrNotFound
	}
	return f.lead, nil
}

func (f *fakeStore) ScheduleCallLater(_ context.Context, params repository.ScheduleCallLaterParams) (repository.Lead, error) {
	f.scheduled = append(f.scheduled, params)
	f.lead.Status = domain.StatusHold
	f.lead.ScheduledCallDate = &params.CallLaterDate
	f.lead.CallLaterCount++
	return f.lead, nil
}

func (f *fakeStore) ListCallLaterLogs(_ context.Context, _ uuid.UUID) ([]repository.CallLaterLog, error) {
	return f.history, nil
}

func (f *fakeStore) ListDueForOperator(_ context.Context, _ uuid.UUID, today time.Time) ([]repository.Lead, error) {
	f.dueQueries = append(f.dueQueries, today)
	if f.dueLeads != nil {
		return f.dueLeads, nil
	}
	return []repository.Lead{f.lead}, nil
}

func newTestService(store *fakeStore) *Service {
	log := logger.New("development")
	return NewService(store, events.NewInMemoryBus(log), validator.New(), log)
}

func operatorActor() domain.Actor {
	return domain.Actor{ID: uuid.New(), Name: "Op One", Role: domain.RoleCallOperator}
}

func TestScheduleIncrementsCount(t *testing.T) {
	store := &fakeStore{lead: repository.Lead{ID: uuid.New(), Status: domain.StatusRinging}}
	svc := newTestService(store)

	for want := 1; want <= 3; want++ {
		updated, err := svc.Schedule(context.Background(), operatorActor(), store.lead.ID, transport.ScheduleCallLaterRequest{
			ScheduledDate: "2026-09-15",
			Reason:        "asked to call back",
		})
		if err != nil {
			t.Fatalf("Schedule #%d: %v", want, err)
		}
		if updated.CallLaterCount != want {
			t.Errorf("call_later_count = %d, want %d", updated.CallLaterCount, want)
		}
		if updated.Status != domain.StatusHold {
			t.Errorf("status = %q, want hold", updated.Status)
		}
	}
	if len(store.scheduled) != 3 {
		t.Errorf("history entries = %d, want 3", len(store.scheduled))
	}
}

func TestScheduleRecordsActorAndNotes(t *testing.T) {
	store := &fakeStore{lead: repository.Lead{ID: uuid.New(), Status: domain.StatusRinging}}
	svc := newTestService(store)
	actor := operatorActor()
	notes := "prefers evening calls"

	_, err := svc.Schedule(context.Background(), actor, store.lead.ID, transport.ScheduleCallLaterRequest{
		ScheduledDate: "2026-09-15",
		Reason:        "asked to call back",
		Notes:         &notes,
	})
	if err != nil {
		t.Fatalf("Schedule: %v", err)
	}
	if len(store.scheduled) != 1 {
		t.Fatalf("log entries = %d, want 1", len(store.scheduled))
	}
	got := store.scheduled[0]
	if got.Notes == nil || *got.Notes != notes {
		t.Errorf("notes = %v, want %q", got.Notes, notes)
	}
	if got.CallOperatorID != actor.ID || got.CallOperatorName != actor.Name {
		t.Errorf("acting operator = %v %q, want %v %q", got.CallOperatorID, got.CallOperatorName, actor.ID, actor.Name)
	}
	if got.Reason == nil || *got.Reason != "asked to call back" {
		t.Errorf("reason not carried to the log entry: %v", got.Reason)
	}
}

func TestScheduleRejectsBadDate(t *testing.T) {
	store := &fakeStore{lead: repository.Lead{ID: uuid.New(), Status: domain.StatusRinging}}
	svc := newTestService(store)

	_, err := svc.Schedule(context.Background(), operatorActor(), store.lead.ID, transport.ScheduleCallLaterRequest{
		ScheduledDate: "15-09-2026",
		Reason:        "asked to call back",
	})
	if !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("err = %v, want validation error", err)
	}
	if len(store.scheduled) != 0 {
		t.Errorf("bad date reached the store")
	}
}

func TestScheduleRejectsConvertedLead(t *testing.T) {
	customerID := "RE001"
	store := &fakeStore{lead: repository.Lead{ID: uuid.New(), Status: domain.StatusCompleted, CustomerID: &customerID}}
	svc := newTestService(store)

	_, err := svc.Schedule(context.Background(), operatorActor(), store.lead.ID, transport.ScheduleCallLaterRequest{
		ScheduledDate: "2026-09-15",
		Reason:        "asked to call back",
	})
	if !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("err = %v, want validation error for converted lead", err)
	}
}

func TestScheduleLeadNotFound(t *testing.T) {
	store := &fakeStore{leadMissing: true}
	svc := newTestService(store)

	_, err := svc.Schedule(context.Background(), operatorActor(), uuid.New(), transport.ScheduleCallLaterRequest{
		ScheduledDate: "2026-09-15",
		Reason:        "asked to call back",
	})
	if !apperr.Is(err, apperr.KindNotFound) {
		t.Fatalf("err = %v, want not found", err)
	}
}

func TestDueTodayPassesCurrentDate(t *testing.T) {
	store := &fakeStore{lead: repository.Lead{ID: uuid.New(), Status: domain.StatusRinging}}
	svc := newTestService(store)
	fixed := time.Date(2026, 8, 31, 10, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return fixed }

	leads, err := svc.DueToday(context.Background(), operatorActor())
	if err != nil {
		t.Fatalf("DueToday: %v", err)
	}
	if len(leads) != 1 {
		t.Errorf("leads = %d, want 1", len(leads))
	}
	if len(store.dueQueries) != 1 || !store.dueQueries[0].Equal(fixed) {
		t.Errorf("store queried with %v, want %v", store.dueQueries, fixed)
	}
}

func TestDueTodayKeepsOnlyDueLeads(t *testing.T) {
	overdue := time.Date(2026, 8, 20, 0, 0, 0, 0, time.UTC)
	future := time.Date(2026, 9, 15, 0, 0, 0, 0, time.UTC)
	ringing := repository.Lead{ID: uuid.New(), Status: domain.StatusRinging}
	overdueHold := repository.Lead{ID: uuid.New(), Status: domain.StatusHold, ScheduledCallDate: &overdue}
	notYetDue := repository.Lead{ID: uuid.New(), Status: domain.StatusHold, ScheduledCallDate: &future}
	store := &fakeStore{dueLeads: []repository.Lead{ringing, overdueHold, notYetDue}}
	svc := newTestService(store)
	svc.now = func() time.Time { return time.Date(2026, 8, 31, 10, 0, 0, 0, time.UTC) }

	leads, err := svc.DueToday(context.Background(), operatorActor())
	if err != nil {
		t.Fatalf("DueToday: %v", err)
	}
	if len(leads) != 2 {
		t.Fatalf("due leads = %d, want 2", len(leads))
	}
	if leads[0].ID != ringing.ID || leads[1].ID != overdueHold.ID {
		t.Errorf("wrong leads kept: %v %v", leads[0].ID, leads[1].ID)
	}
}

func TestHistoryNewestFirstPassthrough(t *testing.T) {
	older := repository.CallLaterLog{ID: uuid.New(), CreatedAt: time.Now().Add(-time.Hour)}
	newer := repository.CallLaterLog{ID: uuid.New(), CreatedAt: time.Now()}
	store := &fakeStore{
		lead:    repository.Lead{ID: uuid.New()},
		history: []repository.CallLaterLog{newer, older},
	}
	svc := newTestService(store)

	logs, err := svc.History(context.Background(), store.lead.ID)
	if err != nil {
		t.Fatalf("History: %v", err)
	}
	if len(logs) != 2 || logs[0].ID != newer.ID {
		t.Errorf("history order not preserved from store")
	}
}
