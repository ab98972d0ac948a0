package scheduler

import (
	"context"
	"time"

	"fieldcrm_backend/internal/events"
	"fieldcrm_backend/internal/leads/repository"
	"fieldcrm_backend/platform/logger"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
)

// DueLeadStore is the slice of the leads repository the dispatcher reads.
type DueLeadStore interface {
	ListDueOnDate(ctx context.Context, today time.Time) ([]repository.Lead, error)
}

// Worker scans for due scheduled calls and publishes one CallLaterDue event
// per lead. The notification module turns those into in-app reminders.
type Worker struct {
	store DueLeadStore
	bus   events.Bus
	log   *logger.Logger

	now func() time.Time
}

func NewWorker(store DueLeadStore, bus events.Bus, log *logger.Logger) *Worker {
	return &Worker{store: store, bus: bus, log: log, now: time.Now}
}

// HandleCallLaterScan is the asynq handler for the periodic scan task.
func (w *Worker) HandleCallLaterScan(ctx context.Context, _ *asynq.Task) error {
	dispatched, err := w.Scan(ctx)
	if err != nil {
		return err
	}
	w.log.Info("call later scan finished", "dispatched", dispatched)
	return nil
}

// Scan runs one pass and returns how many reminders were dispatched.
func (w *Worker) Scan(ctx context.Context) (int, error) {
	leads, err := w.store.ListDueOnDate(ctx, w.now())
	if err != nil {
		w.log.DatabaseError("scheduler.due_scan", err)
		return 0, err
	}

	for _, lead := range leads {
		operatorID := uuid.Nil
		if lead.CallOperatorID != nil {
			operatorID = *lead.CallOperatorID
		}
		scheduled := ""
		if lead.ScheduledCallDate != nil {
			scheduled = lead.ScheduledCallDate.Format("2006-01-02")
		}

		w.bus.Publish(ctx, events.CallLaterDue{
			BaseEvent:     events.NewBaseEvent(),
			LeadID:        lead.ID,
			CustomerName:  lead.CustomerName,
			OperatorID:    operatorID,
			ScheduledDate: scheduled,
		})
	}
	return len(leads), nil
}
