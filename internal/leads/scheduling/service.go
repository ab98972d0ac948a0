// Package scheduling implements call-later scheduling and the operator's
// daily follow-up work list.
package scheduling

import (
	"context"
	"errors"
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

type LeadStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (repository.Lead, error)
	ScheduleCallLater(ctx context.Context, params repository.ScheduleCallLaterParams) (repository.Lead, error)
	ListCallLaterLogs(ctx context.Context, leadID uuid.UUID) ([]repository.CallLaterLog, error)
	ListDueForOperator(ctx context.Context, operatorID uuid.UUID, today time.Time) ([]repository.Lead, error)
}

type Service struct {
	store    LeadStore
	bus      events.Bus
	validate *validator.Validator
	log      *logger.Logger

	// now is swapped out in tests.
	now func() time.Time
}

func NewService(store LeadStore, bus events.Bus, validate *validator.Validator, log *logger.Logger) *Service {
	return &Service{store: store, bus: bus, validate: validate, log: log, now: time.Now}
}

// Schedule puts the lead on hold with a follow-up date. Each call appends to
// the lead's reschedule history and bumps its call_later_count.
func (s *Service) Schedule(ctx context.Context, actor domain.Actor, leadID uuid.UUID, req transport.ScheduleCallLaterRequest) (repository.Lead, error) {
	if err := s.validate.Struct(req); err != nil {
		return repository.Lead{}, apperr.Validation("invalid call later request").WithDetails(err.Error())
	}

	date, err := time.Parse("2006-01-02", req.ScheduledDate)
	if err != nil {
		return repository.Lead{}, apperr.Validation("scheduled_date must be YYYY-MM-DD")
	}

	lead, err := s.store.GetByID(ctx, leadID)
	if errors.Is(err, repository.ErrNotFound) {
		return repository.Lead{}, apperr.NotFound("lead not found")
	}
	if err != nil {
		return repository.Lead{}, apperr.Persistence("could not load lead", err)
	}
	if lead.CustomerID != nil {
		return repository.Lead{}, apperr.Validation("a converted lead cannot be rescheduled")
	}

	updated, err := s.store.ScheduleCallLater(ctx, repository.ScheduleCallLaterParams{
		LeadID:           leadID,
		CallLaterDate:    date,
		CallLaterTime:    req.ScheduledTime,
		Reason:           &req.Reason,
		Notes:            req.Notes,
		CallOperatorID:   actor.ID,
		CallOperatorName: actor.Name,
	})
	if errors.Is(err, repository.ErrNotFound) {
		return repository.Lead{}, apperr.NotFound("lead not found")
	}
	if err != nil {
		return repository.Lead{}, apperr.Persistence("could not schedule call later", err)
	}

	s.log.LeadEvent("call_later_scheduled", leadID.String(), actor.ID.String())
	s.bus.Publish(ctx, events.CallLaterScheduled{
		BaseEvent:     events.NewBaseEvent(),
		LeadID:        leadID,
		CallLaterDate: req.ScheduledDate,
		Reason:        req.Reason,
		OperatorID:    actor.ID,
	})
	return updated, nil
}

// DueToday returns the acting operator's follow-up work list for the current
// calendar date: calls scheduled today, leads still ringing and overdue
// scheduled calls sitting in new or hold.
func (s *Service) DueToday(ctx context.Context, actor domain.Actor) ([]repository.Lead, error) {
	now := s.now()
	leads, err := s.store.ListDueForOperator(ctx, actor.ID, now)
	if err != nil {
		return nil, apperr.Persistence("could not load due leads", err)
	}
	due := make([]repository.Lead, 0, len(leads))
	for _, l := range leads {
		if repository.DueForFollowUp(l, now) {
			due = append(due, l)
		}
	}
	return due, nil
}

// History returns a lead's reschedule history, newest first.
func (s *Service) History(ctx context.Context, leadID uuid.UUID) ([]repository.CallLaterLog, error) {
	if _, err := s.store.GetByID(ctx, leadID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperr.NotFound("lead not found")
		}
		return nil, apperr.Persistence("could not load lead", err)
	}

	logs, err := s.store.ListCallLaterLogs(ctx, leadID)
	if err != nil {
		return nil, apperr.Persistence("could not load call later history", err)
	}
	return logs, nil
}
