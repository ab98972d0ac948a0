// Package status implements the lead status transition engine. Any status can
// be set from any other; what differs per target are the derived effects
// (notes routing, operator stamping, call-later scheduling) and the
// completed/customer guard.
package status

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
	UpdateStatus(ctx context.Context, id uuid.UUID, params repository.StatusUpdateParams) (repository.Lead, error)
	ScheduleCallLater(ctx context.Context, params repository.ScheduleCallLaterParams) (repository.Lead, error)
	AddCallLog(ctx context.Context, params repository.AddCallLogParams) (repository.CallLog, error)
	ListCallLogs(ctx context.Context, leadID uuid.UUID) ([]repository.CallLog, error)
}

type Service struct {
	store    LeadStore
	bus      events.Bus
	validate *validator.Validator
	log      *logger.Logger
}

func NewService(store LeadStore, bus events.Bus, validate *validator.Validator, log *logger.Logger) *Service {
	return &Service{store: store, bus: bus, validate: validate, log: log}
}

// Transition applies a status change with its derived effects. A hold
// transition carrying a call-later date goes through the transactional
// schedule path so the log entry and the lead update land together.
func (s *Service) Transition(ctx context.Context, actor domain.Actor, leadID uuid.UUID, req transport.UpdateStatusRequest) (repository.Lead, error) {
	if err := s.validate.Struct(req); err != nil {
		return repository.Lead{}, apperr.Validation("invalid status update").WithDetails(err.Error())
	}

	target, err := domain.ParseStatus(req.Status)
	if err != nil {
		return repository.Lead{}, apperr.Validation(err.Error())
	}

	lead, err := s.store.GetByID(ctx, leadID)
	if errors.Is(err, repository.ErrNotFound) {
		return repository.Lead{}, apperr.NotFound("lead not found")
	}
	if err != nil {
		return repository.Lead{}, apperr.Persistence("could not load lead", err)
	}

	if err := domain.CheckTransition(lead.Status, target, lead.CustomerID != nil); err != nil {
		return repository.Lead{}, apperr.Validation(err.Error())
	}

	previous := lead.Status
	effect := domain.EffectFor(target)

	var updated repository.Lead
	if effect.AcceptsCallLater && req.CallLaterDate != nil {
		if req.CallLaterReason == nil || *req.CallLaterReason == "" {
			return repository.Lead{}, apperr.Validation("call_later_reason is required with call_later_date")
		}
		updated, err = s.holdWithCallLater(ctx, actor, lead, req)
	} else {
		updated, err = s.applyTransition(ctx, actor, lead, target, effect, req.Notes)
	}
	if err != nil {
		return repository.Lead{}, err
	}

	// Every transition leaves a call log row recording who set which status.
	if _, logErr := s.store.AddCallLog(ctx, repository.AddCallLogParams{
		LeadID:       lead.ID,
		OperatorID:   actor.ID,
		OperatorName: actor.Name,
		Outcome:      target,
		Notes:        req.Notes,
	}); logErr != nil {
		s.log.DatabaseError("leads.call_log", logErr)
	}

	s.log.LeadEvent("status_changed", lead.ID.String(), actor.ID.String())
	s.bus.Publish(ctx, events.LeadStatusChanged{
		BaseEvent: events.NewBaseEvent(),
		LeadID:    lead.ID,
		OldStatus: string(previous),
		NewStatus: string(updated.Status),
		ActorID:   actor.ID,
	})
	return updated, nil
}

func (s *Service) applyTransition(ctx context.Context, actor domain.Actor, lead repository.Lead, target domain.Status, effect domain.TransitionEffect, notes *string) (repository.Lead, error) {
	params := repository.StatusUpdateParams{Status: target}

	if notes != nil {
		if effect.NotesToCallNotes {
			params.CallNotes = notes
		}
		if effect.NotesToVisitNotes {
			params.VisitNotes = notes
		}
	}
	if effect.StampsCallOperator {
		params.CallOperatorID = &actor.ID
		params.CallOperatorName = &actor.Name
	}

	updated, err := s.store.UpdateStatus(ctx, lead.ID, params)
	if errors.Is(err, repository.ErrNotFound) {
		return repository.Lead{}, apperr.NotFound("lead not found")
	}
	if err != nil {
		return repository.Lead{}, apperr.Persistence("could not update lead status", err)
	}
	return updated, nil
}

func (s *Service) holdWithCallLater(ctx context.Context, actor domain.Actor, lead repository.Lead, req transport.UpdateStatusRequest) (repository.Lead, error) {
	date, err := time.Parse("2006-01-02", *req.CallLaterDate)
	if err != nil {
		return repository.Lead{}, apperr.Validation("call_later_date must be YYYY-MM-DD")
	}

	updated, err := s.store.ScheduleCallLater(ctx, repository.ScheduleCallLaterParams{
		LeadID:           lead.ID,
		CallLaterDate:    date,
		CallLaterTime:    req.CallLaterTime,
		Reason:           req.CallLaterReason,
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

	reason := ""
	if req.CallLaterReason != nil {
		reason = *req.CallLaterReason
	}
	s.bus.Publish(ctx, events.CallLaterScheduled{
		BaseEvent:     events.NewBaseEvent(),
		LeadID:        lead.ID,
		CallLaterDate: date.Format("2006-01-02"),
		Reason:        reason,
		OperatorID:    actor.ID,
	})
	return updated, nil
}

// CallHistory returns a lead's call log, newest first.
func (s *Service) CallHistory(ctx context.Context, leadID uuid.UUID) ([]repository.CallLog, error) {
	if _, err := s.store.GetByID(ctx, leadID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperr.NotFound("lead not found")
		}
		return nil, apperr.Persistence("could not load lead", err)
	}
	logs, err := s.store.ListCallLogs(ctx, leadID)
	if err != nil {
		return nil, apperr.Persistence("could not load call history", err)
	}
	return logs, nil
}
