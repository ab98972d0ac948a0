// Package assignment implements handing leads to call operators and
// technicians, one at a time or in bulk.
package assignment

import (
	"context"
	"errors"

	"fieldcrm_backend/internal/events"
	"fieldcrm_backend/internal/leads/domain"
	"fieldcrm_backend/internal/leads/repository"
	"fieldcrm_backend/internal/leads/transport"
	"fieldcrm_backend/platform/apperr"
	"fieldcrm_backend/platform/logger"
	"fieldcrm_backend/platform/validator"

	"github.com/google/uuid"
)

// Assignee is the directory's view of an assignment target.
type Assignee struct {
	ID       uuid.UUID
	Name     string
	Role     domain.Role
	IsActive bool
}

// ErrAssigneeNotFound is returned by a UserDirectory when the target user
// does not exist.
var ErrAssigneeNotFound = errors.New("assignee not found")

// UserDirectory resolves assignment targets. Implemented by the users module.
type UserDirectory interface {
	FindAssignee(ctx context.Context, id uuid.UUID) (Assignee, error)
}

type LeadStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (repository.Lead, error)
	AssignRole(ctx context.Context, id uuid.UUID, role domain.Role, userID uuid.UUID, userName string) (repository.Lead, error)
	BulkAssignRole(ctx context.Context, ids []uuid.UUID, role domain.Role, userID uuid.UUID, userName string) ([]repository.Lead, error)
}

type Service struct {
	store    LeadStore
	users    UserDirectory
	bus      events.Bus
	validate *validator.Validator
	log      *logger.Logger

	// strictReassign refuses assignment into an occupied slot instead of
	// overwriting it.
	strictReassign bool
}

func NewService(store LeadStore, users UserDirectory, bus events.Bus, validate *validator.Validator, log *logger.Logger, strictReassign bool) *Service {
	return &Service{
		store:          store,
		users:          users,
		bus:            bus,
		validate:       validate,
		log:            log,
		strictReassign: strictReassign,
	}
}

// resolveTarget validates the requested role and confirms the target user
// exists, is active and actually holds that role. The target lookup happens
// before any lead write, so a bad target leaves every lead untouched.
func (s *Service) resolveTarget(ctx context.Context, userID uuid.UUID, roleRaw string) (Assignee, domain.Role, error) {
	role := domain.Role(roleRaw)
	if !role.Assignable() {
		return Assignee{}, "", apperr.Validation("leads can only be assigned to call operators or technicians")
	}

	target, err := s.users.FindAssignee(ctx, userID)
	if errors.Is(err, ErrAssigneeNotFound) {
		return Assignee{}, "", apperr.NotFound("target user not found")
	}
	if err != nil {
		return Assignee{}, "", apperr.Persistence("could not resolve assignment target", err)
	}
	if !target.IsActive {
		return Assignee{}, "", apperr.Validation("target user is deactivated")
	}
	if target.Role != role {
		return Assignee{}, "", apperr.Validation("target user does not hold the requested role")
	}
	return target, role, nil
}

// Assign hands one lead to the target user. Assigning to an operator restarts
// the call cycle (status new); assigning to a technician puts the lead in
// transit.
func (s *Service) Assign(ctx context.Context, actor domain.Actor, leadID uuid.UUID, req transport.AssignLeadRequest) (repository.Lead, error) {
	if err := s.validate.Struct(req); err != nil {
		return repository.Lead{}, apperr.Validation("invalid assignment").WithDetails(err.Error())
	}

	target, role, err := s.resolveTarget(ctx, req.UserID, req.Role)
	if err != nil {
		return repository.Lead{}, err
	}

	lead, err := s.store.GetByID(ctx, leadID)
	if errors.Is(err, repository.ErrNotFound) {
		return repository.Lead{}, apperr.NotFound("lead not found")
	}
	if err != nil {
		return repository.Lead{}, apperr.Persistence("could not load lead", err)
	}

	if lead.CustomerID != nil {
		return repository.Lead{}, apperr.Validation("a converted lead cannot be reassigned")
	}

	updated, err := s.store.AssignRole(ctx, leadID, role, target.ID, target.Name)
	if errors.Is(err, repository.ErrNotFound) {
		return repository.Lead{}, apperr.NotFound("lead not found")
	}
	if err != nil {
		return repository.Lead{}, apperr.Persistence("could not assign lead", err)
	}

	s.publishAssigned(ctx, actor, updated, target, role)
	return updated, nil
}

// Reassign moves a lead from one call operator to another. By default a
// stale from_user_id degrades to a plain assignment; with strict reassign
// enabled the mismatch is a conflict and nothing is written.
func (s *Service) Reassign(ctx context.Context, actor domain.Actor, leadID uuid.UUID, req transport.ReassignLeadRequest) (repository.Lead, error) {
	if err := s.validate.Struct(req); err != nil {
		return repository.Lead{}, apperr.Validation("invalid reassignment").WithDetails(err.Error())
	}

	target, role, err := s.resolveTarget(ctx, req.ToUserID, string(domain.RoleCallOperator))
	if err != nil {
		return repository.Lead{}, err
	}

	lead, err := s.store.GetByID(ctx, leadID)
	if errors.Is(err, repository.ErrNotFound) {
		return repository.Lead{}, apperr.NotFound("lead not found")
	}
	if err != nil {
		return repository.Lead{}, apperr.Persistence("could not load lead", err)
	}
	if lead.CustomerID != nil {
		return repository.Lead{}, apperr.Validation("a converted lead cannot be reassigned")
	}

	mismatch := lead.CallOperatorID == nil || *lead.CallOperatorID != req.FromUserID
	if mismatch && s.strictReassign {
		return repository.Lead{}, apperr.Conflict("lead is not currently assigned to the given operator")
	}

	updated, err := s.store.AssignRole(ctx, leadID, role, target.ID, target.Name)
	if errors.Is(err, repository.ErrNotFound) {
		return repository.Lead{}, apperr.NotFound("lead not found")
	}
	if err != nil {
		return repository.Lead{}, apperr.Persistence("could not reassign lead", err)
	}

	s.publishAssigned(ctx, actor, updated, target, role)
	return updated, nil
}

// BulkAssign hands a batch of leads to one target in a single write. An empty
// batch is a no-op and never reaches the store.
func (s *Service) BulkAssign(ctx context.Context, actor domain.Actor, req transport.BulkAssignRequest) (int, error) {
	if err := s.validate.Struct(req); err != nil {
		return 0, apperr.Validation("invalid bulk assignment").WithDetails(err.Error())
	}
	if len(req.LeadIDs) == 0 {
		return 0, nil
	}

	target, role, err := s.resolveTarget(ctx, req.UserID, req.Role)
	if err != nil {
		return 0, err
	}

	leads, err := s.store.BulkAssignRole(ctx, req.LeadIDs, role, target.ID, target.Name)
	if err != nil {
		return 0, apperr.Persistence("could not bulk assign leads", err)
	}

	for _, lead := range leads {
		s.publishAssigned(ctx, actor, lead, target, role)
	}
	return len(leads), nil
}

func (s *Service) publishAssigned(ctx context.Context, actor domain.Actor, lead repository.Lead, target Assignee, role domain.Role) {
	s.log.LeadEvent("assigned", lead.ID.String(), actor.ID.String())
	s.bus.Publish(ctx, events.LeadAssigned{
		BaseEvent:    events.NewBaseEvent(),
		LeadID:       lead.ID,
		CustomerName: lead.CustomerName,
		TargetUserID: target.ID,
		TargetRole:   string(role),
		AssignedByID: actor.ID,
	})
}
