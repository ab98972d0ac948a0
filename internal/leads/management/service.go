// Package management implements lead intake and listing: duplicate-gated
// creation, lookups and the filterable lead listing.
package management

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
	"fieldcrm_backend/platform/phone"
	"fieldcrm_backend/platform/validator"

	"github.com/google/uuid"
)

// LeadStore is the subset of the repository the management service needs.
type LeadStore interface {
	Create(ctx context.Context, params repository.CreateLeadParams) (repository.Lead, error)
	GetByID(ctx context.Context, id uuid.UUID) (repository.Lead, error)
	FindByPhone(ctx context.Context, phone string) (repository.Lead, error)
	List(ctx context.Context, params repository.ListParams) ([]repository.Lead, int, error)
	ListUnassigned(ctx context.Context, filter repository.UnassignedFilter, limit, offset int) ([]repository.Lead, int, error)
	CountUnassigned(ctx context.Context, filter repository.UnassignedFilter) (int, error)
	CountByStatus(ctx context.Context) (map[domain.Status]int, error)
	AddActivity(ctx context.Context, params repository.AddActivityParams) error
	ListActivity(ctx context.Context, leadID uuid.UUID) ([]repository.Activity, error)
	Delete(ctx context.Context, id uuid.UUID) error
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

const defaultPageSize = 20

// Create runs the intake pipeline: validate, normalize phones, duplicate
// check against the whole store, then insert. The duplicate gate fails
// closed: if the store cannot be consulted, the lead is not created.
func (s *Service) Create(ctx context.Context, actor domain.Actor, req transport.CreateLeadRequest) (repository.Lead, error) {
	if err := s.validate.Struct(req); err != nil {
		return repository.Lead{}, apperr.Validation("invalid lead data").WithDetails(err.Error())
	}

	normalized := phone.NormalizeE164(req.PhoneNumber)
	var additional *string
	if req.AdditionalPhone != nil && *req.AdditionalPhone != "" {
		n := phone.NormalizeE164(*req.AdditionalPhone)
		additional = &n
	}

	for _, candidate := range duplicateCandidates(normalized, additional) {
		existing, err := s.store.FindByPhone(ctx, candidate)
		if err == nil {
			return repository.Lead{}, s.blockDuplicate(ctx, actor, candidate, req, existing)
		}
		if !errors.Is(err, repository.ErrNotFound) {
			s.log.DatabaseError("leads.duplicate_check", err)
			return repository.Lead{}, apperr.Persistence("could not verify lead uniqueness", err)
		}
	}

	params := repository.CreateLeadParams{
		CustomerName:    req.CustomerName,
		PhoneNumber:     normalized,
		AdditionalPhone: additional,
		Email:           req.Email,
		Address:         req.Address,
		PropertyType:    domain.PropertyType(req.PropertyType),
		Likelihood:      domain.Likelihood(req.Likelihood),
		CreatedBy:       actor.ID,
		CreatedByName:   actor.Name,
	}
	if actor.Role == domain.RoleSalesman {
		params.SalesmanID = &actor.ID
		params.SalesmanName = &actor.Name
	}
	if req.FollowUpDate != nil {
		d, err := time.Parse("2006-01-02", *req.FollowUpDate)
		if err != nil {
			return repository.Lead{}, apperr.Validation("follow_up_date must be YYYY-MM-DD")
		}
		params.FollowUpDate = &d
	}

	lead, err := s.store.Create(ctx, params)
	if err != nil {
		s.log.DatabaseError("leads.create", err)
		return repository.Lead{}, apperr.Persistence("could not create lead", err)
	}

	s.log.LeadEvent("created", lead.ID.String(), actor.ID.String())
	s.bus.Publish(ctx, events.LeadCreated{
		BaseEvent:    events.NewBaseEvent(),
		LeadID:       lead.ID,
		CustomerName: lead.CustomerName,
		PhoneNumber:  lead.PhoneNumber,
		SalesmanID:   lead.SalesmanID,
		CreatedByID:  actor.ID,
	})
	return lead, nil
}

func duplicateCandidates(primary string, additional *string) []string {
	candidates := []string{primary}
	if additional != nil && *additional != primary {
		candidates = append(candidates, *additional)
	}
	return candidates
}

// blockDuplicate audits the refused submission with the payload the caller
// tried to create, and returns the duplicate error carrying the existing
// lead's id. Blocked attempts leave no lead row, only an activity record.
func (s *Service) blockDuplicate(ctx context.Context, actor domain.Actor, phoneNumber string, req transport.CreateLeadRequest, existing repository.Lead) error {
	s.log.DuplicateBlocked(phoneNumber, actor.ID.String(), existing.ID.String())

	meta := map[string]any{
		"phone_number":     phoneNumber,
		"existing_lead_id": existing.ID.String(),
		"customer_name":    req.CustomerName,
		"address":          req.Address,
		"property_type":    req.PropertyType,
		"likelihood":       req.Likelihood,
	}
	if req.AdditionalPhone != nil {
		meta["additional_phone"] = *req.AdditionalPhone
	}
	if req.Email != nil {
		meta["email"] = *req.Email
	}

	if err := s.store.AddActivity(ctx, repository.AddActivityParams{
		LeadID:    &existing.ID,
		Action:    "duplicate_attempt",
		ActorID:   actor.ID,
		ActorName: actor.Name,
		Meta:      meta,
	}); err != nil {
		s.log.DatabaseError("leads.activity", err)
	}

	s.bus.Publish(ctx, events.DuplicateLeadBlocked{
		BaseEvent:      events.NewBaseEvent(),
		ExistingLeadID: existing.ID,
		PhoneNumber:    phoneNumber,
		AttemptedByID:  actor.ID,
	})

	details := map[string]string{
		"existing_lead_id": existing.ID.String(),
		"status":           string(existing.Status),
		"created_at":       existing.CreatedAt.Format(time.RFC3339),
	}
	if existing.SalesmanName != nil {
		details["salesman_name"] = *existing.SalesmanName
	}
	if existing.CallOperatorName != nil {
		details["call_operator_name"] = *existing.CallOperatorName
	}
	return apperr.Duplicate("a lead with this phone number already exists").WithDetails(details)
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (repository.Lead, error) {
	lead, err := s.store.GetByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return repository.Lead{}, apperr.NotFound("lead not found")
	}
	if err != nil {
		return repository.Lead{}, apperr.Persistence("could not load lead", err)
	}
	return lead, nil
}

// List applies the query filters. Role scoping is done here, not in the
// handler: salesmen see their own leads, operators and technicians see their
// assignment queues, leads and admins see everything.
func (s *Service) List(ctx context.Context, actor domain.Actor, query transport.ListLeadsQuery) ([]repository.Lead, int, error) {
	params, err := buildListParams(query)
	if err != nil {
		return nil, 0, err
	}

	switch actor.Role {
	case domain.RoleSalesman:
		params.SalesmanID = &actor.ID
	case domain.RoleCallOperator:
		params.CallOperatorID = &actor.ID
	case domain.RoleTechnician:
		params.TechnicianID = &actor.ID
	}

	leads, total, err := s.store.List(ctx, params)
	if err != nil {
		return nil, 0, apperr.Persistence("could not list leads", err)
	}
	return leads, total, nil
}

func buildListParams(query transport.ListLeadsQuery) (repository.ListParams, error) {
	params := repository.ListParams{
		Search: query.Search,
		Limit:  query.PageSize,
	}
	if params.Limit <= 0 || params.Limit > 100 {
		params.Limit = defaultPageSize
	}
	if query.Page > 1 {
		params.Offset = (query.Page - 1) * params.Limit
	}

	if query.Status != "" {
		status, err := domain.ParseStatus(query.Status)
		if err != nil {
			return repository.ListParams{}, apperr.Validation(err.Error())
		}
		params.Status = &status
	}
	if query.Likelihood != "" {
		l := domain.Likelihood(query.Likelihood)
		params.Likelihood = &l
	}
	if query.PropertyType != "" {
		p := domain.PropertyType(query.PropertyType)
		params.PropertyType = &p
	}

	var err error
	if params.SalesmanID, err = parseIDFilter(query.SalesmanID); err != nil {
		return repository.ListParams{}, err
	}
	if params.CallOperatorID, err = parseIDFilter(query.OperatorID); err != nil {
		return repository.ListParams{}, err
	}
	if params.TechnicianID, err = parseIDFilter(query.TechnicianID); err != nil {
		return repository.ListParams{}, err
	}

	return params, nil
}

func parseIDFilter(raw string) (*uuid.UUID, error) {
	if raw == "" {
		return nil, nil
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return nil, apperr.Validation("invalid user id filter")
	}
	return &id, nil
}

func (s *Service) ListUnassigned(ctx context.Context, filter repository.UnassignedFilter, page, pageSize int) ([]repository.Lead, int, error) {
	if pageSize <= 0 || pageSize > 100 {
		pageSize = defaultPageSize
	}
	offset := 0
	if page > 1 {
		offset = (page - 1) * pageSize
	}

	leads, total, err := s.store.ListUnassigned(ctx, filter, pageSize, offset)
	if err != nil {
		return nil, 0, apperr.Persistence("could not list unassigned leads", err)
	}
	return leads, total, nil
}

func (s *Service) CountUnassigned(ctx context.Context, filter repository.UnassignedFilter) (int, error) {
	count, err := s.store.CountUnassigned(ctx, filter)
	if err != nil {
		return 0, apperr.Persistence("could not count unassigned leads", err)
	}
	return count, nil
}

func (s *Service) StatusCounts(ctx context.Context) (map[domain.Status]int, int, error) {
	counts, err := s.store.CountByStatus(ctx)
	if err != nil {
		return nil, 0, apperr.Persistence("could not count leads", err)
	}
	total := 0
	for _, c := range counts {
		total += c
	}
	return counts, total, nil
}

func (s *Service) Activity(ctx context.Context, leadID uuid.UUID) ([]repository.Activity, error) {
	if _, err := s.Get(ctx, leadID); err != nil {
		return nil, err
	}
	items, err := s.store.ListActivity(ctx, leadID)
	if err != nil {
		return nil, apperr.Persistence("could not load lead activity", err)
	}
	return items, nil
}

// Delete removes a lead outright. Restricted to admins at the routing layer.
func (s *Service) Delete(ctx context.Context, actor domain.Actor, id uuid.UUID) error {
	err := s.store.Delete(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return apperr.NotFound("lead not found")
	}
	if err != nil {
		return apperr.Persistence("could not delete lead", err)
	}
	s.log.LeadEvent("deleted", id.String(), actor.ID.String())
	return nil
}
