// Package repository implements store access for leads and their append-only
// call and call-later logs. All persisted column names are snake_case and
// part of the external data contract; renaming them breaks existing data.
package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"fieldcrm_backend/internal/leads/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrNotFound = errors.New("lead not found")

type Repository struct {
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Lead mirrors one row of the leads table.
type Lead struct {
	ID                  uuid.UUID
	CustomerName        string
	PhoneNumber         string
	AdditionalPhone     *string
	Email               *string
	Address             string
	PropertyType        domain.PropertyType
	Likelihood          domain.Likelihood
	Status              domain.Status
	SalesmanID          *uuid.UUID
	SalesmanName        *string
	CallOperatorID      *uuid.UUID
	CallOperatorName    *string
	TechnicianID        *uuid.UUID
	TechnicianName      *string
	TeamLeadID          *uuid.UUID
	TeamLeadName        *string
	SuperAdminID        *uuid.UUID
	SuperAdminName      *string
	CreatedBy           uuid.UUID
	CreatedByName       string
	CallNotes           *string
	VisitNotes          *string
	FollowUpDate        *time.Time
	RescheduledDate     *time.Time
	RescheduledBy       *string
	RescheduleReason    *string
	ScheduledCallDate   *time.Time
	ScheduledCallTime   *string
	ScheduledCallReason *string
	CallLaterCount      int
	LastCallLaterDate   *time.Time
	LastCallLaterReason *string
	CustomerID          *string
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

const leadColumns = `id, customer_name, phone_number, additional_phone, email, address,
	property_type, likelihood, status,
	salesman_id, salesman_name, call_operator_id, call_operator_name,
	technician_id, technician_name, team_lead_id, team_lead_name,
	super_admin_id, super_admin_name, created_by, created_by_name,
	call_notes, visit_notes, follow_up_date,
	rescheduled_date, rescheduled_by, reschedule_reason,
	scheduled_call_date, scheduled_call_time, scheduled_call_reason,
	call_later_count, last_call_later_date, last_call_later_reason,
	customer_id, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanLead(row rowScanner) (Lead, error) {
	var l Lead
	err := row.Scan(
		&l.ID, &l.CustomerName, &l.PhoneNumber, &l.AdditionalPhone, &l.Email, &l.Address,
		&l.PropertyType, &l.Likelihood, &l.Status,
		&l.SalesmanID, &l.SalesmanName, &l.CallOperatorID, &l.CallOperatorName,
		&l.TechnicianID, &l.TechnicianName, &l.TeamLeadID, &l.TeamLeadName,
		&l.SuperAdminID, &l.SuperAdminName, &l.CreatedBy, &l.CreatedByName,
		&l.CallNotes, &l.VisitNotes, &l.FollowUpDate,
		&l.RescheduledDate, &l.RescheduledBy, &l.RescheduleReason,
		&l.ScheduledCallDate, &l.ScheduledCallTime, &l.ScheduledCallReason,
		&l.CallLaterCount, &l.LastCallLaterDate, &l.LastCallLaterReason,
		&l.CustomerID, &l.CreatedAt, &l.UpdatedAt,
	)
	return l, err
}

type CreateLeadParams struct {
	CustomerName    string
	PhoneNumber     string
	AdditionalPhone *string
	Email           *string
	Address         string
	PropertyType    domain.PropertyType
	Likelihood      domain.Likelihood
	SalesmanID      *uuid.UUID
	SalesmanName    *string
	CreatedBy       uuid.UUID
	CreatedByName   string
	FollowUpDate    *time.Time
}

func (r *Repository) Create(ctx context.Context, params CreateLeadParams) (Lead, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO leads (
			customer_name, phone_number, additional_phone, email, address,
			property_type, likelihood, status,
			salesman_id, salesman_name, created_by, created_by_name, follow_up_date
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING `+leadColumns,
		params.CustomerName, params.PhoneNumber, params.AdditionalPhone, params.Email, params.Address,
		params.PropertyType, params.Likelihood, domain.StatusNew,
		params.SalesmanID, params.SalesmanName, params.CreatedBy, params.CreatedByName, params.FollowUpDate,
	)

	lead, err := scanLead(row)
	if err != nil {
		return Lead{}, err
	}
	return lead, nil
}

func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (Lead, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+leadColumns+` FROM leads WHERE id = $1`, id)
	lead, err := scanLead(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Lead{}, ErrNotFound
	}
	return lead, err
}

// FindByPhone returns the most recent lead whose primary or additional phone
// matches, regardless of status or owner. Used by the duplicate detector.
func (r *Repository) FindByPhone(ctx context.Context, phone string) (Lead, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+leadColumns+`
		FROM leads
		WHERE phone_number = $1 OR additional_phone = $1
		ORDER BY created_at DESC
		LIMIT 1
	`, phone)
	lead, err := scanLead(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Lead{}, ErrNotFound
	}
	return lead, err
}

// StatusUpdateParams carries a status write plus its derived side-effect fields.
type StatusUpdateParams struct {
	Status           domain.Status
	CallNotes        *string
	VisitNotes       *string
	CallOperatorID   *uuid.UUID
	CallOperatorName *string
}

// UpdateStatus applies a status transition and its derived fields in a single
// write. Fields left nil are not touched.
func (r *Repository) UpdateStatus(ctx context.Context, id uuid.UUID, params StatusUpdateParams) (Lead, error) {
	setClauses := []string{"status = $1", "updated_at = now()"}
	args := []interface{}{params.Status}
	argIdx := 2

	addSet := func(column string, value interface{}) {
		setClauses = append(setClauses, fmt.Sprintf("%s = $%d", column, argIdx))
		args = append(args, value)
		argIdx++
	}

	if params.CallNotes != nil {
		addSet("call_notes", *params.CallNotes)
	}
	if params.VisitNotes != nil {
		addSet("visit_notes", *params.VisitNotes)
	}
	if params.CallOperatorID != nil {
		addSet("call_operator_id", *params.CallOperatorID)
	}
	if params.CallOperatorName != nil {
		addSet("call_operator_name", *params.CallOperatorName)
	}

	args = append(args, id)
	query := fmt.Sprintf(`
		UPDATE leads SET %s
		WHERE id = $%d
		RETURNING `+leadColumns, strings.Join(setClauses, ", "), argIdx)

	lead, err := scanLead(r.pool.QueryRow(ctx, query, args...))
	if errors.Is(err, pgx.ErrNoRows) {
		return Lead{}, ErrNotFound
	}
	return lead, err
}

// roleSlotColumns maps an assignable role to its id/name column pair.
func roleSlotColumns(role domain.Role) (string, string, error) {
	switch role {
	case domain.RoleCallOperator:
		return "call_operator_id", "call_operator_name", nil
	case domain.RoleTechnician:
		return "technician_id", "technician_name", nil
	default:
		return "", "", fmt.Errorf("role %q is not assignable", role)
	}
}

// AssignRole writes one role slot (id + name), sets the role-appropriate
// status and bumps updated_at. Other slots are left untouched.
func (r *Repository) AssignRole(ctx context.Context, id uuid.UUID, role domain.Role, userID uuid.UUID, userName string) (Lead, error) {
	idCol, nameCol, err := roleSlotColumns(role)
	if err != nil {
		return Lead{}, err
	}

	query := fmt.Sprintf(`
		UPDATE leads SET %s = $1, %s = $2, status = $3, updated_at = now()
		WHERE id = $4
		RETURNING `+leadColumns, idCol, nameCol)

	lead, scanErr := scanLead(r.pool.QueryRow(ctx, query, userID, userName, role.StatusOnAssign(), id))
	if errors.Is(scanErr, pgx.ErrNoRows) {
		return Lead{}, ErrNotFound
	}
	return lead, scanErr
}

// BulkAssignRole applies the same slot update to every id in one batch write
// and returns the leads it touched. Unknown ids are silently skipped; the
// batch is the unit of atomicity.
func (r *Repository) BulkAssignRole(ctx context.Context, ids []uuid.UUID, role domain.Role, userID uuid.UUID, userName string) ([]Lead, error) {
	if len(ids) == 0 {
		return []Lead{}, nil
	}

	idCol, nameCol, err := roleSlotColumns(role)
	if err != nil {
		return nil, err
	}

	query := fmt.Sprintf(`
		UPDATE leads SET %s = $1, %s = $2, status = $3, updated_at = now()
		WHERE id = ANY($4)
		RETURNING `+leadColumns, idCol, nameCol)

	leads, _, queryErr := r.queryLeads(ctx, query, []interface{}{userID, userName, role.StatusOnAssign(), ids}, 0)
	return leads, queryErr
}

// ListParams filters the lead listing. Nil members are not applied.
type ListParams struct {
	Status         *domain.Status
	Likelihood     *domain.Likelihood
	PropertyType   *domain.PropertyType
	SalesmanID     *uuid.UUID
	CallOperatorID *uuid.UUID
	TechnicianID   *uuid.UUID
	Search         string
	CreatedAtFrom  *time.Time
	CreatedAtTo    *time.Time
	Offset         int
	Limit          int
}

func (r *Repository) List(ctx context.Context, params ListParams) ([]Lead, int, error) {
	whereClause, args, argIdx := buildLeadListWhere(params)

	var total int
	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM leads WHERE %s", whereClause)
	if err := r.pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	args = append(args, params.Limit, params.Offset)
	query := fmt.Sprintf(`
		SELECT %s
		FROM leads
		WHERE %s
		ORDER BY created_at DESC
		LIMIT $%d OFFSET $%d
	`, leadColumns, whereClause, argIdx, argIdx+1)

	return r.queryLeads(ctx, query, args, total)
}

func buildLeadListWhere(params ListParams) (string, []interface{}, int) {
	whereClauses := []string{"true"}
	args := []interface{}{}
	argIdx := 1

	addEquals := func(column string, value interface{}) {
		whereClauses = append(whereClauses, fmt.Sprintf("%s = $%d", column, argIdx))
		args = append(args, value)
		argIdx++
	}

	if params.Status != nil {
		addEquals("status", *params.Status)
	}
	if params.Likelihood != nil {
		addEquals("likelihood", *params.Likelihood)
	}
	if params.PropertyType != nil {
		addEquals("property_type", *params.PropertyType)
	}
	if params.SalesmanID != nil {
		addEquals("salesman_id", *params.SalesmanID)
	}
	if params.CallOperatorID != nil {
		addEquals("call_operator_id", *params.CallOperatorID)
	}
	if params.TechnicianID != nil {
		addEquals("technician_id", *params.TechnicianID)
	}
	if params.Search != "" {
		pattern := "%" + params.Search + "%"
		whereClauses = append(whereClauses, fmt.Sprintf(
			"(customer_name ILIKE $%d OR phone_number ILIKE $%d OR address ILIKE $%d)",
			argIdx, argIdx, argIdx,
		))
		args = append(args, pattern)
		argIdx++
	}
	if params.CreatedAtFrom != nil {
		whereClauses = append(whereClauses, fmt.Sprintf("created_at >= $%d", argIdx))
		args = append(args, *params.CreatedAtFrom)
		argIdx++
	}
	if params.CreatedAtTo != nil {
		whereClauses = append(whereClauses, fmt.Sprintf("created_at < $%d", argIdx))
		args = append(args, *params.CreatedAtTo)
		argIdx++
	}

	return strings.Join(whereClauses, " AND "), args, argIdx
}

// UnassignedFilter selects one of the three distinct unassigned predicates.
// They are deliberately separate: a lead already holding a technician can
// still be unassigned to operators, and vice versa.
type UnassignedFilter string

const (
	// UnassignedBoth matches leads with neither an operator nor a technician.
	UnassignedBoth UnassignedFilter = "both"
	// UnassignedToOperator matches leads with no call operator.
	UnassignedToOperator UnassignedFilter = "call_operator"
	// UnassignedToTechnician matches leads with no technician.
	UnassignedToTechnician UnassignedFilter = "technician"
)

func unassignedPredicate(filter UnassignedFilter) (string, error) {
	switch filter {
	case UnassignedBoth:
		return "call_operator_id IS NULL AND technician_id IS NULL", nil
	case UnassignedToOperator:
		return "call_operator_id IS NULL", nil
	case UnassignedToTechnician:
		return "technician_id IS NULL", nil
	default:
		return "", fmt.Errorf("unknown unassigned filter %q", filter)
	}
}

func (r *Repository) ListUnassigned(ctx context.Context, filter UnassignedFilter, limit, offset int) ([]Lead, int, error) {
	predicate, err := unassignedPredicate(filter)
	if err != nil {
		return nil, 0, err
	}

	var total int
	if err := r.pool.QueryRow(ctx, "SELECT COUNT(*) FROM leads WHERE "+predicate).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := fmt.Sprintf(`
		SELECT %s FROM leads
		WHERE %s
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2
	`, leadColumns, predicate)

	return r.queryLeads(ctx, query, []interface{}{limit, offset}, total)
}

func (r *Repository) CountUnassigned(ctx context.Context, filter UnassignedFilter) (int, error) {
	predicate, err := unassignedPredicate(filter)
	if err != nil {
		return 0, err
	}
	var total int
	err = r.pool.QueryRow(ctx, "SELECT COUNT(*) FROM leads WHERE "+predicate).Scan(&total)
	return total, err
}

// DueForFollowUp reports whether a lead belongs on an operator's follow-up
// list for the given calendar date: its call is scheduled on that date, it is
// still ringing, or its scheduled call is in the past while the lead sits in
// new or hold. Dates compare calendar-day only; time of day is ignored.
func DueForFollowUp(l Lead, onDate time.Time) bool {
	if l.Status == domain.StatusRinging {
		return true
	}
	if l.ScheduledCallDate == nil {
		return false
	}
	scheduled := l.ScheduledCallDate.Format("2006-01-02")
	day := onDate.Format("2006-01-02")
	if scheduled == day {
		return true
	}
	return scheduled < day && (l.Status == domain.StatusNew || l.Status == domain.StatusHold)
}

// ListDueForOperator returns the operator's follow-up work list for the given
// calendar date. The WHERE clause mirrors DueForFollowUp.
func (r *Repository) ListDueForOperator(ctx context.Context, operatorID uuid.UUID, today time.Time) ([]Lead, error) {
	day := today.Format("2006-01-02")
	query := fmt.Sprintf(`
		SELECT %s FROM leads
		WHERE call_operator_id = $1 AND (
			scheduled_call_date = $2::date
			OR status = $3
			OR (scheduled_call_date < $2::date AND status IN ($4, $5))
		)
		ORDER BY scheduled_call_date ASC NULLS LAST, created_at DESC
	`, leadColumns)

	leads, _, err := r.queryLeads(ctx, query, []interface{}{
		operatorID, day, domain.StatusRinging, domain.StatusNew, domain.StatusHold,
	}, 0)
	return leads, err
}

// ListDueOnDate returns every lead with an operator whose scheduled call date
// is due (today or overdue in new/hold). Used by the reminder dispatcher.
func (r *Repository) ListDueOnDate(ctx context.Context, today time.Time) ([]Lead, error) {
	day := today.Format("2006-01-02")
	query := fmt.Sprintf(`
		SELECT %s FROM leads
		WHERE call_operator_id IS NOT NULL AND (
			scheduled_call_date = $1::date
			OR (scheduled_call_date < $1::date AND status IN ($2, $3))
		)
		ORDER BY call_operator_id, scheduled_call_date ASC
	`, leadColumns)

	leads, _, err := r.queryLeads(ctx, query, []interface{}{
		day, domain.StatusNew, domain.StatusHold,
	}, 0)
	return leads, err
}

// CountByStatus returns lead totals per status for dashboard aggregates.
// Recomputed on every read; no cache.
func (r *Repository) CountByStatus(ctx context.Context) (map[domain.Status]int, error) {
	rows, err := r.pool.Query(ctx, `SELECT status, COUNT(*) FROM leads GROUP BY status`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[domain.Status]int)
	for rows.Next() {
		var status domain.Status
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, err
		}
		counts[status] = count
	}
	return counts, rows.Err()
}

func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.pool.Exec(ctx, "DELETE FROM leads WHERE id = $1", id)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *Repository) queryLeads(ctx context.Context, query string, args []interface{}, total int) ([]Lead, int, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	leads := make([]Lead, 0)
	for rows.Next() {
		lead, err := scanLead(rows)
		if err != nil {
			return nil, 0, err
		}
		leads = append(leads, lead)
	}

	if rows.Err() != nil {
		return nil, 0, rows.Err()
	}
	return leads, total, nil
}
