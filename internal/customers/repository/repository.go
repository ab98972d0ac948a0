// Package repository implements store access for converted customers. The
// lead-to-customer conversion is a single transaction so the customer row and
// the lead's completed status always land together.
package repository

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"fieldcrm_backend/internal/leads/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Customer account states. Every conversion starts the customer as active;
// inactive is an administrative flag set later.
const (
	StatusActive   = "active"
	StatusInactive = "inactive"
)

var (
	ErrNotFound = errors.New("customer not found")
	// ErrLeadAlreadyConverted is returned when the lead picked up a
	// customer link between the precondition check and the write.
	ErrLeadAlreadyConverted = errors.New("lead already converted")
)

type Repository struct {
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

type Customer struct {
	ID                      uuid.UUID
	CustomerID              string
	LeadID                  uuid.UUID
	Name                    string
	PhoneNumber             string
	AdditionalPhone         *string
	Email                   string
	Address                 string
	PropertyType            domain.PropertyType
	Status                  string
	ProjectStatus           *string
	ElectricityBillNumber   string
	AverageUsage            float64
	CustomerNeeds           string
	HasPaidFirstInstallment bool
	PaymentMethod           *string
	LoanProvider            *string
	LoanAmount              *float64
	LoanAccountNumber       *string
	ConvertedAt             time.Time
	CreatedBy               uuid.UUID
	CreatedByName           string
	CreatedAt               time.Time
	UpdatedAt               time.Time
}

const customerColumns = `id, customer_id, lead_id, name, phone_number, additional_phone,
	email, address, property_type, status, project_status,
	electricity_bill_number, average_usage,
	customer_needs, has_paid_first_installment, payment_method,
	loan_provider, loan_amount, loan_account_number,
	converted_at, created_by, created_by_name, created_at, updated_at`

func scanCustomer(row pgx.Row) (Customer, error) {
	var c Customer
	err := row.Scan(
		&c.ID, &c.CustomerID, &c.LeadID, &c.Name, &c.PhoneNumber, &c.AdditionalPhone,
		&c.Email, &c.Address, &c.PropertyType, &c.Status, &c.ProjectStatus,
		&c.ElectricityBillNumber, &c.AverageUsage,
		&c.CustomerNeeds, &c.HasPaidFirstInstallment, &c.PaymentMethod,
		&c.LoanProvider, &c.LoanAmount, &c.LoanAccountNumber,
		&c.ConvertedAt, &c.CreatedBy, &c.CreatedByName, &c.CreatedAt, &c.UpdatedAt,
	)
	return c, err
}

// nextCustomerID builds the next business key for a prefix from the highest
// existing one: RE001 after no residential customers, RE002 after RE001.
func nextCustomerID(prefix string, last *string) (string, error) {
	if last == nil {
		return fmt.Sprintf("%s%03d", prefix, 1), nil
	}
	suffix := strings.TrimPrefix(*last, prefix)
	n, err := strconv.Atoi(suffix)
	if err != nil {
		return "", fmt.Errorf("customer id %q has a non-numeric suffix", *last)
	}
	return fmt.Sprintf("%s%03d", prefix, n+1), nil
}

// fallbackCustomerID is used when the sequence cannot be derived; the
// timestamp keeps it unique without coordinating with existing rows.
func fallbackCustomerID(prefix string, now time.Time) string {
	return fmt.Sprintf("%s%d", prefix, now.UnixMilli())
}

type ConvertLeadParams struct {
	LeadID                  uuid.UUID
	Name                    string
	PhoneNumber             string
	AdditionalPhone         *string
	Email                   string
	Address                 string
	PropertyType            domain.PropertyType
	ElectricityBillNumber   string
	AverageUsage            float64
	CustomerNeeds           string
	HasPaidFirstInstallment bool
	PaymentMethod           *string
	LoanProvider            *string
	LoanAmount              *float64
	LoanAccountNumber       *string
	CreatedBy               uuid.UUID
	CreatedByName           string
}

// ConvertLead inserts the customer row and marks the lead completed in one
// transaction. The lead update is guarded on customer_id IS NULL so a
// concurrent conversion loses cleanly.
func (r *Repository) ConvertLead(ctx context.Context, params ConvertLeadParams) (Customer, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return Customer{}, err
	}
	defer tx.Rollback(ctx)

	customerID, err := r.generateCustomerID(ctx, tx, params.PropertyType)
	if err != nil {
		return Customer{}, err
	}

	row := tx.QueryRow(ctx, `
		INSERT INTO customers (
			customer_id, lead_id, name, phone_number, additional_phone,
			email, address, property_type, status,
			electricity_bill_number, average_usage,
			customer_needs, has_paid_first_installment, payment_method,
			loan_provider, loan_amount, loan_account_number,
			converted_at, created_by, created_by_name
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, now(), $18, $19)
		RETURNING `+customerColumns,
		customerID, params.LeadID, params.Name, params.PhoneNumber, params.AdditionalPhone,
		params.Email, params.Address, params.PropertyType, StatusActive,
		params.ElectricityBillNumber, params.AverageUsage,
		params.CustomerNeeds, params.HasPaidFirstInstallment, params.PaymentMethod,
		params.LoanProvider, params.LoanAmount, params.LoanAccountNumber,
		params.CreatedBy, params.CreatedByName,
	)

	customer, err := scanCustomer(row)
	if err != nil {
		return Customer{}, err
	}

	result, err := tx.Exec(ctx, `
		UPDATE leads SET customer_id = $1, status = $2, updated_at = now()
		WHERE id = $3 AND customer_id IS NULL
	`, customerID, domain.StatusCompleted, params.LeadID)
	if err != nil {
		return Customer{}, err
	}
	if result.RowsAffected() == 0 {
		return Customer{}, ErrLeadAlreadyConverted
	}

	if err := tx.Commit(ctx); err != nil {
		return Customer{}, err
	}
	return customer, nil
}

// generateCustomerID scans the highest existing key for the prefix inside
// the conversion transaction. If the derived sequence is unusable it falls
// back to a timestamp key rather than failing the conversion.
func (r *Repository) generateCustomerID(ctx context.Context, tx pgx.Tx, propertyType domain.PropertyType) (string, error) {
	prefix := propertyType.CustomerIDPrefix()

	var last *string
	err := tx.QueryRow(ctx, `
		SELECT customer_id FROM customers
		WHERE customer_id LIKE $1
		ORDER BY customer_id DESC
		LIMIT 1
	`, prefix+"%").Scan(&last)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return "", err
	}

	id, genErr := nextCustomerID(prefix, last)
	if genErr != nil {
		return fallbackCustomerID(prefix, time.Now()), nil
	}
	return id, nil
}

func (r *Repository) GetByCustomerID(ctx context.Context, customerID string) (Customer, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+customerColumns+` FROM customers WHERE customer_id = $1`, customerID)
	customer, err := scanCustomer(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Customer{}, ErrNotFound
	}
	return customer, err
}

func (r *Repository) List(ctx context.Context, limit, offset int) ([]Customer, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM customers`).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.pool.Query(ctx, `
		SELECT `+customerColumns+`
		FROM customers
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2
	`, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	customers := make([]Customer, 0)
	for rows.Next() {
		customer, err := scanCustomer(rows)
		if err != nil {
			return nil, 0, err
		}
		customers = append(customers, customer)
	}
	return customers, total, rows.Err()
}
