package repository

import (
	"context"
	"errors"
	"time"

	"fieldcrm_backend/internal/leads/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// CallLaterLog is one entry of a lead's reschedule history. History is kept
// forever; the lead row only carries the latest schedule.
type CallLaterLog struct {
	ID               uuid.UUID
	LeadID           uuid.UUID
	CallLaterDate    time.Time
	CallLaterTime    *string
	Reason           *string
	Notes            *string
	CallOperatorID   uuid.UUID
	CallOperatorName string
	CreatedAt        time.Time
}

type ScheduleCallLaterParams struct {
	LeadID           uuid.UUID
	CallLaterDate    time.Time
	CallLaterTime    *string
	Reason           *string
	Notes            *string
	CallOperatorID   uuid.UUID
	CallOperatorName string
}

// ScheduleCallLater appends a call-later log entry and moves the lead to hold
// with the new schedule in a single transaction. The lead's call_later_count
// increments once per successful schedule.
func (r *Repository) ScheduleCallLater(ctx context.Context, params ScheduleCallLaterParams) (Lead, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return Lead{}, err
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, `
		INSERT INTO call_later_logs (lead_id, call_later_date, call_later_time, reason, notes, call_operator_id, call_operator_name)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, params.LeadID, params.CallLaterDate, params.CallLaterTime, params.Reason, params.Notes, params.CallOperatorID, params.CallOperatorName)
	if err != nil {
		return Lead{}, err
	}

	row := tx.QueryRow(ctx, `
		UPDATE leads SET
			status = $1,
			scheduled_call_date = $2,
			scheduled_call_time = $3,
			scheduled_call_reason = $4,
			call_later_count = call_later_count + 1,
			last_call_later_date = $2,
			last_call_later_reason = $4,
			updated_at = now()
		WHERE id = $5
		RETURNING `+leadColumns,
		domain.StatusHold, params.CallLaterDate, params.CallLaterTime, params.Reason, params.LeadID,
	)

	lead, err := scanLead(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Lead{}, ErrNotFound
	}
	if err != nil {
		return Lead{}, err
	}

	if err := tx.Commit(ctx); err != nil {
		return Lead{}, err
	}
	return lead, nil
}

// ListCallLaterLogs returns a lead's reschedule history, newest first.
func (r *Repository) ListCallLaterLogs(ctx context.Context, leadID uuid.UUID) ([]CallLaterLog, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, lead_id, call_later_date, call_later_time, reason, notes, call_operator_id, call_operator_name, created_at
		FROM call_later_logs
		WHERE lead_id = $1
		ORDER BY created_at DESC
	`, leadID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	logs := make([]CallLaterLog, 0)
	for rows.Next() {
		var log CallLaterLog
		if err := rows.Scan(&log.ID, &log.LeadID, &log.CallLaterDate, &log.CallLaterTime, &log.Reason, &log.Notes, &log.CallOperatorID, &log.CallOperatorName, &log.CreatedAt); err != nil {
			return nil, err
		}
		logs = append(logs, log)
	}
	return logs, rows.Err()
}
