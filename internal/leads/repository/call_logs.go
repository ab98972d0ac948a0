package repository

import (
	"context"
	"time"

	"fieldcrm_backend/internal/leads/domain"

	"github.com/google/uuid"
)

// CallLog is one append-only record of a call outcome against a lead.
type CallLog struct {
	ID           uuid.UUID
	LeadID       uuid.UUID
	OperatorID   uuid.UUID
	OperatorName string
	Outcome      domain.Status
	Notes        *string
	CreatedAt    time.Time
}

type AddCallLogParams struct {
	LeadID       uuid.UUID
	OperatorID   uuid.UUID
	OperatorName string
	Outcome      domain.Status
	Notes        *string
}

func (r *Repository) AddCallLog(ctx context.Context, params AddCallLogParams) (CallLog, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO call_logs (lead_id, operator_id, operator_name, outcome, notes)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, lead_id, operator_id, operator_name, outcome, notes, created_at
	`, params.LeadID, params.OperatorID, params.OperatorName, params.Outcome, params.Notes)

	var log CallLog
	err := row.Scan(&log.ID, &log.LeadID, &log.OperatorID, &log.OperatorName, &log.Outcome, &log.Notes, &log.CreatedAt)
	return log, err
}

// ListCallLogs returns a lead's call history, newest first.
func (r *Repository) ListCallLogs(ctx context.Context, leadID uuid.UUID) ([]CallLog, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, lead_id, operator_id, operator_name, outcome, notes, created_at
		FROM call_logs
		WHERE lead_id = $1
		ORDER BY created_at DESC
	`, leadID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	logs := make([]CallLog, 0)
	for rows.Next() {
		var log CallLog
		if err := rows.Scan(&log.ID, &log.LeadID, &log.OperatorID, &log.OperatorName, &log.Outcome, &log.Notes, &log.CreatedAt); err != nil {
			return nil, err
		}
		logs = append(logs, log)
	}
	return logs, rows.Err()
}
