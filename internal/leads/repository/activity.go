package repository

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Activity is an audit record for notable lead events, including blocked
// duplicate submissions, which never produce a lead row of their own.
type Activity struct {
	ID        uuid.UUID
	LeadID    *uuid.UUID
	Action    string
	ActorID   uuid.UUID
	ActorName string
	Meta      json.RawMessage
	CreatedAt time.Time
}

type AddActivityParams struct {
	LeadID    *uuid.UUID
	Action    string
	ActorID   uuid.UUID
	ActorName string
	Meta      map[string]any
}

func (r *Repository) AddActivity(ctx context.Context, params AddActivityParams) error {
	meta, err := json.Marshal(params.Meta)
	if err != nil {
		return err
	}

	_, err = r.pool.Exec(ctx, `
		INSERT INTO lead_activity (lead_id, action, actor_id, actor_name, meta)
		VALUES ($1, $2, $3, $4, $5)
	`, params.LeadID, params.Action, params.ActorID, params.ActorName, meta)
	return err
}

// ListActivity returns a lead's audit trail, newest first.
func (r *Repository) ListActivity(ctx context.Context, leadID uuid.UUID) ([]Activity, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, lead_id, action, actor_id, actor_name, meta, created_at
		FROM lead_activity
		WHERE lead_id = $1
		ORDER BY created_at DESC
	`, leadID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]Activity, 0)
	for rows.Next() {
		var a Activity
		if err := rows.Scan(&a.ID, &a.LeadID, &a.Action, &a.ActorID, &a.ActorName, &a.Meta, &a.CreatedAt); err != nil {
			return nil, err
		}
		items = append(items, a)
	}
	return items, rows.Err()
}
