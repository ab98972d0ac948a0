// Package inapp persists per-user in-app notifications.
package inapp

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrNotFound = errors.New("notification not found")

type Repository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

type Notification struct {
	ID        uuid.UUID
	UserID    uuid.UUID
	Kind      string
	Title     string
	Body      string
	LeadID    *uuid.UUID
	IsRead    bool
	CreatedAt time.Time
}

const notificationColumns = `id, user_id, kind, title, body, lead_id, is_read, created_at`

type CreateParams struct {
	UserID uuid.UUID
	Kind   string
	Title  string
	Body   string
	LeadID *uuid.UUID
}

func (r *Repository) Create(ctx context.Context, params CreateParams) (Notification, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO in_app_notifications (user_id, kind, title, body, lead_id)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING `+notificationColumns,
		params.UserID, params.Kind, params.Title, params.Body, params.LeadID,
	)
	return scanNotification(row)
}

func scanNotification(row pgx.Row) (Notification, error) {
	var n Notification
	err := row.Scan(&n.ID, &n.UserID, &n.Kind, &n.Title, &n.Body, &n.LeadID, &n.IsRead, &n.CreatedAt)
	return n, err
}

func (r *Repository) ListForUser(ctx context.Context, userID uuid.UUID, limit int) ([]Notification, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+notificationColumns+`
		FROM in_app_notifications
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]Notification, 0)
	for rows.Next() {
		n, err := scanNotification(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, n)
	}
	return items, rows.Err()
}

func (r *Repository) UnreadCount(ctx context.Context, userID uuid.UUID) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx, `
		SELECT COUNT(*) FROM in_app_notifications
		WHERE user_id = $1 AND NOT is_read
	`, userID).Scan(&count)
	return count, err
}

// MarkRead flips one notification; scoped to the owner so users cannot mark
// each other's.
func (r *Repository) MarkRead(ctx context.Context, id, userID uuid.UUID) error {
	result, err := r.pool.Exec(ctx, `
		UPDATE in_app_notifications SET is_read = true
		WHERE id = $1 AND user_id = $2
	`, id, userID)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *Repository) MarkAllRead(ctx context.Context, userID uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE in_app_notifications SET is_read = true
		WHERE user_id = $1 AND NOT is_read
	`, userID)
	return err
}
