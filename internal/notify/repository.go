package notify

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository stores notifications in PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// InsertNotifications writes rows in one batch.
func (r *Repository) InsertNotifications(ctx context.Context, rows []Notification) error {
	batch := &pgx.Batch{}
	for _, n := range rows {
		batch.Queue(`INSERT INTO notifications (id, user_id, title, message, link, created_at)
VALUES ($1, $2, $3, $4, NULLIF($5, ''), $6)`, n.ID, n.UserID, n.Title, n.Message, n.Link, n.CreatedAt)
	}
	return r.pool.SendBatch(ctx, batch).Close()
}

// ListForUser returns the newest notifications first.
func (r *Repository) ListForUser(ctx context.Context, userID uuid.UUID, limit int) ([]Notification, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, user_id, title, message, COALESCE(link, ''), is_read, created_at
FROM notifications WHERE user_id = $1 ORDER BY created_at DESC LIMIT $2`, userID, limit)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (Notification, error) {
		var n Notification
		err := row.Scan(&n.ID, &n.UserID, &n.Title, &n.Message, &n.Link, &n.IsRead, &n.CreatedAt)
		return n, err
	})
}

// CountUnread counts unread notifications of a user.
func (r *Repository) CountUnread(ctx context.Context, userID uuid.UUID) (int, error) {
	var n int
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM notifications WHERE user_id = $1 AND NOT is_read`, userID).Scan(&n)
	return n, err
}

// MarkAllRead flags every notification of a user.
func (r *Repository) MarkAllRead(ctx context.Context, userID uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `UPDATE notifications SET is_read = TRUE WHERE user_id = $1 AND NOT is_read`, userID)
	return err
}

// MarkRead flags one notification owned by userID.
func (r *Repository) MarkRead(ctx context.Context, userID, id uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `UPDATE notifications SET is_read = TRUE WHERE id = $1 AND user_id = $2`, id, userID)
	return err
}

var _ Store = (*Repository)(nil)
