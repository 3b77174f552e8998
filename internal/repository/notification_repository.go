package repository

import (
	"context"
	"database/sql"

	"github.com/fahamijemal/astu-smart-complaints-backend/internal/model"
)

// NotificationRepo persists per-user in-app notifications.  Creation is
// fire-and-forget from the caller's perspective; only the owning user ever
// mutates a row, and only to mark it read.
type NotificationRepo struct{ DB *sql.DB }

func NewNotificationRepo(db *sql.DB) *NotificationRepo { return &NotificationRepo{DB: db} }

// Create appends one notification row.
func (r *NotificationRepo) Create(ctx context.Context, n *model.Notification) error {
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO notifications (user_id, title, message, type, reference_id) VALUES (?,?,?,?,?)",
		n.UserID, n.Title, n.Message, n.Type, n.ReferenceID)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	n.ID = uint64(id)
	return nil
}

// ListRecent returns the owner's newest notifications, capped at limit.
func (r *NotificationRepo) ListRecent(ctx context.Context, userID uint64, limit int) ([]model.Notification, error) {
	if limit <= 0 || limit > 50 {
		limit = 50
	}
	rows, err := r.DB.QueryContext(ctx, `
		SELECT id, user_id, title, message, type, reference_id, is_read, created_at
		FROM notifications WHERE user_id = ? ORDER BY created_at DESC LIMIT ?`,
		userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Notification
	for rows.Next() {
		var (
			n   model.Notification
			ref sql.NullInt64
		)
		if err := rows.Scan(&n.ID, &n.UserID, &n.Title, &n.Message, &n.Type, &ref, &n.IsRead, &n.CreatedAt); err != nil {
			return nil, err
		}
		if ref.Valid {
			v := uint64(ref.Int64)
			n.ReferenceID = &v
		}
		out = append(out, n)
	}
	return out, rows.Err()
}

// MarkRead flips the read flag for one notification, scoped to the owner.
// Returns ErrNotFound when the row does not exist or belongs to someone
// else.
func (r *NotificationRepo) MarkRead(ctx context.Context, notificationID, userID uint64) error {
	res, err := r.DB.ExecContext(ctx,
		"UPDATE notifications SET is_read=TRUE WHERE id=? AND user_id=?",
		notificationID, userID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		// Already-read rows affect zero rows on MySQL; treat an existing
		// owned row as success.
		var one int
		err := r.DB.QueryRowContext(ctx,
			"SELECT 1 FROM notifications WHERE id=? AND user_id=?", notificationID, userID).Scan(&one)
		if err == sql.ErrNoRows {
			return ErrNotFound
		}
		return err
	}
	return nil
}

// MarkAllRead flips the read flag on every unread notification the user
// owns.
func (r *NotificationRepo) MarkAllRead(ctx context.Context, userID uint64) error {
	_, err := r.DB.ExecContext(ctx,
		"UPDATE notifications SET is_read=TRUE WHERE user_id=? AND is_read=FALSE", userID)
	return err
}

// UnreadCount returns the number of unread notifications for the user.
func (r *NotificationRepo) UnreadCount(ctx context.Context, userID uint64) (int, error) {
	var n int
	err := r.DB.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM notifications WHERE user_id=? AND is_read=FALSE", userID).Scan(&n)
	return n, err
}
