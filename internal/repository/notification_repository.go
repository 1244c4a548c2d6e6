package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/aftersales-service/internal/domain"
)

// NotificationRepository stores per-user in-app notifications.
type NotificationRepository interface {
	Create(ctx context.Context, notification *domain.Notification) error
	ListByUser(ctx context.Context, userID string, unreadOnly bool, limit, offset int) ([]domain.Notification, error)
	MarkRead(ctx context.Context, id, userID string) error
	MarkAllRead(ctx context.Context, userID string) (int64, error)
	CountUnread(ctx context.Context, userID string) (int64, error)
	DeleteReadOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

type notificationRepository struct {
	q Querier
}

// NewNotificationRepository builds repository.
func NewNotificationRepository(q Querier) NotificationRepository {
	return &notificationRepository{q: q}
}

func (r *notificationRepository) Create(ctx context.Context, notification *domain.Notification) error {
	const query = `
        INSERT INTO notifications (user_id, request_id, title, message, notification_type, is_read)
        VALUES ($1,$2,$3,$4,$5,FALSE)
        RETURNING id, created_at`
	return r.q.QueryRow(ctx, query,
		notification.UserID,
		notification.RequestID,
		notification.Title,
		notification.Message,
		notification.Type,
	).Scan(&notification.ID, &notification.CreatedAt)
}

func (r *notificationRepository) ListByUser(ctx context.Context, userID string, unreadOnly bool, limit, offset int) ([]domain.Notification, error) {
	if limit <= 0 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	query := `
        SELECT id, user_id, request_id, title, message, notification_type, is_read, created_at
        FROM notifications WHERE user_id=$1`
	if unreadOnly {
		query += ` AND is_read=FALSE`
	}
	query += ` ORDER BY created_at DESC LIMIT $2 OFFSET $3`

	rows, err := r.q.Query(ctx, query, userID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Notification
	for rows.Next() {
		var notification domain.Notification
		if err := rows.Scan(
			&notification.ID,
			&notification.UserID,
			&notification.RequestID,
			&notification.Title,
			&notification.Message,
			&notification.Type,
			&notification.IsRead,
			&notification.CreatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, notification)
	}
	return result, rows.Err()
}

// MarkRead flips is_read for a notification owned by userID. Ownership is
// part of the predicate so users cannot touch each other's rows.
func (r *notificationRepository) MarkRead(ctx context.Context, id, userID string) error {
	const query = `UPDATE notifications SET is_read=TRUE WHERE id=$1 AND user_id=$2`
	cmd, err := r.q.Exec(ctx, query, id, userID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *notificationRepository) MarkAllRead(ctx context.Context, userID string) (int64, error) {
	const query = `UPDATE notifications SET is_read=TRUE WHERE user_id=$1 AND is_read=FALSE`
	cmd, err := r.q.Exec(ctx, query, userID)
	if err != nil {
		return 0, err
	}
	return cmd.RowsAffected(), nil
}

func (r *notificationRepository) CountUnread(ctx context.Context, userID string) (int64, error) {
	const query = `SELECT COUNT(*) FROM notifications WHERE user_id=$1 AND is_read=FALSE`
	var count int64
	if err := r.q.QueryRow(ctx, query, userID).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

func (r *notificationRepository) DeleteReadOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	const query = `DELETE FROM notifications WHERE is_read=TRUE AND created_at < $1`
	cmd, err := r.q.Exec(ctx, query, cutoff)
	if err != nil {
		return 0, err
	}
	return cmd.RowsAffected(), nil
}
