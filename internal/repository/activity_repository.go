package repository

import (
	"context"

	"github.com/spec-kit/aftersales-service/internal/domain"
)

// ActivityRepository stores the append-only audit trail. Entries are never
// updated or deleted.
type ActivityRepository interface {
	Create(ctx context.Context, activity *domain.RequestActivity) error
	ListByRequest(ctx context.Context, requestID string, limit, offset int) ([]domain.RequestActivity, error)
}

type activityRepository struct {
	q Querier
}

// NewActivityRepository builds repository.
func NewActivityRepository(q Querier) ActivityRepository {
	return &activityRepository{q: q}
}

func (r *activityRepository) Create(ctx context.Context, activity *domain.RequestActivity) error {
	const query = `
        INSERT INTO request_activities (request_id, user_id, activity_type, description, old_value, new_value)
        VALUES ($1,$2,$3,$4,$5,$6)
        RETURNING id, created_at`
	return r.q.QueryRow(ctx, query,
		activity.RequestID,
		activity.UserID,
		activity.ActivityType,
		activity.Description,
		activity.OldValue,
		activity.NewValue,
	).Scan(&activity.ID, &activity.CreatedAt)
}

func (r *activityRepository) ListByRequest(ctx context.Context, requestID string, limit, offset int) ([]domain.RequestActivity, error) {
	if limit <= 0 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}
	const query = `
        SELECT id, request_id, user_id, activity_type, description, old_value, new_value, created_at
        FROM request_activities WHERE request_id=$1 ORDER BY created_at ASC LIMIT $2 OFFSET $3`
	rows, err := r.q.Query(ctx, query, requestID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.RequestActivity
	for rows.Next() {
		var activity domain.RequestActivity
		if err := rows.Scan(
			&activity.ID,
			&activity.RequestID,
			&activity.UserID,
			&activity.ActivityType,
			&activity.Description,
			&activity.OldValue,
			&activity.NewValue,
			&activity.CreatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, activity)
	}
	return result, rows.Err()
}
