package repository

import (
	"context"

	"github.com/spec-kit/aftersales-service/internal/domain"
)

// CostRepository stores append-only cost lines.
type CostRepository interface {
	Create(ctx context.Context, cost *domain.Cost) error
	ListByRequest(ctx context.Context, requestID string) ([]domain.Cost, error)
	SumByRequest(ctx context.Context, requestID string) (float64, error)
}

type costRepository struct {
	q Querier
}

// NewCostRepository builds repository.
func NewCostRepository(q Querier) CostRepository {
	return &costRepository{q: q}
}

func (r *costRepository) Create(ctx context.Context, cost *domain.Cost) error {
	const query = `
        INSERT INTO request_costs (request_id, cost_type, amount, description, created_by)
        VALUES ($1,$2,$3,$4,$5)
        RETURNING id, created_at`
	return r.q.QueryRow(ctx, query,
		cost.RequestID,
		cost.Type,
		cost.Amount,
		cost.Description,
		cost.CreatedBy,
	).Scan(&cost.ID, &cost.CreatedAt)
}

func (r *costRepository) ListByRequest(ctx context.Context, requestID string) ([]domain.Cost, error) {
	const query = `
        SELECT id, request_id, cost_type, amount, description, created_by, created_at
        FROM request_costs WHERE request_id=$1 ORDER BY created_at ASC`
	rows, err := r.q.Query(ctx, query, requestID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Cost
	for rows.Next() {
		var cost domain.Cost
		if err := rows.Scan(
			&cost.ID,
			&cost.RequestID,
			&cost.Type,
			&cost.Amount,
			&cost.Description,
			&cost.CreatedBy,
			&cost.CreatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, cost)
	}
	return result, rows.Err()
}

func (r *costRepository) SumByRequest(ctx context.Context, requestID string) (float64, error) {
	const query = `SELECT COALESCE(SUM(amount), 0) FROM request_costs WHERE request_id=$1`
	var total float64
	if err := r.q.QueryRow(ctx, query, requestID).Scan(&total); err != nil {
		return 0, err
	}
	return total, nil
}
