package repository

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/aftersales-service/internal/domain"
)

// RequestPartRepository stores consumed-part records for requests.
type RequestPartRepository interface {
	Create(ctx context.Context, part *domain.RequestPart) error
	GetByID(ctx context.Context, id string) (*domain.RequestPart, error)
	UpdateQuantity(ctx context.Context, id string, quantityUsed int, totalCost float64) error
	Delete(ctx context.Context, id string) error
	ListByRequest(ctx context.Context, requestID string) ([]domain.RequestPart, error)
}

type requestPartRepository struct {
	q Querier
}

// NewRequestPartRepository instantiates repository.
func NewRequestPartRepository(q Querier) RequestPartRepository {
	return &requestPartRepository{q: q}
}

func (r *requestPartRepository) Create(ctx context.Context, part *domain.RequestPart) error {
	const query = `
        INSERT INTO request_parts (request_id, spare_part_id, quantity_used, unit_price, total_cost)
        VALUES ($1,$2,$3,$4,$5)
        RETURNING id, created_at`
	return r.q.QueryRow(ctx, query,
		part.RequestID,
		part.SparePartID,
		part.QuantityUsed,
		part.UnitPrice,
		part.TotalCost,
	).Scan(&part.ID, &part.CreatedAt)
}

func (r *requestPartRepository) GetByID(ctx context.Context, id string) (*domain.RequestPart, error) {
	const query = `
        SELECT id, request_id, spare_part_id, quantity_used, unit_price, total_cost, created_at
        FROM request_parts WHERE id=$1`
	var part domain.RequestPart
	if err := r.q.QueryRow(ctx, query, id).Scan(
		&part.ID,
		&part.RequestID,
		&part.SparePartID,
		&part.QuantityUsed,
		&part.UnitPrice,
		&part.TotalCost,
		&part.CreatedAt,
	); err != nil {
		return nil, err
	}
	return &part, nil
}

func (r *requestPartRepository) UpdateQuantity(ctx context.Context, id string, quantityUsed int, totalCost float64) error {
	const query = `UPDATE request_parts SET quantity_used=$1, total_cost=$2 WHERE id=$3`
	cmd, err := r.q.Exec(ctx, query, quantityUsed, totalCost, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *requestPartRepository) Delete(ctx context.Context, id string) error {
	cmd, err := r.q.Exec(ctx, `DELETE FROM request_parts WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *requestPartRepository) ListByRequest(ctx context.Context, requestID string) ([]domain.RequestPart, error) {
	const query = `
        SELECT id, request_id, spare_part_id, quantity_used, unit_price, total_cost, created_at
        FROM request_parts WHERE request_id=$1 ORDER BY created_at ASC`
	rows, err := r.q.Query(ctx, query, requestID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.RequestPart
	for rows.Next() {
		var part domain.RequestPart
		if err := rows.Scan(
			&part.ID,
			&part.RequestID,
			&part.SparePartID,
			&part.QuantityUsed,
			&part.UnitPrice,
			&part.TotalCost,
			&part.CreatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, part)
	}
	return result, rows.Err()
}
