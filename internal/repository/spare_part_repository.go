package repository

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/aftersales-service/internal/domain"
)

// SparePartRepository encapsulates spare-part inventory persistence.
type SparePartRepository interface {
	Create(ctx context.Context, part *domain.SparePart) error
	GetByID(ctx context.Context, id string) (*domain.SparePart, error)
	// GetByIDForUpdate locks the row for the remainder of the enclosing
	// transaction so concurrent consumers serialize on the stock count.
	GetByIDForUpdate(ctx context.Context, id string) (*domain.SparePart, error)
	AdjustQuantity(ctx context.Context, id string, delta int) error
	List(ctx context.Context, limit, offset int) ([]domain.SparePart, error)
}

type sparePartRepository struct {
	q Querier
}

// NewSparePartRepository instantiates repository.
func NewSparePartRepository(q Querier) SparePartRepository {
	return &sparePartRepository{q: q}
}

const sparePartColumns = `id, name, part_number, quantity, min_quantity, unit_price, currency, created_at, updated_at`

func (r *sparePartRepository) Create(ctx context.Context, part *domain.SparePart) error {
	const query = `
        INSERT INTO spare_parts (name, part_number, quantity, min_quantity, unit_price, currency)
        VALUES ($1,$2,$3,$4,$5,$6)
        RETURNING id, created_at, updated_at`
	return r.q.QueryRow(ctx, query,
		part.Name,
		part.PartNumber,
		part.Quantity,
		part.MinQuantity,
		part.UnitPrice,
		part.Currency,
	).Scan(&part.ID, &part.CreatedAt, &part.UpdatedAt)
}

func (r *sparePartRepository) GetByID(ctx context.Context, id string) (*domain.SparePart, error) {
	query := `SELECT ` + sparePartColumns + ` FROM spare_parts WHERE id=$1`
	return r.fetchSingle(ctx, query, id)
}

func (r *sparePartRepository) GetByIDForUpdate(ctx context.Context, id string) (*domain.SparePart, error) {
	query := `SELECT ` + sparePartColumns + ` FROM spare_parts WHERE id=$1 FOR UPDATE`
	return r.fetchSingle(ctx, query, id)
}

func (r *sparePartRepository) fetchSingle(ctx context.Context, query string, arg any) (*domain.SparePart, error) {
	var part domain.SparePart
	if err := r.q.QueryRow(ctx, query, arg).Scan(
		&part.ID,
		&part.Name,
		&part.PartNumber,
		&part.Quantity,
		&part.MinQuantity,
		&part.UnitPrice,
		&part.Currency,
		&part.CreatedAt,
		&part.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &part, nil
}

// AdjustQuantity applies delta to the stock count. The quantity >= 0 check
// runs inside the UPDATE itself, so a decrement below zero affects no rows
// and surfaces as pgx.ErrNoRows instead of a transient negative stock.
func (r *sparePartRepository) AdjustQuantity(ctx context.Context, id string, delta int) error {
	const query = `
        UPDATE spare_parts SET quantity = quantity + $1, updated_at = NOW()
        WHERE id = $2 AND quantity + $1 >= 0`
	cmd, err := r.q.Exec(ctx, query, delta, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *sparePartRepository) List(ctx context.Context, limit, offset int) ([]domain.SparePart, error) {
	if limit <= 0 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	query := `SELECT ` + sparePartColumns + ` FROM spare_parts ORDER BY name ASC LIMIT $1 OFFSET $2`
	rows, err := r.q.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.SparePart
	for rows.Next() {
		var part domain.SparePart
		if err := rows.Scan(
			&part.ID,
			&part.Name,
			&part.PartNumber,
			&part.Quantity,
			&part.MinQuantity,
			&part.UnitPrice,
			&part.Currency,
			&part.CreatedAt,
			&part.UpdatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, part)
	}
	return result, rows.Err()
}
