package repository

import (
	"context"

	"github.com/spec-kit/aftersales-service/internal/domain"
)

// ProductRepository encapsulates product lookups.
type ProductRepository interface {
	GetByID(ctx context.Context, id string) (*domain.Product, error)
}

type productRepository struct {
	q Querier
}

// NewProductRepository instantiates repository.
func NewProductRepository(q Querier) ProductRepository {
	return &productRepository{q: q}
}

func (r *productRepository) GetByID(ctx context.Context, id string) (*domain.Product, error) {
	const query = `
        SELECT id, name, model, serial_number, created_at, updated_at
        FROM products WHERE id=$1`
	var product domain.Product
	if err := r.q.QueryRow(ctx, query, id).Scan(
		&product.ID,
		&product.Name,
		&product.Model,
		&product.SerialNumber,
		&product.CreatedAt,
		&product.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &product, nil
}
