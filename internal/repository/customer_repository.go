package repository

import (
	"context"

	"github.com/spec-kit/aftersales-service/internal/domain"
)

// CustomerRepository encapsulates customer lookups.
type CustomerRepository interface {
	GetByID(ctx context.Context, id string) (*domain.Customer, error)
}

type customerRepository struct {
	q Querier
}

// NewCustomerRepository instantiates repository.
func NewCustomerRepository(q Querier) CustomerRepository {
	return &customerRepository{q: q}
}

func (r *customerRepository) GetByID(ctx context.Context, id string) (*domain.Customer, error) {
	const query = `
        SELECT id, name, phone, email, address, created_at, updated_at
        FROM customers WHERE id=$1`
	var customer domain.Customer
	if err := r.q.QueryRow(ctx, query, id).Scan(
		&customer.ID,
		&customer.Name,
		&customer.Phone,
		&customer.Email,
		&customer.Address,
		&customer.CreatedAt,
		&customer.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &customer, nil
}
