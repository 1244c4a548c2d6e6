package repository

import (
	"context"

	"github.com/spec-kit/aftersales-service/internal/domain"
)

// DepartmentRepository encapsulates department lookups.
type DepartmentRepository interface {
	GetByID(ctx context.Context, id string) (*domain.Department, error)
	List(ctx context.Context) ([]domain.Department, error)
}

type departmentRepository struct {
	q Querier
}

// NewDepartmentRepository instantiates repository.
func NewDepartmentRepository(q Querier) DepartmentRepository {
	return &departmentRepository{q: q}
}

func (r *departmentRepository) GetByID(ctx context.Context, id string) (*domain.Department, error) {
	const query = `
        SELECT id, name, description, is_active, created_at, updated_at
        FROM departments WHERE id=$1`
	var dept domain.Department
	if err := r.q.QueryRow(ctx, query, id).Scan(
		&dept.ID,
		&dept.Name,
		&dept.Description,
		&dept.IsActive,
		&dept.CreatedAt,
		&dept.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &dept, nil
}

func (r *departmentRepository) List(ctx context.Context) ([]domain.Department, error) {
	const query = `
        SELECT id, name, description, is_active, created_at, updated_at
        FROM departments ORDER BY name ASC`
	rows, err := r.q.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Department
	for rows.Next() {
		var dept domain.Department
		if err := rows.Scan(
			&dept.ID,
			&dept.Name,
			&dept.Description,
			&dept.IsActive,
			&dept.CreatedAt,
			&dept.UpdatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, dept)
	}
	return result, rows.Err()
}
