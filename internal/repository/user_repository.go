package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/spec-kit/aftersales-service/internal/domain"
)

// UserRepository encapsulates operator persistence.
type UserRepository interface {
	GetByID(ctx context.Context, id string) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	// ListActiveByRoles returns active users holding one of the roles,
	// optionally narrowed to a department.
	ListActiveByRoles(ctx context.Context, roles []domain.Role, departmentID *string) ([]domain.User, error)
}

type userRepository struct {
	q Querier
}

// NewUserRepository instantiates repository.
func NewUserRepository(q Querier) UserRepository {
	return &userRepository{q: q}
}

const userColumns = `id, name, email, password_hash, role, department_id, active, created_at, updated_at`

func (r *userRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id=$1`
	return r.fetchSingle(ctx, query, id)
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email=$1`
	return r.fetchSingle(ctx, query, strings.ToLower(strings.TrimSpace(email)))
}

func (r *userRepository) fetchSingle(ctx context.Context, query string, arg any) (*domain.User, error) {
	var user domain.User
	if err := r.q.QueryRow(ctx, query, arg).Scan(
		&user.ID,
		&user.Name,
		&user.Email,
		&user.PasswordHash,
		&user.Role,
		&user.DepartmentID,
		&user.Active,
		&user.CreatedAt,
		&user.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) ListActiveByRoles(ctx context.Context, roles []domain.Role, departmentID *string) ([]domain.User, error) {
	if len(roles) == 0 {
		return nil, nil
	}
	args := []any{}
	placeholders := make([]string, len(roles))
	for i, role := range roles {
		args = append(args, role)
		placeholders[i] = fmt.Sprintf("$%d", len(args))
	}
	query := `SELECT ` + userColumns + ` FROM users WHERE active=TRUE AND role IN (` + strings.Join(placeholders, ",") + `)`
	if departmentID != nil {
		args = append(args, *departmentID)
		query += fmt.Sprintf(" AND department_id=$%d", len(args))
	}
	query += " ORDER BY name ASC"

	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.User
	for rows.Next() {
		var user domain.User
		if err := rows.Scan(
			&user.ID,
			&user.Name,
			&user.Email,
			&user.PasswordHash,
			&user.Role,
			&user.DepartmentID,
			&user.Active,
			&user.CreatedAt,
			&user.UpdatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, user)
	}
	return result, rows.Err()
}
