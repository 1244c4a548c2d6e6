package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// Querier is the subset of pgx used by repositories. Both *pgxpool.Pool
// and pgx.Tx satisfy it, so the same repository code runs standalone or
// inside a transaction.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Repositories bundles every repository bound to one Querier.
type Repositories struct {
	Requests      RequestRepository
	RequestParts  RequestPartRepository
	SpareParts    SparePartRepository
	Activities    ActivityRepository
	Costs         CostRepository
	Notifications NotificationRepository
	Users         UserRepository
	Departments   DepartmentRepository
	Customers     CustomerRepository
	Products      ProductRepository
}

// New builds the repository bundle over q.
func New(q Querier) Repositories {
	return Repositories{
		Requests:      NewRequestRepository(q),
		RequestParts:  NewRequestPartRepository(q),
		SpareParts:    NewSparePartRepository(q),
		Activities:    NewActivityRepository(q),
		Costs:         NewCostRepository(q),
		Notifications: NewNotificationRepository(q),
		Users:         NewUserRepository(q),
		Departments:   NewDepartmentRepository(q),
		Customers:     NewCustomerRepository(q),
		Products:      NewProductRepository(q),
	}
}

// TxRunner executes fn against a repository bundle bound to a single
// serializable transaction. The whole unit commits or rolls back together.
type TxRunner interface {
	InTx(ctx context.Context, fn func(Repositories) error) error
}
