package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/aftersales-service/internal/domain"
)

// RequestFilter captures listing parameters for service requests.
type RequestFilter struct {
	DepartmentID *string
	CustomerID   *string
	TechnicianID *string
	ReceivedByID *string
	Statuses     []domain.RequestStatus
	OverdueOnly  bool
	CreatedFrom  *time.Time
	CreatedTo    *time.Time
	Limit        int
	Offset       int
}

// RequestRepository encapsulates service-request persistence.
type RequestRepository interface {
	Create(ctx context.Context, request *domain.ServiceRequest) error
	Update(ctx context.Context, request *domain.ServiceRequest) error
	GetByID(ctx context.Context, id string) (*domain.ServiceRequest, error)
	GetByNumber(ctx context.Context, number int64) (*domain.ServiceRequest, error)
	ListWithFilter(ctx context.Context, filter RequestFilter) ([]domain.ServiceRequest, error)
	MarkOverdue(ctx context.Context, now time.Time) ([]domain.ServiceRequest, error)
}

type requestRepository struct {
	q Querier
}

// NewRequestRepository instantiates repository.
func NewRequestRepository(q Querier) RequestRepository {
	return &requestRepository{q: q}
}

const requestColumns = `id, request_number, customer_id, department_id, product_id,
               assigned_technician_id, received_by_id, issue_description, status, priority,
               warranty_status, execution_method, sla_due_date, is_overdue,
               customer_satisfaction, final_notes, completed_at, created_at, updated_at`

func (r *requestRepository) Create(ctx context.Context, request *domain.ServiceRequest) error {
	const query = `
        INSERT INTO service_requests (request_number, customer_id, department_id, product_id,
            assigned_technician_id, received_by_id, issue_description, status, priority,
            warranty_status, execution_method, sla_due_date, is_overdue)
        VALUES (nextval('service_request_number_seq'),$1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
        RETURNING id, request_number, created_at, updated_at`
	return r.q.QueryRow(ctx, query,
		request.CustomerID,
		request.DepartmentID,
		request.ProductID,
		request.AssignedTechnicianID,
		request.ReceivedByID,
		request.IssueDescription,
		request.Status,
		request.Priority,
		request.WarrantyStatus,
		request.ExecutionMethod,
		request.SLADueDate,
		request.IsOverdue,
	).Scan(&request.ID, &request.RequestNumber, &request.CreatedAt, &request.UpdatedAt)
}

func (r *requestRepository) Update(ctx context.Context, request *domain.ServiceRequest) error {
	const query = `
        UPDATE service_requests SET assigned_technician_id=$1, status=$2, priority=$3,
            is_overdue=$4, customer_satisfaction=$5, final_notes=$6, completed_at=$7,
            updated_at=NOW()
        WHERE id=$8`
	cmd, err := r.q.Exec(ctx, query,
		request.AssignedTechnicianID,
		request.Status,
		request.Priority,
		request.IsOverdue,
		request.CustomerSatisfaction,
		request.FinalNotes,
		request.CompletedAt,
		request.ID,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *requestRepository) GetByID(ctx context.Context, id string) (*domain.ServiceRequest, error) {
	query := `SELECT ` + requestColumns + ` FROM service_requests WHERE id=$1`
	return r.fetchSingle(ctx, query, id)
}

func (r *requestRepository) GetByNumber(ctx context.Context, number int64) (*domain.ServiceRequest, error) {
	query := `SELECT ` + requestColumns + ` FROM service_requests WHERE request_number=$1`
	return r.fetchSingle(ctx, query, number)
}

func (r *requestRepository) fetchSingle(ctx context.Context, query string, arg any) (*domain.ServiceRequest, error) {
	var request domain.ServiceRequest
	if err := scanRequest(r.q.QueryRow(ctx, query, arg), &request); err != nil {
		return nil, err
	}
	return &request, nil
}

func (r *requestRepository) ListWithFilter(ctx context.Context, filter RequestFilter) ([]domain.ServiceRequest, error) {
	base := `SELECT ` + requestColumns + ` FROM service_requests`
	clauses := []string{"1=1"}
	args := []any{}

	if filter.DepartmentID != nil {
		args = append(args, *filter.DepartmentID)
		clauses = append(clauses, fmt.Sprintf("department_id=$%d", len(args)))
	}
	if filter.CustomerID != nil {
		args = append(args, *filter.CustomerID)
		clauses = append(clauses, fmt.Sprintf("customer_id=$%d", len(args)))
	}
	if filter.TechnicianID != nil && filter.ReceivedByID != nil {
		args = append(args, *filter.TechnicianID)
		technician := fmt.Sprintf("$%d", len(args))
		args = append(args, *filter.ReceivedByID)
		received := fmt.Sprintf("$%d", len(args))
		clauses = append(clauses, fmt.Sprintf("(assigned_technician_id=%s OR received_by_id=%s)", technician, received))
	} else if filter.TechnicianID != nil {
		args = append(args, *filter.TechnicianID)
		clauses = append(clauses, fmt.Sprintf("assigned_technician_id=$%d", len(args)))
	} else if filter.ReceivedByID != nil {
		args = append(args, *filter.ReceivedByID)
		clauses = append(clauses, fmt.Sprintf("received_by_id=$%d", len(args)))
	}
	if len(filter.Statuses) > 0 {
		placeholders := make([]string, len(filter.Statuses))
		for i, status := range filter.Statuses {
			args = append(args, status)
			placeholders[i] = fmt.Sprintf("$%d", len(args))
		}
		clauses = append(clauses, fmt.Sprintf("status IN (%s)", strings.Join(placeholders, ",")))
	}
	if filter.OverdueOnly {
		clauses = append(clauses, "is_overdue = TRUE")
	}
	if filter.CreatedFrom != nil {
		args = append(args, *filter.CreatedFrom)
		clauses = append(clauses, fmt.Sprintf("created_at >= $%d", len(args)))
	}
	if filter.CreatedTo != nil {
		args = append(args, *filter.CreatedTo)
		clauses = append(clauses, fmt.Sprintf("created_at <= $%d", len(args)))
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 20
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}

	query := fmt.Sprintf(`%s WHERE %s ORDER BY created_at DESC LIMIT %d OFFSET %d`,
		base, strings.Join(clauses, " AND "), limit, offset)

	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanRequests(rows)
}

// MarkOverdue flips is_overdue on every open request whose deadline has
// passed and returns the flipped rows. The is_overdue=FALSE predicate is
// part of the same atomic update, so a request is never flagged twice even
// under concurrent sweeps.
func (r *requestRepository) MarkOverdue(ctx context.Context, now time.Time) ([]domain.ServiceRequest, error) {
	query := `
        UPDATE service_requests SET is_overdue = TRUE, updated_at = NOW()
        WHERE sla_due_date < $1 AND is_overdue = FALSE AND status NOT IN ($2,$3)
        RETURNING ` + requestColumns
	rows, err := r.q.Query(ctx, query, now, domain.RequestStatusCompleted, domain.RequestStatusClosed)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanRequests(rows)
}

func scanRequests(rows pgx.Rows) ([]domain.ServiceRequest, error) {
	var result []domain.ServiceRequest
	for rows.Next() {
		var request domain.ServiceRequest
		if err := scanRequest(rows, &request); err != nil {
			return nil, err
		}
		result = append(result, request)
	}
	return result, rows.Err()
}

func scanRequest(row pgx.Row, request *domain.ServiceRequest) error {
	return row.Scan(
		&request.ID,
		&request.RequestNumber,
		&request.CustomerID,
		&request.DepartmentID,
		&request.ProductID,
		&request.AssignedTechnicianID,
		&request.ReceivedByID,
		&request.IssueDescription,
		&request.Status,
		&request.Priority,
		&request.WarrantyStatus,
		&request.ExecutionMethod,
		&request.SLADueDate,
		&request.IsOverdue,
		&request.CustomerSatisfaction,
		&request.FinalNotes,
		&request.CompletedAt,
		&request.CreatedAt,
		&request.UpdatedAt,
	)
}
