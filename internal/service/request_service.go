package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/aftersales-service/internal/clock"
	"github.com/spec-kit/aftersales-service/internal/domain"
	"github.com/spec-kit/aftersales-service/internal/events"
	"github.com/spec-kit/aftersales-service/internal/policy"
	"github.com/spec-kit/aftersales-service/internal/repository"
	"github.com/spec-kit/aftersales-service/internal/sla"
	apperrors "github.com/spec-kit/aftersales-service/pkg/util"
)

// RequestService owns the service-request lifecycle: creation, technician
// assignment, status transitions, costs and closure. Every mutation is
// authorized first, applied inside one serializable transaction together
// with its audit entry, and followed by a post-commit event.
type RequestService struct {
	tx         repository.TxRunner
	repos      repository.Repositories
	dispatcher events.Dispatcher
	clock      clock.Clock
	slaCfg     sla.Config
	logger     *zap.Logger
}

// RequestDependencies bundles collaborators for the request service.
type RequestDependencies struct {
	Tx         repository.TxRunner
	Repos      repository.Repositories
	Dispatcher events.Dispatcher
	Clock      clock.Clock
	SLAConfig  sla.Config
	Logger     *zap.Logger
}

// NewRequestService constructs the service.
func NewRequestService(deps RequestDependencies) *RequestService {
	return &RequestService{
		tx:         deps.Tx,
		repos:      deps.Repos,
		dispatcher: deps.Dispatcher,
		clock:      deps.Clock,
		slaCfg:     deps.SLAConfig,
		logger:     deps.Logger,
	}
}

// CreateRequestInput describes request creation payload.
type CreateRequestInput struct {
	CustomerID       string
	DepartmentID     string
	ProductID        *string
	IssueDescription string
	Priority         domain.RequestPriority
	WarrantyStatus   domain.WarrantyStatus
	ExecutionMethod  domain.ExecutionMethod
}

// CreateRequest registers a new service request in status NEW, allocating
// the next sequential request number and the SLA deadline.
func (s *RequestService) CreateRequest(ctx context.Context, actor *domain.User, input CreateRequestInput) (*domain.ServiceRequest, error) {
	if actor == nil {
		return nil, apperrors.NewUnauthorized("principal required")
	}
	if input.CustomerID == "" || input.DepartmentID == "" || strings.TrimSpace(input.IssueDescription) == "" {
		return nil, apperrors.NewValidationError("customer_id, department_id and issue_description are required", nil)
	}
	if input.WarrantyStatus != domain.WarrantyStatusUnderWarranty && input.WarrantyStatus != domain.WarrantyStatusOutOfWarranty {
		return nil, apperrors.NewValidationError("invalid warranty_status", nil)
	}
	if input.ExecutionMethod != domain.ExecutionMethodOnSite && input.ExecutionMethod != domain.ExecutionMethodWorkshop {
		return nil, apperrors.NewValidationError("invalid execution_method", nil)
	}

	now := s.clock.Now()
	request := &domain.ServiceRequest{
		CustomerID:       input.CustomerID,
		DepartmentID:     input.DepartmentID,
		ProductID:        input.ProductID,
		ReceivedByID:     actor.ID,
		IssueDescription: strings.TrimSpace(input.IssueDescription),
		Status:           domain.RequestStatusNew,
		Priority:         input.Priority,
		WarrantyStatus:   input.WarrantyStatus,
		ExecutionMethod:  input.ExecutionMethod,
		SLADueDate:       sla.DueDate(s.slaCfg, input.WarrantyStatus, input.ExecutionMethod, now),
		IsOverdue:        false,
	}
	if request.Priority == "" {
		request.Priority = domain.RequestPriorityMedium
	}

	err := s.tx.InTx(ctx, func(r repository.Repositories) error {
		if _, err := r.Customers.GetByID(ctx, input.CustomerID); err != nil {
			return notFoundOr(err, "customer", map[string]any{"customer_id": input.CustomerID})
		}
		dept, err := r.Departments.GetByID(ctx, input.DepartmentID)
		if err != nil {
			return notFoundOr(err, "department", map[string]any{"department_id": input.DepartmentID})
		}
		if !dept.IsActive {
			return apperrors.NewValidationError("department inactive", nil)
		}
		if input.ProductID != nil {
			if _, err := r.Products.GetByID(ctx, *input.ProductID); err != nil {
				return notFoundOr(err, "product", map[string]any{"product_id": *input.ProductID})
			}
		}
		if err := r.Requests.Create(ctx, request); err != nil {
			return err
		}
		return r.Activities.Create(ctx, &domain.RequestActivity{
			RequestID:    request.ID,
			UserID:       actor.ID,
			ActivityType: domain.ActivityCreated,
			Description:  fmt.Sprintf("request #%d created", request.RequestNumber),
			NewValue: map[string]any{
				"status":       request.Status,
				"sla_due_date": request.SLADueDate,
			},
		})
	})
	if err != nil {
		return nil, apperrors.MapError(err)
	}

	s.publishEvent(ctx, events.Event{
		Type:      events.EventRequestCreated,
		RequestID: request.ID,
		ActorID:   actor.ID,
		Payload: events.RequestCreatedPayload{
			RequestNumber: request.RequestNumber,
			DepartmentID:  request.DepartmentID,
			CustomerID:    request.CustomerID,
			Priority:      request.Priority,
			SLADueDate:    request.SLADueDate,
		},
	})
	return request, nil
}

// AssignTechnician assigns or re-assigns a technician to a request.
// Requires an assigner-level role; the technician must be an active
// technician in the request's department. A NEW request moves to ASSIGNED;
// later re-assignments keep the current status.
func (s *RequestService) AssignTechnician(ctx context.Context, actor *domain.User, requestID, technicianID string) (*domain.ServiceRequest, error) {
	if actor == nil {
		return nil, apperrors.NewUnauthorized("principal required")
	}
	if !policy.CanAssignTechnician(actor.Role) {
		return nil, apperrors.NewForbidden("insufficient role for assignment")
	}

	var request *domain.ServiceRequest
	var oldTechnician *string
	err := s.tx.InTx(ctx, func(r repository.Repositories) error {
		var err error
		request, err = r.Requests.GetByID(ctx, requestID)
		if err != nil {
			return notFoundOr(err, "request", map[string]any{"request_id": requestID})
		}
		if !policy.CanAccessRequest(actor, request) {
			return apperrors.NewForbidden("access denied")
		}
		if !domain.IsOpen(request.Status) {
			return apperrors.NewValidationError("request already completed or closed", nil)
		}

		technician, err := r.Users.GetByID(ctx, technicianID)
		if err != nil {
			return notFoundOr(err, "technician", map[string]any{"technician_id": technicianID})
		}
		if technician.Role != domain.RoleTechnician || !technician.Active {
			return apperrors.NewValidationError("assignee is not an active technician", nil)
		}
		if technician.DepartmentID == nil || *technician.DepartmentID != request.DepartmentID {
			return apperrors.NewValidationError("technician not in request department", nil)
		}

		oldTechnician = request.AssignedTechnicianID
		request.AssignedTechnicianID = &technician.ID
		if request.Status == domain.RequestStatusNew {
			request.Status = domain.RequestStatusAssigned
		}
		if err := r.Requests.Update(ctx, request); err != nil {
			return err
		}
		return r.Activities.Create(ctx, &domain.RequestActivity{
			RequestID:    request.ID,
			UserID:       actor.ID,
			ActivityType: domain.ActivityAssignment,
			Description:  "technician assigned",
			OldValue:     map[string]any{"assigned_technician_id": oldTechnician},
			NewValue:     map[string]any{"assigned_technician_id": technician.ID},
		})
	})
	if err != nil {
		return nil, apperrors.MapError(err)
	}

	s.publishEvent(ctx, events.Event{
		Type:      events.EventRequestAssigned,
		RequestID: request.ID,
		ActorID:   actor.ID,
		Payload: events.RequestAssignedPayload{
			DepartmentID:    request.DepartmentID,
			OldTechnicianID: oldTechnician,
			NewTechnicianID: *request.AssignedTechnicianID,
		},
	})
	return request, nil
}

// ChangeStatus moves a request along a legal edge of the status graph.
// Re-sending the current status is an idempotent no-op; moving a CLOSED
// request is rejected unconditionally.
func (s *RequestService) ChangeStatus(ctx context.Context, actor *domain.User, requestID string, newStatus domain.RequestStatus, note string) (*domain.ServiceRequest, error) {
	if actor == nil {
		return nil, apperrors.NewUnauthorized("principal required")
	}
	if !domain.ValidStatus(newStatus) {
		return nil, apperrors.NewValidationError("unknown status", map[string]any{"status": newStatus})
	}

	var request *domain.ServiceRequest
	var oldStatus domain.RequestStatus
	var changed bool
	err := s.tx.InTx(ctx, func(r repository.Repositories) error {
		var err error
		request, err = r.Requests.GetByID(ctx, requestID)
		if err != nil {
			return notFoundOr(err, "request", map[string]any{"request_id": requestID})
		}
		if !policy.CanChangeStatus(actor, request) {
			return apperrors.NewForbidden("access denied")
		}
		if request.Status == newStatus {
			// idempotent no-op: absorbs client retries
			changed = false
			return nil
		}
		if !domain.CanTransition(request.Status, newStatus) {
			return apperrors.NewValidationError("illegal transition", map[string]any{
				"from": request.Status,
				"to":   newStatus,
			})
		}
		if newStatus == domain.RequestStatusCompleted {
			if request.AssignedTechnicianID == nil {
				return apperrors.NewValidationError("cannot complete request without assigned technician", nil)
			}
			now := s.clock.Now()
			request.CompletedAt = &now
		}

		oldStatus = request.Status
		request.Status = newStatus
		changed = true
		if err := r.Requests.Update(ctx, request); err != nil {
			return err
		}
		return r.Activities.Create(ctx, &domain.RequestActivity{
			RequestID:    request.ID,
			UserID:       actor.ID,
			ActivityType: domain.ActivityStatusChange,
			Description:  note,
			OldValue:     map[string]any{"status": oldStatus},
			NewValue:     map[string]any{"status": newStatus},
		})
	})
	if err != nil {
		return nil, apperrors.MapError(err)
	}

	if changed {
		s.publishEvent(ctx, events.Event{
			Type:      events.EventRequestStatusChanged,
			RequestID: request.ID,
			ActorID:   actor.ID,
			Payload: events.RequestStatusChangedPayload{
				DepartmentID: request.DepartmentID,
				TechnicianID: request.AssignedTechnicianID,
				OldStatus:    oldStatus,
				NewStatus:    newStatus,
				Note:         note,
			},
		})
	}
	return request, nil
}

// AddCost appends a cost line without touching request status.
func (s *RequestService) AddCost(ctx context.Context, actor *domain.User, requestID string, costType domain.CostType, amount float64, description string) (*domain.Cost, error) {
	if actor == nil {
		return nil, apperrors.NewUnauthorized("principal required")
	}
	if amount <= 0 {
		return nil, apperrors.NewValidationError("amount must be positive", nil)
	}
	switch costType {
	case domain.CostTypeParts, domain.CostTypeLabor, domain.CostTypeTransportation, domain.CostTypeOther:
	default:
		return nil, apperrors.NewValidationError("invalid cost type", map[string]any{"cost_type": costType})
	}

	cost := &domain.Cost{
		RequestID:   requestID,
		Type:        costType,
		Amount:      amount,
		Description: strings.TrimSpace(description),
		CreatedBy:   actor.ID,
	}
	err := s.tx.InTx(ctx, func(r repository.Repositories) error {
		request, err := r.Requests.GetByID(ctx, requestID)
		if err != nil {
			return notFoundOr(err, "request", map[string]any{"request_id": requestID})
		}
		if !policy.CanAccessRequest(actor, request) {
			return apperrors.NewForbidden("access denied")
		}
		if request.Status == domain.RequestStatusClosed {
			return apperrors.NewValidationError("request is closed", nil)
		}
		if err := r.Costs.Create(ctx, cost); err != nil {
			return err
		}
		return r.Activities.Create(ctx, &domain.RequestActivity{
			RequestID:    request.ID,
			UserID:       actor.ID,
			ActivityType: domain.ActivityCostAdded,
			Description:  cost.Description,
			NewValue: map[string]any{
				"cost_type": cost.Type,
				"amount":    cost.Amount,
			},
		})
	})
	if err != nil {
		return nil, apperrors.MapError(err)
	}

	s.publishEvent(ctx, events.Event{
		Type:      events.EventRequestCostAdded,
		RequestID: requestID,
		ActorID:   actor.ID,
		Payload: events.RequestCostAddedPayload{
			CostType: cost.Type,
			Amount:   cost.Amount,
		},
	})
	return cost, nil
}

// CloseRequest performs the COMPLETED→CLOSED edge, stamping final notes
// and optional customer satisfaction.
func (s *RequestService) CloseRequest(ctx context.Context, actor *domain.User, requestID string, finalNotes string, satisfaction *int) (*domain.ServiceRequest, error) {
	if actor == nil {
		return nil, apperrors.NewUnauthorized("principal required")
	}
	if satisfaction != nil && (*satisfaction < 1 || *satisfaction > 5) {
		return nil, apperrors.NewValidationError("customer_satisfaction must be between 1 and 5", nil)
	}

	var request *domain.ServiceRequest
	err := s.tx.InTx(ctx, func(r repository.Repositories) error {
		var err error
		request, err = r.Requests.GetByID(ctx, requestID)
		if err != nil {
			return notFoundOr(err, "request", map[string]any{"request_id": requestID})
		}
		if !policy.CanChangeStatus(actor, request) {
			return apperrors.NewForbidden("access denied")
		}
		if request.Status != domain.RequestStatusCompleted {
			return apperrors.NewValidationError("only completed requests can be closed", map[string]any{
				"status": request.Status,
			})
		}

		request.Status = domain.RequestStatusClosed
		if trimmed := strings.TrimSpace(finalNotes); trimmed != "" {
			request.FinalNotes = &trimmed
		}
		request.CustomerSatisfaction = satisfaction
		if err := r.Requests.Update(ctx, request); err != nil {
			return err
		}
		return r.Activities.Create(ctx, &domain.RequestActivity{
			RequestID:    request.ID,
			UserID:       actor.ID,
			ActivityType: domain.ActivityStatusChange,
			Description:  "request closed",
			OldValue:     map[string]any{"status": domain.RequestStatusCompleted},
			NewValue:     map[string]any{"status": domain.RequestStatusClosed},
		})
	})
	if err != nil {
		return nil, apperrors.MapError(err)
	}

	s.publishEvent(ctx, events.Event{
		Type:      events.EventRequestStatusChanged,
		RequestID: request.ID,
		ActorID:   actor.ID,
		Payload: events.RequestStatusChangedPayload{
			DepartmentID: request.DepartmentID,
			TechnicianID: request.AssignedTechnicianID,
			OldStatus:    domain.RequestStatusCompleted,
			NewStatus:    domain.RequestStatusClosed,
		},
	})
	return request, nil
}

// GetRequest fetches a request enforcing role-scoped visibility.
func (s *RequestService) GetRequest(ctx context.Context, actor *domain.User, requestID string) (*domain.ServiceRequest, error) {
	if actor == nil {
		return nil, apperrors.NewUnauthorized("principal required")
	}
	request, err := s.repos.Requests.GetByID(ctx, requestID)
	if err != nil {
		return nil, apperrors.MapError(notFoundOr(err, "request", map[string]any{"request_id": requestID}))
	}
	if !policy.CanAccessRequest(actor, request) {
		return nil, apperrors.NewForbidden("access denied")
	}
	return request, nil
}

// GetRequestByNumber resolves a request by its sequential number, applying
// the same visibility rules as GetRequest.
func (s *RequestService) GetRequestByNumber(ctx context.Context, actor *domain.User, number int64) (*domain.ServiceRequest, error) {
	if actor == nil {
		return nil, apperrors.NewUnauthorized("principal required")
	}
	request, err := s.repos.Requests.GetByNumber(ctx, number)
	if err != nil {
		return nil, apperrors.MapError(notFoundOr(err, "request", map[string]any{"request_number": number}))
	}
	if !policy.CanAccessRequest(actor, request) {
		return nil, apperrors.NewForbidden("access denied")
	}
	return request, nil
}

// ListRequests returns requests narrowed to the actor's visibility scope.
func (s *RequestService) ListRequests(ctx context.Context, actor *domain.User, filter repository.RequestFilter) ([]domain.ServiceRequest, error) {
	if actor == nil {
		return nil, apperrors.NewUnauthorized("principal required")
	}
	switch actor.Role {
	case domain.RoleCompanyManager, domain.RoleDeputyManager:
		// unrestricted
	case domain.RoleDepartmentManager, domain.RoleSectionSupervisor:
		if actor.DepartmentID == nil {
			return []domain.ServiceRequest{}, nil
		}
		filter.DepartmentID = actor.DepartmentID
	case domain.RoleTechnician:
		filter.TechnicianID = &actor.ID
		filter.ReceivedByID = &actor.ID
	default:
		return nil, apperrors.NewForbidden("access denied")
	}
	result, err := s.repos.Requests.ListWithFilter(ctx, filter)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return result, nil
}

// ListActivities returns the audit trail for a visible request.
func (s *RequestService) ListActivities(ctx context.Context, actor *domain.User, requestID string, limit, offset int) ([]domain.RequestActivity, error) {
	if _, err := s.GetRequest(ctx, actor, requestID); err != nil {
		return nil, err
	}
	result, err := s.repos.Activities.ListByRequest(ctx, requestID, limit, offset)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return result, nil
}

// RequestCosts returns the cost lines and their aggregate for a visible request.
func (s *RequestService) RequestCosts(ctx context.Context, actor *domain.User, requestID string) ([]domain.Cost, float64, error) {
	if _, err := s.GetRequest(ctx, actor, requestID); err != nil {
		return nil, 0, err
	}
	costs, err := s.repos.Costs.ListByRequest(ctx, requestID)
	if err != nil {
		return nil, 0, apperrors.MapError(err)
	}
	total, err := s.repos.Costs.SumByRequest(ctx, requestID)
	if err != nil {
		return nil, 0, apperrors.MapError(err)
	}
	return costs, total, nil
}

func (s *RequestService) publishEvent(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = s.now()
	}
	_ = s.dispatcher.Publish(ctx, event)
}

func (s *RequestService) now() time.Time {
	if s.clock != nil {
		return s.clock.Now()
	}
	return time.Now().UTC()
}

// notFoundOr maps a missing row to a typed NotFound, passing through
// everything else untouched.
func notFoundOr(err error, resource string, details map[string]any) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return apperrors.NewNotFound(resource, details)
	}
	return err
}
