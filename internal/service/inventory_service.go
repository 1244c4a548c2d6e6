package service

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/aftersales-service/internal/domain"
	"github.com/spec-kit/aftersales-service/internal/events"
	"github.com/spec-kit/aftersales-service/internal/policy"
	"github.com/spec-kit/aftersales-service/internal/repository"
	apperrors "github.com/spec-kit/aftersales-service/pkg/util"
)

// InventoryService couples request-part records to warehouse stock. Every
// mutation spans both the request_parts row and the spare_parts quantity
// inside one serializable transaction, so a partial application is never
// observable and stock never goes negative.
type InventoryService struct {
	tx         repository.TxRunner
	repos      repository.Repositories
	dispatcher events.Dispatcher
	logger     *zap.Logger
}

// InventoryDependencies bundles collaborators for the inventory service.
type InventoryDependencies struct {
	Tx         repository.TxRunner
	Repos      repository.Repositories
	Dispatcher events.Dispatcher
	Logger     *zap.Logger
}

// NewInventoryService constructs the service.
func NewInventoryService(deps InventoryDependencies) *InventoryService {
	return &InventoryService{
		tx:         deps.Tx,
		repos:      deps.Repos,
		dispatcher: deps.Dispatcher,
		logger:     deps.Logger,
	}
}

// AddPart consumes warehouse stock for a request. Unit price and total
// cost are snapshotted at consumption time and never re-read later.
func (s *InventoryService) AddPart(ctx context.Context, actor *domain.User, requestID, sparePartID string, quantityUsed int) (*domain.RequestPart, error) {
	if err := requireInventoryWriter(actor); err != nil {
		return nil, err
	}
	if quantityUsed <= 0 {
		return nil, apperrors.NewValidationError("quantity_used must be positive", nil)
	}

	var requestPart *domain.RequestPart
	var sparePart *domain.SparePart
	err := s.tx.InTx(ctx, func(r repository.Repositories) error {
		request, err := r.Requests.GetByID(ctx, requestID)
		if err != nil {
			return notFoundOr(err, "request", map[string]any{"request_id": requestID})
		}
		if request.Status == domain.RequestStatusClosed {
			return apperrors.NewValidationError("request is closed", nil)
		}

		sparePart, err = r.SpareParts.GetByIDForUpdate(ctx, sparePartID)
		if err != nil {
			return notFoundOr(err, "spare part", map[string]any{"spare_part_id": sparePartID})
		}
		if sparePart.Quantity < quantityUsed {
			return apperrors.NewValidationError("insufficient stock", map[string]any{
				"available": sparePart.Quantity,
				"requested": quantityUsed,
			})
		}

		requestPart = &domain.RequestPart{
			RequestID:    request.ID,
			SparePartID:  sparePart.ID,
			QuantityUsed: quantityUsed,
			UnitPrice:    sparePart.UnitPrice,
			TotalCost:    float64(quantityUsed) * sparePart.UnitPrice,
		}
		if err := r.RequestParts.Create(ctx, requestPart); err != nil {
			return err
		}
		if err := r.SpareParts.AdjustQuantity(ctx, sparePart.ID, -quantityUsed); err != nil {
			return err
		}
		sparePart.Quantity -= quantityUsed
		return r.Activities.Create(ctx, &domain.RequestActivity{
			RequestID:    request.ID,
			UserID:       actor.ID,
			ActivityType: domain.ActivityUpdated,
			Description:  "spare part consumed",
			NewValue: map[string]any{
				"spare_part_id": sparePart.ID,
				"quantity_used": quantityUsed,
				"total_cost":    requestPart.TotalCost,
			},
		})
	})
	if err != nil {
		return nil, apperrors.MapError(err)
	}

	s.publishPartConsumed(ctx, actor.ID, requestID, sparePart, quantityUsed)
	return requestPart, nil
}

// UpdatePartQuantity changes the consumed quantity of an existing
// request-part record, applying the delta to warehouse stock.
func (s *InventoryService) UpdatePartQuantity(ctx context.Context, actor *domain.User, requestPartID string, newQuantity int) (*domain.RequestPart, error) {
	if err := requireInventoryWriter(actor); err != nil {
		return nil, err
	}
	if newQuantity <= 0 {
		return nil, apperrors.NewValidationError("quantity_used must be positive", nil)
	}

	var requestPart *domain.RequestPart
	var sparePart *domain.SparePart
	var delta int
	err := s.tx.InTx(ctx, func(r repository.Repositories) error {
		var err error
		requestPart, err = r.RequestParts.GetByID(ctx, requestPartID)
		if err != nil {
			return notFoundOr(err, "request part", map[string]any{"request_part_id": requestPartID})
		}
		sparePart, err = r.SpareParts.GetByIDForUpdate(ctx, requestPart.SparePartID)
		if err != nil {
			return notFoundOr(err, "spare part", map[string]any{"spare_part_id": requestPart.SparePartID})
		}

		delta = newQuantity - requestPart.QuantityUsed
		if sparePart.Quantity < delta {
			return apperrors.NewValidationError("insufficient stock", map[string]any{
				"available": sparePart.Quantity,
				"requested": delta,
			})
		}

		oldQuantity := requestPart.QuantityUsed
		requestPart.QuantityUsed = newQuantity
		requestPart.TotalCost = float64(newQuantity) * requestPart.UnitPrice
		if err := r.RequestParts.UpdateQuantity(ctx, requestPart.ID, newQuantity, requestPart.TotalCost); err != nil {
			return err
		}
		if delta != 0 {
			if err := r.SpareParts.AdjustQuantity(ctx, sparePart.ID, -delta); err != nil {
				return err
			}
			sparePart.Quantity -= delta
		}
		return r.Activities.Create(ctx, &domain.RequestActivity{
			RequestID:    requestPart.RequestID,
			UserID:       actor.ID,
			ActivityType: domain.ActivityUpdated,
			Description:  "spare part quantity updated",
			OldValue:     map[string]any{"quantity_used": oldQuantity},
			NewValue:     map[string]any{"quantity_used": newQuantity},
		})
	})
	if err != nil {
		return nil, apperrors.MapError(err)
	}

	if delta > 0 {
		s.publishPartConsumed(ctx, actor.ID, requestPart.RequestID, sparePart, delta)
	}
	return requestPart, nil
}

// RemovePart deletes a request-part record and restores its quantity to
// warehouse stock.
func (s *InventoryService) RemovePart(ctx context.Context, actor *domain.User, requestPartID string) error {
	if err := requireInventoryWriter(actor); err != nil {
		return err
	}

	err := s.tx.InTx(ctx, func(r repository.Repositories) error {
		requestPart, err := r.RequestParts.GetByID(ctx, requestPartID)
		if err != nil {
			return notFoundOr(err, "request part", map[string]any{"request_part_id": requestPartID})
		}
		if err := r.RequestParts.Delete(ctx, requestPart.ID); err != nil {
			return err
		}
		if err := r.SpareParts.AdjustQuantity(ctx, requestPart.SparePartID, requestPart.QuantityUsed); err != nil {
			return err
		}
		return r.Activities.Create(ctx, &domain.RequestActivity{
			RequestID:    requestPart.RequestID,
			UserID:       actor.ID,
			ActivityType: domain.ActivityUpdated,
			Description:  "spare part returned to stock",
			OldValue: map[string]any{
				"spare_part_id": requestPart.SparePartID,
				"quantity_used": requestPart.QuantityUsed,
			},
		})
	})
	return apperrors.MapError(err)
}

// CreateSparePart registers a new inventory record.
func (s *InventoryService) CreateSparePart(ctx context.Context, actor *domain.User, part *domain.SparePart) (*domain.SparePart, error) {
	if err := requireInventoryWriter(actor); err != nil {
		return nil, err
	}
	if strings.TrimSpace(part.Name) == "" {
		return nil, apperrors.NewValidationError("name required", nil)
	}
	if part.Quantity < 0 || part.MinQuantity < 0 || part.UnitPrice < 0 {
		return nil, apperrors.NewValidationError("quantity, min_quantity and unit_price must not be negative", nil)
	}
	if part.Currency == "" {
		part.Currency = "USD"
	}
	if err := s.repos.SpareParts.Create(ctx, part); err != nil {
		return nil, apperrors.MapError(err)
	}
	return part, nil
}

// ListSpareParts returns the inventory catalog.
func (s *InventoryService) ListSpareParts(ctx context.Context, actor *domain.User, limit, offset int) ([]domain.SparePart, error) {
	if actor == nil {
		return nil, apperrors.NewUnauthorized("principal required")
	}
	result, err := s.repos.SpareParts.List(ctx, limit, offset)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return result, nil
}

// ListRequestParts returns consumed parts for a request, visible to
// inventory writers and anyone who can see the request itself.
func (s *InventoryService) ListRequestParts(ctx context.Context, actor *domain.User, requestID string) ([]domain.RequestPart, error) {
	if actor == nil {
		return nil, apperrors.NewUnauthorized("principal required")
	}
	request, err := s.repos.Requests.GetByID(ctx, requestID)
	if err != nil {
		return nil, apperrors.MapError(notFoundOr(err, "request", map[string]any{"request_id": requestID}))
	}
	if !policy.CanModifyInventory(actor.Role) && !policy.CanAccessRequest(actor, request) {
		return nil, apperrors.NewForbidden("access denied")
	}
	result, err := s.repos.RequestParts.ListByRequest(ctx, requestID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return result, nil
}

func (s *InventoryService) publishPartConsumed(ctx context.Context, actorID, requestID string, part *domain.SparePart, quantityUsed int) {
	if s.dispatcher == nil || part == nil {
		return
	}
	_ = s.dispatcher.Publish(ctx, events.Event{
		ID:        uuid.NewString(),
		Type:      events.EventPartConsumed,
		RequestID: requestID,
		ActorID:   actorID,
		Timestamp: time.Now().UTC(),
		Payload: events.PartConsumedPayload{
			SparePartID:       part.ID,
			SparePartName:     part.Name,
			QuantityUsed:      quantityUsed,
			RemainingQuantity: part.Quantity,
			MinQuantity:       part.MinQuantity,
		},
	})
}

func requireInventoryWriter(actor *domain.User) error {
	if actor == nil {
		return apperrors.NewUnauthorized("principal required")
	}
	if !policy.CanModifyInventory(actor.Role) {
		return apperrors.NewForbidden("inventory access restricted to warehouse keepers")
	}
	return nil
}
