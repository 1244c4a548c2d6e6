package handlers

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/spec-kit/aftersales-service/internal/api/dto"
	"github.com/spec-kit/aftersales-service/internal/domain"
	"github.com/spec-kit/aftersales-service/internal/service"
	apperrors "github.com/spec-kit/aftersales-service/pkg/util"
)

// InventoryHandler exposes spare-part stock and request-part consumption.
type InventoryHandler struct {
	inventory *service.InventoryService
	logger    *zap.Logger
}

// NewInventoryHandler constructs the handler.
func NewInventoryHandler(inventory *service.InventoryService, logger *zap.Logger) *InventoryHandler {
	return &InventoryHandler{inventory: inventory, logger: logger}
}

// CreateSparePart handles POST /spare-parts.
func (h *InventoryHandler) CreateSparePart(c *fiber.Ctx) error {
	actor, err := currentUser(c)
	if err != nil {
		return err
	}

	var payload dto.CreateSparePartRequest
	if err := c.BodyParser(&payload); err != nil {
		return apperrors.NewValidationError("invalid request body", nil)
	}

	part, err := h.inventory.CreateSparePart(c.UserContext(), actor, &domain.SparePart{
		Name:        payload.Name,
		PartNumber:  payload.PartNumber,
		Quantity:    payload.Quantity,
		MinQuantity: payload.MinQuantity,
		UnitPrice:   payload.UnitPrice,
		Currency:    payload.Currency,
	})
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": toSparePartResponse(part)})
}

// ListSpareParts handles GET /spare-parts.
func (h *InventoryHandler) ListSpareParts(c *fiber.Ctx) error {
	actor, err := currentUser(c)
	if err != nil {
		return err
	}

	limit, offset := pagination(c)
	parts, err := h.inventory.ListSpareParts(c.UserContext(), actor, limit, offset)
	if err != nil {
		return err
	}
	items := make([]dto.SparePartResponse, 0, len(parts))
	for i := range parts {
		items = append(items, toSparePartResponse(&parts[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// AddPart handles POST /requests/:id/parts.
func (h *InventoryHandler) AddPart(c *fiber.Ctx) error {
	actor, err := currentUser(c)
	if err != nil {
		return err
	}

	var payload dto.AddPartRequest
	if err := c.BodyParser(&payload); err != nil {
		return apperrors.NewValidationError("invalid request body", nil)
	}
	if payload.SparePartID == "" {
		return apperrors.NewValidationError("spare_part_id required", nil)
	}

	part, err := h.inventory.AddPart(c.UserContext(), actor, c.Params("id"), payload.SparePartID, payload.QuantityUsed)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": toRequestPartResponse(part)})
}

// ListRequestParts handles GET /requests/:id/parts.
func (h *InventoryHandler) ListRequestParts(c *fiber.Ctx) error {
	actor, err := currentUser(c)
	if err != nil {
		return err
	}

	parts, err := h.inventory.ListRequestParts(c.UserContext(), actor, c.Params("id"))
	if err != nil {
		return err
	}
	items := make([]dto.RequestPartResponse, 0, len(parts))
	for i := range parts {
		items = append(items, toRequestPartResponse(&parts[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// UpdatePartQuantity handles PATCH /parts/:id.
func (h *InventoryHandler) UpdatePartQuantity(c *fiber.Ctx) error {
	actor, err := currentUser(c)
	if err != nil {
		return err
	}

	var payload dto.UpdatePartQuantityRequest
	if err := c.BodyParser(&payload); err != nil {
		return apperrors.NewValidationError("invalid request body", nil)
	}

	part, err := h.inventory.UpdatePartQuantity(c.UserContext(), actor, c.Params("id"), payload.QuantityUsed)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": toRequestPartResponse(part)})
}

// RemovePart handles DELETE /parts/:id.
func (h *InventoryHandler) RemovePart(c *fiber.Ctx) error {
	actor, err := currentUser(c)
	if err != nil {
		return err
	}

	if err := h.inventory.RemovePart(c.UserContext(), actor, c.Params("id")); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func toSparePartResponse(part *domain.SparePart) dto.SparePartResponse {
	return dto.SparePartResponse{
		ID:          part.ID,
		Name:        part.Name,
		PartNumber:  part.PartNumber,
		Quantity:    part.Quantity,
		MinQuantity: part.MinQuantity,
		UnitPrice:   part.UnitPrice,
		Currency:    part.Currency,
		CreatedAt:   part.CreatedAt,
		UpdatedAt:   part.UpdatedAt,
	}
}

func toRequestPartResponse(part *domain.RequestPart) dto.RequestPartResponse {
	return dto.RequestPartResponse{
		ID:           part.ID,
		RequestID:    part.RequestID,
		SparePartID:  part.SparePartID,
		QuantityUsed: part.QuantityUsed,
		UnitPrice:    part.UnitPrice,
		TotalCost:    part.TotalCost,
		CreatedAt:    part.CreatedAt,
	}
}
