package handlers

import (
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/spec-kit/aftersales-service/internal/api/dto"
	"github.com/spec-kit/aftersales-service/internal/domain"
	"github.com/spec-kit/aftersales-service/internal/repository"
	"github.com/spec-kit/aftersales-service/internal/service"
	apperrors "github.com/spec-kit/aftersales-service/pkg/util"
)

// RequestsHandler exposes the service-request lifecycle over HTTP.
type RequestsHandler struct {
	requests *service.RequestService
	logger   *zap.Logger
}

// NewRequestsHandler constructs the handler.
func NewRequestsHandler(requests *service.RequestService, logger *zap.Logger) *RequestsHandler {
	return &RequestsHandler{requests: requests, logger: logger}
}

// Create handles POST /requests.
func (h *RequestsHandler) Create(c *fiber.Ctx) error {
	actor, err := currentUser(c)
	if err != nil {
		return err
	}

	var payload dto.CreateRequestRequest
	if err := c.BodyParser(&payload); err != nil {
		return apperrors.NewValidationError("invalid request body", nil)
	}

	request, err := h.requests.CreateRequest(c.UserContext(), actor, service.CreateRequestInput{
		CustomerID:       payload.CustomerID,
		DepartmentID:     payload.DepartmentID,
		ProductID:        payload.ProductID,
		IssueDescription: payload.IssueDescription,
		Priority:         payload.Priority,
		WarrantyStatus:   payload.WarrantyStatus,
		ExecutionMethod:  payload.ExecutionMethod,
	})
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": toRequestDetail(request)})
}

// Get handles GET /requests/:id.
func (h *RequestsHandler) Get(c *fiber.Ctx) error {
	actor, err := currentUser(c)
	if err != nil {
		return err
	}
	request, err := h.requests.GetRequest(c.UserContext(), actor, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": toRequestDetail(request)})
}

// GetByNumber handles GET /requests/number/:number.
func (h *RequestsHandler) GetByNumber(c *fiber.Ctx) error {
	actor, err := currentUser(c)
	if err != nil {
		return err
	}
	number, err := strconv.ParseInt(c.Params("number"), 10, 64)
	if err != nil {
		return apperrors.NewValidationError("invalid request number", map[string]any{"number": c.Params("number")})
	}
	request, err := h.requests.GetRequestByNumber(c.UserContext(), actor, number)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": toRequestDetail(request)})
}

// List handles GET /requests with optional query filters.
func (h *RequestsHandler) List(c *fiber.Ctx) error {
	actor, err := currentUser(c)
	if err != nil {
		return err
	}

	filter := repository.RequestFilter{OverdueOnly: queryBool(c, "overdue")}
	filter.Limit, filter.Offset = pagination(c)
	if departmentID := c.Query("department_id"); departmentID != "" {
		filter.DepartmentID = &departmentID
	}
	if customerID := c.Query("customer_id"); customerID != "" {
		filter.CustomerID = &customerID
	}
	if rawStatuses := c.Query("status"); rawStatuses != "" {
		for _, raw := range strings.Split(rawStatuses, ",") {
			status := domain.RequestStatus(strings.ToUpper(strings.TrimSpace(raw)))
			if !domain.ValidStatus(status) {
				return apperrors.NewValidationError("unknown status filter", map[string]any{"status": raw})
			}
			filter.Statuses = append(filter.Statuses, status)
		}
	}

	requests, err := h.requests.ListRequests(c.UserContext(), actor, filter)
	if err != nil {
		return err
	}
	items := make([]dto.RequestSummary, 0, len(requests))
	for i := range requests {
		items = append(items, toRequestSummary(&requests[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// Assign handles POST /requests/:id/assign.
func (h *RequestsHandler) Assign(c *fiber.Ctx) error {
	actor, err := currentUser(c)
	if err != nil {
		return err
	}

	var payload dto.AssignTechnicianRequest
	if err := c.BodyParser(&payload); err != nil {
		return apperrors.NewValidationError("invalid request body", nil)
	}
	if payload.TechnicianID == "" {
		return apperrors.NewValidationError("technician_id required", nil)
	}

	request, err := h.requests.AssignTechnician(c.UserContext(), actor, c.Params("id"), payload.TechnicianID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": toRequestDetail(request)})
}

// ChangeStatus handles PATCH /requests/:id/status.
func (h *RequestsHandler) ChangeStatus(c *fiber.Ctx) error {
	actor, err := currentUser(c)
	if err != nil {
		return err
	}

	var payload dto.ChangeStatusRequest
	if err := c.BodyParser(&payload); err != nil {
		return apperrors.NewValidationError("invalid request body", nil)
	}

	request, err := h.requests.ChangeStatus(c.UserContext(), actor, c.Params("id"), payload.Status, payload.Note)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": toRequestDetail(request)})
}

// Close handles POST /requests/:id/close.
func (h *RequestsHandler) Close(c *fiber.Ctx) error {
	actor, err := currentUser(c)
	if err != nil {
		return err
	}

	var payload dto.CloseRequestRequest
	if err := c.BodyParser(&payload); err != nil {
		return apperrors.NewValidationError("invalid request body", nil)
	}

	request, err := h.requests.CloseRequest(c.UserContext(), actor, c.Params("id"), payload.FinalNotes, payload.CustomerSatisfaction)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": toRequestDetail(request)})
}

// AddCost handles POST /requests/:id/costs.
func (h *RequestsHandler) AddCost(c *fiber.Ctx) error {
	actor, err := currentUser(c)
	if err != nil {
		return err
	}

	var payload dto.AddCostRequest
	if err := c.BodyParser(&payload); err != nil {
		return apperrors.NewValidationError("invalid request body", nil)
	}

	cost, err := h.requests.AddCost(c.UserContext(), actor, c.Params("id"), payload.Type, payload.Amount, payload.Description)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": toCostResponse(cost)})
}

// ListCosts handles GET /requests/:id/costs.
func (h *RequestsHandler) ListCosts(c *fiber.Ctx) error {
	actor, err := currentUser(c)
	if err != nil {
		return err
	}

	costs, total, err := h.requests.RequestCosts(c.UserContext(), actor, c.Params("id"))
	if err != nil {
		return err
	}
	items := make([]dto.CostResponse, 0, len(costs))
	for i := range costs {
		items = append(items, toCostResponse(&costs[i]))
	}
	return c.JSON(fiber.Map{"data": dto.CostListResponse{Items: items, Total: total}})
}

// ListActivities handles GET /requests/:id/activities.
func (h *RequestsHandler) ListActivities(c *fiber.Ctx) error {
	actor, err := currentUser(c)
	if err != nil {
		return err
	}

	limit, offset := pagination(c)
	activities, err := h.requests.ListActivities(c.UserContext(), actor, c.Params("id"), limit, offset)
	if err != nil {
		return err
	}
	items := make([]dto.ActivityResponse, 0, len(activities))
	for i := range activities {
		items = append(items, toActivityResponse(&activities[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

func toRequestSummary(request *domain.ServiceRequest) dto.RequestSummary {
	return dto.RequestSummary{
		ID:                   request.ID,
		RequestNumber:        request.RequestNumber,
		CustomerID:           request.CustomerID,
		DepartmentID:         request.DepartmentID,
		ProductID:            request.ProductID,
		AssignedTechnicianID: request.AssignedTechnicianID,
		Status:               request.Status,
		Priority:             request.Priority,
		WarrantyStatus:       request.WarrantyStatus,
		ExecutionMethod:      request.ExecutionMethod,
		SLADueDate:           request.SLADueDate,
		IsOverdue:            request.IsOverdue,
		CreatedAt:            request.CreatedAt,
		UpdatedAt:            request.UpdatedAt,
	}
}

func toRequestDetail(request *domain.ServiceRequest) dto.RequestDetail {
	return dto.RequestDetail{
		RequestSummary:       toRequestSummary(request),
		ReceivedByID:         request.ReceivedByID,
		IssueDescription:     request.IssueDescription,
		CustomerSatisfaction: request.CustomerSatisfaction,
		FinalNotes:           request.FinalNotes,
		CompletedAt:          request.CompletedAt,
	}
}

func toCostResponse(cost *domain.Cost) dto.CostResponse {
	return dto.CostResponse{
		ID:          cost.ID,
		Type:        cost.Type,
		Amount:      cost.Amount,
		Description: cost.Description,
		CreatedBy:   cost.CreatedBy,
		CreatedAt:   cost.CreatedAt,
	}
}

func toActivityResponse(activity *domain.RequestActivity) dto.ActivityResponse {
	return dto.ActivityResponse{
		ID:           activity.ID,
		UserID:       activity.UserID,
		ActivityType: activity.ActivityType,
		Description:  activity.Description,
		OldValue:     activity.OldValue,
		NewValue:     activity.NewValue,
		CreatedAt:    activity.CreatedAt,
	}
}
