package handlers

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/spec-kit/aftersales-service/internal/api/dto"
	"github.com/spec-kit/aftersales-service/internal/domain"
	"github.com/spec-kit/aftersales-service/internal/service"
)

// NotificationsHandler exposes the per-user notification inbox.
type NotificationsHandler struct {
	notifications *service.NotificationService
	logger        *zap.Logger
}

// NewNotificationsHandler constructs the handler.
func NewNotificationsHandler(notifications *service.NotificationService, logger *zap.Logger) *NotificationsHandler {
	return &NotificationsHandler{notifications: notifications, logger: logger}
}

// List handles GET /notifications.
func (h *NotificationsHandler) List(c *fiber.Ctx) error {
	actor, err := currentUser(c)
	if err != nil {
		return err
	}

	limit, offset := pagination(c)
	notifications, err := h.notifications.ListForUser(c.UserContext(), actor.ID, queryBool(c, "unread"), limit, offset)
	if err != nil {
		return err
	}
	items := make([]dto.NotificationResponse, 0, len(notifications))
	for i := range notifications {
		items = append(items, toNotificationResponse(&notifications[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// UnreadCount handles GET /notifications/unread-count.
func (h *NotificationsHandler) UnreadCount(c *fiber.Ctx) error {
	actor, err := currentUser(c)
	if err != nil {
		return err
	}

	count, err := h.notifications.UnreadCount(c.UserContext(), actor.ID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": fiber.Map{"unread": count}})
}

// MarkRead handles POST /notifications/:id/read.
func (h *NotificationsHandler) MarkRead(c *fiber.Ctx) error {
	actor, err := currentUser(c)
	if err != nil {
		return err
	}

	if err := h.notifications.MarkRead(c.UserContext(), actor.ID, c.Params("id")); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// MarkAllRead handles POST /notifications/read-all.
func (h *NotificationsHandler) MarkAllRead(c *fiber.Ctx) error {
	actor, err := currentUser(c)
	if err != nil {
		return err
	}

	count, err := h.notifications.MarkAllRead(c.UserContext(), actor.ID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": fiber.Map{"marked": count}})
}

func toNotificationResponse(notification *domain.Notification) dto.NotificationResponse {
	return dto.NotificationResponse{
		ID:        notification.ID,
		RequestID: notification.RequestID,
		Title:     notification.Title,
		Message:   notification.Message,
		Type:      notification.Type,
		IsRead:    notification.IsRead,
		CreatedAt: notification.CreatedAt,
	}
}
