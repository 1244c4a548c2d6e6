package dto

import (
	"time"

	"github.com/spec-kit/aftersales-service/internal/domain"
)

// NotificationResponse represents an in-app notification.
type NotificationResponse struct {
	ID        string                  `json:"id"`
	RequestID *string                 `json:"request_id,omitempty"`
	Title     string                  `json:"title"`
	Message   string                  `json:"message"`
	Type      domain.NotificationType `json:"type"`
	IsRead    bool                    `json:"is_read"`
	CreatedAt time.Time               `json:"created_at"`
}
