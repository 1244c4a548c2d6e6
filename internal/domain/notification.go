package domain

import "time"

// NotificationType enumerates supported notification categories.
type NotificationType string

const (
	NotificationRequestCreated  NotificationType = "REQUEST_CREATED"
	NotificationRequestAssigned NotificationType = "REQUEST_ASSIGNED"
	NotificationStatusChanged   NotificationType = "STATUS_CHANGED"
	NotificationRequestOverdue  NotificationType = "REQUEST_OVERDUE"
	NotificationLowStock        NotificationType = "LOW_STOCK"
)

// Notification is an in-app message addressed to a single user. Only the
// owning user may mark it read; read rows past the retention horizon are
// deleted by the cleanup job.
type Notification struct {
	ID        string
	UserID    string
	RequestID *string
	Title     string
	Message   string
	Type      NotificationType
	IsRead    bool
	CreatedAt time.Time
}
