package domain

import "time"

// ActivityType captures what kind of mutation an audit entry records.
type ActivityType string

const (
	ActivityCreated      ActivityType = "CREATED"
	ActivityUpdated      ActivityType = "UPDATED"
	ActivityStatusChange ActivityType = "STATUS_CHANGE"
	ActivityAssignment   ActivityType = "ASSIGNMENT"
	ActivityComment      ActivityType = "COMMENT"
	ActivityCostAdded    ActivityType = "COST_ADDED"
)

// RequestActivity is an immutable audit trail entry. Rows are appended by
// every mutation and never updated or deleted.
type RequestActivity struct {
	ID           string
	RequestID    string
	UserID       string
	ActivityType ActivityType
	Description  string
	OldValue     map[string]any
	NewValue     map[string]any
	CreatedAt    time.Time
}
