package events

import (
	"time"

	"github.com/spec-kit/aftersales-service/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventRequestCreated       EventType = "request_created"
	EventRequestStatusChanged EventType = "request_status_changed"
	EventRequestAssigned      EventType = "request_assigned"
	EventRequestOverdue       EventType = "request_overdue"
	EventRequestCostAdded     EventType = "request_cost_added"
	EventPartConsumed         EventType = "part_consumed"
)

// Event represents a domain event emitted by services after the
// triggering transaction has committed.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	RequestID string      `json:"request_id"`
	ActorID   string      `json:"actor_id"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// RequestCreatedPayload payload.
type RequestCreatedPayload struct {
	RequestNumber int64                  `json:"request_number"`
	DepartmentID  string                 `json:"department_id"`
	CustomerID    string                 `json:"customer_id"`
	Priority      domain.RequestPriority `json:"priority"`
	SLADueDate    time.Time              `json:"sla_due_date"`
}

// RequestStatusChangedPayload payload.
type RequestStatusChangedPayload struct {
	DepartmentID string               `json:"department_id"`
	TechnicianID *string              `json:"technician_id,omitempty"`
	OldStatus    domain.RequestStatus `json:"old_status"`
	NewStatus    domain.RequestStatus `json:"new_status"`
	Note         string               `json:"note,omitempty"`
}

// RequestAssignedPayload payload.
type RequestAssignedPayload struct {
	DepartmentID    string  `json:"department_id"`
	OldTechnicianID *string `json:"old_technician_id,omitempty"`
	NewTechnicianID string  `json:"new_technician_id"`
}

// RequestOverduePayload payload.
type RequestOverduePayload struct {
	RequestNumber int64     `json:"request_number"`
	DepartmentID  string    `json:"department_id"`
	TechnicianID  *string   `json:"technician_id,omitempty"`
	SLADueDate    time.Time `json:"sla_due_date"`
}

// RequestCostAddedPayload payload.
type RequestCostAddedPayload struct {
	CostType domain.CostType `json:"cost_type"`
	Amount   float64         `json:"amount"`
}

// PartConsumedPayload payload.
type PartConsumedPayload struct {
	SparePartID       string `json:"spare_part_id"`
	SparePartName     string `json:"spare_part_name"`
	QuantityUsed      int    `json:"quantity_used"`
	RemainingQuantity int    `json:"remaining_quantity"`
	MinQuantity       int    `json:"min_quantity"`
}
