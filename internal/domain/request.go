package domain

import "time"

// RequestStatus enumerates lifecycle states for service requests.
type RequestStatus string

const (
	RequestStatusNew             RequestStatus = "NEW"
	RequestStatusAssigned        RequestStatus = "ASSIGNED"
	RequestStatusUnderInspection RequestStatus = "UNDER_INSPECTION"
	RequestStatusWaitingParts    RequestStatus = "WAITING_PARTS"
	RequestStatusInRepair        RequestStatus = "IN_REPAIR"
	RequestStatusCompleted       RequestStatus = "COMPLETED"
	RequestStatusClosed          RequestStatus = "CLOSED"
)

// RequestPriority enumerates urgency levels.
type RequestPriority string

const (
	RequestPriorityLow    RequestPriority = "LOW"
	RequestPriorityMedium RequestPriority = "MEDIUM"
	RequestPriorityHigh   RequestPriority = "HIGH"
	RequestPriorityUrgent RequestPriority = "URGENT"
)

// WarrantyStatus indicates whether the repair is covered under warranty.
type WarrantyStatus string

const (
	WarrantyStatusUnderWarranty WarrantyStatus = "UNDER_WARRANTY"
	WarrantyStatusOutOfWarranty WarrantyStatus = "OUT_OF_WARRANTY"
)

// ExecutionMethod indicates where the repair is performed.
type ExecutionMethod string

const (
	ExecutionMethodOnSite   ExecutionMethod = "ON_SITE"
	ExecutionMethodWorkshop ExecutionMethod = "WORKSHOP"
)

// ServiceRequest is the aggregate for after-sales repair requests.
type ServiceRequest struct {
	ID                   string
	RequestNumber        int64
	CustomerID           string
	DepartmentID         string
	ProductID            *string
	AssignedTechnicianID *string
	ReceivedByID         string
	IssueDescription     string
	Status               RequestStatus
	Priority             RequestPriority
	WarrantyStatus       WarrantyStatus
	ExecutionMethod      ExecutionMethod
	SLADueDate           time.Time
	IsOverdue            bool
	CustomerSatisfaction *int
	FinalNotes           *string
	CompletedAt          *time.Time
	CreatedAt            time.Time
	UpdatedAt            time.Time
}

// statusTransitions is the single source of truth for legal status edges.
// WAITING_PARTS and IN_REPAIR may alternate when parts run out mid-repair.
var statusTransitions = map[RequestStatus][]RequestStatus{
	RequestStatusNew:             {RequestStatusAssigned},
	RequestStatusAssigned:        {RequestStatusUnderInspection},
	RequestStatusUnderInspection: {RequestStatusWaitingParts},
	RequestStatusWaitingParts:    {RequestStatusInRepair},
	RequestStatusInRepair:        {RequestStatusWaitingParts, RequestStatusCompleted},
	RequestStatusCompleted:       {RequestStatusClosed},
	RequestStatusClosed:          {},
}

// CanTransition reports whether current→next is a legal status edge.
func CanTransition(current, next RequestStatus) bool {
	for _, candidate := range statusTransitions[current] {
		if candidate == next {
			return true
		}
	}
	return false
}

// IsTerminal reports whether a request in the given status can still move.
func IsTerminal(status RequestStatus) bool {
	return status == RequestStatusClosed
}

// IsOpen reports whether the request still counts against its SLA.
func IsOpen(status RequestStatus) bool {
	return status != RequestStatusCompleted && status != RequestStatusClosed
}

// ValidStatus reports whether the value is a known request status.
func ValidStatus(status RequestStatus) bool {
	_, ok := statusTransitions[status]
	return ok
}
