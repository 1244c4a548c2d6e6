package dto

import (
	"time"

	"github.com/spec-kit/aftersales-service/internal/domain"
)

// CreateRequestRequest payload.
type CreateRequestRequest struct {
	CustomerID       string                 `json:"customer_id"`
	DepartmentID     string                 `json:"department_id"`
	ProductID        *string                `json:"product_id"`
	IssueDescription string                 `json:"issue_description"`
	Priority         domain.RequestPriority `json:"priority"`
	WarrantyStatus   domain.WarrantyStatus  `json:"warranty_status"`
	ExecutionMethod  domain.ExecutionMethod `json:"execution_method"`
}

// AssignTechnicianRequest payload.
type AssignTechnicianRequest struct {
	TechnicianID string `json:"technician_id"`
}

// ChangeStatusRequest payload.
type ChangeStatusRequest struct {
	Status domain.RequestStatus `json:"status"`
	Note   string               `json:"note"`
}

// AddCostRequest payload.
type AddCostRequest struct {
	Type        domain.CostType `json:"type"`
	Amount      float64         `json:"amount"`
	Description string          `json:"description"`
}

// CloseRequestRequest payload.
type CloseRequestRequest struct {
	FinalNotes           string `json:"final_notes"`
	CustomerSatisfaction *int   `json:"customer_satisfaction"`
}

// RequestSummary response.
type RequestSummary struct {
	ID                   string                 `json:"id"`
	RequestNumber        int64                  `json:"request_number"`
	CustomerID           string                 `json:"customer_id"`
	DepartmentID         string                 `json:"department_id"`
	ProductID            *string                `json:"product_id,omitempty"`
	AssignedTechnicianID *string                `json:"assigned_technician_id,omitempty"`
	Status               domain.RequestStatus   `json:"status"`
	Priority             domain.RequestPriority `json:"priority"`
	WarrantyStatus       domain.WarrantyStatus  `json:"warranty_status"`
	ExecutionMethod      domain.ExecutionMethod `json:"execution_method"`
	SLADueDate           time.Time              `json:"sla_due_date"`
	IsOverdue            bool                   `json:"is_overdue"`
	CreatedAt            time.Time              `json:"created_at"`
	UpdatedAt            time.Time              `json:"updated_at"`
}

// RequestDetail response.
type RequestDetail struct {
	RequestSummary
	ReceivedByID         string     `json:"received_by_id"`
	IssueDescription     string     `json:"issue_description"`
	CustomerSatisfaction *int       `json:"customer_satisfaction,omitempty"`
	FinalNotes           *string    `json:"final_notes,omitempty"`
	CompletedAt          *time.Time `json:"completed_at,omitempty"`
}

// ActivityResponse represents an audit entry.
type ActivityResponse struct {
	ID           string              `json:"id"`
	UserID       string              `json:"user_id"`
	ActivityType domain.ActivityType `json:"activity_type"`
	Description  string              `json:"description"`
	OldValue     map[string]any      `json:"old_value,omitempty"`
	NewValue     map[string]any      `json:"new_value,omitempty"`
	CreatedAt    time.Time           `json:"created_at"`
}

// CostResponse represents a cost line.
type CostResponse struct {
	ID          string          `json:"id"`
	Type        domain.CostType `json:"type"`
	Amount      float64         `json:"amount"`
	Description string          `json:"description"`
	CreatedBy   string          `json:"created_by"`
	CreatedAt   time.Time       `json:"created_at"`
}

// CostListResponse wraps cost lines with their aggregate.
type CostListResponse struct {
	Items []CostResponse `json:"items"`
	Total float64        `json:"total"`
}
