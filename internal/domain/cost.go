package domain

import "time"

// CostType enumerates cost categories on a service request.
type CostType string

const (
	CostTypeParts          CostType = "PARTS"
	CostTypeLabor          CostType = "LABOR"
	CostTypeTransportation CostType = "TRANSPORTATION"
	CostTypeOther          CostType = "OTHER"
)

// Cost is an append-only cost line on a service request. Totals are
// aggregated for reporting, never recomputed destructively.
type Cost struct {
	ID          string
	RequestID   string
	Type        CostType
	Amount      float64
	Description string
	CreatedBy   string
	CreatedAt   time.Time
}
