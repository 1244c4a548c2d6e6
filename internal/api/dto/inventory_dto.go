package dto

import "time"

// CreateSparePartRequest payload.
type CreateSparePartRequest struct {
	Name        string  `json:"name"`
	PartNumber  string  `json:"part_number"`
	Quantity    int     `json:"quantity"`
	MinQuantity int     `json:"min_quantity"`
	UnitPrice   float64 `json:"unit_price"`
	Currency    string  `json:"currency"`
}

// AddPartRequest payload.
type AddPartRequest struct {
	SparePartID  string `json:"spare_part_id"`
	QuantityUsed int    `json:"quantity_used"`
}

// UpdatePartQuantityRequest payload.
type UpdatePartQuantityRequest struct {
	QuantityUsed int `json:"quantity_used"`
}

// SparePartResponse inventory record.
type SparePartResponse struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	PartNumber  string    `json:"part_number"`
	Quantity    int       `json:"quantity"`
	MinQuantity int       `json:"min_quantity"`
	UnitPrice   float64   `json:"unit_price"`
	Currency    string    `json:"currency"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// RequestPartResponse consumed-part record.
type RequestPartResponse struct {
	ID           string    `json:"id"`
	RequestID    string    `json:"request_id"`
	SparePartID  string    `json:"spare_part_id"`
	QuantityUsed int       `json:"quantity_used"`
	UnitPrice    float64   `json:"unit_price"`
	TotalCost    float64   `json:"total_cost"`
	CreatedAt    time.Time `json:"created_at"`
}
