package domain

import "time"

// SparePart is an inventory record. Quantity never goes negative; a
// quantity at or below MinQuantity is a reorder signal, not a hard stop.
type SparePart struct {
	ID          string
	Name        string
	PartNumber  string
	Quantity    int
	MinQuantity int
	UnitPrice   float64
	Currency    string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// RequestPart joins a service request to a consumed spare part. UnitPrice
// and TotalCost are snapshots taken at consumption time and never re-read
// from the spare part afterwards.
type RequestPart struct {
	ID           string
	RequestID    string
	SparePartID  string
	QuantityUsed int
	UnitPrice    float64
	TotalCost    float64
	CreatedAt    time.Time
}
