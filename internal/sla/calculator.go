// Package sla computes service-level deadlines for requests.
package sla

import (
	"time"

	"github.com/spec-kit/aftersales-service/internal/domain"
)

// Config holds the SLA hour constants, supplied by configuration.
type Config struct {
	UnderWarrantyHours int
	OutOfWarrantyHours int
	OnsiteBufferHours  int
}

// DefaultConfig mirrors the documented defaults.
func DefaultConfig() Config {
	return Config{
		UnderWarrantyHours: 168,
		OutOfWarrantyHours: 240,
		OnsiteBufferHours:  48,
	}
}

// DueDate derives the deadline by which a request must be completed.
// Deterministic: the same inputs always yield the same timestamp. The due
// date is computed once at request creation and never revisited.
func DueDate(cfg Config, warranty domain.WarrantyStatus, method domain.ExecutionMethod, createdAt time.Time) time.Time {
	baseHours := cfg.OutOfWarrantyHours
	if warranty == domain.WarrantyStatusUnderWarranty {
		baseHours = cfg.UnderWarrantyHours
	}
	hours := baseHours
	if method == domain.ExecutionMethodOnSite {
		hours += cfg.OnsiteBufferHours
	}
	return createdAt.Add(time.Duration(hours) * time.Hour)
}
