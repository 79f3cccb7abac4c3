package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// SalespersonPerformance is one roster member's standing for the current
// month.
type SalespersonPerformance struct {
	Name           string
	GoalPercentage float64
	ConversionRate float64
}

// MetricsSnapshot is the fully computed result of one aggregation cycle.
// A snapshot is never mutated after publish; each cycle builds a fresh one
// that replaces the previous snapshot wholesale.
type MetricsSnapshot struct {
	TotalWonDeals int
	TotalValue    decimal.Decimal
	AverageTicket decimal.Decimal
	Salespeople   []SalespersonPerformance
	ComputedAt    time.Time
}

// EmptySnapshot is what readers see before the first cycle publishes.
func EmptySnapshot() *MetricsSnapshot {
	return &MetricsSnapshot{
		TotalValue:    decimal.Zero,
		AverageTicket: decimal.Zero,
		Salespeople:   []SalespersonPerformance{},
	}
}
