package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// DealStatus mirrors the CRM's numeric dealStatus ids.
type DealStatus int

const (
	StatusOther   DealStatus = 0
	StatusOngoing DealStatus = 1
	StatusWon     DealStatus = 2
	StatusLost    DealStatus = 3
)

// Deal is a read-only CRM sales opportunity record. The remote source owns
// it; nothing here ever mutates one.
type Deal struct {
	ID        string
	Title     string
	Value     *decimal.Decimal // nil when the CRM record carries no value
	OwnerName string
	Status    DealStatus
	WonAt     *time.Time
	CreatedAt time.Time
}

// ValueOrZero returns the deal value, treating an absent value as zero.
func (d *Deal) ValueOrZero() decimal.Decimal {
	if d.Value == nil {
		return decimal.Zero
	}
	return *d.Value
}

// WinEvent is raised when the watcher sees a winning deal id for the first
// time. It is consumed at most once by a dashboard poll; past the freshness
// window it silently expires.
type WinEvent struct {
	Salesperson string
	Value       decimal.Decimal
	Title       string
	ObservedAt  time.Time
}
