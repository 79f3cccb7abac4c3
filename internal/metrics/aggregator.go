package metrics

import (
	"fmt"
	"log"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"dealpulse/internal/collector"
	"dealpulse/internal/config"
	"dealpulse/internal/model"
)

var oneHundred = decimal.NewFromInt(100)

// rosterGoal is one tracked salesperson with the target as a decimal.
type rosterGoal struct {
	name   string
	target decimal.Decimal
}

// Aggregator computes a MetricsSnapshot from the remote deal source. Deals
// owned by anyone outside the goal roster are excluded, so untracked
// accounts cannot skew company totals.
type Aggregator struct {
	fetcher collector.Fetcher
	roster  []rosterGoal
	tracked map[string]bool
	loc     *time.Location
}

// New builds an Aggregator. The goal order is preserved as the roster order.
func New(fetcher collector.Fetcher, goals []config.Goal, loc *time.Location) *Aggregator {
	a := &Aggregator{
		fetcher: fetcher,
		tracked: make(map[string]bool, len(goals)),
		loc:     loc,
	}
	for _, g := range goals {
		a.roster = append(a.roster, rosterGoal{name: g.Name, target: decimal.NewFromFloat(g.Target)})
		a.tracked[g.Name] = true
	}
	return a
}

// MonthBounds returns the first instant of now's month and the first instant
// of the following month, both in now's location. time.Date normalizes the
// month overflow, so month lengths and leap years come from the calendar
// itself.
func MonthBounds(now time.Time) (from, to time.Time) {
	from = time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	to = from.AddDate(0, 1, 0)
	return from, to
}

// Aggregate computes a fresh snapshot for the month containing now. The
// caller passes now already in the configured zone. Any panic from an
// unexpected record shape is converted to an error so a bad cycle never
// takes the process down.
func (a *Aggregator) Aggregate(now time.Time) (snap *model.MetricsSnapshot, err error) {
	defer func() {
		if r := recover(); r != nil {
			snap, err = nil, fmt.Errorf("aggregation panic: %v", r)
		}
	}()

	log.Printf("[INFO] aggregating metrics for %04d/%02d (%s)", now.Year(), int(now.Month()), now.Location())

	wonThisMonth := a.wonThisMonth(now)

	from, to := MonthBounds(now)
	leads := a.fetcher.FetchDealsCreatedBetween(from, to)

	perf := make([]model.SalespersonPerformance, 0, len(a.roster))
	for _, g := range a.roster {
		perf = append(perf, a.performance(g, wonThisMonth, leads))
	}
	// Non-increasing by goal percentage; the stable sort keeps roster order
	// on ties.
	sort.SliceStable(perf, func(i, j int) bool {
		return perf[i].GoalPercentage > perf[j].GoalPercentage
	})

	totalValue := decimal.Zero
	for i := range wonThisMonth {
		totalValue = totalValue.Add(wonThisMonth[i].ValueOrZero())
	}
	snap = &model.MetricsSnapshot{
		TotalWonDeals: len(wonThisMonth),
		TotalValue:    totalValue,
		AverageTicket: decimal.Zero,
		Salespeople:   perf,
		ComputedAt:    now,
	}
	if snap.TotalWonDeals > 0 {
		snap.AverageTicket = totalValue.Div(decimal.NewFromInt(int64(snap.TotalWonDeals)))
	}
	return snap, nil
}

// wonThisMonth fetches every won deal and keeps those won in now's local
// month by a tracked salesperson. The CRM has no month filter for won deals,
// so the bucketing happens here on wonAt. A won deal without a wonAt
// contributes no revenue.
func (a *Aggregator) wonThisMonth(now time.Time) []model.Deal {
	allWon := a.fetcher.FetchWonDeals()

	var won []model.Deal
	for _, d := range allWon {
		if d.WonAt == nil || !a.tracked[d.OwnerName] {
			continue
		}
		local := d.WonAt.In(a.loc)
		if local.Year() == now.Year() && local.Month() == now.Month() {
			won = append(won, d)
		}
	}
	return won
}

// performance computes one salesperson's standing. The conversion rate uses
// the leads-created-this-month denominator and counts a lead as converted
// when its current status is won, no matter which month it actually closed.
func (a *Aggregator) performance(g rosterGoal, wonThisMonth, leads []model.Deal) model.SalespersonPerformance {
	revenue := decimal.Zero
	for i := range wonThisMonth {
		if wonThisMonth[i].OwnerName == g.name {
			revenue = revenue.Add(wonThisMonth[i].ValueOrZero())
		}
	}

	var leadCount, converted int
	for i := range leads {
		if leads[i].OwnerName != g.name {
			continue
		}
		leadCount++
		if leads[i].Status == model.StatusWon {
			converted++
		}
	}

	p := model.SalespersonPerformance{Name: g.name}
	// Validate already rejects non-positive targets; the guard stays anyway.
	if g.target.IsPositive() {
		p.GoalPercentage = revenue.Mul(oneHundred).Div(g.target).InexactFloat64()
	}
	if leadCount > 0 {
		p.ConversionRate = float64(converted) / float64(leadCount) * 100
	}
	return p
}
