package scheduler

import (
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"dealpulse/internal/model"
	"dealpulse/internal/recorder"
	"dealpulse/internal/store"
)

// Aggregator computes one snapshot for the month containing now.
type Aggregator interface {
	Aggregate(now time.Time) (*model.MetricsSnapshot, error)
}

// Scheduler funnels every recompute trigger through a single gate, so at
// most one aggregation cycle computes and publishes at a time. A trigger
// that arrives while a cycle is in flight waits its turn; none is dropped.
type Scheduler struct {
	Cron       *cron.Cron
	Aggregator Aggregator
	Store      *store.Store
	Recorder   recorder.Recorder
	Loc        *time.Location

	gate sync.Mutex
}

// NewScheduler creates a Scheduler.
func NewScheduler(agg Aggregator, st *store.Store, rec recorder.Recorder, loc *time.Location) *Scheduler {
	return &Scheduler{
		Cron:       cron.New(cron.WithSeconds()),
		Aggregator: agg,
		Store:      st,
		Recorder:   rec,
		Loc:        loc,
	}
}

// Register adds the periodic recompute to the cron table.
func (s *Scheduler) Register(recomputeCron string) error {
	if _, err := s.Cron.AddFunc(recomputeCron, func() { s.Recompute("scheduled") }); err != nil {
		return fmt.Errorf("register recompute task: %w", err)
	}
	return nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.Cron.Start()
	log.Println("[INFO] scheduler started")
}

// Stop stops the cron scheduler gracefully.
func (s *Scheduler) Stop() {
	s.Cron.Stop()
	log.Println("[INFO] scheduler stopped")
}

// RunInitial computes the first snapshot synchronously so the HTTP layer
// never serves an empty dashboard after startup.
func (s *Scheduler) RunInitial() {
	s.Recompute("startup")
}

// TriggerAsync requests an out-of-band recompute, used by the win watcher.
func (s *Scheduler) TriggerAsync() {
	go s.Recompute("new win")
}

// Recompute runs one aggregate-and-publish cycle. A failed cycle is logged
// and leaves the previous snapshot published unchanged.
func (s *Scheduler) Recompute(reason string) {
	s.gate.Lock()
	defer s.gate.Unlock()

	started := time.Now()
	snap, err := s.Aggregator.Aggregate(started.In(s.Loc))
	if err != nil {
		log.Printf("[ERROR] recompute (%s): %v", reason, err)
		return
	}
	s.Store.Publish(snap)
	elapsed := time.Since(started)
	log.Printf("[INFO] metrics updated (%s): %d won deals, total %s, took %v",
		reason, snap.TotalWonDeals, snap.TotalValue.StringFixed(2), elapsed.Round(time.Millisecond))

	if err := s.Recorder.RecordCycle(&recorder.CycleRecord{
		Trigger:       reason,
		TotalWonDeals: snap.TotalWonDeals,
		TotalValue:    snap.TotalValue.InexactFloat64(),
		AverageTicket: snap.AverageTicket.InexactFloat64(),
		DurationMs:    elapsed.Milliseconds(),
	}); err != nil {
		log.Printf("[ERROR] record cycle: %v", err)
	}
}
