package watcher

import (
	"context"
	"log"
	"time"

	"dealpulse/internal/collector"
	"dealpulse/internal/model"
	"dealpulse/internal/recorder"
	"dealpulse/internal/store"
)

// Triggerer requests an out-of-band metrics recompute.
type Triggerer interface {
	TriggerAsync()
}

// Watcher polls for the most recently updated won deal and raises a WinEvent
// the first time each deal id is seen. Identity is id-only: a re-won or
// edited deal with a known id does not re-trigger.
type Watcher struct {
	Fetcher  collector.Fetcher
	Store    *store.Store
	Trigger  Triggerer
	Recorder recorder.Recorder
	Interval time.Duration

	lastSeenID string
}

// New creates a Watcher.
func New(fetcher collector.Fetcher, st *store.Store, trigger Triggerer, rec recorder.Recorder, interval time.Duration) *Watcher {
	return &Watcher{
		Fetcher:  fetcher,
		Store:    st,
		Trigger:  trigger,
		Recorder: rec,
		Interval: interval,
	}
}

// Run polls until ctx is cancelled. Every failure is absorbed here; the loop
// itself never dies.
func (w *Watcher) Run(ctx context.Context) {
	ticker := time.NewTicker(w.Interval)
	defer ticker.Stop()
	for {
		w.poll()
		select {
		case <-ctx.Done():
			log.Println("[INFO] win watcher stopped")
			return
		case <-ticker.C:
		}
	}
}

// poll runs one tick. A fetch failure is logged and retried on the next tick
// without touching the last-seen id, so a transient failure cannot mask a
// real new win.
func (w *Watcher) poll() {
	deal, err := w.Fetcher.FetchLatestWonDeal()
	if err != nil {
		log.Printf("[ERROR] win poll failed: %v", err)
		return
	}
	if deal == nil || deal.ID == w.lastSeenID {
		return
	}
	if w.lastSeenID == "" {
		// First observation seeds the baseline. Announcing it would replay
		// a win from before the process started.
		w.lastSeenID = deal.ID
		return
	}
	log.Printf("[INFO] new win detected: deal %s by %s, forcing metrics update", deal.ID, deal.OwnerName)
	w.lastSeenID = deal.ID

	evt := model.WinEvent{
		Salesperson: deal.OwnerName,
		Value:       deal.ValueOrZero(),
		Title:       deal.Title,
		ObservedAt:  time.Now(),
	}
	w.Store.SetWinEvent(evt)
	if err := w.Recorder.RecordWin(&recorder.WinRecord{
		DealID:      deal.ID,
		Salesperson: evt.Salesperson,
		Value:       evt.Value.InexactFloat64(),
		Title:       evt.Title,
	}); err != nil {
		log.Printf("[ERROR] record win: %v", err)
	}
	w.Trigger.TriggerAsync()
}
