package scheduler

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dealpulse/internal/model"
	"dealpulse/internal/recorder"
	"dealpulse/internal/store"
)

// stubAggregator counts calls and detects overlapping cycles.
type stubAggregator struct {
	inFlight    atomic.Int32
	overlapped  atomic.Bool
	calls       atomic.Int32
	err         error
	wonPerCycle int
}

func (a *stubAggregator) Aggregate(now time.Time) (*model.MetricsSnapshot, error) {
	if a.inFlight.Add(1) > 1 {
		a.overlapped.Store(true)
	}
	defer a.inFlight.Add(-1)
	a.calls.Add(1)
	time.Sleep(2 * time.Millisecond)

	if a.err != nil {
		return nil, a.err
	}
	return &model.MetricsSnapshot{
		TotalWonDeals: a.wonPerCycle,
		TotalValue:    decimal.NewFromInt(int64(a.wonPerCycle * 500)),
		AverageTicket: decimal.NewFromInt(500),
		Salespeople:   []model.SalespersonPerformance{{Name: "Michelly"}},
		ComputedAt:    now,
	}, nil
}

func newTestScheduler(agg Aggregator) (*Scheduler, *store.Store) {
	st := store.New(15 * time.Second)
	return NewScheduler(agg, st, recorder.NewNoopRecorder(), time.UTC), st
}

func TestRecompute_SerializesConcurrentTriggers(t *testing.T) {
	agg := &stubAggregator{wonPerCycle: 3}
	s, st := newTestScheduler(agg)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.Recompute("test")
		}()
	}
	wg.Wait()

	assert.False(t, agg.overlapped.Load(), "two cycles ran at the same time")
	assert.Equal(t, int32(10), agg.calls.Load(), "no trigger may be dropped")

	snap := st.Current()
	assert.Equal(t, 3, snap.TotalWonDeals)
	assert.True(t, snap.TotalValue.Equal(decimal.NewFromInt(1500)))
}

func TestRecompute_FailureKeepsPreviousSnapshot(t *testing.T) {
	agg := &stubAggregator{wonPerCycle: 2}
	s, st := newTestScheduler(agg)

	s.Recompute("startup")
	published := st.Current()
	require.Equal(t, 2, published.TotalWonDeals)

	agg.err = errors.New("aggregation panic: malformed record")
	s.Recompute("scheduled")

	assert.Same(t, published, st.Current(), "failed cycle must not unpublish")
}

func TestRunInitial_PublishesBeforeReturning(t *testing.T) {
	agg := &stubAggregator{wonPerCycle: 1}
	s, st := newTestScheduler(agg)

	s.RunInitial()

	assert.Equal(t, int32(1), agg.calls.Load())
	assert.Equal(t, 1, st.Current().TotalWonDeals)
}

func TestTriggerAsync_EventuallyRuns(t *testing.T) {
	agg := &stubAggregator{wonPerCycle: 4}
	s, st := newTestScheduler(agg)

	s.TriggerAsync()

	require.Eventually(t, func() bool {
		return st.Current().TotalWonDeals == 4
	}, time.Second, 5*time.Millisecond)
}

func TestRegister_InvalidCronSpec(t *testing.T) {
	s, _ := newTestScheduler(&stubAggregator{})
	err := s.Register("definitely not a cron spec")
	require.Error(t, err)
}

func TestRegister_AcceptsEveryInterval(t *testing.T) {
	s, _ := newTestScheduler(&stubAggregator{})
	require.NoError(t, s.Register("@every 60s"))
}
