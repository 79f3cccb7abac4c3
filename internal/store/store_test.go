package store

import (
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dealpulse/internal/model"
)

func TestCurrent_EmptyBeforeFirstPublish(t *testing.T) {
	s := New(15 * time.Second)
	snap := s.Current()
	require.NotNil(t, snap)
	assert.Zero(t, snap.TotalWonDeals)
	assert.NotNil(t, snap.Salespeople)
}

func TestPublish_ReplacesSnapshot(t *testing.T) {
	s := New(15 * time.Second)
	first := &model.MetricsSnapshot{TotalWonDeals: 1, TotalValue: decimal.NewFromInt(100)}
	second := &model.MetricsSnapshot{TotalWonDeals: 2, TotalValue: decimal.NewFromInt(300)}

	s.Publish(first)
	assert.Same(t, first, s.Current())
	s.Publish(second)
	assert.Same(t, second, s.Current())
}

func TestReadAndClearWinEvent_DeliversOnce(t *testing.T) {
	s := New(15 * time.Second)
	now := time.Now()
	s.SetWinEvent(model.WinEvent{Salesperson: "Miguel", ObservedAt: now})

	evt, ok := s.ReadAndClearWinEvent(now.Add(time.Second))
	require.True(t, ok)
	assert.Equal(t, "Miguel", evt.Salesperson)

	_, ok = s.ReadAndClearWinEvent(now.Add(2 * time.Second))
	assert.False(t, ok, "second read within the window must be empty")
}

func TestReadAndClearWinEvent_FreshnessBoundary(t *testing.T) {
	ttl := 15 * time.Second
	now := time.Now()

	s := New(ttl)
	s.SetWinEvent(model.WinEvent{Salesperson: "Jaqueline", ObservedAt: now})
	_, ok := s.ReadAndClearWinEvent(now.Add(ttl - time.Millisecond))
	assert.True(t, ok, "age < window delivers")

	s.SetWinEvent(model.WinEvent{Salesperson: "Jaqueline", ObservedAt: now})
	_, ok = s.ReadAndClearWinEvent(now.Add(ttl))
	assert.False(t, ok, "age == window expires")

	// The stale event was cleared, not left behind.
	_, ok = s.ReadAndClearWinEvent(now)
	assert.False(t, ok)
}

func TestReadAndClearWinEvent_NoPending(t *testing.T) {
	s := New(15 * time.Second)
	_, ok := s.ReadAndClearWinEvent(time.Now())
	assert.False(t, ok)
}

func TestSetWinEvent_ReplacesUnconsumed(t *testing.T) {
	s := New(15 * time.Second)
	now := time.Now()
	s.SetWinEvent(model.WinEvent{Salesperson: "Miguel", ObservedAt: now})
	s.SetWinEvent(model.WinEvent{Salesperson: "Alisson", ObservedAt: now})

	evt, ok := s.ReadAndClearWinEvent(now)
	require.True(t, ok)
	assert.Equal(t, "Alisson", evt.Salesperson)
}

func TestStore_ConcurrentReadersAndWriters(t *testing.T) {
	s := New(15 * time.Second)
	var wg sync.WaitGroup

	for i := 0; i < 10; i++ {
		wg.Add(2)
		go func(n int) {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				s.Publish(&model.MetricsSnapshot{
					TotalWonDeals: n,
					TotalValue:    decimal.NewFromInt(int64(n * 100)),
				})
			}
		}(i + 1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				snap := s.Current()
				// A snapshot is read whole or not at all.
				if snap.TotalWonDeals > 0 {
					expected := decimal.NewFromInt(int64(snap.TotalWonDeals * 100))
					assert.True(t, snap.TotalValue.Equal(expected),
						"torn snapshot: %d deals but value %s", snap.TotalWonDeals, snap.TotalValue)
				}
			}
		}()
	}
	wg.Wait()
}
