package collector

import (
	"time"

	"dealpulse/internal/model"
)

// MockFetcher returns controllable fixed data for development and testing.
type MockFetcher struct {
	WonDeals     []model.Deal
	CreatedDeals []model.Deal
	Latest       *model.Deal
	LatestErr    error
}

func (m *MockFetcher) Name() string { return "mock" }

func (m *MockFetcher) FetchWonDeals() []model.Deal {
	return m.WonDeals
}

func (m *MockFetcher) FetchDealsCreatedBetween(_, _ time.Time) []model.Deal {
	return m.CreatedDeals
}

func (m *MockFetcher) FetchLatestWonDeal() (*model.Deal, error) {
	if m.LatestErr != nil {
		return nil, m.LatestErr
	}
	return m.Latest, nil
}
