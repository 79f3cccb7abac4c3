package collector

import (
	"time"

	"dealpulse/internal/model"
)

// Fetcher defines the interface for reading deal records from the remote
// CRM.
type Fetcher interface {
	// FetchWonDeals drains every page of won deals. A mid-pagination failure
	// abandons the remaining pages and returns what was accumulated so far.
	FetchWonDeals() []model.Deal
	// FetchDealsCreatedBetween drains every deal created in [from, to),
	// regardless of current status. Same partial-result policy as
	// FetchWonDeals.
	FetchDealsCreatedBetween(from, to time.Time) []model.Deal
	// FetchLatestWonDeal returns the most recently updated won deal, or nil
	// when the CRM has none. Unlike the bulk fetches it reports failures, so
	// the caller can tell a broken poll from an empty result.
	FetchLatestWonDeal() (*model.Deal, error)
	Name() string
}
