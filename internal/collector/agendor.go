package collector

import (
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"dealpulse/internal/model"
)

// AgendorFetcher implements Fetcher against the Agendor v3 REST API.
type AgendorFetcher struct {
	BaseURL    string
	Token      string
	PageClient *http.Client // bulk pagination calls
	PollClient *http.Client // single-record polls
}

// NewAgendorFetcher creates a fetcher with separate timeouts for bulk
// pagination and single-record polling.
func NewAgendorFetcher(baseURL, token string, pollTimeout, pageTimeout time.Duration) *AgendorFetcher {
	return &AgendorFetcher{
		BaseURL:    baseURL,
		Token:      token,
		PageClient: &http.Client{Timeout: pageTimeout},
		PollClient: &http.Client{Timeout: pollTimeout},
	}
}

func (f *AgendorFetcher) Name() string { return "agendor" }

// apiDeal is the expected JSON shape of one CRM deal record.
type apiDeal struct {
	ID    json.Number      `json:"id"`
	Title string           `json:"title"`
	Value *decimal.Decimal `json:"value"`
	Owner struct {
		Name string `json:"name"`
	} `json:"owner"`
	DealStatus struct {
		ID int `json:"id"`
	} `json:"dealStatus"`
	WonAt     *time.Time `json:"wonAt"`
	CreatedAt time.Time  `json:"createdAt"`
}

// apiPage is one page of the paginated deals listing.
type apiPage struct {
	Data  []apiDeal `json:"data"`
	Links struct {
		Next string `json:"next"`
	} `json:"links"`
}

func (d *apiDeal) toModel() model.Deal {
	status := model.StatusOther
	switch model.DealStatus(d.DealStatus.ID) {
	case model.StatusOngoing, model.StatusWon, model.StatusLost:
		status = model.DealStatus(d.DealStatus.ID)
	}
	return model.Deal{
		ID:        d.ID.String(),
		Title:     d.Title,
		Value:     d.Value,
		OwnerName: d.Owner.Name,
		Status:    status,
		WonAt:     d.WonAt,
		CreatedAt: d.CreatedAt,
	}
}

func (f *AgendorFetcher) FetchWonDeals() []model.Deal {
	return f.fetchAllPages(url.Values{
		"dealStatus": {strconv.Itoa(int(model.StatusWon))},
	})
}

func (f *AgendorFetcher) FetchDealsCreatedBetween(from, to time.Time) []model.Deal {
	return f.fetchAllPages(url.Values{
		"createdAtGt": {from.Format(time.RFC3339)},
		"createdAtLt": {to.Format(time.RFC3339)},
	})
}

// FetchLatestWonDeal asks for the single most recently updated won deal.
func (f *AgendorFetcher) FetchLatestWonDeal() (*model.Deal, error) {
	params := url.Values{
		"dealStatus": {strconv.Itoa(int(model.StatusWon))},
		"order_by":   {"-updatedAt"},
		"limit":      {"1"},
	}
	page, err := f.fetchPage(f.PollClient, f.BaseURL+"/deals?"+params.Encode())
	if err != nil {
		return nil, err
	}
	if len(page.Data) == 0 {
		return nil, nil
	}
	d := page.Data[0].toModel()
	return &d, nil
}

// fetchAllPages drains the deals listing, following links.next until
// exhausted. The first request carries the query params; follow-up requests
// use the next link verbatim. A failure mid-way abandons the remaining pages
// and returns the records accumulated so far; the next scheduled cycle
// self-heals.
func (f *AgendorFetcher) fetchAllPages(params url.Values) []model.Deal {
	var deals []model.Deal
	next := f.BaseURL + "/deals?" + params.Encode()
	for next != "" {
		page, err := f.fetchPage(f.PageClient, next)
		if err != nil {
			log.Printf("[ERROR] pagination aborted at %s: %v (keeping %d records)", next, err, len(deals))
			break
		}
		for i := range page.Data {
			deals = append(deals, page.Data[i].toModel())
		}
		next = page.Links.Next
	}
	return deals
}

func (f *AgendorFetcher) fetchPage(client *http.Client, endpoint string) (*apiPage, error) {
	req, err := http.NewRequest("GET", endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Token "+f.Token)
	req.Header.Set("Content-Type", "application/json")
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch deals: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("fetch deals: status %d, body: %s", resp.StatusCode, string(body))
	}
	var page apiPage
	if err := json.NewDecoder(resp.Body).Decode(&page); err != nil {
		return nil, fmt.Errorf("decode deals page: %w", err)
	}
	return &page, nil
}
