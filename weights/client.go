// Package weights fetches food-waste weighing records from the remote
// weighing-scale service.
package weights

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/time/rate"

	"fwat/store"
	"fwat/translator"
)

// ByDay maps ISO day -> long API ID -> that member's measurements in grams.
type ByDay map[string]map[int64][]float64

// AttributeTable is the attribute side table keyed by long API ID.
type AttributeTable map[int64]store.Attributes

// Client talks to the weighing-service record endpoint. Remote or decode
// failures degrade to an empty result: a missing day of weights must not
// abort a merge run.
type Client struct {
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
}

// NewClient creates a client for the service at baseURL.
func NewClient(baseURL string, timeout, rateLimit time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
		limiter: rate.NewLimiter(rate.Every(rateLimit), 1),
	}
}

// weightRecord mirrors one record of the service's getrecord response.
type weightRecord struct {
	PeopleCard string           `json:"peopleCard"`
	PeopleName string           `json:"peopleName"`
	House      string           `json:"house"`
	YearGroup  string           `json:"yeargroup"`
	FormClass  string           `json:"formclass"`
	AddTime    string           `json:"addTime"`
	Weight     float64          `json:"weight"`
	Balance    *decimal.Decimal `json:"balance,omitempty"`
}

// Load fetches all weighing events between start and end (inclusive) and
// groups them per day and member, together with the attribute side table.
// Only context cancellation is returned as an error; anything the remote
// service does wrong yields empty results.
func (c *Client) Load(ctx context.Context, start, end time.Time) (ByDay, AttributeTable, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, nil, fmt.Errorf("rate limit wait failed: %w", err)
	}

	records, err := c.fetch(ctx, start, end)
	if err != nil {
		if ctx.Err() != nil {
			return nil, nil, ctx.Err()
		}
		log.Printf("Weight service unavailable, continuing without weights: %v", err)
		return ByDay{}, AttributeTable{}, nil
	}

	return groupRecords(records)
}

func (c *Client) fetch(ctx context.Context, start, end time.Time) ([]weightRecord, error) {
	params := url.Values{}
	params.Set("beginTime", start.Format(store.DayLayout))
	params.Set("endTime", end.Format(store.DayLayout))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		c.baseURL+"/getrecord?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build weight request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("weight request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("weight service returned status %d", resp.StatusCode)
	}

	var records []weightRecord
	if err := json.NewDecoder(resp.Body).Decode(&records); err != nil {
		return nil, fmt.Errorf("failed to decode weight response: %w", err)
	}
	return records, nil
}

// groupRecords converts the flat record list to per-day, per-member series.
// IDs are canonicalized exactly once, here at ingestion.
func groupRecords(records []weightRecord) (ByDay, AttributeTable, error) {
	byDay := make(ByDay)
	attrs := make(AttributeTable)
	skipped := 0

	for _, rec := range records {
		longID, err := translator.CanonicalLong(rec.PeopleCard)
		if err != nil {
			skipped++
			continue
		}
		day, ok := recordDay(rec.AddTime)
		if !ok {
			skipped++
			continue
		}
		if rec.Weight < 0 {
			skipped++
			continue
		}

		dayEvents, ok := byDay[day]
		if !ok {
			dayEvents = make(map[int64][]float64)
			byDay[day] = dayEvents
		}
		dayEvents[longID] = append(dayEvents[longID], rec.Weight)

		if _, ok := attrs[longID]; !ok && rec.PeopleName != "" {
			attrs[longID] = store.Attributes{
				Name:      rec.PeopleName,
				House:     rec.House,
				YearGroup: rec.YearGroup,
				FormClass: rec.FormClass,
				Balance:   rec.Balance,
			}
		}
	}

	if skipped > 0 {
		log.Printf("Weight service: skipped %d unusable records out of %d", skipped, len(records))
	}
	return byDay, attrs, nil
}

// recordDay extracts the ISO date part of an addTime value
// ("2024-05-13 12:01:30" -> "2024-05-13").
func recordDay(addTime string) (string, bool) {
	day, _, _ := strings.Cut(strings.TrimSpace(addTime), " ")
	if _, err := time.Parse(store.DayLayout, day); err != nil {
		return "", false
	}
	return day, true
}
