// Package oddsapi implements the pull-mode odds source: a REST client that
// fetches events and per-event player prop odds and reshapes them into the
// same raw snapshot the push feed produces.
package oddsapi

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/dmaxfield/propscan/internal/domain"
)

// Client is the REST client for the odds API.
type Client struct {
	baseURL    string
	apiKey     string
	sport      string
	httpClient *http.Client
	limiter    *rate.Limiter
	logger     *slog.Logger
}

// NewClient creates an odds API client for one sport key, e.g.
// "basketball_nba". requestsPerSecond bounds the call rate against the API's
// monthly quota.
func NewClient(baseURL, apiKey, sport string, requestsPerSecond float64, logger *slog.Logger) *Client {
	if requestsPerSecond <= 0 {
		requestsPerSecond = 1
	}
	return &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		apiKey:  apiKey,
		sport:   sport,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		limiter: rate.NewLimiter(rate.Limit(requestsPerSecond), 1),
		logger:  logger.With(slog.String("component", "oddsapi_client")),
	}
}

// FetchSnapshot pulls every upcoming event and its odds for the given markets
// and bookmakers, returning the same (games, odds) maps the push feed builds.
// Events whose odds request fails are logged and skipped; a partial snapshot
// beats no snapshot.
func (c *Client) FetchSnapshot(ctx context.Context, markets, bookmakers []string) (map[string]domain.GameInfo, map[string]map[string]map[string]domain.RawOutcome, error) {
	events, err := c.listEvents(ctx)
	if err != nil {
		return nil, nil, err
	}

	games := make(map[string]domain.GameInfo, len(events))
	odds := make(map[string]map[string]map[string]domain.RawOutcome, len(events))

	for _, ev := range events {
		games[ev.ID] = ev.gameInfo()

		byBook, err := c.eventOdds(ctx, ev.ID, markets, bookmakers)
		if err != nil {
			if ctx.Err() != nil {
				return nil, nil, ctx.Err()
			}
			c.logger.Warn("event odds fetch failed",
				slog.String("event", ev.ID),
				slog.String("error", err.Error()),
			)
			continue
		}
		if len(byBook) > 0 {
			odds[ev.ID] = byBook
		}
	}
	c.logger.Debug("snapshot fetched",
		slog.Int("events", len(events)),
		slog.Int("with_odds", len(odds)),
	)
	return games, odds, nil
}

// listEvents returns the sport's upcoming events.
func (c *Client) listEvents(ctx context.Context) ([]Event, error) {
	path := fmt.Sprintf("/sports/%s/events", url.PathEscape(c.sport))
	body, err := c.get(ctx, path, url.Values{})
	if err != nil {
		return nil, fmt.Errorf("oddsapi: list events: %w", err)
	}
	var events []Event
	if err := json.Unmarshal(body, &events); err != nil {
		return nil, fmt.Errorf("oddsapi: decode events: %w", err)
	}
	return events, nil
}

// eventOdds fetches one event's odds and flattens them into the raw
// per-book outcome map.
func (c *Client) eventOdds(ctx context.Context, eventID string, markets, bookmakers []string) (map[string]map[string]domain.RawOutcome, error) {
	params := url.Values{}
	params.Set("regions", "us")
	params.Set("oddsFormat", "american")
	params.Set("includeLinks", "true")
	if len(markets) > 0 {
		params.Set("markets", strings.Join(markets, ","))
	}
	if len(bookmakers) > 0 {
		params.Set("bookmakers", strings.Join(bookmakers, ","))
	}

	path := fmt.Sprintf("/sports/%s/events/%s/odds", url.PathEscape(c.sport), url.PathEscape(eventID))
	body, err := c.get(ctx, path, params)
	if err != nil {
		return nil, fmt.Errorf("oddsapi: event odds %s: %w", eventID, err)
	}

	var resp EventOdds
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("oddsapi: decode event odds: %w", err)
	}

	out := make(map[string]map[string]domain.RawOutcome, len(resp.Bookmakers))
	for _, bm := range resp.Bookmakers {
		bucket := make(map[string]domain.RawOutcome)
		for _, market := range bm.Markets {
			for _, o := range market.Outcomes {
				raw, ok := o.rawOutcome(market.Key)
				if !ok {
					continue
				}
				id := strings.Join([]string{market.Key, o.Description, o.pointString(), o.Name}, "|")
				bucket[id] = raw
			}
		}
		if len(bucket) > 0 {
			out[bm.Key] = bucket
		}
	}
	return out, nil
}

// get performs one rate-limited GET and returns the response body.
func (c *Client) get(ctx context.Context, path string, params url.Values) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	params.Set("apiKey", c.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		return nil, domain.ErrRateLimited
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, fmt.Errorf("unexpected status %d: %s", resp.StatusCode, string(respBody))
	}
	return io.ReadAll(resp.Body)
}

// Event is one scheduled game.
type Event struct {
	ID           string    `json:"id"`
	HomeTeam     string    `json:"home_team"`
	AwayTeam     string    `json:"away_team"`
	CommenceTime time.Time `json:"commence_time"`
}

func (e Event) gameInfo() domain.GameInfo {
	return domain.GameInfo{
		Name:     fmt.Sprintf("%s @ %s", e.AwayTeam, e.HomeTeam),
		HomeTeam: e.HomeTeam,
		AwayTeam: e.AwayTeam,
		When:     e.CommenceTime.Format(time.RFC3339),
		Live:     !e.CommenceTime.IsZero() && time.Now().After(e.CommenceTime),
	}
}

// EventOdds is the per-event odds response.
type EventOdds struct {
	ID         string      `json:"id"`
	Bookmakers []Bookmaker `json:"bookmakers"`
}

// Bookmaker groups one book's markets.
type Bookmaker struct {
	Key     string   `json:"key"`
	Markets []Market `json:"markets"`
	Link    string   `json:"link"`
}

// Market groups outcomes under a canonical market key.
type Market struct {
	Key      string    `json:"key"`
	Outcomes []Outcome `json:"outcomes"`
}

// Outcome is one priced selection.
type Outcome struct {
	Name        string   `json:"name"`        // side: Over, Under, Yes
	Description string   `json:"description"` // player name
	Point       *float64 `json:"point"`
	Price       float64  `json:"price"` // American odds
	Link        string   `json:"link"`
}

func (o Outcome) pointString() string {
	if o.Point == nil {
		return ""
	}
	return strconv.FormatFloat(*o.Point, 'f', -1, 64)
}

// rawOutcome reshapes the API outcome into the feed's raw record. The market
// key passes through as the outcome name; the normalizer accepts canonical
// keys directly.
func (o Outcome) rawOutcome(marketKey string) (domain.RawOutcome, bool) {
	price := int(o.Price)
	if price == 0 {
		return domain.RawOutcome{}, false
	}
	return domain.RawOutcome{
		OutcomeName:      marketKey,
		OutcomeTarget:    o.Description,
		OutcomeLine:      o.pointString(),
		OutcomeOverUnder: o.Name,
		Odds:             strconv.Itoa(price),
		Link:             o.Link,
	}, true
}
