package theoddsapi

import (
	"context"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/bytedance/sonic"
	"github.com/cockroachdb/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/XavierBriggs/Augur/pkg/contracts"
	"github.com/XavierBriggs/Augur/pkg/models"
)

const (
	defaultBaseURL = "https://api.the-odds-api.com"
	apiVersion     = "v4"
	userAgent      = "Augur/1.0 (Odds Alert Bot)"
	defaultTimeout = 30 * time.Second
)

// Config holds The Odds API client settings
type Config struct {
	APIKey     string
	BaseURL    string        // Defaults to the public endpoint
	Timeout    time.Duration // Per request, defaults to 30s
	HTTPClient *http.Client  // Optional, overrides Timeout
}

// Client implements the VendorAdapter interface for The Odds API
type Client struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
	rateLimits *models.RateLimits
	mu         sync.RWMutex
	logger     zerolog.Logger
}

// Ensure Client implements VendorAdapter
var _ contracts.VendorAdapter = (*Client)(nil)

// NewClient creates a new The Odds API client
func NewClient(cfg Config) *Client {
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = defaultTimeout
		}
		httpClient = &http.Client{Timeout: timeout}
	}

	return &Client{
		apiKey:     cfg.APIKey,
		baseURL:    baseURL,
		httpClient: httpClient,
		rateLimits: &models.RateLimits{
			RequestsRemaining: 500, // Free tier quota until the first response
		},
		logger: log.With().Str("component", "theoddsapi").Logger(),
	}
}

// FetchOdds retrieves decimal odds for the requested markets of one sport.
// A single attempt is made; retries are left to the next scheduled cycle.
func (c *Client) FetchOdds(ctx context.Context, opts *models.FetchOddsOptions) (*models.FetchResult, error) {
	if c.apiKey == "" {
		return nil, errors.Mark(errors.New("ODDS_API_KEY is not set"), contracts.ErrNotConfigured)
	}
	if opts == nil || opts.Sport == "" {
		return nil, errors.Mark(errors.New("sport key is required"), contracts.ErrNotConfigured)
	}

	endpoint := fmt.Sprintf("%s/%s/sports/%s/odds", c.baseURL, apiVersion, url.PathEscape(opts.Sport))

	params := url.Values{}
	params.Set("apiKey", c.apiKey)
	params.Set("regions", strings.Join(opts.Regions, ","))
	params.Set("markets", strings.Join(opts.Markets, ","))
	params.Set("oddsFormat", "decimal")
	params.Set("dateFormat", "iso")

	body, err := c.doRequest(ctx, endpoint+"?"+params.Encode())
	if err != nil {
		return nil, errors.Wrapf(err, "fetch odds for %s", opts.Sport)
	}

	var apiResp []oddsResponse
	if err := sonic.Unmarshal(body, &apiResp); err != nil {
		return nil, errors.Mark(errors.Wrap(err, "parse odds response"), contracts.ErrMalformed)
	}

	result := parseOddsResponse(apiResp, opts.Sport)
	if result.Skipped > 0 {
		c.logger.Warn().
			Str("sport", opts.Sport).
			Int("skipped", result.Skipped).
			Msg("skipped events with unparseable commence_time")
	}

	c.logger.Debug().
		Str("sport", opts.Sport).
		Int("events", len(result.Events)).
		Msg("fetched odds")

	return result, nil
}

// SupportsMarket checks if this adapter supports a given market
func (c *Client) SupportsMarket(market string) bool {
	switch market {
	case models.MarketH2H, models.MarketTotals, models.MarketSpreads, models.MarketBTTS:
		return true
	}
	return false
}

// GetRateLimits returns a copy of the current rate limit information
func (c *Client) GetRateLimits() *models.RateLimits {
	c.mu.RLock()
	defer c.mu.RUnlock()
	limits := *c.rateLimits
	return &limits
}

// doRequest performs a single HTTP GET and returns the body of a 200 response
func (c *Client) doRequest(ctx context.Context, fullURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return nil, errors.Wrap(err, "create request")
	}

	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, errors.Mark(errors.Wrap(redactKey(err), "execute request"), contracts.ErrTransport)
	}
	defer resp.Body.Close()

	c.updateRateLimits(resp.Header)

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Mark(errors.Wrap(err, "read response body"), contracts.ErrTransport)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, errors.Mark(&httpError{
			StatusCode: resp.StatusCode,
			Message:    truncate(string(body), 256),
		}, contracts.ErrTransport)
	}

	return body, nil
}

// updateRateLimits extracts rate limit info from response headers
func (c *Client) updateRateLimits(headers http.Header) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if remaining := headers.Get("x-requests-remaining"); remaining != "" {
		if val, err := strconv.Atoi(remaining); err == nil {
			c.rateLimits.RequestsRemaining = val
		}
	}

	if used := headers.Get("x-requests-used"); used != "" {
		if val, err := strconv.Atoi(used); err == nil {
			c.rateLimits.RequestsUsed = val
		}
	}
}

// parseOddsResponse converts the API response to events, skipping records
// whose commence time cannot be parsed
func parseOddsResponse(apiResp []oddsResponse, sport string) *models.FetchResult {
	result := &models.FetchResult{Events: make([]models.Event, 0, len(apiResp))}

	for _, event := range apiResp {
		commenceTime, err := time.Parse(time.RFC3339, event.CommenceTime)
		if err != nil {
			result.Skipped++
			continue
		}

		sportKey := event.SportKey
		if sportKey == "" {
			sportKey = sport
		}

		evt := models.Event{
			EventID:      event.ID,
			SportKey:     sportKey,
			SportTitle:   event.SportTitle,
			HomeTeam:     event.HomeTeam,
			AwayTeam:     event.AwayTeam,
			CommenceTime: commenceTime.UTC(),
			Bookmakers:   make([]models.Bookmaker, 0, len(event.Bookmakers)),
		}

		for _, bm := range event.Bookmakers {
			lastUpdate, _ := time.Parse(time.RFC3339, bm.LastUpdate)

			book := models.Bookmaker{
				Key:        bm.Key,
				Title:      bm.Title,
				LastUpdate: lastUpdate,
				Markets:    make([]models.Market, 0, len(bm.Markets)),
			}

			for _, mk := range bm.Markets {
				market := models.Market{
					Key:      mk.Key,
					Outcomes: make([]models.Outcome, 0, len(mk.Outcomes)),
				}
				for _, o := range mk.Outcomes {
					// Unparseable prices stay at 0 and are counted invalid downstream
					outcome := models.Outcome{Name: o.Name, Price: o.Price.value}
					if o.Point.ok {
						point := o.Point.value
						outcome.Point = &point
					}
					market.Outcomes = append(market.Outcomes, outcome)
				}
				book.Markets = append(book.Markets, market)
			}

			evt.Bookmakers = append(evt.Bookmakers, book)
		}

		result.Events = append(result.Events, evt)
	}

	return result
}

// redactKey strips the apiKey query parameter from url errors
func redactKey(err error) error {
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		if u, perr := url.Parse(urlErr.URL); perr == nil {
			q := u.Query()
			if q.Has("apiKey") {
				q.Set("apiKey", "REDACTED")
				u.RawQuery = q.Encode()
			}
			return &url.Error{Op: urlErr.Op, URL: u.String(), Err: urlErr.Err}
		}
	}
	return err
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

// httpError represents an HTTP error with status code
type httpError struct {
	StatusCode int
	Message    string
}

func (e *httpError) Error() string {
	return fmt.Sprintf("HTTP %d: %s", e.StatusCode, e.Message)
}

// API response structures matching The Odds API JSON format

type oddsResponse struct {
	ID           string      `json:"id"`
	SportKey     string      `json:"sport_key"`
	SportTitle   string      `json:"sport_title"`
	CommenceTime string      `json:"commence_time"`
	HomeTeam     string      `json:"home_team"`
	AwayTeam     string      `json:"away_team"`
	Bookmakers   []bookmaker `json:"bookmakers"`
}

type bookmaker struct {
	Key        string   `json:"key"`
	Title      string   `json:"title"`
	LastUpdate string   `json:"last_update"`
	Markets    []market `json:"markets"`
}

type market struct {
	Key        string    `json:"key"`
	LastUpdate string    `json:"last_update"`
	Outcomes   []outcome `json:"outcomes"`
}

type outcome struct {
	Name  string `json:"name"`
	Price number `json:"price"`
	Point number `json:"point"`
}

// number accepts JSON numbers and numeric strings. Anything else decodes as
// unset instead of failing the whole response, so one bad price only drops
// its outcome.
type number struct {
	value float64
	ok    bool
}

func (n *number) UnmarshalJSON(data []byte) error {
	raw := strings.TrimSpace(string(data))
	if unquoted, err := strconv.Unquote(raw); err == nil {
		raw = strings.TrimSpace(unquoted)
	}

	f, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		*n = number{}
		return nil
	}
	*n = number{value: f, ok: true}
	return nil
}
