package testutil

import (
	"context"
	"sync"
	"time"

	"github.com/XavierBriggs/Augur/pkg/contracts"
	"github.com/XavierBriggs/Augur/pkg/models"
)

// NewTestEvent creates an event starting hoursUntilStart after now with one
// bookmaker and no markets
func NewTestEvent(eventID, homeTeam, awayTeam string, now time.Time, hoursUntilStart float64) models.Event {
	return models.Event{
		EventID:      eventID,
		SportKey:     "soccer_epl",
		SportTitle:   "EPL",
		HomeTeam:     homeTeam,
		AwayTeam:     awayTeam,
		CommenceTime: now.Add(time.Duration(hoursUntilStart * float64(time.Hour))).UTC(),
		Bookmakers: []models.Bookmaker{
			{Key: "pinnacle", Title: "Pinnacle", LastUpdate: now},
		},
	}
}

// WithMarket appends a market to the first bookmaker of the event
func WithMarket(evt models.Event, marketKey string, outcomes ...models.Outcome) models.Event {
	books := make([]models.Bookmaker, len(evt.Bookmakers))
	copy(books, evt.Bookmakers)
	books[0].Markets = append(append([]models.Market(nil), books[0].Markets...), models.Market{
		Key:      marketKey,
		Outcomes: outcomes,
	})
	evt.Bookmakers = books
	return evt
}

// NewOutcome creates an outcome without a line
func NewOutcome(name string, price float64) models.Outcome {
	return models.Outcome{Name: name, Price: price}
}

// NewLineOutcome creates an outcome with a totals/spreads line
func NewLineOutcome(name string, price, point float64) models.Outcome {
	return models.Outcome{Name: name, Price: price, Point: &point}
}

// DefaultThresholds mirrors the bot defaults
func DefaultThresholds() models.Thresholds {
	return models.Thresholds{
		MinProbability: 70,
		MinPrice:       1.70,
		ImpliedWeight:  0.5,
		Horizon:        48 * time.Hour,
	}
}

// GoldenFixture pairs a market with the expected evaluation
type GoldenFixture struct {
	Name         string
	Outcomes     []models.Outcome
	Historical   *float64
	ExpectedName string
	ExpectedProb float64
	Accepted     bool
}

// GetGoldenFixtures returns evaluation fixtures under DefaultThresholds
func GetGoldenFixtures() []GoldenFixture {
	return []GoldenFixture{
		{
			Name:         "Lowest price wins",
			Outcomes:     []models.Outcome{NewOutcome("Home", 1.50), NewOutcome("Away", 3.00)},
			ExpectedName: "Home",
			ExpectedProb: 66.67,
			Accepted:     false, // 1.50 below min price and 66.7% below min probability
		},
		{
			Name:         "Blend reaches threshold",
			Outcomes:     []models.Outcome{NewOutcome("Home", 1.25), NewOutcome("Away", 4.50)},
			Historical:   ptrFloat64(60),
			ExpectedName: "Home",
			ExpectedProb: 70, // 80*0.5 + 60*0.5
			Accepted:     false,
		},
		{
			Name:         "Strong history lifts a fair price",
			Outcomes:     []models.Outcome{NewOutcome("Home", 1.80), NewOutcome("Away", 2.10)},
			Historical:   ptrFloat64(95),
			ExpectedName: "Home",
			ExpectedProb: 75.28, // 55.56*0.5 + 95*0.5
			Accepted:     true,
		},
		{
			Name:         "Invalid prices ignored",
			Outcomes:     []models.Outcome{NewOutcome("Home", 1.0), NewOutcome("Away", 0), NewOutcome("Draw", 3.40)},
			ExpectedName: "Draw",
			ExpectedProb: 29.41,
			Accepted:     false,
		},
	}
}

func ptrFloat64(val float64) *float64 {
	return &val
}

// FixedEstimator returns the same historical probability for every outcome
type FixedEstimator struct {
	Value float64
	OK    bool
}

var _ contracts.ProbabilityEstimator = FixedEstimator{}

func (f FixedEstimator) EstimateProbability(models.Event, string, models.Outcome) (float64, bool) {
	return f.Value, f.OK
}

// MockVendorAdapter is a test adapter that returns predetermined events
type MockVendorAdapter struct {
	mu    sync.Mutex
	Calls []string

	FetchOddsFunc      func(sport string) (*models.FetchResult, error)
	SupportsMarketFunc func(market string) bool
	GetRateLimitsFunc  func() *models.RateLimits
}

var _ contracts.VendorAdapter = (*MockVendorAdapter)(nil)

func (m *MockVendorAdapter) FetchOdds(ctx context.Context, opts *models.FetchOddsOptions) (*models.FetchResult, error) {
	m.mu.Lock()
	m.Calls = append(m.Calls, opts.Sport)
	m.mu.Unlock()

	if m.FetchOddsFunc != nil {
		return m.FetchOddsFunc(opts.Sport)
	}
	return &models.FetchResult{}, nil
}

func (m *MockVendorAdapter) SupportsMarket(market string) bool {
	if m.SupportsMarketFunc != nil {
		return m.SupportsMarketFunc(market)
	}
	return true
}

func (m *MockVendorAdapter) GetRateLimits() *models.RateLimits {
	if m.GetRateLimitsFunc != nil {
		return m.GetRateLimitsFunc()
	}
	return &models.RateLimits{RequestsRemaining: 500}
}

// CallCount returns how many fetches were made
func (m *MockVendorAdapter) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Calls)
}

// CapturingNotifier records every message it is asked to send
type CapturingNotifier struct {
	mu       sync.Mutex
	Messages []string
	Err      error
}

func (n *CapturingNotifier) Send(_ context.Context, text string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.Err != nil {
		return n.Err
	}
	n.Messages = append(n.Messages, text)
	return nil
}

// Sent returns a copy of the captured messages
func (n *CapturingNotifier) Sent() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]string(nil), n.Messages...)
}
