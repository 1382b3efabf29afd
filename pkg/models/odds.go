package models

import "time"

// Market keys supported by the odds provider
const (
	MarketH2H     = "h2h"
	MarketTotals  = "totals"
	MarketSpreads = "spreads"
	MarketBTTS    = "btts"
)

// Event represents a scheduled match together with the prices offered on it
type Event struct {
	EventID      string
	SportKey     string
	SportTitle   string
	HomeTeam     string
	AwayTeam     string
	CommenceTime time.Time // UTC
	Bookmakers   []Bookmaker
}

// Bookmaker groups the markets a single book offers on an event
type Bookmaker struct {
	Key        string
	Title      string
	LastUpdate time.Time
	Markets    []Market
}

// Market is a named betting market (h2h, totals, spreads, btts)
type Market struct {
	Key      string
	Outcomes []Outcome
}

// Outcome is one selectable result within a market
type Outcome struct {
	Name  string
	Price float64  // Decimal odds
	Point *float64 // Line for totals/spreads
}

// Valid reports whether the price can be turned into a probability
func (o Outcome) Valid() bool {
	return o.Price > 1.0
}

// ImpliedProbability returns 100/price, or 0 for invalid prices
func (o Outcome) ImpliedProbability() float64 {
	if !o.Valid() {
		return 0
	}
	return 100 / o.Price
}

// InWindow reports whether the event starts strictly between now and now+horizon
func (e Event) InWindow(now time.Time, horizon time.Duration) bool {
	return e.CommenceTime.After(now) && e.CommenceTime.Before(now.Add(horizon))
}

// FetchOddsOptions contains parameters for fetching odds
type FetchOddsOptions struct {
	Sport   string
	Regions []string
	Markets []string
}

// FetchResult contains the events returned by a fetch operation
type FetchResult struct {
	Events []Event
	// Skipped counts records dropped because they could not be parsed
	Skipped int
}

// RateLimits contains the quota reported by the odds provider
type RateLimits struct {
	RequestsRemaining int `json:"requests_remaining"`
	RequestsUsed      int `json:"requests_used"`
}
