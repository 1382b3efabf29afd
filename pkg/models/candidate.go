package models

import (
	"fmt"
	"strings"
	"time"
)

// Decision is the outcome of evaluating a candidate against thresholds
type Decision string

const (
	DecisionAccepted Decision = "accepted"
	DecisionRejected Decision = "rejected"
)

// Thresholds configures how candidates of a sport are accepted
type Thresholds struct {
	MinProbability float64       // Percent, inclusive
	MinPrice       float64       // Decimal odds, inclusive
	ImpliedWeight  float64       // Weight of the implied probability in the blend
	Horizon        time.Duration // How far ahead events are eligible
}

// StatsProfile tells the historical estimator how to read a sport's CSV files
type StatsProfile struct {
	HistoryCategory string  // Folder name under each history directory
	GoalDiffWeight  float64 // Probability points per goal/point of differential
	SupportsDraw    bool
	SupportsBTTS    bool
}

// Candidate is the best outcome of one event/bookmaker/market under evaluation
type Candidate struct {
	SportKey     string
	SportTitle   string
	EventID      string
	HomeTeam     string
	AwayTeam     string
	CommenceTime time.Time
	Bookmaker    string
	MarketKey    string
	OutcomeName  string
	Point        *float64
	Price        float64

	ImpliedProbability    float64
	HistoricalProbability *float64
	Probability           float64
	Edge                  float64 // Probability - ImpliedProbability

	Decision    Decision
	Reasons     []string
	EvaluatedAt time.Time
}

// Accepted reports whether the candidate passed every threshold
func (c Candidate) Accepted() bool {
	return c.Decision == DecisionAccepted
}

// Identity returns the deduplication key of the candidate
func (c Candidate) Identity() string {
	return CandidateIdentity(c.SportKey, c.HomeTeam, c.AwayTeam, c.MarketKey, c.OutcomeName)
}

// CandidateIdentity builds the deterministic deduplication key
// Format: candidate:{sport}:{home}:{away}:{market}:{outcome}
// Backslashes and colons inside fields are escaped so distinct tuples never
// share a key.
func CandidateIdentity(sport, home, away, market, outcome string) string {
	return fmt.Sprintf("candidate:%s:%s:%s:%s:%s",
		identityEscaper.Replace(sport),
		identityEscaper.Replace(home),
		identityEscaper.Replace(away),
		identityEscaper.Replace(market),
		identityEscaper.Replace(outcome))
}

var identityEscaper = strings.NewReplacer(`\`, `\\`, ":", `\:`)
