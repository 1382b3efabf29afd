package history

import (
	"strings"

	"github.com/XavierBriggs/Augur/pkg/contracts"
	"github.com/XavierBriggs/Augur/pkg/models"
)

// Estimator maps market outcomes to historical probabilities for one sport
type Estimator struct {
	table     *Table
	profile   models.StatsProfile
	normalize func(string) string
}

var _ contracts.ProbabilityEstimator = (*Estimator)(nil)

// NewEstimator builds an estimator over table. A nil table yields an
// estimator that never produces a value. normalize maps odds feed team
// names to the names used in the CSV files; nil keeps names unchanged.
func NewEstimator(table *Table, profile models.StatsProfile, normalize func(string) string) *Estimator {
	if normalize == nil {
		normalize = strings.TrimSpace
	}
	return &Estimator{table: table, profile: profile, normalize: normalize}
}

// EstimateProbability implements contracts.ProbabilityEstimator
func (e *Estimator) EstimateProbability(event models.Event, marketKey string, outcome models.Outcome) (float64, bool) {
	if e.table == nil {
		return 0, false
	}

	home := e.normalize(event.HomeTeam)
	away := e.normalize(event.AwayTeam)

	switch marketKey {
	case models.MarketH2H:
		switch {
		case strings.EqualFold(outcome.Name, event.HomeTeam):
			return Estimate(e.table, home, away, e.profile.GoalDiffWeight)
		case strings.EqualFold(outcome.Name, event.AwayTeam):
			return Estimate(e.table, away, home, e.profile.GoalDiffWeight)
		case strings.EqualFold(outcome.Name, "Draw") && e.profile.SupportsDraw:
			return DrawRate(e.table, home, away)
		}

	case models.MarketTotals:
		if outcome.Point == nil {
			return 0, false
		}
		over, ok := OverRate(e.table, home, away, *outcome.Point)
		if !ok {
			return 0, false
		}
		switch {
		case strings.EqualFold(outcome.Name, "Over"):
			return over, true
		case strings.EqualFold(outcome.Name, "Under"):
			return 100 - over, true
		}

	case models.MarketBTTS:
		if !e.profile.SupportsBTTS {
			return 0, false
		}
		btts, ok := BTTSRate(e.table, home, away)
		if !ok {
			return 0, false
		}
		switch {
		case strings.EqualFold(outcome.Name, "Yes"):
			return btts, true
		case strings.EqualFold(outcome.Name, "No"):
			return 100 - btts, true
		}
	}

	return 0, false
}
