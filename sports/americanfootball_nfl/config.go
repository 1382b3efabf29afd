package americanfootball_nfl

import (
	"time"

	"github.com/XavierBriggs/Augur/pkg/models"
)

const (
	SportKey    = "americanfootball_nfl"
	DisplayName = "NFL"
)

// Config contains NFL evaluation configuration
type Config struct {
	SportKey    string
	DisplayName string

	Regions []string
	Markets []string

	Thresholds models.Thresholds
	Stats      models.StatsProfile
}

// DefaultConfig returns the NFL defaults
func DefaultConfig() *Config {
	return &Config{
		SportKey:    SportKey,
		DisplayName: DisplayName,
		Regions:     []string{"eu"},
		Markets:     []string{models.MarketH2H, models.MarketSpreads, models.MarketTotals},

		Thresholds: models.Thresholds{
			MinProbability: 70,
			MinPrice:       1.70,
			ImpliedWeight:  0.5,
			Horizon:        48 * time.Hour,
		},

		Stats: models.StatsProfile{
			HistoryCategory: "football",
			GoalDiffWeight:  0.75,
		},
	}
}
