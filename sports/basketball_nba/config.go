package basketball_nba

import (
	"time"

	"github.com/XavierBriggs/Augur/pkg/models"
)

const (
	SportKey    = "basketball_nba"
	DisplayName = "NBA Basketball"
)

// Config contains NBA-specific evaluation configuration
type Config struct {
	// Sport identification
	SportKey    string
	DisplayName string

	// Regions and markets to request
	Regions []string
	Markets []string

	// Acceptance thresholds and blend weight
	Thresholds models.Thresholds

	// How historical box scores are read
	Stats models.StatsProfile
}

// DefaultConfig returns the NBA defaults
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
			HistoryCategory: "basket",
			// NBA margins run in the tens of points, so each point weighs less
			GoalDiffWeight: 0.5,
		},
	}
}
