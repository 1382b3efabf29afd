package contracts

import (
	"github.com/XavierBriggs/Augur/pkg/models"
)

// SportModule defines the per-sport configuration the pipeline evaluates with.
// Each sport category plugs in its own thresholds and historical profile.
type SportModule interface {
	// GetSportKey returns the odds provider identifier (e.g., "soccer_epl")
	GetSportKey() string

	// GetDisplayName returns the human-readable name (e.g., "Premier League")
	GetDisplayName() string

	// GetMarkets returns the markets requested for this sport
	GetMarkets() []string

	// GetRegions returns the bookmaker regions to request (e.g., ["eu"])
	GetRegions() []string

	// GetThresholds returns the acceptance thresholds and blend weight
	GetThresholds() models.Thresholds

	// GetStatsProfile returns how historical CSV files are read for this sport
	GetStatsProfile() models.StatsProfile

	// NormalizeTeamName maps odds feed team names to the names used in the
	// historical CSV files
	NormalizeTeamName(name string) string
}
