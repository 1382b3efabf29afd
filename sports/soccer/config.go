package soccer

import (
	"strings"
	"time"

	"github.com/XavierBriggs/Augur/pkg/models"
)

// competitionNames maps odds provider keys to display names
var competitionNames = map[string]string{
	"soccer_italy_serie_a":          "Serie A",
	"soccer_italy_serie_b":          "Serie B",
	"soccer_epl":                    "Premier League",
	"soccer_efl_champ":              "Championship",
	"soccer_spain_la_liga":          "La Liga",
	"soccer_spain_segunda_division": "La Liga 2",
	"soccer_germany_bundesliga":     "Bundesliga",
	"soccer_germany_bundesliga2":    "Bundesliga 2",
	"soccer_france_ligue_one":       "Ligue 1",
	"soccer_france_ligue_two":       "Ligue 2",
	"soccer_uefa_champs_league":     "Champions League",
	"soccer_uefa_europa_league":     "Europa League",
}

// Config contains soccer evaluation configuration for one competition
type Config struct {
	SportKey    string
	DisplayName string

	Regions []string
	Markets []string

	Thresholds models.Thresholds
	Stats      models.StatsProfile
}

// DefaultConfig returns the defaults for a soccer competition key
func DefaultConfig(sportKey string) *Config {
	return &Config{
		SportKey:    sportKey,
		DisplayName: DisplayName(sportKey),
		Regions:     []string{"eu"},
		Markets:     []string{models.MarketH2H, models.MarketTotals},

		Thresholds: models.Thresholds{
			MinProbability: 70,
			MinPrice:       1.70,
			ImpliedWeight:  0.5,
			Horizon:        48 * time.Hour,
		},

		Stats: models.StatsProfile{
			HistoryCategory: "calcio",
			GoalDiffWeight:  10,
			SupportsDraw:    true,
			SupportsBTTS:    true,
		},
	}
}

// DisplayName returns a readable competition name, falling back to the key
func DisplayName(sportKey string) string {
	if name, ok := competitionNames[sportKey]; ok {
		return name
	}
	return strings.TrimPrefix(sportKey, "soccer_")
}

// IsSoccer reports whether the key belongs to a soccer competition
func IsSoccer(sportKey string) bool {
	return strings.HasPrefix(sportKey, "soccer_")
}
