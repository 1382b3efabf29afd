package basketball_nba

import (
	"strings"
)

// NormalizeTeamName standardizes team names between the odds feed and
// historical box scores. Handles variations like "LA Lakers" vs
// "Los Angeles Lakers".
func NormalizeTeamName(name string) string {
	name = strings.TrimSpace(name)

	replacements := map[string]string{
		"LA Lakers":    "Los Angeles Lakers",
		"LA Clippers":  "Los Angeles Clippers",
		"NY Knicks":    "New York Knicks",
		"GS Warriors":  "Golden State Warriors",
		"SA Spurs":     "San Antonio Spurs",
		"OKC Thunder":  "Oklahoma City Thunder",
		"NO Pelicans":  "New Orleans Pelicans",
		"Philadelphia": "Philadelphia 76ers",
	}

	if normalized, ok := replacements[name]; ok {
		return normalized
	}

	return name
}

// NormalizeTeamName satisfies the pipeline's team name normalizer
func (m *Module) NormalizeTeamName(name string) string {
	return NormalizeTeamName(name)
}
