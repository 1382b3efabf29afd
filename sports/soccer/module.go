package soccer

import (
	"strings"

	"github.com/XavierBriggs/Augur/pkg/contracts"
	"github.com/XavierBriggs/Augur/pkg/models"
)

// Module implements the SportModule interface for one soccer competition
type Module struct {
	config *Config
}

var _ contracts.SportModule = (*Module)(nil)

// NewModule creates a soccer module from its config
func NewModule(cfg *Config) *Module {
	return &Module{config: cfg}
}

func (m *Module) GetSportKey() string {
	return m.config.SportKey
}

func (m *Module) GetDisplayName() string {
	return m.config.DisplayName
}

func (m *Module) GetMarkets() []string {
	return m.config.Markets
}

func (m *Module) GetRegions() []string {
	return m.config.Regions
}

func (m *Module) GetThresholds() models.Thresholds {
	return m.config.Thresholds
}

func (m *Module) GetStatsProfile() models.StatsProfile {
	return m.config.Stats
}

// teamAliases maps odds feed names to football-data.co.uk names
var teamAliases = map[string]string{
	"Manchester United":        "Man United",
	"Manchester City":          "Man City",
	"Tottenham Hotspur":        "Tottenham",
	"Wolverhampton Wanderers":  "Wolves",
	"Newcastle United":         "Newcastle",
	"Nottingham Forest":        "Nott'm Forest",
	"Brighton and Hove Albion": "Brighton",
	"West Ham United":          "West Ham",
	"Leicester City":           "Leicester",
	"Leeds United":             "Leeds",
	"Sheffield United":         "Sheffield United",
	"Inter Milan":              "Inter",
	"AC Milan":                 "Milan",
	"AS Roma":                  "Roma",
	"Hellas Verona":            "Verona",
	"Atalanta BC":              "Atalanta",
	"Bayern Munich":            "Bayern Munich",
	"Borussia Dortmund":        "Dortmund",
	"Bayer Leverkusen":         "Leverkusen",
	"Paris Saint Germain":      "Paris SG",
	"Atletico Madrid":          "Ath Madrid",
	"Athletic Bilbao":          "Ath Bilbao",
}

// NormalizeTeamName maps an odds feed team name to the historical CSV name
func (m *Module) NormalizeTeamName(name string) string {
	name = strings.TrimSpace(name)
	if alias, ok := teamAliases[name]; ok {
		return alias
	}
	return name
}
