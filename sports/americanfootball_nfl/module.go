package americanfootball_nfl

import (
	"strings"

	"github.com/XavierBriggs/Augur/pkg/contracts"
	"github.com/XavierBriggs/Augur/pkg/models"
)

// Module implements the SportModule interface for the NFL
type Module struct {
	config *Config
}

var _ contracts.SportModule = (*Module)(nil)

// NewModule creates a new NFL module; nil uses DefaultConfig
func NewModule(cfg *Config) *Module {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	return &Module{config: cfg}
}

func (m *Module) GetSportKey() string                  { return m.config.SportKey }
func (m *Module) GetDisplayName() string               { return m.config.DisplayName }
func (m *Module) GetMarkets() []string                 { return m.config.Markets }
func (m *Module) GetRegions() []string                 { return m.config.Regions }
func (m *Module) GetThresholds() models.Thresholds     { return m.config.Thresholds }
func (m *Module) GetStatsProfile() models.StatsProfile { return m.config.Stats }

// nflverse game files use team abbreviations
var abbreviations = map[string]string{
	"Arizona Cardinals":     "ARI",
	"Atlanta Falcons":       "ATL",
	"Baltimore Ravens":      "BAL",
	"Buffalo Bills":         "BUF",
	"Carolina Panthers":     "CAR",
	"Chicago Bears":         "CHI",
	"Cincinnati Bengals":    "CIN",
	"Cleveland Browns":      "CLE",
	"Dallas Cowboys":        "DAL",
	"Denver Broncos":        "DEN",
	"Detroit Lions":         "DET",
	"Green Bay Packers":     "GB",
	"Houston Texans":        "HOU",
	"Indianapolis Colts":    "IND",
	"Jacksonville Jaguars":  "JAX",
	"Kansas City Chiefs":    "KC",
	"Las Vegas Raiders":     "LV",
	"Los Angeles Chargers":  "LAC",
	"Los Angeles Rams":      "LA",
	"Miami Dolphins":        "MIA",
	"Minnesota Vikings":     "MIN",
	"New England Patriots":  "NE",
	"New Orleans Saints":    "NO",
	"New York Giants":       "NYG",
	"New York Jets":         "NYJ",
	"Philadelphia Eagles":   "PHI",
	"Pittsburgh Steelers":   "PIT",
	"San Francisco 49ers":   "SF",
	"Seattle Seahawks":      "SEA",
	"Tampa Bay Buccaneers":  "TB",
	"Tennessee Titans":      "TEN",
	"Washington Commanders": "WAS",
}

// NormalizeTeamName maps full franchise names to nflverse abbreviations
func (m *Module) NormalizeTeamName(name string) string {
	name = strings.TrimSpace(name)
	if abbr, ok := abbreviations[name]; ok {
		return abbr
	}
	return name
}
