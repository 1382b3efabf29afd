package basketball_nba

import (
	"github.com/XavierBriggs/Augur/pkg/contracts"
	"github.com/XavierBriggs/Augur/pkg/models"
)

// Module implements the SportModule interface for NBA Basketball
type Module struct {
	config *Config
}

var _ contracts.SportModule = (*Module)(nil)

// NewModule creates a new NBA sport module; nil uses DefaultConfig
func NewModule(cfg *Config) *Module {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	return &Module{config: cfg}
}

// GetSportKey returns the sport identifier
func (m *Module) GetSportKey() string {
	return m.config.SportKey
}

// GetDisplayName returns the human-readable name
func (m *Module) GetDisplayName() string {
	return m.config.DisplayName
}

// GetMarkets returns the markets to request
func (m *Module) GetMarkets() []string {
	return m.config.Markets
}

// GetRegions returns the regions to request
func (m *Module) GetRegions() []string {
	return m.config.Regions
}

// GetThresholds returns the acceptance thresholds
func (m *Module) GetThresholds() models.Thresholds {
	return m.config.Thresholds
}

// GetStatsProfile returns the historical stats profile
func (m *Module) GetStatsProfile() models.StatsProfile {
	return m.config.Stats
}
