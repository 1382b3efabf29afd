package main

import (
	"github.com/rs/zerolog/log"

	"github.com/XavierBriggs/Augur/internal/config"
	"github.com/XavierBriggs/Augur/internal/registry"
	"github.com/XavierBriggs/Augur/sports/americanfootball_nfl"
	"github.com/XavierBriggs/Augur/sports/basketball_nba"
	"github.com/XavierBriggs/Augur/sports/soccer"
)

// buildRegistry registers a module for every configured sport key, applying
// the global region and threshold overrides. Unknown keys are skipped.
func buildRegistry(cfg *config.Config) *registry.SportRegistry {
	reg := registry.NewSportRegistry()

	for _, key := range cfg.Sports {
		var err error
		switch {
		case soccer.IsSoccer(key):
			c := soccer.DefaultConfig(key)
			c.Thresholds = cfg.Overrides.Apply(c.Thresholds)
			if len(cfg.OddsRegions) > 0 {
				c.Regions = cfg.OddsRegions
			}
			err = reg.Register(soccer.NewModule(c))

		case key == basketball_nba.SportKey:
			c := basketball_nba.DefaultConfig()
			c.Thresholds = cfg.Overrides.Apply(c.Thresholds)
			if len(cfg.OddsRegions) > 0 {
				c.Regions = cfg.OddsRegions
			}
			err = reg.Register(basketball_nba.NewModule(c))

		case key == americanfootball_nfl.SportKey:
			c := americanfootball_nfl.DefaultConfig()
			c.Thresholds = cfg.Overrides.Apply(c.Thresholds)
			if len(cfg.OddsRegions) > 0 {
				c.Regions = cfg.OddsRegions
			}
			err = reg.Register(americanfootball_nfl.NewModule(c))

		default:
			log.Warn().Str("sport", key).Msg("no module for sport, skipping")
			continue
		}

		if err != nil {
			log.Warn().Err(err).Str("sport", key).Msg("failed to register sport")
		}
	}

	return reg
}
