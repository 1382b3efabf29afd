// Package evaluator turns raw odds into accepted or rejected candidates.
package evaluator

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/XavierBriggs/Augur/internal/dedup"
	"github.com/XavierBriggs/Augur/pkg/contracts"
	"github.com/XavierBriggs/Augur/pkg/models"
)

// Stats counts what happened to the input of one Evaluate call
type Stats struct {
	Events        int
	InWindow      int
	Evaluated     int // markets that produced a candidate
	Accepted      int
	Rejected      int
	Duplicates    int
	InvalidPrices int
	StoreErrors   int
}

// Evaluator selects the best outcome of every market, scores it and filters
// it through the dedup store. It is not safe for concurrent use with the
// same store unless the store itself is.
type Evaluator struct {
	store  dedup.Store
	now    func() time.Time
	logger zerolog.Logger
}

// New creates an evaluator backed by store
func New(store dedup.Store) *Evaluator {
	return &Evaluator{
		store:  store,
		now:    time.Now,
		logger: log.With().Str("component", "evaluator").Logger(),
	}
}

// WithClock overrides the time source (for testing)
func (e *Evaluator) WithClock(now func() time.Time) *Evaluator {
	e.now = now
	return e
}

// Evaluate walks events in input order and returns the candidates that were
// not seen before, accepted and rejected alike. est may be nil.
func (e *Evaluator) Evaluate(
	ctx context.Context,
	sportKey string,
	thresholds models.Thresholds,
	events []models.Event,
	est contracts.ProbabilityEstimator,
) ([]models.Candidate, Stats) {
	now := e.now().UTC()
	stats := Stats{Events: len(events)}
	var out []models.Candidate

	for _, event := range events {
		if !event.InWindow(now, thresholds.Horizon) {
			continue
		}
		stats.InWindow++

		for _, book := range event.Bookmakers {
			for _, market := range book.Markets {
				if len(market.Outcomes) < 2 {
					continue
				}

				best, invalid, ok := bestOutcome(market.Outcomes)
				stats.InvalidPrices += invalid
				if !ok {
					continue
				}
				stats.Evaluated++

				c := score(event, book, market.Key, best, thresholds, est)
				c.SportKey = sportKey
				c.EvaluatedAt = now

				id := c.Identity()
				seen, err := e.store.Contains(ctx, id)
				if err != nil {
					stats.StoreErrors++
					e.logger.Error().Err(err).Str("identity", id).Msg("dedup lookup failed, skipping candidate")
					continue
				}
				if seen {
					stats.Duplicates++
					continue
				}
				if err := e.store.Add(ctx, id); err != nil {
					stats.StoreErrors++
					e.logger.Error().Err(err).Str("identity", id).Msg("dedup add failed, skipping candidate")
					continue
				}

				if c.Accepted() {
					stats.Accepted++
				} else {
					stats.Rejected++
				}
				out = append(out, c)
			}
		}
	}

	e.logger.Debug().
		Str("sport", sportKey).
		Int("events", stats.Events).
		Int("in_window", stats.InWindow).
		Int("accepted", stats.Accepted).
		Int("rejected", stats.Rejected).
		Int("duplicates", stats.Duplicates).
		Msg("evaluation complete")

	return out, stats
}

// bestOutcome returns the lowest-priced valid outcome; the first one wins
// ties. invalid counts outcomes priced at or below 1.0.
func bestOutcome(outcomes []models.Outcome) (best models.Outcome, invalid int, ok bool) {
	for _, o := range outcomes {
		if !o.Valid() {
			invalid++
			continue
		}
		if !ok || o.Price < best.Price {
			best = o
			ok = true
		}
	}
	return best, invalid, ok
}

// score computes the blended probability and the decision for one outcome
func score(
	event models.Event,
	book models.Bookmaker,
	marketKey string,
	o models.Outcome,
	t models.Thresholds,
	est contracts.ProbabilityEstimator,
) models.Candidate {
	implied := o.ImpliedProbability()

	c := models.Candidate{
		SportTitle:         event.SportTitle,
		EventID:            event.EventID,
		HomeTeam:           event.HomeTeam,
		AwayTeam:           event.AwayTeam,
		CommenceTime:       event.CommenceTime,
		Bookmaker:          book.Title,
		MarketKey:          marketKey,
		OutcomeName:        o.Name,
		Point:              o.Point,
		Price:              o.Price,
		ImpliedProbability: implied,
		Probability:        implied,
	}
	if c.Bookmaker == "" {
		c.Bookmaker = book.Key
	}

	if est != nil {
		if h, ok := est.EstimateProbability(event, marketKey, o); ok {
			hist := h
			c.HistoricalProbability = &hist
			c.Probability = Blend(implied, h, t.ImpliedWeight)
		}
	}
	c.Probability = clamp(c.Probability)
	c.Edge = c.Probability - implied

	if c.Probability < t.MinProbability {
		c.Reasons = append(c.Reasons, fmt.Sprintf("probability %.1f%% below minimum %.1f%%", c.Probability, t.MinProbability))
	}
	if o.Price < t.MinPrice {
		c.Reasons = append(c.Reasons, fmt.Sprintf("price %.2f below minimum %.2f", o.Price, t.MinPrice))
	}

	if len(c.Reasons) == 0 {
		c.Decision = models.DecisionAccepted
	} else {
		c.Decision = models.DecisionRejected
	}

	return c
}

// Blend mixes the implied and historical probabilities with weight w on the
// implied side, clamped to [0,100]
func Blend(implied, historical, w float64) float64 {
	return clamp(implied*w + historical*(1-w))
}

func clamp(p float64) float64 {
	switch {
	case p < 0:
		return 0
	case p > 100:
		return 100
	}
	return p
}
