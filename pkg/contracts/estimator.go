package contracts

import "github.com/XavierBriggs/Augur/pkg/models"

// ProbabilityEstimator produces an independent probability (percent) for an
// outcome, typically from historical results. ok is false when no estimate
// can be made and the implied probability is used alone.
type ProbabilityEstimator interface {
	EstimateProbability(event models.Event, marketKey string, outcome models.Outcome) (probability float64, ok bool)
}
