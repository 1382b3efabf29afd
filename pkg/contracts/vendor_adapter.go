package contracts

import (
	"context"

	"github.com/XavierBriggs/Augur/pkg/models"
)

// VendorAdapter defines the interface for fetching odds from external vendors
type VendorAdapter interface {
	// FetchOdds retrieves current odds for one sport. Errors are kinded so the
	// caller can decide to log and continue with an empty result.
	FetchOdds(ctx context.Context, opts *models.FetchOddsOptions) (*models.FetchResult, error)

	// SupportsMarket checks if this adapter supports a given market
	SupportsMarket(market string) bool

	// GetRateLimits returns current rate limit information
	GetRateLimits() *models.RateLimits
}
