package outbound

import (
	"context"
)

// RateProvider returns conversion rates as units of the canonical currency
// per one unit of the keyed currency code.
type RateProvider interface {
	Rates(ctx context.Context) (map[string]float64, error)
}
