package currency

import (
	"context"
	"sync"
	"time"

	"github.com/Subrata270/studio-sub001/application/port/outbound"
)

// CachedRateProvider keeps the last successful rate table for ttl. A failed
// refresh falls back to the stale table when one exists.
type CachedRateProvider struct {
	next outbound.RateProvider
	ttl  time.Duration
	now  func() time.Time

	mu        sync.Mutex
	rates     map[string]float64
	fetchedAt time.Time
}

func NewCachedRateProvider(next outbound.RateProvider, ttl time.Duration) *CachedRateProvider {
	return &CachedRateProvider{next: next, ttl: ttl, now: time.Now}
}

func (c *CachedRateProvider) Rates(ctx context.Context) (map[string]float64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.rates != nil && c.now().Sub(c.fetchedAt) < c.ttl {
		return c.rates, nil
	}

	rates, err := c.next.Rates(ctx)
	if err != nil {
		if c.rates != nil {
			return c.rates, nil
		}
		return nil, err
	}
	c.rates = copyRates(rates)
	c.fetchedAt = c.now()
	return c.rates, nil
}

// Invalidate drops the cached table so the next call refetches
func (c *CachedRateProvider) Invalidate() {
	c.mu.Lock()
	c.rates = nil
	c.mu.Unlock()
}

// StaticRateProvider serves a fixed table, typically from configuration
type StaticRateProvider struct {
	rates map[string]float64
}

func NewStaticRateProvider(rates map[string]float64) *StaticRateProvider {
	normalized := make(map[string]float64, len(rates))
	for code, rate := range rates {
		normalized[NormalizeCode(code)] = rate
	}
	return &StaticRateProvider{rates: normalized}
}

func (p *StaticRateProvider) Rates(ctx context.Context) (map[string]float64, error) {
	return copyRates(p.rates), nil
}

func copyRates(in map[string]float64) map[string]float64 {
	out := make(map[string]float64, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
