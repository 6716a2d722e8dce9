package redisstore

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/go-redis/redis/v8"

	"github.com/Subrata270/studio-sub001/application/port/outbound"
)

// RateProvider reads the rate table from one Redis hash, field = currency
// code, value = canonical units per one unit of that currency.
type RateProvider struct {
	client *redis.Client
	key    string
}

func NewRateProvider(client *redis.Client, key string) *RateProvider {
	return &RateProvider{client: client, key: key}
}

var _ outbound.RateProvider = (*RateProvider)(nil)

func (p *RateProvider) Rates(ctx context.Context) (map[string]float64, error) {
	raw, err := p.client.HGetAll(ctx, p.key).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read rates from %s: %w", p.key, err)
	}
	return ParseRateHash(raw)
}

// ParseRateHash converts hash fields into a rate table. Invalid or
// non-positive values are rejected rather than skipped.
func ParseRateHash(raw map[string]string) (map[string]float64, error) {
	rates := make(map[string]float64, len(raw))
	for code, value := range raw {
		rate, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
		if err != nil || rate <= 0 {
			return nil, fmt.Errorf("invalid rate %q for %s", value, code)
		}
		rates[strings.ToUpper(strings.TrimSpace(code))] = rate
	}
	return rates, nil
}

// StoreRates replaces the hash contents, used by operators and seeding
func (p *RateProvider) StoreRates(ctx context.Context, rates map[string]float64) error {
	values := make(map[string]interface{}, len(rates))
	for code, rate := range rates {
		values[strings.ToUpper(code)] = strconv.FormatFloat(rate, 'f', -1, 64)
	}
	pipe := p.client.TxPipeline()
	pipe.Del(ctx, p.key)
	if len(values) > 0 {
		pipe.HSet(ctx, p.key, values)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to store rates: %w", err)
	}
	return nil
}
