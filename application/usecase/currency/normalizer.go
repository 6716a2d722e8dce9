package currency

import (
	"context"
	"math"
	"strings"

	"github.com/Subrata270/studio-sub001/application/port/outbound"
	apperr "github.com/Subrata270/studio-sub001/domain/error"
)

// Normalized is an amount converted once at request creation
type Normalized struct {
	Cost             float64
	OriginalCurrency string
	OriginalAmount   float64
}

// Normalize converts amount in code to the canonical currency, rounded to
// two decimals. The canonical currency always converts at 1.
func Normalize(amount float64, code string, rates map[string]float64, canonical string) (float64, error) {
	if math.IsNaN(amount) || math.IsInf(amount, 0) || amount <= 0 {
		return 0, apperr.Validation("amount", "must be a positive number")
	}
	code = NormalizeCode(code)
	if code == "" {
		return 0, apperr.Validation("currency", "is required")
	}
	if code == NormalizeCode(canonical) {
		return round2(amount), nil
	}
	rate, ok := rates[code]
	if !ok || rate <= 0 {
		return 0, apperr.UnknownCurrency(code)
	}
	return round2(amount * rate), nil
}

// NormalizeCode upper-cases and trims an ISO code
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// Normalizer converts request amounts using the configured rate source
type Normalizer struct {
	rates     outbound.RateProvider
	canonical string
}

func NewNormalizer(rates outbound.RateProvider, canonical string) *Normalizer {
	return &Normalizer{rates: rates, canonical: NormalizeCode(canonical)}
}

// Canonical returns the currency every Cost is expressed in
func (n *Normalizer) Canonical() string {
	return n.canonical
}

func (n *Normalizer) Normalize(ctx context.Context, amount float64, code string) (Normalized, error) {
	code = NormalizeCode(code)
	var rates map[string]float64
	if code != n.canonical {
		var err error
		rates, err = n.rates.Rates(ctx)
		if err != nil {
			return Normalized{}, apperr.Internal("load currency rates", err)
		}
	}
	cost, err := Normalize(amount, code, rates, n.canonical)
	if err != nil {
		return Normalized{}, err
	}
	return Normalized{
		Cost:             cost,
		OriginalCurrency: code,
		OriginalAmount:   amount,
	}, nil
}
