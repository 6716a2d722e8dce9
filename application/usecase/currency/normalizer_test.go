package currency

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	apperr "github.com/Subrata270/studio-sub001/domain/error"
)

type MockRateProvider struct {
	mock.Mock
}

func (m *MockRateProvider) Rates(ctx context.Context) (map[string]float64, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]float64), args.Error(1)
}

func TestNormalize(t *testing.T) {
	rates := map[string]float64{"USD": 83, "EUR": 90.123}

	tests := []struct {
		name    string
		amount  float64
		code    string
		want    float64
		wantErr error
	}{
		{"usd to inr", 100, "USD", 8300, nil},
		{"lowercase code", 100, "usd", 8300, nil},
		{"canonical is identity", 1234.567, "INR", 1234.57, nil},
		{"rounds to two decimals", 1, "EUR", 90.12, nil},
		{"unknown currency", 10, "GBP", 0, apperr.ErrUnknownCurrency},
		{"zero amount", 0, "USD", 0, apperr.ErrValidation},
		{"negative amount", -5, "USD", 0, apperr.ErrValidation},
		{"missing code", 5, " ", 0, apperr.ErrValidation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Normalize(tt.amount, tt.code, rates, "INR")
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNormalizer_KeepsOriginal(t *testing.T) {
	provider := new(MockRateProvider)
	provider.On("Rates", mock.Anything).Return(map[string]float64{"USD": 83}, nil)

	n := NewNormalizer(provider, "inr")
	got, err := n.Normalize(context.Background(), 100, "usd")

	require.NoError(t, err)
	assert.Equal(t, Normalized{Cost: 8300, OriginalCurrency: "USD", OriginalAmount: 100}, got)
	assert.Equal(t, "INR", n.Canonical())
	provider.AssertExpectations(t)
}

func TestNormalizer_CanonicalSkipsProvider(t *testing.T) {
	provider := new(MockRateProvider)

	got, err := NewNormalizer(provider, "INR").Normalize(context.Background(), 500, "INR")

	require.NoError(t, err)
	assert.Equal(t, 500.0, got.Cost)
	provider.AssertNotCalled(t, "Rates", mock.Anything)
}

func TestNormalizer_ProviderFailure(t *testing.T) {
	provider := new(MockRateProvider)
	provider.On("Rates", mock.Anything).Return(nil, errors.New("redis down"))

	_, err := NewNormalizer(provider, "INR").Normalize(context.Background(), 1, "USD")
	assert.ErrorIs(t, err, apperr.ErrInternal)
}

func TestCachedRateProvider(t *testing.T) {
	provider := new(MockRateProvider)
	provider.On("Rates", mock.Anything).Return(map[string]float64{"USD": 83}, nil).Once()
	provider.On("Rates", mock.Anything).Return(map[string]float64{"USD": 84}, nil).Once()

	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	cache := NewCachedRateProvider(provider, time.Minute)
	cache.now = func() time.Time { return now }

	rates, err := cache.Rates(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 83.0, rates["USD"])

	now = now.Add(30 * time.Second)
	rates, _ = cache.Rates(context.Background())
	assert.Equal(t, 83.0, rates["USD"], "served from cache within ttl")

	now = now.Add(time.Minute)
	rates, _ = cache.Rates(context.Background())
	assert.Equal(t, 84.0, rates["USD"], "refetched after ttl")

	provider.AssertNumberOfCalls(t, "Rates", 2)
}

func TestCachedRateProvider_StaleOnFailure(t *testing.T) {
	provider := new(MockRateProvider)
	provider.On("Rates", mock.Anything).Return(map[string]float64{"USD": 83}, nil).Once()
	provider.On("Rates", mock.Anything).Return(nil, errors.New("down"))

	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	cache := NewCachedRateProvider(provider, time.Minute)
	cache.now = func() time.Time { return now }

	_, err := cache.Rates(context.Background())
	require.NoError(t, err)

	now = now.Add(2 * time.Minute)
	rates, err := cache.Rates(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 83.0, rates["USD"])

	cache.Invalidate()
	_, err = cache.Rates(context.Background())
	assert.Error(t, err, "invalidated cache has nothing stale to serve")
}

func TestStaticRateProvider_NormalizesCodes(t *testing.T) {
	rates, err := NewStaticRateProvider(map[string]float64{"usd": 83}).Rates(context.Background())
	require.NoError(t, err)
	assert.Equal(t, map[string]float64{"USD": 83}, rates)
}
