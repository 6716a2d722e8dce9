package redisstore

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRateHash(t *testing.T) {
	rates, err := ParseRateHash(map[string]string{"usd": " 83 ", "EUR": "90.5"})
	require.NoError(t, err)
	assert.Equal(t, map[string]float64{"USD": 83, "EUR": 90.5}, rates)

	_, err = ParseRateHash(map[string]string{"USD": "abc"})
	assert.Error(t, err)

	_, err = ParseRateHash(map[string]string{"USD": "0"})
	assert.Error(t, err)

	rates, err = ParseRateHash(map[string]string{})
	require.NoError(t, err)
	assert.Empty(t, rates)
}
