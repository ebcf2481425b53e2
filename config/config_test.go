package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"volur/types"
)

func TestLoad_Defaults(t *testing.T) {
	s, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "4000", s.Port)
	assert.Equal(t, 0.10, s.DiscountRate)
	assert.Equal(t, 0.02, s.LongTermGrowth)
	assert.Equal(t, 10, s.Years)
	assert.False(t, s.TerminalGrowth.IsKnown())
	assert.Equal(t, types.DefaultScoringWeights(), s.ScoringWeights())
	assert.Equal(t, types.DefaultScoringScales(), s.ScoringScales())
	assert.Equal(t, "Volur/0.1.0", s.SECUserAgent)
	assert.Equal(t, 24*time.Hour, s.CacheTTL)
	assert.Equal(t, ".volur_cache", s.CacheDir)
	assert.Equal(t, CacheBackendDisk, s.CacheBackend)
	assert.Equal(t, "yfinance", s.DefaultSource)
	assert.Empty(t, s.Watchlist)
}

func TestLoad_FromEnvironment(t *testing.T) {
	t.Setenv("DISCOUNT_RATE", "0.12")
	t.Setenv("LONG_TERM_GROWTH", "0.05")
	t.Setenv("YEARS", "15")
	t.Setenv("TERMINAL_GROWTH", "0.03")
	t.Setenv("PE_WEIGHT", "0.5")
	t.Setenv("PE_SCALE", "4")
	t.Setenv("ROE_SCALE", "50")
	t.Setenv("CACHE_BACKEND", "NONE")
	t.Setenv("WATCHLIST", "aapl, msft,,tcs ")

	s, err := Load()
	require.NoError(t, err)

	params := s.DCFParams()
	assert.Equal(t, 0.12, params.DiscountRate)
	assert.Equal(t, 0.05, params.LongTermGrowth)
	assert.Equal(t, 15, params.Years)
	assert.Equal(t, types.Some(0.03), params.TerminalGrowth)
	assert.Equal(t, 0.5, s.Weights.PE)
	assert.Equal(t, types.ScoringScales{PE: 4, PB: 20, FCFYield: 1000, ROE: 50}, s.ScoringScales())
	assert.Equal(t, CacheBackendNone, s.CacheBackend)
	assert.Equal(t, []string{"AAPL", "MSFT", "TCS"}, s.Watchlist)
}

func TestLoad_InvalidSettings(t *testing.T) {
	t.Setenv("TERMINAL_GROWTH", "0.2")
	_, err := Load()
	assert.ErrorIs(t, err, types.ErrInvalidParams)
}

func TestLoad_NonPositiveScale(t *testing.T) {
	t.Setenv("PB_SCALE", "0")
	_, err := Load()
	assert.ErrorIs(t, err, types.ErrInvalidParams)
}

func TestLoad_MongoCacheNeedsURI(t *testing.T) {
	t.Setenv("CACHE_BACKEND", "mongo")
	_, err := Load()
	assert.Error(t, err)
}

func TestValidateDCFParams(t *testing.T) {
	valid := types.DCFParams{DiscountRate: 0.10, LongTermGrowth: 0.02, Years: 10}
	assert.NoError(t, ValidateDCFParams(valid))

	withTerminal := valid
	withTerminal.TerminalGrowth = types.Some(0.0)
	assert.NoError(t, ValidateDCFParams(withTerminal))

	tests := map[string]types.DCFParams{
		"negative growth":        {DiscountRate: 0.10, LongTermGrowth: -0.01, Years: 10},
		"growth above one":       {DiscountRate: 0.10, LongTermGrowth: 1.5, Years: 10},
		"zero discount":          {DiscountRate: 0, LongTermGrowth: 0.02, Years: 10},
		"discount above one":     {DiscountRate: 1.2, LongTermGrowth: 0.02, Years: 10},
		"zero years":             {DiscountRate: 0.10, LongTermGrowth: 0.02, Years: 0},
		"terminal equals rate":   {DiscountRate: 0.10, LongTermGrowth: 0.02, Years: 10, TerminalGrowth: types.Some(0.10)},
		"negative terminal rate": {DiscountRate: 0.10, LongTermGrowth: 0.02, Years: 10, TerminalGrowth: types.Some(-0.01)},
	}
	for name, params := range tests {
		t.Run(name, func(t *testing.T) {
			assert.ErrorIs(t, ValidateDCFParams(params), types.ErrInvalidParams)
		})
	}
}
