package store

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"volur/types"
)

func valuation(ticker, source, interpretation string) types.AnalyzedValuation {
	return types.AnalyzedValuation{
		ValuationResult: types.ValuationResult{Ticker: ticker, Interpretation: interpretation},
		Source:          source,
	}
}

func TestMemoryValuationStore_SaveAndGet(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryValuationStore()

	require.NoError(t, s.Save(ctx, valuation("AAPL", "yfinance", "Fair Value")))
	require.NoError(t, s.Save(ctx, valuation("AAPL", "yfinance", "Good Value")))

	got, err := s.Get(ctx, "AAPL", "yfinance")
	require.NoError(t, err)
	assert.Equal(t, "Good Value", got.Interpretation)

	_, err = s.Get(ctx, "AAPL", "fmp")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryValuationStore_ListPages(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryValuationStore()
	for i := 0; i < 15; i++ {
		require.NoError(t, s.Save(ctx, valuation(fmt.Sprintf("T%02d", i), "fmp", "")))
	}

	first, err := s.List(ctx, 1, "")
	require.NoError(t, err)
	require.Len(t, first, PageSize)
	assert.Equal(t, "T00", first[0].Ticker)

	second, err := s.List(ctx, 2, "")
	require.NoError(t, err)
	require.Len(t, second, 5)
	assert.Equal(t, "T14", second[4].Ticker)

	third, err := s.List(ctx, 3, "")
	require.NoError(t, err)
	assert.Empty(t, third)
}

func TestMemoryValuationStore_ListFiltersByInterpretation(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryValuationStore()
	require.NoError(t, s.Save(ctx, valuation("AAPL", "fmp", "Fair Value")))
	require.NoError(t, s.Save(ctx, valuation("MSFT", "fmp", "Good Value")))

	good, err := s.List(ctx, 1, "Good Value")
	require.NoError(t, err)
	require.Len(t, good, 1)
	assert.Equal(t, "MSFT", good[0].Ticker)
}
