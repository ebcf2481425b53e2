package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"volur/types"
)

func newTestDiskCache(t *testing.T) *DiskCache {
	t.Helper()
	c, err := NewDiskCache(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { c.Close() })
	return c
}

func TestKey(t *testing.T) {
	assert.Equal(t, Key("yfinance", "AAPL", "quote"), Key("yfinance", "aapl", "quote"))
	assert.NotEqual(t, Key("yfinance", "AAPL", "quote"), Key("yfinance", "AAPL", "fundamentals"))
	assert.NotEqual(t, Key("yfinance", "AAPL", "quote"), Key("fmp", "AAPL", "quote"))
	assert.Len(t, Key("sec", "MSFT", "quote"), 32)
}

func TestDiskCache_RoundTrip(t *testing.T) {
	ctx := context.Background()
	c := newTestDiskCache(t)

	quote := types.Quote{
		Ticker:            "AAPL",
		Price:             types.Some(189.5),
		SharesOutstanding: types.None[float64](),
	}
	require.NoError(t, c.Set(ctx, "k", quote, time.Hour))

	var cached types.Quote
	require.NoError(t, c.Get(ctx, "k", &cached))
	assert.Equal(t, quote, cached)
}

func TestDiskCache_Miss(t *testing.T) {
	c := newTestDiskCache(t)

	var cached types.Quote
	assert.ErrorIs(t, c.Get(context.Background(), "missing", &cached), ErrMiss)
}

func TestDiskCache_Expiry(t *testing.T) {
	ctx := context.Background()
	c := newTestDiskCache(t)
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }

	require.NoError(t, c.Set(ctx, "k", types.Quote{Ticker: "AAPL"}, time.Minute))

	var cached types.Quote
	require.NoError(t, c.Get(ctx, "k", &cached))

	now = now.Add(2 * time.Minute)
	assert.ErrorIs(t, c.Get(ctx, "k", &cached), ErrMiss)

	// the expired row is gone, not just hidden
	now = now.Add(-2 * time.Minute)
	assert.ErrorIs(t, c.Get(ctx, "k", &cached), ErrMiss)
}

func TestDiskCache_Overwrite(t *testing.T) {
	ctx := context.Background()
	c := newTestDiskCache(t)

	require.NoError(t, c.Set(ctx, "k", types.Quote{Ticker: "OLD"}, time.Hour))
	require.NoError(t, c.Set(ctx, "k", types.Quote{Ticker: "NEW"}, time.Hour))

	var cached types.Quote
	require.NoError(t, c.Get(ctx, "k", &cached))
	assert.Equal(t, "NEW", cached.Ticker)
}

func TestDiskCache_ClearAndPurge(t *testing.T) {
	ctx := context.Background()
	c := newTestDiskCache(t)
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }

	require.NoError(t, c.Set(ctx, "short", types.Quote{}, time.Minute))
	require.NoError(t, c.Set(ctx, "long", types.Quote{}, time.Hour))

	now = now.Add(30 * time.Minute)
	purged, err := c.Purge(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, purged)

	var cached types.Quote
	require.NoError(t, c.Get(ctx, "long", &cached))

	require.NoError(t, c.Clear(ctx))
	assert.ErrorIs(t, c.Get(ctx, "long", &cached), ErrMiss)
}
