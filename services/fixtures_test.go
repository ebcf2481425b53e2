package services

import (
	"context"
	"sync/atomic"

	"volur/sources"
	"volur/types"
)

// fixedSource returns the same figures for every ticker. With the default test
// parameters a ticker values at 100 per share and scores 73.
type fixedSource struct {
	calls atomic.Int32
}

func (s *fixedSource) Name() string { return "fixed" }

func (s *fixedSource) GetQuote(_ context.Context, ticker string) types.Quote {
	s.calls.Add(1)
	return types.Quote{
		Ticker:            ticker,
		Price:             types.Some(50.0),
		Currency:          types.Some("USD"),
		SharesOutstanding: types.Some(10.0),
	}
}

func (s *fixedSource) GetFundamentals(_ context.Context, ticker string) types.Fundamentals {
	s.calls.Add(1)
	return types.Fundamentals{
		Ticker:       ticker,
		TrailingPE:   types.Some(10.0),
		PriceToBook:  types.Some(1.0),
		ROE:          types.Some(0.15),
		DebtToEquity: types.Some(0.3),
		FreeCashFlow: types.Some(100.0),
	}
}

func testParams() types.DCFParams {
	return types.DCFParams{DiscountRate: 0.10, LongTermGrowth: 0.0, Years: 10}
}

func newTestRegistry(src sources.DataSource) *sources.Registry {
	registry := sources.NewRegistry()
	registry.Register(src)
	return registry
}
