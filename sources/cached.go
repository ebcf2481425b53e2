package sources

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"volur/cache"
	"volur/types"
)

const (
	endpointQuote        = "quote"
	endpointFundamentals = "fundamentals"
)

// CachedSource serves quotes and fundamentals from a cache in front of another
// source. Cache failures fall back to the live source.
type CachedSource struct {
	source DataSource
	cache  cache.Cache
	ttl    time.Duration
}

// Cached wraps src. The wrapper keeps the name of the wrapped source.
func Cached(src DataSource, c cache.Cache, ttl time.Duration) *CachedSource {
	return &CachedSource{source: src, cache: c, ttl: ttl}
}

func (s *CachedSource) Name() string { return s.source.Name() }

func (s *CachedSource) GetQuote(ctx context.Context, ticker string) types.Quote {
	ticker = normalizeTicker(ticker)
	key := cache.Key(s.Name(), ticker, endpointQuote)

	var quote types.Quote
	if s.lookup(ctx, key, &quote) {
		return quote
	}
	quote = s.source.GetQuote(ctx, ticker)
	// An empty quote is a failed fetch; caching it would pin the failure.
	if quote.Price.IsKnown() || quote.SharesOutstanding.IsKnown() {
		s.store(ctx, key, quote)
	}
	return quote
}

func (s *CachedSource) GetFundamentals(ctx context.Context, ticker string) types.Fundamentals {
	ticker = normalizeTicker(ticker)
	key := cache.Key(s.Name(), ticker, endpointFundamentals)

	var fundamentals types.Fundamentals
	if s.lookup(ctx, key, &fundamentals) {
		return fundamentals
	}
	fundamentals = s.source.GetFundamentals(ctx, ticker)
	if hasAnyFundamental(fundamentals) {
		s.store(ctx, key, fundamentals)
	}
	return fundamentals
}

func (s *CachedSource) lookup(ctx context.Context, key string, dst interface{}) bool {
	err := s.cache.Get(ctx, key, dst)
	if err == nil {
		return true
	}
	if !errors.Is(err, cache.ErrMiss) {
		zap.L().Warn("Cache read failed", zap.String("source", s.Name()), zap.Error(err))
	}
	return false
}

func (s *CachedSource) store(ctx context.Context, key string, value interface{}) {
	if err := s.cache.Set(ctx, key, value, s.ttl); err != nil {
		zap.L().Warn("Cache write failed", zap.String("source", s.Name()), zap.Error(err))
	}
}

func hasAnyFundamental(f types.Fundamentals) bool {
	for _, v := range []types.Float{f.TrailingPE, f.PriceToBook, f.ROE, f.ROA, f.DebtToEquity, f.FreeCashFlow, f.Revenue, f.OperatingMargin} {
		if v.IsKnown() {
			return true
		}
	}
	return f.Name.IsKnown() || f.Sector.IsKnown()
}
