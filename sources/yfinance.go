package sources

import (
	"context"
	"fmt"

	"github.com/wnjoon/go-yfinance/pkg/ticker"

	"volur/types"
)

// yahooSnapshot holds the Yahoo fields the valuation uses. Zero means not reported.
type yahooSnapshot struct {
	Price             float64
	PreviousClose     float64
	MarketCap         float64
	SharesOutstanding float64
	FreeCashflow      float64
	TotalRevenue      float64
	TrailingPE        float64
	PriceToBook       float64
	ReturnOnEquity    float64
	ReturnOnAssets    float64
	DebtToEquity      float64
	OperatingMargins  float64
	Currency          string
	LongName          string
	ShortName         string
	Sector            string
	Industry          string
}

type yahooFetcher func(ctx context.Context, symbol string) (yahooSnapshot, error)

// YahooFinanceSource reads Yahoo Finance through go-yfinance.
type YahooFinanceSource struct {
	fetch yahooFetcher
}

func NewYahooFinanceSource() *YahooFinanceSource {
	return &YahooFinanceSource{fetch: fetchYahooSnapshot}
}

func (s *YahooFinanceSource) Name() string { return "yfinance" }

func fetchYahooSnapshot(ctx context.Context, symbol string) (yahooSnapshot, error) {
	var snapshot yahooSnapshot
	if err := ctx.Err(); err != nil {
		return snapshot, err
	}

	t, err := ticker.New(symbol)
	if err != nil {
		return snapshot, fmt.Errorf("failed to create ticker: %w", err)
	}
	defer t.Close()

	// Quote is the cheaper call; pre and post market prices cover closed sessions.
	if quote, err := t.Quote(); err == nil && quote != nil {
		switch {
		case quote.RegularMarketPrice > 0:
			snapshot.Price = quote.RegularMarketPrice
		case quote.PreMarketPrice > 0:
			snapshot.Price = quote.PreMarketPrice
		case quote.PostMarketPrice > 0:
			snapshot.Price = quote.PostMarketPrice
		}
	}

	info, err := t.Info()
	if err != nil {
		if snapshot.Price > 0 {
			return snapshot, nil
		}
		return snapshot, fmt.Errorf("failed to get info: %w", err)
	}
	if info == nil {
		return snapshot, nil
	}
	if snapshot.Price <= 0 {
		snapshot.Price = info.CurrentPrice
	}
	snapshot.PreviousClose = info.RegularMarketPreviousClose
	snapshot.MarketCap = float64(info.MarketCap)
	snapshot.SharesOutstanding = float64(info.SharesOutstanding)
	snapshot.FreeCashflow = float64(info.FreeCashflow)
	snapshot.TotalRevenue = float64(info.TotalRevenue)
	snapshot.TrailingPE = info.TrailingPE
	snapshot.PriceToBook = info.PriceToBook
	snapshot.ReturnOnEquity = info.ReturnOnEquity
	snapshot.ReturnOnAssets = info.ReturnOnAssets
	snapshot.DebtToEquity = info.DebtToEquity
	snapshot.OperatingMargins = info.OperatingMargins
	snapshot.Currency = info.Currency
	snapshot.LongName = info.LongName
	snapshot.ShortName = info.ShortName
	snapshot.Sector = info.Sector
	snapshot.Industry = info.Industry
	return snapshot, nil
}

func positive(f float64) types.Float {
	if f > 0 {
		return finite(f)
	}
	return types.None[float64]()
}

func nonZero(f float64) types.Float {
	if f != 0 {
		return finite(f)
	}
	return types.None[float64]()
}

// GetQuote prefers the reported share count and falls back to market cap over price.
func (s *YahooFinanceSource) GetQuote(ctx context.Context, symbol string) types.Quote {
	symbol = normalizeTicker(symbol)
	quote := types.Quote{Ticker: symbol}

	snapshot, err := s.fetch(ctx, symbol)
	if err != nil {
		reportFailure(s.Name(), symbol, "quote", err)
		return quote
	}

	price := positive(snapshot.Price)
	if !price.IsKnown() {
		price = positive(snapshot.PreviousClose)
	}
	quote.Price = price
	quote.Currency = nonEmpty(snapshot.Currency)
	quote.SharesOutstanding = positive(snapshot.SharesOutstanding)
	if !quote.SharesOutstanding.IsKnown() {
		quote.SharesOutstanding = ratio(positive(snapshot.MarketCap), price)
	}
	return quote
}

// GetFundamentals maps the info ratios. Yahoo reports debt to equity in percent.
// A zero free cash flow is indistinguishable from an unreported one and stays unknown.
func (s *YahooFinanceSource) GetFundamentals(ctx context.Context, symbol string) types.Fundamentals {
	symbol = normalizeTicker(symbol)
	fundamentals := types.Fundamentals{Ticker: symbol}

	snapshot, err := s.fetch(ctx, symbol)
	if err != nil {
		reportFailure(s.Name(), symbol, "info", err)
		return fundamentals
	}

	fundamentals.TrailingPE = nonZero(snapshot.TrailingPE)
	fundamentals.PriceToBook = nonZero(snapshot.PriceToBook)
	fundamentals.ROE = nonZero(snapshot.ReturnOnEquity)
	fundamentals.DebtToEquity = scale(nonZero(snapshot.DebtToEquity), 0.01)
	fundamentals.ROA = nonZero(snapshot.ReturnOnAssets)
	fundamentals.OperatingMargin = nonZero(snapshot.OperatingMargins)
	fundamentals.FreeCashFlow = nonZero(snapshot.FreeCashflow)
	fundamentals.Revenue = positive(snapshot.TotalRevenue)
	fundamentals.Sector = nonEmpty(snapshot.Sector)
	if !fundamentals.Sector.IsKnown() {
		fundamentals.Sector = nonEmpty(snapshot.Industry)
	}
	fundamentals.Name = nonEmpty(snapshot.LongName)
	if !fundamentals.Name.IsKnown() {
		fundamentals.Name = nonEmpty(snapshot.ShortName)
	}
	return fundamentals
}
