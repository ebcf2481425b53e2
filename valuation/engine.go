package valuation

import (
	"context"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"volur/sources"
	"volur/types"
)

// CalculateComprehensiveValuation runs the ratio, DCF and scoring calculators over
// already fetched data. It never fails: every figure that cannot be derived is
// reported as unknown.
func CalculateComprehensiveValuation(quote types.Quote, fundamentals types.Fundamentals, params types.DCFParams, weights types.ScoringWeights) types.ValuationResult {
	return CalculateComprehensiveValuationWithScales(quote, fundamentals, params, weights, types.DefaultScoringScales())
}

// CalculateComprehensiveValuationWithScales scores with explicit calibration.
func CalculateComprehensiveValuationWithScales(quote types.Quote, fundamentals types.Fundamentals, params types.DCFParams, weights types.ScoringWeights, scales types.ScoringScales) types.ValuationResult {
	ivPerShare, ivTotal := CalculateDCFValue(quote, fundamentals, params)
	score := CalculateValueScoreWithScales(quote, fundamentals, weights, scales)

	result := types.ValuationResult{
		Ticker:                 quote.Ticker,
		IntrinsicValuePerShare: ivPerShare,
		IntrinsicValueTotal:    ivTotal,
		MarginOfSafety:         CalculateMarginOfSafety(quote.Price, ivPerShare),
		ValueScore:             score,
		FCFYield:               CalculateFCFYield(quote, fundamentals),
		PERatio:                CalculatePriceToEarnings(quote, fundamentals),
		PBRatio:                CalculatePriceToBook(quote, fundamentals),
		ROE:                    CalculateReturnOnEquity(quote, fundamentals),
		DebtToEquity:           CalculateDebtToEquity(quote, fundamentals),
		Price:                  quote.Price,
		Currency:               quote.Currency,
	}
	if result.Ticker == "" {
		result.Ticker = fundamentals.Ticker
	}
	if s, ok := score.Get(); ok {
		result.Interpretation = GetValueScoreInterpretation(s)
	}
	return result
}

// AnalyzeStock fetches the quote and the fundamentals of ticker from src and values
// them. The only error is an invalid set of DCF parameters, which is reported before
// the source is contacted.
func AnalyzeStock(ctx context.Context, src sources.DataSource, ticker string, params types.DCFParams, weights types.ScoringWeights) (types.ValuationResult, error) {
	return AnalyzeStockWithScales(ctx, src, ticker, params, weights, types.DefaultScoringScales())
}

func AnalyzeStockWithScales(ctx context.Context, src sources.DataSource, ticker string, params types.DCFParams, weights types.ScoringWeights, scales types.ScoringScales) (types.ValuationResult, error) {
	if err := params.Validate(); err != nil {
		return types.ValuationResult{}, err
	}
	ticker = strings.ToUpper(strings.TrimSpace(ticker))

	var (
		quote        types.Quote
		fundamentals types.Fundamentals
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		quote = src.GetQuote(gctx, ticker)
		return nil
	})
	g.Go(func() error {
		fundamentals = src.GetFundamentals(gctx, ticker)
		return nil
	})
	// Sources are total, the group only joins the two fetches.
	_ = g.Wait()

	if quote.Ticker == "" {
		quote.Ticker = ticker
	}
	result := CalculateComprehensiveValuationWithScales(quote, fundamentals, params, weights, scales)

	zap.L().Debug("Analyzed stock",
		zap.String("ticker", ticker),
		zap.String("source", src.Name()),
		zap.Stringer("intrinsicValuePerShare", result.IntrinsicValuePerShare),
		zap.Stringer("valueScore", result.ValueScore))
	return result, nil
}
