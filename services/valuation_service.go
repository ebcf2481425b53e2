package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"volur/events"
	"volur/sources"
	"volur/store"
	"volur/types"
	"volur/valuation"
)

const defaultConcurrency = 4

// BatchResult is the outcome for one ticker of a batch. Exactly one of Valuation and
// Error is set.
type BatchResult struct {
	Ticker    string                   `json:"ticker"`
	Valuation *types.AnalyzedValuation `json:"valuation,omitempty"`
	Error     string                   `json:"error,omitempty"`
}

// ValuationService runs the valuation engine against a named data source. The store
// and the bus are optional.
type ValuationService struct {
	registry    *sources.Registry
	store       store.ValuationStore
	bus         *events.Bus
	concurrency int
	scales      types.ScoringScales
	now         func() time.Time
}

func NewValuationService(registry *sources.Registry, valuationStore store.ValuationStore, bus *events.Bus, concurrency int) *ValuationService {
	if concurrency < 1 {
		concurrency = defaultConcurrency
	}
	return &ValuationService{
		registry:    registry,
		store:       valuationStore,
		bus:         bus,
		concurrency: concurrency,
		scales:      types.DefaultScoringScales(),
		now:         time.Now,
	}
}

// SetScoringScales replaces the value score calibration used by later analyses.
func (s *ValuationService) SetScoringScales(scales types.ScoringScales) {
	s.scales = scales
}

func (s *ValuationService) Sources() []string {
	return s.registry.List()
}

// Store returns the configured result store, nil when results are not persisted.
func (s *ValuationService) Store() store.ValuationStore {
	return s.store
}

// Analyze values one ticker with the named source.
func (s *ValuationService) Analyze(ctx context.Context, sourceName, ticker string, params types.DCFParams, weights types.ScoringWeights) (types.AnalyzedValuation, error) {
	src, err := s.registry.Get(sourceName)
	if err != nil {
		return types.AnalyzedValuation{}, err
	}
	return s.analyze(ctx, src, ticker, params, weights)
}

// AnalyzeBatch values every ticker concurrently. Results keep the order of tickers and
// per ticker failures are reported in BatchResult.Error; the returned error is only set
// for an unknown source or invalid parameters.
func (s *ValuationService) AnalyzeBatch(ctx context.Context, sourceName string, tickers []string, params types.DCFParams, weights types.ScoringWeights) ([]BatchResult, error) {
	src, err := s.registry.Get(sourceName)
	if err != nil {
		return nil, err
	}
	if err := params.Validate(); err != nil {
		return nil, err
	}

	results := make([]BatchResult, len(tickers))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)
	for i, ticker := range tickers {
		g.Go(func() error {
			results[i].Ticker = strings.ToUpper(strings.TrimSpace(ticker))
			analyzed, err := s.analyze(gctx, src, ticker, params, weights)
			if err != nil {
				results[i].Error = err.Error()
				return nil
			}
			results[i].Valuation = &analyzed
			return nil
		})
	}
	_ = g.Wait()

	zap.L().Info("Batch analysis completed",
		zap.String("source", src.Name()),
		zap.Int("tickers", len(tickers)),
		zap.Int("failed", len(FailedTickers(results))))
	return results, nil
}

func (s *ValuationService) analyze(ctx context.Context, src sources.DataSource, ticker string, params types.DCFParams, weights types.ScoringWeights) (types.AnalyzedValuation, error) {
	ticker = strings.ToUpper(strings.TrimSpace(ticker))
	if ticker == "" {
		return types.AnalyzedValuation{}, fmt.Errorf("%w: ticker is required", types.ErrInvalidParams)
	}

	s.publish(types.EventDataFetchRequested, ticker, src.Name(), nil)
	result, err := valuation.AnalyzeStockWithScales(ctx, src, ticker, params, weights, s.scales)
	if err == nil {
		err = ctx.Err()
	}
	if err != nil {
		zap.L().Error("Error analyzing ticker",
			zap.String("ticker", ticker),
			zap.String("source", src.Name()),
			zap.Error(err))
		s.publish(types.EventAnalysisFailed, ticker, src.Name(), map[string]interface{}{"error": err.Error()})
		return types.AnalyzedValuation{}, err
	}

	analyzed := types.AnalyzedValuation{
		ValuationResult: result,
		Source:          src.Name(),
		Params:          params,
		LastUpdated:     s.now().UTC(),
	}
	if s.store != nil {
		// persistence failures do not fail the analysis
		if err := s.store.Save(ctx, analyzed); err != nil {
			zap.L().Warn("Failed to persist valuation",
				zap.String("ticker", ticker),
				zap.String("source", src.Name()),
				zap.Error(err))
		}
	}

	s.publish(types.EventTickerAnalyzed, ticker, src.Name(), map[string]interface{}{
		"intrinsicValuePerShare": result.IntrinsicValuePerShare.Ptr(),
		"marginOfSafety":         result.MarginOfSafety.Ptr(),
		"valueScore":             result.ValueScore.Ptr(),
		"interpretation":         result.Interpretation,
	})
	return analyzed, nil
}

func (s *ValuationService) publish(eventType types.EventType, ticker, source string, data map[string]interface{}) {
	if s.bus == nil {
		return
	}
	s.bus.Publish(eventType, ticker, source, data)
}

// FailedTickers lists the tickers of results that carry an error.
func FailedTickers(results []BatchResult) []string {
	var failed []string
	for _, r := range results {
		if r.Error != "" {
			failed = append(failed, r.Ticker)
		}
	}
	return failed
}

// Valuations returns the successful results of a batch in order.
func Valuations(results []BatchResult) []types.ValuationResult {
	var out []types.ValuationResult
	for _, r := range results {
		if r.Valuation != nil {
			out = append(out, r.Valuation.ValuationResult)
		}
	}
	return out
}
