package services

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"volur/types"
)

const refreshTimeout = 10 * time.Minute

// CachePurger drops expired response cache entries.
type CachePurger interface {
	Purge(ctx context.Context) (int64, error)
}

// RefreshService re-analyzes a watchlist on a cron schedule so that the result
// store stays current.
type RefreshService struct {
	valuation *ValuationService
	source    string
	watchlist []string
	params    types.DCFParams
	weights   types.ScoringWeights
	purger    CachePurger
	scheduler *cron.Cron
}

func NewRefreshService(valuation *ValuationService, source string, watchlist []string, params types.DCFParams, weights types.ScoringWeights) *RefreshService {
	return &RefreshService{
		valuation: valuation,
		source:    source,
		watchlist: watchlist,
		params:    params,
		weights:   weights,
		scheduler: cron.New(),
	}
}

// SetCachePurger makes every run drop expired cache entries before analyzing.
func (r *RefreshService) SetCachePurger(purger CachePurger) {
	r.purger = purger
}

// Start registers the refresh job with a standard five field cron schedule and starts
// the scheduler. Nothing is scheduled without a watchlist or a cache to purge.
func (r *RefreshService) Start(schedule string) error {
	if len(r.watchlist) == 0 && r.purger == nil {
		zap.L().Info("Watchlist is empty, refresh disabled")
		return nil
	}
	if _, err := r.scheduler.AddFunc(schedule, func() { r.Run(context.Background()) }); err != nil {
		return err
	}
	r.scheduler.Start()
	zap.L().Info("Watchlist refresh scheduled",
		zap.String("schedule", schedule),
		zap.Strings("watchlist", r.watchlist))
	return nil
}

// Stop stops the scheduler and waits for a running refresh to finish.
func (r *RefreshService) Stop() {
	<-r.scheduler.Stop().Done()
}

// Run analyzes the watchlist once and returns the batch results.
func (r *RefreshService) Run(ctx context.Context) []BatchResult {
	ctx, cancel := context.WithTimeout(ctx, refreshTimeout)
	defer cancel()

	if r.purger != nil {
		if removed, err := r.purger.Purge(ctx); err != nil {
			zap.L().Warn("Failed to purge expired cache entries", zap.Error(err))
		} else {
			zap.L().Info("Purged expired cache entries", zap.Int64("removed", removed))
		}
	}
	if len(r.watchlist) == 0 {
		return nil
	}

	zap.L().Info("Refreshing watchlist", zap.Int("tickers", len(r.watchlist)))
	results, err := r.valuation.AnalyzeBatch(ctx, r.source, r.watchlist, r.params, r.weights)
	if err != nil {
		zap.L().Error("Watchlist refresh failed", zap.String("source", r.source), zap.Error(err))
		return nil
	}
	if failed := FailedTickers(results); len(failed) > 0 {
		zap.L().Warn("Some watchlist tickers failed", zap.Strings("tickers", failed))
	}
	return results
}
