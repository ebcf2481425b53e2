package services

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/mongo"

	"volur/cache"
	"volur/config"
	"volur/sources"
)

// NewSourceRegistry registers every source the settings allow. Key based providers are
// only available when their key is configured. When c is not nil each source is
// wrapped with the response cache.
func NewSourceRegistry(settings *config.Settings, c cache.Cache) *sources.Registry {
	registry := sources.NewRegistry()
	register := func(src sources.DataSource) {
		if c != nil {
			src = sources.Cached(src, c, settings.CacheTTL)
		}
		registry.Register(src)
	}

	register(sources.NewYahooFinanceSource())
	register(sources.NewSECSource(settings.SECUserAgent))
	register(sources.NewScreenerSource(settings.ScreenerURL))
	if settings.FMPAPIKey != "" {
		register(sources.NewFMPSource(settings.FMPAPIKey))
	}
	if settings.FinnhubAPIKey != "" {
		register(sources.NewFinnhubSource(settings.FinnhubAPIKey))
	}
	if settings.AlphaVantageAPIKey != "" {
		register(sources.NewAlphaVantageSource(settings.AlphaVantageAPIKey))
	}
	return registry
}

// NewCache opens the response cache selected by CACHE_BACKEND. It returns nil when
// caching is disabled. The mongo backend needs db.
func NewCache(ctx context.Context, settings *config.Settings, db *mongo.Database) (cache.Cache, error) {
	switch settings.CacheBackend {
	case config.CacheBackendNone:
		return nil, nil
	case config.CacheBackendMongo:
		if db == nil {
			return nil, fmt.Errorf("mongo cache backend needs a database connection")
		}
		mongoCache, err := cache.NewMongoCache(ctx, db)
		if err != nil {
			return nil, err
		}
		return mongoCache, nil
	default:
		diskCache, err := cache.NewDiskCache(settings.CacheDir)
		if err != nil {
			return nil, err
		}
		return diskCache, nil
	}
}
