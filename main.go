package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
	sentrygin "github.com/getsentry/sentry-go/gin"
	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"

	"volur/cache"
	"volur/clients/http_client"
	kafka_client "volur/clients/kafka"
	mongo_client "volur/clients/mongo"
	rabbitmq_client "volur/clients/rabbitmq"
	"volur/config"
	"volur/controllers"
	"volur/events"
	"volur/middleware"
	"volur/routes"
	"volur/services"
	"volur/store"
)

// GracefulShutdown stops the server on SIGINT/SIGTERM, then runs cleanup. The returned
// channel is closed once everything has been released.
func GracefulShutdown(server *http.Server, cleanup func()) <-chan struct{} {
	done := make(chan struct{})
	stopper := make(chan os.Signal, 1)
	// Listen for interrupt and SIGTERM signals
	signal.Notify(stopper, os.Interrupt, syscall.SIGTERM)

	go func() {
		defer close(done)
		<-stopper
		zap.L().Info("Shutting down gracefully...")

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := server.Shutdown(ctx); err != nil {
			zap.L().Error("Server shutdown failed", zap.Error(err))
		}
		cleanup()
		zap.L().Info("Server exited gracefully")
	}()
	return done
}

func setupLogger(level string) {
	zapConfig := zap.NewProductionConfig()
	if atomicLevel, err := zap.ParseAtomicLevel(level); err == nil {
		zapConfig.Level = atomicLevel
	}
	logger, err := zapConfig.Build()
	if err != nil {
		log.Fatalf("Error building logger: %v", err)
	}
	zap.ReplaceGlobals(logger)
}

func setupSentry(settings *config.Settings) {
	if err := sentry.Init(sentry.ClientOptions{
		Dsn:              settings.SentryDSN,
		Environment:      settings.Environment,
		EnableTracing:    true,
		TracesSampleRate: settings.SentrySampleRate,
	}); err != nil {
		zap.L().Error("Sentry initialization failed: ", zap.Any("error", err.Error()))
	}
}

// setupSinks forwards bus events to Kafka and RabbitMQ when they are configured.
func setupSinks(ctx context.Context, settings *config.Settings, bus *events.Bus) func() {
	var closers []func()

	if settings.KafkaBootstrapServers != "" {
		producer, err := kafka_client.NewProducer(ctx, kafka_client.Config{
			BootstrapServers:  settings.KafkaBootstrapServers,
			Topic:             settings.KafkaTopic,
			NumPartitions:     settings.KafkaTopicPartitions,
			ReplicationFactor: settings.KafkaTopicReplFactor,
		})
		if err != nil {
			zap.L().Error("Kafka is unavailable, events are not forwarded", zap.Error(err))
		} else {
			bus.AttachSink(producer)
			closers = append(closers, func() { producer.Close(5 * time.Second) })
		}
	}

	if settings.RabbitMQServer != "" {
		publisher, err := rabbitmq_client.NewPublisher(rabbitmq_client.Config{
			Server: settings.RabbitMQServer,
			Port:   settings.RabbitMQPort,
			User:   settings.RabbitMQUser,
			Pass:   settings.RabbitMQPass,
			Queue:  settings.RabbitMQQueue,
		})
		if err != nil {
			zap.L().Error("RabbitMQ is unavailable, events are not forwarded", zap.Error(err))
		} else {
			bus.AttachSink(publisher)
			closers = append(closers, publisher.Close)
		}
	}

	return func() {
		for _, closeSink := range closers {
			closeSink()
		}
	}
}

func main() {
	settings, err := config.Load()
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}
	setupLogger(settings.LogLevel)
	defer zap.L().Sync()

	setupSentry(settings)
	defer sentry.Flush(2 * time.Second)

	http_client.SetTimeout(settings.HTTPTimeout)
	ctx := context.Background()

	var (
		mongoClient    *mongo.Client
		db             *mongo.Database
		valuationStore store.ValuationStore = store.NewMemoryValuationStore()
	)
	if settings.MongoURI != "" {
		mongoClient, err = mongo_client.Connect(ctx, settings.MongoURI)
		if err != nil {
			zap.L().Fatal("Error connecting to MongoDB", zap.Error(err))
		}
		db = mongoClient.Database(settings.Database)
		valuationStore, err = store.NewMongoValuationStore(ctx, db)
		if err != nil {
			zap.L().Fatal("Error preparing valuation store", zap.Error(err))
		}
	}

	var responseCache cache.Cache
	responseCache, err = services.NewCache(ctx, settings, db)
	if err != nil {
		zap.L().Fatal("Error opening cache", zap.String("backend", settings.CacheBackend), zap.Error(err))
	}

	bus := events.NewBus(events.DefaultHistorySize)
	closeSinks := setupSinks(ctx, settings, bus)

	registry := services.NewSourceRegistry(settings, responseCache)
	zap.L().Info("Registered data sources", zap.Strings("sources", registry.List()))
	valuationService := services.NewValuationService(registry, valuationStore, bus, settings.BatchConcurrency)
	valuationService.SetScoringScales(settings.ScoringScales())

	refresh := services.NewRefreshService(valuationService, settings.DefaultSource, settings.Watchlist, settings.DCFParams(), settings.ScoringWeights())
	if disk, ok := responseCache.(*cache.DiskCache); ok {
		refresh.SetCachePurger(disk)
	}
	if err := refresh.Start(settings.RefreshSchedule); err != nil {
		zap.L().Fatal("Invalid REFRESH_SCHEDULE", zap.String("schedule", settings.RefreshSchedule), zap.Error(err))
	}

	router := gin.New()
	router.Use(middleware.RecoveryMiddleware())
	router.Use(middleware.RequestLogger())
	router.Use(sentrygin.New(sentrygin.Options{}))
	router.Use(middleware.CORSMiddleware())

	routes.Routes(router,
		controllers.NewValuationController(valuationService, settings.DefaultSource, settings.DCFParams(), settings.ScoringWeights()),
		controllers.NewCacheController(responseCache, bus))

	// Create a server instance using gin engine as handler
	server := &http.Server{
		Addr:    ":" + settings.Port,
		Handler: router,
	}

	done := GracefulShutdown(server, func() {
		refresh.Stop()
		closeSinks()
		if responseCache != nil {
			if err := responseCache.Close(); err != nil {
				zap.L().Error("Error closing cache", zap.Error(err))
			}
		}
		if mongoClient != nil {
			if err := mongoClient.Disconnect(context.Background()); err != nil {
				zap.L().Error("Error disconnecting from MongoDB", zap.Error(err))
			}
		}
	})

	zap.L().Info("Starting server", zap.String("port", settings.Port))
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatalf("Error starting server: %v", err)
	}
	<-done
}
