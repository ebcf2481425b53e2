package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"volur/types"
)

const (
	CacheBackendDisk  = "disk"
	CacheBackendMongo = "mongo"
	CacheBackendNone  = "none"
)

// Settings holds the application configuration
type Settings struct {
	Port        string
	Environment string
	LogLevel    string

	SentryDSN        string
	SentrySampleRate float64

	// Valuation defaults
	DiscountRate   float64
	LongTermGrowth float64
	Years          int
	TerminalGrowth types.Float
	Weights        types.ScoringWeights
	Scales         types.ScoringScales

	// Data sources
	DefaultSource      string
	FMPAPIKey          string
	FinnhubAPIKey      string
	AlphaVantageAPIKey string
	SECUserAgent       string
	ScreenerURL        string
	HTTPTimeout        time.Duration

	// Caching
	CacheBackend string
	CacheDir     string
	CacheTTL     time.Duration

	MongoURI string
	Database string

	KafkaBootstrapServers string
	KafkaTopic            string
	KafkaTopicPartitions  int
	KafkaTopicReplFactor  int

	RabbitMQServer string
	RabbitMQPort   string
	RabbitMQUser   string
	RabbitMQPass   string
	RabbitMQQueue  string

	Watchlist        []string
	RefreshSchedule  string
	BatchConcurrency int
}

// Load reads a .env file if present and maps the environment onto Settings
func Load() (*Settings, error) {
	_ = godotenv.Load()

	s := &Settings{
		Port:        getEnv("PORT", "4000"),
		Environment: getEnv("ENVIRONMENT", "development"),
		LogLevel:    getEnv("LOG_LEVEL", "info"),

		SentryDSN:        getEnv("SENTRY_DSN", ""),
		SentrySampleRate: getEnvAsFloat("SENTRY_SAMPLE_RATE", 1.0),

		DiscountRate:   getEnvAsFloat("DISCOUNT_RATE", 0.10),
		LongTermGrowth: getEnvAsFloat("LONG_TERM_GROWTH", 0.02),
		Years:          getEnvAsInt("YEARS", 10),
		TerminalGrowth: getEnvAsOptionalFloat("TERMINAL_GROWTH"),
		Weights: types.ScoringWeights{
			PE:       getEnvAsFloat("PE_WEIGHT", 0.3),
			PB:       getEnvAsFloat("PB_WEIGHT", 0.2),
			FCFYield: getEnvAsFloat("FCF_YIELD_WEIGHT", 0.3),
			ROE:      getEnvAsFloat("ROE_WEIGHT", 0.2),
		},
		Scales: types.ScoringScales{
			PE:       getEnvAsFloat("PE_SCALE", 2),
			PB:       getEnvAsFloat("PB_SCALE", 20),
			FCFYield: getEnvAsFloat("FCF_YIELD_SCALE", 1000),
			ROE:      getEnvAsFloat("ROE_SCALE", 100),
		},

		DefaultSource:      getEnv("DEFAULT_SOURCE", "yfinance"),
		FMPAPIKey:          getEnv("FMP_API_KEY", ""),
		FinnhubAPIKey:      getEnv("FINNHUB_API_KEY", ""),
		AlphaVantageAPIKey: getEnv("ALPHA_VANTAGE_API_KEY", ""),
		SECUserAgent:       getEnv("SEC_USER_AGENT", "Volur/0.1.0"),
		ScreenerURL:        getEnv("COMPANY_URL", "https://www.screener.in"),
		HTTPTimeout:        time.Duration(getEnvAsInt("HTTP_TIMEOUT_SECONDS", 30)) * time.Second,

		CacheBackend: strings.ToLower(getEnv("CACHE_BACKEND", CacheBackendDisk)),
		CacheDir:     getEnv("CACHE_DIR", ".volur_cache"),
		CacheTTL:     time.Duration(getEnvAsInt("CACHE_TTL_HOURS", 24)) * time.Hour,

		MongoURI: getEnv("MONGO_URI", ""),
		Database: getEnv("DATABASE", "volur"),

		KafkaBootstrapServers: getEnv("KAFKA_BOOTSTRAPSERVERS", ""),
		KafkaTopic:            getEnv("KAFKA_TOPIC", "volur-events"),
		KafkaTopicPartitions:  getEnvAsInt("KAFKA_TOPIC_PARTITIONS", 1),
		KafkaTopicReplFactor:  getEnvAsInt("KAFKA_TOPIC_REPL_FACTOR", 1),

		RabbitMQServer: getEnv("RABBITMQ_SERVER", ""),
		RabbitMQPort:   getEnv("RABBITMQ_PORT", "5672"),
		RabbitMQUser:   getEnv("RABBITMQ_USER", "guest"),
		RabbitMQPass:   getEnv("RABBITMQ_PASS", "guest"),
		RabbitMQQueue:  getEnv("RABBITMQ_QUEUE", "volur"),

		Watchlist:        getEnvAsList("WATCHLIST"),
		RefreshSchedule:  getEnv("REFRESH_SCHEDULE", "0 6 * * *"),
		BatchConcurrency: getEnvAsInt("BATCH_CONCURRENCY", 4),
	}

	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

// Validate checks the configured valuation defaults and cache selection
func (s *Settings) Validate() error {
	if err := ValidateDCFParams(s.DCFParams()); err != nil {
		return err
	}
	if err := s.Weights.Validate(); err != nil {
		return err
	}
	if err := s.Scales.Validate(); err != nil {
		return err
	}
	switch s.CacheBackend {
	case CacheBackendDisk, CacheBackendNone:
	case CacheBackendMongo:
		if s.MongoURI == "" {
			return fmt.Errorf("MONGO_URI is required for the mongo cache backend")
		}
	default:
		return fmt.Errorf("unknown CACHE_BACKEND %q", s.CacheBackend)
	}
	if s.BatchConcurrency < 1 {
		return fmt.Errorf("BATCH_CONCURRENCY must be positive")
	}
	return nil
}

func (s *Settings) DCFParams() types.DCFParams {
	return types.DCFParams{
		DiscountRate:   s.DiscountRate,
		LongTermGrowth: s.LongTermGrowth,
		Years:          s.Years,
		TerminalGrowth: s.TerminalGrowth,
	}
}

func (s *Settings) ScoringWeights() types.ScoringWeights {
	return s.Weights
}

func (s *Settings) ScoringScales() types.ScoringScales {
	return s.Scales
}

// ValidateDCFParams applies the user facing ranges: growth in [0, 1], discount in
// (0, 1], years > 0 and terminal growth in [0, discount).
func ValidateDCFParams(p types.DCFParams) error {
	if p.LongTermGrowth < 0 || p.LongTermGrowth > 1 {
		return fmt.Errorf("%w: growth rate must be between 0 and 1", types.ErrInvalidParams)
	}
	if p.DiscountRate <= 0 || p.DiscountRate > 1 {
		return fmt.Errorf("%w: discount rate must be between 0 and 1", types.ErrInvalidParams)
	}
	if p.Years <= 0 {
		return fmt.Errorf("%w: years must be positive", types.ErrInvalidParams)
	}
	if tg, ok := p.TerminalGrowth.Get(); ok {
		if tg < 0 || tg >= p.DiscountRate {
			return fmt.Errorf("%w: terminal growth must be between 0 and discount rate", types.ErrInvalidParams)
		}
	}
	return p.Validate()
}

// Helper functions
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 64); err == nil {
			return floatVal
		}
	}
	return defaultValue
}

func getEnvAsOptionalFloat(key string) types.Float {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 64); err == nil {
			return types.Some(floatVal)
		}
	}
	return types.None[float64]()
}

func getEnvAsList(key string) []string {
	var items []string
	for _, item := range strings.Split(os.Getenv(key), ",") {
		if item = strings.ToUpper(strings.TrimSpace(item)); item != "" {
			items = append(items, item)
		}
	}
	return items
}
