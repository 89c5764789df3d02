package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"gamerit/database"

	"github.com/joho/godotenv"
)

// TieBreakPolicy decides how a classic round with equal final scores is settled
type TieBreakPolicy string

const (
	// TieBreakCoinFlip picks a winning side uniformly at random
	TieBreakCoinFlip TieBreakPolicy = "coin_flip"
	// TieBreakRefund leaves the winner unset and returns every stake
	TieBreakRefund TieBreakPolicy = "refund"
)

// Config holds all application configuration
type Config struct {
	// Database configuration
	DatabaseURL      string
	DatabaseName     string
	DatabaseMaxConns int32

	// HTTP configuration
	HTTPAddr     string
	GatewayToken string // Shared secret for scheduler and market-scan endpoints

	// Economy configuration
	StartingBalance int64
	MinStake        int64

	// Classic round configuration
	RoundDuration           time.Duration
	RoundCreationMargin     time.Duration // Subtracted from RoundDuration when deciding if the last round is stale
	PendingPayoutRetryAfter time.Duration
	TieBreakPolicy          TieBreakPolicy
	RecentContentWindow     int // Number of previous rounds whose posts are not reused

	// Hot potato configuration
	HotPotatoDuration     time.Duration
	HotPotatoMaxActive    int
	HotPotatoRecentWindow int

	// Market configuration
	PriceHistoryWindow time.Duration

	// Content source configuration
	RedditBaseURL   string
	RedditUserAgent string
	Subreddits      []string
	ContentTimeout  time.Duration

	// NATS configuration
	NATSServers string // NATS server addresses (comma-separated), empty disables publishing

	// Redis configuration
	RedisURL string // Empty disables the read cache
	CacheTTL time.Duration

	// Scheduler configuration
	SchedulerEnabled  bool
	SchedulerInterval time.Duration

	// OpenTelemetry configuration
	OTelEnabled              bool
	OTelExporterType         string // "console", "otlp" or "none"
	OTelOTLPEndpoint         string
	OTelServiceName          string
	OTelExportIntervalMillis int

	// Logging
	LogLevel string

	// Environment
	Environment string // "development", "production" or "test"
}

var (
	instance *Config
	once     sync.Once
	mu       sync.Mutex // Protects instance for test setup
)

// Get returns the global configuration instance
func Get() *Config {
	mu.Lock()
	defer mu.Unlock()

	// If instance is already set (e.g., by tests), return it
	if instance != nil {
		return instance
	}

	once.Do(func() {
		var err error
		instance, err = load()
		if err != nil {
			if os.Getenv("GO_TEST") == "1" || os.Getenv("ENVIRONMENT") == "test" {
				instance = NewTestConfig()
			} else {
				panic(fmt.Sprintf("failed to load config: %v", err))
			}
		}
	})
	return instance
}

// GetDatabaseURL constructs the full database URL by combining base URL and database name
func (c *Config) GetDatabaseURL() string {
	return database.ConstructDatabaseURL(c.DatabaseURL, c.DatabaseName)
}

// IsProduction reports whether the service runs in production posture
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// load loads configuration from environment variables
func load() (*Config, error) {
	// A missing .env file is normal outside local development
	_ = godotenv.Load()

	config := &Config{
		// Database
		DatabaseURL:      os.Getenv("DATABASE_URL"),
		DatabaseName:     os.Getenv("DATABASE_NAME"),
		DatabaseMaxConns: int32(getEnvInt64("DATABASE_MAX_CONNS", 10)),

		// HTTP
		HTTPAddr:     getEnvWithDefault("HTTP_ADDR", ":8080"),
		GatewayToken: os.Getenv("GATEWAY_TOKEN"),

		// Economy
		StartingBalance: getEnvInt64("STARTING_BALANCE", 1000),
		MinStake:        getEnvInt64("MIN_STAKE", 10),

		// Classic rounds
		RoundDuration:           getEnvDuration("ROUND_DURATION", 24*time.Hour),
		RoundCreationMargin:     getEnvDuration("ROUND_CREATION_MARGIN", time.Hour),
		PendingPayoutRetryAfter: getEnvDuration("PENDING_PAYOUT_RETRY_AFTER", 10*time.Minute),
		TieBreakPolicy:          TieBreakPolicy(getEnvWithDefault("TIE_BREAK_POLICY", string(TieBreakCoinFlip))),
		RecentContentWindow:     int(getEnvInt64("RECENT_CONTENT_WINDOW", 10)),

		// Hot potato
		HotPotatoDuration:     getEnvDuration("HOT_POTATO_DURATION", 48*time.Hour),
		HotPotatoMaxActive:    int(getEnvInt64("HOT_POTATO_MAX_ACTIVE", 5)),
		HotPotatoRecentWindow: int(getEnvInt64("HOT_POTATO_RECENT_WINDOW", 20)),

		// Market
		PriceHistoryWindow: getEnvDuration("PRICE_HISTORY_WINDOW", 7*24*time.Hour),

		// Content source
		RedditBaseURL:   getEnvWithDefault("REDDIT_BASE_URL", "https://www.reddit.com"),
		RedditUserAgent: getEnvWithDefault("REDDIT_USER_AGENT", "gamerit/1.0"),
		Subreddits:      splitList(getEnvWithDefault("REDDIT_SUBREDDITS", "all")),
		ContentTimeout:  getEnvDuration("CONTENT_TIMEOUT", 5*time.Second),

		// NATS
		NATSServers: os.Getenv("NATS_SERVERS"),

		// Redis
		RedisURL: os.Getenv("REDIS_URL"),
		CacheTTL: getEnvDuration("CACHE_TTL", 30*time.Second),

		// Scheduler
		SchedulerEnabled:  getEnvWithDefault("SCHEDULER_ENABLED", "true") == "true",
		SchedulerInterval: getEnvDuration("SCHEDULER_INTERVAL", 5*time.Minute),

		// OpenTelemetry
		OTelEnabled:              os.Getenv("OTEL_ENABLED") == "true",
		OTelExporterType:         getEnvWithDefault("OTEL_EXPORTER_TYPE", "console"),
		OTelOTLPEndpoint:         getEnvWithDefault("OTEL_EXPORTER_ENDPOINT", "otel-collector:4317"),
		OTelServiceName:          getEnvWithDefault("OTEL_SERVICE_NAME", "gamerit"),
		OTelExportIntervalMillis: int(getEnvInt64("OTEL_EXPORT_INTERVAL_MILLIS", 15000)),

		LogLevel:    getEnvWithDefault("LOG_LEVEL", "info"),
		Environment: os.Getenv("ENVIRONMENT"),
	}

	// Set default environment if not specified
	if config.Environment == "" {
		config.Environment = "development"
	}

	if config.Environment != "test" {
		if config.DatabaseURL == "" {
			return nil, fmt.Errorf("DATABASE_URL is required")
		}
		if config.DatabaseName != "" && strings.TrimSpace(config.DatabaseName) == "" {
			return nil, fmt.Errorf("DATABASE_NAME cannot be empty when provided")
		}
		if config.MinStake <= 0 {
			return nil, fmt.Errorf("MIN_STAKE must be positive")
		}
		if config.RoundCreationMargin >= config.RoundDuration {
			return nil, fmt.Errorf("ROUND_CREATION_MARGIN must be shorter than ROUND_DURATION")
		}
		switch config.TieBreakPolicy {
		case TieBreakCoinFlip, TieBreakRefund:
		default:
			return nil, fmt.Errorf("unknown TIE_BREAK_POLICY: %s", config.TieBreakPolicy)
		}
	}

	return config, nil
}

// getEnvWithDefault returns the environment variable value or a default if not set
func getEnvWithDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseInt(value, 10, 64); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if parsed, err := time.ParseDuration(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// Test helpers - only use in tests

// SetTestConfig overrides the global config instance for testing
// This should only be called from test files
func SetTestConfig(testConfig *Config) {
	mu.Lock()
	defer mu.Unlock()
	instance = testConfig
}

// ResetConfig resets the global config instance and sync.Once for testing
// This should only be called from test files
func ResetConfig() {
	mu.Lock()
	defer mu.Unlock()
	instance = nil
	once = sync.Once{}
}

// NewTestConfig creates a minimal config suitable for unit tests
func NewTestConfig() *Config {
	return &Config{
		Environment:             "test",
		StartingBalance:         1000,
		MinStake:                10,
		RoundDuration:           24 * time.Hour,
		RoundCreationMargin:     time.Hour,
		PendingPayoutRetryAfter: 10 * time.Minute,
		TieBreakPolicy:          TieBreakCoinFlip,
		RecentContentWindow:     10,
		HotPotatoDuration:       48 * time.Hour,
		HotPotatoMaxActive:      5,
		HotPotatoRecentWindow:   20,
		PriceHistoryWindow:      7 * 24 * time.Hour,
		ContentTimeout:          time.Second,
		CacheTTL:                30 * time.Second,
		SchedulerInterval:       5 * time.Minute,
		OTelExporterType:        "none",
		OTelServiceName:         "gamerit-test",
		LogLevel:                "debug",
	}
}
