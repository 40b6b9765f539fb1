package config

import (
	"fmt"
	"os"
	"strconv"
	"sync"
	"time"

	"rifa/database"
)

// Config holds all application configuration
type Config struct {
	// HTTP server
	ListenAddr string

	// Database configuration
	DatabaseURL  string
	DatabaseName string

	// Raffle configuration
	TotalNumbers       int64
	PricePerNumber     float64
	MaxPurchaseLimit   int
	MaxEntriesPerPhone int

	// Reservation handling
	ReservationTTL time.Duration // how long a selected number stays held
	SweepInterval  time.Duration // how often expired reservations are released

	// Admin access
	AdminPassword string

	// Gemini configuration (description/announcement/image generation)
	GeminiAPIKey string

	// Discord winner announcements (optional)
	DiscordToken     string
	DiscordChannelID string

	// Environment
	Environment string // "development" or "production"
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
			// In test environment, use a default test config instead of panicking
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

// load loads configuration from environment variables
func load() (*Config, error) {
	config := &Config{
		ListenAddr: getEnvWithDefault("LISTEN_ADDR", ":8080"),

		DatabaseURL:  os.Getenv("DATABASE_URL"),
		DatabaseName: os.Getenv("DATABASE_NAME"),

		// Raffle defaults
		TotalNumbers:       1_000_000,
		PricePerNumber:     10.00,
		MaxPurchaseLimit:   50,
		MaxEntriesPerPhone: 100,

		ReservationTTL: 5 * time.Minute,
		SweepInterval:  time.Second,

		AdminPassword: os.Getenv("ADMIN_PASSWORD"),

		GeminiAPIKey: os.Getenv("GEMINI_API_KEY"),

		DiscordToken:     os.Getenv("DISCORD_TOKEN"),
		DiscordChannelID: os.Getenv("DISCORD_CHANNEL_ID"),

		Environment: os.Getenv("ENVIRONMENT"),
	}

	// Override defaults if environment variables are set
	if total := os.Getenv("TOTAL_NUMBERS"); total != "" {
		if parsed, err := strconv.ParseInt(total, 10, 64); err == nil && parsed > 0 {
			config.TotalNumbers = parsed
		}
	}
	if price := os.Getenv("PRICE_PER_NUMBER"); price != "" {
		if parsed, err := strconv.ParseFloat(price, 64); err == nil && parsed > 0 {
			config.PricePerNumber = parsed
		}
	}
	if limit := os.Getenv("MAX_PURCHASE_LIMIT"); limit != "" {
		if parsed, err := strconv.Atoi(limit); err == nil && parsed > 0 {
			config.MaxPurchaseLimit = parsed
		}
	}
	if limit := os.Getenv("MAX_ENTRIES_PER_PHONE"); limit != "" {
		if parsed, err := strconv.Atoi(limit); err == nil && parsed > 0 {
			config.MaxEntriesPerPhone = parsed
		}
	}
	if ttl := os.Getenv("RESERVATION_TTL"); ttl != "" {
		if parsed, err := time.ParseDuration(ttl); err == nil && parsed > 0 {
			config.ReservationTTL = parsed
		}
	}
	if interval := os.Getenv("SWEEP_INTERVAL"); interval != "" {
		if parsed, err := time.ParseDuration(interval); err == nil && parsed > 0 {
			config.SweepInterval = parsed
		}
	}

	// Set default environment if not specified
	if config.Environment == "" {
		config.Environment = "development"
	}

	if config.Environment != "test" {
		// Validate required configuration
		if config.DatabaseURL == "" {
			return nil, fmt.Errorf("DATABASE_URL is required")
		}
		if config.AdminPassword == "" {
			return nil, fmt.Errorf("ADMIN_PASSWORD is required")
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
		Environment:        "test",
		ListenAddr:         ":0",
		TotalNumbers:       1_000_000,
		PricePerNumber:     10.00,
		MaxPurchaseLimit:   50,
		MaxEntriesPerPhone: 100,
		ReservationTTL:     5 * time.Minute,
		SweepInterval:      time.Second,
		AdminPassword:      "test-password",
	}
}
