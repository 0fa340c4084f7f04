package config

import (
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	Database DatabaseConfig
	Server   ServerConfig
	App      AppConfig
	Fees     FeeConfig
	Jobs     JobsConfig
	Sports   SportsConfig
}

// DatabaseConfig holds database connection settings
type DatabaseConfig struct {
	Host     string `validate:"required"`
	Port     string `validate:"required,numeric"`
	User     string `validate:"required"`
	Password string
	DBName   string `validate:"required"`
}

// ServerConfig holds server settings
type ServerConfig struct {
	Port string `validate:"required,numeric"`
}

// AppConfig holds application-specific settings
type AppConfig struct {
	JWTSecret       string `validate:"required"`
	StartingBalance string `validate:"required"`
}

// FeeConfig holds the default settlement fee percentages, as decimal
// fractions of the pool. Unparseable values fall back to built-in defaults
// at startup, so they are only checked for presence here.
type FeeConfig struct {
	PlatformFeePct   string `validate:"required"`
	CreatorRewardPct string `validate:"required"`
}

// JobsConfig holds background job settings
type JobsConfig struct {
	ResolutionSchedule string `validate:"required"`
	ResolutionBatch    string `validate:"required"`
}

// SportsConfig holds sports results feed settings
type SportsConfig struct {
	BaseURL string `validate:"required,url"`
	APIKey  string
}

// Load loads configuration from environment variables and rejects
// configurations that fail struct-level validation
func Load() (*Config, error) {
	// Try to load .env file (ignore error if it doesn't exist)
	_ = godotenv.Load()

	config := &Config{
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", ""),
			DBName:   getEnv("DB_NAME", "sports_prediction"),
		},
		Server: ServerConfig{
			Port: getEnv("SERVER_PORT", "8080"),
		},
		App: AppConfig{
			JWTSecret:       getEnv("JWT_SECRET", ""),
			StartingBalance: getEnv("STARTING_BALANCE", "1000.00"),
		},
		Fees: FeeConfig{
			PlatformFeePct:   getEnv("PLATFORM_FEE_PCT", "0.05"),
			CreatorRewardPct: getEnv("CREATOR_REWARD_PCT", "0.02"),
		},
		Jobs: JobsConfig{
			ResolutionSchedule: getEnv("RESOLUTION_SCHEDULE", "@every 1m"),
			ResolutionBatch:    getEnv("RESOLUTION_BATCH", "50"),
		},
		Sports: SportsConfig{
			BaseURL: getEnv("SPORTS_API_BASE_URL", "https://api.sportsfeed.io/v1"),
			APIKey:  getEnv("SPORTS_API_KEY", ""),
		},
	}

	if err := validator.New().Struct(config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return config, nil
}

// GetDSN returns the PostgreSQL connection string
func (c *Config) GetDSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		c.Database.Host,
		c.Database.Port,
		c.Database.User,
		c.Database.Password,
		c.Database.DBName,
	)
}

// getEnv gets an environment variable with a fallback default value
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}
