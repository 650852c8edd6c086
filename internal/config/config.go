package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"

	"valuator/pkg/logger"
)

// Config holds all configuration for the application
type Config struct {
	PostgreSQL PostgreSQLConfig
	Server     ServerConfig
	Model      ModelConfig
	Logging    LoggingConfig
	Metrics    MetricsConfig
}

// PostgreSQLConfig holds PostgreSQL database configuration
type PostgreSQLConfig struct {
	Enabled            bool   // Valuation history is optional
	DSN                string // Full connection string, takes precedence over the parts below
	Host               string
	Port               int
	User               string
	Password           string
	Database           string
	SSLMode            string
	MaxConnections     int
	MaxIdleConnections int
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Port           int
	Host           string
	GinMode        string
	AllowedOrigins string
	AllowedMethods string
	AllowedHeaders string
}

// ModelConfig holds the training protocol of the price estimator
type ModelConfig struct {
	TrainingSamples int
	Epochs          int
	BatchSize       int
	ValidationSplit float64
	LearningRate    float64
	Seed            int64 // 0 seeds from the clock
	WarmupOnStart   bool
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level string
	Env   string
}

// MetricsConfig holds Prometheus exposition configuration
type MetricsConfig struct {
	Enabled bool
	Path    string
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Try to load .env file (optional)
	_ = godotenv.Load()

	cfg := &Config{
		PostgreSQL: PostgreSQLConfig{
			Enabled:            getEnvAsBool("PG_ENABLED", false),
			DSN:                getEnv("DATABASE_URL", getEnv("PG_DSN", "")),
			Host:               getEnv("PG_HOST", "localhost"),
			Port:               getEnvAsInt("PG_PORT", 5432),
			User:               getEnv("PG_USER", "postgres"),
			Password:           getEnv("PG_PASSWORD", ""),
			Database:           getEnv("PG_DATABASE", "valuator"),
			SSLMode:            getEnv("PG_SSLMODE", "disable"),
			MaxConnections:     getEnvAsInt("PG_MAX_CONNECTIONS", 10),
			MaxIdleConnections: getEnvAsInt("PG_MAX_IDLE_CONNECTIONS", 2),
		},
		Server: ServerConfig{
			Port:           getEnvAsInt("SERVER_PORT", 8080),
			Host:           getEnv("SERVER_HOST", "0.0.0.0"),
			GinMode:        getEnv("GIN_MODE", "release"),
			AllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "*"),
			AllowedMethods: getEnv("CORS_ALLOWED_METHODS", "GET,POST,OPTIONS"),
			AllowedHeaders: getEnv("CORS_ALLOWED_HEADERS", "Content-Type,Authorization"),
		},
		Model: ModelConfig{
			TrainingSamples: getEnvAsInt("MODEL_TRAINING_SAMPLES", 1000),
			Epochs:          getEnvAsInt("MODEL_EPOCHS", 50),
			BatchSize:       getEnvAsInt("MODEL_BATCH_SIZE", 32),
			ValidationSplit: getEnvAsFloat("MODEL_VALIDATION_SPLIT", 0.2),
			LearningRate:    getEnvAsFloat("MODEL_LEARNING_RATE", 0.001),
			Seed:            getEnvAsInt64("MODEL_SEED", 0),
			WarmupOnStart:   getEnvAsBool("MODEL_WARMUP_ON_START", false),
		},
		Logging: LoggingConfig{
			Level: getEnv("LOG_LEVEL", "info"),
			Env:   getEnv("APP_ENV", "production"),
		},
		Metrics: MetricsConfig{
			Enabled: getEnvAsBool("METRICS_ENABLED", true),
			Path:    getEnv("METRICS_PATH", "/metrics"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks values that would make training impossible
func (c *Config) Validate() error {
	if c.Model.TrainingSamples <= 0 {
		return fmt.Errorf("MODEL_TRAINING_SAMPLES must be positive, got %d", c.Model.TrainingSamples)
	}
	if c.Model.Epochs <= 0 {
		return fmt.Errorf("MODEL_EPOCHS must be positive, got %d", c.Model.Epochs)
	}
	if c.Model.BatchSize <= 0 {
		return fmt.Errorf("MODEL_BATCH_SIZE must be positive, got %d", c.Model.BatchSize)
	}
	if c.Model.ValidationSplit < 0 || c.Model.ValidationSplit >= 1 {
		return fmt.Errorf("MODEL_VALIDATION_SPLIT must be in [0, 1), got %f", c.Model.ValidationSplit)
	}
	if c.Model.LearningRate <= 0 {
		return fmt.Errorf("MODEL_LEARNING_RATE must be positive, got %f", c.Model.LearningRate)
	}
	return nil
}

// GetPostgreSQLDSN returns PostgreSQL connection string
func (c *Config) GetPostgreSQLDSN() string {
	if c.PostgreSQL.DSN != "" {
		return c.PostgreSQL.DSN
	}

	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.PostgreSQL.Host,
		c.PostgreSQL.Port,
		c.PostgreSQL.User,
		c.PostgreSQL.Password,
		c.PostgreSQL.Database,
		c.PostgreSQL.SSLMode,
	)
}

// Helper functions

func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		logger.Warnf("Invalid integer value for %s, using default %d", key, defaultValue)
		return defaultValue
	}
	return value
}

func getEnvAsInt64(key string, defaultValue int64) int64 {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseInt(valueStr, 10, 64)
	if err != nil {
		logger.Warnf("Invalid integer value for %s, using default %d", key, defaultValue)
		return defaultValue
	}
	return value
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		logger.Warnf("Invalid float value for %s, using default %f", key, defaultValue)
		return defaultValue
	}
	return value
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		logger.Warnf("Invalid boolean value for %s, using default %t", key, defaultValue)
		return defaultValue
	}
	return value
}
