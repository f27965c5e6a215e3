package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"vardrill/internal/errors"
)

// Config represents the complete application configuration
type Config struct {
	Server   ServerConfig   `validate:"required"`
	Database DatabaseConfig `validate:"required"`
	Data     DataConfig     `validate:"required"`
	Analysis AnalysisConfig `validate:"required"`
	LogLevel string         `validate:"oneof=ERROR WARN INFO DEBUG TRACE"`
}

// ServerConfig holds web server settings
type ServerConfig struct {
	Port            string `validate:"required,numeric"`
	GinMode         string `validate:"oneof=debug release test"`
	PublicURL       string `validate:"omitempty,url"`
	ShutdownTimeout time.Duration
}

// DatabaseConfig holds session store settings. An empty URL runs without a
// store: sessions live in memory only.
type DatabaseConfig struct {
	Driver string `validate:"oneof=postgres sqlite3"`
	URL    string
}

// Enabled reports whether a session store is configured.
func (d DatabaseConfig) Enabled() bool { return d.URL != "" }

// DataConfig describes the dataset the server analyses.
type DataConfig struct {
	File           string
	Profile        string
	Sheet          string
	Watch          bool
	OutcomeColumn  string
	FactorColumns  []string
	StageColumn    string
	StageOrderMode string `validate:"oneof=auto data-order"`
}

// AnalysisConfig holds thresholds and labels used by the engines.
type AnalysisConfig struct {
	ImpactHighPct     float64 `validate:"gt=0,lte=100,gtfield=ImpactModeratePct"`
	ImpactModeratePct float64 `validate:"gt=0,lte=100"`
	RootLabel         string  `validate:"required"`
	MemoCapacity      int     `validate:"gte=1"`
}

var validate = validator.New()

// Load reads configuration from environment variables and validates it
func Load() (*Config, error) {
	config := &Config{
		Server:   *loadServerConfig(),
		Database: *loadDatabaseConfig(),
		Data:     *loadDataConfig(),
		Analysis: *loadAnalysisConfig(),
		LogLevel: strings.ToUpper(getEnvOrDefault("LOG_LEVEL", "INFO")),
	}

	if err := Validate(config); err != nil {
		return nil, errors.Wrap(err, "configuration validation failed")
	}
	return config, nil
}

// Validate checks struct tags plus the cross-field rules tags cannot express.
func Validate(config *Config) error {
	if err := validate.Struct(config); err != nil {
		return errors.WithCode(errors.CodeConfigInvalid, err)
	}
	if config.Data.Watch && config.Data.File == "" {
		return errors.ConfigInvalid("DATA_WATCH requires DATA_FILE")
	}
	if config.Data.File != "" && config.Data.OutcomeColumn == "" && config.Data.Profile == "" {
		return errors.ConfigInvalid("OUTCOME_COLUMN or DATA_PROFILE is required when DATA_FILE is set")
	}
	return nil
}

func loadServerConfig() *ServerConfig {
	return &ServerConfig{
		Port:            getEnvOrDefault("PORT", "8080"),
		GinMode:         getEnvOrDefault("GIN_MODE", "debug"),
		PublicURL:       getEnvOrDefault("PUBLIC_URL", ""),
		ShutdownTimeout: getEnvDurationOrDefault("SHUTDOWN_TIMEOUT", 10*time.Second),
	}
}

func loadDatabaseConfig() *DatabaseConfig {
	return &DatabaseConfig{
		Driver: getEnvOrDefault("DATABASE_DRIVER", "postgres"),
		URL:    os.Getenv("DATABASE_URL"),
	}
}

func loadDataConfig() *DataConfig {
	return &DataConfig{
		File:           getEnvOrDefault("DATA_FILE", ""),
		Profile:        getEnvOrDefault("DATA_PROFILE", ""),
		Sheet:          getEnvOrDefault("DATA_SHEET", ""),
		Watch:          getEnvBoolOrDefault("DATA_WATCH", false),
		OutcomeColumn:  getEnvOrDefault("OUTCOME_COLUMN", ""),
		FactorColumns:  getEnvListOrDefault("FACTOR_COLUMNS", nil),
		StageColumn:    getEnvOrDefault("STAGE_COLUMN", ""),
		StageOrderMode: getEnvOrDefault("STAGE_ORDER_MODE", "auto"),
	}
}

func loadAnalysisConfig() *AnalysisConfig {
	return &AnalysisConfig{
		ImpactHighPct:     getEnvFloatOrDefault("IMPACT_HIGH_PCT", 50),
		ImpactModeratePct: getEnvFloatOrDefault("IMPACT_MODERATE_PCT", 25),
		RootLabel:         getEnvOrDefault("ROOT_LABEL", "All Data"),
		MemoCapacity:      getEnvIntOrDefault("MEMO_CAPACITY", 256),
	}
}

// Helper functions for environment variable parsing
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvFloatOrDefault(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

func getEnvBoolOrDefault(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

// getEnvListOrDefault splits a comma separated value, dropping blanks.
func getEnvListOrDefault(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
