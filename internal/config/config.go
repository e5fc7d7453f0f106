package config

import (
	"fmt"
	"os"
	"time"

	"github.com/go-playground/validator/v10"

	"conciliador/internal/logger"
)

type Config struct {
	// Output Configuration
	OutputDir    string `validate:"required"`
	OutputFormat string `validate:"oneof=csv xlsx both"`

	// Column aliases file (YAML), optional
	ColumnMapFile string `validate:"omitempty,file"`

	// Google Sheets Configuration
	GoogleSheetURL               string        `validate:"omitempty,url"`
	InvoicesSheet                string        `validate:"required"`
	PaymentsSheet                string        `validate:"required"`
	GoogleApplicationCredentials string        `validate:"omitempty,file"`
	GoogleCredentials            string        `validate:"omitempty,json"`
	SheetsTimeout                time.Duration `validate:"gt=0"`

	// Logging Configuration
	LogLevel      string `validate:"oneof=trace debug info warn error"`
	LogFormat     string `validate:"oneof=console json"`
	LogTimeFormat string
	LogOutput     string `validate:"required"`
}

func Load() (*Config, error) {
	timeout, err := time.ParseDuration(getEnv("SHEETS_TIMEOUT", "60s"))
	if err != nil {
		return nil, fmt.Errorf("SHEETS_TIMEOUT is not a duration: %w", err)
	}

	config := &Config{
		OutputDir:                    getEnv("OUTPUT_DIR", "resultado"),
		OutputFormat:                 getEnv("OUTPUT_FORMAT", "csv"),
		ColumnMapFile:                getEnv("COLUMN_MAP_FILE", ""),
		GoogleSheetURL:               getEnv("GOOGLE_SHEET_URL", ""),
		InvoicesSheet:                getEnv("INVOICES_SHEET", "Facturas"),
		PaymentsSheet:                getEnv("PAYMENTS_SHEET", "Pagos"),
		GoogleApplicationCredentials: getEnv("GOOGLE_APPLICATION_CREDENTIALS", ""),
		GoogleCredentials:            getEnv("GOOGLE_CREDENTIALS", ""),
		SheetsTimeout:                timeout,
		LogLevel:                     getEnv("LOG_LEVEL", "info"),
		LogFormat:                    getEnv("LOG_FORMAT", "console"),
		LogTimeFormat:                getEnv("LOG_TIME_FORMAT", "2006-01-02T15:04:05Z07:00"),
		LogOutput:                    getEnv("LOG_OUTPUT", "stderr"),
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return config, nil
}

// Default returns the configuration used when the environment is unusable
func Default() *Config {
	log := logger.DefaultConfig()
	return &Config{
		OutputDir:     "resultado",
		OutputFormat:  "csv",
		InvoicesSheet: "Facturas",
		PaymentsSheet: "Pagos",
		SheetsTimeout: 60 * time.Second,
		LogLevel:      log.Level,
		LogFormat:     log.Format,
		LogTimeFormat: log.TimeFormat,
		LogOutput:     log.Output,
	}
}

// Validate checks the struct tags of the configuration
func (c *Config) Validate() error {
	return validator.New().Struct(c)
}

// GetLoggerConfig returns a logger configuration from the main config
func (c *Config) GetLoggerConfig() logger.LogConfig {
	return logger.LogConfig{
		Level:      c.LogLevel,
		Format:     c.LogFormat,
		TimeFormat: c.LogTimeFormat,
		Output:     c.LogOutput,
	}
}

// HasSheetCredentials reports whether Google credentials are configured
func (c *Config) HasSheetCredentials() bool {
	return c.GoogleApplicationCredentials != "" || c.GoogleCredentials != ""
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
