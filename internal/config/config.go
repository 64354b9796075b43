package config

import (
	"os"
	"strconv"

	"episim/internal/errors"
)

// Config represents the complete application configuration
type Config struct {
	Sim      SimConfig
	Database DatabaseConfig
	Paths    PathConfig
}

// SimConfig holds the default simulation parameters
type SimConfig struct {
	Seed      uint64
	NAgents   int
	NPts      int
	Dt        float64
	Scenarios int
}

// DatabaseConfig holds database connection settings. Persistence is
/// optional: an empty URL disables the Postgres run repository.
type DatabaseConfig struct {
	URL     string
	Host    string
	Port    int
	SSLMode string
}

// PathConfig holds output file paths
type PathConfig struct {
	ExcelFile  string
	ReportFile string
}

// Load reads configuration from environment variables and validates it
func Load() (*Config, error) {
	config := &Config{
		Sim:      loadSimConfig(),
		Database: loadDatabaseConfig(),
		Paths:    loadPathConfig(),
	}

	if err := validateConfig(config); err != nil {
		return nil, errors.Wrap(err, "configuration validation failed")
	}
	return config, nil
}

func loadSimConfig() SimConfig {
	return SimConfig{
		Seed:      uint64(getEnvIntOrDefault("SIM_SEED", 12345)),
		NAgents:   getEnvIntOrDefault("SIM_AGENTS", 1000),
		NPts:      getEnvIntOrDefault("SIM_TIMESTEPS", 120),
		Dt:        getEnvFloatOrDefault("SIM_DT", 1.0/12),
		Scenarios: getEnvIntOrDefault("SIM_SCENARIOS", 1),
	}
}

func loadDatabaseConfig() DatabaseConfig {
	return DatabaseConfig{
		URL:     getEnvOrDefault("DATABASE_URL", ""),
		Host:    getEnvOrDefault("DB_HOST", ""),
		Port:    getEnvIntOrDefault("DB_PORT", 5432),
		SSLMode: getEnvOrDefault("SSL_MODE", "disable"),
	}
}

func loadPathConfig() PathConfig {
	return PathConfig{
		ExcelFile:  getEnvOrDefault("EXCEL_FILE", "results.xlsx"),
		ReportFile: getEnvOrDefault("REPORT_FILE", "report.html"),
	}
}

func validateConfig(config *Config) error {
	if config.Sim.NAgents < 1 {
		return errors.ConfigInvalid("SIM_AGENTS must be at least 1")
	}
	if config.Sim.NPts < 1 {
		return errors.ConfigInvalid("SIM_TIMESTEPS must be at least 1")
	}
	if config.Sim.Dt <= 0 {
		return errors.ConfigInvalid("SIM_DT must be positive")
	}
	if config.Sim.Scenarios < 1 {
		return errors.ConfigInvalid("SIM_SCENARIOS must be at least 1")
	}
	return nil
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
