package config

import (
	"os"
	"strconv"
)

// Config holds the environment-driven settings of spec.md §6.
type Config struct {
	BackendHost           string
	BackendPort           int
	RetentionTTLSeconds   int
	MaxMetricCardinality  int
	OTLPHTTPAddr          string
	APIAddr               string
	HTTPAliasesPath       string
}

// Load reads Config from the environment, applying the documented defaults.
func Load() Config {
	return Config{
		BackendHost:          getEnv("BACKEND_HOST", "localhost"),
		BackendPort:          getEnvInt("BACKEND_PORT", 6379),
		RetentionTTLSeconds:  getEnvInt("RETENTION_TTL", 1800),
		MaxMetricCardinality: getEnvInt("MAX_METRIC_CARDINALITY", 1000),
		OTLPHTTPAddr:         getEnv("OTLP_HTTP_ADDR", "0.0.0.0:4318"),
		APIAddr:              getEnv("API_ADDR", "0.0.0.0:8080"),
		HTTPAliasesPath:      getEnv("HTTP_ALIASES_PATH", "config/http_aliases.yaml"),
	}
}

// getEnv gets an environment variable with a default fallback.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt gets an integer environment variable with a default fallback.
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}
