package config

import (
	"os"
	"strings"
)

// parseEnv applies the environment variables a container deployment sets:
// SECRET_KEY, DATABASE_DSN, PORT (HTTP port only) and LOG_LEVEL.
func parseEnv(config *Config) {
	if v, ok := os.LookupEnv("SECRET_KEY"); ok {
		config.SecretKey = v
	}
	if v, ok := os.LookupEnv("DATABASE_DSN"); ok && v != "" {
		config.DatabaseDSN = v
	}
	if v, ok := os.LookupEnv("PORT"); ok && strings.TrimSpace(v) != "" {
		config.EndpointAddrHTTP = ":" + strings.TrimSpace(v)
	}
	if v, ok := os.LookupEnv("LOG_LEVEL"); ok && v != "" {
		config.LogLevel = v
	}
}
