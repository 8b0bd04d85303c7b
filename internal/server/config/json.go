package config

import (
	"encoding/json"
	"os"

	"github.com/corpopadel/padel-auth/internal/flagx"
	"github.com/corpopadel/padel-auth/internal/timex"
)

// JsonConfig is the on-disk shape of the configuration file. Durations
// accept strings such as "24h" or integer nanoseconds.
type JsonConfig struct {
	EndpointAddrHTTP            string         `json:"endpoint_addr_http"`
	EndpointAddrGRPC            string         `json:"endpoint_addr_grpc"`
	DatabaseDSN                 string         `json:"database_dsn"`
	SecretKey                   string         `json:"secret_key"`
	SigningAlgorithm            string         `json:"algorithm"`
	AccessTokenValidityDuration timex.Duration `json:"access_token_validity_duration"`
	PasswordAlgorithm           string         `json:"password_algorithm"`
	BcryptCost                  int            `json:"bcrypt_cost"`
	MaxLoginAttempts            int            `json:"max_login_attempts"`
	LockoutDuration             timex.Duration `json:"lockout_duration"`
	AttemptWindow               timex.Duration `json:"attempt_window"`
	RateLimitRPS                int            `json:"rate_limit_rps"`
	RateLimitBurst              int            `json:"rate_limit_burst"`
	LogLevel                    string         `json:"log_level"`
}

// parseJson overlays the file given by -c/-config onto config. Keys missing
// from the file keep their current value. An unreadable or invalid file
// panics.
func parseJson(config *Config) {

	// try flags
	jsonConfigFile := flagx.ConfigPath()

	// nothing to load
	if jsonConfigFile == "" {
		return
	}

	c := &JsonConfig{}

	file, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}

	err = json.Unmarshal(file, c)
	if err != nil {
		panic(err)
	}

	setString(&config.EndpointAddrHTTP, c.EndpointAddrHTTP)
	setString(&config.EndpointAddrGRPC, c.EndpointAddrGRPC)
	setString(&config.DatabaseDSN, c.DatabaseDSN)
	setString(&config.SecretKey, c.SecretKey)
	setString(&config.SigningAlgorithm, c.SigningAlgorithm)
	setString(&config.PasswordAlgorithm, c.PasswordAlgorithm)
	setString(&config.LogLevel, c.LogLevel)

	setInt(&config.BcryptCost, c.BcryptCost)
	setInt(&config.MaxLoginAttempts, c.MaxLoginAttempts)
	setInt(&config.RateLimitRPS, c.RateLimitRPS)
	setInt(&config.RateLimitBurst, c.RateLimitBurst)

	if c.AccessTokenValidityDuration.Duration != 0 {
		config.AccessTokenValidityDuration = c.AccessTokenValidityDuration.Duration
	}
	if c.LockoutDuration.Duration != 0 {
		config.LockoutDuration = c.LockoutDuration.Duration
	}
	if c.AttemptWindow.Duration != 0 {
		config.AttemptWindow = c.AttemptWindow.Duration
	}
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func setInt(dst *int, v int) {
	if v != 0 {
		*dst = v
	}
}
