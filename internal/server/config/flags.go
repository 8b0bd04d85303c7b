package config

import (
	"flag"
	"os"
	"time"

	"github.com/corpopadel/padel-auth/internal/flagx"
)

// parseFlags populates server Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-a string   HTTP bind address (e.g., ":8000")
//	-g string   gRPC bind address (e.g., ":50051")
//	-d string   PostgreSQL DSN
//	-s string   token HMAC secret key
//	-j string   token signing algorithm (HS256, HS384, HS512)
//	-t int      access token validity, minutes
//	-p string   password hashing algorithm (bcrypt, argon2id)
//	-b int      bcrypt cost
//	-m int      failed logins before lockout
//	-l int      lockout duration, minutes
//	-w int      IP attempt window, minutes
//	-r int      auth requests per second per IP
//	-v string   log level
//
// Duration flags are integers in minutes and only override when given.
func parseFlags(config *Config) {
	// Filter args to include only the flags handled here.
	args := flagx.FilterArgs(os.Args[1:], []string{"-a", "-g", "-d", "-s", "-j", "-t", "-p", "-b", "-m", "-l", "-w", "-r", "-v"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&config.EndpointAddrHTTP, "a", config.EndpointAddrHTTP, "HTTP address and port")
	fs.StringVar(&config.EndpointAddrGRPC, "g", config.EndpointAddrGRPC, "gRPC address and port")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.SecretKey, "s", config.SecretKey, "secret key")
	fs.StringVar(&config.SigningAlgorithm, "j", config.SigningAlgorithm, "token signing algorithm")

	accessTokenValidityDuration := fs.Int("t", int(config.AccessTokenValidityDuration.Minutes()), "access_token_validity_duration (in minutes)")

	fs.StringVar(&config.PasswordAlgorithm, "p", config.PasswordAlgorithm, "password hashing algorithm")
	fs.IntVar(&config.BcryptCost, "b", config.BcryptCost, "bcrypt cost")
	fs.IntVar(&config.MaxLoginAttempts, "m", config.MaxLoginAttempts, "failed logins before lockout")

	lockoutDuration := fs.Int("l", int(config.LockoutDuration.Minutes()), "lockout duration (in minutes)")
	attemptWindow := fs.Int("w", int(config.AttemptWindow.Minutes()), "IP attempt window (in minutes)")

	fs.IntVar(&config.RateLimitRPS, "r", config.RateLimitRPS, "auth requests per second per IP")
	fs.StringVar(&config.LogLevel, "v", config.LogLevel, "log level")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	// only explicit flags override, so sub-minute values from JSON survive
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "t":
			config.AccessTokenValidityDuration = time.Duration(*accessTokenValidityDuration) * time.Minute
		case "l":
			config.LockoutDuration = time.Duration(*lockoutDuration) * time.Minute
		case "w":
			config.AttemptWindow = time.Duration(*attemptWindow) * time.Minute
		}
	})
}
