// Package security implements the credential and token primitives of the
// authentication service: password hashing and verification, and signed,
// expiring access tokens.
//
// All operations are safe for concurrent use. They read only the immutable
// Config a Manager was built from and the clock.
package security

import (
	"errors"
	"fmt"
	"time"

	"golang.org/x/crypto/bcrypt"
)

// Supported password hashing algorithms.
const (
	PasswordBcrypt   = "bcrypt"
	PasswordArgon2ID = "argon2id"
)

// Default values applied to zero Config fields (except Secret).
const (
	DefaultAlgorithm  = "HS256"
	DefaultExpiresIn  = 24 * time.Hour
	DefaultBcryptCost = 10
)

var (
	ErrMissingSecret        = errors.New("token signing secret must not be empty")
	ErrUnsupportedAlgorithm = errors.New("unsupported token signing algorithm")
	ErrUnsupportedHasher    = errors.New("unsupported password hashing algorithm")
	ErrInvalidLifetime      = errors.New("token lifetime must be positive")
	ErrInvalidCost          = errors.New("bcrypt cost out of range")
)

// Config is the process-wide security configuration. It is built once at
// startup and handed to NewManager; a Manager never mutates it.
type Config struct {
	// Secret is the symmetric key used to sign and verify tokens.
	Secret string
	// Algorithm is the token signature scheme: HS256, HS384 or HS512.
	Algorithm string
	// ExpiresIn is the lifetime of issued tokens.
	ExpiresIn time.Duration

	// PasswordAlgorithm selects the hasher for new passwords. Verification
	// always accepts both supported formats.
	PasswordAlgorithm string
	BcryptCost        int
	Argon2            Argon2Params
}

var supportedAlgorithms = map[string]struct{}{
	"HS256": {},
	"HS384": {},
	"HS512": {},
}

// withDefaults returns a copy of c with zero fields replaced by defaults.
func (c Config) withDefaults() Config {
	if c.Algorithm == "" {
		c.Algorithm = DefaultAlgorithm
	}
	if c.ExpiresIn == 0 {
		c.ExpiresIn = DefaultExpiresIn
	}
	if c.PasswordAlgorithm == "" {
		c.PasswordAlgorithm = PasswordBcrypt
	}
	if c.BcryptCost == 0 {
		c.BcryptCost = DefaultBcryptCost
	}
	if c.Argon2 == (Argon2Params{}) {
		c.Argon2 = DefaultArgon2Params()
	}
	return c
}

// Validate reports the first misconfiguration found in c.
func (c Config) Validate() error {
	if c.Secret == "" {
		return ErrMissingSecret
	}
	if _, ok := supportedAlgorithms[c.Algorithm]; !ok {
		return fmt.Errorf("%w: %q", ErrUnsupportedAlgorithm, c.Algorithm)
	}
	if c.ExpiresIn <= 0 {
		return ErrInvalidLifetime
	}
	switch c.PasswordAlgorithm {
	case PasswordBcrypt:
		if c.BcryptCost < bcrypt.MinCost || c.BcryptCost > bcrypt.MaxCost {
			return fmt.Errorf("%w: %d", ErrInvalidCost, c.BcryptCost)
		}
	case PasswordArgon2ID:
		if err := c.Argon2.validate(); err != nil {
			return err
		}
	default:
		return fmt.Errorf("%w: %q", ErrUnsupportedHasher, c.PasswordAlgorithm)
	}
	return nil
}
