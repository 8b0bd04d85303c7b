package security

import (
	"errors"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

var ErrEmptyPassword = errors.New("password must not be empty")

// HashPassword returns a salted, one-way hash of plain using the configured
// algorithm. Two calls on the same input give different strings, and both
// verify against it.
func (m *Manager) HashPassword(plain string) (string, error) {
	if plain == "" {
		return "", ErrEmptyPassword
	}

	if m.cfg.PasswordAlgorithm == PasswordArgon2ID {
		return hashArgon2ID(plain, m.cfg.Argon2)
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(plain), m.cfg.BcryptCost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

// VerifyPassword reports whether plain matches hash. Any mismatch, including
// a malformed or unknown hash format, yields false.
func (m *Manager) VerifyPassword(plain, hash string) bool {
	if plain == "" || hash == "" {
		return false
	}

	switch {
	case isBcryptHash(hash):
		return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain)) == nil
	case strings.HasPrefix(hash, argon2Prefix):
		return verifyArgon2ID(plain, hash)
	default:
		return false
	}
}

// NeedsRehash reports whether hash was produced with another algorithm or
// other parameters than the current configuration. Unparseable hashes
// always need a rehash.
func (m *Manager) NeedsRehash(hash string) bool {
	switch {
	case isBcryptHash(hash):
		if m.cfg.PasswordAlgorithm != PasswordBcrypt {
			return true
		}
		cost, err := bcrypt.Cost([]byte(hash))
		return err != nil || cost != m.cfg.BcryptCost
	case strings.HasPrefix(hash, argon2Prefix):
		if m.cfg.PasswordAlgorithm != PasswordArgon2ID {
			return true
		}
		p, salt, key, err := parseArgon2ID(hash)
		if err != nil {
			return true
		}
		want := m.cfg.Argon2
		return p.Memory != want.Memory ||
			p.Iterations != want.Iterations ||
			p.Parallelism != want.Parallelism ||
			uint32(len(salt)) != want.SaltLen ||
			uint32(len(key)) != want.KeyLen
	default:
		return true
	}
}

func isBcryptHash(hash string) bool {
	return strings.HasPrefix(hash, "$2a$") ||
		strings.HasPrefix(hash, "$2b$") ||
		strings.HasPrefix(hash, "$2y$")
}
