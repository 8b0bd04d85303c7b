package security

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Manager exposes the four credential and token operations bound to one
// Config. The zero value is not usable; build one with NewManager.
type Manager struct {
	cfg    Config
	method jwt.SigningMethod
	secret []byte
	now    func() time.Time
}

// Option customises a Manager.
type Option func(*Manager)

// WithClock replaces time.Now as the source of the current time for both
// issuing and validating tokens.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) {
		m.now = now
	}
}

// NewManager validates cfg and returns a ready Manager. An error here is a
// startup misconfiguration and should abort the process.
func NewManager(cfg Config, opts ...Option) (*Manager, error) {
	cfg = cfg.withDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("security config: %w", err)
	}

	m := &Manager{
		cfg:    cfg,
		method: jwt.GetSigningMethod(cfg.Algorithm),
		secret: []byte(cfg.Secret),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m, nil
}

// ExpiresIn is the lifetime given to issued tokens.
func (m *Manager) ExpiresIn() time.Duration {
	return m.cfg.ExpiresIn
}

// Algorithm is the token signature scheme in use.
func (m *Manager) Algorithm() string {
	return m.cfg.Algorithm
}
