package security

import (
	"encoding/json"
	"time"
)

// Standard claim names.
const (
	ClaimSubject   = "sub"
	ClaimEmail     = "email"
	ClaimRole      = "role"
	ClaimExpiresAt = "exp"
	ClaimIssuedAt  = "iat"
)

// Claims maps claim names to values. Values must be JSON-representable.
// Strings and booleans round-trip unchanged; decoded integers come back as
// int64 and other numbers as float64.
type Claims map[string]any

// NewClaims builds the claim set the service puts in every access token.
func NewClaims(subject, email, role string) Claims {
	return Claims{
		ClaimSubject: subject,
		ClaimEmail:   email,
		ClaimRole:    role,
	}
}

func (c Claims) Subject() string { return c.str(ClaimSubject) }
func (c Claims) Email() string   { return c.str(ClaimEmail) }
func (c Claims) Role() string    { return c.str(ClaimRole) }

// ExpiresAt returns the exp claim, if present and numeric.
func (c Claims) ExpiresAt() (time.Time, bool) {
	return c.numericDate(ClaimExpiresAt)
}

// IssuedAt returns the iat claim, if present and numeric.
func (c Claims) IssuedAt() (time.Time, bool) {
	return c.numericDate(ClaimIssuedAt)
}

func (c Claims) str(name string) string {
	s, _ := c[name].(string)
	return s
}

func (c Claims) numericDate(name string) (time.Time, bool) {
	var secs float64
	switch v := c[name].(type) {
	case float64:
		secs = v
	case int64:
		secs = float64(v)
	case int:
		secs = float64(v)
	case json.Number:
		f, err := v.Float64()
		if err != nil {
			return time.Time{}, false
		}
		secs = f
	default:
		return time.Time{}, false
	}
	return time.Unix(int64(secs), 0), true
}

func (c Claims) clone() Claims {
	out := make(Claims, len(c)+2)
	for k, v := range c {
		out[k] = v
	}
	return out
}
