package security

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v5"
)

var ErrMissingSubject = errors.New("claims must carry a non-empty string sub")

// CreateAccessToken copies claims, stamps iat and exp (now + ExpiresIn) over
// any caller-supplied values and returns the signed compact JWT.
func (m *Manager) CreateAccessToken(claims Claims) (string, error) {
	if claims.Subject() == "" {
		return "", ErrMissingSubject
	}

	now := m.now()
	payload := jwt.MapClaims(claims.clone())
	payload[ClaimIssuedAt] = jwt.NewNumericDate(now)
	payload[ClaimExpiresAt] = jwt.NewNumericDate(now.Add(m.cfg.ExpiresIn))

	signed, err := jwt.NewWithClaims(m.method, payload).SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// DecodeToken verifies token's structure, algorithm, signature and expiry
// and returns its claims. The boolean is false on any failure; callers must
// treat that uniformly as unauthenticated.
func (m *Manager) DecodeToken(token string) (Claims, bool) {
	parsed, err := jwt.Parse(token, m.keyFunc,
		jwt.WithValidMethods([]string{m.cfg.Algorithm}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(m.now),
		jwt.WithJSONNumber(),
	)
	if err != nil || !parsed.Valid {
		return nil, false
	}

	mc, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return nil, false
	}
	claims := make(Claims, len(mc))
	for k, v := range mc {
		claims[k] = normalizeNumber(v)
	}
	if claims.Subject() == "" {
		return nil, false
	}
	return claims, true
}

func (m *Manager) keyFunc(t *jwt.Token) (any, error) {
	if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
		return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
	}
	return m.secret, nil
}

// normalizeNumber turns decoded json.Number values back into int64 when they
// are integral and float64 otherwise, descending into objects and arrays.
func normalizeNumber(v any) any {
	switch x := v.(type) {
	case json.Number:
		if i, err := x.Int64(); err == nil {
			return i
		}
		f, _ := x.Float64()
		return f
	case map[string]any:
		for k, e := range x {
			x[k] = normalizeNumber(e)
		}
		return x
	case []any:
		for i, e := range x {
			x[i] = normalizeNumber(e)
		}
		return x
	}
	return v
}
