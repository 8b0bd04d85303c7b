package models

import "time"

// AttemptKind scopes a failed-login counter.
type AttemptKind string

const (
	AttemptByEmail AttemptKind = "email"
	AttemptByIP    AttemptKind = "ip"
)

// LoginAttempt counts consecutive failed logins for one email or client IP.
type LoginAttempt struct {
	Kind          AttemptKind
	Key           string
	AttemptsCount int
	LastAttempt   time.Time
	LockedUntil   *time.Time
}

// LockedAt reports whether the counter blocks logins at now.
func (a *LoginAttempt) LockedAt(now time.Time) bool {
	return a.LockedUntil != nil && a.LockedUntil.After(now)
}
