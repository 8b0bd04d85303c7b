package services

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/corpopadel/padel-auth/internal/common"
	"github.com/corpopadel/padel-auth/internal/server/models"
)

// LockoutPolicy bounds consecutive failed logins per email and per client IP.
type LockoutPolicy struct {
	MaxAttempts     int
	LockoutDuration time.Duration
	// AttemptWindow resets an IP counter whose last failure is older than it.
	// Email counters only reset on a successful login.
	AttemptWindow time.Duration
}

func DefaultLockoutPolicy() LockoutPolicy {
	return LockoutPolicy{
		MaxAttempts:     5,
		LockoutDuration: 30 * time.Minute,
		AttemptWindow:   15 * time.Minute,
	}
}

var ErrInvalidLockoutPolicy = errors.New("invalid lockout policy")

// Validate rejects a policy that would lock on the first failure or never
// release a lock.
func (p LockoutPolicy) Validate() error {
	switch {
	case p.MaxAttempts < 1:
		return fmt.Errorf("%w: max attempts must be at least 1, got %d", ErrInvalidLockoutPolicy, p.MaxAttempts)
	case p.LockoutDuration <= 0:
		return fmt.Errorf("%w: lockout duration must be positive", ErrInvalidLockoutPolicy)
	case p.AttemptWindow <= 0:
		return fmt.Errorf("%w: attempt window must be positive", ErrInvalidLockoutPolicy)
	}
	return nil
}

func (p LockoutPolicy) window(kind models.AttemptKind) time.Duration {
	if kind == models.AttemptByIP {
		return p.AttemptWindow
	}
	return 0
}

// registerFailure counts one failed login at now and reports whether the
// counter just reached the lock threshold.
func (p LockoutPolicy) registerFailure(a *models.LoginAttempt, now time.Time) bool {
	if w := p.window(a.Kind); w > 0 && !a.LastAttempt.IsZero() && now.Sub(a.LastAttempt) > w {
		a.AttemptsCount = 0
	}
	if a.LockedUntil != nil && !a.LockedAt(now) {
		// an expired lock starts a fresh series
		a.AttemptsCount = 0
		a.LockedUntil = nil
	}

	a.AttemptsCount++
	a.LastAttempt = now

	if a.AttemptsCount >= p.MaxAttempts {
		until := now.Add(p.LockoutDuration)
		a.LockedUntil = &until
		return true
	}
	return false
}

func (p LockoutPolicy) remaining(a *models.LoginAttempt) int {
	return max(p.MaxAttempts-a.AttemptsCount, 0)
}

func lockoutError(until, now time.Time) *common.LockoutError {
	minutes := int(math.Ceil(until.Sub(now).Minutes()))
	return &common.LockoutError{LockedUntil: until, MinutesRemaining: max(minutes, 0)}
}
