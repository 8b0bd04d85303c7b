package httpapi

import (
	"errors"
	"net/http"
	"time"

	"github.com/corpopadel/padel-auth/internal/common"
)

type lockoutDetail struct {
	Message          string    `json:"message"`
	LockedUntil      time.Time `json:"locked_until"`
	MinutesRemaining int       `json:"minutes_remaining"`
}

type attemptsDetail struct {
	Message           string `json:"message"`
	AttemptsRemaining int    `json:"attempts_remaining"`
}

// writeServiceError maps a service error to its HTTP status and detail.
// Unknown errors are logged and answered with a generic 500.
func (a *api) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		lockout  *common.LockoutError
		attempts *common.AttemptsError
		invalid  *common.ValidationError
	)

	switch {
	case errors.As(err, &invalid):
		writeError(w, http.StatusBadRequest, invalid.Message)
	case errors.As(err, &lockout):
		writeError(w, http.StatusForbidden, lockoutDetail{
			Message:          "account locked after too many failed attempts",
			LockedUntil:      lockout.LockedUntil.UTC(),
			MinutesRemaining: lockout.MinutesRemaining,
		})
	case errors.As(err, &attempts):
		writeError(w, http.StatusUnauthorized, attemptsDetail{
			Message:           "invalid email or password",
			AttemptsRemaining: attempts.Remaining,
		})
	case errors.Is(err, common.ErrEmailTaken),
		errors.Is(err, common.ErrWrongPassword),
		errors.Is(err, common.ErrSamePassword):
		writeError(w, http.StatusBadRequest, rootMessage(err))
	case errors.Is(err, common.ErrAccountDisabled):
		writeError(w, http.StatusForbidden, "account disabled")
	case errors.Is(err, common.ErrorUnauthorized):
		writeError(w, http.StatusUnauthorized, "invalid token")
	case errors.Is(err, common.ErrorForbidden):
		writeError(w, http.StatusForbidden, "forbidden")
	case errors.Is(err, common.ErrorNotFound):
		writeError(w, http.StatusNotFound, "user not found")
	default:
		a.logger.Error(r.Context(), "request failed", "path", r.URL.Path, "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}

// rootMessage returns the message of the sentinel at the bottom of err.
func rootMessage(err error) string {
	for {
		next := errors.Unwrap(err)
		if next == nil {
			return err.Error()
		}
		err = next
	}
}
