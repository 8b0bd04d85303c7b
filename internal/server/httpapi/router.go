// Package httpapi exposes the authentication service over REST with chi.
package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/corpopadel/padel-auth/internal/logging"
	"github.com/corpopadel/padel-auth/internal/server/models"
	"github.com/corpopadel/padel-auth/internal/server/services"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// AuthService is the part of services.AuthService the handlers need.
type AuthService interface {
	Register(ctx context.Context, email, password string) (*services.Session, error)
	Login(ctx context.Context, email, password, ip string) (*services.Session, error)
	Authenticate(ctx context.Context, token string) (*models.User, error)
	ChangePassword(ctx context.Context, user *models.User, current, next string) error
	ResetPassword(ctx context.Context, userID int64) (string, error)
	CreateAccount(ctx context.Context, email string, role models.Role) (*models.User, string, error)
	SetAccountActive(ctx context.Context, admin *models.User, userID int64, active bool) (*models.User, error)
}

// Options tunes the router. Zero values pick the defaults.
type Options struct {
	// RateLimitRPS and RateLimitBurst bound /api/v1/auth requests per client IP.
	RateLimitRPS   int
	RateLimitBurst int
	RequestTimeout time.Duration
	Version        string
}

type api struct {
	auth    AuthService
	logger  logging.Logger
	version string
}

// NewRouter builds the chi router with baseline middleware and routes.
func NewRouter(svc AuthService, l logging.Logger, opts Options) http.Handler {
	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = 30 * time.Second
	}
	if opts.Version == "" {
		opts.Version = "1.0.0"
	}

	a := &api{auth: svc, logger: l.With("module", "http_api"), version: opts.Version}
	limiter := newRequestRateLimiter(opts.RateLimitRPS, opts.RateLimitBurst, 10*time.Minute)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(a.requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(opts.RequestTimeout))
	r.Use(securityHeaders)

	r.Get("/", a.handleRoot)
	r.Get("/health", healthHandler)

	r.Route("/api/v1", func(v1 chi.Router) {
		v1.Get("/health", healthHandler)

		v1.Route("/auth", func(auth chi.Router) {
			auth.Use(limiter.middleware)
			auth.Post("/register", a.handleRegister)
			auth.Post("/login", a.handleLogin)

			auth.Group(func(private chi.Router) {
				private.Use(a.authenticate)
				private.Post("/change-password", a.handleChangePassword)
				private.Post("/logout", a.handleLogout)
				private.Get("/me", a.handleMe)
			})
		})

		v1.Group(func(admin chi.Router) {
			admin.Use(a.authenticate)
			admin.Use(a.requireRole(models.RoleAdmin))
			admin.Post("/admin/accounts", a.handleAdminCreateAccount)
			admin.Patch("/admin/accounts/{userID}", a.handleAdminSetActive)
			admin.Post("/admin/accounts/{userID}/reset-password", a.handleAdminResetPassword)
		})
	})

	return r
}

func healthHandler(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func (a *api) handleRoot(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"message": "Corpo Padel authentication API",
		"version": a.version,
	})
}
