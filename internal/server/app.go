// Package server wires configuration, storage, the authentication service
// and both transports, and runs them until a termination signal arrives.
package server

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/corpopadel/padel-auth/internal/logging"
	"github.com/corpopadel/padel-auth/internal/security"
	"github.com/corpopadel/padel-auth/internal/server/config"
	"github.com/corpopadel/padel-auth/internal/server/httpapi"
	"github.com/corpopadel/padel-auth/internal/server/repositories/repomanager"
	"github.com/corpopadel/padel-auth/internal/server/services"

	gs "github.com/corpopadel/padel-auth/internal/server/grpc"
)

type App struct {
	config      *config.Config
	logger      logging.Logger
	db          *sql.DB
	authService *services.AuthService
}

// NewApp validates the security and lockout settings before touching the
// database, so a misconfiguration stops the process at startup.
func NewApp(ctx context.Context, c *config.Config) (*App, error) {

	logger := logging.NewJSONLogger(os.Stdout, c.LogLevel)

	svc, db, err := OpenAuthService(ctx, c, logger)
	if err != nil {
		return nil, err
	}

	return &App{config: c, logger: logger, db: db, authService: svc}, nil
}

// OpenAuthService builds the security manager, connects to PostgreSQL, applies
// migrations and returns a ready AuthService. The caller closes the *sql.DB.
func OpenAuthService(ctx context.Context, c *config.Config, logger logging.Logger) (*services.AuthService, *sql.DB, error) {
	tokens, err := security.NewManager(c.Security())
	if err != nil {
		return nil, nil, err
	}

	policy := services.LockoutPolicy{
		MaxAttempts:     c.MaxLoginAttempts,
		LockoutDuration: c.LockoutDuration,
		AttemptWindow:   c.AttemptWindow,
	}
	if err := policy.Validate(); err != nil {
		return nil, nil, err
	}

	db, err := repomanager.Open(ctx, c.DatabaseDSN)
	if err != nil {
		return nil, nil, fmt.Errorf("db init error: %w", err)
	}

	rm := repomanager.NewPostgresRepositoryManager()
	if err := rm.RunMigrations(ctx, db); err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("migrations error: %w", err)
	}

	return services.NewAuthService(db, rm, tokens, policy, logger), db, nil
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	// Channel to catch OS signals.
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) startHTTPServer(ctx context.Context, cancelFunc context.CancelFunc) error {
	router := httpapi.NewRouter(app.authService, app.logger, httpapi.Options{
		RateLimitRPS:   app.config.RateLimitRPS,
		RateLimitBurst: app.config.RateLimitBurst,
	})

	s := httpapi.NewHTTPServer(app.config.EndpointAddrHTTP, router, app.logger)
	if err := s.Run(ctx); err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
		return err
	}
	return nil
}

func (app *App) startGRPCServer(ctx context.Context, cancelFunc context.CancelFunc) error {
	s := gs.NewGRPCServer(app.config.EndpointAddrGRPC, app.logger, app.authService)
	if err := s.Run(ctx); err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
		return err
	}
	return nil
}

// Run serves HTTP and gRPC until ctx is cancelled, a signal arrives or one of
// the servers fails. Server errors are joined into the result.
func (app *App) Run(ctx context.Context) error {

	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...")

	app.initSignalHandler(cancelFunc)

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		errs []error
	)
	run := func(start func(context.Context, context.CancelFunc) error) {
		defer wg.Done()
		if err := start(ctx, cancelFunc); err != nil {
			mu.Lock()
			errs = append(errs, err)
			mu.Unlock()
		}
	}

	wg.Add(2)
	go run(app.startHTTPServer)
	go run(app.startGRPCServer)
	wg.Wait()

	if err := app.db.Close(); err != nil {
		errs = append(errs, err)
	}
	app.logger.Info(context.Background(), "App stopped")

	return errors.Join(errs...)
}
