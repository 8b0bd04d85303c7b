// Package cli implements the operator command line: hashing a password for
// seeding and resetting an account password directly in the database.
package cli

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/corpopadel/padel-auth/internal/logging"
	"github.com/corpopadel/padel-auth/internal/security"
	"github.com/corpopadel/padel-auth/internal/server"
	"github.com/corpopadel/padel-auth/internal/server/config"
)

const usage = `usage:
  padel-auth-cli hash                     read a password and print its hash
  padel-auth-cli reset-password -email E  set a new password for account E`

var ErrUsage = errors.New(usage)

// PasswordSetter is the part of services.AuthService reset-password needs.
type PasswordSetter interface {
	SetPassword(ctx context.Context, email, password string) error
}

type App struct {
	config *config.Config
	out    io.Writer

	// openService connects to the database; the returned func releases it.
	openService func(ctx context.Context) (PasswordSetter, func(), error)
}

func NewApp(c *config.Config, out io.Writer) *App {
	a := &App{config: c, out: out}
	a.openService = func(ctx context.Context) (PasswordSetter, func(), error) {
		logger := logging.NewJSONLogger(os.Stderr, "warn")
		svc, db, err := server.OpenAuthService(ctx, c, logger)
		if err != nil {
			return nil, nil, err
		}
		return svc, func() { db.Close() }, nil
	}
	return a
}

func (a *App) Run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return ErrUsage
	}

	switch args[0] {
	case "hash":
		return a.hash()
	case "reset-password":
		return a.resetPassword(ctx, args[1:])
	default:
		return fmt.Errorf("unknown command %q\n%w", args[0], ErrUsage)
	}
}

func (a *App) hash() error {
	cfg := a.config.Security()
	if cfg.Secret == "" {
		// hashing never signs tokens
		cfg.Secret = "unused"
	}
	m, err := security.NewManager(cfg)
	if err != nil {
		return err
	}

	password, err := GetConfirmedPassword(a.out)
	if err != nil {
		return err
	}

	hash, err := m.HashPassword(password)
	if err != nil {
		return err
	}
	fmt.Fprintln(a.out, hash)
	return nil
}

func (a *App) resetPassword(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("reset-password", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	email := fs.String("email", "", "account email")
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("%v\n%w", err, ErrUsage)
	}
	if *email == "" {
		return ErrUsage
	}

	password, err := GetConfirmedPassword(a.out)
	if err != nil {
		return err
	}

	svc, release, err := a.openService(ctx)
	if err != nil {
		return err
	}
	defer release()

	if err := svc.SetPassword(ctx, *email, password); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "password updated for %s\n", *email)
	return nil
}
