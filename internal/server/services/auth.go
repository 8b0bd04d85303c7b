// Package services contains server-side business logic. AuthService handles
// registration, login with lockout, token authentication and password
// management on top of the security package.
package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/corpopadel/padel-auth/internal/common"
	"github.com/corpopadel/padel-auth/internal/dbx"
	"github.com/corpopadel/padel-auth/internal/logging"
	"github.com/corpopadel/padel-auth/internal/security"
	"github.com/corpopadel/padel-auth/internal/server/models"
	"github.com/corpopadel/padel-auth/internal/server/repositories/repomanager"
	"github.com/corpopadel/padel-auth/internal/validation"
)

// Session is what a successful register or login hands back to the caller.
type Session struct {
	AccessToken string
	TokenType   string
	ExpiresIn   time.Duration
	User        *models.User
}

type AuthService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	tokens      *security.Manager
	policy      LockoutPolicy
	logger      logging.Logger

	now             func() time.Time
	newTempPassword func() (string, error)

	// dummyHash is verified against when the email is unknown, so that case
	// costs as much as a wrong password.
	dummyHash func() string
}

func NewAuthService(db *sql.DB, m repomanager.RepositoryManager, tokens *security.Manager, policy LockoutPolicy, l logging.Logger) *AuthService {
	dummy := sync.OnceValue(func() string {
		h, _ := tokens.HashPassword("padel-auth-unknown-account")
		return h
	})
	return &AuthService{
		db:              db,
		repomanager:     m,
		tokens:          tokens,
		policy:          policy,
		logger:          l.With("module", "auth_service"),
		now:             time.Now,
		newTempPassword: common.GenerateTemporaryPassword,
		dummyHash:       dummy,
	}
}

// Register creates an active player account and logs it in.
func (s *AuthService) Register(ctx context.Context, email, password string) (*Session, error) {
	email = validation.NormalizeEmail(email)
	if err := validation.ValidateEmail(email); err != nil {
		return nil, err
	}
	if err := validation.ValidatePassword(password); err != nil {
		return nil, err
	}

	hash, err := s.tokens.HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("error hashing password: %w", err)
	}

	user, err := s.repomanager.Users(s.db).Create(ctx, &models.User{
		Email:        email,
		PasswordHash: hash,
		Role:         models.RolePlayer,
		IsActive:     true,
	})
	if err != nil {
		return nil, fmt.Errorf("error creating user: %w", err)
	}

	s.logger.Info(ctx, "user registered", "user_id", user.ID)
	return s.issueSession(user)
}

// Login checks credentials for email coming from ip. Repeated failures lock
// the email and the IP; an empty ip disables IP tracking.
func (s *AuthService) Login(ctx context.Context, email, password, ip string) (*Session, error) {
	email = validation.NormalizeEmail(email)
	now := s.now()

	if err := s.checkLocks(ctx, email, ip, now); err != nil {
		return nil, err
	}

	user, err := s.repomanager.Users(s.db).GetByEmail(ctx, email)
	if err != nil && !errors.Is(err, common.ErrorNotFound) {
		return nil, fmt.Errorf("error loading user: %w", err)
	}
	if user == nil {
		s.tokens.VerifyPassword(password, s.dummyHash())
		return nil, s.recordFailure(ctx, email, ip, now)
	}
	if !s.tokens.VerifyPassword(password, user.PasswordHash) {
		return nil, s.recordFailure(ctx, email, ip, now)
	}

	if !user.IsActive {
		return nil, common.ErrAccountDisabled
	}

	if err := s.resetAttempts(ctx, email, ip); err != nil {
		return nil, err
	}

	s.rehashIfNeeded(ctx, user, password)

	s.logger.Info(ctx, "user logged in", "user_id", user.ID)
	return s.issueSession(user)
}

// Authenticate resolves a bearer token to an active user.
func (s *AuthService) Authenticate(ctx context.Context, token string) (*models.User, error) {
	claims, ok := s.tokens.DecodeToken(token)
	if !ok {
		return nil, common.ErrorUnauthorized
	}
	id, err := strconv.ParseInt(claims.Subject(), 10, 64)
	if err != nil {
		return nil, common.ErrorUnauthorized
	}

	user, err := s.repomanager.Users(s.db).GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrorUnauthorized
		}
		return nil, fmt.Errorf("error loading user: %w", err)
	}
	if !user.IsActive {
		return nil, common.ErrAccountDisabled
	}
	return user, nil
}

// Introspect decodes token without touching the database.
func (s *AuthService) Introspect(token string) (security.Claims, bool) {
	return s.tokens.DecodeToken(token)
}

func (s *AuthService) Me(ctx context.Context, userID int64) (*models.User, error) {
	return s.repomanager.Users(s.db).GetByID(ctx, userID)
}

// ChangePassword replaces the password of an authenticated user and clears
// the must-change flag.
func (s *AuthService) ChangePassword(ctx context.Context, user *models.User, current, next string) error {
	if !s.tokens.VerifyPassword(current, user.PasswordHash) {
		return common.ErrWrongPassword
	}
	if err := validation.ValidatePassword(next); err != nil {
		return err
	}
	if s.tokens.VerifyPassword(next, user.PasswordHash) {
		return common.ErrSamePassword
	}

	hash, err := s.tokens.HashPassword(next)
	if err != nil {
		return fmt.Errorf("error hashing password: %w", err)
	}
	if err := s.repomanager.Users(s.db).UpdatePassword(ctx, user.ID, hash, false); err != nil {
		return fmt.Errorf("error updating password: %w", err)
	}

	user.PasswordHash = hash
	user.MustChangePassword = false
	s.logger.Info(ctx, "password changed", "user_id", user.ID)
	return nil
}

// ResetPassword gives userID a random temporary password that must be changed
// at next login and lifts any email lockout. The plaintext is returned once.
func (s *AuthService) ResetPassword(ctx context.Context, userID int64) (string, error) {
	var temp string
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		users := s.repomanager.Users(tx)
		user, err := users.GetByID(ctx, userID)
		if err != nil {
			return err
		}

		temp, err = s.newTempPassword()
		if err != nil {
			return fmt.Errorf("error generating password: %w", err)
		}
		hash, err := s.tokens.HashPassword(temp)
		if err != nil {
			return fmt.Errorf("error hashing password: %w", err)
		}
		if err := users.UpdatePassword(ctx, user.ID, hash, true); err != nil {
			return err
		}
		return s.repomanager.LoginAttempts(tx).Reset(ctx, models.AttemptByEmail, user.Email)
	})
	if err != nil {
		return "", fmt.Errorf("error resetting password: %w", err)
	}

	s.logger.Info(ctx, "password reset by administrator", "user_id", userID)
	return temp, nil
}

// CreateAccount is the administrator path to a new account: the user gets a
// random temporary password, returned once, and must change it at first
// login. An empty role means RolePlayer.
func (s *AuthService) CreateAccount(ctx context.Context, email string, role models.Role) (*models.User, string, error) {
	email = validation.NormalizeEmail(email)
	if err := validation.ValidateEmail(email); err != nil {
		return nil, "", err
	}
	if role == "" {
		role = models.RolePlayer
	}
	if !role.Valid() {
		return nil, "", &common.ValidationError{Field: "role", Message: "role must be JOUEUR or ADMINISTRATEUR"}
	}

	temp, err := s.newTempPassword()
	if err != nil {
		return nil, "", fmt.Errorf("error generating password: %w", err)
	}
	hash, err := s.tokens.HashPassword(temp)
	if err != nil {
		return nil, "", fmt.Errorf("error hashing password: %w", err)
	}

	user, err := s.repomanager.Users(s.db).Create(ctx, &models.User{
		Email:              email,
		PasswordHash:       hash,
		Role:               role,
		IsActive:           true,
		MustChangePassword: true,
	})
	if err != nil {
		return nil, "", fmt.Errorf("error creating user: %w", err)
	}

	s.logger.Info(ctx, "account created by administrator", "user_id", user.ID, "role", user.Role)
	return user, temp, nil
}

// SetAccountActive enables or disables userID on behalf of admin. A disabled
// account can neither log in nor use tokens it already holds. Administrators
// cannot disable themselves.
func (s *AuthService) SetAccountActive(ctx context.Context, admin *models.User, userID int64, active bool) (*models.User, error) {
	if !active && admin.ID == userID {
		return nil, &common.ValidationError{Field: "is_active", Message: "cannot deactivate your own account"}
	}

	var user *models.User
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		users := s.repomanager.Users(tx)
		if err := users.SetActive(ctx, userID, active); err != nil {
			return err
		}
		var err error
		user, err = users.GetByID(ctx, userID)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("error updating account: %w", err)
	}

	s.logger.Info(ctx, "account status changed", "admin_id", admin.ID, "user_id", userID, "active", active)
	return user, nil
}

// SetPassword overwrites the password of the account identified by email and
// checks the stored hash verifies. Used by the operator CLI.
func (s *AuthService) SetPassword(ctx context.Context, email, password string) error {
	email = validation.NormalizeEmail(email)
	if err := validation.ValidatePassword(password); err != nil {
		return err
	}

	users := s.repomanager.Users(s.db)
	user, err := users.GetByEmail(ctx, email)
	if err != nil {
		return fmt.Errorf("error loading user: %w", err)
	}

	hash, err := s.tokens.HashPassword(password)
	if err != nil {
		return fmt.Errorf("error hashing password: %w", err)
	}
	if err := users.UpdatePassword(ctx, user.ID, hash, false); err != nil {
		return fmt.Errorf("error updating password: %w", err)
	}

	stored, err := users.GetByID(ctx, user.ID)
	if err != nil {
		return fmt.Errorf("error reloading user: %w", err)
	}
	if !s.tokens.VerifyPassword(password, stored.PasswordHash) {
		return fmt.Errorf("stored hash does not verify: %w", common.ErrorInternal)
	}
	return nil
}

// --- helpers below ---

type attemptKey struct {
	kind models.AttemptKind
	key  string
}

func attemptKeys(email, ip string) []attemptKey {
	keys := []attemptKey{{kind: models.AttemptByEmail, key: email}}
	if ip != "" {
		keys = append(keys, attemptKey{kind: models.AttemptByIP, key: ip})
	}
	return keys
}

// checkLocks refuses the login early when the IP or the email is locked.
func (s *AuthService) checkLocks(ctx context.Context, email, ip string, now time.Time) error {
	repo := s.repomanager.LoginAttempts(s.db)
	keys := attemptKeys(email, ip)
	// IP first so a locked client learns nothing about the account
	for i := len(keys) - 1; i >= 0; i-- {
		a, err := repo.Get(ctx, keys[i].kind, keys[i].key)
		if errors.Is(err, common.ErrorNotFound) {
			continue
		}
		if err != nil {
			return fmt.Errorf("error reading login attempts: %w", err)
		}
		if a.LockedAt(now) {
			return lockoutError(*a.LockedUntil, now)
		}
	}
	return nil
}

func (s *AuthService) recordFailure(ctx context.Context, email, ip string, now time.Time) error {
	var lockErr *common.LockoutError
	remaining := s.policy.MaxAttempts

	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.LoginAttempts(tx)
		for _, k := range attemptKeys(email, ip) {
			// row lock serialises concurrent failures on the same key
			a, err := repo.GetForUpdate(ctx, k.kind, k.key, now)
			if errors.Is(err, common.ErrorNotFound) {
				a = &models.LoginAttempt{Kind: k.kind, Key: k.key}
			} else if err != nil {
				return err
			}

			if s.policy.registerFailure(a, now) && lockErr == nil {
				lockErr = lockoutError(*a.LockedUntil, now)
			}
			remaining = min(remaining, s.policy.remaining(a))

			if err := repo.Save(ctx, a); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("error recording failed login: %w", err)
	}

	if lockErr != nil {
		s.logger.Warn(ctx, "login locked after repeated failures", "ip", ip, "locked_until", lockErr.LockedUntil)
		return lockErr
	}
	return &common.AttemptsError{Remaining: remaining}
}

func (s *AuthService) resetAttempts(ctx context.Context, email, ip string) error {
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.LoginAttempts(tx)
		for _, k := range attemptKeys(email, ip) {
			if err := repo.Reset(ctx, k.kind, k.key); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("error resetting login attempts: %w", err)
	}
	return nil
}

// rehashIfNeeded upgrades a stored hash to the configured algorithm and cost.
// Failures are logged only; the login itself already succeeded.
func (s *AuthService) rehashIfNeeded(ctx context.Context, user *models.User, password string) {
	if !s.tokens.NeedsRehash(user.PasswordHash) {
		return
	}
	hash, err := s.tokens.HashPassword(password)
	if err == nil {
		err = s.repomanager.Users(s.db).UpdatePassword(ctx, user.ID, hash, user.MustChangePassword)
	}
	if err != nil {
		s.logger.Warn(ctx, "password rehash failed", "user_id", user.ID, "error", err)
		return
	}
	user.PasswordHash = hash
}

func (s *AuthService) issueSession(user *models.User) (*Session, error) {
	claims := security.NewClaims(user.Subject(), user.Email, string(user.Role))
	token, err := s.tokens.CreateAccessToken(claims)
	if err != nil {
		return nil, fmt.Errorf("error issuing token: %v: %w", err, common.ErrorInternal)
	}
	return &Session{
		AccessToken: token,
		TokenType:   common.TokenType,
		ExpiresIn:   s.tokens.ExpiresIn(),
		User:        user,
	}, nil
}
