package services

import (
	"context"
	"database/sql"
	"sync"
	"testing"
	"time"

	"github.com/corpopadel/padel-auth/internal/common"
	"github.com/corpopadel/padel-auth/internal/dbx"
	"github.com/corpopadel/padel-auth/internal/logging"
	"github.com/corpopadel/padel-auth/internal/security"
	"github.com/corpopadel/padel-auth/internal/server/models"
	"github.com/corpopadel/padel-auth/internal/server/repositories/loginattempts"
	"github.com/corpopadel/padel-auth/internal/server/repositories/users"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	_ "modernc.org/sqlite"
)

type errBoom struct{}

func (errBoom) Error() string { return "boom" }

type nopLogger struct{}

func (n nopLogger) Debug(context.Context, string, ...any) {}
func (n nopLogger) Info(context.Context, string, ...any)  {}
func (n nopLogger) Warn(context.Context, string, ...any)  {}
func (n nopLogger) Error(context.Context, string, ...any) {}
func (n nopLogger) With(...any) logging.Logger            { return n }

// --- users ---

type fakeUsersRepo struct {
	mu     sync.Mutex
	byID   map[int64]models.User
	nextID int64

	getErr    error
	updateErr error
}

func newFakeUsersRepo() *fakeUsersRepo {
	return &fakeUsersRepo{byID: map[int64]models.User{}}
}

func (f *fakeUsersRepo) Create(_ context.Context, u *models.User) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, existing := range f.byID {
		if existing.Email == u.Email {
			return nil, common.ErrEmailTaken
		}
	}
	f.nextID++
	out := *u
	out.ID = f.nextID
	out.CreatedAt = time.Now()
	f.byID[out.ID] = out
	return &out, nil
}

func (f *fakeUsersRepo) GetByEmail(_ context.Context, email string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return nil, f.getErr
	}
	for _, u := range f.byID {
		if u.Email == email {
			return &u, nil
		}
	}
	return nil, common.ErrorNotFound
}

func (f *fakeUsersRepo) GetByID(_ context.Context, id int64) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return nil, f.getErr
	}
	u, ok := f.byID[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return &u, nil
}

func (f *fakeUsersRepo) UpdatePassword(_ context.Context, id int64, hash string, mustChange bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.updateErr != nil {
		return f.updateErr
	}
	u, ok := f.byID[id]
	if !ok {
		return common.ErrorNotFound
	}
	u.PasswordHash = hash
	u.MustChangePassword = mustChange
	f.byID[id] = u
	return nil
}

func (f *fakeUsersRepo) SetActive(_ context.Context, id int64, active bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.byID[id]
	if !ok {
		return common.ErrorNotFound
	}
	u.IsActive = active
	f.byID[id] = u
	return nil
}

func (f *fakeUsersRepo) get(id int64) models.User {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.byID[id]
}

// --- login attempts ---

type fakeAttemptsRepo struct {
	mu   sync.Mutex
	rows map[attemptKey]models.LoginAttempt

	getErr  error
	saveErr error

	// lockedFor records GetForUpdate calls in order
	lockedFor []attemptKey
}

func newFakeAttemptsRepo() *fakeAttemptsRepo {
	return &fakeAttemptsRepo{rows: map[attemptKey]models.LoginAttempt{}}
}

func (f *fakeAttemptsRepo) Get(_ context.Context, kind models.AttemptKind, key string) (*models.LoginAttempt, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return nil, f.getErr
	}
	a, ok := f.rows[attemptKey{kind: kind, key: key}]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return &a, nil
}

func (f *fakeAttemptsRepo) GetForUpdate(_ context.Context, kind models.AttemptKind, key string, now time.Time) (*models.LoginAttempt, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return nil, f.getErr
	}
	k := attemptKey{kind: kind, key: key}
	f.lockedFor = append(f.lockedFor, k)
	a, ok := f.rows[k]
	if !ok {
		a = models.LoginAttempt{Kind: kind, Key: key, LastAttempt: now}
		f.rows[k] = a
	}
	return &a, nil
}

func (f *fakeAttemptsRepo) Save(_ context.Context, a *models.LoginAttempt) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.saveErr != nil {
		return f.saveErr
	}
	f.rows[attemptKey{kind: a.Kind, key: a.Key}] = *a
	return nil
}

func (f *fakeAttemptsRepo) Reset(_ context.Context, kind models.AttemptKind, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.rows, attemptKey{kind: kind, key: key})
	return nil
}

func (f *fakeAttemptsRepo) lookup(kind models.AttemptKind, key string) (models.LoginAttempt, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.rows[attemptKey{kind: kind, key: key}]
	return a, ok
}

// --- manager ---

type fakeRepoManager struct {
	u *fakeUsersRepo
	a *fakeAttemptsRepo
}

func (m *fakeRepoManager) RunMigrations(context.Context, *sql.DB) error       { return nil }
func (m *fakeRepoManager) Users(db dbx.DBTX) users.Repository                 { return m.u }
func (m *fakeRepoManager) LoginAttempts(db dbx.DBTX) loginattempts.Repository { return m.a }

type testClock struct{ t time.Time }

func (c *testClock) Now() time.Time          { return c.t }
func (c *testClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

type fixture struct {
	svc    *AuthService
	users  *fakeUsersRepo
	tries  *fakeAttemptsRepo
	tokens *security.Manager
	clock  *testClock
}

func newTxDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func newTestManager(t *testing.T) *security.Manager {
	t.Helper()
	m, err := security.NewManager(security.Config{Secret: "test-secret", BcryptCost: bcrypt.MinCost})
	require.NoError(t, err)
	return m
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		users:  newFakeUsersRepo(),
		tries:  newFakeAttemptsRepo(),
		tokens: newTestManager(t),
		clock:  &testClock{t: time.Date(2026, 5, 10, 14, 0, 0, 0, time.UTC)},
	}
	f.svc = NewAuthService(newTxDB(t), &fakeRepoManager{u: f.users, a: f.tries}, f.tokens, DefaultLockoutPolicy(), nopLogger{})
	f.svc.now = f.clock.Now
	return f
}

// seedUser stores an account with the given password and returns it.
func (f *fixture) seedUser(t *testing.T, email, password string, role models.Role, active bool) *models.User {
	t.Helper()
	hash, err := f.tokens.HashPassword(password)
	require.NoError(t, err)
	u, err := f.users.Create(context.Background(), &models.User{Email: email, PasswordHash: hash, Role: role, IsActive: active})
	require.NoError(t, err)
	return u
}
