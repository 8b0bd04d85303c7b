package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/corpopadel/padel-auth/internal/common"
	"github.com/corpopadel/padel-auth/internal/logging"
	"github.com/corpopadel/padel-auth/internal/server/models"
	"github.com/corpopadel/padel-auth/internal/server/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type nopLogger struct{}

func (n nopLogger) Debug(context.Context, string, ...any) {}
func (n nopLogger) Info(context.Context, string, ...any)  {}
func (n nopLogger) Warn(context.Context, string, ...any)  {}
func (n nopLogger) Error(context.Context, string, ...any) {}
func (n nopLogger) With(...any) logging.Logger            { return n }

var (
	player = &models.User{ID: 7, Email: "joueur@corpo-padel.fr", Role: models.RolePlayer, IsActive: true}
	admin  = &models.User{ID: 1, Email: "admin@corpo-padel.fr", Role: models.RoleAdmin, IsActive: true}
)

// fakeAuth resolves the tokens "player-token" and "admin-token".
type fakeAuth struct {
	registerErr error
	loginErr    error
	changeErr   error
	resetErr    error
	createErr   error
	activeErr   error

	lastLoginIP   string
	lastChange    [2]string
	lastResetUser int64
	lastCreate    [2]string
	lastActive    *bool
	lastActiveBy  int64
}

func (f *fakeAuth) session(u *models.User) *services.Session {
	return &services.Session{AccessToken: "tok-" + u.Email, TokenType: "bearer", ExpiresIn: 24 * time.Hour, User: u}
}

func (f *fakeAuth) Register(_ context.Context, email, _ string) (*services.Session, error) {
	if f.registerErr != nil {
		return nil, f.registerErr
	}
	return f.session(&models.User{ID: 99, Email: email, Role: models.RolePlayer, IsActive: true}), nil
}

func (f *fakeAuth) Login(_ context.Context, email, _ string, ip string) (*services.Session, error) {
	f.lastLoginIP = ip
	if f.loginErr != nil {
		return nil, f.loginErr
	}
	return f.session(&models.User{ID: 7, Email: email, Role: models.RolePlayer, IsActive: true}), nil
}

func (f *fakeAuth) Authenticate(_ context.Context, token string) (*models.User, error) {
	switch token {
	case "player-token":
		u := *player
		return &u, nil
	case "admin-token":
		u := *admin
		return &u, nil
	case "disabled-token":
		return nil, common.ErrAccountDisabled
	}
	return nil, common.ErrorUnauthorized
}

func (f *fakeAuth) ChangePassword(_ context.Context, _ *models.User, current, next string) error {
	f.lastChange = [2]string{current, next}
	return f.changeErr
}

func (f *fakeAuth) ResetPassword(_ context.Context, userID int64) (string, error) {
	f.lastResetUser = userID
	if f.resetErr != nil {
		return "", f.resetErr
	}
	return "Tmp!Pass1234abcd", nil
}

func (f *fakeAuth) CreateAccount(_ context.Context, email string, role models.Role) (*models.User, string, error) {
	f.lastCreate = [2]string{email, string(role)}
	if f.createErr != nil {
		return nil, "", f.createErr
	}
	if role == "" {
		role = models.RolePlayer
	}
	return &models.User{ID: 12, Email: email, Role: role, IsActive: true, MustChangePassword: true}, "Tmp!Pass1234abcd", nil
}

func (f *fakeAuth) SetAccountActive(_ context.Context, by *models.User, userID int64, active bool) (*models.User, error) {
	f.lastActive = &active
	f.lastActiveBy = by.ID
	if f.activeErr != nil {
		return nil, f.activeErr
	}
	return &models.User{ID: userID, Email: "joueur@corpo-padel.fr", Role: models.RolePlayer, IsActive: active}, nil
}

func newTestRouter(f *fakeAuth) http.Handler {
	return NewRouter(f, nopLogger{}, Options{RateLimitRPS: 1000, RateLimitBurst: 1000})
}

func requestJSON(t *testing.T, r http.Handler, method, path string, body any, token string) *httptest.ResponseRecorder {
	t.Helper()

	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		require.NoError(t, err)
	}

	req := httptest.NewRequest(method, path, bytes.NewBuffer(payload))
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)
	return rr
}

func decodeBody(t *testing.T, rr *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &out), rr.Body.String())
	return out
}

func TestHealthAndRoot(t *testing.T) {
	r := newTestRouter(&fakeAuth{})

	for _, path := range []string{"/health", "/api/v1/health"} {
		rr := requestJSON(t, r, http.MethodGet, path, nil, "")
		assert.Equal(t, http.StatusOK, rr.Code)
		assert.Equal(t, "healthy", decodeBody(t, rr)["status"])
	}

	rr := requestJSON(t, r, http.MethodGet, "/", nil, "")
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "1.0.0", decodeBody(t, rr)["version"])
}

func TestSecurityHeaders(t *testing.T) {
	rr := requestJSON(t, newTestRouter(&fakeAuth{}), http.MethodGet, "/health", nil, "")

	assert.Equal(t, "nosniff", rr.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "DENY", rr.Header().Get("X-Frame-Options"))
	assert.Equal(t, "1; mode=block", rr.Header().Get("X-XSS-Protection"))
}

func TestRegister(t *testing.T) {
	r := newTestRouter(&fakeAuth{})

	rr := requestJSON(t, r, http.MethodPost, "/api/v1/auth/register", map[string]string{"email": "new@corpo-padel.fr", "password": "Padel2026!"}, "")
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())

	body := decodeBody(t, rr)
	assert.Equal(t, "tok-new@corpo-padel.fr", body["access_token"])
	assert.Equal(t, "bearer", body["token_type"])
	assert.EqualValues(t, 86400, body["expires_in"])
	user := body["user"].(map[string]any)
	assert.Equal(t, "JOUEUR", user["role"])
	assert.Equal(t, true, user["is_active"])
	assert.Equal(t, false, user["must_change_password"])
	assert.NotContains(t, user, "password_hash")
}

func TestRegister_Errors(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		body   any
		status int
		detail string
	}{
		{name: "bad json", body: "not-an-object", status: http.StatusBadRequest, detail: "invalid request body"},
		{name: "validation", err: &common.ValidationError{Field: "email", Message: "invalid email format"}, status: http.StatusBadRequest, detail: "invalid email format"},
		{name: "taken", err: fmt.Errorf("error creating user: %w", common.ErrEmailTaken), status: http.StatusBadRequest, detail: "email already in use"},
		{name: "internal", err: fmt.Errorf("db down"), status: http.StatusInternalServerError, detail: "internal server error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newTestRouter(&fakeAuth{registerErr: tt.err})
			body := tt.body
			if body == nil {
				body = map[string]string{"email": "x@corpo-padel.fr", "password": "Padel2026!"}
			}
			rr := requestJSON(t, r, http.MethodPost, "/api/v1/auth/register", body, "")
			assert.Equal(t, tt.status, rr.Code)
			assert.Equal(t, tt.detail, decodeBody(t, rr)["detail"])
		})
	}
}

func TestLogin_PassesClientIP(t *testing.T) {
	f := &fakeAuth{}
	r := newTestRouter(f)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", bytes.NewBufferString(`{"email":"joueur@corpo-padel.fr","password":"Padel2026!"}`))
	req.Header.Set("X-Forwarded-For", "203.0.113.9, 10.0.0.1")
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	assert.Equal(t, "203.0.113.9", f.lastLoginIP)
}

func TestLogin_Errors(t *testing.T) {
	until := time.Date(2026, 5, 10, 14, 30, 0, 0, time.UTC)

	t.Run("missing fields", func(t *testing.T) {
		rr := requestJSON(t, newTestRouter(&fakeAuth{}), http.MethodPost, "/api/v1/auth/login", map[string]string{"email": "a@b.fr"}, "")
		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("bad credentials", func(t *testing.T) {
		r := newTestRouter(&fakeAuth{loginErr: &common.AttemptsError{Remaining: 3}})
		rr := requestJSON(t, r, http.MethodPost, "/api/v1/auth/login", map[string]string{"email": "a@b.fr", "password": "x"}, "")
		require.Equal(t, http.StatusUnauthorized, rr.Code)
		detail := decodeBody(t, rr)["detail"].(map[string]any)
		assert.EqualValues(t, 3, detail["attempts_remaining"])
	})

	t.Run("locked", func(t *testing.T) {
		r := newTestRouter(&fakeAuth{loginErr: &common.LockoutError{LockedUntil: until, MinutesRemaining: 30}})
		rr := requestJSON(t, r, http.MethodPost, "/api/v1/auth/login", map[string]string{"email": "a@b.fr", "password": "x"}, "")
		require.Equal(t, http.StatusForbidden, rr.Code)
		detail := decodeBody(t, rr)["detail"].(map[string]any)
		assert.EqualValues(t, 30, detail["minutes_remaining"])
		assert.Equal(t, "2026-05-10T14:30:00Z", detail["locked_until"])
	})

	t.Run("disabled", func(t *testing.T) {
		r := newTestRouter(&fakeAuth{loginErr: common.ErrAccountDisabled})
		rr := requestJSON(t, r, http.MethodPost, "/api/v1/auth/login", map[string]string{"email": "a@b.fr", "password": "x"}, "")
		assert.Equal(t, http.StatusForbidden, rr.Code)
		assert.Equal(t, "account disabled", decodeBody(t, rr)["detail"])
	})
}

func TestProtectedRoutes_RequireBearer(t *testing.T) {
	r := newTestRouter(&fakeAuth{})

	rr := requestJSON(t, r, http.MethodGet, "/api/v1/auth/me", nil, "")
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
	assert.Equal(t, "not authenticated", decodeBody(t, rr)["detail"])

	rr = requestJSON(t, r, http.MethodGet, "/api/v1/auth/me", nil, "forged")
	assert.Equal(t, http.StatusUnauthorized, rr.Code)

	rr = requestJSON(t, r, http.MethodGet, "/api/v1/auth/me", nil, "disabled-token")
	assert.Equal(t, http.StatusForbidden, rr.Code)
}

func TestMeAndLogout(t *testing.T) {
	r := newTestRouter(&fakeAuth{})

	rr := requestJSON(t, r, http.MethodGet, "/api/v1/auth/me", nil, "player-token")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "joueur@corpo-padel.fr", decodeBody(t, rr)["email"])

	rr = requestJSON(t, r, http.MethodPost, "/api/v1/auth/logout", nil, "player-token")
	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestChangePassword(t *testing.T) {
	f := &fakeAuth{}
	r := newTestRouter(f)

	rr := requestJSON(t, r, http.MethodPost, "/api/v1/auth/change-password",
		map[string]string{"current_password": "old-pass-1", "new_password": "new-pass-1"}, "player-token")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, [2]string{"old-pass-1", "new-pass-1"}, f.lastChange)

	f.changeErr = common.ErrWrongPassword
	rr = requestJSON(t, r, http.MethodPost, "/api/v1/auth/change-password",
		map[string]string{"current_password": "bad", "new_password": "new-pass-1"}, "player-token")
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, common.ErrWrongPassword.Error(), decodeBody(t, rr)["detail"])
}

func TestAdminResetPassword(t *testing.T) {
	f := &fakeAuth{}
	r := newTestRouter(f)
	path := "/api/v1/admin/accounts/7/reset-password"

	rr := requestJSON(t, r, http.MethodPost, path, nil, "player-token")
	assert.Equal(t, http.StatusForbidden, rr.Code)

	rr = requestJSON(t, r, http.MethodPost, path, nil, "")
	assert.Equal(t, http.StatusUnauthorized, rr.Code)

	rr = requestJSON(t, r, http.MethodPost, path, nil, "admin-token")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "Tmp!Pass1234abcd", decodeBody(t, rr)["temporary_password"])
	assert.EqualValues(t, 7, f.lastResetUser)

	rr = requestJSON(t, r, http.MethodPost, "/api/v1/admin/accounts/abc/reset-password", nil, "admin-token")
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	f.resetErr = fmt.Errorf("error resetting password: %w", common.ErrorNotFound)
	rr = requestJSON(t, r, http.MethodPost, path, nil, "admin-token")
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestRateLimit(t *testing.T) {
	r := NewRouter(&fakeAuth{}, nopLogger{}, Options{RateLimitRPS: 1, RateLimitBurst: 2})
	body := map[string]string{"email": "a@b.fr", "password": "Padel2026!"}

	codes := make([]int, 0, 3)
	for range 3 {
		codes = append(codes, requestJSON(t, r, http.MethodPost, "/api/v1/auth/login", body, "").Code)
	}
	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)

	// health is outside the limited group
	assert.Equal(t, http.StatusOK, requestJSON(t, r, http.MethodGet, "/health", nil, "").Code)
}

func TestAdminCreateAccount(t *testing.T) {
	f := &fakeAuth{}
	r := newTestRouter(f)
	body := map[string]string{"email": "capitaine@corpo-padel.fr", "role": "ADMINISTRATEUR"}

	rr := requestJSON(t, r, http.MethodPost, "/api/v1/admin/accounts", body, "player-token")
	assert.Equal(t, http.StatusForbidden, rr.Code)

	rr = requestJSON(t, r, http.MethodPost, "/api/v1/admin/accounts", body, "admin-token")
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	out := decodeBody(t, rr)
	assert.Equal(t, "Tmp!Pass1234abcd", out["temporary_password"])
	assert.NotEmpty(t, out["warning"])
	user := out["user"].(map[string]any)
	assert.Equal(t, "ADMINISTRATEUR", user["role"])
	assert.Equal(t, true, user["must_change_password"])
	assert.Equal(t, [2]string{"capitaine@corpo-padel.fr", "ADMINISTRATEUR"}, f.lastCreate)

	rr = requestJSON(t, r, http.MethodPost, "/api/v1/admin/accounts", map[string]string{"mail": "x"}, "admin-token")
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	f.createErr = &common.ValidationError{Field: "role", Message: "role must be JOUEUR or ADMINISTRATEUR"}
	rr = requestJSON(t, r, http.MethodPost, "/api/v1/admin/accounts", body, "admin-token")
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	f.createErr = fmt.Errorf("error creating user: %w", common.ErrEmailTaken)
	rr = requestJSON(t, r, http.MethodPost, "/api/v1/admin/accounts", body, "admin-token")
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, common.ErrEmailTaken.Error(), decodeBody(t, rr)["detail"])
}

func TestAdminSetActive(t *testing.T) {
	f := &fakeAuth{}
	r := newTestRouter(f)
	path := "/api/v1/admin/accounts/7"

	rr := requestJSON(t, r, http.MethodPatch, path, map[string]bool{"is_active": false}, "player-token")
	assert.Equal(t, http.StatusForbidden, rr.Code)
	assert.Nil(t, f.lastActive)

	rr = requestJSON(t, r, http.MethodPatch, path, map[string]bool{"is_active": false}, "admin-token")
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	assert.Equal(t, false, decodeBody(t, rr)["user"].(map[string]any)["is_active"])
	require.NotNil(t, f.lastActive)
	assert.False(t, *f.lastActive)
	assert.EqualValues(t, admin.ID, f.lastActiveBy)

	rr = requestJSON(t, r, http.MethodPatch, path, map[string]string{}, "admin-token")
	assert.Equal(t, http.StatusBadRequest, rr.Code, "is_active is required")

	rr = requestJSON(t, r, http.MethodPatch, "/api/v1/admin/accounts/0", map[string]bool{"is_active": true}, "admin-token")
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	f.activeErr = fmt.Errorf("error updating account: %w", common.ErrorNotFound)
	rr = requestJSON(t, r, http.MethodPatch, path, map[string]bool{"is_active": true}, "admin-token")
	assert.Equal(t, http.StatusNotFound, rr.Code)
}
