// AngelaMos | 2026
// main_test.go

package main

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carterperez-dev/templates/identity-service/internal/account"
	"github.com/carterperez-dev/templates/identity-service/internal/config"
	"github.com/carterperez-dev/templates/identity-service/internal/core"
	"github.com/carterperez-dev/templates/identity-service/internal/health"
)

type envelope struct {
	Code    core.ResponseCode `json:"code"`
	Message string            `json:"message"`
	Data    json.RawMessage   `json:"data"`
}

type testApp struct {
	app *application
	srv *httptest.Server
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()
	ctx := context.Background()

	mr := miniredis.RunT(t)

	cfg := &config.Config{
		App: config.AppConfig{Name: "identity-test", Version: "test", Environment: "test"},
		Database: config.DatabaseConfig{
			Driver:     config.DriverSQLite,
			SQLiteFile: filepath.Join(t.TempDir(), "e2e.db"),
		},
		Redis: config.RedisConfig{
			URL:        "redis://" + mr.Addr(),
			PoolSize:   5,
			MaxRetries: -1,
		},
		Session: config.SessionConfig{TTL: time.Hour, CookieName: "session"},
		Site:    config.SiteConfig{EnableRegistration: true},
		Mail:    config.MailConfig{Enabled: true, From: "noreply@test.local"},
		Seed:    config.SeedConfig{SuperAdminUsername: "root", SuperAdminEmail: "admin@local.email"},
		RateLimit: config.RateLimitConfig{
			Requests:      10000,
			Burst:         10000,
			Window:        time.Minute,
			LoginRequests: 1000,
			LoginBurst:    1000,
		},
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	db, err := core.NewDatabase(ctx, cfg.Database)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	rdb, err := core.NewRedis(ctx, cfg.Redis)
	require.NoError(t, err)
	t.Cleanup(func() { _ = rdb.Close() })

	app, err := newApplication(cfg, db, rdb, logger)
	require.NoError(t, err)
	require.NoError(t, app.bootstrap(ctx))

	router := chi.NewRouter()
	app.mount(router, health.NewHandler("test",
		health.Dependency{Name: "database", Checker: db},
		health.Dependency{Name: "redis", Checker: rdb},
	))

	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)

	return &testApp{app: app, srv: srv}
}

func (a *testApp) client(t *testing.T) *http.Client {
	t.Helper()
	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	return &http.Client{Jar: jar}
}

func (a *testApp) do(
	t *testing.T,
	c *http.Client,
	method, path string,
	body any,
) (int, envelope) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequest(method, a.srv.URL+path, reader)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var env envelope
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&env))
	return resp.StatusCode, env
}

func (a *testApp) register(t *testing.T, name string) string {
	t.Helper()
	status, env := a.do(t, a.client(t), http.MethodPost, "/api/user/register", map[string]string{
		"email":    name + "@test.local",
		"username": name,
		"password": "password-" + name,
	})
	require.Equal(t, http.StatusCreated, status, env.Message)

	var u struct {
		ID     string `json:"id"`
		Status string `json:"status"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &u))
	assert.Equal(t, "inactive", u.Status)
	return u.ID
}

func (a *testApp) login(t *testing.T, c *http.Client, name string) (int, envelope) {
	t.Helper()
	return a.do(t, c, http.MethodPost, "/api/auth/login", map[string]string{
		"email":    name + "@test.local",
		"password": "password-" + name,
	})
}

// grant promotes an account directly in the database, standing in for an
// operator who already holds the role.
func (a *testApp) grant(t *testing.T, userID, role string) {
	t.Helper()
	ctx := context.Background()
	db := a.app.db.DB

	_, err := db.ExecContext(ctx, db.Rebind(`UPDATE users SET status = 1 WHERE id = ?`), userID)
	require.NoError(t, err)
	_, err = db.ExecContext(ctx, db.Rebind(`
		INSERT INTO user_roles (user_id, role_id)
		SELECT ?, id FROM roles WHERE name = ?
		ON CONFLICT DO NOTHING`), userID, role)
	require.NoError(t, err)
}

func TestAccountLifecycleThroughTheGate(t *testing.T) {
	a := newTestApp(t)

	aliceID := a.register(t, "alice")
	bossID := a.register(t, "boss")
	a.grant(t, bossID, "admin")

	alice := a.client(t)
	status, env := a.login(t, alice, "alice")
	assert.Equal(t, http.StatusForbidden, status)
	assert.Equal(t, core.CodeUserNotActivated, env.Code)

	boss := a.client(t)
	status, _ = a.login(t, boss, "boss")
	require.Equal(t, http.StatusOK, status)

	status, env = a.do(t, boss, http.MethodPut, "/api/user/"+aliceID+"/status",
		map[string]string{"status": "active"})
	require.Equal(t, http.StatusOK, status, env.Message)

	status, _ = a.login(t, alice, "alice")
	require.Equal(t, http.StatusOK, status)

	status, env = a.do(t, alice, http.MethodGet, "/api/user/info", nil)
	require.Equal(t, http.StatusOK, status)
	var me struct {
		ID    string `json:"id"`
		Level *int   `json:"level"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &me))
	assert.Equal(t, aliceID, me.ID)
	require.NotNil(t, me.Level)
	assert.Equal(t, 10, *me.Level)

	status, env = a.do(t, alice, http.MethodGet, "/api/user/list", nil)
	assert.Equal(t, http.StatusForbidden, status)
	assert.Equal(t, core.CodeForbidden, env.Code)

	status, _ = a.do(t, boss, http.MethodGet, "/api/user/list", nil)
	assert.Equal(t, http.StatusOK, status)

	status, env = a.do(t, alice, http.MethodDelete, "/api/user/"+bossID, nil)
	assert.Equal(t, http.StatusForbidden, status)
	assert.Equal(t, core.CodeForbidden, env.Code)

	status, env = a.do(t, boss, http.MethodPut, "/api/user/"+aliceID+"/status",
		map[string]string{"status": "banned"})
	require.Equal(t, http.StatusOK, status, env.Message)

	status, _ = a.do(t, alice, http.MethodGet, "/api/user/info", nil)
	assert.Equal(t, http.StatusOK, status, "banned accounts may still read")

	status, env = a.do(t, alice, http.MethodPut, "/api/user/info", map[string]string{"nickname": "x"})
	assert.Equal(t, http.StatusForbidden, status)
	assert.Equal(t, core.CodeUserBlocked, env.Code)

	status, env = a.do(t, boss, http.MethodPut, "/api/user/"+aliceID+"/status",
		map[string]string{"status": "active"})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, core.CodeBadRequest, env.Code)

	status, env = a.do(t, boss, http.MethodPut, "/api/user/"+aliceID+"/status",
		map[string]string{"status": "deleted"})
	assert.Equal(t, http.StatusForbidden, status, "admin lacks user:delete:all")
	assert.Equal(t, core.CodeForbidden, env.Code)

	a.grant(t, bossID, "super_admin")
	status, env = a.do(t, boss, http.MethodPut, "/api/user/"+aliceID+"/status",
		map[string]string{"status": "deleted"})
	require.Equal(t, http.StatusOK, status, env.Message)

	status, env = a.do(t, alice, http.MethodGet, "/api/user/info", nil)
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, core.CodeUnauthorized, env.Code)
}

func TestSessionTransport(t *testing.T) {
	a := newTestApp(t)
	bobID := a.register(t, "bob")
	a.grant(t, bobID, "user")

	anon := a.client(t)
	status, env := a.do(t, anon, http.MethodGet, "/api/user/info", nil)
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, core.CodeUnauthorized, env.Code)

	req, err := http.NewRequest(http.MethodGet, a.srv.URL+"/api/user/info", nil)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer abc")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotImplemented, resp.StatusCode)

	bob := a.client(t)
	status, env = a.do(t, bob, http.MethodPost, "/api/auth/login", map[string]string{
		"email": "bob@test.local", "password": "wrong-password",
	})
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, core.CodeCredentialInvalid, env.Code)

	status, env = a.do(t, bob, http.MethodPost, "/api/auth/login", map[string]string{
		"email": "nobody@test.local", "password": "wrong-password",
	})
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, core.CodeCredentialInvalid, env.Code)

	status, _ = a.login(t, bob, "bob")
	require.Equal(t, http.StatusOK, status)

	status, _ = a.do(t, bob, http.MethodGet, "/api/user/info", nil)
	assert.Equal(t, http.StatusOK, status)

	status, _ = a.do(t, bob, http.MethodPost, "/api/auth/logout", nil)
	assert.Equal(t, http.StatusOK, status)

	status, _ = a.do(t, bob, http.MethodGet, "/api/user/info", nil)
	assert.Equal(t, http.StatusUnauthorized, status)
}

func TestChangePasswordEndsSessions(t *testing.T) {
	a := newTestApp(t)
	carolID := a.register(t, "carol")
	a.grant(t, carolID, "user")

	first := a.client(t)
	second := a.client(t)
	status, _ := a.login(t, first, "carol")
	require.Equal(t, http.StatusOK, status)
	status, _ = a.login(t, second, "carol")
	require.Equal(t, http.StatusOK, status)

	status, env := a.do(t, first, http.MethodPut, "/api/auth/password", map[string]string{
		"current_password": "password-carol",
		"new_password":     "password-carol",
	})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, core.CodeDuplicatePassword, env.Code)

	status, _ = a.do(t, first, http.MethodPut, "/api/auth/password", map[string]string{
		"current_password": "password-carol",
		"new_password":     "something-new",
	})
	require.Equal(t, http.StatusOK, status)

	status, _ = a.do(t, second, http.MethodGet, "/api/user/info", nil)
	assert.Equal(t, http.StatusUnauthorized, status)

	status, _ = a.do(t, first, http.MethodPost, "/api/auth/login", map[string]string{
		"email": "carol@test.local", "password": "something-new",
	})
	assert.Equal(t, http.StatusOK, status)
}

func TestValidationAndRegistrationConflicts(t *testing.T) {
	a := newTestApp(t)
	a.register(t, "dave")

	c := a.client(t)
	status, env := a.do(t, c, http.MethodPost, "/api/user/register", map[string]string{
		"email": "not-an-email", "username": "eve", "password": "password-eve",
	})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, core.CodeParamError, env.Code)

	status, env = a.do(t, c, http.MethodPost, "/api/user/register", map[string]string{
		"email": "dave@test.local", "username": "dave2", "password": "password-dave",
	})
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, core.CodeEmailExists, env.Code)

	status, env = a.do(t, c, http.MethodGet, "/api/user/info/not-a-uuid", nil)
	assert.Equal(t, http.StatusUnauthorized, status, env.Message)
}

func TestPermissionRoutesRefuseDeletedAccountWithLiveSession(t *testing.T) {
	a := newTestApp(t)
	carolID := a.register(t, "carol")
	a.grant(t, carolID, "admin")

	carol := a.client(t)
	status, _ := a.login(t, carol, "carol")
	require.Equal(t, http.StatusOK, status)

	status, _ = a.do(t, carol, http.MethodGet, "/api/user/list", nil)
	require.Equal(t, http.StatusOK, status)

	// The account is deleted while its session survives in redis.
	db := a.app.db.DB
	_, err := db.ExecContext(context.Background(),
		db.Rebind(`UPDATE users SET status = ? WHERE id = ?`), account.StatusDeleted, carolID)
	require.NoError(t, err)

	status, env := a.do(t, carol, http.MethodGet, "/api/user/list", nil)
	assert.Equal(t, http.StatusForbidden, status)
	assert.Equal(t, core.CodeUserDeleted, env.Code)

	status, env = a.do(t, carol, http.MethodGet, "/api/permission", nil)
	assert.Equal(t, http.StatusUnauthorized, status, "cookie was cleared")
	assert.Equal(t, core.CodeUnauthorized, env.Code)
}
