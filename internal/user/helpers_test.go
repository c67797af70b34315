// AngelaMos | 2026
// helpers_test.go

package user

import (
	"context"
	"path/filepath"
	"sync"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/carterperez-dev/templates/identity-service/internal/config"
	"github.com/carterperez-dev/templates/identity-service/internal/core"
	"github.com/carterperez-dev/templates/identity-service/internal/rbac"
	"github.com/carterperez-dev/templates/identity-service/internal/session"
)

type fakeMailer struct {
	mu            sync.Mutex
	verifications map[string]string
	passwords     map[string]string
}

func newFakeMailer() *fakeMailer {
	return &fakeMailer{
		verifications: make(map[string]string),
		passwords:     make(map[string]string),
	}
}

func (m *fakeMailer) SendVerification(_ context.Context, to, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.verifications[to] = token
	return nil
}

func (m *fakeMailer) SendTemporaryPassword(_ context.Context, to, password string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.passwords[to] = password
	return nil
}

type fixture struct {
	db       *sqlx.DB
	mr       *miniredis.Miniredis
	sessions *session.Store
	mailer   *fakeMailer
	svc      *Service
}

func newFixture(t *testing.T, opts Options) *fixture {
	t.Helper()
	ctx := context.Background()

	database, err := core.NewDatabase(ctx, config.DatabaseConfig{
		Driver:     config.DriverSQLite,
		SQLiteFile: filepath.Join(t.TempDir(), "user.db"),
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close() })

	require.NoError(t, core.Migrate(ctx, database))
	require.NoError(t, rbac.Seed(ctx, database.DB))

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	t.Cleanup(func() { _ = client.Close() })

	sessions := session.NewStore(client, config.SessionConfig{})
	authority := rbac.NewAuthority(rbac.NewRepository(database.DB))
	mailer := newFakeMailer()

	return &fixture{
		db:       database.DB,
		mr:       mr,
		sessions: sessions,
		mailer:   mailer,
		svc:      NewService(database.DB, authority, sessions, mailer, opts, nil),
	}
}

func (f *fixture) register(t *testing.T, name string) *User {
	t.Helper()
	u, err := f.svc.Register(context.Background(), RegisterRequest{
		Email:    name + "@test.local",
		Username: name,
		Password: "password-" + name,
	})
	require.NoError(t, err)
	return u
}

// promote activates the account and replaces its roles.
func (f *fixture) promote(t *testing.T, u *User, roles ...string) {
	t.Helper()
	ctx := context.Background()

	_, err := f.db.ExecContext(ctx, f.db.Rebind(`UPDATE users SET status = ? WHERE id = ?`), 1, u.ID)
	require.NoError(t, err)

	_, err = f.db.ExecContext(ctx, f.db.Rebind(`DELETE FROM user_roles WHERE user_id = ?`), u.ID)
	require.NoError(t, err)

	for _, role := range roles {
		_, err := f.db.ExecContext(ctx, f.db.Rebind(`
			INSERT INTO user_roles (user_id, role_id)
			SELECT ?, id FROM roles WHERE name = ?`), u.ID, role)
		require.NoError(t, err)
	}
}
