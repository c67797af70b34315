// AngelaMos | 2026
// helpers_test.go

package rbac

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"github.com/carterperez-dev/templates/identity-service/internal/config"
	"github.com/carterperez-dev/templates/identity-service/internal/core"
)

func newSeededDB(t *testing.T) *sqlx.DB {
	t.Helper()
	ctx := context.Background()

	db, err := core.NewDatabase(ctx, config.DatabaseConfig{
		Driver:     config.DriverSQLite,
		SQLiteFile: filepath.Join(t.TempDir(), "rbac.db"),
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	require.NoError(t, core.Migrate(ctx, db))
	require.NoError(t, Seed(ctx, db.DB))

	return db.DB
}

func insertUser(t *testing.T, db *sqlx.DB, roles ...string) string {
	t.Helper()
	ctx := context.Background()

	id := uuid.NewString()
	now := time.Now().UTC()

	_, err := db.ExecContext(ctx, db.Rebind(`
		INSERT INTO users (id, email, username, nickname, password_hash, status, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`),
		id, id+"@test.local", id, "tester", "sha2:x:y", 1, now, now,
	)
	require.NoError(t, err)

	for _, role := range roles {
		_, err := db.ExecContext(ctx, db.Rebind(`
			INSERT INTO user_roles (user_id, role_id)
			SELECT ?, id FROM roles WHERE name = ?`), id, role)
		require.NoError(t, err)
	}

	return id
}
