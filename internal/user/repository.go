// AngelaMos | 2026
// repository.go

package user

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/carterperez-dev/templates/identity-service/internal/account"
	"github.com/carterperez-dev/templates/identity-service/internal/core"
)

var ErrStatusChanged = fmt.Errorf("account status changed concurrently: %w", core.ErrConflict)

type Repository interface {
	Create(ctx context.Context, user *User, roleName string) error
	GetByID(ctx context.Context, id string) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	ExistsByUsername(ctx context.Context, username string) (bool, error)
	UpdateProfile(ctx context.Context, user *User) error
	UpdatePassword(ctx context.Context, id, passwordHash string) error
	TransitionStatus(ctx context.Context, id string, from, to account.Status) error
	MarkDeleted(ctx context.Context, id string) error
	List(ctx context.Context, params ListUsersParams) ([]User, int, error)
	CountWithRole(ctx context.Context, roleName string) (int, error)
	CountByStatus(ctx context.Context) (map[account.Status]int, error)
}

type repository struct {
	db core.DBTX
}

func NewRepository(db core.DBTX) Repository {
	return &repository{db: db}
}

const selectUser = `
		SELECT u.id, u.email, u.username, u.nickname, u.password_hash, u.status,
		       u.created_at, u.updated_at,
		       COALESCE(p.avatar, '') AS avatar,
		       COALESCE(p.description, '') AS description,
		       COALESCE(p.state, '') AS state,
		       COALESCE(p.gender, 2) AS gender
		FROM users u
		LEFT JOIN user_profiles p ON p.user_id = u.id`

// Create inserts the user, its profile row and its initial role. Callers
// run it inside a transaction.
func (r *repository) Create(ctx context.Context, user *User, roleName string) error {
	now := time.Now().UTC()
	user.CreatedAt = now
	user.UpdatedAt = now

	_, err := r.db.ExecContext(ctx, r.db.Rebind(`
		INSERT INTO users (id, email, username, nickname, password_hash, status, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`),
		user.ID,
		user.Email,
		user.Username,
		user.Nickname,
		user.PasswordHash,
		user.Status,
		user.CreatedAt,
		user.UpdatedAt,
	)
	if err != nil {
		if core.IsDuplicateKeyError(err) {
			return fmt.Errorf("create user: %w", core.ErrDuplicateKey)
		}
		return fmt.Errorf("create user: %w", err)
	}

	_, err = r.db.ExecContext(ctx, r.db.Rebind(`
		INSERT INTO user_profiles (user_id, avatar, description, state, gender)
		VALUES (?, ?, ?, ?, ?)`),
		user.ID,
		user.Avatar,
		user.Description,
		user.State,
		int(user.Gender),
	)
	if err != nil {
		return fmt.Errorf("create profile: %w", err)
	}

	result, err := r.db.ExecContext(ctx, r.db.Rebind(`
		INSERT INTO user_roles (user_id, role_id)
		SELECT ?, id FROM roles WHERE name = ?`),
		user.ID,
		roleName,
	)
	if err != nil {
		return fmt.Errorf("assign initial role: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("assign initial role: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("assign initial role %s: %w", roleName, core.ErrNotFound)
	}

	return nil
}

func (r *repository) GetByID(ctx context.Context, id string) (*User, error) {
	var user User
	err := r.db.GetContext(ctx, &user, r.db.Rebind(selectUser+` WHERE u.id = ?`), id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get user: %w", core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}

	return &user, nil
}

func (r *repository) GetByEmail(ctx context.Context, email string) (*User, error) {
	var user User
	err := r.db.GetContext(ctx, &user, r.db.Rebind(selectUser+` WHERE u.email = ?`), email)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get user by email: %w", core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get user by email: %w", err)
	}

	return &user, nil
}

func (r *repository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	var n int
	err := r.db.GetContext(ctx, &n, r.db.Rebind(`SELECT COUNT(*) FROM users WHERE email = ?`), email)
	if err != nil {
		return false, fmt.Errorf("check email exists: %w", err)
	}
	return n > 0, nil
}

func (r *repository) ExistsByUsername(ctx context.Context, username string) (bool, error) {
	var n int
	err := r.db.GetContext(ctx, &n, r.db.Rebind(`SELECT COUNT(*) FROM users WHERE username = ?`), username)
	if err != nil {
		return false, fmt.Errorf("check username exists: %w", err)
	}
	return n > 0, nil
}

func (r *repository) UpdateProfile(ctx context.Context, user *User) error {
	user.UpdatedAt = time.Now().UTC()

	result, err := r.db.ExecContext(ctx, r.db.Rebind(`
		UPDATE users
		SET nickname = ?, updated_at = ?
		WHERE id = ? AND status <> ?`),
		user.Nickname,
		user.UpdatedAt,
		user.ID,
		account.StatusDeleted,
	)
	if err != nil {
		return fmt.Errorf("update user: %w", err)
	}
	if err := expectOne(result, "update user"); err != nil {
		return err
	}

	_, err = r.db.ExecContext(ctx, r.db.Rebind(`
		UPDATE user_profiles
		SET avatar = ?, description = ?, state = ?, gender = ?
		WHERE user_id = ?`),
		user.Avatar,
		user.Description,
		user.State,
		int(user.Gender),
		user.ID,
	)
	if err != nil {
		return fmt.Errorf("update profile: %w", err)
	}

	return nil
}

func (r *repository) UpdatePassword(ctx context.Context, id, passwordHash string) error {
	result, err := r.db.ExecContext(ctx, r.db.Rebind(`
		UPDATE users
		SET password_hash = ?, updated_at = ?
		WHERE id = ? AND status <> ?`),
		passwordHash,
		time.Now().UTC(),
		id,
		account.StatusDeleted,
	)
	if err != nil {
		return fmt.Errorf("update password: %w", err)
	}

	return expectOne(result, "update password")
}

// TransitionStatus moves the account from one status to another in a
// single compare-and-set statement.
func (r *repository) TransitionStatus(
	ctx context.Context,
	id string,
	from, to account.Status,
) error {
	result, err := r.db.ExecContext(ctx, r.db.Rebind(`
		UPDATE users
		SET status = ?, updated_at = ?
		WHERE id = ? AND status = ?`),
		to,
		time.Now().UTC(),
		id,
		from,
	)
	if err != nil {
		return fmt.Errorf("transition status: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("transition status: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("transition %s -> %s: %w", from, to, ErrStatusChanged)
	}

	return nil
}

func (r *repository) MarkDeleted(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, r.db.Rebind(`
		UPDATE users
		SET status = ?, updated_at = ?
		WHERE id = ? AND status <> ?`),
		account.StatusDeleted,
		time.Now().UTC(),
		id,
		account.StatusDeleted,
	)
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}

	return expectOne(result, "delete user")
}

func (r *repository) List(ctx context.Context, params ListUsersParams) ([]User, int, error) {
	params.Normalize()

	conditions := []string{"1 = 1"}
	var args []any

	if params.Search != "" {
		conditions = append(conditions,
			`(LOWER(u.email) LIKE ? ESCAPE '\'`+
				` OR LOWER(u.username) LIKE ? ESCAPE '\'`+
				` OR LOWER(u.nickname) LIKE ? ESCAPE '\')`)
		pattern := "%" + escapeLike(strings.ToLower(params.Search)) + "%"
		args = append(args, pattern, pattern, pattern)
	}

	if params.Status != nil {
		conditions = append(conditions, "u.status = ?")
		args = append(args, *params.Status)
	}

	whereClause := strings.Join(conditions, " AND ")

	var total int
	countQuery := r.db.Rebind(`SELECT COUNT(*) FROM users u WHERE ` + whereClause)
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count users: %w", err)
	}

	query := r.db.Rebind(selectUser + ` WHERE ` + whereClause + `
		ORDER BY u.created_at DESC
		LIMIT ? OFFSET ?`)
	args = append(args, params.PageSize, params.Offset())

	var users []User
	if err := r.db.SelectContext(ctx, &users, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list users: %w", err)
	}

	return users, total, nil
}

func (r *repository) CountWithRole(ctx context.Context, roleName string) (int, error) {
	var n int
	err := r.db.GetContext(ctx, &n, r.db.Rebind(`
		SELECT COUNT(*)
		FROM user_roles ur
		JOIN roles r ON r.id = ur.role_id
		JOIN users u ON u.id = ur.user_id
		WHERE r.name = ? AND u.status <> ?`),
		roleName,
		account.StatusDeleted,
	)
	if err != nil {
		return 0, fmt.Errorf("count users with role: %w", err)
	}
	return n, nil
}

func (r *repository) CountByStatus(ctx context.Context) (map[account.Status]int, error) {
	var rows []struct {
		Status account.Status `db:"status"`
		Count  int            `db:"count"`
	}

	err := r.db.SelectContext(ctx, &rows,
		`SELECT status, COUNT(*) AS count FROM users GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("count users by status: %w", err)
	}

	out := make(map[account.Status]int, len(rows))
	for _, row := range rows {
		out[row.Status] = row.Count
	}
	return out, nil
}

func expectOne(result sql.Result, op string) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if rows == 0 {
		return fmt.Errorf("%s: %w", op, core.ErrNotFound)
	}
	return nil
}

func escapeLike(s string) string {
	s = strings.ReplaceAll(s, "\\", "\\\\")
	s = strings.ReplaceAll(s, "%", "\\%")
	s = strings.ReplaceAll(s, "_", "\\_")
	return s
}
