// AngelaMos | 2026
// repository.go

package rbac

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/carterperez-dev/templates/identity-service/internal/core"
)

type Repository interface {
	RolesOf(ctx context.Context, userID string) ([]Role, error)
	PermissionsOf(ctx context.Context, userID string) ([]string, error)
	LevelOf(ctx context.Context, userID string) (int, error)
	HasPermission(ctx context.Context, userID, name string) (bool, error)
	CountPermissions(ctx context.Context, userID string, names []string) (int, error)

	ListRoles(ctx context.Context) ([]Role, error)
	GetRole(ctx context.Context, id int64) (*Role, error)
	GetRoleByName(ctx context.Context, name string) (*Role, error)
	CreateRole(ctx context.Context, role *Role) error
	DeleteRole(ctx context.Context, id int64) error
	RolePermissions(ctx context.Context, roleID int64) ([]string, error)

	ListPermissions(ctx context.Context) ([]Permission, error)
	GetPermissionByName(ctx context.Context, name string) (*Permission, error)
	EnsurePermission(ctx context.Context, p Permission) error
	EnsureRole(ctx context.Context, role Role) error
	Grant(ctx context.Context, roleName, permissionName string) error
	Revoke(ctx context.Context, roleID, permissionID int64) error

	AssignRole(ctx context.Context, userID string, roleID int64) error
	RemoveRole(ctx context.Context, userID string, roleID int64) error
	CountUsersWithRole(ctx context.Context, roleName string) (int, error)
	UserExists(ctx context.Context, userID string) (bool, error)
}

type repository struct {
	db core.DBTX
}

func NewRepository(db core.DBTX) Repository {
	return &repository{db: db}
}

const userPermissionJoin = `
		FROM permissions p
		JOIN role_permissions rp ON rp.permission_id = p.id
		JOIN user_roles ur ON ur.role_id = rp.role_id
		WHERE ur.user_id = ?`

func (r *repository) RolesOf(ctx context.Context, userID string) ([]Role, error) {
	query := r.db.Rebind(`
		SELECT r.id, r.name, r.description, r.level, r.is_system, r.created_at
		FROM roles r
		JOIN user_roles ur ON ur.role_id = r.id
		WHERE ur.user_id = ?
		ORDER BY r.level DESC, r.name`)

	var roles []Role
	if err := r.db.SelectContext(ctx, &roles, query, userID); err != nil {
		return nil, fmt.Errorf("roles of user: %w", err)
	}

	return roles, nil
}

func (r *repository) PermissionsOf(ctx context.Context, userID string) ([]string, error) {
	query := r.db.Rebind(`SELECT DISTINCT p.name` + userPermissionJoin + `
		ORDER BY p.name`)

	var names []string
	if err := r.db.SelectContext(ctx, &names, query, userID); err != nil {
		return nil, fmt.Errorf("permissions of user: %w", err)
	}

	return names, nil
}

func (r *repository) LevelOf(ctx context.Context, userID string) (int, error) {
	query := r.db.Rebind(`
		SELECT COALESCE(MAX(r.level), 0)
		FROM roles r
		JOIN user_roles ur ON ur.role_id = r.id
		WHERE ur.user_id = ?`)

	var level int
	if err := r.db.GetContext(ctx, &level, query, userID); err != nil {
		return 0, fmt.Errorf("level of user: %w", err)
	}

	return level, nil
}

func (r *repository) HasPermission(ctx context.Context, userID, name string) (bool, error) {
	query := r.db.Rebind(`SELECT COUNT(*)` + userPermissionJoin + `
		AND p.name = ?`)

	var n int
	if err := r.db.GetContext(ctx, &n, query, userID, name); err != nil {
		return false, fmt.Errorf("has permission: %w", err)
	}

	return n > 0, nil
}

func (r *repository) CountPermissions(
	ctx context.Context,
	userID string,
	names []string,
) (int, error) {
	if len(names) == 0 {
		return 0, nil
	}

	query, args, err := sqlx.In(`SELECT COUNT(DISTINCT p.name)`+userPermissionJoin+`
		AND p.name IN (?)`, userID, names)
	if err != nil {
		return 0, fmt.Errorf("count permissions: %w", err)
	}

	var n int
	if err := r.db.GetContext(ctx, &n, r.db.Rebind(query), args...); err != nil {
		return 0, fmt.Errorf("count permissions: %w", err)
	}

	return n, nil
}

const roleColumns = `id, name, description, level, is_system, created_at`

func (r *repository) ListRoles(ctx context.Context) ([]Role, error) {
	query := `SELECT ` + roleColumns + ` FROM roles ORDER BY level DESC, name`

	var roles []Role
	if err := r.db.SelectContext(ctx, &roles, query); err != nil {
		return nil, fmt.Errorf("list roles: %w", err)
	}

	return roles, nil
}

func (r *repository) GetRole(ctx context.Context, id int64) (*Role, error) {
	query := r.db.Rebind(`SELECT ` + roleColumns + ` FROM roles WHERE id = ?`)

	var role Role
	err := r.db.GetContext(ctx, &role, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get role: %w", core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get role: %w", err)
	}

	return &role, nil
}

func (r *repository) GetRoleByName(ctx context.Context, name string) (*Role, error) {
	query := r.db.Rebind(`SELECT ` + roleColumns + ` FROM roles WHERE name = ?`)

	var role Role
	err := r.db.GetContext(ctx, &role, query, name)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get role by name: %w", core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get role by name: %w", err)
	}

	return &role, nil
}

func (r *repository) CreateRole(ctx context.Context, role *Role) error {
	if role.CreatedAt.IsZero() {
		role.CreatedAt = time.Now().UTC()
	}

	query := r.db.Rebind(`
		INSERT INTO roles (name, description, level, is_system, created_at)
		VALUES (?, ?, ?, ?, ?)
		RETURNING id`)

	err := r.db.GetContext(ctx, &role.ID, query,
		role.Name,
		role.Description,
		role.Level,
		role.IsSystem,
		role.CreatedAt,
	)
	if err != nil {
		if core.IsDuplicateKeyError(err) {
			return fmt.Errorf("create role: %w", core.ErrDuplicateKey)
		}
		return fmt.Errorf("create role: %w", err)
	}

	return nil
}

func (r *repository) DeleteRole(ctx context.Context, id int64) error {
	query := r.db.Rebind(`DELETE FROM roles WHERE id = ? AND is_system = ?`)

	result, err := r.db.ExecContext(ctx, query, id, false)
	if err != nil {
		return fmt.Errorf("delete role: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete role: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("delete role: %w", core.ErrNotFound)
	}

	return nil
}

func (r *repository) RolePermissions(ctx context.Context, roleID int64) ([]string, error) {
	query := r.db.Rebind(`
		SELECT p.name
		FROM permissions p
		JOIN role_permissions rp ON rp.permission_id = p.id
		WHERE rp.role_id = ?
		ORDER BY p.name`)

	var names []string
	if err := r.db.SelectContext(ctx, &names, query, roleID); err != nil {
		return nil, fmt.Errorf("role permissions: %w", err)
	}

	return names, nil
}

func (r *repository) ListPermissions(ctx context.Context) ([]Permission, error) {
	query := `SELECT id, name, description, is_system FROM permissions ORDER BY name`

	var perms []Permission
	if err := r.db.SelectContext(ctx, &perms, query); err != nil {
		return nil, fmt.Errorf("list permissions: %w", err)
	}

	return perms, nil
}

func (r *repository) GetPermissionByName(
	ctx context.Context,
	name string,
) (*Permission, error) {
	query := r.db.Rebind(`SELECT id, name, description, is_system FROM permissions WHERE name = ?`)

	var p Permission
	err := r.db.GetContext(ctx, &p, query, name)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get permission: %w", core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get permission: %w", err)
	}

	return &p, nil
}

func (r *repository) EnsurePermission(ctx context.Context, p Permission) error {
	query := r.db.Rebind(`
		INSERT INTO permissions (name, description, is_system)
		VALUES (?, ?, ?)
		ON CONFLICT (name) DO NOTHING`)

	if _, err := r.db.ExecContext(ctx, query, p.Name, p.Description, p.IsSystem); err != nil {
		return fmt.Errorf("ensure permission %s: %w", p.Name, err)
	}

	return nil
}

func (r *repository) EnsureRole(ctx context.Context, role Role) error {
	query := r.db.Rebind(`
		INSERT INTO roles (name, description, level, is_system, created_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (name) DO NOTHING`)

	_, err := r.db.ExecContext(ctx, query,
		role.Name,
		role.Description,
		role.Level,
		role.IsSystem,
		time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("ensure role %s: %w", role.Name, err)
	}

	return nil
}

func (r *repository) Grant(ctx context.Context, roleName, permissionName string) error {
	query := r.db.Rebind(`
		INSERT INTO role_permissions (role_id, permission_id)
		SELECT r.id, p.id
		FROM roles r, permissions p
		WHERE r.name = ? AND p.name = ?
		ON CONFLICT DO NOTHING`)

	result, err := r.db.ExecContext(ctx, query, roleName, permissionName)
	if err != nil {
		return fmt.Errorf("grant %s to %s: %w", permissionName, roleName, err)
	}

	if rows, err := result.RowsAffected(); err == nil && rows == 0 {
		if _, lookupErr := r.GetRoleByName(ctx, roleName); lookupErr != nil {
			return fmt.Errorf("grant %s to %s: %w", permissionName, roleName, lookupErr)
		}
		if _, lookupErr := r.GetPermissionByName(ctx, permissionName); lookupErr != nil {
			return fmt.Errorf("grant %s to %s: %w", permissionName, roleName, lookupErr)
		}
	}

	return nil
}

func (r *repository) Revoke(ctx context.Context, roleID, permissionID int64) error {
	query := r.db.Rebind(`DELETE FROM role_permissions WHERE role_id = ? AND permission_id = ?`)

	if _, err := r.db.ExecContext(ctx, query, roleID, permissionID); err != nil {
		return fmt.Errorf("revoke permission: %w", err)
	}

	return nil
}

func (r *repository) AssignRole(ctx context.Context, userID string, roleID int64) error {
	query := r.db.Rebind(`
		INSERT INTO user_roles (user_id, role_id)
		VALUES (?, ?)
		ON CONFLICT DO NOTHING`)

	if _, err := r.db.ExecContext(ctx, query, userID, roleID); err != nil {
		return fmt.Errorf("assign role: %w", err)
	}

	return nil
}

func (r *repository) RemoveRole(ctx context.Context, userID string, roleID int64) error {
	query := r.db.Rebind(`DELETE FROM user_roles WHERE user_id = ? AND role_id = ?`)

	if _, err := r.db.ExecContext(ctx, query, userID, roleID); err != nil {
		return fmt.Errorf("remove role: %w", err)
	}

	return nil
}

func (r *repository) CountUsersWithRole(ctx context.Context, roleName string) (int, error) {
	query := r.db.Rebind(`
		SELECT COUNT(*)
		FROM user_roles ur
		JOIN roles r ON r.id = ur.role_id
		WHERE r.name = ?`)

	var n int
	if err := r.db.GetContext(ctx, &n, query, roleName); err != nil {
		return 0, fmt.Errorf("count users with role: %w", err)
	}

	return n, nil
}

func (r *repository) UserExists(ctx context.Context, userID string) (bool, error) {
	query := r.db.Rebind(`SELECT COUNT(*) FROM users WHERE id = ?`)

	var n int
	if err := r.db.GetContext(ctx, &n, query, userID); err != nil {
		return false, fmt.Errorf("user exists: %w", err)
	}

	return n > 0, nil
}
