// AngelaMos | 2026
// entity.go

package rbac

import (
	"time"
)

type Role struct {
	ID          int64     `db:"id"`
	Name        string    `db:"name"`
	Description string    `db:"description"`
	Level       int       `db:"level"`
	IsSystem    bool      `db:"is_system"`
	CreatedAt   time.Time `db:"created_at"`
}

// Permission with IsSystem set is seed data.
type Permission struct {
	ID          int64  `db:"id"`
	Name        string `db:"name"`
	Description string `db:"description"`
	IsSystem    bool   `db:"is_system"`
}

type Operation int

const (
	OpRead Operation = iota
	OpUpdate
	OpDelete
)

func (o Operation) String() string {
	switch o {
	case OpRead:
		return "read"
	case OpUpdate:
		return "update"
	case OpDelete:
		return "delete"
	default:
		return "unknown"
	}
}

const (
	RoleSuperAdmin = "super_admin"
	RoleAdmin      = "admin"
	RoleUser       = "user"
)

const (
	PermUserCreate            = "user:create"
	PermUserReadSelf          = "user:read:self"
	PermUserReadActive        = "user:read:active"
	PermUserReadAll           = "user:read:all"
	PermUserUpdateSelf        = "user:update:self"
	PermUserUpdateAll         = "user:update:all"
	PermUserDeleteSelf        = "user:delete:self"
	PermUserDeleteAll         = "user:delete:all"
	PermUserUndeletable       = "user:undeletable"
	PermUserResetPasswordSelf = "user:reset_password:self"
	PermUserResetPasswordAny  = "user:reset_password:other"
	PermUserManageRoles       = "user:manage_roles"
	PermUserManageMFASelf     = "user:manage_mfa:self"
	PermUserManageMFAOther    = "user:manage_mfa:other"
	PermRoleCreate            = "role:create"
	PermRoleRead              = "role:read"
	PermRoleUpdate            = "role:update"
	PermRoleDelete            = "role:delete"
	PermRoleManagePermissions = "role:manage_permissions"
	PermPermissionRead        = "permission:read"
	PermPermissionManage      = "permission:manage"
)
