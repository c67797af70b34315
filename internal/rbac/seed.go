// AngelaMos | 2026
// seed.go

package rbac

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/carterperez-dev/templates/identity-service/internal/core"
)

var defaultPermissions = []Permission{
	{Name: PermUserCreate, Description: "Create users", IsSystem: true},
	{Name: PermUserReadSelf, Description: "Read own account", IsSystem: true},
	{Name: PermUserReadActive, Description: "Read active accounts", IsSystem: true},
	{Name: PermUserReadAll, Description: "Read every account", IsSystem: true},
	{Name: PermUserUpdateSelf, Description: "Update own account", IsSystem: true},
	{Name: PermUserUpdateAll, Description: "Update any account", IsSystem: true},
	{Name: PermUserDeleteSelf, Description: "Delete own account", IsSystem: true},
	{Name: PermUserDeleteAll, Description: "Delete any account", IsSystem: true},
	{Name: PermUserUndeletable, Description: "Account cannot be deleted", IsSystem: true},
	{Name: PermUserResetPasswordSelf, Description: "Change own password", IsSystem: true},
	{Name: PermUserResetPasswordAny, Description: "Reset other passwords", IsSystem: true},
	{Name: PermUserManageRoles, Description: "Assign and remove user roles", IsSystem: true},
	{Name: PermUserManageMFASelf, Description: "Manage own MFA", IsSystem: true},
	{Name: PermUserManageMFAOther, Description: "Manage MFA of others", IsSystem: true},
	{Name: PermRoleCreate, Description: "Create roles", IsSystem: true},
	{Name: PermRoleRead, Description: "Read roles", IsSystem: true},
	{Name: PermRoleUpdate, Description: "Update roles", IsSystem: true},
	{Name: PermRoleDelete, Description: "Delete roles", IsSystem: true},
	{Name: PermRoleManagePermissions, Description: "Grant and revoke role permissions", IsSystem: true},
	{Name: PermPermissionRead, Description: "Read permissions", IsSystem: true},
	{Name: PermPermissionManage, Description: "Manage permissions", IsSystem: true},
}

var defaultRoles = []Role{
	{Name: RoleSuperAdmin, Description: "Super administrator", Level: 100, IsSystem: true},
	{Name: RoleAdmin, Description: "Administrator", Level: 90, IsSystem: true},
	{Name: RoleUser, Description: "Regular user", Level: 10, IsSystem: true},
}

var adminExcluded = map[string]struct{}{
	PermUserDeleteAll:    {},
	PermUserUndeletable:  {},
	PermPermissionManage: {},
}

var userPermissions = []string{
	PermUserReadSelf,
	PermUserReadActive,
	PermUserUpdateSelf,
	PermUserDeleteSelf,
	PermUserResetPasswordSelf,
	PermUserManageMFASelf,
}

func DefaultGrants() map[string][]string {
	grants := map[string][]string{
		RoleUser: append([]string(nil), userPermissions...),
	}

	for _, p := range defaultPermissions {
		grants[RoleSuperAdmin] = append(grants[RoleSuperAdmin], p.Name)
		if _, excluded := adminExcluded[p.Name]; !excluded {
			grants[RoleAdmin] = append(grants[RoleAdmin], p.Name)
		}
	}

	return grants
}

// Seed installs the built-in permissions, roles and grants. It only adds
// what is missing, so it runs on every start.
func Seed(ctx context.Context, db *sqlx.DB) error {
	return core.InTx(ctx, db, func(tx *sqlx.Tx) error {
		repo := NewRepository(tx)

		for _, p := range defaultPermissions {
			if err := repo.EnsurePermission(ctx, p); err != nil {
				return fmt.Errorf("seed: %w", err)
			}
		}

		for _, role := range defaultRoles {
			if err := repo.EnsureRole(ctx, role); err != nil {
				return fmt.Errorf("seed: %w", err)
			}
		}

		for role, perms := range DefaultGrants() {
			for _, perm := range perms {
				if err := repo.Grant(ctx, role, perm); err != nil {
					return fmt.Errorf("seed: %w", err)
				}
			}
		}

		return nil
	})
}
