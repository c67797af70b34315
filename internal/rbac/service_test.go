// AngelaMos | 2026
// service_test.go

package rbac

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carterperez-dev/templates/identity-service/internal/core"
)

func newTestService(t *testing.T) (*Service, Repository, func(...string) string) {
	t.Helper()

	db := newSeededDB(t)
	repo := NewRepository(db)
	svc := NewService(repo, NewAuthority(repo))

	return svc, repo, func(roles ...string) string { return insertUser(t, db, roles...) }
}

func TestCreateRoleBelowOwnLevel(t *testing.T) {
	svc, _, newUser := newTestService(t)
	ctx := context.Background()
	admin := newUser(RoleAdmin)

	role, err := svc.CreateRole(ctx, admin, CreateRoleRequest{Name: "moderator", Level: 50})
	require.NoError(t, err)
	assert.NotZero(t, role.ID)
	assert.False(t, role.IsSystem)

	_, err = svc.CreateRole(ctx, admin, CreateRoleRequest{Name: "peer", Level: 90})
	assert.ErrorIs(t, err, core.ErrForbidden)

	_, err = svc.CreateRole(ctx, admin, CreateRoleRequest{Name: "moderator", Level: 40})
	assert.ErrorIs(t, err, core.ErrDuplicateKey)
}

func TestDeleteRole(t *testing.T) {
	svc, repo, newUser := newTestService(t)
	ctx := context.Background()
	root := newUser(RoleSuperAdmin)

	userRole, err := repo.GetRoleByName(ctx, RoleUser)
	require.NoError(t, err)

	err = svc.DeleteRole(ctx, root, userRole.ID)
	assert.ErrorIs(t, err, ErrSystemRole)
	assert.True(t, IsSystemRoleError(err))

	custom, err := svc.CreateRole(ctx, root, CreateRoleRequest{Name: "temp", Level: 20})
	require.NoError(t, err)
	require.NoError(t, svc.DeleteRole(ctx, root, custom.ID))

	_, err = repo.GetRole(ctx, custom.ID)
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func TestGrantRequiresHeldPermission(t *testing.T) {
	svc, repo, newUser := newTestService(t)
	ctx := context.Background()
	admin := newUser(RoleAdmin)

	custom, err := svc.CreateRole(ctx, admin, CreateRoleRequest{Name: "support", Level: 30})
	require.NoError(t, err)

	require.NoError(t, svc.GrantPermission(ctx, admin, custom.ID, PermUserReadAll))

	err = svc.GrantPermission(ctx, admin, custom.ID, PermPermissionManage)
	assert.ErrorIs(t, err, core.ErrForbidden)

	perms, err := repo.RolePermissions(ctx, custom.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{PermUserReadAll}, perms)

	require.NoError(t, svc.RevokePermission(ctx, admin, custom.ID, PermUserReadAll))
	perms, err = repo.RolePermissions(ctx, custom.ID)
	require.NoError(t, err)
	assert.Empty(t, perms)
}

func TestAssignAndRemoveRole(t *testing.T) {
	svc, _, newUser := newTestService(t)
	ctx := context.Background()
	admin := newUser(RoleAdmin)
	plain := newUser(RoleUser)

	err := svc.AssignRole(ctx, admin, plain, RoleAdmin)
	assert.ErrorIs(t, err, core.ErrForbidden)

	_, err = svc.CreateRole(ctx, admin, CreateRoleRequest{Name: "editor", Level: 40})
	require.NoError(t, err)

	require.NoError(t, svc.AssignRole(ctx, admin, plain, "editor"))

	roles, err := svc.UserRoles(ctx, plain)
	require.NoError(t, err)
	require.Len(t, roles, 2)
	assert.Equal(t, "editor", roles[0].Name)

	require.NoError(t, svc.RemoveRole(ctx, admin, plain, "editor"))
	roles, err = svc.UserRoles(ctx, plain)
	require.NoError(t, err)
	assert.Len(t, roles, 1)

	err = svc.AssignRole(ctx, admin, "missing-user", "editor")
	assert.ErrorIs(t, err, core.ErrNotFound)

	err = svc.AssignRole(ctx, plain, admin, RoleUser)
	assert.ErrorIs(t, err, core.ErrForbidden)
}
