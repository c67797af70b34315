// AngelaMos | 2026
// authority_test.go

package rbac

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carterperez-dev/templates/identity-service/internal/core"
)

func TestSeedIsIdempotent(t *testing.T) {
	db := newSeededDB(t)
	ctx := context.Background()

	require.NoError(t, Seed(ctx, db))

	repo := NewRepository(db)

	perms, err := repo.ListPermissions(ctx)
	require.NoError(t, err)
	assert.Len(t, perms, 21)
	for _, p := range perms {
		assert.True(t, p.IsSystem, p.Name)
	}

	roles, err := repo.ListRoles(ctx)
	require.NoError(t, err)
	require.Len(t, roles, 3)
	assert.Equal(t, RoleSuperAdmin, roles[0].Name)
	assert.Equal(t, 100, roles[0].Level)
	assert.True(t, roles[0].IsSystem)

	superPerms, err := repo.RolePermissions(ctx, roles[0].ID)
	require.NoError(t, err)
	assert.Len(t, superPerms, 21)

	adminPerms, err := repo.RolePermissions(ctx, roles[1].ID)
	require.NoError(t, err)
	assert.Len(t, adminPerms, 18)
	assert.NotContains(t, adminPerms, PermUserDeleteAll)
	assert.NotContains(t, adminPerms, PermUserUndeletable)
	assert.NotContains(t, adminPerms, PermPermissionManage)

	userPerms, err := repo.RolePermissions(ctx, roles[2].ID)
	require.NoError(t, err)
	assert.ElementsMatch(t, userPermissions, userPerms)
}

func TestCustomPermissionIsNotSystem(t *testing.T) {
	db := newSeededDB(t)
	ctx := context.Background()
	repo := NewRepository(db)

	require.NoError(t, repo.EnsurePermission(ctx, Permission{Name: "report:export", Description: "Export reports"}))

	custom, err := repo.GetPermissionByName(ctx, "report:export")
	require.NoError(t, err)
	assert.False(t, custom.IsSystem)

	seeded, err := repo.GetPermissionByName(ctx, PermUserReadAll)
	require.NoError(t, err)
	assert.True(t, seeded.IsSystem)

	out := ToPermissionResponseList([]Permission{*custom, *seeded})
	assert.False(t, out[0].IsSystem)
	assert.True(t, out[1].IsSystem)
}

func TestAuthorityQueries(t *testing.T) {
	db := newSeededDB(t)
	ctx := context.Background()
	a := NewAuthority(NewRepository(db))

	plain := insertUser(t, db, RoleUser)
	both := insertUser(t, db, RoleUser, RoleAdmin)
	none := insertUser(t, db)

	level, err := a.LevelOf(ctx, plain)
	require.NoError(t, err)
	assert.Equal(t, 10, level)

	level, err = a.LevelOf(ctx, both)
	require.NoError(t, err)
	assert.Equal(t, 90, level)

	level, err = a.LevelOf(ctx, none)
	require.NoError(t, err)
	assert.Zero(t, level)

	roles, err := a.RolesOf(ctx, both)
	require.NoError(t, err)
	require.Len(t, roles, 2)
	assert.Equal(t, RoleAdmin, roles[0].Name)

	perms, err := a.PermissionsOf(ctx, both)
	require.NoError(t, err)
	assert.Len(t, perms, 18)

	ok, err := a.HasPermission(ctx, plain, PermUserReadSelf)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = a.HasPermission(ctx, plain, PermUserReadAll)
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = a.HasAllPermissions(ctx, plain, []string{PermUserReadSelf, PermUserUpdateSelf, PermUserReadSelf})
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = a.HasAllPermissions(ctx, plain, []string{PermUserReadSelf, PermUserReadAll})
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = a.HasAnyPermission(ctx, plain, []string{PermUserReadAll, PermUserReadSelf})
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = a.HasAnyPermission(ctx, none, []string{PermUserReadSelf})
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestEmptyPermissionSets(t *testing.T) {
	db := newSeededDB(t)
	ctx := context.Background()
	a := NewAuthority(NewRepository(db))

	uid := insertUser(t, db)

	ok, err := a.HasAllPermissions(ctx, uid, nil)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = a.HasAnyPermission(ctx, uid, []string{})
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestCheckOperation(t *testing.T) {
	db := newSeededDB(t)
	ctx := context.Background()
	a := NewAuthority(NewRepository(db))

	root := insertUser(t, db, RoleSuperAdmin)
	admin := insertUser(t, db, RoleAdmin)
	otherAdmin := insertUser(t, db, RoleAdmin)
	plain := insertUser(t, db, RoleUser)

	require.NoError(t, a.CheckOperation(ctx, admin, plain, OpUpdate))
	require.NoError(t, a.CheckOperation(ctx, admin, plain, OpDelete))
	require.NoError(t, a.CheckOperation(ctx, root, admin, OpDelete))

	err := a.CheckOperation(ctx, admin, otherAdmin, OpUpdate)
	assert.ErrorIs(t, err, core.ErrForbidden)

	err = a.CheckOperation(ctx, plain, admin, OpRead)
	assert.ErrorIs(t, err, core.ErrForbidden)

	err = a.CheckOperation(ctx, admin, admin, OpUpdate)
	assert.ErrorIs(t, err, core.ErrForbidden)

	err = a.CheckOperation(ctx, admin, root, OpDelete)
	assert.ErrorIs(t, err, core.ErrForbidden)
}

func TestUndeletableTarget(t *testing.T) {
	db := newSeededDB(t)
	ctx := context.Background()
	repo := NewRepository(db)
	a := NewAuthority(repo)

	protectedRole := &Role{Name: "vip", Level: 5}
	require.NoError(t, repo.CreateRole(ctx, protectedRole))
	require.NoError(t, repo.Grant(ctx, "vip", PermUserUndeletable))

	admin := insertUser(t, db, RoleAdmin)
	vip := insertUser(t, db, "vip")

	require.NoError(t, a.CheckOperation(ctx, admin, vip, OpUpdate))

	err := a.CheckOperation(ctx, admin, vip, OpDelete)
	assert.ErrorIs(t, err, core.ErrForbidden)
}

func TestGrantTakesEffectImmediately(t *testing.T) {
	db := newSeededDB(t)
	ctx := context.Background()
	repo := NewRepository(db)
	a := NewAuthority(repo)

	uid := insertUser(t, db, RoleUser)

	ok, err := a.HasPermission(ctx, uid, PermRoleRead)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, repo.Grant(ctx, RoleUser, PermRoleRead))

	ok, err = a.HasPermission(ctx, uid, PermRoleRead)
	require.NoError(t, err)
	assert.True(t, ok)

	err = repo.Grant(ctx, RoleUser, "no:such:permission")
	assert.ErrorIs(t, err, core.ErrNotFound)
}
