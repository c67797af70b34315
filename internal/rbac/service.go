// AngelaMos | 2026
// service.go

package rbac

import (
	"context"
	"errors"
	"fmt"

	"github.com/carterperez-dev/templates/identity-service/internal/core"
)

var ErrSystemRole = fmt.Errorf("system roles cannot be modified: %w", core.ErrForbidden)

type Service struct {
	repo      Repository
	authority *Authority
}

func NewService(repo Repository, authority *Authority) *Service {
	return &Service{repo: repo, authority: authority}
}

type RoleDetail struct {
	Role
	Permissions []string
}

func (s *Service) ListRoles(ctx context.Context) ([]Role, error) {
	return s.repo.ListRoles(ctx)
}

func (s *Service) GetRole(ctx context.Context, roleID int64) (*RoleDetail, error) {
	role, err := s.repo.GetRole(ctx, roleID)
	if err != nil {
		return nil, err
	}

	perms, err := s.repo.RolePermissions(ctx, roleID)
	if err != nil {
		return nil, err
	}

	return &RoleDetail{Role: *role, Permissions: perms}, nil
}

func (s *Service) ListPermissions(ctx context.Context) ([]Permission, error) {
	return s.repo.ListPermissions(ctx)
}

func (s *Service) UserRoles(ctx context.Context, userID string) ([]Role, error) {
	if err := s.requireUser(ctx, userID); err != nil {
		return nil, err
	}
	return s.repo.RolesOf(ctx, userID)
}

// CreateRole creates a role strictly below the operator's own level.
func (s *Service) CreateRole(
	ctx context.Context,
	operatorID string,
	req CreateRoleRequest,
) (*Role, error) {
	if err := s.requireAbove(ctx, operatorID, req.Level); err != nil {
		return nil, fmt.Errorf("create role: %w", err)
	}

	role := &Role{
		Name:        req.Name,
		Description: req.Description,
		Level:       req.Level,
	}

	if err := s.repo.CreateRole(ctx, role); err != nil {
		return nil, err
	}

	return role, nil
}

func (s *Service) DeleteRole(ctx context.Context, operatorID string, roleID int64) error {
	role, err := s.manageableRole(ctx, operatorID, roleID)
	if err != nil {
		return fmt.Errorf("delete role: %w", err)
	}

	if role.IsSystem {
		return fmt.Errorf("delete role %s: %w", role.Name, ErrSystemRole)
	}

	return s.repo.DeleteRole(ctx, roleID)
}

// GrantPermission adds a permission to a role. Operators can only hand out
// permissions they hold themselves.
func (s *Service) GrantPermission(
	ctx context.Context,
	operatorID string,
	roleID int64,
	permission string,
) error {
	role, err := s.manageableRole(ctx, operatorID, roleID)
	if err != nil {
		return fmt.Errorf("grant permission: %w", err)
	}

	held, err := s.authority.HasPermission(ctx, operatorID, permission)
	if err != nil {
		return fmt.Errorf("grant permission: %w", err)
	}
	if !held {
		return fmt.Errorf("grant %s: operator lacks it: %w", permission, core.ErrForbidden)
	}

	return s.repo.Grant(ctx, role.Name, permission)
}

func (s *Service) RevokePermission(
	ctx context.Context,
	operatorID string,
	roleID int64,
	permission string,
) error {
	role, err := s.manageableRole(ctx, operatorID, roleID)
	if err != nil {
		return fmt.Errorf("revoke permission: %w", err)
	}

	perm, err := s.repo.GetPermissionByName(ctx, permission)
	if err != nil {
		return fmt.Errorf("revoke permission: %w", err)
	}

	return s.repo.Revoke(ctx, role.ID, perm.ID)
}

// AssignRole gives a user a role. The operator must outrank both the user
// and the role being handed out.
func (s *Service) AssignRole(
	ctx context.Context,
	operatorID string,
	userID string,
	roleName string,
) error {
	role, err := s.userRoleChange(ctx, operatorID, userID, roleName)
	if err != nil {
		return fmt.Errorf("assign role: %w", err)
	}

	return s.repo.AssignRole(ctx, userID, role.ID)
}

func (s *Service) RemoveRole(
	ctx context.Context,
	operatorID string,
	userID string,
	roleName string,
) error {
	role, err := s.userRoleChange(ctx, operatorID, userID, roleName)
	if err != nil {
		return fmt.Errorf("remove role: %w", err)
	}

	return s.repo.RemoveRole(ctx, userID, role.ID)
}

func (s *Service) userRoleChange(
	ctx context.Context,
	operatorID string,
	userID string,
	roleName string,
) (*Role, error) {
	if err := s.requireUser(ctx, userID); err != nil {
		return nil, err
	}

	if err := s.authority.CheckOperation(ctx, operatorID, userID, OpUpdate); err != nil {
		return nil, err
	}

	role, err := s.repo.GetRoleByName(ctx, roleName)
	if err != nil {
		return nil, err
	}

	if err := s.requireAbove(ctx, operatorID, role.Level); err != nil {
		return nil, err
	}

	return role, nil
}

func (s *Service) manageableRole(
	ctx context.Context,
	operatorID string,
	roleID int64,
) (*Role, error) {
	role, err := s.repo.GetRole(ctx, roleID)
	if err != nil {
		return nil, err
	}

	if err := s.requireAbove(ctx, operatorID, role.Level); err != nil {
		return nil, err
	}

	return role, nil
}

func (s *Service) requireAbove(ctx context.Context, operatorID string, level int) error {
	opLevel, err := s.authority.LevelOf(ctx, operatorID)
	if err != nil {
		return err
	}

	if opLevel <= level {
		return fmt.Errorf("level %d requires more than %d: %w", level, opLevel, core.ErrForbidden)
	}

	return nil
}

func (s *Service) requireUser(ctx context.Context, userID string) error {
	ok, err := s.repo.UserExists(ctx, userID)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("user %s: %w", userID, core.ErrNotFound)
	}
	return nil
}

func IsSystemRoleError(err error) bool {
	return errors.Is(err, ErrSystemRole)
}
