// AngelaMos | 2026
// authority.go

package rbac

import (
	"context"
	"fmt"

	"github.com/carterperez-dev/templates/identity-service/internal/core"
)

// Authority answers role and permission questions about users. Every call
// reads through to the repository; grants take effect on the next request.
type Authority struct {
	repo Repository
}

func NewAuthority(repo Repository) *Authority {
	return &Authority{repo: repo}
}

func (a *Authority) RolesOf(ctx context.Context, userID string) ([]Role, error) {
	return a.repo.RolesOf(ctx, userID)
}

func (a *Authority) PermissionsOf(ctx context.Context, userID string) ([]string, error) {
	return a.repo.PermissionsOf(ctx, userID)
}

func (a *Authority) LevelOf(ctx context.Context, userID string) (int, error) {
	return a.repo.LevelOf(ctx, userID)
}

func (a *Authority) HasPermission(ctx context.Context, userID, name string) (bool, error) {
	return a.repo.HasPermission(ctx, userID, name)
}

// HasAllPermissions is vacuously true for an empty list.
func (a *Authority) HasAllPermissions(
	ctx context.Context,
	userID string,
	names []string,
) (bool, error) {
	wanted := distinct(names)
	if len(wanted) == 0 {
		return true, nil
	}

	n, err := a.repo.CountPermissions(ctx, userID, wanted)
	if err != nil {
		return false, err
	}

	return n == len(wanted), nil
}

// HasAnyPermission is false for an empty list.
func (a *Authority) HasAnyPermission(
	ctx context.Context,
	userID string,
	names []string,
) (bool, error) {
	wanted := distinct(names)
	if len(wanted) == 0 {
		return false, nil
	}

	n, err := a.repo.CountPermissions(ctx, userID, wanted)
	if err != nil {
		return false, err
	}

	return n > 0, nil
}

// CheckOperation permits op only when the operator strictly outranks the
// target. Holders of user:undeletable can never be deleted.
func (a *Authority) CheckOperation(
	ctx context.Context,
	operatorID string,
	targetID string,
	op Operation,
) error {
	opLevel, err := a.repo.LevelOf(ctx, operatorID)
	if err != nil {
		return fmt.Errorf("check %s: %w", op, err)
	}

	targetLevel, err := a.repo.LevelOf(ctx, targetID)
	if err != nil {
		return fmt.Errorf("check %s: %w", op, err)
	}

	if opLevel <= targetLevel {
		return fmt.Errorf(
			"%s: operator level %d does not exceed target level %d: %w",
			op, opLevel, targetLevel, core.ErrForbidden,
		)
	}

	if op == OpDelete {
		protected, err := a.repo.HasPermission(ctx, targetID, PermUserUndeletable)
		if err != nil {
			return fmt.Errorf("check %s: %w", op, err)
		}
		if protected {
			return fmt.Errorf("delete: target is undeletable: %w", core.ErrForbidden)
		}
	}

	return nil
}

func distinct(names []string) []string {
	seen := make(map[string]struct{}, len(names))
	out := make([]string, 0, len(names))
	for _, n := range names {
		if _, ok := seen[n]; ok {
			continue
		}
		seen[n] = struct{}{}
		out = append(out, n)
	}
	return out
}
