// AngelaMos | 2026
// dto.go

package rbac

import (
	"time"
)

type CreateRoleRequest struct {
	Name        string `json:"name"        validate:"required,min=2,max=64"`
	Description string `json:"description" validate:"max=255"`
	Level       int    `json:"level"       validate:"min=0,max=1000"`
}

type AssignRoleRequest struct {
	Role string `json:"role" validate:"required,min=2,max=64"`
}

type RoleResponse struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Level       int       `json:"level"`
	IsSystem    bool      `json:"is_system"`
	Permissions []string  `json:"permissions,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

type PermissionResponse struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	IsSystem    bool   `json:"is_system"`
}

func ToRoleResponse(r *Role) RoleResponse {
	return RoleResponse{
		ID:          r.ID,
		Name:        r.Name,
		Description: r.Description,
		Level:       r.Level,
		IsSystem:    r.IsSystem,
		CreatedAt:   r.CreatedAt,
	}
}

func ToRoleResponseList(roles []Role) []RoleResponse {
	out := make([]RoleResponse, 0, len(roles))
	for i := range roles {
		out = append(out, ToRoleResponse(&roles[i]))
	}
	return out
}

func ToPermissionResponseList(perms []Permission) []PermissionResponse {
	out := make([]PermissionResponse, 0, len(perms))
	for _, p := range perms {
		out = append(out, PermissionResponse{
			ID:          p.ID,
			Name:        p.Name,
			Description: p.Description,
			IsSystem:    p.IsSystem,
		})
	}
	return out
}
