// AngelaMos | 2026
// handler.go

package rbac

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/carterperez-dev/templates/identity-service/internal/access"
	"github.com/carterperez-dev/templates/identity-service/internal/core"
)

type Handler struct {
	service   *Service
	validator *validator.Validate
}

func NewHandler(service *Service) *Handler {
	return &Handler{
		service:   service,
		validator: validator.New(validator.WithRequiredStructEnabled()),
	}
}

func (h *Handler) RegisterRoutes(r chi.Router, gate *access.Gate) {
	r.Route("/role", func(r chi.Router) {
		r.With(gate.Require(gate.All(PermRoleRead))).Get("/", h.ListRoles)
		r.With(gate.Require(gate.Operator(), gate.All(PermRoleCreate))).Post("/", h.CreateRole)
		r.With(gate.Require(gate.All(PermRoleRead))).Get("/{roleID}", h.GetRole)
		r.With(gate.Require(gate.Operator(), gate.All(PermRoleDelete))).Delete("/{roleID}", h.DeleteRole)

		r.Group(func(r chi.Router) {
			r.Use(gate.Require(gate.Operator(), gate.All(PermRoleManagePermissions)))
			r.Put("/{roleID}/permissions/{permission}", h.GrantPermission)
			r.Delete("/{roleID}/permissions/{permission}", h.RevokePermission)
		})

		r.Route("/user/{userID}", func(r chi.Router) {
			r.With(gate.Require(gate.Any(PermUserManageRoles, PermUserReadAll))).Get("/", h.UserRoles)

			r.Group(func(r chi.Router) {
				r.Use(gate.Require(gate.Operator(), gate.All(PermUserManageRoles)))
				r.Post("/", h.AssignRole)
				r.Delete("/{roleName}", h.RemoveRole)
			})
		})
	})

	r.With(gate.Require(gate.All(PermPermissionRead))).Get("/permission", h.ListPermissions)
}

func (h *Handler) ListRoles(w http.ResponseWriter, r *http.Request) {
	roles, err := h.service.ListRoles(r.Context())
	if err != nil {
		core.InternalServerError(w, err)
		return
	}

	core.OK(w, ToRoleResponseList(roles))
}

func (h *Handler) GetRole(w http.ResponseWriter, r *http.Request) {
	roleID, ok := parseRoleID(w, r)
	if !ok {
		return
	}

	detail, err := h.service.GetRole(r.Context(), roleID)
	if err != nil {
		core.JSONError(w, err)
		return
	}

	resp := ToRoleResponse(&detail.Role)
	resp.Permissions = detail.Permissions
	core.OK(w, resp)
}

func (h *Handler) CreateRole(w http.ResponseWriter, r *http.Request) {
	var req CreateRoleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		core.BadRequest(w, "invalid request body")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		core.BadRequest(w, core.FormatValidationError(err))
		return
	}

	role, err := h.service.CreateRole(r.Context(), access.GetUserID(r.Context()), req)
	if err != nil {
		core.JSONError(w, err)
		return
	}

	core.Created(w, ToRoleResponse(role))
}

func (h *Handler) DeleteRole(w http.ResponseWriter, r *http.Request) {
	roleID, ok := parseRoleID(w, r)
	if !ok {
		return
	}

	if err := h.service.DeleteRole(r.Context(), access.GetUserID(r.Context()), roleID); err != nil {
		core.JSONError(w, err)
		return
	}

	core.OK(w, nil)
}

func (h *Handler) GrantPermission(w http.ResponseWriter, r *http.Request) {
	roleID, ok := parseRoleID(w, r)
	if !ok {
		return
	}

	err := h.service.GrantPermission(
		r.Context(),
		access.GetUserID(r.Context()),
		roleID,
		chi.URLParam(r, "permission"),
	)
	if err != nil {
		core.JSONError(w, err)
		return
	}

	core.OK(w, nil)
}

func (h *Handler) RevokePermission(w http.ResponseWriter, r *http.Request) {
	roleID, ok := parseRoleID(w, r)
	if !ok {
		return
	}

	err := h.service.RevokePermission(
		r.Context(),
		access.GetUserID(r.Context()),
		roleID,
		chi.URLParam(r, "permission"),
	)
	if err != nil {
		core.JSONError(w, err)
		return
	}

	core.OK(w, nil)
}

func (h *Handler) ListPermissions(w http.ResponseWriter, r *http.Request) {
	perms, err := h.service.ListPermissions(r.Context())
	if err != nil {
		core.InternalServerError(w, err)
		return
	}

	core.OK(w, ToPermissionResponseList(perms))
}

func (h *Handler) UserRoles(w http.ResponseWriter, r *http.Request) {
	roles, err := h.service.UserRoles(r.Context(), chi.URLParam(r, "userID"))
	if err != nil {
		core.JSONError(w, err)
		return
	}

	core.OK(w, ToRoleResponseList(roles))
}

func (h *Handler) AssignRole(w http.ResponseWriter, r *http.Request) {
	var req AssignRoleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		core.BadRequest(w, "invalid request body")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		core.BadRequest(w, core.FormatValidationError(err))
		return
	}

	err := h.service.AssignRole(
		r.Context(),
		access.GetUserID(r.Context()),
		chi.URLParam(r, "userID"),
		req.Role,
	)
	if err != nil {
		core.JSONError(w, err)
		return
	}

	core.OK(w, nil)
}

func (h *Handler) RemoveRole(w http.ResponseWriter, r *http.Request) {
	err := h.service.RemoveRole(
		r.Context(),
		access.GetUserID(r.Context()),
		chi.URLParam(r, "userID"),
		chi.URLParam(r, "roleName"),
	)
	if err != nil {
		core.JSONError(w, err)
		return
	}

	core.OK(w, nil)
}

func parseRoleID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "roleID"), 10, 64)
	if err != nil || id <= 0 {
		core.BadRequest(w, "invalid role id")
		return 0, false
	}
	return id, true
}
