// AngelaMos | 2026
// handler.go

package user

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/carterperez-dev/templates/identity-service/internal/access"
	"github.com/carterperez-dev/templates/identity-service/internal/account"
	"github.com/carterperez-dev/templates/identity-service/internal/core"
	"github.com/carterperez-dev/templates/identity-service/internal/rbac"
)

type Handler struct {
	service   *Service
	cookie    access.CookieConfig
	validator *validator.Validate
}

func NewHandler(service *Service, cookie access.CookieConfig) *Handler {
	return &Handler{
		service:   service,
		cookie:    cookie,
		validator: validator.New(validator.WithRequiredStructEnabled()),
	}
}

func (h *Handler) RegisterRoutes(
	r chi.Router,
	gate *access.Gate,
	registerLimit func(http.Handler) http.Handler,
) {
	r.Route("/user", func(r chi.Router) {
		r.With(registerLimit).Post("/register", h.Register)
		r.With(registerLimit).Post("/verify", h.VerifyEmail)

		r.With(gate.Require(gate.Login(), gate.All(rbac.PermUserReadSelf))).
			Get("/info", h.Me)
		r.With(gate.Require(gate.Any(rbac.PermUserReadActive, rbac.PermUserReadAll))).
			Get("/info/{userID}", h.Info)

		r.With(gate.Require(gate.Operator(), gate.All(rbac.PermUserUpdateSelf))).
			Put("/info", h.UpdateSelf)
		r.With(gate.Require(gate.Operator(), gate.All(rbac.PermUserUpdateAll))).
			Put("/info/{userID}", h.UpdateByID)

		r.With(gate.Require(gate.Operator(), gate.All(rbac.PermUserDeleteSelf))).
			Delete("/", h.DeleteSelf)
		r.With(gate.Require(gate.Operator(), gate.All(rbac.PermUserDeleteAll))).
			Delete("/{userID}", h.DeleteByID)

		r.With(gate.Require(gate.Operator(), gate.All(rbac.PermUserUpdateAll))).
			Put("/{userID}/status", h.ChangeStatus)
		r.With(gate.Require(gate.Operator(), gate.All(rbac.PermUserResetPasswordAny))).
			Post("/{userID}/reset-password", h.ResetPassword)

		r.With(gate.Require(gate.All(rbac.PermUserReadAll))).Get("/list", h.List)
	})
}

func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		core.BadRequest(w, "invalid request body")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		core.BadRequest(w, core.FormatValidationError(err))
		return
	}

	u, err := h.service.Register(r.Context(), req)
	if err != nil {
		core.JSONError(w, err)
		return
	}

	core.Created(w, ToUserResponse(u))
}

func (h *Handler) VerifyEmail(w http.ResponseWriter, r *http.Request) {
	var req VerifyEmailRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		core.BadRequest(w, "invalid request body")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		core.BadRequest(w, core.FormatValidationError(err))
		return
	}

	if err := h.service.VerifyEmail(r.Context(), req.Token); err != nil {
		core.JSONError(w, err)
		return
	}

	core.OK(w, nil)
}

func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	u, level, err := h.service.Me(r.Context(), access.GetUserID(r.Context()))
	if err != nil {
		core.JSONError(w, err)
		return
	}

	resp := ToUserResponse(u)
	resp.Level = &level
	core.OK(w, resp)
}

func (h *Handler) Info(w http.ResponseWriter, r *http.Request) {
	targetID, ok := parseUserID(w, r)
	if !ok {
		return
	}

	u, err := h.service.Info(r.Context(), access.GetUserID(r.Context()), targetID)
	if err != nil {
		core.JSONError(w, err)
		return
	}

	core.OK(w, ToUserResponse(u))
}

func (h *Handler) UpdateSelf(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decodeProfile(w, r)
	if !ok {
		return
	}

	u, err := h.service.UpdateSelf(r.Context(), access.GetUserID(r.Context()), req)
	if err != nil {
		core.JSONError(w, err)
		return
	}

	core.OK(w, ToUserResponse(u))
}

func (h *Handler) UpdateByID(w http.ResponseWriter, r *http.Request) {
	targetID, ok := parseUserID(w, r)
	if !ok {
		return
	}

	req, ok := h.decodeProfile(w, r)
	if !ok {
		return
	}

	u, err := h.service.UpdateByID(r.Context(), access.GetUserID(r.Context()), targetID, req)
	if err != nil {
		core.JSONError(w, err)
		return
	}

	core.OK(w, ToUserResponse(u))
}

func (h *Handler) DeleteSelf(w http.ResponseWriter, r *http.Request) {
	var req DeleteSelfRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		core.BadRequest(w, "invalid request body")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		core.BadRequest(w, core.FormatValidationError(err))
		return
	}

	if err := h.service.DeleteSelf(r.Context(), access.GetUserID(r.Context()), req.Password); err != nil {
		core.JSONError(w, err)
		return
	}

	h.cookie.Clear(w)
	core.OK(w, nil)
}

func (h *Handler) DeleteByID(w http.ResponseWriter, r *http.Request) {
	targetID, ok := parseUserID(w, r)
	if !ok {
		return
	}

	if err := h.service.DeleteByID(r.Context(), access.GetUserID(r.Context()), targetID); err != nil {
		core.JSONError(w, err)
		return
	}

	core.OK(w, nil)
}

func (h *Handler) ChangeStatus(w http.ResponseWriter, r *http.Request) {
	targetID, ok := parseUserID(w, r)
	if !ok {
		return
	}

	var req ChangeStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		core.BadRequest(w, "invalid request body")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		core.BadRequest(w, core.FormatValidationError(err))
		return
	}

	status, err := account.ParseStatus(req.Status)
	if err != nil {
		core.BadRequest(w, err.Error())
		return
	}

	u, err := h.service.ChangeStatus(r.Context(), access.GetUserID(r.Context()), targetID, status)
	if err != nil {
		core.JSONError(w, err)
		return
	}

	core.OK(w, ToUserResponse(u))
}

func (h *Handler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	targetID, ok := parseUserID(w, r)
	if !ok {
		return
	}

	temp, err := h.service.ResetPassword(r.Context(), access.GetUserID(r.Context()), targetID)
	if err != nil {
		core.JSONError(w, err)
		return
	}

	core.OK(w, ResetPasswordResponse{TemporaryPassword: temp})
}

// List returns a page of users with optional search and status filters.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	params := ListUsersParams{
		Page:     parseIntQuery(r, "page", 1),
		PageSize: parseIntQuery(r, "page_size", 20),
		Search:   r.URL.Query().Get("search"),
	}

	if v := r.URL.Query().Get("status"); v != "" {
		status, err := account.ParseStatus(v)
		if err != nil {
			core.BadRequest(w, err.Error())
			return
		}
		params.Status = &status
	}
	params.Normalize()

	users, total, err := h.service.List(r.Context(), params)
	if err != nil {
		core.InternalServerError(w, err)
		return
	}

	core.OK(w, UserListResponse{
		Users:    ToUserResponseList(users),
		Total:    total,
		Page:     params.Page,
		PageSize: params.PageSize,
	})
}

func (h *Handler) decodeProfile(w http.ResponseWriter, r *http.Request) (UpdateProfileRequest, bool) {
	var req UpdateProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		core.BadRequest(w, "invalid request body")
		return req, false
	}

	if err := h.validator.Struct(req); err != nil {
		core.BadRequest(w, core.FormatValidationError(err))
		return req, false
	}

	return req, true
}

func parseUserID(w http.ResponseWriter, r *http.Request) (string, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "userID"))
	if err != nil {
		core.BadRequest(w, "invalid user id")
		return "", false
	}
	return id.String(), true
}

func parseIntQuery(r *http.Request, key string, defaultVal int) int {
	val := r.URL.Query().Get(key)
	if val == "" {
		return defaultVal
	}

	parsed, err := strconv.Atoi(val)
	if err != nil {
		return defaultVal
	}

	return parsed
}
