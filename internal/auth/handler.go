// AngelaMos | 2026
// handler.go

package auth

import (
	"encoding/json"
	"log/slog"
	"net"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/carterperez-dev/templates/identity-service/internal/access"
	"github.com/carterperez-dev/templates/identity-service/internal/core"
	"github.com/carterperez-dev/templates/identity-service/internal/rbac"
)

type Handler struct {
	service   *Service
	cookie    access.CookieConfig
	validator *validator.Validate
	logger    *slog.Logger
}

func NewHandler(service *Service, cookie access.CookieConfig, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		service:   service,
		cookie:    cookie,
		validator: validator.New(validator.WithRequiredStructEnabled()),
		logger:    logger,
	}
}

func (h *Handler) RegisterRoutes(
	r chi.Router,
	gate *access.Gate,
	loginLimit func(http.Handler) http.Handler,
) {
	r.Route("/auth", func(r chi.Router) {
		r.With(loginLimit).Post("/login", h.Login)

		r.With(gate.LoginAccess()).Post("/logout", h.Logout)
		r.With(gate.LoginAccess()).Post("/logout-all", h.LogoutAll)

		r.With(gate.Require(gate.Operator(), gate.All(rbac.PermUserResetPasswordSelf))).
			Put("/password", h.ChangePassword)
	})
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		core.BadRequest(w, "invalid request body")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		core.BadRequest(w, core.FormatValidationError(err))
		return
	}

	sess, err := h.service.Login(r.Context(), req)
	if err != nil {
		if core.CodeFor(err) != core.CodeInternalError {
			h.logger.InfoContext(r.Context(), "login rejected",
				"ip", extractIPAddress(r),
				"code", int(core.CodeFor(err)),
			)
		}
		core.JSONError(w, err)
		return
	}

	h.cookie.Set(w, sess.Token, sess.ExpiresAt)
	core.OK(w, LoginResponse{UserID: sess.UserID, ExpiresAt: sess.ExpiresAt})
}

func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	principal := access.GetPrincipal(r.Context())

	if err := h.service.Logout(r.Context(), principal.Token()); err != nil {
		core.JSONError(w, err)
		return
	}

	h.cookie.Clear(w)
	core.OK(w, nil)
}

func (h *Handler) LogoutAll(w http.ResponseWriter, r *http.Request) {
	if err := h.service.LogoutAll(r.Context(), access.GetUserID(r.Context())); err != nil {
		core.JSONError(w, err)
		return
	}

	h.cookie.Clear(w)
	core.OK(w, nil)
}

func (h *Handler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	var req ChangePasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		core.BadRequest(w, "invalid request body")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		core.BadRequest(w, core.FormatValidationError(err))
		return
	}

	err := h.service.ChangePassword(
		r.Context(),
		access.GetUserID(r.Context()),
		req.CurrentPassword,
		req.NewPassword,
	)
	if err != nil {
		core.JSONError(w, err)
		return
	}

	h.cookie.Clear(w)
	core.OK(w, nil)
}

func extractIPAddress(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		ips := strings.Split(xff, ",")
		return strings.TrimSpace(ips[len(ips)-1])
	}

	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}

	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}

	return ip
}
