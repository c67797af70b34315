// AngelaMos | 2026
// gate.go

package access

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"go.opentelemetry.io/otel/attribute"

	"github.com/carterperez-dev/templates/identity-service/internal/account"
	"github.com/carterperez-dev/templates/identity-service/internal/core"
	"github.com/carterperez-dev/templates/identity-service/internal/session"
)

const tracerName = "identity-service/access"

type SessionResolver interface {
	Resolve(ctx context.Context, token string) (*session.Session, error)
}

// AccountLoader returns core.ErrNotFound for unknown ids.
type AccountLoader interface {
	LoadAccount(ctx context.Context, id string) (*Account, error)
}

type PermissionSource interface {
	LevelOf(ctx context.Context, userID string) (int, error)
	HasAllPermissions(ctx context.Context, userID string, names []string) (bool, error)
	HasAnyPermission(ctx context.Context, userID string, names []string) (bool, error)
}

type Request struct {
	HTTP      *http.Request
	Principal *Principal
}

type Stage interface {
	Check(ctx context.Context, req *Request) error
}

type StageFunc func(ctx context.Context, req *Request) error

func (f StageFunc) Check(ctx context.Context, req *Request) error {
	return f(ctx, req)
}

type namedStage struct {
	name string
	fn   StageFunc
}

func (s namedStage) Check(ctx context.Context, req *Request) error {
	return s.fn(ctx, req)
}

func stageName(s Stage) string {
	if n, ok := s.(namedStage); ok {
		return n.name
	}
	return "custom"
}

type Gate struct {
	sessions SessionResolver
	accounts AccountLoader
	perms    PermissionSource
	cookie   CookieConfig
	logger   *slog.Logger
}

func NewGate(
	sessions SessionResolver,
	accounts AccountLoader,
	perms PermissionSource,
	cookie CookieConfig,
	logger *slog.Logger,
) *Gate {
	if logger == nil {
		logger = slog.Default()
	}
	return &Gate{
		sessions: sessions,
		accounts: accounts,
		perms:    perms,
		cookie:   cookie,
		logger:   logger,
	}
}

func (g *Gate) Cookie() CookieConfig {
	return g.cookie
}

// Require runs stages in order and stops at the first failure. On success
// the accumulated Principal is attached to the request context.
func (g *Gate) Require(stages ...Stage) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			req := &Request{HTTP: r, Principal: GetPrincipal(r.Context())}

			if err := g.Evaluate(r.Context(), req, stages...); err != nil {
				g.reject(w, r, err)
				return
			}

			ctx := r.Context()
			if req.Principal != nil {
				ctx = WithPrincipal(ctx, req.Principal)
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func (g *Gate) Evaluate(ctx context.Context, req *Request, stages ...Stage) error {
	for _, stage := range stages {
		name := stageName(stage)
		stageCtx, span := core.StartSpan(ctx, tracerName, "access."+name,
			attribute.String("access.stage", name),
		)
		err := stage.Check(stageCtx, req)
		core.EndSpan(span, err)
		if err != nil {
			return err
		}
	}
	return nil
}

func (g *Gate) LoginAccess() func(http.Handler) http.Handler {
	return g.Require(g.Login())
}

func (g *Gate) OperatorAccess() func(http.Handler) http.Handler {
	return g.Require(g.Login(), g.Operator())
}

// Login resolves the session cookie into a Principal with its account and
// level. A deleted account is rejected; inactive and banned accounts may
// still read.
func (g *Gate) Login() Stage {
	return namedStage{name: "login", fn: func(ctx context.Context, req *Request) error {
		if req.Principal != nil && req.Principal.Account != nil {
			return nil
		}

		sess, err := g.resolveSession(ctx, req)
		if err != nil {
			return err
		}

		acct, err := g.accounts.LoadAccount(ctx, sess.UserID)
		if errors.Is(err, core.ErrNotFound) {
			return fmt.Errorf("session owner missing: %w", core.ErrUnauthorized)
		}
		if err != nil {
			return fmt.Errorf("load account: %w", err)
		}

		if err := account.CheckSession(acct.Status); err != nil {
			return err
		}

		level, err := g.perms.LevelOf(ctx, acct.ID)
		if err != nil {
			return fmt.Errorf("load level: %w", err)
		}

		req.Principal = &Principal{Session: sess, Account: acct, Level: level}
		return nil
	}}
}

// Operator requires an account that may mutate state. It runs Login when
// no earlier stage loaded the account.
func (g *Gate) Operator() Stage {
	login := g.Login()
	return namedStage{name: "operator", fn: func(ctx context.Context, req *Request) error {
		if err := login.Check(ctx, req); err != nil {
			return err
		}
		return account.CheckOperator(req.Principal.Account.Status)
	}}
}

// All and Any run Login first when no earlier stage did, so deleted
// accounts never pass a permission check.
func (g *Gate) All(perms ...string) Stage {
	return g.permissionStage("all", perms, g.perms.HasAllPermissions)
}

func (g *Gate) Any(perms ...string) Stage {
	return g.permissionStage("any", perms, g.perms.HasAnyPermission)
}

func (g *Gate) permissionStage(
	mode string,
	perms []string,
	check func(context.Context, string, []string) (bool, error),
) Stage {
	login := g.Login()
	return namedStage{name: "permission." + mode, fn: func(ctx context.Context, req *Request) error {
		if err := login.Check(ctx, req); err != nil {
			return err
		}

		ok, err := check(ctx, req.Principal.UserID(), perms)
		if err != nil {
			return fmt.Errorf("check permissions: %w", err)
		}
		if !ok {
			return fmt.Errorf(
				"missing %s of %s: %w",
				mode, strings.Join(perms, ","), core.ErrForbidden,
			)
		}
		return nil
	}}
}

func (g *Gate) resolveSession(ctx context.Context, req *Request) (*session.Session, error) {
	if auth := req.HTTP.Header.Get("Authorization"); strings.HasPrefix(auth, "Bearer ") {
		return nil, fmt.Errorf("bearer credentials: %w", core.ErrNotSupported)
	}

	token := g.cookie.Read(req.HTTP)
	if token == "" {
		return nil, fmt.Errorf("no session cookie: %w", core.ErrUnauthorized)
	}

	sess, err := g.sessions.Resolve(ctx, token)
	if err != nil {
		return nil, err
	}

	return sess, nil
}

func (g *Gate) reject(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, core.ErrUnauthorized) || errors.Is(err, core.ErrAccountDeleted) {
		g.cookie.Clear(w)
	}

	if core.CodeFor(err) == core.CodeInternalError {
		g.logger.ErrorContext(r.Context(), "access check failed",
			"error", err,
			"path", r.URL.Path,
		)
		core.Fail(w, core.CodeInternalError, "")
		return
	}

	core.JSONError(w, err)
}
