// AngelaMos | 2026
// routes.go

package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/carterperez-dev/templates/identity-service/internal/access"
	"github.com/carterperez-dev/templates/identity-service/internal/admin"
	"github.com/carterperez-dev/templates/identity-service/internal/auth"
	"github.com/carterperez-dev/templates/identity-service/internal/config"
	"github.com/carterperez-dev/templates/identity-service/internal/core"
	"github.com/carterperez-dev/templates/identity-service/internal/health"
	"github.com/carterperez-dev/templates/identity-service/internal/mail"
	"github.com/carterperez-dev/templates/identity-service/internal/middleware"
	"github.com/carterperez-dev/templates/identity-service/internal/rbac"
	"github.com/carterperez-dev/templates/identity-service/internal/session"
	"github.com/carterperez-dev/templates/identity-service/internal/user"
)

type application struct {
	cfg    *config.Config
	db     *core.Database
	redis  *core.Redis
	logger *slog.Logger

	gate      *access.Gate
	userSvc   *user.Service
	authSvc   *auth.Service
	rbacSvc   *rbac.Service
	authority *rbac.Authority
	clientIP  *middleware.ClientIP
}

func newApplication(
	cfg *config.Config,
	db *core.Database,
	rdb *core.Redis,
	logger *slog.Logger,
) (*application, error) {
	clientIP, err := middleware.NewClientIP(cfg.RateLimit.TrustedProxies)
	if err != nil {
		return nil, fmt.Errorf("rate limit: %w", err)
	}

	sessions := session.NewStore(rdb.Client, cfg.Session, session.WithLogger(logger))

	rbacRepo := rbac.NewRepository(db.DB)
	authority := rbac.NewAuthority(rbacRepo)

	userSvc := user.NewService(
		db.DB,
		authority,
		sessions,
		mail.New(cfg.Mail, logger),
		user.Options{
			EnableRegistration: cfg.Site.EnableRegistration,
			MailEnabled:        cfg.Mail.Enabled,
		},
		logger,
	)

	gate := access.NewGate(
		sessions,
		userSvc,
		authority,
		access.NewCookieConfig(cfg.Session),
		logger,
	)

	return &application{
		cfg:       cfg,
		db:        db,
		redis:     rdb,
		logger:    logger,
		gate:      gate,
		userSvc:   userSvc,
		authSvc:   auth.NewService(userSvc, sessions, logger),
		rbacSvc:   rbac.NewService(rbacRepo, authority),
		authority: authority,
		clientIP:  clientIP,
	}, nil
}

// bootstrap brings the schema and the built-in roles up to date and makes
// sure a super admin exists.
func (a *application) bootstrap(ctx context.Context) error {
	if err := core.Migrate(ctx, a.db); err != nil {
		return err
	}

	if err := rbac.Seed(ctx, a.db.DB); err != nil {
		return fmt.Errorf("seed rbac: %w", err)
	}

	if err := a.userSvc.EnsureSuperAdmin(ctx, a.cfg.Seed); err != nil {
		return err
	}

	return nil
}

func (a *application) mount(router chi.Router, healthHandler *health.Handler) {
	router.Use(middleware.Recoverer(a.logger))
	router.Use(middleware.RequestID)
	router.Use(middleware.Logger(a.logger))
	router.Use(middleware.SecurityHeaders(a.cfg.App.Environment == "production"))
	router.Use(middleware.CORS(a.cfg.CORS))
	router.Use(
		middleware.NewRateLimiter(a.redis.Client, middleware.LimiterConfig{
			Limit: middleware.PerWindow(
				a.cfg.RateLimit.Requests,
				a.cfg.RateLimit.Burst,
				a.cfg.RateLimit.Window,
			),
			Key:    a.clientIP.ByIP,
			Logger: a.logger,
		}).Handler,
	)

	healthHandler.RegisterRoutes(router)

	sensitiveLimit := middleware.NewRateLimiter(a.redis.Client, middleware.LimiterConfig{
		Limit: middleware.PerWindow(
			a.cfg.RateLimit.LoginRequests,
			a.cfg.RateLimit.LoginBurst,
			a.cfg.RateLimit.Window,
		),
		Key:    a.clientIP.ByIPAndEndpoint,
		Logger: a.logger,
	}).Handler

	authHandler := auth.NewHandler(a.authSvc, a.gate.Cookie(), a.logger)
	userHandler := user.NewHandler(a.userSvc, a.gate.Cookie())
	rbacHandler := rbac.NewHandler(a.rbacSvc)
	adminHandler := admin.NewHandler(admin.HandlerConfig{
		DBStats:    a.db.Stats,
		RedisStats: a.redis.PoolStats,
		DBPing:     a.db.Ping,
		RedisPing:  a.redis.Ping,
		Accounts:   a.userSvc,
	})

	router.Route("/api", func(r chi.Router) {
		authHandler.RegisterRoutes(r, a.gate, sensitiveLimit)
		userHandler.RegisterRoutes(r, a.gate, sensitiveLimit)
		rbacHandler.RegisterRoutes(r, a.gate)
		adminHandler.RegisterRoutes(r, a.gate)
	})

	router.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		core.Fail(w, core.CodeNotFound, "")
	})
	router.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		core.Fail(w, core.CodeBadRequest, "method not allowed")
	})
}
