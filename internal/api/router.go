package api

import (
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"

	"github.com/graphrag/tenantgate/internal/api/handler"
	"github.com/graphrag/tenantgate/internal/api/middleware"
	"github.com/graphrag/tenantgate/internal/core/domain"
	"github.com/graphrag/tenantgate/internal/core/ports"
	"github.com/graphrag/tenantgate/internal/infrastructure/config"
)

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(cfg *config.Config, users ports.UserService, tokens ports.TokenService, registry ports.WorkspaceRegistry, log zerolog.Logger) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(log)

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(echoprometheus.NewMiddleware("tenantgate"))
	e.Use(middleware.Identity(middleware.IdentityConfig{
		Tokens:       tokens,
		Users:        users,
		APIKey:       cfg.APIKey,
		AuthRequired: cfg.AuthRequired,
	}))
	e.Use(middleware.Workspace(registry))

	// --- Handlers ---
	authHandler := handler.NewAuthHandler(users, tokens)
	usersHandler := handler.NewUsersHandler(users)
	workspaceHandler := handler.NewWorkspaceHandler()
	requireAuth := middleware.Auth(tokens, users)

	// --- Auth routes (bypassed by the global resolver; the protected
	// ones carry their own bearer check) ---
	auth := e.Group("/auth")
	auth.POST("/login", authHandler.Login)
	auth.POST("/register", authHandler.Register)

	session := auth.Group("", requireAuth)
	session.GET("/me", authHandler.Me)
	session.GET("/verify", authHandler.Verify)
	session.POST("/logout", authHandler.Logout)
	session.PUT("/change-password", authHandler.ChangePassword)

	// --- Account administration (admin role only) ---
	admin := auth.Group("/users", requireAuth, middleware.RBAC(domain.RoleAdmin))
	admin.GET("", usersHandler.List)
	admin.PUT("/:username", usersHandler.Update)
	admin.DELETE("/:username", usersHandler.Delete)

	// --- Workspace info (resolved identity required) ---
	e.GET("/workspace", workspaceHandler.Info)

	// --- Health probes & metrics (no auth required) ---
	healthHandler := handler.NewHealthHandler()
	readinessHandler := handler.NewReadinessHandler(cfg.UsersFile, cfg.WorkingDir)

	e.GET("/health", healthHandler.Liveness)
	e.GET("/health/ready", readinessHandler.Readiness)
	e.GET("/metrics", echoprometheus.NewHandler())

	return e
}
