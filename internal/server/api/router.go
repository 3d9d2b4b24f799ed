package api

import (
	"context"

	"jshell/internal/server/config"
	"jshell/internal/server/metrics"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

// SetupRouter creates and configures the echo router with all routes and
// middleware. ctx bounds background work owned by the middleware.
func SetupRouter(ctx context.Context, handler *Handler, cfg *config.Config) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.Recover())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowHeaders: []string{"Content-Type", "Authorization"},
	}))
	e.Use(RequestLogger())

	execLimiter := NewRateLimiter(ctx, cfg.RateLimitRPS, cfg.RateLimitBurst)

	e.GET("/health", handler.HandleHealth)
	e.GET("/api/stats", handler.HandleStats)
	e.GET("/metrics", echo.WrapHandler(metrics.Handler()))

	sessions := e.Group("/api/sessions")
	sessions.POST("", handler.HandleCreateSession)
	sessions.POST("/:id/token", handler.HandleIssueToken)
	sessions.POST("/:id/exec", handler.HandleExec, execLimiter.Middleware())
	sessions.GET("/:id/tree", handler.HandleTree)
	sessions.GET("/:id/archive", handler.HandleArchive)
	sessions.GET("/:id/history", handler.HandleHistory)
	sessions.DELETE("/:id", handler.HandleDelete)

	return e
}
