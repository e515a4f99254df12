package router

import (
	"context"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/nsit-tools/attendance-dashboard/internal/config"
	"github.com/nsit-tools/attendance-dashboard/internal/handler"
	"github.com/nsit-tools/attendance-dashboard/internal/middleware"
	"github.com/nsit-tools/attendance-dashboard/internal/response"
	"github.com/nsit-tools/attendance-dashboard/internal/service"
)

// Handlers groups all handler instances for route setup.
type Handlers struct {
	Attendance *handler.AttendanceHandler
	System     *handler.SystemHandler
}

// SetupRouter configures all Gin route groups with appropriate middlewares.
// ctx bounds background goroutines owned by middlewares.
func SetupRouter(
	ctx context.Context,
	visitorService *service.VisitorService,
	handlers *Handlers,
	cfg *config.Config,
) *gin.Engine {
	gin.SetMode(cfg.GinMode)
	router := gin.Default()

	// ─── CORS ──────────────────────────────────────────────────────────
	// If AllowedOrigins is set in config, restrict to that list;
	// otherwise allow all (*) so dev works without extra config.
	corsConfig := cors.DefaultConfig()
	if len(cfg.AllowedOrigins) > 0 {
		corsConfig.AllowOrigins = cfg.AllowedOrigins
		corsConfig.AllowCredentials = true
	} else {
		corsConfig.AllowAllOrigins = true
	}
	corsConfig.AllowMethods = []string{"GET", "POST", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Authorization", "X-Request-ID"}
	corsConfig.ExposeHeaders = []string{"X-Request-ID"}
	corsConfig.MaxAge = 12 * time.Hour
	router.Use(cors.New(corsConfig))

	// Apply request ID middleware globally so every response includes metadata.
	router.Use(response.RequestIDMiddleware())

	// Apply brotli middleware globally.
	router.Use(middleware.Brotli())

	// Health check.
	router.GET("/health", handlers.System.Health)

	api := router.Group("/api/v1")
	api.Use(middleware.NoStore())

	// ─── 0. Public Group (No Visitor) ──────────────────────────────────
	api.POST("/session", handlers.Attendance.StartSession)
	api.POST("/summary", handlers.Attendance.Summarize)

	// ─── 1. Visitor Group ──────────────────────────────────────────────
	limiter := middleware.NewRateLimiter(ctx, cfg.RateLimitPerMinute, time.Minute)

	visitor := api.Group("")
	visitor.Use(middleware.RequireVisitor(visitorService))
	{
		visitor.GET("/screen", handlers.Attendance.GetScreen)
		visitor.POST("/captcha", limiter.Middleware(), handlers.Attendance.Captcha)
		visitor.POST("/login", limiter.Middleware(), handlers.Attendance.Login)
		visitor.GET("/dashboard", handlers.Attendance.Dashboard)
		visitor.POST("/logout", handlers.Attendance.Logout)
	}

	return router
}
