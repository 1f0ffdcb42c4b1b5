// Package router wires the HTTP surface: middleware, routes, and server
// lifecycle.
package router

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/pprof"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	appservice "github.com/wavecard/guard/internal/application/service"
	"github.com/wavecard/guard/internal/config"
	"github.com/wavecard/guard/internal/infrastructure/monitoring"
	"github.com/wavecard/guard/internal/interfaces/http/handlers"
	"github.com/wavecard/guard/internal/interfaces/http/middleware"
	"github.com/wavecard/guard/pkg/logger"
)

// Router is the HTTP server and route table.
type Router struct {
	engine        *gin.Engine
	config        *config.Config
	logger        logger.Logger
	metrics       *monitoring.Metrics
	rateLimits    *appservice.RateLimitAppService
	healthHandler *handlers.HealthHandler
	guardHandler  *handlers.GuardHandler
	adminHandler  *handlers.AdminHandler
	server        *http.Server
}

// NewRouter creates the router.
func NewRouter(
	cfg *config.Config,
	log logger.Logger,
	metrics *monitoring.Metrics,
	rateLimits *appservice.RateLimitAppService,
	healthHandler *handlers.HealthHandler,
	guardHandler *handlers.GuardHandler,
	adminHandler *handlers.AdminHandler,
) *Router {
	gin.SetMode(gin.ReleaseMode)

	return &Router{
		engine:        gin.New(),
		config:        cfg,
		logger:        log,
		metrics:       metrics,
		rateLimits:    rateLimits,
		healthHandler: healthHandler,
		guardHandler:  guardHandler,
		adminHandler:  adminHandler,
	}
}

// SetupRoutes installs middleware and routes.
func (r *Router) SetupRoutes() {
	r.engine.Use(gin.Recovery())
	r.engine.Use(middleware.RequestLogger(r.metrics, r.logger))

	r.engine.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "X-Request-ID"},
		ExposeHeaders:    []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	r.engine.GET("/health/live", r.healthHandler.LivenessCheck)
	r.engine.GET("/health/ready", r.healthHandler.ReadinessCheck)

	r.engine.GET("/metrics", gin.WrapH(promhttp.Handler()))

	if r.config.Monitoring.PprofEnabled {
		pprof.Register(r.engine)
	}

	v1 := r.engine.Group("/api/v1")
	if r.config.RateLimit.Enabled {
		v1.Use(middleware.SelfRateLimit(r.rateLimits))
	}
	{
		limits := v1.Group("/limits")
		{
			limits.POST("/check", r.guardHandler.CheckRateLimit)
		}

		security := v1.Group("/security")
		{
			security.POST("/report", r.guardHandler.ReportSecurity)
		}

		notifications := v1.Group("/notifications")
		{
			notifications.POST("", r.guardHandler.TriggerNotification)
			notifications.POST("/process", r.guardHandler.ProcessQueue)
		}

		flags := v1.Group("/flags")
		{
			flags.POST("/evaluate", r.guardHandler.EvaluateFlags)
			flags.POST("/:key/evaluate", r.guardHandler.EvaluateFlag)
		}

		admin := v1.Group("/admin")
		admin.Use(middleware.AdminAuth(r.config.Auth.AdminTokenSecret))
		{
			admin.GET("/rules", r.adminHandler.ListRules)
			admin.POST("/rules", r.adminHandler.CreateRule)
			admin.PUT("/rules/:id", r.adminHandler.UpdateRule)
			admin.DELETE("/rules/:id", r.adminHandler.DeleteRule)
			admin.POST("/unblock", r.adminHandler.UnblockIP)
			admin.POST("/limits/reset", r.adminHandler.ResetLimit)
			admin.GET("/events", r.adminHandler.RecentEvents)
			admin.GET("/flags", r.adminHandler.ListFlags)
		}
	}

	r.engine.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{
			"error":             "not_found",
			"error_description": "The requested resource was not found",
		})
	})
}

// Start runs the HTTP server. Blocking; returns after Stop.
func (r *Router) Start() error {
	r.SetupRoutes()

	addr := fmt.Sprintf("%s:%d", r.config.Server.Host, r.config.Server.Port)
	r.server = &http.Server{
		Addr:           addr,
		Handler:        r.engine,
		ReadTimeout:    time.Duration(r.config.Server.ReadTimeout) * time.Second,
		WriteTimeout:   time.Duration(r.config.Server.WriteTimeout) * time.Second,
		IdleTimeout:    time.Duration(r.config.Server.IdleTimeout) * time.Second,
		MaxHeaderBytes: 1 << 20,
	}

	r.logger.Info(context.Background(), "Starting HTTP server", logger.String("address", addr))

	if err := r.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Stop gracefully shuts the server down.
func (r *Router) Stop(ctx context.Context) error {
	if r.server == nil {
		return nil
	}
	r.logger.Info(ctx, "Stopping HTTP server")
	return r.server.Shutdown(ctx)
}

// Engine exposes the gin engine for tests.
func (r *Router) Engine() *gin.Engine {
	return r.engine
}
