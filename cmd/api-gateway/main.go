package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/fixtrack/fixtrack-api/api/swagger"
	"github.com/fixtrack/fixtrack-api/internal/handler"
	"github.com/fixtrack/fixtrack-api/internal/middleware"
	"github.com/fixtrack/fixtrack-api/internal/models"
	"github.com/fixtrack/fixtrack-api/internal/repository"
	"github.com/fixtrack/fixtrack-api/internal/service"
	"github.com/fixtrack/fixtrack-api/pkg/cache"
	"github.com/fixtrack/fixtrack-api/pkg/config"
	"github.com/fixtrack/fixtrack-api/pkg/database"
	"github.com/fixtrack/fixtrack-api/pkg/jobs"
	"github.com/fixtrack/fixtrack-api/pkg/logger"
	"github.com/fixtrack/fixtrack-api/pkg/mailer"
	corsmiddleware "github.com/fixtrack/fixtrack-api/pkg/middleware/cors"
	reqidmiddleware "github.com/fixtrack/fixtrack-api/pkg/middleware/requestid"
)

// @title FixTrack API
// @version 1.0.0
// @description Property maintenance workflow service
// @BasePath /
// @schemes http https

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close()

	metrics := service.NewMetricsService()

	var cacheService *service.CacheService
	if cfg.Redis.Enabled {
		redisClient, err := cache.NewRedis(cfg.Redis)
		if err != nil {
			logr.Sugar().Warnw("redis unavailable, dashboard cache disabled", "error", err)
		} else {
			defer redisClient.Close()
			cacheRepo := repository.NewCacheRepository(redisClient, logr)
			cacheService = service.NewCacheService(cacheRepo, metrics, cfg.Dashboard.CacheTTL, logr, true)
		}
	}

	maintenanceRepo := repository.NewMaintenanceRepository(db)
	tokenRepo := repository.NewTokenRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)
	directoryRepo := repository.NewDirectoryRepository(db)

	validate := validator.New()

	authService := service.NewAuthService(directoryRepo, validate, logr, service.AuthConfig{
		Secret:     cfg.JWT.Secret,
		Expiration: cfg.JWT.Expiration,
		Issuer:     cfg.JWT.Issuer,
	})
	tokenService := service.NewTokenService(tokenRepo, cfg.Tokens.TTL, logr)
	notificationService := service.NewNotificationService(
		notificationRepo, directoryRepo, mailer.FromConfig(cfg.SMTP, logr), metrics, logr,
		jobs.QueueConfig{
			Workers:    cfg.Notifications.WorkerConcurrency,
			MaxRetries: cfg.Notifications.WorkerRetries,
			RetryDelay: cfg.Notifications.RetryDelay,
			Logger:     logr,
		})
	workflowService := service.NewWorkflowService(service.WorkflowServiceParams{
		Repo:      maintenanceRepo,
		Directory: directoryRepo,
		Notifier:  notificationService,
		Tokens:    tokenService,
		Cache:     cacheService,
		Metrics:   metrics,
		Validator: validate,
		Logger:    logr,
		PublicURL: cfg.PublicURL,
	})
	queryService := service.NewQueryService(maintenanceRepo, directoryRepo, tokenService, logr)
	dashboardService := service.NewDashboardService(maintenanceRepo, cacheService, cfg.Dashboard.CacheTTL, logr)

	notificationService.Start(context.Background())
	defer notificationService.Stop()

	authHandler := handler.NewAuthHandler(authService)
	maintenanceHandler := handler.NewMaintenanceHandler(workflowService, queryService)
	actionHandler := handler.NewActionHandler(workflowService, queryService)
	notificationHandler := handler.NewNotificationHandler(notificationService)
	dashboardHandler := handler.NewDashboardHandler(dashboardService)
	contractorHandler := handler.NewContractorHandler(queryService)

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.WithResponseMeta())
	r.Use(middleware.Metrics(metrics))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/ready", func(c *gin.Context) {
		if err := db.PingContext(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	r.GET("/metrics", gin.WrapH(metrics.Handler()))

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)

	api.POST("/auth/login", authHandler.Login)

	// Capability-token routes are reachable without a session.
	actions := api.Group("/actions")
	actions.GET("/select-contractor/:token", actionHandler.ViewSelection)
	actions.POST("/select-contractor/:token", actionHandler.SubmitSelection)
	actions.GET("/schedule-appointment/:token", actionHandler.ViewSchedule)
	actions.POST("/schedule-appointment/:token", actionHandler.SubmitSchedule)

	authed := api.Group("")
	authed.Use(middleware.JWT(authService))

	authed.GET("/auth/me", authHandler.Me)

	authed.GET("/requests", maintenanceHandler.List)
	authed.GET("/requests/export", middleware.RequireRoles(models.RoleBroker, models.RoleOwner), maintenanceHandler.ExportCSV)
	authed.POST("/requests", middleware.RequireRoles(models.RoleRenter), maintenanceHandler.Create)
	authed.GET("/requests/:id", maintenanceHandler.Get)
	authed.GET("/requests/:id/work-order", maintenanceHandler.WorkOrderPDF)
	authed.POST("/requests/:id/notify-owner", middleware.RequireRoles(models.RoleBroker), maintenanceHandler.NotifyOwner)
	authed.POST("/requests/:id/select-contractor", middleware.RequireRoles(models.RoleOwner), maintenanceHandler.SelectContractor)
	authed.POST("/requests/:id/schedule", middleware.RequireRoles(models.RoleContractor), maintenanceHandler.Schedule)
	authed.POST("/requests/:id/start", middleware.RequireRoles(models.RoleContractor), maintenanceHandler.Start)
	authed.POST("/requests/:id/complete", middleware.RequireRoles(models.RoleContractor), maintenanceHandler.Complete)

	authed.GET("/properties", middleware.RequireRoles(models.RoleRenter), maintenanceHandler.Properties)
	authed.GET("/contractors", middleware.RequireRoles(models.RoleOwner, models.RoleBroker), contractorHandler.List)
	authed.GET("/dashboard", dashboardHandler.Summary)

	authed.GET("/notifications", notificationHandler.List)
	authed.GET("/notifications/unread-count", notificationHandler.UnreadCount)
	authed.POST("/notifications/:id/read", notificationHandler.MarkRead)
	authed.POST("/notifications/read-all", notificationHandler.MarkAllRead)

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Port),
		Handler: r,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logr.Sugar().Infow("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logr.Sugar().Errorw("graceful shutdown failed", "error", err)
	}
}
