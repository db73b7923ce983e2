// Package main runs the club booking platform HTTP server with WebSocket
// feed and graceful shutdown.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/openclub/backend/config"
	"github.com/openclub/backend/internal/auth"
	"github.com/openclub/backend/internal/authz"
	"github.com/openclub/backend/internal/bookings"
	"github.com/openclub/backend/internal/middleware"
	"github.com/openclub/backend/internal/notifications"
	"github.com/openclub/backend/internal/organizations"
	"github.com/openclub/backend/internal/rainfall"
	"github.com/openclub/backend/internal/realtime"
	"github.com/openclub/backend/internal/resources"
	"github.com/openclub/backend/internal/settings"
	"github.com/openclub/backend/pkg/database"
	"github.com/openclub/backend/pkg/queue"
	"github.com/openclub/backend/pkg/redis"
	"github.com/openclub/backend/pkg/response"
	"github.com/openclub/backend/pkg/storage"
)

func main() {
	logger := newLogger()
	defer logger.Sync()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("load config", zap.Error(err))
	}

	ctx := context.Background()
	pool, err := database.NewPostgresPool(ctx, cfg.Database.DSN(), logger)
	if err != nil {
		logger.Fatal("database", zap.Error(err))
	}
	defer pool.Close()

	if err := database.Migrate(ctx, pool); err != nil {
		logger.Fatal("migrate", zap.Error(err))
	}

	rdb, err := redis.NewClient(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, logger)
	if err != nil {
		logger.Fatal("redis", zap.Error(err))
	}
	defer rdb.Close()

	var s3Client *storage.S3
	if cfg.AWS.Region != "" {
		s3Cfg := storage.S3Config{
			Region:          cfg.AWS.Region,
			AccessKeyID:     cfg.AWS.AccessKeyID,
			SecretAccessKey: cfg.AWS.SecretAccessKey,
			AssetsBucket:    cfg.AWS.AssetsBucket,
		}
		s3Client, err = storage.NewS3(ctx, s3Cfg, logger)
		if err != nil {
			logger.Warn("s3 disabled", zap.Error(err))
		}
	}

	jwtService := auth.NewJWTService(cfg.JWT.Secret, cfg.JWT.ExpireHours)
	redisPubSub := realtime.NewRedisPubSub(rdb.Client, logger)
	hub := realtime.NewHub(logger, redisPubSub, redisPubSub)
	jobQueue := queue.NewQueue(rdb.Client, logger)

	// Accounts and capability resolution
	authRepo := auth.NewRepository(pool)
	orgRepo := organizations.NewRepository(pool)
	resolver := authz.NewResolver(authRepo, authRepo, orgRepo, cfg.Auth.BypassRole)
	authHandler := auth.NewHandler(authRepo, jwtService, logger)

	// Organizations and memberships
	orgHandler := organizations.NewHandler(orgRepo, s3Client, logger)

	// Resources
	resourceRepo := resources.NewRepository(pool)
	resourceHandler := resources.NewHandler(resourceRepo, orgRepo, logger)

	// Bookings
	bookingRepo := bookings.NewRepository(pool)
	bookingService := bookings.NewService(bookingRepo, resourceRepo, resolver)
	bookingHandler := bookings.NewHandler(bookingService, bookingRepo, jobQueue, hub, logger)

	// Settings
	settingsRepo := settings.NewRepository(pool)
	settingsHandler := settings.NewHandler(settingsRepo, logger)

	// Email logs
	emailLogsRepo := notifications.NewRepository(pool)
	emailLogsHandler := notifications.NewHandler(emailLogsRepo, logger)

	// Rainfall
	rainfallRepo := rainfall.NewRepository(pool)
	rainfallHandler := rainfall.NewHandler(rainfallRepo, logger)

	response.SetDevMode(cfg.Server.DevMode)
	if !cfg.Server.DevMode {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.CORS(cfg.Server.CORSAllowedOrigins))
	router.Use(middleware.Logger(logger))

	// Health
	router.GET("/health", func(c *gin.Context) { response.OK(c, gin.H{"status": "ok"}) })

	// Auth (public)
	authGroup := router.Group("/auth")
	{
		authGroup.POST("/login", authHandler.Login)
		authGroup.POST("/register", authHandler.Register)
	}

	// Public directory
	router.GET("/organizations", orgHandler.List)
	router.GET("/organizations/:id", orgHandler.Get)
	router.GET("/organizations/:id/resources", resourceHandler.List)
	router.GET("/organizations/:id/resources/:resourceID", resourceHandler.Get)

	// Protected API (JWT required)
	api := router.Group("")
	api.Use(middleware.JWT(jwtService, resolver))
	{
		// Accounts
		api.GET("/accounts/me", authHandler.Me)
		api.PUT("/accounts/me", authHandler.UpdateProfile)
		api.PUT("/accounts/me/password", authHandler.ChangePassword)
		api.GET("/accounts/me/organizations", orgHandler.ListMine)
		api.GET("/accounts/me/bookings", bookingHandler.ListMine)
		api.POST("/auth/logout", authHandler.Logout)
		api.GET("/users", middleware.RequireGlobalRole(cfg.Auth.BypassRole), authHandler.List)
		api.GET("/users/:id", authHandler.GetUser(cfg.Auth.BypassRole))
		api.POST("/users/:id/roles", middleware.RequireGlobalRole(cfg.Auth.BypassRole), authHandler.GrantRole)
		api.DELETE("/users/:id/roles/:role", middleware.RequireGlobalRole(cfg.Auth.BypassRole), authHandler.RevokeRole)

		// Organizations
		api.POST("/organizations", orgHandler.Create)
		api.PUT("/organizations/:id", organizations.RequireManager(resolver), orgHandler.Update)
		api.DELETE("/organizations/:id", organizations.RequireManager(resolver), orgHandler.Deactivate)
		api.POST("/organizations/:id/logo", organizations.RequireManager(resolver), orgHandler.UploadLogo)
		api.GET("/organizations/:id/stats", organizations.RequireManager(resolver), orgHandler.GetStats)

		// Memberships
		api.GET("/organizations/:id/members", organizations.RequireAccess(resolver), orgHandler.ListMembers)
		api.POST("/organizations/:id/members", organizations.RequireManager(resolver), orgHandler.AddMember)
		api.DELETE("/organizations/:id/members/:userID", organizations.RequireManager(resolver), orgHandler.RemoveMember)

		// Resources (writes are manager-gated; reads are public above)
		api.POST("/organizations/:id/resources", organizations.RequireManager(resolver), resourceHandler.Create)
		api.PUT("/organizations/:id/resources/:resourceID", organizations.RequireManager(resolver), resourceHandler.Update)
		api.DELETE("/organizations/:id/resources/:resourceID", organizations.RequireManager(resolver), resourceHandler.Deactivate)

		// Settings
		api.GET("/organizations/:id/settings", organizations.RequireManager(resolver), settingsHandler.Get)
		api.PUT("/organizations/:id/settings", organizations.RequireManager(resolver), settingsHandler.Update)

		// Email logs
		api.GET("/organizations/:id/emails", organizations.RequireManager(resolver), emailLogsHandler.ListByOrganization)

		// Rainfall
		api.GET("/organizations/:id/rainfall", organizations.RequireAccess(resolver), rainfallHandler.List)
		api.GET("/organizations/:id/rainfall/summary", organizations.RequireAccess(resolver), rainfallHandler.Summary)
		api.POST("/organizations/:id/rainfall", organizations.RequireManager(resolver), rainfallHandler.Record)
		api.DELETE("/organizations/:id/rainfall/:recordID", organizations.RequireManager(resolver), rainfallHandler.Delete)

		// Bookings
		api.POST("/bookings", bookingHandler.Create)
		api.GET("/bookings/:bookingID", bookingHandler.Get)
		api.PUT("/bookings/:bookingID/status", bookingHandler.UpdateStatus)
		api.PUT("/bookings/:bookingID/cancel", bookingHandler.Cancel)
		api.GET("/organizations/:id/bookings", organizations.RequireAccess(resolver), bookingHandler.ListByOrganization)
	}

	// WebSocket feed (token in query; no Authorization header required)
	router.GET("/ws", realtime.ServeWs(hub, resolver, jwtService.Subject, logger))

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	go func() {
		logger.Info("server listening", zap.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown", zap.Error(err))
	}
	logger.Info("server stopped")
}

func newLogger() *zap.Logger {
	config := zap.NewProductionConfig()
	config.EncoderConfig.TimeKey = "timestamp"
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	logger, _ := config.Build()
	return logger
}
