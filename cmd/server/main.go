// Package main runs the event booking HTTP server with graceful shutdown.
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

	"github.com/eventslot/backend/config"
	"github.com/eventslot/backend/internal/auth"
	"github.com/eventslot/backend/internal/bookings"
	"github.com/eventslot/backend/internal/events"
	"github.com/eventslot/backend/internal/export"
	"github.com/eventslot/backend/internal/middleware"
	"github.com/eventslot/backend/internal/policy"
	"github.com/eventslot/backend/internal/slots"
	"github.com/eventslot/backend/internal/venues"
	"github.com/eventslot/backend/pkg/database"
	"github.com/eventslot/backend/pkg/queue"
	"github.com/eventslot/backend/pkg/redis"
	"github.com/eventslot/backend/pkg/response"
	"github.com/eventslot/backend/pkg/storage"
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
			Region:               cfg.AWS.Region,
			AccessKeyID:          cfg.AWS.AccessKeyID,
			SecretAccessKey:      cfg.AWS.SecretAccessKey,
			ExportsBucket:        cfg.AWS.ExportsBucket,
			PresignExpireMinutes: cfg.AWS.PresignExpireMinutes,
		}
		s3Client, err = storage.NewS3(ctx, s3Cfg, logger)
		if err != nil {
			logger.Warn("s3 disabled", zap.Error(err))
		}
	}

	jwtService := auth.NewJWTService(cfg.JWT.Secret, cfg.JWT.ExpireHours)
	jobQueue := queue.NewQueue(rdb.Client, logger)

	// Auth
	authRepo := auth.NewRepository(pool)
	authHandler := auth.NewHandler(authRepo, jwtService, logger)

	// Permissions
	policyRepo := policy.NewRepository(pool)
	policyEngine := policy.NewEngine(policyRepo, logger)
	policyHandler := policy.NewHandler(policyRepo, logger)

	// Venues
	venueRepo := venues.NewRepository(pool)
	venueHandler := venues.NewHandler(venueRepo, logger)

	// Events
	eventRepo := events.NewRepository(pool)
	eventHandler := events.NewHandler(eventRepo, venueRepo, logger)

	// Slots
	slotRepo := slots.NewRepository(pool)
	slotHandler := slots.NewHandler(slotRepo, eventRepo, venueRepo, logger)

	// Bookings
	bookingRepo := bookings.NewRepository(pool)
	bookingService := bookings.NewService(bookingRepo, authRepo, jobQueue, logger)
	bookingHandler := bookings.NewHandler(bookingService, logger)

	// Exports
	exportRepo := export.NewRepository(pool)
	exportHandler := export.NewHandler(exportRepo, jobQueue, s3Client, logger)

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

	// Protected API (JWT required)
	api := router.Group("/api")
	api.Use(middleware.JWT(jwtService))
	{
		// Users
		api.GET("/users", middleware.RequireRole("admin"), authHandler.List)

		// Permissions (admin only)
		api.GET("/permissions", middleware.RequireRole("admin"), policyHandler.List)
		api.PUT("/permissions", middleware.RequireRole("admin"), policyHandler.Upsert)

		// Venues
		api.GET("/venues", policy.Require(policyEngine, "venues", policy.ActionRead), venueHandler.List)
		api.POST("/venues", policy.Require(policyEngine, "venues", policy.ActionCreate), venueHandler.Create)
		api.GET("/venues/:id", policy.Require(policyEngine, "venues", policy.ActionRead), venueHandler.GetByID)
		api.PATCH("/venues/:id", policy.Require(policyEngine, "venues", policy.ActionUpdate), venueHandler.Update)
		api.DELETE("/venues/:id", policy.Require(policyEngine, "venues", policy.ActionDelete), venueHandler.Delete)

		// Events
		api.GET("/events", policy.Require(policyEngine, "events", policy.ActionRead), eventHandler.List)
		api.POST("/events", policy.Require(policyEngine, "events", policy.ActionCreate), eventHandler.Create)
		api.GET("/events/:id", policy.Require(policyEngine, "events", policy.ActionRead), eventHandler.GetByID)
		api.PATCH("/events/:id", policy.Require(policyEngine, "events", policy.ActionUpdate), eventHandler.Update)
		api.DELETE("/events/:id", policy.Require(policyEngine, "events", policy.ActionDelete), eventHandler.Delete)

		// Slots (nested under their event for create/list)
		api.GET("/events/:id/slots", policy.Require(policyEngine, "slots", policy.ActionRead), slotHandler.ListByEvent)
		api.POST("/events/:id/slots", policy.Require(policyEngine, "slots", policy.ActionCreate), slotHandler.Create)
		api.GET("/slots/:id", policy.Require(policyEngine, "slots", policy.ActionRead), slotHandler.GetByID)
		api.PATCH("/slots/:id", policy.Require(policyEngine, "slots", policy.ActionUpdate), slotHandler.Update)
		api.DELETE("/slots/:id", policy.Require(policyEngine, "slots", policy.ActionDelete), slotHandler.Delete)

		// Bookings
		api.GET("/bookings", policy.Require(policyEngine, "bookings", policy.ActionRead), bookingHandler.List)
		api.POST("/bookings", policy.Require(policyEngine, "bookings", policy.ActionCreate), bookingHandler.Create)
		api.POST("/bookings/export", middleware.RequireRole("admin"), exportHandler.Create)
		api.GET("/bookings/:id", policy.Require(policyEngine, "bookings", policy.ActionRead), bookingHandler.GetByID)
		api.PATCH("/bookings/:id", policy.Require(policyEngine, "bookings", policy.ActionUpdate), bookingHandler.Update)
		api.POST("/bookings/:id/approve", middleware.RequireRole("admin"), bookingHandler.Approve)
		api.POST("/bookings/:id/cancel", policy.Require(policyEngine, "bookings", policy.ActionUpdate), bookingHandler.Cancel)

		// Exports
		api.GET("/exports/:id", middleware.RequireRole("admin"), exportHandler.GetByID)
	}

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
