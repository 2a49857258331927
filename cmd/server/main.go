package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/xqian/apparel-crm-backend/config"
	"github.com/xqian/apparel-crm-backend/internal/app/controller"
	"github.com/xqian/apparel-crm-backend/internal/app/repository"
	"github.com/xqian/apparel-crm-backend/internal/app/service"
	"github.com/xqian/apparel-crm-backend/internal/db"
	"github.com/xqian/apparel-crm-backend/internal/router"
	"github.com/xqian/apparel-crm-backend/internal/scheduler"
	"github.com/xqian/apparel-crm-backend/internal/storage"
	"github.com/xqian/apparel-crm-backend/internal/ws"
	"github.com/xqian/apparel-crm-backend/pkg/cache"
	"github.com/xqian/apparel-crm-backend/pkg/logger"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Failed to load configuration", err)
	}

	// Initialize logger
	logLevel := "info"
	if cfg.Server.Environment == "development" {
		logLevel = "debug"
	}
	logger.Initialize(logger.Config{
		Level:       logLevel,
		Format:      "console", // Use "json" for production
		EnableColor: true,
	})

	logger.Info("Starting Apparel CRM Backend Server", map[string]interface{}{
		"environment": cfg.Server.Environment,
		"port":        cfg.Server.Port,
		"log_level":   logLevel,
	})

	// Initialize database
	if err := db.Initialize(&cfg.Database); err != nil {
		logger.Fatal("Failed to initialize database", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			logger.Error("Failed to close database connection", err)
		}
	}()

	// Run migrations
	if err := db.Migrate(); err != nil {
		logger.Fatal("Failed to run migrations", err)
	}

	// Initialize cache, Redis when configured, in-process otherwise
	var dashboardCache cache.Cache
	if cfg.Redis.Enabled {
		redisCache, err := cache.NewRedisCache(&cfg.Redis, "apparel-crm")
		if err != nil {
			logger.Fatal("Failed to connect to Redis", err)
		}
		dashboardCache = redisCache
		logger.Info("Using Redis cache", map[string]interface{}{
			"addr": cfg.Redis.Addr,
		})
	} else {
		dashboardCache = cache.NewMemoryCache(time.Minute)
	}

	// Initialize repositories
	memberRepo := repository.NewMemberRepository(db.GetDB())
	orderRepo := repository.NewOrderRepository(db.GetDB())
	followUpRepo := repository.NewFollowUpRepository(db.GetDB())
	suggestionRepo := repository.NewSuggestionRepository(db.GetDB())

	// Initialize services
	statsService := service.NewStatsService(memberRepo, orderRepo)
	memberService := service.NewMemberService(memberRepo)
	orderService := service.NewOrderService(orderRepo, memberRepo, statsService)

	var archiver service.Archiver
	if cfg.S3.Enabled {
		archiver = storage.NewS3Archiver(&cfg.S3)
		logger.Info("Bill archiving enabled", map[string]interface{}{
			"bucket": cfg.S3.Bucket,
		})
	}
	importService := service.NewImportService(memberRepo, orderRepo, statsService, archiver)

	dashboardService := service.NewDashboardService(memberRepo, orderRepo, followUpRepo, dashboardCache)
	suggestionService := service.NewSuggestionService(memberRepo, followUpRepo, suggestionRepo, &cfg.AI)
	followUpService := service.NewFollowUpService(followUpRepo, memberRepo)

	// WebSocket hub for import event watchers
	hub := ws.NewHub()
	go hub.Run()

	// Initialize controllers
	memberController := controller.NewMemberController(memberService, statsService)
	orderController := controller.NewOrderController(orderService, importService)
	importController := controller.NewImportController(importService, hub.PublishEvent)
	dashboardController := controller.NewDashboardController(dashboardService)
	suggestionController := controller.NewSuggestionController(suggestionService)
	followUpController := controller.NewFollowUpController(followUpService)

	// Setup router
	r := router.NewRouter(
		memberController,
		orderController,
		importController,
		dashboardController,
		suggestionController,
		followUpController,
		hub,
		cfg,
	)
	engine := r.Setup()

	// Nightly full reconciliation
	reconcileScheduler := scheduler.NewReconcileScheduler(statsService, cfg.Import)
	if err := reconcileScheduler.Start(); err != nil {
		logger.Fatal("Failed to start reconcile scheduler", err)
	}

	// Start server in a goroutine
	go func() {
		addr := fmt.Sprintf(":%s", cfg.Server.Port)
		logger.Info("Server started successfully", map[string]interface{}{
			"address": addr,
			"pid":     os.Getpid(),
		})
		if err := engine.Run(addr); err != nil {
			logger.Fatal("Failed to start server", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server gracefully...")
	reconcileScheduler.Stop()
	logger.Info("Server stopped successfully")
}
