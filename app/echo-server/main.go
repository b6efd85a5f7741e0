package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"marketRepricer/app/echo-server/router"
	operatorService "marketRepricer/business/operator"
	"marketRepricer/business/repricer"
	"marketRepricer/internal/middleware"
	"marketRepricer/internal/repository/marketplace"
	psqlRepo "marketRepricer/internal/repository/postgres"
	redisRepo "marketRepricer/internal/repository/redis"
	"marketRepricer/internal/rest"
	"marketRepricer/pkg/config"
	"marketRepricer/pkg/database"
	redisdb "marketRepricer/pkg/database/redis"
	"marketRepricer/pkg/logger"
	"marketRepricer/pkg/metrics"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger.Init(cfg.App.Environment)
	logger.Info("Starting Market Repricer", "version", cfg.App.Version, "vendor_id", cfg.Repricer.VendorID)

	metrics.Init()

	db, err := database.InitPostgres(cfg)
	if err != nil {
		logger.Fatal("Failed to connect to database", "error", err)
	}

	logger.Info("Database connected successfully")

	redisClient, err := redisdb.NewRedisClient(cfg)
	if err != nil {
		logger.Fatal("Failed to connect to redis", "error", err)
	}
	defer func() {
		_ = redisdb.CloseRedisClient(redisClient)
	}()

	// Init marketplace push client
	marketplaceRepo, err := marketplace.NewRepository(marketplace.Config{
		BaseURL:         cfg.Marketplace.BaseURL,
		ProxyURL:        cfg.Marketplace.ProxyURL,
		APIKeyEncrypted: cfg.Marketplace.APIKeyEncrypted,
		EncryptionKey:   cfg.Marketplace.EncryptionKey,
		BasicAuthUser:   cfg.Marketplace.BasicAuthUser,
	})
	if err != nil {
		logger.Fatal("Failed to init marketplace client", "error", err)
	}

	// Init validate
	validate := validator.New()

	// Init repo
	operatorRepo := psqlRepo.NewOperatorRepository(db)
	settingsRepo := psqlRepo.NewSettingsRepository(db)
	offerRepo := psqlRepo.NewOfferSnapshotRepository(db)
	decisionRepo := psqlRepo.NewDecisionRepository(db)
	jobRepo := psqlRepo.NewJobRepository(db)
	flagRepo := redisRepo.NewFlagRepository(redisClient)

	// Init service
	engineCfg := repricer.DefaultConfig()
	engineCfg.Workers = cfg.Repricer.Workers
	engineCfg.IgnoreTie = cfg.Repricer.IgnoreTie
	if cfg.Repricer.ComparisonMode == "shipping" {
		engineCfg.Mode = repricer.ModeShippingAware
	}

	operatorSvc := operatorService.NewOperatorService(operatorRepo, validate)
	repricerSvc := repricer.NewRepricerService(
		engineCfg,
		settingsRepo,
		offerRepo,
		decisionRepo,
		jobRepo,
		marketplaceRepo,
		flagRepo,
	)

	// Init handler
	authHandler := rest.NewAuthHandler(operatorSvc)
	repriceHandler := rest.NewRepriceHandler(repricerSvc, cfg.Repricer.VendorID)
	settingsHandler := rest.NewSettingsHandler(repricerSvc, cfg.Repricer.VendorID)
	offerHandler := rest.NewOfferHandler(offerRepo)
	flagHandler := rest.NewFlagHandler(flagRepo, cfg.Repricer.VendorID)

	// Init echo
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	// HTTP error handler
	e.HTTPErrorHandler = middleware.ErrorHandler

	// Global middleware
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.CORSWithConfig(echomiddleware.CORSConfig{
		AllowOrigins: []string{"http://localhost:3000", "http://localhost:8080"},
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodPatch},
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
	}))

	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	// Auth middleware
	authRequired := middleware.AuthMiddleware()
	adminOnly := middleware.AdminOnly()

	// Setup routes
	api := e.Group("/api/v1")
	router.SetupAuthRoutes(api, authHandler, authRequired, adminOnly)
	router.SetupRepriceRoutes(api, repriceHandler, authRequired, adminOnly)
	router.SetupSettingsRoutes(api, settingsHandler, authRequired, adminOnly)
	router.SetupOfferRoutes(api, offerHandler, authRequired)
	router.SetupFlagRoutes(api, flagHandler, authRequired, adminOnly)

	// Scheduler
	schedulerCtx, stopScheduler := context.WithCancel(context.Background())
	defer stopScheduler()
	if cfg.Repricer.CronInterval > 0 {
		scheduler := repricer.NewScheduler(
			repricerSvc,
			cfg.Repricer.VendorID,
			time.Duration(cfg.Repricer.CronInterval)*time.Minute,
		)
		go scheduler.Run(schedulerCtx)
	}

	// Goroutine server
	go func() {
		addr := fmt.Sprintf(":%s", cfg.Server.Port)
		logger.Info("Server starting", "address", addr)
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed to start server", "error", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	stopScheduler()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Shutdown server
	if err := e.Shutdown(ctx); err != nil {
		logger.Error("Server shutdown error", "error", err)
	}

	logger.Info("Server stopped")
}
