package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/bizledger/backend/internal/application/posting"
	"github.com/bizledger/backend/internal/application/treasury"
	"github.com/bizledger/backend/internal/infrastructure/config"
	"github.com/bizledger/backend/internal/infrastructure/logger"
	"github.com/bizledger/backend/internal/infrastructure/persistence"
	"github.com/bizledger/backend/internal/interfaces/http/handler"
	"github.com/bizledger/backend/internal/interfaces/http/middleware"
	"github.com/bizledger/backend/internal/interfaces/http/router"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	// Initialize logger
	log, err := logger.New(&logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = logger.Sync(log)
	}()

	log.Info("Starting ledger backend",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
	)

	// Route SQL tracing through the same zap stream
	gormLog := logger.NewQueryLogger(log, logger.GormLevel(cfg.Log.Level))

	// Initialize database connection with custom logger
	db, err := persistence.NewDatabaseWithLogger(&cfg.Database, gormLog)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	log.Info("Database connected successfully")

	// Posting service: transactional scope for writes, plain repository
	// view for balance and statement reads
	scope := persistence.NewGormTransactionScope(db.DB)
	reads := persistence.NewRepositories(db.DB)
	defaults := treasury.DefaultTreasuryConfig{
		Name:       cfg.Treasury.DefaultName,
		AutoCreate: cfg.Treasury.AutoCreate,
	}
	postingService := posting.NewService(scope, reads, defaults, log)

	// Initialize handlers
	postingHandler := handler.NewPostingHandler(postingService)
	treasuryHandler := handler.NewTreasuryHandler(postingService)
	installmentHandler := handler.NewInstallmentHandler(postingService)
	equityHandler := handler.NewEquityHandler(postingService)
	stockHandler := handler.NewStockHandler(postingService)
	systemHandler := handler.NewSystemHandler(db, cfg.App.Name)

	// Set Gin mode based on environment
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()

	// Middleware stack: request ID first, then panic recovery, request
	// logging and actor resolution
	engine.Use(middleware.RequestID())
	engine.Use(logger.Recovery(log))
	engine.Use(logger.GinMiddleware(log))
	engine.Use(middleware.Actor())

	engine.GET("/health", systemHandler.Health)

	r := router.NewRouter(engine, router.WithAPIVersion("v1"))
	r.Register(postingHandler).
		Register(treasuryHandler).
		Register(installmentHandler).
		Register(equityHandler).
		Register(stockHandler).
		Register(systemHandler)
	r.Setup()

	// Create HTTP server with config
	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	// Start server in goroutine
	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown", zap.Error(err))
	}

	log.Info("Server exited gracefully")
}
