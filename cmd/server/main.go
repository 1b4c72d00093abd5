package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	budgetapp "github.com/pharmstock/backend/internal/application/budget"
	inventoryapp "github.com/pharmstock/backend/internal/application/inventory"
	procurementapp "github.com/pharmstock/backend/internal/application/procurement"
	"github.com/pharmstock/backend/internal/application/retry"
	"github.com/pharmstock/backend/internal/infrastructure/config"
	"github.com/pharmstock/backend/internal/infrastructure/event"
	"github.com/pharmstock/backend/internal/infrastructure/logger"
	"github.com/pharmstock/backend/internal/infrastructure/persistence"
	"github.com/pharmstock/backend/internal/infrastructure/telemetry"
	"github.com/pharmstock/backend/internal/interfaces/http/handler"
	"github.com/pharmstock/backend/internal/interfaces/http/router"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// version is overridden at build time via -ldflags
var version = "dev"

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	log, err := logger.New(&logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		TimeFormat: "2006-01-02T15:04:05.000Z07:00",
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = log.Sync()
	}()

	log.Info("Starting PharmStock backend",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
		zap.String("version", version),
	)

	// Tracing
	tracerProvider, err := telemetry.NewTracerProvider(context.Background(), telemetry.Config{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		SamplingRatio:     cfg.Telemetry.SamplingRatio,
		ServiceName:       cfg.Telemetry.ServiceName,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize tracer provider", zap.Error(err))
	}
	defer func() {
		if err := tracerProvider.Shutdown(context.Background()); err != nil {
			log.Error("Error shutting down tracer provider", zap.Error(err))
		}
	}()

	// Database
	gormLog := logger.NewGormLogger(log, logger.MapGormLogLevel(cfg.Log.Level))
	db, err := persistence.NewDatabaseWithLogger(&cfg.Database, gormLog)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	log.Info("Database connected")

	if cfg.Telemetry.DBTraceEnabled {
		dbTracingCfg := telemetry.DefaultDBTracingConfig()
		dbTracingCfg.Enabled = true
		dbTracingCfg.LogFullSQL = cfg.Telemetry.DBLogFullSQL
		if err := telemetry.NewDBTracingPlugin(dbTracingCfg, log).RegisterOtelGorm(db.DB); err != nil {
			log.Fatal("Failed to register database tracing", zap.Error(err))
		}
	}

	// Repositories
	allocationRepo := persistence.NewGormBudgetAllocationRepository(db.DB)
	reservationRepo := persistence.NewGormBudgetReservationRepository(db.DB)
	inventoryRepo := persistence.NewGormInventoryRepository(db.DB)
	lotRepo := persistence.NewGormDrugLotRepository(db.DB)
	transactionRepo := persistence.NewGormInventoryTransactionRepository(db.DB)
	receiptRepo := persistence.NewGormGoodsReceiptRepository(db.DB)

	budgetScope := persistence.NewGormBudgetTransactionScope(db.DB)
	inventoryScope := persistence.NewGormInventoryTransactionScope(db.DB)

	// Application services
	budgetService := budgetapp.NewBudgetService(allocationRepo, reservationRepo, budgetScope)
	inventoryService := inventoryapp.NewInventoryService(inventoryRepo, lotRepo, transactionRepo, inventoryScope)
	receiptService := procurementapp.NewReceiptService(receiptRepo)

	// Event bus: the audit handler logs every domain event
	eventBus := event.NewInMemoryEventBus(log)
	eventBus.Subscribe(event.NewAuditLogHandler(log))

	budgetService.SetEventPublisher(eventBus)
	inventoryService.SetEventPublisher(eventBus)
	receiptService.SetEventPublisher(eventBus)

	// HTTP handlers
	retryOpts := retry.Options{
		MaxAttempts: cfg.Budget.RetryMaxAttempts,
		BaseDelay:   cfg.Budget.RetryBaseDelay,
	}
	budgetHandler := handler.NewBudgetHandler(budgetService)
	budgetHandler.SetRetryOptions(retryOpts)
	inventoryHandler := handler.NewInventoryHandler(inventoryService)
	inventoryHandler.SetRetryOptions(retryOpts)
	receiptHandler := handler.NewReceiptHandler(receiptService)
	systemHandler := handler.NewSystemHandler(db, version)

	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := router.New(router.Config{
		APIVersion:   "v1",
		AllowOrigins: cfg.HTTP.CORSAllowOrigins,
	}, log)

	if len(cfg.HTTP.TrustedProxies) > 0 {
		if err := r.Engine().SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
			log.Warn("Failed to set trusted proxies", zap.Error(err))
		}
	}

	engine := r.
		Register(systemHandler).
		Register(budgetHandler).
		Register(inventoryHandler).
		Register(receiptHandler).
		Setup()

	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

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
