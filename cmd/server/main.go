package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	appledger "github.com/Duran117/kibray-sub001/internal/application/ledger"
	"github.com/Duran117/kibray-sub001/internal/domain/shared"
	"github.com/Duran117/kibray-sub001/internal/infrastructure/alerting"
	"github.com/Duran117/kibray-sub001/internal/infrastructure/cache"
	"github.com/Duran117/kibray-sub001/internal/infrastructure/config"
	"github.com/Duran117/kibray-sub001/internal/infrastructure/event"
	"github.com/Duran117/kibray-sub001/internal/infrastructure/logger"
	"github.com/Duran117/kibray-sub001/internal/infrastructure/persistence"
	infrastrategy "github.com/Duran117/kibray-sub001/internal/infrastructure/strategy"
	"github.com/Duran117/kibray-sub001/internal/infrastructure/telemetry"
	"github.com/Duran117/kibray-sub001/internal/interfaces/http/handler"
	"github.com/Duran117/kibray-sub001/internal/interfaces/http/router"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	log, err := logger.New(logger.FromAppConfig(cfg))
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = log.Sync()
	}()

	log.Info("Starting inventory ledger",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
		zap.String("db_driver", cfg.Database.Driver),
		zap.String("alert_driver", cfg.Alerting.Driver),
	)

	ctx := context.Background()

	// Telemetry: traces, metrics and the zap log bridge all go to the same collector
	tracerProvider, err := telemetry.NewTracerProvider(ctx, telemetry.Config{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		SamplingRatio:     cfg.Telemetry.SamplingRatio,
		ServiceName:       cfg.Telemetry.ServiceName,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize tracer provider", zap.Error(err))
	}
	defer shutdown(log, "tracer provider", tracerProvider.Shutdown)

	meterProvider, err := telemetry.NewMeterProvider(ctx, telemetry.MetricsConfig{
		Enabled:           cfg.Telemetry.Enabled && cfg.Telemetry.MetricsEnabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		ServiceName:       cfg.Telemetry.ServiceName,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize meter provider", zap.Error(err))
	}
	defer shutdown(log, "meter provider", meterProvider.Shutdown)

	loggerProvider, err := telemetry.NewLoggerProvider(ctx, telemetry.LogsConfig{
		Enabled:           cfg.Telemetry.Enabled && cfg.Telemetry.LogsEnabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		ServiceName:       cfg.Telemetry.ServiceName,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize logger provider", zap.Error(err))
	}
	defer shutdown(log, "logger provider", loggerProvider.Shutdown)
	if loggerProvider.IsEnabled() {
		log = loggerProvider.BridgeLogger(log, zapcore.InfoLevel)
	}

	// Database
	gormLog := logger.NewGormLogger(log, logger.MapGormLogLevel(cfg.Log.Level),
		logger.WithSlowThreshold(cfg.Telemetry.DBSlowQueryThresh),
		logger.WithFullSQL(cfg.Telemetry.DBLogFullSQL),
		logger.WithContentionCheck(persistence.IsLockContention),
	)
	db, err := persistence.NewDatabaseWithLogger(&cfg.Database, gormLog)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	if db.Driver() == config.DriverSQLite {
		// sqlite is for local runs; postgres schemas come from cmd/migrate
		if err := db.AutoMigrate(); err != nil {
			log.Fatal("Failed to migrate sqlite database", zap.Error(err))
		}
	}

	dbTracing := telemetry.DefaultDBTracingConfig()
	dbTracing.Enabled = cfg.Telemetry.Enabled && cfg.Telemetry.DBTraceEnabled
	dbTracing.LogFullSQL = cfg.Telemetry.DBLogFullSQL
	if cfg.Telemetry.DBSlowQueryThresh > 0 {
		dbTracing.SlowQueryThresh = cfg.Telemetry.DBSlowQueryThresh
	}
	if db.Driver() == config.DriverSQLite {
		dbTracing.DBSystem = "sqlite"
	}
	if err := telemetry.NewDBTracingPlugin(dbTracing, log).Register(db.DB); err != nil {
		log.Fatal("Failed to register database tracing", zap.Error(err))
	}
	log.Info("Database connected", zap.String("driver", db.Driver()))

	// Ledger services
	costs, err := infrastrategy.NewRegistryWithDefaults()
	if err != nil {
		log.Fatal("Failed to register cost strategies", zap.Error(err))
	}
	scope := persistence.NewGormTransactionScope(db.DB)
	repos := persistence.NewGormLedgerRepositories(db.DB)

	catalogService := appledger.NewCatalogService(scope, repos, log)
	movementService := appledger.NewMovementService(scope, repos, costs, log)
	valuationService := appledger.NewValuationService(repos, costs, log)

	meter := meterProvider.Meter("ledger")
	ledgerMetrics, err := telemetry.NewLedgerMetrics(telemetry.LedgerMetricsConfig{
		Meter:    meter,
		Logger:   log,
		Provider: telemetry.NewGormStockMetricsProvider(db.DB),
	})
	if err != nil {
		log.Fatal("Failed to initialize ledger metrics", zap.Error(err))
	}
	defer ledgerMetrics.Stop()
	movementService.SetMetrics(ledgerMetrics)

	// Threshold alerts: async bus -> dedup by (item, total, threshold) -> notifier
	notifier, closeNotifier, err := alerting.NewNotifier(cfg, log)
	if err != nil {
		log.Fatal("Failed to initialize alert notifier", zap.Error(err))
	}
	defer func() {
		if err := closeNotifier(); err != nil {
			log.Error("Error closing alert notifier", zap.Error(err))
		}
	}()

	dedupStore, err := cache.NewIdempotencyStore(ctx, cfg, log)
	if err != nil {
		log.Fatal("Failed to initialize alert dedup store", zap.Error(err))
	}
	defer func() {
		if err := dedupStore.Close(); err != nil {
			log.Error("Error closing alert dedup store", zap.Error(err))
		}
	}()

	eventBus := event.NewInMemoryEventBus(log, event.WithAsyncDelivery(4, 256))
	alertHandler := event.NewIdempotentHandler(
		appledger.NewThresholdAlertHandler(log).WithNotifier(notifier),
		dedupStore,
		log,
		event.WithKeyFunc(appledger.ThresholdAlertKey),
		event.WithIdempotencyConfig(shared.IdempotencyConfig{TTL: cfg.Alerting.DedupTTL, Enabled: true}),
	)
	eventBus.Subscribe(alertHandler)
	if err := eventBus.Start(ctx); err != nil {
		log.Fatal("Failed to start event bus", zap.Error(err))
	}
	movementService.SetEventPublisher(eventBus)

	collectCtx, stopCollect := context.WithCancel(ctx)
	defer stopCollect()
	ledgerMetrics.StartPeriodicCollection(collectCtx, time.Minute)

	// HTTP
	engine, err := router.NewEngine(router.EngineConfig{
		Logger:         log,
		ServiceName:    cfg.Telemetry.ServiceName,
		TracingEnabled: cfg.Telemetry.Enabled,
		Meter:          meter,
		MaxBodySize:    cfg.HTTP.MaxBodySize,
		RequestTimeout: cfg.HTTP.WriteTimeout,
		TrustedProxies: cfg.HTTP.TrustedProxies,
	})
	if err != nil {
		log.Fatal("Failed to build HTTP engine", zap.Error(err))
	}
	router.NewRouter(engine).Register(
		handler.NewSystemHandler(cfg.App.Name, telemetry.ServiceVersion, db),
		handler.NewCatalogHandler(catalogService),
		handler.NewMovementHandler(movementService),
		handler.NewStockHandler(movementService),
		handler.NewValuationHandler(valuationService),
	).Setup()

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
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}
	// Drain pending alerts after the last request has published
	if err := eventBus.Stop(shutdownCtx); err != nil {
		log.Error("Error stopping event bus", zap.Error(err))
	}
	delivered, failed := eventBus.Stats()
	stats := alertHandler.Stats()
	log.Info("Server exited gracefully",
		zap.Int64("events_delivered", delivered),
		zap.Int64("events_failed", failed),
		zap.Int64("events_dropped", eventBus.Dropped()),
		zap.Int64("alerts_sent", stats.Processed),
		zap.Int64("alerts_deduplicated", stats.Duplicates),
	)
}

func shutdown(log *zap.Logger, name string, fn func(context.Context) error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := fn(ctx); err != nil {
		log.Error("Error shutting down "+name, zap.Error(err))
	}
}
