package main

import (
	"context"
	"os/signal"
	"syscall"

	appledger "github.com/Duran117/kibray-sub001/internal/application/ledger"
	"github.com/Duran117/kibray-sub001/internal/infrastructure/alerting"
	"github.com/Duran117/kibray-sub001/internal/infrastructure/config"
	"github.com/Duran117/kibray-sub001/internal/infrastructure/logger"
	"go.uber.org/zap"
)

// The worker drains the stock alert queue filled by the server when
// alerting.driver is "asynq". Delivery goes to the log channel; a mail or
// chat notifier plugs in by implementing appledger.StockAlertNotifier.
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
	log = log.Named("alert-worker")

	if cfg.Alerting.Driver != config.AlertDriverAsynq {
		log.Warn("alerting.driver is not asynq; the server will not enqueue alerts for this worker",
			zap.String("driver", cfg.Alerting.Driver),
		)
	}

	worker, err := alerting.NewWorker(alerting.WorkerConfig{
		Redis:       alerting.RedisConnOpt(cfg.Redis),
		Queue:       cfg.Alerting.Queue,
		Concurrency: cfg.Alerting.WorkerConcurrency,
		Delivery:    appledger.NewLoggingStockAlertNotifier(log),
		Logger:      log,
	})
	if err != nil {
		log.Fatal("Failed to create alert worker", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	log.Info("Starting alert worker",
		zap.String("redis", cfg.Redis.Addr()),
		zap.String("queue", cfg.Alerting.Queue),
		zap.Int("concurrency", cfg.Alerting.WorkerConcurrency),
	)
	if err := worker.Run(ctx); err != nil {
		log.Fatal("Alert worker failed", zap.Error(err))
	}
}
