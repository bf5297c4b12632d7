package alerting

import (
	"context"
	"errors"
	"fmt"

	appledger "github.com/Duran117/kibray-sub001/internal/application/ledger"
	"github.com/hibiken/asynq"
	"go.uber.org/zap"
)

// DefaultQueue is the queue stock alerts are enqueued on when none is configured
const DefaultQueue = "stock_alerts"

// StockAlertTaskHandler delivers queued stock alerts through a notifier
type StockAlertTaskHandler struct {
	delivery appledger.StockAlertNotifier
	logger   *zap.Logger
}

// NewStockAlertTaskHandler creates a task handler delivering through delivery
func NewStockAlertTaskHandler(delivery appledger.StockAlertNotifier, log *zap.Logger) *StockAlertTaskHandler {
	return &StockAlertTaskHandler{delivery: delivery, logger: log}
}

// ProcessTask implements asynq.Handler. Malformed payloads are not retried.
func (h *StockAlertTaskHandler) ProcessTask(ctx context.Context, t *asynq.Task) error {
	alert, err := ParseStockAlertTask(t)
	if err != nil {
		h.logger.Error("dropping malformed stock alert task", zap.Error(err))
		return fmt.Errorf("%w: %v", asynq.SkipRetry, err)
	}

	if err := h.delivery.SendAlert(ctx, alert); err != nil {
		retry, _ := asynq.GetRetryCount(ctx)
		h.logger.Warn("stock alert delivery failed",
			zap.String("item_id", alert.ItemID),
			zap.Int("retry", retry),
			zap.Error(err),
		)
		return err
	}
	return nil
}

// WorkerConfig collects what the alert worker needs
type WorkerConfig struct {
	Redis       asynq.RedisConnOpt
	Queue       string
	Concurrency int
	Delivery    appledger.StockAlertNotifier
	Logger      *zap.Logger
}

// Worker consumes the stock alert queue
type Worker struct {
	server *asynq.Server
	mux    *asynq.ServeMux
	logger *zap.Logger
}

// NewWorker builds an asynq server bound to the stock alert queue
func NewWorker(cfg WorkerConfig) (*Worker, error) {
	if cfg.Redis == nil {
		return nil, errors.New("alerting worker: redis connection required")
	}
	if cfg.Delivery == nil {
		return nil, errors.New("alerting worker: delivery notifier required")
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	if cfg.Queue == "" {
		cfg.Queue = DefaultQueue
	}
	if cfg.Concurrency < 1 {
		cfg.Concurrency = 5
	}

	srv := asynq.NewServer(cfg.Redis, asynq.Config{
		Concurrency: cfg.Concurrency,
		Queues:      map[string]int{cfg.Queue: 1},
		Logger:      zapAsynqLogger{cfg.Logger.Sugar()},
		ErrorHandler: asynq.ErrorHandlerFunc(func(ctx context.Context, task *asynq.Task, err error) {
			cfg.Logger.Error("stock alert task failed",
				zap.String("type", task.Type()),
				zap.Error(err),
			)
		}),
	})

	mux := asynq.NewServeMux()
	mux.Handle(TaskTypeStockAlert, NewStockAlertTaskHandler(cfg.Delivery, cfg.Logger))

	return &Worker{server: srv, mux: mux, logger: cfg.Logger}, nil
}

// Run processes tasks until ctx is canceled
func (w *Worker) Run(ctx context.Context) error {
	if err := w.server.Start(w.mux); err != nil {
		return fmt.Errorf("start alert worker: %w", err)
	}
	w.logger.Info("alert worker started")

	<-ctx.Done()
	w.server.Shutdown()
	w.logger.Info("alert worker stopped")
	return nil
}

// zapAsynqLogger adapts zap to asynq's logger interface
type zapAsynqLogger struct {
	s *zap.SugaredLogger
}

func (l zapAsynqLogger) Debug(args ...any) { l.s.Debug(args...) }
func (l zapAsynqLogger) Info(args ...any)  { l.s.Info(args...) }
func (l zapAsynqLogger) Warn(args ...any)  { l.s.Warn(args...) }
func (l zapAsynqLogger) Error(args ...any) { l.s.Error(args...) }
func (l zapAsynqLogger) Fatal(args ...any) { l.s.Fatal(args...) }
