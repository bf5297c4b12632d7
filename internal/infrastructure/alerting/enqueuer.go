package alerting

import (
	"context"
	"errors"
	"fmt"
	"time"

	appledger "github.com/Duran117/kibray-sub001/internal/application/ledger"
	"github.com/Duran117/kibray-sub001/internal/infrastructure/logger"
	"github.com/hibiken/asynq"
	"go.uber.org/zap"
)

// AsynqNotifier hands stock alerts to a Redis-backed asynq queue.
// cmd/worker consumes the queue and performs the actual delivery.
type AsynqNotifier struct {
	client    *asynq.Client
	queue     string
	maxRetry  int
	retention time.Duration
	logger    *zap.Logger
}

// NotifierOption configures an AsynqNotifier
type NotifierOption func(*AsynqNotifier)

// WithQueue sets the target queue
func WithQueue(queue string) NotifierOption {
	return func(n *AsynqNotifier) {
		if queue != "" {
			n.queue = queue
		}
	}
}

// WithMaxRetry sets how often the worker retries a failed delivery
func WithMaxRetry(maxRetry int) NotifierOption {
	return func(n *AsynqNotifier) {
		if maxRetry >= 0 {
			n.maxRetry = maxRetry
		}
	}
}

// WithRetention keeps completed tasks around for d so re-enqueues within the
// window are rejected as duplicates
func WithRetention(d time.Duration) NotifierOption {
	return func(n *AsynqNotifier) {
		n.retention = d
	}
}

// NewAsynqNotifier creates a notifier that enqueues through client
func NewAsynqNotifier(client *asynq.Client, log *zap.Logger, opts ...NotifierOption) *AsynqNotifier {
	n := &AsynqNotifier{
		client:   client,
		queue:    DefaultQueue,
		maxRetry: 5,
		logger:   log,
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// SendAlert enqueues alert. A task id conflict means the alert is already
// queued and is reported as success.
func (n *AsynqNotifier) SendAlert(ctx context.Context, alert appledger.StockAlert) error {
	opts := []asynq.Option{
		asynq.Queue(n.queue),
		asynq.MaxRetry(n.maxRetry),
		asynq.TaskID(TaskID(alert)),
	}
	if n.retention > 0 {
		opts = append(opts, asynq.Retention(n.retention))
	}

	task, err := NewStockAlertTask(alert, opts...)
	if err != nil {
		return err
	}

	log := logger.Ctx(ctx, n.logger).With(
		zap.String("item_id", alert.ItemID),
		zap.String("movement_id", alert.MovementID),
		zap.String("queue", n.queue),
	)

	info, err := n.client.EnqueueContext(ctx, task)
	switch {
	case errors.Is(err, asynq.ErrTaskIDConflict) || errors.Is(err, asynq.ErrDuplicateTask):
		log.Debug("stock alert already queued")
		return nil
	case err != nil:
		return fmt.Errorf("enqueue stock alert: %w", err)
	}

	log.Info("stock alert queued", zap.String("task_id", info.ID))
	return nil
}

// Close releases the asynq client
func (n *AsynqNotifier) Close() error {
	return n.client.Close()
}

var _ appledger.StockAlertNotifier = (*AsynqNotifier)(nil)
