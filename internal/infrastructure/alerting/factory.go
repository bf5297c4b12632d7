package alerting

import (
	"fmt"

	appledger "github.com/Duran117/kibray-sub001/internal/application/ledger"
	"github.com/Duran117/kibray-sub001/internal/infrastructure/config"
	"github.com/hibiken/asynq"
	"go.uber.org/zap"
)

// RedisConnOpt maps the Redis settings onto asynq connection options
func RedisConnOpt(cfg config.RedisConfig) asynq.RedisClientOpt {
	return asynq.RedisClientOpt{
		Addr:     cfg.Addr(),
		Password: cfg.Password,
		DB:       cfg.DB,
	}
}

// NewNotifier returns the notifier selected by cfg.Alerting.Driver and a
// function that releases it
func NewNotifier(cfg *config.Config, log *zap.Logger) (appledger.StockAlertNotifier, func() error, error) {
	switch cfg.Alerting.Driver {
	case config.AlertDriverLog, "":
		return appledger.NewLoggingStockAlertNotifier(log), func() error { return nil }, nil
	case config.AlertDriverAsynq:
		client := asynq.NewClient(RedisConnOpt(cfg.Redis))
		n := NewAsynqNotifier(client, log,
			WithQueue(cfg.Alerting.Queue),
			WithMaxRetry(cfg.Alerting.MaxRetry),
			WithRetention(cfg.Alerting.DedupTTL),
		)
		return n, n.Close, nil
	default:
		return nil, nil, fmt.Errorf("unknown alerting driver %q", cfg.Alerting.Driver)
	}
}
