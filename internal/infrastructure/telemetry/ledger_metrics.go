package telemetry

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
)

// ErrMeterNil is returned when no meter is configured
var ErrMeterNil = errors.New("telemetry: meter cannot be nil")

// StockMetricsProvider supplies ledger-wide figures for periodic gauges
type StockMetricsProvider interface {
	// CountItemsBelowThreshold returns how many tracked items are under their low-stock threshold
	CountItemsBelowThreshold(ctx context.Context) (int64, error)
	// CountOpenCostLayers returns the number of cost layers with remaining quantity
	CountOpenCostLayers(ctx context.Context) (int64, error)
}

// LedgerMetricsConfig holds configuration for LedgerMetrics
type LedgerMetricsConfig struct {
	Meter    metric.Meter
	Logger   *zap.Logger
	Provider StockMetricsProvider
}

// LedgerMetrics records movement engine outcomes
type LedgerMetrics struct {
	logger   *zap.Logger
	provider StockMetricsProvider

	appliedTotal    *Counter
	rejectedTotal   *Counter
	thresholdEvents *Counter
	applyDuration   *Histogram

	itemsBelowThreshold *Gauge
	openCostLayers      *Gauge

	stopChan    chan struct{}
	stopOnce    sync.Once
	collectOnce sync.Once
}

// NewLedgerMetrics creates the ledger instruments on cfg.Meter
func NewLedgerMetrics(cfg LedgerMetricsConfig) (*LedgerMetrics, error) {
	if cfg.Meter == nil {
		return nil, ErrMeterNil
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	m := &LedgerMetrics{
		logger:   logger,
		provider: cfg.Provider,
		stopChan: make(chan struct{}),
	}

	var err error
	if m.appliedTotal, err = NewCounter(cfg.Meter, "ledger_movements_applied_total", "Movements applied to the stock ledger", "{movements}"); err != nil {
		return nil, err
	}
	if m.rejectedTotal, err = NewCounter(cfg.Meter, "ledger_movements_rejected_total", "Movements rejected by the movement engine", "{movements}"); err != nil {
		return nil, err
	}
	if m.thresholdEvents, err = NewCounter(cfg.Meter, "ledger_threshold_events_total", "Stock below threshold events raised", "{events}"); err != nil {
		return nil, err
	}
	m.applyDuration, err = NewHistogram(cfg.Meter, HistogramOpts{
		Name:        "ledger_movement_apply_duration_seconds",
		Description: "Time spent applying a movement, including lock waits",
		Unit:        "s",
		Boundaries:  ApplyDurationBuckets,
	})
	if err != nil {
		return nil, err
	}
	if m.itemsBelowThreshold, err = NewGauge(cfg.Meter, "ledger_items_below_threshold", "Tracked items currently below their low-stock threshold", "{items}"); err != nil {
		return nil, err
	}
	if m.openCostLayers, err = NewGauge(cfg.Meter, "ledger_open_cost_layers", "Cost layers with remaining quantity", "{layers}"); err != nil {
		return nil, err
	}
	return m, nil
}

// RecordMovementApplied counts an applied movement and its latency
func (m *LedgerMetrics) RecordMovementApplied(ctx context.Context, movementType string, duration time.Duration) {
	m.appliedTotal.Inc(ctx, AttrMovementType.String(movementType))
	m.applyDuration.RecordDuration(ctx, duration, AttrMovementType.String(movementType))
}

// RecordMovementRejected counts a rejected movement by error code
func (m *LedgerMetrics) RecordMovementRejected(ctx context.Context, movementType, reason string) {
	m.rejectedTotal.Inc(ctx, AttrMovementType.String(movementType), AttrReason.String(reason))
}

// RecordThresholdEvent counts a stock below threshold event
func (m *LedgerMetrics) RecordThresholdEvent(ctx context.Context, sku string) {
	m.thresholdEvents.Inc(ctx, AttrSKU.String(sku))
}

// StartPeriodicCollection refreshes the gauges every interval until Stop or ctx is done.
// It is non-blocking and runs at most once.
func (m *LedgerMetrics) StartPeriodicCollection(ctx context.Context, interval time.Duration) {
	m.collectOnce.Do(func() {
		if interval <= 0 {
			interval = 5 * time.Minute
		}
		go m.runPeriodicCollection(ctx, interval)
	})
}

func (m *LedgerMetrics) runPeriodicCollection(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	m.collect(ctx)
	for {
		select {
		case <-m.stopChan:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.collect(ctx)
		}
	}
}

func (m *LedgerMetrics) collect(ctx context.Context) {
	if m.provider == nil {
		return
	}
	if n, err := m.provider.CountItemsBelowThreshold(ctx); err != nil {
		m.logger.Warn("Failed to count items below threshold", zap.Error(err))
	} else {
		m.itemsBelowThreshold.Record(ctx, n)
	}
	if n, err := m.provider.CountOpenCostLayers(ctx); err != nil {
		m.logger.Warn("Failed to count open cost layers", zap.Error(err))
	} else {
		m.openCostLayers.Record(ctx, n)
	}
}

// Stop stops periodic collection
func (m *LedgerMetrics) Stop() {
	m.stopOnce.Do(func() {
		close(m.stopChan)
	})
}
