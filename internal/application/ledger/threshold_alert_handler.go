package ledger

import (
	"context"
	"fmt"

	"github.com/Duran117/kibray-sub001/internal/domain/ledger"
	"github.com/Duran117/kibray-sub001/internal/domain/shared"
	"go.uber.org/zap"
)

// Alert types
const (
	AlertTypeLowStock   = "low_stock"
	AlertTypeOutOfStock = "out_of_stock"
)

// StockAlert is the payload handed to the alerting bridge
type StockAlert struct {
	EventID      string `json:"event_id"`
	ItemID       string `json:"item_id"`
	SKU          string `json:"sku"`
	MovementID   string `json:"movement_id"`
	CurrentTotal string `json:"current_total"`
	Threshold    string `json:"threshold"`
	AlertType    string `json:"alert_type"`
}

// StockAlertNotifier delivers stock alerts. Implementations own every delivery
// concern: channels, retries and scheduling.
type StockAlertNotifier interface {
	SendAlert(ctx context.Context, alert StockAlert) error
}

// ThresholdAlertHandler turns StockBelowThreshold events into stock alerts
type ThresholdAlertHandler struct {
	logger   *zap.Logger
	notifier StockAlertNotifier
}

// NewThresholdAlertHandler creates a new handler for stock below threshold events
func NewThresholdAlertHandler(logger *zap.Logger) *ThresholdAlertHandler {
	return &ThresholdAlertHandler{
		logger: logger,
	}
}

// WithNotifier sets the notifier for sending alerts
func (h *ThresholdAlertHandler) WithNotifier(notifier StockAlertNotifier) *ThresholdAlertHandler {
	h.notifier = notifier
	return h
}

// EventTypes returns the event types this handler is interested in
func (h *ThresholdAlertHandler) EventTypes() []string {
	return []string{ledger.EventTypeStockBelowThreshold}
}

// Handle processes a StockBelowThresholdEvent.
// A notifier failure is returned so the bus can log it; the ledger is already committed.
func (h *ThresholdAlertHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	thresholdEvent, ok := event.(*ledger.StockBelowThresholdEvent)
	if !ok {
		h.logger.Error("unexpected event type",
			zap.String("expected", ledger.EventTypeStockBelowThreshold),
			zap.String("actual", event.EventType()),
		)
		return fmt.Errorf("unexpected event type: expected %s, got %s",
			ledger.EventTypeStockBelowThreshold, event.EventType())
	}

	alert := NewStockAlert(thresholdEvent)
	h.logger.Warn("stock below threshold detected",
		zap.String("item_id", alert.ItemID),
		zap.String("sku", alert.SKU),
		zap.String("current_total", alert.CurrentTotal),
		zap.String("threshold", alert.Threshold),
		zap.String("alert_type", alert.AlertType),
	)

	if h.notifier == nil {
		return nil
	}
	if err := h.notifier.SendAlert(ctx, alert); err != nil {
		h.logger.Error("failed to send stock alert",
			zap.String("item_id", alert.ItemID),
			zap.Error(err),
		)
		return fmt.Errorf("send stock alert: %w", err)
	}
	return nil
}

// NewStockAlert builds the alert payload for an event
func NewStockAlert(event *ledger.StockBelowThresholdEvent) StockAlert {
	alertType := AlertTypeLowStock
	if event.IsOutOfStock() {
		alertType = AlertTypeOutOfStock
	}
	return StockAlert{
		EventID:      event.ID.String(),
		ItemID:       event.ItemID.String(),
		SKU:          event.SKU,
		MovementID:   event.MovementID.String(),
		CurrentTotal: event.CurrentTotal.String(),
		Threshold:    event.Threshold.String(),
		AlertType:    alertType,
	}
}

// ThresholdAlertKey dedupes threshold alerts on item, current total and threshold.
// Repeated movements that land on the same total alert once per TTL window.
func ThresholdAlertKey(event shared.DomainEvent) string {
	if e, ok := event.(*ledger.StockBelowThresholdEvent); ok {
		return AlertKey(e.ItemID.String(), e.CurrentTotal.String(), e.Threshold.String())
	}
	return event.EventType() + ":" + event.EventID().String()
}

// AlertKey builds the dedup key shared by the event bus and the alert queue
func AlertKey(itemID, currentTotal, threshold string) string {
	return "stock_alert:" + itemID + ":" + currentTotal + ":" + threshold
}

// Key returns the dedup key of the alert
func (a StockAlert) Key() string {
	return AlertKey(a.ItemID, a.CurrentTotal, a.Threshold)
}

var _ shared.EventHandler = (*ThresholdAlertHandler)(nil)

// LoggingStockAlertNotifier is a notifier that only logs alerts
type LoggingStockAlertNotifier struct {
	logger *zap.Logger
}

// NewLoggingStockAlertNotifier creates a new logging notifier
func NewLoggingStockAlertNotifier(logger *zap.Logger) *LoggingStockAlertNotifier {
	return &LoggingStockAlertNotifier{
		logger: logger,
	}
}

// SendAlert logs the stock alert
func (n *LoggingStockAlertNotifier) SendAlert(ctx context.Context, alert StockAlert) error {
	n.logger.Warn("STOCK ALERT",
		zap.String("type", alert.AlertType),
		zap.String("sku", alert.SKU),
		zap.String("item_id", alert.ItemID),
		zap.String("current_total", alert.CurrentTotal),
		zap.String("threshold", alert.Threshold),
	)
	return nil
}

var _ StockAlertNotifier = (*LoggingStockAlertNotifier)(nil)
