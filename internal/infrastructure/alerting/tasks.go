package alerting

import (
	"encoding/json"
	"fmt"

	appledger "github.com/Duran117/kibray-sub001/internal/application/ledger"
	"github.com/hibiken/asynq"
)

// TaskTypeStockAlert is the asynq task type carrying a StockAlert
const TaskTypeStockAlert = "ledger:stock_alert"

// TaskID returns the asynq task id for alert. Enqueueing the same alert twice
// collides on this id while the first task is still retained.
func TaskID(alert appledger.StockAlert) string {
	return alert.Key()
}

// NewStockAlertTask encodes alert as an asynq task
func NewStockAlertTask(alert appledger.StockAlert, opts ...asynq.Option) (*asynq.Task, error) {
	body, err := json.Marshal(alert)
	if err != nil {
		return nil, fmt.Errorf("encode stock alert: %w", err)
	}
	return asynq.NewTask(TaskTypeStockAlert, body, opts...), nil
}

// ParseStockAlertTask decodes the payload of a stock alert task
func ParseStockAlertTask(t *asynq.Task) (appledger.StockAlert, error) {
	var alert appledger.StockAlert
	if err := json.Unmarshal(t.Payload(), &alert); err != nil {
		return alert, fmt.Errorf("decode stock alert: %w", err)
	}
	if alert.ItemID == "" || alert.AlertType == "" {
		return alert, fmt.Errorf("decode stock alert: missing item_id or alert_type")
	}
	return alert, nil
}
