package telemetry

import (
	"context"

	"gorm.io/gorm"
)

// GormStockMetricsProvider implements StockMetricsProvider with aggregate queries
type GormStockMetricsProvider struct {
	db *gorm.DB
}

// NewGormStockMetricsProvider creates a new GormStockMetricsProvider
func NewGormStockMetricsProvider(db *gorm.DB) *GormStockMetricsProvider {
	return &GormStockMetricsProvider{db: db}
}

// CountItemsBelowThreshold counts tracked items whose total on-hand is under their threshold.
// Items with no stock records at all count as zero on hand.
func (p *GormStockMetricsProvider) CountItemsBelowThreshold(ctx context.Context) (int64, error) {
	db := p.db.WithContext(ctx)
	below := db.Table("ledger_items AS i").
		Select("i.id").
		Joins("LEFT JOIN stock_records AS s ON s.item_id = i.id").
		Where("i.threshold_tracking = ? AND i.low_stock_threshold IS NOT NULL", true).
		Group("i.id, i.low_stock_threshold").
		Having("COALESCE(SUM(s.quantity), 0) < i.low_stock_threshold")

	var count int64
	err := db.Table("(?) AS below", below).Count(&count).Error
	return count, err
}

// CountOpenCostLayers counts layers that still have remaining quantity
func (p *GormStockMetricsProvider) CountOpenCostLayers(ctx context.Context) (int64, error) {
	var count int64
	err := p.db.WithContext(ctx).
		Table("cost_layers").
		Where("remaining_qty > 0").
		Count(&count).Error
	return count, err
}

var _ StockMetricsProvider = (*GormStockMetricsProvider)(nil)
