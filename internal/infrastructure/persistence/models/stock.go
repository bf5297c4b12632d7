package models

import (
	"time"

	"github.com/Duran117/kibray-sub001/internal/domain/ledger"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// StockRecordModel is the persistence model for StockRecord.
// The table is keyed by (item_id, location_id).
type StockRecordModel struct {
	ItemID     uuid.UUID       `gorm:"type:uuid;primaryKey"`
	LocationID uuid.UUID       `gorm:"type:uuid;primaryKey;index"`
	Quantity   decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	CreatedAt  time.Time       `gorm:"not null"`
	UpdatedAt  time.Time       `gorm:"not null"`
}

// TableName returns the table name for GORM
func (StockRecordModel) TableName() string {
	return "stock_records"
}

// ToDomain converts the persistence model to a domain StockRecord.
func (m *StockRecordModel) ToDomain() *ledger.StockRecord {
	return &ledger.StockRecord{
		ItemID:     m.ItemID,
		LocationID: m.LocationID,
		Quantity:   m.Quantity,
		CreatedAt:  m.CreatedAt,
		UpdatedAt:  m.UpdatedAt,
	}
}

// StockRecordModelFromDomain creates a new persistence model from a domain StockRecord.
func StockRecordModelFromDomain(s *ledger.StockRecord) *StockRecordModel {
	return &StockRecordModel{
		ItemID:     s.ItemID,
		LocationID: s.LocationID,
		Quantity:   s.Quantity,
		CreatedAt:  s.CreatedAt,
		UpdatedAt:  s.UpdatedAt,
	}
}

// CostLayerModel is the persistence model for CostLayer.
type CostLayerModel struct {
	ID               uuid.UUID       `gorm:"type:uuid;primary_key"`
	ItemID           uuid.UUID       `gorm:"type:uuid;not null;index:idx_cost_layers_item_location,priority:1"`
	LocationID       uuid.UUID       `gorm:"type:uuid;not null;index:idx_cost_layers_item_location,priority:2"`
	SourceMovementID uuid.UUID       `gorm:"type:uuid;not null;index"`
	UnitCost         decimal.Decimal `gorm:"type:decimal(18,6);not null"`
	OriginalQty      decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	RemainingQty     decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	ReceivedAt       time.Time       `gorm:"not null"`
	CreatedAt        time.Time       `gorm:"not null"`
	UpdatedAt        time.Time       `gorm:"not null"`
}

// TableName returns the table name for GORM
func (CostLayerModel) TableName() string {
	return "cost_layers"
}

// ToDomain converts the persistence model to a domain CostLayer.
func (m *CostLayerModel) ToDomain() *ledger.CostLayer {
	return &ledger.CostLayer{
		ID:               m.ID,
		ItemID:           m.ItemID,
		LocationID:       m.LocationID,
		SourceMovementID: m.SourceMovementID,
		UnitCost:         m.UnitCost,
		OriginalQty:      m.OriginalQty,
		RemainingQty:     m.RemainingQty,
		ReceivedAt:       m.ReceivedAt,
		CreatedAt:        m.CreatedAt,
		UpdatedAt:        m.UpdatedAt,
	}
}

// CostLayerModelFromDomain creates a new persistence model from a domain CostLayer.
func CostLayerModelFromDomain(l *ledger.CostLayer) *CostLayerModel {
	return &CostLayerModel{
		ID:               l.ID,
		ItemID:           l.ItemID,
		LocationID:       l.LocationID,
		SourceMovementID: l.SourceMovementID,
		UnitCost:         l.UnitCost,
		OriginalQty:      l.OriginalQty,
		RemainingQty:     l.RemainingQty,
		ReceivedAt:       l.ReceivedAt,
		CreatedAt:        l.CreatedAt,
		UpdatedAt:        l.UpdatedAt,
	}
}
