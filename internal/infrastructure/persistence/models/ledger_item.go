package models

import (
	"github.com/Duran117/kibray-sub001/internal/domain/ledger"
	"github.com/shopspring/decimal"
)

// LedgerItemModel is the persistence model for the Item aggregate root.
type LedgerItemModel struct {
	VersionedColumns
	SKU               string           `gorm:"type:varchar(64);not null;uniqueIndex:idx_ledger_items_sku"`
	Name              string           `gorm:"type:varchar(200);not null;default:''"`
	ValuationMethod   string           `gorm:"type:varchar(8);not null"`
	AverageCost       decimal.Decimal  `gorm:"type:decimal(18,6);not null"`
	LowStockThreshold *decimal.Decimal `gorm:"type:decimal(18,4)"`
	ThresholdTracking bool             `gorm:"not null"`
}

// TableName returns the table name for GORM
func (LedgerItemModel) TableName() string {
	return "ledger_items"
}

// ToDomain converts the persistence model to a domain Item.
func (m *LedgerItemModel) ToDomain() *ledger.Item {
	item := &ledger.Item{
		BaseAggregateRoot: m.aggregate(),
		SKU:               m.SKU,
		Name:              m.Name,
		ValuationMethod:   ledger.ValuationMethod(m.ValuationMethod),
		AverageCost:       m.AverageCost,
		ThresholdTracking: m.ThresholdTracking,
	}
	if m.LowStockThreshold != nil {
		t := *m.LowStockThreshold
		item.LowStockThreshold = &t
	}
	return item
}

// FromDomain populates the persistence model from a domain Item.
func (m *LedgerItemModel) FromDomain(i *ledger.Item) {
	m.setAggregate(i.BaseAggregateRoot)
	m.SKU = i.SKU
	m.Name = i.Name
	m.ValuationMethod = string(i.ValuationMethod)
	m.AverageCost = i.AverageCost
	m.LowStockThreshold = nil
	if i.LowStockThreshold != nil {
		t := *i.LowStockThreshold
		m.LowStockThreshold = &t
	}
	m.ThresholdTracking = i.ThresholdTracking
}

// LedgerItemModelFromDomain creates a new persistence model from a domain Item.
func LedgerItemModelFromDomain(i *ledger.Item) *LedgerItemModel {
	m := &LedgerItemModel{}
	m.FromDomain(i)
	return m
}
