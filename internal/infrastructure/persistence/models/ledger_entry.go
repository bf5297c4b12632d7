package models

import (
	"time"

	"github.com/Duran117/kibray-sub001/internal/domain/ledger"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// LedgerEntryModel is the persistence model for LedgerEntry. Rows are insert-only.
type LedgerEntryModel struct {
	ID            uuid.UUID       `gorm:"type:uuid;primary_key"`
	MovementID    uuid.UUID       `gorm:"type:uuid;not null;index"`
	ItemID        uuid.UUID       `gorm:"type:uuid;not null;index:idx_ledger_entries_item_posted,priority:1"`
	LocationID    uuid.UUID       `gorm:"type:uuid;not null"`
	MovementType  string          `gorm:"type:varchar(16);not null"`
	Delta         decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	BalanceBefore decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	BalanceAfter  decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	UnitCost      decimal.Decimal `gorm:"type:decimal(18,6);not null"`
	TotalCost     decimal.Decimal `gorm:"type:decimal(18,6);not null"`
	Estimated     bool            `gorm:"not null"`
	PostedAt      time.Time       `gorm:"not null;index:idx_ledger_entries_item_posted,priority:2"`
}

// TableName returns the table name for GORM
func (LedgerEntryModel) TableName() string {
	return "ledger_entries"
}

// ToDomain converts the persistence model to a domain LedgerEntry.
func (m *LedgerEntryModel) ToDomain() *ledger.LedgerEntry {
	return &ledger.LedgerEntry{
		ID:            m.ID,
		MovementID:    m.MovementID,
		ItemID:        m.ItemID,
		LocationID:    m.LocationID,
		MovementType:  ledger.MovementType(m.MovementType),
		Delta:         m.Delta,
		BalanceBefore: m.BalanceBefore,
		BalanceAfter:  m.BalanceAfter,
		UnitCost:      m.UnitCost,
		TotalCost:     m.TotalCost,
		Estimated:     m.Estimated,
		PostedAt:      m.PostedAt,
	}
}

// LedgerEntryModelFromDomain creates a new persistence model from a domain LedgerEntry.
func LedgerEntryModelFromDomain(e *ledger.LedgerEntry) *LedgerEntryModel {
	return &LedgerEntryModel{
		ID:            e.ID,
		MovementID:    e.MovementID,
		ItemID:        e.ItemID,
		LocationID:    e.LocationID,
		MovementType:  string(e.MovementType),
		Delta:         e.Delta,
		BalanceBefore: e.BalanceBefore,
		BalanceAfter:  e.BalanceAfter,
		UnitCost:      e.UnitCost,
		TotalCost:     e.TotalCost,
		Estimated:     e.Estimated,
		PostedAt:      e.PostedAt,
	}
}

// AllModels lists every ledger model in dependency order, for AutoMigrate in tests and local sqlite runs
func AllModels() []any {
	return []any{
		&LedgerItemModel{},
		&LocationModel{},
		&StockRecordModel{},
		&MovementModel{},
		&CostLayerModel{},
		&LedgerEntryModel{},
	}
}
