package models

import (
	"time"

	"github.com/Duran117/kibray-sub001/internal/domain/ledger"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// MovementModel is the persistence model for Movement.
type MovementModel struct {
	RecordColumns
	ItemID         uuid.UUID        `gorm:"type:uuid;not null;index:idx_movements_item_created,priority:1;index:idx_movements_item_applied,priority:1"`
	Type           string           `gorm:"type:varchar(16);not null"`
	Quantity       decimal.Decimal  `gorm:"type:decimal(18,4);not null"`
	UnitCost       *decimal.Decimal `gorm:"type:decimal(18,6)"`
	FromLocationID *uuid.UUID       `gorm:"type:uuid"`
	ToLocationID   *uuid.UUID       `gorm:"type:uuid"`
	Applied        bool             `gorm:"not null"`
	AppliedAt      *time.Time       `gorm:"index:idx_movements_item_applied,priority:2"`
	CreatedBy      string           `gorm:"type:varchar(100);not null;default:''"`
	Reason         string           `gorm:"type:text"`
}

// TableName returns the table name for GORM
func (MovementModel) TableName() string {
	return "movements"
}

// ToDomain converts the persistence model to a domain Movement.
func (m *MovementModel) ToDomain() *ledger.Movement {
	mv := &ledger.Movement{
		BaseEntity:     m.entity(),
		ItemID:         m.ItemID,
		Type:           ledger.MovementType(m.Type),
		Quantity:       m.Quantity,
		UnitCost:       copyDecimal(m.UnitCost),
		FromLocationID: copyUUID(m.FromLocationID),
		ToLocationID:   copyUUID(m.ToLocationID),
		Applied:        m.Applied,
		CreatedBy:      m.CreatedBy,
		Reason:         m.Reason,
	}
	if m.AppliedAt != nil {
		at := *m.AppliedAt
		mv.AppliedAt = &at
	}
	return mv
}

// MovementModelFromDomain creates a new persistence model from a domain Movement.
func MovementModelFromDomain(mv *ledger.Movement) *MovementModel {
	m := &MovementModel{
		ItemID:         mv.ItemID,
		Type:           string(mv.Type),
		Quantity:       mv.Quantity,
		UnitCost:       copyDecimal(mv.UnitCost),
		FromLocationID: copyUUID(mv.FromLocationID),
		ToLocationID:   copyUUID(mv.ToLocationID),
		Applied:        mv.Applied,
		CreatedBy:      mv.CreatedBy,
		Reason:         mv.Reason,
	}
	m.setEntity(mv.BaseEntity)
	if mv.AppliedAt != nil {
		at := *mv.AppliedAt
		m.AppliedAt = &at
	}
	return m
}

func copyDecimal(d *decimal.Decimal) *decimal.Decimal {
	if d == nil {
		return nil
	}
	v := *d
	return &v
}

func copyUUID(id *uuid.UUID) *uuid.UUID {
	if id == nil {
		return nil
	}
	v := *id
	return &v
}
