package models

import (
	"time"

	"github.com/Duran117/kibray-sub001/internal/domain/shared"
	"github.com/google/uuid"
)

// RecordColumns are the identity columns shared by every ledger table
type RecordColumns struct {
	ID        uuid.UUID `gorm:"type:uuid;primary_key"`
	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

func (c *RecordColumns) entity() shared.BaseEntity {
	return shared.BaseEntity{ID: c.ID, CreatedAt: c.CreatedAt, UpdatedAt: c.UpdatedAt}
}

func (c *RecordColumns) setEntity(e shared.BaseEntity) {
	c.ID, c.CreatedAt, c.UpdatedAt = e.ID, e.CreatedAt, e.UpdatedAt
}

// VersionedColumns add the version counter bumped under the item row lock
type VersionedColumns struct {
	RecordColumns
	Version int `gorm:"not null;default:1"`
}

func (c *VersionedColumns) aggregate() shared.BaseAggregateRoot {
	return shared.BaseAggregateRoot{BaseEntity: c.entity(), Version: c.Version}
}

func (c *VersionedColumns) setAggregate(a shared.BaseAggregateRoot) {
	c.setEntity(a.BaseEntity)
	c.Version = a.Version
}
