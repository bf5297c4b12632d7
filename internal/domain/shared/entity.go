package shared

import (
	"time"

	"github.com/google/uuid"
)

// BaseEntity is the identity every ledger record carries.
// IDs are assigned on construction, never by the database.
type BaseEntity struct {
	ID        uuid.UUID
	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewBaseEntity assigns a fresh ID and stamps both timestamps with the current time
func NewBaseEntity() BaseEntity {
	now := time.Now()
	return BaseEntity{
		ID:        uuid.New(),
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Touch records a modification at t
func (e *BaseEntity) Touch(t time.Time) {
	e.UpdatedAt = t
}
