package ledger

import (
	"strings"
	"time"

	"github.com/Duran117/kibray-sub001/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// MovementType represents the kind of stock-affecting operation
type MovementType string

const (
	MovementTypeReceive  MovementType = "RECEIVE"
	MovementTypeIssue    MovementType = "ISSUE"
	MovementTypeTransfer MovementType = "TRANSFER"
	MovementTypeAdjust   MovementType = "ADJUST"
	MovementTypeConsume  MovementType = "CONSUME"
)

// String returns the string representation of MovementType
func (t MovementType) String() string {
	return string(t)
}

// IsValid checks if the movement type is valid
func (t MovementType) IsValid() bool {
	switch t {
	case MovementTypeReceive, MovementTypeIssue, MovementTypeTransfer, MovementTypeAdjust, MovementTypeConsume:
		return true
	}
	return false
}

// IsOutgoing returns true if the movement removes stock from the ledger and is costed as COGS
func (t MovementType) IsOutgoing() bool {
	return t == MovementTypeIssue || t == MovementTypeConsume
}

// RequiresSource returns true if the type needs a from location
func (t MovementType) RequiresSource() bool {
	return t == MovementTypeIssue || t == MovementTypeConsume || t == MovementTypeTransfer
}

// RequiresDestination returns true if the type needs a to location
func (t MovementType) RequiresDestination() bool {
	return t == MovementTypeReceive || t == MovementTypeTransfer
}

// MovementParams holds the caller-supplied fields of a movement
type MovementParams struct {
	ItemID         uuid.UUID
	Type           MovementType
	Quantity       decimal.Decimal
	UnitCost       *decimal.Decimal
	FromLocationID *uuid.UUID
	ToLocationID   *uuid.UUID
	CreatedBy      string
	Reason         string
}

// Movement is one stock-affecting operation. Once applied it is immutable.
type Movement struct {
	shared.BaseEntity
	ItemID         uuid.UUID
	Type           MovementType
	Quantity       decimal.Decimal
	UnitCost       *decimal.Decimal
	FromLocationID *uuid.UUID
	ToLocationID   *uuid.UUID
	Applied        bool
	AppliedAt      *time.Time
	CreatedBy      string
	Reason         string
}

// NewMovement creates an unapplied movement.
// Location and unit cost requirements are checked by Validate when the movement is applied.
func NewMovement(params MovementParams) (*Movement, error) {
	if err := checkParams(params); err != nil {
		return nil, err
	}
	m := &Movement{BaseEntity: shared.NewBaseEntity()}
	m.assign(params)
	return m, nil
}

func checkParams(params MovementParams) error {
	if params.ItemID == uuid.Nil {
		return shared.NewDomainError(shared.CodeValidation, "Item ID cannot be empty")
	}
	if !params.Type.IsValid() {
		return shared.NewDomainErrorf(shared.CodeValidation, "Invalid movement type %q", params.Type)
	}
	if params.Type == MovementTypeAdjust {
		if params.Quantity.IsZero() {
			return shared.NewDomainError(shared.CodeValidation, "Adjustment delta cannot be zero")
		}
	} else if !params.Quantity.IsPositive() {
		return shared.NewDomainError(shared.CodeValidation, "Quantity must be positive")
	}
	if params.UnitCost != nil && params.UnitCost.IsNegative() {
		return shared.NewDomainError(shared.CodeValidation, "Unit cost cannot be negative")
	}
	return nil
}

func (m *Movement) assign(params MovementParams) {
	m.ItemID = params.ItemID
	m.Type = params.Type
	m.Quantity = params.Quantity
	m.UnitCost = copyDecimal(params.UnitCost)
	m.FromLocationID = copyUUID(params.FromLocationID)
	m.ToLocationID = copyUUID(params.ToLocationID)
	m.CreatedBy = strings.TrimSpace(params.CreatedBy)
	m.Reason = strings.TrimSpace(params.Reason)
}

// Update replaces the caller-supplied fields of an unapplied movement
func (m *Movement) Update(params MovementParams) error {
	if m.Applied {
		return shared.NewDomainError(shared.CodeInvalidState, "Applied movement cannot be modified")
	}
	if params.ItemID != m.ItemID {
		return shared.NewDomainError(shared.CodeValidation, "Movement item cannot be changed")
	}
	if err := checkParams(params); err != nil {
		return err
	}
	m.assign(params)
	m.UpdatedAt = time.Now()
	return nil
}

// CanDiscard returns an error if the movement may no longer be removed
func (m *Movement) CanDiscard() error {
	if m.Applied {
		return shared.NewDomainError(shared.CodeInvalidState, "Applied movement cannot be discarded")
	}
	return nil
}

// Validate checks the per-type requirements that must hold before the movement is applied
func (m *Movement) Validate() error {
	switch {
	case m.Type.RequiresSource() && m.FromLocationID == nil:
		return shared.NewDomainErrorf(shared.CodeValidation, "%s movement requires a from location", m.Type)
	case m.Type.RequiresDestination() && m.ToLocationID == nil:
		return shared.NewDomainErrorf(shared.CodeValidation, "%s movement requires a to location", m.Type)
	case m.Type == MovementTypeReceive && m.UnitCost == nil:
		return shared.NewDomainError(shared.CodeValidation, "RECEIVE movement requires a unit cost")
	case m.Type == MovementTypeTransfer && *m.FromLocationID == *m.ToLocationID:
		return shared.NewDomainError(shared.CodeValidation, "TRANSFER source and destination must differ")
	case m.Type == MovementTypeAdjust && m.FromLocationID == nil && m.ToLocationID == nil:
		return shared.NewDomainError(shared.CodeValidation, "ADJUST movement requires a from or to location")
	}
	return nil
}

// AdjustLocation returns the location an ADJUST movement applies to:
// the to location for positive deltas when present, otherwise the from location.
func (m *Movement) AdjustLocation() uuid.UUID {
	if m.ToLocationID != nil && (m.Quantity.IsPositive() || m.FromLocationID == nil) {
		return *m.ToLocationID
	}
	return *m.FromLocationID
}

// TouchedLocations returns the locations whose stock the movement changes
func (m *Movement) TouchedLocations() []uuid.UUID {
	switch m.Type {
	case MovementTypeReceive:
		return []uuid.UUID{*m.ToLocationID}
	case MovementTypeIssue, MovementTypeConsume:
		return []uuid.UUID{*m.FromLocationID}
	case MovementTypeTransfer:
		return []uuid.UUID{*m.FromLocationID, *m.ToLocationID}
	case MovementTypeAdjust:
		return []uuid.UUID{m.AdjustLocation()}
	}
	return nil
}

// EnsureCreatedAfter moves CreatedAt past latest so creation order stays strictly monotonic per item
func (m *Movement) EnsureCreatedAfter(latest time.Time) {
	if !m.CreatedAt.After(latest) {
		m.CreatedAt = latest.Add(time.Microsecond)
	}
}

// NextAppliedAt returns now truncated to the microsecond, moved past latest when
// needed. Application times stay strictly increasing per item, so replaying by
// applied_at reproduces the order the ledger posted in.
func NextAppliedAt(now, latest time.Time) time.Time {
	at := now.Truncate(time.Microsecond)
	if !at.After(latest) {
		at = latest.Truncate(time.Microsecond).Add(time.Microsecond)
	}
	return at
}

// MarkApplied flips the idempotency guard
func (m *Movement) MarkApplied(at time.Time) error {
	if m.Applied {
		return shared.NewDomainError(shared.CodeInvalidState, "Movement is already applied")
	}
	m.Applied = true
	m.AppliedAt = &at
	m.UpdatedAt = at
	return nil
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
