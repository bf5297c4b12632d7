package ledger

import (
	"github.com/Duran117/kibray-sub001/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// NewInsufficientStockError reports that a location cannot cover an outgoing quantity
func NewInsufficientStockError(itemID, locationID uuid.UUID, available, requested decimal.Decimal) *shared.DomainError {
	return shared.NewDomainErrorf(shared.CodeInsufficientStock,
		"Insufficient stock for item %s at location %s: available %s, requested %s",
		itemID, locationID, available.String(), requested.String())
}

// NewNegativeStockError reports an increment that would drive a stock record below zero.
// Validation should make this unreachable; callers must treat it as fatal.
func NewNegativeStockError(itemID, locationID uuid.UUID, current, delta decimal.Decimal) *shared.DomainError {
	return shared.NewDomainErrorf(shared.CodeNegativeStock,
		"Stock for item %s at location %s would become negative: current %s, delta %s",
		itemID, locationID, current.String(), delta.String())
}

// NewNotFoundError reports a missing ledger resource
func NewNotFoundError(resource string, id uuid.UUID) *shared.DomainError {
	return shared.NewDomainErrorf(shared.CodeNotFound, "%s %s not found", resource, id)
}
