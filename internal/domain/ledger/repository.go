package ledger

import (
	"context"
	"time"

	"github.com/Duran117/kibray-sub001/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ItemRepository defines persistence for catalog items
type ItemRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Item, error)
	// FindByIDForUpdate locks the item row for the rest of the transaction
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*Item, error)
	FindBySKU(ctx context.Context, sku string) (*Item, error)
	FindAll(ctx context.Context) ([]*Item, error)
	ExistsBySKU(ctx context.Context, sku string) (bool, error)
	Save(ctx context.Context, item *Item) error
}

// LocationRepository defines persistence for locations
type LocationRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Location, error)
	FindAll(ctx context.Context) ([]*Location, error)
	Save(ctx context.Context, location *Location) error
}

// StockRecordRepository is the only way stock quantities are read or written
type StockRecordRepository interface {
	// Find returns the record for the pair, or nil if it was never created
	Find(ctx context.Context, itemID, locationID uuid.UUID) (*StockRecord, error)
	// GetOrCreateForUpdate locks the records for keys in key order, creating
	// missing ones, and returns them keyed by location
	GetOrCreateForUpdate(ctx context.Context, keys []StockKey) (map[uuid.UUID]*StockRecord, error)
	FindByItem(ctx context.Context, itemID uuid.UUID) ([]*StockRecord, error)
	// SumByItem returns the aggregate on-hand quantity across all locations
	SumByItem(ctx context.Context, itemID uuid.UUID) (decimal.Decimal, error)
	Save(ctx context.Context, records ...*StockRecord) error
}

// MovementRepository defines persistence for movements
type MovementRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Movement, error)
	// FindByIDForUpdate locks the movement row; it guards idempotent application
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*Movement, error)
	FindByItem(ctx context.Context, itemID uuid.UUID, filter shared.Filter) ([]*Movement, int64, error)
	// FindAppliedByItem returns movements applied at or before asOf, ordered by application time
	FindAppliedByItem(ctx context.Context, itemID uuid.UUID, asOf time.Time) ([]*Movement, error)
	// LatestCreatedAt returns the newest creation time for the item, zero if none
	LatestCreatedAt(ctx context.Context, itemID uuid.UUID) (time.Time, error)
	// LatestAppliedAt returns the newest application time for the item, zero if none
	LatestAppliedAt(ctx context.Context, itemID uuid.UUID) (time.Time, error)
	Save(ctx context.Context, movement *Movement) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// CostLayerRepository defines persistence for cost layers
type CostLayerRepository interface {
	// FindOpenForUpdate locks the item's open layers, oldest first
	FindOpenForUpdate(ctx context.Context, itemID uuid.UUID) ([]*CostLayer, error)
	// FindOpenByItem returns the item's open layers without locking them, oldest first
	FindOpenByItem(ctx context.Context, itemID uuid.UUID) ([]*CostLayer, error)
	Save(ctx context.Context, layers ...*CostLayer) error
}

// LedgerEntryRepository defines persistence for the posting log
type LedgerEntryRepository interface {
	Create(ctx context.Context, entries ...*LedgerEntry) error
	FindByMovement(ctx context.Context, movementID uuid.UUID) ([]*LedgerEntry, error)
	// FindByItemInRange returns the item's entries posted in [from, to) for the given types
	FindByItemInRange(ctx context.Context, itemID uuid.UUID, window DateRange, types ...MovementType) ([]*LedgerEntry, error)
	// SumDeltaByItem returns Σ delta for the item, the ledger-side half of the stock invariant
	SumDeltaByItem(ctx context.Context, itemID uuid.UUID) (decimal.Decimal, error)
}
