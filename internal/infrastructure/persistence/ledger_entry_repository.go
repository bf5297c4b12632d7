package persistence

import (
	"context"

	"github.com/Duran117/kibray-sub001/internal/domain/ledger"
	"github.com/Duran117/kibray-sub001/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// GormLedgerEntryRepository implements ledger.LedgerEntryRepository using GORM.
// Entries are only ever inserted.
type GormLedgerEntryRepository struct {
	db *gorm.DB
}

// NewGormLedgerEntryRepository creates a new GormLedgerEntryRepository
func NewGormLedgerEntryRepository(db *gorm.DB) *GormLedgerEntryRepository {
	return &GormLedgerEntryRepository{db: db}
}

// Create inserts entries in one batch
func (r *GormLedgerEntryRepository) Create(ctx context.Context, entries ...*ledger.LedgerEntry) error {
	if len(entries) == 0 {
		return nil
	}
	rows := make([]*models.LedgerEntryModel, len(entries))
	for i, e := range entries {
		rows[i] = models.LedgerEntryModelFromDomain(e)
	}
	return translateError(r.db.WithContext(ctx).Create(&rows).Error)
}

// FindByMovement returns the entries a movement posted
func (r *GormLedgerEntryRepository) FindByMovement(ctx context.Context, movementID uuid.UUID) ([]*ledger.LedgerEntry, error) {
	var rows []models.LedgerEntryModel
	if err := r.db.WithContext(ctx).
		Where("movement_id = ?", movementID).
		Order("posted_at ASC").
		Find(&rows).Error; err != nil {
		return nil, translateError(err)
	}
	return toEntries(rows), nil
}

// FindByItemInRange returns the item's entries posted in [from, to), optionally limited to types
func (r *GormLedgerEntryRepository) FindByItemInRange(ctx context.Context, itemID uuid.UUID, window ledger.DateRange, types ...ledger.MovementType) ([]*ledger.LedgerEntry, error) {
	query := r.db.WithContext(ctx).
		Where("item_id = ? AND posted_at >= ? AND posted_at < ?", itemID, window.From, window.To)
	if len(types) > 0 {
		names := make([]string, len(types))
		for i, t := range types {
			names[i] = t.String()
		}
		query = query.Where("movement_type IN ?", names)
	}

	var rows []models.LedgerEntryModel
	if err := query.Order("posted_at ASC").Find(&rows).Error; err != nil {
		return nil, translateError(err)
	}
	return toEntries(rows), nil
}

// SumDeltaByItem returns the sum of every posted delta for the item
func (r *GormLedgerEntryRepository) SumDeltaByItem(ctx context.Context, itemID uuid.UUID) (decimal.Decimal, error) {
	var total decimal.NullDecimal
	if err := r.db.WithContext(ctx).Model(&models.LedgerEntryModel{}).
		Select("SUM(delta)").
		Where("item_id = ?", itemID).
		Scan(&total).Error; err != nil {
		return decimal.Zero, translateError(err)
	}
	if !total.Valid {
		return decimal.Zero, nil
	}
	return total.Decimal, nil
}

func toEntries(rows []models.LedgerEntryModel) []*ledger.LedgerEntry {
	out := make([]*ledger.LedgerEntry, len(rows))
	for i := range rows {
		out[i] = rows[i].ToDomain()
	}
	return out
}

// Ensure interface compliance
var _ ledger.LedgerEntryRepository = (*GormLedgerEntryRepository)(nil)
