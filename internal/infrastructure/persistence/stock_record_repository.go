package persistence

import (
	"context"
	"errors"
	"sort"

	"github.com/Duran117/kibray-sub001/internal/domain/ledger"
	"github.com/Duran117/kibray-sub001/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormStockRecordRepository implements ledger.StockRecordRepository using GORM
type GormStockRecordRepository struct {
	db *gorm.DB
}

// NewGormStockRecordRepository creates a new GormStockRecordRepository
func NewGormStockRecordRepository(db *gorm.DB) *GormStockRecordRepository {
	return &GormStockRecordRepository{db: db}
}

// Find returns the record for the pair, or nil when none exists
func (r *GormStockRecordRepository) Find(ctx context.Context, itemID, locationID uuid.UUID) (*ledger.StockRecord, error) {
	var model models.StockRecordModel
	err := r.db.WithContext(ctx).
		Where("item_id = ? AND location_id = ?", itemID, locationID).
		First(&model).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, translateError(err)
	}
	return model.ToDomain(), nil
}

// GetOrCreateForUpdate inserts any missing records and locks all of them, in key order
func (r *GormStockRecordRepository) GetOrCreateForUpdate(ctx context.Context, keys []ledger.StockKey) (map[uuid.UUID]*ledger.StockRecord, error) {
	ordered := make([]ledger.StockKey, len(keys))
	copy(ordered, keys)
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].Less(ordered[j]) })

	db := r.db.WithContext(ctx)
	out := make(map[uuid.UUID]*ledger.StockRecord, len(ordered))
	for _, key := range ordered {
		if _, seen := out[key.LocationID]; seen {
			continue
		}
		fresh := models.StockRecordModelFromDomain(ledger.NewStockRecord(key.ItemID, key.LocationID))
		if err := db.Clauses(clause.OnConflict{DoNothing: true}).Create(fresh).Error; err != nil {
			return nil, translateError(err)
		}

		var model models.StockRecordModel
		if err := forUpdate(db).
			Where("item_id = ? AND location_id = ?", key.ItemID, key.LocationID).
			First(&model).Error; err != nil {
			return nil, translateError(err)
		}
		out[key.LocationID] = model.ToDomain()
	}
	return out, nil
}

// FindByItem returns the item's records at every location
func (r *GormStockRecordRepository) FindByItem(ctx context.Context, itemID uuid.UUID) ([]*ledger.StockRecord, error) {
	var rows []models.StockRecordModel
	if err := r.db.WithContext(ctx).
		Where("item_id = ?", itemID).
		Order("location_id ASC").
		Find(&rows).Error; err != nil {
		return nil, translateError(err)
	}
	records := make([]*ledger.StockRecord, len(rows))
	for i := range rows {
		records[i] = rows[i].ToDomain()
	}
	return records, nil
}

// SumByItem returns the item's total on-hand quantity
func (r *GormStockRecordRepository) SumByItem(ctx context.Context, itemID uuid.UUID) (decimal.Decimal, error) {
	var total decimal.NullDecimal
	if err := r.db.WithContext(ctx).Model(&models.StockRecordModel{}).
		Select("SUM(quantity)").
		Where("item_id = ?", itemID).
		Scan(&total).Error; err != nil {
		return decimal.Zero, translateError(err)
	}
	if !total.Valid {
		return decimal.Zero, nil
	}
	return total.Decimal, nil
}

// Save upserts the given records
func (r *GormStockRecordRepository) Save(ctx context.Context, records ...*ledger.StockRecord) error {
	if len(records) == 0 {
		return nil
	}
	rows := make([]*models.StockRecordModel, len(records))
	for i, rec := range records {
		if rec.Quantity.IsNegative() {
			return ledger.NewNegativeStockError(rec.ItemID, rec.LocationID, rec.Quantity, decimal.Zero)
		}
		rows[i] = models.StockRecordModelFromDomain(rec)
	}
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "item_id"}, {Name: "location_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"quantity", "updated_at"}),
	}).Create(&rows).Error
	return translateError(err)
}

// Ensure interface compliance
var _ ledger.StockRecordRepository = (*GormStockRecordRepository)(nil)
