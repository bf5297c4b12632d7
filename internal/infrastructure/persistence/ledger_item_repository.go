package persistence

import (
	"context"

	"github.com/Duran117/kibray-sub001/internal/domain/ledger"
	"github.com/Duran117/kibray-sub001/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// forUpdate adds a row lock for the rest of the transaction.
// The sqlite dialect drops the clause; its IMMEDIATE transactions already serialize writers.
func forUpdate(db *gorm.DB) *gorm.DB {
	return db.Clauses(clause.Locking{Strength: "UPDATE"})
}

// GormItemRepository implements ledger.ItemRepository using GORM
type GormItemRepository struct {
	db *gorm.DB
}

// NewGormItemRepository creates a new GormItemRepository
func NewGormItemRepository(db *gorm.DB) *GormItemRepository {
	return &GormItemRepository{db: db}
}

// FindByID finds an item by its ID
func (r *GormItemRepository) FindByID(ctx context.Context, id uuid.UUID) (*ledger.Item, error) {
	var model models.LedgerItemModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		return nil, translateError(err)
	}
	return model.ToDomain(), nil
}

// FindByIDForUpdate finds an item and locks its row
func (r *GormItemRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*ledger.Item, error) {
	var model models.LedgerItemModel
	if err := forUpdate(r.db.WithContext(ctx)).First(&model, "id = ?", id).Error; err != nil {
		return nil, translateError(err)
	}
	return model.ToDomain(), nil
}

// FindBySKU finds an item by its SKU
func (r *GormItemRepository) FindBySKU(ctx context.Context, sku string) (*ledger.Item, error) {
	var model models.LedgerItemModel
	if err := r.db.WithContext(ctx).Where("sku = ?", sku).First(&model).Error; err != nil {
		return nil, translateError(err)
	}
	return model.ToDomain(), nil
}

// FindAll returns every item ordered by SKU
func (r *GormItemRepository) FindAll(ctx context.Context) ([]*ledger.Item, error) {
	var rows []models.LedgerItemModel
	if err := r.db.WithContext(ctx).Order("sku ASC").Find(&rows).Error; err != nil {
		return nil, translateError(err)
	}
	items := make([]*ledger.Item, len(rows))
	for i := range rows {
		items[i] = rows[i].ToDomain()
	}
	return items, nil
}

// ExistsBySKU checks if an item with the SKU exists
func (r *GormItemRepository) ExistsBySKU(ctx context.Context, sku string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.LedgerItemModel{}).
		Where("sku = ?", sku).
		Count(&count).Error; err != nil {
		return false, translateError(err)
	}
	return count > 0, nil
}

// Save creates or updates an item
func (r *GormItemRepository) Save(ctx context.Context, item *ledger.Item) error {
	model := models.LedgerItemModelFromDomain(item)
	return translateError(r.db.WithContext(ctx).Save(model).Error)
}

// Ensure interface compliance
var _ ledger.ItemRepository = (*GormItemRepository)(nil)
