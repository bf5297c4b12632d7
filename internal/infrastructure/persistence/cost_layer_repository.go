package persistence

import (
	"context"

	"github.com/Duran117/kibray-sub001/internal/domain/ledger"
	"github.com/Duran117/kibray-sub001/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormCostLayerRepository implements ledger.CostLayerRepository using GORM
type GormCostLayerRepository struct {
	db *gorm.DB
}

// NewGormCostLayerRepository creates a new GormCostLayerRepository
func NewGormCostLayerRepository(db *gorm.DB) *GormCostLayerRepository {
	return &GormCostLayerRepository{db: db}
}

// FindOpenForUpdate locks the item's open layers, oldest first.
// Callers hold the item row lock, so layers are never contended on their own.
func (r *GormCostLayerRepository) FindOpenForUpdate(ctx context.Context, itemID uuid.UUID) ([]*ledger.CostLayer, error) {
	var rows []models.CostLayerModel
	if err := forUpdate(r.db.WithContext(ctx)).
		Where("item_id = ? AND remaining_qty > 0", itemID).
		Order("received_at ASC").
		Order("id ASC").
		Find(&rows).Error; err != nil {
		return nil, translateError(err)
	}
	return toLayers(rows), nil
}

// FindOpenByItem returns the item's open layers, oldest first
func (r *GormCostLayerRepository) FindOpenByItem(ctx context.Context, itemID uuid.UUID) ([]*ledger.CostLayer, error) {
	var rows []models.CostLayerModel
	if err := r.db.WithContext(ctx).
		Where("item_id = ? AND remaining_qty > 0", itemID).
		Order("received_at ASC").
		Order("id ASC").
		Find(&rows).Error; err != nil {
		return nil, translateError(err)
	}
	return toLayers(rows), nil
}

// Save upserts the given layers
func (r *GormCostLayerRepository) Save(ctx context.Context, layers ...*ledger.CostLayer) error {
	if len(layers) == 0 {
		return nil
	}
	rows := make([]*models.CostLayerModel, len(layers))
	for i, l := range layers {
		rows[i] = models.CostLayerModelFromDomain(l)
	}
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"remaining_qty", "updated_at"}),
	}).Create(&rows).Error
	return translateError(err)
}

// toLayers converts rows and applies the domain ordering, which breaks receipt-time ties by ID
func toLayers(rows []models.CostLayerModel) []*ledger.CostLayer {
	out := make([]*ledger.CostLayer, len(rows))
	for i := range rows {
		out[i] = rows[i].ToDomain()
	}
	ledger.SortLayers(out)
	return out
}

// Ensure interface compliance
var _ ledger.CostLayerRepository = (*GormCostLayerRepository)(nil)
