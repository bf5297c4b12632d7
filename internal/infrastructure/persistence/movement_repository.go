package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/Duran117/kibray-sub001/internal/domain/ledger"
	"github.com/Duran117/kibray-sub001/internal/domain/shared"
	"github.com/Duran117/kibray-sub001/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormMovementRepository implements ledger.MovementRepository using GORM
type GormMovementRepository struct {
	db *gorm.DB
}

// NewGormMovementRepository creates a new GormMovementRepository
func NewGormMovementRepository(db *gorm.DB) *GormMovementRepository {
	return &GormMovementRepository{db: db}
}

// FindByID finds a movement by its ID
func (r *GormMovementRepository) FindByID(ctx context.Context, id uuid.UUID) (*ledger.Movement, error) {
	var model models.MovementModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		return nil, translateError(err)
	}
	return model.ToDomain(), nil
}

// FindByIDForUpdate finds a movement and locks its row
func (r *GormMovementRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*ledger.Movement, error) {
	var model models.MovementModel
	if err := forUpdate(r.db.WithContext(ctx)).First(&model, "id = ?", id).Error; err != nil {
		return nil, translateError(err)
	}
	return model.ToDomain(), nil
}

// FindByItem returns a page of the item's movements, sorted by a whitelisted column with creation order breaking ties
func (r *GormMovementRepository) FindByItem(ctx context.Context, itemID uuid.UUID, filter shared.Filter) ([]*ledger.Movement, int64, error) {
	filter = filter.Normalize()
	byItem := func() *gorm.DB {
		return r.db.WithContext(ctx).Model(&models.MovementModel{}).Where("item_id = ?", itemID)
	}

	var total int64
	if err := byItem().Count(&total).Error; err != nil {
		return nil, 0, translateError(err)
	}

	sortBy := ValidateSortField(filter.SortBy, MovementSortFields, "created_at")
	dir := ValidateSortOrder(filter.OrderDir)
	query := byItem().Order(sortBy + " " + dir)
	if sortBy != "created_at" {
		query = query.Order("created_at " + dir)
	}

	var rows []models.MovementModel
	if err := query.
		Order("id " + dir).
		Offset(filter.Offset()).
		Limit(filter.PageSize).
		Find(&rows).Error; err != nil {
		return nil, 0, translateError(err)
	}
	return toMovements(rows), total, nil
}

// FindAppliedByItem returns movements applied at or before asOf in application order
func (r *GormMovementRepository) FindAppliedByItem(ctx context.Context, itemID uuid.UUID, asOf time.Time) ([]*ledger.Movement, error) {
	var rows []models.MovementModel
	if err := r.db.WithContext(ctx).
		Where("item_id = ? AND applied = ? AND applied_at <= ?", itemID, true, asOf).
		Order("applied_at ASC").
		Order("created_at ASC").
		Find(&rows).Error; err != nil {
		return nil, translateError(err)
	}
	return toMovements(rows), nil
}

// LatestCreatedAt returns the newest creation time for the item, zero if it has no movements
func (r *GormMovementRepository) LatestCreatedAt(ctx context.Context, itemID uuid.UUID) (time.Time, error) {
	var model models.MovementModel
	err := r.db.WithContext(ctx).
		Select("created_at").
		Where("item_id = ?", itemID).
		Order("created_at DESC").
		Take(&model).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return time.Time{}, nil
	}
	if err != nil {
		return time.Time{}, translateError(err)
	}
	return model.CreatedAt, nil
}

// LatestAppliedAt returns the newest application time for the item, zero if nothing is applied
func (r *GormMovementRepository) LatestAppliedAt(ctx context.Context, itemID uuid.UUID) (time.Time, error) {
	var model models.MovementModel
	err := r.db.WithContext(ctx).
		Select("applied_at").
		Where("item_id = ? AND applied = ?", itemID, true).
		Order("applied_at DESC").
		Take(&model).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return time.Time{}, nil
	}
	if err != nil {
		return time.Time{}, translateError(err)
	}
	if model.AppliedAt == nil {
		return time.Time{}, nil
	}
	return *model.AppliedAt, nil
}

// Save creates or updates a movement
func (r *GormMovementRepository) Save(ctx context.Context, movement *ledger.Movement) error {
	model := models.MovementModelFromDomain(movement)
	return translateError(r.db.WithContext(ctx).Save(model).Error)
}

// Delete removes an unapplied movement
func (r *GormMovementRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).
		Where("id = ? AND applied = ?", id, false).
		Delete(&models.MovementModel{})
	if result.Error != nil {
		return translateError(result.Error)
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func toMovements(rows []models.MovementModel) []*ledger.Movement {
	out := make([]*ledger.Movement, len(rows))
	for i := range rows {
		out[i] = rows[i].ToDomain()
	}
	return out
}

// Ensure interface compliance
var _ ledger.MovementRepository = (*GormMovementRepository)(nil)
