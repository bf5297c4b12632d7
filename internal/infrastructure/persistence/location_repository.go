package persistence

import (
	"context"

	"github.com/Duran117/kibray-sub001/internal/domain/ledger"
	"github.com/Duran117/kibray-sub001/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormLocationRepository implements ledger.LocationRepository using GORM
type GormLocationRepository struct {
	db *gorm.DB
}

// NewGormLocationRepository creates a new GormLocationRepository
func NewGormLocationRepository(db *gorm.DB) *GormLocationRepository {
	return &GormLocationRepository{db: db}
}

// FindByID finds a location by its ID
func (r *GormLocationRepository) FindByID(ctx context.Context, id uuid.UUID) (*ledger.Location, error) {
	var model models.LocationModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		return nil, translateError(err)
	}
	return model.ToDomain(), nil
}

// FindAll returns every location, storage locations first
func (r *GormLocationRepository) FindAll(ctx context.Context) ([]*ledger.Location, error) {
	var rows []models.LocationModel
	if err := r.db.WithContext(ctx).
		Order("is_storage DESC").
		Order("name ASC").
		Find(&rows).Error; err != nil {
		return nil, translateError(err)
	}
	locations := make([]*ledger.Location, len(rows))
	for i := range rows {
		locations[i] = rows[i].ToDomain()
	}
	return locations, nil
}

// Save creates or updates a location
func (r *GormLocationRepository) Save(ctx context.Context, location *ledger.Location) error {
	model := models.LocationModelFromDomain(location)
	return translateError(r.db.WithContext(ctx).Save(model).Error)
}

// Ensure interface compliance
var _ ledger.LocationRepository = (*GormLocationRepository)(nil)
