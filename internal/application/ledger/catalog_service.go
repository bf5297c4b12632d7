package ledger

import (
	"context"

	"github.com/Duran117/kibray-sub001/internal/domain/ledger"
	"github.com/Duran117/kibray-sub001/internal/domain/shared"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// CatalogService registers the items and locations the ledger works against
type CatalogService struct {
	scope  TransactionScope
	repos  TransactionalRepositories
	logger *zap.Logger
}

// NewCatalogService creates a new CatalogService
func NewCatalogService(scope TransactionScope, repos TransactionalRepositories, logger *zap.Logger) *CatalogService {
	return &CatalogService{
		scope:  scope,
		repos:  repos,
		logger: logger,
	}
}

// RegisterItem adds an item to the catalog
func (s *CatalogService) RegisterItem(ctx context.Context, req RegisterItemRequest) (*ItemResponse, error) {
	item, err := ledger.NewItem(req.SKU, req.Name, ledger.ValuationMethod(req.ValuationMethod))
	if err != nil {
		return nil, err
	}
	if err := item.SetLowStockThreshold(req.LowStockThreshold); err != nil {
		return nil, err
	}

	exists, err := s.repos.ItemRepo().ExistsBySKU(ctx, item.SKU)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, shared.NewDomainErrorf(shared.CodeAlreadyExists, "Item with SKU %s already exists", item.SKU)
	}
	if err := s.repos.ItemRepo().Save(ctx, item); err != nil {
		return nil, err
	}

	s.logger.Info("item registered",
		zap.String("item_id", item.ID.String()),
		zap.String("sku", item.SKU),
		zap.String("valuation_method", item.ValuationMethod.String()),
	)
	resp := ToItemResponse(item)
	return &resp, nil
}

// GetItem returns a catalog item
func (s *CatalogService) GetItem(ctx context.Context, id uuid.UUID) (*ItemResponse, error) {
	item, err := s.repos.ItemRepo().FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := ToItemResponse(item)
	return &resp, nil
}

// SetThreshold configures or clears an item's low-stock threshold
func (s *CatalogService) SetThreshold(ctx context.Context, id uuid.UUID, req SetThresholdRequest) (*ItemResponse, error) {
	var item *ledger.Item
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		var err error
		item, err = repos.ItemRepo().FindByIDForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if err := item.SetLowStockThreshold(req.LowStockThreshold); err != nil {
			return err
		}
		return repos.ItemRepo().Save(ctx, item)
	})
	if err != nil {
		return nil, err
	}
	resp := ToItemResponse(item)
	return &resp, nil
}

// RegisterLocation adds a storage or job-site location
func (s *CatalogService) RegisterLocation(ctx context.Context, req RegisterLocationRequest) (*LocationResponse, error) {
	var (
		location *ledger.Location
		err      error
	)
	if req.IsStorage {
		if req.ProjectID != nil {
			return nil, shared.NewDomainError(shared.CodeValidation, "Storage locations cannot belong to a project")
		}
		location, err = ledger.NewStorageLocation(req.Name)
	} else {
		if req.ProjectID == nil {
			return nil, shared.NewDomainError(shared.CodeValidation, "Site location requires a project")
		}
		location, err = ledger.NewSiteLocation(req.Name, *req.ProjectID)
	}
	if err != nil {
		return nil, err
	}

	if err := s.repos.LocationRepo().Save(ctx, location); err != nil {
		return nil, err
	}
	resp := ToLocationResponse(location)
	return &resp, nil
}

// ListLocations returns all locations
func (s *CatalogService) ListLocations(ctx context.Context) ([]LocationResponse, error) {
	locations, err := s.repos.LocationRepo().FindAll(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]LocationResponse, len(locations))
	for i, l := range locations {
		out[i] = ToLocationResponse(l)
	}
	return out, nil
}
