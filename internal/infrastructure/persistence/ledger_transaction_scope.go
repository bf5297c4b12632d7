package persistence

import (
	"context"

	appledger "github.com/Duran117/kibray-sub001/internal/application/ledger"
	"github.com/Duran117/kibray-sub001/internal/domain/ledger"
	"gorm.io/gorm"
)

// GormTransactionScope implements TransactionScope using GORM transactions.
// It provides atomic execution of multiple repository operations.
type GormTransactionScope struct {
	db *gorm.DB
}

// NewGormTransactionScope creates a new GormTransactionScope.
func NewGormTransactionScope(db *gorm.DB) *GormTransactionScope {
	return &GormTransactionScope{db: db}
}

// Execute runs the given function within a database transaction.
// If the function returns an error, the transaction is rolled back.
// If the function succeeds, the transaction is committed.
func (s *GormTransactionScope) Execute(ctx context.Context, fn func(repos appledger.TransactionalRepositories) error) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(NewGormLedgerRepositories(tx))
	})
	return translateError(err)
}

// GormLedgerRepositories bundles the ledger repositories over one *gorm.DB.
// Built on a transaction handle, every repository shares that transaction;
// built on the root handle, it serves plain reads.
type GormLedgerRepositories struct {
	db *gorm.DB
}

// NewGormLedgerRepositories creates the repository bundle for db
func NewGormLedgerRepositories(db *gorm.DB) *GormLedgerRepositories {
	return &GormLedgerRepositories{db: db}
}

// ItemRepo returns the item repository
func (r *GormLedgerRepositories) ItemRepo() ledger.ItemRepository {
	return NewGormItemRepository(r.db)
}

// LocationRepo returns the location repository
func (r *GormLedgerRepositories) LocationRepo() ledger.LocationRepository {
	return NewGormLocationRepository(r.db)
}

// StockRepo returns the stock record repository
func (r *GormLedgerRepositories) StockRepo() ledger.StockRecordRepository {
	return NewGormStockRecordRepository(r.db)
}

// MovementRepo returns the movement repository
func (r *GormLedgerRepositories) MovementRepo() ledger.MovementRepository {
	return NewGormMovementRepository(r.db)
}

// LayerRepo returns the cost layer repository
func (r *GormLedgerRepositories) LayerRepo() ledger.CostLayerRepository {
	return NewGormCostLayerRepository(r.db)
}

// EntryRepo returns the ledger entry repository
func (r *GormLedgerRepositories) EntryRepo() ledger.LedgerEntryRepository {
	return NewGormLedgerEntryRepository(r.db)
}

// Ensure GormTransactionScope implements TransactionScope
var _ appledger.TransactionScope = (*GormTransactionScope)(nil)

// Ensure GormLedgerRepositories implements TransactionalRepositories
var _ appledger.TransactionalRepositories = (*GormLedgerRepositories)(nil)
