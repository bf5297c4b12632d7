package ledger

import (
	"context"

	"github.com/Duran117/kibray-sub001/internal/domain/ledger"
)

// TransactionScope provides transactional access to ledger repositories.
// All repository operations inside fn share one database transaction that is
// committed when fn returns nil and rolled back otherwise.
type TransactionScope interface {
	Execute(ctx context.Context, fn func(repos TransactionalRepositories) error) error
}

// TransactionalRepositories provides access to all ledger repositories.
// Inside a TransactionScope they share the same underlying transaction, and the
// *ForUpdate lookups hold their row locks until it ends.
type TransactionalRepositories interface {
	ItemRepo() ledger.ItemRepository
	LocationRepo() ledger.LocationRepository
	StockRepo() ledger.StockRecordRepository
	MovementRepo() ledger.MovementRepository
	LayerRepo() ledger.CostLayerRepository
	EntryRepo() ledger.LedgerEntryRepository
}
