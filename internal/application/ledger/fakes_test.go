package ledger

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/Duran117/kibray-sub001/internal/domain/ledger"
	"github.com/Duran117/kibray-sub001/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// memStore is an in-memory ledger database. A transaction holds the store
// lock for its whole duration, which stands in for row locks.
type memStore struct {
	mu        sync.Mutex
	items     map[uuid.UUID]*ledger.Item
	locations map[uuid.UUID]*ledger.Location
	stock     map[ledger.StockKey]*ledger.StockRecord
	movements map[uuid.UUID]*ledger.Movement
	layers    map[uuid.UUID]*ledger.CostLayer
	entries   []*ledger.LedgerEntry

	failEntryCreate error
	txCount         int
}

func newMemStore() *memStore {
	return &memStore{
		items:     make(map[uuid.UUID]*ledger.Item),
		locations: make(map[uuid.UUID]*ledger.Location),
		stock:     make(map[ledger.StockKey]*ledger.StockRecord),
		movements: make(map[uuid.UUID]*ledger.Movement),
		layers:    make(map[uuid.UUID]*ledger.CostLayer),
	}
}

func cloneItem(i *ledger.Item) *ledger.Item {
	c := *i
	if i.LowStockThreshold != nil {
		t := *i.LowStockThreshold
		c.LowStockThreshold = &t
	}
	return &c
}

func cloneMovement(m *ledger.Movement) *ledger.Movement {
	c := *m
	return &c
}

func cloneRecord(r *ledger.StockRecord) *ledger.StockRecord {
	c := *r
	return &c
}

func cloneLayer(l *ledger.CostLayer) *ledger.CostLayer {
	c := *l
	return &c
}

type memSnapshot struct {
	items     map[uuid.UUID]*ledger.Item
	stock     map[ledger.StockKey]*ledger.StockRecord
	movements map[uuid.UUID]*ledger.Movement
	layers    map[uuid.UUID]*ledger.CostLayer
	entries   int
}

func (s *memStore) snapshot() memSnapshot {
	snap := memSnapshot{
		items:     make(map[uuid.UUID]*ledger.Item, len(s.items)),
		stock:     make(map[ledger.StockKey]*ledger.StockRecord, len(s.stock)),
		movements: make(map[uuid.UUID]*ledger.Movement, len(s.movements)),
		layers:    make(map[uuid.UUID]*ledger.CostLayer, len(s.layers)),
		entries:   len(s.entries),
	}
	for k, v := range s.items {
		snap.items[k] = cloneItem(v)
	}
	for k, v := range s.stock {
		snap.stock[k] = cloneRecord(v)
	}
	for k, v := range s.movements {
		snap.movements[k] = cloneMovement(v)
	}
	for k, v := range s.layers {
		snap.layers[k] = cloneLayer(v)
	}
	return snap
}

func (s *memStore) restore(snap memSnapshot) {
	s.items = snap.items
	s.stock = snap.stock
	s.movements = snap.movements
	s.layers = snap.layers
	s.entries = s.entries[:snap.entries]
}

// memScope implements TransactionScope over a memStore
type memScope struct {
	store *memStore
}

func (s *memScope) Execute(ctx context.Context, fn func(repos TransactionalRepositories) error) error {
	s.store.mu.Lock()
	defer s.store.mu.Unlock()

	s.store.txCount++
	snap := s.store.snapshot()
	if err := fn(&memRepos{store: s.store, inTx: true}); err != nil {
		s.store.restore(snap)
		return err
	}
	return nil
}

// memRepos implements every ledger repository. Outside a transaction each call
// takes the store lock itself.
type memRepos struct {
	store *memStore
	inTx  bool
}

func (r *memRepos) lock() func() {
	if r.inTx {
		return func() {}
	}
	r.store.mu.Lock()
	return r.store.mu.Unlock
}

func (r *memRepos) ItemRepo() ledger.ItemRepository         { return r }
func (r *memRepos) LocationRepo() ledger.LocationRepository { return memLocations{r} }
func (r *memRepos) StockRepo() ledger.StockRecordRepository { return memStock{r} }
func (r *memRepos) MovementRepo() ledger.MovementRepository { return memMovements{r} }
func (r *memRepos) LayerRepo() ledger.CostLayerRepository   { return memLayers{r} }
func (r *memRepos) EntryRepo() ledger.LedgerEntryRepository { return memEntries{r} }

// Items

func (r *memRepos) FindByID(ctx context.Context, id uuid.UUID) (*ledger.Item, error) {
	defer r.lock()()
	item, ok := r.store.items[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return cloneItem(item), nil
}

func (r *memRepos) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*ledger.Item, error) {
	return r.FindByID(ctx, id)
}

func (r *memRepos) FindBySKU(ctx context.Context, sku string) (*ledger.Item, error) {
	defer r.lock()()
	for _, item := range r.store.items {
		if item.SKU == sku {
			return cloneItem(item), nil
		}
	}
	return nil, shared.ErrNotFound
}

func (r *memRepos) FindAll(ctx context.Context) ([]*ledger.Item, error) {
	defer r.lock()()
	out := make([]*ledger.Item, 0, len(r.store.items))
	for _, item := range r.store.items {
		out = append(out, cloneItem(item))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SKU < out[j].SKU })
	return out, nil
}

func (r *memRepos) ExistsBySKU(ctx context.Context, sku string) (bool, error) {
	_, err := r.FindBySKU(ctx, sku)
	if errors.Is(err, shared.ErrNotFound) {
		return false, nil
	}
	return err == nil, err
}

func (r *memRepos) Save(ctx context.Context, item *ledger.Item) error {
	defer r.lock()()
	r.store.items[item.ID] = cloneItem(item)
	return nil
}

type memLocations struct{ r *memRepos }

func (l memLocations) FindByID(ctx context.Context, id uuid.UUID) (*ledger.Location, error) {
	defer l.r.lock()()
	loc, ok := l.r.store.locations[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	c := *loc
	return &c, nil
}

func (l memLocations) FindAll(ctx context.Context) ([]*ledger.Location, error) {
	defer l.r.lock()()
	out := make([]*ledger.Location, 0, len(l.r.store.locations))
	for _, loc := range l.r.store.locations {
		c := *loc
		out = append(out, &c)
	}
	return out, nil
}

func (l memLocations) Save(ctx context.Context, location *ledger.Location) error {
	defer l.r.lock()()
	c := *location
	l.r.store.locations[location.ID] = &c
	return nil
}

type memStock struct{ r *memRepos }

func (s memStock) Find(ctx context.Context, itemID, locationID uuid.UUID) (*ledger.StockRecord, error) {
	defer s.r.lock()()
	rec, ok := s.r.store.stock[ledger.StockKey{ItemID: itemID, LocationID: locationID}]
	if !ok {
		return nil, nil
	}
	return cloneRecord(rec), nil
}

func (s memStock) GetOrCreateForUpdate(ctx context.Context, keys []ledger.StockKey) (map[uuid.UUID]*ledger.StockRecord, error) {
	defer s.r.lock()()
	out := make(map[uuid.UUID]*ledger.StockRecord, len(keys))
	for _, k := range keys {
		rec, ok := s.r.store.stock[k]
		if !ok {
			rec = ledger.NewStockRecord(k.ItemID, k.LocationID)
			s.r.store.stock[k] = rec
		}
		out[k.LocationID] = cloneRecord(rec)
	}
	return out, nil
}

func (s memStock) FindByItem(ctx context.Context, itemID uuid.UUID) ([]*ledger.StockRecord, error) {
	defer s.r.lock()()
	var out []*ledger.StockRecord
	for k, rec := range s.r.store.stock {
		if k.ItemID == itemID {
			out = append(out, cloneRecord(rec))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key().Less(out[j].Key()) })
	return out, nil
}

func (s memStock) SumByItem(ctx context.Context, itemID uuid.UUID) (decimal.Decimal, error) {
	defer s.r.lock()()
	total := decimal.Zero
	for k, rec := range s.r.store.stock {
		if k.ItemID == itemID {
			total = total.Add(rec.Quantity)
		}
	}
	return total, nil
}

func (s memStock) Save(ctx context.Context, records ...*ledger.StockRecord) error {
	defer s.r.lock()()
	for _, rec := range records {
		s.r.store.stock[rec.Key()] = cloneRecord(rec)
	}
	return nil
}

type memMovements struct{ r *memRepos }

func (m memMovements) FindByID(ctx context.Context, id uuid.UUID) (*ledger.Movement, error) {
	defer m.r.lock()()
	mv, ok := m.r.store.movements[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return cloneMovement(mv), nil
}

func (m memMovements) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*ledger.Movement, error) {
	return m.FindByID(ctx, id)
}

func (m memMovements) FindByItem(ctx context.Context, itemID uuid.UUID, filter shared.Filter) ([]*ledger.Movement, int64, error) {
	defer m.r.lock()()
	var all []*ledger.Movement
	for _, mv := range m.r.store.movements {
		if mv.ItemID == itemID {
			all = append(all, cloneMovement(mv))
		}
	}
	sort.Slice(all, func(i, j int) bool { return all[i].CreatedAt.Before(all[j].CreatedAt) })
	total := int64(len(all))
	start := filter.Offset()
	if start > len(all) {
		start = len(all)
	}
	end := start + filter.PageSize
	if end > len(all) {
		end = len(all)
	}
	return all[start:end], total, nil
}

func (m memMovements) FindAppliedByItem(ctx context.Context, itemID uuid.UUID, asOf time.Time) ([]*ledger.Movement, error) {
	defer m.r.lock()()
	var out []*ledger.Movement
	for _, mv := range m.r.store.movements {
		if mv.ItemID == itemID && mv.Applied && !mv.AppliedAt.After(asOf) {
			out = append(out, cloneMovement(mv))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].AppliedAt.Before(*out[j].AppliedAt) })
	return out, nil
}

func (m memMovements) LatestCreatedAt(ctx context.Context, itemID uuid.UUID) (time.Time, error) {
	defer m.r.lock()()
	var latest time.Time
	for _, mv := range m.r.store.movements {
		if mv.ItemID == itemID && mv.CreatedAt.After(latest) {
			latest = mv.CreatedAt
		}
	}
	return latest, nil
}

func (m memMovements) LatestAppliedAt(ctx context.Context, itemID uuid.UUID) (time.Time, error) {
	defer m.r.lock()()
	var latest time.Time
	for _, mv := range m.r.store.movements {
		if mv.ItemID == itemID && mv.AppliedAt != nil && mv.AppliedAt.After(latest) {
			latest = *mv.AppliedAt
		}
	}
	return latest, nil
}

func (m memMovements) Save(ctx context.Context, movement *ledger.Movement) error {
	defer m.r.lock()()
	m.r.store.movements[movement.ID] = cloneMovement(movement)
	return nil
}

func (m memMovements) Delete(ctx context.Context, id uuid.UUID) error {
	defer m.r.lock()()
	delete(m.r.store.movements, id)
	return nil
}

type memLayers struct{ r *memRepos }

func (l memLayers) open(itemID uuid.UUID) []*ledger.CostLayer {
	var out []*ledger.CostLayer
	for _, layer := range l.r.store.layers {
		if layer.ItemID == itemID && layer.IsOpen() {
			out = append(out, cloneLayer(layer))
		}
	}
	ledger.SortLayers(out)
	return out
}

func (l memLayers) FindOpenForUpdate(ctx context.Context, itemID uuid.UUID) ([]*ledger.CostLayer, error) {
	defer l.r.lock()()
	return l.open(itemID), nil
}

func (l memLayers) FindOpenByItem(ctx context.Context, itemID uuid.UUID) ([]*ledger.CostLayer, error) {
	defer l.r.lock()()
	return l.open(itemID), nil
}

func (l memLayers) Save(ctx context.Context, layers ...*ledger.CostLayer) error {
	defer l.r.lock()()
	for _, layer := range layers {
		l.r.store.layers[layer.ID] = cloneLayer(layer)
	}
	return nil
}

type memEntries struct{ r *memRepos }

func (e memEntries) Create(ctx context.Context, entries ...*ledger.LedgerEntry) error {
	defer e.r.lock()()
	if e.r.store.failEntryCreate != nil {
		return e.r.store.failEntryCreate
	}
	e.r.store.entries = append(e.r.store.entries, entries...)
	return nil
}

func (e memEntries) FindByMovement(ctx context.Context, movementID uuid.UUID) ([]*ledger.LedgerEntry, error) {
	defer e.r.lock()()
	var out []*ledger.LedgerEntry
	for _, entry := range e.r.store.entries {
		if entry.MovementID == movementID {
			out = append(out, entry)
		}
	}
	return out, nil
}

func (e memEntries) FindByItemInRange(ctx context.Context, itemID uuid.UUID, window ledger.DateRange, types ...ledger.MovementType) ([]*ledger.LedgerEntry, error) {
	defer e.r.lock()()
	var out []*ledger.LedgerEntry
	for _, entry := range e.r.store.entries {
		if entry.ItemID != itemID || !window.Contains(entry.PostedAt) {
			continue
		}
		for _, t := range types {
			if entry.MovementType == t {
				out = append(out, entry)
				break
			}
		}
	}
	return out, nil
}

func (e memEntries) SumDeltaByItem(ctx context.Context, itemID uuid.UUID) (decimal.Decimal, error) {
	defer e.r.lock()()
	total := decimal.Zero
	for _, entry := range e.r.store.entries {
		if entry.ItemID == itemID {
			total = total.Add(entry.Delta)
		}
	}
	return total, nil
}

// recordingPublisher collects published events
type recordingPublisher struct {
	mu     sync.Mutex
	events []shared.DomainEvent
	err    error
}

func (p *recordingPublisher) Publish(ctx context.Context, events ...shared.DomainEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, events...)
	return p.err
}

func (p *recordingPublisher) Events() []shared.DomainEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]shared.DomainEvent, len(p.events))
	copy(out, p.events)
	return out
}

func (s *memStore) entryRepoSum(itemID uuid.UUID) (decimal.Decimal, error) {
	return memEntries{&memRepos{store: s}}.SumDeltaByItem(context.Background(), itemID)
}
