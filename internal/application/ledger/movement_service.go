package ledger

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/Duran117/kibray-sub001/internal/domain/ledger"
	"github.com/Duran117/kibray-sub001/internal/domain/shared"
	"github.com/Duran117/kibray-sub001/internal/domain/shared/strategy"
	"github.com/Duran117/kibray-sub001/internal/infrastructure/telemetry"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// CostStrategyProvider resolves the costing strategy for an item's valuation method
type CostStrategyProvider interface {
	ForMethod(method strategy.CostMethod) (strategy.CostCalculationStrategy, error)
}

// MovementMetrics records movement engine outcomes
type MovementMetrics interface {
	RecordMovementApplied(ctx context.Context, movementType string, duration time.Duration)
	RecordMovementRejected(ctx context.Context, movementType, reason string)
	RecordThresholdEvent(ctx context.Context, sku string)
}

// ApplyResult is the outcome of Apply. ThresholdEvent is set when the movement
// left the item below its low-stock threshold; it is built after commit.
type ApplyResult struct {
	Movement       *ledger.Movement
	Entries        []*ledger.LedgerEntry
	AlreadyApplied bool
	ThresholdEvent *ledger.StockBelowThresholdEvent
}

// ToResponse converts the result for API responses
func (r *ApplyResult) ToResponse() ApplyMovementResponse {
	resp := ApplyMovementResponse{
		Movement:       ToMovementResponse(r.Movement),
		AlreadyApplied: r.AlreadyApplied,
		Entries:        ToLedgerEntryResponses(r.Entries),
	}
	if r.ThresholdEvent != nil {
		resp.ThresholdAlert = &ThresholdAlertResponse{
			CurrentTotal: r.ThresholdEvent.CurrentTotal,
			Threshold:    r.ThresholdEvent.Threshold,
		}
	}
	return resp
}

// MovementService creates and applies stock movements
type MovementService struct {
	scope          TransactionScope
	repos          TransactionalRepositories
	costs          CostStrategyProvider
	eventPublisher shared.EventPublisher
	metrics        MovementMetrics
	logger         *zap.Logger
	now            func() time.Time
}

// NewMovementService creates a new MovementService.
// repos serves reads outside of transactions.
func NewMovementService(scope TransactionScope, repos TransactionalRepositories, costs CostStrategyProvider, logger *zap.Logger) *MovementService {
	return &MovementService{
		scope:  scope,
		repos:  repos,
		costs:  costs,
		logger: logger,
		now:    time.Now,
	}
}

// SetEventPublisher sets the publisher for threshold events
func (s *MovementService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// SetMetrics sets the metrics recorder
func (s *MovementService) SetMetrics(metrics MovementMetrics) {
	s.metrics = metrics
}

// CreateMovement records an unapplied movement. The item row is locked so that
// creation times stay strictly increasing per item.
func (s *MovementService) CreateMovement(ctx context.Context, req CreateMovementRequest) (*MovementResponse, error) {
	params := ledger.MovementParams{
		ItemID:         req.ItemID,
		Type:           ledger.MovementType(req.MovementType),
		Quantity:       req.Quantity,
		UnitCost:       req.UnitCost,
		FromLocationID: req.FromLocationID,
		ToLocationID:   req.ToLocationID,
		CreatedBy:      req.CreatedBy,
		Reason:         req.Reason,
	}

	var movement *ledger.Movement
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		if _, err := repos.ItemRepo().FindByIDForUpdate(ctx, req.ItemID); err != nil {
			return err
		}
		if err := s.checkLocations(ctx, repos, params.FromLocationID, params.ToLocationID); err != nil {
			return err
		}

		m, err := ledger.NewMovement(params)
		if err != nil {
			return err
		}
		latest, err := repos.MovementRepo().LatestCreatedAt(ctx, req.ItemID)
		if err != nil {
			return err
		}
		m.EnsureCreatedAfter(latest)

		if err := repos.MovementRepo().Save(ctx, m); err != nil {
			return err
		}
		movement = m
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("movement created",
		zap.String("movement_id", movement.ID.String()),
		zap.String("item_id", movement.ItemID.String()),
		zap.String("movement_type", movement.Type.String()),
		zap.String("quantity", movement.Quantity.String()),
	)
	resp := ToMovementResponse(movement)
	return &resp, nil
}

// UpdateMovement edits a movement that has not been applied yet
func (s *MovementService) UpdateMovement(ctx context.Context, id uuid.UUID, req UpdateMovementRequest) (*MovementResponse, error) {
	var movement *ledger.Movement
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		m, err := repos.MovementRepo().FindByIDForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if err := s.checkLocations(ctx, repos, req.FromLocationID, req.ToLocationID); err != nil {
			return err
		}
		err = m.Update(ledger.MovementParams{
			ItemID:         m.ItemID,
			Type:           ledger.MovementType(req.MovementType),
			Quantity:       req.Quantity,
			UnitCost:       req.UnitCost,
			FromLocationID: req.FromLocationID,
			ToLocationID:   req.ToLocationID,
			CreatedBy:      m.CreatedBy,
			Reason:         req.Reason,
		})
		if err != nil {
			return err
		}
		movement = m
		return repos.MovementRepo().Save(ctx, m)
	})
	if err != nil {
		return nil, err
	}

	resp := ToMovementResponse(movement)
	return &resp, nil
}

// DiscardMovement deletes a movement that has not been applied yet
func (s *MovementService) DiscardMovement(ctx context.Context, id uuid.UUID) error {
	return s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		m, err := repos.MovementRepo().FindByIDForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if err := m.CanDiscard(); err != nil {
			return err
		}
		return repos.MovementRepo().Delete(ctx, id)
	})
}

// GetMovement returns a movement by ID
func (s *MovementService) GetMovement(ctx context.Context, id uuid.UUID) (*MovementResponse, error) {
	m, err := s.repos.MovementRepo().FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := ToMovementResponse(m)
	return &resp, nil
}

// ListMovements returns a page of an item's movements, in creation order unless sort_by says otherwise
func (s *MovementService) ListMovements(ctx context.Context, itemID uuid.UUID, filter MovementListFilter) (*shared.Paginated[MovementResponse], error) {
	if _, err := s.repos.ItemRepo().FindByID(ctx, itemID); err != nil {
		return nil, err
	}
	f := shared.Filter{Page: filter.Page, PageSize: filter.PageSize, SortBy: filter.SortBy, OrderDir: filter.OrderDir}.Normalize()
	movements, total, err := s.repos.MovementRepo().FindByItem(ctx, itemID, f)
	if err != nil {
		return nil, err
	}
	page := shared.NewPaginated(ToMovementResponses(movements), total, f.Page, f.PageSize)
	return &page, nil
}

// Apply applies a movement to the stock ledger exactly once.
//
// The movement row is locked first and acts as the idempotency guard: a movement
// that is already applied is returned untouched. Then the item row is locked,
// followed by the touched stock records in key order and, for outgoing movements,
// the item's open cost layers. Validation and stock checks finish before anything
// is written, and all writes commit together. The threshold event is built after commit.
func (s *MovementService) Apply(ctx context.Context, id uuid.UUID) (*ApplyResult, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "movement", "apply")
	defer span.End()
	telemetry.SetAttribute(span, telemetry.SpanAttrMovementID, id.String())

	start := s.now()
	result := &ApplyResult{}
	var item *ledger.Item
	var itemTotal decimal.Decimal

	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		m, err := repos.MovementRepo().FindByIDForUpdate(ctx, id)
		if err != nil {
			return err
		}
		result.Movement = m
		if m.Applied {
			result.AlreadyApplied = true
			return nil
		}
		if err := m.Validate(); err != nil {
			return err
		}

		item, err = repos.ItemRepo().FindByIDForUpdate(ctx, m.ItemID)
		if err != nil {
			return err
		}
		cost, err := s.costs.ForMethod(strategy.CostMethod(item.ValuationMethod))
		if err != nil {
			return err
		}

		state, err := s.loadPostingState(ctx, repos, item, m, cost)
		if err != nil {
			return err
		}

		latest, err := repos.MovementRepo().LatestAppliedAt(ctx, item.ID)
		if err != nil {
			return err
		}
		at := ledger.NextAppliedAt(s.now(), latest)
		posting, err := ledger.Post(ctx, cost, state, m, at)
		if err != nil {
			return err
		}
		if err := s.savePosting(ctx, repos, item, posting); err != nil {
			return err
		}
		if err := m.MarkApplied(at); err != nil {
			return err
		}
		if err := repos.MovementRepo().Save(ctx, m); err != nil {
			return err
		}

		result.Entries = posting.Entries
		itemTotal = posting.ItemTotal
		return nil
	})
	if err != nil {
		telemetry.RecordError(span, err)
		s.recordRejected(ctx, result.Movement, err)
		return nil, err
	}

	if result.AlreadyApplied {
		s.logger.Debug("movement already applied",
			zap.String("movement_id", id.String()),
		)
		return result, nil
	}

	m := result.Movement
	telemetry.SetAttributes(span,
		telemetry.SpanAttrItemID, m.ItemID.String(),
		telemetry.SpanAttrMovementType, m.Type.String(),
		telemetry.SpanAttrQuantity, m.Quantity.String(),
	)
	if s.metrics != nil {
		s.metrics.RecordMovementApplied(ctx, m.Type.String(), s.now().Sub(start))
	}
	s.logger.Info("movement applied",
		zap.String("movement_id", m.ID.String()),
		zap.String("item_id", m.ItemID.String()),
		zap.String("movement_type", m.Type.String()),
		zap.String("quantity", m.Quantity.String()),
		zap.String("item_total", itemTotal.String()),
	)

	result.ThresholdEvent = s.checkThreshold(ctx, item, m)
	return result, nil
}

// GetStock returns the on-hand quantity of an item at one location, or across
// all locations when locationID is nil
func (s *MovementService) GetStock(ctx context.Context, itemID uuid.UUID, locationID *uuid.UUID) (*StockResponse, error) {
	if _, err := s.repos.ItemRepo().FindByID(ctx, itemID); err != nil {
		return nil, err
	}

	resp := &StockResponse{ItemID: itemID, LocationID: locationID, Quantity: decimal.Zero}
	if locationID == nil {
		total, err := s.repos.StockRepo().SumByItem(ctx, itemID)
		if err != nil {
			return nil, err
		}
		resp.Quantity = total
		return resp, nil
	}

	if _, err := s.repos.LocationRepo().FindByID(ctx, *locationID); err != nil {
		return nil, err
	}
	rec, err := s.repos.StockRepo().Find(ctx, itemID, *locationID)
	if err != nil {
		return nil, err
	}
	if rec != nil {
		resp.Quantity = rec.Quantity
	}
	return resp, nil
}

// ListStock returns every stock record of an item
func (s *MovementService) ListStock(ctx context.Context, itemID uuid.UUID) ([]StockRecordResponse, error) {
	if _, err := s.repos.ItemRepo().FindByID(ctx, itemID); err != nil {
		return nil, err
	}
	records, err := s.repos.StockRepo().FindByItem(ctx, itemID)
	if err != nil {
		return nil, err
	}
	return ToStockRecordResponses(records), nil
}

func (s *MovementService) checkLocations(ctx context.Context, repos TransactionalRepositories, ids ...*uuid.UUID) error {
	for _, id := range ids {
		if id == nil {
			continue
		}
		if _, err := repos.LocationRepo().FindByID(ctx, *id); err != nil {
			return err
		}
	}
	return nil
}

// loadPostingState locks and loads everything Post needs for m
func (s *MovementService) loadPostingState(ctx context.Context, repos TransactionalRepositories, item *ledger.Item, m *ledger.Movement, cost strategy.CostCalculationStrategy) (*ledger.PostingState, error) {
	total, err := repos.StockRepo().SumByItem(ctx, item.ID)
	if err != nil {
		return nil, err
	}
	state := ledger.NewPostingState(item, total)

	keys := make([]ledger.StockKey, 0, 2)
	for _, loc := range m.TouchedLocations() {
		keys = append(keys, ledger.StockKey{ItemID: item.ID, LocationID: loc})
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].Less(keys[j]) })

	records, err := repos.StockRepo().GetOrCreateForUpdate(ctx, keys)
	if err != nil {
		return nil, err
	}
	for loc, rec := range records {
		state.Records[loc] = rec
	}

	if cost.UsesLayers() && m.Type.IsOutgoing() {
		layers, err := repos.LayerRepo().FindOpenForUpdate(ctx, item.ID)
		if err != nil {
			return nil, err
		}
		state.Layers = layers
	}
	return state, nil
}

func (s *MovementService) savePosting(ctx context.Context, repos TransactionalRepositories, item *ledger.Item, p *ledger.Posting) error {
	if err := repos.StockRepo().Save(ctx, p.Records...); err != nil {
		return err
	}
	layers := append(append([]*ledger.CostLayer{}, p.ChangedLayers...), p.NewLayers...)
	if len(layers) > 0 {
		if err := repos.LayerRepo().Save(ctx, layers...); err != nil {
			return err
		}
	}
	if p.ItemChanged {
		if err := repos.ItemRepo().Save(ctx, item); err != nil {
			return err
		}
	}
	return repos.EntryRepo().Create(ctx, p.Entries...)
}

// checkThreshold recomputes the aggregate on-hand after commit and publishes a
// threshold event when it is below the item's threshold. Failures are logged only.
func (s *MovementService) checkThreshold(ctx context.Context, item *ledger.Item, m *ledger.Movement) *ledger.StockBelowThresholdEvent {
	if !item.ThresholdTracking {
		return nil
	}
	total, err := s.repos.StockRepo().SumByItem(ctx, item.ID)
	if err != nil {
		s.logger.Warn("failed to recompute stock total after apply",
			zap.String("item_id", item.ID.String()),
			zap.Error(err),
		)
		return nil
	}

	event := item.ThresholdEvent(m.ID, total)
	if event == nil {
		return nil
	}
	telemetry.AddEvent(ctx, "stock_below_threshold",
		telemetry.SpanAttrItemID, item.ID.String(),
		telemetry.SpanAttrQuantity, total.String(),
	)
	if s.metrics != nil {
		s.metrics.RecordThresholdEvent(ctx, item.SKU)
	}
	if s.eventPublisher != nil {
		if err := s.eventPublisher.Publish(ctx, event); err != nil {
			s.logger.Error("failed to publish stock below threshold event",
				zap.String("item_id", item.ID.String()),
				zap.String("event_id", event.ID.String()),
				zap.Error(err),
			)
		}
	}
	return event
}

func (s *MovementService) recordRejected(ctx context.Context, m *ledger.Movement, err error) {
	reason := "internal"
	var domainErr *shared.DomainError
	if errors.As(err, &domainErr) {
		reason = domainErr.Code
	}
	movementType := "unknown"
	if m != nil {
		movementType = m.Type.String()
	}

	if s.metrics != nil {
		s.metrics.RecordMovementRejected(ctx, movementType, reason)
	}
	if errors.Is(err, shared.ErrNegativeStock) {
		s.logger.Error("stock invariant violated while applying movement", zap.Error(err))
		return
	}
	s.logger.Info("movement rejected",
		zap.String("movement_type", movementType),
		zap.String("reason", reason),
		zap.Error(err),
	)
}
