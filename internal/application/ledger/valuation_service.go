package ledger

import (
	"context"
	"fmt"
	"time"

	"github.com/Duran117/kibray-sub001/internal/domain/ledger"
	"github.com/Duran117/kibray-sub001/internal/domain/shared/strategy"
	"github.com/Duran117/kibray-sub001/internal/infrastructure/telemetry"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ValuationService produces read-only valuation and COGS reports.
// It never writes to the ledger.
type ValuationService struct {
	repos  TransactionalRepositories
	costs  CostStrategyProvider
	logger *zap.Logger
	now    func() time.Time
}

// NewValuationService creates a new ValuationService
func NewValuationService(repos TransactionalRepositories, costs CostStrategyProvider, logger *zap.Logger) *ValuationService {
	return &ValuationService{
		repos:  repos,
		costs:  costs,
		logger: logger,
		now:    time.Now,
	}
}

// GetValuationReport values every catalog item. A nil or future asOf uses live
// stock and layers; a past asOf replays the movements applied up to that time.
func (s *ValuationService) GetValuationReport(ctx context.Context, asOf *time.Time) ([]ItemValuationResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "valuation", "report")
	defer span.End()

	items, err := s.repos.ItemRepo().FindAll(ctx)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	report := make([]ItemValuationResponse, 0, len(items))
	for _, item := range items {
		v, err := s.valueItem(ctx, item, asOf)
		if err != nil {
			telemetry.RecordError(span, err)
			return nil, err
		}
		report = append(report, ToItemValuationResponse(v))
	}
	telemetry.SetAttribute(span, "items_count", len(report))
	return report, nil
}

// GetItemValuation values a single item
func (s *ValuationService) GetItemValuation(ctx context.Context, itemID uuid.UUID, asOf *time.Time) (*ItemValuationResponse, error) {
	item, err := s.repos.ItemRepo().FindByID(ctx, itemID)
	if err != nil {
		return nil, err
	}
	v, err := s.valueItem(ctx, item, asOf)
	if err != nil {
		return nil, err
	}
	resp := ToItemValuationResponse(v)
	return &resp, nil
}

// GetCOGSReport sums the cost of the item's ISSUE and CONSUME postings in [from, to)
func (s *ValuationService) GetCOGSReport(ctx context.Context, itemID uuid.UUID, window ledger.DateRange) (*COGSReportResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "valuation", "cogs")
	defer span.End()
	telemetry.SetAttribute(span, telemetry.SpanAttrItemID, itemID.String())

	if err := window.Validate(); err != nil {
		return nil, err
	}
	item, err := s.repos.ItemRepo().FindByID(ctx, itemID)
	if err != nil {
		return nil, err
	}
	entries, err := s.repos.EntryRepo().FindByItemInRange(ctx, itemID, window, ledger.MovementTypeIssue, ledger.MovementTypeConsume)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	report := ledger.NewCOGSReport(item, window, entries)
	if report.Estimated {
		s.logger.Info("cogs report contains estimated costs",
			zap.String("item_id", itemID.String()),
			zap.Time("from", window.From),
			zap.Time("to", window.To),
		)
	}
	resp := ToCOGSReportResponse(report)
	return &resp, nil
}

func (s *ValuationService) valueItem(ctx context.Context, item *ledger.Item, asOf *time.Time) (ledger.ItemValuation, error) {
	cost, err := s.costs.ForMethod(strategy.CostMethod(item.ValuationMethod))
	if err != nil {
		return ledger.ItemValuation{}, err
	}

	now := s.now()
	if asOf == nil || !asOf.Before(now) {
		return s.valueLive(ctx, item, cost, now)
	}
	return s.valueAt(ctx, item, cost, *asOf)
}

func (s *ValuationService) valueLive(ctx context.Context, item *ledger.Item, cost strategy.CostCalculationStrategy, now time.Time) (ledger.ItemValuation, error) {
	onHand, err := s.repos.StockRepo().SumByItem(ctx, item.ID)
	if err != nil {
		return ledger.ItemValuation{}, err
	}

	var layers []*ledger.CostLayer
	if cost.UsesLayers() {
		layers, err = s.repos.LayerRepo().FindOpenByItem(ctx, item.ID)
		if err != nil {
			return ledger.ItemValuation{}, err
		}
	}

	result, err := cost.CalculateValue(ctx, onHand, item.AverageCost, ledger.StrategyLayers(layers))
	if err != nil {
		return ledger.ItemValuation{}, fmt.Errorf("value item %s: %w", item.SKU, err)
	}
	return ledger.NewItemValuation(item, result, now), nil
}

func (s *ValuationService) valueAt(ctx context.Context, item *ledger.Item, cost strategy.CostCalculationStrategy, asOf time.Time) (ledger.ItemValuation, error) {
	movements, err := s.repos.MovementRepo().FindAppliedByItem(ctx, item.ID, asOf)
	if err != nil {
		return ledger.ItemValuation{}, err
	}

	book := ledger.NewLayerBook(item, cost)
	if err := book.Replay(ctx, movements); err != nil {
		return ledger.ItemValuation{}, err
	}
	result, err := book.Value(ctx)
	if err != nil {
		return ledger.ItemValuation{}, fmt.Errorf("value item %s as of %s: %w", item.SKU, asOf.Format(time.RFC3339), err)
	}
	return ledger.NewItemValuation(item, result, asOf), nil
}
