package ledger

import (
	"time"

	"github.com/Duran117/kibray-sub001/internal/domain/ledger"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CreateMovementRequest represents a request to record a new, unapplied movement
type CreateMovementRequest struct {
	ItemID         uuid.UUID        `json:"item_id" binding:"required"`
	MovementType   string           `json:"movement_type" binding:"required,oneof=RECEIVE ISSUE TRANSFER ADJUST CONSUME"`
	Quantity       decimal.Decimal  `json:"quantity" binding:"required"`
	UnitCost       *decimal.Decimal `json:"unit_cost" binding:"omitempty,gte=0"`
	FromLocationID *uuid.UUID       `json:"from_location_id"`
	ToLocationID   *uuid.UUID       `json:"to_location_id"`
	CreatedBy      string           `json:"created_by" binding:"required,max=100"`
	Reason         string           `json:"reason" binding:"max=500"`
}

// UpdateMovementRequest replaces the editable fields of an unapplied movement
type UpdateMovementRequest struct {
	MovementType   string           `json:"movement_type" binding:"required,oneof=RECEIVE ISSUE TRANSFER ADJUST CONSUME"`
	Quantity       decimal.Decimal  `json:"quantity" binding:"required"`
	UnitCost       *decimal.Decimal `json:"unit_cost" binding:"omitempty,gte=0"`
	FromLocationID *uuid.UUID       `json:"from_location_id"`
	ToLocationID   *uuid.UUID       `json:"to_location_id"`
	Reason         string           `json:"reason" binding:"max=500"`
}

// MovementListFilter represents filter options for listing an item's movements
type MovementListFilter struct {
	Page     int    `form:"page" binding:"omitempty,min=1"`
	PageSize int    `form:"page_size" binding:"omitempty,min=1,max=100"`
	SortBy   string `form:"sort_by" binding:"omitempty,oneof=created_at applied_at quantity"`
	OrderDir string `form:"order_dir" binding:"omitempty,oneof=asc desc"`
}

// MovementResponse represents a movement in API responses
type MovementResponse struct {
	ID             uuid.UUID        `json:"id"`
	ItemID         uuid.UUID        `json:"item_id"`
	MovementType   string           `json:"movement_type"`
	Quantity       decimal.Decimal  `json:"quantity"`
	UnitCost       *decimal.Decimal `json:"unit_cost,omitempty"`
	FromLocationID *uuid.UUID       `json:"from_location_id,omitempty"`
	ToLocationID   *uuid.UUID       `json:"to_location_id,omitempty"`
	Applied        bool             `json:"applied"`
	AppliedAt      *time.Time       `json:"applied_at,omitempty"`
	CreatedBy      string           `json:"created_by"`
	Reason         string           `json:"reason,omitempty"`
	CreatedAt      time.Time        `json:"created_at"`
	UpdatedAt      time.Time        `json:"updated_at"`
}

// ApplyMovementResponse is the outcome of applying a movement
type ApplyMovementResponse struct {
	Movement       MovementResponse        `json:"movement"`
	AlreadyApplied bool                    `json:"already_applied"`
	Entries        []LedgerEntryResponse   `json:"entries,omitempty"`
	ThresholdAlert *ThresholdAlertResponse `json:"threshold_alert,omitempty"`
}

// LedgerEntryResponse represents one posting of an applied movement
type LedgerEntryResponse struct {
	LocationID    uuid.UUID       `json:"location_id"`
	Delta         decimal.Decimal `json:"delta"`
	BalanceBefore decimal.Decimal `json:"balance_before"`
	BalanceAfter  decimal.Decimal `json:"balance_after"`
	UnitCost      decimal.Decimal `json:"unit_cost"`
	TotalCost     decimal.Decimal `json:"total_cost"`
	Estimated     bool            `json:"estimated"`
}

// ThresholdAlertResponse describes the threshold event raised by an apply
type ThresholdAlertResponse struct {
	CurrentTotal decimal.Decimal `json:"current_total"`
	Threshold    decimal.Decimal `json:"threshold"`
}

// StockResponse represents the on-hand quantity of an item
type StockResponse struct {
	ItemID     uuid.UUID       `json:"item_id"`
	LocationID *uuid.UUID      `json:"location_id,omitempty"`
	Quantity   decimal.Decimal `json:"quantity"`
}

// StockRecordResponse represents one stock record
type StockRecordResponse struct {
	ItemID     uuid.UUID       `json:"item_id"`
	LocationID uuid.UUID       `json:"location_id"`
	Quantity   decimal.Decimal `json:"quantity"`
	UpdatedAt  time.Time       `json:"updated_at"`
}

// ItemValuationResponse represents a valuation snapshot of one item
type ItemValuationResponse struct {
	ItemID        uuid.UUID       `json:"item_id"`
	SKU           string          `json:"sku"`
	OnHandQty     decimal.Decimal `json:"on_hand_qty"`
	UnitValuation decimal.Decimal `json:"unit_valuation"`
	TotalValue    decimal.Decimal `json:"total_value"`
	MethodUsed    string          `json:"method_used"`
	Estimated     bool            `json:"estimated"`
	AsOf          time.Time       `json:"as_of"`
}

// COGSReportResponse represents the cost of goods consumed in a window
type COGSReportResponse struct {
	ItemID      uuid.UUID       `json:"item_id"`
	QtyConsumed decimal.Decimal `json:"qty_consumed"`
	TotalCost   decimal.Decimal `json:"total_cost"`
	MethodUsed  string          `json:"method_used"`
	Estimated   bool            `json:"estimated"`
	From        time.Time       `json:"from"`
	To          time.Time       `json:"to"`
}

// RegisterItemRequest represents a request to add an item to the catalog
type RegisterItemRequest struct {
	SKU               string           `json:"sku" binding:"required,max=64"`
	Name              string           `json:"name" binding:"required,max=200"`
	ValuationMethod   string           `json:"valuation_method" binding:"required,oneof=FIFO LIFO AVG"`
	LowStockThreshold *decimal.Decimal `json:"low_stock_threshold"`
}

// SetThresholdRequest configures or clears an item's low-stock threshold
type SetThresholdRequest struct {
	LowStockThreshold *decimal.Decimal `json:"low_stock_threshold"`
}

// ItemResponse represents a catalog item
type ItemResponse struct {
	ID                uuid.UUID        `json:"id"`
	SKU               string           `json:"sku"`
	Name              string           `json:"name"`
	ValuationMethod   string           `json:"valuation_method"`
	AverageCost       decimal.Decimal  `json:"average_cost"`
	LowStockThreshold *decimal.Decimal `json:"low_stock_threshold,omitempty"`
	ThresholdTracking bool             `json:"threshold_tracking"`
	Version           int              `json:"version"`
	CreatedAt         time.Time        `json:"created_at"`
	UpdatedAt         time.Time        `json:"updated_at"`
}

// RegisterLocationRequest represents a request to add a location.
// Site locations must name their project.
type RegisterLocationRequest struct {
	Name      string     `json:"name" binding:"required,max=200"`
	IsStorage bool       `json:"is_storage"`
	ProjectID *uuid.UUID `json:"project_id"`
}

// LocationResponse represents a location
type LocationResponse struct {
	ID        uuid.UUID  `json:"id"`
	Name      string     `json:"name"`
	IsStorage bool       `json:"is_storage"`
	ProjectID *uuid.UUID `json:"project_id,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
}

// ToMovementResponse converts a domain movement to a response
func ToMovementResponse(m *ledger.Movement) MovementResponse {
	return MovementResponse{
		ID:             m.ID,
		ItemID:         m.ItemID,
		MovementType:   m.Type.String(),
		Quantity:       m.Quantity,
		UnitCost:       m.UnitCost,
		FromLocationID: m.FromLocationID,
		ToLocationID:   m.ToLocationID,
		Applied:        m.Applied,
		AppliedAt:      m.AppliedAt,
		CreatedBy:      m.CreatedBy,
		Reason:         m.Reason,
		CreatedAt:      m.CreatedAt,
		UpdatedAt:      m.UpdatedAt,
	}
}

// ToMovementResponses converts a slice of movements
func ToMovementResponses(movements []*ledger.Movement) []MovementResponse {
	out := make([]MovementResponse, len(movements))
	for i, m := range movements {
		out[i] = ToMovementResponse(m)
	}
	return out
}

// ToLedgerEntryResponses converts postings
func ToLedgerEntryResponses(entries []*ledger.LedgerEntry) []LedgerEntryResponse {
	out := make([]LedgerEntryResponse, len(entries))
	for i, e := range entries {
		out[i] = LedgerEntryResponse{
			LocationID:    e.LocationID,
			Delta:         e.Delta,
			BalanceBefore: e.BalanceBefore,
			BalanceAfter:  e.BalanceAfter,
			UnitCost:      e.UnitCost,
			TotalCost:     e.TotalCost,
			Estimated:     e.Estimated,
		}
	}
	return out
}

// ToStockRecordResponses converts stock records
func ToStockRecordResponses(records []*ledger.StockRecord) []StockRecordResponse {
	out := make([]StockRecordResponse, len(records))
	for i, r := range records {
		out[i] = StockRecordResponse{
			ItemID:     r.ItemID,
			LocationID: r.LocationID,
			Quantity:   r.Quantity,
			UpdatedAt:  r.UpdatedAt,
		}
	}
	return out
}

// ToItemValuationResponse converts a valuation snapshot
func ToItemValuationResponse(v ledger.ItemValuation) ItemValuationResponse {
	return ItemValuationResponse{
		ItemID:        v.ItemID,
		SKU:           v.SKU,
		OnHandQty:     v.OnHandQty,
		UnitValuation: v.UnitValuation,
		TotalValue:    v.TotalValue,
		MethodUsed:    v.MethodUsed.String(),
		Estimated:     v.Estimated,
		AsOf:          v.AsOf,
	}
}

// ToCOGSReportResponse converts a COGS report
func ToCOGSReportResponse(r ledger.COGSReport) COGSReportResponse {
	return COGSReportResponse{
		ItemID:      r.ItemID,
		QtyConsumed: r.QtyConsumed,
		TotalCost:   r.TotalCost,
		MethodUsed:  r.MethodUsed.String(),
		Estimated:   r.Estimated,
		From:        r.Range.From,
		To:          r.Range.To,
	}
}

// ToItemResponse converts a catalog item
func ToItemResponse(item *ledger.Item) ItemResponse {
	return ItemResponse{
		ID:                item.ID,
		SKU:               item.SKU,
		Name:              item.Name,
		ValuationMethod:   item.ValuationMethod.String(),
		AverageCost:       item.AverageCost,
		LowStockThreshold: item.LowStockThreshold,
		ThresholdTracking: item.ThresholdTracking,
		Version:           item.Version,
		CreatedAt:         item.CreatedAt,
		UpdatedAt:         item.UpdatedAt,
	}
}

// ToLocationResponse converts a location
func ToLocationResponse(l *ledger.Location) LocationResponse {
	return LocationResponse{
		ID:        l.ID,
		Name:      l.Name,
		IsStorage: l.IsStorage,
		ProjectID: l.ProjectID,
		CreatedAt: l.CreatedAt,
	}
}
