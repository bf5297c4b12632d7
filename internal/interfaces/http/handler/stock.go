package handler

import (
	appledger "github.com/Duran117/kibray-sub001/internal/application/ledger"
	"github.com/Duran117/kibray-sub001/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// StockHandler answers on-hand quantity queries
type StockHandler struct {
	BaseHandler
	movements *appledger.MovementService
}

// NewStockHandler creates a new StockHandler
func NewStockHandler(movements *appledger.MovementService) *StockHandler {
	return &StockHandler{movements: movements}
}

// RegisterRoutes mounts the stock endpoints
func (h *StockHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/stock", h.GetStock)
	rg.GET("/items/:id/stock", h.ListItemStock)
}

// GetStock returns the quantity at one location, or across all locations
// when location_id is omitted
// GET /stock?item_id=&location_id=
func (h *StockHandler) GetStock(c *gin.Context) {
	var q dto.StockQuery
	if !h.BindQuery(c, &q) {
		return
	}
	itemID := uuid.MustParse(q.ItemID)
	var locationID *uuid.UUID
	if q.LocationID != "" {
		id := uuid.MustParse(q.LocationID)
		locationID = &id
	}

	stock, err := h.movements.GetStock(c.Request.Context(), itemID, locationID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, stock)
}

// ListItemStock returns every stock record of an item
// GET /items/:id/stock
func (h *StockHandler) ListItemStock(c *gin.Context) {
	itemID, ok := h.ParamUUID(c, "id")
	if !ok {
		return
	}
	records, err := h.movements.ListStock(c.Request.Context(), itemID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, records)
}
