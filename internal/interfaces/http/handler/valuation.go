package handler

import (
	"time"

	appledger "github.com/Duran117/kibray-sub001/internal/application/ledger"
	"github.com/Duran117/kibray-sub001/internal/domain/ledger"
	"github.com/Duran117/kibray-sub001/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
)

// ValuationHandler serves the read-only valuation and COGS reports
type ValuationHandler struct {
	BaseHandler
	valuation *appledger.ValuationService
}

// NewValuationHandler creates a new ValuationHandler
func NewValuationHandler(valuation *appledger.ValuationService) *ValuationHandler {
	return &ValuationHandler{valuation: valuation}
}

// RegisterRoutes mounts the valuation endpoints
func (h *ValuationHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/valuation", h.Report)
	rg.GET("/items/:id/valuation", h.ItemValuation)
	rg.GET("/items/:id/cogs", h.COGS)
}

// Report values every item, live or as of a past instant
// GET /valuation?as_of=
func (h *ValuationHandler) Report(c *gin.Context) {
	asOf, ok := h.asOf(c)
	if !ok {
		return
	}
	report, err := h.valuation.GetValuationReport(c.Request.Context(), asOf)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, report)
}

// ItemValuation values a single item
// GET /items/:id/valuation?as_of=
func (h *ValuationHandler) ItemValuation(c *gin.Context) {
	itemID, ok := h.ParamUUID(c, "id")
	if !ok {
		return
	}
	asOf, ok := h.asOf(c)
	if !ok {
		return
	}
	valuation, err := h.valuation.GetItemValuation(c.Request.Context(), itemID, asOf)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, valuation)
}

// COGS reports issued and consumed cost in [from, to)
// GET /items/:id/cogs?from=&to=
func (h *ValuationHandler) COGS(c *gin.Context) {
	itemID, ok := h.ParamUUID(c, "id")
	if !ok {
		return
	}
	var q dto.COGSQuery
	if !h.BindQuery(c, &q) {
		return
	}
	from, err := parseTime(q.From)
	if err != nil {
		h.BadRequest(c, "Invalid from: use RFC3339 or YYYY-MM-DD")
		return
	}
	to, err := parseTime(q.To)
	if err != nil {
		h.BadRequest(c, "Invalid to: use RFC3339 or YYYY-MM-DD")
		return
	}

	report, err := h.valuation.GetCOGSReport(c.Request.Context(), itemID, ledger.DateRange{From: from, To: to})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, report)
}

func (h *ValuationHandler) asOf(c *gin.Context) (*time.Time, bool) {
	var q dto.ValuationQuery
	if !h.BindQuery(c, &q) {
		return nil, false
	}
	if q.AsOf == "" {
		return nil, true
	}
	t, err := parseTime(q.AsOf)
	if err != nil {
		h.BadRequest(c, "Invalid as_of: use RFC3339 or YYYY-MM-DD")
		return nil, false
	}
	return &t, true
}
