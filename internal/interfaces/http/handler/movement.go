package handler

import (
	appledger "github.com/Duran117/kibray-sub001/internal/application/ledger"
	"github.com/Duran117/kibray-sub001/internal/infrastructure/logger"
	"github.com/gin-gonic/gin"
)

// MovementHandler serves the movement lifecycle: record, edit, discard and apply
type MovementHandler struct {
	BaseHandler
	movements *appledger.MovementService
}

// NewMovementHandler creates a new MovementHandler
func NewMovementHandler(movements *appledger.MovementService) *MovementHandler {
	return &MovementHandler{movements: movements}
}

// RegisterRoutes mounts the movement endpoints
func (h *MovementHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/movements", h.Create)
	rg.GET("/movements/:id", h.Get)
	rg.PUT("/movements/:id", h.Update)
	rg.DELETE("/movements/:id", h.Discard)
	rg.POST("/movements/:id/apply", h.Apply)
	rg.GET("/items/:id/movements", h.ListByItem)
}

// Create records an unapplied movement
// POST /movements
func (h *MovementHandler) Create(c *gin.Context) {
	var req appledger.CreateMovementRequest
	if !h.BindJSON(c, &req) {
		return
	}

	ctx := logger.WithActor(c.Request.Context(), req.CreatedBy)
	c.Request = c.Request.WithContext(ctx)

	movement, err := h.movements.CreateMovement(ctx, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, movement)
}

// Get returns a movement
// GET /movements/:id
func (h *MovementHandler) Get(c *gin.Context) {
	id, ok := h.ParamUUID(c, "id")
	if !ok {
		return
	}
	movement, err := h.movements.GetMovement(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, movement)
}

// Update edits an unapplied movement. Applied movements answer 422.
// PUT /movements/:id
func (h *MovementHandler) Update(c *gin.Context) {
	id, ok := h.ParamUUID(c, "id")
	if !ok {
		return
	}
	var req appledger.UpdateMovementRequest
	if !h.BindJSON(c, &req) {
		return
	}
	movement, err := h.movements.UpdateMovement(c.Request.Context(), id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, movement)
}

// Discard deletes an unapplied movement
// DELETE /movements/:id
func (h *MovementHandler) Discard(c *gin.Context) {
	id, ok := h.ParamUUID(c, "id")
	if !ok {
		return
	}
	if err := h.movements.DiscardMovement(c.Request.Context(), id); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}

// Apply posts a movement to the ledger. Re-applying answers 200 with
// already_applied set and changes nothing.
// POST /movements/:id/apply
func (h *MovementHandler) Apply(c *gin.Context) {
	id, ok := h.ParamUUID(c, "id")
	if !ok {
		return
	}
	result, err := h.movements.Apply(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result.ToResponse())
}

// ListByItem pages through an item's movements
// GET /items/:id/movements
func (h *MovementHandler) ListByItem(c *gin.Context) {
	itemID, ok := h.ParamUUID(c, "id")
	if !ok {
		return
	}
	var filter appledger.MovementListFilter
	if !h.BindQuery(c, &filter) {
		return
	}

	page, err := h.movements.ListMovements(c.Request.Context(), itemID, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, page.Items, page.Total, page.Page, page.PageSize)
}
