package handler

import (
	appledger "github.com/Duran117/kibray-sub001/internal/application/ledger"
	"github.com/gin-gonic/gin"
)

// CatalogHandler registers items and locations
type CatalogHandler struct {
	BaseHandler
	catalog *appledger.CatalogService
}

// NewCatalogHandler creates a new CatalogHandler
func NewCatalogHandler(catalog *appledger.CatalogService) *CatalogHandler {
	return &CatalogHandler{catalog: catalog}
}

// RegisterRoutes mounts the catalog endpoints
func (h *CatalogHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/items", h.RegisterItem)
	rg.GET("/items/:id", h.GetItem)
	rg.PUT("/items/:id/threshold", h.SetThreshold)
	rg.POST("/locations", h.RegisterLocation)
	rg.GET("/locations", h.ListLocations)
}

// RegisterItem adds an item to the catalog
// POST /items
func (h *CatalogHandler) RegisterItem(c *gin.Context) {
	var req appledger.RegisterItemRequest
	if !h.BindJSON(c, &req) {
		return
	}
	item, err := h.catalog.RegisterItem(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, item)
}

// GetItem returns a catalog item
// GET /items/:id
func (h *CatalogHandler) GetItem(c *gin.Context) {
	id, ok := h.ParamUUID(c, "id")
	if !ok {
		return
	}
	item, err := h.catalog.GetItem(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, item)
}

// SetThreshold sets or clears the low-stock threshold
// PUT /items/:id/threshold
func (h *CatalogHandler) SetThreshold(c *gin.Context) {
	id, ok := h.ParamUUID(c, "id")
	if !ok {
		return
	}
	var req appledger.SetThresholdRequest
	if !h.BindJSON(c, &req) {
		return
	}
	item, err := h.catalog.SetThreshold(c.Request.Context(), id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, item)
}

// RegisterLocation adds a storage or site location
// POST /locations
func (h *CatalogHandler) RegisterLocation(c *gin.Context) {
	var req appledger.RegisterLocationRequest
	if !h.BindJSON(c, &req) {
		return
	}
	location, err := h.catalog.RegisterLocation(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, location)
}

// ListLocations returns all locations, storage first
// GET /locations
func (h *CatalogHandler) ListLocations(c *gin.Context) {
	locations, err := h.catalog.ListLocations(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, locations)
}
