package reservations

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"ekofoods/marketplace-backend/internal/inventory"
)

// Handler handles HTTP requests for cart reservations
type Handler struct {
	manager *Manager
	logger  *zap.Logger
}

// NewHandler creates a new reservations handler
func NewHandler(manager *Manager, logger *zap.Logger) *Handler {
	return &Handler{
		manager: manager,
		logger:  logger,
	}
}

// RegisterRoutes registers reservation and cart routes
func (h *Handler) RegisterRoutes(router *gin.RouterGroup) {
	router.POST("/products/:id/reserve", h.reserve)

	cart := router.Group("/cart")
	{
		cart.GET("/:holderId", h.listHolds)
		cart.POST("/:holderId/finalize", h.finalize)
		cart.DELETE("/:holderId/items/:productId", h.release)
	}
}

// reserve handles POST /api/v1/products/:id/reserve
func (h *Handler) reserve(c *gin.Context) {
	productID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid product id"})
		return
	}

	var req HoldRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ttl := time.Duration(req.TTLSeconds) * time.Second
	hold, err := h.manager.Hold(c.Request.Context(), productID, req.HolderID, req.Quantity, ttl)
	if err != nil {
		var insufficient *inventory.InsufficientStockError
		switch {
		case errors.As(err, &insufficient):
			c.JSON(http.StatusConflict, gin.H{
				"error":     insufficient.Error(),
				"available": insufficient.Available,
			})
		case errors.Is(err, inventory.ErrProductNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		default:
			h.logger.Error("Failed to create hold", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		}
		return
	}

	c.JSON(http.StatusCreated, hold)
}

// listHolds handles GET /api/v1/cart/:holderId
func (h *Handler) listHolds(c *gin.Context) {
	holds := h.manager.Holds(c.Param("holderId"))
	c.JSON(http.StatusOK, gin.H{"holds": holds})
}

// finalize handles POST /api/v1/cart/:holderId/finalize
func (h *Handler) finalize(c *gin.Context) {
	result := h.manager.Finalize(c.Request.Context(), c.Param("holderId"))

	status := http.StatusOK
	if !result.Ok() {
		// Partial failure: the client must re-present the failed items.
		status = http.StatusConflict
	}
	c.JSON(status, result)
}

// release handles DELETE /api/v1/cart/:holderId/items/:productId
func (h *Handler) release(c *gin.Context) {
	productID, err := uuid.Parse(c.Param("productId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid product id"})
		return
	}

	if !h.manager.Release(productID, c.Param("holderId")) {
		c.JSON(http.StatusNotFound, gin.H{"error": "no active hold for this product"})
		return
	}

	c.Status(http.StatusNoContent)
}
