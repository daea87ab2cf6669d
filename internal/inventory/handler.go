package inventory

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"ekofoods/marketplace-backend/internal/auth"
)

// Handler handles HTTP requests for product lifecycle operations
type Handler struct {
	ledger *Ledger
	logger *zap.Logger
}

// NewHandler creates a new inventory handler
func NewHandler(ledger *Ledger, logger *zap.Logger) *Handler {
	return &Handler{
		ledger: ledger,
		logger: logger,
	}
}

// RegisterRoutes registers product lifecycle routes
func (h *Handler) RegisterRoutes(router *gin.RouterGroup) {
	products := router.Group("/products")
	{
		products.POST("", h.createProduct)
		products.GET("/:id", h.getProduct)
		products.DELETE("/:id", h.deleteProduct)
		products.PUT("/:id/status", h.transitionStatus)
		products.POST("/:id/restock", h.restock)
	}
}

// createProduct handles POST /api/v1/products
func (h *Handler) createProduct(c *gin.Context) {
	var req CreateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	product, err := h.ledger.CreateProduct(c.Request.Context(), &req)
	if err != nil {
		h.logger.Error("Failed to create product", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, product)
}

// getProduct handles GET /api/v1/products/:id
func (h *Handler) getProduct(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid product id"})
		return
	}

	available, err := h.ledger.AvailableQuantity(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err)
		return
	}

	product, err := h.ledger.GetProduct(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"product":   product,
		"available": available,
	})
}

// deleteProduct handles DELETE /api/v1/products/:id
func (h *Handler) deleteProduct(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid product id"})
		return
	}

	if err := h.ledger.DeleteProduct(c.Request.Context(), id); err != nil {
		h.respondError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// transitionStatus handles PUT /api/v1/products/:id/status
func (h *Handler) transitionStatus(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid product id"})
		return
	}

	var req TransitionStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	actorID := auth.ActorID(c)
	if err := h.ledger.TransitionStatus(c.Request.Context(), id, req.Status, actorID, req.Note); err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": req.Status})
}

// restock handles POST /api/v1/products/:id/restock
func (h *Handler) restock(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid product id"})
		return
	}

	var req RestockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.ledger.Restock(c.Request.Context(), id, req.Delta); err != nil {
		h.respondError(c, err)
		return
	}

	available, err := h.ledger.AvailableQuantity(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"available": available})
}

func (h *Handler) respondError(c *gin.Context, err error) {
	var insufficient *InsufficientStockError
	var invalid *InvalidTransitionError

	switch {
	case errors.Is(err, ErrProductNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, ErrReservationExpired):
		c.JSON(http.StatusGone, gin.H{"error": err.Error()})
	case errors.Is(err, ErrProductHasHolds):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.As(err, &insufficient), errors.As(err, &invalid):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	default:
		h.logger.Error("Inventory operation failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}
