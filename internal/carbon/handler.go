package carbon

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"ekofoods/marketplace-backend/internal/inventory"
)

// Handler handles HTTP requests for order summaries
type Handler struct {
	service *Service
	logger  *zap.Logger
}

// NewHandler creates a new order summary handler
func NewHandler(service *Service, logger *zap.Logger) *Handler {
	return &Handler{
		service: service,
		logger:  logger,
	}
}

// RegisterRoutes registers order summary routes
func (h *Handler) RegisterRoutes(router *gin.RouterGroup) {
	router.POST("/orders/summary", h.summarize)
}

// summarize handles POST /api/v1/orders/summary
func (h *Handler) summarize(c *gin.Context) {
	var req OrderSummaryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	summary, err := h.service.Summarize(c.Request.Context(), &req)
	if err != nil {
		if errors.Is(err, inventory.ErrProductNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		h.logger.Error("Failed to compute order summary", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, summary)
}
