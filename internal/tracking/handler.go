package tracking

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"ekofoods/marketplace-backend/internal/inventory"
)

// Handler handles HTTP requests for the traceability view
type Handler struct {
	service *Service
	logger  *zap.Logger
}

// NewHandler creates a new tracking handler
func NewHandler(service *Service, logger *zap.Logger) *Handler {
	return &Handler{
		service: service,
		logger:  logger,
	}
}

// RegisterRoutes registers tracking routes
func (h *Handler) RegisterRoutes(router *gin.RouterGroup) {
	router.GET("/products/tracking/:trackingId", h.getProvenance)
}

// getProvenance handles GET /api/v1/products/tracking/:trackingId
func (h *Handler) getProvenance(c *gin.Context) {
	provenance, err := h.service.GetProvenance(c.Request.Context(), c.Param("trackingId"))
	if err != nil {
		if errors.Is(err, inventory.ErrProductNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "unknown tracking id"})
			return
		}
		h.logger.Error("Failed to resolve tracking id", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, provenance)
}
