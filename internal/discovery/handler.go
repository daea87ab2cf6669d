package discovery

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"ekofoods/marketplace-backend/internal/inventory"
	"ekofoods/marketplace-backend/pkg/geo"
)

// Handler handles HTTP requests for product discovery
type Handler struct {
	service *Service
	logger  *zap.Logger
}

// NewHandler creates a new discovery handler
func NewHandler(service *Service, logger *zap.Logger) *Handler {
	return &Handler{
		service: service,
		logger:  logger,
	}
}

// RegisterRoutes registers discovery routes
func (h *Handler) RegisterRoutes(router *gin.RouterGroup) {
	router.GET("/products/nearby", h.nearby)
	router.GET("/products/search", h.search)
}

// nearby handles GET /api/v1/products/nearby?lat=&lon=&radiusKm=&category=
func (h *Handler) nearby(c *gin.Context) {
	lat, err := strconv.ParseFloat(c.Query("lat"), 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid lat"})
		return
	}
	lon, err := strconv.ParseFloat(c.Query("lon"), 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid lon"})
		return
	}
	center, err := geo.NewPoint(lat, lon)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	radiusKm := h.getFloatParam(c, "radiusKm", 50)

	req := &SearchRequest{
		Filters: inventory.ProductFilters{
			Category: c.Query("category"),
			Statuses: []inventory.Status{inventory.StatusAvailable},
		},
		Center:   &center,
		RadiusKm: radiusKm,
		SortBy:   SortByDistance,
		Order:    OrderAsc,
		Offset:   h.getIntParam(c, "offset", 0),
		Limit:    h.getIntParam(c, "limit", DefaultPageSize),
	}

	page, err := h.service.Search(c.Request.Context(), req)
	if err != nil {
		h.logger.Error("Nearby search failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, page)
}

// search handles GET /api/v1/products/search with the full filter surface
func (h *Handler) search(c *gin.Context) {
	req := &SearchRequest{
		Filters: inventory.ProductFilters{
			Category:      c.Query("category"),
			Subcategory:   c.Query("subcategory"),
			Search:        c.Query("q"),
			CertifiedOnly: c.Query("certified") == "true",
			Statuses:      []inventory.Status{inventory.StatusAvailable},
		},
		SortBy: SortKey(c.DefaultQuery("sort", string(SortByCreatedAt))),
		Order:  SortOrder(c.DefaultQuery("order", string(OrderDesc))),
		Offset: h.getIntParam(c, "offset", 0),
		Limit:  h.getIntParam(c, "limit", DefaultPageSize),
	}

	if minPrice := c.Query("minPrice"); minPrice != "" {
		if v, err := decimal.NewFromString(minPrice); err == nil {
			req.Filters.MinPrice = &v
		}
	}
	if maxPrice := c.Query("maxPrice"); maxPrice != "" {
		if v, err := decimal.NewFromString(maxPrice); err == nil {
			req.Filters.MaxPrice = &v
		}
	}

	if latStr, lonStr := c.Query("lat"), c.Query("lon"); latStr != "" && lonStr != "" {
		lat, latErr := strconv.ParseFloat(latStr, 64)
		lon, lonErr := strconv.ParseFloat(lonStr, 64)
		if latErr != nil || lonErr != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid coordinates"})
			return
		}
		center, err := geo.NewPoint(lat, lon)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		req.Center = &center
		req.RadiusKm = h.getFloatParam(c, "radiusKm", 0)
	}

	page, err := h.service.Search(c.Request.Context(), req)
	if err != nil {
		h.logger.Error("Product search failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, page)
}

func (h *Handler) getIntParam(c *gin.Context, name string, defaultValue int) int {
	if value, err := strconv.Atoi(c.Query(name)); err == nil {
		return value
	}
	return defaultValue
}

func (h *Handler) getFloatParam(c *gin.Context, name string, defaultValue float64) float64 {
	if value, err := strconv.ParseFloat(c.Query(name), 64); err == nil {
		return value
	}
	return defaultValue
}
