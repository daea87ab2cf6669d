package discovery

import (
	"context"
	"fmt"
	"sort"

	"go.uber.org/zap"

	"ekofoods/marketplace-backend/internal/catalog"
	"ekofoods/marketplace-backend/internal/inventory"
	"ekofoods/marketplace-backend/pkg/geo"
)

// SortKey selects the listing order of search results
type SortKey string

const (
	SortByPrice     SortKey = "price"
	SortByRating    SortKey = "rating"
	SortByDistance  SortKey = "distance"
	SortByCreatedAt SortKey = "created_at"
)

// SortOrder is ascending or descending
type SortOrder string

const (
	OrderAsc  SortOrder = "asc"
	OrderDesc SortOrder = "desc"
)

// DefaultPageSize bounds unpaginated searches
const DefaultPageSize = 20

// SearchRequest describes one browse/search query. Center and RadiusKm are
// optional; without them no distance filtering happens.
type SearchRequest struct {
	Filters  inventory.ProductFilters
	Center   *geo.Point
	RadiusKm float64
	SortBy   SortKey
	Order    SortOrder
	Offset   int
	Limit    int
}

// Result is one product annotated with its distance from the search center
type Result struct {
	Product    *inventory.Product `json:"product"`
	DistanceKm *float64           `json:"distance_km,omitempty"`
}

// Page is a stable offset/limit window over the full result set
type Page struct {
	Results []Result `json:"results"`
	Total   int      `json:"total"`
	Offset  int      `json:"offset"`
	Limit   int      `json:"limit"`
}

// Service composes the external catalog with geo filtering and sorting
type Service struct {
	catalog catalog.Reader
	logger  *zap.Logger
}

// NewService creates a new discovery service
func NewService(reader catalog.Reader, logger *zap.Logger) *Service {
	return &Service{
		catalog: reader,
		logger:  logger,
	}
}

// Search filters, sorts and paginates the catalog. Ordering is deterministic
// for identical inputs: ties on the sort key break by product id, so pages
// stay stable across requests.
func (s *Service) Search(ctx context.Context, req *SearchRequest) (*Page, error) {
	if req.SortBy == SortByDistance && req.Center == nil {
		return nil, fmt.Errorf("distance sort requires a search center")
	}

	// Category, price and free-text filters are applied upstream by the
	// catalog store; pagination happens here, after geo filtering.
	filters := req.Filters
	filters.Limit = 0
	filters.Offset = 0

	candidates, err := s.catalog.ListProducts(ctx, &filters)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog: %w", err)
	}

	results := make([]Result, 0, len(candidates))
	for _, product := range candidates {
		result := Result{Product: product}
		if req.Center != nil {
			d := geo.DistanceKm(*req.Center, product.Location())
			if req.RadiusKm > 0 && d > req.RadiusKm {
				continue
			}
			result.DistanceKm = &d
		}
		results = append(results, result)
	}

	s.sortResults(results, req.SortBy, req.Order)

	total := len(results)
	offset := req.Offset
	if offset < 0 {
		offset = 0
	}
	limit := req.Limit
	if limit <= 0 {
		limit = DefaultPageSize
	}

	if offset > total {
		offset = total
	}
	end := offset + limit
	if end > total {
		end = total
	}

	return &Page{
		Results: results[offset:end],
		Total:   total,
		Offset:  offset,
		Limit:   limit,
	}, nil
}

func (s *Service) sortResults(results []Result, key SortKey, order SortOrder) {
	desc := order == OrderDesc

	less := func(a, b Result) int {
		switch key {
		case SortByPrice:
			return a.Product.Price.Cmp(b.Product.Price)
		case SortByRating:
			return compareFloat(a.Product.Rating, b.Product.Rating)
		case SortByDistance:
			return compareFloat(*a.DistanceKm, *b.DistanceKm)
		case SortByCreatedAt:
			return a.Product.CreatedAt.Compare(b.Product.CreatedAt)
		default:
			return a.Product.CreatedAt.Compare(b.Product.CreatedAt)
		}
	}

	sort.SliceStable(results, func(i, j int) bool {
		cmp := less(results[i], results[j])
		if desc {
			cmp = -cmp
		}
		if cmp != 0 {
			return cmp < 0
		}
		// Tie-break by id so pagination is stable regardless of direction.
		return results[i].Product.ID.String() < results[j].Product.ID.String()
	})
}

func compareFloat(a, b float64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}
