package catalog

import (
	"context"

	"github.com/google/uuid"

	"ekofoods/marketplace-backend/internal/inventory"
)

// Reader is the read-only view of the externally owned product catalog that
// discovery composes with geo filtering. Any store able to return candidate
// records with coordinates can implement it; the Postgres inventory
// repository is the default implementation.
type Reader interface {
	GetProduct(ctx context.Context, id uuid.UUID) (*inventory.Product, error)
	ListProducts(ctx context.Context, filters *inventory.ProductFilters) ([]*inventory.Product, error)
}
