package inventory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryRepository is an in-process Repository used in tests and local
// development. The ledger contract is storage-agnostic; anything that can
// store product records behind the Repository interface works underneath it.
type MemoryRepository struct {
	mu       sync.Mutex
	products map[uuid.UUID]*Product
	history  map[uuid.UUID][]StatusTransition
	nextID   int64
}

// NewMemoryRepository creates an empty in-memory repository
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		products: make(map[uuid.UUID]*Product),
		history:  make(map[uuid.UUID][]StatusTransition),
	}
}

func (r *MemoryRepository) CreateProduct(ctx context.Context, product *Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	copied := *product
	r.products[product.ID] = &copied
	return nil
}

func (r *MemoryRepository) GetProduct(ctx context.Context, id uuid.UUID) (*Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	product, ok := r.products[id]
	if !ok {
		return nil, ErrProductNotFound
	}
	copied := *product
	return &copied, nil
}

func (r *MemoryRepository) GetProductByTrackingID(ctx context.Context, trackingID string) (*Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, product := range r.products {
		if product.TrackingID == trackingID {
			copied := *product
			return &copied, nil
		}
	}
	return nil, ErrProductNotFound
}

func (r *MemoryRepository) ListProducts(ctx context.Context, filters *ProductFilters) ([]*Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []*Product
	for _, product := range r.products {
		if !matches(product, filters) {
			continue
		}
		copied := *product
		out = append(out, &copied)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID.String() < out[j].ID.String()
	})

	if filters.Offset > 0 {
		if filters.Offset >= len(out) {
			return nil, nil
		}
		out = out[filters.Offset:]
	}
	if filters.Limit > 0 && filters.Limit < len(out) {
		out = out[:filters.Limit]
	}
	return out, nil
}

func matches(product *Product, filters *ProductFilters) bool {
	if filters == nil {
		return true
	}
	if filters.Category != "" && product.Category != filters.Category {
		return false
	}
	if filters.Subcategory != "" && product.Subcategory != filters.Subcategory {
		return false
	}
	if filters.FarmerID != nil && product.FarmerID != *filters.FarmerID {
		return false
	}
	if filters.MinPrice != nil && product.Price.LessThan(*filters.MinPrice) {
		return false
	}
	if filters.MaxPrice != nil && product.Price.GreaterThan(*filters.MaxPrice) {
		return false
	}
	if filters.CertifiedOnly && len(product.CertificationRefs) == 0 {
		return false
	}
	if filters.Search != "" {
		needle := strings.ToLower(filters.Search)
		if !strings.Contains(strings.ToLower(product.Name), needle) &&
			!strings.Contains(strings.ToLower(product.Description), needle) {
			return false
		}
	}
	if len(filters.Statuses) > 0 {
		found := false
		for _, s := range filters.Statuses {
			if product.Status == s {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

func (r *MemoryRepository) DeleteProduct(ctx context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.products[id]; !ok {
		return ErrProductNotFound
	}
	delete(r.products, id)
	return nil
}

func (r *MemoryRepository) DecrementQuantity(ctx context.Context, id uuid.UUID, qty int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	product, ok := r.products[id]
	if !ok {
		return ErrProductNotFound
	}
	if product.Quantity < qty {
		return &InsufficientStockError{ProductID: id, Requested: qty, Available: product.Quantity}
	}
	product.Quantity -= qty
	product.UpdatedAt = time.Now()
	return nil
}

func (r *MemoryRepository) IncrementQuantity(ctx context.Context, id uuid.UUID, delta int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	product, ok := r.products[id]
	if !ok {
		return ErrProductNotFound
	}
	product.Quantity += delta
	product.UpdatedAt = time.Now()
	return nil
}

func (r *MemoryRepository) UpdateStatus(ctx context.Context, transition *StatusTransition) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	product, ok := r.products[transition.ProductID]
	if !ok {
		return ErrProductNotFound
	}
	product.Status = transition.Status
	product.UpdatedAt = transition.Timestamp

	r.nextID++
	entry := *transition
	entry.ID = r.nextID
	r.history[transition.ProductID] = append(r.history[transition.ProductID], entry)
	return nil
}

func (r *MemoryRepository) GetStatusHistory(ctx context.Context, productID uuid.UUID) ([]StatusTransition, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	history := r.history[productID]
	out := make([]StatusTransition, len(history))
	copy(out, history)
	return out, nil
}

func (r *MemoryRepository) TrackingIDExists(ctx context.Context, trackingID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, product := range r.products {
		if product.TrackingID == trackingID {
			return true, nil
		}
	}
	return false, nil
}
