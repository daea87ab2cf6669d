package inventory

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"

	"ekofoods/marketplace-backend/pkg/geo"
)

// =====================================================
// Enums and Constants
// =====================================================

// Status represents a product's lifecycle stage
type Status string

const (
	StatusAvailable   Status = "available"
	StatusUnavailable Status = "unavailable"
	StatusPreparing   Status = "preparing"
	StatusShipped     Status = "shipped"
	StatusDelivered   Status = "delivered"
)

// Valid reports whether s is one of the known lifecycle stages
func (s Status) Valid() bool {
	switch s {
	case StatusAvailable, StatusUnavailable, StatusPreparing, StatusShipped, StatusDelivered:
		return true
	}
	return false
}

// =====================================================
// Models
// =====================================================

// Product represents a sellable item listed by a farmer. Quantity, Status and
// the status history are owned exclusively by the ledger; every other field
// is set at creation and read-only afterwards.
type Product struct {
	ID                uuid.UUID       `json:"id" db:"id"`
	FarmerID          uuid.UUID       `json:"farmer_id" db:"farmer_id"`
	Name              string          `json:"name" db:"name"`
	Description       string          `json:"description,omitempty" db:"description"`
	Category          string          `json:"category" db:"category"`
	Subcategory       string          `json:"subcategory,omitempty" db:"subcategory"`
	Price             decimal.Decimal `json:"price" db:"price"`
	UnitMeasure       string          `json:"unit_measure" db:"unit_measure"`
	UnitWeightKg      float64         `json:"unit_weight_kg" db:"unit_weight_kg"`
	Quantity          int             `json:"quantity" db:"quantity"`
	Status            Status          `json:"status" db:"status"`
	Rating            float64         `json:"rating" db:"rating"`
	Latitude          float64         `json:"latitude" db:"latitude"`
	Longitude         float64         `json:"longitude" db:"longitude"`
	Address           string          `json:"address,omitempty" db:"address"`
	HarvestDate       *time.Time      `json:"harvest_date,omitempty" db:"harvest_date"`
	TrackingID        string          `json:"tracking_id" db:"tracking_id"`
	CertificationRefs pq.StringArray  `json:"certification_refs,omitempty" db:"certification_refs"`
	CreatedAt         time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt         time.Time       `json:"updated_at" db:"updated_at"`
}

// Location returns the product's coordinates as a geo point
func (p *Product) Location() geo.Point {
	return geo.Point{Lat: p.Latitude, Lon: p.Longitude}
}

// StatusTransition is one entry of a product's append-only status history
type StatusTransition struct {
	ID        int64     `json:"-" db:"id"`
	ProductID uuid.UUID `json:"product_id" db:"product_id"`
	Status    Status    `json:"status" db:"status"`
	ActorID   string    `json:"actor_id" db:"actor_id"`
	Note      string    `json:"note,omitempty" db:"note"`
	Timestamp time.Time `json:"timestamp" db:"timestamp"`
}

// CreateProductRequest carries the immutable fields set at creation
type CreateProductRequest struct {
	FarmerID          uuid.UUID  `json:"farmer_id" binding:"required"`
	Name              string     `json:"name" binding:"required"`
	Description       string     `json:"description"`
	Category          string     `json:"category" binding:"required"`
	Subcategory       string     `json:"subcategory"`
	Price             string     `json:"price" binding:"required"`
	UnitMeasure       string     `json:"unit_measure" binding:"required"`
	UnitWeightKg      float64    `json:"unit_weight_kg"`
	Quantity          int        `json:"quantity" binding:"min=0"`
	Latitude          float64    `json:"latitude"`
	Longitude         float64    `json:"longitude"`
	Address           string     `json:"address"`
	HarvestDate       *time.Time `json:"harvest_date"`
	CertificationRefs []string   `json:"certification_refs"`
}

// TransitionStatusRequest is the body of PUT /products/:id/status
type TransitionStatusRequest struct {
	Status Status `json:"status" binding:"required"`
	Note   string `json:"note"`
}

// RestockRequest is the body of POST /products/:id/restock
type RestockRequest struct {
	Delta int `json:"delta" binding:"required,min=1"`
}
