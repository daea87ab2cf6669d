package tracking

import (
	"context"
	"crypto/rand"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"ekofoods/marketplace-backend/internal/inventory"
)

const (
	idPrefix       = "EKO"
	randomChars    = 6
	base36Alphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ"
	maxIDAttempts  = 5
)

// Repository is the slice of product storage tracking depends on
type Repository interface {
	TrackingIDExists(ctx context.Context, trackingID string) (bool, error)
	GetProductByTrackingID(ctx context.Context, trackingID string) (*inventory.Product, error)
	GetStatusHistory(ctx context.Context, productID uuid.UUID) ([]inventory.StatusTransition, error)
}

// Provenance is the consumer-facing traceability view of one product
type Provenance struct {
	TrackingID        string                       `json:"tracking_id"`
	ProductID         uuid.UUID                    `json:"product_id"`
	Name              string                       `json:"name"`
	Category          string                       `json:"category"`
	FarmerID          uuid.UUID                    `json:"farmer_id"`
	Address           string                       `json:"address,omitempty"`
	HarvestDate       *time.Time                   `json:"harvest_date,omitempty"`
	CertificationRefs []string                     `json:"certification_refs,omitempty"`
	History           []inventory.StatusTransition `json:"history"`
}

// Service issues tracking identifiers and serves the read-only provenance
// view backed by the ledger's append-only history.
type Service struct {
	repo   Repository
	logger *zap.Logger
}

// NewService creates a new tracking service
func NewService(repo Repository, logger *zap.Logger) *Service {
	return &Service{
		repo:   repo,
		logger: logger,
	}
}

// NextTrackingID generates a shareable identifier of the form
// EKO-<base36 timestamp>-<6 random base36 chars>, uppercased. A collision
// against existing identifiers is retried with a fresh random suffix and
// never surfaced to callers.
func (s *Service) NextTrackingID(ctx context.Context) (string, error) {
	for attempt := 0; attempt < maxIDAttempts; attempt++ {
		id, err := generateID()
		if err != nil {
			return "", err
		}

		exists, err := s.repo.TrackingIDExists(ctx, id)
		if err != nil {
			return "", fmt.Errorf("failed to check tracking id: %w", err)
		}
		if !exists {
			return id, nil
		}

		s.logger.Warn("Tracking id collision, retrying", zap.String("tracking_id", id))
	}

	return "", fmt.Errorf("failed to generate a unique tracking id after %d attempts", maxIDAttempts)
}

// GetHistory returns a product's append-only status log in chronological
// order. Read-only: it never mutates the log.
func (s *Service) GetHistory(ctx context.Context, productID uuid.UUID) ([]inventory.StatusTransition, error) {
	return s.repo.GetStatusHistory(ctx, productID)
}

// GetProvenance resolves a tracking id to its product summary and history
func (s *Service) GetProvenance(ctx context.Context, trackingID string) (*Provenance, error) {
	product, err := s.repo.GetProductByTrackingID(ctx, strings.ToUpper(trackingID))
	if err != nil {
		return nil, err
	}

	history, err := s.repo.GetStatusHistory(ctx, product.ID)
	if err != nil {
		return nil, err
	}

	return &Provenance{
		TrackingID:        product.TrackingID,
		ProductID:         product.ID,
		Name:              product.Name,
		Category:          product.Category,
		FarmerID:          product.FarmerID,
		Address:           product.Address,
		HarvestDate:       product.HarvestDate,
		CertificationRefs: product.CertificationRefs,
		History:           history,
	}, nil
}

func generateID() (string, error) {
	suffix := make([]byte, randomChars)
	if _, err := rand.Read(suffix); err != nil {
		return "", fmt.Errorf("failed to read random bytes: %w", err)
	}
	for i, b := range suffix {
		suffix[i] = base36Alphabet[int(b)%len(base36Alphabet)]
	}

	timestamp := strings.ToUpper(strconv.FormatInt(time.Now().UnixMilli(), 36))
	return fmt.Sprintf("%s-%s-%s", idPrefix, timestamp, suffix), nil
}
