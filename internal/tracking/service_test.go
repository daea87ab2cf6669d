package tracking

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"ekofoods/marketplace-backend/internal/inventory"
)

// MockRepository is a mock implementation of the Repository interface
type MockRepository struct {
	mock.Mock
}

func (m *MockRepository) TrackingIDExists(ctx context.Context, trackingID string) (bool, error) {
	args := m.Called(ctx, trackingID)
	return args.Bool(0), args.Error(1)
}

func (m *MockRepository) GetProductByTrackingID(ctx context.Context, trackingID string) (*inventory.Product, error) {
	args := m.Called(ctx, trackingID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*inventory.Product), args.Error(1)
}

func (m *MockRepository) GetStatusHistory(ctx context.Context, productID uuid.UUID) ([]inventory.StatusTransition, error) {
	args := m.Called(ctx, productID)
	return args.Get(0).([]inventory.StatusTransition), args.Error(1)
}

var trackingIDPattern = regexp.MustCompile(`^EKO-[0-9A-Z]+-[0-9A-Z]{6}$`)

func TestNextTrackingIDFormat(t *testing.T) {
	repo := new(MockRepository)
	repo.On("TrackingIDExists", mock.Anything, mock.Anything).Return(false, nil)

	service := NewService(repo, zap.NewNop())

	id, err := service.NextTrackingID(context.Background())
	require.NoError(t, err)
	assert.Regexp(t, trackingIDPattern, id)
}

func TestNextTrackingIDRetriesOnCollision(t *testing.T) {
	repo := new(MockRepository)
	repo.On("TrackingIDExists", mock.Anything, mock.Anything).Return(true, nil).Twice()
	repo.On("TrackingIDExists", mock.Anything, mock.Anything).Return(false, nil).Once()

	service := NewService(repo, zap.NewNop())

	id, err := service.NextTrackingID(context.Background())
	require.NoError(t, err)
	assert.Regexp(t, trackingIDPattern, id)
	repo.AssertNumberOfCalls(t, "TrackingIDExists", 3)
}

func TestNextTrackingIDGivesUpAfterMaxAttempts(t *testing.T) {
	repo := new(MockRepository)
	repo.On("TrackingIDExists", mock.Anything, mock.Anything).Return(true, nil)

	service := NewService(repo, zap.NewNop())

	_, err := service.NextTrackingID(context.Background())
	assert.Error(t, err)
	repo.AssertNumberOfCalls(t, "TrackingIDExists", maxIDAttempts)
}

func TestGetProvenance(t *testing.T) {
	productID := uuid.New()
	farmerID := uuid.New()
	product := &inventory.Product{
		ID:                productID,
		FarmerID:          farmerID,
		Name:              "alpine cheese",
		Category:          "dairy",
		TrackingID:        "EKO-ABC123-XYZ789",
		CertificationRefs: []string{"eu-organic-2026"},
	}
	history := []inventory.StatusTransition{
		{ProductID: productID, Status: inventory.StatusAvailable, Timestamp: time.Now().Add(-time.Hour)},
		{ProductID: productID, Status: inventory.StatusPreparing, Timestamp: time.Now()},
	}

	repo := new(MockRepository)
	repo.On("GetProductByTrackingID", mock.Anything, "EKO-ABC123-XYZ789").Return(product, nil)
	repo.On("GetStatusHistory", mock.Anything, productID).Return(history, nil)

	service := NewService(repo, zap.NewNop())

	// Lookup is case-insensitive on the caller side.
	provenance, err := service.GetProvenance(context.Background(), "eko-abc123-xyz789")
	require.NoError(t, err)

	assert.Equal(t, "EKO-ABC123-XYZ789", provenance.TrackingID)
	assert.Equal(t, farmerID, provenance.FarmerID)
	require.Len(t, provenance.History, 2)
	assert.Equal(t, inventory.StatusAvailable, provenance.History[0].Status)
}

func TestGetProvenanceUnknownID(t *testing.T) {
	repo := new(MockRepository)
	repo.On("GetProductByTrackingID", mock.Anything, mock.Anything).Return(nil, inventory.ErrProductNotFound)

	service := NewService(repo, zap.NewNop())

	_, err := service.GetProvenance(context.Background(), "EKO-NOPE-NOPE")
	assert.ErrorIs(t, err, inventory.ErrProductNotFound)
}
