package discovery

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"ekofoods/marketplace-backend/internal/inventory"
	"ekofoods/marketplace-backend/pkg/geo"
)

func newTestService(t *testing.T) (*Service, *inventory.MemoryRepository) {
	t.Helper()
	repo := inventory.NewMemoryRepository()
	return NewService(repo, zap.NewNop()), repo
}

func seedAt(t *testing.T, repo *inventory.MemoryRepository, name string, lat, lon float64, price float64, createdAt time.Time) *inventory.Product {
	t.Helper()
	product := &inventory.Product{
		ID:          uuid.New(),
		FarmerID:    uuid.New(),
		Name:        name,
		Category:    "vegetables",
		Price:       decimal.NewFromFloat(price),
		UnitMeasure: "kg",
		Quantity:    10,
		Status:      inventory.StatusAvailable,
		Latitude:    lat,
		Longitude:   lon,
		TrackingID:  uuid.New().String(),
		CreatedAt:   createdAt,
		UpdatedAt:   createdAt,
	}
	require.NoError(t, repo.CreateProduct(context.Background(), product))
	return product
}

func TestSearchRadiusFiltering(t *testing.T) {
	service, repo := newTestService(t)
	now := time.Now()
	near := seedAt(t, repo, "near farm", 0, 0, 1, now)
	far := seedAt(t, repo, "far farm", 0, 1, 1, now) // ~111 km away

	center := geo.Point{Lat: 0, Lon: 0}

	page, err := service.Search(context.Background(), &SearchRequest{
		Center:   &center,
		RadiusKm: 50,
		SortBy:   SortByDistance,
	})
	require.NoError(t, err)
	require.Len(t, page.Results, 1)
	assert.Equal(t, near.ID, page.Results[0].Product.ID)

	page, err = service.Search(context.Background(), &SearchRequest{
		Center:   &center,
		RadiusKm: 200,
		SortBy:   SortByDistance,
	})
	require.NoError(t, err)
	require.Len(t, page.Results, 2)
	assert.Equal(t, near.ID, page.Results[0].Product.ID)
	assert.Equal(t, far.ID, page.Results[1].Product.ID)
	require.NotNil(t, page.Results[1].DistanceKm)
	assert.InDelta(t, 111.19, *page.Results[1].DistanceKm, 0.05)
}

func TestSearchWithoutCenterSkipsDistance(t *testing.T) {
	service, repo := newTestService(t)
	seedAt(t, repo, "anywhere", 45, 45, 1, time.Now())

	page, err := service.Search(context.Background(), &SearchRequest{SortBy: SortByCreatedAt})
	require.NoError(t, err)
	require.Len(t, page.Results, 1)
	assert.Nil(t, page.Results[0].DistanceKm)
}

func TestSearchDistanceSortRequiresCenter(t *testing.T) {
	service, _ := newTestService(t)

	_, err := service.Search(context.Background(), &SearchRequest{SortBy: SortByDistance})
	assert.Error(t, err)
}

func TestSearchSortsByPrice(t *testing.T) {
	service, repo := newTestService(t)
	now := time.Now()
	cheap := seedAt(t, repo, "cheap", 0, 0, 1.50, now)
	mid := seedAt(t, repo, "mid", 0, 0, 3.00, now)
	dear := seedAt(t, repo, "dear", 0, 0, 7.25, now)

	page, err := service.Search(context.Background(), &SearchRequest{SortBy: SortByPrice, Order: OrderAsc})
	require.NoError(t, err)
	require.Len(t, page.Results, 3)
	assert.Equal(t, cheap.ID, page.Results[0].Product.ID)
	assert.Equal(t, mid.ID, page.Results[1].Product.ID)
	assert.Equal(t, dear.ID, page.Results[2].Product.ID)

	page, err = service.Search(context.Background(), &SearchRequest{SortBy: SortByPrice, Order: OrderDesc})
	require.NoError(t, err)
	assert.Equal(t, dear.ID, page.Results[0].Product.ID)
}

func TestSearchTieBreaksByIDForStablePages(t *testing.T) {
	service, repo := newTestService(t)
	now := time.Now()
	for i := 0; i < 5; i++ {
		seedAt(t, repo, "same price", 0, 0, 2.00, now)
	}

	first, err := service.Search(context.Background(), &SearchRequest{SortBy: SortByPrice, Order: OrderAsc})
	require.NoError(t, err)
	second, err := service.Search(context.Background(), &SearchRequest{SortBy: SortByPrice, Order: OrderAsc})
	require.NoError(t, err)

	require.Equal(t, len(first.Results), len(second.Results))
	for i := range first.Results {
		assert.Equal(t, first.Results[i].Product.ID, second.Results[i].Product.ID)
	}
}

func TestSearchPagination(t *testing.T) {
	service, repo := newTestService(t)
	now := time.Now()
	for i := 0; i < 7; i++ {
		seedAt(t, repo, "farm stand", 0, 0, float64(i+1), now)
	}

	page, err := service.Search(context.Background(), &SearchRequest{
		SortBy: SortByPrice,
		Order:  OrderAsc,
		Offset: 0,
		Limit:  3,
	})
	require.NoError(t, err)
	assert.Equal(t, 7, page.Total)
	assert.Len(t, page.Results, 3)

	last, err := service.Search(context.Background(), &SearchRequest{
		SortBy: SortByPrice,
		Order:  OrderAsc,
		Offset: 6,
		Limit:  3,
	})
	require.NoError(t, err)
	assert.Len(t, last.Results, 1)

	beyond, err := service.Search(context.Background(), &SearchRequest{
		SortBy: SortByPrice,
		Order:  OrderAsc,
		Offset: 20,
		Limit:  3,
	})
	require.NoError(t, err)
	assert.Empty(t, beyond.Results)
	assert.Equal(t, 7, beyond.Total)
}

func TestSearchDefaultsLimit(t *testing.T) {
	service, repo := newTestService(t)
	now := time.Now()
	for i := 0; i < DefaultPageSize+5; i++ {
		seedAt(t, repo, "bulk", 0, 0, 1, now.Add(time.Duration(i)*time.Second))
	}

	page, err := service.Search(context.Background(), &SearchRequest{SortBy: SortByCreatedAt})
	require.NoError(t, err)
	assert.Len(t, page.Results, DefaultPageSize)
}
