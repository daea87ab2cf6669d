package carbon

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
)

func newTestService(t *testing.T) (*Service, *inventory.MemoryRepository) {
	t.Helper()
	repo := inventory.NewMemoryRepository()
	return NewService(repo, zap.NewNop()), repo
}

func seedProduct(t *testing.T, repo *inventory.MemoryRepository, category string, price, unitWeightKg float64) *inventory.Product {
	t.Helper()
	now := time.Now()
	product := &inventory.Product{
		ID:           uuid.New(),
		FarmerID:     uuid.New(),
		Name:         "farm box",
		Category:     category,
		Price:        decimal.NewFromFloat(price),
		UnitMeasure:  "box",
		UnitWeightKg: unitWeightKg,
		Quantity:     100,
		Status:       inventory.StatusAvailable,
		Latitude:     0,
		Longitude:    0,
		TrackingID:   uuid.New().String(),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	require.NoError(t, repo.CreateProduct(context.Background(), product))
	return product
}

func TestSummarizeComputesFeesAndCarbon(t *testing.T) {
	service, repo := newTestService(t)
	product := seedProduct(t, repo, "vegetables", 10.00, 2)

	summary, err := service.Summarize(context.Background(), &OrderSummaryRequest{
		Lines:         []OrderLine{{ProductID: product.ID, Quantity: 2}},
		PaymentMethod: PaymentMethodCard,
		Latitude:      0,
		Longitude:     0, // same point as the farm: no transport emissions
	})
	require.NoError(t, err)

	assert.True(t, summary.Subtotal.Equal(decimal.NewFromInt(20)))
	assert.True(t, summary.DeliveryFee.Equal(flatDeliveryFee), "below the free-delivery threshold")
	// 20 * 0.029 + 0.30 = 0.88
	assert.True(t, summary.ProcessingFee.Equal(decimal.NewFromFloat(0.88)), "got %s", summary.ProcessingFee)
	assert.Equal(t, Estimate("vegetables", 4, 0), summary.CarbonCO2eKg)

	expectedTotal := summary.Subtotal.Add(summary.DeliveryFee).Add(summary.ProcessingFee)
	assert.True(t, summary.Total.Equal(expectedTotal))
}

func TestSummarizeFreeDeliveryThreshold(t *testing.T) {
	service, repo := newTestService(t)
	product := seedProduct(t, repo, "fruits", 25.00, 1)

	summary, err := service.Summarize(context.Background(), &OrderSummaryRequest{
		Lines:         []OrderLine{{ProductID: product.ID, Quantity: 2}},
		PaymentMethod: PaymentMethodBankTransfer,
	})
	require.NoError(t, err)

	assert.True(t, summary.DeliveryFee.IsZero(), "subtotal of 50 qualifies for free delivery")
	assert.True(t, summary.ProcessingFee.IsZero())
}

func TestSummarizeRejectsUnknownPaymentMethod(t *testing.T) {
	service, repo := newTestService(t)
	product := seedProduct(t, repo, "fruits", 5.00, 1)

	_, err := service.Summarize(context.Background(), &OrderSummaryRequest{
		Lines:         []OrderLine{{ProductID: product.ID, Quantity: 1}},
		PaymentMethod: PaymentMethod("barter"),
	})
	assert.Error(t, err)
}

func TestSummarizeUnknownProduct(t *testing.T) {
	service, _ := newTestService(t)

	_, err := service.Summarize(context.Background(), &OrderSummaryRequest{
		Lines:         []OrderLine{{ProductID: uuid.New(), Quantity: 1}},
		PaymentMethod: PaymentMethodCard,
	})
	assert.ErrorIs(t, err, inventory.ErrProductNotFound)
}

func TestSummarizeCountsTransportDistance(t *testing.T) {
	service, repo := newTestService(t)
	product := seedProduct(t, repo, "vegetables", 10.00, 1)

	local, err := service.Summarize(context.Background(), &OrderSummaryRequest{
		Lines:         []OrderLine{{ProductID: product.ID, Quantity: 1}},
		PaymentMethod: PaymentMethodCashOnDelivery,
		Latitude:      0,
		Longitude:     0,
	})
	require.NoError(t, err)

	remote, err := service.Summarize(context.Background(), &OrderSummaryRequest{
		Lines:         []OrderLine{{ProductID: product.ID, Quantity: 1}},
		PaymentMethod: PaymentMethodCashOnDelivery,
		Latitude:      0,
		Longitude:     1,
	})
	require.NoError(t, err)

	assert.Greater(t, remote.CarbonCO2eKg, local.CarbonCO2eKg)
}

func TestSummarizeRejectsInvalidDestination(t *testing.T) {
	service, repo := newTestService(t)
	product := seedProduct(t, repo, "fruits", 5.00, 1)

	_, err := service.Summarize(context.Background(), &OrderSummaryRequest{
		Lines:         []OrderLine{{ProductID: product.ID, Quantity: 1}},
		PaymentMethod: PaymentMethodCard,
		Latitude:      120,
	})
	assert.Error(t, err)
}
