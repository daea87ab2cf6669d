package carbon

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"ekofoods/marketplace-backend/internal/catalog"
	"ekofoods/marketplace-backend/pkg/geo"
)

// PaymentMethod identifies how the shopper pays at checkout
type PaymentMethod string

const (
	PaymentMethodCard           PaymentMethod = "card"
	PaymentMethodPayPal         PaymentMethod = "paypal"
	PaymentMethodBankTransfer   PaymentMethod = "bank_transfer"
	PaymentMethodCashOnDelivery PaymentMethod = "cash_on_delivery"
)

// processingFee holds the per-method rate and fixed component
type processingFee struct {
	rate  decimal.Decimal
	fixed decimal.Decimal
}

// Processing fees are validated server-side against this closed table; an
// unknown method is rejected rather than defaulting to zero.
var processingFees = map[PaymentMethod]processingFee{
	PaymentMethodCard:           {rate: decimal.NewFromFloat(0.029), fixed: decimal.NewFromFloat(0.30)},
	PaymentMethodPayPal:         {rate: decimal.NewFromFloat(0.034), fixed: decimal.NewFromFloat(0.49)},
	PaymentMethodBankTransfer:   {rate: decimal.Zero, fixed: decimal.Zero},
	PaymentMethodCashOnDelivery: {rate: decimal.Zero, fixed: decimal.NewFromFloat(1.50)},
}

var (
	flatDeliveryFee       = decimal.NewFromFloat(5.99)
	freeDeliveryThreshold = decimal.NewFromInt(50)
)

// OrderLine is one finalized cart line
type OrderLine struct {
	ProductID uuid.UUID `json:"product_id" binding:"required"`
	Quantity  int       `json:"qty" binding:"required,min=1"`
}

// OrderSummaryRequest is the finalized cart plus delivery destination
type OrderSummaryRequest struct {
	Lines         []OrderLine   `json:"lines" binding:"required,min=1"`
	PaymentMethod PaymentMethod `json:"payment_method" binding:"required"`
	Latitude      float64       `json:"latitude"`
	Longitude     float64       `json:"longitude"`
}

// LineSummary is the per-line breakdown of the order summary
type LineSummary struct {
	ProductID    uuid.UUID       `json:"product_id"`
	Name         string          `json:"name"`
	Quantity     int             `json:"quantity"`
	LineTotal    decimal.Decimal `json:"line_total"`
	WeightKg     float64         `json:"weight_kg"`
	DistanceKm   float64         `json:"distance_km"`
	CarbonCO2eKg float64         `json:"carbon_co2e_kg"`
}

// OrderSummary is the server-computed checkout summary
type OrderSummary struct {
	Lines         []LineSummary   `json:"lines"`
	Subtotal      decimal.Decimal `json:"subtotal"`
	DeliveryFee   decimal.Decimal `json:"delivery_fee"`
	ProcessingFee decimal.Decimal `json:"processing_fee"`
	CarbonCO2eKg  float64         `json:"carbon_co2e_kg"`
	Total         decimal.Decimal `json:"total"`
}

// Service computes order summaries from finalized carts. The carbon figure
// is derived, non-authoritative and recomputed on every call.
type Service struct {
	catalog catalog.Reader
	logger  *zap.Logger
}

// NewService creates a new order summary service
func NewService(reader catalog.Reader, logger *zap.Logger) *Service {
	return &Service{
		catalog: reader,
		logger:  logger,
	}
}

// Summarize computes fees and the carbon estimate for a finalized cart
func (s *Service) Summarize(ctx context.Context, req *OrderSummaryRequest) (*OrderSummary, error) {
	fee, ok := processingFees[req.PaymentMethod]
	if !ok {
		return nil, fmt.Errorf("unknown payment method: %q", req.PaymentMethod)
	}

	destination, err := geo.NewPoint(req.Latitude, req.Longitude)
	if err != nil {
		return nil, fmt.Errorf("invalid delivery location: %w", err)
	}

	summary := &OrderSummary{}
	for _, line := range req.Lines {
		product, err := s.catalog.GetProduct(ctx, line.ProductID)
		if err != nil {
			return nil, err
		}

		weightKg := product.UnitWeightKg * float64(line.Quantity)
		distanceKm := geo.DistanceKm(product.Location(), destination)
		co2e := Estimate(product.Category, weightKg, distanceKm)

		lineTotal := product.Price.Mul(decimal.NewFromInt(int64(line.Quantity)))
		summary.Lines = append(summary.Lines, LineSummary{
			ProductID:    product.ID,
			Name:         product.Name,
			Quantity:     line.Quantity,
			LineTotal:    lineTotal,
			WeightKg:     weightKg,
			DistanceKm:   distanceKm,
			CarbonCO2eKg: co2e,
		})

		summary.Subtotal = summary.Subtotal.Add(lineTotal)
		summary.CarbonCO2eKg += co2e
	}

	summary.DeliveryFee = flatDeliveryFee
	if summary.Subtotal.GreaterThanOrEqual(freeDeliveryThreshold) {
		summary.DeliveryFee = decimal.Zero
	}

	summary.ProcessingFee = summary.Subtotal.Mul(fee.rate).Add(fee.fixed).Round(2)
	summary.Total = summary.Subtotal.Add(summary.DeliveryFee).Add(summary.ProcessingFee)

	return summary, nil
}
