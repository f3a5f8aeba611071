package adapter

import (
	"context"

	"storefront-engine/internal/model"
)

// Mock implements Storefront for testing.
// Each method can be configured via function fields.
type Mock struct {
	ProductFunc       func(ctx context.Context, handle string) (*model.Product, error)
	AddToCartFunc     func(ctx context.Context, variantID int64, quantity int) error
	ShippingRatesFunc func(ctx context.Context, zip, country string) ([]model.ShippingRate, error)
}

// Product calls the configured ProductFunc or returns not found.
func (m *Mock) Product(ctx context.Context, handle string) (*model.Product, error) {
	if m.ProductFunc != nil {
		return m.ProductFunc(ctx, handle)
	}
	return nil, model.NewNotFoundError("product")
}

// AddToCart calls the configured AddToCartFunc or rejects the item.
func (m *Mock) AddToCart(ctx context.Context, variantID int64, quantity int) error {
	if m.AddToCartFunc != nil {
		return m.AddToCartFunc(ctx, variantID, quantity)
	}
	return model.NewCartRejectedError("")
}

// ShippingRates calls the configured ShippingRatesFunc or returns no rates.
func (m *Mock) ShippingRates(ctx context.Context, zip, country string) ([]model.ShippingRate, error) {
	if m.ShippingRatesFunc != nil {
		return m.ShippingRatesFunc(ctx, zip, country)
	}
	return nil, nil
}

// Verify Mock implements Storefront interface at compile time.
var _ Storefront = (*Mock)(nil)
