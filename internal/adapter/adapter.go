// Package adapter defines the interface the engine uses to reach the
// storefront catalog and cart. Implementations translate storefront HTTP
// endpoints into model types.
package adapter

import (
	"context"

	"storefront-engine/internal/model"
)

// Storefront abstracts the catalog and cart operations the engine needs.
// The HTTP implementation lives in internal/storeapi.
//
// Implementations return model.APIError values (wrapping the model sentinels)
// so transport layers can map failures to status codes.
type Storefront interface {
	// Product fetches the catalog snapshot for handle.
	// GET /products/<handle>.js. Non-2xx or an undecodable body is an error;
	// callers that hydrate lists treat any error as "product absent".
	Product(ctx context.Context, handle string) (*model.Product, error)

	// AddToCart adds quantity units of variantID to the cart.
	// POST /cart/add.js with {"id":..,"quantity":..}. Success is any 2xx.
	AddToCart(ctx context.Context, variantID int64, quantity int) error

	// ShippingRates estimates shipping for the current cart to zip/country.
	// GET /cart/shipping_rates.json.
	ShippingRates(ctx context.Context, zip, country string) ([]model.ShippingRate, error)
}
