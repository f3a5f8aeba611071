package wishlist

import (
	"context"
	"log/slog"

	"storefront-engine/internal/adapter"
)

// CartBridge moves a saved item into the cart.
type CartBridge struct {
	store    *Store
	cart     adapter.Storefront
	renderer *Renderer
	logger   *slog.Logger
}

// AddToCart adds one unit of variantID. A variant id of 0 sends nothing.
// A failed add is dropped: it is logged at debug level and the wishlist is
// left as it was. On success the entry is removed, its flag cleared and the
// wishlist re-rendered. Reports whether the item reached the cart.
func (b *CartBridge) AddToCart(ctx context.Context, handle string, variantID int64) bool {
	if variantID <= 0 {
		b.logger.Debug("cart add skipped: no variant", "handle", handle)
		return false
	}

	if err := b.cart.AddToCart(ctx, variantID, 1); err != nil {
		b.logger.Debug("cart add failed", "handle", handle, "variant_id", variantID, "error", err)
		return false
	}

	if err := b.store.Remove(ctx, handle); err != nil {
		b.logger.Warn("wishlist remove after cart add failed", "handle", handle, "error", err)
	}
	if _, err := b.renderer.Render(ctx); err != nil {
		b.logger.Warn("wishlist render after cart add failed", "error", err)
	}
	return true
}
