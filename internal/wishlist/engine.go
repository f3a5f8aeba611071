package wishlist

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/microcosm-cc/bluemonday"

	"storefront-engine/internal/adapter"
	"storefront-engine/internal/reconcile"
	"storefront-engine/internal/storage"
)

// Options configures a Wishlist.
type Options struct {
	Formatter   PriceFormatter // nil uses DefaultPriceFormatter
	Concurrency int            // Max in-flight catalog fetches (0 = DefaultConcurrency)
	Logger      *slog.Logger   // nil discards
}

// Wishlist wires the store, renderer and cart bridge for one client.
type Wishlist struct {
	Store    *Store
	Renderer *Renderer
	Cart     *CartBridge

	repo   storage.Store
	logger *slog.Logger
}

// New assembles a wishlist over repo. A nil surface discards renders.
func New(repo storage.Store, storefront adapter.Storefront, surface Surface, opts Options) *Wishlist {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	formatter := opts.Formatter
	if formatter == nil {
		formatter = DefaultPriceFormatter
	}
	concurrency := opts.Concurrency
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}
	if surface == nil {
		surface = discardSurface{}
	}

	store := NewStore(repo, logger)
	renderer := &Renderer{
		store:       store,
		catalog:     storefront,
		surface:     surface,
		formatter:   formatter,
		concurrency: concurrency,
		sanitizer:   bluemonday.StrictPolicy(),
		logger:      logger,
	}
	bridge := &CartBridge{
		store:    store,
		cart:     storefront,
		renderer: renderer,
		logger:   logger,
	}
	renderer.cart = bridge

	return &Wishlist{
		Store:    store,
		Renderer: renderer,
		Cart:     bridge,
		repo:     repo,
		logger:   logger,
	}
}

// Watch re-renders whenever the entry list changes in the repository,
// including writes made by other engine instances sharing the backend.
// Blocks until ctx is done or the subscription ends.
func (w *Wishlist) Watch(ctx context.Context) error {
	changes, err := w.repo.Subscribe(ctx)
	if err != nil {
		return fmt.Errorf("subscribing to wishlist changes: %w", err)
	}

	last := w.Store.Handles(ctx)
	for {
		select {
		case <-ctx.Done():
			return nil
		case c, ok := <-changes:
			if !ok {
				return nil
			}
			if c.Key != ItemsKey {
				continue
			}
			current := w.Store.Handles(ctx)
			diff := reconcile.DiffHandles(last, current)
			last = current
			w.logger.Debug("wishlist changed", "added", diff.Added, "removed", diff.Removed)
			if _, err := w.Renderer.Render(ctx); err != nil {
				w.logger.Warn("wishlist render failed", "error", err)
			}
		}
	}
}

// Engine hands out per-client wishlists over one shared repository.
type Engine struct {
	repo       storage.Store
	storefront adapter.Storefront
	opts       Options
}

// NewEngine creates an engine. Each client's keys are namespaced with
// storage.ClientPrefix.
func NewEngine(repo storage.Store, storefront adapter.Storefront, opts Options) *Engine {
	return &Engine{repo: repo, storefront: storefront, opts: opts}
}

// ForClient returns the wishlist for clientID rendering to surface.
func (e *Engine) ForClient(clientID string, surface Surface) *Wishlist {
	return New(storage.WithPrefix(e.repo, storage.ClientPrefix(clientID)), e.storefront, surface, e.opts)
}

// Storefront returns the catalog and cart client.
func (e *Engine) Storefront() adapter.Storefront {
	return e.storefront
}

// Repository returns the shared repository.
func (e *Engine) Repository() storage.Store {
	return e.repo
}
