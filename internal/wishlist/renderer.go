package wishlist

import (
	"bytes"
	"context"
	"fmt"
	"html"
	"html/template"
	"log/slog"
	"net/url"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"golang.org/x/sync/errgroup"

	"storefront-engine/internal/adapter"
	"storefront-engine/internal/model"
)

// EmptyMessage is shown when nothing could be rendered.
const EmptyMessage = "Your wishlist is empty."

// DefaultConcurrency bounds in-flight catalog fetches per render.
const DefaultConcurrency = 8

var emptyHTML = "<p>" + EmptyMessage + "</p>"

var listTemplate = template.Must(template.New("wishlist").Parse(`<ul class="stack" data-wishlist-list>
{{- range .}}
<li data-wishlist-item="{{.Handle}}"><a href="{{.URL}}">{{.Title}}</a> <span class="price">{{.Price}}</span>
{{- if .VariantID}} <button type="button" data-wishlist-action="move-to-cart" data-handle="{{.Handle}}" data-variant-id="{{.VariantID}}">Move to cart</button>{{end}} <button type="button" data-wishlist-action="remove" data-handle="{{.Handle}}">Remove</button></li>
{{- end}}
</ul>`))

// Item is one hydrated wishlist row.
type Item struct {
	Handle     string `json:"handle"`
	Title      string `json:"title"`
	URL        string `json:"url"`
	Image      string `json:"image,omitempty"`
	Price      string `json:"price"`
	PriceCents int64  `json:"price_cents"`
	VariantID  int64  `json:"variant_id,omitempty"` // 0 when no variant can be resolved
}

// View is the outcome of one render.
type View struct {
	Items []Item `json:"items"`
	Empty bool   `json:"empty"`
	HTML  string `json:"html"`
}

// Renderer hydrates saved entries from the catalog and writes the result to
// its Surface.
//
// Renders are not versioned: when two renders overlap, whichever finishes
// last owns the surface.
type Renderer struct {
	store       *Store
	catalog     adapter.Storefront
	surface     Surface
	formatter   PriceFormatter
	concurrency int
	sanitizer   *bluemonday.Policy
	logger      *slog.Logger
	cart        *CartBridge
}

// Render reads the entries, fetches every distinct handle concurrently and
// replaces the surface with the products that resolved. A handle whose fetch
// fails is left out; when nothing resolves the empty message is rendered.
func (r *Renderer) Render(ctx context.Context) (View, error) {
	entries := dedupe(r.store.Items(ctx))
	products := r.hydrate(ctx, entries)

	items := make([]Item, 0, len(entries))
	for i, e := range entries {
		p := products[i]
		if p == nil {
			continue
		}
		items = append(items, r.item(e, p))
	}

	view := View{Items: items}
	if len(items) == 0 {
		view.Empty = true
		view.HTML = emptyHTML
		r.surface.Replace(view.HTML)
		return view, nil
	}

	var buf bytes.Buffer
	if err := listTemplate.Execute(&buf, items); err != nil {
		return View{}, fmt.Errorf("rendering wishlist: %w", err)
	}
	view.HTML = buf.String()
	r.surface.Replace(view.HTML)
	return view, nil
}

// hydrate fetches products in entry order. Failed fetches leave a nil slot
// and never cancel sibling fetches.
func (r *Renderer) hydrate(ctx context.Context, entries []Entry) []*model.Product {
	products := make([]*model.Product, len(entries))

	var g errgroup.Group
	g.SetLimit(r.concurrency)
	for i, e := range entries {
		g.Go(func() error {
			p, err := r.catalog.Product(ctx, e.Handle)
			if err != nil {
				r.logger.Debug("wishlist item unavailable", "handle", e.Handle, "error", err)
				return nil
			}
			products[i] = p
			return nil
		})
	}
	g.Wait()
	return products
}

func (r *Renderer) item(e Entry, p *model.Product) Item {
	// The policy escapes entities; html/template escapes again on output.
	title := strings.TrimSpace(html.UnescapeString(r.sanitizer.Sanitize(p.Title)))
	if title == "" {
		title = strings.ReplaceAll(e.Handle, "-", " ")
	}

	variantID := e.Variant()
	if variantID == 0 && len(p.Variants) > 0 {
		variantID = p.Variants[0].ID
	}

	return Item{
		Handle:     e.Handle,
		Title:      title,
		URL:        "/products/" + url.PathEscape(e.Handle),
		Image:      p.FeaturedImage,
		Price:      r.formatter.FormatPrice(p.Price),
		PriceCents: p.Price,
		VariantID:  variantID,
	}
}

// dedupe keeps the first entry per handle, in order.
func dedupe(entries []Entry) []Entry {
	seen := make(map[string]bool, len(entries))
	out := make([]Entry, 0, len(entries))
	for _, e := range entries {
		if seen[e.Handle] {
			continue
		}
		seen[e.Handle] = true
		out = append(out, e)
	}
	return out
}

// Role is the action marker carried by a rendered control.
type Role string

const (
	RoleRemove     Role = "remove"
	RoleMoveToCart Role = "move-to-cart"
)

// Action is a click on a rendered wishlist control.
type Action struct {
	Role      Role   `json:"role" validate:"required"`
	Handle    string `json:"handle" validate:"required"`
	VariantID int64  `json:"variant_id,omitempty" validate:"gte=0"`
}

// Dispatch routes a control action. "remove" removes the entry and
// re-renders; "move-to-cart" goes through the CartBridge, taking the
// variant from the stored entry when the action carries none. Unknown roles
// are ignored. Reports whether the wishlist changed.
func (r *Renderer) Dispatch(ctx context.Context, a Action) (bool, error) {
	switch a.Role {
	case RoleRemove:
		if err := r.store.Remove(ctx, a.Handle); err != nil {
			return false, err
		}
		if _, err := r.Render(ctx); err != nil {
			return true, err
		}
		return true, nil

	case RoleMoveToCart:
		if r.cart == nil {
			return false, nil
		}
		variantID := a.VariantID
		if variantID == 0 {
			for _, e := range r.store.Items(ctx) {
				if e.Handle == a.Handle {
					variantID = e.Variant()
					break
				}
			}
		}
		return r.cart.AddToCart(ctx, a.Handle, variantID), nil

	default:
		r.logger.Debug("ignoring wishlist action", "role", a.Role)
		return false, nil
	}
}
