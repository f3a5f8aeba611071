package variant

import (
	"storefront-engine/internal/model"
)

// Page is the option-picker state for one product page view: the current
// selection, the bound variant id and the gallery.
//
// A Page is not safe for concurrent use. Each page view owns one.
type Page struct {
	product   *model.Product
	resolver  *Resolver
	selection Selection
	gallery   *Gallery
	variantID int64
}

// NewPage creates page state for p. The gallery is built from the product
// media and the bound variant id starts at the first variant, if any.
func NewPage(p *model.Product) *Page {
	refs := make([]string, 0, len(p.Media))
	for _, m := range p.Media {
		refs = append(refs, m.Ref())
	}

	pg := &Page{
		product:   p,
		resolver:  NewResolver(p),
		selection: NewSelection(p.AxisCount()),
		gallery:   NewGallery(refs),
	}
	if len(p.Variants) > 0 {
		pg.variantID = p.Variants[0].ID
	}
	return pg
}

// WithSelection seeds the selection, e.g. from SelectionFromWidgets.
// Values beyond the axis count are ignored so the length stays fixed.
func (pg *Page) WithSelection(sel Selection) *Page {
	for i := range pg.selection {
		pg.selection[i] = sel.Value(i + 1)
	}
	return pg
}

// Selection returns a copy of the current selection.
func (pg *Page) Selection() Selection {
	return pg.selection.Clone()
}

// VariantID returns the bound variant id, 0 when none was ever resolved.
func (pg *Page) VariantID() int64 {
	return pg.variantID
}

// Gallery exposes the page gallery for direct navigation.
func (pg *Page) Gallery() *Gallery {
	return pg.gallery
}

// Result is the state after an option change.
type Result struct {
	Selection    Selection          `json:"selection"`
	Availability []AxisAvailability `json:"availability,omitempty"`
	Forced       []ForcedSelection  `json:"forced,omitempty"`
	Matched      bool               `json:"matched"`
	Variant      *model.Variant     `json:"variant,omitempty"`
	VariantID    int64              `json:"variant_id"`
	Gallery      GalleryState       `json:"gallery"`
}

// OnOptionChange applies a value to the 1-based axis position, recomputes
// availability (which may force-select dependent axes), then matches a
// variant. On a match the bound variant id is updated and the gallery jumps
// to the variant's media. Without a match both are left as they were.
func (pg *Page) OnOptionChange(position int, value string) Result {
	pg.selection = pg.selection.With(position, value)
	return pg.Refresh()
}

// Refresh runs availability and matching against the current selection
// without changing it first.
func (pg *Page) Refresh() Result {
	avail := pg.resolver.Availability(pg.selection)
	pg.selection = avail.Selection

	res := Result{
		Availability: avail.Axes,
		Forced:       avail.Forced,
	}

	if v, ok := pg.resolver.Match(pg.selection); ok {
		res.Matched = true
		res.Variant = v
		pg.variantID = v.ID
		pg.gallery.ShowByMediaRef(v.MediaRef())
	}

	res.Selection = pg.selection.Clone()
	res.VariantID = pg.variantID
	res.Gallery = pg.gallery.State()
	return res
}
