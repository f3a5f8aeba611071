package variant

// GalleryItem is one slide in the product media gallery.
type GalleryItem struct {
	MediaRef string `json:"media_ref"`
	Active   bool   `json:"active"`
	Selected bool   `json:"selected"` // Thumbnail state
}

// Gallery owns the displayed media index for one page view.
// The index is circular over [0, len(items)).
type Gallery struct {
	items   []GalleryItem
	current int
}

// NewGallery creates a gallery over the given media refs, showing index 0.
// An empty gallery is valid; every operation on it is a no-op.
func NewGallery(mediaRefs []string) *Gallery {
	g := &Gallery{items: make([]GalleryItem, len(mediaRefs))}
	for i, ref := range mediaRefs {
		g.items[i].MediaRef = ref
	}
	g.ShowIndex(0)
	return g
}

// Len returns the number of gallery items.
func (g *Gallery) Len() int {
	return len(g.items)
}

// Current returns the active index.
func (g *Gallery) Current() int {
	return g.current
}

// ShowIndex activates item i, wrapped into range, and selects its thumbnail.
// Every other item is cleared.
func (g *Gallery) ShowIndex(i int) {
	n := len(g.items)
	if n == 0 {
		return
	}
	idx := ((i % n) + n) % n
	for j := range g.items {
		on := j == idx
		g.items[j].Active = on
		g.items[j].Selected = on
	}
	g.current = idx
}

// ShowByMediaRef activates the item whose media ref equals ref.
// Returns false and leaves the state untouched when no item matches.
func (g *Gallery) ShowByMediaRef(ref string) bool {
	if ref == "" {
		return false
	}
	for i, item := range g.items {
		if item.MediaRef == ref {
			g.ShowIndex(i)
			return true
		}
	}
	return false
}

// Next and Prev step the gallery circularly.
func (g *Gallery) Next() { g.ShowIndex(g.current + 1) }
func (g *Gallery) Prev() { g.ShowIndex(g.current - 1) }

// GalleryState is a snapshot of the visible gallery.
type GalleryState struct {
	Current int           `json:"current"`
	Items   []GalleryItem `json:"items"`
}

// State returns a copy of the visible state.
func (g *Gallery) State() GalleryState {
	items := make([]GalleryItem, len(g.items))
	copy(items, g.items)
	return GalleryState{Current: g.current, Items: items}
}
