// Package variant resolves partial option selections into purchasable
// variants and keeps the product gallery in step with the resolved variant.
//
// Nothing here performs I/O. Product snapshots come from the catalog; the
// page state (Selection, Gallery, bound variant id) lives for one page view.
package variant

// Unset marks an axis with no chosen value. It matches any variant value.
const Unset = ""

// Selection holds the chosen value per option axis. Its length is the
// product's axis count and never changes after construction.
type Selection []string

// NewSelection returns an all-unset selection for axisCount axes.
func NewSelection(axisCount int) Selection {
	if axisCount < 0 {
		axisCount = 0
	}
	return make(Selection, axisCount)
}

// Len returns the number of axes.
func (s Selection) Len() int {
	return len(s)
}

// Value returns the chosen value at 1-based position, or Unset when the
// position is out of range.
func (s Selection) Value(position int) string {
	if position < 1 || position > len(s) {
		return Unset
	}
	return s[position-1]
}

// With returns a copy with the 1-based position set to value.
// Out-of-range positions leave the copy unchanged.
func (s Selection) With(position int, value string) Selection {
	out := s.Clone()
	if position >= 1 && position <= len(out) {
		out[position-1] = value
	}
	return out
}

// Clone returns an independent copy.
func (s Selection) Clone() Selection {
	out := make(Selection, len(s))
	copy(out, s)
	return out
}

// IsEmpty reports whether every axis is unset.
func (s Selection) IsEmpty() bool {
	for _, v := range s {
		if v != Unset {
			return false
		}
	}
	return true
}

// WidgetKind identifies the UI control a selector value came from.
type WidgetKind string

const (
	WidgetColorSwatch WidgetKind = "color_swatch"
	WidgetSizeSelect  WidgetKind = "size_selector"
	WidgetOption      WidgetKind = "option_selector"
)

// Widget is the state of one option control on the page.
// Position is the 1-based axis the control drives.
type Widget struct {
	Kind     WidgetKind `json:"kind"`
	Position int        `json:"position"`
	Value    string     `json:"value"`
	Active   bool       `json:"active"`
}

// SelectionFromWidgets builds the current selection from the page controls.
// Inactive controls, empty values and positions outside [1, axisCount] leave
// the slot unset. When two active controls target the same axis the later
// one wins, matching document order.
func SelectionFromWidgets(axisCount int, widgets []Widget) Selection {
	sel := NewSelection(axisCount)
	for _, w := range widgets {
		if !w.Active || w.Value == "" {
			continue
		}
		if w.Position < 1 || w.Position > axisCount {
			continue
		}
		sel[w.Position-1] = w.Value
	}
	return sel
}
